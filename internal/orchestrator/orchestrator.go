package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/carun/eipsession/internal/ioruntime"
	"github.com/carun/eipsession/internal/logging"
	"github.com/carun/eipsession/internal/pool"
	"github.com/carun/eipsession/internal/session"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// keepAliveIdle is the freshness window diagnostics uses to report
// keep_alive_active, per spec §4.6 (KEEPALIVE_IDLE_SECONDS = 10s).
const keepAliveIdle = 10 * time.Second

// Options configures an Orchestrator.
type Options struct {
	DefaultHost   string
	DefaultPort   int
	PoolSize      int
	PollInterval  time.Duration
	OutputTimeout time.Duration
	DispatchPoll  time.Duration
}

func (o *Options) setDefaults() {
	if o.PoolSize <= 0 {
		o.PoolSize = 4
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.OutputTimeout <= 0 {
		o.OutputTimeout = 5 * time.Second
	}
	if o.DispatchPoll <= 0 {
		o.DispatchPoll = 200 * time.Millisecond
	}
}

// sessionHandle is the orchestrator's bookkeeping record for one active
// session, grounded on webapi/orchestrator.py::SessionHandle plus the
// worker-lifecycle fields spec.md §4.6 requires.
type sessionHandle struct {
	id        SessionID
	sess      *session.Session
	host      string
	port      int
	status    ConnectionStatus
	createdAt time.Time

	mu             sync.Mutex
	lastActivityAt time.Time

	cancel context.CancelFunc
	group  *errgroup.Group
}

func (h *sessionHandle) touch() {
	h.mu.Lock()
	h.lastActivityAt = time.Now()
	h.mu.Unlock()
}

func (h *sessionHandle) lastActivity() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastActivityAt
}

// Orchestrator coordinates PLC sessions shared across callers, owning the
// connection pool(s), the I/O runtime, and each session's worker set.
type Orchestrator struct {
	opts Options

	poolMu sync.Mutex
	pools  map[string]*pool.Pool

	runtime *ioruntime.Runtime

	mu       sync.Mutex
	sessions map[SessionID]*sessionHandle

	log zerolog.Logger
}

// New returns an Orchestrator backed by rt (which the caller loads via
// ApplyConfiguration or rt.Load before the first StartSession).
func New(rt *ioruntime.Runtime, opts Options) *Orchestrator {
	opts.setDefaults()
	return &Orchestrator{
		opts:     opts,
		pools:    make(map[string]*pool.Pool),
		runtime:  rt,
		sessions: make(map[SessionID]*sessionHandle),
		log:      logging.New("orchestrator"),
	}
}
