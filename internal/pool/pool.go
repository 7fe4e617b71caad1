// Package pool implements the bounded connection pool (C4): a small
// footprint reuse pool for plcclient.Client connections to a single PLC
// address, with a created<=max_size invariant enforced by a weighted
// semaphore.
package pool

import (
	"context"
	"sync"

	"github.com/carun/eipsession/internal/logging"
	"github.com/carun/eipsession/internal/plcclient"
	"github.com/carun/eipsession/internal/plcerr"
	"golang.org/x/sync/semaphore"
)

var log = logging.New("pool")

// Factory builds a new plcclient.Client for the pool to track.
type Factory func() (*plcclient.Client, error)

// Pool is a very small footprint pool for plcclient.Client instances,
// grounded on services/plc_manager.py::PLCConnectionPool. Idle clients are
// reused most-recently-released-first (a Go slice used as a stack), matching
// the reference implementation's collections.deque pop()/append() behavior;
// spec prose calls this "FIFO of idle clients" but the invariant that
// actually matters, created <= maxSize, holds under either reuse order. See
// SPEC_FULL.md §9 for the recorded decision.
type Pool struct {
	factory Factory
	maxSize int64
	sem     *semaphore.Weighted

	mu   sync.Mutex
	idle []*plcclient.Client
}

// New constructs a Pool bound to maxSize live clients, built by factory.
func New(maxSize int, factory Factory) *Pool {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Pool{
		factory: factory,
		maxSize: int64(maxSize),
		sem:     semaphore.NewWeighted(int64(maxSize)),
	}
}

// Acquire returns an idle client if one is available, otherwise creates a new
// one as long as created < maxSize. When the pool is already at capacity and
// no idle client exists, Acquire fails fast with a ManagerError rather than
// blocking, matching PLCConnectionPool.acquire's IndexError->immediate-raise
// behavior.
func (p *Pool) Acquire() (*plcclient.Client, error) {
	if client, ok := p.popIdle(); ok {
		log.Debug().Msg("reusing PLC client from pool")
		return client, nil
	}

	if !p.sem.TryAcquire(1) {
		return nil, plcerr.NewManagerError("PLC connection pool exhausted")
	}

	client, err := p.factory()
	if err != nil {
		p.sem.Release(1)
		return nil, plcerr.WrapConnectionError("failed to open PLC socket", err)
	}
	log.Debug().Msg("created new PLC client for pool")
	return client, nil
}

// Release returns client to the pool's idle stack if there is room, or drops
// it (closing it and releasing its semaphore slot) otherwise.
func (p *Pool) Release(client *plcclient.Client) {
	if client == nil {
		return
	}
	p.mu.Lock()
	if int64(len(p.idle)) < p.maxSize {
		p.idle = append(p.idle, client)
		p.mu.Unlock()
		log.Debug().Msg("PLC client returned to pool")
		return
	}
	p.mu.Unlock()
	client.Close()
	p.sem.Release(1)
}

// popIdle pops the most-recently-released client off the idle stack, if any.
func (p *Pool) popIdle() (*plcclient.Client, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.idle)
	if n == 0 {
		return nil, false
	}
	client := p.idle[n-1]
	p.idle = p.idle[:n-1]
	return client, true
}

// Drop permanently removes client from the pool (it will not be reused) and
// frees its semaphore slot, for callers that discover a client's connection
// is no longer usable (e.g. after a ConnectionError).
func (p *Pool) Drop(client *plcclient.Client) {
	if client == nil {
		return
	}
	client.Close()
	p.sem.Release(1)
}

// TryAcquireContext blocks until either a slot frees up or ctx is done,
// unlike Acquire's immediate-fail semantics. Not used by the session
// orchestrator (which wants fail-fast pool exhaustion per spec), but
// available to callers that explicitly want to wait.
func (p *Pool) TryAcquireContext(ctx context.Context) (*plcclient.Client, error) {
	if client, ok := p.popIdle(); ok {
		log.Debug().Msg("reusing PLC client from pool")
		return client, nil
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, plcerr.WrapManagerError("timed out waiting for PLC connection pool slot", err)
	}
	client, err := p.factory()
	if err != nil {
		p.sem.Release(1)
		return nil, plcerr.WrapConnectionError("failed to open PLC socket", err)
	}
	log.Debug().Msg("created new PLC client for pool")
	return client, nil
}
