package ioruntime

import (
	"strings"
	"sync"
	"time"

	"github.com/carun/eipsession/internal/cip"
	"github.com/carun/eipsession/internal/config"
	"github.com/carun/eipsession/internal/plcerr"
	"github.com/carun/eipsession/internal/session"
)

// outputQueueDepth bounds how many unsent output writes a single alias may
// accumulate before QueueOutput starts rejecting new ones.
const outputQueueDepth = 8

// Runtime holds the registered assembly set for one device, the last known
// snapshot of each, and a per-alias output FIFO, grounded on
// io_runtime.py::IORuntime.
type Runtime struct {
	mu      sync.Mutex
	records map[string]*assemblyRuntimeRecord
	outputs map[string]chan *OutputRequest
}

// New returns an unconfigured Runtime; call Load before Fetch/QueueOutput.
func New() *Runtime {
	return &Runtime{
		records: make(map[string]*assemblyRuntimeRecord),
		outputs: make(map[string]chan *OutputRequest),
	}
}

// Load registers every assembly declared in cfg, replacing any prior
// configuration, grounded on io_runtime.py::IORuntime.load.
func (rt *Runtime) Load(cfg config.DeviceConfiguration) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.records = make(map[string]*assemblyRuntimeRecord, len(cfg.Assemblies))
	rt.outputs = make(map[string]chan *OutputRequest)
	for _, def := range cfg.Assemblies {
		rt.records[normalise(def.Alias)] = &assemblyRuntimeRecord{definition: def}
		if def.IsOutput() {
			rt.outputs[normalise(def.Alias)] = make(chan *OutputRequest, outputQueueDepth)
		}
	}
}

// Clear drops every registered assembly, grounded on io_runtime.py::IORuntime.clear.
func (rt *Runtime) Clear() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.records = make(map[string]*assemblyRuntimeRecord)
	rt.outputs = make(map[string]chan *OutputRequest)
}

// Configured reports whether any assembly is currently registered.
func (rt *Runtime) Configured() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.records) > 0
}

// Assemblies returns the aliases of every registered assembly.
func (rt *Runtime) Assemblies() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]string, 0, len(rt.records))
	for _, r := range rt.records {
		out = append(out, r.definition.Alias)
	}
	return out
}

// InputAssemblies returns the aliases of every assembly that can be polled.
func (rt *Runtime) InputAssemblies() []string {
	return rt.filterAssemblies(config.AssemblyDefinition.IsInput)
}

// OutputAssemblies returns the aliases of every assembly that accepts writes.
func (rt *Runtime) OutputAssemblies() []string {
	return rt.filterAssemblies(config.AssemblyDefinition.IsOutput)
}

func (rt *Runtime) filterAssemblies(pred func(config.AssemblyDefinition) bool) []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	var out []string
	for _, r := range rt.records {
		if pred(r.definition) {
			out = append(out, r.definition.Alias)
		}
	}
	return out
}

// GetView returns the last known snapshot of alias, without touching the
// PLC, grounded on io_runtime.py::IORuntime.get_view.
func (rt *Runtime) GetView(alias string) (AssemblyRuntimeView, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rec, err := rt.getRecordLocked(alias)
	if err != nil {
		return AssemblyRuntimeView{}, err
	}
	return rec.view(), nil
}

// Fetch reads alias's current payload over sess and updates its snapshot,
// grounded on io_runtime.py::IORuntime.fetch.
func (rt *Runtime) Fetch(sess *session.Session, alias string) (AssemblyRuntimeView, error) {
	rt.mu.Lock()
	rec, err := rt.getRecordLocked(alias)
	rt.mu.Unlock()
	if err != nil {
		return AssemblyRuntimeView{}, err
	}
	if !rec.definition.IsInput() {
		return AssemblyRuntimeView{}, plcerr.NewRuntimeDirectionError("assembly " + rec.definition.Alias + " is not configured for input")
	}
	if rec.definition.Size == nil {
		return AssemblyRuntimeView{}, plcerr.NewRuntimeError("assembly " + rec.definition.Alias + " does not define a payload size and cannot be read")
	}

	payload, err := sess.ReadFullTag(rec.definition.ClassID, rec.definition.InstanceID, assemblySize(rec.definition))

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if err != nil {
		rec.status = sess.LastStatus()
		return AssemblyRuntimeView{}, err
	}
	rec.payload = payload
	rec.status = cip.StatusOK()
	rec.updatedAt = time.Now()
	return rec.view(), nil
}

// QueueOutput validates payload and enqueues it as a pending write for
// alias, returning an OutputRequest callers can Wait on, grounded on
// io_runtime.py::IORuntime.queue_output.
func (rt *Runtime) QueueOutput(alias string, payload []byte) (*OutputRequest, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rec, err := rt.getRecordLocked(alias)
	if err != nil {
		return nil, err
	}
	if !rec.definition.IsOutput() {
		return nil, plcerr.NewRuntimeDirectionError("assembly " + rec.definition.Alias + " is not configured for output")
	}
	if rec.definition.Size != nil && len(payload) != *rec.definition.Size {
		return nil, plcerr.NewRuntimeError("output payload size does not match configured assembly size")
	}

	queue := rt.outputs[normalise(rec.definition.Alias)]
	req := newOutputRequest(rec.definition.Alias, append([]byte(nil), payload...))
	select {
	case queue <- req:
	default:
		return nil, plcerr.NewRuntimeError("output queue full for assembly " + rec.definition.Alias)
	}
	return req, nil
}

// AwaitOutput dequeues the next pending OutputRequest for alias, blocking up
// to timeout. It returns (nil, nil) on timeout, grounded on
// io_runtime.py::IORuntime.await_output ("returns None on timeout").
func (rt *Runtime) AwaitOutput(alias string, timeout time.Duration) (*OutputRequest, error) {
	rt.mu.Lock()
	queue, ok := rt.outputs[normalise(alias)]
	rt.mu.Unlock()
	if !ok {
		return nil, plcerr.NewRuntimeNotRegisteredError(alias)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case req := <-queue:
		return req, nil
	case <-timer.C:
		return nil, nil
	}
}

// SendOutput performs req's write over sess and completes it with the
// resulting status, grounded on io_runtime.py::IORuntime.send_output.
func (rt *Runtime) SendOutput(sess *session.Session, alias string, req *OutputRequest) (cip.Status, error) {
	rt.mu.Lock()
	rec, recErr := rt.getRecordLocked(alias)
	rt.mu.Unlock()
	if recErr != nil {
		return cip.Status{}, recErr
	}

	status, err := sess.WriteOutput(rec.definition.ClassID, rec.definition.InstanceID, req.Payload)
	req.complete(status, err)

	rt.mu.Lock()
	rec.status = status
	rec.updatedAt = time.Now()
	rt.mu.Unlock()

	return status, err
}

// FailPending drains every output alias's queue and completes each pending
// OutputRequest with err, grounded on spec.md §5's cancellation rule: callers
// cancel a queued output implicitly by destroying the session, and the
// dispatch worker must fail pending requests rather than leave them waiting
// forever.
func (rt *Runtime) FailPending(err error) {
	rt.mu.Lock()
	queues := make([]chan *OutputRequest, 0, len(rt.outputs))
	for _, q := range rt.outputs {
		queues = append(queues, q)
	}
	rt.mu.Unlock()

	for _, queue := range queues {
	drain:
		for {
			select {
			case req := <-queue:
				req.complete(cip.Status{}, err)
			default:
				break drain
			}
		}
	}
}

// getRecordLocked looks up alias's record. Callers must hold rt.mu.
func (rt *Runtime) getRecordLocked(alias string) (*assemblyRuntimeRecord, error) {
	rec, ok := rt.records[normalise(alias)]
	if !ok {
		return nil, plcerr.NewRuntimeNotRegisteredError(alias)
	}
	return rec, nil
}

func assemblySize(def config.AssemblyDefinition) uint16 {
	if def.Size != nil {
		return uint16(*def.Size)
	}
	return 0
}

func normalise(alias string) string {
	return strings.ToLower(strings.TrimSpace(alias))
}
