package ioruntime

import (
	"sync"
	"time"

	"github.com/carun/eipsession/internal/cip"
)

// OutputRequest tracks one queued output write through to completion.
// Completion is signaled by closing done exactly once, the Go analogue of
// io_runtime.py::OutputRequest's threading.Event-based complete/wait.
type OutputRequest struct {
	Alias   string
	Payload []byte

	mu     sync.Mutex
	done   chan struct{}
	status cip.Status
	err    error
}

func newOutputRequest(alias string, payload []byte) *OutputRequest {
	return &OutputRequest{
		Alias:   alias,
		Payload: payload,
		done:    make(chan struct{}),
	}
}

// complete records the outcome of the write and unblocks every Wait caller.
// Safe to call at most once; a second call is a no-op on the stored result.
func (r *OutputRequest) complete(status cip.Status, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case <-r.done:
		return
	default:
	}
	r.status = status
	r.err = err
	close(r.done)
}

// Done reports whether the request has completed.
func (r *OutputRequest) Done() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the request completes or timeout elapses (timeout<=0
// waits indefinitely), returning the CIP status and error the write
// completed with.
func (r *OutputRequest) Wait(timeout time.Duration) (cip.Status, error, bool) {
	if timeout <= 0 {
		<-r.done
		return r.status, r.err, true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-r.done:
		return r.status, r.err, true
	case <-timer.C:
		return cip.Status{}, nil, false
	}
}
