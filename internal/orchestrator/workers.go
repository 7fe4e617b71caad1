package orchestrator

import (
	"context"

	"golang.org/x/time/rate"
)

// startWorkers starts one poll worker per input/bidirectional assembly and
// one dispatch worker per output/bidirectional assembly currently loaded
// into the runtime, all sharing ctx as their stop signal, grounded on
// spec.md §4.6 step 4 and the Worker contract in §4.6/§5.
func (o *Orchestrator) startWorkers(ctx context.Context, handle *sessionHandle) {
	if !o.runtime.Configured() {
		return
	}
	for _, alias := range o.runtime.InputAssemblies() {
		alias := alias
		handle.group.Go(func() error {
			o.pollLoop(ctx, handle, alias)
			return nil
		})
	}
	for _, alias := range o.runtime.OutputAssemblies() {
		alias := alias
		handle.group.Go(func() error {
			o.dispatchLoop(ctx, handle, alias)
			return nil
		})
	}
}

// pollLoop repeatedly fetches alias's current payload, throttled by a
// rate.Limiter standing in for the spec's plain poll_interval sleep so a
// misconfigured near-zero interval cannot busy-loop the socket, grounded on
// spec.md §4.6's "Input poll loop".
func (o *Orchestrator) pollLoop(ctx context.Context, handle *sessionHandle, alias string) {
	limiter := rate.NewLimiter(rate.Every(o.opts.PollInterval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		_, err := o.runtime.Fetch(handle.sess, alias)
		if err != nil {
			o.log.Warn().Str("session_id", string(handle.id)).Str("alias", alias).Err(err).Msg("poll fetch failed")
			continue
		}
		handle.touch()
	}
}

// dispatchLoop dequeues alias's pending output writes and sends each over
// the session, completing the OutputRequest with the outcome, grounded on
// spec.md §4.6's "Output dispatch loop".
func (o *Orchestrator) dispatchLoop(ctx context.Context, handle *sessionHandle, alias string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		req, err := o.runtime.AwaitOutput(alias, o.opts.DispatchPoll)
		if err != nil {
			o.log.Warn().Str("session_id", string(handle.id)).Str("alias", alias).Err(err).Msg("dispatch await failed")
			return
		}
		if req == nil {
			continue
		}

		_, sendErr := o.runtime.SendOutput(handle.sess, alias, req)
		if sendErr != nil {
			o.log.Warn().Str("session_id", string(handle.id)).Str("alias", alias).Err(sendErr).Msg("dispatch send failed")
			continue
		}
		handle.touch()
	}
}
