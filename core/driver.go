package core

import (
	"context"
	"fmt"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/schema"
)

// RunSession drives a session through fit and operator prompts until it reaches a terminal
// phase or the operator suspends it with an empty response. The state is checkpointed to
// store after every transition when store is non-nil.
//
// Parse failures, unresolved boundaries and degenerate cuts are reported to the operator and
// the prompt repeats. When ctx is cancelled the session is abandoned in memory while the
// store keeps its last checkpoint.
func RunSession(ctx context.Context, sess *Session, ch contract.OperatorChannel, store contract.SessionStore) (*schema.SessionState, error) {
	for {
		if err := ctx.Err(); err != nil {
			sess.Abandon()
			return sess.State(), err
		}

		if sess.Phase() == schema.PhaseAwaitingFit {
			if _, err := sess.Fit(); err != nil {
				return sess.State(), err
			}
			checkpoint(sess, store)
		}

		if err := ch.Present(ctx, sess.State()); err != nil {
			return sess.State(), fmt.Errorf("present session %s: %w", sess.ID(), err)
		}
		if sess.Phase().IsTerminal() {
			return sess.State(), nil
		}

		raw, err := ch.Await(ctx)
		if err != nil {
			if ctx.Err() != nil {
				sess.Abandon()
				return sess.State(), ctx.Err()
			}
			return sess.State(), fmt.Errorf("await response for session %s: %w", sess.ID(), err)
		}

		d, err := sess.Respond(raw)
		if err != nil {
			if !IsRecoverable(err) {
				return sess.State(), err
			}
			sess.log.Debugw("recoverable response error", "session", sess.ID(), "error", err)
			if rerr := ch.Report(ctx, err); rerr != nil {
				return sess.State(), rerr
			}
			continue
		}

		if d.Kind == schema.DecideSuspend {
			checkpoint(sess, store)
			return sess.State(), nil
		}
		checkpoint(sess, store)
	}
}

// checkpoint persists the state; storage failures are logged and do not stop the session.
func checkpoint(sess *Session, store contract.SessionStore) {
	if store == nil {
		return
	}
	if err := store.Put(sess.State()); err != nil {
		sess.log.Warnw("session checkpoint failed", "session", sess.ID(), "error", err)
	}
}
