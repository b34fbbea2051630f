package core

import (
	"context"
	"fmt"
	"os"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/internal/ingest"
	"github.com/dynbike/dynbike/internal/log"
	"github.com/dynbike/dynbike/internal/outwriter"
	"github.com/dynbike/dynbike/schema"
)

// ExecuteSegment runs an interactive segmentation session over the operator channel and
// prints the result once the session finishes. It serves as the main entry point for
// the 'segment' command.
func ExecuteSegment(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, ch contract.OperatorChannel) error {
	var store contract.SessionStore
	if mgr != nil {
		store = mgr.GetSessionStore()
	}

	sess, err := OpenSession(cfg, store)
	if err != nil {
		return err
	}
	checkpoint(sess, store)

	state, err := RunSession(ctx, sess, ch, store)
	if err != nil {
		return err
	}
	if !state.Phase.IsTerminal() {
		_, _ = fmt.Fprintf(os.Stderr, "⏸️  Session %s suspended. Resume with: dynbike segment --resume %s\n", state.ID, state.ID)
		return nil
	}
	return outwriter.PrintSessionResult(state, cfg)
}

// OpenSession resumes the stored session named by cfg.ResumeID, or starts a new one from
// the session selected by cfg.SessionKey in the input.
func OpenSession(cfg *contract.Config, store contract.SessionStore) (*Session, error) {
	opts := SessionOptionsFromConfig(cfg, log.GetSugaredLogger())

	if cfg.ResumeID != "" {
		if store == nil {
			return nil, fmt.Errorf("cannot resume %s without a session store", cfg.ResumeID)
		}
		state, err := store.Get(cfg.ResumeID)
		if err != nil {
			return nil, fmt.Errorf("resume %s: %w", cfg.ResumeID, err)
		}
		if state.Phase.IsTerminal() {
			return nil, fmt.Errorf("resume %s (%s): %w", cfg.ResumeID, state.Phase, ErrSessionClosed)
		}
		return ResumeSession(state, opts)
	}

	series, err := LoadSessionSeries(cfg.InputPath, cfg.SessionKey)
	if err != nil {
		return nil, err
	}
	return NewSession(series, opts)
}

// LoadSessionSeries loads the input and picks the session with the given key.
// An empty key is allowed when the input holds exactly one session.
func LoadSessionSeries(path, key string) (schema.Series, error) {
	if path == "" {
		return schema.Series{}, fmt.Errorf("an input file is required to start a session")
	}
	series, err := ingest.Load(path, ingest.Options{SessionKey: key})
	if err != nil {
		return schema.Series{}, err
	}
	return ingest.Select(series, key)
}
