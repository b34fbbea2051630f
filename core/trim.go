// Package core has core logic for trimming and segmenting cycling sessions.
package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/internal/ingest"
	"github.com/dynbike/dynbike/internal/log"
	"github.com/dynbike/dynbike/internal/outwriter"
	"github.com/dynbike/dynbike/schema"
)

// ExecuteTrim loads every session in the input, preprocesses them in parallel and prints
// the trim reports. It serves as the main entry point for the 'trim' command.
func ExecuteTrim(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	series, err := ingest.Load(cfg.InputPath, ingest.Options{SessionKey: cfg.SessionKey})
	if err != nil {
		return err
	}
	results, err := RunTrim(ctx, cfg, mgr, series)
	if err != nil {
		return err
	}
	return outwriter.PrintTrimResults(results, cfg, time.Since(start))
}

// RunTrim preprocesses the given sessions and records the run when a run store is configured.
func RunTrim(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, series []schema.Series) ([]schema.TrimResult, error) {
	var runStore contract.RunStore
	if mgr != nil {
		runStore = mgr.GetRunStore()
	}

	if runStore != nil {
		runID, err := runStore.BeginRun(time.Now(), trimRunParams(cfg))
		if err != nil {
			contract.LogWarn("Failed to begin trim run tracking", err)
		} else {
			ctx = withRunID(withStoreManager(ctx, mgr), runID)
		}
	}

	results := trimAll(ctx, cfg, series)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if runID, ok := getRunID(ctx); ok {
		if err := runStore.EndRun(runID, time.Now(), len(results)); err != nil {
			contract.LogWarn("Failed to end trim run tracking", err)
		}
	}
	return results, nil
}

// trimAll processes all sessions in parallel using a worker pool.
// Results keep the order of the input.
func trimAll(ctx context.Context, cfg *contract.Config, series []schema.Series) []schema.TrimResult {
	opts := TrimOptionsFromConfig(cfg)
	logger := log.GetSugaredLogger()

	idxCh := make(chan int, len(series))
	results := make([]schema.TrimResult, len(series))
	var wg sync.WaitGroup

	for range max(cfg.Workers, 1) {
		wg.Go(func() {
			for i := range idxCh {
				if ctx.Err() != nil {
					continue
				}
				// Each worker writes a unique index, which is safe.
				results[i] = TrimSession(series[i], opts, logger)
				recordTrim(ctx, results[i].Report)
			}
		})
	}

	for i := range series {
		idxCh <- i
	}
	close(idxCh)
	wg.Wait()

	return results
}

// recordTrim stores one report under the active run, if any.
func recordTrim(ctx context.Context, report schema.TrimReport) {
	runID, ok := getRunID(ctx)
	if !ok {
		return
	}
	mgr := storeManagerFromContext(ctx)
	if mgr == nil {
		return
	}
	runStore := mgr.GetRunStore()
	if runStore == nil {
		return
	}
	if err := runStore.RecordTrim(runID, time.Now(), report); err != nil {
		logTrackingError("RecordTrim", report.Key, err)
	}
}

// trimRunParams captures the settings that shaped a trim run.
func trimRunParams(cfg *contract.Config) map[string]any {
	return map[string]any{
		"input":           cfg.InputPath,
		"workers":         cfg.Workers,
		"column":          string(cfg.Column),
		"flat_value":      cfg.FlatValue,
		"roll_window":     cfg.RollWindow,
		"min_flat_start":  cfg.MinFlatStart,
		"min_flat_length": cfg.MinFlatLength,
		"cadence_min":     cfg.CadenceMin,
		"cadence_max":     cfg.CadenceMax,
	}
}

// logTrackingError logs run tracking errors to stderr without disrupting the trim.
func logTrackingError(operation, key string, err error) {
	contract.LogWarn(fmt.Sprintf("Run tracking failed for %s on %s", operation, key), err)
}
