package core

import (
	"context"

	"github.com/dynbike/dynbike/internal/contract"
)

// Context keys for trim options
type contextKey string

const (
	runIDKey        contextKey = "runID"
	storeManagerKey contextKey = "storeManager"
)

// withRunID attaches the active trim run ID to the context
func withRunID(ctx context.Context, runID int64) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// getRunID returns the active trim run ID, if any
func getRunID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(runIDKey).(int64)
	return id, ok
}

// withStoreManager attaches the store manager to the context
func withStoreManager(ctx context.Context, mgr contract.StoreManager) context.Context {
	return context.WithValue(ctx, storeManagerKey, mgr)
}

// storeManagerFromContext returns the store manager, or nil when none is attached
func storeManagerFromContext(ctx context.Context) contract.StoreManager {
	mgr, _ := ctx.Value(storeManagerKey).(contract.StoreManager)
	return mgr
}
