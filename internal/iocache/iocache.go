// Package iocache persists segmentation sessions and trim runs.
package iocache

import (
	"sync"

	"github.com/dynbike/dynbike/internal/contract"
)

// StoreManagerImpl manages the session and run stores.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during initialization
	sessions     contract.SessionStore
	runs         contract.RunStore
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// GetSessionStore returns the SessionStore.
func (mgr *StoreManagerImpl) GetSessionStore() contract.SessionStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.sessions
}

// GetRunStore returns the RunStore.
func (mgr *StoreManagerImpl) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
