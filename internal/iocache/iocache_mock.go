package iocache

import (
	"time"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetSessionStore implements the StoreManager interface.
func (m *MockStoreManager) GetSessionStore() contract.SessionStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.SessionStore)
	return store
}

// GetRunStore implements the StoreManager interface.
func (m *MockStoreManager) GetRunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockSessionStore is a mock implementation of SessionStore for testing.
type MockSessionStore struct {
	mock.Mock
}

var _ contract.SessionStore = &MockSessionStore{} // Compile-time check

// Get implements the SessionStore interface.
func (m *MockSessionStore) Get(id string) (*schema.SessionState, error) {
	args := m.Called(id)
	state, _ := args.Get(0).(*schema.SessionState)
	return state, args.Error(1)
}

// Put implements the SessionStore interface.
func (m *MockSessionStore) Put(state *schema.SessionState) error {
	args := m.Called(state)
	return args.Error(0)
}

// List implements the SessionStore interface.
func (m *MockSessionStore) List() ([]schema.SessionSummary, error) {
	args := m.Called()
	summaries, _ := args.Get(0).([]schema.SessionSummary)
	return summaries, args.Error(1)
}

// Delete implements the SessionStore interface.
func (m *MockSessionStore) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// GetStatus implements the SessionStore interface.
func (m *MockSessionStore) GetStatus() (schema.SessionStoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.SessionStoreStatus), args.Error(1)
}

// Close implements the SessionStore interface.
func (m *MockSessionStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// RecordTrim implements the RunStore interface.
func (m *MockRunStore) RecordTrim(runID int64, recordTime time.Time, report schema.TrimReport) error {
	args := m.Called(runID, recordTime, report)
	return args.Error(0)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID int64, endTime time.Time, totalSessions int) error {
	args := m.Called(runID, endTime, totalSessions)
	return args.Error(0)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus() (schema.RunStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.RunStatus), args.Error(1)
}

// GetAllRuns implements the RunStore interface.
func (m *MockRunStore) GetAllRuns() ([]schema.TrimRunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.TrimRunRecord)
	return runs, args.Error(1)
}

// GetAllTrimRecords implements the RunStore interface.
func (m *MockRunStore) GetAllTrimRecords() ([]schema.TrimRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]schema.TrimRecord)
	return records, args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
