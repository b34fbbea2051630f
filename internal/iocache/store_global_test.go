package iocache

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dynbike/dynbike/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobals(t *testing.T) {
	t.Helper()
	initOnce = sync.Once{}
	closeOnce = sync.Once{}
	Manager = &StoreManagerImpl{}
	t.Cleanup(func() {
		CloseStores()
		initOnce = sync.Once{}
		closeOnce = sync.Once{}
		Manager = &StoreManagerImpl{}
	})
}

func TestInitStores(t *testing.T) {
	t.Run("sqlite stores", func(t *testing.T) {
		resetGlobals(t)
		dir := t.TempDir()
		sessionPath := filepath.Join(dir, "sessions.db")
		runPath := filepath.Join(dir, "runs.db")

		require.NoError(t, InitStores(schema.SQLiteBackend, sessionPath, schema.SQLiteBackend, runPath))
		require.NotNil(t, Manager.GetSessionStore())
		require.NotNil(t, Manager.GetRunStore())

		require.NoError(t, Manager.GetSessionStore().Put(sampleState("g", schema.PhaseAwaitingFit, time.Now())))
		CloseStores()

		assert.FileExists(t, sessionPath)
		assert.FileExists(t, runPath)
	})

	t.Run("idempotent", func(t *testing.T) {
		resetGlobals(t)
		dir := t.TempDir()
		path := filepath.Join(dir, "sessions.db")
		require.NoError(t, InitStores(schema.SQLiteBackend, path, "", ""))
		first := Manager.GetSessionStore()
		require.NoError(t, InitStores(schema.SQLiteBackend, filepath.Join(dir, "other.db"), "", ""))
		assert.Same(t, first, Manager.GetSessionStore())
		assert.Nil(t, Manager.GetRunStore())
	})

	t.Run("none backends", func(t *testing.T) {
		resetGlobals(t)
		require.NoError(t, InitStores(schema.NoneBackend, "", schema.NoneBackend, ""))
		status, err := Manager.GetRunStore().GetStatus()
		require.NoError(t, err)
		assert.False(t, status.Connected)
	})

	t.Run("unsupported backend", func(t *testing.T) {
		resetGlobals(t)
		err := InitStores("oracle", "", "", "")
		assert.Error(t, err)
		assert.Nil(t, Manager.GetSessionStore())
	})
}

func TestCloseStores_Concurrent(t *testing.T) {
	resetGlobals(t)
	require.NoError(t, InitStores(schema.SQLiteBackend, filepath.Join(t.TempDir(), "s.db"), "", ""))

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(CloseStores)
	}
	wg.Wait()
}

func TestClearSessionsAndRuns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.db")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	require.NoError(t, ClearSessions(schema.SQLiteBackend, path, ""))
	assert.NoFileExists(t, path)
	require.NoError(t, ClearSessions(schema.SQLiteBackend, path, ""), "missing file is not an error")
	assert.Error(t, ClearSessions(schema.SQLiteBackend, "", ""))
	assert.NoError(t, ClearRuns(schema.NoneBackend, "", ""))
	assert.Error(t, ClearRuns("oracle", "", ""))
}

func TestPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintSessionStoreStatus(&buf, schema.SessionStoreStatus{
		Backend:        "sqlite",
		Connected:      true,
		TotalSessions:  3,
		ByPhase:        map[schema.SessionPhase]int{schema.PhaseSplit: 1, schema.PhaseAwaitingChoice: 2},
		TableSizeBytes: 8192,
	})
	out := buf.String()
	assert.Contains(t, out, "Session Backend: sqlite")
	assert.Contains(t, out, "Total Sessions: 3")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("awaiting_choice")), bytes.Index(buf.Bytes(), []byte("split")))

	buf.Reset()
	PrintRunStatus(&buf, schema.RunStatus{Backend: "none"})
	assert.Contains(t, buf.String(), "Connected: false")
	assert.NotContains(t, buf.String(), "Total Runs")
}

func TestPersistUtils(t *testing.T) {
	assert.NoError(t, validateTableName("dynbike_sessions"))
	assert.Error(t, validateTableName(""))
	assert.Error(t, validateTableName("1table"))
	assert.Equal(t, "`t`", quoteTableName("t", schema.MySQLBackend))
	assert.Equal(t, `"t"`, quoteTableName("t", schema.PostgreSQLBackend))
	assert.Equal(t, []string{"$1", "$2"}, placeholders(schema.PostgreSQLBackend, 2))
	assert.Equal(t, []string{"?", "?"}, placeholders(schema.MySQLBackend, 2))

	now := time.Now()
	got, err := scanTime(formatTime(now, schema.SQLiteBackend))
	require.NoError(t, err)
	assert.True(t, now.Equal(got))

	got, err = scanTime([]byte("2024-03-01 10:11:12.5"))
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, time.Duration(got.Nanosecond()))

	_, err = scanTime(42)
	assert.Error(t, err)
}
