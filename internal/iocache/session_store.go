package iocache

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/schema"
	"github.com/go-sql-driver/mysql"
)

// sessionsTable is the name of the table for segmentation session state.
const sessionsTable = "dynbike_sessions"

// SessionStoreImpl persists session state using various database backends.
type SessionStoreImpl struct {
	db        *sql.DB
	tableName string
	backend   schema.DatabaseBackend
	connStr   string
}

var _ contract.SessionStore = &SessionStoreImpl{} // Compile-time check

// NewSessionStore initializes and returns a new SessionStore based on the backend type.
func NewSessionStore(tableName string, backend schema.DatabaseBackend, connStr string) (contract.SessionStore, error) {
	if err := validateTableName(tableName); err != nil {
		return nil, err
	}

	if backend == schema.NoneBackend {
		// Return a no-op store for disabled persistence
		return &SessionStoreImpl{tableName: tableName, backend: backend, connStr: connStr}, nil
	}

	db, err := openDB(backend, connStr, GetSessionDBFilePath())
	if err != nil {
		return nil, err
	}

	tables := []struct{ name, query string }{
		{tableName, getCreateSessionsQuery(tableName, backend)},
	}
	if err := createTables(db, tables); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SessionStoreImpl{
		db:        db,
		tableName: tableName,
		backend:   backend,
		connStr:   connStr,
	}, nil
}

// getCreateSessionsQuery returns the CREATE TABLE query for the given backend.
func getCreateSessionsQuery(tableName string, backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(tableName, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				session_id VARCHAR(64) PRIMARY KEY,
				session_key VARCHAR(255) NOT NULL,
				side VARCHAR(16) NOT NULL,
				phase VARCHAR(32) NOT NULL,
				row_count INT NOT NULL,
				blob_version INT NOT NULL,
				state_blob LONGBLOB NOT NULL,
				created_at BIGINT NOT NULL,
				updated_at BIGINT NOT NULL
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				session_id TEXT PRIMARY KEY,
				session_key TEXT NOT NULL,
				side TEXT NOT NULL,
				phase TEXT NOT NULL,
				row_count INTEGER NOT NULL,
				blob_version INTEGER NOT NULL,
				state_blob BYTEA NOT NULL,
				created_at BIGINT NOT NULL,
				updated_at BIGINT NOT NULL
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				session_id TEXT PRIMARY KEY,
				session_key TEXT NOT NULL,
				side TEXT NOT NULL,
				phase TEXT NOT NULL,
				row_count INTEGER NOT NULL,
				blob_version INTEGER NOT NULL,
				state_blob BLOB NOT NULL,
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL
			);
		`, quotedTableName)
	}
}

// Get retrieves a session state by ID.
func (ss *SessionStoreImpl) Get(id string) (*schema.SessionState, error) {
	if ss.backend == schema.NoneBackend || ss.db == nil {
		return nil, contract.ErrSessionNotFound
	}

	quotedTableName := quoteTableName(ss.tableName, ss.backend)
	query := fmt.Sprintf(`SELECT state_blob, blob_version FROM %s WHERE session_id = %s`,
		quotedTableName, placeholders(ss.backend, 1)[0])

	var blob []byte
	var version int
	if err := ss.db.QueryRow(query, id).Scan(&blob, &version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", contract.ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}
	return decodeState(blob, version)
}

// Put inserts or replaces the state under its ID.
func (ss *SessionStoreImpl) Put(state *schema.SessionState) error {
	if ss.backend == schema.NoneBackend || ss.db == nil {
		return nil
	}
	if state == nil || state.ID == "" {
		return errors.New("cannot store a session without an ID")
	}

	blob, err := encodeState(state)
	if err != nil {
		return err
	}

	created := state.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	summary := state.Summary()
	if summary.UpdatedAt.IsZero() {
		summary.UpdatedAt = created
	}

	_, err = ss.db.Exec(ss.getUpsertQuery(),
		summary.ID, summary.Key, string(summary.Side), string(summary.Phase), summary.Rows,
		stateBlobVersion, blob, created.UnixMilli(), summary.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to store session %s: %w", state.ID, err)
	}
	return nil
}

// getUpsertQuery returns the UPSERT query for the backend.
func (ss *SessionStoreImpl) getUpsertQuery() string {
	quotedTableName := quoteTableName(ss.tableName, ss.backend)
	columns := "session_id, session_key, side, phase, row_count, blob_version, state_blob, created_at, updated_at"
	values := strings.Join(placeholders(ss.backend, 9), ", ")
	switch ss.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) AS new
			ON DUPLICATE KEY UPDATE session_key = new.session_key, side = new.side, phase = new.phase,
			row_count = new.row_count, blob_version = new.blob_version, state_blob = new.state_blob, updated_at = new.updated_at`,
			quotedTableName, columns, values)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
			ON CONFLICT (session_id) DO UPDATE SET session_key = EXCLUDED.session_key, side = EXCLUDED.side, phase = EXCLUDED.phase,
			row_count = EXCLUDED.row_count, blob_version = EXCLUDED.blob_version, state_blob = EXCLUDED.state_blob, updated_at = EXCLUDED.updated_at`,
			quotedTableName, columns, values)

	default: // SQLite
		return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)
			ON CONFLICT (session_id) DO UPDATE SET session_key = excluded.session_key, side = excluded.side, phase = excluded.phase,
			row_count = excluded.row_count, blob_version = excluded.blob_version, state_blob = excluded.state_blob, updated_at = excluded.updated_at`,
			quotedTableName, columns, values)
	}
}

// List returns summaries of all stored sessions, most recently updated first.
func (ss *SessionStoreImpl) List() ([]schema.SessionSummary, error) {
	if ss.backend == schema.NoneBackend || ss.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT session_id, session_key, side, phase, row_count, updated_at FROM %s
		ORDER BY updated_at DESC, session_id`, quoteTableName(ss.tableName, ss.backend))
	rows, err := ss.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.SessionSummary
	for rows.Next() {
		var summary schema.SessionSummary
		var side, phase string
		var updated int64
		if err := rows.Scan(&summary.ID, &summary.Key, &side, &phase, &summary.Rows, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		summary.Side = schema.CutSide(side)
		summary.Phase = schema.SessionPhase(phase)
		summary.UpdatedAt = time.UnixMilli(updated)
		results = append(results, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return results, nil
}

// Delete removes the state stored under id.
func (ss *SessionStoreImpl) Delete(id string) error {
	if ss.backend == schema.NoneBackend || ss.db == nil {
		return nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id = %s`,
		quoteTableName(ss.tableName, ss.backend), placeholders(ss.backend, 1)[0])
	if _, err := ss.db.Exec(query, id); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

// Close closes the underlying DB connection.
func (ss *SessionStoreImpl) Close() error {
	if ss.db != nil {
		return ss.db.Close()
	}
	return nil
}

// GetStatus returns status information about the session store.
func (ss *SessionStoreImpl) GetStatus() (schema.SessionStoreStatus, error) {
	status := schema.SessionStoreStatus{
		Backend:   string(ss.backend),
		Connected: ss.db != nil,
		ByPhase:   make(map[schema.SessionPhase]int),
	}

	if ss.backend == schema.NoneBackend || ss.db == nil {
		return status, nil
	}

	quotedTableName := quoteTableName(ss.tableName, ss.backend)

	phaseQuery := fmt.Sprintf("SELECT phase, COUNT(*) FROM %s GROUP BY phase", quotedTableName)
	rows, err := ss.db.Query(phaseQuery)
	if err != nil {
		return status, fmt.Errorf("failed to count sessions by phase: %w", err)
	}
	for rows.Next() {
		var phase string
		var count int
		if err := rows.Scan(&phase, &count); err != nil {
			_ = rows.Close()
			return status, fmt.Errorf("failed to scan phase count: %w", err)
		}
		status.ByPhase[schema.SessionPhase(phase)] = count
		status.TotalSessions += count
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return status, fmt.Errorf("error iterating phase counts: %w", err)
	}

	if status.TotalSessions == 0 {
		return status, nil
	}

	rangeQuery := fmt.Sprintf("SELECT MAX(updated_at), MIN(created_at) FROM %s", quotedTableName)
	var lastTs, oldestTs int64
	if err := ss.db.QueryRow(rangeQuery).Scan(&lastTs, &oldestTs); err != nil {
		return status, fmt.Errorf("failed to get session time range: %w", err)
	}
	status.LastUpdateTime = time.UnixMilli(lastTs)
	status.OldestStartTime = time.UnixMilli(oldestTs)

	status.TableSizeBytes = ss.tableSize(status.TotalSessions)
	return status, nil
}

// tableSize estimates the storage used by the sessions table.
func (ss *SessionStoreImpl) tableSize(total int) int64 {
	fallback := int64(total) * 4096
	var size int64
	switch ss.backend {
	case schema.SQLiteBackend:
		row := ss.db.QueryRow("SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
		if err := row.Scan(&size); err != nil {
			return 0
		}
	case schema.MySQLBackend:
		cfg, err := mysql.ParseDSN(ss.connStr)
		if err != nil || cfg.DBName == "" {
			return fallback
		}
		row := ss.db.QueryRow("SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?",
			cfg.DBName, ss.tableName)
		if err := row.Scan(&size); err != nil {
			return fallback
		}
	case schema.PostgreSQLBackend:
		row := ss.db.QueryRow("SELECT pg_total_relation_size($1)", ss.tableName)
		if err := row.Scan(&size); err != nil {
			return fallback
		}
	default:
		return fallback
	}
	return size
}
