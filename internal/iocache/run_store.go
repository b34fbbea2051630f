package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/schema"
)

// Table names for trim-run tracking.
const (
	trimRunsTable    = "dynbike_trim_runs"
	trimRecordsTable = "dynbike_trim_records"
)

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (contract.RunStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &RunStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, GetRunDBFilePath())
	if err != nil {
		return nil, err
	}

	tables := []struct{ name, query string }{
		{trimRunsTable, getCreateTrimRunsQuery(backend)},
		{trimRecordsTable, getCreateTrimRecordsQuery(backend)},
	}
	if err := createTables(db, tables); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}

	return &RunStoreImpl{db: db, backend: backend}, nil
}

// getCreateTrimRunsQuery returns the CREATE TABLE query for dynbike_trim_runs.
func getCreateTrimRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(trimRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_sessions INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_sessions INT NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_sessions INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateTrimRecordsQuery returns the CREATE TABLE query for dynbike_trim_records.
func getCreateTrimRecordsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(trimRecordsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				session_key VARCHAR(255) NOT NULL,
				record_time DATETIME(6) NOT NULL,
				input_rows INT NOT NULL,
				dropped_extreme INT NOT NULL,
				flat_start INT NOT NULL,
				flat_length INT NOT NULL,
				trimmed BOOLEAN NOT NULL,
				output_rows INT NOT NULL,
				sequential BOOLEAN NOT NULL,
				effort_percent DOUBLE NOT NULL,
				PRIMARY KEY (run_id, session_key)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				session_key TEXT NOT NULL,
				record_time TIMESTAMPTZ NOT NULL,
				input_rows INT NOT NULL,
				dropped_extreme INT NOT NULL,
				flat_start INT NOT NULL,
				flat_length INT NOT NULL,
				trimmed BOOLEAN NOT NULL,
				output_rows INT NOT NULL,
				sequential BOOLEAN NOT NULL,
				effort_percent DOUBLE PRECISION NOT NULL,
				PRIMARY KEY (run_id, session_key)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				session_key TEXT NOT NULL,
				record_time TEXT NOT NULL,
				input_rows INTEGER NOT NULL,
				dropped_extreme INTEGER NOT NULL,
				flat_start INTEGER NOT NULL,
				flat_length INTEGER NOT NULL,
				trimmed INTEGER NOT NULL,
				output_rows INTEGER NOT NULL,
				sequential INTEGER NOT NULL,
				effort_percent REAL NOT NULL,
				PRIMARY KEY (run_id, session_key)
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new trim run and returns its unique ID.
func (rs *RunStoreImpl) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(trimRunsTable, rs.backend)

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES ($1, $2) RETURNING run_id`, quotedTableName)
		err = rs.db.QueryRow(query, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES (?, ?)`, quotedTableName)
		var result sql.Result
		result, err = rs.db.Exec(query, formatTime(startTime, rs.backend), string(configJSON))
		if err != nil {
			return 0, fmt.Errorf("failed to insert trim run: %w", err)
		}
		runID, err = result.LastInsertId()
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert trim run: %w", err)
	}

	return runID, nil
}

// RecordTrim stores the report of one trimmed session.
func (rs *RunStoreImpl) RecordTrim(runID int64, recordTime time.Time, report schema.TrimReport) error {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, session_key, record_time, input_rows, dropped_extreme, flat_start,
		                flat_length, trimmed, output_rows, sequential, effort_percent)
		VALUES (%s)
	`, quoteTableName(trimRecordsTable, rs.backend), strings.Join(placeholders(rs.backend, 11), ", "))

	_, err := rs.db.Exec(query,
		runID, report.Key, formatTime(recordTime, rs.backend), report.InputRows, report.DroppedExtreme,
		report.Flatline.Start, report.Flatline.Length, report.Trimmed, report.OutputRows,
		report.Sequential, report.EffortPercent,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trim record for %s: %w", report.Key, err)
	}
	return nil
}

// EndRun updates the trim run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, totalSessions int) error {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(trimRunsTable, rs.backend)
	ph := placeholders(rs.backend, 4)

	var raw any
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`, quotedTableName, ph[0])
	if err := rs.db.QueryRow(query, runID).Scan(&raw); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}
	startTime, err := scanTime(raw)
	if err != nil {
		return fmt.Errorf("failed to parse start_time: %w", err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()

	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_sessions = %s WHERE run_id = %s`,
		quotedTableName, ph[0], ph[1], ph[2], ph[3])
	if _, err := rs.db.Exec(updateQuery, formatTime(endTime, rs.backend), durationMs, totalSessions, runID); err != nil {
		return fmt.Errorf("failed to update trim run: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	runsTable := quoteTableName(trimRunsTable, rs.backend)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runsTable)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var lastRaw, oldestRaw any
		lastQuery := fmt.Sprintf("SELECT run_id, start_time FROM %s ORDER BY run_id DESC LIMIT 1", runsTable)
		if err := rs.db.QueryRow(lastQuery).Scan(&status.LastRunID, &lastRaw); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		lastRunTime, err := scanTime(lastRaw)
		if err != nil {
			return status, fmt.Errorf("failed to parse last run time: %w", err)
		}
		status.LastRunTime = lastRunTime

		oldestQuery := fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runsTable)
		if err := rs.db.QueryRow(oldestQuery).Scan(&oldestRaw); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		oldestRunTime, err := scanTime(oldestRaw)
		if err != nil {
			return status, fmt.Errorf("failed to parse oldest run time: %w", err)
		}
		status.OldestRunTime = oldestRunTime

		sessionsQuery := fmt.Sprintf("SELECT COALESCE(SUM(total_sessions), 0) FROM %s", runsTable)
		if err := rs.db.QueryRow(sessionsQuery).Scan(&status.TotalSessionsTrimmed); err != nil {
			return status, fmt.Errorf("failed to get total sessions trimmed: %w", err)
		}
	}

	for _, table := range []string{trimRunsTable, trimRecordsTable} {
		var count int64
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend))
		if err := rs.db.QueryRow(countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllRuns retrieves all trim runs from the store.
func (rs *RunStoreImpl) GetAllRuns() ([]schema.TrimRunRecord, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT run_id, start_time, end_time, run_duration_ms, total_sessions, config_params FROM %s ORDER BY run_id",
		quoteTableName(trimRunsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query trim runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.TrimRunRecord
	for rows.Next() {
		var record schema.TrimRunRecord
		var startRaw, endRaw any
		var duration sql.NullInt32
		var params sql.NullString
		if err := rows.Scan(&record.RunID, &startRaw, &endRaw, &duration, &record.TotalSessions, &params); err != nil {
			return nil, fmt.Errorf("failed to scan trim run: %w", err)
		}
		if record.StartTime, err = scanTime(startRaw); err != nil {
			return nil, fmt.Errorf("failed to parse start_time: %w", err)
		}
		if endRaw != nil {
			endTime, err := scanTime(endRaw)
			if err != nil {
				return nil, fmt.Errorf("failed to parse end_time: %w", err)
			}
			record.EndTime = &endTime
		}
		if duration.Valid {
			record.RunDurationMs = &duration.Int32
		}
		if params.Valid {
			record.ConfigParams = &params.String
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trim runs: %w", err)
	}
	return results, nil
}

// GetAllTrimRecords retrieves every per-session trim record from the store.
func (rs *RunStoreImpl) GetAllTrimRecords() ([]schema.TrimRecord, error) {
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, session_key, record_time, input_rows, dropped_extreme, flat_start,
		flat_length, trimmed, output_rows, sequential, effort_percent
		FROM %s ORDER BY run_id, session_key`, quoteTableName(trimRecordsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query trim records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.TrimRecord
	for rows.Next() {
		var record schema.TrimRecord
		var recordRaw any
		if err := rows.Scan(&record.RunID, &record.SessionKey, &recordRaw, &record.InputRows, &record.DroppedExtreme,
			&record.FlatStart, &record.FlatLength, &record.Trimmed, &record.OutputRows,
			&record.Sequential, &record.EffortPercent); err != nil {
			return nil, fmt.Errorf("failed to scan trim record: %w", err)
		}
		if record.RecordTime, err = scanTime(recordRaw); err != nil {
			return nil, fmt.Errorf("failed to parse record_time: %w", err)
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trim records: %w", err)
	}
	return results, nil
}
