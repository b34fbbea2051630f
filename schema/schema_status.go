package schema

import "time"

// SessionStoreStatus represents the status of the segmentation session store.
type SessionStoreStatus struct {
	Backend         string               `json:"backend"`
	Connected       bool                 `json:"connected"`
	TotalSessions   int                  `json:"total_sessions"`
	ByPhase         map[SessionPhase]int `json:"by_phase"`
	LastUpdateTime  time.Time            `json:"last_update_time"`
	OldestStartTime time.Time            `json:"oldest_start_time"`
	TableSizeBytes  int64                `json:"table_size_bytes"`
}

// RunStatus represents the status of the trim-run store.
type RunStatus struct {
	Backend              string           `json:"backend"`
	Connected            bool             `json:"connected"`
	TotalRuns            int              `json:"total_runs"`
	LastRunID            int64            `json:"last_run_id"`
	LastRunTime          time.Time        `json:"last_run_time"`
	OldestRunTime        time.Time        `json:"oldest_run_time"`
	TotalSessionsTrimmed int              `json:"total_sessions_trimmed"`
	TableSizes           map[string]int64 `json:"table_sizes"`
}
