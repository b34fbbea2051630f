package cmd

import (
	"fmt"
	"os"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/internal/iocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runsBackendSetup resolves the run backend without opening the store, so migrations can
// run against a fresh database.
func runsBackendSetup(_ *cobra.Command, _ []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}
	backend, connStr, err := backendFromViper("run-backend", "run-db-connect")
	if err != nil {
		return err
	}
	cfg.RunBackend = backend
	cfg.RunDBConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")
	return nil
}

// runsSetup opens only the run store.
func runsSetup(cmd *cobra.Command, args []string) error {
	if err := runsBackendSetup(cmd, args); err != nil {
		return err
	}
	if err := iocache.InitStores("", "", cfg.RunBackend, cfg.RunDBConnect); err != nil {
		return fmt.Errorf("failed to initialize run tracking: %w", err)
	}
	storeManager = iocache.Manager
	return nil
}

// runsCmd focused on trim run tracking.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage trim run tracking and exports",
	Long: `Manage the history of batch trim runs.

When --run-backend is set, every 'dynbike trim' run stores:
- Run metadata (start and end time, duration, detector configuration)
- One report per session (rows in and out, flatline found, trimmed, sequential, effort)

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled, the default)

Subcommands:
  status  - Show run tracking statistics
  export  - Export runs and reports to Parquet
  clear   - Remove all tracking data
  migrate - Run database schema migrations

Examples:
  # Check tracking status
  dynbike runs status --run-backend sqlite

  # Export for analysis in pandas/DuckDB
  dynbike runs export --run-backend sqlite --output-file trims`,
}

// runsClearCmd clears the run tracking data.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all trim run tracking data",
	Long: `Delete all stored trim runs and per-session reports.

WARNING: This action cannot be undone. Consider exporting data first.`,
	Args:    cobra.NoArgs,
	PreRunE: runsBackendSetup,
	Run: func(_ *cobra.Command, _ []string) {
		path := sqlitePath(cfg.RunDBConnect, contract.GetRunDBFilePath())
		if err := iocache.ClearRuns(cfg.RunBackend, path, cfg.RunDBConnect); err != nil {
			contract.LogFatal("Failed to clear run data", err)
		}
		fmt.Println("Run data cleared successfully.")
	},
}

// runsStatusCmd shows run tracking status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display trim run statistics and connection details",
	Long: `Show the run backend, its connection status, the number of runs, the newest and
oldest run times, the number of sessions trimmed and the table sizes.`,
	Args:    cobra.NoArgs,
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetRunStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get run status", err)
		}
		iocache.PrintRunStatus(os.Stdout, status)
	},
}

// runsExportCmd exports run data to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export trim runs and reports to Parquet",
	Long: `Export all stored trim runs and per-session reports to Parquet.

Writes two files next to --output-file:
- <output-file>.trim_runs.parquet
- <output-file>.trim_records.parquet

Examples:
  dynbike runs export --run-backend sqlite --output-file trims
  duckdb -c "SELECT * FROM read_parquet('trims.trim_records.parquet') LIMIT 10"`,
	Args:    cobra.NoArgs,
	PreRunE: runsSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteRunExport(os.Stdout, iocache.Manager.GetRunStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run data", err)
		}
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run tracking store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  dynbike runs migrate --run-backend sqlite

  # Migrate to specific version
  dynbike runs migrate --run-backend sqlite --target-version 1

  # Roll back everything
  dynbike runs migrate --run-backend sqlite --target-version 0`,
	Args:    cobra.NoArgs,
	PreRunE: runsBackendSetup,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateRuns(os.Stdout, cfg.RunBackend, cfg.RunDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
