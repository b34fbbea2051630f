// Package cmd defines the command-line interface for dynbike.
package cmd

import (
	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(trimCmd)
	rootCmd.AddCommand(segmentCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the session subcommands to the parent session command
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	sessionCmd.AddCommand(sessionStatusCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("series-file", "", "Optional path (.csv, .json or .parquet) to write the resulting series rows")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable development logging")
	rootCmd.PersistentFlags().String("session-key", "", "Session to process, e.g. SMB024_day1 (also names FIT inputs)")
	rootCmd.PersistentFlags().Float64("cadence-min", schema.DefaultCadenceMin, "Lowest cadence kept by the extreme-value filter")
	rootCmd.PersistentFlags().Float64("cadence-max", schema.DefaultCadenceMax, "Highest cadence kept by the extreme-value filter")
	rootCmd.PersistentFlags().String("session-backend", string(schema.SQLiteBackend), "Session store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("session-db-connect", "", "Database connection string for the session store (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("run-backend", "", "Trim run tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("run-db-connect", "", "Database connection string for trim run tracking (must differ from session-db-connect)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of trimCmd to Viper
	trimCmd.Flags().String("column", string(schema.CadenceColumn), "Column scanned for the trailing flatline: cadence or power or heart_rate")
	trimCmd.Flags().Int("flat-value", schema.DefaultFlatValue, "Rounded rolling-mean value that counts as flat")
	trimCmd.Flags().Int("roll-window", schema.DefaultRollWindow, "Rolling-mean window in rows")
	trimCmd.Flags().Int("min-flat-start", schema.DefaultMinFlatStart, "Smallest row index at which a trailing flatline is trimmed")
	trimCmd.Flags().Int("min-flat-length", schema.DefaultMinFlatLength, "Shortest flatline run that is trimmed")
	if err := viper.BindPFlags(trimCmd.Flags()); err != nil {
		contract.LogFatal("Error binding trim flags", err)
	}

	// Bind all flags of segmentCmd to Viper
	segmentCmd.Flags().String("side", string(schema.LeftSide), "Side of a cut segment that is kept: left or right")
	segmentCmd.Flags().Float64("stop-fraction", schema.DefaultStopFraction, "Merging stops once a merge would add more than this fraction of the single-line fit error")
	segmentCmd.Flags().String("resume", "", "Resume a stored session by ID")
	if err := viper.BindPFlags(segmentCmd.Flags()); err != nil {
		contract.LogFatal("Error binding segment flags", err)
	}

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}
}
