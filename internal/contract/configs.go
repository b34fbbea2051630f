package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dynbike/dynbike/schema"
)

// Default values for configuration.
const (
	DefaultPrecision = 1
	MaxPrecision     = 3
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Config holds the runtime configuration.
// This struct remains the "final, validated" config.
type Config struct {
	InputPath  string
	SessionKey string // Key for single-series inputs such as FIT files
	Workers    int
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	SeriesFile string // Optional destination for trimmed series rows
	Width      int    // Terminal width override (0 = auto-detect)
	UseColors  bool
	Debug      bool

	// Trailing-flatline detection
	Column        schema.Column
	FlatValue     int
	RollWindow    int
	MinFlatStart  int
	MinFlatLength int

	// Extreme-value filter, inclusive bounds
	CadenceMin float64
	CadenceMax float64

	// Segmentation
	Side         schema.CutSide
	StopFraction float64
	ResumeID     string

	SessionBackend   schema.DatabaseBackend
	SessionDBConnect string // Please use env var as this is plaintext

	RunBackend   schema.DatabaseBackend
	RunDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Workers          int     `mapstructure:"workers"`
	Precision        int     `mapstructure:"precision"`
	Output           string  `mapstructure:"output"`
	OutputFile       string  `mapstructure:"output-file"`
	Width            int     `mapstructure:"width"`
	Color            string  `mapstructure:"color"`
	Debug            bool    `mapstructure:"debug"`
	SessionKey       string  `mapstructure:"session-key"`
	CadenceMin       float64 `mapstructure:"cadence-min"`
	CadenceMax       float64 `mapstructure:"cadence-max"`
	SessionBackend   string  `mapstructure:"session-backend"`
	SessionDBConnect string  `mapstructure:"session-db-connect"`
	RunBackend       string  `mapstructure:"run-backend"`
	RunDBConnect     string  `mapstructure:"run-db-connect"`

	// --- Fields from trimCmd.Flags() ---
	Column        string `mapstructure:"column"`
	FlatValue     int    `mapstructure:"flat-value"`
	RollWindow    int    `mapstructure:"roll-window"`
	MinFlatStart  int    `mapstructure:"min-flat-start"`
	MinFlatLength int    `mapstructure:"min-flat-length"`
	SeriesFile    string `mapstructure:"series-file"`

	// --- Fields from segmentCmd.Flags() ---
	Side         string  `mapstructure:"side"`
	StopFraction float64 `mapstructure:"stop-fraction"`
	Resume       string  `mapstructure:"resume"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processFlatline(cfg, input); err != nil {
		return err
	}
	if err := processSegmentation(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return resolveInputPath(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseBackend normalizes a backend name, treating empty as NoneBackend.
func ParseBackend(raw string) (schema.DatabaseBackend, error) {
	if strings.TrimSpace(raw) == "" {
		return schema.NoneBackend, nil
	}
	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", fmt.Errorf("invalid backend '%s'. must be sqlite, mysql, postgresql, none", raw)
	}
	return backend, nil
}

// validateBackendConfigs validates session and run backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Session Backend Validation ---
	backend, err := ParseBackend(input.SessionBackend)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	cfg.SessionBackend = backend
	cfg.SessionDBConnect = input.SessionDBConnect
	if err := ValidateDatabaseConnectionString(cfg.SessionBackend, cfg.SessionDBConnect); err != nil {
		return err
	}

	// --- Run Backend Validation ---
	backend, err = ParseBackend(input.RunBackend)
	if err != nil {
		return fmt.Errorf("run store: %w", err)
	}
	cfg.RunBackend = backend
	cfg.RunDBConnect = input.RunDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunBackend, cfg.RunDBConnect); err != nil {
		return err
	}

	// Sessions and runs live in separate tables, but two SQLite stores must not share a file.
	if cfg.SessionBackend == schema.SQLiteBackend && cfg.RunBackend == schema.SQLiteBackend {
		sessionPath := cfg.SessionDBConnect
		if sessionPath == "" {
			sessionPath = GetSessionDBFilePath()
		}
		runPath := cfg.RunDBConnect
		if runPath == "" {
			runPath = GetRunDBFilePath()
		}
		if sessionPath == runPath && sessionPath != ":memory:" {
			return fmt.Errorf("session and run storage must use different SQLite database files. Both resolve to %q", sessionPath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates output and concurrency fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.SeriesFile = input.SeriesFile
	cfg.Width = input.Width
	cfg.Debug = input.Debug
	cfg.SessionKey = strings.TrimSpace(input.SessionKey)

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}

	if input.CadenceMin > input.CadenceMax {
		return fmt.Errorf("cadence-min (%.1f) cannot exceed cadence-max (%.1f)", input.CadenceMin, input.CadenceMax)
	}
	cfg.CadenceMin = input.CadenceMin
	cfg.CadenceMax = input.CadenceMax

	return nil
}

// processFlatline validates the trailing-flatline detector parameters.
func processFlatline(cfg *Config, input *ConfigRawInput) error {
	col := schema.Column(strings.ToLower(strings.TrimSpace(input.Column)))
	if col == "" {
		col = schema.CadenceColumn
	}
	if _, ok := schema.ValidColumns[col]; !ok {
		return fmt.Errorf("invalid column '%s'. must be cadence, power, heart_rate", input.Column)
	}
	cfg.Column = col

	if input.RollWindow < 1 {
		return fmt.Errorf("roll-window must be at least 1 (received %d)", input.RollWindow)
	}
	if input.MinFlatStart < 0 || input.MinFlatLength < 0 {
		return fmt.Errorf("min-flat-start and min-flat-length cannot be negative")
	}
	cfg.FlatValue = input.FlatValue
	cfg.RollWindow = input.RollWindow
	cfg.MinFlatStart = input.MinFlatStart
	cfg.MinFlatLength = input.MinFlatLength
	return nil
}

// processSegmentation validates the cut side and piecewise fit parameters.
func processSegmentation(cfg *Config, input *ConfigRawInput) error {
	side := schema.CutSide(strings.ToLower(strings.TrimSpace(input.Side)))
	if side == "" {
		side = schema.LeftSide
	}
	if _, ok := schema.ValidCutSides[side]; !ok {
		return fmt.Errorf("invalid side '%s'. must be left or right", input.Side)
	}
	cfg.Side = side

	if input.StopFraction <= 0 || input.StopFraction >= 1 {
		return fmt.Errorf("stop-fraction must be between 0 and 1 exclusive (received %g)", input.StopFraction)
	}
	cfg.StopFraction = input.StopFraction
	cfg.ResumeID = strings.TrimSpace(input.Resume)
	return nil
}

// resolveInputPath checks that the positional input exists when one was given.
func resolveInputPath(cfg *Config, input *ConfigRawInput) error {
	if input.InputPathStr == "" {
		cfg.InputPath = ""
		return nil
	}
	abs, err := filepath.Abs(input.InputPathStr)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("cannot read input %q: %w", input.InputPathStr, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input %q is a directory, expected a .csv or .fit file", input.InputPathStr)
	}
	cfg.InputPath = abs
	return nil
}
