package contract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dynbike/dynbike/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns raw input that passes validation, pointing at a real CSV file.
func validInput(t *testing.T) *ConfigRawInput {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.csv")
	require.NoError(t, os.WriteFile(path, []byte("id_sess,elapsed_sec,cadence,power,hr\n"), 0o644))
	return &ConfigRawInput{
		InputPathStr:  path,
		Workers:       4,
		Precision:     1,
		Output:        "text",
		Color:         "yes",
		CadenceMin:    schema.DefaultCadenceMin,
		CadenceMax:    schema.DefaultCadenceMax,
		Column:        "cadence",
		FlatValue:     schema.DefaultFlatValue,
		RollWindow:    schema.DefaultRollWindow,
		MinFlatStart:  schema.DefaultMinFlatStart,
		MinFlatLength: schema.DefaultMinFlatLength,
		Side:          "left",
		StopFraction:  schema.DefaultStopFraction,
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", mutate: func(*ConfigRawInput) {}},
		{name: "no input path", mutate: func(in *ConfigRawInput) { in.InputPathStr = "" }},
		{name: "zero workers", mutate: func(in *ConfigRawInput) { in.Workers = 0 }, expectError: true},
		{name: "precision too high", mutate: func(in *ConfigRawInput) { in.Precision = 4 }, expectError: true},
		{name: "invalid output", mutate: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "parquet without file", mutate: func(in *ConfigRawInput) { in.Output = "parquet" }, expectError: true},
		{name: "parquet with file", mutate: func(in *ConfigRawInput) { in.Output = "parquet"; in.OutputFile = "out" }},
		{name: "invalid color", mutate: func(in *ConfigRawInput) { in.Color = "sometimes" }, expectError: true},
		{name: "inverted cadence bounds", mutate: func(in *ConfigRawInput) { in.CadenceMin = 10; in.CadenceMax = -10 }, expectError: true},
		{name: "invalid column", mutate: func(in *ConfigRawInput) { in.Column = "speed" }, expectError: true},
		{name: "empty column defaults", mutate: func(in *ConfigRawInput) { in.Column = "" }},
		{name: "zero roll window", mutate: func(in *ConfigRawInput) { in.RollWindow = 0 }, expectError: true},
		{name: "negative flat start", mutate: func(in *ConfigRawInput) { in.MinFlatStart = -1 }, expectError: true},
		{name: "invalid side", mutate: func(in *ConfigRawInput) { in.Side = "middle" }, expectError: true},
		{name: "uppercase side", mutate: func(in *ConfigRawInput) { in.Side = "RIGHT" }},
		{name: "zero stop fraction", mutate: func(in *ConfigRawInput) { in.StopFraction = 0 }, expectError: true},
		{name: "stop fraction of one", mutate: func(in *ConfigRawInput) { in.StopFraction = 1 }, expectError: true},
		{name: "missing input file", mutate: func(in *ConfigRawInput) { in.InputPathStr = "/does/not/exist.csv" }, expectError: true},
		{name: "directory input", mutate: func(in *ConfigRawInput) { in.InputPathStr = os.TempDir() }, expectError: true},
		{name: "invalid session backend", mutate: func(in *ConfigRawInput) { in.SessionBackend = "redis" }, expectError: true},
		{name: "mysql without connection", mutate: func(in *ConfigRawInput) { in.RunBackend = "mysql" }, expectError: true},
		{
			name: "shared sqlite file",
			mutate: func(in *ConfigRawInput) {
				in.SessionBackend, in.RunBackend = "sqlite", "sqlite"
				in.SessionDBConnect, in.RunDBConnect = "/tmp/same.db", "/tmp/same.db"
			},
			expectError: true,
		},
		{
			name: "shared in-memory sqlite",
			mutate: func(in *ConfigRawInput) {
				in.SessionBackend, in.RunBackend = "sqlite", "sqlite"
				in.SessionDBConnect, in.RunDBConnect = ":memory:", ":memory:"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput(t)
			tt.mutate(input)
			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidate_Normalizes(t *testing.T) {
	input := validInput(t)
	input.Output = "JSON"
	input.Side = " Right "
	input.Column = "Power"
	input.Color = "no"
	input.SessionKey = "  SMB7_day3 "

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, schema.JSONOut, cfg.Output)
	assert.Equal(t, schema.RightSide, cfg.Side)
	assert.Equal(t, schema.PowerColumn, cfg.Column)
	assert.False(t, cfg.UseColors)
	assert.Equal(t, "SMB7_day3", cfg.SessionKey)
	assert.Equal(t, schema.NoneBackend, cfg.SessionBackend)
	assert.Equal(t, schema.NoneBackend, cfg.RunBackend)
	assert.True(t, filepath.IsAbs(cfg.InputPath))
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name        string
		backend     schema.DatabaseBackend
		connStr     string
		expectError bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none empty", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/dynbike", false},
		{"mysql no tcp", schema.MySQLBackend, "user:pass@localhost/dynbike", true},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=localhost port=5432 user=u password=p dbname=dynbike", false},
		{"postgres no dbname", schema.PostgreSQLBackend, "host=localhost", true},
		{"postgres no host", schema.PostgreSQLBackend, "dbname=dynbike", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, schema.NoneBackend, b)

	b, err = ParseBackend(" PostgreSQL ")
	require.NoError(t, err)
	assert.Equal(t, schema.PostgreSQLBackend, b)

	_, err = ParseBackend("oracle")
	assert.Error(t, err)
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{Workers: 2, Side: schema.LeftSide}
	clone := cfg.Clone()
	clone.Side = schema.RightSide
	assert.Equal(t, schema.LeftSide, cfg.Side)
	assert.Equal(t, 2, clone.Workers)
}
