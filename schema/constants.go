package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for persistence.
	DatabaseBackend string

	// CutSide represents which end of the series survives an integer cut.
	CutSide string

	// SessionPhase represents where a segmentation session is in its lifecycle.
	SessionPhase string

	// Column names a numeric observation column.
	Column string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Cut sides. Left keeps from the chosen segment to the end; right keeps from the start to it.
const (
	LeftSide  CutSide = "left" // default
	RightSide CutSide = "right"
)

// Session phases.
const (
	PhaseAwaitingFit    SessionPhase = "awaiting_fit"
	PhaseAwaitingChoice SessionPhase = "awaiting_choice"
	PhaseFinalized      SessionPhase = "finalized"
	PhaseSplit          SessionPhase = "split"
	PhaseAbandoned      SessionPhase = "abandoned"
)

// Observation columns.
const (
	CadenceColumn   Column = "cadence" // default
	PowerColumn     Column = "power"
	HeartRateColumn Column = "heart_rate"
)

// Extreme-value bounds for cadence, inclusive.
const (
	DefaultCadenceMin = -150.0
	DefaultCadenceMax = 150.0
)

// Trailing-flatline detector defaults.
const (
	DefaultFlatValue     = 0
	DefaultRollWindow    = 60
	DefaultMinFlatStart  = 2000
	DefaultMinFlatLength = 150
)

// DefaultStopFraction is the merge-cost ceiling of the piecewise fit, relative to a single-line fit.
const DefaultStopFraction = 0.03

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidCutSides lists all valid cut sides.
var ValidCutSides = map[CutSide]struct{}{
	LeftSide:  {},
	RightSide: {},
}

// ValidColumns lists all columns the flatline detector can scan.
var ValidColumns = map[Column]struct{}{
	CadenceColumn:   {},
	PowerColumn:     {},
	HeartRateColumn: {},
}

// IsTerminal reports whether no further operator responses are accepted in this phase.
func (p SessionPhase) IsTerminal() bool {
	switch p {
	case PhaseFinalized, PhaseSplit, PhaseAbandoned:
		return true
	default:
		return false
	}
}
