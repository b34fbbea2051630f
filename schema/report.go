package schema

// FlatlineRun describes the longest run of flat rolling-difference values.
// Found is false when the signal had no flat entries at all.
type FlatlineRun struct {
	Start  int  `json:"start"`
	Length int  `json:"length"`
	Found  bool `json:"found"`
}

// TrimReport summarizes the preprocessing of one participant-session.
type TrimReport struct {
	Key            string      `json:"key"`
	InputRows      int         `json:"input_rows"`
	DroppedExtreme int         `json:"dropped_extreme"`
	Flatline       FlatlineRun `json:"flatline"`
	Trimmed        bool        `json:"trimmed"`
	OutputRows     int         `json:"output_rows"`
	Sequential     bool        `json:"sequential"`
	EffortPercent  float64     `json:"effort_percent"`
}

// TrimResult pairs a report with the series it describes.
type TrimResult struct {
	Report TrimReport `json:"report"`
	Series Series     `json:"-"`
}

// SequenceCheck is the integrity verdict for one series.
type SequenceCheck struct {
	Key        string `json:"key"`
	Rows       int    `json:"rows"`
	FirstSec   int    `json:"first_sec"`
	LastSec    int    `json:"last_sec"`
	Sequential bool   `json:"sequential"`
}
