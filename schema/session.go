package schema

import "time"

// DecisionKind classifies an operator response.
type DecisionKind string

// Operator response kinds.
const (
	DecideCut     DecisionKind = "cut"
	DecideStop    DecisionKind = "stop"
	DecideAll     DecisionKind = "all"
	DecideSuspend DecisionKind = "suspend"
)

// Decision is a parsed operator response. Segment is 1-based and only set for cuts.
// Segments optionally narrows an "all" response to the listed 1-based indices.
type Decision struct {
	Kind     DecisionKind `json:"kind" msgpack:"kind"`
	Segment  int          `json:"segment,omitempty" msgpack:"segment,omitempty"`
	Segments []int        `json:"segments,omitempty" msgpack:"segments,omitempty"`
}

// DecisionEntry records an applied decision and its effect on the series length.
type DecisionEntry struct {
	Decision   Decision  `json:"decision" msgpack:"decision"`
	RowsBefore int       `json:"rows_before" msgpack:"rows_before"`
	RowsAfter  int       `json:"rows_after" msgpack:"rows_after"`
	AppliedAt  time.Time `json:"applied_at" msgpack:"applied_at"`
}

// SegmentPart is one sub-series produced by an "all" response, keyed by its 1-based segment index.
type SegmentPart struct {
	Index      int     `json:"index" msgpack:"index"`
	Segment    Segment `json:"segment" msgpack:"segment"`
	Series     Series  `json:"series" msgpack:"series"`
	Sequential bool    `json:"sequential" msgpack:"sequential"`
}

// SessionResult is the terminal output of a segmentation session.
// Final is set after "stop"; Parts is set after "all".
type SessionResult struct {
	Final      *Series         `json:"final,omitempty" msgpack:"final,omitempty"`
	Model      *PiecewiseModel `json:"model,omitempty" msgpack:"model,omitempty"`
	Sequential bool            `json:"sequential" msgpack:"sequential"`
	Parts      []SegmentPart   `json:"parts,omitempty" msgpack:"parts,omitempty"`
}

// SessionState is the serializable state of a segmentation session.
type SessionState struct {
	ID        string          `json:"id" msgpack:"id"`
	Key       SessionKey      `json:"key" msgpack:"key"`
	Side      CutSide         `json:"side" msgpack:"side"`
	Phase     SessionPhase    `json:"phase" msgpack:"phase"`
	Current   Series          `json:"current" msgpack:"current"`
	Model     *PiecewiseModel `json:"model,omitempty" msgpack:"model,omitempty"`
	Result    *SessionResult  `json:"result,omitempty" msgpack:"result,omitempty"`
	History   []DecisionEntry `json:"history,omitempty" msgpack:"history,omitempty"`
	Dropped   int             `json:"dropped_extreme" msgpack:"dropped_extreme"`
	CreatedAt time.Time       `json:"created_at" msgpack:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" msgpack:"updated_at"`
}

// SessionSummary is the listing view of a stored session.
type SessionSummary struct {
	ID        string       `json:"id"`
	Key       string       `json:"key"`
	Side      CutSide      `json:"side"`
	Phase     SessionPhase `json:"phase"`
	Rows      int          `json:"rows"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Summary returns the listing view of the state.
func (s *SessionState) Summary() SessionSummary {
	return SessionSummary{
		ID:        s.ID,
		Key:       s.Key.String(),
		Side:      s.Side,
		Phase:     s.Phase,
		Rows:      s.Current.Len(),
		UpdatedAt: s.UpdatedAt,
	}
}
