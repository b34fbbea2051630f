package schema

// Segment is one linear piece of a piecewise fit.
// StartT and EndT are the elapsed seconds of its first and last rows, both inclusive.
type Segment struct {
	StartT    int     `json:"start_t" msgpack:"start_t"`
	EndT      int     `json:"end_t" msgpack:"end_t"`
	Slope     float64 `json:"slope" msgpack:"slope"`
	Intercept float64 `json:"intercept" msgpack:"intercept"`
	Rows      int     `json:"rows" msgpack:"rows"`
	SSE       float64 `json:"sse" msgpack:"sse"`
}

// PiecewiseModel is an ordered, contiguous, non-overlapping set of segments covering a series.
type PiecewiseModel struct {
	Segments []Segment `json:"segments" msgpack:"segments"`
}

// Len returns the number of segments.
func (m PiecewiseModel) Len() int {
	return len(m.Segments)
}

// Segment returns the segment at 1-based position k, as presented to the operator.
func (m PiecewiseModel) Segment(k int) (Segment, bool) {
	if k < 1 || k > len(m.Segments) {
		return Segment{}, false
	}
	return m.Segments[k-1], true
}

// TotalSSE sums the residual error of all segments.
func (m PiecewiseModel) TotalSSE() float64 {
	total := 0.0
	for _, s := range m.Segments {
		total += s.SSE
	}
	return total
}
