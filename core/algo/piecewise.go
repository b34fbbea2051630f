package algo

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrLengthMismatch is returned when x and y differ in length.
var ErrLengthMismatch = errors.New("x and y must have the same length")

// Piece is one fitted linear segment over rows [Lo, Hi).
type Piece struct {
	Lo        int
	Hi        int
	Slope     float64
	Intercept float64
	SSE       float64
}

// Len returns the number of rows the piece covers.
func (p Piece) Len() int {
	return p.Hi - p.Lo
}

// moments holds the running sums needed for an OLS fit of one piece.
type moments struct {
	n, sx, sy, sxx, sxy, syy float64
}

func momentsOf(x, y []float64) moments {
	return moments{
		n:   float64(len(x)),
		sx:  floats.Sum(x),
		sy:  floats.Sum(y),
		sxx: floats.Dot(x, x),
		sxy: floats.Dot(x, y),
		syy: floats.Dot(y, y),
	}
}

func (m moments) add(o moments) moments {
	return moments{
		n:   m.n + o.n,
		sx:  m.sx + o.sx,
		sy:  m.sy + o.sy,
		sxx: m.sxx + o.sxx,
		sxy: m.sxy + o.sxy,
		syy: m.syy + o.syy,
	}
}

// sse is the residual sum of squares of the least-squares line through the piece.
func (m moments) sse() float64 {
	if m.n < 2 {
		return 0
	}
	cxx := m.sxx - m.sx*m.sx/m.n
	cyy := m.syy - m.sy*m.sy/m.n
	cxy := m.sxy - m.sx*m.sy/m.n
	var out float64
	if cxx <= 1e-12 {
		out = cyy
	} else {
		out = cyy - cxy*cxy/cxx
	}
	return math.Max(out, 0)
}

// PiecewiseOptions configures FitPiecewise.
type PiecewiseOptions struct {
	// StopFraction stops merging once the cheapest merge would add more error than
	// this fraction of the single-line fit error.
	StopFraction float64
}

// FitPiecewise fits a piecewise-linear model to (x, y) by bottom-up greedy merging.
// It starts from two-point pieces and repeatedly merges the adjacent pair whose merge
// adds the least squared error. The returned pieces are contiguous, ordered and
// together cover every row exactly once.
func FitPiecewise(x, y []float64, opts PiecewiseOptions) ([]Piece, error) {
	if len(x) != len(y) {
		return nil, ErrLengthMismatch
	}
	n := len(x)
	if n == 0 {
		return nil, nil
	}
	if n < 4 {
		return []Piece{fitPiece(x, y, 0, n)}, nil
	}

	// Shift x so the running sums stay well conditioned for long sessions.
	xs := make([]float64, n)
	copy(xs, x)
	floats.AddConst(-x[0], xs)

	bounds := make([]int, 0, n/2+1)
	for lo := 0; lo < n; lo += 2 {
		bounds = append(bounds, lo)
	}
	if n%2 == 1 {
		// Fold the odd trailing row into the last pair.
		bounds = bounds[:len(bounds)-1]
	}
	bounds = append(bounds, n)

	pieces := make([]moments, len(bounds)-1)
	for i := range pieces {
		pieces[i] = momentsOf(xs[bounds[i]:bounds[i+1]], y[bounds[i]:bounds[i+1]])
	}

	total := momentsOf(xs, y)
	baseline := total.sse()
	limit := opts.StopFraction*baseline + 1e-9*(1+total.syy)

	costs := make([]float64, len(pieces)-1)
	for i := range costs {
		costs[i] = mergeCost(pieces[i], pieces[i+1])
	}

	for len(pieces) > 1 {
		best := 0
		for i := 1; i < len(costs); i++ {
			if costs[i] < costs[best] {
				best = i
			}
		}
		if costs[best] > limit {
			break
		}

		pieces[best] = pieces[best].add(pieces[best+1])
		pieces = append(pieces[:best+1], pieces[best+2:]...)
		bounds = append(bounds[:best+1], bounds[best+2:]...)
		costs = append(costs[:best], costs[best+1:]...)
		if best > 0 {
			costs[best-1] = mergeCost(pieces[best-1], pieces[best])
		}
		if best < len(costs) {
			costs[best] = mergeCost(pieces[best], pieces[best+1])
		}
	}

	out := make([]Piece, len(pieces))
	for i := range pieces {
		out[i] = fitPiece(x, y, bounds[i], bounds[i+1])
	}
	return out, nil
}

func mergeCost(a, b moments) float64 {
	return a.add(b).sse() - a.sse() - b.sse()
}

// fitPiece computes the OLS line and residual error over rows [lo, hi).
func fitPiece(x, y []float64, lo, hi int) Piece {
	px, py := x[lo:hi], y[lo:hi]
	p := Piece{Lo: lo, Hi: hi}
	if len(px) < 2 || floats.Max(px)-floats.Min(px) == 0 {
		p.Intercept = stat.Mean(py, nil)
	} else {
		p.Intercept, p.Slope = stat.LinearRegression(px, py, nil, false)
	}
	for i := range px {
		r := py[i] - (p.Intercept + p.Slope*px[i])
		p.SSE += r * r
	}
	return p
}
