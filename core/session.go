package core

import (
	"fmt"
	"time"

	"github.com/dynbike/dynbike/core/algo"
	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionOptions configures a segmentation session.
type SessionOptions struct {
	Side         schema.CutSide
	Bounds       CadenceBounds
	StopFraction float64
	Logger       *zap.SugaredLogger
	Now          func() time.Time
}

// SessionOptionsFromConfig derives session options from the validated config.
func SessionOptionsFromConfig(cfg *contract.Config, logger *zap.SugaredLogger) SessionOptions {
	return SessionOptions{
		Side:         cfg.Side,
		Bounds:       CadenceBounds{Min: cfg.CadenceMin, Max: cfg.CadenceMax},
		StopFraction: cfg.StopFraction,
		Logger:       logger,
	}
}

func (o SessionOptions) withDefaults() SessionOptions {
	if o.Side == "" {
		o.Side = schema.LeftSide
	}
	if o.Bounds == (CadenceBounds{}) {
		o.Bounds = DefaultCadenceBounds()
	}
	if o.StopFraction <= 0 {
		o.StopFraction = schema.DefaultStopFraction
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop().Sugar()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Session is the piecewise segmentation state machine for one participant-session.
// It is not safe for concurrent use.
type Session struct {
	state *schema.SessionState
	opts  SessionOptions
	log   *zap.SugaredLogger
}

// NewSession filters extreme cadence from series and opens a session awaiting its first fit.
func NewSession(series schema.Series, opts SessionOptions) (*Session, error) {
	opts = opts.withDefaults()
	if _, ok := schema.ValidCutSides[opts.Side]; !ok {
		return nil, fmt.Errorf("invalid cut side %q", opts.Side)
	}

	filtered, dropped := FilterExtremeCadence(series, opts.Bounds)
	if dropped > 0 {
		opts.Logger.Warnw("dropped rows with extreme cadence",
			"key", series.Key.String(), "dropped", dropped, "min", opts.Bounds.Min, "max", opts.Bounds.Max)
	}
	if filtered.Len() == 0 {
		return nil, fmt.Errorf("%s: no rows left after filtering: %w", series.Key, ErrDegenerateInput)
	}

	now := opts.Now()
	state := &schema.SessionState{
		ID:        uuid.New().String(),
		Key:       series.Key,
		Side:      opts.Side,
		Phase:     schema.PhaseAwaitingFit,
		Current:   filtered,
		Dropped:   dropped,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return &Session{state: state, opts: opts, log: opts.Logger}, nil
}

// ResumeSession continues a session from a stored state. The stored cut side wins over opts.
func ResumeSession(state *schema.SessionState, opts SessionOptions) (*Session, error) {
	if state == nil {
		return nil, ErrSessionNotFound
	}
	opts.Side = state.Side
	opts = opts.withDefaults()
	return &Session{state: state, opts: opts, log: opts.Logger}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.state.ID
}

// State returns the live session state.
func (s *Session) State() *schema.SessionState {
	return s.state
}

// Phase returns the current phase.
func (s *Session) Phase() schema.SessionPhase {
	return s.state.Phase
}

// Fit fits a piecewise model to the current series and moves to awaiting_choice.
// A session already awaiting a choice returns its existing model.
func (s *Session) Fit() (schema.PiecewiseModel, error) {
	switch {
	case s.state.Phase.IsTerminal():
		return schema.PiecewiseModel{}, ErrSessionClosed
	case s.state.Phase == schema.PhaseAwaitingChoice && s.state.Model != nil:
		return *s.state.Model, nil
	}

	model, err := FitModel(s.state.Current, s.opts.StopFraction)
	if err != nil {
		return schema.PiecewiseModel{}, err
	}
	s.state.Model = &model
	s.state.Phase = schema.PhaseAwaitingChoice
	s.touch()
	s.log.Debugw("fitted piecewise model", "session", s.state.ID, "rows", s.state.Current.Len(), "segments", model.Len())
	return model, nil
}

// FitModel fits cadence against elapsed seconds and maps row ranges onto the time domain.
func FitModel(series schema.Series, stopFraction float64) (schema.PiecewiseModel, error) {
	if series.Len() == 0 {
		return schema.PiecewiseModel{}, fmt.Errorf("%s: %w", series.Key, ErrDegenerateSlice)
	}
	x := make([]float64, series.Len())
	for i, r := range series.Rows {
		x[i] = float64(r.ElapsedSecond)
	}
	pieces, err := algo.FitPiecewise(x, series.Values(schema.CadenceColumn), algo.PiecewiseOptions{StopFraction: stopFraction})
	if err != nil {
		return schema.PiecewiseModel{}, err
	}
	segments := make([]schema.Segment, len(pieces))
	for i, p := range pieces {
		segments[i] = schema.Segment{
			StartT:    series.Rows[p.Lo].ElapsedSecond,
			EndT:      series.Rows[p.Hi-1].ElapsedSecond,
			Slope:     p.Slope,
			Intercept: p.Intercept,
			Rows:      p.Len(),
			SSE:       p.SSE,
		}
	}
	return schema.PiecewiseModel{Segments: segments}, nil
}

// Respond parses an operator response and applies it.
func (s *Session) Respond(raw string) (schema.Decision, error) {
	if s.state.Phase.IsTerminal() {
		return schema.Decision{}, ErrSessionClosed
	}
	if _, err := s.Fit(); err != nil {
		return schema.Decision{}, err
	}
	d, err := ParseDecision(raw, s.state.Model.Len())
	if err != nil {
		return schema.Decision{}, err
	}
	return d, s.Apply(d)
}

// Apply performs a parsed decision. Recoverable failures leave the state untouched.
func (s *Session) Apply(d schema.Decision) error {
	if s.state.Phase.IsTerminal() {
		return ErrSessionClosed
	}
	if _, err := s.Fit(); err != nil {
		return err
	}

	before := s.state.Current.Len()
	var err error
	switch d.Kind {
	case schema.DecideSuspend:
		return nil
	case schema.DecideCut:
		err = s.cut(d.Segment)
	case schema.DecideStop:
		s.stop()
	case schema.DecideAll:
		err = s.split(d.Segments)
	default:
		err = &OperatorInputError{Response: string(d.Kind), Reason: "unknown decision"}
	}
	if err != nil {
		return err
	}

	s.state.History = append(s.state.History, schema.DecisionEntry{
		Decision:   d,
		RowsBefore: before,
		RowsAfter:  s.state.Current.Len(),
		AppliedAt:  s.opts.Now(),
	})
	s.touch()
	return nil
}

// Abandon closes the session without a result.
func (s *Session) Abandon() {
	if s.state.Phase.IsTerminal() {
		return
	}
	s.state.Phase = schema.PhaseAbandoned
	s.touch()
}

func (s *Session) segment(k int) (schema.Segment, error) {
	seg, ok := s.state.Model.Segment(k)
	if !ok {
		return schema.Segment{}, &OperatorInputError{
			Response: fmt.Sprint(k),
			Reason:   fmt.Sprintf("segment must be between 1 and %d", s.state.Model.Len()),
		}
	}
	return seg, nil
}

func (s *Session) locate(k int, second int, side string) (int, error) {
	idx, ok := s.state.Current.IndexOfSecond(second)
	if !ok {
		return 0, &BoundaryError{Segment: k, Second: second, Side: side}
	}
	return idx, nil
}

// cut keeps the part of the series on the configured side of segment k and awaits a refit.
func (s *Session) cut(k int) error {
	seg, err := s.segment(k)
	if err != nil {
		return err
	}

	var from, to int
	switch s.state.Side {
	case schema.RightSide:
		end, err := s.locate(k, seg.EndT, "end")
		if err != nil {
			return err
		}
		from, to = 0, end+1
	default:
		start, err := s.locate(k, seg.StartT, "start")
		if err != nil {
			return err
		}
		from, to = start, s.state.Current.Len()
	}
	if to <= from {
		return fmt.Errorf("segment %d on %s side: %w", k, s.state.Side, ErrDegenerateSlice)
	}

	s.state.Current = s.state.Current.Slice(from, to)
	s.state.Model = nil
	s.state.Phase = schema.PhaseAwaitingFit
	s.log.Infow("applied cut", "session", s.state.ID, "segment", k, "side", s.state.Side, "rows", to-from)
	return nil
}

// stop freezes the current series and model as the final result.
func (s *Session) stop() {
	final := s.state.Current.Clone()
	model := *s.state.Model
	sequential := algo.IsSequential(final.ElapsedSeconds())
	if !sequential {
		s.log.Warnw("finalized series is not sequential", "session", s.state.ID, "key", final.Key.String())
	}
	s.state.Result = &schema.SessionResult{Final: &final, Model: &model, Sequential: sequential}
	s.state.Phase = schema.PhaseFinalized
}

// split forks one sub-series per selected segment, or per segment when none are selected.
func (s *Session) split(selected []int) error {
	if len(selected) == 0 {
		selected = make([]int, s.state.Model.Len())
		for i := range selected {
			selected[i] = i + 1
		}
	}

	parts := make([]schema.SegmentPart, 0, len(selected))
	allSequential := true
	for _, k := range selected {
		seg, err := s.segment(k)
		if err != nil {
			return err
		}
		start, err := s.locate(k, seg.StartT, "start")
		if err != nil {
			return err
		}
		end, err := s.locate(k, seg.EndT, "end")
		if err != nil {
			return err
		}
		if end < start {
			return fmt.Errorf("segment %d: %w", k, ErrDegenerateSlice)
		}

		sub := s.state.Current.Slice(start, end+1)
		sequential := algo.IsSequential(sub.ElapsedSeconds())
		if !sequential {
			allSequential = false
			s.log.Warnw("split part is not sequential", "session", s.state.ID, "segment", k)
		}
		parts = append(parts, schema.SegmentPart{Index: k, Segment: seg, Series: sub, Sequential: sequential})
	}

	model := *s.state.Model
	s.state.Result = &schema.SessionResult{Model: &model, Sequential: allSequential, Parts: parts}
	s.state.Phase = schema.PhaseSplit
	return nil
}

func (s *Session) touch() {
	s.state.UpdatedAt = s.opts.Now()
}
