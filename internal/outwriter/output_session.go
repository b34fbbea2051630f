package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/internal/parquet"
	"github.com/dynbike/dynbike/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// jsonSessionResult is the JSON view of a session, with series rows made NaN-safe.
type jsonSessionResult struct {
	ID         string                 `json:"id"`
	Key        string                 `json:"key"`
	Side       schema.CutSide         `json:"side"`
	Phase      schema.SessionPhase    `json:"phase"`
	Dropped    int                    `json:"dropped_extreme"`
	Model      *schema.PiecewiseModel `json:"model,omitempty"`
	History    []schema.DecisionEntry `json:"history"`
	Sequential bool                   `json:"sequential"`
	Final      *jsonSeries            `json:"final,omitempty"`
	Parts      []jsonPart             `json:"parts,omitempty"`
}

type jsonPart struct {
	Index      int            `json:"index"`
	Segment    schema.Segment `json:"segment"`
	Sequential bool           `json:"sequential"`
	Series     jsonSeries     `json:"series"`
}

// SessionParts returns the series a session produced: the final series after "stop",
// one part per chosen segment after "all", or the current series otherwise.
func SessionParts(state *schema.SessionState) []SeriesPart {
	if state.Result == nil {
		return []SeriesPart{{Series: state.Current}}
	}
	if state.Result.Final != nil {
		return []SeriesPart{{Series: *state.Result.Final}}
	}
	parts := make([]SeriesPart, len(state.Result.Parts))
	for i, p := range state.Result.Parts {
		parts[i] = SeriesPart{Part: p.Index, Series: p.Series}
	}
	return parts
}

// PrintSessionResult outputs a finished session in the configured format and writes
// its series when a series file is configured.
func PrintSessionResult(state *schema.SessionState, cfg *contract.Config) error {
	parts := SessionParts(state)

	var err error
	switch cfg.Output {
	case schema.JSONOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, toJSONSessionResult(state))
		}, "Wrote JSON")
	case schema.CSVOut:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVSeries(w, parts)
		}, "Wrote CSV")
	case schema.ParquetOut:
		var rows []parquet.ObservationRow
		for _, p := range parts {
			rows = append(rows, parquet.ConvertSeries(p.Series, p.Part)...)
		}
		if err = parquet.WriteObservationsParquet(rows, cfg.OutputFile); err == nil {
			_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
		}
	default:
		err = writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSessionSummary(w, state, cfg)
		}, "Wrote table")
	}
	if err != nil {
		return fmt.Errorf("error writing session output: %w", err)
	}

	if cfg.SeriesFile != "" {
		if err := WriteSeriesFile(cfg.SeriesFile, parts); err != nil {
			return fmt.Errorf("error writing series file: %w", err)
		}
	}
	return nil
}

func toJSONSessionResult(state *schema.SessionState) jsonSessionResult {
	out := jsonSessionResult{
		ID:      state.ID,
		Key:     state.Key.String(),
		Side:    state.Side,
		Phase:   state.Phase,
		Dropped: state.Dropped,
		Model:   state.Model,
		History: state.History,
	}
	if out.History == nil {
		out.History = []schema.DecisionEntry{}
	}
	if state.Result == nil {
		return out
	}
	out.Sequential = state.Result.Sequential
	if state.Result.Model != nil {
		out.Model = state.Result.Model
	}
	if state.Result.Final != nil {
		final := toJSONSeries(SeriesPart{Series: *state.Result.Final})
		out.Final = &final
	}
	for _, p := range state.Result.Parts {
		out.Parts = append(out.Parts, jsonPart{
			Index:      p.Index,
			Segment:    p.Segment,
			Sequential: p.Sequential,
			Series:     toJSONSeries(SeriesPart{Part: p.Index, Series: p.Series}),
		})
	}
	return out
}

// writeSessionSummary writes the human-readable outcome of a session.
func writeSessionSummary(w io.Writer, state *schema.SessionState, cfg *contract.Config) error {
	phase := contract.GetPlainPhaseLabel(state.Phase)
	if cfg.UseColors {
		phase = contract.GetColorPhaseLabel(state.Phase)
	}
	if _, err := fmt.Fprintf(w, "Session %s (%s): %s\n", state.Key, state.ID, phase); err != nil {
		return err
	}
	if err := writeHistoryTable(w, state); err != nil {
		return err
	}

	switch {
	case state.Result != nil && state.Result.Final != nil:
		final := *state.Result.Final
		first, last := secondRange(final)
		_, err := fmt.Fprintf(w, "Final series: %d rows, seconds %d..%d, sequential: %s\n",
			final.Len(), first, last, contract.GetCheckLabel(state.Result.Sequential, cfg.UseColors))
		return err
	case state.Result != nil:
		table := tablewriter.NewWriter(w)
		table.Header([]string{"Part", "Start (s)", "End (s)", "Rows", "Sequential"})
		table.Configure(func(tc *tablewriter.Config) {
			tc.Row.Alignment.Global = tw.AlignRight
		})
		var data [][]string
		for _, p := range state.Result.Parts {
			data = append(data, []string{
				strconv.Itoa(p.Index),
				strconv.Itoa(p.Segment.StartT),
				strconv.Itoa(p.Segment.EndT),
				strconv.Itoa(p.Series.Len()),
				contract.GetCheckLabel(p.Sequential, cfg.UseColors),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		return table.Render()
	default:
		_, err := fmt.Fprintf(w, "Current series: %d rows\n", state.Current.Len())
		return err
	}
}

func writeHistoryTable(w io.Writer, state *schema.SessionState) error {
	if len(state.History) == 0 {
		return nil
	}
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Step", "Decision", "Rows Before", "Rows After"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for i, h := range state.History {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			FormatDecision(h.Decision),
			strconv.Itoa(h.RowsBefore),
			strconv.Itoa(h.RowsAfter),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// FormatDecision renders a decision the way an operator would type it.
func FormatDecision(d schema.Decision) string {
	switch d.Kind {
	case schema.DecideCut:
		return "cut " + strconv.Itoa(d.Segment)
	case schema.DecideAll:
		if len(d.Segments) == 0 {
			return "all"
		}
		picks := make([]string, len(d.Segments))
		for i, k := range d.Segments {
			picks[i] = strconv.Itoa(k)
		}
		return "all " + strings.Join(picks, ",")
	default:
		return string(d.Kind)
	}
}

// PrintSessionState writes the prompt view of a session: its header and, when a model
// has been fitted, the numbered segments the operator chooses from.
func PrintSessionState(w io.Writer, state *schema.SessionState, cfg *contract.Config) error {
	fmtFloat := createFormatter(cfg.Precision)
	phase := contract.GetPlainPhaseLabel(state.Phase)
	if cfg.UseColors {
		phase = contract.GetColorPhaseLabel(state.Phase)
	}
	first, last := secondRange(state.Current)
	if _, err := fmt.Fprintf(w, "Session %s [%s] side=%s rows=%d seconds=%d..%d\n",
		state.Key, phase, state.Side, state.Current.Len(), first, last); err != nil {
		return err
	}
	if state.Model == nil || state.Phase != schema.PhaseAwaitingChoice {
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Start (s)", "End (s)", "Rows", "Slope", "Intercept", "SSE"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})
	var data [][]string
	for i, seg := range state.Model.Segments {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(seg.StartT),
			strconv.Itoa(seg.EndT),
			strconv.Itoa(seg.Rows),
			strconv.FormatFloat(seg.Slope, 'f', cfg.Precision+2, 64),
			fmtFloat(seg.Intercept),
			fmtFloat(seg.SSE),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// PrintSessionList outputs stored session summaries in the configured format.
func PrintSessionList(summaries []schema.SessionSummary, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		if summaries == nil {
			summaries = []schema.SessionSummary{}
		}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, summaries)
		}, "Wrote JSON")
	case schema.CSVOut, schema.ParquetOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVSessionList(w, summaries)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSessionListTable(w, summaries, cfg)
		}, "Wrote table")
	}
}

func writeSessionListTable(w io.Writer, summaries []schema.SessionSummary, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Session", "Side", "Phase", "Rows", "Updated"})
	keyWidth := GetMaxTableKeyWidth(cfg, 90)
	var data [][]string
	for _, s := range summaries {
		phase := contract.GetPlainPhaseLabel(s.Phase)
		if cfg.UseColors {
			phase = contract.GetColorPhaseLabel(s.Phase)
		}
		data = append(data, []string{
			s.ID,
			contract.TruncateKey(s.Key, keyWidth),
			string(s.Side),
			phase,
			strconv.Itoa(s.Rows),
			s.UpdatedAt.Format(time.DateTime),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d stored sessions. Session backend: %s\n", len(summaries), cfg.SessionBackend)
	return err
}

func writeCSVSessionList(w io.Writer, summaries []schema.SessionSummary) error {
	header := []string{"id", "session", "side", "phase", "rows", "updated_at"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range summaries {
			rec := []string{
				s.ID,
				s.Key,
				string(s.Side),
				string(s.Phase),
				strconv.Itoa(s.Rows),
				s.UpdatedAt.Format(time.RFC3339),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// secondRange returns the first and last elapsed seconds of s, or zeros when empty.
func secondRange(s schema.Series) (int, int) {
	if s.Len() == 0 {
		return 0, 0
	}
	return s.Rows[0].ElapsedSecond, s.Rows[s.Len()-1].ElapsedSecond
}
