package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dynbike/dynbike/core"
	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/internal/ingest"
	"github.com/dynbike/dynbike/internal/log"
	"github.com/dynbike/dynbike/internal/outwriter"
	"github.com/dynbike/dynbike/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// segmentView is one numbered segment as offered to the operator.
type segmentView struct {
	Number    int     `json:"number"`
	StartT    int     `json:"start_t"`
	EndT      int     `json:"end_t"`
	Rows      int     `json:"rows"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	SSE       float64 `json:"sse"`
}

type partView struct {
	Index      int  `json:"index"`
	StartT     int  `json:"start_t"`
	EndT       int  `json:"end_t"`
	Rows       int  `json:"rows"`
	Sequential bool `json:"sequential"`
}

type resultView struct {
	Sequential bool       `json:"sequential"`
	FinalRows  int        `json:"final_rows,omitempty"`
	Parts      []partView `json:"parts,omitempty"`
}

// sessionView is the compact session state returned by the segmentation tools.
type sessionView struct {
	ID        string              `json:"session_id"`
	Key       string              `json:"session_key"`
	Side      schema.CutSide      `json:"side"`
	Phase     schema.SessionPhase `json:"phase"`
	Rows      int                 `json:"rows"`
	FirstSec  int                 `json:"first_sec"`
	LastSec   int                 `json:"last_sec"`
	Decisions []string            `json:"decisions"`
	Segments  []segmentView       `json:"segments,omitempty"`
	Result    *resultView         `json:"result,omitempty"`
	Errors    []string            `json:"errors,omitempty"`
	Persisted bool                `json:"persisted"`
}

func newSessionView(state *schema.SessionState, persisted bool, reported []string) sessionView {
	v := sessionView{
		ID:        state.ID,
		Key:       state.Key.String(),
		Side:      state.Side,
		Phase:     state.Phase,
		Rows:      state.Current.Len(),
		Decisions: []string{},
		Errors:    reported,
		Persisted: persisted,
	}
	if n := state.Current.Len(); n > 0 {
		v.FirstSec = state.Current.Rows[0].ElapsedSecond
		v.LastSec = state.Current.Rows[n-1].ElapsedSecond
	}
	for _, h := range state.History {
		v.Decisions = append(v.Decisions, outwriter.FormatDecision(h.Decision))
	}
	if state.Model != nil && state.Phase == schema.PhaseAwaitingChoice {
		for i, seg := range state.Model.Segments {
			v.Segments = append(v.Segments, segmentView{
				Number:    i + 1,
				StartT:    seg.StartT,
				EndT:      seg.EndT,
				Rows:      seg.Rows,
				Slope:     seg.Slope,
				Intercept: seg.Intercept,
				SSE:       seg.SSE,
			})
		}
	}
	if r := state.Result; r != nil {
		v.Result = &resultView{Sequential: r.Sequential}
		if r.Final != nil {
			v.Result.FinalRows = r.Final.Len()
		}
		for _, p := range r.Parts {
			v.Result.Parts = append(v.Result.Parts, partView{
				Index:      p.Index,
				StartT:     p.Segment.StartT,
				EndT:       p.Segment.EndT,
				Rows:       p.Series.Len(),
				Sequential: p.Sequential,
			})
		}
	}
	return v
}

func (h *toolHandler) sessionStore() contract.SessionStore {
	if h.mgr == nil {
		return nil
	}
	return h.mgr.GetSessionStore()
}

func (h *toolHandler) persisted() bool {
	return h.sessionStore() != nil && h.baseCfg.SessionBackend != schema.NoneBackend
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleStartSegmentation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.InputPath = request.GetString("input", "")
	cfg.SessionKey = request.GetString("session_key", cfg.SessionKey)
	cfg.ResumeID = ""
	if side := request.GetString("side", ""); side != "" {
		cfg.Side = schema.CutSide(side)
	}
	if cfg.InputPath == "" {
		return mcp.NewToolResultError("input is required"), nil
	}
	if _, ok := schema.ValidCutSides[cfg.Side]; !ok {
		return mcp.NewToolResultError(fmt.Sprintf("invalid side %q (expected left or right)", cfg.Side)), nil
	}

	store := h.sessionStore()
	sess, err := core.OpenSession(cfg, store)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start session: %v", err)), nil
	}

	ch := newToolChannel(nil)
	state, err := core.RunSession(ctx, sess, ch, store)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("segmentation failed: %v", err)), nil
	}
	log.Infow("started segmentation session", "session", state.ID, "key", state.Key.String(), "rows", state.Current.Len())
	return jsonResult(newSessionView(state, h.persisted(), ch.reported))
}

func (h *toolHandler) handleRespondSegmentation(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("session_id", "")
	response := request.GetString("response", "")
	seriesFile := request.GetString("series_file", "")
	if id == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	if !h.persisted() {
		return mcp.NewToolResultError("responding requires a session store; set --session-backend"), nil
	}

	cfg := h.baseCfg.Clone()
	cfg.ResumeID = id
	store := h.sessionStore()
	sess, err := core.OpenSession(cfg, store)
	if err != nil {
		if errors.Is(err, core.ErrSessionNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no session with id %s", id)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to resume session: %v", err)), nil
	}

	ch := newToolChannel(&response)
	state, err := core.RunSession(ctx, sess, ch, store)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("segmentation failed: %v", err)), nil
	}

	if seriesFile != "" && state.Phase.IsTerminal() {
		if err := outwriter.WriteSeriesFile(seriesFile, outwriter.SessionParts(state)); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to write series: %v", err)), nil
		}
	}
	return jsonResult(newSessionView(state, true, ch.reported))
}

func (h *toolHandler) handleGetSegmentation(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	store := h.sessionStore()
	if store == nil {
		return mcp.NewToolResultError("no session store configured"), nil
	}
	state, err := store.Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load session %s: %v", id, err)), nil
	}
	return jsonResult(newSessionView(state, true, nil))
}

func (h *toolHandler) handleListSessions(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store := h.sessionStore()
	if store == nil {
		return mcp.NewToolResultError("no session store configured"), nil
	}
	summaries, err := store.List()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sessions: %v", err)), nil
	}
	if summaries == nil {
		summaries = []schema.SessionSummary{}
	}
	return jsonResult(summaries)
}

func (h *toolHandler) handleTrimSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	cfg.InputPath = request.GetString("input", "")
	if cfg.InputPath == "" {
		return mcp.NewToolResultError("input is required"), nil
	}
	if v := request.GetInt("min_flat_start", 0); v > 0 {
		cfg.MinFlatStart = v
	}
	if v := request.GetInt("min_flat_length", 0); v > 0 {
		cfg.MinFlatLength = v
	}

	series, err := ingest.Load(cfg.InputPath, ingest.Options{SessionKey: cfg.SessionKey})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load input: %v", err)), nil
	}
	// No manager: tool calls do not record trim runs.
	results, err := core.RunTrim(ctx, cfg, nil, series)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("trim failed: %v", err)), nil
	}

	reports := make([]schema.TrimReport, len(results))
	for i, r := range results {
		reports[i] = r.Report
	}
	return jsonResult(reports)
}
