package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/internal/iocache"
	mcp_internal "github.com/dynbike/dynbike/internal/mcp"
	"github.com/dynbike/dynbike/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolSession struct {
	ID       string `json:"session_id"`
	Key      string `json:"session_key"`
	Phase    string `json:"phase"`
	Rows     int    `json:"rows"`
	Segments []struct {
		Number int `json:"number"`
		StartT int `json:"start_t"`
		EndT   int `json:"end_t"`
	} `json:"segments"`
	Decisions []string `json:"decisions"`
	Errors    []string `json:"errors"`
	Result    *struct {
		FinalRows int `json:"final_rows"`
		Parts     []struct {
			Index int `json:"index"`
		} `json:"parts"`
	} `json:"result"`
}

func baseConfig() *contract.Config {
	return &contract.Config{
		Workers:        2,
		Precision:      1,
		Output:         schema.JSONOut,
		Column:         schema.CadenceColumn,
		RollWindow:     schema.DefaultRollWindow,
		MinFlatStart:   schema.DefaultMinFlatStart,
		MinFlatLength:  schema.DefaultMinFlatLength,
		CadenceMin:     schema.DefaultCadenceMin,
		CadenceMax:     schema.DefaultCadenceMax,
		Side:           schema.LeftSide,
		StopFraction:   schema.DefaultStopFraction,
		SessionBackend: schema.SQLiteBackend,
		RunBackend:     schema.NoneBackend,
	}
}

// writeCleanCSV writes two sessions with a cadence step halfway through.
func writeCleanCSV(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("id_sess,elapsed_sec,cadence,power,hr\n")
	for _, key := range []string{"SMB1_day1", "SMB2_day1"} {
		for i := range 300 {
			cadence := 45.0
			if i >= 150 {
				cadence = 85.0
			}
			_, _ = fmt.Fprintf(&b, "%s,%d,%.0f,%d,120\n", key, i, cadence, 100+i%3)
		}
	}
	path := filepath.Join(t.TempDir(), "sessions.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func newServer(t *testing.T) *server.MCPServer {
	t.Helper()
	store, err := iocache.NewSessionStore("dynbike_sessions", schema.SQLiteBackend, filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	mgr := &iocache.MockStoreManager{}
	mgr.On("GetSessionStore").Return(store)
	return mcp_internal.NewMCPServer(baseConfig(), mgr)
}

func call(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)
	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	return res
}

func text(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func decodeSession(t *testing.T, res *mcp.CallToolResult) toolSession {
	t.Helper()
	require.False(t, res.IsError, text(res))
	var out toolSession
	require.NoError(t, json.Unmarshal([]byte(text(res)), &out))
	return out
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	s := newServer(t)

	t.Run("start_segmentation missing input", func(t *testing.T) {
		res := call(t, s, "start_segmentation", map[string]any{})
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, text(res), "input is required")
	})

	t.Run("start_segmentation invalid side", func(t *testing.T) {
		res := call(t, s, "start_segmentation", map[string]any{"input": "x.csv", "side": "middle"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "invalid side")
	})

	t.Run("start_segmentation ambiguous session", func(t *testing.T) {
		res := call(t, s, "start_segmentation", map[string]any{"input": writeCleanCSV(t)})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "failed to start session")
	})

	t.Run("respond_segmentation unknown id", func(t *testing.T) {
		res := call(t, s, "respond_segmentation", map[string]any{"session_id": "nope", "response": "stop"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "no session with id nope")
	})

	t.Run("trim_sessions missing input", func(t *testing.T) {
		res := call(t, s, "trim_sessions", map[string]any{})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "input is required")
	})
}

func TestMCPServer_SegmentationFlow(t *testing.T) {
	s := newServer(t)
	input := writeCleanCSV(t)

	started := decodeSession(t, call(t, s, "start_segmentation", map[string]any{
		"input":       input,
		"session_key": "SMB2_day1",
	}))
	require.NotEmpty(t, started.ID)
	assert.Equal(t, "SMB2_day1", started.Key)
	assert.Equal(t, string(schema.PhaseAwaitingChoice), started.Phase)
	assert.Equal(t, 300, started.Rows)
	require.NotEmpty(t, started.Segments)
	assert.Equal(t, 1, started.Segments[0].Number)
	assert.Equal(t, 0, started.Segments[0].StartT)

	// A bad response is reported and leaves the session waiting.
	bad := decodeSession(t, call(t, s, "respond_segmentation", map[string]any{
		"session_id": started.ID,
		"response":   "sideways",
	}))
	assert.Equal(t, string(schema.PhaseAwaitingChoice), bad.Phase)
	require.Len(t, bad.Errors, 1)
	assert.Contains(t, bad.Errors[0], "sideways")
	assert.Empty(t, bad.Decisions)

	got := decodeSession(t, call(t, s, "get_segmentation", map[string]any{"session_id": started.ID}))
	assert.Equal(t, started.ID, got.ID)
	assert.Len(t, got.Segments, len(started.Segments))

	seriesFile := filepath.Join(t.TempDir(), "final.csv")
	done := decodeSession(t, call(t, s, "respond_segmentation", map[string]any{
		"session_id":  started.ID,
		"response":    "stop",
		"series_file": seriesFile,
	}))
	assert.Equal(t, string(schema.PhaseFinalized), done.Phase)
	assert.Equal(t, []string{"stop"}, done.Decisions)
	require.NotNil(t, done.Result)
	assert.Equal(t, 300, done.Result.FinalRows)
	assert.FileExists(t, seriesFile)

	closed := call(t, s, "respond_segmentation", map[string]any{"session_id": started.ID, "response": "1"})
	assert.True(t, closed.IsError)
	assert.Contains(t, text(closed), "session is closed")

	listed := call(t, s, "list_sessions", map[string]any{})
	require.False(t, listed.IsError)
	var summaries []schema.SessionSummary
	require.NoError(t, json.Unmarshal([]byte(text(listed)), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, schema.PhaseFinalized, summaries[0].Phase)
}

func TestMCPServer_SplitAll(t *testing.T) {
	s := newServer(t)
	started := decodeSession(t, call(t, s, "start_segmentation", map[string]any{
		"input":       writeCleanCSV(t),
		"session_key": "SMB1_day1",
	}))

	split := decodeSession(t, call(t, s, "respond_segmentation", map[string]any{
		"session_id": started.ID,
		"response":   "all",
	}))
	assert.Equal(t, string(schema.PhaseSplit), split.Phase)
	require.NotNil(t, split.Result)
	assert.Len(t, split.Result.Parts, len(started.Segments))
	assert.Empty(t, split.Segments)
}

func TestMCPServer_TrimSessions(t *testing.T) {
	s := newServer(t)
	res := call(t, s, "trim_sessions", map[string]any{"input": writeCleanCSV(t)})
	require.False(t, res.IsError, text(res))

	var reports []schema.TrimReport
	require.NoError(t, json.Unmarshal([]byte(text(res)), &reports))
	require.Len(t, reports, 2)
	assert.Equal(t, "SMB1_day1", reports[0].Key)
	assert.Equal(t, 300, reports[0].InputRows)
	assert.False(t, reports[0].Trimmed)
	assert.True(t, reports[0].Sequential)
}
