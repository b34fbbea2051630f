package mcp

import (
	"context"
	"errors"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/schema"
)

// toolChannel answers one prompt per tool call. The queued response is handed out once,
// after which Await returns an empty response so the session suspends until the next call.
type toolChannel struct {
	pending   *string
	presented *schema.SessionState
	reported  []string
}

var _ contract.OperatorChannel = (*toolChannel)(nil)

func newToolChannel(response *string) *toolChannel {
	return &toolChannel{pending: response}
}

func (c *toolChannel) Present(_ context.Context, state *schema.SessionState) error {
	c.presented = state
	return nil
}

func (c *toolChannel) Await(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.pending == nil {
		return "", nil
	}
	resp := *c.pending
	c.pending = nil
	return resp, nil
}

func (c *toolChannel) Report(_ context.Context, err error) error {
	if err == nil {
		return errors.New("nil error reported")
	}
	c.reported = append(c.reported, err.Error())
	return nil
}
