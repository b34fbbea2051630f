// Package prompt implements the terminal operator channel for segmentation sessions.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/internal/outwriter"
	"github.com/dynbike/dynbike/schema"
	"golang.org/x/term"
)

// Instructions is shown under the segment table while a choice is pending.
const Instructions = "Enter a segment number to cut, 'all' (or 'all 1,3') to split, 'stop' to finalize, or an empty line to suspend."

type line struct {
	text string
	err  error
}

// Terminal reads operator responses line by line and writes prompts to out.
type Terminal struct {
	in          io.Reader
	out         io.Writer
	cfg         *contract.Config
	interactive bool

	once  sync.Once
	lines chan line
}

var _ contract.OperatorChannel = (*Terminal)(nil)

// NewTerminal creates a terminal channel. The "> " marker is only printed when in is a TTY.
func NewTerminal(in io.Reader, out io.Writer, cfg *contract.Config) *Terminal {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	return &Terminal{in: in, out: out, cfg: cfg, interactive: interactive}
}

// NewStdioTerminal reads from stdin and prompts on stderr so stdout stays free for results.
func NewStdioTerminal(cfg *contract.Config) *Terminal {
	return NewTerminal(os.Stdin, os.Stderr, cfg)
}

// Present prints the session header and the numbered segments when a choice is pending.
func (t *Terminal) Present(_ context.Context, state *schema.SessionState) error {
	if err := outwriter.PrintSessionState(t.out, state, t.cfg); err != nil {
		return err
	}
	if state.Phase != schema.PhaseAwaitingChoice {
		return nil
	}
	_, err := fmt.Fprintln(t.out, Instructions)
	return err
}

// Await returns the next trimmed input line. End of input counts as an empty response.
func (t *Terminal) Await(ctx context.Context) (string, error) {
	t.once.Do(t.startReader)
	if t.interactive {
		if _, err := fmt.Fprint(t.out, "> "); err != nil {
			return "", err
		}
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case l, ok := <-t.lines:
		if !ok {
			return "", nil
		}
		if l.err != nil {
			return "", l.err
		}
		return strings.TrimSpace(l.text), nil
	}
}

// Report prints a recoverable error before the prompt repeats.
func (t *Terminal) Report(_ context.Context, err error) error {
	msg := fmt.Sprintf("⚠️  %v", err)
	if t.cfg != nil && t.cfg.UseColors {
		msg = contract.WarnColor.Sprint(msg)
	}
	_, werr := fmt.Fprintln(t.out, msg)
	return werr
}

// startReader feeds lines from in until it is exhausted. The goroutine outlives a cancelled
// Await so a later Await picks up where the reader left off.
func (t *Terminal) startReader() {
	t.lines = make(chan line)
	go func() {
		defer close(t.lines)
		reader := bufio.NewReader(t.in)
		for {
			text, err := reader.ReadString('\n')
			if text != "" {
				t.lines <- line{text: text}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				t.lines <- line{err: err}
				return
			}
		}
	}()
}
