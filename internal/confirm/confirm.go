// Package confirm asks the operator to approve destructive actions.
package confirm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/churchadmin/churchadmin/internal/backend"
)

// ErrNotConfirmed is returned when the operator declined an action.
var ErrNotConfirmed = backend.Invalid("action was not confirmed")

// Confirmer asks a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// Func adapts a function to Confirmer.
type Func func(ctx context.Context, prompt string) bool

// Confirm implements Confirmer.
func (f Func) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Always approves every prompt.
var Always Confirmer = Func(func(context.Context, string) bool { return true })

// Never declines every prompt.
var Never Confirmer = Func(func(context.Context, string) bool { return false })

// Require returns ErrNotConfirmed unless c approves prompt. A nil Confirmer declines.
func Require(ctx context.Context, c Confirmer, prompt string) error {
	if c == nil || !c.Confirm(ctx, prompt) {
		return ErrNotConfirmed
	}

	return nil
}

// Prompt asks on a terminal style reader/writer pair and accepts "y" or "yes".
type Prompt struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewPrompt creates a Prompt.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

// Confirm implements Confirmer.
func (p *Prompt) Confirm(ctx context.Context, prompt string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ctx.Err() != nil {
		return false
	}

	_, _ = fmt.Fprintf(p.out, "%s [y/N]: ", prompt)

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}

	return false
}
