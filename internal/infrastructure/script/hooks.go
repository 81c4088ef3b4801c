// Package script runs designer-authored tengo hooks on agent state changes.
//
// A hook script sees the globals agent, kind, from, to, cause (strings) and
// at (float, seconds). It may set cue and message; both default to "".
package script

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// DefaultTimeout bounds a single hook run
const DefaultTimeout = 50 * time.Millisecond

// ErrEmptyScript is returned when a hook source is empty
var ErrEmptyScript = errors.New("empty hook script")

var inputs = []string{"agent", "kind", "from", "to", "cause", "at"}

// Event is the input of one hook run
type Event struct {
	Agent string
	Kind  string
	From  string
	To    string
	Cause string
	At    float64
}

// Result is what a hook asked for
type Result struct {
	Cue     string
	Message string
}

// Hooks is a compiled hook script. Runs are serialized.
type Hooks struct {
	mu       sync.Mutex
	compiled *tengo.Compiled
	timeout  time.Duration
}

// Compile builds hooks from source. Only the text, math and fmt standard
// modules can be imported.
func Compile(src []byte) (*Hooks, error) {
	if len(src) == 0 {
		return nil, ErrEmptyScript
	}
	s := tengo.NewScript(src)
	for _, name := range inputs {
		var zero any = ""
		if name == "at" {
			zero = 0.0
		}
		if err := s.Add(name, zero); err != nil {
			return nil, fmt.Errorf("declare %s: %w", name, err)
		}
	}
	s.SetImports(stdlib.GetModuleMap("text", "math", "fmt"))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile hooks: %w", err)
	}
	return &Hooks{compiled: compiled, timeout: DefaultTimeout}, nil
}

// SetTimeout changes the per-run time limit; zero or less disables it
func (h *Hooks) SetTimeout(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.timeout = d
}

// Run executes the script for ev
func (h *Hooks) Run(ctx context.Context, ev Event) (Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	values := map[string]any{
		"agent": ev.Agent,
		"kind":  ev.Kind,
		"from":  ev.From,
		"to":    ev.To,
		"cause": ev.Cause,
		"at":    ev.At,
	}
	for _, name := range inputs {
		if err := h.compiled.Set(name, values[name]); err != nil {
			return Result{}, fmt.Errorf("set %s: %w", name, err)
		}
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	if err := h.compiled.RunContext(ctx); err != nil {
		return Result{}, fmt.Errorf("run hooks for %s: %w", ev.Agent, err)
	}

	return Result{
		Cue:     h.output("cue"),
		Message: h.output("message"),
	}, nil
}

func (h *Hooks) output(name string) string {
	if !h.compiled.IsDefined(name) {
		return ""
	}
	return h.compiled.Get(name).String()
}
