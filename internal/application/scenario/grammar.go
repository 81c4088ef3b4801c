// Package scenario parses and runs timed scripts against a simulation.
//
// A scenario names itself, optionally sets the step and duration and spawns
// extra agents, then lists timed steps:
//
//	scenario "fetch"
//	step 0.05
//	duration 6
//
//	at 0    hold on
//	at 0.1  release
//	at 0.15 hold off
//	at 0.2  expect rex released
//	at 5    expect rex carried
package scenario

import (
	"errors"
	"fmt"
	"slices"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/younwookim/agentloco/internal/application/state"
)

// ErrInvalid wraps semantic problems found after parsing
var ErrInvalid = errors.New("invalid scenario")

// Script is the top-level AST node
type Script struct {
	Name     string     `"scenario" @String`
	Settings []*Setting `@@*`
	Steps    []*Step    `@@*`
}

// Setting configures the run before the first step
type Setting struct {
	Pos lexer.Position

	Step     *float64 `  "step" @Number`
	Duration *float64 `| "duration" @Number`
	Spawn    *Spawn   `| @@`
}

// Spawn: spawn name as archetype at (x, y, z) [chasing target]
type Spawn struct {
	Name      string `"spawn" @Ident`
	Archetype string `"as" @Ident`
	Position  *Vec   `"at" @@`
	Target    string `( "chasing" @Ident )?`
}

// Vec: (x, y, z)
type Vec struct {
	X float64 `"(" @Number ","`
	Y float64 `@Number ","`
	Z float64 `@Number ")"`
}

// Vec3 returns v as a mgl64 vector
func (v Vec) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// Step is one timed action
type Step struct {
	Pos lexer.Position

	At     float64 `"at" @Number`
	Action *Action `@@`
}

// Action is what happens at a step
type Action struct {
	Hold    *string  `  "hold" @("on" | "off")`
	Release bool     `| @"release"`
	Recall  bool     `| @"recall"`
	Move    *string  `| "move" @("forward" | "back" | "left" | "right" | "stop")`
	Turn    *string  `| "turn" @("left" | "right" | "stop")`
	Collide *Collide `| @@`
	Kill    *string  `| "kill" @Ident`
	Place   *Place   `| @@`
	Remove  *string  `| "remove" @Ident`
	Expect  *Expect  `| @@`
}

// Collide: collide agent with entity
type Collide struct {
	Agent string `"collide" @Ident`
	Other string `"with" @Ident`
}

// Place: place entity at (x, y, z)
type Place struct {
	Name     string `"place" @Ident`
	Position *Vec   `"at" @@`
}

// Expect: expect subject (health n | alive | dead | state)
type Expect struct {
	Subject string   `"expect" @Ident`
	Health  *float64 `( "health" @Number`
	Life    *string  `| @("alive" | "dead")`
	State   *string  `| @Ident )`
}

// String returns the expectation as written
func (e *Expect) String() string {
	switch {
	case e.Health != nil:
		return fmt.Sprintf("%s health %v", e.Subject, *e.Health)
	case e.Life != nil:
		return e.Subject + " " + *e.Life
	case e.State != nil:
		return e.Subject + " " + *e.State
	default:
		return e.Subject
	}
}

var scenarioLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[\s]+`},
	{Name: "Comment", Pattern: `#[^\n]*`},

	{Name: "Number", Pattern: `-?[0-9]+(\.[0-9]+)?`},
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Punct", Pattern: `[(),]`},

	// Entity names may contain dots, as in owner.pickup
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.-]*`},
})

// Parser is the scenario parser
var Parser = participle.MustBuild[Script](
	participle.Lexer(scenarioLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Parse parses and checks a scenario. Steps are returned sorted by time,
// keeping file order for equal times.
func Parse(filename, source string) (*Script, error) {
	sc, err := Parser.ParseString(filename, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	if err := sc.check(); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	slices.SortStableFunc(sc.Steps, func(a, b *Step) int {
		switch {
		case a.At < b.At:
			return -1
		case a.At > b.At:
			return 1
		}
		return 0
	})
	return sc, nil
}

func (sc *Script) check() error {
	var errs []error
	for _, s := range sc.Settings {
		switch {
		case s.Step != nil && *s.Step <= 0:
			errs = append(errs, fmt.Errorf("%w: %s: step must be > 0", ErrInvalid, s.Pos))
		case s.Duration != nil && *s.Duration < 0:
			errs = append(errs, fmt.Errorf("%w: %s: duration must be >= 0", ErrInvalid, s.Pos))
		}
	}
	for _, s := range sc.Steps {
		if s.At < 0 {
			errs = append(errs, fmt.Errorf("%w: %s: negative time %v", ErrInvalid, s.Pos, s.At))
		}
		if e := s.Action.Expect; e != nil && e.State != nil {
			if _, err := state.Parse(*e.State); err != nil {
				errs = append(errs, fmt.Errorf("%w: %s: %w", ErrInvalid, s.Pos, err))
			}
		}
	}
	return errors.Join(errs...)
}

// StepSize returns the configured step, or def when unset
func (sc *Script) StepSize(def float64) float64 {
	v := def
	for _, s := range sc.Settings {
		if s.Step != nil {
			v = *s.Step
		}
	}
	return v
}

// Duration returns the configured duration, or the time of the last step
// when unset
func (sc *Script) Duration() float64 {
	for i := len(sc.Settings) - 1; i >= 0; i-- {
		if d := sc.Settings[i].Duration; d != nil {
			return *d
		}
	}
	if len(sc.Steps) == 0 {
		return 0
	}
	return sc.Steps[len(sc.Steps)-1].At
}

// Spawns returns the spawn settings in file order
func (sc *Script) Spawns() []*Spawn {
	var out []*Spawn
	for _, s := range sc.Settings {
		if s.Spawn != nil {
			out = append(out, s.Spawn)
		}
	}
	return out
}
