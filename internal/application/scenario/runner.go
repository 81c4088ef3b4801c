package scenario

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/younwookim/agentloco/internal/application/locomotion"
	"github.com/younwookim/agentloco/internal/application/sim"
	"github.com/younwookim/agentloco/internal/application/state"
	"github.com/younwookim/agentloco/internal/application/system"
	"github.com/younwookim/agentloco/internal/infrastructure/config"
	"github.com/younwookim/agentloco/internal/infrastructure/logging"
)

// DefaultStep is the fixed step used when a scenario does not set one
const DefaultStep = 1.0 / 60

// Steps due within this much of the clock run on that tick
const timeSlop = 1e-6

// Failure is an expectation that did not hold
type Failure struct {
	At     float64 `json:"at"`
	Line   int     `json:"line"`
	Expect string  `json:"expect"`
	Got    string  `json:"got"`
}

// Report summarizes a run
type Report struct {
	RunID    string    `json:"runId"`
	Scenario string    `json:"scenario"`
	Duration float64   `json:"duration"`
	Ticks    uint64    `json:"ticks"`
	Changes  int       `json:"changes"`
	Checks   int       `json:"checks"`
	Failures []Failure `json:"failures,omitempty"`
}

// Passed reports whether every expectation held
func (r *Report) Passed() bool {
	return len(r.Failures) == 0
}

// Runner executes scripts against a simulation
type Runner struct {
	sim *sim.Simulation
	log logging.Logger

	move    system.MoveIntent
	turn    system.TurnIntent
	changes int
}

// NewRunner creates a runner driving s. The runner registers a state
// listener on s, so use one runner per simulation.
func NewRunner(s *sim.Simulation, logger logging.Logger) *Runner {
	r := &Runner{sim: s, log: logging.OrNoOp(logger)}
	s.OnStateChanged(func(locomotion.Change) { r.changes++ })
	return r
}

// Run spawns the script's agents, then steps the simulation until the
// script's duration, applying each step when its time comes. Expectations
// that fail are reported, not returned; the error covers actions that could
// not be applied and cancellation.
func (r *Runner) Run(ctx context.Context, sc *Script) (*Report, error) {
	rep := &Report{RunID: uuid.NewString(), Scenario: sc.Name}

	for _, sp := range sc.Spawns() {
		spawn := config.AgentSpawnConfig{
			Name:      sp.Name,
			Archetype: sp.Archetype,
			Position:  config.Vec3Config{X: sp.Position.X, Y: sp.Position.Y, Z: sp.Position.Z},
			Target:    sp.Target,
		}
		if _, err := r.sim.Spawn(spawn); err != nil {
			return rep, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
	}

	dt := sc.StepSize(DefaultStep)
	start := r.sim.Now()
	end := start + sc.Duration()
	startTicks := r.sim.Tick()
	r.log.Info("scenario started", "scenario", sc.Name, "run", rep.RunID, "step", dt, "duration", sc.Duration())

	next := 0
	for {
		for next < len(sc.Steps) && start+sc.Steps[next].At <= r.sim.Now()+timeSlop {
			if err := r.apply(sc.Steps[next], rep); err != nil {
				return rep, fmt.Errorf("scenario %q: %s: %w", sc.Name, sc.Steps[next].Pos, err)
			}
			next++
		}
		if r.sim.Now() >= end-timeSlop {
			break
		}
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		if r.move != (system.MoveIntent{}) {
			r.sim.Input(r.move)
		}
		if r.turn.Amount != 0 {
			r.sim.Input(r.turn)
		}
		r.sim.Step(dt)
	}

	rep.Duration = r.sim.Now() - start
	rep.Ticks = r.sim.Tick() - startTicks
	rep.Changes = r.changes
	r.log.Info("scenario finished", "scenario", sc.Name, "run", rep.RunID, "checks", rep.Checks, "failures", len(rep.Failures))
	return rep, nil
}

func (r *Runner) apply(st *Step, rep *Report) error {
	a := st.Action
	switch {
	case a.Hold != nil:
		r.sim.Input(system.HoldIntent{Held: *a.Hold == "on"})
	case a.Release:
		r.sim.Input(system.ReleaseIntent{})
	case a.Recall:
		r.sim.Input(system.RecallIntent{})
	case a.Move != nil:
		r.move = moveIntent(*a.Move)
	case a.Turn != nil:
		r.turn = turnIntent(*a.Turn)
	case a.Collide != nil:
		return r.sim.Collide(a.Collide.Agent, a.Collide.Other)
	case a.Kill != nil:
		return r.sim.Kill(*a.Kill)
	case a.Place != nil:
		return r.sim.Place(a.Place.Name, a.Place.Position.Vec3())
	case a.Remove != nil:
		return r.sim.Remove(*a.Remove)
	case a.Expect != nil:
		rep.Checks++
		if got, ok := r.check(a.Expect); !ok {
			f := Failure{At: r.sim.Now(), Line: st.Pos.Line, Expect: a.Expect.String(), Got: got}
			rep.Failures = append(rep.Failures, f)
			r.log.Warn("expectation failed", "line", f.Line, "at", f.At, "expect", f.Expect, "got", got)
		}
	}
	return nil
}

// check evaluates e and returns what was observed
func (r *Runner) check(e *Expect) (string, bool) {
	w := r.sim.World()
	switch {
	case e.State != nil:
		a, ok := r.sim.Agent(e.Subject)
		if !ok {
			return "no such agent", false
		}
		want, _ := state.Parse(*e.State)
		got := a.Machine.State()
		return got.String(), got == want
	case e.Life != nil:
		id, ok := w.Find(e.Subject)
		alive := ok && w.Alive(id)
		got := "dead"
		if alive {
			got = "alive"
		}
		return got, got == *e.Life
	case e.Health != nil:
		id, ok := w.Find(e.Subject)
		if !ok {
			return "no such entity", false
		}
		h, ok := w.Health[id]
		if !ok {
			return "no health", false
		}
		return fmt.Sprint(h.Current), float64(h.Current) == math.Round(*e.Health)
	}
	return "", true
}

func moveIntent(dir string) system.MoveIntent {
	switch dir {
	case "forward":
		return system.MoveIntent{Forward: 1}
	case "back":
		return system.MoveIntent{Forward: -1}
	case "left":
		return system.MoveIntent{Strafe: -1}
	case "right":
		return system.MoveIntent{Strafe: 1}
	}
	return system.MoveIntent{}
}

func turnIntent(dir string) system.TurnIntent {
	switch dir {
	case "left":
		return system.TurnIntent{Amount: -1}
	case "right":
		return system.TurnIntent{Amount: 1}
	}
	return system.TurnIntent{}
}
