package sim

import (
	"context"

	"github.com/younwookim/agentloco/internal/application/locomotion"
	"github.com/younwookim/agentloco/internal/application/state"
	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/infrastructure/audio"
	"github.com/younwookim/agentloco/internal/infrastructure/script"
)

// DefaultCueAction is the loop cue rule used without hooks: a companion
// loops while Prepared, a pursuer while Chasing or Attacking. The spawn
// notification leaves the cue alone.
func DefaultCueAction(c locomotion.Change) audio.Action {
	if c.Cause == locomotion.CauseSpawn {
		return audio.ActionNone
	}
	switch c.Kind {
	case entity.KindCompanion:
		if c.To == state.StatePrepared {
			return audio.ActionStart
		}
	case entity.KindPursuer:
		if c.To == state.StateChasing || c.To == state.StateAttacking {
			return audio.ActionStart
		}
	}
	return audio.ActionStop
}

// playCue runs the state hooks, or the default rule, and applies the
// resulting action to a's loop cue
func (s *Simulation) playCue(a *Agent, c locomotion.Change) {
	action := DefaultCueAction(c)
	if s.hooks != nil {
		action = s.runHooks(a, c, action)
	}
	if s.cues == nil || action == audio.ActionNone {
		return
	}
	if err := s.cues.Apply(a.Name, a.LoopCue, action); err != nil {
		s.log.Warn("loop cue failed", "agent", a.Name, "cue", a.LoopCue, "err", err)
	}
}

// runHooks returns the action the hook script asked for. A failing script
// or an unknown action keeps fallback.
func (s *Simulation) runHooks(a *Agent, c locomotion.Change, fallback audio.Action) audio.Action {
	res, err := s.hooks.Run(context.Background(), script.Event{
		Agent: a.Name,
		Kind:  c.Kind.String(),
		From:  c.From.String(),
		To:    c.To.String(),
		Cause: c.Cause.String(),
		At:    c.At,
	})
	if err != nil {
		s.log.Warn("state hook failed", "agent", a.Name, "err", err)
		return fallback
	}
	if res.Message != "" {
		s.log.Info(res.Message, "agent", a.Name, "to", c.To)
	}
	action, ok := audio.ParseAction(res.Cue)
	if !ok {
		s.log.Warn("state hook returned unknown cue action", "agent", a.Name, "cue", res.Cue)
		return fallback
	}
	return action
}
