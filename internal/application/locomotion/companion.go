package locomotion

import (
	"fmt"

	"github.com/younwookim/agentloco/internal/application/motion"
	"github.com/younwookim/agentloco/internal/application/sensor"
	"github.com/younwookim/agentloco/internal/application/state"
	"github.com/younwookim/agentloco/internal/domain/entity"
)

// NewCompanion builds the machine of a carried/thrown companion.
// It starts Carried. owner must be non-nil.
func NewCompanion(agent *entity.Agent, owner entity.Target, cfg entity.CompanionConfig, svc Services) (*Machine, error) {
	m, err := newMachine(agent, owner, svc)
	if err != nil {
		return nil, err
	}
	if svc.Physics == nil || svc.Pathing == nil || svc.Scheduler == nil {
		return nil, fmt.Errorf("companion %d: %w: physics, pathing and scheduler are required", agent.ID, ErrMissingService)
	}

	cfg = cfg.WithDefaults()
	agent.Kind = entity.KindCompanion
	agent.Radius = cfg.Radius
	m.companion = cfg
	m.ballistic = &motion.BallisticHandoff{
		Force:       cfg.ThrowForce,
		UpForce:     cfg.ThrowUpForce,
		Damage:      cfg.ImpactDamage,
		Physics:     svc.Physics,
		Damageables: svc.Damageables,
	}
	m.authorities = map[state.State]motion.Authority{
		state.StateCarried: &motion.KinematicFollow{
			Offset: cfg.CarryOffset,
			Speed:  cfg.FollowSpeed,
		},
		state.StatePrepared: &motion.OscillatingFollow{
			Offset:      cfg.CarryOffset,
			Amplitude:   cfg.DribbleHeight,
			Speed:       cfg.DribbleSpeed,
			Drop:        cfg.DribbleDrop,
			FollowSpeed: cfg.FollowSpeed,
		},
		state.StateReleased: m.ballistic,
		state.StateReturning: &motion.PathFollow{
			Pathing:         svc.Pathing,
			Speed:           cfg.ReturnSpeed,
			SnapRadius:      cfg.SnapRadius,
			OuterSnapRadius: cfg.OuterSnapRadius,
			Teleport:        !cfg.DisableTeleport,
		},
		state.StateDetached: &motion.Hold{},
	}
	m.state = state.StateCarried
	m.active = m.authorities[m.state]
	return m, nil
}

// Held reports the last hold input level
func (m *Machine) Held() bool {
	return m.hold
}

func (m *Machine) stepCompanion(c *motion.Context, intents []Intent) {
	release, recall := false, false
	var contacts []CollisionIntent
	for _, in := range intents {
		switch v := in.(type) {
		case HoldIntent:
			m.hold = v.Held
		case ReleaseIntent:
			release = true
		case RecallIntent:
			recall = true
		case CollisionIntent:
			contacts = append(contacts, v)
		}
	}

	if present, lost := m.targetPresent(); !present {
		if lost && m.state.OwnerRelative() {
			m.log.Warn(MsgOwnerLost, "agent", m.agent.ID, "state", m.state)
			m.transition(c, state.StateDetached, CauseOwnerLost)
		}
		return
	}

	// Manual input pre-empts everything else this tick
	if next, ok := m.manualCompanion(c.Now, release, recall); ok {
		if m.transition(c, next, CauseManual) {
			if next == state.StateReleased {
				m.lastRelease = c.Now
			}
			return
		}
	}

	if m.contacts(c, contacts) {
		return
	}

	if next, ok := m.svc.Scheduler.Fire(m.agent.ID, c.Now); ok {
		if m.transition(c, next, CauseDeferred) {
			return
		}
		m.log.Debug(MsgDeferredDropped, "agent", m.agent.ID, "state", m.state, "target", next)
	}

	if m.state == state.StateReturning {
		dist := sensor.Distance(m.agent.Position(), c.Target.Position)
		if sensor.Inside(dist, m.companion.ReturnThreshold) {
			m.transition(c, state.StateCarried, CauseSensor)
		}
	}
}

func (m *Machine) manualCompanion(now float64, release, recall bool) (state.State, bool) {
	switch m.state {
	case state.StateCarried:
		if m.hold {
			return state.StatePrepared, true
		}
	case state.StatePrepared:
		if !m.hold {
			return state.StateCarried, true
		}
		if release && now-m.lastRelease >= m.companion.ReleaseCooldown {
			return state.StateReleased, true
		}
	case state.StateReleased, state.StateReturning:
		if recall {
			return state.StateCarried, true
		}
	}
	return m.state, false
}

// contacts applies collision reports. Only a released companion reacts:
// every contact deals impact damage once, the owner's pickup volume catches
// it, and any other contact arms the deferred return if none is pending.
func (m *Machine) contacts(c *motion.Context, contacts []CollisionIntent) bool {
	if m.state != state.StateReleased {
		return false
	}
	for _, col := range contacts {
		if col.IsPickupOf(m.target.ID()) {
			return m.transition(c, state.StateCarried, CauseEvent)
		}
		m.ballistic.OnCollision(col.Other)
		if _, armed := m.svc.Scheduler.Pending(m.agent.ID); !armed {
			p, err := m.svc.Scheduler.Arm(m.agent.ID, m.state, state.StateReturning, c.Now, m.companion.ReturnDelay)
			if err != nil {
				m.log.Warn("return not scheduled", "agent", m.agent.ID, "err", err)
				continue
			}
			m.log.Debug("return scheduled", "agent", m.agent.ID, "fireAt", p.FireAt, "other", col.Other)
		}
	}
	return false
}
