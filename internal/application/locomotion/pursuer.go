package locomotion

import (
	"fmt"

	"github.com/younwookim/agentloco/internal/application/motion"
	"github.com/younwookim/agentloco/internal/application/sensor"
	"github.com/younwookim/agentloco/internal/application/state"
	"github.com/younwookim/agentloco/internal/domain/entity"
)

// NewPursuer builds the machine of a sight/attack pursuer. It starts Idle.
// Ground pursuers need a Pathing service; flying ones hover directly.
func NewPursuer(agent *entity.Agent, target entity.Target, cfg entity.PursuerConfig, svc Services) (*Machine, error) {
	m, err := newMachine(agent, target, svc)
	if err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()
	if svc.Sensor == nil {
		return nil, fmt.Errorf("pursuer %d: %w: sensor is required", agent.ID, ErrMissingService)
	}
	if cfg.Movement == entity.MovementGround && svc.Pathing == nil {
		return nil, fmt.Errorf("pursuer %d: %w: ground movement needs pathing", agent.ID, ErrMissingService)
	}

	agent.Kind = entity.KindPursuer
	agent.Radius = cfg.Radius
	m.pursuer = cfg

	idle := &motion.Hold{}
	switch cfg.Movement {
	case entity.MovementFlying:
		hover := &motion.HoverFollow{
			Speed:          cfg.MoveSpeed,
			RotationSpeed:  cfg.RotationSpeed,
			Height:         cfg.FlyingHeight,
			FollowDistance: cfg.FollowDistance,
		}
		m.authorities = map[state.State]motion.Authority{
			state.StateIdle:      idle,
			state.StateChasing:   hover,
			state.StateAttacking: hover,
		}
	default:
		m.authorities = map[state.State]motion.Authority{
			state.StateIdle: idle,
			state.StateChasing: &motion.PathFollow{
				Pathing:    svc.Pathing,
				Speed:      cfg.MoveSpeed,
				SnapRadius: cfg.SnapRadius,
			},
			state.StateAttacking: &motion.Hold{FaceTarget: true, RotationSpeed: cfg.RotationSpeed},
		}
	}
	m.state = state.StateIdle
	m.active = m.authorities[m.state]
	return m, nil
}

// Perception returns the last sensor classification of the target
func (m *Machine) Perception() sensor.Perception {
	return m.perception
}

func (m *Machine) stepPursuer(c *motion.Context) {
	if present, lost := m.targetPresent(); !present {
		if !lost {
			return
		}
		m.perception = sensor.Unseen
		if m.state != state.StateIdle {
			m.log.Info(MsgOwnerLost, "agent", m.agent.ID, "state", m.state)
			m.transition(c, state.StateIdle, CauseOwnerLost)
		}
		return
	}

	ranges := sensor.Ranges{
		Sight:      m.pursuer.SightRange,
		Attack:     m.pursuer.AttackRange,
		Hysteresis: m.pursuer.Hysteresis,
	}
	m.perception = m.svc.Sensor.Perceive(m.agent.Position(), m.target.ID(), m.pursuer.TargetMask, ranges, m.perception)

	next := state.StateIdle
	switch m.perception {
	case sensor.InAttack:
		next = state.StateAttacking
	case sensor.InSight:
		next = state.StateChasing
	}
	if next != m.state {
		m.transition(c, next, CauseSensor)
	}
}
