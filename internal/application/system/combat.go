package system

import (
	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/ecs"
	"github.com/younwookim/agentloco/internal/infrastructure/config"
	"github.com/younwookim/agentloco/internal/infrastructure/logging"
)

// CombatSystem applies damage to world health with invulnerability frames
// and removes defeated targets
type CombatSystem struct {
	config *config.CombatConfig
	world  *ecs.World
	log    logging.Logger

	// Event callbacks
	OnHit      func(id entity.EntityID, damage int, lethal bool)
	OnDefeated func(id entity.EntityID, name string)
}

// NewCombatSystem creates a new combat system
func NewCombatSystem(cfg *config.CombatConfig, world *ecs.World, logger logging.Logger) *CombatSystem {
	return &CombatSystem{
		config: cfg,
		world:  world,
		log:    logging.OrNoOp(logger),
	}
}

// Damageable returns a handle that damages id through this system.
// Entities without health are not damageable.
func (s *CombatSystem) Damageable(id entity.EntityID) (entity.Damageable, bool) {
	if _, ok := s.world.Health[id]; !ok {
		return nil, false
	}
	return combatant{s: s, id: id}, true
}

// Strike damages id if it can currently be hurt.
// Returns true when the hit was lethal.
func (s *CombatSystem) Strike(id entity.EntityID, damage int) bool {
	h, ok := s.world.Health[id]
	if !ok || !h.IsAlive() || h.Iframe > 0 || damage <= 0 {
		return false
	}

	lethal := h.TakeDamage(damage)
	h.Iframe = s.config.Iframes
	s.world.Health[id] = h

	s.log.Debug("hit", "entity", id, "damage", damage, "health", h.Current)
	if s.OnHit != nil {
		s.OnHit(id, damage, lethal)
	}
	return lethal
}

// Update counts down iframes and removes defeated targets
func (s *CombatSystem) Update(dt float64) []entity.EntityID {
	ecs.UpdateTimers(s.world, dt)

	names := make(map[entity.EntityID]string)
	for id := range s.world.IsTarget {
		if !s.world.Alive(id) {
			names[id] = s.world.Name[id]
		}
	}
	dead := ecs.RemoveDead(s.world)
	for _, id := range dead {
		s.log.Info("target defeated", "entity", id, "name", names[id])
		if s.OnDefeated != nil {
			s.OnDefeated(id, names[id])
		}
	}
	return dead
}

type combatant struct {
	s  *CombatSystem
	id entity.EntityID
}

func (c combatant) TakeDamage(amount int) bool {
	return c.s.Strike(c.id, amount)
}
