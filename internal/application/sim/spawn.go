package sim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/younwookim/agentloco/internal/application/locomotion"
	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/ecs"
	"github.com/younwookim/agentloco/internal/infrastructure/config"
)

// Agent is a spawned agent and its machine
type Agent struct {
	Name      string
	Archetype string
	LoopCue   string
	Damage    int // Dealt to the target while attacking
	Machine   *locomotion.Machine

	target entity.EntityID
}

// ID returns the agent's entity ID
func (a *Agent) ID() entity.EntityID { return a.Machine.Agent().ID }

// Kind returns the agent family
func (a *Agent) Kind() entity.Kind { return a.Machine.Agent().Kind }

// Target returns the entity the agent follows or pursues
func (a *Agent) Target() entity.EntityID { return a.target }

// Spawn creates the agent described by spawn. Its machine starts on the
// next step.
func (s *Simulation) Spawn(spawn config.AgentSpawnConfig) (*Agent, error) {
	if c, ok := s.cfg.Agents.Companions[spawn.Archetype]; ok {
		return s.SpawnCompanion(spawn.Name, spawn.Archetype, spawn.Position.Vec(), c)
	}
	if p, ok := s.cfg.Agents.Pursuers[spawn.Archetype]; ok {
		return s.SpawnPursuer(spawn.Name, spawn.Archetype, spawn.Position.Vec(), p, spawn.Target)
	}
	return nil, fmt.Errorf("spawn %s: %w %q", spawn.Name, ErrUnknownArchetype, spawn.Archetype)
}

// SpawnCompanion creates a companion carried by the owner
func (s *Simulation) SpawnCompanion(name, archetype string, pos mgl64.Vec3, arch config.CompanionArchetype) (*Agent, error) {
	if err := s.checkName(name); err != nil {
		return nil, err
	}
	a := s.world.SpawnAgent(name, entity.KindCompanion, entity.NewTransform(pos))
	m, err := locomotion.NewCompanion(a, s.world.Ref(s.world.OwnerID), arch.Companion(), s.services())
	if err != nil {
		s.world.DestroyEntity(a.ID)
		return nil, fmt.Errorf("spawn %s: %w", name, err)
	}
	s.physics.Register(a)
	return s.add(&Agent{
		Name:      name,
		Archetype: archetype,
		LoopCue:   arch.LoopCue,
		Machine:   m,
		target:    s.world.OwnerID,
	}), nil
}

// SpawnPursuer creates a pursuer of the named target, or of the owner when
// target is empty
func (s *Simulation) SpawnPursuer(name, archetype string, pos mgl64.Vec3, arch config.PursuerArchetype, target string) (*Agent, error) {
	if err := s.checkName(name); err != nil {
		return nil, err
	}
	targetID := s.world.OwnerID
	if target != "" {
		id, ok := s.world.Find(target)
		if !ok {
			return nil, fmt.Errorf("spawn %s: target %s: %w", name, target, ErrUnknownEntity)
		}
		targetID = id
	}

	a := s.world.SpawnAgent(name, entity.KindPursuer, entity.NewTransform(pos))
	m, err := locomotion.NewPursuer(a, s.world.Ref(targetID), arch.Pursuer(), s.services())
	if err != nil {
		s.world.DestroyEntity(a.ID)
		return nil, fmt.Errorf("spawn %s: %w", name, err)
	}
	return s.add(&Agent{
		Name:      name,
		Archetype: archetype,
		LoopCue:   arch.LoopCue,
		Damage:    arch.AttackDamage,
		Machine:   m,
		target:    targetID,
	}), nil
}

// Remove stops the named agent and deletes it from the world
func (s *Simulation) Remove(name string) error {
	a, ok := s.byName[name]
	if !ok {
		return fmt.Errorf("remove %s: %w", name, ErrUnknownAgent)
	}
	a.Machine.Stop()
	if s.cues != nil {
		s.cues.Stop(name)
	}
	id := a.ID()
	s.physics.Unregister(id)
	s.world.DestroyEntity(id)
	delete(s.byName, name)
	delete(s.byID, id)
	for i, other := range s.agents {
		if other == a {
			s.agents = append(s.agents[:i], s.agents[i+1:]...)
			break
		}
	}
	s.log.Info("agent removed", "agent", name, "at", s.now)
	return nil
}

func (s *Simulation) checkName(name string) error {
	if _, ok := s.byName[name]; ok {
		return fmt.Errorf("spawn %s: %w", name, ErrDuplicateAgent)
	}
	return nil
}

func (s *Simulation) services() locomotion.Services {
	return locomotion.Services{
		Physics:     s.physics,
		Pathing:     s.mesh,
		Sensor:      s.sensor,
		Scheduler:   s.scheduler,
		Damageables: s.combat,
		Logger:      s.log,
	}
}

// add registers a built agent and routes its state changes
func (s *Simulation) add(a *Agent) *Agent {
	body := a.Machine.Agent()
	s.world.Volume[body.ID] = ecs.Volume{Radius: body.Radius, Layer: entity.LayerAgent}

	s.agents = append(s.agents, a)
	s.byName[a.Name] = a
	s.byID[body.ID] = a
	a.Machine.OnStateChanged(func(c locomotion.Change) {
		s.changed(a, c)
	})
	s.log.Info("agent spawned", "agent", a.Name, "kind", body.Kind, "archetype", a.Archetype, "state", a.Machine.State())
	return a
}

func (s *Simulation) changed(a *Agent, c locomotion.Change) {
	s.log.Debug("state changed", "agent", a.Name, "from", c.From, "to", c.To, "cause", c.Cause, "at", c.At)
	s.playCue(a, c)
	for _, l := range s.listeners {
		l(c)
	}
}
