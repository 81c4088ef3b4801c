// Package sim runs a complete agent simulation: the world, its services and
// every agent machine, advanced together on a fixed step.
package sim

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/younwookim/agentloco/internal/application/locomotion"
	"github.com/younwookim/agentloco/internal/application/scheduler"
	"github.com/younwookim/agentloco/internal/application/sensor"
	"github.com/younwookim/agentloco/internal/application/state"
	"github.com/younwookim/agentloco/internal/application/system"
	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/ecs"
	"github.com/younwookim/agentloco/internal/infrastructure/audio"
	"github.com/younwookim/agentloco/internal/infrastructure/config"
	"github.com/younwookim/agentloco/internal/infrastructure/logging"
	"github.com/younwookim/agentloco/internal/infrastructure/navmesh"
	"github.com/younwookim/agentloco/internal/infrastructure/script"
)

var (
	// ErrUnknownAgent is returned when a name does not match a spawned agent
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrUnknownEntity is returned when a name does not match a world entity
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrUnknownArchetype is returned when a spawn names a missing archetype
	ErrUnknownArchetype = errors.New("unknown archetype")
	// ErrDuplicateAgent is returned when a spawn reuses an agent name
	ErrDuplicateAgent = errors.New("duplicate agent")
	// ErrAgentPose is returned when asked to move an agent directly
	ErrAgentPose = errors.New("agent poses belong to their machine")
)

// Options are the optional collaborators of a simulation
type Options struct {
	Logger logging.Logger
	Hooks  *script.Hooks // State hooks; nil uses the built-in cue rules
	Cues   *audio.Cues   // Loop cue player; nil disables cues
}

// Simulation owns the world and steps it. It is not safe for concurrent
// use, except for the agent machines' own Enqueue methods.
type Simulation struct {
	cfg *config.SimConfig
	log logging.Logger

	world     *ecs.World
	mesh      *navmesh.Mesh
	physics   *system.PhysicsSystem
	combat    *system.CombatSystem
	sensor    *sensor.Service
	scheduler *scheduler.Scheduler

	hooks *script.Hooks
	cues  *audio.Cues

	agents    []*Agent
	byName    map[string]*Agent
	byID      map[entity.EntityID]*Agent
	listeners []locomotion.Listener
	pending   []system.Intent

	now  float64
	tick uint64
}

// New builds the world described by cfg and spawns its agents
func New(cfg *config.SimConfig, opts Options) (*Simulation, error) {
	if cfg == nil || cfg.World == nil || cfg.Agents == nil {
		return nil, fmt.Errorf("new simulation: %w", config.ErrInvalid)
	}
	log := logging.OrNoOp(opts.Logger)

	nav := cfg.World.Navigation
	mesh := navmesh.New(navmesh.Config{CellSize: nav.CellSize, Clearance: nav.Clearance}, log)
	world := system.LoadWorld(cfg.World, mesh)

	s := &Simulation{
		cfg:       cfg,
		log:       log,
		world:     world,
		mesh:      mesh,
		physics:   system.NewPhysicsSystem(&cfg.World.Physics, world, log),
		combat:    system.NewCombatSystem(&cfg.World.Combat, world, log),
		sensor:    sensor.NewService(world),
		scheduler: scheduler.New(),
		hooks:     opts.Hooks,
		cues:      opts.Cues,
		byName:    make(map[string]*Agent),
		byID:      make(map[entity.EntityID]*Agent),
	}
	s.physics.OnContact = s.onContact
	s.combat.OnDefeated = func(id entity.EntityID, name string) {
		s.log.Info("entity removed", "entity", id, "name", name, "at", s.now)
	}

	for _, spawn := range cfg.World.Agents {
		if _, err := s.Spawn(spawn); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

// World returns the entity registry
func (s *Simulation) World() *ecs.World { return s.world }

// Mesh returns the navigation mesh
func (s *Simulation) Mesh() *navmesh.Mesh { return s.mesh }

// Config returns the configuration the simulation was built from
func (s *Simulation) Config() *config.SimConfig { return s.cfg }

// Now returns the simulation time in seconds
func (s *Simulation) Now() float64 { return s.now }

// Tick returns the number of completed steps
func (s *Simulation) Tick() uint64 { return s.tick }

// Agents returns the agents in spawn order
func (s *Simulation) Agents() []*Agent {
	return slices.Clone(s.agents)
}

// Agent returns the agent with the given name
func (s *Simulation) Agent(name string) (*Agent, bool) {
	a, ok := s.byName[name]
	return a, ok
}

// AgentByID returns the agent with the given entity ID
func (s *Simulation) AgentByID(id entity.EntityID) (*Agent, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// OnStateChanged registers l for every agent's state changes, including
// agents spawned later
func (s *Simulation) OnStateChanged(l locomotion.Listener) {
	s.listeners = append(s.listeners, l)
}

// Input queues owner intents for the next step. Movement must be repeated
// every step it should apply.
func (s *Simulation) Input(intents ...system.Intent) {
	s.pending = append(s.pending, intents...)
}

// Collide reports a contact between agent and the named entity at the next
// tick, as if physics had detected it. "ground" names the ground plane.
func (s *Simulation) Collide(agent, other string) error {
	a, ok := s.byName[agent]
	if !ok {
		return fmt.Errorf("collide %s: %w", agent, ErrUnknownAgent)
	}
	if other == "ground" {
		a.Machine.Enqueue(locomotion.CollisionIntent{Other: system.GroundID, Layer: entity.LayerSurface})
		return nil
	}
	id, ok := s.world.Find(other)
	if !ok {
		return fmt.Errorf("collide %s with %s: %w", agent, other, ErrUnknownEntity)
	}
	in := locomotion.CollisionIntent{Other: id, Layer: s.world.Volume[id].Layer}
	if p, ok := s.world.Pickup[id]; ok {
		in.PickupOwner = p.Owner
	}
	a.Machine.Enqueue(in)
	return nil
}

// Kill drops the named entity's health to zero. Targets are removed at the
// end of the next step; the owner stays in the world, defeated.
func (s *Simulation) Kill(name string) error {
	id, ok := s.world.Find(name)
	if !ok {
		return fmt.Errorf("kill %s: %w", name, ErrUnknownEntity)
	}
	ecs.Kill(s.world, id)
	s.log.Info("entity killed", "entity", id, "name", name, "at", s.now)
	return nil
}

// Place moves the named entity to pos. Agents cannot be placed; their
// machine owns their transform.
func (s *Simulation) Place(name string, pos mgl64.Vec3) error {
	id, ok := s.world.Find(name)
	if !ok {
		return fmt.Errorf("place %s: %w", name, ErrUnknownEntity)
	}
	if _, ok := s.world.Agent[id]; ok {
		return fmt.Errorf("place %s: %w", name, ErrAgentPose)
	}
	t := s.world.Pose[id]
	t.Position = pos
	s.world.Pose[id] = t
	return nil
}

// Step advances the simulation by dt seconds
func (s *Simulation) Step(dt float64) {
	if dt <= 0 {
		return
	}

	// Owner
	system.ApplyIntents(s.world, s.world.OwnerID, s.controls(), s.pending)
	s.pending = s.pending[:0]
	ecs.UpdateWalkers(s.world, dt)
	ecs.SyncPickups(s.world)

	// Agents
	for _, a := range s.agents {
		a.Machine.Tick(s.now, dt)
	}
	s.physics.Update(dt)
	s.attack()
	s.combat.Update(dt)

	s.tick++
	s.now += dt
}

// Close stops every machine and its loop cue
func (s *Simulation) Close() {
	for _, a := range s.agents {
		a.Machine.Stop()
		if s.cues != nil {
			s.cues.Stop(a.Name)
		}
	}
}

// controls returns the companions that follow owner input
func (s *Simulation) controls() []system.Controls {
	var out []system.Controls
	for _, a := range s.agents {
		if a.Kind() == entity.KindCompanion {
			out = append(out, a.Machine)
		}
	}
	return out
}

// attack lets every attacking pursuer strike its target
func (s *Simulation) attack() {
	for _, a := range s.agents {
		if a.Damage <= 0 || a.Machine.State() != state.StateAttacking {
			continue
		}
		if s.combat.Strike(a.target, a.Damage) {
			s.log.Info("target defeated by pursuer", "agent", a.Name, "target", a.target)
		}
	}
}

func (s *Simulation) onContact(agent entity.EntityID, c locomotion.CollisionIntent) {
	if a, ok := s.byID[agent]; ok {
		a.Machine.Enqueue(c)
	}
}
