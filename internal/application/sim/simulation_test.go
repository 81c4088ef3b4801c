package sim

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younwookim/agentloco/internal/application/locomotion"
	"github.com/younwookim/agentloco/internal/application/state"
	"github.com/younwookim/agentloco/internal/application/system"
	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/infrastructure/config"
	"github.com/younwookim/agentloco/internal/infrastructure/logging"
)

const testDT = 0.05

func createTestConfig(spawns ...config.AgentSpawnConfig) *config.SimConfig {
	return &config.SimConfig{
		World: &config.WorldConfig{
			Physics: config.PhysicsSettings{
				Substeps:     4,
				Gravity:      9.81,
				MaxFallSpeed: 30,
				Restitution:  0.3,
				Friction:     0.3,
				SleepSpeed:   0.2,
			},
			Navigation: config.NavigationConfig{
				CellSize:  0.5,
				Clearance: 0.25,
				Surfaces: []config.SurfaceConfig{
					{Name: "yard", MinX: -20, MinZ: -20, MaxX: 20, MaxZ: 20},
				},
			},
			Owner: config.OwnerConfig{
				Spawn:        config.Vec3Config{Y: 1},
				Radius:       0.4,
				PickupRadius: 0.75,
				MoveSpeed:    4,
				TurnSpeed:    180,
				MaxHealth:    100,
			},
			Combat: config.CombatConfig{Iframes: 0.5},
			Targets: []config.TargetSpawn{
				{Name: "dummy", Position: config.Vec3Config{X: -10, Y: 0.75, Z: -10}, Radius: 0.75, MaxHealth: 30},
			},
			Agents: spawns,
		},
		Agents: &config.AgentsConfig{
			Companions: map[string]config.CompanionArchetype{
				"dog": {
					ThrowForce:      4,
					ThrowUpForce:    2,
					ReturnDelay:     1,
					ReturnThreshold: 1.5,
					ReturnSpeed:     3.5,
					SnapRadius:      2,
					OuterSnapRadius: 10,
					Radius:          0.25,
					LoopCue:         "dribble",
				},
			},
			Pursuers: map[string]config.PursuerArchetype{
				"biter": {
					Movement:       "flying",
					SightRange:     12,
					AttackRange:    3,
					TargetLayers:   []string{"owner", "target"},
					MoveSpeed:      4,
					RotationSpeed:  4,
					FlyingHeight:   0.5,
					FollowDistance: 1,
					Radius:         0.4,
					LoopCue:        "flight",
					AttackDamage:   5,
				},
			},
		},
	}
}

func createTestSim(t *testing.T, spawns ...config.AgentSpawnConfig) (*Simulation, *logging.Recorder) {
	t.Helper()
	log := logging.NewRecorder()
	s, err := New(createTestConfig(spawns...), Options{Logger: log})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, log
}

var (
	rex  = config.AgentSpawnConfig{Name: "rex", Archetype: "dog", Position: config.Vec3Config{Y: 1, Z: 1}}
	fang = config.AgentSpawnConfig{Name: "fang", Archetype: "biter", Position: config.Vec3Config{Y: 1, Z: 2}}
)

// stepUntil steps until cond holds, failing after limit seconds
func stepUntil(t *testing.T, s *Simulation, limit float64, cond func() bool) {
	t.Helper()
	for end := s.Now() + limit; s.Now() < end; {
		s.Step(testDT)
		if cond() {
			return
		}
	}
	t.Fatalf("condition not met within %vs", limit)
}

func recordChanges(s *Simulation) *[]locomotion.Change {
	changes := &[]locomotion.Change{}
	s.OnStateChanged(func(c locomotion.Change) {
		*changes = append(*changes, c)
	})
	return changes
}

func TestNew(t *testing.T) {
	s, log := createTestSim(t, rex, fang)

	agents := s.Agents()
	require.Len(t, agents, 2)
	assert.Equal(t, "rex", agents[0].Name)
	assert.Equal(t, entity.KindCompanion, agents[0].Kind())
	assert.Equal(t, state.StateCarried, agents[0].Machine.State())
	assert.Equal(t, "fang", agents[1].Name)
	assert.Equal(t, entity.KindPursuer, agents[1].Kind())
	assert.Equal(t, state.StateIdle, agents[1].Machine.State())
	assert.Equal(t, s.World().OwnerID, agents[1].Target())
	assert.Equal(t, 2, log.CountMsg("agent spawned"))

	a, ok := s.Agent("rex")
	require.True(t, ok)
	assert.Equal(t, 0.25, s.World().Volume[a.ID()].Radius, "Volume follows the archetype radius")
	assert.Equal(t, entity.LayerAgent, s.World().Volume[a.ID()].Layer)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		spawns []config.AgentSpawnConfig
		want   error
	}{
		{name: "unknown archetype", spawns: []config.AgentSpawnConfig{{Name: "x", Archetype: "cat"}}, want: ErrUnknownArchetype},
		{name: "duplicate name", spawns: []config.AgentSpawnConfig{rex, rex}, want: ErrDuplicateAgent},
		{name: "unknown target", spawns: []config.AgentSpawnConfig{{Name: "x", Archetype: "biter", Target: "ghost"}}, want: ErrUnknownEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(createTestConfig(tt.spawns...), Options{})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := New(nil, Options{})
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestSimulation_Step(t *testing.T) {
	s, _ := createTestSim(t, rex)
	changes := recordChanges(s)

	s.Step(0)
	assert.Equal(t, uint64(0), s.Tick(), "A zero step does nothing")

	for i := 0; i < 10; i++ {
		s.Step(0.1)
	}
	assert.Equal(t, uint64(10), s.Tick())
	assert.InDelta(t, 1.0, s.Now(), 1e-9)

	require.Len(t, *changes, 1)
	assert.Equal(t, locomotion.CauseSpawn, (*changes)[0].Cause)
	assert.Equal(t, state.StateCarried, (*changes)[0].To)
}

func TestSimulation_OwnerMovement(t *testing.T) {
	s, _ := createTestSim(t)
	owner := s.World().OwnerID

	for i := 0; i < 10; i++ {
		s.Input(system.MoveIntent{Forward: 1})
		s.Step(0.1)
	}
	pose, _ := s.World().PoseOf(owner)
	assert.InDelta(t, 4.0, pose.Position.Z(), 1e-9)

	// Movement is not sticky
	s.Step(0.1)
	pose, _ = s.World().PoseOf(owner)
	assert.InDelta(t, 4.0, pose.Position.Z(), 1e-9)
}

func TestSimulation_CompanionRoundTrip(t *testing.T) {
	s, _ := createTestSim(t, rex)
	changes := recordChanges(s)
	dog, _ := s.Agent("rex")

	s.Input(system.HoldIntent{Held: true})
	s.Step(testDT)
	assert.Equal(t, state.StatePrepared, dog.Machine.State())

	s.Input(system.ReleaseIntent{})
	s.Step(testDT)
	s.Input(system.HoldIntent{Held: false})
	assert.Equal(t, state.StateReleased, dog.Machine.State())

	stepUntil(t, s, 10, func() bool { return dog.Machine.State() == state.StateCarried })

	var path []state.State
	for _, c := range *changes {
		path = append(path, c.To)
	}
	assert.Equal(t, []state.State{
		state.StateCarried, state.StatePrepared, state.StateReleased, state.StateReturning, state.StateCarried,
	}, path)
	assert.Equal(t, locomotion.CauseDeferred, (*changes)[3].Cause)
}

func TestSimulation_Recall(t *testing.T) {
	s, _ := createTestSim(t, rex)
	dog, _ := s.Agent("rex")

	s.Input(system.HoldIntent{Held: true})
	s.Step(testDT)
	s.Input(system.ReleaseIntent{})
	s.Step(testDT)
	s.Input(system.HoldIntent{Held: false})
	require.Equal(t, state.StateReleased, dog.Machine.State())

	s.Input(system.RecallIntent{})
	s.Step(testDT)
	assert.Equal(t, state.StateCarried, dog.Machine.State())
	assert.True(t, dog.Machine.Agent().Kinematic)
}

func TestSimulation_PursuerAttacks(t *testing.T) {
	s, log := createTestSim(t, fang)
	owner := s.World().OwnerID
	bat, _ := s.Agent("fang")

	s.Step(testDT)
	assert.Equal(t, state.StateAttacking, bat.Machine.State())
	assert.Equal(t, 95, s.World().Health[owner].Current)

	for i := 0; i < 40; i++ {
		s.Step(testDT)
	}
	assert.Less(t, s.World().Health[owner].Current, 95)
	assert.Zero(t, log.CountMsg("target defeated by pursuer"))
}

func TestSimulation_OwnerLost(t *testing.T) {
	s, log := createTestSim(t, rex, fang)
	changes := recordChanges(s)
	s.Step(testDT)

	require.NoError(t, s.Kill("owner"))
	s.Step(testDT)
	s.Step(testDT)

	dog, _ := s.Agent("rex")
	bat, _ := s.Agent("fang")
	assert.Equal(t, state.StateDetached, dog.Machine.State())
	assert.Equal(t, state.StateIdle, bat.Machine.State())

	var lost int
	for _, c := range *changes {
		if c.Cause == locomotion.CauseOwnerLost {
			lost++
		}
	}
	assert.Equal(t, 2, lost)
	assert.Equal(t, 2, log.CountMsg(locomotion.MsgOwnerLost))
	assert.True(t, s.World().Exists(s.World().OwnerID))

	assert.ErrorIs(t, s.Kill("nobody"), ErrUnknownEntity)
}

func TestSimulation_Collide(t *testing.T) {
	s, _ := createTestSim(t, rex)
	dog, _ := s.Agent("rex")

	s.Input(system.HoldIntent{Held: true})
	s.Step(testDT)
	s.Input(system.ReleaseIntent{})
	s.Step(testDT)
	s.Input(system.HoldIntent{Held: false})

	require.NoError(t, s.Collide("rex", "owner.pickup"))
	s.Step(testDT)
	assert.Equal(t, state.StateCarried, dog.Machine.State())

	assert.ErrorIs(t, s.Collide("ghost", "ground"), ErrUnknownAgent)
	assert.ErrorIs(t, s.Collide("rex", "moon"), ErrUnknownEntity)
	assert.NoError(t, s.Collide("rex", "ground"))
}

func TestSimulation_CollideDamagesTarget(t *testing.T) {
	cfg := createTestConfig(rex)
	dog := cfg.Agents.Companions["dog"]
	dog.ImpactDamage = 10
	cfg.Agents.Companions["dog"] = dog
	s, err := New(cfg, Options{})
	require.NoError(t, err)
	defer s.Close()

	s.Input(system.HoldIntent{Held: true})
	s.Step(testDT)
	s.Input(system.ReleaseIntent{})
	s.Step(testDT)
	s.Input(system.HoldIntent{Held: false})

	require.NoError(t, s.Collide("rex", "dummy"))
	s.Step(testDT)

	id, _ := s.World().Find("dummy")
	assert.Equal(t, 20, s.World().Health[id].Current)
	a, _ := s.Agent("rex")
	_, armed := a.Machine.Pending()
	assert.True(t, armed, "Any non-pickup contact arms the return")
}

func TestSimulation_Remove(t *testing.T) {
	s, log := createTestSim(t, rex, fang)
	dog, _ := s.Agent("rex")
	id := dog.ID()

	require.NoError(t, s.Remove("rex"))
	assert.True(t, dog.Machine.Stopped())
	assert.False(t, s.World().Exists(id))
	_, ok := s.Agent("rex")
	assert.False(t, ok)
	assert.Len(t, s.Agents(), 1)
	assert.Equal(t, 1, log.CountMsg("agent removed"))

	assert.ErrorIs(t, s.Remove("rex"), ErrUnknownAgent)

	// Name is free again
	_, err := s.Spawn(rex)
	assert.NoError(t, err)
}

func BenchmarkSimulation_Step(b *testing.B) {
	spawns := []config.AgentSpawnConfig{rex}
	for i := 0; i < 20; i++ {
		spawns = append(spawns, config.AgentSpawnConfig{
			Name:      fmt.Sprintf("fang%d", i),
			Archetype: "biter",
			Position:  config.Vec3Config{X: float64(i%5*3 - 6), Y: 1, Z: float64(i/5*3 + 4)},
		})
	}
	s, err := New(createTestConfig(spawns...), Options{})
	require.NoError(b, err)
	defer s.Close()

	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		s.Step(testDT)
	}
}
