package system

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younwookim/agentloco/internal/application/locomotion"
	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/ecs"
	"github.com/younwookim/agentloco/internal/infrastructure/config"
)

func createTestPhysicsConfig() *config.PhysicsSettings {
	return &config.PhysicsSettings{
		Substeps:     4,
		Gravity:      10,
		MaxFallSpeed: 50,
		Restitution:  0.5,
		SleepSpeed:   0.05,
	}
}

type contactLog struct {
	agents   []entity.EntityID
	contacts []locomotion.CollisionIntent
}

func (l *contactLog) record(agent entity.EntityID, c locomotion.CollisionIntent) {
	l.agents = append(l.agents, agent)
	l.contacts = append(l.contacts, c)
}

func createTestPhysics(cfg *config.PhysicsSettings) (*PhysicsSystem, *ecs.World, *contactLog) {
	w := ecs.NewWorld()
	sys := NewPhysicsSystem(cfg, w, nil)
	log := &contactLog{}
	sys.OnContact = log.record
	return sys, w, log
}

func spawnDynamic(sys *PhysicsSystem, w *ecs.World, pos mgl64.Vec3) *entity.Agent {
	a := w.SpawnAgent("rex", entity.KindCompanion, entity.NewTransform(pos))
	sys.SetKinematic(a, false)
	return a
}

func TestPhysicsSystem_KinematicNotMoved(t *testing.T) {
	sys, w, _ := createTestPhysics(createTestPhysicsConfig())
	a := w.SpawnAgent("rex", entity.KindCompanion, entity.NewTransform(mgl64.Vec3{0, 5, 0}))
	sys.Register(a)
	a.BeginTick(1)

	sys.Update(0.1)

	assert.Equal(t, mgl64.Vec3{0, 5, 0}, a.Position())
	assert.Empty(t, a.Writers())
}

func TestPhysicsSystem_Gravity(t *testing.T) {
	sys, w, _ := createTestPhysics(createTestPhysicsConfig())
	a := spawnDynamic(sys, w, mgl64.Vec3{0, 10, 0})
	a.BeginTick(1)

	sys.Update(0.1)

	assert.InDelta(t, -1.0, a.Velocity[1], 1e-9)
	assert.InDelta(t, 10-0.0625, a.Position()[1], 1e-9)
	assert.Equal(t, []string{PhysicsWriter}, a.Writers())
}

func TestPhysicsSystem_MaxFallSpeed(t *testing.T) {
	sys, w, _ := createTestPhysics(createTestPhysicsConfig())
	a := spawnDynamic(sys, w, mgl64.Vec3{0, 100, 0})
	sys.ApplyImpulse(a, mgl64.Vec3{0, -80, 0})

	sys.Update(0.1)

	assert.Equal(t, -50.0, a.Velocity[1])
}

func TestPhysicsSystem_SetKinematicClearsVelocity(t *testing.T) {
	sys, w, _ := createTestPhysics(createTestPhysicsConfig())
	a := spawnDynamic(sys, w, mgl64.Vec3{0, 1, 0})
	sys.ApplyImpulse(a, mgl64.Vec3{1, 2, 3})
	require.Equal(t, mgl64.Vec3{1, 2, 3}, a.Velocity)

	sys.SetKinematic(a, true)

	assert.True(t, a.Kinematic)
	assert.Equal(t, mgl64.Vec3{}, a.Velocity)
}

func TestPhysicsSystem_Bounce(t *testing.T) {
	tests := []struct {
		name     string
		friction float64
		v        mgl64.Vec3
		n        mgl64.Vec3
		want     mgl64.Vec3
	}{
		{name: "head on", v: mgl64.Vec3{0, -4, 0}, n: mgl64.Vec3{0, 1, 0}, want: mgl64.Vec3{0, 2, 0}},
		{name: "separating untouched", v: mgl64.Vec3{0, 4, 0}, n: mgl64.Vec3{0, 1, 0}, want: mgl64.Vec3{0, 4, 0}},
		{name: "friction on tangent", friction: 0.5, v: mgl64.Vec3{2, -4, 0}, n: mgl64.Vec3{0, 1, 0}, want: mgl64.Vec3{1, 2, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := createTestPhysicsConfig()
			cfg.Friction = tt.friction
			sys, _, _ := createTestPhysics(cfg)

			got := sys.bounce(tt.v, tt.n)

			for i := range 3 {
				assert.InDelta(t, tt.want[i], got[i], 1e-9)
			}
		})
	}
}

func TestPhysicsSystem_ComesToRest(t *testing.T) {
	sys, w, log := createTestPhysics(createTestPhysicsConfig())
	a := spawnDynamic(sys, w, mgl64.Vec3{0, 2, 0})

	peak := 0.0
	landed := false
	for range 600 {
		sys.Update(1.0 / 60)
		if len(log.contacts) > 0 {
			landed = true
		}
		if landed {
			peak = max(peak, a.Position()[1])
		}
	}

	assert.InDelta(t, a.Radius, a.Position()[1], 1e-3)
	assert.Equal(t, mgl64.Vec3{}, a.Velocity)
	assert.Less(t, peak, 2.0, "Each bounce loses energy")

	require.NotEmpty(t, log.contacts)
	for _, c := range log.contacts {
		assert.Equal(t, GroundID, c.Other)
		assert.Equal(t, entity.LayerSurface, c.Layer)
	}

	bounces := len(log.contacts)
	for range 60 {
		sys.Update(1.0 / 60)
	}
	assert.Len(t, log.contacts, bounces, "Resting on the ground is one continuous contact")
}

func TestPhysicsSystem_SolidTarget(t *testing.T) {
	cfg := createTestPhysicsConfig()
	cfg.Gravity = 0
	sys, w, log := createTestPhysics(cfg)
	target := w.CreateTarget("dummy", mgl64.Vec3{0, 1, 2}, 0.5, 3)
	a := spawnDynamic(sys, w, mgl64.Vec3{0, 1, 0})
	sys.ApplyImpulse(a, mgl64.Vec3{0, 0, 10})

	sys.Update(0.1)
	sys.Update(0.1)

	require.Len(t, log.contacts, 1)
	assert.Equal(t, a.ID, log.agents[0])
	assert.Equal(t, target, log.contacts[0].Other)
	assert.Equal(t, entity.LayerTarget, log.contacts[0].Layer)
	assert.InDelta(t, -5.0, a.Velocity[2], 1e-9)
	assert.Less(t, a.Position()[2], 1.25+1e-9)
}

func TestPhysicsSystem_DeadTargetIsNotSolid(t *testing.T) {
	cfg := createTestPhysicsConfig()
	cfg.Gravity = 0
	sys, w, log := createTestPhysics(cfg)
	target := w.CreateTarget("dummy", mgl64.Vec3{0, 1, 2}, 0.5, 3)
	ecs.Kill(w, target)
	a := spawnDynamic(sys, w, mgl64.Vec3{0, 1, 0})
	sys.ApplyImpulse(a, mgl64.Vec3{0, 0, 10})

	sys.Update(0.5)

	assert.Empty(t, log.contacts)
	assert.InDelta(t, 10.0, a.Velocity[2], 1e-9)
}

func TestPhysicsSystem_Obstacle(t *testing.T) {
	cfg := createTestPhysicsConfig()
	cfg.Gravity = 0
	sys, w, log := createTestPhysics(cfg)
	wall := w.CreateObstacle("wall", ecs.Box{Min: mgl64.Vec3{2, 0, -1}, Max: mgl64.Vec3{3, 2, 1}})
	a := spawnDynamic(sys, w, mgl64.Vec3{0, 1, 0})
	sys.ApplyImpulse(a, mgl64.Vec3{10, 0, 0})

	sys.Update(0.1)
	sys.Update(0.1)
	sys.Update(0.1)

	require.Len(t, log.contacts, 1)
	assert.Equal(t, wall, log.contacts[0].Other)
	assert.Equal(t, entity.LayerSurface, log.contacts[0].Layer)
	assert.InDelta(t, -5.0, a.Velocity[0], 1e-9)
	assert.Less(t, a.Position()[0], 2.0-a.Radius+1e-9)
}

func TestPhysicsSystem_PickupContact(t *testing.T) {
	cfg := createTestPhysicsConfig()
	cfg.Gravity = 0
	sys, w, log := createTestPhysics(cfg)
	owner, pickup := w.CreateOwner("owner", entity.NewTransform(mgl64.Vec3{0, 1, 0}), ecs.OwnerSpec{
		Radius:       0.4,
		PickupRadius: 0.75,
	})
	a := w.SpawnAgent("rex", entity.KindCompanion, entity.NewTransform(mgl64.Vec3{0, 1, 0.5}))
	sys.Register(a)

	sys.Update(0.1)

	require.Len(t, log.contacts, 1, "Owner volumes are not reported")
	assert.Equal(t, pickup, log.contacts[0].Other)
	assert.True(t, log.contacts[0].IsPickupOf(owner))

	// Launching from inside the pickup is not a new contact
	sys.SetKinematic(a, false)
	sys.ApplyImpulse(a, mgl64.Vec3{0, 0, 1})
	sys.Update(0.1)

	assert.Len(t, log.contacts, 1)
}

func TestPhysicsSystem_ContactEndsAndBeginsAgain(t *testing.T) {
	cfg := createTestPhysicsConfig()
	cfg.Gravity = 0
	sys, w, log := createTestPhysics(cfg)
	w.CreateTarget("dummy", mgl64.Vec3{0, 1, 0}, 0.5, 3)
	a := w.SpawnAgent("rex", entity.KindCompanion, entity.NewTransform(mgl64.Vec3{0, 1, 0.5}))
	sys.Register(a)

	sys.Update(0.1)
	a.SetTransform("test", entity.NewTransform(mgl64.Vec3{0, 1, 5}))
	sys.Update(0.1)
	a.SetTransform("test", entity.NewTransform(mgl64.Vec3{0, 1, 0.5}))
	sys.Update(0.1)

	assert.Len(t, log.contacts, 2)
}

func TestPhysicsSystem_Unregister(t *testing.T) {
	sys, w, log := createTestPhysics(createTestPhysicsConfig())
	a := spawnDynamic(sys, w, mgl64.Vec3{0, 0.2, 0})

	sys.Unregister(a.ID)
	sys.Update(0.1)

	assert.Empty(t, log.contacts)
	assert.Equal(t, mgl64.Vec3{0, 0.2, 0}, a.Position())
}

func TestPushOutOfBox(t *testing.T) {
	b := ecs.Box{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{2, 2, 2}}

	tests := []struct {
		name    string
		pos     mgl64.Vec3
		wantPos mgl64.Vec3
		wantN   mgl64.Vec3
		wantHit bool
	}{
		{name: "clear", pos: mgl64.Vec3{3, 1, 1}, wantPos: mgl64.Vec3{3, 1, 1}},
		{name: "grazing face", pos: mgl64.Vec3{2.25, 1, 1}, wantPos: mgl64.Vec3{2.5, 1, 1}, wantN: mgl64.Vec3{1, 0, 0}, wantHit: true},
		{name: "center inside", pos: mgl64.Vec3{1, 1.9, 1}, wantPos: mgl64.Vec3{1, 2.5, 1}, wantN: mgl64.Vec3{0, 1, 0}, wantHit: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, n, hit := pushOutOfBox(b, tt.pos, 0.5)

			assert.Equal(t, tt.wantHit, hit)
			for i := range 3 {
				assert.InDelta(t, tt.wantPos[i], pos[i], 1e-9)
				assert.InDelta(t, tt.wantN[i], n[i], 1e-9)
			}
		})
	}
}
