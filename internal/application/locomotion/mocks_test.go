package locomotion

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"

	"github.com/younwookim/agentloco/internal/application/scheduler"
	"github.com/younwookim/agentloco/internal/application/sensor"
	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/domain/geom"
	"github.com/younwookim/agentloco/internal/infrastructure/logging"
)

const testDT = 0.25

type fakeTarget struct {
	id    entity.EntityID
	pose  entity.Transform
	alive bool
	aim   mgl64.Vec3
	layer entity.Layer
}

func (f *fakeTarget) ID() entity.EntityID      { return f.id }
func (f *fakeTarget) Pose() entity.Transform   { return f.pose }
func (f *fakeTarget) Alive() bool              { return f.alive }
func (f *fakeTarget) AimDirection() mgl64.Vec3 { return f.aim }
func (f *fakeTarget) moveTo(p mgl64.Vec3)      { f.pose.Position = p }

func newFakeTarget(id entity.EntityID) *fakeTarget {
	return &fakeTarget{id: id, pose: entity.NewTransform(mgl64.Vec3{}), alive: true, layer: entity.LayerOwner}
}

type fakeSource []*fakeTarget

func (s fakeSource) EachBody(mask entity.Layer, fn func(id entity.EntityID, pos mgl64.Vec3)) {
	for _, t := range s {
		if t.alive && t.layer.Has(mask) {
			fn(t.id, t.pose.Position)
		}
	}
}

type mockPhysics struct {
	impulses  []mgl64.Vec3
	kinematic []bool
}

func (m *mockPhysics) ApplyImpulse(a *entity.Agent, v mgl64.Vec3) {
	m.impulses = append(m.impulses, v)
	a.Velocity = v
}

func (m *mockPhysics) SetKinematic(a *entity.Agent, k bool) {
	m.kinematic = append(m.kinematic, k)
	a.Kinematic = k
}

type mockPathing struct {
	surfaces []mgl64.Vec3
	warps    int
	stops    int
	active   bool
}

func (m *mockPathing) TrySnapToSurface(p mgl64.Vec3, r float64) (mgl64.Vec3, bool) {
	for _, s := range m.surfaces {
		if geom.Distance(p, s) < r {
			return s, true
		}
	}
	return mgl64.Vec3{}, false
}

func (m *mockPathing) Warp(a *entity.Agent, p mgl64.Vec3) {
	m.warps++
	a.SetTransform("mock-pathing", entity.Transform{Position: p, Orientation: a.Transform().Orientation})
}

func (m *mockPathing) SetDestination(a *entity.Agent, p mgl64.Vec3) error {
	m.active = true
	a.Destination, a.HasDestination = p, true
	return nil
}

func (m *mockPathing) IsPathfindingActive(a *entity.Agent) bool { return m.active }

func (m *mockPathing) Advance(a *entity.Agent, speed, dt float64) {
	pos := geom.MoveTowards(a.Position(), a.Destination, speed*dt)
	a.SetTransform("mock-pathing", entity.Transform{Position: pos, Orientation: a.Transform().Orientation})
}

func (m *mockPathing) Stop(a *entity.Agent) {
	m.stops++
	m.active = false
	a.HasDestination = false
}

type mockDamageable struct {
	hits int
}

func (m *mockDamageable) TakeDamage(amount int) bool {
	m.hits++
	return false
}

type mockResolver map[entity.EntityID]*mockDamageable

func (m mockResolver) Damageable(id entity.EntityID) (entity.Damageable, bool) {
	d, ok := m[id]
	if !ok {
		return nil, false
	}
	return d, true
}

// rig drives one machine with a fixed step. now is tick*testDT so that
// deferred deadlines land exactly on tick boundaries.
type rig struct {
	t       *testing.T
	agent   *entity.Agent
	target  *fakeTarget
	physics *mockPhysics
	pathing *mockPathing
	sched   *scheduler.Scheduler
	log     *logging.Recorder
	m       *Machine
	changes []Change
	tick    int
}

func newRig(t *testing.T) *rig {
	t.Helper()
	return &rig{
		t:       t,
		agent:   entity.NewAgent(1, "agent", entity.KindCompanion, entity.NewTransform(mgl64.Vec3{})),
		target:  newFakeTarget(2),
		physics: &mockPhysics{},
		pathing: &mockPathing{},
		sched:   scheduler.New(),
		log:     logging.NewRecorder(),
	}
}

func (r *rig) services() Services {
	return Services{
		Physics:   r.physics,
		Pathing:   r.pathing,
		Sensor:    sensor.NewService(fakeSource{r.target}),
		Scheduler: r.sched,
		Logger:    r.log,
	}
}

func (r *rig) attach(m *Machine) {
	r.m = m
	m.OnStateChanged(func(c Change) { r.changes = append(r.changes, c) })
}

func newCompanionRig(t *testing.T, cfg entity.CompanionConfig) *rig {
	t.Helper()
	r := newRig(t)
	m, err := NewCompanion(r.agent, r.target, cfg, r.services())
	require.NoError(t, err)
	r.attach(m)
	return r
}

func newPursuerRig(t *testing.T, cfg entity.PursuerConfig, targetAt mgl64.Vec3) *rig {
	t.Helper()
	r := newRig(t)
	r.target.moveTo(targetAt)
	r.pathing.surfaces = []mgl64.Vec3{{}}
	m, err := NewPursuer(r.agent, r.target, cfg, r.services())
	require.NoError(t, err)
	r.attach(m)
	return r
}

func (r *rig) now() float64 {
	return float64(r.tick) * testDT
}

// step runs one tick and checks the single-writer rule
func (r *rig) step() {
	r.t.Helper()
	r.m.Tick(r.now(), testDT)
	r.tick++
	require.LessOrEqual(r.t, len(r.agent.Writers()), 1, "writers at tick %d: %v", r.tick, r.agent.Writers())
}

func (r *rig) steps(n int) {
	r.t.Helper()
	for i := 0; i < n; i++ {
		r.step()
	}
}

func (r *rig) causes() []Cause {
	out := make([]Cause, len(r.changes))
	for i, c := range r.changes {
		out[i] = c.Cause
	}
	return out
}
