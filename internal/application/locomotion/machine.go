// Package locomotion implements the agent state machine.
//
// A Machine owns one agent's state. Each Tick it drains queued intents,
// fires at most one transition, and then runs the motion authority bound to
// the resulting state exactly once. Inputs and collision reports may arrive
// at any time through Enqueue; they only take effect at the next tick.
package locomotion

import (
	"errors"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/younwookim/agentloco/internal/application/motion"
	"github.com/younwookim/agentloco/internal/application/scheduler"
	"github.com/younwookim/agentloco/internal/application/sensor"
	"github.com/younwookim/agentloco/internal/application/state"
	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/infrastructure/logging"
)

var (
	// ErrMissingOwner is returned when an agent is built without an owner or target
	ErrMissingOwner = errors.New("locomotion: missing owner reference")
	// ErrMissingAgent is returned when the agent itself is nil
	ErrMissingAgent = errors.New("locomotion: missing agent")
	// ErrMissingService is returned when a required collaborator is nil
	ErrMissingService = errors.New("locomotion: missing service")
)

// Log messages, stable so tests and tooling can match on them
const (
	MsgPathingFailed     = "pathing failed, agent held in place"
	MsgPathingRecovered  = "pathing recovered"
	MsgDeferredDiscarded = "deferred transition discarded"
	MsgDeferredDropped   = "deferred transition no longer reachable"
	MsgOwnerLost         = "owner reference lost"
)

// Perceiver classifies a target against sight and attack volumes
type Perceiver interface {
	Perceive(point mgl64.Vec3, id entity.EntityID, mask entity.Layer, r sensor.Ranges, prev sensor.Perception) sensor.Perception
}

// Services are the collaborators injected into a machine
type Services struct {
	Physics     motion.Physics
	Pathing     motion.Pathing
	Sensor      Perceiver
	Scheduler   *scheduler.Scheduler
	Damageables motion.DamageResolver
	Logger      logging.Logger
}

// Machine is the locomotion state machine of a single agent
type Machine struct {
	agent  *entity.Agent
	target entity.Target
	svc    Services
	log    logging.Logger

	companion entity.CompanionConfig
	pursuer   entity.PursuerConfig

	state       state.State
	authorities map[state.State]motion.Authority
	active      motion.Authority
	ballistic   *motion.BallisticHandoff
	listeners   []Listener

	mu    sync.Mutex
	inbox []Intent

	hold        bool
	lastRelease float64
	perception  sensor.Perception
	failing     bool
	missing     int // Consecutive ticks without a live target
	lastPose    entity.Transform
	now         float64
	tick        uint64
	started     bool
	stopped     bool
}

func newMachine(agent *entity.Agent, target entity.Target, svc Services) (*Machine, error) {
	if agent == nil {
		return nil, ErrMissingAgent
	}
	if target == nil {
		return nil, ErrMissingOwner
	}
	m := &Machine{
		agent:       agent,
		target:      target,
		svc:         svc,
		log:         logging.OrNoOp(svc.Logger),
		lastRelease: math.Inf(-1),
	}
	if target.Alive() {
		m.lastPose = target.Pose()
	}
	return m, nil
}

// Agent returns the controlled agent
func (m *Machine) Agent() *entity.Agent {
	return m.agent
}

// State returns the current state
func (m *Machine) State() state.State {
	return m.state
}

// Authority returns the name of the active motion authority
func (m *Machine) Authority() string {
	return m.active.Name()
}

// Pending returns the scheduled transition of this agent, if any
func (m *Machine) Pending() (scheduler.Pending, bool) {
	if m.svc.Scheduler == nil {
		return scheduler.Pending{}, false
	}
	return m.svc.Scheduler.Pending(m.agent.ID)
}

// Failing reports whether the active authority is in a recoverable failure
func (m *Machine) Failing() bool {
	return m.failing
}

// OnStateChanged registers a listener
func (m *Machine) OnStateChanged(l Listener) {
	m.listeners = append(m.listeners, l)
}

// Enqueue queues an intent for the next tick. Safe for concurrent use.
func (m *Machine) Enqueue(in Intent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbox = append(m.inbox, in)
}

// SetHold queues the hold input level
func (m *Machine) SetHold(held bool) { m.Enqueue(HoldIntent{Held: held}) }

// PressRelease queues a release edge
func (m *Machine) PressRelease() { m.Enqueue(ReleaseIntent{}) }

// Recall queues a manual recall
func (m *Machine) Recall() { m.Enqueue(RecallIntent{}) }

func (m *Machine) drain() []Intent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.inbox
	m.inbox = nil
	return out
}

// Stop detaches the agent from every collaborator. Further ticks do nothing.
// Calling Stop again is a no-op.
func (m *Machine) Stop() {
	if m.stopped {
		return
	}
	m.stopped = true
	m.active.Exit(m.context(m.now, 0))
	if m.svc.Scheduler != nil {
		m.svc.Scheduler.Cancel(m.agent.ID)
	}
}

// Stopped reports whether Stop was called
func (m *Machine) Stopped() bool {
	return m.stopped
}

// Tick advances the machine to simulation time now. It never fails; when
// nothing applies the agent holds its current state.
func (m *Machine) Tick(now, dt float64) {
	if m.stopped {
		return
	}
	m.tick++
	m.now = now
	m.agent.BeginTick(m.tick)
	intents := m.drain()
	c := m.context(now, dt)

	if !m.started {
		m.started = true
		m.enter(c)
		m.publish(Change{Agent: m.agent.ID, Kind: m.agent.Kind, From: m.state, To: m.state, Cause: CauseSpawn, At: now})
	}

	switch m.agent.Kind {
	case entity.KindPursuer:
		m.stepPursuer(c)
	default:
		m.stepCompanion(c, intents)
	}

	m.run(c)
}

func (m *Machine) context(now, dt float64) *motion.Context {
	c := &motion.Context{
		Agent:    m.agent,
		TargetID: m.target.ID(),
		Target:   m.lastPose,
		Now:      now,
		DT:       dt,
	}
	if m.target.Alive() {
		c.Target = m.target.Pose()
		m.lastPose = c.Target
		if a, ok := m.target.(entity.Aimer); ok {
			c.Aim = a.AimDirection()
		}
	}
	return c
}

// targetPresent tracks the target across ticks. It returns present when the
// target is alive, and lost once it has been gone for more than one tick; a
// single missing tick reports neither and the machine holds its state.
func (m *Machine) targetPresent() (present, lost bool) {
	if m.target.Alive() {
		m.missing = 0
		return true, false
	}
	m.missing++
	return false, m.missing > 1
}

// transition moves to next. Any cause other than the scheduler discards the
// pending deferred transition.
func (m *Machine) transition(c *motion.Context, next state.State, cause Cause) bool {
	from := m.state
	if !state.CanTransition(from, next) {
		return false
	}
	if cause != CauseDeferred && m.svc.Scheduler != nil {
		if m.svc.Scheduler.Cancel(m.agent.ID) {
			m.log.Debug(MsgDeferredDiscarded, "agent", m.agent.ID, "from", from, "to", next)
		}
	}

	m.active.Exit(c)
	m.state = next
	m.failing = false
	m.enter(c)

	m.publish(Change{Agent: m.agent.ID, Kind: m.agent.Kind, From: from, To: next, Cause: cause, At: c.Now})
	return true
}

func (m *Machine) enter(c *motion.Context) {
	m.active = m.authorities[m.state]
	if err := m.active.Enter(c); err != nil {
		m.fail(err)
	}
}

// run invokes the active authority once
func (m *Machine) run(c *motion.Context) {
	if err := m.active.Tick(c); err != nil {
		m.fail(err)
		return
	}
	if m.failing {
		m.failing = false
		m.log.Info(MsgPathingRecovered, "agent", m.agent.ID, "state", m.state)
	}
}

// fail logs a recoverable failure once per failure streak
func (m *Machine) fail(err error) {
	if m.failing {
		return
	}
	m.failing = true
	m.log.Warn(MsgPathingFailed, "agent", m.agent.ID, "state", m.state, "err", err)
}

func (m *Machine) publish(ch Change) {
	for _, l := range m.listeners {
		l(ch)
	}
}
