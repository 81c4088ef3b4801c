package system

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/ecs"
)

type mockControls struct {
	holds    []bool
	releases int
	recalls  int
}

func (m *mockControls) SetHold(held bool) { m.holds = append(m.holds, held) }
func (m *mockControls) PressRelease()     { m.releases++ }
func (m *mockControls) Recall()           { m.recalls++ }

func TestNewInputSystem(t *testing.T) {
	sys := NewInputSystem()

	require.NotNil(t, sys)
	assert.False(t, sys.hold)
}

func TestInputSystem_Intents(t *testing.T) {
	tests := []struct {
		name string
		in   InputState
		want []Intent
	}{
		{name: "nothing", in: InputState{}},
		{name: "forward", in: InputState{Forward: true}, want: []Intent{MoveIntent{Forward: 1}}},
		{name: "opposing keys cancel", in: InputState{Forward: true, Back: true, Left: true}, want: []Intent{MoveIntent{Strafe: -1}}},
		{name: "turn right", in: InputState{TurnRight: true}, want: []Intent{TurnIntent{Amount: 1}}},
		{name: "release and recall", in: InputState{ReleasePressed: true, RecallPressed: true}, want: []Intent{ReleaseIntent{}, RecallIntent{}}},
		{name: "hold", in: InputState{Hold: true}, want: []Intent{HoldIntent{Held: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := NewInputSystem()

			got := sys.Intents(tt.in)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInputSystem_HoldReportedOnChange(t *testing.T) {
	sys := NewInputSystem()

	assert.Equal(t, []Intent{HoldIntent{Held: true}}, sys.Intents(InputState{Hold: true}))
	assert.Empty(t, sys.Intents(InputState{Hold: true}))
	assert.Equal(t, []Intent{HoldIntent{Held: false}}, sys.Intents(InputState{}))
	assert.Empty(t, sys.Intents(InputState{}))
}

func TestApplyIntents(t *testing.T) {
	w := ecs.NewWorld()
	owner, _ := w.CreateOwner("owner", entity.NewTransform(mgl64.Vec3{}), ecs.OwnerSpec{MoveSpeed: 4, TurnSpeed: 3})
	a, b := &mockControls{}, &mockControls{}
	companions := []Controls{a, b}

	ApplyIntents(w, owner, companions, []Intent{
		MoveIntent{Forward: 1, Strafe: -1},
		TurnIntent{Amount: -1},
		HoldIntent{Held: true},
		ReleaseIntent{},
		RecallIntent{},
	})

	assert.Equal(t, mgl64.Vec3{-1, 0, 1}, w.Walker[owner].Move)
	assert.Equal(t, -1.0, w.Walker[owner].Turn)
	for _, c := range []*mockControls{a, b} {
		assert.Equal(t, []bool{true}, c.holds)
		assert.Equal(t, 1, c.releases)
		assert.Equal(t, 1, c.recalls)
	}

	// Input is not sticky
	ApplyIntents(w, owner, companions, nil)

	assert.Equal(t, mgl64.Vec3{}, w.Walker[owner].Move)
	assert.Equal(t, 0.0, w.Walker[owner].Turn)
	assert.Equal(t, 4.0, w.Walker[owner].Speed)
}

func TestApplyIntents_NoOwner(t *testing.T) {
	w := ecs.NewWorld()
	c := &mockControls{}

	ApplyIntents(w, 42, []Controls{c}, []Intent{MoveIntent{Forward: 1}, ReleaseIntent{}})

	_, ok := w.Walker[42]
	assert.False(t, ok)
	assert.Equal(t, 1, c.releases)
}
