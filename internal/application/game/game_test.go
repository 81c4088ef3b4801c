package game

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"

	"github.com/younwookim/agentloco/internal/application/scene"
)

// mockScene is a test double for Scene interface
type mockScene struct {
	updateCalled  int
	drawCalled    int
	onEnterCalled int
	onExitCalled  int
	lastDT        float64
	nextScene     scene.Scene
	updateErr     error
}

func (m *mockScene) Update(dt float64) (scene.Scene, error) {
	m.updateCalled++
	m.lastDT = dt
	return m.nextScene, m.updateErr
}

func (m *mockScene) Draw(screen *ebiten.Image) {
	m.drawCalled++
}

func (m *mockScene) OnEnter() {
	m.onEnterCalled++
}

func (m *mockScene) OnExit() {
	m.onExitCalled++
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		framerate int
		dt        float64
	}{
		{name: "60 fps", framerate: 60, dt: 1.0 / 60},
		{name: "30 fps", framerate: 30, dt: 1.0 / 30},
		{name: "unset", framerate: 0, dt: 1.0 / 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initial := &mockScene{}
			g := New(initial, 320, 240, tt.framerate)

			assert.Equal(t, 1, initial.onEnterCalled, "OnEnter should be called on initial scene")
			assert.InDelta(t, tt.dt, g.DT(), 1e-12)
		})
	}
}

func TestGame_Update_DelegatesToCurrentScene(t *testing.T) {
	initial := &mockScene{}
	g := New(initial, 320, 240, 50)

	err := g.Update()
	assert.NoError(t, err)
	assert.Equal(t, 1, initial.updateCalled, "Update should delegate to current scene")
	assert.InDelta(t, 0.02, initial.lastDT, 1e-12)
}

func TestGame_Layout(t *testing.T) {
	g := New(&mockScene{}, 320, 240, 60)

	w, h := g.Layout(640, 480)
	assert.Equal(t, 320, w)
	assert.Equal(t, 240, h)
}

func TestGame_SceneTransition(t *testing.T) {
	scene1 := &mockScene{}
	scene2 := &mockScene{}
	scene1.nextScene = scene2

	g := New(scene1, 320, 240, 60)

	err := g.Update()
	assert.NoError(t, err)
	assert.Equal(t, 1, scene1.updateCalled, "scene1 Update called")
	assert.Equal(t, 1, scene1.onExitCalled, "scene1 OnExit called on transition")
	assert.Equal(t, 1, scene2.onEnterCalled, "scene2 OnEnter called on transition")

	err = g.Update()
	assert.NoError(t, err)
	assert.Equal(t, 1, scene2.updateCalled, "scene2 Update called")
}

func TestGame_NoTransitionWhenNil(t *testing.T) {
	scene1 := &mockScene{}
	g := New(scene1, 320, 240, 60)

	for i := 0; i < 5; i++ {
		assert.NoError(t, g.Update())
	}

	assert.Equal(t, 5, scene1.updateCalled, "All updates go to scene1")
	assert.Equal(t, 0, scene1.onExitCalled, "No OnExit when no transition")
}

func TestGame_UpdateError(t *testing.T) {
	g := New(&mockScene{updateErr: assert.AnError}, 320, 240, 60)

	assert.ErrorIs(t, g.Update(), assert.AnError)
}

func TestGame_Close(t *testing.T) {
	initial := &mockScene{}
	g := New(initial, 320, 240, 60)

	g.Close()
	g.Close()
	assert.Equal(t, 1, initial.onExitCalled)
}
