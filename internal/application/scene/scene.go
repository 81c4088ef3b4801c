// Package scene defines the Scene interface for viewer screens.
//
// Each screen (the sandbox, a replay viewer) implements Scene to handle its
// own update logic and rendering.
package scene

import "github.com/hajimehoshi/ebiten/v2"

// Scene is one screen of the viewer. The game loop delegates Update and
// Draw calls to the current scene.
type Scene interface {
	// Update advances the scene by dt seconds and returns the next scene,
	// or nil to stay. An error terminates the loop.
	Update(dt float64) (next Scene, err error)

	// Draw renders the scene to the screen.
	Draw(screen *ebiten.Image)

	// OnEnter is called each time the scene becomes current.
	OnEnter()

	// OnExit is called when leaving the scene or when the loop stops.
	OnExit()
}
