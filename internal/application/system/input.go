package system

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/ecs"
)

// InputSystem turns owner input into intents
type InputSystem struct {
	hold bool
}

// NewInputSystem creates a new input system
func NewInputSystem() *InputSystem {
	return &InputSystem{}
}

// InputState holds the current input state
type InputState struct {
	Forward   bool
	Back      bool
	Left      bool
	Right     bool
	TurnLeft  bool
	TurnRight bool

	Hold           bool // Level
	ReleasePressed bool // Edge
	RecallPressed  bool // Edge
}

// GetInput reads the current input state
func (s *InputSystem) GetInput() InputState {
	return InputState{
		Forward:        ebiten.IsKeyPressed(ebiten.KeyW),
		Back:           ebiten.IsKeyPressed(ebiten.KeyS),
		Left:           ebiten.IsKeyPressed(ebiten.KeyA),
		Right:          ebiten.IsKeyPressed(ebiten.KeyD),
		TurnLeft:       ebiten.IsKeyPressed(ebiten.KeyQ) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft),
		TurnRight:      ebiten.IsKeyPressed(ebiten.KeyE) || ebiten.IsKeyPressed(ebiten.KeyArrowRight),
		Hold:           ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight),
		ReleasePressed: inpututil.IsKeyJustPressed(ebiten.KeySpace) || inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft),
		RecallPressed:  inpututil.IsKeyJustPressed(ebiten.KeyR),
	}
}

// Intents converts input to intents. Hold is reported only when its level
// changes; release and recall are edges.
func (s *InputSystem) Intents(in InputState) []Intent {
	var out []Intent

	forward, strafe := axis(in.Back, in.Forward), axis(in.Left, in.Right)
	if forward != 0 || strafe != 0 {
		out = append(out, MoveIntent{Forward: forward, Strafe: strafe})
	}
	if turn := axis(in.TurnLeft, in.TurnRight); turn != 0 {
		out = append(out, TurnIntent{Amount: turn})
	}
	if in.Hold != s.hold {
		s.hold = in.Hold
		out = append(out, HoldIntent{Held: in.Hold})
	}
	if in.ReleasePressed {
		out = append(out, ReleaseIntent{})
	}
	if in.RecallPressed {
		out = append(out, RecallIntent{})
	}
	return out
}

func axis(neg, pos bool) float64 {
	v := 0.0
	if neg {
		v--
	}
	if pos {
		v++
	}
	return v
}

// Controls is the companion side of owner input
type Controls interface {
	SetHold(held bool)
	PressRelease()
	Recall()
}

// ApplyIntents drives the owner's walker and forwards companion controls.
// Walker input not repeated this frame is cleared.
func ApplyIntents(w *ecs.World, owner entity.EntityID, companions []Controls, intents []Intent) {
	wk, hasWalker := w.Walker[owner]
	wk.Move = mgl64.Vec3{}
	wk.Turn = 0

	for _, in := range intents {
		switch v := in.(type) {
		case MoveIntent:
			wk.Move = mgl64.Vec3{v.Strafe, 0, v.Forward}
		case TurnIntent:
			wk.Turn = v.Amount
		case HoldIntent:
			for _, c := range companions {
				c.SetHold(v.Held)
			}
		case ReleaseIntent:
			for _, c := range companions {
				c.PressRelease()
			}
		case RecallIntent:
			for _, c := range companions {
				c.Recall()
			}
		}
	}

	if hasWalker {
		w.Walker[owner] = wk
	}
}
