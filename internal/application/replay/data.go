package replay

import "github.com/younwookim/agentloco/internal/application/system"

// Version is the trace format written by Recorder
const Version = "2.0"

// FrameInput records owner input for a single frame
type FrameInput struct {
	F   int  `json:"f"`             // Frame number
	Fw  bool `json:"fw,omitempty"`  // Forward
	Bk  bool `json:"bk,omitempty"`  // Back
	L   bool `json:"l,omitempty"`   // Left
	R   bool `json:"r,omitempty"`   // Right
	TL  bool `json:"tl,omitempty"`  // TurnLeft
	TR  bool `json:"tr,omitempty"`  // TurnRight
	H   bool `json:"h,omitempty"`   // Hold
	RP  bool `json:"rp,omitempty"`  // ReleasePressed
	RCP bool `json:"rcp,omitempty"` // RecallPressed
}

// StateRecord is a state change observed while stepping a frame
type StateRecord struct {
	F     int    `json:"f"`
	Agent string `json:"a"`
	From  string `json:"from"`
	To    string `json:"to"`
	Cause string `json:"c"`
}

// ReplayData contains all data needed to replay a session
type ReplayData struct {
	Version   string        `json:"version"`
	RunID     string        `json:"runId"`
	Config    string        `json:"config"` // Config directory the session ran with
	Step      float64       `json:"step"`   // Seconds per frame
	StartTime string        `json:"startTime"`
	Frames    []FrameInput  `json:"frames"`
	States    []StateRecord `json:"states,omitempty"`
}

func frameOf(f int, in system.InputState) FrameInput {
	return FrameInput{
		F:   f,
		Fw:  in.Forward,
		Bk:  in.Back,
		L:   in.Left,
		R:   in.Right,
		TL:  in.TurnLeft,
		TR:  in.TurnRight,
		H:   in.Hold,
		RP:  in.ReleasePressed,
		RCP: in.RecallPressed,
	}
}

func (fi FrameInput) input() system.InputState {
	return system.InputState{
		Forward:        fi.Fw,
		Back:           fi.Bk,
		Left:           fi.L,
		Right:          fi.R,
		TurnLeft:       fi.TL,
		TurnRight:      fi.TR,
		Hold:           fi.H,
		ReleasePressed: fi.RP,
		RecallPressed:  fi.RCP,
	}
}
