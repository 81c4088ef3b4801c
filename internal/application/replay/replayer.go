package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/younwookim/agentloco/internal/application/locomotion"
	"github.com/younwookim/agentloco/internal/application/sim"
	"github.com/younwookim/agentloco/internal/application/system"
)

// Replayer handles input playback from recorded data
type Replayer struct {
	data  ReplayData
	frame int
}

// NewReplayer creates a new replayer from replay data
func NewReplayer(data ReplayData) *Replayer {
	return &Replayer{data: data}
}

// LoadReplay loads replay data from a file
func LoadReplay(filename string) (*ReplayData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var data ReplayData
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode replay: %w", err)
	}
	if data.Step <= 0 {
		return nil, fmt.Errorf("failed to decode replay: step must be > 0, got %v", data.Step)
	}

	return &data, nil
}

// GetInput returns the input for the current frame and advances
func (r *Replayer) GetInput() (system.InputState, bool) {
	if r.frame >= len(r.data.Frames) {
		return system.InputState{}, false
	}

	fi := r.data.Frames[r.frame]
	r.frame++
	return fi.input(), true
}

// CurrentFrame returns the current frame number
func (r *Replayer) CurrentFrame() int {
	return r.frame
}

// TotalFrames returns the total number of frames
func (r *Replayer) TotalFrames() int {
	return len(r.data.Frames)
}

// RunID returns the id of the recorded session
func (r *Replayer) RunID() string {
	return r.data.RunID
}

// Reset resets the replayer to the beginning
func (r *Replayer) Reset() {
	r.frame = 0
}

// Run feeds every recorded frame to s, one step per frame, and returns the
// state changes the run produced
func (r *Replayer) Run(s *sim.Simulation) []StateRecord {
	var got []StateRecord
	frame := 0
	s.OnStateChanged(func(c locomotion.Change) {
		name := ""
		if a, ok := s.AgentByID(c.Agent); ok {
			name = a.Name
		}
		got = append(got, record(frame, name, c))
	})

	input := system.NewInputSystem()
	for {
		in, ok := r.GetInput()
		if !ok {
			break
		}
		frame = r.frame - 1
		s.Input(input.Intents(in)...)
		s.Step(r.data.Step)
	}
	return got
}

// Diff describes the first difference between two state traces, or returns
// "" when they match
func Diff(want, got []StateRecord) string {
	for i := 0; i < min(len(want), len(got)); i++ {
		if want[i] != got[i] {
			return fmt.Sprintf("change %d: want %+v, got %+v", i, want[i], got[i])
		}
	}
	switch {
	case len(got) < len(want):
		return fmt.Sprintf("change %d: want %+v, got nothing", len(got), want[len(got)])
	case len(got) > len(want):
		return fmt.Sprintf("change %d: unexpected %+v", len(want), got[len(want)])
	}
	return ""
}

// CreateTestReplayData creates replay data for testing (idle owner)
func CreateTestReplayData(frames int) ReplayData {
	data := ReplayData{
		Version:   Version,
		RunID:     uuid.NewString(),
		Config:    "test",
		Step:      1.0 / 60,
		StartTime: time.Now().Format(time.RFC3339),
		Frames:    make([]FrameInput, frames),
	}

	for i := 0; i < frames; i++ {
		data.Frames[i] = FrameInput{F: i}
	}

	return data
}
