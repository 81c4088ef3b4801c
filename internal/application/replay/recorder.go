package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/younwookim/agentloco/internal/application/locomotion"
	"github.com/younwookim/agentloco/internal/application/system"
)

// Recorder handles input recording for replay
type Recorder struct {
	data      ReplayData
	recording bool
	frame     int
}

// NewRecorder creates a recorder for a session stepping step seconds per frame
func NewRecorder(configName string, step float64) *Recorder {
	return &Recorder{
		data: ReplayData{
			Version:   Version,
			RunID:     uuid.NewString(),
			Config:    configName,
			Step:      step,
			StartTime: time.Now().Format(time.RFC3339),
			Frames:    make([]FrameInput, 0, 3600), // Pre-allocate for ~1 minute at 60fps
		},
		recording: true,
	}
}

// RecordFrame records a single frame's input. Call it before stepping the
// frame.
func (r *Recorder) RecordFrame(input system.InputState) {
	if !r.recording {
		return
	}
	r.data.Frames = append(r.data.Frames, frameOf(r.frame, input))
	r.frame++
}

// RecordChange records a state change of the named agent against the last
// recorded frame
func (r *Recorder) RecordChange(agent string, c locomotion.Change) {
	if !r.recording {
		return
	}
	r.data.States = append(r.data.States, record(max(r.frame-1, 0), agent, c))
}

func record(frame int, agent string, c locomotion.Change) StateRecord {
	return StateRecord{
		F:     frame,
		Agent: agent,
		From:  c.From.String(),
		To:    c.To.String(),
		Cause: c.Cause.String(),
	}
}

// Save writes the replay data to a file
func (r *Recorder) Save(filename string) error {
	if len(r.data.Frames) == 0 {
		return fmt.Errorf("no frames to save")
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r.data); err != nil {
		return fmt.Errorf("failed to encode replay: %w", err)
	}

	return nil
}

// Stop stops recording
func (r *Recorder) Stop() {
	r.recording = false
}

// IsRecording returns whether recording is active
func (r *Recorder) IsRecording() bool {
	return r.recording
}

// FrameCount returns the number of recorded frames
func (r *Recorder) FrameCount() int {
	return len(r.data.Frames)
}

// Data returns the recorded data
func (r *Recorder) Data() ReplayData {
	return r.data
}

// GenerateFilename creates a filename based on current time
func GenerateFilename() string {
	return fmt.Sprintf("replay_%s.json", time.Now().Format("20060102_150405"))
}
