// Package audio plays looping cues that follow agent state changes.
package audio

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gopxl/beep"

	"github.com/younwookim/agentloco/internal/infrastructure/logging"
)

// SampleRate is the rate cues are generated at
const SampleRate = beep.SampleRate(44100)

// ErrUnknownCue is returned when a cue name has no generator
var ErrUnknownCue = errors.New("unknown cue")

// Generator builds an endless streamer for a cue
type Generator func(sr beep.SampleRate) beep.Streamer

var generators = map[string]Generator{
	"dribble": func(sr beep.SampleRate) beep.Streamer { return NewDribbleGenerator(sr) },
	"flight":  func(sr beep.SampleRate) beep.Streamer { return NewFlightGenerator(sr) },
}

// Names returns the known cue names, sorted
func Names() []string {
	names := make([]string, 0, len(generators))
	for n := range generators {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Known reports whether a generator exists for cue
func Known(cue string) bool {
	_, ok := generators[cue]
	return ok
}

type loop struct {
	cue  string
	ctrl *beep.Ctrl
}

// Cues mixes one loop per key (usually an agent name). It is itself a
// beep.Streamer to hand to the speaker.
type Cues struct {
	mu     sync.Mutex
	sr     beep.SampleRate
	mixer  *beep.Mixer
	active map[string]loop
	log    logging.Logger
}

// NewCues creates an empty cue player
func NewCues(sr beep.SampleRate, logger logging.Logger) *Cues {
	return &Cues{
		sr:     sr,
		mixer:  &beep.Mixer{},
		active: make(map[string]loop),
		log:    logging.OrNoOp(logger),
	}
}

// Start plays cue for key. A key already playing the same cue keeps going;
// a different cue replaces it.
func (c *Cues) Start(key, cue string) error {
	gen, ok := generators[cue]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCue, cue)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.active[key]; ok {
		if cur.cue == cue {
			return nil
		}
		cur.ctrl.Streamer = nil
	}
	ctrl := &beep.Ctrl{Streamer: gen(c.sr)}
	c.active[key] = loop{cue: cue, ctrl: ctrl}
	c.mixer.Add(ctrl)
	c.log.Debug("cue started", "key", key, "cue", cue)
	return nil
}

// Stop ends the loop of key, if any
func (c *Cues) Stop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur, ok := c.active[key]
	if !ok {
		return
	}
	// A nil streamer drains the ctrl, which drops it from the mixer
	cur.ctrl.Streamer = nil
	delete(c.active, key)
	c.log.Debug("cue stopped", "key", key, "cue", cur.cue)
}

// Playing returns the cue playing for key
func (c *Cues) Playing(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.active[key]
	return cur.cue, ok
}

// Close stops every loop
func (c *Cues) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, cur := range c.active {
		cur.ctrl.Streamer = nil
		delete(c.active, key)
	}
	c.mixer.Clear()
}

// Stream mixes the active loops
func (c *Cues) Stream(samples [][2]float64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mixer.Stream(samples)
}

func (c *Cues) Err() error { return nil }
