package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
)

// DribbleGenerator produces a short low thump on every bounce
type DribbleGenerator struct {
	sr     beep.SampleRate
	pos    int
	period int
	thump  int
}

// NewDribbleGenerator creates a dribble generator
func NewDribbleGenerator(sr beep.SampleRate) *DribbleGenerator {
	return &DribbleGenerator{
		sr:     sr,
		period: sr.N(450 * time.Millisecond),
		thump:  sr.N(70 * time.Millisecond),
	}
}

func (g *DribbleGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		p := g.pos % g.period
		sample := 0.0
		if p < g.thump {
			t := float64(p) / float64(g.sr)
			decay := 1 - float64(p)/float64(g.thump)
			sample = 0.3 * decay * decay * math.Sin(2*math.Pi*90*t)
		}
		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *DribbleGenerator) Err() error {
	return nil
}

// FlightGenerator produces a wing buzz
type FlightGenerator struct {
	sr  beep.SampleRate
	pos int
}

// NewFlightGenerator creates a flight generator
func NewFlightGenerator(sr beep.SampleRate) *FlightGenerator {
	return &FlightGenerator{sr: sr}
}

func (g *FlightGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		flap := 0.5 + 0.5*math.Sin(2*math.Pi*22*t)
		sample := 0.12 * flap * math.Sin(2*math.Pi*180*t)
		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *FlightGenerator) Err() error {
	return nil
}
