// Package sandbox provides the interactive top-down viewer scene.
package sandbox

import (
	"fmt"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/younwookim/agentloco/internal/application/locomotion"
	"github.com/younwookim/agentloco/internal/application/replay"
	"github.com/younwookim/agentloco/internal/application/scene"
	"github.com/younwookim/agentloco/internal/application/sim"
	"github.com/younwookim/agentloco/internal/application/state"
	"github.com/younwookim/agentloco/internal/application/system"
	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/domain/geom"
	"github.com/younwookim/agentloco/internal/infrastructure/audio"
	"github.com/younwookim/agentloco/internal/infrastructure/config"
	"github.com/younwookim/agentloco/internal/infrastructure/logging"
	"github.com/younwookim/agentloco/internal/infrastructure/script"
)

// Colors for rendering
var (
	colorBG       = color.RGBA{26, 26, 46, 255}
	colorSurface  = color.RGBA{40, 52, 44, 255}
	colorWall     = color.RGBA{80, 80, 100, 255}
	colorOwner    = color.RGBA{100, 200, 100, 255}
	colorTarget   = color.RGBA{200, 100, 100, 255}
	colorRoute    = color.RGBA{255, 255, 255, 90}
	colorHealthBG = color.RGBA{60, 60, 60, 255}
	colorHealthFG = color.RGBA{100, 200, 100, 255}
	colorDead     = color.RGBA{90, 90, 90, 255}
)

var stateColors = map[state.State]color.RGBA{
	state.StateCarried:   {255, 215, 0, 255},
	state.StatePrepared:  {255, 160, 40, 255},
	state.StateReleased:  {255, 100, 100, 255},
	state.StateReturning: {120, 180, 255, 255},
	state.StateDetached:  {150, 150, 150, 255},
	state.StateIdle:      {170, 120, 200, 255},
	state.StateChasing:   {230, 90, 200, 255},
	state.StateAttacking: {255, 40, 40, 255},
}

// Options configure a sandbox scene
type Options struct {
	Logger     logging.Logger
	Cues       *audio.Cues   // Loop cue player; nil plays nothing
	RecordPath string        // Non-empty records owner input to this file
	Reloads    <-chan string // Changed config files; nil disables hot reload
}

// Sandbox lets a user drive the owner and watch every agent react
type Sandbox struct {
	loader *config.Loader
	log    logging.Logger
	cues   *audio.Cues

	sim   *sim.Simulation
	input *system.InputSystem

	reloads    <-chan string
	recorder   *replay.Recorder
	recordPath string

	paused  bool
	lastErr string
	screenW int
	screenH int
	ppm     float64
	dt      float64
}

// New loads the configuration from loader and builds the first simulation
func New(loader *config.Loader, opts Options) (*Sandbox, error) {
	p := &Sandbox{
		loader:     loader,
		log:        logging.OrNoOp(opts.Logger),
		cues:       opts.Cues,
		input:      system.NewInputSystem(),
		reloads:    opts.Reloads,
		recordPath: opts.RecordPath,
	}
	s, err := p.build()
	if err != nil {
		return nil, err
	}
	p.swap(s)
	return p, nil
}

// Sim returns the running simulation
func (p *Sandbox) Sim() *sim.Simulation { return p.sim }

// Recorder returns the active recorder, or nil when not recording
func (p *Sandbox) Recorder() *replay.Recorder { return p.recorder }

// build loads the config and creates a simulation from it
func (p *Sandbox) build() (*sim.Simulation, error) {
	cfg, err := p.loader.LoadAll()
	if err != nil {
		return nil, err
	}
	opts := sim.Options{Logger: p.log, Cues: p.cues}
	if len(cfg.Hooks) > 0 {
		hooks, err := script.Compile(cfg.Hooks)
		if err != nil {
			return nil, err
		}
		opts.Hooks = hooks
	}
	return sim.New(cfg, opts)
}

// swap replaces the running simulation, restarting the recording
func (p *Sandbox) swap(s *sim.Simulation) {
	if p.sim != nil {
		p.saveRecording()
		p.sim.Close()
	}
	p.sim = s
	p.input = system.NewInputSystem()

	display := displayOrDefault(s.Config().World.Display)
	p.screenW, p.screenH = display.ScreenWidth, display.ScreenHeight
	p.ppm = display.PixelsPerM
	p.dt = 1.0 / float64(display.Framerate)

	if p.recordPath != "" {
		p.recorder = replay.NewRecorder(p.loader.BasePath(), p.dt)
		s.OnStateChanged(func(c locomotion.Change) {
			if a, ok := s.AgentByID(c.Agent); ok {
				p.recorder.RecordChange(a.Name, c)
			}
		})
		p.log.Info("recording enabled", "file", p.recordPath, "run", p.recorder.Data().RunID)
	}
}

func displayOrDefault(d config.DisplayConfig) config.DisplayConfig {
	if d.ScreenWidth <= 0 || d.ScreenHeight <= 0 {
		d.ScreenWidth, d.ScreenHeight = 640, 480
	}
	if d.PixelsPerM <= 0 {
		d.PixelsPerM = 14
	}
	if d.Framerate <= 0 {
		d.Framerate = 60
	}
	return d
}

// Reload rebuilds the simulation from the config on disk. On failure the
// running simulation is kept and the error is shown on screen.
func (p *Sandbox) Reload() error {
	s, err := p.build()
	if err != nil {
		p.lastErr = err.Error()
		p.log.Warn("config reload failed", "error", err)
		return err
	}
	p.lastErr = ""
	p.swap(s)
	p.log.Info("config reloaded", "dir", p.loader.BasePath())
	return nil
}

// Update steps the simulation with the current keyboard state (implements scene.Scene)
func (p *Sandbox) Update(_ float64) (scene.Scene, error) {
	p.pollReloads()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		p.paused = !p.paused
	}
	if p.paused {
		return nil, nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		p.saveRecording()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF9) {
		_ = p.Reload()
	}

	p.Step(p.input.GetInput())
	return nil, nil
}

// Step records in and advances the simulation one frame
func (p *Sandbox) Step(in system.InputState) {
	if p.recorder != nil {
		p.recorder.RecordFrame(in)
	}
	p.sim.Input(p.input.Intents(in)...)
	p.sim.Step(p.dt)
}

func (p *Sandbox) pollReloads() {
	if p.reloads == nil {
		return
	}
	for {
		select {
		case name, ok := <-p.reloads:
			if !ok {
				p.reloads = nil
				return
			}
			p.log.Info("config changed", "file", name)
			_ = p.Reload()
		default:
			return
		}
	}
}

// saveRecording saves the current recording to file
func (p *Sandbox) saveRecording() {
	if p.recorder == nil || p.recorder.FrameCount() == 0 {
		return
	}
	if err := p.recorder.Save(p.recordPath); err != nil {
		p.log.Error("failed to save recording", "file", p.recordPath, "error", err)
		return
	}
	p.log.Info("recording saved", "file", p.recordPath, "frames", p.recorder.FrameCount())
}

// OnEnter implements scene.Scene
func (p *Sandbox) OnEnter() {}

// OnExit saves the recording and stops every agent
func (p *Sandbox) OnExit() {
	p.saveRecording()
	p.sim.Close()
}

// Layout returns the logical screen size from the display config
func (p *Sandbox) Layout() (int, int) {
	return p.screenW, p.screenH
}

// Framerate returns the fixed steps per second
func (p *Sandbox) Framerate() int {
	return int(math.Round(1 / p.dt))
}

// project maps a world position to screen space around the camera. +Z is up
// on screen and +X is right.
func (p *Sandbox) project(cam, pos mgl64.Vec3) (float32, float32) {
	x := float64(p.screenW)/2 + (pos.X()-cam.X())*p.ppm
	y := float64(p.screenH)/2 - (pos.Z()-cam.Z())*p.ppm
	return float32(x), float32(y)
}

// Draw renders the world top-down, centered on the owner
func (p *Sandbox) Draw(screen *ebiten.Image) {
	screen.Fill(colorBG)

	w := p.sim.World()
	cam, _ := w.PoseOf(w.OwnerID)

	p.drawGround(screen, cam.Position)
	p.drawTargets(screen, cam.Position)
	p.drawOwner(screen, cam)
	p.drawAgents(screen, cam.Position)
	p.drawUI(screen)

	if p.paused {
		p.drawPauseOverlay(screen)
	}
}

func (p *Sandbox) drawGround(screen *ebiten.Image, cam mgl64.Vec3) {
	for _, s := range p.sim.Config().World.Navigation.Surfaces {
		x0, y0 := p.project(cam, mgl64.Vec3{s.MinX, 0, s.MaxZ})
		x1, y1 := p.project(cam, mgl64.Vec3{s.MaxX, 0, s.MinZ})
		vector.FillRect(screen, x0, y0, x1-x0, y1-y0, colorSurface, false)
	}
	for _, id := range p.sim.World().Obstacles() {
		b := p.sim.World().Box[id]
		x0, y0 := p.project(cam, mgl64.Vec3{b.Min.X(), 0, b.Max.Z()})
		x1, y1 := p.project(cam, mgl64.Vec3{b.Max.X(), 0, b.Min.Z()})
		vector.FillRect(screen, x0, y0, x1-x0, y1-y0, colorWall, false)
	}
}

func (p *Sandbox) drawTargets(screen *ebiten.Image, cam mgl64.Vec3) {
	w := p.sim.World()
	for _, id := range w.Targets() {
		x, y := p.project(cam, w.Pose[id].Position)
		r := float32(w.Volume[id].Radius * p.ppm)
		c := colorTarget
		if !w.Alive(id) {
			c = colorDead
		}
		vector.StrokeCircle(screen, x, y, r, 2, c, true)
		if h, ok := w.Health[id]; ok {
			ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s %d", w.Name[id], h.Current), int(x-r), int(y+r))
		}
	}
}

func (p *Sandbox) drawOwner(screen *ebiten.Image, pose entity.Transform) {
	w := p.sim.World()
	x, y := p.project(pose.Position, pose.Position)
	r := float32(w.Volume[w.OwnerID].Radius * p.ppm)

	c := colorOwner
	if !w.Alive(w.OwnerID) {
		c = colorDead
	}
	vector.StrokeCircle(screen, x, y, r, 2, c, true)

	// Facing
	fwd := geom.ForwardOf(pose.Orientation)
	vector.StrokeLine(screen, x, y, x+float32(fwd.X())*r*2, y-float32(fwd.Z())*r*2, 2, c, true)
}

func (p *Sandbox) drawAgents(screen *ebiten.Image, cam mgl64.Vec3) {
	for _, a := range p.sim.Agents() {
		body := a.Machine.Agent()

		if route := p.sim.Mesh().Route(body); len(route) > 0 {
			px, py := p.project(cam, body.Position())
			for _, pt := range route {
				x, y := p.project(cam, pt)
				vector.StrokeLine(screen, px, py, x, y, 1, colorRoute, true)
				px, py = x, y
			}
		}

		x, y := p.project(cam, body.Position())
		size := float32(math.Max(body.Radius*p.ppm*2, 4))
		c := stateColors[a.Machine.State()]
		vector.FillRect(screen, x-size/2, y-size/2, size, size, c, false)

		label := fmt.Sprintf("%s %s", a.Name, a.Machine.State())
		if a.Machine.Failing() {
			label += " !"
		}
		ebitenutil.DebugPrintAt(screen, label, int(x+size), int(y-size))
	}
}

func (p *Sandbox) drawUI(screen *ebiten.Image) {
	w := p.sim.World()

	// Health bar
	barX := float32(10)
	barY := float32(p.screenH - 20)
	barW := float32(100)
	barH := float32(10)
	vector.FillRect(screen, barX, barY, barW, barH, colorHealthBG, false)

	if h, ok := w.Health[w.OwnerID]; ok && h.Max > 0 {
		ratio := math.Max(float64(h.Current)/float64(h.Max), 0)
		vector.FillRect(screen, barX, barY, barW*float32(ratio), barH, colorHealthFG, false)
	}

	status := fmt.Sprintf("t=%.2f tick=%d", p.sim.Now(), p.sim.Tick())
	if p.recorder != nil {
		status += fmt.Sprintf(" rec %d", p.recorder.FrameCount())
	}
	ebitenutil.DebugPrintAt(screen, status, 10, p.screenH-35)

	if p.lastErr != "" {
		ebitenutil.DebugPrintAt(screen, "reload failed: "+p.lastErr, 10, 20)
	}

	// Controls
	ebitenutil.DebugPrint(screen, "WASD: Move | Q/E: Turn | Shift/RClick: Hold | Space/LClick: Release | R: Recall | F9: Reload | ESC: Pause")
}

func (p *Sandbox) drawPauseOverlay(screen *ebiten.Image) {
	overlay := color.RGBA{0, 0, 0, 128}
	vector.FillRect(screen, 0, 0, float32(p.screenW), float32(p.screenH), overlay, false)

	text := "PAUSED\n\nPress ESC to resume"
	ebitenutil.DebugPrintAt(screen, text, p.screenW/2-50, p.screenH/2-20)
}
