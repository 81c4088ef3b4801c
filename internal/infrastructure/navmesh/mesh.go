// Package navmesh is a grid navigation service over axis-aligned walkable
// surfaces.
//
// Surfaces and obstacles are rectangles in the XZ plane stored as static
// shapes in two cp spaces (cp X is world X, cp Y is world Z). Point queries
// against those spaces answer snapping and walkability; routes are planned
// with A* over a grid baked from them.
package navmesh

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"

	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/domain/geom"
	"github.com/younwookim/agentloco/internal/infrastructure/logging"
)

// Writer is the name the mesh writes agent transforms under
const Writer = "navmesh"

const (
	defaultCellSize = 0.5
	arriveEpsilon   = 1e-6
)

// ErrNoPath is returned when the destination is off the mesh or unreachable
var ErrNoPath = errors.New("navmesh: no path to destination")

// Rect is an axis-aligned rectangle in the XZ plane
type Rect struct {
	MinX, MinZ float64
	MaxX, MaxZ float64
}

// Contains reports whether (x, z) lies inside r, edges included
func (r Rect) Contains(x, z float64) bool {
	return x >= r.MinX && x <= r.MaxX && z >= r.MinZ && z <= r.MaxZ
}

func (r Rect) bb() cp.BB {
	return cp.BB{L: r.MinX, B: r.MinZ, R: r.MaxX, T: r.MaxZ}
}

// Surface is a walkable rectangle at a fixed height
type Surface struct {
	Name   string
	Area   Rect
	Height float64
}

// Config configures a mesh
type Config struct {
	CellSize  float64 // Grid resolution
	Clearance float64 // Cells closer than this to an obstacle are blocked
}

type cell struct {
	x, z int
}

type route struct {
	goal     cell
	dest     mgl64.Vec3
	waypoint []mgl64.Vec3
	next     int
}

// Mesh implements motion.Pathing
type Mesh struct {
	cfg Config
	log logging.Logger

	surfaces  *cp.Space
	obstacles *cp.Space
	heights   map[*cp.Shape]float64
	bounds    Rect
	empty     bool

	dirty   bool
	gridW   int
	gridH   int
	walk    []bool
	groundY []float64

	routes map[entity.EntityID]*route
}

// New creates an empty mesh
func New(cfg Config, logger logging.Logger) *Mesh {
	if cfg.CellSize <= 0 {
		cfg.CellSize = defaultCellSize
	}
	return &Mesh{
		cfg:       cfg,
		log:       logging.OrNoOp(logger),
		surfaces:  cp.NewSpace(),
		obstacles: cp.NewSpace(),
		heights:   make(map[*cp.Shape]float64),
		empty:     true,
		routes:    make(map[entity.EntityID]*route),
	}
}

// AddSurface registers a walkable surface
func (m *Mesh) AddSurface(s Surface) {
	shape := cp.NewBox2(m.surfaces.StaticBody, s.Area.bb(), 0)
	m.surfaces.AddShape(shape)
	m.heights[shape] = s.Height

	if m.empty {
		m.bounds = s.Area
		m.empty = false
	} else {
		m.bounds.MinX = math.Min(m.bounds.MinX, s.Area.MinX)
		m.bounds.MinZ = math.Min(m.bounds.MinZ, s.Area.MinZ)
		m.bounds.MaxX = math.Max(m.bounds.MaxX, s.Area.MaxX)
		m.bounds.MaxZ = math.Max(m.bounds.MaxZ, s.Area.MaxZ)
	}
	m.dirty = true
}

// AddObstacle registers a blocking rectangle
func (m *Mesh) AddObstacle(r Rect) {
	m.obstacles.AddShape(cp.NewBox2(m.obstacles.StaticBody, r.bb(), 0))
	m.dirty = true
}

// Bounds returns the union of all surfaces
func (m *Mesh) Bounds() (Rect, bool) {
	return m.bounds, !m.empty
}

// nearestSurface returns the closest surface point within maxDist in XZ
func (m *Mesh) nearestSurface(x, z, maxDist float64) (mgl64.Vec3, bool) {
	info := m.surfaces.PointQueryNearest(cp.Vector{X: x, Y: z}, maxDist, cp.SHAPE_FILTER_ALL)
	if info == nil || info.Shape == nil {
		return mgl64.Vec3{}, false
	}
	h := m.heights[info.Shape]
	if info.Distance <= 0 {
		return mgl64.Vec3{x, h, z}, true
	}
	return mgl64.Vec3{info.Point.X, h, info.Point.Y}, true
}

func (m *Mesh) blocked(x, z float64) bool {
	info := m.obstacles.PointQueryNearest(cp.Vector{X: x, Y: z}, m.cfg.Clearance, cp.SHAPE_FILTER_ALL)
	return info != nil && info.Shape != nil && info.Distance < m.cfg.Clearance
}

// TrySnapToSurface returns the nearest walkable point strictly within radius
// of point.
func (m *Mesh) TrySnapToSurface(point mgl64.Vec3, radius float64) (mgl64.Vec3, bool) {
	if m.empty || radius <= 0 {
		return mgl64.Vec3{}, false
	}
	snapped, ok := m.nearestSurface(point.X(), point.Z(), radius)
	if !ok || m.blocked(snapped.X(), snapped.Z()) {
		return mgl64.Vec3{}, false
	}
	if geom.Distance(point, snapped) >= radius {
		return mgl64.Vec3{}, false
	}
	return snapped, true
}

// Walkable reports whether the surface point under (x, z) can be stood on
func (m *Mesh) Walkable(x, z float64) bool {
	m.bake()
	c, ok := m.cellAt(x, z)
	return ok && m.walk[m.index(c)]
}

func (m *Mesh) bake() {
	if !m.dirty {
		return
	}
	m.dirty = false
	if m.empty {
		m.gridW, m.gridH = 0, 0
		m.walk, m.groundY = nil, nil
		return
	}

	size := m.cfg.CellSize
	m.gridW = int(math.Ceil((m.bounds.MaxX - m.bounds.MinX) / size))
	m.gridH = int(math.Ceil((m.bounds.MaxZ - m.bounds.MinZ) / size))
	m.gridW = max(m.gridW, 1)
	m.gridH = max(m.gridH, 1)
	m.walk = make([]bool, m.gridW*m.gridH)
	m.groundY = make([]float64, m.gridW*m.gridH)

	for z := 0; z < m.gridH; z++ {
		for x := 0; x < m.gridW; x++ {
			c := cell{x: x, z: z}
			center := m.center(c)
			p, ok := m.nearestSurface(center.X(), center.Z(), 0)
			idx := m.index(c)
			m.walk[idx] = ok && !m.blocked(center.X(), center.Z())
			m.groundY[idx] = p.Y()
		}
	}
	m.log.Debug("navmesh baked", "width", m.gridW, "height", m.gridH, "cellSize", size)
}

func (m *Mesh) index(c cell) int {
	return c.z*m.gridW + c.x
}

func (m *Mesh) cellAt(x, z float64) (cell, bool) {
	if m.gridW == 0 || !m.bounds.Contains(x, z) {
		return cell{}, false
	}
	size := m.cfg.CellSize
	c := cell{
		x: int(math.Floor((x - m.bounds.MinX) / size)),
		z: int(math.Floor((z - m.bounds.MinZ) / size)),
	}
	// The max edges belong to the last row and column
	c.x = min(c.x, m.gridW-1)
	c.z = min(c.z, m.gridH-1)
	return c, true
}

func (m *Mesh) center(c cell) mgl64.Vec3 {
	size := m.cfg.CellSize
	return mgl64.Vec3{
		m.bounds.MinX + (float64(c.x)+0.5)*size,
		0,
		m.bounds.MinZ + (float64(c.z)+0.5)*size,
	}
}

func (m *Mesh) waypoint(c cell) mgl64.Vec3 {
	p := m.center(c)
	p[1] = m.groundY[m.index(c)]
	return p
}

// Warp places the agent at point and drops its route
func (m *Mesh) Warp(a *entity.Agent, point mgl64.Vec3) {
	delete(m.routes, a.ID)
	a.HasDestination = false
	a.SetTransform(Writer, entity.Transform{Position: point, Orientation: a.Transform().Orientation})
}

// SetDestination plans a route from the agent to point. The route is kept
// while the destination stays in the same cell.
func (m *Mesh) SetDestination(a *entity.Agent, point mgl64.Vec3) error {
	m.bake()
	goal, ok := m.cellAt(point.X(), point.Z())
	if !ok || !m.walk[m.index(goal)] {
		return ErrNoPath
	}
	dest := point
	dest[1] = m.groundY[m.index(goal)]

	if r, ok := m.routes[a.ID]; ok && r.goal == goal {
		r.dest = dest
		if len(r.waypoint) > 0 {
			r.waypoint[len(r.waypoint)-1] = dest
		}
		a.Destination, a.HasDestination = dest, true
		return nil
	}

	pos := a.Position()
	start, ok := m.cellAt(pos.X(), pos.Z())
	if !ok || !m.walk[m.index(start)] {
		return ErrNoPath
	}
	cells := m.astar(start, goal)
	if cells == nil {
		return ErrNoPath
	}

	r := &route{goal: goal, dest: dest}
	// Skip the cell the agent already stands in
	for _, c := range cells[1:] {
		r.waypoint = append(r.waypoint, m.waypoint(c))
	}
	if len(r.waypoint) == 0 {
		r.waypoint = []mgl64.Vec3{dest}
	} else {
		r.waypoint[len(r.waypoint)-1] = dest
	}
	m.routes[a.ID] = r
	a.Destination, a.HasDestination = dest, true
	return nil
}

// IsPathfindingActive reports whether the agent has an unfinished route
func (m *Mesh) IsPathfindingActive(a *entity.Agent) bool {
	r, ok := m.routes[a.ID]
	return ok && r.next < len(r.waypoint)
}

// Advance moves the agent along its route by speed*dt
func (m *Mesh) Advance(a *entity.Agent, speed, dt float64) {
	r, ok := m.routes[a.ID]
	if !ok || r.next >= len(r.waypoint) {
		return
	}
	cur := a.Transform()
	pos := cur.Position
	budget := speed * dt
	for budget > 0 && r.next < len(r.waypoint) {
		wp := r.waypoint[r.next]
		d := geom.Distance(pos, wp)
		if d <= budget+arriveEpsilon {
			pos = wp
			budget -= d
			r.next++
			continue
		}
		pos = geom.MoveTowards(pos, wp, budget)
		budget = 0
	}

	rot := cur.Orientation
	if dir := geom.Flatten(pos.Sub(cur.Position)); geom.SafeNormalize(dir) != (mgl64.Vec3{}) {
		rot = geom.LookRotation(dir)
	}
	a.SetTransform(Writer, entity.Transform{Position: pos, Orientation: rot})
}

// Stop drops the agent's route
func (m *Mesh) Stop(a *entity.Agent) {
	delete(m.routes, a.ID)
	a.HasDestination = false
}

// Route returns the remaining waypoints of the agent
func (m *Mesh) Route(a *entity.Agent) []mgl64.Vec3 {
	r, ok := m.routes[a.ID]
	if !ok {
		return nil
	}
	out := make([]mgl64.Vec3, len(r.waypoint)-r.next)
	copy(out, r.waypoint[r.next:])
	return out
}
