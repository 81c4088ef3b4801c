package config

import "github.com/go-gl/mathgl/mgl64"

// WorldConfig is the root config for world.json
type WorldConfig struct {
	Display    DisplayConfig      `json:"display"`
	Physics    PhysicsSettings    `json:"physics"`
	Navigation NavigationConfig   `json:"navigation"`
	Owner      OwnerConfig        `json:"owner"`
	Combat     CombatConfig       `json:"combat"`
	Targets    []TargetSpawn      `json:"targets"`
	Agents     []AgentSpawnConfig `json:"agents"`
}

// DisplayConfig configures the sandbox viewer
type DisplayConfig struct {
	ScreenWidth  int     `json:"screenWidth"`
	ScreenHeight int     `json:"screenHeight"`
	PixelsPerM   float64 `json:"pixelsPerMeter"`
	Framerate    int     `json:"framerate"`
}

// PhysicsSettings configures the rigid-body step
type PhysicsSettings struct {
	Substeps     int     `json:"substeps"`
	Gravity      float64 `json:"gravity"`      // m/s², applied along -Y
	MaxFallSpeed float64 `json:"maxFallSpeed"` // m/s
	GroundHeight float64 `json:"groundHeight"` // Fallback floor plane
	Restitution  float64 `json:"restitution"`  // 0..1 velocity kept on bounce
	Friction     float64 `json:"friction"`     // 0..1 tangential velocity lost on contact
	SleepSpeed   float64 `json:"sleepSpeed"`   // Below this a grounded body stops
}

// NavigationConfig describes walkable surfaces and obstacles
type NavigationConfig struct {
	CellSize  float64         `json:"cellSize"`
	Clearance float64         `json:"clearance"`
	Surfaces  []SurfaceConfig `json:"surfaces"`
	Obstacles []BoxConfig     `json:"obstacles"`
}

// SurfaceConfig is a walkable rectangle at a given height
type SurfaceConfig struct {
	Name   string  `json:"name"`
	MinX   float64 `json:"minX"`
	MinZ   float64 `json:"minZ"`
	MaxX   float64 `json:"maxX"`
	MaxZ   float64 `json:"maxZ"`
	Height float64 `json:"height"`
}

// BoxConfig is a solid axis-aligned box
type BoxConfig struct {
	Name string     `json:"name"`
	Min  Vec3Config `json:"min"`
	Max  Vec3Config `json:"max"`
}

// OwnerConfig configures the controllable owner
type OwnerConfig struct {
	Spawn        Vec3Config `json:"spawn"`
	Yaw          float64    `json:"yaw"` // Degrees
	Radius       float64    `json:"radius"`
	PickupRadius float64    `json:"pickupRadius"`
	MoveSpeed    float64    `json:"moveSpeed"`
	TurnSpeed    float64    `json:"turnSpeed"` // Degrees per second
	MaxHealth    int        `json:"maxHealth"`
}

// CombatConfig configures damage handling
type CombatConfig struct {
	Iframes float64 `json:"iframes"` // Seconds of invulnerability after a hit
}

// TargetSpawn places a damageable dummy
type TargetSpawn struct {
	Name      string     `json:"name"`
	Position  Vec3Config `json:"position"`
	Radius    float64    `json:"radius"`
	MaxHealth int        `json:"maxHealth"`
}

// AgentSpawnConfig places an agent built from an archetype in agents.yaml.
// Target names a target spawn for pursuers; empty means the owner.
type AgentSpawnConfig struct {
	Name      string     `json:"name"`
	Archetype string     `json:"archetype"`
	Position  Vec3Config `json:"position"`
	Target    string     `json:"target,omitempty"`
}

// Vec3Config is a vector in config files
type Vec3Config struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Vec returns v as a mgl64 vector
func (v Vec3Config) Vec() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}
