package config

import (
	"github.com/younwookim/agentloco/internal/domain/entity"
)

// AgentsConfig is the root config for agents.yaml
type AgentsConfig struct {
	Companions map[string]CompanionArchetype `yaml:"companions"`
	Pursuers   map[string]PursuerArchetype   `yaml:"pursuers"`
}

// CompanionArchetype describes a carried/thrown companion.
// Omitted fields take the domain defaults.
type CompanionArchetype struct {
	CarryOffset     *Vec3Config `yaml:"carry_offset"`
	FollowSpeed     float64     `yaml:"follow_speed"`
	DribbleHeight   float64     `yaml:"dribble_height"`
	DribbleSpeed    float64     `yaml:"dribble_speed"`
	DribbleDrop     float64     `yaml:"dribble_drop"`
	ThrowForce      float64     `yaml:"throw_force"`
	ThrowUpForce    float64     `yaml:"throw_up_force"`
	ReleaseCooldown float64     `yaml:"release_cooldown"`
	ReturnDelay     float64     `yaml:"return_delay"`
	ReturnThreshold float64     `yaml:"return_threshold"`
	ReturnSpeed     float64     `yaml:"return_speed"`
	SnapRadius      float64     `yaml:"snap_radius"`
	OuterSnapRadius float64     `yaml:"outer_snap_radius"`
	DisableTeleport bool        `yaml:"disable_teleport"`
	ImpactDamage    int         `yaml:"impact_damage"`
	Radius          float64     `yaml:"radius"`
	LoopCue         string      `yaml:"loop_cue"`
}

// PursuerArchetype describes a sight/attack pursuer
type PursuerArchetype struct {
	Movement       string   `yaml:"movement"`
	SightRange     float64  `yaml:"sight_range"`
	AttackRange    float64  `yaml:"attack_range"`
	Hysteresis     float64  `yaml:"hysteresis"`
	TargetLayers   []string `yaml:"target_layers"`
	MoveSpeed      float64  `yaml:"move_speed"`
	RotationSpeed  float64  `yaml:"rotation_speed"`
	FlyingHeight   float64  `yaml:"flying_height"`
	FollowDistance float64  `yaml:"follow_distance"`
	SnapRadius     float64  `yaml:"snap_radius"`
	Radius         float64  `yaml:"radius"`
	LoopCue        string   `yaml:"loop_cue"`
	AttackDamage   int      `yaml:"attack_damage"` // Dealt to the target while attacking, gated by iframes
}

// Companion converts the archetype to a domain config with defaults filled
func (a CompanionArchetype) Companion() entity.CompanionConfig {
	cfg := entity.CompanionConfig{
		FollowSpeed:     a.FollowSpeed,
		DribbleHeight:   a.DribbleHeight,
		DribbleSpeed:    a.DribbleSpeed,
		DribbleDrop:     a.DribbleDrop,
		ThrowForce:      a.ThrowForce,
		ThrowUpForce:    a.ThrowUpForce,
		ReleaseCooldown: a.ReleaseCooldown,
		ReturnDelay:     a.ReturnDelay,
		ReturnThreshold: a.ReturnThreshold,
		ReturnSpeed:     a.ReturnSpeed,
		SnapRadius:      a.SnapRadius,
		OuterSnapRadius: a.OuterSnapRadius,
		DisableTeleport: a.DisableTeleport,
		ImpactDamage:    a.ImpactDamage,
		Radius:          a.Radius,
	}
	if a.CarryOffset != nil {
		cfg.CarryOffset = a.CarryOffset.Vec()
	}
	return cfg.WithDefaults()
}

// Pursuer converts the archetype to a domain config with defaults filled.
// Unknown movement or layer names are reported by Validate.
func (a PursuerArchetype) Pursuer() entity.PursuerConfig {
	mode, _ := entity.ParseMovementMode(a.Movement)
	mask, _ := ParseLayers(a.TargetLayers)
	cfg := entity.PursuerConfig{
		Movement:       mode,
		SightRange:     a.SightRange,
		AttackRange:    a.AttackRange,
		Hysteresis:     a.Hysteresis,
		TargetMask:     mask,
		MoveSpeed:      a.MoveSpeed,
		RotationSpeed:  a.RotationSpeed,
		FlyingHeight:   a.FlyingHeight,
		FollowDistance: a.FollowDistance,
		SnapRadius:     a.SnapRadius,
		Radius:         a.Radius,
	}
	return cfg.WithDefaults()
}

var layerNames = map[string]entity.Layer{
	"owner":   entity.LayerOwner,
	"target":  entity.LayerTarget,
	"agent":   entity.LayerAgent,
	"pickup":  entity.LayerPickup,
	"surface": entity.LayerSurface,
}

// ParseLayers ORs the named layers. It returns the first unknown name.
func ParseLayers(names []string) (entity.Layer, string) {
	var mask entity.Layer
	for _, n := range names {
		l, ok := layerNames[n]
		if !ok {
			return mask, n
		}
		mask |= l
	}
	return mask, ""
}
