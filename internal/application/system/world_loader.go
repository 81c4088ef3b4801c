package system

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/younwookim/agentloco/internal/domain/entity"
	"github.com/younwookim/agentloco/internal/domain/geom"
	"github.com/younwookim/agentloco/internal/ecs"
	"github.com/younwookim/agentloco/internal/infrastructure/config"
	"github.com/younwookim/agentloco/internal/infrastructure/navmesh"
)

// LoadWorld populates a new ecs world from cfg: the owner and its pickup
// volume, target dummies and solid obstacles. When mesh is not nil it also
// receives the walkable surfaces and the obstacle footprints.
func LoadWorld(cfg *config.WorldConfig, mesh *navmesh.Mesh) *ecs.World {
	w := ecs.NewWorld()

	o := cfg.Owner
	spawn := entity.Transform{
		Position:    o.Spawn.Vec(),
		Orientation: geom.YawRotation(mgl64.DegToRad(o.Yaw)),
	}
	w.CreateOwner("owner", spawn, ecs.OwnerSpec{
		Radius:       o.Radius,
		PickupRadius: o.PickupRadius,
		MoveSpeed:    o.MoveSpeed,
		TurnSpeed:    mgl64.DegToRad(o.TurnSpeed),
		MaxHealth:    o.MaxHealth,
	})

	for _, t := range cfg.Targets {
		w.CreateTarget(t.Name, t.Position.Vec(), t.Radius, t.MaxHealth)
	}

	for _, b := range cfg.Navigation.Obstacles {
		box := ecs.Box{Min: b.Min.Vec(), Max: b.Max.Vec()}
		w.CreateObstacle(b.Name, box)
		if mesh != nil {
			mesh.AddObstacle(navmesh.Rect{MinX: box.Min[0], MinZ: box.Min[2], MaxX: box.Max[0], MaxZ: box.Max[2]})
		}
	}

	if mesh != nil {
		for _, s := range cfg.Navigation.Surfaces {
			mesh.AddSurface(navmesh.Surface{
				Name:   s.Name,
				Area:   navmesh.Rect{MinX: s.MinX, MinZ: s.MinZ, MaxX: s.MaxX, MaxZ: s.MaxZ},
				Height: s.Height,
			})
		}
	}

	return w
}
