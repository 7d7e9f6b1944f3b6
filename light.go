package lumen

import (
	"math"
	"slices"

	"github.com/gekko3d/lumen/dynlight"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// LightEmitterComponent marks an entity as a potential dynamic light source.
// Whether it actually emits is decided every tick by the lighting resolvers.
type LightEmitterComponent struct {
	Kind      string            // resolver key, e.g. "blaze" or "furnace"
	Category  dynlight.Category // entity or block entity
	Self      bool              // the local first-person player
	EyeHeight float32           // entities emit from Position + EyeHeight
	World     uuid.UUID         // owning world; uuid.Nil means the active one
}

// EmitterStatusComponent carries the transient state resolvers look at.
type EmitterStatusComponent struct {
	OnFire    bool
	Glowing   bool
	Submerged bool
	HeldItems []string
}

// emitterState builds the state reported to the lighting engine. Block
// entities emit from the center of the block they occupy.
func emitterState(active uuid.UUID, tr *TransformComponent, em *LightEmitterComponent, status *EmitterStatusComponent) dynlight.EmitterState {
	world := em.World
	if world == uuid.Nil {
		world = active
	}

	var anchor mgl64.Vec3
	if em.Category == dynlight.CategoryBlockEntity {
		anchor = mgl64.Vec3{
			math.Floor(float64(tr.Position.X())) + 0.5,
			math.Floor(float64(tr.Position.Y())) + 0.5,
			math.Floor(float64(tr.Position.Z())) + 0.5,
		}
	} else {
		anchor = mgl64.Vec3{
			float64(tr.Position.X()),
			float64(tr.Position.Y() + em.EyeHeight),
			float64(tr.Position.Z()),
		}
	}

	state := dynlight.EmitterState{
		World:    world,
		Position: anchor,
		Kind:     em.Kind,
		Category: em.Category,
		Self:     em.Self,
	}
	if status != nil {
		state.OnFire = status.OnFire
		state.Glowing = status.Glowing
		state.Submerged = status.Submerged
		state.HeldItems = slices.Clone(status.HeldItems)
	}
	return state
}
