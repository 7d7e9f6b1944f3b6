package dynlight

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

const (
	// MaxLuminance is full brightness; anything above is clamped to it.
	MaxLuminance = 15

	// MoveThreshold is how far, on any axis, a source has to travel before
	// its lit regions are recomputed.
	MoveThreshold = 0.1
)

// Category is the kind of world object owning a light.
type Category uint8

const (
	CategoryEntity Category = iota
	CategoryBlockEntity
)

func (c Category) String() string {
	switch c {
	case CategoryEntity:
		return "entity"
	case CategoryBlockEntity:
		return "block_entity"
	default:
		return "unknown"
	}
}

// EmitterState is what an owner reports about itself on every tick.
type EmitterState struct {
	World    uuid.UUID
	Position mgl64.Vec3 // eye point for mobile owners, block center for static ones
	Kind     string
	Category Category
	Self     bool       // the local, first-person player

	OnFire    bool
	Glowing   bool
	Submerged bool
	HeldItems []string
}

// Emitter is implemented by anything that may carry a dynamic light.
type Emitter interface {
	LightState() EmitterState
}

// EmitterFunc adapts a plain function to Emitter.
type EmitterFunc func() EmitterState

func (f EmitterFunc) LightState() EmitterState { return f() }

// sample is the part of a Source visible to samplers. It is replaced,
// never mutated, so readers can load it without the registry write lock.
type sample struct {
	world     uuid.UUID
	anchor    mgl64.Vec3
	luminance int
}

// Source is the engine-side record of one light-emitting owner.
type Source struct {
	handle  Handle
	emitter Emitter

	world     uuid.UUID
	pos       mgl64.Vec3
	category  Category
	self      bool
	luminance int

	lastLuminance int
	lastPos       mgl64.Vec3
	lastUpdate    time.Time
	tracked       regionTracker

	published atomic.Pointer[sample]
}

func newSource(e Emitter) *Source {
	return &Source{emitter: e}
}

func (s *Source) Handle() Handle              { return s.handle }
func (s *Source) World() uuid.UUID            { return s.world }
func (s *Source) Position() mgl64.Vec3        { return s.pos }
func (s *Source) Category() Category          { return s.category }
func (s *Source) Luminance() int              { return s.luminance }
func (s *Source) LastLuminance() int          { return s.lastLuminance }
func (s *Source) TrackedRegions() []RegionPos { return s.tracked.snapshot() }

// observe records this tick's state and publishes it to samplers.
func (s *Source) observe(state EmitterState, luminance int) {
	s.world = state.World
	s.pos = state.Position
	s.category = state.Category
	s.self = state.Self
	s.luminance = clampLuminance(luminance)
	s.publish()
}

func (s *Source) publish() {
	s.published.Store(&sample{world: s.world, anchor: s.pos, luminance: s.luminance})
}

// changed reports whether the lit footprint has to be recomputed.
func (s *Source) changed() bool {
	d := s.pos.Sub(s.lastPos)
	return math.Abs(d[0]) > MoveThreshold ||
		math.Abs(d[1]) > MoveThreshold ||
		math.Abs(d[2]) > MoveThreshold ||
		s.luminance != s.lastLuminance
}

// reset darkens the source and hands back the regions it used to light.
func (s *Source) reset() []RegionPos {
	s.luminance = 0
	s.lastLuminance = 0
	s.publish()
	return s.tracked.flush()
}

func clampLuminance(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxLuminance {
		return MaxLuminance
	}
	return v
}
