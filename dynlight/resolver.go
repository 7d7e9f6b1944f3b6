package dynlight

import "sync"

// Contribution is one resolver's opinion on how bright an emitter is.
type Contribution struct {
	Luminance      int
	WaterSensitive bool
}

// Resolver computes a contribution from an emitter's current state.
type Resolver func(EmitterState) Contribution

// ItemLight is the light given off by a carried item.
type ItemLight struct {
	Luminance      int
	WaterSensitive bool
}

// Resolvers maps emitter kinds and item names to light contributions and
// merges them: the brightest contribution wins, burning or glowing emitters
// are fully bright, and water-sensitive contributions go dark underwater.
type Resolvers struct {
	mu     sync.RWMutex
	byKind map[string][]Resolver
	items  map[string]ItemLight
}

func NewResolvers() *Resolvers {
	return &Resolvers{
		byKind: make(map[string][]Resolver),
		items:  make(map[string]ItemLight),
	}
}

// Register appends a resolver for kind. A kind may have several.
func (r *Resolvers) Register(kind string, fn Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKind[kind] = append(r.byKind[kind], fn)
}

// RegisterConstant registers a resolver that always reports luminance.
func (r *Resolvers) RegisterConstant(kind string, luminance int, waterSensitive bool) {
	c := Contribution{Luminance: clampLuminance(luminance), WaterSensitive: waterSensitive}
	r.Register(kind, func(EmitterState) Contribution { return c })
}

func (r *Resolvers) SetItem(name string, light ItemLight) {
	r.mu.Lock()
	defer r.mu.Unlock()
	light.Luminance = clampLuminance(light.Luminance)
	r.items[name] = light
}

func (r *Resolvers) Item(name string) (ItemLight, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	light, ok := r.items[name]
	return light, ok
}

// Resolve merges every contribution for state into a luminance in [0, 15].
// With waterCheck set, a submerged emitter loses its water-sensitive
// contributions. Resolver panics are not recovered here.
func (r *Resolvers) Resolve(state EmitterState, waterCheck bool) int {
	if state.OnFire || state.Glowing {
		return MaxLuminance
	}

	r.mu.RLock()
	resolvers := r.byKind[state.Kind]
	held := make([]ItemLight, 0, len(state.HeldItems))
	for _, name := range state.HeldItems {
		if light, ok := r.items[name]; ok {
			held = append(held, light)
		}
	}
	r.mu.RUnlock()

	drowned := waterCheck && state.Submerged
	best := 0
	take := func(c Contribution) {
		if drowned && c.WaterSensitive {
			return
		}
		if c.Luminance > best {
			best = c.Luminance
		}
	}

	for _, fn := range resolvers {
		take(fn(state))
	}
	for _, light := range held {
		take(Contribution{Luminance: light.Luminance, WaterSensitive: light.WaterSensitive})
	}
	return clampLuminance(best)
}
