package dynlight

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Engine owns the dynamic lighting state of one client. It is driven by a
// single goroutine (NotifyTick, Update, Attach, Detach and the setters);
// the sampling methods may be called from any goroutine concurrently.
type Engine struct {
	registry    *Registry
	arena       arena
	resolvers   *Resolvers
	invalidator Invalidator
	mode        Mode
	categories  Categories
	clock       func() time.Time
	logger      Logger
	lastStats   UpdateStats
}

type Option func(*Engine)

func WithMode(m Mode) Option {
	return func(e *Engine) { e.mode = m }
}

func WithCategories(c Categories) Option {
	return func(e *Engine) { e.categories = c }
}

func WithInvalidator(inv Invalidator) Option {
	return func(e *Engine) { e.invalidator = inv }
}

func WithResolvers(r *Resolvers) Option {
	return func(e *Engine) { e.resolvers = r }
}

// WithClock replaces time.Now; the clock must be monotonic.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

func WithLogger(l Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		mode:       ModeFancy,
		categories: DefaultCategories(),
		clock:      time.Now,
		logger:     nopLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.invalidator == nil {
		e.invalidator = discardInvalidator{}
	}
	if e.resolvers == nil {
		e.resolvers = NewResolvers()
	}
	e.registry = NewRegistry(e.invalidator)
	e.registry.setEnabled(e.mode.Enabled())
	return e
}

func (e *Engine) Resolvers() *Resolvers  { return e.resolvers }
func (e *Engine) Mode() Mode             { return e.mode }
func (e *Engine) Categories() Categories { return e.categories }
func (e *Engine) World() uuid.UUID       { return e.registry.World() }
func (e *Engine) Count() int             { return e.registry.Count() }
func (e *Engine) LastStats() UpdateStats { return e.lastStats }

// Attach creates the record for a new emitter. It starts dark and outside
// the registry; NotifyTick decides membership.
func (e *Engine) Attach(em Emitter) Handle {
	return e.arena.insert(newSource(em))
}

// Detach destroys the record behind h. Regions it lit are rebuilt.
func (e *Engine) Detach(h Handle) {
	src := e.arena.release(h)
	if src == nil {
		return
	}
	e.registry.Remove(src)
}

// Source returns the record behind h, or false for a stale handle.
func (e *Engine) Source(h Handle) (*Source, bool) {
	src := e.arena.get(h)
	return src, src != nil
}

func (e *Engine) Contains(h Handle) bool {
	src := e.arena.get(h)
	return src != nil && e.registry.Contains(src)
}

// NotifyTick is called once per simulation step for every potential light
// source. It re-resolves luminance and registers the source while it emits.
func (e *Engine) NotifyTick(h Handle) {
	src := e.arena.get(h)
	if src == nil {
		return
	}

	state, luminance, err := e.resolve(src)
	if err != nil {
		e.logger.Warnf("%v", err)
	}
	src.observe(state, luminance)

	if luminance > 0 && src.world == e.registry.World() {
		e.registry.Add(src)
	} else {
		e.registry.Remove(src)
	}
}

// IsEligible reports whether an emitter in this state may currently emit.
func (e *Engine) IsEligible(state EmitterState) bool {
	if !e.mode.Enabled() {
		return false
	}
	if state.Self && !e.categories.Self {
		return false
	}
	switch state.Category {
	case CategoryEntity:
		return e.categories.Entities
	case CategoryBlockEntity:
		return e.categories.BlockEntities
	default:
		return false
	}
}

// SetWorld switches the active world. Every source of the previous world is
// dropped and its regions rebuilt before any new source can register.
func (e *Engine) SetWorld(world uuid.UUID) {
	if n := e.registry.ResetWorld(world); n > 0 {
		e.logger.Debugf("world switched to %s, dropped %d sources", world, n)
	}
}

// SetMode changes the update cadence. Turning lighting off drops all sources.
func (e *Engine) SetMode(m Mode) {
	prev := e.mode
	e.mode = m
	e.registry.setEnabled(m.Enabled())
	if prev.Enabled() && !m.Enabled() {
		n := e.registry.Clear()
		e.logger.Debugf("mode %s, dropped %d sources", m, n)
	}
}

// SetCategories applies new category flags, removing every source whose
// category has just been disabled.
func (e *Engine) SetCategories(c Categories) {
	prev := e.categories
	e.categories = c

	n := 0
	if prev.Entities && !c.Entities {
		n += e.registry.RemoveWhere(func(s *Source) bool { return s.category == CategoryEntity })
	}
	if prev.BlockEntities && !c.BlockEntities {
		n += e.registry.RemoveWhere(func(s *Source) bool { return s.category == CategoryBlockEntity })
	}
	if prev.Self && !c.Self {
		n += e.registry.RemoveWhere(func(s *Source) bool { return s.self })
	}
	if n > 0 {
		e.logger.Debugf("categories changed, dropped %d sources", n)
	}
}

// RemoveWhere drops every registered source matching pred.
func (e *Engine) RemoveWhere(pred func(*Source) bool) int {
	return e.registry.RemoveWhere(pred)
}

// ClearSources drops every registered source.
func (e *Engine) ClearSources() int {
	return e.registry.Clear()
}

func (e *Engine) SampleLightLevel(p mgl64.Vec3) float64 {
	return e.registry.SampleLightLevel(p)
}

func (e *Engine) SampleBlockLightLevel(x, y, z int) float64 {
	return e.registry.SampleBlockLightLevel(x, y, z)
}

// CombineWithStatic raises lightmap's block light with the dynamic level.
func (e *Engine) CombineWithStatic(dynamic float64, lightmap uint32) uint32 {
	return CombineWithStatic(dynamic, lightmap)
}

// BlockLightmap samples block (x, y, z) and merges it into its static lightmap.
func (e *Engine) BlockLightmap(x, y, z int, static uint32) uint32 {
	return CombineWithStatic(e.SampleBlockLightLevel(x, y, z), static)
}
