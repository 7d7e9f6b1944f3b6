package dynlight

import (
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

type recordingInvalidator struct {
	mu    sync.Mutex
	calls []RegionPos
}

func (r *recordingInvalidator) InvalidateRegion(pos RegionPos) {
	r.mu.Lock()
	r.calls = append(r.calls, pos)
	r.mu.Unlock()
}

func (r *recordingInvalidator) take() []RegionPos {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.calls
	r.calls = nil
	return out
}

func (r *recordingInvalidator) counts() map[RegionPos]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make(map[RegionPos]int)
	for _, c := range r.calls {
		res[c]++
	}
	return res
}

// testEmitter is a light owner whose state tests mutate between ticks.
type testEmitter struct {
	mu    sync.Mutex
	state EmitterState
	panic bool
}

func (t *testEmitter) LightState() EmitterState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.panic {
		panic("emitter exploded")
	}
	return t.state
}

func (t *testEmitter) moveTo(p mgl64.Vec3) {
	t.mu.Lock()
	t.state.Position = p
	t.mu.Unlock()
}

func (t *testEmitter) setKind(kind string) {
	t.mu.Lock()
	t.state.Kind = kind
	t.mu.Unlock()
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// newTestEngine returns a fancy-mode engine scoped to a fresh world with
// constant resolvers "torch" (10), "lantern" (15) and "dark" (0).
func newTestEngine(opts ...Option) (*Engine, *recordingInvalidator, uuid.UUID) {
	inv := &recordingInvalidator{}
	resolvers := NewResolvers()
	resolvers.RegisterConstant("torch", 10, true)
	resolvers.RegisterConstant("lantern", 15, false)
	resolvers.RegisterConstant("dark", 0, false)

	base := []Option{WithInvalidator(inv), WithResolvers(resolvers), WithMode(ModeFancy)}
	e := NewEngine(append(base, opts...)...)
	world := uuid.New()
	e.SetWorld(world)
	inv.take()
	return e, inv, world
}

func newEmitter(world uuid.UUID, kind string, p mgl64.Vec3) *testEmitter {
	return &testEmitter{state: EmitterState{
		World:    world,
		Position: p,
		Kind:     kind,
		Category: CategoryEntity,
	}}
}

// spawn attaches an emitter and runs one tick so it is registered.
func spawn(e *Engine, em *testEmitter) Handle {
	h := e.Attach(em)
	e.NotifyTick(h)
	return h
}
