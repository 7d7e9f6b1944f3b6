package lumen

import (
	"fmt"

	"github.com/gekko3d/lumen/dynlight"
	"github.com/go-gl/mathgl/mgl64"
)

// DynamicLights is the App resource owning the lighting engine and the
// entity side table. Renderer workers sample through Engine concurrently;
// everything else runs on the app's systems.
type DynamicLights struct {
	Engine *dynlight.Engine

	entities map[EntityId]*entityLight
}

// entityLight is the engine-side owner of one ECS entity's light. The tick
// system refreshes state before every NotifyTick.
type entityLight struct {
	handle dynlight.Handle
	state  dynlight.EmitterState
	seen   bool
}

func (l *entityLight) LightState() dynlight.EmitterState { return l.state }

// Handle returns the light handle attached to an entity.
func (d *DynamicLights) Handle(eid EntityId) (dynlight.Handle, bool) {
	l, ok := d.entities[eid]
	if !ok {
		return dynlight.Handle{}, false
	}
	return l.handle, true
}

func (d *DynamicLights) SampleLightLevel(p mgl64.Vec3) float64 {
	return d.Engine.SampleLightLevel(p)
}

// BlockLightmap merges dynamic light into the static lightmap of a block.
func (d *DynamicLights) BlockLightmap(x, y, z int, static uint32) uint32 {
	return d.Engine.BlockLightmap(x, y, z, static)
}

// ApplyConfig switches mode and categories and merges the kind and item
// tables at runtime. Items are overwritten; kind resolvers are appended, so
// a kind can get brighter but not darker without a restart.
func (d *DynamicLights) ApplyConfig(cfg LightingConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.Engine.SetMode(cfg.EngineMode())
	d.Engine.SetCategories(cfg.Categories())
	cfg.registerInto(d.Engine.Resolvers())
	return nil
}

// DynamicLightingModule wires the lighting engine into the App. Install it
// after any module that provides its own ActiveWorld.
type DynamicLightingModule struct {
	Config LightingConfig
	// Rebuild receives the regions to redraw each frame. Nil drops them.
	Rebuild RegionRebuilder
}

func (m DynamicLightingModule) Install(app *App, cmd *Commands) {
	if err := m.Config.Validate(); err != nil {
		panic(fmt.Sprintf("DynamicLightingModule: %v", err))
	}

	world, ok := Resource[ActiveWorld](app)
	if !ok {
		world = NewActiveWorld("default")
		cmd.AddResources(world)
	}

	queue := NewRegionRebuildQueue(m.Config.RegionRebuildsPerFrame)
	engine := dynlight.NewEngine(
		dynlight.WithMode(m.Config.EngineMode()),
		dynlight.WithCategories(m.Config.Categories()),
		dynlight.WithResolvers(m.Config.Resolvers()),
		dynlight.WithInvalidator(queue),
		dynlight.WithLogger(subsystemLogger{app: app, name: "dynlight"}),
	)
	engine.SetWorld(world.ID)

	cmd.AddResources(
		&DynamicLights{
			Engine:   engine,
			entities: make(map[EntityId]*entityLight),
		},
		queue,
	)

	rebuild := m.Rebuild
	app.UseSystem(
		System(dynamicLightWorldSystem).InStage(PreUpdate),
	).UseSystem(
		System(dynamicLightTickSystem).InStage(Update),
	).UseSystem(
		System(dynamicLightUpdateSystem).InStage(PreRender),
	).UseSystem(
		System(func(queue *RegionRebuildQueue) {
			for _, region := range queue.Drain() {
				if rebuild != nil {
					rebuild(region)
				}
			}
		}).InStage(Render),
	)
}

// dynamicLightWorldSystem resets the engine when the active world changed.
func dynamicLightWorldSystem(world *ActiveWorld, lights *DynamicLights, cmd *Commands) {
	if lights.Engine.World() == world.ID {
		return
	}
	cmd.Logger().Infof("dynamic lights: switching to world %s (%s)", world.Name, world.ID)
	lights.Engine.SetWorld(world.ID)
}

// dynamicLightTickSystem feeds every emitter entity to the engine once per
// frame and detaches entities that died or lost their emitter component.
func dynamicLightTickSystem(world *ActiveWorld, lights *DynamicLights, cmd *Commands) {
	engine := lights.Engine

	MakeQuery3[TransformComponent, LightEmitterComponent, EmitterStatusComponent](cmd).Map(
		func(eid EntityId, tr *TransformComponent, em *LightEmitterComponent, status *EmitterStatusComponent) bool {
			l, ok := lights.entities[eid]
			if !ok {
				l = &entityLight{}
				l.handle = engine.Attach(l)
				lights.entities[eid] = l
			}
			l.state = emitterState(world.ID, tr, em, status)
			l.seen = true
			engine.NotifyTick(l.handle)
			return true
		},
		EmitterStatusComponent{},
	)

	for eid, l := range lights.entities {
		if !l.seen || !cmd.IsAlive(eid) {
			engine.Detach(l.handle)
			delete(lights.entities, eid)
			continue
		}
		l.seen = false
	}
}

func dynamicLightUpdateSystem(lights *DynamicLights, cmd *Commands) {
	stats := lights.Engine.Update()
	if stats.Changed > 0 {
		cmd.Logger().Debugf("dynamic lights: %d/%d sources changed, %d regions invalidated",
			stats.Changed, stats.Visited, stats.Invalidated)
	}
}
