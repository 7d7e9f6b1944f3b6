package lumen

import (
	"testing"
	"time"

	"github.com/gekko3d/lumen/dynlight"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rebuildLog struct {
	regions []dynlight.RegionPos
}

func (l *rebuildLog) rebuild(r dynlight.RegionPos) { l.regions = append(l.regions, r) }

func (l *rebuildLog) take() []dynlight.RegionPos {
	out := l.regions
	l.regions = nil
	return out
}

func testLightingConfig() LightingConfig {
	cfg := DefaultLightingConfig()
	cfg.RegionRebuildsPerFrame = 0
	cfg.Kinds = map[string]LightEntry{"furnace": {Luminance: 13}}
	cfg.Items = map[string]LightEntry{"torch": {Luminance: 14, WaterSensitive: true}}
	return cfg
}

func newLightingApp(t *testing.T, cfg LightingConfig, extra ...Module) (*App, *rebuildLog) {
	t.Helper()
	log := &rebuildLog{}
	modules := append(extra, DynamicLightingModule{Config: cfg, Rebuild: log.rebuild})
	app := NewApp().UseModules(modules...)
	app.Step()
	log.take()
	return app, log
}

func lights(t *testing.T, app *App) *DynamicLights {
	t.Helper()
	l, ok := Resource[DynamicLights](app)
	require.True(t, ok, "DynamicLights resource missing")
	return l
}

func spawnTorchBearer(cmd *Commands, pos mgl32.Vec3, extra ...any) EntityId {
	components := append([]any{
		TransformComponent{Position: pos, Scale: mgl32.Vec3{1, 1, 1}},
		LightEmitterComponent{Kind: "zombie", Category: dynlight.CategoryEntity, EyeHeight: 1.5},
		EmitterStatusComponent{HeldItems: []string{"torch"}},
	}, extra...)
	return cmd.AddEntity(components...)
}

func TestDynamicLighting_EntityCarriesLight(t *testing.T) {
	app, log := newLightingApp(t, testLightingConfig())
	cmd := app.Commands()
	eid := spawnTorchBearer(cmd, mgl32.Vec3{0.5, 64, 0.5})
	app.FlushCommands()

	app.Step()

	dl := lights(t, app)
	anchor := mgl64.Vec3{0.5, 65.5, 0.5}
	assert.InDelta(t, 14.0, dl.SampleLightLevel(anchor), 1e-9)
	assert.Equal(t, 1, dl.Engine.Count())

	h, ok := dl.Handle(eid)
	require.True(t, ok)
	assert.True(t, dl.Engine.Contains(h))

	rebuilt := log.take()
	assert.ElementsMatch(t, dynlight.Footprint(anchor, 14), rebuilt)

	// Standing still triggers no further rebuilds.
	app.Step()
	assert.Empty(t, log.take())
}

func TestDynamicLighting_MovingEntityRebuildsOldAndNewRegions(t *testing.T) {
	app, log := newLightingApp(t, testLightingConfig())
	cmd := app.Commands()
	eid := spawnTorchBearer(cmd, mgl32.Vec3{0.5, 64, 0.5})
	app.FlushCommands()
	app.Step()
	log.take()

	oldAnchor := mgl64.Vec3{0.5, 65.5, 0.5}
	newAnchor := mgl64.Vec3{40.5, 65.5, 0.5}
	MakeQuery1[TransformComponent](cmd).Map(func(id EntityId, tr *TransformComponent) bool {
		if id == eid {
			tr.Position = mgl32.Vec3{40.5, 64, 0.5}
		}
		return true
	})
	app.Step()

	want := map[dynlight.RegionPos]bool{}
	for _, r := range dynlight.Footprint(oldAnchor, 14) {
		want[r] = true
	}
	for _, r := range dynlight.Footprint(newAnchor, 14) {
		want[r] = true
	}
	got := map[dynlight.RegionPos]bool{}
	for _, r := range log.take() {
		got[r] = true
	}
	assert.Equal(t, want, got)

	dl := lights(t, app)
	assert.Zero(t, dl.SampleLightLevel(oldAnchor))
	assert.InDelta(t, 14.0, dl.SampleLightLevel(newAnchor), 1e-9)
}

func TestDynamicLighting_RemovedEntityGoesDark(t *testing.T) {
	app, log := newLightingApp(t, testLightingConfig())
	cmd := app.Commands()
	eid := spawnTorchBearer(cmd, mgl32.Vec3{0.5, 64, 0.5})
	app.FlushCommands()
	app.Step()
	lit := log.take()

	cmd.RemoveEntity(eid)
	app.FlushCommands()
	app.Step()

	dl := lights(t, app)
	assert.Zero(t, dl.Engine.Count())
	assert.Zero(t, dl.SampleLightLevel(mgl64.Vec3{0.5, 65.5, 0.5}))
	assert.ElementsMatch(t, lit, log.take())
	_, ok := dl.Handle(eid)
	assert.False(t, ok)
}

func TestDynamicLighting_LostEmitterComponentGoesDark(t *testing.T) {
	app, _ := newLightingApp(t, testLightingConfig())
	cmd := app.Commands()
	eid := spawnTorchBearer(cmd, mgl32.Vec3{0.5, 64, 0.5})
	app.FlushCommands()
	app.Step()

	cmd.RemoveComponents(eid, LightEmitterComponent{})
	app.FlushCommands()
	app.Step()

	assert.Zero(t, lights(t, app).Engine.Count())
	assert.True(t, cmd.IsAlive(eid))
}

func TestDynamicLighting_LifetimeExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	app, _ := newLightingApp(t, testLightingConfig(),
		TimeModule{Now: func() time.Time { return now }},
		LifecycleModule{},
	)
	cmd := app.Commands()
	spawnTorchBearer(cmd, mgl32.Vec3{0.5, 64, 0.5}, LifetimeComponent{TimeLeft: 1})
	app.FlushCommands()

	app.Step()
	assert.Equal(t, 1, lights(t, app).Engine.Count())

	// The entity expires in PostUpdate; its light is dropped on the next tick.
	now = now.Add(2 * time.Second)
	app.Step()
	app.Step()
	assert.Zero(t, lights(t, app).Engine.Count())
}

func TestDynamicLighting_SubmergedTorchIsDark(t *testing.T) {
	app, _ := newLightingApp(t, testLightingConfig())
	cmd := app.Commands()
	eid := spawnTorchBearer(cmd, mgl32.Vec3{0.5, 64, 0.5})
	app.FlushCommands()
	app.Step()

	MakeQuery1[EmitterStatusComponent](cmd).Map(func(id EntityId, st *EmitterStatusComponent) bool {
		if id == eid {
			st.Submerged = true
		}
		return true
	})
	app.Step()
	assert.Zero(t, lights(t, app).Engine.Count())

	cfg := testLightingConfig()
	cfg.WaterSensitiveCheck = false
	require.NoError(t, lights(t, app).ApplyConfig(cfg))
	app.Step()
	assert.Equal(t, 1, lights(t, app).Engine.Count())
}

func TestDynamicLighting_BlockEntityLightmap(t *testing.T) {
	app, _ := newLightingApp(t, testLightingConfig())
	cmd := app.Commands()
	cmd.AddEntity(
		TransformComponent{Position: mgl32.Vec3{3.2, 64.9, 3.7}},
		LightEmitterComponent{Kind: "furnace", Category: dynlight.CategoryBlockEntity},
	)
	app.FlushCommands()
	app.Step()

	dl := lights(t, app)
	assert.InDelta(t, 13.0, dl.Engine.SampleBlockLightLevel(3, 64, 3), 1e-9)

	lm := dl.BlockLightmap(3, 64, 3, dynlight.PackLightmap(15, 2))
	assert.Equal(t, 15, dynlight.SkyLight(lm))
	assert.Equal(t, 13, dynlight.BlockLight(lm))

	// Static light brighter than the dynamic level wins.
	lm = dl.BlockLightmap(3, 64, 3, dynlight.PackLightmap(0, 15))
	assert.Equal(t, 15, dynlight.BlockLight(lm))
}

func TestDynamicLighting_WorldSwitch(t *testing.T) {
	app, log := newLightingApp(t, testLightingConfig())
	cmd := app.Commands()
	world, ok := Resource[ActiveWorld](app)
	require.True(t, ok)

	follower := spawnTorchBearer(cmd, mgl32.Vec3{0.5, 64, 0.5})
	pinned := cmd.AddEntity(
		TransformComponent{Position: mgl32.Vec3{100.5, 64, 0.5}},
		LightEmitterComponent{Kind: "zombie", Category: dynlight.CategoryEntity, World: world.ID},
		EmitterStatusComponent{HeldItems: []string{"torch"}},
	)
	app.FlushCommands()
	app.Step()
	dl := lights(t, app)
	require.Equal(t, 2, dl.Engine.Count())
	log.take()

	newID := world.Switch("nether")
	app.Step()

	assert.Equal(t, newID, dl.Engine.World())
	assert.Equal(t, 1, dl.Engine.Count(), "only the entity following the active world relights")
	assert.NotEmpty(t, log.take())

	hf, _ := dl.Handle(follower)
	hp, _ := dl.Handle(pinned)
	assert.True(t, dl.Engine.Contains(hf))
	assert.False(t, dl.Engine.Contains(hp))
}

func TestDynamicLighting_ApplyConfig(t *testing.T) {
	app, _ := newLightingApp(t, testLightingConfig())
	cmd := app.Commands()
	spawnTorchBearer(cmd, mgl32.Vec3{0.5, 64, 0.5})
	app.FlushCommands()
	app.Step()
	dl := lights(t, app)

	cfg := testLightingConfig()
	cfg.Entities = false
	require.NoError(t, dl.ApplyConfig(cfg))
	assert.Zero(t, dl.Engine.Count())
	app.Step()
	assert.Zero(t, dl.Engine.Count(), "disabled category stays dark")

	cfg.Entities = true
	cfg.Mode = "off"
	require.NoError(t, dl.ApplyConfig(cfg))
	app.Step()
	assert.Zero(t, dl.Engine.Count())

	cfg.Mode = "fancy"
	cfg.Items["torch"] = LightEntry{Luminance: 9}
	require.NoError(t, dl.ApplyConfig(cfg))
	app.Step()
	assert.InDelta(t, 9.0, dl.SampleLightLevel(mgl64.Vec3{0.5, 65.5, 0.5}), 1e-9)

	cfg.Mode = "strobe"
	assert.Error(t, dl.ApplyConfig(cfg))
}

func TestDynamicLighting_InvalidConfigPanics(t *testing.T) {
	cfg := testLightingConfig()
	cfg.Mode = "strobe"
	app := NewApp().UseModules(DynamicLightingModule{Config: cfg})
	assert.Panics(t, app.Step)
}
