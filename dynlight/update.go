package dynlight

import (
	"fmt"
)

// UpdateStats summarises one Update pass.
type UpdateStats struct {
	Visited     int // registered sources looked at
	Throttled   int // skipped because their mode interval had not elapsed
	Changed     int // sources whose footprint was recomputed
	Invalidated int // region rebuild requests emitted
	Failed      int // sources whose resolution panicked
}

// Update runs one update cycle over every registered source: luminance is
// re-resolved, and sources that moved or changed brightness get their lit
// regions recomputed and rebuilt. Unchanged sources cost one resolve.
func (e *Engine) Update() UpdateStats {
	var stats UpdateStats
	if !e.mode.Enabled() {
		e.lastStats = stats
		return stats
	}

	now := e.clock()
	interval := e.mode.UpdateInterval()

	for _, src := range e.registry.Snapshot() {
		stats.Visited++
		if interval > 0 && !src.lastUpdate.IsZero() && now.Sub(src.lastUpdate) < interval {
			stats.Throttled++
			continue
		}
		src.lastUpdate = now

		state, luminance, err := e.resolve(src)
		if err != nil {
			stats.Failed++
			e.logger.Warnf("%v", err)
		}
		src.observe(state, luminance)

		if !src.changed() {
			continue
		}
		stats.Changed++
		stats.Invalidated += e.retrack(src)
	}

	e.lastStats = stats
	return stats
}

// retrack recomputes src's footprint, rebuilds the old and new regions and
// records the state the footprint was computed from.
func (e *Engine) retrack(src *Source) int {
	dirty := src.tracked.replace(Footprint(src.pos, src.luminance))
	for _, region := range dirty {
		e.invalidator.InvalidateRegion(region)
	}
	src.lastLuminance = src.luminance
	src.lastPos = src.pos
	return len(dirty)
}

// resolve asks the emitter for its state and merges its luminance. A panic
// in the emitter or any resolver leaves the source dark for this cycle at
// its last known position.
func (e *Engine) resolve(src *Source) (state EmitterState, luminance int, err error) {
	defer func() {
		if r := recover(); r != nil {
			state = EmitterState{
				World:    src.world,
				Position: src.pos,
				Category: src.category,
				Self:     src.self,
			}
			luminance = 0
			err = fmt.Errorf("resolve %s: %v", src.handle, r)
		}
	}()

	state = src.emitter.LightState()
	if e.IsEligible(state) {
		luminance = e.resolvers.Resolve(state, e.categories.WaterSensitiveCheck)
	}
	return state, luminance, nil
}
