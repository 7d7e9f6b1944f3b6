package lumen

import (
	"time"
)

// Time is the frame clock. Time carries a monotonic reading.
type Time struct {
	Time  time.Time
	Dt    time.Duration
	Start time.Time
}

type TimeModule struct {
	// Now overrides time.Now, for tests and replays.
	Now func() time.Time
}

func (mod TimeModule) Install(app *App, cmd *Commands) {
	now := mod.Now
	if now == nil {
		now = time.Now
	}
	t := now()
	cmd.AddResources(&Time{Time: t, Start: t})
	app.UseSystem(
		System(func(timeResource *Time) {
			current := now()
			timeResource.Dt = current.Sub(timeResource.Time)
			timeResource.Time = current
		}).InStage(Prelude),
	)
}
