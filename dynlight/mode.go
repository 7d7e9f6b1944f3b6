package dynlight

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects how often light sources are re-evaluated.
type Mode int

const (
	ModeOff Mode = iota
	ModeFastest
	ModeFast
	ModeFancy
)

var modeNames = map[Mode]string{
	ModeOff:     "off",
	ModeFastest: "fastest",
	ModeFast:    "fast",
	ModeFancy:   "fancy",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Enabled reports whether the engine tracks any source in this mode.
func (m Mode) Enabled() bool {
	return m == ModeFastest || m == ModeFast || m == ModeFancy
}

// UpdateInterval is the minimum time between two updates of the same source.
func (m Mode) UpdateInterval() time.Duration {
	switch m {
	case ModeFastest:
		return 500 * time.Millisecond
	case ModeFast:
		return 250 * time.Millisecond
	default:
		return 0
	}
}

// ParseMode accepts the lower-case mode names used in config files.
func ParseMode(s string) (Mode, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for m, name := range modeNames {
		if name == needle {
			return m, nil
		}
	}
	return ModeOff, fmt.Errorf("unknown dynamic lighting mode %q", s)
}

// Categories gates which owners may emit.
type Categories struct {
	Entities            bool
	BlockEntities       bool
	Self                bool
	WaterSensitiveCheck bool
}

func DefaultCategories() Categories {
	return Categories{
		Entities:            true,
		BlockEntities:       true,
		Self:                true,
		WaterSensitiveCheck: true,
	}
}
