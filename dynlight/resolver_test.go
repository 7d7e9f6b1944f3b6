package dynlight

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvers_BrightestContributionWins(t *testing.T) {
	r := NewResolvers()
	r.RegisterConstant("blaze", 9, false)
	r.Register("blaze", func(s EmitterState) Contribution {
		return Contribution{Luminance: len(s.HeldItems) * 4}
	})
	r.SetItem("torch", ItemLight{Luminance: 14, WaterSensitive: true})

	assert.Equal(t, 9, r.Resolve(EmitterState{Kind: "blaze"}, true))
	assert.Equal(t, 12, r.Resolve(EmitterState{Kind: "blaze", HeldItems: []string{"stick", "rock", "dirt"}}, true))
	assert.Equal(t, 14, r.Resolve(EmitterState{Kind: "blaze", HeldItems: []string{"torch"}}, true))
	assert.Equal(t, 0, r.Resolve(EmitterState{Kind: "zombie"}, true))
}

func TestResolvers_FireAndGlowAreFullBright(t *testing.T) {
	r := NewResolvers()
	assert.Equal(t, MaxLuminance, r.Resolve(EmitterState{Kind: "zombie", OnFire: true}, true))
	assert.Equal(t, MaxLuminance, r.Resolve(EmitterState{Kind: "zombie", Glowing: true}, true))
}

func TestResolvers_SubmersionVetoesWaterSensitiveOnly(t *testing.T) {
	r := NewResolvers()
	r.RegisterConstant("squid", 6, false)
	r.SetItem("torch", ItemLight{Luminance: 14, WaterSensitive: true})
	r.SetItem("sea_lantern", ItemLight{Luminance: 15})

	underwater := EmitterState{Kind: "squid", Submerged: true, HeldItems: []string{"torch"}}
	assert.Equal(t, 6, r.Resolve(underwater, true))
	assert.Equal(t, 14, r.Resolve(underwater, false))

	underwater.HeldItems = append(underwater.HeldItems, "sea_lantern")
	assert.Equal(t, 15, r.Resolve(underwater, true))
}

func TestResolvers_ClampsLuminance(t *testing.T) {
	r := NewResolvers()
	r.Register("sun", func(EmitterState) Contribution { return Contribution{Luminance: 99} })
	r.SetItem("void", ItemLight{Luminance: -4})

	assert.Equal(t, MaxLuminance, r.Resolve(EmitterState{Kind: "sun"}, false))
	light, ok := r.Item("void")
	assert.True(t, ok)
	assert.Equal(t, 0, light.Luminance)
}
