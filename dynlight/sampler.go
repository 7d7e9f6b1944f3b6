package dynlight

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MaxRadius is the distance at which a source stops contributing light.
// It keeps every lit point inside the footprint regions.
const MaxRadius = 7.75

const maxRadiusSquared = MaxRadius * MaxRadius

// falloff is the light a source of the given luminance adds at distance
// squared d2: linear from full luminance at the anchor to zero at MaxRadius.
func falloff(luminance int, d2 float64) float64 {
	if luminance <= 0 || d2 > maxRadiusSquared {
		return 0
	}
	return float64(luminance) * (1 - math.Sqrt(d2)/MaxRadius)
}

// SampleLightLevel returns the strongest dynamic light reaching p, in [0, 15].
// Safe to call from any number of goroutines.
func (r *Registry) SampleLightLevel(p mgl64.Vec3) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	level := 0.0
	for _, src := range r.members {
		smp := src.published.Load()
		if smp == nil || smp.luminance <= 0 || smp.world != r.world {
			continue
		}
		d := p.Sub(smp.anchor)
		if v := falloff(smp.luminance, d.Dot(d)); v > level {
			level = v
		}
	}
	return math.Min(math.Max(level, 0), MaxLuminance)
}

// SampleBlockLightLevel samples at the center of block (x, y, z).
func (r *Registry) SampleBlockLightLevel(x, y, z int) float64 {
	return r.SampleLightLevel(mgl64.Vec3{float64(x) + 0.5, float64(y) + 0.5, float64(z) + 0.5})
}

// Lightmaps pack sky light above bit 20 and block light, scaled by 16, in
// the low 20 bits. The scale leaves four bits for fractional block light.
const (
	lightmapSkyShift   = 20
	lightmapBlockShift = 4
	lightmapBlockMask  = 1<<lightmapSkyShift - 1
	lightmapSkyMask    = 0xfff00000
)

// PackLightmap builds a lightmap from integer sky and block levels.
func PackLightmap(sky, block int) uint32 {
	return uint32(clampLuminance(sky))<<lightmapSkyShift | uint32(clampLuminance(block))<<lightmapBlockShift
}

// BlockLight returns the whole-number block light level of a lightmap.
func BlockLight(lightmap uint32) int {
	return int(lightmap&lightmapBlockMask) >> lightmapBlockShift
}

// BlockLightLevel returns the block light level including its fraction.
func BlockLightLevel(lightmap uint32) float64 {
	return float64(lightmap&lightmapBlockMask) / (1 << lightmapBlockShift)
}

func SkyLight(lightmap uint32) int {
	return int(lightmap >> lightmapSkyShift)
}

// CombineWithStatic raises the block light of lightmap to dynamic when the
// dynamic level is brighter. Sky light is never touched and dynamic light
// never lowers anything.
func CombineWithStatic(dynamic float64, lightmap uint32) uint32 {
	if dynamic <= 0 {
		return lightmap
	}
	dynamic = math.Min(dynamic, MaxLuminance)
	if dynamic <= BlockLightLevel(lightmap) {
		return lightmap
	}
	scaled := uint32(dynamic * (1 << lightmapBlockShift))
	return lightmap&lightmapSkyMask | scaled&lightmapBlockMask
}
