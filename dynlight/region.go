package dynlight

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RegionSize is the edge length, in blocks, of a render region.
const RegionSize = 16

const (
	regionShift = 4
	regionMask  = RegionSize - 1

	packBits = 21
	packMask = 1<<packBits - 1
)

// RegionPos addresses one render region.
type RegionPos struct {
	X, Y, Z int32
}

// RegionOf returns the region containing a world position.
func RegionOf(p mgl64.Vec3) RegionPos {
	return RegionPos{
		X: int32(blockCoord(p[0]) >> regionShift),
		Y: int32(blockCoord(p[1]) >> regionShift),
		Z: int32(blockCoord(p[2]) >> regionShift),
	}
}

func (r RegionPos) Offset(dx, dy, dz int32) RegionPos {
	return RegionPos{X: r.X + dx, Y: r.Y + dy, Z: r.Z + dz}
}

// Pack folds the coordinates into 21 bits per axis.
func (r RegionPos) Pack() uint64 {
	return uint64(r.X)&packMask<<(2*packBits) |
		uint64(r.Y)&packMask<<packBits |
		uint64(r.Z)&packMask
}

func UnpackRegion(v uint64) RegionPos {
	return RegionPos{
		X: signExtend(v >> (2 * packBits)),
		Y: signExtend(v >> packBits),
		Z: signExtend(v),
	}
}

func signExtend(v uint64) int32 {
	v &= packMask
	if v&(1<<(packBits-1)) != 0 {
		return int32(int64(v) - 1<<packBits)
	}
	return int32(v)
}

func (r RegionPos) String() string {
	return fmt.Sprintf("[%d %d %d]", r.X, r.Y, r.Z)
}

func blockCoord(v float64) int64 {
	return int64(math.Floor(v))
}

// towardNearHalf picks the neighbour direction on one axis: the side of
// the region the coordinate sits closer to.
func towardNearHalf(v float64) int32 {
	if blockCoord(v)&regionMask >= RegionSize/2 {
		return 1
	}
	return -1
}

// Footprint returns the regions a source at anchor lights with the given
// luminance: nothing when dark, otherwise the 2x2x2 block of regions around
// the anchor's region, extended toward the nearest face on every axis.
// The walk order is stable so callers can compare footprints directly.
func Footprint(anchor mgl64.Vec3, luminance int) []RegionPos {
	if luminance <= 0 {
		return nil
	}

	base := RegionOf(anchor)
	dx := towardNearHalf(anchor[0])
	dy := towardNearHalf(anchor[1])
	dz := towardNearHalf(anchor[2])

	return []RegionPos{
		base,
		base.Offset(dx, 0, 0),
		base.Offset(dx, 0, dz),
		base.Offset(0, 0, dz),
		base.Offset(0, dy, 0),
		base.Offset(dx, dy, 0),
		base.Offset(dx, dy, dz),
		base.Offset(0, dy, dz),
	}
}
