package identicon

import (
	"math"
	"math/rand/v2"
)

// colorThreshold is the normalized distance below which two colors read as
// the same. 0.0 = same color, 1.0 = maximally different.
const colorThreshold = 0.4

// Maximum distances, derived from the distance between black and white.
const (
	maxPerceivedDistance = 764.83
	maxEuclideanDistance = 441.67
)

// RGB is a color in the sRGB cube.
type RGB struct {
	R, G, B uint8
}

// Int packs the color into the 0xRRGGBB form embeds use.
func (c RGB) Int() int {
	return int(c.R)<<16 | int(c.G)<<8 | int(c.B)
}

func (c RGB) difference(other RGB) (r, g, b int) {
	return int(c.R) - int(other.R), int(c.G) - int(other.G), int(c.B) - int(other.B)
}

// EuclideanDistance returns the straight-line distance between two colors,
// normalized to [0, ~1].
func (c RGB) EuclideanDistance(other RGB) float64 {
	r, g, b := c.difference(other)
	return math.Sqrt(float64(r*r+g*g+b*b)) / maxEuclideanDistance
}

// PerceivedDistance returns a distance weighted for human color perception,
// normalized to [0, ~1].
//
// See https://www.compuphase.com/cmetric.htm
func (c RGB) PerceivedDistance(other RGB) float64 {
	rMean := (int(c.R) + int(other.R)) >> 1
	r, g, b := c.difference(other)
	// ΔC = √((2 + r̄/256)·ΔR² + 4·ΔG² + (2 + (255 - r̄)/256)·ΔB²)
	sum := (((512 + rMean) * r * r) >> 8) + 4*g*g + (((767 - rMean) * b * b) >> 8)
	return math.Sqrt(float64(sum)) / maxPerceivedDistance
}

// Similar reports whether the two colors are too close to tell apart when
// used as figure and ground.
func (c RGB) Similar(other RGB) bool {
	return c.PerceivedDistance(other) <= colorThreshold && c.EuclideanDistance(other) <= colorThreshold
}

func makeColor(rng *rand.Rand) RGB {
	return RGB{
		R: uint8(rng.IntN(256)),
		G: uint8(rng.IntN(256)),
		B: uint8(rng.IntN(256)),
	}
}

// Colors derives the foreground and background pair for a seed. The
// background is redrawn until it is distinguishable from the foreground.
func Colors(seed Seed) (fg, bg RGB) {
	rng := seed.rand()
	fg, bg = makeColor(rng), makeColor(rng)

	for fg.Similar(bg) {
		bg = makeColor(rng)
	}

	return fg, bg
}
