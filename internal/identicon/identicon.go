// Package identicon renders deterministic, seeded identicon images: a
// horizontally mirrored random pattern drawn in two colors picked to
// contrast with each other.
package identicon

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"net/url"
	"strings"

	"golang.org/x/image/draw"
)

// Pattern bounds exposed to command options.
const (
	MinPatternSize = 1
	MaxPatternSize = 32

	DefaultPatternSize      = 6
	DefaultForegroundWeight = 0.6

	// DefaultSize is the rendered image edge in pixels.
	DefaultSize = 256
)

// Seed is a deterministic random seed derived from user input.
type Seed struct {
	hi, lo uint64
}

// DeriveSeed hashes precursor into a Seed. Equal strings always yield equal
// seeds.
func DeriveSeed(precursor string) Seed {
	digest := sha256.Sum256([]byte(precursor))
	return Seed{
		hi: binary.BigEndian.Uint64(digest[0:8]),
		lo: binary.BigEndian.Uint64(digest[8:16]),
	}
}

// String renders the seed as fixed-width hex, usable as a cache key.
func (s Seed) String() string {
	return fmt.Sprintf("%016x%016x", s.hi, s.lo)
}

func (s Seed) rand() *rand.Rand {
	return rand.New(rand.NewPCG(s.hi, s.lo))
}

// SanitizeSeed normalizes raw user input into the string a seed is derived
// from. Pure digit strings lose leading zeros, URLs collapse to
// host-and-path with slashes turned into dashes, and anything else passes
// through unchanged.
func SanitizeSeed(raw string) string {
	if isDigits(raw) {
		trimmed := strings.TrimLeft(raw, "0")
		if trimmed == "" {
			return "0"
		}
		return trimmed
	}

	if parsed, err := url.Parse(raw); err == nil && parsed.Host != "" {
		return strings.ReplaceAll(parsed.Host+parsed.Path, "/", "-")
	}

	return raw
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Render draws the identicon for seed as a PNG of the given edge size. The
// pattern is patternSize columns wide, mirrored to a square, with each cell
// taking the foreground color with probability fgWeight.
func Render(seed Seed, patternSize int, fgWeight float64, size int) ([]byte, error) {
	if patternSize < MinPatternSize || patternSize > MaxPatternSize {
		return nil, fmt.Errorf("pattern size %d out of range [%d, %d]", patternSize, MinPatternSize, MaxPatternSize)
	}
	if fgWeight < 0 || fgWeight > 1 {
		return nil, fmt.Errorf("foreground weight %v out of range [0, 1]", fgWeight)
	}

	fg, bg := Colors(seed)

	// Half the pattern is random, the other half its mirror image.
	rng := seed.rand()
	side := patternSize * 2
	pattern := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := range side {
		for x := range patternSize {
			c := bg
			if rng.Float64() < fgWeight {
				c = fg
			}
			px := color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
			pattern.SetRGBA(x, y, px)
			pattern.SetRGBA(side-1-x, y, px)
		}
	}

	scaled := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), pattern, pattern.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("encode identicon: %w", err)
	}
	return buf.Bytes(), nil
}
