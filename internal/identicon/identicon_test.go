package identicon_test

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trumully/dynamo/internal/identicon"
)

func TestDeriveSeedIsDeterministic(t *testing.T) {
	a := identicon.DeriveSeed("dynamo")
	b := identicon.DeriveSeed("dynamo")
	c := identicon.DeriveSeed("Dynamo")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a.String(), 32)
}

func TestColorsAreDeterministicAndDistinct(t *testing.T) {
	for _, precursor := range []string{"a", "b", "200741917486571523", "example.com-a-b"} {
		seed := identicon.DeriveSeed(precursor)

		fg1, bg1 := identicon.Colors(seed)
		fg2, bg2 := identicon.Colors(seed)
		assert.Equal(t, fg1, fg2)
		assert.Equal(t, bg1, bg2)

		assert.False(t, fg1.Similar(bg1), "colors for %q should contrast", precursor)
	}
}

func TestColorDistances(t *testing.T) {
	black := identicon.RGB{}
	white := identicon.RGB{R: 255, G: 255, B: 255}

	assert.InDelta(t, 1.0, black.EuclideanDistance(white), 0.01)
	assert.InDelta(t, 1.0, black.PerceivedDistance(white), 0.01)
	assert.False(t, black.Similar(white))

	assert.Zero(t, black.EuclideanDistance(black))
	assert.True(t, black.Similar(black))
}

func TestRGBInt(t *testing.T) {
	c := identicon.RGB{R: 0x12, G: 0x34, B: 0x56}
	assert.Equal(t, 0x123456, c.Int())
}

func TestRenderIsDeterministic(t *testing.T) {
	seed := identicon.DeriveSeed("dynamo")

	a, err := identicon.Render(seed, identicon.DefaultPatternSize, identicon.DefaultForegroundWeight, identicon.DefaultSize)
	require.NoError(t, err)
	b, err := identicon.Render(seed, identicon.DefaultPatternSize, identicon.DefaultForegroundWeight, identicon.DefaultSize)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestRenderProducesPNGOfRequestedSize(t *testing.T) {
	seed := identicon.DeriveSeed("dynamo")

	raw, err := identicon.Render(seed, 6, 0.6, 256)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}

func TestRenderIsMirrored(t *testing.T) {
	seed := identicon.DeriveSeed("mirror")

	// Rendering at the pattern's own size keeps cells 1:1 with pixels.
	const patternSize = 4
	const side = patternSize * 2
	raw, err := identicon.Render(seed, patternSize, 0.6, side)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	for y := range side {
		for x := range patternSize {
			assert.Equal(t, img.At(x, y), img.At(side-1-x, y))
		}
	}
}

func TestRenderRejectsBadArguments(t *testing.T) {
	seed := identicon.DeriveSeed("dynamo")

	_, err := identicon.Render(seed, 0, 0.6, 256)
	assert.Error(t, err)

	_, err = identicon.Render(seed, 33, 0.6, 256)
	assert.Error(t, err)

	_, err = identicon.Render(seed, 6, 1.5, 256)
	assert.Error(t, err)
}

func TestSanitizeSeed(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain string", "some words", "some words"},
		{"digits", "12345", "12345"},
		{"digits lose leading zeros", "007", "7"},
		{"zero", "000", "0"},
		{"url", "https://example.com/a/b", "example.com-a-b"},
		{"url without path", "https://example.com", "example.com"},
		{"schemeless host is left alone", "example.com/x", "example.com/x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, identicon.SanitizeSeed(tt.in))
		})
	}
}
