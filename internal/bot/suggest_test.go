package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEditDistance(t *testing.T) {
	assert.Equal(t, 0, editDistance("tag", "tag"))
	assert.Equal(t, 1, editDistance("tag", "tags"))
	assert.Equal(t, 3, editDistance("", "tag"))
	assert.Equal(t, 3, editDistance("kitten", "sitting"))

	// Adjacent swaps are a single edit, not two.
	assert.Equal(t, 1, editDistance("tga", "tag"))
	assert.Equal(t, 1, editDistance("spotfiy", "spotify"))
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, similarity("Tag", "tag"), 0.001)
	assert.Greater(t, similarity("spotfy", "spotify"), suggestThreshold)
	assert.GreaterOrEqual(t, similarity("tga", "tag"), suggestThreshold)
	assert.Less(t, similarity("tag", "identicon"), suggestThreshold)
}

func TestClosestNames(t *testing.T) {
	known := []string{"tag", "time", "settings", "spotify", "identicon"}

	assert.Equal(t, []string{"tag"}, closestNames("tga", known))
	assert.Empty(t, closestNames("zzzzz", known))

	// Best match sorts first.
	got := closestNames("spotify", append(known, "spotifyy"))
	assert.Equal(t, "spotify", got[0])
}

func TestUnknownCommandMessage(t *testing.T) {
	msg := unknownCommandMessage("tga", []string{"tag"})
	assert.Contains(t, msg, "Did you mean")
	assert.Contains(t, msg, "tag")

	msg = unknownCommandMessage("zzzzz", []string{"tag"})
	assert.NotContains(t, msg, "Did you mean")
}
