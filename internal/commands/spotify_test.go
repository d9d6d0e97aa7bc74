package commands

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpotifyActivity(t *testing.T) {
	spotify := &discordgo.Activity{
		Name:    "Spotify",
		Type:    discordgo.ActivityTypeListening,
		Details: "Bohemian Rhapsody",
		State:   "Queen",
		Assets:  discordgo.Assets{LargeImageID: "spotify:ab67616d0000b273ce4f1737bc8a646c8c4bd25a"},
		Timestamps: discordgo.TimeStamps{
			StartTimestamp: 1_700_000_000_000,
			EndTimestamp:   1_700_000_354_000,
		},
	}

	t.Run("extracts track fields", func(t *testing.T) {
		track, ok := spotifyActivity([]*discordgo.Activity{
			{Name: "Overwatch", Type: discordgo.ActivityTypeGame},
			spotify,
		})
		require.True(t, ok)

		assert.Equal(t, "Bohemian Rhapsody", track.Title)
		assert.Equal(t, []string{"Queen"}, track.Artists)
		assert.Equal(t, "https://i.scdn.co/image/ab67616d0000b273ce4f1737bc8a646c8c4bd25a", track.CoverURL)
		assert.Equal(t, 354*time.Second, track.Duration)
		assert.Equal(t, time.UnixMilli(1_700_000_354_000), track.End)
	})

	t.Run("no spotify activity", func(t *testing.T) {
		_, ok := spotifyActivity([]*discordgo.Activity{
			{Name: "Overwatch", Type: discordgo.ActivityTypeGame},
		})
		assert.False(t, ok)

		_, ok = spotifyActivity(nil)
		assert.False(t, ok)
	})

	t.Run("listening without spotify asset", func(t *testing.T) {
		_, ok := spotifyActivity([]*discordgo.Activity{{
			Name: "Spotify",
			Type: discordgo.ActivityTypeListening,
		}})
		assert.False(t, ok, "no cover art means no card")
	})

	t.Run("game named spotify", func(t *testing.T) {
		_, ok := spotifyActivity([]*discordgo.Activity{{
			Name: "Spotify",
			Type: discordgo.ActivityTypeGame,
		}})
		assert.False(t, ok)
	})
}

func TestSplitArtists(t *testing.T) {
	assert.Equal(t, []string{"Queen"}, splitArtists("Queen"))
	assert.Equal(t, []string{"Daft Punk", "Pharrell Williams"}, splitArtists("Daft Punk; Pharrell Williams"))
	assert.Empty(t, splitArtists(""))
	assert.Empty(t, splitArtists(" ; "))
}

func TestAlbumCoverURL(t *testing.T) {
	assert.Equal(t, "https://i.scdn.co/image/abc123", albumCoverURL("spotify:abc123"))
	assert.Empty(t, albumCoverURL("spotify:"))
	assert.Empty(t, albumCoverURL("mp:external/whatever"))
	assert.Empty(t, albumCoverURL(""))
}
