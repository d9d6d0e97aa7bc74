package commands

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/trumully/dynamo/internal/bot"
	"github.com/trumully/dynamo/internal/format"
	"github.com/trumully/dynamo/internal/logger"
	"github.com/trumully/dynamo/internal/media/card"
	"github.com/trumully/dynamo/internal/media/covers"
)

// spotifyGreen is the accent Discord itself uses for Spotify activities.
var spotifyGreen = color.RGBA{R: 0x1D, G: 0xB9, B: 0x54, A: 0xFF}

// Spotify implements /spotify: a rendered now-playing card for a member's
// Spotify presence.
type Spotify struct {
	covers *covers.Fetcher
	log    *logger.Logger
	now    func() time.Time
}

// NewSpotify creates the spotify module.
func NewSpotify(fetcher *covers.Fetcher, log *logger.Logger) *Spotify {
	return &Spotify{covers: fetcher, log: log, now: time.Now}
}

// Exports declares /spotify. Guild-only: presences only exist in guilds.
func (sp *Spotify) Exports() bot.Exports {
	dmPermission := false

	return bot.Exports{
		Commands: []*discordgo.ApplicationCommand{{
			Name:         "spotify",
			Description:  "Get the Spotify status of a user",
			DMPermission: &dmPermission,
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "The user to get the Spotify status of",
				Required:    true,
			}},
		}},
		Handlers: map[string]bot.Handler{
			"spotify": sp.handle,
		},
	}
}

// listening is a Spotify activity decomposed into the fields the card needs.
type listening struct {
	Title    string
	Artists  []string
	CoverURL string
	Duration time.Duration
	End      time.Time
}

func (sp *Spotify) handle(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	data := i.ApplicationCommandData()
	opts := bot.OptionMap(data.Options)

	targetID := opts["user"].Value.(string)
	target, ok := data.Resolved.Users[targetID]
	if !ok {
		return bot.Respond(s, i, "That user is not in this guild.", true)
	}

	presence, err := s.State.Presence(i.GuildID, targetID)
	if err != nil || presence == nil {
		return sp.respondNotListening(s, i, target)
	}

	track, ok := spotifyActivity(presence.Activities)
	if !ok {
		return sp.respondNotListening(s, i, target)
	}

	// Cover fetch and card render can outlive the 3-second response window.
	if err := bot.Defer(s, i, false); err != nil {
		return err
	}

	cover, err := sp.covers.Fetch(ctx, track.CoverURL)
	if err != nil {
		sp.log.Warn("album cover fetch failed", "url", track.CoverURL, "error", err)
		return bot.FollowUp(s, i, "Failed to fetch album cover.", true)
	}

	img, err := card.Render(card.Track{
		Title:    track.Title,
		Artists:  track.Artists,
		Album:    cover,
		Accent:   spotifyGreen,
		Duration: track.Duration,
		End:      track.End,
	}, sp.now())
	if err != nil {
		sp.log.Error("card render failed", "error", err)
		return bot.FollowUp(s, i, "Failed to fetch album cover.", true)
	}

	description := fmt.Sprintf("%s is listening to **%s** by **%s**",
		target.Mention(), track.Title, format.HumanJoin(track.Artists, "and"))

	return bot.FollowUpData(s, i, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "🎧 Now Playing",
			Description: description,
			Color:       int(spotifyGreen.R)<<16 | int(spotifyGreen.G)<<8 | int(spotifyGreen.B),
			Image:       &discordgo.MessageEmbedImage{URL: "attachment://spotify-card.png"},
		}},
		Files: []*discordgo.File{{
			Name:        "spotify-card.png",
			ContentType: "image/png",
			Reader:      bytes.NewReader(img),
		}},
	})
}

func (sp *Spotify) respondNotListening(s *discordgo.Session, i *discordgo.InteractionCreate, target *discordgo.User) error {
	who := displayName(target, nil) + " is"
	if invoker := bot.InteractionUser(i); invoker != nil && invoker.ID == target.ID {
		who = "You are"
	}
	return bot.Respond(s, i, who+" not listening to Spotify.", true)
}

// spotifyActivity extracts the Spotify listening activity from a presence,
// if there is one.
func spotifyActivity(activities []*discordgo.Activity) (listening, bool) {
	for _, act := range activities {
		if act == nil || act.Name != "Spotify" || act.Type != discordgo.ActivityTypeListening {
			continue
		}

		track := listening{
			Title:    act.Details,
			Artists:  splitArtists(act.State),
			CoverURL: albumCoverURL(act.Assets.LargeImageID),
		}
		if act.Timestamps.StartTimestamp > 0 && act.Timestamps.EndTimestamp > act.Timestamps.StartTimestamp {
			track.Duration = time.Duration(act.Timestamps.EndTimestamp-act.Timestamps.StartTimestamp) * time.Millisecond
			track.End = time.UnixMilli(act.Timestamps.EndTimestamp)
		}
		return track, track.CoverURL != ""
	}
	return listening{}, false
}

// splitArtists parses the activity state field, which carries artists
// joined by semicolons.
func splitArtists(state string) []string {
	parts := strings.Split(state, ";")
	artists := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			artists = append(artists, p)
		}
	}
	return artists
}

// albumCoverURL maps the activity's "spotify:<hash>" asset ID to its CDN URL.
func albumCoverURL(largeImageID string) string {
	hash, ok := strings.CutPrefix(largeImageID, "spotify:")
	if !ok || hash == "" {
		return ""
	}
	return "https://i.scdn.co/image/" + hash
}
