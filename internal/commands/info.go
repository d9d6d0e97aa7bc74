package commands

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/trumully/dynamo/internal/bot"
	"github.com/trumully/dynamo/internal/errors"
	"github.com/trumully/dynamo/internal/timeutil"
)

// uptimeAccuracy caps how many units the uptime string spells out.
const uptimeAccuracy = 3

// Info implements /about plus the avatar commands.
type Info struct {
	// uptime reports when the bot came up. Defaults to module creation
	// time until BindUptime supplies the gateway ready time.
	uptime func() time.Time
	now    func() time.Time
}

// NewInfo creates the info module.
func NewInfo() *Info {
	started := time.Now().UTC()
	return &Info{
		uptime: func() time.Time { return started },
		now:    time.Now,
	}
}

// BindUptime replaces the uptime source, normally with bot.Uptime once the
// bot exists.
func (inf *Info) BindUptime(f func() time.Time) { inf.uptime = f }

// Exports declares /about, /avatar, and the Avatar context menu.
func (inf *Info) Exports() bot.Exports {
	return bot.Exports{
		Commands: []*discordgo.ApplicationCommand{
			{
				Name:        "about",
				Description: "Get information about the bot",
			},
			{
				Name:        "avatar",
				Description: "Get the avatar of a user",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "The user to get the avatar of",
					Required:    true,
				}},
			},
			{
				Name: "Avatar",
				Type: discordgo.UserApplicationCommand,
			},
		},
		Handlers: map[string]bot.Handler{
			"about":  inf.about,
			"avatar": inf.avatarSlash,
			"Avatar": inf.avatarMenu,
		},
	}
}

func (inf *Info) about(_ context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	me := s.State.User
	if me == nil {
		return errors.Unavailable("not connected yet")
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	embed := &discordgo.MessageEmbed{
		Title: "About " + displayName(me, nil),
		Author: &discordgo.MessageEmbedAuthor{
			Name:    displayName(me, nil),
			IconURL: me.AvatarURL("256"),
		},
		Description: "A personal Discord utility bot.",
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Process",
				Value:  fmt.Sprintf("%.2f MiB\n%d goroutines", float64(mem.HeapAlloc)/(1024*1024), runtime.NumGoroutine()),
				Inline: true,
			},
			{
				Name:   "Uptime",
				Value:  timeutil.HumanDelta(inf.uptime(), inf.now(), uptimeAccuracy, true, false),
				Inline: true,
			},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Made with " + runtime.Version()},
		Timestamp: inf.now().UTC().Format(time.RFC3339),
	}

	if revision, at := buildVersion(); revision != "" {
		value := fmt.Sprintf("`%s`", revision)
		if !at.IsZero() {
			value += " (" + timeutil.FormatRelative(at) + ")"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Revision", Value: value, Inline: true,
		})
	}

	return bot.RespondData(s, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

func (inf *Info) avatarSlash(_ context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	data := i.ApplicationCommandData()
	opts := bot.OptionMap(data.Options)

	targetID := opts["user"].Value.(string)
	return inf.respondAvatar(s, i, data.Resolved.Users[targetID])
}

func (inf *Info) avatarMenu(_ context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	data := i.ApplicationCommandData()
	return inf.respondAvatar(s, i, data.Resolved.Users[data.TargetID])
}

func (inf *Info) respondAvatar(s *discordgo.Session, i *discordgo.InteractionCreate, user *discordgo.User) error {
	if user == nil {
		return errors.NotFound("No such user here.")
	}

	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{Name: user.String()},
		Image:  &discordgo.MessageEmbedImage{URL: user.AvatarURL("4096")},
		Footer: &discordgo.MessageEmbedFooter{Text: "ID: " + user.ID},
	}
	return bot.RespondData(s, i, &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

// buildVersion pulls the VCS stamp out of the build info, when the binary
// was built from a checkout.
func buildVersion() (revision string, at time.Time) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", time.Time{}
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
			if len(revision) > 7 {
				revision = revision[:7]
			}
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
				at = t
			}
		}
	}
	return revision, at
}
