package commands

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/trumully/dynamo/internal/blobcache"
	"github.com/trumully/dynamo/internal/bot"
	"github.com/trumully/dynamo/internal/errors"
	"github.com/trumully/dynamo/internal/identicon"
	"github.com/trumully/dynamo/internal/logger"
)

// identiconTTL keeps rendered identicons around for repeat requests; they
// are deterministic, so staleness is not a concern, only disk usage.
const identiconTTL = 7 * 24 * time.Hour

var mentionPattern = regexp.MustCompile(`^<@!?([0-9]{15,20})>$`)

// Identicons implements /identicon and the "Identicon" user context menu.
type Identicons struct {
	blobs *blobcache.Cache
	log   *logger.Logger
	now   func() time.Time
}

// NewIdenticons creates the identicon module.
func NewIdenticons(blobs *blobcache.Cache, log *logger.Logger) *Identicons {
	return &Identicons{blobs: blobs, log: log, now: time.Now}
}

// Exports declares the identicon commands.
func (ic *Identicons) Exports() bot.Exports {
	fMinSize := float64(identicon.MinPatternSize)
	fMinWeight := float64(0)

	return bot.Exports{
		Commands: []*discordgo.ApplicationCommand{
			{
				Name:        "identicon",
				Description: "Get an identicon generated with a seed",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "seed",
						Description: "The seed to generate an identicon for",
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "pattern_size",
						Description: "The size of the pattern to generate",
						MinValue:    &fMinSize,
						MaxValue:    identicon.MaxPatternSize,
					},
					{
						Type:        discordgo.ApplicationCommandOptionNumber,
						Name:        "foreground_color_weight",
						Description: "The weight of the foreground color to generate",
						MinValue:    &fMinWeight,
						MaxValue:    1,
					},
					{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "ephemeral",
						Description: "Attempt to send output as an ephemeral/temporary response",
					},
				},
			},
			{
				Name: "Identicon",
				Type: discordgo.UserApplicationCommand,
			},
		},
		Handlers: map[string]bot.Handler{
			"identicon": ic.slash,
			"Identicon": ic.contextMenu,
		},
	}
}

func (ic *Identicons) slash(_ context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := bot.OptionMap(bot.SubcommandOptions(i.ApplicationCommandData()))

	patternSize := identicon.DefaultPatternSize
	if opt, ok := opts["pattern_size"]; ok {
		patternSize = int(opt.IntValue())
	}
	fgWeight := identicon.DefaultForegroundWeight
	if opt, ok := opts["foreground_color_weight"]; ok {
		fgWeight = opt.FloatValue()
	}
	ephemeral := false
	if opt, ok := opts["ephemeral"]; ok {
		ephemeral = opt.BoolValue()
	}

	var name string
	if opt, ok := opts["seed"]; ok {
		name = ic.seedName(s, i.GuildID, opt.StringValue())
	} else {
		// No seed given: a fresh one every invocation.
		name = strconv.FormatInt(ic.now().UnixNano(), 10)
	}

	return ic.respond(s, i, name, patternSize, fgWeight, ephemeral)
}

// contextMenu renders an identicon seeded by the target user's display name.
func (ic *Identicons) contextMenu(_ context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	data := i.ApplicationCommandData()
	name := data.TargetID
	if user, ok := data.Resolved.Users[data.TargetID]; ok {
		name = displayName(user, data.Resolved.Members[data.TargetID])
	}
	return ic.respond(s, i, identicon.SanitizeSeed(name), identicon.DefaultPatternSize, identicon.DefaultForegroundWeight, true)
}

// seedName normalizes raw seed input, resolving user mentions to the
// mentioned member's display name.
func (ic *Identicons) seedName(s *discordgo.Session, guildID, raw string) string {
	if match := mentionPattern.FindStringSubmatch(raw); match != nil && guildID != "" {
		if member, err := s.GuildMember(guildID, match[1]); err == nil {
			return displayName(member.User, member)
		}
	}
	return identicon.SanitizeSeed(raw)
}

func (ic *Identicons) respond(s *discordgo.Session, i *discordgo.InteractionCreate, name string, patternSize int, fgWeight float64, ephemeral bool) error {
	seed := identicon.DeriveSeed(name)

	img, err := ic.render(seed, patternSize, fgWeight)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "render identicon")
	}

	fg, _ := identicon.Colors(seed)
	embed := &discordgo.MessageEmbed{
		Title:       name,
		Description: fmt.Sprintf("Pattern size: %d\nForeground color weight: %.2f", patternSize, fgWeight),
		Color:       fg.Int(),
		Image:       &discordgo.MessageEmbedImage{URL: "attachment://identicon.png"},
	}

	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
		Files: []*discordgo.File{{
			Name:        "identicon.png",
			ContentType: "image/png",
			Reader:      bytes.NewReader(img),
		}},
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return bot.RespondData(s, i, data)
}

// render returns the PNG for the parameters, consulting the blob cache
// first. Cache failures only cost a re-render.
func (ic *Identicons) render(seed identicon.Seed, patternSize int, fgWeight float64) ([]byte, error) {
	key := identiconKey(seed, patternSize, fgWeight)
	if img, ok, err := ic.blobs.Get(key); err != nil {
		ic.log.Warn("identicon cache read failed", "error", err)
	} else if ok {
		return img, nil
	}

	img, err := identicon.Render(seed, patternSize, fgWeight, identicon.DefaultSize)
	if err != nil {
		return nil, err
	}
	if err := ic.blobs.Set(key, img, identiconTTL); err != nil {
		ic.log.Warn("identicon cache write failed", "error", err)
	}
	return img, nil
}

func identiconKey(seed identicon.Seed, patternSize int, fgWeight float64) string {
	return fmt.Sprintf("identicon:%s:%d:%.3f", seed, patternSize, fgWeight)
}

// displayName picks the name the guild shows for a user: nickname, then
// global display name, then username.
func displayName(user *discordgo.User, member *discordgo.Member) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if user == nil {
		return ""
	}
	if user.GlobalName != "" {
		return user.GlobalName
	}
	return user.Username
}
