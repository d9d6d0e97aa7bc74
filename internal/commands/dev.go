package commands

import (
	"context"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/trumully/dynamo/internal/bot"
	"github.com/trumully/dynamo/internal/errors"
	"github.com/trumully/dynamo/internal/logger"
)

// Dev implements /dev: owner-only moderation of who may use the bot.
type Dev struct {
	bot *bot.Bot
	log *logger.Logger
}

// NewDev creates the dev module. Bind must be called with the bot before any
// handler runs; the DI container wires that up after the bot exists.
func NewDev(log *logger.Logger) *Dev {
	return &Dev{log: log}
}

// Bind attaches the bot the module moderates.
func (d *Dev) Bind(b *bot.Bot) { d.bot = b }

// Exports declares the /dev group.
func (d *Dev) Exports() bot.Exports {
	userOption := []*discordgo.ApplicationCommandOption{{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: "The user to act on",
		Required:    true,
	}}

	return bot.Exports{
		Commands: []*discordgo.ApplicationCommand{{
			Name:        "dev",
			Description: "Developer commands",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "block",
					Description: "Block a user from using the bot",
					Options:     userOption,
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "unblock",
					Description: "Unblock a user from using the bot",
					Options:     userOption,
				},
			},
		}},
		Handlers: map[string]bot.Handler{
			"dev block":   d.block,
			"dev unblock": d.unblock,
		},
	}
}

func (d *Dev) block(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return d.setBlocked(ctx, s, i, true)
}

func (d *Dev) unblock(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return d.setBlocked(ctx, s, i, false)
}

func (d *Dev) setBlocked(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, blocked bool) error {
	if err := d.requireOwner(i); err != nil {
		return err
	}

	opts := bot.OptionMap(bot.SubcommandOptions(i.ApplicationCommandData()))
	targetID := opts["user"].Value.(string)

	userID, err := strconv.ParseInt(targetID, 10, 64)
	if err != nil {
		return errors.Validation("Not a valid user.")
	}
	if d.bot != nil && targetID == d.bot.OwnerID() {
		return errors.Validation("You cannot block the owner.")
	}

	if err := d.bot.SetBlocked(ctx, userID, blocked); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "update block flag")
	}

	target := "that user"
	if user, ok := i.ApplicationCommandData().Resolved.Users[targetID]; ok {
		target = user.String()
	}
	verb := "Blocked"
	if !blocked {
		verb = "Unblocked"
	}
	d.log.Info("block flag changed", "target", targetID, "blocked", blocked)
	return bot.Respond(s, i, verb+" "+target+".", true)
}

// requireOwner rejects everyone but the application owner.
func (d *Dev) requireOwner(i *discordgo.InteractionCreate) error {
	invoker := bot.InteractionUser(i)
	if d.bot == nil || invoker == nil || invoker.ID != d.bot.OwnerID() {
		return errors.Forbidden("You are not allowed to use that command.")
	}
	return nil
}
