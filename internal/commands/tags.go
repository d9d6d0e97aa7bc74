// Package commands holds the bot's command modules. Each module bundles its
// application command definitions with the handlers that serve them and
// exposes both through a bot.Exports value.
package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/trumully/dynamo/internal/bot"
	"github.com/trumully/dynamo/internal/cache"
	"github.com/trumully/dynamo/internal/domain"
	"github.com/trumully/dynamo/internal/errors"
	"github.com/trumully/dynamo/internal/logger"
	"github.com/trumully/dynamo/internal/store"
)

// tagTrieCacheSize bounds how many users keep an autocomplete trie warm.
const tagTrieCacheSize = 128

// tagRef identifies a tag inside a modal custom ID. Short JSON keys keep the
// packed payload inside Discord's 100-character custom ID budget.
type tagRef struct {
	AuthorID int64  `json:"a"`
	Name     string `json:"n"`
}

// Tags implements the /tag command group: user-owned named text snippets.
type Tags struct {
	store store.Store
	log   *logger.Logger
	tries *lru.Cache[int64, *cache.Trie]
}

// NewTags creates the tag module.
func NewTags(st store.Store, log *logger.Logger) (*Tags, error) {
	tries, err := lru.New[int64, *cache.Trie](tagTrieCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create tag trie cache: %w", err)
	}
	return &Tags{store: st, log: log, tries: tries}, nil
}

// Exports declares the /tag group and its handlers.
func (t *Tags) Exports() bot.Exports {
	minNameLen := domain.TagNameMinLen

	nameOption := func(autocomplete bool) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         "name",
			Description:  "Name of the tag",
			Required:     true,
			MinLength:    &minNameLen,
			MaxLength:    domain.TagNameMaxLen,
			Autocomplete: autocomplete,
		}
	}

	return bot.Exports{
		Commands: []*discordgo.ApplicationCommand{{
			Name:        "tag",
			Description: "Tag related commands",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "create",
					Description: "Create a tag",
					Options:     []*discordgo.ApplicationCommandOption{nameOption(false)},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "get",
					Description: "Get a tag",
					Options:     []*discordgo.ApplicationCommandOption{nameOption(true)},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "delete",
					Description: "Delete a tag",
					Options:     []*discordgo.ApplicationCommandOption{nameOption(true)},
				},
			},
		}},
		Handlers: map[string]bot.Handler{
			"tag create": t.create,
			"tag get":    t.get,
			"tag delete": t.delete,
		},
		Autocompletes: map[string]bot.Autocompleter{
			"tag get:name":    t.autocompleteName,
			"tag delete:name": t.autocompleteName,
		},
		ModalSubmits: map[string]bot.RawHandler{
			"tag": t.modalSubmit,
		},
	}
}

// create opens the content modal; the tag is written on submission.
func (t *Tags) create(_ context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := bot.OptionMap(bot.SubcommandOptions(i.ApplicationCommandData()))
	name := opts["name"].StringValue()

	authorID, err := interactionUserID(i)
	if err != nil {
		return err
	}

	payload, err := bot.PackID(tagRef{AuthorID: authorID, Name: name})
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "pack tag modal id")
	}

	return bot.RespondModal(s, i, bot.ModalCustomID("tag", payload), "Add tag", []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:  "tag",
				Label:     "Tag",
				Style:     discordgo.TextInputParagraph,
				Required:  true,
				MinLength: domain.TagContentMinLen,
				MaxLength: domain.TagContentMaxLen,
			},
		}},
	})
}

// modalSubmit stores the tag content entered in the create modal.
func (t *Tags) modalSubmit(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, payload string) error {
	var ref tagRef
	if err := bot.UnpackID(payload, &ref); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "unpack tag modal id")
	}

	content, ok := modalTextValue(i.ModalSubmitData())
	if !ok {
		return errors.Internal("tag modal carried no text input")
	}

	if err := t.store.UpsertTag(ctx, ref.AuthorID, ref.Name, content); err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			return errors.Validation("That tag cannot be saved.").WithCause(err)
		}
		return err
	}

	t.refreshTrie(ctx, ref.AuthorID)
	return bot.Respond(s, i, "Tag added", true)
}

func (t *Tags) get(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := bot.OptionMap(bot.SubcommandOptions(i.ApplicationCommandData()))
	name := opts["name"].StringValue()

	userID, err := interactionUserID(i)
	if err != nil {
		return err
	}

	tag, err := t.store.GetTag(ctx, userID, name)
	if errors.Is(err, store.ErrNotFound) {
		return bot.Respond(s, i, "Tag not found", true)
	}
	if err != nil {
		return err
	}
	return bot.Respond(s, i, tag.Content, true)
}

func (t *Tags) delete(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := bot.OptionMap(bot.SubcommandOptions(i.ApplicationCommandData()))
	name := opts["name"].StringValue()

	userID, err := interactionUserID(i)
	if err != nil {
		return err
	}

	err = t.store.DeleteTag(ctx, userID, name)
	if errors.Is(err, store.ErrNotFound) {
		return bot.Respond(s, i, "Tag not found", true)
	}
	if err != nil {
		return err
	}

	t.tries.Remove(userID)
	return bot.Respond(s, i, "Deleted tag", true)
}

// autocompleteName suggests the user's own tag names matching the typed
// prefix.
func (t *Tags) autocompleteName(ctx context.Context, _ *discordgo.Session, i *discordgo.InteractionCreate, focused *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	userID, err := interactionUserID(i)
	if err != nil {
		return nil, err
	}

	trie, ok := t.tries.Get(userID)
	if !ok {
		trie = t.refreshTrie(ctx, userID)
	}

	matches := trie.Search(focused.StringValue())
	if len(matches) > bot.MaxAutocompleteChoices {
		matches = matches[:bot.MaxAutocompleteChoices]
	}

	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(matches))
	for idx, name := range matches {
		choices[idx] = &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name}
	}
	return choices, nil
}

// refreshTrie rebuilds the user's autocomplete trie from the store. Failures
// leave an empty trie; autocomplete is best effort.
func (t *Tags) refreshTrie(ctx context.Context, userID int64) *cache.Trie {
	trie := cache.NewTrie()
	names, err := t.store.ListTagNames(ctx, userID)
	if err != nil {
		t.log.Error("tag name listing failed", "user_id", userID, "error", err)
	}
	for _, name := range names {
		trie.Insert(name)
	}
	t.tries.Add(userID, trie)
	return trie
}

// interactionUserID parses the invoking user's snowflake.
func interactionUserID(i *discordgo.InteractionCreate) (int64, error) {
	user := bot.InteractionUser(i)
	if user == nil {
		return 0, errors.Internal("interaction without a user")
	}
	id, err := strconv.ParseInt(user.ID, 10, 64)
	if err != nil {
		return 0, errors.Internalf("unparseable user id %q", user.ID)
	}
	return id, nil
}

// modalTextValue digs the first text input's value out of a modal
// submission.
func modalTextValue(data discordgo.ModalSubmitInteractionData) (string, bool) {
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, component := range actionsRow.Components {
			if input, ok := component.(*discordgo.TextInput); ok {
				return input.Value, true
			}
		}
	}
	return "", false
}
