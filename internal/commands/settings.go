package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/trumully/dynamo/internal/bot"
	"github.com/trumully/dynamo/internal/cache"
	"github.com/trumully/dynamo/internal/domain"
	"github.com/trumully/dynamo/internal/logger"
	"github.com/trumully/dynamo/internal/store"
)

const (
	// timezoneCacheSize bounds the per-user zone name cache.
	timezoneCacheSize = 128

	maxTimezoneLen = 70
)

// Settings implements the /settings command group and serves as the source
// of per-user preferences for the other modules.
type Settings struct {
	store   store.Store
	log     *logger.Logger
	zones   *cache.Trie
	tzCache *lru.Cache[int64, string]
}

// NewSettings creates the settings module with the zone autocomplete trie
// prebuilt.
func NewSettings(st store.Store, log *logger.Logger) (*Settings, error) {
	tzCache, err := lru.New[int64, string](timezoneCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create timezone cache: %w", err)
	}

	zones := cache.NewTrie()
	for _, zone := range commonZones {
		zones.Insert(zone)
	}

	return &Settings{store: st, log: log, zones: zones, tzCache: tzCache}, nil
}

// Exports declares the /settings group.
func (st *Settings) Exports() bot.Exports {
	minLen := 1

	return bot.Exports{
		Commands: []*discordgo.ApplicationCommand{{
			Name:        "settings",
			Description: "Configure your settings",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "timezone",
				Description: "Set your timezone",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:         discordgo.ApplicationCommandOptionString,
					Name:         "timezone",
					Description:  "An IANA zone name, like Australia/Sydney",
					Required:     true,
					MinLength:    &minLen,
					MaxLength:    maxTimezoneLen,
					Autocomplete: true,
				}},
			}},
		}},
		Handlers: map[string]bot.Handler{
			"settings timezone": st.setTimezone,
		},
		Autocompletes: map[string]bot.Autocompleter{
			"settings timezone:timezone": st.autocompleteZone,
		},
	}
}

func (st *Settings) setTimezone(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := bot.OptionMap(bot.SubcommandOptions(i.ApplicationCommandData()))
	zone := opts["timezone"].StringValue()

	// "Local" resolves on the host but means nothing to the user reading it.
	if !validZone(zone) {
		return bot.Respond(s, i, "Invalid time zone: "+zone, true)
	}

	userID, err := interactionUserID(i)
	if err != nil {
		return err
	}

	if err := st.store.SetTimezone(ctx, userID, zone); err != nil {
		return err
	}
	st.tzCache.Add(userID, zone)

	return bot.Respond(s, i, "Timezone set to "+zone, true)
}

// UserTimezone returns the user's stored zone name, creating the user row
// with the UTC default on first contact. Lookup errors fall back to UTC.
func (st *Settings) UserTimezone(ctx context.Context, userID int64) string {
	if zone, ok := st.tzCache.Get(userID); ok {
		return zone
	}

	user, err := st.store.EnsureUser(ctx, userID)
	if err != nil {
		st.log.Error("timezone lookup failed", "user_id", userID, "error", err)
		return domain.DefaultTimezone
	}

	st.tzCache.Add(userID, user.Timezone)
	return user.Timezone
}

// UserLocation resolves the user's zone for calendar math.
func (st *Settings) UserLocation(ctx context.Context, userID int64) *time.Location {
	loc, err := time.LoadLocation(st.UserTimezone(ctx, userID))
	if err != nil {
		return time.UTC
	}
	return loc
}

func (st *Settings) autocompleteZone(_ context.Context, _ *discordgo.Session, _ *discordgo.InteractionCreate, focused *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	matches := st.zones.Search(focused.StringValue())
	if len(matches) > bot.MaxAutocompleteChoices {
		matches = matches[:bot.MaxAutocompleteChoices]
	}

	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(matches))
	for idx, zone := range matches {
		choices[idx] = &discordgo.ApplicationCommandOptionChoice{Name: zone, Value: zone}
	}
	return choices, nil
}

// validZone reports whether name is a usable IANA zone for display to other
// users, which excludes the host-relative "local" spellings.
func validZone(name string) bool {
	if name == "" || name == "local" || name == "Local" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}
