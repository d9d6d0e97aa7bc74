package commands

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/trumully/dynamo/internal/bot"
	"github.com/trumully/dynamo/internal/errors"
	"github.com/trumully/dynamo/internal/logger"
)

// interestedTTL is how long an interested-users listing stays cached. Event
// signups move slowly; 15 minutes of staleness is a fine trade for not
// walking the paginated REST endpoint on every lookup.
const interestedTTL = 15 * time.Minute

// eventUsersPageSize is Discord's page cap on the event users endpoint.
const eventUsersPageSize = 100

var (
	snowflakePattern = regexp.MustCompile(`^[0-9]{15,20}$`)
	eventURLPattern  = regexp.MustCompile(`(?i)^https?://(?:(?:ptb|canary|www)\.)?discord\.com/events/([0-9]{15,20})/([0-9]{15,20})$`)
)

// Events implements /event interested: who signed up for a scheduled event.
type Events struct {
	log        *logger.Logger
	interested *ttlcache.Cache[string, string]
	group      singleflight.Group
}

// NewEvents creates the events module.
func NewEvents(log *logger.Logger) *Events {
	return &Events{
		log: log,
		interested: ttlcache.New[string, string](
			ttlcache.WithTTL[string, string](interestedTTL),
		),
	}
}

// Exports declares the /event group. The command is guild-only; scheduled
// events do not exist in DMs.
func (e *Events) Exports() bot.Exports {
	dmPermission := false
	minLen := 1

	return bot.Exports{
		Commands: []*discordgo.ApplicationCommand{{
			Name:         "event",
			Description:  "Event related commands",
			DMPermission: &dmPermission,
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "interested",
				Description: "Get attendees of an event",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "event",
						Description: "The event to get attendees for. Either the event name, ID, or URL.",
						Required:    true,
						MinLength:   &minLen,
						MaxLength:   100,
					},
					{
						Type:        discordgo.ApplicationCommandOptionBoolean,
						Name:        "ephemeral",
						Description: "Attempt to send output as an ephemeral/temporary response",
					},
				},
			}},
		}},
		Handlers: map[string]bot.Handler{
			"event interested": e.interestedHandler,
		},
	}
}

func (e *Events) interestedHandler(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := bot.OptionMap(bot.SubcommandOptions(i.ApplicationCommandData()))
	ref := opts["event"].StringValue()

	ephemeral := true
	if opt, ok := opts["ephemeral"]; ok {
		ephemeral = opt.BoolValue()
	}

	if i.GuildID == "" {
		return errors.Validation("That command only works in a server.")
	}

	event, err := e.resolveEvent(s, i.GuildID, ref)
	if err != nil {
		return err
	}

	listing, err := e.interestedUsers(s, event)
	if err != nil {
		return err
	}
	return bot.Respond(s, i, listing, ephemeral)
}

// resolveEvent finds a scheduled event by ID, event URL, or name within the
// guild the interaction came from.
func (e *Events) resolveEvent(s *discordgo.Session, guildID, ref string) (*discordgo.GuildScheduledEvent, error) {
	if snowflakePattern.MatchString(ref) {
		event, err := s.GuildScheduledEvent(guildID, ref, false)
		if err != nil {
			return nil, errors.NotFoundf("No event with ID %s in this server.", ref).WithCause(err)
		}
		return event, nil
	}

	if match := eventURLPattern.FindStringSubmatch(ref); match != nil {
		urlGuildID, eventID := match[1], match[2]
		if urlGuildID != guildID {
			return nil, errors.NotFound("That event belongs to a different server.")
		}
		event, err := s.GuildScheduledEvent(guildID, eventID, false)
		if err != nil {
			return nil, errors.NotFound("No event found for that URL.").WithCause(err)
		}
		return event, nil
	}

	events, err := s.GuildScheduledEvents(guildID, false)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "list scheduled events")
	}
	for _, event := range events {
		if strings.EqualFold(event.Name, ref) {
			return event, nil
		}
	}
	return nil, errors.NotFoundf("No event named %q in this server.", ref)
}

// interestedUsers formats the event's signup list, serving repeats from
// cache and collapsing concurrent fetches of the same event into one.
func (e *Events) interestedUsers(s *discordgo.Session, event *discordgo.GuildScheduledEvent) (string, error) {
	key := event.GuildID + ":" + event.ID
	if item := e.interested.Get(key); item != nil {
		return item.Value(), nil
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		users, err := e.fetchUsers(s, event)
		if err != nil {
			return "", err
		}
		listing := formatInterested(event, users)
		e.interested.Set(key, listing, ttlcache.DefaultTTL)
		return listing, nil
	})
	if err != nil {
		return "", errors.Wrap(err, errors.CodeUnavailable, "fetch interested users")
	}
	return v.(string), nil
}

// fetchUsers pages through the event's signups.
func (e *Events) fetchUsers(s *discordgo.Session, event *discordgo.GuildScheduledEvent) ([]*discordgo.User, error) {
	var users []*discordgo.User
	after := ""
	for {
		page, err := s.GuildScheduledEventUsers(event.GuildID, event.ID, eventUsersPageSize, false, "", after)
		if err != nil {
			return nil, err
		}

		var lastID string
		users, lastID = collectPageUsers(users, page)

		// A short page ends the walk; so does a page with no usable cursor,
		// since there is nothing to continue from.
		if len(page) < eventUsersPageSize || lastID == "" {
			return users, nil
		}
		after = lastID
	}
}

// collectPageUsers appends the page's non-nil users and reports the last
// user ID seen, the cursor for the next page.
func collectPageUsers(users []*discordgo.User, page []*discordgo.GuildScheduledEventUser) ([]*discordgo.User, string) {
	lastID := ""
	for _, entry := range page {
		if entry.User == nil {
			continue
		}
		users = append(users, entry.User)
		lastID = entry.User.ID
	}
	return users, lastID
}

// formatInterested renders the copy-pasteable one-liner:
// `[Event Name](url) @user1 @user2 ...`
func formatInterested(event *discordgo.GuildScheduledEvent, users []*discordgo.User) string {
	mentions := make([]string, len(users))
	for idx, u := range users {
		mentions[idx] = u.Mention()
	}

	who := "No users found"
	if len(mentions) > 0 {
		who = strings.Join(mentions, " ")
	}
	return fmt.Sprintf("`[%s](%s) %s`", event.Name, eventURL(event), who)
}

func eventURL(event *discordgo.GuildScheduledEvent) string {
	return fmt.Sprintf("https://discord.com/events/%s/%s", event.GuildID, event.ID)
}
