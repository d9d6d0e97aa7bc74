package commands

import (
	"context"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/trumully/dynamo/internal/bot"
	"github.com/trumully/dynamo/internal/domain"
	"github.com/trumully/dynamo/internal/timeutil"
)

// The year option spans from the year two days ago (so "year" still offers
// the outgoing year right after new year) to three years ahead.
const (
	yearLookbehind = 48 * time.Hour
	yearsAhead     = 3
)

// commonMinutes are the round minutes people usually schedule on.
var commonMinutes = []int{0, 15, 20, 30, 40, 45}

// utcFooter nudges users who never picked a zone.
const utcFooter = "-# Used UTC time, consider changing your settings with /settings timezone"

// Times implements /time relative: a date-part picker that answers with a
// Discord relative timestamp in the user's own timezone.
type Times struct {
	settings *Settings
	now      func() time.Time
}

// NewTimes creates the time module.
func NewTimes(settings *Settings) *Times {
	return &Times{settings: settings, now: time.Now}
}

func (t *Times) yearRange() (minYear, maxYear int) {
	minYear = t.now().UTC().Add(-yearLookbehind).Year()
	return minYear, minYear + yearsAhead
}

// Exports declares the /time group.
func (t *Times) Exports() bot.Exports {
	minYear, maxYear := t.yearRange()
	fMinYear, fMinMonth, fMinDay, fMinMinute := float64(minYear), float64(1), float64(1), float64(0)
	maxHourLen := 5

	return bot.Exports{
		Commands: []*discordgo.ApplicationCommand{{
			Name:        "time",
			Description: "Time related commands",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "relative",
				Description: "Get the time relative to now",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:         discordgo.ApplicationCommandOptionInteger,
						Name:         "year",
						Description:  "Year of the target time",
						MinValue:     &fMinYear,
						MaxValue:     float64(maxYear),
						Autocomplete: true,
					},
					{
						Type:         discordgo.ApplicationCommandOptionInteger,
						Name:         "month",
						Description:  "Month of the target time",
						MinValue:     &fMinMonth,
						MaxValue:     12,
						Autocomplete: true,
					},
					{
						Type:        discordgo.ApplicationCommandOptionInteger,
						Name:        "day",
						Description: "Day of the target time",
						MinValue:    &fMinDay,
						MaxValue:    31,
					},
					{
						Type:         discordgo.ApplicationCommandOptionString,
						Name:         "hour",
						Description:  "Hour of the target time, like 15 or 3pm",
						MaxLength:    maxHourLen,
						Autocomplete: true,
					},
					{
						Type:         discordgo.ApplicationCommandOptionInteger,
						Name:         "minute",
						Description:  "Minute of the target time",
						MinValue:     &fMinMinute,
						MaxValue:     59,
						Autocomplete: true,
					},
				},
			}},
		}},
		Handlers: map[string]bot.Handler{
			"time relative": t.relative,
		},
		Autocompletes: map[string]bot.Autocompleter{
			"time relative:year":   t.autocompleteYear,
			"time relative:month":  t.autocompleteMonth,
			"time relative:hour":   t.autocompleteHour,
			"time relative:minute": t.autocompleteMinute,
		},
	}
}

func (t *Times) relative(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error {
	opts := bot.OptionMap(bot.SubcommandOptions(i.ApplicationCommandData()))

	userID, err := interactionUserID(i)
	if err != nil {
		return err
	}
	zone := t.settings.UserTimezone(ctx, userID)
	loc, locErr := time.LoadLocation(zone)
	if locErr != nil {
		loc = time.UTC
	}
	now := t.now().In(loc)

	hour := -1
	if opt, ok := opts["hour"]; ok {
		parsed, ok := timeutil.ParseHour(opt.StringValue())
		if !ok {
			return bot.Respond(s, i, "Not a valid hour", true)
		}
		hour = parsed
	}

	when, ok := replaceDateParts(now,
		intOption(opts, "year"),
		intOption(opts, "month"),
		intOption(opts, "day"),
		hour,
		intOption(opts, "minute"),
	)
	if !ok {
		return bot.Respond(s, i, "Invalid calendar date", true)
	}

	reply := "`" + timeutil.FormatRelative(when) + "`"
	if zone == domain.DefaultTimezone {
		reply += "\n" + utcFooter
	}
	return bot.Respond(s, i, reply, true)
}

// intOption reads an integer option, returning -1 when it was omitted.
func intOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) int {
	opt, ok := opts[name]
	if !ok {
		return -1
	}
	return int(opt.IntValue())
}

// replaceDateParts swaps the provided fields (-1 means keep) into now and
// reports whether the result is a real calendar date. time.Date would
// silently normalize February 31st; the round trip check rejects it instead.
func replaceDateParts(now time.Time, year, month, day, hour, minute int) (time.Time, bool) {
	y, m, d := now.Date()
	h, mi := now.Hour(), now.Minute()

	if year >= 0 {
		y = year
	}
	if month >= 0 {
		m = time.Month(month)
	}
	if day >= 0 {
		d = day
	}
	if hour >= 0 {
		h = hour
	}
	if minute >= 0 {
		mi = minute
	}

	when := time.Date(y, m, d, h, mi, now.Second(), 0, now.Location())
	if when.Year() != y || when.Month() != m || when.Day() != d {
		return time.Time{}, false
	}
	return when, true
}

func (t *Times) userNow(ctx context.Context, i *discordgo.InteractionCreate) time.Time {
	userID, err := interactionUserID(i)
	if err != nil {
		return t.now().UTC()
	}
	return t.now().In(t.settings.UserLocation(ctx, userID))
}

func (t *Times) autocompleteYear(_ context.Context, _ *discordgo.Session, _ *discordgo.InteractionCreate, focused *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	minYear, maxYear := t.yearRange()
	return yearChoices(focused.StringValue(), minYear, maxYear), nil
}

func yearChoices(current string, minYear, maxYear int) []*discordgo.ApplicationCommandOptionChoice {
	if current == "" {
		choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, maxYear-minYear+1)
		for y := minYear; y <= maxYear; y++ {
			choices = append(choices, intChoice(y))
		}
		return choices
	}

	if y, err := strconv.Atoi(current); err == nil && len(current) == 4 && y >= minYear && y <= maxYear {
		return []*discordgo.ApplicationCommandOptionChoice{intChoice(y)}
	}
	return nil
}

func (t *Times) autocompleteMonth(ctx context.Context, _ *discordgo.Session, i *discordgo.InteractionCreate, focused *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	now := t.userNow(ctx, i)

	// With a future year chosen, suggesting from January makes more sense
	// than from the current month.
	startMonth := int(now.Month())
	if opts := bot.OptionMap(bot.SubcommandOptions(i.ApplicationCommandData())); intOption(opts, "year") > now.Year() {
		startMonth = 1
	}

	return monthChoices(focused.StringValue(), startMonth), nil
}

func monthChoices(current string, startMonth int) []*discordgo.ApplicationCommandOptionChoice {
	if current == "" {
		choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, 12)
		for offset := range 12 {
			choices = append(choices, intChoice((startMonth-1+offset)%12+1))
		}
		return choices
	}

	if m, err := strconv.Atoi(current); err == nil && m >= 1 && m <= 12 {
		return []*discordgo.ApplicationCommandOptionChoice{intChoice(m)}
	}
	return nil
}

func (t *Times) autocompleteHour(ctx context.Context, _ *discordgo.Session, i *discordgo.InteractionCreate, focused *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	return hourChoices(focused.StringValue(), t.userNow(ctx, i).Hour()), nil
}

func hourChoices(current string, nowHour int) []*discordgo.ApplicationCommandOptionChoice {
	if current == "" {
		// All 24 hours, rotated so the current one leads.
		choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, 24)
		for offset := range 24 {
			label := timeutil.HourString((nowHour + offset) % 24)
			choices = append(choices, stringChoice(label))
		}
		return choices
	}

	// A bare number could mean either meridiem; offer all three readings.
	if n, err := strconv.Atoi(current); err == nil && n >= 0 && n <= 23 {
		return []*discordgo.ApplicationCommandOptionChoice{
			stringChoice(current),
			stringChoice(current + "am"),
			stringChoice(current + "pm"),
		}
	}

	if _, ok := timeutil.ParseHour(current); ok {
		return []*discordgo.ApplicationCommandOptionChoice{stringChoice(current)}
	}
	return nil
}

func (t *Times) autocompleteMinute(ctx context.Context, _ *discordgo.Session, i *discordgo.InteractionCreate, focused *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	return minuteChoices(focused.StringValue(), t.userNow(ctx, i).Minute()), nil
}

func minuteChoices(current string, nowMinute int) []*discordgo.ApplicationCommandOptionChoice {
	if current == "" {
		choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(commonMinutes)+1)
		onCommon := false
		for _, m := range commonMinutes {
			if m == nowMinute {
				onCommon = true
			}
		}
		if !onCommon {
			choices = append(choices, intChoice(nowMinute))
		}
		for _, m := range commonMinutes {
			choices = append(choices, intChoice(m))
		}
		return choices
	}

	if m, err := strconv.Atoi(current); err == nil && m >= 0 && m <= 59 {
		return []*discordgo.ApplicationCommandOptionChoice{intChoice(m)}
	}

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(commonMinutes))
	for _, m := range commonMinutes {
		choices = append(choices, intChoice(m))
	}
	return choices
}

func intChoice(v int) *discordgo.ApplicationCommandOptionChoice {
	return &discordgo.ApplicationCommandOptionChoice{Name: strconv.Itoa(v), Value: v}
}

func stringChoice(v string) *discordgo.ApplicationCommandOptionChoice {
	return &discordgo.ApplicationCommandOptionChoice{Name: v, Value: v}
}
