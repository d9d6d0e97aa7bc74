// Package timeutil renders times and durations the way Discord users read
// them: relative timestamps, humanized deltas, and clock-hour strings.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/trumully/dynamo/internal/format"
)

// FormatDT renders t as a Discord timestamp markdown token, e.g.
// <t:1700000000:R>. The client localizes it for whoever is reading.
func FormatDT(t time.Time, style string) string {
	if style == "" {
		return fmt.Sprintf("<t:%d>", t.Unix())
	}
	return fmt.Sprintf("<t:%d:%s>", t.Unix(), style)
}

// FormatRelative renders t as a relative Discord timestamp ("in 3 hours",
// "2 days ago").
func FormatRelative(t time.Time) string {
	return FormatDT(t, "R")
}

// HumanDelta describes the distance between source and dt in prose, e.g.
// "1 year and 2 months ago" or, brief, "1y 2mo". accuracy caps how many
// units appear; zero or negative means no cap. suffix controls the
// trailing " ago" on past times.
func HumanDelta(dt, source time.Time, accuracy int, brief, suffix bool) string {
	now := source.UTC().Truncate(time.Second)
	dt = dt.UTC().Truncate(time.Second)

	var d delta
	outputSuffix := ""
	if dt.After(now) {
		d = calendarDelta(now, dt)
	} else {
		d = calendarDelta(dt, now)
		if suffix {
			outputSuffix = " ago"
		}
	}

	units := []struct {
		value int
		name  string
		brief string
	}{
		{d.years, "year", "y"},
		{d.months, "month", "mo"},
		{d.days, "day", "d"},
		{d.hours, "hour", "h"},
		{d.minutes, "minute", "m"},
		{d.seconds, "second", "s"},
	}

	var output []string
	for _, u := range units {
		elem := u.value
		if elem == 0 {
			continue
		}

		// Weeks are carved out of days.
		if u.name == "day" {
			if weeks := elem / 7; weeks > 0 {
				elem -= weeks * 7
				if brief {
					output = append(output, fmt.Sprintf("%dw", weeks))
				} else {
					output = append(output, format.Plural(weeks, "week"))
				}
			}
		}

		if elem > 0 {
			if brief {
				output = append(output, fmt.Sprintf("%d%s", elem, u.brief))
			} else {
				output = append(output, format.Plural(elem, u.name))
			}
		}
	}

	if accuracy > 0 && len(output) > accuracy {
		output = output[:accuracy]
	}

	if len(output) == 0 {
		return "now"
	}

	if brief {
		return strings.Join(output, " ") + outputSuffix
	}
	return format.HumanJoin(output, "and") + outputSuffix
}

// delta is a calendar-aware decomposition of the span between two times.
type delta struct {
	years, months, days, hours, minutes, seconds int
}

// calendarDelta decomposes the span between from and to (from <= to) into
// calendar units, counting whole months by date arithmetic rather than a
// fixed month length.
func calendarDelta(from, to time.Time) delta {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	for months > 0 && addMonths(from, months).After(to) {
		months--
	}

	rem := to.Sub(addMonths(from, months))
	return delta{
		years:   months / 12,
		months:  months % 12,
		days:    int(rem / (24 * time.Hour)),
		hours:   int(rem/time.Hour) % 24,
		minutes: int(rem/time.Minute) % 60,
		seconds: int(rem/time.Second) % 60,
	}
}

// addMonths advances t by n months, capping the day of month at the target
// month's length instead of normalizing like time.AddDate does (Jan 31 plus
// one month is Feb 28, not Mar 3).
func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	m := int(month) - 1 + n
	year += m / 12
	m %= 12
	if m < 0 {
		m += 12
		year--
	}
	targetMonth := time.Month(m + 1)
	if dim := daysIn(year, targetMonth); day > dim {
		day = dim
	}
	return time.Date(year, targetMonth, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseHour interprets an hour entered by a user. Accepted forms are bare
// 24-hour values ("0" through "23") and 12-hour values with a meridiem
// ("12am", "3pm"). The empty string returns -1 with ok set, so an omitted
// optional field can be told apart from bad input.
func ParseHour(s string) (hour int, ok bool) {
	if s == "" {
		return -1, true
	}
	s = strings.ToLower(strings.TrimSpace(s))

	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n <= 23 {
			return n, true
		}
		return 0, false
	}

	var meridiem string
	switch {
	case strings.HasSuffix(s, "am"):
		meridiem = "am"
	case strings.HasSuffix(s, "pm"):
		meridiem = "pm"
	default:
		return 0, false
	}

	n, err := strconv.Atoi(strings.TrimSuffix(s, meridiem))
	if err != nil || n < 1 || n > 12 {
		return 0, false
	}
	if meridiem == "am" {
		if n == 12 {
			return 0, true
		}
		return n, true
	}
	if n == 12 {
		return 12, true
	}
	return n + 12, true
}

// HourString is the inverse of ParseHour for whole hours: 0 is "12am", 12 is
// "12pm", 15 is "3pm".
func HourString(hour int) string {
	switch {
	case hour == 0:
		return "12am"
	case hour == 12:
		return "12pm"
	case hour > 12:
		return fmt.Sprintf("%dpm", hour-12)
	default:
		return fmt.Sprintf("%dam", hour)
	}
}

// TrackDuration renders a playback position, "03:45" or "1:03:45" once the
// track runs over an hour.
func TrackDuration(d time.Duration) string {
	total := int(d / time.Second)
	minutes, seconds := total/60, total%60
	hours, minutes := minutes/60, minutes%60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
