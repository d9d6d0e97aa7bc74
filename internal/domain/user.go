package domain

import "time"

// User is a Discord user known to the bot. A row exists for anyone who has
// interacted with the bot at least once, or who was blocked before ever
// interacting.
type User struct {
	// ID is the Discord snowflake of the user.
	ID int64 `json:"id"`

	// Blocked users are refused service on every interaction.
	Blocked bool `json:"blocked"`

	// LastInteraction is when the user last triggered any interaction.
	// Maintained in batches, so it can lag real activity by a few seconds.
	LastInteraction time.Time `json:"last_interaction"`

	// Timezone is the user's IANA zone name. Defaults to "UTC" until the
	// user picks one.
	Timezone string `json:"timezone"`
}

// DefaultTimezone is the zone assigned to users who never picked one.
const DefaultTimezone = "UTC"

// Location resolves the user's stored zone name. Falls back to UTC if the
// stored name no longer resolves on this system.
func (u *User) Location() *time.Location {
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
