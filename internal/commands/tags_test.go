package commands

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trumully/dynamo/internal/bot"
)

func TestTagRefPacksWithinCustomIDBudget(t *testing.T) {
	// Worst case: a maximum-length snowflake owner and a maximum-length name.
	payload, err := bot.PackID(tagRef{AuthorID: 9_223_372_036_854_775_807, Name: "aaaaaaaaaaaaaaaaaaaa"})
	require.NoError(t, err)

	customID := bot.ModalCustomID("tag", payload)
	assert.LessOrEqual(t, len(customID), 100, "custom IDs over 100 chars are rejected by the API")

	var ref tagRef
	require.NoError(t, bot.UnpackID(payload, &ref))
	assert.Equal(t, int64(9_223_372_036_854_775_807), ref.AuthorID)
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaa", ref.Name)
}

func TestModalTextValue(t *testing.T) {
	t.Run("finds the text input", func(t *testing.T) {
		data := discordgo.ModalSubmitInteractionData{
			Components: []discordgo.MessageComponent{
				&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					&discordgo.TextInput{CustomID: "tag", Value: "hello world"},
				}},
			},
		}

		value, ok := modalTextValue(data)
		require.True(t, ok)
		assert.Equal(t, "hello world", value)
	})

	t.Run("no components", func(t *testing.T) {
		_, ok := modalTextValue(discordgo.ModalSubmitInteractionData{})
		assert.False(t, ok)
	})

	t.Run("row without text input", func(t *testing.T) {
		data := discordgo.ModalSubmitInteractionData{
			Components: []discordgo.MessageComponent{
				&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					&discordgo.Button{CustomID: "nope"},
				}},
			},
		}

		_, ok := modalTextValue(data)
		assert.False(t, ok)
	})
}
