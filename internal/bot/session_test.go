package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualifiedName(t *testing.T) {
	plain := discordgo.ApplicationCommandInteractionData{Name: "identicon"}
	assert.Equal(t, "identicon", QualifiedName(plain))

	sub := discordgo.ApplicationCommandInteractionData{
		Name: "tag",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{{
			Name: "create",
			Type: discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{{
				Name:  "name",
				Type:  discordgo.ApplicationCommandOptionString,
				Value: "greeting",
			}},
		}},
	}
	assert.Equal(t, "tag create", QualifiedName(sub))

	nested := discordgo.ApplicationCommandInteractionData{
		Name: "dev",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{{
			Name: "block",
			Type: discordgo.ApplicationCommandOptionSubCommandGroup,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{{
				Name: "user",
				Type: discordgo.ApplicationCommandOptionSubCommand,
			}},
		}},
	}
	assert.Equal(t, "dev block user", QualifiedName(nested))
}

func TestSubcommandOptions(t *testing.T) {
	data := discordgo.ApplicationCommandInteractionData{
		Name: "tag",
		Options: []*discordgo.ApplicationCommandInteractionDataOption{{
			Name: "get",
			Type: discordgo.ApplicationCommandOptionSubCommand,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{{
				Name:  "name",
				Type:  discordgo.ApplicationCommandOptionString,
				Value: "greeting",
			}},
		}},
	}

	opts := SubcommandOptions(data)
	require.Len(t, opts, 1)
	assert.Equal(t, "name", opts[0].Name)

	m := OptionMap(opts)
	require.Contains(t, m, "name")
	assert.Equal(t, "greeting", m["name"].StringValue())
}

func TestFocusedOption(t *testing.T) {
	options := []*discordgo.ApplicationCommandInteractionDataOption{{
		Name: "relative",
		Type: discordgo.ApplicationCommandOptionSubCommand,
		Options: []*discordgo.ApplicationCommandInteractionDataOption{
			{Name: "year", Type: discordgo.ApplicationCommandOptionInteger},
			{Name: "hour", Type: discordgo.ApplicationCommandOptionString, Focused: true},
		},
	}}

	focused := FocusedOption(options)
	require.NotNil(t, focused)
	assert.Equal(t, "hour", focused.Name)

	assert.Nil(t, FocusedOption(nil))
}
