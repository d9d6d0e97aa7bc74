package bot

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()

	cmd := &discordgo.ApplicationCommand{Name: "tag", Description: "Tag related commands"}
	require.NoError(t, r.Register(Exports{Commands: []*discordgo.ApplicationCommand{cmd}}))
	assert.Error(t, r.Register(Exports{Commands: []*discordgo.ApplicationCommand{cmd}}))

	h := Handler(nil)
	require.NoError(t, r.Register(Exports{Handlers: map[string]Handler{"tag get": h}}))
	assert.Error(t, r.Register(Exports{Handlers: map[string]Handler{"tag get": h}}))
}

func TestRegistryAllowsSameNameDifferentType(t *testing.T) {
	r := NewRegistry()

	slash := &discordgo.ApplicationCommand{Name: "avatar", Type: discordgo.ChatApplicationCommand}
	menu := &discordgo.ApplicationCommand{Name: "avatar", Type: discordgo.UserApplicationCommand}

	require.NoError(t, r.Register(Exports{Commands: []*discordgo.ApplicationCommand{slash}}))
	assert.NoError(t, r.Register(Exports{Commands: []*discordgo.ApplicationCommand{menu}}))
}

func TestRegistryRejectsOverlongRawNames(t *testing.T) {
	r := NewRegistry()

	err := r.Register(Exports{ModalSubmits: map[string]RawHandler{"elevencharss": nil}})
	assert.Error(t, err)

	err = r.Register(Exports{ComponentSubmits: map[string]RawHandler{"": nil}})
	assert.Error(t, err)
}

func TestHashIsOrderIndependent(t *testing.T) {
	a := &discordgo.ApplicationCommand{Name: "alpha", Description: "a"}
	b := &discordgo.ApplicationCommand{Name: "beta", Description: "b"}

	r1 := NewRegistry()
	require.NoError(t, r1.Register(Exports{Commands: []*discordgo.ApplicationCommand{a, b}}))
	r2 := NewRegistry()
	require.NoError(t, r2.Register(Exports{Commands: []*discordgo.ApplicationCommand{b, a}}))

	h1, err := r1.Hash()
	require.NoError(t, err)
	h2, err := r2.Hash()
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 16)
}

func TestHashChangesWithDefinition(t *testing.T) {
	r1 := NewRegistry()
	require.NoError(t, r1.Register(Exports{Commands: []*discordgo.ApplicationCommand{
		{Name: "alpha", Description: "a"},
	}}))
	r2 := NewRegistry()
	require.NoError(t, r2.Register(Exports{Commands: []*discordgo.ApplicationCommand{
		{Name: "alpha", Description: "a, reworded"},
	}}))

	h1, err := r1.Hash()
	require.NoError(t, err)
	h2, err := r2.Hash()
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestPackIDRoundTrip(t *testing.T) {
	type ref struct {
		AuthorID int64  `json:"a"`
		Name     string `json:"n"`
	}

	payload, err := PackID(ref{AuthorID: 80351110224678912, Name: "greeting"})
	require.NoError(t, err)

	// Custom IDs are capped at 100 characters by Discord.
	customID := ModalCustomID("tag", payload)
	assert.LessOrEqual(t, len(customID), 100)

	match := modalIDPattern.FindStringSubmatch(customID)
	require.NotNil(t, match)
	assert.Equal(t, "tag", match[1])

	var got ref
	require.NoError(t, UnpackID(match[2], &got))
	assert.Equal(t, int64(80351110224678912), got.AuthorID)
	assert.Equal(t, "greeting", got.Name)
}

func TestUnpackIDRejectsGarbage(t *testing.T) {
	var v struct{}
	assert.Error(t, UnpackID("not base64!!", &v))
	assert.Error(t, UnpackID("bm90IGpzb24", &v))
}

func TestCustomIDPatterns(t *testing.T) {
	// Payloads may contain anything, including colons and newlines.
	match := modalIDPattern.FindStringSubmatch("m:tag:with:colons\nand newline")
	require.NotNil(t, match)
	assert.Equal(t, "tag", match[1])
	assert.Equal(t, "with:colons\nand newline", match[2])

	assert.Nil(t, modalIDPattern.FindStringSubmatch("b:tag:payload"))
	assert.Nil(t, componentIDPattern.FindStringSubmatch("m:tag:payload"))
	assert.Nil(t, modalIDPattern.FindStringSubmatch("m:overlongname:payload"))
}
