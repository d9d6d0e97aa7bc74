package bot

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/cespare/xxhash/v2"
)

// Custom IDs carry a short handler name and an opaque payload, so modals
// and components survive restarts without any in-memory view state.
// The name group is non-greedy so it splits at the first colon; payloads may
// contain colons of their own.
var (
	modalIDPattern     = regexp.MustCompile(`(?s)^m:(.{1,10}?):(.*)$`)
	componentIDPattern = regexp.MustCompile(`(?s)^b:(.{1,10}?):(.*)$`)
)

// MaxAutocompleteChoices is Discord's cap on autocomplete results.
const MaxAutocompleteChoices = 25

// Handler runs a slash or context-menu command invocation.
type Handler func(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) error

// Autocompleter produces choices for the focused option of a command.
type Autocompleter func(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, focused *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error)

// RawHandler runs a modal or component submission. payload is the raw
// custom-ID payload minus the "m:<name>:" prefix.
type RawHandler func(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, payload string) error

// Exports is everything a command module contributes to the bot.
type Exports struct {
	// Commands are the application command definitions to register.
	Commands []*discordgo.ApplicationCommand

	// Handlers are keyed by qualified command name ("tag create").
	Handlers map[string]Handler

	// Autocompletes are keyed by "<qualified name>:<option name>".
	Autocompletes map[string]Autocompleter

	// ModalSubmits and ComponentSubmits are keyed by the short name
	// embedded in the custom ID (at most 10 characters).
	ModalSubmits     map[string]RawHandler
	ComponentSubmits map[string]RawHandler
}

// Registry collects command definitions and their handlers.
type Registry struct {
	commands      []*discordgo.ApplicationCommand
	handlers      map[string]Handler
	autocompletes map[string]Autocompleter
	modals        map[string]RawHandler
	components    map[string]RawHandler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers:      make(map[string]Handler),
		autocompletes: make(map[string]Autocompleter),
		modals:        make(map[string]RawHandler),
		components:    make(map[string]RawHandler),
	}
}

// Register merges a module's exports. Name collisions are configuration
// mistakes, caught at startup.
func (r *Registry) Register(exports Exports) error {
	for _, cmd := range exports.Commands {
		if slices.ContainsFunc(r.commands, func(c *discordgo.ApplicationCommand) bool {
			return c.Name == cmd.Name && c.Type == cmd.Type
		}) {
			return fmt.Errorf("duplicate command %q", cmd.Name)
		}
		r.commands = append(r.commands, cmd)
	}

	for name, h := range exports.Handlers {
		if _, dup := r.handlers[name]; dup {
			return fmt.Errorf("duplicate handler %q", name)
		}
		r.handlers[name] = h
	}

	for key, a := range exports.Autocompletes {
		if _, dup := r.autocompletes[key]; dup {
			return fmt.Errorf("duplicate autocomplete %q", key)
		}
		r.autocompletes[key] = a
	}

	for name, h := range exports.ModalSubmits {
		if len(name) == 0 || len(name) > 10 {
			return fmt.Errorf("modal name %q must be 1-10 characters", name)
		}
		if _, dup := r.modals[name]; dup {
			return fmt.Errorf("duplicate modal handler %q", name)
		}
		r.modals[name] = h
	}

	for name, h := range exports.ComponentSubmits {
		if len(name) == 0 || len(name) > 10 {
			return fmt.Errorf("component name %q must be 1-10 characters", name)
		}
		if _, dup := r.components[name]; dup {
			return fmt.Errorf("duplicate component handler %q", name)
		}
		r.components[name] = h
	}

	return nil
}

// Commands returns the registered command definitions.
func (r *Registry) Commands() []*discordgo.ApplicationCommand {
	return r.commands
}

// CommandNames returns the registered top-level command names.
func (r *Registry) CommandNames() []string {
	names := make([]string, 0, len(r.commands))
	for _, cmd := range r.commands {
		names = append(names, cmd.Name)
	}
	return names
}

// Hash fingerprints the registered command definitions. The bot only
// pushes the tree to Discord when this changes between runs.
func (r *Registry) Hash() (string, error) {
	sorted := slices.Clone(r.commands)
	slices.SortFunc(sorted, func(a, b *discordgo.ApplicationCommand) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return int(a.Type) - int(b.Type)
	})

	// Commands are structs, not maps, so encoding/json already serializes
	// them in a fixed field order; sorting makes the whole tree stable.
	payload, err := json.Marshal(sorted)
	if err != nil {
		return "", fmt.Errorf("marshal command tree: %w", err)
	}

	return fmt.Sprintf("%016x", xxhash.Sum64(payload)), nil
}

// ModalCustomID builds a modal custom ID for the named handler.
func ModalCustomID(name, payload string) string {
	return "m:" + name + ":" + payload
}

// ComponentCustomID builds a component custom ID for the named handler.
func ComponentCustomID(name, payload string) string {
	return "b:" + name + ":" + payload
}

// PackID encodes v as URL-safe base64 JSON for embedding in a custom ID.
// Discord caps custom IDs at 100 characters, so payloads must stay small.
func PackID(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("pack custom id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// UnpackID decodes a payload produced by PackID into v.
func UnpackID(payload string, v any) error {
	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("unpack custom id: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unpack custom id: %w", err)
	}
	return nil
}
