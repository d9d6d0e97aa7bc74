package bot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	lru "github.com/hashicorp/golang-lru/v2"

	domainerrors "github.com/trumully/dynamo/internal/errors"
	"github.com/trumully/dynamo/internal/logger"
	"github.com/trumully/dynamo/internal/ratelimit"
	"github.com/trumully/dynamo/internal/store"
	"github.com/trumully/dynamo/internal/waterfall"
)

const (
	// blockCacheSize bounds the in-memory mirror of the is_blocked column.
	blockCacheSize = 512

	// Last-interaction writes are batched: at most touchBatchSize user IDs
	// per transaction, flushed at least every touchMaxWait.
	touchMaxWait   = 10 * time.Second
	touchBatchSize = 100

	// touchFlushTimeout bounds the database write a flush performs.
	touchFlushTimeout = 5 * time.Second

	blockedMessage = "You are blocked from using this bot."
)

// Config carries everything the bot needs beyond its command registry.
type Config struct {
	Token string

	// TreeHashFile caches the command-tree fingerprint between runs so the
	// global command list is only pushed when it changes.
	TreeHashFile string

	Store   store.Store
	Limiter *ratelimit.CommandLimiter
	Logger  *logger.Logger
}

// Bot is the gateway client: it owns the Discord session, dispatches
// interactions to registered handlers, and keeps per-user bot state.
type Bot struct {
	session  *discordgo.Session
	registry *Registry
	store    store.Store
	limiter  *ratelimit.CommandLimiter
	log      *logger.Logger

	treeHashFile string

	blockCache *lru.Cache[int64, bool]
	lastSeen   *waterfall.Waterfall[int64]

	appID   string
	ownerID string
	uptime  time.Time
}

// New creates the bot around an unopened session. Start connects it.
func New(cfg Config, registry *Registry) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildPresences

	blockCache, err := lru.New[int64, bool](blockCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create block cache: %w", err)
	}

	b := &Bot{
		session:      session,
		registry:     registry,
		store:        cfg.Store,
		limiter:      cfg.Limiter,
		log:          cfg.Logger,
		treeHashFile: cfg.TreeHashFile,
		blockCache:   blockCache,
	}
	b.lastSeen = waterfall.New(touchMaxWait, touchBatchSize, b.flushLastSeen)

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)

	return b, nil
}

// Session exposes the underlying Discord session for command modules that
// need direct REST access.
func (b *Bot) Session() *discordgo.Session { return b.session }

// OwnerID returns the application owner's user ID, known after Start.
func (b *Bot) OwnerID() string { return b.ownerID }

// Uptime returns when the gateway connection first became ready.
func (b *Bot) Uptime() time.Time { return b.uptime }

// Start resolves the application identity, pushes the command tree if it
// changed since the last run, and opens the gateway connection.
func (b *Bot) Start(ctx context.Context) error {
	app, err := b.session.Application("@me")
	if err != nil {
		return fmt.Errorf("fetch application info: %w", err)
	}
	b.appID = app.ID
	if app.Owner != nil {
		b.ownerID = app.Owner.ID
	}

	if err := b.syncTree(); err != nil {
		return err
	}

	b.lastSeen.Start()
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	return nil
}

// Close disconnects from the gateway and drains the pending
// last-interaction batch.
func (b *Bot) Close(ctx context.Context) error {
	err := b.session.Close()
	if flushErr := b.lastSeen.Stop(ctx); flushErr != nil && err == nil {
		err = flushErr
	}
	return err
}

// syncTree pushes the full command list to Discord when its fingerprint
// differs from the cached one. Bulk overwrite is idempotent, so a crash
// between push and cache write only costs one redundant sync.
func (b *Bot) syncTree() error {
	hash, err := b.registry.Hash()
	if err != nil {
		return err
	}

	cached, err := os.ReadFile(b.treeHashFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read tree hash: %w", err)
	}
	if string(cached) == hash {
		b.log.Debug("command tree unchanged", "hash", hash)
		return nil
	}

	if _, err := b.session.ApplicationCommandBulkOverwrite(b.appID, "", b.registry.Commands()); err != nil {
		return fmt.Errorf("sync command tree: %w", err)
	}
	if err := os.WriteFile(b.treeHashFile, []byte(hash), 0o600); err != nil {
		return fmt.Errorf("write tree hash: %w", err)
	}
	b.log.Info("command tree synced", "commands", len(b.registry.Commands()), "hash", hash)
	return nil
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	if b.uptime.IsZero() {
		b.uptime = time.Now().UTC()
	}
	b.log.Info("ready", "user", r.User.String(), "id", r.User.ID)
}

// IsBlocked reports whether the user is refused service, consulting the
// cache before the store. Store errors fail open: an unreachable database
// should not lock everyone out.
func (b *Bot) IsBlocked(ctx context.Context, userID int64) bool {
	if blocked, ok := b.blockCache.Get(userID); ok {
		return blocked
	}
	blocked, err := b.store.IsBlocked(ctx, userID)
	if err != nil {
		b.log.Error("block lookup failed", "user_id", userID, "error", err)
		return false
	}
	b.blockCache.Add(userID, blocked)
	return blocked
}

// SetBlocked persists the block flag and updates the cache.
func (b *Bot) SetBlocked(ctx context.Context, userID int64, blocked bool) error {
	if err := b.store.SetBlocked(ctx, userID, blocked); err != nil {
		return err
	}
	b.blockCache.Add(userID, blocked)
	return nil
}

func (b *Bot) flushLastSeen(userIDs []int64) {
	ctx, cancel := context.WithTimeout(context.Background(), touchFlushTimeout)
	defer cancel()
	if err := b.store.TouchLastInteraction(ctx, userIDs); err != nil {
		b.log.Error("last-interaction flush failed", "users", len(userIDs), "error", err)
	}
}

// onInteraction is the single gateway entry point for every interaction:
// block gate first, then dispatch by interaction type.
func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	user := InteractionUser(i)
	if user == nil {
		return
	}
	userID, err := strconv.ParseInt(user.ID, 10, 64)
	if err != nil {
		b.log.Error("unparseable user id", "id", user.ID)
		return
	}

	if b.IsBlocked(ctx, userID) {
		// Blocked application commands get told; everything else is
		// acknowledged silently so the client stops spinning.
		if i.Type == discordgo.InteractionApplicationCommand {
			if err := Respond(s, i, blockedMessage, true); err != nil {
				b.log.Error("blocked reply failed", "error", err)
			}
		} else if err := Defer(s, i, true); err != nil {
			b.log.Error("blocked defer failed", "error", err)
		}
		return
	}

	b.lastSeen.Put(userID)

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.dispatchCommand(ctx, s, i, user.ID)
	case discordgo.InteractionApplicationCommandAutocomplete:
		b.dispatchAutocomplete(ctx, s, i)
	case discordgo.InteractionModalSubmit:
		b.dispatchRaw(ctx, s, i, i.ModalSubmitData().CustomID, modalIDPattern, b.registry.modals)
	case discordgo.InteractionMessageComponent:
		b.dispatchRaw(ctx, s, i, i.MessageComponentData().CustomID, componentIDPattern, b.registry.components)
	}
}

func (b *Bot) dispatchCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, userID string) {
	data := i.ApplicationCommandData()
	name := QualifiedName(data)

	handler, ok := b.registry.handlers[name]
	if !ok {
		b.log.Warn("unknown command", "name", name)
		b.replyError(s, i, domainerrors.NotFound(unknownCommandMessage(name, b.registry.CommandNames())))
		return
	}

	if b.limiter != nil {
		if allowed, retry := b.limiter.Allow(userID); !allowed {
			b.replyError(s, i, domainerrors.Cooldown(
				fmt.Sprintf("You are doing that too much. Try again in %.1fs.", retry.Seconds())))
			return
		}
	}

	if err := handler(ctx, s, i); err != nil {
		b.log.Error("command failed", "name", name, "user_id", userID, "error", err)
		b.replyError(s, i, err)
	}
}

func (b *Bot) dispatchAutocomplete(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	focused := FocusedOption(data.Options)
	if focused == nil {
		return
	}

	key := QualifiedName(data) + ":" + focused.Name
	complete, ok := b.registry.autocompletes[key]
	if !ok {
		return
	}

	choices, err := complete(ctx, s, i, focused)
	if err != nil {
		b.log.Error("autocomplete failed", "key", key, "error", err)
		choices = nil
	}
	if err := RespondChoices(s, i, choices); err != nil {
		b.log.Error("autocomplete reply failed", "key", key, "error", err)
	}
}

func (b *Bot) dispatchRaw(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, customID string, pattern *regexp.Regexp, handlers map[string]RawHandler) {
	match := pattern.FindStringSubmatch(customID)
	if match == nil {
		return
	}
	name, payload := match[1], match[2]

	handler, ok := handlers[name]
	if !ok {
		b.log.Warn("unroutable custom id", "name", name)
		return
	}

	if err := handler(ctx, s, i, payload); err != nil {
		b.log.Error("submission failed", "name", name, "error", err)
		b.replyError(s, i, err)
	}
}

// replyError surfaces err on the interaction. Domain errors with user-safe
// codes are shown verbatim; everything else collapses to a generic apology.
// Falls back to a followup in case the handler already responded.
func (b *Bot) replyError(s *discordgo.Session, i *discordgo.InteractionCreate, err error) {
	msg := "An unknown error occurred."
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		msg = domainErr.UserMessage()
	}

	if respondErr := Respond(s, i, msg, true); respondErr != nil {
		if followErr := FollowUp(s, i, msg, true); followErr != nil {
			b.log.Error("error reply failed", "error", followErr)
		}
	}
}

// QualifiedName flattens a command invocation to its space-joined path,
// e.g. "tag create" for the create subcommand of /tag.
func QualifiedName(data discordgo.ApplicationCommandInteractionData) string {
	parts := []string{data.Name}
	options := data.Options
	for len(options) == 1 {
		opt := options[0]
		if opt.Type != discordgo.ApplicationCommandOptionSubCommand &&
			opt.Type != discordgo.ApplicationCommandOptionSubCommandGroup {
			break
		}
		parts = append(parts, opt.Name)
		options = opt.Options
	}
	return strings.Join(parts, " ")
}

// SubcommandOptions returns the options of the invoked (nested) subcommand,
// or the top-level options for a plain command.
func SubcommandOptions(data discordgo.ApplicationCommandInteractionData) []*discordgo.ApplicationCommandInteractionDataOption {
	options := data.Options
	for len(options) == 1 {
		opt := options[0]
		if opt.Type != discordgo.ApplicationCommandOptionSubCommand &&
			opt.Type != discordgo.ApplicationCommandOptionSubCommandGroup {
			break
		}
		options = opt.Options
	}
	return options
}

// FocusedOption finds the option the user is currently typing into,
// descending through subcommands.
func FocusedOption(options []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range options {
		if opt.Focused {
			return opt
		}
		if child := FocusedOption(opt.Options); child != nil {
			return child
		}
	}
	return nil
}

// OptionMap indexes subcommand options by name for lookup convenience.
func OptionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}
