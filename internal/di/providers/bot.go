package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/trumully/dynamo/internal/bot"
	"github.com/trumully/dynamo/internal/commands"
	"github.com/trumully/dynamo/internal/config"
	"github.com/trumully/dynamo/internal/logger"
	"github.com/trumully/dynamo/internal/ratelimit"
)

// Per-user command rate: one invocation a second sustained, short bursts
// allowed.
const (
	commandRPS   = 1.0
	commandBurst = 3
)

// LimiterHandle wraps the command limiter with shutdown capability.
type LimiterHandle struct {
	*ratelimit.CommandLimiter
}

// Shutdown implements do.Shutdowner.
func (h *LimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideLimiter provides the per-user command rate limiter.
func ProvideLimiter(i do.Injector) (*LimiterHandle, error) {
	return &LimiterHandle{CommandLimiter: ratelimit.New(commandRPS, commandBurst)}, nil
}

// BotHandle wraps the running bot with shutdown capability.
type BotHandle struct {
	*bot.Bot
}

// Shutdown implements do.Shutdowner.
func (h *BotHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Close(ctx)
}

// ProvideBot provides the connected bot. The gateway connection is open by
// the time this returns.
func ProvideBot(i do.Injector) (*BotHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	st := do.MustInvoke[*StoreHandle](i)
	limiter := do.MustInvoke[*LimiterHandle](i)
	registry := do.MustInvoke[*bot.Registry](i)

	b, err := bot.New(bot.Config{
		Token:        cfg.Discord.Token,
		TreeHashFile: cfg.Paths.TreeHashFile(),
		Store:        st,
		Limiter:      limiter.CommandLimiter,
		Logger:       log,
	}, registry)
	if err != nil {
		return nil, err
	}

	// The info and dev modules need the bot itself, which does not exist
	// until after their exports are registered.
	do.MustInvoke[*commands.Info](i).BindUptime(b.Uptime)
	do.MustInvoke[*commands.Dev](i).Bind(b)

	if err := b.Start(context.Background()); err != nil {
		return nil, err
	}

	log.Info("gateway connected")
	return &BotHandle{Bot: b}, nil
}
