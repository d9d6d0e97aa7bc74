// Package main provides the entry point for the dynamo Discord bot.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/trumully/dynamo/internal/config"
	"github.com/trumully/dynamo/internal/di"
	"github.com/trumully/dynamo/internal/logger"
)

var (
	debug     bool
	withToken string
)

var rootCmd = &cobra.Command{
	Use:           "dynamo",
	Short:         "A personal Discord utility bot",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBot(config.Options{Token: withToken, Debug: debug})
	},
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Store the bot token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSetup()
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
	rootCmd.Flags().StringVar(&withToken, "with-token", "", "bot token to use for this run only")
	rootCmd.AddCommand(setupCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runBot(opts config.Options) error {
	// Pre-flight the configuration so a missing token gets a pointer to
	// setup instead of a stack of provider errors.
	if _, err := config.Load(opts); err != nil {
		if errors.Is(err, config.ErrMissingToken) {
			return errors.New("no bot token configured, run `dynamo setup` first")
		}
		return err
	}

	injector := di.NewContainer(opts)
	if err := di.Bootstrap(injector); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	log := do.MustInvoke[*logger.Logger](injector)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	// Shutdown runs in reverse initialization order: gateway first, then
	// caches, then the database.
	if err := injector.Shutdown(); err != nil {
		log.Error("shutdown error", "error", err)
	}

	log.Info("see you space cowboy...")
	return log.Close()
}

func runSetup() error {
	fmt.Print("Bot token: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read token: %w", err)
	}

	path, err := config.WriteToken(strings.TrimSpace(line))
	if err != nil {
		return err
	}

	fmt.Printf("Token saved to %s\n", path)
	return nil
}
