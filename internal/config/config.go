// Package config provides application configuration management with support for
// environment variables, command-line flags, and the config.toml secrets file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/trumully/dynamo/internal/validation"
)

const (
	appDirName       = "dynamo"
	configFileName   = "config.toml"
	databaseFileName = "dynamo.db"
	logFileName      = "dynamo.log"
	treeHashFileName = "tree.hash"
	blobCacheDirName = "blobs"
)

// Environment variables recognized at startup.
const (
	envToken    = "DYNAMO_TOKEN"
	envLogLevel = "DYNAMO_LOG_LEVEL"
	envDataDir  = "DYNAMO_DATA_DIR"
)

// ErrMissingToken indicates that no bot token was found in any configuration
// source. The fix is running `dynamo setup`.
var ErrMissingToken = errors.New("no bot token configured")

// Config holds the resolved application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Discord DiscordConfig
	Paths   PathsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Debug bool
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `toml:"log_level" validate:"required,oneof=debug info warn error"`
}

// DiscordConfig holds the gateway credentials.
type DiscordConfig struct {
	Token string `toml:"token" validate:"required,discord_token"`
}

// PathsConfig holds the resolved platform directories. The config dir carries
// the secrets file, the data dir the database and log, and the cache dir the
// command-tree hash and blob cache.
type PathsConfig struct {
	ConfigDir string
	DataDir   string
	CacheDir  string
}

// ConfigFile returns the location of the secrets file.
func (p PathsConfig) ConfigFile() string { return filepath.Join(p.ConfigDir, configFileName) }

// DatabaseFile returns the location of the SQLite database.
func (p PathsConfig) DatabaseFile() string { return filepath.Join(p.DataDir, databaseFileName) }

// LogFile returns the location of the rotating log file.
func (p PathsConfig) LogFile() string { return filepath.Join(p.DataDir, logFileName) }

// TreeHashFile returns the location of the cached command-tree hash.
func (p PathsConfig) TreeHashFile() string { return filepath.Join(p.CacheDir, treeHashFileName) }

// BlobCacheDir returns the directory backing the blob cache.
func (p PathsConfig) BlobCacheDir() string { return filepath.Join(p.CacheDir, blobCacheDirName) }

// Ensure creates all three directories with owner-only permissions.
func (p PathsConfig) Ensure() error {
	for _, dir := range []string{p.ConfigDir, p.DataDir, p.CacheDir} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// Options carries command-line overrides into Load. Zero values mean the flag
// was not set.
type Options struct {
	// Token supersedes the configured token for this run (--with-token).
	Token string
	// Debug forces the log level to debug (--debug).
	Debug bool
}

// fileConfig is the on-disk shape of config.toml.
type fileConfig struct {
	Token    string `toml:"token"`
	LogLevel string `toml:"log_level,omitempty"`
	DataDir  string `toml:"data_dir,omitempty"`
}

// Load builds configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. config.toml.
// 4. Default values (lowest priority).
func Load(opts Options) (*Config, error) {
	paths, err := resolvePaths()
	if err != nil {
		return nil, err
	}

	// Read the secrets file if it exists.
	var fc fileConfig
	raw, err := os.ReadFile(paths.ConfigFile())
	switch {
	case err == nil:
		if err := toml.Unmarshal(raw, &fc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", paths.ConfigFile(), err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// First run; setup has not happened yet.
	default:
		return nil, fmt.Errorf("read %s: %w", paths.ConfigFile(), err)
	}

	// The data dir may be relocated by env or file.
	if dataDir := getConfigValue("", envDataDir, fc.DataDir); dataDir != "" {
		expanded, err := expandPath(dataDir)
		if err != nil {
			return nil, fmt.Errorf("invalid data dir: %w", err)
		}
		paths.DataDir = expanded
	}

	cfg := &Config{
		App: AppConfig{
			Debug: opts.Debug,
		},
		Logger: LoggerConfig{
			Level: strings.ToLower(getConfigValue("", envLogLevel, valueOr(fc.LogLevel, "info"))),
		},
		Discord: DiscordConfig{
			Token: getConfigValue(opts.Token, envToken, fc.Token),
		},
		Paths: paths,
	}

	// --debug outranks every configured level.
	if cfg.App.Debug {
		cfg.Logger.Level = "debug"
	}

	if cfg.Discord.Token == "" {
		return nil, ErrMissingToken
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	return validation.New().Validate(c)
}

// WriteToken stores token in config.toml, creating the config directory with
// owner-only permissions. Keys already present in the file are preserved.
func WriteToken(token string) (string, error) {
	if !validation.ValidDiscordToken(token) {
		return "", errors.New("that does not look like a Discord bot token")
	}

	paths, err := resolvePaths()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(paths.ConfigDir, 0o700); err != nil {
		return "", fmt.Errorf("create %s: %w", paths.ConfigDir, err)
	}

	path := paths.ConfigFile()
	var fc fileConfig
	if raw, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(raw, &fc); err != nil {
			return "", fmt.Errorf("parse existing %s: %w", path, err)
		}
	}
	fc.Token = token

	out, err := toml.Marshal(fc)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	// WriteFile applies the mode only on create; clamp pre-existing files too.
	if err := os.Chmod(path, 0o600); err != nil {
		return "", fmt.Errorf("chmod %s: %w", path, err)
	}
	return path, nil
}

// resolvePaths locates the per-user application directories.
func resolvePaths() (PathsConfig, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return PathsConfig{}, fmt.Errorf("resolve user config dir: %w", err)
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return PathsConfig{}, fmt.Errorf("resolve user cache dir: %w", err)
	}
	dataDir, err := userDataDir()
	if err != nil {
		return PathsConfig{}, fmt.Errorf("resolve user data dir: %w", err)
	}

	return PathsConfig{
		ConfigDir: filepath.Join(configDir, appDirName),
		DataDir:   filepath.Join(dataDir, appDirName),
		CacheDir:  filepath.Join(cacheDir, appDirName),
	}, nil
}

// userDataDir returns the platform user-data directory, mirroring the
// conventions os.UserConfigDir follows for its tier.
func userDataDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		dir := os.Getenv("LocalAppData")
		if dir == "" {
			return "", errors.New("%LocalAppData% is not defined")
		}
		return dir, nil
	case "darwin", "ios":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return dir, nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}

// expandPath expands ~ and makes the path absolute.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// valueOr returns value unless it is empty, in which case it returns fallback.
func valueOr(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
