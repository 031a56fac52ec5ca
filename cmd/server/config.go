package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-decks/internal/config"
	"github.com/spf13/pflag"
)

const (
	migrateFlag = "migrate"
	envFileFlag = "env-file"
)

// registerFlags adds the server's own flags and the configuration flags
// to fs.
func registerFlags(fs *pflag.FlagSet) {
	config.RegisterFlags(fs)
	fs.String(migrateFlag, "", "run a migration command (up, down, reset, status, version) and exit")
	fs.String(envFileFlag, "", "path to a .env file (default ./.env)")
}

// loadAppConfig loads configuration with the parsed flags applied on top.
func loadAppConfig(fs *pflag.FlagSet) (*config.Config, error) {
	envFile, _ := fs.GetString(envFileFlag)
	cfg, err := config.LoadWith(config.LoadOptions{EnvFile: envFile, Flags: fs})
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// logConfig reports the loaded configuration without secrets.
func logConfig(cfg *config.Config, logger *slog.Logger) {
	logger.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Int("session_ttl_minutes", cfg.Session.TTLMinutes),
		slog.Bool("nats_enabled", cfg.NATS.URL != ""))
	logger.Debug("auth configuration",
		slog.Bool("jwt_secret_present", cfg.Auth.JWTSecret != ""),
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))
}
