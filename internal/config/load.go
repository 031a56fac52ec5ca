package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SCRY"

// keys lists every setting so environment variables are honoured even for
// keys without a default.
var keys = []string{
	"server.port",
	"server.log_level",
	"server.rate_limit_per_minute",
	"server.allowed_origins",
	"database.driver",
	"database.url",
	"auth.jwt_secret",
	"auth.token_lifetime_minutes",
	"auth.refresh_token_lifetime_minutes",
	"auth.bcrypt_cost",
	"session.ttl_minutes",
	"srs.starting_ease",
	"srs.ease_floor",
	"srs.k",
	"srs.max_interval",
	"nats.url",
	"nats.token",
	"nats.subject",
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"port":            "server.port",
	"log-level":       "server.log_level",
	"database-driver": "database.driver",
	"database-url":    "database.url",
}

// LoadOptions customizes Load. The zero value reads ./.env and looks for
// config.yaml in the working directory and ./config.
type LoadOptions struct {
	ConfigFile string
	EnvFile    string
	Flags      *pflag.FlagSet
}

// RegisterFlags adds the flags LoadWith understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file")
	fs.Int("port", 0, "HTTP port")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("database-driver", "", "database driver (postgres or sqlite)")
	fs.String("database-url", "", "database connection string")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.rate_limit_per_minute", 100)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 10080)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("session.ttl_minutes", 30)
	v.SetDefault("nats.subject", "scry.reviews.recorded")
}

// Load reads configuration with default options.
func Load() (*Config, error) {
	return LoadWith(LoadOptions{})
}

// LoadWith reads configuration from, in increasing precedence: defaults,
// the config file, environment variables (including a .env file) and
// explicitly set flags. The result is validated before it is returned.
func LoadWith(opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	configFile := opts.ConfigFile
	if configFile == "" && opts.Flags != nil {
		configFile, _ = opts.Flags.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if opts.Flags != nil {
		for name, key := range flagKeys {
			flag := opts.Flags.Lookup(name)
			if flag == nil || !flag.Changed {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
