package config

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Session  SessionConfig  `mapstructure:"session"  validate:"required"`
	SRS      SRSConfig      `mapstructure:"srs"`
	NATS     NATSConfig     `mapstructure:"nats"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port               int      `mapstructure:"port"                  validate:"required,gt=0,lt=65536"`
	LogLevel           string   `mapstructure:"log_level"             validate:"required,oneof=debug info warn error"`
	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute" validate:"gte=0"`
	AllowedOrigins     []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL    string `mapstructure:"url"    validate:"required"`
}

// AuthConfig contains token and password hashing settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gtfield=TokenLifetimeMinutes"`
	BCryptCost                  int    `mapstructure:"bcrypt_cost"                    validate:"required,gte=4,lte=31"`
}

// SessionConfig controls review session bookkeeping.
type SessionConfig struct {
	TTLMinutes int `mapstructure:"ttl_minutes" validate:"required,gt=0"`
}

// SRSConfig overrides review engine constants. Zero keeps the default.
type SRSConfig struct {
	StartingEase float64 `mapstructure:"starting_ease" validate:"omitempty,gte=1.1"`
	EaseFloor    float64 `mapstructure:"ease_floor"    validate:"omitempty,gte=1.1"`
	K            float64 `mapstructure:"k"             validate:"omitempty,gt=0"`
	MaxInterval  int     `mapstructure:"max_interval"  validate:"omitempty,min=1,max=36500"`
}

// NATSConfig enables publishing review events. An empty URL disables it.
type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Subject string `mapstructure:"subject" validate:"required_with=URL"`
}
