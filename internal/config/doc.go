// Package config loads application settings from defaults, an optional
// config file, a .env file, SCRY_-prefixed environment variables and command
// line flags, then validates the result.
package config
