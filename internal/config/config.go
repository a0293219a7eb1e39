// Package config gathers runtime settings from an optional .env file and
// the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tracker/internal/util"
)

// Config holds the server settings. Command line flags may override any
// field after Load.
type Config struct {
	Addr           string
	DBPath         string
	JWTSecret      string
	AllowedOrigins []string
	LogLevel       string
	TokenTTL       time.Duration
}

// Load reads envFile when it exists and then resolves every setting from
// the environment. Variables already set in the environment win over the
// file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	return Config{
		Addr:           util.EnvOrDefault("TRACKER_ADDR", ":8080"),
		DBPath:         util.EnvOrDefault("TRACKER_DB_PATH", "data/tracker.db"),
		JWTSecret:      util.EnvOrDefault("TRACKER_JWT_SECRET", ""),
		AllowedOrigins: util.EnvList("TRACKER_CORS_ORIGINS"),
		LogLevel:       util.EnvOrDefault("TRACKER_LOG_LEVEL", "info"),
		TokenTTL:       util.EnvDuration("TRACKER_TOKEN_TTL", 24*time.Hour),
	}, nil
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("TRACKER_JWT_SECRET is required")
	}
	if c.DBPath == "" {
		return errors.New("database path is required")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return lvl, nil
}
