package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string
	DatabasePath    string
	MigrationsDir   string
	SessionLifetime time.Duration
	AllowedOrigins  []string

	DiscordKey         string
	DiscordSecret      string
	DiscordCallbackURL string
	GoogleKey          string
	GoogleSecret       string
	GoogleCallbackURL  string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is loaded first if there is one.
func Load() (*Config, error) {
	_ = godotenv.Load()

	lifetime, err := time.ParseDuration(getEnv("BEERPONG_SESSION_LIFETIME", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid BEERPONG_SESSION_LIFETIME: %w", err)
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("BEERPONG_SESSION_LIFETIME must be positive, got %s", lifetime)
	}

	cfg := &Config{
		Addr:            getEnv("BEERPONG_ADDR", ":8080"),
		DatabasePath:    getEnv("BEERPONG_DB", "./beerpong.db"),
		MigrationsDir:   getEnv("BEERPONG_MIGRATIONS", "migrations"),
		SessionLifetime: lifetime,
		AllowedOrigins:  splitList(getEnv("BEERPONG_ALLOWED_ORIGINS", "http://localhost:8080")),

		DiscordKey:         os.Getenv("DISCORD_KEY"),
		DiscordSecret:      os.Getenv("DISCORD_SECRET"),
		DiscordCallbackURL: os.Getenv("DISCORD_CALLBACK_URL"),
		GoogleKey:          os.Getenv("GOOGLE_KEY"),
		GoogleSecret:       os.Getenv("GOOGLE_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
