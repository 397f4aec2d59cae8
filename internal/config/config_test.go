package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"BEERPONG_ADDR", "BEERPONG_DB", "BEERPONG_MIGRATIONS", "BEERPONG_SESSION_LIFETIME", "BEERPONG_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "./beerpong.db", cfg.DatabasePath)
	assert.Equal(t, "migrations", cfg.MigrationsDir)
	assert.Equal(t, 24*time.Hour, cfg.SessionLifetime)
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.AllowedOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BEERPONG_ADDR", ":9000")
	t.Setenv("BEERPONG_DB", "/tmp/cup.db")
	t.Setenv("BEERPONG_SESSION_LIFETIME", "2h")
	t.Setenv("BEERPONG_ALLOWED_ORIGINS", "http://a.example, ,http://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "/tmp/cup.db", cfg.DatabasePath)
	assert.Equal(t, 2*time.Hour, cfg.SessionLifetime)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
}

func TestLoadInvalidLifetime(t *testing.T) {
	testCases := []string{"soon", "-1h"}
	for _, value := range testCases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("BEERPONG_SESSION_LIFETIME", value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
