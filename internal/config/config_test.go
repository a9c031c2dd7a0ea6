package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SESSION_TTL", "")
	t.Setenv("QUEUE_BACKEND", "")
	t.Setenv("APP_TIMEZONE", "")

	cfg := Load()
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "redis", cfg.QueueBackend)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("RATE_LIMIT_PER_MIN", "30")
	t.Setenv("TEACHER_TOKEN_TTL", "90m")

	cfg := Load()
	assert.True(t, cfg.Production())
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, 30, cfg.RateLimitPerMin)
	assert.Equal(t, 90*time.Minute, cfg.TeacherTokenTTL)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "a day")
	t.Setenv("RATE_LIMIT_PER_MIN", "lots")
	t.Setenv("AUTO_MIGRATE", "maybe")
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")

	cfg := Load()
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, time.UTC, cfg.Location())
}
