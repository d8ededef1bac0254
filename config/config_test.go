package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENV", "test")

	cfg := LoadConfig()
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "recipe-images", cfg.MQ.ImageChannel)
	assert.Equal(t, 5*time.Second, cfg.Nutrition.Timeout)
	assert.Equal(t, int64(10<<20), cfg.UploadMaxBytes)
	assert.False(t, cfg.CookieSecure)
	assert.False(t, cfg.TrustProxy)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SESSION_SECRET", "  s3cret \n")
	t.Setenv("COOKIE_SECURE", "yes")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("MQ_BACKEND", "rabbitmq")
	t.Setenv("NUTRITION_TIMEOUT", "750ms")
	t.Setenv("NUTRITION_CACHE_TTL", "not-a-duration")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg := LoadConfig()
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "s3cret", cfg.SessionSecret)
	assert.True(t, cfg.CookieSecure)
	assert.True(t, cfg.Database.UseSSL)
	assert.Equal(t, "rabbitmq", cfg.MQ.Backend)
	assert.Equal(t, 750*time.Millisecond, cfg.Nutrition.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Nutrition.CacheTTL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestGetEnvBoolFallsBackOnGarbage(t *testing.T) {
	t.Setenv("FLAG_UNDER_TEST", "maybe")
	assert.True(t, getEnvBool("FLAG_UNDER_TEST", true))

	t.Setenv("FLAG_UNDER_TEST", "OFF")
	assert.False(t, getEnvBool("FLAG_UNDER_TEST", true))
}
