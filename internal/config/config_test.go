package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 8, cfg.Grading.Workers)
	assert.Equal(t, 100*time.Millisecond, cfg.Grading.RegexTimeout)
	assert.Equal(t, 8*time.Hour, cfg.Auth.TokenTTL)
	assert.NotEmpty(t, cfg.Auth.HMACSecret)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins())
	assert.Empty(t, cfg.Events.ForwardURL)
	assert.Equal(t, 30*time.Second, cfg.Events.ForwardEvery)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://db/quizgrade")
	t.Setenv("AUTH_HMAC_SECRET", "s3cret")
	t.Setenv("AUTH_ADMIN_PASS_HASH", "$2a$10$hash")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("GRADING_WORKERS", "3")
	t.Setenv("GRADING_REGEX_TIMEOUT", "250ms")
	t.Setenv("EVENTS_FORWARD_URL", "https://gradebook.example/scores")
	t.Setenv("EVENTS_FORWARD_EVERY", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "postgres://db/quizgrade", cfg.DB.DSN)
	assert.Equal(t, "s3cret", cfg.Auth.HMACSecret)
	assert.Equal(t, 3, cfg.Grading.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Grading.RegexTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins())
	assert.Equal(t, "https://gradebook.example/scores", cfg.Events.ForwardURL)
	assert.Equal(t, time.Minute, cfg.Events.ForwardEvery)
}

func TestLoad_SecretRequiredOutsideLocal(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingEnvironmentVariables)
}

func TestLoad_ForwardIntervalMustBePositive(t *testing.T) {
	t.Setenv("EVENTS_FORWARD_URL", "https://gradebook.example/scores")

	for _, every := range []string{"0s", "-5s"} {
		t.Setenv("EVENTS_FORWARD_EVERY", every)
		_, err := Load()
		assert.ErrorIs(t, err, ErrInvalidConfig, every)
	}

	t.Setenv("EVENTS_FORWARD_URL", "")
	t.Setenv("EVENTS_FORWARD_EVERY", "0s")
	_, err := Load()
	assert.NoError(t, err, "interval is unused without a forward url")
}
