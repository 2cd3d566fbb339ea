package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TT_STRING", "value")
	t.Setenv("TT_BOOL", "true")
	t.Setenv("TT_BAD_BOOL", "maybe")
	t.Setenv("TT_INT", "42")
	t.Setenv("TT_DURATION", "250ms")
	t.Setenv("TT_BAD_DURATION", "soon")

	assert.Equal(t, "value", envString("TT_STRING", "def"))
	assert.Equal(t, "def", envString("TT_MISSING", "def"))
	assert.True(t, envBool("TT_BOOL", false))
	assert.True(t, envBool("TT_BAD_BOOL", true))
	assert.Equal(t, 42, envInt("TT_INT", 1))
	assert.Equal(t, 1, envInt("TT_MISSING", 1))
	assert.Equal(t, 250*time.Millisecond, envDuration("TT_DURATION", time.Second))
	assert.Equal(t, time.Second, envDuration("TT_BAD_DURATION", time.Second))
}

func TestLoad(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PROFILE_SECRET", "test-secret")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("S3_BUCKET", "")

	cfg := Load()

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "gemini-1.5-flash", cfg.GeminiModel)
	assert.Equal(t, time.Second, cfg.AuthSignInDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.AuthSignOutDelay)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestLocation(t *testing.T) {
	assert.Equal(t, time.Local, (&Config{Timezone: "Local"}).Location())
	assert.Equal(t, time.Local, (&Config{Timezone: "Not/AZone"}).Location())
	assert.Equal(t, "UTC", (&Config{Timezone: "UTC"}).Location().String())
}

func TestSanitized_DropsSecrets(t *testing.T) {
	cfg := &Config{
		AppName:       "Task Tracker",
		ProfileSecret: "secret",
		GeminiAPIKey:  "key",
		S3SecretKey:   "s3",
	}

	safe := cfg.Sanitized()

	assert.Equal(t, "Task Tracker", safe.AppName)
	assert.Empty(t, safe.ProfileSecret)
	assert.Empty(t, safe.GeminiAPIKey)
	assert.Empty(t, safe.S3SecretKey)
}
