package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "static", cfg.QuestionBank)
	assert.Equal(t, "reference", cfg.Evaluator)
	assert.Equal(t, "mock", cfg.Speech.Transcriber)
	assert.Equal(t, 5, cfg.Interview.QuestionCount)
	assert.Equal(t, 3*time.Second, cfg.Interview.PlaybackDuration)
	assert.Equal(t, 30*time.Second, cfg.Interview.OperationTimeout)
	assert.Equal(t, time.Second, cfg.Interview.TickInterval)
	assert.Equal(t, 30*time.Minute, cfg.Interview.SessionIdleTTL)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxFileBytes)
	assert.Equal(t, 10, cfg.Upload.MaxFiles)
	assert.Equal(t, "local", cfg.Storage.Driver)
}

func TestOverridesAreNormalised(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("DATABASE_DRIVER", "SQLite")
	v.Set("EVALUATOR", "Gemini")
	v.Set("PLAYBACK_DURATION", "250ms")
	v.Set("MINIO_USE_SSL", "true")
	cfg := fromViper(v)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "gemini", cfg.Evaluator)
	assert.Equal(t, 250*time.Millisecond, cfg.Interview.PlaybackDuration)
	assert.True(t, cfg.Storage.Minio.UseSSL)
}
