package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrokers(t *testing.T) {
	c := &Config{KafkaBrokers: " kafka-1:9092, ,kafka-2:9092 "}
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, c.Brokers())

	assert.Empty(t, (&Config{}).Brokers())
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, (&Config{LogLevel: in}).SlogLevel(), in)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lounge")
	t.Setenv("RATE_LIMIT_BURST", "50")

	prev := AppConfig
	t.Cleanup(func() { AppConfig = prev })

	assert.NoError(t, LoadConfig())
	assert.Equal(t, "postgres://localhost/lounge", AppConfig.DatabaseURL)
	assert.Equal(t, ":8080", AppConfig.HTTPAddr)
	assert.Equal(t, "social.events", AppConfig.KafkaTopic)
	assert.Equal(t, 50, AppConfig.RateLimitBurst)
	assert.Equal(t, float64(5), AppConfig.RateLimitRPS)
}
