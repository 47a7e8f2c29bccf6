package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "DATABASE_URL", "DB_CONNECT_ATTEMPTS", "UPLOAD_ALLOWED_HOSTS", "APP_URL", "KAFKA_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, ":8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Empty(t, cfg.Database.DSN)
	assert.Equal(t, 5, cfg.Database.ConnectAttempts)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, "usd", cfg.Stripe.Currency)
	assert.Equal(t, []string{"utfs.io", "sea1.ingest.uploadthing.com", "yfg7y7pev1.ufs.sh"}, cfg.Upload.AllowedHosts)
	assert.Equal(t, "http://localhost:3000", cfg.AppURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_CONNECT_ATTEMPTS", "9")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("APP_URL", "https://tickets.example.com/")
	t.Setenv("REDIS_ENABLED", "not-a-bool")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 9, cfg.Database.ConnectAttempts)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "https://tickets.example.com", cfg.AppURL)
	assert.True(t, cfg.Redis.Enabled, "unparsable bools fall back to the default")
}
