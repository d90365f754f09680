package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("ENGINE_TX_RETRIES", "not-a-number")

	cfg := LoadEnv()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Engine.TxRetries)
	assert.Equal(t, time.Hour, cfg.Engine.OverdueScanInterval)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("ENGINE_OVERDUE_SCAN_INTERVAL", "15m")
	t.Setenv("ENGINE_LOW_STOCK_NOTIFY", "false")

	cfg := LoadEnv()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 15*time.Minute, cfg.Engine.OverdueScanInterval)
	assert.False(t, cfg.Engine.LowStockNotify)
}
