package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoyaltyConfig_WithDefaults(t *testing.T) {
	t.Run("nil receiver", func(t *testing.T) {
		var cfg *LoyaltyConfig
		got := cfg.WithDefaults()

		assert.Equal(t, 8, got.RedemptionCodeLength)
		assert.Equal(t, 5, got.MaxCodeAttempts)
		assert.Equal(t, 5*time.Second, got.LockTimeout)
		assert.False(t, got.AutoMigrate)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		cfg := &LoyaltyConfig{RedemptionCodeLength: 10, MaxCodeAttempts: 2, LockTimeout: time.Second, AutoMigrate: true}
		got := cfg.WithDefaults()

		assert.Equal(t, *cfg, got)
	})
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{
		Redis:   &RedisConfig{Addr: "localhost:6379"},
		Metrics: &MetricsConfig{Enabled: true},
	}

	applyDefaults(cfg)

	assert.Equal(t, defaultMaxRequestBodySize, cfg.HTTP.MaxRequestBodySize)
	if assert.NotNil(t, cfg.Loyalty) {
		assert.Equal(t, defaultMaxCodeAttempts, cfg.Loyalty.MaxCodeAttempts)
	}
	if assert.NotNil(t, cfg.QRCode) {
		assert.Equal(t, defaultQRCodeSize, cfg.QRCode.Size)
	}
	assert.Equal(t, defaultRedisLockTTL, cfg.Redis.LockTTL)
	assert.Equal(t, defaultMetricsInterval, cfg.Metrics.Interval)
	assert.Nil(t, cfg.PubSub)
}

func TestApplyDefaults_PubSubTimeout(t *testing.T) {
	cfg := &Config{PubSub: &PubSubConfig{Provider: "local"}}

	applyDefaults(cfg)

	assert.Equal(t, defaultPublishTimeout, cfg.PubSub.PublishTimeout)
}
