package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/showaudit/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, err := New(context.Background(), &config.Config{})
	require.NoError(t, err)
	limiter := NewRateLimiter(client, "test")

	limit := VendorRateLimit(2 * time.Second)

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), limit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, limit.Limit, remaining)

	assert.NoError(t, limiter.Wait(context.Background(), limit))
}

func TestVendorRateLimit(t *testing.T) {
	tests := []struct {
		name  string
		delay time.Duration
		want  time.Duration
	}{
		{"configured delay", 2 * time.Second, 2 * time.Second},
		{"zero falls back", 0, time.Second},
		{"negative falls back", -time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := VendorRateLimit(tt.delay)
			assert.Equal(t, "vendor", cfg.Key)
			assert.Equal(t, 1, cfg.Limit)
			assert.Equal(t, tt.want, cfg.Window)
		})
	}
}

func TestRateLimiter_Key(t *testing.T) {
	limiter := NewRateLimiter(&Client{}, "showaudit")
	assert.Equal(t, "showaudit:ratelimit:vendor", limiter.Key(VendorRateLimit(time.Second)))
}
