package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultTestConfig() *Config {
	return &Config{
		Environment: "test",
		LogLevel:    "debug",
		Correlation: CorrelationConfig{MaxLag: 10, RollingWindow: 30, Years: 2},
		Pattern:     PatternConfig{ExtremumWindow: 5, RecentLimit: 10, LevelBuckets: 50, MinTouches: 5, LevelsPerSide: 5},
		Crossover:   CrossoverConfig{ShortPeriod: 50, LongPeriod: 200},
		Cycle:       CycleConfig{MaxWindow: 512, MaxLag: 200, TopN: 5},
		Channel: ChannelConfig{
			Lookback:         120,
			EndOffset:        0,
			StdMultiplier:    2.0,
			PriceSource:      "close",
			MaxSamplesPerDim: 50,
			TouchTolerance:   0.01,
			BoundaryFraction: 0.08,
			Timeframe:        "daily",
			Zones:            4,
		},
	}
}

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10, cfg.Correlation.MaxLag)
	assert.Equal(t, 30, cfg.Correlation.RollingWindow)
	assert.Equal(t, 5, cfg.Pattern.ExtremumWindow)
	assert.Equal(t, 10, cfg.Pattern.RecentLimit)
	assert.Equal(t, 50, cfg.Pattern.LevelBuckets)
	assert.Equal(t, 50, cfg.Crossover.ShortPeriod)
	assert.Equal(t, 200, cfg.Crossover.LongPeriod)
	assert.Equal(t, 512, cfg.Cycle.MaxWindow)
	assert.Equal(t, "close", cfg.Channel.PriceSource)
	assert.Equal(t, 50, cfg.Channel.MaxSamplesPerDim)
	assert.InDelta(t, 0.01, cfg.Channel.TouchTolerance, 1e-12)
	assert.InDelta(t, 0.08, cfg.Channel.BoundaryFraction, 1e-12)
}

func TestLoad_EnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("CROSSOVER_SHORT_PERIOD", "20")
	t.Setenv("CROSSOVER_LONG_PERIOD", "60")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Crossover.ShortPeriod)
	assert.Equal(t, 60, cfg.Crossover.LongPeriod)
}

func TestValidate_Accepts_Defaults(t *testing.T) {
	assert.NoError(t, defaultTestConfig().Validate())
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative max lag", func(c *Config) { c.Correlation.MaxLag = -1 }},
		{"rolling window too small", func(c *Config) { c.Correlation.RollingWindow = 1 }},
		{"short period not below long", func(c *Config) { c.Crossover.ShortPeriod = 200 }},
		{"zero crossover period", func(c *Config) { c.Crossover.LongPeriod = 0 }},
		{"lookback too small", func(c *Config) { c.Channel.Lookback = 1 }},
		{"touch tolerance out of range", func(c *Config) { c.Channel.TouchTolerance = 1.5 }},
		{"boundary fraction out of range", func(c *Config) { c.Channel.BoundaryFraction = 0.6 }},
		{"unknown price source", func(c *Config) { c.Channel.PriceSource = "vwap" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultTestConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestChannelConfig_Source(t *testing.T) {
	assert.Equal(t, "close", string(ChannelConfig{PriceSource: "close"}.Source()))
	assert.Equal(t, "hl2", string(ChannelConfig{PriceSource: "hl2"}.Source()))
	assert.Equal(t, "ohlc4", string(ChannelConfig{PriceSource: "ohlc4"}.Source()))
	assert.Equal(t, "close", string(ChannelConfig{PriceSource: ""}.Source()))
}
