package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/finlens/finlens-go/internal/models"
)

type Config struct {
	Environment string            `mapstructure:"environment"`
	LogLevel    string            `mapstructure:"log_level"`
	Correlation CorrelationConfig `mapstructure:"correlation"`
	Seasonal    SeasonalConfig    `mapstructure:"seasonal"`
	Pattern     PatternConfig     `mapstructure:"pattern"`
	Crossover   CrossoverConfig   `mapstructure:"crossover"`
	Cycle       CycleConfig       `mapstructure:"cycle"`
	Channel     ChannelConfig     `mapstructure:"channel"`
}

type CorrelationConfig struct {
	MaxLag        int `mapstructure:"max_lag"`
	RollingWindow int `mapstructure:"rolling_window"`
	Years         int `mapstructure:"years"`
}

type SeasonalConfig struct {
	Benchmarks []string `mapstructure:"benchmarks"`
}

type PatternConfig struct {
	ExtremumWindow int `mapstructure:"extremum_window"`
	RecentLimit    int `mapstructure:"recent_limit"`
	LevelBuckets   int `mapstructure:"level_buckets"`
	MinTouches     int `mapstructure:"min_touches"`
	LevelsPerSide  int `mapstructure:"levels_per_side"`
}

type CrossoverConfig struct {
	ShortPeriod int `mapstructure:"short_period"`
	LongPeriod  int `mapstructure:"long_period"`
}

type CycleConfig struct {
	MaxWindow int `mapstructure:"max_window"`
	MaxLag    int `mapstructure:"max_lag"`
	TopN      int `mapstructure:"top_n"`
}

type ChannelConfig struct {
	Lookback         int     `mapstructure:"lookback"`
	EndOffset        int     `mapstructure:"end_offset"`
	StdMultiplier    float64 `mapstructure:"std_multiplier"`
	PriceSource      string  `mapstructure:"price_source"`
	MaxSamplesPerDim int     `mapstructure:"max_samples_per_dim"`
	TouchTolerance   float64 `mapstructure:"touch_tolerance"`
	BoundaryFraction float64 `mapstructure:"boundary_fraction"`
	Timeframe        string  `mapstructure:"timeframe"`
	Zones            int     `mapstructure:"zones"`
}

// Source returns the configured price source as a typed value.
func (c ChannelConfig) Source() models.PriceSource {
	switch c.PriceSource {
	case string(models.PriceSourceHL2):
		return models.PriceSourceHL2
	case string(models.PriceSourceOHLC4):
		return models.PriceSourceOHLC4
	default:
		return models.PriceSourceClose
	}
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects parameter combinations the analytics cannot run with.
func (c *Config) Validate() error {
	if c.Correlation.MaxLag < 0 {
		return fmt.Errorf("correlation max_lag must be non-negative, got %d", c.Correlation.MaxLag)
	}
	if c.Correlation.RollingWindow < 2 {
		return fmt.Errorf("correlation rolling_window must be at least 2, got %d", c.Correlation.RollingWindow)
	}
	if c.Crossover.ShortPeriod < 1 || c.Crossover.LongPeriod < 1 {
		return fmt.Errorf("crossover periods must be positive, got %d/%d", c.Crossover.ShortPeriod, c.Crossover.LongPeriod)
	}
	if c.Crossover.ShortPeriod >= c.Crossover.LongPeriod {
		return fmt.Errorf("crossover short_period %d must be smaller than long_period %d", c.Crossover.ShortPeriod, c.Crossover.LongPeriod)
	}
	if c.Channel.Lookback < 2 {
		return fmt.Errorf("channel lookback must be at least 2, got %d", c.Channel.Lookback)
	}
	if c.Channel.TouchTolerance <= 0 || c.Channel.TouchTolerance >= 1 {
		return fmt.Errorf("channel touch_tolerance must be in (0,1), got %f", c.Channel.TouchTolerance)
	}
	if c.Channel.BoundaryFraction <= 0 || c.Channel.BoundaryFraction >= 0.5 {
		return fmt.Errorf("channel boundary_fraction must be in (0,0.5), got %f", c.Channel.BoundaryFraction)
	}
	switch c.Channel.PriceSource {
	case string(models.PriceSourceClose), string(models.PriceSourceHL2), string(models.PriceSourceOHLC4):
	default:
		return fmt.Errorf("channel price_source must be close, hl2 or ohlc4, got %q", c.Channel.PriceSource)
	}
	return nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Correlation
	viper.SetDefault("correlation.max_lag", 10)
	viper.SetDefault("correlation.rolling_window", 30)
	viper.SetDefault("correlation.years", 2)

	// Seasonal
	viper.SetDefault("seasonal.benchmarks", []string{})

	// Pattern detection
	viper.SetDefault("pattern.extremum_window", 5)
	viper.SetDefault("pattern.recent_limit", 10)
	viper.SetDefault("pattern.level_buckets", 50)
	viper.SetDefault("pattern.min_touches", 5)
	viper.SetDefault("pattern.levels_per_side", 5)

	// Moving-average crossover
	viper.SetDefault("crossover.short_period", 50)
	viper.SetDefault("crossover.long_period", 200)

	// Dominant-cycle detection
	viper.SetDefault("cycle.max_window", 512)
	viper.SetDefault("cycle.max_lag", 200)
	viper.SetDefault("cycle.top_n", 5)

	// Regression channel
	viper.SetDefault("channel.lookback", 120)
	viper.SetDefault("channel.end_offset", 0)
	viper.SetDefault("channel.std_multiplier", 2.0)
	viper.SetDefault("channel.price_source", "close")
	viper.SetDefault("channel.max_samples_per_dim", 50)
	viper.SetDefault("channel.touch_tolerance", 0.01)
	viper.SetDefault("channel.boundary_fraction", 0.08)
	viper.SetDefault("channel.timeframe", "daily")
	viper.SetDefault("channel.zones", 4)
}
