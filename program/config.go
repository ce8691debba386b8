package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/keilerkonzept/popchart/internal/provider"
	"github.com/keilerkonzept/popchart/internal/region"
)

const (
	envBaseURL = "YUMEMI_API_BASE_URL"
	envAPIKey  = "YUMEMI_API_KEY"
)

type Config struct {
	// provider
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	Timeout        time.Duration `yaml:"timeout"`
	FixturePath    string        `yaml:"fixture"`
	FixtureLatency time.Duration `yaml:"fixture_latency"`
	LogPath        string        `yaml:"log"`

	// render
	ViewSplit     int  `yaml:"view_split"`
	SearchEnabled bool `yaml:"search"`
	StatsEnabled  bool `yaml:"stats"`
	StatsWindow   int  `yaml:"stats_window"`
	AltScreen     bool `yaml:"alt_screen"`

	// activity
	HotRegions     int           `yaml:"hot_regions"`
	ActivityWindow time.Duration `yaml:"activity_window"`
	ActivityTick   time.Duration `yaml:"activity_tick"`

	// export
	Output string `yaml:"output"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Metric string `yaml:"metric"`

	// regions
	Sample int `yaml:"sample"`
}

func defaultConfig() Config {
	return Config{
		BaseURL: "https://yumemi-frontend-engineer-codecheck-api.vercel.app",
		Timeout: provider.DefaultTimeout,

		ViewSplit:     35,
		SearchEnabled: true,
		StatsEnabled:  true,
		StatsWindow:   64,
		AltScreen:     true,

		HotRegions:     3,
		ActivityWindow: 5 * time.Minute,
		ActivityTick:   10 * time.Second,

		Output: "population.png",
		Sample: 13,
	}
}

var (
	config     = defaultConfig()
	configPath string
)

// loadConfig layers the config file and the environment under the flags the
// user set explicitly: defaults < file < environment < flags.
func loadConfig(flags *pflag.FlagSet) error {
	explicit := map[string]string{}
	flags.Visit(func(f *pflag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("parse config %s: %w", configPath, err)
		}
	}
	if v := os.Getenv(envBaseURL); v != "" {
		config.BaseURL = v
	}
	if v := os.Getenv(envAPIKey); v != "" {
		config.APIKey = v
	}

	for name, value := range explicit {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("--%s: %w", name, err)
		}
	}
	return nil
}

func validateAndNormalizeConfig() error {
	if config.Timeout <= 0 {
		return fmt.Errorf("--timeout must be > 0")
	}
	if config.FixtureLatency < 0 {
		return fmt.Errorf("--fixture-latency must be >= 0")
	}
	if config.HotRegions < 1 {
		return fmt.Errorf("--hot-regions must be >= 1")
	}
	if config.ActivityTick <= 0 {
		return fmt.Errorf("--activity-tick must be > 0")
	}
	if config.ActivityWindow < config.ActivityTick {
		return fmt.Errorf("--activity-window must be >= --activity-tick")
	}
	if config.ActivityWindow%config.ActivityTick != 0 {
		return fmt.Errorf("--activity-window must be a multiple of --activity-tick (got window=%s tick=%s)", config.ActivityWindow, config.ActivityTick)
	}
	if config.Width < 0 || config.Height < 0 {
		return fmt.Errorf("--width and --height must be >= 0")
	}
	if config.Metric != "" && !knownMetric(region.MetricType(config.Metric)) {
		return fmt.Errorf("--metric must be one of %v", region.DefaultMetricTypes)
	}

	config.ViewSplit = max(20, config.ViewSplit)
	config.ViewSplit = min(80, config.ViewSplit)
	if config.StatsWindow < 16 {
		config.StatsWindow = 16
	}
	return nil
}

func knownMetric(m region.MetricType) bool {
	for _, have := range region.DefaultMetricTypes {
		if have == m {
			return true
		}
	}
	return false
}

// newProvider returns the fixture provider when one is configured and the
// HTTP client otherwise. A missing API key surfaces here as a
// *region.ConfigurationError.
func newProvider() (provider.Provider, error) {
	if config.FixturePath != "" {
		f, err := provider.LoadFixture(config.FixturePath)
		if err != nil {
			return nil, err
		}
		f.Latency = config.FixtureLatency
		return f, nil
	}
	return provider.New(provider.Options{
		BaseURL: config.BaseURL,
		APIKey:  config.APIKey,
		Timeout: config.Timeout,
	})
}

func bindProviderFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&configPath, "config", configPath, "Read settings from this YAML file")
	f.StringVar(&config.BaseURL, "base-url", config.BaseURL, "Population API base URL (env "+envBaseURL+")")
	f.StringVar(&config.APIKey, "api-key", config.APIKey, "Population API key (env "+envAPIKey+")")
	f.DurationVar(&config.Timeout, "timeout", config.Timeout, "Per-request timeout")
	f.StringVar(&config.FixturePath, "fixture", config.FixturePath, "Serve data from this JSON file instead of the API")
	f.DurationVar(&config.FixtureLatency, "fixture-latency", config.FixtureLatency, "Delay every fixture request (e.g. 300ms)")
	f.StringVar(&config.LogPath, "log", config.LogPath, "Append logs to this file")
}
