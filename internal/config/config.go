package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultFeedURL    = "nats://127.0.0.1:4222"
	DefaultFeedPrefix = "feed"
	DefaultMode       = "temperature"
	DefaultIntensity  = 0.5
	DefaultTheme      = "ocean"
	DefaultDataDir    = ".scenescope"
	DefaultFrameRate  = 30
)

type Config struct {
	Feed      FeedConfig    `yaml:"feed"`
	Heatmap   HeatmapParams `yaml:"heatmap"`
	Widget    WidgetConfig  `yaml:"widget"`
	ScenePath string        `yaml:"scene"`
	DataDir   string        `yaml:"data_dir"`
}

type FeedConfig struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix"`
}

type HeatmapParams struct {
	Mode      string  `yaml:"mode"`
	Intensity float64 `yaml:"intensity"`
}

type WidgetConfig struct {
	Theme     string `yaml:"theme"`
	FrameRate int    `yaml:"frame_rate"`
}

func DefaultConfig() *Config {
	return &Config{
		Feed: FeedConfig{
			URL:    DefaultFeedURL,
			Prefix: DefaultFeedPrefix,
		},
		Heatmap: HeatmapParams{
			Mode:      DefaultMode,
			Intensity: DefaultIntensity,
		},
		Widget: WidgetConfig{
			Theme:     DefaultTheme,
			FrameRate: DefaultFrameRate,
		},
		DataDir: DefaultDataDir,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks value ranges after load; zero-value gaps already carry
// defaults from DefaultConfig.
func (c *Config) Validate() error {
	if c.Heatmap.Intensity < 0 || c.Heatmap.Intensity > 1 {
		return fmt.Errorf("heatmap intensity %.2f out of range [0,1]", c.Heatmap.Intensity)
	}
	if c.Widget.FrameRate <= 0 {
		return fmt.Errorf("frame rate must be positive, got %d", c.Widget.FrameRate)
	}
	if c.Feed.URL == "" {
		return fmt.Errorf("feed url is required")
	}
	return nil
}
