package config

// Presets are named widget configurations keyed by use case.
var Presets = map[string]*Config{
	"ops": {
		Feed:    FeedConfig{URL: DefaultFeedURL, Prefix: DefaultFeedPrefix},
		Heatmap: HeatmapParams{Mode: "temperature", Intensity: 0.8},
		Widget:  WidgetConfig{Theme: "ocean", FrameRate: 30},
		DataDir: DefaultDataDir,
	},
	"occupancy": {
		Feed:    FeedConfig{URL: DefaultFeedURL, Prefix: DefaultFeedPrefix},
		Heatmap: HeatmapParams{Mode: "occupancy", Intensity: 0.6},
		Widget:  WidgetConfig{Theme: "minimal", FrameRate: 30},
		DataDir: DefaultDataDir,
	},
	"review": {
		Feed:    FeedConfig{URL: DefaultFeedURL, Prefix: DefaultFeedPrefix},
		Heatmap: HeatmapParams{Mode: "power", Intensity: 0.4},
		Widget:  WidgetConfig{Theme: "minimal", FrameRate: 15},
		DataDir: DefaultDataDir,
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}
