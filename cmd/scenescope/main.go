package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/scenescope/scenescope/internal/binding"
	"github.com/scenescope/scenescope/internal/config"
	"github.com/scenescope/scenescope/internal/extension"
	"github.com/scenescope/scenescope/internal/feed"
	"github.com/scenescope/scenescope/internal/field"
	"github.com/scenescope/scenescope/internal/heatmap"
	"github.com/scenescope/scenescope/internal/snapshot"
	"github.com/scenescope/scenescope/internal/viewer"
	"github.com/scenescope/scenescope/internal/widget"
)

var (
	configFile string
	preset     string
	feedURL    string
	feedPrefix string
	mode       string
	intensity  float64
	theme      string
	scenePath    string
	dataDir      string
	frameRate    int
	exportFormat string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scenescope",
		Short: "terminal 3d viewer widget with heatmap extension",
		RunE:  runWidget,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&feedURL, "feed-url", config.DefaultFeedURL, "feed service url")
	rootCmd.PersistentFlags().StringVar(&feedPrefix, "feed-prefix", config.DefaultFeedPrefix, "feed subject prefix")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.Flags().StringVar(&mode, "mode", config.DefaultMode, "heatmap mode")
	rootCmd.Flags().Float64Var(&intensity, "intensity", config.DefaultIntensity, "heatmap intensity")
	rootCmd.Flags().StringVar(&theme, "theme", config.DefaultTheme, "color theme")
	rootCmd.Flags().StringVar(&scenePath, "scene", "", "scene file (yaml), built-in demo scene if empty")
	rootCmd.Flags().IntVar(&frameRate, "fps", config.DefaultFrameRate, "frame rate")

	fieldsCmd := &cobra.Command{
		Use:   "fields",
		Short: "list the platform field configuration",
		RunE:  listFields,
	}

	probeCmd := &cobra.Command{
		Use:   "probe [mode]",
		Short: "fetch one item set from the feed and plot it",
		Args:  cobra.ExactArgs(1),
		RunE:  probeFeed,
	}

	paletteCmd := &cobra.Command{
		Use:   "palette",
		Short: "preview the heat color ramp",
		RunE:  showPalette,
	}
	paletteCmd.Flags().Float64Var(&intensity, "intensity", config.DefaultIntensity, "alpha applied to the ramp")

	snapshotsCmd := &cobra.Command{
		Use:   "snapshots",
		Short: "list captured feed snapshots",
		RunE:  listSnapshots,
	}

	exportCmd := &cobra.Command{
		Use:   "export [snapshot_id]",
		Short: "export a captured snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSnapshot,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "export format (json or csv)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := config.ListPresets()
			sort.Strings(names)
			for _, p := range names {
				fmt.Println(p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(fieldsCmd, probeCmd, paletteCmd, snapshotsCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	// CLI flags override preset and config file.
	if cmd.Flags().Changed("feed-url") {
		cfg.Feed.URL = feedURL
	}
	if cmd.Flags().Changed("feed-prefix") {
		cfg.Feed.Prefix = feedPrefix
	}
	if cmd.Flags().Changed("mode") {
		cfg.Heatmap.Mode = mode
	}
	if cmd.Flags().Changed("intensity") {
		cfg.Heatmap.Intensity = intensity
	}
	if cmd.Flags().Changed("theme") {
		cfg.Widget.Theme = theme
	}
	if cmd.Flags().Changed("scene") {
		cfg.ScenePath = scenePath
	}
	if cmd.Flags().Changed("data") {
		cfg.DataDir = dataDir
	}
	if cmd.Flags().Changed("fps") {
		cfg.Widget.FrameRate = frameRate
	}
	return cfg, cfg.Validate()
}

func newLogger(dir string) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, "scenescope.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { f.Close() }, nil
}

func runWidget(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	creds, err := binding.CredentialsFromEnv()
	if err != nil {
		return fmt.Errorf("platform access: %w", err)
	}

	logger, closeLog, err := newLogger(cfg.DataDir)
	if err != nil {
		return err
	}
	defer closeLog()

	bindCtx, err := binding.NewContext(creds, field.Fields(), logger)
	if err != nil {
		return err
	}

	scene := viewer.DemoScene()
	if cfg.ScenePath != "" {
		scene, err = viewer.LoadScene(cfg.ScenePath)
		if err != nil {
			return err
		}
	}
	v := viewer.New(scene, logger)

	client, err := feed.Connect(cfg.Feed.URL, cfg.Feed.Prefix, feed.WithLogger(logger))
	if err != nil {
		return err
	}
	defer client.Close()

	sched := &widget.Scheduler{}
	heat := heatmap.New(heatmap.Options{
		Client:          client,
		Schedule:        sched.Schedule,
		OnParamsChanged: widget.SyncParams(bindCtx, logger),
		Logger:          logger,
	})
	heat.SetIntensity(cfg.Heatmap.Intensity)
	heat.SetMode(heatmap.Mode(cfg.Heatmap.Mode))

	reg := extension.NewRegistry(logger)
	if err := reg.Register(heat); err != nil {
		return err
	}
	if err := reg.LoadAll(v); err != nil {
		return err
	}

	snaps := snapshot.New(cfg.DataDir)
	if err := snaps.Init(); err != nil {
		return err
	}

	m := widget.NewModel(v, reg, heat, bindCtx, snaps,
		widget.GetTheme(cfg.Widget.Theme), cfg.Widget.FrameRate, logger)
	p := tea.NewProgram(m, tea.WithAltScreen())
	sched.Attach(p)

	_, runErr := p.Run()
	if err := reg.UnloadAll(); err != nil {
		logger.Warn("teardown", slog.String("error", err.Error()))
	}
	return runErr
}

func listFields(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDIRECTION\tTYPE\tDEFAULT\tLABEL")
	for _, d := range field.Fields() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\n", d.ID, d.Direction, d.ValueType, d.Default, d.Label)
	}
	return w.Flush()
}

func probeFeed(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	client, err := feed.Connect(cfg.Feed.URL, cfg.Feed.Prefix)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	items, err := client.Load(ctx, args[0])
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no items")
		return nil
	}

	sort.Slice(items, func(i, j int) bool { return items[i].TargetID < items[j].TargetID })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TARGET\tHEAT")
	for _, it := range items {
		fmt.Fprintf(w, "%d\t%.3f\n", it.TargetID, it.Heat)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	heats := make([]float64, len(items))
	for i, it := range items {
		heats[i] = it.Heat
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(heats,
		asciigraph.Height(10),
		asciigraph.Width(70),
		asciigraph.Caption(fmt.Sprintf("heat by element (%s)", args[0])),
	))
	return nil
}

func showPalette(cmd *cobra.Command, args []string) error {
	const steps = 32
	var swatches string
	hues := make([]float64, steps+1)
	for i := 0; i <= steps; i++ {
		heat := float64(i) / steps
		c := heatmap.HeatColor(heat)
		h, _, _ := c.Hsl()
		hues[i] = h
		swatches += lipgloss.NewStyle().Background(lipgloss.Color(c.Hex())).Render("  ")
	}
	fmt.Printf("heat 0.0 → 1.0 (alpha %.2f)\n%s\n\n", intensity, swatches)
	fmt.Println(asciigraph.Plot(hues,
		asciigraph.Height(8),
		asciigraph.Width(70),
		asciigraph.Caption("hue (degrees) vs heat"),
	))
	return nil
}

func listSnapshots(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	st := snapshot.New(cfg.DataDir)
	metas, err := st.List()
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println("no snapshots found")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODE\tTIME\tITEMS\tHEAT RANGE")
	for _, m := range metas {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f–%.2f\n",
			m.ID, m.Mode, m.Timestamp.Format("2006-01-02 15:04:05"), m.Count, m.MinHeat, m.MaxHeat)
	}
	return w.Flush()
}

func exportSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	st := snapshot.New(cfg.DataDir)
	switch exportFormat {
	case "json":
		return st.ExportJSON(args[0], os.Stdout)
	case "csv":
		return st.ExportCSV(args[0], os.Stdout)
	}
	return fmt.Errorf("unknown export format %q (json or csv)", exportFormat)
}
