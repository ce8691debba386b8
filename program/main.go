package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	tui "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/keilerkonzept/popchart/internal/provider"
	"github.com/keilerkonzept/popchart/internal/region"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "popchart",
		Short:        "Compare the population of Japanese prefectures over time",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd.Flags()); err != nil {
				return err
			}
			return validateAndNormalizeConfig()
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI()
		},
	}
	bindProviderFlags(root)

	f := root.Flags()
	f.IntVar(&config.ViewSplit, "view-split", config.ViewSplit, "Split the view at this % of the total screen width [20,80]")
	f.BoolVar(&config.SearchEnabled, "search", config.SearchEnabled, "Enable search/filtering in the prefecture list")
	f.BoolVar(&config.StatsEnabled, "stats", config.StatsEnabled, "Show fetch and redraw stats")
	f.IntVar(&config.StatsWindow, "stats-window", config.StatsWindow, "Number of recent fetch latencies kept")
	f.BoolVar(&config.AltScreen, "alt-screen", config.AltScreen, "Use the terminal alternate screen buffer (recommended inside IDE terminals)")
	f.IntVar(&config.HotRegions, "hot-regions", config.HotRegions, "Show the N most frequently selected prefectures")
	f.DurationVar(&config.ActivityWindow, "activity-window", config.ActivityWindow, "Window over which selections are counted")
	f.DurationVar(&config.ActivityTick, "activity-tick", config.ActivityTick, "Activity window tick size")

	root.AddCommand(exportCmd(), regionsCmd(), citiesCmd())
	return root
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export CODE...",
		Short: "Write a PNG chart comparing the given prefecture codes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codes, err := parseCodes(args)
			if err != nil {
				return err
			}
			return withProvider(func(p provider.Provider) error {
				return runExport(cmd.Context(), p, codes, cmd.OutOrStdout())
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&config.Output, "out", "o", config.Output, "Write the chart to this PNG file")
	f.IntVar(&config.Width, "width", config.Width, "Image width in pixels (0 = default)")
	f.IntVar(&config.Height, "height", config.Height, "Image height in pixels (0 = default)")
	f.StringVar(&config.Metric, "metric", config.Metric, "Metric to chart ("+metricNames()+")")
	return cmd
}

func regionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "Check the provider connection and print a sample of its data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withProvider(func(p provider.Provider) error {
				return runRegions(cmd.Context(), p, config.Sample, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().IntVar(&config.Sample, "sample", config.Sample, "Prefecture code whose population is sampled (0 = skip)")
	return cmd
}

func citiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cities CODE",
		Short: "List the municipalities of a prefecture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := strconv.Atoi(args[0])
			if err != nil {
				return errors.New(args[0] + " is not a prefecture code")
			}
			return withProvider(func(p provider.Provider) error {
				return runCities(cmd.Context(), p, code, cmd.OutOrStdout())
			})
		},
	}
}

func runTUI() error {
	if !term.IsTerminal(os.Stdout.Fd()) {
		return errors.New("the interactive view needs a terminal; use `popchart export` to write a PNG instead")
	}
	p, err := newProvider()
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(true)
	if err != nil {
		return err
	}
	defer closeLog()

	m := newModel(p)
	defer m.close()
	var opts []tui.ProgramOption
	if config.AltScreen {
		opts = append(opts, tui.WithAltScreen())
	}
	_, err = tui.NewProgram(m, opts...).Run()
	return err
}

func withProvider(run func(provider.Provider) error) error {
	p, err := newProvider()
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(false)
	if err != nil {
		return err
	}
	defer closeLog()
	return run(p)
}

// setupLogging appends the log to config.LogPath when set. Without it the
// interactive view discards the log, since it owns the terminal, and the other
// commands keep logging to stderr.
func setupLogging(interactive bool) (func(), error) {
	if config.LogPath == "" {
		if interactive {
			log.SetOutput(io.Discard)
		}
		return func() {}, nil
	}
	f, err := tui.LogToFile(config.LogPath, "popchart")
	if err != nil {
		return nil, err
	}
	return func() { _ = f.Close() }, nil
}

func metricNames() string {
	names := make([]string, len(region.DefaultMetricTypes))
	for i, m := range region.DefaultMetricTypes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
