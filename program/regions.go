package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	styles "github.com/charmbracelet/lipgloss"

	"github.com/keilerkonzept/popchart/internal/chart"
	"github.com/keilerkonzept/popchart/internal/provider"
)

const reportPreview = 5

var (
	headingStyle = styles.NewStyle().Bold(true)
	okStyle      = styles.NewStyle().Foreground(styles.AdaptiveColor{Light: "2", Dark: "10"})
)

// runRegions checks that the provider answers and prints a short sample of
// what it returns: the first prefectures and the first point of every
// composition for one of them.
func runRegions(ctx context.Context, p provider.Provider, sample int, out io.Writer) error {
	entities, err := p.Prefectures(ctx)
	if err != nil {
		return fmt.Errorf("load prefectures: %w", err)
	}
	fmt.Fprintln(out, okStyle.Render("connection OK"))
	fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("prefectures: %d", len(entities))))
	for _, e := range entities[:min(reportPreview, len(entities))] {
		fmt.Fprintf(out, "  #%02d %s\n", e.Key, e.Label)
	}
	if n := len(entities) - reportPreview; n > 0 {
		fmt.Fprintf(out, "  …and %d more\n", n)
	}

	if sample == 0 {
		return nil
	}
	label := fmt.Sprintf("#%02d", sample)
	for _, e := range entities {
		if e.Key == sample {
			label += " " + e.Label
		}
	}
	ts, err := p.Population(ctx, sample)
	if err != nil {
		return fmt.Errorf("load population %s: %w", label, err)
	}
	fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("population %s (boundary year %d)", label, ts.BoundaryYear)))
	for _, c := range ts.Series {
		if len(c.Points) == 0 {
			fmt.Fprintf(out, "  %s: no data\n", c.MetricLabel)
			continue
		}
		first := c.Points[0]
		fmt.Fprintf(out, "  %s: %d %s (%d points)\n", c.MetricLabel, first.X, chart.FormatCount(first.Y), len(c.Points))
	}
	return nil
}

type cityLister interface {
	Cities(ctx context.Context, prefCode int) ([]provider.City, error)
}

var errNoCities = errors.New("this provider does not list cities")

func runCities(ctx context.Context, p provider.Provider, code int, out io.Writer) error {
	lister, ok := p.(cityLister)
	if !ok {
		return errNoCities
	}
	cities, err := lister.Cities(ctx, code)
	if err != nil {
		return fmt.Errorf("load cities: %w", err)
	}
	fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("cities in #%02d: %d", code, len(cities))))
	for _, c := range cities {
		fmt.Fprintf(out, "  %s %s%s\n", c.CityCode, c.CityName, cityKind(c.BigCityFlag))
	}
	return nil
}

func cityKind(flag string) string {
	switch flag {
	case "1":
		return " (ward)"
	case "2":
		return " (designated city)"
	case "3":
		return " (special ward)"
	}
	return ""
}
