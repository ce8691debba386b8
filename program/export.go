package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/keilerkonzept/popchart/internal/chart"
	"github.com/keilerkonzept/popchart/internal/engine"
	"github.com/keilerkonzept/popchart/internal/provider"
	"github.com/keilerkonzept/popchart/internal/region"
)

// parseCodes reads prefecture codes from command arguments.
func parseCodes(args []string) ([]int, error) {
	codes := make([]int, 0, len(args))
	for _, a := range args {
		code, err := strconv.Atoi(a)
		if err != nil || code < 1 {
			return nil, fmt.Errorf("%q is not a prefecture code", a)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

// runExport selects the given prefectures, waits for their data and writes
// one chart of the configured metric to config.Output. Regions whose fetch
// fails are reported and left out of the chart.
func runExport(ctx context.Context, p provider.Provider, codes []int, out io.Writer) error {
	entities, err := p.Prefectures(ctx)
	if err != nil {
		return fmt.Errorf("load prefectures: %w", err)
	}
	byKey := make(map[int]region.Entity, len(entities))
	for _, e := range entities {
		byKey[e.Key] = e
	}

	eng := engine.New(p.Population)
	if config.Metric != "" {
		if err := eng.SetMetricType(region.MetricType(config.Metric)); err != nil {
			return err
		}
	}

	var jobs []*engine.Job
	for _, code := range codes {
		e, ok := byKey[code]
		if !ok {
			return fmt.Errorf("unknown prefecture code %d", code)
		}
		if eng.IsSelected(code) {
			continue
		}
		jobs = append(jobs, eng.Toggle(e)...)
	}

	settled := make(chan engine.Settlement)
	for _, job := range jobs {
		go func() { settled <- job.Run(ctx) }()
	}
	for range jobs {
		s := <-settled
		if s.Err != nil {
			fmt.Fprintf(out, "skipping %s: %v\n", byKey[s.Key].Label, s.Err)
		} else {
			log.Printf("population %d: ready in %s", s.Key, s.Elapsed)
		}
		eng.Settle(s)
	}

	series := eng.ProjectedSeries()
	if len(series) == 0 {
		return fmt.Errorf("no %s data for the requested prefectures", eng.MetricType())
	}
	surface := engine.NewSurface(chart.NewPNG(config.Output), engine.WithSize(config.Width, config.Height))
	defer surface.Close()
	if err := surface.Render(series, eng.MetricType()); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s: %s, %d series\n", config.Output, eng.MetricType(), len(series))
	return nil
}
