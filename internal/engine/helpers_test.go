package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/keilerkonzept/popchart/internal/region"
)

// fakeProvider serves canned results and counts calls per key.
type fakeProvider struct {
	mu      sync.Mutex
	results map[int]*region.TimeSeries
	fail    map[int]int
	calls   map[int]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		results: make(map[int]*region.TimeSeries),
		fail:    make(map[int]int),
		calls:   make(map[int]int),
	}
}

func (p *fakeProvider) fetch(_ context.Context, key int) (*region.TimeSeries, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[key]++
	if status, ok := p.fail[key]; ok {
		return nil, &region.ProviderError{Status: status, Endpoint: "/api/v1/population/composition/perYear", Message: "failed"}
	}
	res, ok := p.results[key]
	if !ok {
		return nil, fmt.Errorf("no fixture for %d", key)
	}
	return res, nil
}

func (p *fakeProvider) callCount(key int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[key]
}

func totalSeries(key int, points ...region.Point) *region.TimeSeries {
	return &region.TimeSeries{
		EntityKey:    key,
		BoundaryYear: 2015,
		Series: []region.Composition{
			{MetricLabel: "total", Points: points},
		},
	}
}

func pt(x int, y float64) region.Point { return region.Point{X: x, Y: y} }

var (
	tokyo    = region.Entity{Key: 13, Label: "Tokyo"}
	hokkaido = region.Entity{Key: 1, Label: "Hokkaido"}
	osaka    = region.Entity{Key: 27, Label: "Osaka"}
)

func runAll(ctx context.Context, jobs []*Job) []Settlement {
	out := make([]Settlement, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Run(ctx))
	}
	return out
}

func labels(series []Series) []string {
	out := make([]string, len(series))
	for i, s := range series {
		out[i] = s.Label
	}
	return out
}
