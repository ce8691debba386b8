package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/keilerkonzept/popchart/internal/region"
)

// fixtureFile is the on-disk layout: the API's result payloads keyed by
// endpoint, population records keyed by prefecture code.
type fixtureFile struct {
	Prefectures []prefectureRecord          `json:"prefectures"`
	Population  map[string]populationRecord `json:"population"`
	// Fail maps a prefecture code to the HTTP status its population fetch
	// should fail with.
	Fail map[string]int `json:"fail,omitempty"`
}

// Fixture is a Provider that serves data loaded from a JSON file.
type Fixture struct {
	prefectures []region.Entity
	population  map[int]populationRecord
	fail        map[int]int

	// Latency delays every call, to make loading states visible.
	Latency time.Duration
}

func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

func ParseFixture(data []byte) (*Fixture, error) {
	var raw fixtureFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	f := &Fixture{
		prefectures: toEntities(raw.Prefectures),
		population:  make(map[int]populationRecord, len(raw.Population)),
		fail:        make(map[int]int, len(raw.Fail)),
	}
	for code, rec := range raw.Population {
		key, err := strconv.Atoi(code)
		if err != nil {
			return nil, fmt.Errorf("parse fixture: population key %q is not a prefecture code", code)
		}
		f.population[key] = rec
	}
	for code, status := range raw.Fail {
		key, err := strconv.Atoi(code)
		if err != nil {
			return nil, fmt.Errorf("parse fixture: fail key %q is not a prefecture code", code)
		}
		f.fail[key] = status
	}
	return f, nil
}

func (f *Fixture) Prefectures(ctx context.Context) ([]region.Entity, error) {
	if err := f.wait(ctx, prefecturesEndpoint); err != nil {
		return nil, err
	}
	out := make([]region.Entity, len(f.prefectures))
	copy(out, f.prefectures)
	return out, nil
}

func (f *Fixture) Population(ctx context.Context, prefCode int) (*region.TimeSeries, error) {
	if err := f.wait(ctx, populationEndpoint); err != nil {
		return nil, err
	}
	if status, ok := f.fail[prefCode]; ok {
		return nil, &region.ProviderError{Status: status, Endpoint: populationEndpoint, Message: http.StatusText(status)}
	}
	rec, ok := f.population[prefCode]
	if !ok {
		return nil, &region.ProviderError{
			Status:   http.StatusNotFound,
			Endpoint: populationEndpoint,
			Message:  fmt.Sprintf("no population data for prefCode %d", prefCode),
		}
	}
	return toTimeSeries(prefCode, rec), nil
}

func (f *Fixture) wait(ctx context.Context, endpoint string) error {
	if f.Latency <= 0 {
		return nil
	}
	t := time.NewTimer(f.Latency)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return &region.ProviderError{Endpoint: endpoint, Message: "canceled", Err: ctx.Err()}
	}
}
