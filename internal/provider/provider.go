// Package provider talks to the population API and offers a file-backed
// stand-in with the same wire format.
package provider

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/keilerkonzept/popchart/internal/region"
)

// Directory lists the selectable regions.
type Directory interface {
	Prefectures(ctx context.Context) ([]region.Entity, error)
}

// Source loads the population time series of one region.
type Source interface {
	Population(ctx context.Context, prefCode int) (*region.TimeSeries, error)
}

type Provider interface {
	Directory
	Source
}

// City is a municipality within a prefecture.
type City struct {
	PrefCode    int    `json:"prefCode"`
	CityCode    string `json:"cityCode"`
	CityName    string `json:"cityName"`
	BigCityFlag string `json:"bigCityFlag"`
}

type envelope[T any] struct {
	Message    *string     `json:"message"`
	StatusCode json.Number `json:"statusCode,omitempty"`
	Result     *T          `json:"result"`
}

type prefectureRecord struct {
	PrefCode int    `json:"prefCode"`
	PrefName string `json:"prefName"`
}

type populationRecord struct {
	BoundaryYear int                 `json:"boundaryYear"`
	Data         []compositionRecord `json:"data"`
}

type compositionRecord struct {
	Label string        `json:"label"`
	Data  []valueRecord `json:"data"`
}

type valueRecord struct {
	Year  int      `json:"year"`
	Value float64  `json:"value"`
	Rate  *float64 `json:"rate,omitempty"`
}

func toEntities(in []prefectureRecord) []region.Entity {
	out := make([]region.Entity, len(in))
	for i, p := range in {
		out[i] = region.Entity{Key: p.PrefCode, Label: p.PrefName}
	}
	return out
}

func toTimeSeries(key int, in populationRecord) *region.TimeSeries {
	ts := &region.TimeSeries{
		EntityKey:    key,
		BoundaryYear: in.BoundaryYear,
		Series:       make([]region.Composition, len(in.Data)),
	}
	for i, c := range in.Data {
		points := make([]region.Point, len(c.Data))
		for j, v := range c.Data {
			points[j] = region.Point{X: v.Year, Y: v.Value, Rate: v.Rate}
		}
		ts.Series[i] = region.Composition{MetricLabel: c.Label, Points: points}
	}
	return ts
}

// statusFromBody reads the status code some API failures carry in a 200 body.
func statusFromBody(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
