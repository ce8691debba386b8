package engine

import (
	"sort"

	"github.com/keilerkonzept/popchart/internal/region"
)

// Series is one chart line.
type Series struct {
	Key    int
	Label  string
	Points []region.Point
}

// Project derives the chart series from the selection, the cache and the
// active metric. Output follows selection order. Entities that are not Ready,
// or whose result has no series for metric, are left out.
func Project(selected []region.Entity, cache *Cache, metric region.MetricType) []Series {
	out := make([]Series, 0, len(selected))
	for _, e := range selected {
		entry := cache.Get(e.Key)
		if entry.State != Ready {
			continue
		}
		comp, ok := entry.Result.Find(metric)
		if !ok {
			continue
		}
		points := make([]region.Point, len(comp.Points))
		copy(points, comp.Points)
		sort.SliceStable(points, func(i, j int) bool { return points[i].X < points[j].X })
		out = append(out, Series{Key: e.Key, Label: e.Label, Points: points})
	}
	return out
}

func equalSeries(a, b []Series) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key || a[i].Label != b[i].Label || len(a[i].Points) != len(b[i].Points) {
			return false
		}
		for j := range a[i].Points {
			pa, pb := a[i].Points[j], b[i].Points[j]
			if pa.X != pb.X || pa.Y != pb.Y {
				return false
			}
		}
	}
	return true
}
