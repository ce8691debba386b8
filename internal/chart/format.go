// Package chart provides the drawing backends for engine.Surface.
package chart

import (
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/keilerkonzept/popchart/internal/engine"
)

var printer = message.NewPrinter(language.Japanese)

// FormatCount groups digits the way the population figures are usually
// written, e.g. 13,515,271.
func FormatCount(v float64) string {
	return printer.Sprintf("%d", int64(v+0.5))
}

// years returns the sorted union of x values across series.
func years(series []engine.Series) []int {
	seen := make(map[int]struct{})
	for _, s := range series {
		for _, p := range s.Points {
			seen[p.X] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for x := range seen {
		out = append(out, x)
	}
	sort.Ints(out)
	return out
}

func maxValue(series []engine.Series) float64 {
	var m float64
	for _, s := range series {
		for _, p := range s.Points {
			m = max(m, p.Y)
		}
	}
	return m
}
