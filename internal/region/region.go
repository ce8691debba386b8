// Package region holds the domain types shared by the engine, the data
// providers and the chart backends.
package region

// Entity is a selectable region. It is identified by Key.
type Entity struct {
	Key   int
	Label string
}

// MetricType names one sub-series of a population result, e.g. total or
// age-bracketed population. The value is the label the provider uses.
type MetricType string

const (
	Total      MetricType = "総人口"
	Youth      MetricType = "年少人口"
	WorkingAge MetricType = "生産年齢人口"
	Elderly    MetricType = "老年人口"
)

// DefaultMetricTypes is the order in which metric types are offered. The first
// entry is the default.
var DefaultMetricTypes = []MetricType{Total, Youth, WorkingAge, Elderly}

func (m MetricType) String() string { return string(m) }

// Point is one observation: X is a year, Y a non-negative count.
type Point struct {
	X    int
	Y    float64
	Rate *float64
}

// Composition is the series for one metric label.
type Composition struct {
	MetricLabel string
	Points      []Point
}

// TimeSeries is the population result for one entity.
type TimeSeries struct {
	EntityKey    int
	BoundaryYear int
	Series       []Composition
}

// Find returns the composition labelled with metric.
func (t *TimeSeries) Find(metric MetricType) (Composition, bool) {
	if t == nil {
		return Composition{}, false
	}
	for _, c := range t.Series {
		if c.MetricLabel == string(metric) {
			return c, true
		}
	}
	return Composition{}, false
}
