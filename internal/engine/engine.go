// Package engine keeps a chart in step with a set of selected regions.
//
// Selecting a region reserves a fetch of its time series in the cache; the
// caller runs the returned jobs wherever it likes and hands each settlement
// back with Settle. All other methods, and Settle itself, must be called from
// one goroutine. Every mutation notifies subscribers, which typically project
// the current series and pass them to a Surface.
package engine

import (
	"fmt"

	"github.com/keilerkonzept/popchart/internal/region"
)

// ChangeKind says what a mutation touched.
type ChangeKind int

const (
	SelectionChanged ChangeKind = iota
	CacheUpdated
	MetricChanged
)

func (k ChangeKind) String() string {
	switch k {
	case SelectionChanged:
		return "selection"
	case CacheUpdated:
		return "cache"
	case MetricChanged:
		return "metric"
	}
	return fmt.Sprintf("ChangeKind(%d)", int(k))
}

type Change struct {
	Kind ChangeKind
	// Key is the entity involved, 0 for metric changes.
	Key int
}

type Engine struct {
	selection  *Selection
	cache      *Cache
	controller *Controller

	metrics []region.MetricType
	metric  region.MetricType

	listeners []func(Change)
}

type Option func(*Engine)

// WithMetricTypes replaces the offered metric types. The first one becomes
// active. An empty list is ignored.
func WithMetricTypes(metrics []region.MetricType) Option {
	return func(e *Engine) {
		if len(metrics) == 0 {
			return
		}
		e.metrics = append([]region.MetricType(nil), metrics...)
	}
}

func New(fetch Fetcher, opts ...Option) *Engine {
	cache := NewCache()
	e := &Engine{
		selection:  NewSelection(),
		cache:      cache,
		controller: NewController(cache, fetch),
		metrics:    append([]region.MetricType(nil), region.DefaultMetricTypes...),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.metric = e.metrics[0]
	return e
}

// Subscribe registers fn to be called after every mutation.
func (e *Engine) Subscribe(fn func(Change)) {
	e.listeners = append(e.listeners, fn)
}

// Toggle adds or removes ent from the selection and returns the fetches that
// must now be run.
func (e *Engine) Toggle(ent region.Entity) []*Job {
	e.selection.Toggle(ent)
	jobs := e.controller.Reconcile(e.selection.Snapshot())
	e.notify(Change{Kind: SelectionChanged, Key: ent.Key})
	return jobs
}

// Settle records the outcome of a job. Results for deselected entities are
// kept; they are simply not projected.
func (e *Engine) Settle(s Settlement) {
	if e.cache.Settle(s) {
		e.notify(Change{Kind: CacheUpdated, Key: s.Key})
	}
}

// Retry discards a Failed result for a selected entity and returns a new job
// for it. It returns nil for any other state.
func (e *Engine) Retry(key int) *Job {
	if !e.selection.Contains(key) || e.cache.Get(key).State != Failed {
		return nil
	}
	e.cache.Evict(key)
	job := e.cache.Ensure(key, e.controller.fetch)
	e.notify(Change{Kind: CacheUpdated, Key: key})
	return job
}

// SetMetricType switches the projected metric. It never fetches.
func (e *Engine) SetMetricType(m region.MetricType) error {
	if !e.hasMetric(m) {
		return fmt.Errorf("unknown metric type %q", m)
	}
	if m == e.metric {
		return nil
	}
	e.metric = m
	e.notify(Change{Kind: MetricChanged})
	return nil
}

// CycleMetricType activates the metric after the current one.
func (e *Engine) CycleMetricType() region.MetricType {
	for i, m := range e.metrics {
		if m == e.metric {
			_ = e.SetMetricType(e.metrics[(i+1)%len(e.metrics)])
			break
		}
	}
	return e.metric
}

func (e *Engine) MetricType() region.MetricType { return e.metric }

func (e *Engine) MetricTypes() []region.MetricType {
	return append([]region.MetricType(nil), e.metrics...)
}

func (e *Engine) ProjectedSeries() []Series {
	return Project(e.selection.Snapshot(), e.cache, e.metric)
}

func (e *Engine) CacheState(key int) Entry { return e.cache.Get(key) }

func (e *Engine) Selected() []region.Entity { return e.selection.Snapshot() }

func (e *Engine) IsSelected(key int) bool { return e.selection.Contains(key) }

func (e *Engine) Statuses() []Status {
	return Annotate(e.selection.Snapshot(), e.cache)
}

func (e *Engine) hasMetric(m region.MetricType) bool {
	for _, have := range e.metrics {
		if have == m {
			return true
		}
	}
	return false
}

func (e *Engine) notify(c Change) {
	for _, fn := range e.listeners {
		fn(c)
	}
}
