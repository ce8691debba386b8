package engine

import "github.com/keilerkonzept/popchart/internal/region"

// Controller issues fetches for entities as they join the selection.
type Controller struct {
	cache *Cache
	fetch Fetcher
	prev  map[int]struct{}
}

func NewController(cache *Cache, fetch Fetcher) *Controller {
	return &Controller{cache: cache, fetch: fetch, prev: make(map[int]struct{})}
}

// Reconcile is called once per selection change with the new selection. It
// reserves a fetch for every newly added key, and for any selected key whose
// entry is Empty, and returns the jobs to run. Failed entries are left alone.
func (c *Controller) Reconcile(selected []region.Entity) []*Job {
	next := make(map[int]struct{}, len(selected))
	var jobs []*Job
	for _, e := range selected {
		next[e.Key] = struct{}{}
		_, seen := c.prev[e.Key]
		if seen && c.cache.Get(e.Key).State != Empty {
			continue
		}
		if job := c.cache.Ensure(e.Key, c.fetch); job != nil {
			jobs = append(jobs, job)
		}
	}
	c.prev = next
	return jobs
}

// Status pairs a selected entity with its cache state.
type Status struct {
	Entity region.Entity
	State  State
	Err    error
}

// Annotate reports the cache state of every selected entity, in selection
// order, so a UI can tell loading, failed and not-yet-requested apart.
func Annotate(selected []region.Entity, cache *Cache) []Status {
	out := make([]Status, 0, len(selected))
	for _, e := range selected {
		entry := cache.Get(e.Key)
		out = append(out, Status{Entity: e, State: entry.State, Err: entry.Err})
	}
	return out
}
