package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/keilerkonzept/popchart/internal/region"
)

// State is the lifecycle of one cache entry.
type State int

const (
	Empty State = iota
	Pending
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Entry is a read-only view of a cache entry.
type Entry struct {
	State  State
	Result *region.TimeSeries
	Err    error
}

// Fetcher loads the time series for one entity key.
type Fetcher func(ctx context.Context, key int) (*region.TimeSeries, error)

var errEmptyResult = errors.New("provider returned no result")

// Settlement is the outcome of a Job, applied to the cache with Settle.
type Settlement struct {
	Key     int
	Result  *region.TimeSeries
	Err     error
	Elapsed time.Duration

	gen uint64
}

// Job is a fetch that has been reserved in the cache. Run may be called from
// any goroutine; the fetcher is invoked at most once.
type Job struct {
	Key int

	gen   uint64
	fetch Fetcher
	once  sync.Once
	out   Settlement
}

func (j *Job) Run(ctx context.Context) Settlement {
	j.once.Do(func() {
		start := time.Now()
		res, err := j.fetch(ctx, j.Key)
		if err == nil && res == nil {
			err = errEmptyResult
		}
		if err != nil {
			res = nil
		}
		j.out = Settlement{Key: j.Key, Result: res, Err: err, Elapsed: time.Since(start), gen: j.gen}
	})
	return j.out
}

type cacheEntry struct {
	state  State
	result *region.TimeSeries
	err    error
	gen    uint64
}

// Cache maps entity keys to fetched results. It is not safe for concurrent
// use: it belongs to the loop that calls Ensure and Settle. Only Job.Run
// leaves that loop.
type Cache struct {
	entries map[int]*cacheEntry
	gen     uint64
}

func NewCache() *Cache {
	return &Cache{entries: make(map[int]*cacheEntry)}
}

// Ensure moves an Empty entry to Pending and returns the job that fetches it.
// It returns nil when the key is already Pending, Ready or Failed.
func (c *Cache) Ensure(key int, fetch Fetcher) *Job {
	if _, ok := c.entries[key]; ok {
		return nil
	}
	c.gen++
	c.entries[key] = &cacheEntry{state: Pending, gen: c.gen}
	return &Job{Key: key, gen: c.gen, fetch: fetch}
}

// Settle applies a finished job. Settlements for entries that were evicted
// since the job was issued are dropped; the return value reports whether the
// cache changed.
func (c *Cache) Settle(s Settlement) bool {
	e, ok := c.entries[s.Key]
	if !ok || e.state != Pending || e.gen != s.gen {
		return false
	}
	if s.Err != nil {
		e.state, e.err = Failed, s.Err
		return true
	}
	e.state, e.result = Ready, s.Result
	return true
}

// Get returns the current entry for key without blocking.
func (c *Cache) Get(key int) Entry {
	e, ok := c.entries[key]
	if !ok {
		return Entry{State: Empty}
	}
	return Entry{State: e.state, Result: e.result, Err: e.err}
}

// Evict forgets key. A job still in flight for it settles into nothing.
func (c *Cache) Evict(key int) {
	delete(c.entries, key)
}

func (c *Cache) Len() int { return len(c.entries) }
