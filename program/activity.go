package main

import (
	"sort"
	"time"

	tui "github.com/charmbracelet/bubbletea"
	"github.com/keilerkonzept/topk/heap"
	"github.com/keilerkonzept/topk/sliding"
)

// activityBoard ranks the regions selected most often over a sliding window.
// Rankings are rebuilt from the sketch every fullRefresh; in between only the
// counts of the ranked regions are refreshed.
type activityBoard struct {
	k           int
	tick        time.Duration
	fullRefresh time.Duration

	sketch   *sliding.Sketch
	lastTick time.Time
	lastFull time.Time
	items    []heap.Item
}

func newActivityBoard(k int, window, tick time.Duration) *activityBoard {
	return &activityBoard{
		k:           k,
		tick:        tick,
		fullRefresh: 3 * tick,
		sketch: sliding.New(k, int(window/tick),
			sliding.WithWidth(256),
			sliding.WithDepth(3),
		),
	}
}

func (a *activityBoard) observe(label string) {
	a.sketch.Incr(label)
}

// advance moves the window forward to now and refreshes the ranking.
func (a *activityBoard) advance(now time.Time) {
	now = now.Truncate(a.tick)
	if a.lastTick.IsZero() {
		a.lastTick = now
	} else if ticks := int(now.Sub(a.lastTick) / a.tick); ticks > 0 {
		a.sketch.Ticks(ticks)
		a.lastTick = now
	}
	a.refresh(now)
}

func (a *activityBoard) refresh(now time.Time) {
	if len(a.items) == 0 || now.Sub(a.lastFull) >= a.fullRefresh {
		a.items = append([]heap.Item(nil), a.sketch.SortedSlice()...)
		a.lastFull = now
	}
	for i := range a.items {
		a.items[i].Count = a.sketch.Count(a.items[i].Item)
	}
	sort.SliceStable(a.items, func(i, j int) bool {
		return a.items[i].Count > a.items[j].Count
	})

	kept := a.items[:0]
	for _, item := range a.items {
		if item.Count > 0 {
			kept = append(kept, item)
		}
	}
	a.items = kept[:min(len(kept), a.k)]
}

func (a *activityBoard) top() []heap.Item {
	return append([]heap.Item(nil), a.items...)
}

type activityTickMsg time.Time

func doActivityTick() tui.Cmd {
	return tui.Every(config.ActivityTick, func(t time.Time) tui.Msg {
		return activityTickMsg(t)
	})
}
