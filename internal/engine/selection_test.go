package engine

import (
	"math/rand"
	"testing"

	"github.com/keilerkonzept/popchart/internal/region"
)

func TestSelectionToggle(t *testing.T) {
	s := NewSelection()
	if !s.Toggle(tokyo) {
		t.Fatalf("first toggle should add")
	}
	s.Toggle(hokkaido)
	if s.Toggle(tokyo) {
		t.Fatalf("second toggle should remove")
	}
	s.Toggle(tokyo)

	got := s.Snapshot()
	if len(got) != 2 || got[0] != hokkaido || got[1] != tokyo {
		t.Fatalf("reselected entity should move to the end, got %+v", got)
	}
	if !s.Contains(13) || s.Contains(27) {
		t.Fatalf("unexpected membership")
	}
}

func TestSelectionSnapshotIsCopy(t *testing.T) {
	s := NewSelection()
	s.Toggle(tokyo)
	snap := s.Snapshot()
	snap[0].Label = "changed"
	if s.Snapshot()[0].Label != "Tokyo" {
		t.Fatalf("snapshot aliases the selection")
	}
}

// Replaying any toggle sequence leaves exactly the entities toggled an odd
// number of times, ordered by their most recent insertion.
func TestSelectionReplayProperty(t *testing.T) {
	universe := []region.Entity{tokyo, hokkaido, osaka, {Key: 40, Label: "Fukuoka"}, {Key: 47, Label: "Okinawa"}}
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 200; round++ {
		s := NewSelection()
		counts := make(map[int]int)
		lastInsert := make(map[int]int)
		n := rng.Intn(30)
		for step := 0; step < n; step++ {
			e := universe[rng.Intn(len(universe))]
			counts[e.Key]++
			if counts[e.Key]%2 == 1 {
				lastInsert[e.Key] = step
			}
			s.Toggle(e)
		}

		got := s.Snapshot()
		want := 0
		for _, c := range counts {
			if c%2 == 1 {
				want++
			}
		}
		if len(got) != want {
			t.Fatalf("round %d: got %d entities, want %d", round, len(got), want)
		}
		for i, e := range got {
			if counts[e.Key]%2 != 1 {
				t.Fatalf("round %d: %v toggled an even number of times", round, e)
			}
			if i > 0 && lastInsert[got[i-1].Key] > lastInsert[e.Key] {
				t.Fatalf("round %d: order does not follow most recent insertion: %+v", round, got)
			}
		}
	}
}
