package engine

import (
	"errors"
	"testing"

	"github.com/keilerkonzept/popchart/internal/region"
)

type fakeBackend struct {
	created   int
	createErr error
	live      []*fakeHandle
	all       []*fakeHandle
}

type fakeHandle struct {
	backend   *fakeBackend
	desc      Description
	updates   int
	updateErr error
	destroyed bool
}

func (b *fakeBackend) Create(d Description) (Handle, error) {
	if b.createErr != nil {
		return nil, b.createErr
	}
	b.created++
	h := &fakeHandle{backend: b, desc: d}
	b.live = append(b.live, h)
	b.all = append(b.all, h)
	return h, nil
}

func (h *fakeHandle) Update(d Description) error {
	if h.updateErr != nil {
		return h.updateErr
	}
	h.updates++
	h.desc = d
	return nil
}

func (h *fakeHandle) Destroy() {
	h.destroyed = true
	for i, l := range h.backend.live {
		if l == h {
			h.backend.live = append(h.backend.live[:i], h.backend.live[i+1:]...)
			break
		}
	}
}

type fakeScroll struct {
	offset   int
	restored []int
}

func (s *fakeScroll) ScrollOffset() int { return s.offset }

func (s *fakeScroll) SetScrollOffset(n int) {
	s.offset = n
	s.restored = append(s.restored, n)
}

var oneSeries = []Series{{Key: 13, Label: "Tokyo", Points: []region.Point{pt(2015, 1)}}}

func TestSurfaceLifecycle(t *testing.T) {
	b := &fakeBackend{}
	s := NewSurface(b)

	if err := s.Render(nil, "total"); err != nil || s.State() != Absent || b.created != 0 {
		t.Fatalf("empty projection should not mount: err=%v state=%v", err, s.State())
	}
	if err := s.Render(oneSeries, "total"); err != nil {
		t.Fatal(err)
	}
	if s.State() != Mounted || b.created != 1 {
		t.Fatalf("state=%v created=%d", s.State(), b.created)
	}
	if b.all[0].desc.Title != "total" || b.all[0].desc.XAxisLabel != DefaultXAxisLabel {
		t.Fatalf("description = %+v", b.all[0].desc)
	}

	if err := s.Render(oneSeries, "youth"); err != nil {
		t.Fatal(err)
	}
	if b.created != 1 || b.all[0].updates != 1 || b.all[0].desc.Title != "youth" {
		t.Fatalf("metric change should update in place: created=%d updates=%d", b.created, b.all[0].updates)
	}

	// Identical input does not redraw.
	if err := s.Render(oneSeries, "youth"); err != nil {
		t.Fatal(err)
	}
	if b.all[0].updates != 1 || s.Redraws() != 2 {
		t.Fatalf("unchanged description redrew: updates=%d redraws=%d", b.all[0].updates, s.Redraws())
	}

	if err := s.Render(nil, "youth"); err != nil {
		t.Fatal(err)
	}
	if s.State() != Absent || !b.all[0].destroyed || len(b.live) != 0 {
		t.Fatalf("empty projection should destroy: state=%v", s.State())
	}

	if err := s.Render(oneSeries, "total"); err != nil {
		t.Fatal(err)
	}
	if b.created != 2 || s.State() != Mounted {
		t.Fatalf("non-empty projection should remount")
	}

	s.Close()
	s.Close()
	if s.State() != Unmounted || len(b.live) != 0 {
		t.Fatalf("close should destroy and unmount: state=%v live=%d", s.State(), len(b.live))
	}
	if err := s.Render(oneSeries, "total"); !errors.Is(err, ErrUnmounted) {
		t.Fatalf("render after close = %v, want ErrUnmounted", err)
	}
}

func TestSurfaceRecreatesWhenNotUpdatable(t *testing.T) {
	b := &fakeBackend{}
	s := NewSurface(b, WithSize(40, 10))
	if err := s.Render(oneSeries, "total"); err != nil {
		t.Fatal(err)
	}
	b.all[0].updateErr = ErrNotUpdatable

	if err := s.Resize(80, 20); err != nil {
		t.Fatal(err)
	}
	if b.created != 2 || !b.all[0].destroyed || len(b.live) != 1 {
		t.Fatalf("expected destroy and recreate: created=%d live=%d", b.created, len(b.live))
	}
	if d := b.live[0].desc; d.Width != 80 || d.Height != 20 {
		t.Fatalf("recreated with %dx%d", d.Width, d.Height)
	}
}

func TestSurfaceUpdateFailureReleases(t *testing.T) {
	b := &fakeBackend{}
	s := NewSurface(b)
	if err := s.Render(oneSeries, "total"); err != nil {
		t.Fatal(err)
	}
	b.all[0].updateErr = errors.New("disk full")
	if err := s.Focus(13); err == nil {
		t.Fatalf("expected update error")
	}
	if s.State() != Absent || len(b.live) != 0 {
		t.Fatalf("failed update should release the instance")
	}
}

func TestSurfaceCreateFailureStaysAbsent(t *testing.T) {
	b := &fakeBackend{createErr: errors.New("no canvas")}
	s := NewSurface(b)
	if err := s.Render(oneSeries, "total"); err == nil {
		t.Fatalf("expected create error")
	}
	if s.State() != Absent {
		t.Fatalf("state = %v", s.State())
	}
}

func TestSurfaceRestoresScrollAtIdle(t *testing.T) {
	scroll := &fakeScroll{offset: 7}
	var idle []func()
	b := &fakeBackend{}
	s := NewSurface(b, WithScrollKeeper(scroll, func(fn func()) { idle = append(idle, fn) }))

	if err := s.Render(oneSeries, "total"); err != nil {
		t.Fatal(err)
	}
	// The redraw moved the viewport.
	scroll.offset = 0
	if len(scroll.restored) != 0 {
		t.Fatalf("restore must not run inside the redraw")
	}
	if len(idle) != 1 {
		t.Fatalf("expected one scheduled restore, got %d", len(idle))
	}
	idle[0]()
	if scroll.offset != 7 {
		t.Fatalf("offset = %d, want 7", scroll.offset)
	}

	// No redraw, nothing scheduled.
	if err := s.Render(oneSeries, "total"); err != nil {
		t.Fatal(err)
	}
	if len(idle) != 1 {
		t.Fatalf("unchanged render scheduled a restore")
	}
}

func TestDescriptionEqual(t *testing.T) {
	a := Description{Series: oneSeries, Title: "total"}
	b := Description{Series: []Series{{Key: 13, Label: "Tokyo", Points: []region.Point{pt(2015, 1)}}}, Title: "total"}
	if !a.Equal(b) {
		t.Fatalf("value-equal descriptions should compare equal")
	}
	b.Series[0].Points[0].Y = 2
	if a.Equal(b) {
		t.Fatalf("different points should differ")
	}
}
