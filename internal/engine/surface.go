package engine

import (
	"errors"
	"fmt"

	"github.com/keilerkonzept/popchart/internal/region"
)

const (
	DefaultXAxisLabel = "年"
	DefaultYAxisLabel = "人口（人）"
)

// Description is everything a backend needs to draw a chart.
type Description struct {
	Series     []Series
	Title      string
	XAxisLabel string
	YAxisLabel string
	Width      int
	Height     int
	// Focus is the key of the series to emphasize, 0 for none.
	Focus int
}

func (d Description) Equal(o Description) bool {
	return d.Title == o.Title &&
		d.XAxisLabel == o.XAxisLabel &&
		d.YAxisLabel == o.YAxisLabel &&
		d.Width == o.Width &&
		d.Height == o.Height &&
		d.Focus == o.Focus &&
		equalSeries(d.Series, o.Series)
}

// Backend creates chart instances.
type Backend interface {
	Create(d Description) (Handle, error)
}

// Handle is a live chart instance owned by a Surface.
type Handle interface {
	// Update redraws in place. ErrNotUpdatable asks the caller to destroy the
	// instance and create a new one.
	Update(d Description) error
	Destroy()
}

var (
	ErrNotUpdatable = errors.New("surface cannot be updated in place")
	ErrUnmounted    = errors.New("surface is unmounted")
)

// ScrollKeeper exposes the scroll position a redraw may disturb.
type ScrollKeeper interface {
	ScrollOffset() int
	SetScrollOffset(offset int)
}

// SurfaceState is the lifecycle of a Surface.
type SurfaceState int

const (
	Absent SurfaceState = iota
	Mounted
	Unmounted
)

func (s SurfaceState) String() string {
	switch s {
	case Absent:
		return "absent"
	case Mounted:
		return "mounted"
	case Unmounted:
		return "unmounted"
	}
	return fmt.Sprintf("SurfaceState(%d)", int(s))
}

// Surface owns at most one chart instance and keeps it in step with the
// projection it is given.
type Surface struct {
	backend Backend
	scroll  ScrollKeeper
	idle    func(func())

	xLabel, yLabel string
	width, height  int
	focus          int

	series []Series
	metric region.MetricType

	state   SurfaceState
	handle  Handle
	current Description
	redraws int
}

type SurfaceOption func(*Surface)

// WithScrollKeeper restores the scroll offset after each redraw. schedule must
// run its argument at the next idle point after the redraw, not inline.
func WithScrollKeeper(k ScrollKeeper, schedule func(func())) SurfaceOption {
	return func(s *Surface) {
		s.scroll = k
		s.idle = schedule
	}
}

func WithAxisLabels(x, y string) SurfaceOption {
	return func(s *Surface) {
		s.xLabel, s.yLabel = x, y
	}
}

func WithSize(width, height int) SurfaceOption {
	return func(s *Surface) {
		s.width, s.height = width, height
	}
}

func NewSurface(backend Backend, opts ...SurfaceOption) *Surface {
	s := &Surface{
		backend: backend,
		xLabel:  DefaultXAxisLabel,
		yLabel:  DefaultYAxisLabel,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.idle == nil {
		s.idle = func(fn func()) { fn() }
	}
	return s
}

func (s *Surface) State() SurfaceState { return s.state }

// Redraws counts creates and updates performed so far.
func (s *Surface) Redraws() int { return s.redraws }

// Render brings the chart in line with series and metric: the first
// non-empty projection mounts it, later changes update it and an empty
// projection destroys it.
func (s *Surface) Render(series []Series, metric region.MetricType) error {
	s.series, s.metric = series, metric
	return s.apply()
}

func (s *Surface) Resize(width, height int) error {
	s.width, s.height = width, height
	return s.apply()
}

// Focus emphasizes the series with the given key. 0 clears the focus.
func (s *Surface) Focus(key int) error {
	s.focus = key
	return s.apply()
}

// Close destroys the chart instance. The surface cannot be mounted again.
func (s *Surface) Close() {
	s.release()
	s.state = Unmounted
}

func (s *Surface) apply() error {
	if s.state == Unmounted {
		return ErrUnmounted
	}
	if len(s.series) == 0 {
		s.release()
		return nil
	}
	d := Description{
		Series:     s.series,
		Title:      s.metric.String(),
		XAxisLabel: s.xLabel,
		YAxisLabel: s.yLabel,
		Width:      s.width,
		Height:     s.height,
		Focus:      s.focus,
	}
	if s.state == Mounted && d.Equal(s.current) {
		return nil
	}
	return s.redraw(d)
}

func (s *Surface) redraw(d Description) error {
	if s.scroll != nil {
		offset := s.scroll.ScrollOffset()
		defer s.idle(func() { s.scroll.SetScrollOffset(offset) })
	}

	if s.state == Mounted {
		err := s.handle.Update(d)
		if err == nil {
			s.current = d
			s.redraws++
			return nil
		}
		s.release()
		if !errors.Is(err, ErrNotUpdatable) {
			return fmt.Errorf("update chart: %w", err)
		}
	}

	h, err := s.backend.Create(d)
	if err != nil {
		return fmt.Errorf("create chart: %w", err)
	}
	s.handle, s.current, s.state = h, d, Mounted
	s.redraws++
	return nil
}

func (s *Surface) release() {
	if s.handle != nil {
		s.handle.Destroy()
	}
	s.handle, s.current = nil, Description{}
	if s.state == Mounted {
		s.state = Absent
	}
}
