package chart

import (
	"errors"
	"fmt"
	"strings"

	styles "github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"

	"github.com/keilerkonzept/popchart/internal/engine"
)

const (
	defaultTerminalWidth  = 60
	defaultTerminalHeight = 15
)

var (
	titleStyle = styles.NewStyle().Bold(true)
	axisStyle  = styles.NewStyle().Foreground(styles.AdaptiveColor{Light: "#555", Dark: "#555"})
)

var errDestroyed = errors.New("chart instance was destroyed")

// Terminal draws charts as braille line plots. It keeps track of the one
// instance currently mounted so the view can render it.
type Terminal struct {
	Highlight plot.Color
	Dim       plot.Color

	live *terminalHandle
}

func NewTerminal(highlight, dim plot.Color) *Terminal {
	return &Terminal{Highlight: highlight, Dim: dim}
}

func (t *Terminal) Create(d engine.Description) (engine.Handle, error) {
	w, h := d.Width, d.Height
	if w <= 0 {
		w = defaultTerminalWidth
	}
	if h <= 0 {
		h = defaultTerminalHeight
	}
	canvas := plot.NewCanvas(w, h)
	canvas.ShowAxis = false
	handle := &terminalHandle{owner: t, canvas: &canvas, width: d.Width, height: d.Height}
	handle.draw(d)
	t.live = handle
	return handle, nil
}

// View returns the mounted chart, or "" when there is none.
func (t *Terminal) View() string {
	if t.live == nil {
		return ""
	}
	return t.live.view
}

type terminalHandle struct {
	owner  *Terminal
	canvas *plot.Canvas
	// requested size; the canvas cannot be resized in place
	width, height int
	view          string
	destroyed     bool
}

func (h *terminalHandle) Update(d engine.Description) error {
	if h.destroyed {
		return errDestroyed
	}
	if d.Width != h.width || d.Height != h.height {
		return engine.ErrNotUpdatable
	}
	h.draw(d)
	return nil
}

func (h *terminalHandle) Destroy() {
	h.destroyed = true
	h.view = ""
	if h.owner.live == h {
		h.owner.live = nil
	}
}

func (h *terminalHandle) draw(d engine.Description) {
	xs := years(d.Series)
	index := make(map[int]int, len(xs))
	for i, x := range xs {
		index[x] = i
	}

	// The focused series is drawn last so it stays on top.
	ordered := make([]engine.Series, 0, len(d.Series))
	var focused *engine.Series
	for i := range d.Series {
		if d.Series[i].Key == d.Focus {
			focused = &d.Series[i]
			continue
		}
		ordered = append(ordered, d.Series[i])
	}
	if focused != nil {
		ordered = append(ordered, *focused)
	}

	data := make([][]float64, len(ordered))
	colors := make([]plot.Color, len(ordered))
	for i, s := range ordered {
		data[i] = alignRow(s, index, len(xs))
		switch {
		case focused == nil, s.Key == d.Focus:
			colors[i] = h.owner.Highlight
		default:
			colors[i] = h.owner.Dim
		}
	}
	h.canvas.NumDataPoints = max(len(xs), 2)
	h.canvas.LineColors = colors
	h.canvas.Fill(data)

	var b strings.Builder
	b.WriteString(titleStyle.Render(d.Title))
	b.WriteString("\n")
	b.WriteString(h.canvas.String())
	b.WriteString("\n")
	if len(xs) > 0 {
		b.WriteString(axisStyle.Render(fmt.Sprintf("%s %d – %d   %s max %s",
			d.XAxisLabel, xs[0], xs[len(xs)-1], d.YAxisLabel, FormatCount(maxValue(d.Series)))))
	}
	h.view = b.String()
}

// alignRow lays a series out on the shared year grid. The braille canvas needs
// a value in every column, so a year the series has no value for holds the
// nearest earlier value, or the first value before the series begins. Nothing
// is interpolated.
func alignRow(s engine.Series, index map[int]int, n int) []float64 {
	row := make([]float64, max(n, 2))
	have := make([]bool, len(row))
	first := -1
	for _, p := range s.Points {
		i := index[p.X]
		row[i], have[i] = p.Y, true
		if first < 0 || i < first {
			first = i
		}
	}
	if first < 0 {
		return row
	}
	for i := 0; i < first; i++ {
		row[i] = row[first]
	}
	for i := first + 1; i < len(row); i++ {
		if !have[i] {
			row[i] = row[i-1]
		}
	}
	return row
}
