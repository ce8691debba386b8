package chart

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/keilerkonzept/popchart/internal/engine"
)

const (
	DefaultPNGWidth  = 1024
	DefaultPNGHeight = 576
)

// PNG renders charts into an image file. Each redraw replaces the file.
type PNG struct {
	Path string
}

func NewPNG(path string) *PNG {
	return &PNG{Path: path}
}

func (p *PNG) Create(d engine.Description) (engine.Handle, error) {
	h := &pngHandle{path: p.Path}
	if err := h.Update(d); err != nil {
		return nil, err
	}
	return h, nil
}

type pngHandle struct {
	path      string
	destroyed bool
}

func (h *pngHandle) Update(d engine.Description) error {
	if h.destroyed {
		return errDestroyed
	}
	var buf bytes.Buffer
	if err := Build(d).Render(gochart.PNG, &buf); err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	return writeFileAtomic(h.path, buf.Bytes())
}

// Destroy releases the handle. The last image stays on disk.
func (h *pngHandle) Destroy() { h.destroyed = true }

// Build turns a description into a go-chart line chart.
func Build(d engine.Description) gochart.Chart {
	w, h := d.Width, d.Height
	if w <= 0 {
		w = DefaultPNGWidth
	}
	if h <= 0 {
		h = DefaultPNGHeight
	}

	series := make([]gochart.Series, 0, len(d.Series))
	for i, s := range d.Series {
		if len(s.Points) == 0 {
			continue
		}
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		for j, p := range s.Points {
			xs[j], ys[j] = float64(p.X), p.Y
		}
		width := 2.0
		if s.Key == d.Focus {
			width = 4.0
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    s.Label,
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeColor: gochart.GetDefaultColor(i),
				StrokeWidth: width,
			},
		})
	}

	ch := gochart.Chart{
		Title:  d.Title,
		Width:  w,
		Height: h,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name:           d.XAxisLabel,
			ValueFormatter: yearFormatter,
		},
		YAxis: gochart.YAxis{
			Name:           d.YAxisLabel,
			ValueFormatter: countFormatter,
		},
		Series: series,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	return ch
}

func yearFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.Itoa(int(f))
	}
	return ""
}

func countFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return FormatCount(f)
	}
	return ""
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".popchart-*.png")
	if err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}
