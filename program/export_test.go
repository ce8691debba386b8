package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/keilerkonzept/popchart/internal/provider"
	"github.com/keilerkonzept/popchart/internal/region"
)

func loadTestFixture(t *testing.T) *provider.Fixture {
	t.Helper()
	f, err := provider.LoadFixture("testdata/prefectures.json")
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestParseCodes(t *testing.T) {
	codes, err := parseCodes([]string{"13", "1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(codes) != 2 || codes[0] != 13 || codes[1] != 1 {
		t.Errorf("codes = %v", codes)
	}
	for _, bad := range []string{"tokyo", "0", "-3"} {
		if _, err := parseCodes([]string{bad}); err == nil {
			t.Errorf("parseCodes(%q) succeeded", bad)
		}
	}
}

func TestRunExportWritesChart(t *testing.T) {
	out := filepath.Join(t.TempDir(), "chart.png")
	withConfig(t, func(c *Config) {
		c.Output = out
		c.Width, c.Height = 480, 270
	})

	var buf bytes.Buffer
	if err := runExport(context.Background(), loadTestFixture(t), []int{13, 27, 1, 13}, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "skipping 大阪府") {
		t.Errorf("failed region not reported:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "2 series") {
		t.Errorf("unexpected summary:\n%s", buf.String())
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 480 || cfg.Height != 270 {
		t.Errorf("image is %dx%d, want 480x270", cfg.Width, cfg.Height)
	}
}

func TestRunExportErrors(t *testing.T) {
	withConfig(t, func(c *Config) {
		c.Output = filepath.Join(t.TempDir(), "chart.png")
	})
	ctx := context.Background()
	var buf bytes.Buffer

	if err := runExport(ctx, loadTestFixture(t), []int{99}, &buf); err == nil || !strings.Contains(err.Error(), "99") {
		t.Errorf("unknown code: err = %v", err)
	}

	config.Metric = string(region.Youth)
	err := runExport(ctx, loadTestFixture(t), []int{47}, &buf)
	if err == nil || !strings.Contains(err.Error(), string(region.Youth)) {
		t.Errorf("missing metric: err = %v", err)
	}
	if _, statErr := os.Stat(config.Output); !os.IsNotExist(statErr) {
		t.Errorf("an image was written without data")
	}
}
