package main

import (
	"strings"
	"testing"

	tui "github.com/charmbracelet/bubbletea"

	"github.com/keilerkonzept/popchart/internal/engine"
	"github.com/keilerkonzept/popchart/internal/provider"
	"github.com/keilerkonzept/popchart/internal/region"
)

func newTestModel(t *testing.T, width, height int) *model {
	t.Helper()
	withConfig(t, nil)
	f, err := provider.LoadFixture("testdata/prefectures.json")
	if err != nil {
		t.Fatal(err)
	}
	m := newModel(f)
	t.Cleanup(m.close)
	drive(m, func() tui.Msg { return tui.WindowSizeMsg{Width: width, Height: height} })
	drive(m, m.loadRegions())
	if len(m.list.Items()) != 4 {
		t.Fatalf("list has %d items, want 4", len(m.list.Items()))
	}
	return m
}

// drive runs cmd and feeds every message it produces back into the model
// until no commands are left.
func drive(m *model, cmd tui.Cmd) {
	queue := []tui.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil:
		case tui.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, c := m.Update(msg)
			queue = append(queue, c)
		}
	}
}

func keyPress(s string) tui.KeyMsg {
	return tui.KeyMsg{Type: tui.KeyRunes, Runes: []rune(s)}
}

func press(m *model, keys ...string) {
	for _, k := range keys {
		_, cmd := m.Update(keyPress(k))
		drive(m, cmd)
	}
}

func selectedItem(t *testing.T, m *model) regionItem {
	t.Helper()
	it, ok := m.list.SelectedItem().(regionItem)
	if !ok {
		t.Fatalf("no region under the cursor")
	}
	return it
}

func TestModelSelectingRegionDrawsChart(t *testing.T) {
	m := newTestModel(t, 120, 40)
	if m.surface.State() != engine.Absent {
		t.Fatalf("surface = %s before any selection", m.surface.State())
	}

	press(m, "x")

	if m.surface.State() != engine.Mounted {
		t.Fatalf("surface = %s, want mounted", m.surface.State())
	}
	if v := m.terminal.View(); !strings.Contains(v, string(region.Total)) {
		t.Errorf("chart view is missing the %s title:\n%s", region.Total, v)
	}
	it := selectedItem(t, m)
	if !it.selected || it.state != engine.Ready {
		t.Errorf("item = %+v, want selected and ready", it)
	}
	if !strings.HasPrefix(it.Title(), "[x] 北海道") {
		t.Errorf("title = %q", it.Title())
	}
	m.pane.GotoBottom()
	if !strings.Contains(m.pane.View(), "● 北海道") {
		t.Errorf("pane is missing the legend line:\n%s", m.pane.View())
	}
}

func TestModelMetricSwitchDoesNotFetch(t *testing.T) {
	m := newTestModel(t, 120, 40)
	press(m, "x", "j", "x")
	issued := m.metrics.snapshot().issued
	if issued != 2 {
		t.Fatalf("issued = %d, want 2", issued)
	}

	press(m, "m")
	if m.engine.MetricType() != region.Youth {
		t.Fatalf("metric = %s, want %s", m.engine.MetricType(), region.Youth)
	}
	if !strings.Contains(m.terminal.View(), string(region.Youth)) {
		t.Errorf("chart title did not follow the metric:\n%s", m.terminal.View())
	}

	press(m, "1")
	if m.engine.MetricType() != region.Total {
		t.Errorf("metric = %s after pressing 1, want %s", m.engine.MetricType(), region.Total)
	}
	if got := m.metrics.snapshot().issued; got != issued {
		t.Errorf("switching metrics issued %d more fetches", got-issued)
	}
}

func TestModelFailureIsLocalAndRetryable(t *testing.T) {
	m := newTestModel(t, 120, 40)
	press(m, "x", "j", "j", "x")

	it := selectedItem(t, m)
	if it.Label != "大阪府" || it.state != engine.Failed {
		t.Fatalf("item = %+v, want 大阪府 failed", it)
	}
	if !strings.Contains(it.Description(), "r to retry") {
		t.Errorf("description = %q", it.Description())
	}
	if m.surface.State() != engine.Mounted {
		t.Errorf("surface = %s, want the other region still charted", m.surface.State())
	}
	if got := len(m.engine.ProjectedSeries()); got != 1 {
		t.Errorf("projected %d series, want 1", got)
	}

	press(m, "r")
	s := m.metrics.snapshot()
	if s.issued != 3 || s.failed != 2 {
		t.Errorf("after retry issued=%d failed=%d, want 3 and 2", s.issued, s.failed)
	}
}

func TestModelDeselectingLastRegionRemovesChart(t *testing.T) {
	m := newTestModel(t, 120, 40)
	press(m, "x")
	press(m, "x")

	if m.surface.State() != engine.Absent {
		t.Errorf("surface = %s, want absent", m.surface.State())
	}
	if m.terminal.View() != "" {
		t.Errorf("terminal still shows a chart")
	}
	if got := selectedItem(t, m).Description(); !strings.Contains(got, "cached") {
		t.Errorf("description = %q, want the result kept", got)
	}

	press(m, "x")
	if got := m.metrics.snapshot().issued; got != 1 {
		t.Errorf("reselecting issued %d fetches in total, want 1", got)
	}
}

func TestModelRestoresScrollAfterRedraw(t *testing.T) {
	m := newTestModel(t, 100, 12)
	press(m, "x", "j", "x")
	m.SetScrollOffset(2)
	if m.ScrollOffset() != 2 {
		t.Fatalf("pane content too short to scroll (offset %d)", m.ScrollOffset())
	}

	press(m, "m")
	if m.ScrollOffset() != 2 {
		t.Errorf("offset = %d after redraw, want 2", m.ScrollOffset())
	}

	m.SetScrollOffset(0)
	m.scheduleIdle(func() { m.SetScrollOffset(2) })
	drive(m, m.flushIdle())
	if m.ScrollOffset() != 2 {
		t.Errorf("offset = %d after idle work, want 2", m.ScrollOffset())
	}
}

func TestModelKeepsUserScrollOverPendingRestore(t *testing.T) {
	m := newTestModel(t, 100, 12)
	press(m, "x", "j", "x")
	m.SetScrollOffset(2)
	if m.ScrollOffset() != 2 {
		t.Fatalf("pane content too short to scroll (offset %d)", m.ScrollOffset())
	}

	_, cmd := m.Update(keyPress("m"))
	press(m, "[")
	if m.ScrollOffset() != 1 {
		t.Fatalf("offset = %d after scrolling up, want 1", m.ScrollOffset())
	}
	drive(m, cmd)
	if m.ScrollOffset() != 1 {
		t.Errorf("offset = %d, want the user's scroll kept", m.ScrollOffset())
	}
}

func TestModelQuitClosesSurface(t *testing.T) {
	m := newTestModel(t, 120, 40)
	press(m, "x")

	_, cmd := m.Update(keyPress("q"))
	if cmd == nil {
		t.Fatal("quit returned no command")
	}
	if _, ok := cmd().(tui.QuitMsg); !ok {
		t.Errorf("quit command did not quit")
	}
	if m.surface.State() != engine.Unmounted {
		t.Errorf("surface = %s, want unmounted", m.surface.State())
	}
	if m.ctx.Err() == nil {
		t.Errorf("context still live after quit")
	}
}

func TestModelDirectoryFailure(t *testing.T) {
	withConfig(t, nil)
	f, err := provider.ParseFixture([]byte(`{"prefectures": []}`))
	if err != nil {
		t.Fatal(err)
	}
	m := newModel(f)
	t.Cleanup(m.close)
	m.Update(regionsMsg{err: &region.ProviderError{Status: 503, Endpoint: "/api/v1/prefectures", Message: "unavailable"}})
	if !strings.Contains(m.View(), "ctrl+r to reload") {
		t.Errorf("view does not offer a reload:\n%s", m.View())
	}
}

func TestModelFailedReloadClearsDirectory(t *testing.T) {
	m := newTestModel(t, 120, 40)
	_, cmd := m.Update(regionsMsg{err: &region.ProviderError{Status: 503, Endpoint: "/api/v1/prefectures", Message: "unavailable"}})
	drive(m, cmd)

	if n := len(m.list.Items()); n != 0 {
		t.Fatalf("list has %d items after a failed reload, want 0", n)
	}
	press(m, "x")
	if got := m.metrics.snapshot().issued; got != 0 {
		t.Errorf("toggling issued %d fetches, want none", got)
	}
	if m.surface.State() != engine.Absent {
		t.Errorf("surface = %s, want absent", m.surface.State())
	}
}

func TestComputePaneWidths(t *testing.T) {
	cases := []struct {
		total, split, left, right int
	}{
		{1, 50, 1, 1},
		{100, 35, 35, 65},
		{100, 10, 18, 82},
		{100, 95, 82, 18},
		{20, 50, 10, 10},
	}
	for _, tc := range cases {
		left, right := computePaneWidths(tc.total, tc.split)
		if left != tc.left || right != tc.right {
			t.Errorf("computePaneWidths(%d, %d) = %d, %d, want %d, %d", tc.total, tc.split, left, right, tc.left, tc.right)
		}
	}
}
