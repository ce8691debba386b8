package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tui "github.com/charmbracelet/bubbletea"
	styles "github.com/charmbracelet/lipgloss"
	plot "github.com/chriskim06/drawille-go"

	"github.com/keilerkonzept/popchart/internal/chart"
	"github.com/keilerkonzept/popchart/internal/engine"
	"github.com/keilerkonzept/popchart/internal/provider"
	"github.com/keilerkonzept/popchart/internal/region"
)

var (
	selectedColor = styles.AdaptiveColor{Light: "0", Dark: "9"}
	borderColor   = styles.AdaptiveColor{Light: "#555", Dark: "#555"}
	alertColor    = styles.AdaptiveColor{Light: "1", Dark: "9"}
	selectedFg    = styles.NewStyle().Foreground(selectedColor)
	borderFg      = styles.NewStyle().Foreground(borderColor)
	alertFg       = styles.NewStyle().Foreground(alertColor)
	plotStyle     = styles.NewStyle().
			BorderStyle(styles.NormalBorder()).
			BorderForeground(borderColor)
)

type regionsMsg struct {
	entities []region.Entity
	err      error
}

type settledMsg struct{ engine.Settlement }

// idleMsg carries work scheduled during one Update to the next one, after the
// view has been rendered. offset is the pane scroll offset at that render; the
// work is dropped if the user has scrolled since.
type idleMsg struct {
	fns    []func()
	offset int
}

type model struct {
	width, height  int
	leftPaneWidth  int
	rightPaneWidth int

	ctx    context.Context
	cancel context.CancelFunc

	directory provider.Directory
	engine    *engine.Engine
	terminal  *chart.Terminal
	surface   *engine.Surface

	list      list.Model
	listStyle styles.Style
	pane      viewport.Model
	help      help.Model

	regions    []region.Entity
	loading    bool
	regionsErr error
	chartErr   error

	dirty bool
	idle  []func()

	activity *activityBoard
	metrics  *fetchMetrics
}

func newModel(p provider.Provider) *model {
	const (
		defaultWidth  = 80
		defaultHeight = 20
	)

	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = styles.NewStyle().
		Border(styles.NormalBorder(), false, false, false, true).
		BorderForeground(borderColor).
		Foreground(selectedColor).
		Padding(0, 0, 0, 1)
	d.Styles.SelectedDesc = d.Styles.SelectedTitle.
		Foreground(selectedColor)
	d.ShowDescription = true

	l := list.New(make([]list.Item, 0), d, defaultWidth/2-2, defaultHeight)
	l.Styles.NoItems = l.Styles.NoItems.
		Padding(0, 2)
	l.SetFilteringEnabled(config.SearchEnabled)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)

	var highlight, dim plot.Color
	if styles.DefaultRenderer().HasDarkBackground() {
		highlight, dim = plot.Red, plot.DimGray
	} else {
		highlight, dim = plot.Black, plot.LightGray
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &model{
		ctx:       ctx,
		cancel:    cancel,
		directory: p,
		engine:    engine.New(p.Population),
		terminal:  chart.NewTerminal(highlight, dim),
		list:      l,
		help:      help.New(),
		pane:      viewport.New(defaultWidth/2, defaultHeight),
		activity:  newActivityBoard(config.HotRegions, config.ActivityWindow, config.ActivityTick),
		metrics:   newFetchMetrics(config.StatsWindow),
	}
	if config.Metric != "" {
		_ = m.engine.SetMetricType(region.MetricType(config.Metric))
	}
	m.metrics.setEnabled(config.StatsEnabled)
	m.leftPaneWidth, m.rightPaneWidth = computePaneWidths(defaultWidth, config.ViewSplit)

	w, h := chartSize(m.pane.Width, m.pane.Height)
	m.surface = engine.NewSurface(m.terminal,
		engine.WithScrollKeeper(m, m.scheduleIdle),
		engine.WithSize(w, h),
	)
	m.engine.Subscribe(m.onChange)
	m.refreshPane()
	return m
}

// chartSize leaves room in the pane for the metric tabs, the chart title and
// the axis line.
func chartSize(paneWidth, paneHeight int) (int, int) {
	return max(8, paneWidth), max(4, paneHeight-3)
}

func (m *model) ScrollOffset() int { return m.pane.YOffset }

func (m *model) SetScrollOffset(offset int) { m.pane.SetYOffset(offset) }

func (m *model) scheduleIdle(fn func()) {
	m.idle = append(m.idle, fn)
}

func (m *model) flushIdle() tui.Cmd {
	if len(m.idle) == 0 {
		return nil
	}
	msg := idleMsg{fns: m.idle, offset: m.pane.YOffset}
	m.idle = nil
	return func() tui.Msg { return msg }
}

func (m *model) onChange(c engine.Change) {
	m.chartErr = m.surface.Render(m.engine.ProjectedSeries(), m.engine.MetricType())
	if m.chartErr != nil {
		log.Printf("chart: %s change: %v", c.Kind, m.chartErr)
	}
	m.dirty = true
}

func (m *model) close() {
	m.cancel()
	m.surface.Close()
}

func (m *model) loadRegions() tui.Cmd {
	m.loading = true
	ctx, dir := m.ctx, m.directory
	return func() tui.Msg {
		entities, err := dir.Prefectures(ctx)
		return regionsMsg{entities: entities, err: err}
	}
}

func (m *model) runJobs(jobs []*engine.Job) tui.Cmd {
	if len(jobs) == 0 {
		return nil
	}
	m.metrics.observeIssued(len(jobs))
	ctx := m.ctx
	cmds := make([]tui.Cmd, len(jobs))
	for i, job := range jobs {
		log.Printf("population %d: fetching", job.Key)
		cmds[i] = func() tui.Msg { return settledMsg{job.Run(ctx)} }
	}
	return tui.Batch(cmds...)
}

func (m *model) Init() tui.Cmd {
	return tui.Batch(m.loadRegions(), doActivityTick())
}

func (m *model) Update(msg tui.Msg) (tui.Model, tui.Cmd) {
	cmd := m.update(msg)
	if m.surface.State() != engine.Unmounted {
		m.syncFocus()
	}
	if m.dirty {
		cmd = tui.Batch(cmd, m.refreshList())
		m.dirty = false
	}
	m.refreshPane()
	m.metrics.observeRedraws(m.surface.Redraws())
	return m, tui.Batch(cmd, m.flushIdle())
}

func (m *model) update(msg tui.Msg) tui.Cmd {
	switch msg := msg.(type) {
	case regionsMsg:
		m.loading = false
		m.regionsErr = msg.err
		m.regions = msg.entities
		m.dirty = true
		if msg.err != nil {
			log.Printf("prefectures: %v", msg.err)
			m.regions = nil
		}
		return nil
	case settledMsg:
		m.metrics.observeSettled(msg.Elapsed, msg.Err)
		if msg.Err != nil {
			log.Printf("population %d: %v", msg.Key, msg.Err)
		} else {
			log.Printf("population %d: ready in %s", msg.Key, msg.Elapsed)
		}
		m.engine.Settle(msg.Settlement)
		return nil
	case idleMsg:
		if m.pane.YOffset != msg.offset {
			return nil
		}
		for _, fn := range msg.fns {
			fn()
		}
		return nil
	case activityTickMsg:
		m.activity.advance(time.Time(msg))
		return doActivityTick()
	case tui.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return nil
	case tui.KeyMsg:
		if m.list.SettingFilter() {
			break
		}
		switch {
		case key.Matches(msg, keys.Quit):
			m.close()
			return tui.Quit
		case key.Matches(msg, keys.Up):
			m.list.CursorUp()
			return nil
		case key.Matches(msg, keys.Down):
			m.list.CursorDown()
			return nil
		case key.Matches(msg, keys.Toggle):
			return m.toggleCurrent()
		case key.Matches(msg, keys.Metric):
			m.engine.CycleMetricType()
			return nil
		case key.Matches(msg, keys.MetricN):
			types := m.engine.MetricTypes()
			if n := int(msg.String()[0] - '1'); n < len(types) {
				_ = m.engine.SetMetricType(types[n])
			}
			return nil
		case key.Matches(msg, keys.Retry):
			if it, ok := m.list.SelectedItem().(regionItem); ok {
				if job := m.engine.Retry(it.Key); job != nil {
					return m.runJobs([]*engine.Job{job})
				}
			}
			return nil
		case key.Matches(msg, keys.Reload):
			if m.loading {
				return nil
			}
			return m.loadRegions()
		case key.Matches(msg, keys.ScrollUp):
			m.pane.ScrollUp(1)
			return nil
		case key.Matches(msg, keys.ScrollDown):
			m.pane.ScrollDown(1)
			return nil
		}
	}
	var cmd tui.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

func (m *model) toggleCurrent() tui.Cmd {
	it, ok := m.list.SelectedItem().(regionItem)
	if !ok {
		return nil
	}
	jobs := m.engine.Toggle(it.Entity)
	if m.engine.IsSelected(it.Key) {
		m.activity.observe(it.Label)
	}
	return m.runJobs(jobs)
}

func (m *model) syncFocus() {
	focus := 0
	if it, ok := m.list.SelectedItem().(regionItem); ok {
		focus = it.Key
	}
	if err := m.surface.Focus(focus); err != nil {
		m.chartErr = err
	}
}

func (m *model) resize(width, height int) {
	m.width, m.height = width, height
	m.leftPaneWidth, m.rightPaneWidth = computePaneWidths(m.width, config.ViewSplit)
	statsLines := 0
	if config.StatsEnabled {
		// title + 4 lines
		statsLines = 5
	}
	helpLines := 1
	available := max(1, m.height-statsLines-helpLines)

	leftW := max(1, m.leftPaneWidth)
	m.list.SetSize(leftW, available)
	m.listStyle = styles.NewStyle().Width(leftW).Height(available)

	// The pane is wrapped in a border (2 lines, 2 columns).
	m.pane.Width = max(1, m.rightPaneWidth-2)
	m.pane.Height = max(1, available-2)
	if err := m.surface.Resize(chartSize(m.pane.Width, m.pane.Height)); err != nil {
		m.chartErr = err
	}
}

func (m *model) refreshList() tui.Cmd {
	items := make([]list.Item, len(m.regions))
	for i, e := range m.regions {
		entry := m.engine.CacheState(e.Key)
		items[i] = regionItem{
			Entity:   e,
			selected: m.engine.IsSelected(e.Key),
			state:    entry.State,
		}
	}
	return m.list.SetItems(items)
}

func (m *model) refreshPane() {
	var b strings.Builder
	b.WriteString(m.metricTabs())
	b.WriteString("\n")
	if v := m.terminal.View(); v != "" {
		b.WriteString(v)
	} else {
		b.WriteString(borderFg.Render(m.placeholder()))
	}

	latest := map[int]region.Point{}
	for _, s := range m.engine.ProjectedSeries() {
		if n := len(s.Points); n > 0 {
			latest[s.Key] = s.Points[n-1]
		}
	}
	statuses := m.engine.Statuses()
	if len(statuses) > 0 {
		b.WriteString("\n")
	}
	focus := 0
	if it, ok := m.list.SelectedItem().(regionItem); ok {
		focus = it.Key
	}
	for _, st := range statuses {
		b.WriteString("\n")
		line := legendLine(st, latest, m.engine.MetricType())
		if st.Entity.Key == focus {
			line = selectedFg.Render(line)
		}
		b.WriteString(line)
	}
	m.pane.SetContent(b.String())
}

func legendLine(st engine.Status, latest map[int]region.Point, metric region.MetricType) string {
	switch st.State {
	case engine.Pending:
		return fmt.Sprintf("◌ %s  loading…", st.Entity.Label)
	case engine.Failed:
		return alertFg.Render(fmt.Sprintf("✗ %s  %v (r to retry)", st.Entity.Label, st.Err))
	case engine.Ready:
		p, ok := latest[st.Entity.Key]
		if !ok {
			return fmt.Sprintf("· %s  no %s data", st.Entity.Label, metric)
		}
		return fmt.Sprintf("● %s  %d: %s", st.Entity.Label, p.X, chart.FormatCount(p.Y))
	}
	return fmt.Sprintf("  %s", st.Entity.Label)
}

func (m *model) metricTabs() string {
	active := m.engine.MetricType()
	tabs := make([]string, 0, len(m.engine.MetricTypes()))
	for i, t := range m.engine.MetricTypes() {
		label := fmt.Sprintf("%d %s", i+1, t)
		if t == active {
			tabs = append(tabs, selectedFg.Render("["+label+"]"))
			continue
		}
		tabs = append(tabs, borderFg.Render(" "+label+" "))
	}
	return strings.Join(tabs, " ")
}

func (m *model) placeholder() string {
	statuses := m.engine.Statuses()
	if len(statuses) == 0 {
		return "Select prefectures on the left to compare their population."
	}
	for _, st := range statuses {
		if st.State == engine.Pending {
			return "Loading…"
		}
	}
	return fmt.Sprintf("No %s data for the selected prefectures.", m.engine.MetricType())
}

func (m *model) View() string {
	left := m.listStyle.Render(m.list.View())
	right := plotStyle.Render(m.pane.View())
	parts := []string{styles.JoinHorizontal(styles.Top, left, right)}

	switch {
	case m.regionsErr != nil:
		parts = append(parts, alertFg.Render("ERROR: prefectures: "+m.regionsErr.Error()+" (ctrl+r to reload)"))
	case m.loading && len(m.regions) == 0:
		parts = append(parts, borderFg.Render("loading prefectures…"))
	}
	if m.chartErr != nil {
		parts = append(parts, alertFg.Render("ERROR: "+m.chartErr.Error()))
	}
	if config.StatsEnabled {
		parts = append(parts, alertFg.Render(strings.Join(m.statsBlock(), "\n")))
	}
	parts = append(parts, m.help.View(keys))
	return styles.JoinVertical(styles.Left, parts...)
}

func (m *model) statsBlock() []string {
	snap := m.metrics.snapshot()
	hot := make([]string, 0, config.HotRegions)
	for _, item := range m.activity.top() {
		hot = append(hot, fmt.Sprintf("%s (%d)", item.Item, item.Count))
	}
	if len(hot) == 0 {
		hot = append(hot, "-")
	}
	return []string{
		"FETCH STATS",
		fmt.Sprintf("fetches: %d issued, %d ready, %d failed, %d in flight", snap.issued, snap.ready, snap.failed, snap.inFlight),
		fmt.Sprintf("latency last/avg/max: %s / %s / %s", formatMetricDuration(snap.latency.last), formatMetricDuration(snap.latency.avg), formatMetricDuration(snap.latency.max)),
		fmt.Sprintf("chart: %s, %d redraws", m.surface.State(), snap.redraws),
		"hot: " + strings.Join(hot, ", "),
	}
}

func formatMetricDuration(d time.Duration) string {
	if d <= 0 {
		return "0.000ms"
	}
	return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
}

func computePaneWidths(totalWidth int, splitPercent int) (left, right int) {
	if totalWidth <= 1 {
		return 1, 1
	}
	left = totalWidth * splitPercent / 100
	left = min(max(left, 1), totalWidth-1)
	right = totalWidth - left

	// Keep panes readable when the terminal is wide enough.
	const minPane = 18
	if totalWidth >= minPane*2 {
		if left < minPane {
			left = minPane
			right = totalWidth - left
		}
		if right < minPane {
			right = minPane
			left = totalWidth - right
		}
	}
	return left, right
}

type regionItem struct {
	region.Entity
	selected bool
	state    engine.State
}

func (i regionItem) Title() string {
	if i.selected {
		return "[x] " + i.Label
	}
	return "[ ] " + i.Label
}

func (i regionItem) Description() string {
	code := fmt.Sprintf("    #%02d", i.Key)
	switch {
	case i.state == engine.Pending:
		return code + " loading…"
	case i.state == engine.Failed && i.selected:
		return code + " failed, r to retry"
	case i.state == engine.Failed:
		return code + " failed"
	case i.state == engine.Ready && !i.selected:
		return code + " cached"
	}
	return code
}

func (i regionItem) FilterValue() string { return i.Label }
