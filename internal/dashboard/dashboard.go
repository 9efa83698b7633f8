package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/calltrack/internal/metrics"
)

const historyLimit = 100

// RunInfo holds workload parameters for display.
type RunInfo struct {
	Concurrency int           // Number of concurrent workers
	Duration    time.Duration // Run duration (0 = until total)
	Total       int           // Total iterations (0 = unlimited)
	Rate        int           // Iterations per second (0 = unlimited)
	Arrival     string        // Arrival model (uniform, poisson)
	ConfigFile  string        // Path to config file if used
}

// Dashboard renders a live terminal UI for a registry.
type Dashboard struct {
	reg          *metrics.Registry
	sortKey      metrics.SortKey
	reverse      bool
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid        *ui.Grid
	statsTable  *widgets.Table
	summaryPara *widgets.Paragraph
	rateSparkle *widgets.SparklineGroup

	history          []float64
	lastObservations int64
	startTime        time.Time
	elapsed          time.Duration
	info             RunInfo
	now              func() time.Time
}

// New creates a new Dashboard and takes over the terminal.
func New(reg *metrics.Registry, key metrics.SortKey, reverse bool, info RunInfo, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := newDashboard(reg, key, reverse, info, shutdownFunc)
	d.ctx = ctx
	d.cancel = cancel
	d.setupGrid()

	return d, nil
}

func newDashboard(reg *metrics.Registry, key metrics.SortKey, reverse bool, info RunInfo, shutdownFunc func()) *Dashboard {
	d := &Dashboard{
		reg:          metrics.GetStats(reg),
		sortKey:      key,
		reverse:      reverse,
		shutdownFunc: shutdownFunc,
		history:      make([]float64, 0, historyLimit),
		info:         info,
		now:          time.Now,
	}
	d.startTime = d.now()
	d.initWidgets()
	return d
}

func (d *Dashboard) initWidgets() {
	d.statsTable = widgets.NewTable()
	d.statsTable.Title = "Tracked Functions"
	d.statsTable.Rows = [][]string{tableHeader()}
	d.statsTable.TextStyle = ui.NewStyle(ui.ColorWhite)
	d.statsTable.RowSeparator = false
	d.statsTable.FillRow = true
	d.statsTable.RowStyles[0] = ui.NewStyle(ui.ColorCyan, ui.ColorClear, ui.ModifierBold)
	d.statsTable.BorderStyle.Fg = ui.ColorCyan

	sparkline := widgets.NewSparkline()
	sparkline.Title = "Observations per tick"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.rateSparkle = widgets.NewSparklineGroup(sparkline)
	d.rateSparkle.Title = "Throughput"
	d.rateSparkle.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Summary"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.18,
			ui.NewCol(0.5, d.summaryPara),
			ui.NewCol(0.5, d.rateSparkle),
		),
		ui.NewRow(0.82,
			ui.NewCol(1.0, d.statsTable),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	d.elapsed = d.now().Sub(d.startTime)
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

// Elapsed returns how long the dashboard ran. Valid after Stop.
func (d *Dashboard) Elapsed() time.Duration {
	return d.elapsed
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.update()
	d.render()

	for {
		select {
		case <-d.ctx.Done():
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			default:
				if d.handleKey(e.ID) {
					d.update()
					d.render()
				}
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// handleKey reacts to a key press and reports whether the view changed.
// Quitting only asks the caller to shut down; Stop tears the UI down.
func (d *Dashboard) handleKey(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch id {
	case "q", "<C-c>":
		if d.shutdownFunc != nil {
			d.shutdownFunc()
		}
		return false
	case "s":
		d.sortKey = d.sortKey.Next()
		return true
	case "r":
		d.reverse = !d.reverse
		return true
	}
	return false
}

// update refreshes all widget data from the registry.
func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows, err := metrics.FormatSnapshot(d.reg, d.sortKey, d.reverse, false)
	if err != nil {
		d.summaryPara.Text = fmt.Sprintf("[%v](fg:red)", err)
		return
	}
	d.statsTable.Rows = tableRows(rows)

	var observations int64
	for _, r := range rows {
		observations += r.Calls
	}
	delta := observations - d.lastObservations
	if delta < 0 {
		// registry was cleared underneath us
		delta = observations
	}
	d.lastObservations = observations
	d.history = appendHistory(d.history, float64(delta), historyLimit)
	d.rateSparkle.Sparklines[0].Data = d.history
	d.rateSparkle.Title = fmt.Sprintf("Throughput | Last tick: %d", delta)

	elapsed := d.now().Sub(d.startTime)
	order := "desc"
	if !d.reverse {
		order = "asc"
	}
	lines := []string{
		fmt.Sprintf("Identities: %d | Observations: %d | Elapsed: %s", len(rows), observations, elapsed.Round(time.Second)),
		fmt.Sprintf("Sort: %s (%s) | [s] sort [r] reverse [q] quit", d.sortKey, order),
	}
	if params := formatRunInfo(d.info); params != "" {
		lines = append(lines, params)
	}
	d.summaryPara.Text = strings.Join(lines, "\n")
}

func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

func tableHeader() []string {
	return []string{"FUNCTION", "CALLS", "AVG LAT", "MAX LAT", "MIN LAT", "TOT LAT"}
}

func tableRows(rows []metrics.Row) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, tableHeader())
	for _, r := range rows {
		out = append(out, []string{
			r.Function,
			fmt.Sprintf("%d", r.Calls),
			formatLatency(r.Avg, r.Unit),
			formatLatency(r.Max, r.Unit),
			formatLatency(r.Min, r.Unit),
			formatLatency(r.Total, r.Unit),
		})
	}
	return out
}

func formatLatency(v float64, unit string) string {
	if v >= 1000 {
		return fmt.Sprintf("%.0f%s", v, unit)
	}
	return fmt.Sprintf("%.2f%s", v, unit)
}

func appendHistory(history []float64, v float64, limit int) []float64 {
	history = append(history, v)
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history
}

// formatRunInfo formats the workload parameters for display.
func formatRunInfo(info RunInfo) string {
	var parts []string

	if info.Concurrency > 0 {
		parts = append(parts, fmt.Sprintf("Workers: %d", info.Concurrency))
	}

	if info.Rate > 0 {
		parts = append(parts, fmt.Sprintf("Rate: %d/s", info.Rate))
	} else if info.Concurrency > 0 {
		parts = append(parts, "Rate: unlimited")
	}

	// Arrival model (only show if non-default)
	if info.Arrival != "" && info.Arrival != "uniform" {
		parts = append(parts, fmt.Sprintf("Arrival: %s", info.Arrival))
	}

	if info.Duration > 0 {
		parts = append(parts, fmt.Sprintf("Duration: %s", info.Duration))
	}

	if info.Total > 0 {
		parts = append(parts, fmt.Sprintf("Total: %d", info.Total))
	}

	if info.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", info.ConfigFile))
	}

	return strings.Join(parts, " | ")
}
