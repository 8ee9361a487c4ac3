// monitor/monitor.go
package monitor

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/accelsw/felobs/epics"
	"github.com/accelsw/felobs/metrics"
	"github.com/accelsw/felobs/observe"
)

// Options configure the interactive acquisition monitor.
type Options struct {
	// ConfigPath locates the JSON configuration; empty means config.json
	// in the working directory.
	ConfigPath string
	// Simulate replaces every configured gateway with the in-process
	// simulator so the monitor runs without machine access.
	Simulate bool
	// MetricsAddr exposes the Prometheus collectors on this address when
	// set, for example ":9120".
	MetricsAddr string
	// Interval between automatic re-acquisitions; zero disables them.
	Interval time.Duration
	// Debug forces diagnostic logging on even when the configuration file
	// leaves it off.
	Debug bool
}

// viewState represents the current state of the application's view.
type viewState int

const (
	// viewGatewaySelector is the state where the user selects a gateway.
	viewGatewaySelector viewState = iota
	// viewAcquiring is the state while the first acquisition is in flight.
	viewAcquiring
	// viewStats is the state where statistics are displayed.
	viewStats
)

// ledgerEntry records one completed acquisition for the history pane.
type ledgerEntry struct {
	// Wall-clock completion time.
	at time.Time
	// The statistics record produced by the acquisition.
	stats observe.PulseStats
	// End-to-end acquisition time, including the buffer-fill wait.
	elapsed time.Duration
}

// model is the main application model for the Bubble Tea UI.
// It holds all the necessary state for the acquisition monitor.
type model struct {
	// Application configuration.
	cfg epics.Config
	// Non-nil when every gateway selection should read from this source
	// instead of a freshly built gateway client (simulate mode).
	fixedSource observe.Interface
	// Sampler reducing windows through the selected source.
	sampler *observe.Sampler
	// Current view state of the application.
	state viewState
	// Indicates if an acquisition is in flight.
	isLoading bool
	// Stores any error encountered during operations.
	err error

	// Bubble Tea list model for gateway selection.
	gatewayList list.Model
	// Bubble Tea viewport model for displaying the acquisition history.
	viewport viewport.Model
	// Bubble Tea spinner model for indicating loading.
	spinner spinner.Model

	// The currently selected gateway.
	selectedGateway epics.Gateway
	// The most recent statistics record.
	latest observe.PulseStats
	// Last observed repetition rate in Hz.
	rate float64
	// Completed acquisitions, oldest first.
	history []ledgerEntry

	// Interval between automatic re-acquisitions; zero disables them.
	interval time.Duration

	// Current width and height of the terminal.
	width, height int
	// Timestamp when the last acquisition started.
	requestStartTime time.Time

	// Diagnostic logger shared with the sampler and gateway clients.
	log *zap.Logger
}

// initialModel initializes a new model with default values and sets up the
// necessary Bubble Tea components like spinner, list, and viewport.
func initialModel(cfg epics.Config, opts Options, logger *zap.Logger) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	gatewayItems := make([]list.Item, len(cfg.Gateways))
	for i, g := range cfg.Gateways {
		gatewayItems[i] = item{title: g.Name, desc: g.URL}
	}
	gatewayList := list.New(gatewayItems, list.NewDefaultDelegate(), 0, 0)
	gatewayList.Title = "Select a Gateway"

	vp := viewport.New(100, 5)

	m := &model{
		cfg:         cfg,
		state:       viewGatewaySelector,
		spinner:     s,
		gatewayList: gatewayList,
		viewport:    vp,
		interval:    opts.Interval,
		log:         logger,
	}
	if opts.Simulate {
		m.fixedSource = epics.NewSimulator()
	}
	return m
}

// item represents a selectable gateway in the Bubble Tea list.
type item struct {
	// The gateway's configured name.
	title string
	// The gateway's endpoint URL.
	desc string
}

// Title returns the title of the list item.
func (i item) Title() string { return i.title }

// Description returns the description of the list item.
func (i item) Description() string { return i.desc }

// FilterValue returns the title of the item, used for filtering in the list.
func (i item) FilterValue() string { return i.title }

// statsMsg is sent when an acquisition completes.
type statsMsg struct {
	stats   observe.PulseStats
	rate    float64
	elapsed time.Duration
}

// statsErrMsg is sent when an acquisition fails.
type statsErrMsg error

// resampleTickMsg triggers the next automatic acquisition.
type resampleTickMsg time.Time

// tickMsg is a regular tick message used for animations or timed updates.
type tickMsg time.Time

// acquireCmd is a Bubble Tea command that performs one full acquisition and
// reports it as a statsMsg or statsErrMsg. It also feeds the Prometheus
// collectors so the watch view can be scraped.
func acquireCmd(sampler *observe.Sampler, cfg epics.Config) tea.Cmd {
	return func() tea.Msg {
		t0 := time.Now()
		st, err := sampler.IntensityAndLoss(context.Background(), cfg.HXR, cfg.Points, cfg.LossChannel, cfg.FELChannel)
		elapsed := time.Since(t0)
		if err != nil {
			metrics.AcquisitionsTotal.WithLabelValues("error").Inc()
			return statsErrMsg(err)
		}
		metrics.AcquisitionsTotal.WithLabelValues("ok").Inc()
		metrics.AcquisitionSeconds.Observe(elapsed.Seconds())

		rate, rerr := sampler.BeamRate(context.Background())
		if rerr == nil {
			metrics.BeamRateHz.Set(rate)
		}
		return statsMsg{stats: st, rate: rate, elapsed: elapsed}
	}
}

// resampleCmd schedules the next automatic acquisition.
func resampleCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return resampleTickMsg(t)
	})
}

// tickCmd returns a Bubble Tea command that sends a tickMsg at a regular
// interval. This is used to keep the elapsed-time readout moving.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// beginAcquisition flips the model into its loading state and returns the
// commands driving the acquisition. The full-screen acquiring view is only
// used before the first record exists; afterwards the spinner renders inline
// in the stats view.
func (m *model) beginAcquisition() tea.Cmd {
	m.isLoading = true
	if len(m.history) == 0 {
		m.state = viewAcquiring
	}
	m.requestStartTime = time.Now()
	return tea.Batch(m.spinner.Tick, acquireCmd(m.sampler, m.cfg), tickCmd())
}

// Init initializes the Bubble Tea model. It returns a command to start the
// spinner animation.
func (m *model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update is the central update function for the Bubble Tea model.
// It handles incoming messages and updates the application's state accordingly.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			if m.state == viewStats {
				m.state = viewGatewaySelector
				m.err = nil
				return m, nil
			}
		case "r":
			if m.sampler != nil && !m.isLoading {
				m.err = nil
				return m, m.beginAcquisition()
			}
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.gatewayList.SetSize(msg.Width-2, msg.Height-4)
		headerHeight := 11
		footerHeight := 4
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - headerHeight - footerHeight

	case statsMsg:
		if m.state == viewGatewaySelector {
			return m, nil
		}
		m.isLoading = false
		m.state = viewStats
		m.latest = msg.stats
		m.rate = msg.rate
		m.history = append(m.history, ledgerEntry{at: time.Now(), stats: msg.stats, elapsed: msg.elapsed})
		m.viewport.SetContent(m.historyView())
		m.viewport.GotoBottom()
		if m.interval > 0 {
			return m, resampleCmd(m.interval)
		}
		return m, nil

	case statsErrMsg:
		m.isLoading = false
		m.err = msg
		return m, nil

	case resampleTickMsg:
		if m.state == viewStats && !m.isLoading && m.sampler != nil {
			return m, m.beginAcquisition()
		}
		return m, nil

	case tickMsg:
		if m.isLoading {
			return m, tickCmd()
		}
		return m, nil
	}

	switch m.state {
	case viewGatewaySelector:
		m.gatewayList, cmd = m.gatewayList.Update(msg)
		cmds = append(cmds, cmd)
		if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" {
			if _, ok := m.gatewayList.SelectedItem().(item); ok {
				m.selectedGateway = m.cfg.Gateways[m.gatewayList.Index()]
				source := m.fixedSource
				if source == nil {
					source = epics.NewClient(m.selectedGateway.URL, epics.WithClientLogger(m.log))
				}
				m.sampler = observe.NewSampler(source, observe.WithLogger(m.log))
				m.err = nil
				cmds = append(cmds, m.beginAcquisition())
			}
		}

	case viewStats:
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.isLoading {
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the application's UI based on its current state.
func (m *model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	if m.err != nil {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(1)
		hint := lipgloss.NewStyle().Faint(true).Render(" (r to retry, q to quit)")
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + hint
	}

	switch m.state {
	case viewGatewaySelector:
		return lipgloss.NewStyle().Margin(1, 2).Render(m.gatewayList.View())

	case viewAcquiring:
		timer := fmt.Sprintf("%.1f", time.Since(m.requestStartTime).Seconds())
		return fmt.Sprintf("\n  %s Sampling %d shots from %s... %ss\n",
			m.spinner.View(), m.cfg.Points, m.selectedGateway.Name, timer)

	case viewStats:
		return m.statsView()

	default:
		return "Unknown state"
	}
}

// statsView renders the statistics panel, including the header, the latest
// record, the acquisition history, and the optional debug footer.
func (m *model) statsView() string {
	var builder strings.Builder

	headerStyle := lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	gatewayInfo := fmt.Sprintf("Gateway: %s", m.selectedGateway.Name)
	channelInfo := fmt.Sprintf("Loss: %s", m.cfg.LossChannel)
	status := lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Render(gatewayInfo),
		headerStyle.MarginLeft(1).Render(channelInfo),
	)
	help := lipgloss.NewStyle().Faint(true).Render(" (r to resample, tab to change, q to quit)")
	builder.WriteString(status + help + "\n\n")

	labelStyle := lipgloss.NewStyle().Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("86"))

	builder.WriteString(labelStyle.Render("Pulse intensity (mJ)") + "\n")
	builder.WriteString(fmt.Sprintf("  p80     %s\n", valueStyle.Render(fmt.Sprintf("%.4f", m.latest.GasP80))))
	builder.WriteString(fmt.Sprintf("  mean    %s\n", valueStyle.Render(fmt.Sprintf("%.4f", m.latest.GasMean))))
	builder.WriteString(fmt.Sprintf("  median  %s\n", valueStyle.Render(fmt.Sprintf("%.4f", m.latest.GasMedian))))
	builder.WriteString(fmt.Sprintf("  std     %s\n", valueStyle.Render(fmt.Sprintf("%.4f", m.latest.GasStd))))
	builder.WriteString(labelStyle.Render("Beam loss") + "\n")
	builder.WriteString(fmt.Sprintf("  p80     %s\n\n", valueStyle.Render(fmt.Sprintf("%.4f", m.latest.LossP80))))

	builder.WriteString(m.viewport.View())

	if m.isLoading {
		timer := fmt.Sprintf("%.1f", time.Since(m.requestStartTime).Seconds())
		builder.WriteString("\n" + m.spinner.View() + fmt.Sprintf(" Resampling... %ss", timer))
	}

	if m.cfg.Debug && len(m.history) > 0 {
		builder.WriteString("\n" + formatMeta(m.history[len(m.history)-1], m.rate))
	}

	return builder.String()
}

// historyView renders one line per completed acquisition, oldest first.
func (m *model) historyView() string {
	var b strings.Builder
	rowStyle := lipgloss.NewStyle().Faint(true)
	for _, e := range m.history {
		b.WriteString(rowStyle.Render(fmt.Sprintf(
			"%s  gas p80 %.4f  mean %.4f  loss p80 %.4f  (%.1fs)",
			e.at.Format("15:04:05"), e.stats.GasP80, e.stats.GasMean, e.stats.LossP80, e.elapsed.Seconds(),
		)) + "\n")
	}
	return b.String()
}

// formatMeta formats the latest acquisition's metadata into a human-readable
// string for the debug footer.
func formatMeta(e ledgerEntry, rate float64) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	return style.Render(fmt.Sprintf(
		"  >>> [Acquired: %s] [Elapsed: %.1fs] [Beam Rate: %.1f Hz]",
		e.at.Format("15:04:05"), e.elapsed.Seconds(), rate,
	))
}

// newLogger builds the diagnostic logger. Debug mode writes development
// output to felobs.log so the alternate screen stays clean; otherwise
// logging is a no-op.
func newLogger(debug bool) (*zap.Logger, error) {
	if !debug {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"felobs.log"}
	cfg.ErrorOutputPaths = []string{"felobs.log"}
	return cfg.Build()
}

// StartGUI initializes and runs the interactive acquisition monitor. It
// reads configuration from the given path, optionally serves the Prometheus
// collectors, and blocks until the UI exits. It logs diagnostic output to
// debug.log when enabled. StartGUI does not return a value.
func StartGUI(opts Options) {
	f, err := tea.LogToFile("debug.log", "debug")
	if err != nil {
		log.Fatalf("could not open log file: %v", err)
	}
	defer f.Close()

	cfg, err := epics.LoadConfig(opts.ConfigPath)
	if err != nil {
		if !opts.Simulate {
			log.Fatalf("Failed to start: %v", err)
		}
		cfg = epics.DefaultConfig()
	}
	if opts.Simulate {
		cfg.Gateways = []epics.Gateway{{Name: "simulator", URL: "in-process"}}
	}
	if opts.Debug {
		cfg.Debug = true
	}
	if len(cfg.Gateways) == 0 {
		log.Fatalf("Failed to start: config must contain at least one gateway")
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer logger.Sync()

	if opts.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		for _, c := range metrics.Collectors() {
			registry.MustRegister(c)
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(opts.MetricsAddr, mux); err != nil {
				logger.Warn("metrics listener stopped", zap.Error(err))
			}
		}()
	}

	m := initialModel(cfg, opts, logger)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
}
