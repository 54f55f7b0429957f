package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"crudload/internal/runner"
	"crudload/internal/stats"
	"crudload/internal/tui/components"
	"crudload/internal/tui/styles"
)

type statsMsg stats.Snapshot

type doneMsg struct {
	summary runner.RunSummary
	err     error
}

type Model struct {
	Updates runner.StatsUpdateChan
	Cfg     runner.Config

	Stats    stats.Snapshot
	Progress progress.Model

	RpsLine     components.Sparkline
	LatencyLine components.Sparkline

	StartTime  time.Time
	LastUpdate time.Time
	LastReqs   uint64

	Done     bool
	Quitting bool
	Summary  runner.RunSummary

	Width  int
	Height int
}

func NewModel(updates runner.StatsUpdateChan, cfg runner.Config) Model {
	now := time.Now()
	return Model{
		Updates:     updates,
		Cfg:         cfg,
		Progress:    progress.New(progress.WithDefaultGradient()),
		RpsLine:     components.NewSparkline(40, 1, "Requests/s", styles.Active),
		LatencyLine: components.NewSparkline(40, 1, "Latency P90 (ms)", styles.Warn),
		StartTime:   now,
		LastUpdate:  now,
	}
}

func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.Updates)
}

func waitForUpdate(sub runner.StatsUpdateChan) tea.Cmd {
	return func() tea.Msg {
		return statsMsg(<-sub)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Progress.Width = msg.Width - 4

		half := (msg.Width / 2) - 6
		if half < 10 {
			half = 10
		}
		m.RpsLine.Width = half
		m.LatencyLine.Width = half
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.Done {
				return m, tea.Quit
			}
			// Workers are never interrupted; keep drawing until they finish.
			m.Quitting = true
			return m, nil
		}

	case statsMsg:
		now := time.Now()
		dt := now.Sub(m.LastUpdate).Seconds()
		if dt < 0.01 {
			dt = 0.01
		}

		snap := stats.Snapshot(msg)
		rps := float64(snap.Requests-m.LastReqs) / dt
		m.RpsLine.Add(uint64(rps))
		m.LatencyLine.Add(uint64(snap.P90Ms))

		m.Stats = snap
		m.LastReqs = snap.Requests
		m.LastUpdate = now

		cmd := m.Progress.SetPercent(m.percent())
		return m, tea.Batch(cmd, waitForUpdate(m.Updates))

	case doneMsg:
		m.Done = true
		m.Summary = msg.summary
		m.Stats.Requests = uint64(msg.summary.Attempted)
		m.Stats.Success = uint64(msg.summary.TotalSuccess)
		m.Stats.Fail = uint64(msg.summary.TotalErrors)
		m.Stats.Exhausted = uint64(msg.summary.Exhausted)
		m.Stats.Inflight = 0
		m.Stats.ErrorRate = 100 - msg.summary.SuccessRatePercent
		if msg.summary.Attempted == 0 {
			m.Stats.ErrorRate = 0
		}
		if m.Quitting || msg.err != nil {
			return m, tea.Quit
		}
		return m, m.Progress.SetPercent(1.0)

	case progress.FrameMsg:
		prog, cmd := m.Progress.Update(msg)
		m.Progress = prog.(progress.Model)
		return m, cmd
	}

	return m, nil
}

func (m Model) percent() float64 {
	total := m.Cfg.TotalRequests()
	if total == 0 {
		return 0
	}
	pct := float64(m.Stats.Requests) / float64(total)
	if pct > 1.0 {
		pct = 1.0
	}
	return pct
}

func (m Model) View() string {
	s := strings.Builder{}

	title := fmt.Sprintf("%s x %d workers x %d requests", strings.ToUpper(string(m.Cfg.Operation)), m.Cfg.Concurrency, m.Cfg.RequestsPerWorker)
	s.WriteString(styles.Title.Render(title))
	s.WriteString("\n\n")

	errRate := m.Stats.ErrorRate
	var errColor lipgloss.Style
	if errRate > 5.0 {
		errColor = styles.Error
	} else if errRate > 1.0 {
		errColor = styles.Warn
	} else {
		errColor = styles.Active
	}

	col1 := fmt.Sprintf("REQ: %d/%d\nINF: %d", m.Stats.Requests, m.Cfg.TotalRequests(), m.Stats.Inflight)
	col2 := fmt.Sprintf("OK: %d\nFAIL: %d (%.1f%%)", m.Stats.Success, m.Stats.Fail, errRate)
	col3 := fmt.Sprintf("NO USER LEFT: %d\nELAPSED: %s", m.Stats.Exhausted, time.Since(m.StartTime).Round(100*time.Millisecond))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(col1),
		styles.Box.Render(errColor.Render(col2)),
		styles.Box.Render(col3),
	))
	s.WriteString("\n\n")

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Box.Render(m.RpsLine.View()),
		styles.Box.Render(m.LatencyLine.View()),
	))
	s.WriteString("\n\n")

	s.WriteString(styles.Subtle.Render(fmt.Sprintf(
		"Mean: %.2f ms  |  P50: %.2f ms  |  P90: %.2f ms  |  P99: %.2f ms  |  Max: %.2f ms",
		m.Stats.MeanMs, m.Stats.P50Ms, m.Stats.P90Ms, m.Stats.P99Ms, m.Stats.MaxMs,
	)))
	s.WriteString("\n\n")
	s.WriteString(m.Progress.View())
	s.WriteString("\n\n")

	switch {
	case m.Done:
		s.WriteString(styles.Success.Render("Run complete.") + " " + styles.Subtle.Render("Press q to see the summary"))
	case m.Quitting:
		s.WriteString(styles.Warn.Render("Waiting for workers to finish their remaining requests..."))
	default:
		s.WriteString(styles.Subtle.Render("Press q to leave once the run completes"))
	}

	return s.String() + "\n"
}

// Run executes plan on r while drawing the live dashboard.
func Run(ctx context.Context, r *runner.Runner, plan *runner.Plan) (runner.RunSummary, error) {
	p := tea.NewProgram(NewModel(r.Updates, plan.Config))

	results := make(chan doneMsg, 1)
	go func() {
		s, err := r.Execute(ctx, plan)
		d := doneMsg{summary: s, err: err}
		results <- d
		p.Send(d)
	}()

	if _, err := p.Run(); err != nil {
		d := <-results
		return d.summary, fmt.Errorf("dashboard: %w", err)
	}

	d := <-results
	return d.summary, d.err
}
