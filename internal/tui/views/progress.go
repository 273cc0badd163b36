package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/geogrid/internal/engine/scanner"
	"github.com/rendis/geogrid/internal/model"
	"github.com/rendis/geogrid/internal/session"
	"github.com/rendis/geogrid/internal/tui/components"
	"github.com/rendis/geogrid/internal/tui/styles"
)

// sharedState holds data shared between the scan goroutine and the TUI.
// Lives behind a pointer so it survives bubbletea's value copies.
type sharedState struct {
	mu      sync.Mutex
	stats   *scanner.Stats
	cancel  context.CancelFunc
	records []model.VisibilityRecord
}

// ProgressModel runs a scan and shows live progress with a heatmap of the
// points finished so far.
type ProgressModel struct {
	sess        *session.Session
	progress    progress.Model
	startTime   time.Time
	channel     int
	done        bool
	confirmQuit bool
	err         error
	width       int
	height      int
	shared      *sharedState
}

type progressTickMsg time.Time

type scanCompleteMsg struct {
	Err error
}

func NewProgressModel(msg StartScanMsg) ProgressModel {
	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(50),
	)
	return ProgressModel{
		sess:      msg.Session,
		progress:  p,
		startTime: time.Now(),
		channel:   int(model.ChannelMaps),
		shared: &sharedState{
			stats: &scanner.Stats{},
		},
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return tea.Batch(
		m.startScan(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(t time.Time) tea.Msg {
		return progressTickMsg(t)
	})
}

func (m ProgressModel) startScan() tea.Cmd {
	shared := m.shared
	sess := m.sess

	return func() tea.Msg {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		shared.mu.Lock()
		shared.cancel = cancel
		stats := shared.stats
		shared.mu.Unlock()

		_, err := scanner.Run(ctx, sess.Points, sess.Params, sess.Provider, sess.Store, sess.Logger, &scanner.RunOptions{
			SuppressStderr: true,
			Stats:          stats,
			OnRecord: func(_ int, r model.VisibilityRecord) {
				shared.mu.Lock()
				shared.records = append(shared.records, r)
				shared.mu.Unlock()
			},
		})
		return scanCompleteMsg{Err: err}
	}
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.shared.stop()
			return m, tea.Quit
		case "c":
			m.channel = (m.channel + 1) % len(model.Channels())
			return m, nil
		case "esc":
			if m.done {
				return m, m.openReport()
			}
			if m.confirmQuit {
				m.shared.stop()
				m.confirmQuit = false
				return m, nil
			}
			m.confirmQuit = true
			return m, nil
		case "enter":
			if m.done {
				return m, m.openReport()
			}
			if m.confirmQuit {
				m.confirmQuit = false
				return m, nil
			}
		}
		if m.confirmQuit {
			m.confirmQuit = false
		}
	case progressTickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()
	case scanCompleteMsg:
		m.done = true
		m.err = msg.Err
		return m, nil
	}

	var cmd tea.Cmd
	var pModel tea.Model
	pModel, cmd = m.progress.Update(msg)
	m.progress = pModel.(progress.Model)
	return m, cmd
}

func (m ProgressModel) openReport() tea.Cmd {
	path, id := m.sess.DBPath, m.sess.Scan.ID
	return func() tea.Msg { return NavigateToReport{DBPath: path, ScanID: id} }
}

func (m ProgressModel) View() string {
	var b strings.Builder

	scan := m.sess.Scan
	b.WriteString(styles.Title.Render(fmt.Sprintf("Scanning: %s  (%s)", scan.Business, strings.Join(scan.Keywords, ", "))))
	b.WriteString("\n")

	statsBox := styles.Panel.Width(30).Render(m.renderStats())

	channel := model.Channel(m.channel)
	heat := components.NewHeatmap(components.CellsFor(m.shared.snapshot(), channel))
	mapBox := styles.Panel.Render(styles.Subtitle.Render(channel.Label()) + "\n" + heat.View())

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, statsBox, " ", mapBox))
	b.WriteString("\n\n")

	stats := m.shared.stats
	var pct float64
	if total := m.jobsTotal(); total > 0 {
		pct = float64(stats.JobsDone.Load()) / float64(total)
	}
	b.WriteString(m.progress.ViewAs(pct))
	b.WriteString("\n\n")

	switch {
	case m.done:
		if m.err != nil && !errors.Is(m.err, context.Canceled) {
			b.WriteString(styles.ErrorText.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			label := "Complete!"
			if errors.Is(m.err, context.Canceled) {
				label = "Stopped."
			}
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Success).Bold(true).
				Render(fmt.Sprintf("%s %d records stored", label, stats.Stored.Load())))
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).
				Render(fmt.Sprintf("Database: %s", m.sess.DBPath)))
		}
		b.WriteString("\n\n")
		b.WriteString(styles.StatusBar.Render("enter view report • c channel • ctrl+c quit"))
	case m.confirmQuit:
		b.WriteString(styles.ErrorText.Render("Press ESC again to stop the scan"))
		b.WriteString("\n")
		b.WriteString(styles.StatusBar.Render("esc confirm stop • any key continue"))
	default:
		b.WriteString(styles.StatusBar.Render("c channel • esc stop • ctrl+c quit"))
	}

	return b.String()
}

func (m ProgressModel) renderStats() string {
	var sb strings.Builder
	elapsed := time.Since(m.startTime).Truncate(time.Second)

	stats := m.shared.stats
	done := stats.JobsDone.Load()
	total := int64(m.jobsTotal())
	errs := stats.Errors.Load()
	rateLimits := stats.RateLimits.Load()

	statLabel := lipgloss.NewStyle().Foreground(styles.Muted).Width(12)
	statVal := lipgloss.NewStyle().Foreground(styles.Text).Bold(true)

	row := func(label string, value string) {
		sb.WriteString(statLabel.Render(label))
		sb.WriteString(statVal.Render(value))
		sb.WriteString("\n")
	}

	row("Points:", fmt.Sprintf("%d", len(m.sess.Points)))
	row("Searches:", fmt.Sprintf("%d/%d", done, total))
	row("Found:", fmt.Sprintf("%d", stats.Found.Load()))
	row("Stored:", fmt.Sprintf("%d", stats.Stored.Load()))

	errStyle := statVal
	if errs > 0 {
		errStyle = lipgloss.NewStyle().Foreground(styles.Error).Bold(true)
	}
	sb.WriteString(statLabel.Render("Errors:"))
	sb.WriteString(errStyle.Render(fmt.Sprintf("%d", errs)))
	sb.WriteString("\n")

	if rateLimits > 0 {
		rlStyle := lipgloss.NewStyle().Foreground(styles.Warning).Bold(true)
		sb.WriteString(statLabel.Render("Rate Lim:"))
		sb.WriteString(rlStyle.Render(fmt.Sprintf("%d", rateLimits)))
		sb.WriteString("\n")
	}

	row("Elapsed:", elapsed.String())

	if done > 0 && total > 0 && !m.done && elapsed > 0 {
		perSec := float64(done) / elapsed.Seconds()
		remaining := float64(total-done) / perSec
		eta := time.Duration(remaining * float64(time.Second)).Truncate(time.Second)
		row("ETA:", "~"+eta.String())
	}

	return strings.TrimRight(sb.String(), "\n")
}

// jobsTotal is computed from the request since Stats.JobsTotal is written by
// the scan goroutine.
func (m ProgressModel) jobsTotal() int {
	return len(m.sess.Points) * len(m.sess.Params.Keywords)
}

func (s *sharedState) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *sharedState) snapshot() []model.VisibilityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.VisibilityRecord, len(s.records))
	copy(out, s.records)
	return out
}
