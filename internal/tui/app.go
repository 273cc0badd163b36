package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/geogrid/internal/config"
	"github.com/rendis/geogrid/internal/session"
	"github.com/rendis/geogrid/internal/tui/views"
)

type viewID int

const (
	viewHome viewID = iota
	viewSearch
	viewProgress
	viewReport
	viewRecent
)

// App is the root bubbletea model.
type App struct {
	currentView viewID
	version     string
	cfg         *config.Config
	width       int
	height      int
	active      *session.Session // scan started from this program, closed on exit
	home        views.HomeModel
	search      views.ScanModel
	progress    views.ProgressModel
	report      views.ReportModel
	recent      views.RecentModel
}

func NewApp(version string, cfg *config.Config) App {
	return App{
		currentView: viewHome,
		version:     version,
		cfg:         cfg,
		home:        views.NewHomeModel(latestPath(), version),
	}
}

// newScanApp starts directly in the progress view.
func newScanApp(version string, cfg *config.Config, msg views.StartScanMsg) App {
	a := NewApp(version, cfg)
	a.currentView = viewProgress
	a.active = msg.Session
	a.progress = views.NewProgressModel(msg)
	return a
}

func (a App) Init() tea.Cmd {
	switch a.currentView {
	case viewProgress:
		return a.progress.Init()
	}
	return a.home.Init()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && a.currentView != viewProgress {
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	case views.NavigateToHome:
		a.currentView = viewHome
		a.home = views.NewHomeModel(latestPath(), a.version)
		return a, nil
	case views.NavigateToSearch:
		a.currentView = viewSearch
		a.search = views.NewScanModel(a.cfg)
		return a, a.search.Init()
	case views.StartScanMsg:
		if a.active != nil && a.active != msg.Session {
			a.active.Close()
		}
		a.active = msg.Session
		a.currentView = viewProgress
		a.progress = views.NewProgressModel(msg)
		SaveRecent(msg.Session.DBPath, msg.Session.Scan.Business)
		return a, tea.Batch(a.progress.Init(), a.sizeCmd())
	case views.NavigateToReport:
		a.currentView = viewReport
		a.report = views.NewReportModel(msg.DBPath, msg.ScanID)
		SaveRecent(msg.DBPath, "")
		return a, tea.Batch(a.report.Init(), a.sizeCmd())
	case views.NavigateToRecent:
		a.currentView = viewRecent
		a.recent = views.NewRecentModel(recentEntries())
		return a, a.recent.Init()
	case views.ForgetRecent:
		ForgetRecent(msg.Path)
		return a, nil
	}

	var cmd tea.Cmd
	var m tea.Model
	switch a.currentView {
	case viewHome:
		m, cmd = a.home.Update(msg)
		a.home = m.(views.HomeModel)
	case viewSearch:
		m, cmd = a.search.Update(msg)
		a.search = m.(views.ScanModel)
	case viewProgress:
		m, cmd = a.progress.Update(msg)
		a.progress = m.(views.ProgressModel)
	case viewReport:
		m, cmd = a.report.Update(msg)
		a.report = m.(views.ReportModel)
	case viewRecent:
		m, cmd = a.recent.Update(msg)
		a.recent = m.(views.RecentModel)
	}

	return a, cmd
}

func (a App) View() string {
	var content string
	switch a.currentView {
	case viewHome:
		content = a.home.View()
	case viewSearch:
		content = a.search.View()
	case viewProgress:
		content = a.progress.View()
	case viewReport:
		content = a.report.View()
	case viewRecent:
		content = a.recent.View()
	}

	return lipgloss.Place(
		a.width, a.height,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// sizeCmd sends a WindowSizeMsg so newly created views get the current terminal size.
func (a App) sizeCmd() tea.Cmd {
	w, h := a.width, a.height
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: w, Height: h}
	}
}

func recentEntries() []views.RecentEntry {
	var out []views.RecentEntry
	for _, e := range LoadRecent() {
		out = append(out, views.RecentEntry{Path: e.Path, Business: e.Business, OpenedAt: e.OpenedAt})
	}
	return out
}

func latestPath() string {
	if entries := LoadRecent(); len(entries) > 0 {
		return entries[0].Path
	}
	return ""
}

// Run starts the TUI on the home menu. cfg supplies the new scan form
// defaults and API keys.
func Run(version string, cfg *config.Config) error {
	return run(NewApp(version, cfg))
}

// RunScan starts the TUI on a live scan; once it finishes the report opens.
func RunScan(version string, cfg *config.Config, msg views.StartScanMsg) error {
	return run(newScanApp(version, cfg, msg))
}

func run(app App) error {
	p := tea.NewProgram(app, tea.WithAltScreen())
	final, err := p.Run()
	if a, ok := final.(App); ok && a.active != nil {
		a.active.Close()
	}
	return err
}
