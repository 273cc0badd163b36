package views

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/geogrid/internal/tui/styles"
)

// RecentEntry is one previously opened scan database.
type RecentEntry struct {
	Path     string
	Business string
	OpenedAt time.Time
}

func (e RecentEntry) missing() bool {
	_, err := os.Stat(e.Path)
	return os.IsNotExist(err)
}

// ForgetRecent asks the app to drop a path from the recent list.
type ForgetRecent struct {
	Path string
}

// RecentModel lists recent databases, newest first.
type RecentModel struct {
	entries []RecentEntry
	cursor  int
	notice  string
}

func NewRecentModel(entries []RecentEntry) RecentModel {
	return RecentModel{entries: entries}
}

func (m RecentModel) Init() tea.Cmd {
	return nil
}

func (m RecentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.notice = ""

	switch key.String() {
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = min(m.cursor+1, max(len(m.entries)-1, 0))
	case "esc", "q":
		return m, func() tea.Msg { return NavigateToHome{} }
	case "enter":
		if m.cursor >= len(m.entries) {
			return m, nil
		}
		e := m.entries[m.cursor]
		if e.missing() {
			m.notice = "File no longer exists, press d to forget it"
			return m, nil
		}
		return m, func() tea.Msg { return NavigateToReport{DBPath: e.Path} }
	case "d":
		if m.cursor >= len(m.entries) {
			return m, nil
		}
		path := m.entries[m.cursor].Path
		m.entries = append(m.entries[:m.cursor:m.cursor], m.entries[m.cursor+1:]...)
		if m.cursor >= len(m.entries) && m.cursor > 0 {
			m.cursor--
		}
		return m, func() tea.Msg { return ForgetRecent{Path: path} }
	}
	return m, nil
}

func (m RecentModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Recent Scans"))
	b.WriteString("\n\n")

	if len(m.entries) == 0 {
		b.WriteString(styles.Placeholder.Render("No recent scans"))
		b.WriteString("\n\n")
		b.WriteString(styles.StatusBar.Render("esc back"))
		return styles.Border.Render(b.String())
	}

	for i, e := range m.entries {
		b.WriteString(renderRecent(e, i == m.cursor))
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Warning).Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.StatusBar.Render("enter open • d forget • esc back"))

	return styles.Border.Render(b.String())
}

func renderRecent(e RecentEntry, selected bool) string {
	cursor, style := "  ", styles.InactiveItem
	if selected {
		cursor, style = "> ", styles.ActiveItem
	}

	title := e.Business
	if title == "" {
		title = filepath.Base(e.Path)
	}
	line := style.Render(title)
	if e.missing() {
		line = lipgloss.NewStyle().Foreground(styles.Error).Strikethrough(true).Render(title)
	}

	detail := lipgloss.NewStyle().Foreground(styles.Muted).
		Render(fmt.Sprintf("  %s  %s", e.Path, timeAgo(e.OpenedAt)))
	return cursor + line + "\n" + detail + "\n"
}

func timeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
