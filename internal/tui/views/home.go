package views

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/geogrid/internal/tui/styles"
)

type menuItem struct {
	key   string
	label string
	desc  string
}

type HomeModel struct {
	items   []menuItem
	cursor  int
	latest  string
	version string
	notice  string
}

// NewHomeModel builds the main menu. latest is the most recently opened
// database, or "" when there is none.
func NewHomeModel(latest, version string) HomeModel {
	latestDesc := "No scans yet"
	if latest != "" {
		latestDesc = filepath.Base(latest)
	}
	return HomeModel{
		latest:  latest,
		version: version,
		items: []menuItem{
			{key: "n", label: "New Scan", desc: "Scan a business across a map grid"},
			{key: "l", label: "Latest Scan", desc: latestDesc},
			{key: "r", label: "Recent Scans", desc: "Open a previous scan database"},
			{key: "q", label: "Quit", desc: "Exit geogrid"},
		},
	}
}

func (m HomeModel) Init() tea.Cmd {
	return nil
}

func (m HomeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.notice = ""
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter":
			return m.handleSelect()
		case "n":
			m.cursor = 0
			return m.handleSelect()
		case "l":
			m.cursor = 1
			return m.handleSelect()
		case "r":
			m.cursor = 2
			return m.handleSelect()
		case "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m HomeModel) handleSelect() (tea.Model, tea.Cmd) {
	switch m.cursor {
	case 0:
		return m, func() tea.Msg { return NavigateToSearch{} }
	case 1:
		if m.latest == "" {
			m.notice = "Press n or run `geogrid scan` to create your first scan"
			return m, nil
		}
		path := m.latest
		return m, func() tea.Msg { return NavigateToReport{DBPath: path} }
	case 2:
		return m, func() tea.Msg { return NavigateToRecent{} }
	case 3:
		return m, tea.Quit
	}
	return m, nil
}

func (m HomeModel) View() string {
	var b strings.Builder

	logo := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Render("  geogrid")

	version := lipgloss.NewStyle().
		Foreground(styles.Muted).
		Render(" " + m.version)

	tagline := lipgloss.NewStyle().
		Foreground(styles.Secondary).
		Italic(true).
		Render("  Local search visibility on a map grid")

	b.WriteString(logo + version + "\n")
	b.WriteString(tagline + "\n\n")

	for i, item := range m.items {
		cursor := "  "
		style := styles.InactiveItem
		if i == m.cursor {
			cursor = "> "
			style = styles.ActiveItem
		}

		key := lipgloss.NewStyle().
			Foreground(styles.Secondary).
			Bold(true).
			Render(fmt.Sprintf("[%s]", item.key))

		desc := lipgloss.NewStyle().
			Foreground(styles.Muted).
			Render(" - " + item.desc)

		b.WriteString(fmt.Sprintf("%s%s %s%s\n", cursor, key, style.Render(item.label), desc))
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Warning).Render(m.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.StatusBar.Render("↑↓ navigate • enter select • q quit"))

	return styles.Border.Render(b.String())
}
