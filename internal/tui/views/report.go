package views

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rendis/geogrid/internal/engine/storage"
	"github.com/rendis/geogrid/internal/engine/summary"
	"github.com/rendis/geogrid/internal/model"
	"github.com/rendis/geogrid/internal/tui/components"
	"github.com/rendis/geogrid/internal/tui/styles"
)

type reportTab int

const (
	tabSummary reportTab = iota
	tabHeatmap
	tabRecords
	tabCount
)

func (t reportTab) String() string {
	switch t {
	case tabSummary:
		return "Summary"
	case tabHeatmap:
		return "Heatmap"
	case tabRecords:
		return "Records"
	}
	return ""
}

// ReportModel shows the statistics, heatmap and raw records of one scan.
type ReportModel struct {
	dbPath   string
	scanID   string
	scan     model.Scan
	records  []model.VisibilityRecord
	filtered []model.VisibilityRecord
	loaded   bool
	err      error

	tab       reportTab
	channel   model.Channel
	keyword   int // 0 = all keywords, otherwise index+1 into scan.Keywords
	filtering bool
	filter    textinput.Model
	table     table.Model
	width     int
	height    int
}

type reportLoadedMsg struct {
	Scan    model.Scan
	Records []model.VisibilityRecord
	Err     error
}

func NewReportModel(dbPath, scanID string) ReportModel {
	filter := textinput.New()
	filter.Placeholder = "Filter keyword..."
	filter.CharLimit = 50

	return ReportModel{
		dbPath:  dbPath,
		scanID:  scanID,
		channel: model.ChannelMaps,
		filter:  filter,
	}
}

func (m ReportModel) Init() tea.Cmd {
	path, id := m.dbPath, m.scanID
	return func() tea.Msg {
		scan, records, err := loadScan(path, id)
		return reportLoadedMsg{Scan: scan, Records: records, Err: err}
	}
}

func loadScan(dbPath, scanID string) (model.Scan, []model.VisibilityRecord, error) {
	store, err := storage.NewStore(dbPath)
	if err != nil {
		return model.Scan{}, nil, err
	}
	defer store.Close()

	var scan model.Scan
	if scanID == "" {
		scan, err = store.LatestScan()
	} else {
		scan, err = store.GetScan(scanID)
	}
	if err != nil {
		return model.Scan{}, nil, err
	}

	records, err := store.LoadRecords(scan.ID)
	if err != nil {
		return model.Scan{}, nil, err
	}
	return scan, records, nil
}

func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.buildTable()
	case reportLoadedMsg:
		m.loaded = true
		m.err = msg.Err
		m.scan = msg.Scan
		m.records = msg.Records
		m.applyFilter()
		return m, nil
	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}

		if m.filtering {
			switch key {
			case "esc", "enter":
				m.filtering = false
				m.filter.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.applyFilter()
			return m, cmd
		}

		switch key {
		case "esc", "q":
			return m, func() tea.Msg { return NavigateToHome{} }
		case "tab":
			m.tab = (m.tab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.tab = (m.tab + tabCount - 1) % tabCount
			return m, nil
		case "c":
			m.channel = model.Channel((int(m.channel) + 1) % len(model.Channels()))
			return m, nil
		case "k":
			if m.tab == tabHeatmap {
				m.keyword = (m.keyword + 1) % (len(m.scan.Keywords) + 1)
				return m, nil
			}
		case "/":
			if m.tab == tabRecords {
				m.filtering = true
				m.filter.Focus()
				return m, textinput.Blink
			}
		}

		if m.tab == tabRecords {
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// normalize removes accents/diacritics and lowercases text for fuzzy matching.
func normalize(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)
	result, _, _ := transform.String(t, strings.ToLower(s))
	return result
}

func (m *ReportModel) applyFilter() {
	q := normalize(strings.TrimSpace(m.filter.Value()))
	if q == "" {
		m.filtered = m.records
	} else {
		m.filtered = m.filtered[:0:0]
		for _, r := range m.records {
			if strings.Contains(normalize(r.Keyword), q) {
				m.filtered = append(m.filtered, r)
			}
		}
	}
	m.buildTable()
}

func (m *ReportModel) buildTable() {
	columns := []table.Column{
		{Title: "Keyword", Width: 20},
		{Title: "Lat", Width: 10},
		{Title: "Lng", Width: 11},
		{Title: "Dist", Width: 7},
		{Title: "Organic", Width: 8},
		{Title: "Pack", Width: 6},
		{Title: "Maps", Width: 6},
	}

	rows := make([]table.Row, len(m.filtered))
	for i, r := range m.filtered {
		rows[i] = table.Row{
			truncate(r.Keyword, 20),
			fmt.Sprintf("%.5f", r.Point.Lat),
			fmt.Sprintf("%.5f", r.Point.Lng),
			fmt.Sprintf("%.2f", r.Point.DistanceKm),
			rankCell(r.OrganicRank),
			rankCell(r.LocalPackRank),
			rankCell(r.MapRank),
		}
	}

	h := m.height - 14
	if h < 5 {
		h = 5
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(h),
	)
	t.SetStyles(tableStyles())
	m.table = t
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Muted).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Secondary)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(styles.Primary).
		Bold(true)
	return s
}

func rankCell(r *int) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *r)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// selectedKeyword is "" when all keywords are shown.
func (m ReportModel) selectedKeyword() string {
	if m.keyword == 0 || m.keyword > len(m.scan.Keywords) {
		return ""
	}
	return m.scan.Keywords[m.keyword-1]
}

func (m ReportModel) View() string {
	var b strings.Builder

	if !m.loaded {
		return styles.Border.Render("Loading " + m.dbPath + "...")
	}
	if m.err != nil {
		b.WriteString(styles.ErrorText.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(styles.StatusBar.Render("esc back"))
		return styles.Border.Render(b.String())
	}

	b.WriteString(styles.Title.Render(m.scan.Business))
	b.WriteString("\n")
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	switch m.tab {
	case tabSummary:
		b.WriteString(m.renderSummary())
	case tabHeatmap:
		b.WriteString(m.renderHeatmap())
	case tabRecords:
		if m.filtering || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n")
		}
		b.WriteString(m.table.View())
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(styles.Muted).
			Render(fmt.Sprintf("%d of %d records", len(m.filtered), len(m.records))))
	}

	b.WriteString("\n")
	b.WriteString(styles.StatusBar.Render(m.help()))
	return b.String()
}

func (m ReportModel) renderHeader() string {
	cfg := m.scan.Config
	row := func(label, value string) string {
		return styles.Label.Render(label) + styles.Value.Render(value)
	}
	lines := []string{
		row("Scan", m.scan.ID),
		row("Created", m.scan.CreatedAt.Local().Format("2006-01-02 15:04")),
		row("Center", fmt.Sprintf("%.5f, %.5f", cfg.CenterLat, cfg.CenterLng)),
		row("Grid", fmt.Sprintf("%s  r=%.2fkm  s=%.2fkm", cfg.Shape, cfg.RadiusKm, cfg.SpacingKm)),
		row("Keywords", strings.Join(m.scan.Keywords, ", ")),
	}
	return strings.Join(lines, "\n")
}

func (m ReportModel) renderTabs() string {
	var parts []string
	for t := reportTab(0); t < tabCount; t++ {
		style := styles.InactiveItem
		if t == m.tab {
			style = styles.ActiveItem.Underline(true)
		}
		parts = append(parts, style.Render(t.String()))
	}
	return strings.Join(parts, "   ")
}

func (m ReportModel) renderSummary() string {
	overall := []summary.Group{{Key: "all", Summary: summary.Summarize(m.records)}}
	return strings.Join([]string{
		components.SummaryTable("Overall", overall),
		components.SummaryTable("By keyword", summary.ByKeyword(m.records)),
		components.SummaryTable("By distance", summary.ByDistance(m.records)),
	}, "\n\n")
}

func (m ReportModel) renderHeatmap() string {
	records := m.records
	kw := m.selectedKeyword()
	if kw != "" {
		records = nil
		for _, r := range m.records {
			if r.Keyword == kw {
				records = append(records, r)
			}
		}
	}
	if kw == "" {
		kw = "all keywords (best rank)"
	}

	title := styles.Subtitle.Render(fmt.Sprintf("%s · %s", m.channel.Label(), kw))
	heat := components.NewHeatmap(components.CellsFor(records, m.channel))
	box := styles.Panel.Render(heat.View())
	return title + "\n" + box + "\n" + components.Legend()
}

func (m ReportModel) help() string {
	switch m.tab {
	case tabHeatmap:
		return "tab switch view • c channel • k keyword • esc back"
	case tabRecords:
		if m.filtering {
			return "enter/esc done filtering"
		}
		return "↑↓ scroll • / filter • tab switch view • esc back"
	}
	return "tab switch view • esc back"
}
