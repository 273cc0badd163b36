package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/geogrid/internal/engine/summary"
	"github.com/rendis/geogrid/internal/model"
	"github.com/rendis/geogrid/internal/tui/styles"
)

// SummaryTable renders one row per group with presence, top-3 share and
// average rank for every channel.
func SummaryTable(title string, groups []summary.Group) string {
	head := lipgloss.NewStyle().Foreground(styles.Muted).Bold(true)
	key := lipgloss.NewStyle().Foreground(styles.Text).Width(18)
	num := lipgloss.NewStyle().Foreground(styles.Text).Width(8).Align(lipgloss.Right)

	var sb strings.Builder
	sb.WriteString(styles.Subtitle.Render(title))
	sb.WriteString("\n")

	sb.WriteString(head.Width(18).Render(""))
	sb.WriteString(head.Width(8).Align(lipgloss.Right).Render("checks"))
	for _, c := range model.Channels() {
		sb.WriteString(head.Width(26).Align(lipgloss.Center).Render(c.Label()))
	}
	sb.WriteString("\n")

	sb.WriteString(head.Width(26).Render(""))
	for range model.Channels() {
		for _, h := range []string{"found", "top3", "avg"} {
			sb.WriteString(head.Width(8).Align(lipgloss.Right).Render(h))
		}
		sb.WriteString("  ")
	}
	sb.WriteString("\n")

	for _, g := range groups {
		sb.WriteString(key.Render(truncate(g.Key, 17)))
		sb.WriteString(num.Render(fmt.Sprintf("%d", g.Total)))
		for _, c := range model.Channels() {
			cs := g.Channel(c)
			sb.WriteString(num.Render(FormatPct(cs.PresencePct)))
			sb.WriteString(num.Render(FormatPct(cs.Top3Pct)))
			sb.WriteString(num.Foreground(avgColor(cs.AvgRank)).Render(FormatAvg(cs.AvgRank)))
			sb.WriteString("  ")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// FormatPct prints a percentage with one decimal.
func FormatPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// FormatAvg prints an average rank, or "n/a" when there is none.
func FormatAvg(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}

func avgColor(v *float64) lipgloss.Color {
	if v == nil {
		return styles.Muted
	}
	r := int(*v + 0.5)
	return styles.RankColor(&r)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
