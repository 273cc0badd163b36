package components

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/geogrid/internal/model"
	"github.com/rendis/geogrid/internal/tui/styles"
)

// Cell is one grid point to plot with the rank observed there.
type Cell struct {
	Lat  float64
	Lng  float64
	Rank *int
}

// CellsFor picks the rank of channel c from each record. When several
// records share a point (one per keyword), the best rank wins.
func CellsFor(records []model.VisibilityRecord, c model.Channel) []Cell {
	cells := make([]Cell, 0, len(records))
	for _, r := range records {
		cells = append(cells, Cell{Lat: r.Point.Lat, Lng: r.Point.Lng, Rank: r.Rank(c)})
	}
	return cells
}

// Heatmap renders grid cells as a north-up table of ranks. Points come from
// a regular lattice, so distinct latitudes become rows and distinct
// longitudes become columns.
type Heatmap struct {
	lats  []float64
	lngs  []float64
	ranks map[[2]int]*int
	has   map[[2]int]bool
}

const coordKeyScale = 1e7

func coordKey(v float64) float64 {
	return math.Round(v*coordKeyScale) / coordKeyScale
}

func NewHeatmap(cells []Cell) Heatmap {
	latSet := map[float64]bool{}
	lngSet := map[float64]bool{}
	for _, c := range cells {
		latSet[coordKey(c.Lat)] = true
		lngSet[coordKey(c.Lng)] = true
	}

	h := Heatmap{
		lats:  sortedKeys(latSet),
		lngs:  sortedKeys(lngSet),
		ranks: map[[2]int]*int{},
		has:   map[[2]int]bool{},
	}
	// North at the top.
	sort.Sort(sort.Reverse(sort.Float64Slice(h.lats)))

	row := indexOf(h.lats)
	col := indexOf(h.lngs)
	for _, c := range cells {
		k := [2]int{row[coordKey(c.Lat)], col[coordKey(c.Lng)]}
		h.has[k] = true
		if cur := h.ranks[k]; c.Rank != nil && (cur == nil || *c.Rank < *cur) {
			h.ranks[k] = c.Rank
		}
	}
	return h
}

// Size returns the number of rows and columns.
func (h Heatmap) Size() (rows, cols int) {
	return len(h.lats), len(h.lngs)
}

// View renders each cell as a rank number, "-" when the business was not
// found there and blank where the lattice has no point.
func (h Heatmap) View() string {
	if len(h.lats) == 0 {
		return styles.Placeholder.Render("no grid points")
	}

	var sb strings.Builder
	for i := range h.lats {
		for j := range h.lngs {
			k := [2]int{i, j}
			label := ""
			switch {
			case !h.has[k]:
			case h.ranks[k] == nil:
				label = "-"
			default:
				label = strconv.Itoa(*h.ranks[k])
			}
			cell := lipgloss.NewStyle().
				Width(4).
				Align(lipgloss.Center).
				Foreground(styles.RankColor(h.ranks[k]))
			if h.ranks[k] != nil {
				cell = cell.Bold(true)
			}
			sb.WriteString(cell.Render(label))
		}
		if i < len(h.lats)-1 {
			sb.WriteRune('\n')
		}
	}
	return sb.String()
}

// Legend explains the heatmap colors.
func Legend() string {
	one, five, eleven := 1, 5, 11
	item := func(r *int, text string) string {
		return lipgloss.NewStyle().Foreground(styles.RankColor(r)).Render("■ " + text)
	}
	return strings.Join([]string{
		item(&one, "top 3"),
		item(&five, "4-10"),
		item(&eleven, "11+"),
		item(nil, "not found"),
	}, "  ")
}

func sortedKeys(set map[float64]bool) []float64 {
	out := make([]float64, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Float64s(out)
	return out
}

func indexOf(vals []float64) map[float64]int {
	idx := make(map[float64]int, len(vals))
	for i, v := range vals {
		idx[v] = i
	}
	return idx
}
