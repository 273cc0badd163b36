package views

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rendis/geogrid/internal/config"
	"github.com/rendis/geogrid/internal/engine/storage"
	"github.com/rendis/geogrid/internal/model"
	"github.com/rendis/geogrid/internal/session"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return cmd()
}

func TestHome_LatestWithoutScans(t *testing.T) {
	m := NewHomeModel("", "dev")
	next, cmd := m.Update(key("l"))
	if cmd != nil {
		t.Fatal("no navigation expected without a latest scan")
	}
	if !strings.Contains(next.View(), "geogrid scan") {
		t.Error("missing hint to run a scan")
	}
}

func TestHome_OpenLatest(t *testing.T) {
	m := NewHomeModel("/tmp/x.db", "dev")
	_, cmd := m.Update(key("l"))
	msg, ok := run(t, cmd).(NavigateToReport)
	if !ok || msg.DBPath != "/tmp/x.db" {
		t.Fatalf("got %#v", msg)
	}
}

func TestHome_NewScan(t *testing.T) {
	m := NewHomeModel("", "dev")
	_, cmd := m.Update(key("enter"))
	if _, ok := run(t, cmd).(NavigateToSearch); !ok {
		t.Fatal("enter on the first item should open the scan form")
	}
	_, cmd = m.Update(key("n"))
	if _, ok := run(t, cmd).(NavigateToSearch); !ok {
		t.Fatal("n should open the scan form")
	}
}

func TestRecent_ForgetAndBack(t *testing.T) {
	m := NewRecentModel([]RecentEntry{
		{Path: "/nope/a.db", OpenedAt: time.Now()},
		{Path: "/nope/b.db", OpenedAt: time.Now()},
	})

	next, cmd := m.Update(key("d"))
	forget, ok := run(t, cmd).(ForgetRecent)
	if !ok || forget.Path != "/nope/a.db" {
		t.Fatalf("got %#v", forget)
	}
	rm := next.(RecentModel)
	if len(rm.entries) != 1 || rm.entries[0].Path != "/nope/b.db" {
		t.Errorf("entries = %+v", rm.entries)
	}

	// Missing files are not opened.
	next, cmd = rm.Update(key("enter"))
	if cmd != nil {
		t.Error("missing file should not navigate")
	}
	if !strings.Contains(next.View(), "no longer exists") {
		t.Error("missing notice")
	}

	_, cmd = next.Update(key("esc"))
	if _, ok := run(t, cmd).(NavigateToHome); !ok {
		t.Error("esc should go home")
	}
}

func formConfig() *config.Config {
	return &config.Config{
		Scan:    config.ScanConfig{Shape: "square", RadiusKm: 2, SpacingKm: 0.5},
		Storage: config.StorageConfig{OutputDir: "./scans"},
	}
}

func TestScanForm_PrefilledFromConfig(t *testing.T) {
	m := NewScanModel(formConfig())
	if m.shape != model.ShapeSquare {
		t.Errorf("shape = %v", m.shape)
	}
	if m.value(fieldRadius) != "2" || m.value(fieldSpacing) != "0.5" || m.value(fieldOutput) != "./scans" {
		t.Errorf("defaults = %q %q %q", m.value(fieldRadius), m.value(fieldSpacing), m.value(fieldOutput))
	}
}

func TestScanForm_FocusFollowsCenterMode(t *testing.T) {
	m := NewScanModel(formConfig())
	step := func(k string) {
		next, _ := m.Update(key(k))
		m = next.(ScanModel)
	}

	for _, want := range []int{fieldKeywords, fieldMode, fieldAddress, fieldShape} {
		step("tab")
		if m.focused != want {
			t.Fatalf("focused = %d, want %d", m.focused, want)
		}
	}

	m = NewScanModel(formConfig())
	step("tab")
	step("tab")
	step("right")
	if m.mode != modeCoords {
		t.Fatal("right on the center toggle should select coordinates")
	}
	for _, want := range []int{fieldLat, fieldLng, fieldShape} {
		step("tab")
		if m.focused != want {
			t.Fatalf("focused = %d, want %d", m.focused, want)
		}
	}
	if strings.Contains(m.View(), "Address:") {
		t.Error("address field shown in coordinates mode")
	}
}

func TestScanForm_Validation(t *testing.T) {
	tests := []struct {
		name string
		fill func(*ScanModel)
		want string
	}{
		{"empty", func(*ScanModel) {}, "Business is required"},
		{"no keywords", func(m *ScanModel) {
			m.inputs[fieldBusiness].SetValue("Joe's Pizza")
			m.inputs[fieldKeywords].SetValue(" , ")
		}, "keyword"},
		{"no address", func(m *ScanModel) {
			m.inputs[fieldBusiness].SetValue("Joe's Pizza")
			m.inputs[fieldKeywords].SetValue("pizza")
		}, "Address is required"},
		{"bad coordinates", func(m *ScanModel) {
			m.inputs[fieldBusiness].SetValue("Joe's Pizza")
			m.inputs[fieldKeywords].SetValue("pizza")
			m.mode = modeCoords
			m.inputs[fieldLat].SetValue("north")
		}, "must be numbers"},
		{"bad spacing", func(m *ScanModel) {
			m.inputs[fieldBusiness].SetValue("Joe's Pizza")
			m.inputs[fieldKeywords].SetValue("pizza")
			m.inputs[fieldAddress].SetValue("Ferry Building")
			m.inputs[fieldSpacing].SetValue("0")
		}, "Spacing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewScanModel(formConfig())
			m.open = func(context.Context, session.Request) (*session.Session, error) {
				t.Fatal("invalid form must not open a session")
				return nil, nil
			}
			tt.fill(&m)
			next, cmd := m.Update(key("enter"))
			if cmd != nil {
				t.Fatal("no command expected for an invalid form")
			}
			if v := next.View(); !strings.Contains(v, tt.want) {
				t.Errorf("view lacks %q:\n%s", tt.want, v)
			}
		})
	}
}

func TestScanForm_SubmitStartsScan(t *testing.T) {
	m := NewScanModel(formConfig())
	m.mode = modeCoords
	m.inputs[fieldBusiness].SetValue("Joe's Pizza")
	m.inputs[fieldKeywords].SetValue("pizza, pizza delivery")
	m.inputs[fieldLat].SetValue("37.7749")
	m.inputs[fieldLng].SetValue("-122.4194")
	m.inputs[fieldDomain].SetValue("joespizza.com")

	var got session.Request
	opened := &session.Session{DBPath: "/tmp/s.db"}
	m.open = func(_ context.Context, req session.Request) (*session.Session, error) {
		got = req
		return opened, nil
	}

	next, cmd := m.Update(key("enter"))
	if !next.(ScanModel).starting {
		t.Error("form should show it is preparing")
	}
	next, cmd = next.Update(run(t, cmd))
	start, ok := run(t, cmd).(StartScanMsg)
	if !ok || start.Session != opened {
		t.Fatalf("got %#v", start)
	}

	if !got.HasCenter || got.Lat != 37.7749 || got.Lng != -122.4194 || got.Address != "" {
		t.Errorf("center = %+v", got)
	}
	if len(got.Keywords) != 2 || got.Shape != model.ShapeSquare || got.RadiusKm != 2 || got.SpacingKm != 0.5 {
		t.Errorf("request = %+v", got)
	}
	if got.Domain != "joespizza.com" || got.OutputDir != "./scans" {
		t.Errorf("request = %+v", got)
	}
	if next.(ScanModel).starting {
		t.Error("starting flag not cleared")
	}
}

func TestScanForm_OpenFailureStaysOnForm(t *testing.T) {
	m := NewScanModel(formConfig())
	m.inputs[fieldBusiness].SetValue("Joe's Pizza")
	m.inputs[fieldKeywords].SetValue("pizza")
	m.inputs[fieldAddress].SetValue("Atlantis")
	m.open = func(context.Context, session.Request) (*session.Session, error) {
		return nil, errors.New("geocoding \"Atlantis\": no results")
	}

	next, cmd := m.Update(key("enter"))
	next, cmd = next.Update(run(t, cmd))
	if cmd != nil {
		t.Error("failed open must not start a scan")
	}
	if v := next.View(); !strings.Contains(v, "no results") {
		t.Errorf("error not shown:\n%s", v)
	}

	_, cmd = next.Update(key("esc"))
	if _, ok := run(t, cmd).(NavigateToHome); !ok {
		t.Error("esc should go home")
	}
}

func seedDB(t *testing.T) (string, model.Scan) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.db")
	store, err := storage.NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	scan := model.Scan{
		ID:        "scan-1",
		Business:  "Café Luna",
		Keywords:  []string{"café", "espresso"},
		Config:    model.ScanConfig{CenterLat: 1, CenterLng: 2, RadiusKm: 1, SpacingKm: 1, Shape: model.ShapeSquare},
		CreatedAt: time.Now().UTC(),
	}
	if err := store.CreateScan(scan); err != nil {
		t.Fatal(err)
	}
	one := 1
	recs := []storage.Indexed{
		{Seq: 0, Record: model.VisibilityRecord{Keyword: "café", Point: model.GridPoint{Lat: 1, Lng: 2}, MapRank: &one, ObservedAt: time.Now().UTC()}},
		{Seq: 1, Record: model.VisibilityRecord{Keyword: "espresso", Point: model.GridPoint{Lat: 1, Lng: 2}, ObservedAt: time.Now().UTC()}},
	}
	if _, err := store.InsertRecords(scan.ID, recs); err != nil {
		t.Fatal(err)
	}
	return path, scan
}

func loadReport(t *testing.T, path string) ReportModel {
	t.Helper()
	m := NewReportModel(path, "")
	next, _ := m.Update(run(t, m.Init()))
	rm := next.(ReportModel)
	if rm.err != nil {
		t.Fatal(rm.err)
	}
	return rm
}

func TestReport_LoadsLatest(t *testing.T) {
	path, scan := seedDB(t)
	m := loadReport(t, path)
	if m.scan.ID != scan.ID || len(m.records) != 2 {
		t.Fatalf("loaded scan=%s records=%d", m.scan.ID, len(m.records))
	}
	if v := m.View(); !strings.Contains(v, "Café Luna") || !strings.Contains(v, "By distance") {
		t.Errorf("summary view incomplete:\n%s", v)
	}
}

func TestReport_FilterFoldsDiacritics(t *testing.T) {
	path, _ := seedDB(t)
	m := loadReport(t, path)

	m.filter.SetValue("CAFE")
	m.applyFilter()
	if len(m.filtered) != 1 || m.filtered[0].Keyword != "café" {
		t.Errorf("filtered = %+v", m.filtered)
	}

	m.filter.SetValue("")
	m.applyFilter()
	if len(m.filtered) != 2 {
		t.Errorf("empty filter kept %d records", len(m.filtered))
	}
}

func TestReport_TabsAndKeywordCycle(t *testing.T) {
	path, _ := seedDB(t)
	m := loadReport(t, path)

	next, _ := m.Update(key("tab"))
	m = next.(ReportModel)
	if m.tab != tabHeatmap {
		t.Fatalf("tab = %v", m.tab)
	}

	for _, want := range []string{"café", "espresso", ""} {
		next, _ = m.Update(key("k"))
		m = next.(ReportModel)
		if got := m.selectedKeyword(); got != want {
			t.Errorf("keyword = %q, want %q", got, want)
		}
	}
}

func TestReport_MissingScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	m := NewReportModel(path, "")
	next, _ := m.Update(run(t, m.Init()))
	if next.(ReportModel).err == nil {
		t.Error("expected error for database without scans")
	}
}

func TestNormalize(t *testing.T) {
	if got := normalize("Crème Brûlée"); got != "creme brulee" {
		t.Errorf("normalize = %q", got)
	}
}
