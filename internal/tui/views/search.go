package views

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rendis/geogrid/internal/config"
	"github.com/rendis/geogrid/internal/engine/geo"
	"github.com/rendis/geogrid/internal/model"
	"github.com/rendis/geogrid/internal/session"
	"github.com/rendis/geogrid/internal/tui/styles"
)

type centerMode int

const (
	modeAddress centerMode = iota
	modeCoords
)

// Field indices. fieldMode and fieldShape are toggles, not textinputs.
const (
	fieldBusiness = iota
	fieldKeywords
	fieldMode
	fieldAddress
	fieldLat
	fieldLng
	fieldShape
	fieldRadius
	fieldSpacing
	fieldDomain
	fieldPlaceID
	fieldOutput
	fieldCount
)

const openTimeout = 30 * time.Second

// opener prepares a session from a form request.
type opener func(ctx context.Context, req session.Request) (*session.Session, error)

// ScanModel is the new scan form.
type ScanModel struct {
	inputs   []textinput.Model
	mode     centerMode
	shape    model.Shape
	focused  int
	err      string
	starting bool
	open     opener
}

type sessionOpenedMsg struct {
	sess *session.Session
	err  error
}

// NewScanModel builds the form with grid defaults taken from cfg.
func NewScanModel(cfg *config.Config) ScanModel {
	inputs := make([]textinput.Model, fieldCount)

	inputs[fieldMode] = textinput.New() // placeholder, never used
	inputs[fieldBusiness] = newInput("Joe's Pizza", "", 40)
	inputs[fieldKeywords] = newInput("pizza, pizza delivery", "", 60)
	inputs[fieldAddress] = newInput("66 Mint St, San Francisco", "", 60)
	inputs[fieldLat] = newInput("37.7749", "", 15)
	inputs[fieldLng] = newInput("-122.4194", "", 15)
	inputs[fieldShape] = textinput.New() // placeholder, never used
	inputs[fieldRadius] = newInput("3", formatFloat(cfg.Scan.RadiusKm), 10)
	inputs[fieldSpacing] = newInput("1", formatFloat(cfg.Scan.SpacingKm), 10)
	inputs[fieldDomain] = newInput("optional: joespizza.com", "", 40)
	inputs[fieldPlaceID] = newInput("optional: looked up via Places", "", 40)
	inputs[fieldOutput] = newInput("./scans", cfg.Storage.OutputDir, 50)

	shape, err := model.ParseShape(cfg.Scan.Shape)
	if err != nil {
		shape = model.ShapeCircle
	}

	m := ScanModel{
		inputs:  inputs,
		mode:    modeAddress,
		shape:   shape,
		focused: fieldBusiness,
		open: func(ctx context.Context, req session.Request) (*session.Session, error) {
			return session.Open(ctx, cfg, req, geo.NewGeocoder())
		},
	}
	m.inputs[fieldBusiness].Focus()
	return m
}

func newInput(placeholder, value string, width int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 100
	if width > 0 {
		ti.Width = width
	}
	if value != "" {
		ti.SetValue(value)
	}
	return ti
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (m ScanModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m ScanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionOpenedMsg:
		m.starting = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		sess := msg.sess
		return m, func() tea.Msg { return StartScanMsg{Session: sess} }

	case tea.KeyMsg:
		if m.starting {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return NavigateToHome{} }

		case "down", "tab":
			m.err = ""
			cmd := m.focusNext()
			return m, cmd

		case "up", "shift+tab":
			m.err = ""
			cmd := m.focusPrev()
			return m, cmd

		case "enter":
			cmd := m.submit()
			return m, cmd

		case "left", "right":
			switch m.focused {
			case fieldMode:
				if msg.String() == "left" {
					m.mode = modeAddress
				} else {
					m.mode = modeCoords
				}
				return m, nil
			case fieldShape:
				if msg.String() == "left" {
					m.shape = model.ShapeCircle
				} else {
					m.shape = model.ShapeSquare
				}
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if !isToggle(m.focused) {
		m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	}
	return m, cmd
}

func isToggle(idx int) bool {
	return idx == fieldMode || idx == fieldShape
}

func (m *ScanModel) focusNext() tea.Cmd {
	return m.moveFocus(1)
}

func (m *ScanModel) focusPrev() tea.Cmd {
	return m.moveFocus(-1)
}

func (m *ScanModel) moveFocus(dir int) tea.Cmd {
	if !isToggle(m.focused) {
		m.inputs[m.focused].Blur()
	}
	idx := m.focused
	for {
		idx = (idx + dir + fieldCount) % fieldCount
		if !m.hidden(idx) {
			break
		}
	}
	m.focused = idx
	if isToggle(idx) {
		return nil
	}
	m.inputs[idx].Focus()
	return textinput.Blink
}

// hidden reports fields that do not apply to the current center mode.
func (m *ScanModel) hidden(idx int) bool {
	if m.mode == modeAddress {
		return idx == fieldLat || idx == fieldLng
	}
	return idx == fieldAddress
}

func (m *ScanModel) value(idx int) string {
	return strings.TrimSpace(m.inputs[idx].Value())
}

// request validates the form. A non-empty message means it is not ready.
func (m *ScanModel) request() (session.Request, string) {
	req := session.Request{
		Business:  m.value(fieldBusiness),
		Keywords:  session.SplitKeywords(m.value(fieldKeywords)),
		Domain:    m.value(fieldDomain),
		PlaceID:   m.value(fieldPlaceID),
		Shape:     m.shape,
		OutputDir: m.value(fieldOutput),
	}
	if req.Business == "" {
		return req, "Business is required"
	}
	if len(req.Keywords) == 0 {
		return req, "At least one keyword is required"
	}

	if m.mode == modeAddress {
		req.Address = m.value(fieldAddress)
		if req.Address == "" {
			return req, "Address is required"
		}
	} else {
		lat, errLat := strconv.ParseFloat(m.value(fieldLat), 64)
		lng, errLng := strconv.ParseFloat(m.value(fieldLng), 64)
		if errLat != nil || errLng != nil {
			return req, "Latitude and longitude must be numbers"
		}
		req.Lat, req.Lng, req.HasCenter = lat, lng, true
	}

	var err error
	if req.RadiusKm, err = strconv.ParseFloat(m.value(fieldRadius), 64); err != nil || req.RadiusKm <= 0 {
		return req, "Radius must be a positive number of km"
	}
	if req.SpacingKm, err = strconv.ParseFloat(m.value(fieldSpacing), 64); err != nil || req.SpacingKm <= 0 {
		return req, "Spacing must be a positive number of km"
	}
	if req.OutputDir == "" {
		return req, "Output directory is required"
	}
	return req, ""
}

func (m *ScanModel) submit() tea.Cmd {
	req, problem := m.request()
	if problem != "" {
		m.err = problem
		return nil
	}
	m.err = ""
	m.starting = true

	open := m.open
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), openTimeout)
		defer cancel()
		sess, err := open(ctx, req)
		return sessionOpenedMsg{sess: sess, err: err}
	}
}

func (m ScanModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("New Scan") + "\n\n")

	b.WriteString(m.renderField("Business:", fieldBusiness))
	b.WriteString(m.renderField("Keywords:", fieldKeywords))
	b.WriteString("\n")

	b.WriteString(m.renderToggle("Center:", fieldMode, m.mode == modeAddress, "Address", "Coordinates"))
	if m.mode == modeAddress {
		b.WriteString(m.renderField("Address:", fieldAddress))
	} else {
		b.WriteString(m.renderField("Latitude:", fieldLat))
		b.WriteString(m.renderField("Longitude:", fieldLng))
	}
	b.WriteString("\n")

	b.WriteString(m.renderToggle("Shape:", fieldShape, m.shape == model.ShapeCircle, "Circle", "Square"))
	b.WriteString(m.renderField("Radius (km):", fieldRadius))
	b.WriteString(m.renderField("Spacing (km):", fieldSpacing))
	b.WriteString("\n")

	b.WriteString(m.renderField("Domain:", fieldDomain))
	b.WriteString(m.renderField("Place ID:", fieldPlaceID))
	b.WriteString(m.renderField("Output:", fieldOutput))

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorText.Render("  " + m.err))
	}
	if m.starting {
		b.WriteString("\n")
		b.WriteString(styles.Placeholder.Render("  Preparing scan..."))
	}

	b.WriteString("\n\n")
	b.WriteString(styles.StatusBar.Render("enter start • tab next • ←→ toggle • esc back"))

	return styles.Border.Render(b.String())
}

func (m ScanModel) renderToggle(label string, idx int, first bool, a, c string) string {
	active := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	inactive := lipgloss.NewStyle().Foreground(styles.Muted)

	var left, right string
	if first {
		left, right = active.Render("< "+a+" >"), inactive.Render(c)
	} else {
		left, right = inactive.Render(a), active.Render("< "+c+" >")
	}
	line := fmt.Sprintf("%s %s   %s", styles.Label.Render(label), left, right)
	if m.focused == idx {
		line += lipgloss.NewStyle().Foreground(styles.Secondary).Render(" ←→")
	}
	return line + "\n"
}

func (m ScanModel) renderField(label string, idx int) string {
	l := styles.Label.Render(label)
	v := m.inputs[idx].View()
	return fmt.Sprintf("%s %s\n", l, v)
}
