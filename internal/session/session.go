// Package session prepares a scan for execution: it resolves the center,
// builds and clips the grid, wires the search provider, resolves the target
// place id and opens the per-scan database and log file.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rendis/geogrid/internal/config"
	"github.com/rendis/geogrid/internal/engine/geo"
	"github.com/rendis/geogrid/internal/engine/provider"
	"github.com/rendis/geogrid/internal/engine/rank"
	"github.com/rendis/geogrid/internal/engine/scanner"
	"github.com/rendis/geogrid/internal/engine/storage"
	"github.com/rendis/geogrid/internal/model"
)

// Geocoder resolves a free-text address. *geo.Geocoder implements it.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (lat, lng float64, err error)
}

// Request is everything a user supplies for one scan. Zero Concurrency,
// RatePerSecond, Burst and OutputDir fall back to the configuration.
type Request struct {
	Business string
	Keywords []string
	Domain   string
	PlaceID  string

	// The center is Lat/Lng when HasCenter is set, otherwise Address is
	// geocoded.
	Address   string
	Lat       float64
	Lng       float64
	HasCenter bool

	Shape     model.Shape
	RadiusKm  float64
	SpacingKm float64
	AreaPath  string

	OutputDir     string
	Concurrency   int
	RatePerSecond float64
	Burst         int
}

// Grid is a resolved, clipped lattice.
type Grid struct {
	Config model.ScanConfig
	Points []model.GridPoint
	Notes  []string
}

// BuildGrid resolves the center of req and generates its lattice, clipped to
// the service area when one is given.
func BuildGrid(ctx context.Context, req Request, gc Geocoder) (*Grid, error) {
	g := &Grid{}

	lat, lng := req.Lat, req.Lng
	if !req.HasCenter {
		if req.Address == "" {
			return nil, errors.New("either coordinates or an address is required")
		}
		if gc == nil {
			return nil, errors.New("no geocoder available to resolve the address")
		}
		var err error
		lat, lng, err = gc.Geocode(ctx, req.Address)
		if err != nil {
			return nil, fmt.Errorf("geocoding %q: %w", req.Address, err)
		}
		g.Notes = append(g.Notes, fmt.Sprintf("Geocoded: %s → %.5f, %.5f", req.Address, lat, lng))
	}

	g.Config = model.ScanConfig{
		CenterLat: lat,
		CenterLng: lng,
		RadiusKm:  req.RadiusKm,
		SpacingKm: req.SpacingKm,
		Shape:     req.Shape,
	}
	points, err := geo.GenerateGrid(g.Config)
	if err != nil {
		return nil, err
	}

	if req.AreaPath != "" {
		area, err := geo.LoadArea(req.AreaPath)
		if err != nil {
			return nil, err
		}
		before := len(points)
		points = geo.ClipToArea(points, area)
		g.Notes = append(g.Notes, fmt.Sprintf("Area: %d of %d points inside %s", len(points), before, req.AreaPath))
	}

	g.Points = points
	return g, nil
}

// Session is a scan ready to run. Close releases the store and log file.
type Session struct {
	Scan     model.Scan
	Points   []model.GridPoint
	Params   scanner.Params
	Provider provider.SearchProvider
	Store    *storage.Store
	Logger   *log.Logger
	DBPath   string
	LogPath  string
	Notes    []string

	logFile   *os.File
	closeOnce sync.Once
}

// Open prepares req for scanning. On error nothing is left open.
func Open(ctx context.Context, cfg *config.Config, req Request, gc Geocoder) (*Session, error) {
	if req.Business == "" {
		return nil, errors.New("a business name is required")
	}
	if len(req.Keywords) == 0 {
		return nil, errors.New("at least one keyword is required")
	}
	applyDefaults(&req, cfg)

	google, err := NewGoogle(cfg)
	if err != nil {
		return nil, err
	}

	grid, err := BuildGrid(ctx, req, gc)
	if err != nil {
		return nil, err
	}
	sc := grid.Config
	if len(grid.Points) == 0 {
		return nil, fmt.Errorf("grid is empty: radius %.2fkm is smaller than spacing %.2fkm for a %s grid",
			sc.RadiusKm, sc.SpacingKm, sc.Shape)
	}

	s := &Session{Points: grid.Points, Provider: google, Notes: grid.Notes}

	placeID := req.PlaceID
	if placeID == "" && google.Places != nil {
		placeID, err = google.FindPlaceID(ctx, req.Business, sc.CenterLat, sc.CenterLng)
		switch {
		case err != nil:
			s.Notes = append(s.Notes, fmt.Sprintf("Warning: place id lookup failed: %v", err))
		case placeID == "":
			s.Notes = append(s.Notes, fmt.Sprintf("Warning: no place id found for %q, matching by name", req.Business))
		default:
			s.Notes = append(s.Notes, "Place ID: "+placeID)
		}
	}

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	ts := time.Now().Format("20060102_150405")
	baseName := fmt.Sprintf("geogrid_%s", ts)
	s.DBPath = filepath.Join(req.OutputDir, baseName+".db")
	s.LogPath = filepath.Join(req.OutputDir, baseName+".log")

	s.logFile, err = os.OpenFile(s.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}
	s.Logger = log.New(s.logFile, "", log.LstdFlags)

	s.Store, err = storage.NewStore(s.DBPath)
	if err != nil {
		s.logFile.Close()
		return nil, fmt.Errorf("opening store: %w", err)
	}

	s.Scan = model.Scan{
		ID:        uuid.NewString(),
		Business:  req.Business,
		Address:   req.Address,
		PlaceID:   placeID,
		Domain:    req.Domain,
		Config:    sc,
		Keywords:  req.Keywords,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.CreateScan(s.Scan); err != nil {
		s.Close()
		return nil, err
	}

	s.Params = scanner.Params{
		ScanID:        s.Scan.ID,
		Keywords:      req.Keywords,
		Target:        rank.Target{Name: req.Business, PlaceID: placeID, Domain: req.Domain},
		Concurrency:   req.Concurrency,
		RatePerSecond: req.RatePerSecond,
		Burst:         req.Burst,
	}

	s.Logger.Printf("=== Session start: scan=%s business=%q keywords=%v center=%.5f,%.5f radius=%.2f spacing=%.2f shape=%s points=%d concurrency=%d rate=%.2f ===",
		s.Scan.ID, req.Business, req.Keywords, sc.CenterLat, sc.CenterLng, sc.RadiusKm, sc.SpacingKm, sc.Shape,
		len(s.Points), req.Concurrency, req.RatePerSecond)

	return s, nil
}

// Close is safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.Store != nil {
			err = s.Store.Close()
		}
		if s.logFile != nil {
			s.logFile.Close()
		}
	})
	return err
}

// NewGoogle builds the search provider from the configured API keys. At
// least one key is required.
func NewGoogle(cfg *config.Config) (*provider.Google, error) {
	client := provider.NewClient(time.Duration(cfg.Scan.TimeoutSec) * time.Second)
	g := &provider.Google{}
	if cfg.Serp.APIKey != "" {
		g.Serp = provider.NewSerpClient(client, cfg.Serp.APIKey, cfg.Serp.Lang, cfg.Serp.Country)
	}
	if cfg.Places.APIKey != "" {
		g.Places = provider.NewPlacesClient(client, cfg.Places.APIKey, cfg.Places.RadiusM)
	}
	if g.Serp == nil && g.Places == nil {
		return nil, errors.New("no search provider configured: set GEOGRID_SERP_API_KEY and/or GEOGRID_PLACES_API_KEY")
	}
	return g, nil
}

// SplitKeywords parses a comma-separated keyword list, dropping blanks.
func SplitKeywords(s string) []string {
	var out []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func applyDefaults(req *Request, cfg *config.Config) {
	if req.OutputDir == "" {
		req.OutputDir = cfg.Storage.OutputDir
	}
	if req.Concurrency <= 0 {
		req.Concurrency = cfg.Scan.Concurrency
	}
	if req.RatePerSecond <= 0 {
		req.RatePerSecond = cfg.Scan.RatePerSecond
	}
	if req.Burst <= 0 {
		req.Burst = cfg.Scan.Burst
	}
}
