package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rendis/geogrid/internal/config"
	"github.com/rendis/geogrid/internal/engine/geo"
	"github.com/rendis/geogrid/internal/model"
	"github.com/rendis/geogrid/internal/session"
)

// gridFlags are shared by scan and grid.
type gridFlags struct {
	lat, lng   float64
	radius     float64
	spacing    float64
	shape      string
	area       string
	address    string
	configPath string
}

func (g *gridFlags) register(fs *flag.FlagSet) {
	fs.Float64Var(&g.lat, "lat", 0, "Center latitude")
	fs.Float64Var(&g.lng, "lng", 0, "Center longitude")
	fs.Float64Var(&g.radius, "radius", 0, "Grid radius in km (default from config: 3)")
	fs.Float64Var(&g.spacing, "spacing", 0, "Distance between grid points in km (default from config: 1)")
	fs.StringVar(&g.shape, "shape", "", "Grid shape: circle or square (default from config: circle)")
	fs.StringVar(&g.area, "area", "", "GeoJSON polygon file; points outside are dropped")
	fs.StringVar(&g.address, "address", "", "Address to geocode when -lat/-lng are not given")
	fs.StringVar(&g.configPath, "config", "", "Config file (default: ./geogrid.yaml or ~/.config/geogrid/geogrid.yaml)")
}

// request merges the parsed flags with config defaults. The center is taken
// from -lat/-lng when both are set, otherwise -address is geocoded later.
func (g *gridFlags) request(fs *flag.FlagSet, cfg *config.Config) (session.Request, error) {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["radius"] {
		g.radius = cfg.Scan.RadiusKm
	}
	if !set["spacing"] {
		g.spacing = cfg.Scan.SpacingKm
	}
	if !set["shape"] {
		g.shape = cfg.Scan.Shape
	}

	shape, err := model.ParseShape(g.shape)
	if err != nil {
		return session.Request{}, err
	}
	if set["lat"] != set["lng"] {
		return session.Request{}, fmt.Errorf("-lat and -lng must be given together")
	}
	hasCenter := set["lat"] && set["lng"]
	if !hasCenter && g.address == "" {
		return session.Request{}, fmt.Errorf("either -lat/-lng or -address is required")
	}

	return session.Request{
		Address:   g.address,
		Lat:       g.lat,
		Lng:       g.lng,
		HasCenter: hasCenter,
		Shape:     shape,
		RadiusKm:  g.radius,
		SpacingKm: g.spacing,
		AreaPath:  g.area,
	}, nil
}

func runGrid(args []string) error {
	var g gridFlags
	fs := flag.NewFlagSet("grid", flag.ExitOnError)
	g.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: geogrid grid [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  geogrid grid -lat 37.7749 -lng -122.4194 -radius 1 -spacing 0.5 > grid.geojson\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(g.configPath)
	if err != nil {
		return err
	}

	req, err := g.request(fs, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), geocodeTimeout)
	defer cancel()
	grid, err := session.BuildGrid(ctx, req, geo.NewGeocoder())
	if err != nil {
		return err
	}
	printNotes(grid.Notes)
	points := grid.Points
	fmt.Fprintf(os.Stderr, "Grid: %s points\n", colorInfo(len(points)))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(geo.PointsFeatureCollection(points))
}
