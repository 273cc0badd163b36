package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/rendis/geogrid/internal/model"
)

const tol = 1e-6

func sfCircle() model.ScanConfig {
	return model.ScanConfig{
		CenterLat: 37.7749,
		CenterLng: -122.4194,
		RadiusKm:  1.0,
		SpacingKm: 0.5,
		Shape:     model.ShapeCircle,
	}
}

func TestGenerateGrid_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*model.ScanConfig)
	}{
		{"zero radius", func(c *model.ScanConfig) { c.RadiusKm = 0 }},
		{"negative radius", func(c *model.ScanConfig) { c.RadiusKm = -1 }},
		{"zero spacing", func(c *model.ScanConfig) { c.SpacingKm = 0 }},
		{"negative spacing", func(c *model.ScanConfig) { c.SpacingKm = -0.5 }},
		{"north pole", func(c *model.ScanConfig) { c.CenterLat = 90 }},
		{"south pole", func(c *model.ScanConfig) { c.CenterLat = -90 }},
		{"nan radius", func(c *model.ScanConfig) { c.RadiusKm = math.NaN() }},
		{"inf spacing", func(c *model.ScanConfig) { c.SpacingKm = math.Inf(1) }},
		{"unknown shape", func(c *model.ScanConfig) { c.Shape = model.Shape(7) }},
		{"lattice too large", func(c *model.ScanConfig) { c.SpacingKm = 1e-7 }},
		{"lattice too large square", func(c *model.ScanConfig) { c.SpacingKm = 1e-300; c.Shape = model.ShapeSquare }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := sfCircle()
			tt.mod(&cfg)
			pts, err := GenerateGrid(cfg)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
			}
			if pts != nil {
				t.Errorf("expected no partial output, got %d points", len(pts))
			}
		})
	}
}

func TestGenerateGrid_CircleScenario(t *testing.T) {
	cfg := sfCircle()
	pts, err := GenerateGrid(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 5x5 lattice; the axis ends sit just beyond 1 km and the 3x3 core survives.
	if len(pts) != 9 {
		t.Fatalf("got %d points, want 9", len(pts))
	}

	foundCenter := false
	for _, p := range pts {
		if p.DistanceKm > cfg.RadiusKm+tol {
			t.Errorf("point %+v beyond radius", p)
		}
		if p.DistanceKm < tol {
			foundCenter = true
		}
	}
	if !foundCenter {
		t.Error("center point not included")
	}

	// Symmetry: every point has its mirror through the center.
	for _, p := range pts {
		mLat := 2*cfg.CenterLat - p.Lat
		mLng := 2*cfg.CenterLng - p.Lng
		ok := false
		for _, q := range pts {
			if math.Abs(q.Lat-mLat) < 1e-9 && math.Abs(q.Lng-mLng) < 1e-9 {
				ok = true
				break
			}
		}
		if !ok {
			t.Errorf("no mirror for point %+v", p)
		}
	}
}

func TestGenerateGrid_SquareKeepsLattice(t *testing.T) {
	cfg := sfCircle()
	cfg.Shape = model.ShapeSquare
	pts, err := GenerateGrid(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pts) != 25 {
		t.Fatalf("got %d points, want 25", len(pts))
	}

	latExt := cfg.RadiusKm / kmPerDegree
	lngExt := cfg.RadiusKm / (kmPerDegree * math.Cos(cfg.CenterLat*math.Pi/180))
	first, last := pts[0], pts[len(pts)-1]
	if math.Abs(first.Lat-(cfg.CenterLat-latExt)) > 1e-12 || math.Abs(first.Lng-(cfg.CenterLng-lngExt)) > 1e-12 {
		t.Errorf("first point = %+v, want south-west corner", first)
	}
	if math.Abs(last.Lat-(cfg.CenterLat+latExt)) > 1e-12 || math.Abs(last.Lng-(cfg.CenterLng+lngExt)) > 1e-12 {
		t.Errorf("last point = %+v, want north-east corner", last)
	}

	// Row-major: latitude never decreases, longitude increases within a row.
	for i := 1; i < len(pts); i++ {
		if pts[i].Lat < pts[i-1].Lat {
			t.Fatalf("latitude decreased at index %d", i)
		}
		if i%5 != 0 && pts[i].Lng <= pts[i-1].Lng {
			t.Fatalf("longitude not increasing within row at index %d", i)
		}
	}
}

func TestGenerateGrid_SingleStepCollapsesToCorner(t *testing.T) {
	cfg := sfCircle()
	cfg.SpacingKm = 5 // wider than the diameter
	cfg.Shape = model.ShapeSquare

	pts, err := GenerateGrid(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pts) != 1 {
		t.Fatalf("got %d points, want 1", len(pts))
	}
	wantLat := cfg.CenterLat - cfg.RadiusKm/kmPerDegree
	if math.Abs(pts[0].Lat-wantLat) > 1e-12 {
		t.Errorf("lat = %v, want %v (center - extent)", pts[0].Lat, wantLat)
	}

	cfg.Shape = model.ShapeCircle
	pts, err = GenerateGrid(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pts) != 0 {
		t.Errorf("circle should drop the corner point, got %d", len(pts))
	}
}

func TestGenerateGrid_SquareNeverEmpty(t *testing.T) {
	for _, lat := range []float64{-60, -10, 0, 37.7749, 70} {
		for _, r := range []float64{0.1, 1, 3} {
			for _, s := range []float64{0.05, 0.5, 2, 10} {
				cfg := model.ScanConfig{CenterLat: lat, CenterLng: 10, RadiusKm: r, SpacingKm: s, Shape: model.ShapeSquare}
				pts, err := GenerateGrid(cfg)
				if err != nil {
					t.Fatalf("%+v: %v", cfg, err)
				}
				if len(pts) == 0 {
					t.Errorf("%+v: square grid is empty", cfg)
				}
			}
		}
	}
}

func TestGenerateGrid_CircleWithinRadius(t *testing.T) {
	for _, lat := range []float64{-45, 0, 37.7749, 65} {
		for _, s := range []float64{0.1, 0.25, 0.3, 0.7} {
			cfg := model.ScanConfig{CenterLat: lat, CenterLng: -3.7, RadiusKm: 2, SpacingKm: s, Shape: model.ShapeCircle}
			pts, err := GenerateGrid(cfg)
			if err != nil {
				t.Fatalf("%+v: %v", cfg, err)
			}
			for _, p := range pts {
				if p.DistanceKm > cfg.RadiusKm+tol {
					t.Errorf("%+v: point at %.6f km beyond radius", cfg, p.DistanceKm)
				}
			}
		}
	}
}

func TestGenerateGrid_MonotonicCoarsening(t *testing.T) {
	spacings := []float64{0.1, 0.2, 0.25, 0.3, 0.5, 0.75, 1, 2, 5}
	for _, shape := range []model.Shape{model.ShapeCircle, model.ShapeSquare} {
		prev := math.MaxInt
		for _, s := range spacings {
			cfg := sfCircle()
			cfg.SpacingKm = s
			cfg.Shape = shape
			pts, err := GenerateGrid(cfg)
			if err != nil {
				t.Fatalf("spacing %v: %v", s, err)
			}
			if len(pts) > prev {
				t.Errorf("%v spacing %v: %d points, more than %d at finer spacing", shape, s, len(pts), prev)
			}
			prev = len(pts)
		}
	}
}

func TestGenerateGrid_Deterministic(t *testing.T) {
	a, _ := GenerateGrid(sfCircle())
	b, _ := GenerateGrid(sfCircle())
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("point %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestDistanceKm(t *testing.T) {
	if d := DistanceKm(10, 10, 10, 10); d != 0 {
		t.Errorf("same point distance = %v", d)
	}
	// One degree of latitude on a 6371 km sphere.
	want := 6371.0 * math.Pi / 180
	if d := DistanceKm(0, 0, 1, 0); math.Abs(d-want) > 1e-9 {
		t.Errorf("1 deg lat = %v, want %v", d, want)
	}
}
