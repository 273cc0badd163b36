package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/rendis/geogrid/internal/model"
)

const (
	kmPerDegree   = 111.0 // ~111 km per degree latitude
	earthRadiusKm = 6371.0

	// countTolerance absorbs float error when the extent is an exact multiple
	// of the step, so r=1 s=0.5 gives 5 rows rather than 4.
	countTolerance = 1e-9

	// maxGridPoints bounds the lattice before a circle filter is applied.
	maxGridPoints = 1_000_000
)

// ErrInvalidConfiguration is returned for grid parameters that cannot
// produce a lattice.
var ErrInvalidConfiguration = errors.New("invalid grid configuration")

// Validate checks a scan configuration without generating points.
func Validate(cfg model.ScanConfig) error {
	switch {
	case notFinite(cfg.CenterLat, cfg.CenterLng, cfg.RadiusKm, cfg.SpacingKm):
		return fmt.Errorf("%w: non-finite parameter", ErrInvalidConfiguration)
	case cfg.RadiusKm <= 0:
		return fmt.Errorf("%w: radius must be > 0 (got %g km)", ErrInvalidConfiguration, cfg.RadiusKm)
	case cfg.SpacingKm <= 0:
		return fmt.Errorf("%w: spacing must be > 0 (got %g km)", ErrInvalidConfiguration, cfg.SpacingKm)
	case math.Abs(cfg.CenterLat) >= 90:
		return fmt.Errorf("%w: latitude %g is at or beyond a pole", ErrInvalidConfiguration, cfg.CenterLat)
	case cfg.Shape != model.ShapeCircle && cfg.Shape != model.ShapeSquare:
		return fmt.Errorf("%w: unknown shape %v", ErrInvalidConfiguration, cfg.Shape)
	}
	return nil
}

// GenerateGrid lays a uniform lattice over [center-extent, center+extent] on
// both axes and returns its points in row-major order (latitude outer,
// longitude inner). Circle scans drop points farther than the radius.
//
// The longitude extent is corrected by cos(latitude) and grows without bound
// near the poles; latitudes at ±90 are rejected, nothing else is clamped.
func GenerateGrid(cfg model.ScanConfig) ([]model.GridPoint, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	cosLat := math.Cos(cfg.CenterLat * math.Pi / 180.0)
	latExt := cfg.RadiusKm / kmPerDegree
	lngExt := cfg.RadiusKm / (kmPerDegree * cosLat)
	latStep := cfg.SpacingKm / kmPerDegree
	lngStep := cfg.SpacingKm / (kmPerDegree * cosLat)

	rowsF := stepCount(latExt, latStep)
	colsF := stepCount(lngExt, lngStep)
	if rowsF*colsF > maxGridPoints {
		return nil, fmt.Errorf("%w: %.0f x %.0f lattice exceeds %d points, increase spacing",
			ErrInvalidConfiguration, rowsF, colsF, maxGridPoints)
	}
	rows, cols := int(rowsF), int(colsF)

	points := make([]model.GridPoint, 0, rows*cols)
	for i := 0; i < rows; i++ {
		lat := cfg.CenterLat - latExt + offset(i, rows, latExt)
		for j := 0; j < cols; j++ {
			lng := cfg.CenterLng - lngExt + offset(j, cols, lngExt)
			d := haversineKm(cfg.CenterLat, cfg.CenterLng, lat, lng)
			if cfg.Shape == model.ShapeCircle && d > cfg.RadiusKm {
				continue
			}
			points = append(points, model.GridPoint{Lat: lat, Lng: lng, DistanceKm: d})
		}
	}

	return points, nil
}

// stepCount returns floor(2*ext/step)+1. It stays a float so oversized
// lattices can be rejected before conversion.
func stepCount(ext, step float64) float64 {
	n := 2 * ext / step
	return math.Floor(n+n*countTolerance) + 1
}

// offset is the position of index i along an axis of n points spanning
// 2*ext. A single point sits at the low end of the axis.
func offset(i, n int, ext float64) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) * 2 * ext / float64(n-1)
}

// DistanceKm is the haversine distance between two coordinates on a sphere
// of radius 6371 km.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	return haversineKm(lat1, lng1, lat2, lng2)
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLng := (lng2 - lng1) * math.Pi / 180.0
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180.0)*math.Cos(lat2*math.Pi/180.0)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func notFinite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
