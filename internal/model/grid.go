package model

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// Shape selects which lattice points a scan keeps.
type Shape int

const (
	ShapeCircle Shape = iota
	ShapeSquare
)

func (s Shape) String() string {
	switch s {
	case ShapeCircle:
		return "circle"
	case ShapeSquare:
		return "square"
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// ParseShape accepts "circle" or "square" in any case.
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "circle":
		return ShapeCircle, nil
	case "square":
		return ShapeSquare, nil
	}
	return 0, fmt.Errorf("unknown shape %q (want circle or square)", s)
}

// GridPoint is one sample coordinate of a scan.
type GridPoint struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	DistanceKm float64 `json:"dist_km"` // great-circle distance from the scan center
}

// Point returns the coordinate as an orb.Point ([lng, lat]).
func (p GridPoint) Point() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// ScanConfig describes the geometry of a geo-grid scan.
type ScanConfig struct {
	CenterLat float64 `json:"center_lat"`
	CenterLng float64 `json:"center_lng"`
	RadiusKm  float64 `json:"radius_km"`
	SpacingKm float64 `json:"spacing_km"`
	Shape     Shape   `json:"shape"`
}
