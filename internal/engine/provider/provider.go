// Package provider fetches ordered result lists from search and places
// services.
package provider

import (
	"context"

	"github.com/rendis/geogrid/internal/model"
)

// Observation holds the raw result lists seen for one keyword at one point.
type Observation struct {
	Organic   []model.ResultEntry
	LocalPack []model.ResultEntry
	Maps      []model.ResultEntry
}

// SearchProvider runs a keyword search as seen from a grid point.
type SearchProvider interface {
	Search(ctx context.Context, keyword string, point model.GridPoint) (Observation, error)
}

// PlaceResolver finds the provider identifier of a business near a
// coordinate. An empty id with a nil error means no candidate.
type PlaceResolver interface {
	FindPlaceID(ctx context.Context, name string, lat, lng float64) (string, error)
}
