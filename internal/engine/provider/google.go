package provider

import (
	"context"

	"github.com/rendis/geogrid/internal/model"
)

// Google combines the SERP and Places clients into a SearchProvider.
// Either client may be nil, which leaves its channels empty.
type Google struct {
	Serp   *SerpClient
	Places *PlacesClient
}

func (g *Google) Search(ctx context.Context, keyword string, point model.GridPoint) (Observation, error) {
	var obs Observation
	if g.Serp != nil {
		organic, local, err := g.Serp.Search(ctx, keyword)
		if err != nil {
			return Observation{}, err
		}
		obs.Organic, obs.LocalPack = organic, local
	}
	if g.Places != nil {
		maps, err := g.Places.Nearby(ctx, keyword, point)
		if err != nil {
			return Observation{}, err
		}
		obs.Maps = maps
	}
	return obs, nil
}

// FindPlaceID delegates to the Places client.
func (g *Google) FindPlaceID(ctx context.Context, name string, lat, lng float64) (string, error) {
	if g.Places == nil {
		return "", nil
	}
	return g.Places.FindPlaceID(ctx, name, lat, lng)
}
