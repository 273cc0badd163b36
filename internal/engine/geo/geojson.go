package geo

import (
	"github.com/paulmach/orb/geojson"

	"github.com/rendis/geogrid/internal/model"
)

// PointsFeatureCollection encodes grid points as GeoJSON point features.
func PointsFeatureCollection(points []model.GridPoint) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, p := range points {
		f := geojson.NewFeature(p.Point())
		f.Properties["index"] = i
		f.Properties["dist_km"] = p.DistanceKm
		fc.Append(f)
	}
	return fc
}

// RecordsFeatureCollection encodes visibility records as GeoJSON point
// features. Missing ranks are written as null.
func RecordsFeatureCollection(records []model.VisibilityRecord) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range records {
		f := geojson.NewFeature(r.Point.Point())
		f.Properties["keyword"] = r.Keyword
		f.Properties["dist_km"] = r.Point.DistanceKm
		for _, c := range model.Channels() {
			if rank := r.Rank(c); rank != nil {
				f.Properties[c.String()+"_rank"] = *rank
			} else {
				f.Properties[c.String()+"_rank"] = nil
			}
		}
		f.Properties["observed_at"] = r.ObservedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		fc.Append(f)
	}
	return fc
}
