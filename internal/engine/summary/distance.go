package summary

import "github.com/rendis/geogrid/internal/model"

// DistanceBucket is a half-open distance band [MinKm, MaxKm). MaxKm == 0
// marks the open-ended last band.
type DistanceBucket struct {
	Label string
	MinKm float64
	MaxKm float64
}

// Buckets are the fixed distance bands used by ByDistance.
var Buckets = []DistanceBucket{
	{Label: "0-1km", MinKm: 0, MaxKm: 1},
	{Label: "1-2km", MinKm: 1, MaxKm: 2},
	{Label: "2-5km", MinKm: 2, MaxKm: 5},
	{Label: "5km+", MinKm: 5},
}

// Bucket returns the label of the band containing distanceKm. A distance on
// a boundary belongs to the band that the boundary opens.
func Bucket(distanceKm float64) string {
	for _, b := range Buckets {
		if b.MaxKm == 0 || distanceKm < b.MaxKm {
			return b.Label
		}
	}
	return Buckets[len(Buckets)-1].Label
}

// ByDistance summarizes every distance band in Buckets order. Bands without
// records are included with Total == 0.
func ByDistance(records []model.VisibilityRecord) []Group {
	parts := make(map[string][]model.VisibilityRecord, len(Buckets))
	for _, r := range records {
		label := Bucket(r.Point.DistanceKm)
		parts[label] = append(parts[label], r)
	}

	groups := make([]Group, 0, len(Buckets))
	for _, b := range Buckets {
		groups = append(groups, Group{Key: b.Label, Summary: Summarize(parts[b.Label])})
	}
	return groups
}
