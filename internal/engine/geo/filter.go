package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/rendis/geogrid/internal/model"
)

// ClipToArea keeps the grid points that fall inside the service area.
// An empty area keeps everything. Order is preserved.
func ClipToArea(points []model.GridPoint, area orb.MultiPolygon) []model.GridPoint {
	if len(area) == 0 {
		return points
	}
	var kept []model.GridPoint
	for _, p := range points {
		if planar.MultiPolygonContains(area, p.Point()) {
			kept = append(kept, p)
		}
	}
	return kept
}
