// Package geometry hit-tests normalized gaze points against region
// polygons.
package geometry

import "github.com/hammamikhairi/soulframe/internal/domain"

// PointInPolygon reports whether point lies inside the polygon defined
// by points, using the standard ray-casting algorithm (a horizontal ray
// cast from the point to +infinity, counting edge crossings). Polygons
// with fewer than 3 points never contain any point. Points exactly on
// an edge resolve according to the ray-casting test itself rather than
// any special-cased boundary rule, matching the reference behavior.
func PointInPolygon(point domain.Point, points []domain.Point) bool {
	if len(points) < 3 {
		return false
	}

	inside := false
	n := len(points)
	j := n - 1
	for i := 0; i < n; i++ {
		pi, pj := points[i], points[j]
		crosses := (pi.Y > point.Y) != (pj.Y > point.Y)
		if crosses {
			xIntersect := (pj.X-pi.X)*(point.Y-pi.Y)/(pj.Y-pi.Y) + pi.X
			if point.X < xIntersect {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// RegionHitTest reports whether the gaze point falls within region's
// shape. Only the "polygon" shape type is currently supported; any
// other shape type never matches.
func RegionHitTest(gaze domain.Point, region domain.Region) bool {
	if region.Shape.Type != "polygon" {
		return false
	}
	return PointInPolygon(gaze, region.Shape.PointsNormalized)
}
