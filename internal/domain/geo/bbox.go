package geo

import "math"

// KmPerDegree approximates the length of one degree of latitude. It is a
// little shorter than the true ~111.195 km, which keeps the box loose.
const KmPerDegree = 111.0

// edgeSlackDeg absorbs floating point error on the exact longitude extent.
const edgeSlackDeg = 1e-9

// BoundingBox is a lat/lon rectangle used as a cheap pre-filter before exact
// distance checks. When MinLon > MaxLon the box wraps across the antimeridian.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// BoundingBoxAround returns a box that contains every point whose great-circle
// distance from center is at most radiusKm. It may admit points that are
// farther away (corners) but never excludes a point inside the circle.
func BoundingBoxAround(center Location, radiusKm float64) BoundingBox {
	if math.IsNaN(radiusKm) || radiusKm < 0 {
		radiusKm = 0
	}

	latDelta := radiusKm / KmPerDegree
	box := BoundingBox{
		MinLat: center.lat - latDelta,
		MaxLat: center.lat + latDelta,
		MinLon: -180,
		MaxLon: 180,
	}

	// circle reaches a pole: every meridian is inside
	if box.MinLat <= -90 || box.MaxLat >= 90 {
		box.MinLat = math.Max(box.MinLat, -90)
		box.MaxLat = math.Min(box.MaxLat, 90)
		return box
	}

	cosLat := math.Cos(toRadians(center.lat))
	lonDelta := radiusKm / (KmPerDegree * cosLat)

	// the linear correction underestimates the spherical extent close to the
	// poles, so widen to the exact value when that is larger
	s := math.Sin(radiusKm/EarthRadiusKm) / cosLat
	if s >= 1 {
		return box
	}
	if exact := toDegrees(math.Asin(s)); exact > lonDelta {
		lonDelta = exact + edgeSlackDeg
	}

	if lonDelta >= 180 {
		return box
	}

	box.MinLon = center.lon - lonDelta
	box.MaxLon = center.lon + lonDelta

	if box.MinLon < -180 {
		box.MinLon += 360
	}
	if box.MaxLon > 180 {
		box.MaxLon -= 360
	}

	return box
}

func (b BoundingBox) CrossesAntimeridian() bool {
	return b.MinLon > b.MaxLon
}

func (b BoundingBox) Contains(loc Location) bool {
	if loc.lat < b.MinLat || loc.lat > b.MaxLat {
		return false
	}

	if b.CrossesAntimeridian() {
		return loc.lon >= b.MinLon || loc.lon <= b.MaxLon
	}

	// -180 and 180 are the same meridian
	for _, lon := range []float64{loc.lon, loc.lon + 360, loc.lon - 360} {
		if lon >= b.MinLon && lon <= b.MaxLon {
			return true
		}
	}
	return false
}
