package geo

import (
	"fmt"
	"math"

	"github.com/geocoder89/yardsale/internal/apperr"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

var (
	ErrInvalidLatitude  = apperr.Validation("Location.InvalidLatitude", "latitude must be between -90 and 90")
	ErrInvalidLongitude = apperr.Validation("Location.InvalidLongitude", "longitude must be between -180 and 180")
)

// Location is an immutable WGS84 coordinate. The zero value is (0, 0).
type Location struct {
	lat float64
	lon float64
}

// NewLocation validates both coordinates and reports every violation.
func NewLocation(lat, lon float64) (Location, error) {
	var errs apperr.List

	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		errs.Add(ErrInvalidLatitude)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		errs.Add(ErrInvalidLongitude)
	}

	if err := errs.Err(); err != nil {
		return Location{}, err
	}

	return Location{lat: lat, lon: lon}, nil
}

func (l Location) Latitude() float64  { return l.lat }
func (l Location) Longitude() float64 { return l.lon }

// DistanceTo returns the Haversine great-circle distance in kilometres.
func (l Location) DistanceTo(other Location) float64 {
	lat1 := toRadians(l.lat)
	lat2 := toRadians(other.lat)
	dLat := toRadians(other.lat - l.lat)
	dLon := toRadians(other.lon - l.lon)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	// rounding can push a a hair above 1 for antipodal points
	a = math.Min(1, math.Max(0, a))

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func (l Location) IsWithinRadius(other Location, radiusKm float64) bool {
	return l.DistanceTo(other) <= radiusKm
}

func (l Location) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", l.lat, l.lon)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
