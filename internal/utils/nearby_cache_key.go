package utils

import (
	"strconv"
	"time"

	"github.com/geocoder89/yardsale/internal/service/nearby"
)

const NearbyCachePrefix = "nearby:v1:"

// BuildNearbyCacheKey keys a search by its normalized inputs. Coordinates keep
// full precision: distances in a cached response belong to one exact center.
func BuildNearbyCacheKey(q nearby.Query) string {
	cat := ""
	if q.CategoryID != nil {
		cat = *q.CategoryID
	}
	typ := ""
	if q.Type != nil {
		typ = string(*q.Type)
	}
	from := ""
	if q.From != nil {
		from = q.From.UTC().Format(time.RFC3339)
	}
	to := ""
	if q.To != nil {
		to = q.To.UTC().Format(time.RFC3339)
	}

	return NearbyCachePrefix +
		"lat=" + strconv.FormatFloat(q.Latitude, 'g', -1, 64) +
		":lon=" + strconv.FormatFloat(q.Longitude, 'g', -1, 64) +
		":r=" + strconv.FormatFloat(q.RadiusKm, 'g', -1, 64) +
		":limit=" + strconv.Itoa(q.Limit) +
		":cat=" + cat +
		":type=" + typ +
		":from=" + from +
		":to=" + to
}
