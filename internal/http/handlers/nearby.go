package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/yardsale/internal/cache"
	"github.com/geocoder89/yardsale/internal/domain/event"
	"github.com/geocoder89/yardsale/internal/observability"
	"github.com/geocoder89/yardsale/internal/service/nearby"
	"github.com/geocoder89/yardsale/internal/utils"
)

const (
	DefaultNearbyRadiusKm = 10.0
	DefaultNearbyLimit    = 20
)

type NearbySearcher interface {
	Search(ctx context.Context, q nearby.Query) ([]nearby.Result, error)
}

type NearbyLimits struct {
	MaxRadiusKm float64
	MaxLimit    int
}

type NearbyHandler struct {
	svc    NearbySearcher
	limits NearbyLimits
	cache  *cache.Cache
	prom   *observability.Prom
}

// NewNearbyHandler applies the request caps the search service leaves to its
// callers. c and prom may be nil.
func NewNearbyHandler(svc NearbySearcher, limits NearbyLimits, c *cache.Cache, prom *observability.Prom) *NearbyHandler {
	if limits.MaxRadiusKm <= 0 {
		limits.MaxRadiusKm = 100
	}
	if limits.MaxLimit <= 0 {
		limits.MaxLimit = 50
	}
	return &NearbyHandler{svc: svc, limits: limits, cache: c, prom: prom}
}

type nearbyQuery struct {
	Lat        *float64 `form:"lat" binding:"required"`
	Lng        *float64 `form:"lng" binding:"required"`
	RadiusKm   *float64 `form:"radiusKm"`
	Limit      *int     `form:"limit"`
	CategoryID string   `form:"categoryId" binding:"omitempty,uuid"`
	Type       string   `form:"type"`
	From       string   `form:"from"`
	To         string   `form:"to"`
}

func (h *NearbyHandler) SearchNearby(ctx *gin.Context) {
	var qp nearbyQuery

	if !BindQuery(ctx, &qp) {
		return
	}

	q := nearby.Query{
		Latitude:  *qp.Lat,
		Longitude: *qp.Lng,
		RadiusKm:  DefaultNearbyRadiusKm,
		Limit:     DefaultNearbyLimit,
	}

	if qp.RadiusKm != nil {
		if *qp.RadiusKm <= 0 || *qp.RadiusKm > h.limits.MaxRadiusKm {
			RespondBadRequest(ctx, "Invalid query parameters", []FieldError{{
				Field:   "radiusKm",
				Rule:    "range",
				Message: "must be greater than 0 and at most " + strconv.FormatFloat(h.limits.MaxRadiusKm, 'f', -1, 64),
			}})
			return
		}
		q.RadiusKm = *qp.RadiusKm
	}

	if qp.Limit != nil {
		if *qp.Limit < 1 || *qp.Limit > h.limits.MaxLimit {
			RespondBadRequest(ctx, "Invalid query parameters", []FieldError{{
				Field:   "limit",
				Rule:    "range",
				Message: "must be between 1 and " + strconv.Itoa(h.limits.MaxLimit),
			}})
			return
		}
		q.Limit = *qp.Limit
	}

	if qp.CategoryID != "" {
		q.CategoryID = &qp.CategoryID
	}
	if qp.Type != "" {
		t := event.Type(qp.Type)
		if !t.IsValid() {
			RespondBadRequest(ctx, "Invalid query parameters", gin.H{"field": "type", "value": qp.Type})
			return
		}
		q.Type = &t
	}

	var ok bool
	if q.From, ok = parseTimeQuery(ctx, "from", qp.From); !ok {
		return
	}
	if q.To, ok = parseTimeQuery(ctx, "to", qp.To); !ok {
		return
	}

	key := utils.BuildNearbyCacheKey(q)

	if h.cache != nil {
		if v, hit := h.cache.Get(key); hit {
			if resp, ok := v.(NearbyResponse); ok {
				h.prom.ObserveNearbyCache(true)
				ctx.Header("X-Cache", "HIT")
				ctx.JSON(http.StatusOK, resp)
				return
			}
		}
		h.prom.ObserveNearbyCache(false)
	}

	cctx, cancel := requestContext(ctx)
	defer cancel()

	results, err := h.svc.Search(cctx, q)
	if err != nil {
		RespondAppError(ctx, err)
		return
	}

	resp := toNearbyResponse(results, q.RadiusKm)

	if h.cache != nil {
		h.cache.Set(key, resp)
		ctx.Header("X-Cache", "MISS")
	}

	ctx.JSON(http.StatusOK, resp)
}
