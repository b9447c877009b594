package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/geocoder89/yardsale/internal/cache"
	"github.com/geocoder89/yardsale/internal/clock"
	"github.com/geocoder89/yardsale/internal/config"
	"github.com/geocoder89/yardsale/internal/http/handlers"
	"github.com/geocoder89/yardsale/internal/http/middlewares"
	"github.com/geocoder89/yardsale/internal/observability"
)

const maxBodyBytes = 1 << 20

// Deps is everything the HTTP surface needs. Maintenance, Prom and Gatherer
// are optional.
type Deps struct {
	Config      config.Config
	Log         *slog.Logger
	Clock       clock.Clock
	Prom        *observability.Prom
	Gatherer    prometheus.Gatherer
	Verifier    middlewares.TokenVerifier
	Events      handlers.EventsService
	Nearby      handlers.NearbySearcher
	Favorites   handlers.FavoritesService
	Maintenance handlers.Maintenance
	NearbyCache *cache.Cache
	Health      map[string]handlers.Pinger
}

func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config

	if cfg.Env != "dev" && cfg.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(otelgin.Middleware(cfg.ServiceName))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(cfg.IsProd()))
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	auth := middlewares.NewAuthMiddleware(d.Verifier)
	r.Use(auth.Authenticate())

	limiter := middlewares.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute, d.Clock)
	r.Use(limiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))

	// health
	health := handlers.NewHealthHandler(d.Health)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	eventsHandler := handlers.NewEventsHandler(d.Events, d.NearbyCache)
	nearbyHandler := handlers.NewNearbyHandler(d.Nearby, handlers.NearbyLimits{
		MaxRadiusKm: cfg.NearbyMaxRadiusKm,
		MaxLimit:    cfg.NearbyMaxLimit,
	}, d.NearbyCache, d.Prom)
	favoritesHandler := handlers.NewFavoritesHandler(d.Favorites)

	// public reads; the actor is optional and lets organizers see their drafts
	r.GET("/events/nearby", nearbyHandler.SearchNearby)
	r.GET("/events", eventsHandler.ListEvents)
	r.GET("/events/:id", eventsHandler.GetEventByID)

	authed := r.Group("/")
	authed.Use(auth.RequireAuth())
	{
		authed.POST("/events", eventsHandler.CreateEvent)
		authed.PUT("/events/:id", eventsHandler.UpdateEvent)
		authed.DELETE("/events/:id", eventsHandler.DeleteEvent)
		authed.POST("/events/:id/publish", eventsHandler.PublishEvent)
		authed.POST("/events/:id/cancel", eventsHandler.CancelEvent)
		authed.POST("/events/:id/postpone", eventsHandler.PostponeEvent)
		authed.POST("/events/:id/favorite", favoritesHandler.ToggleFavorite)

		authed.GET("/me/events", eventsHandler.ListMyEvents)
		authed.GET("/me/favorites", favoritesHandler.ListMyFavorites)
	}

	if d.Maintenance != nil {
		admin := handlers.NewAdminMaintenanceHandler(d.Maintenance)

		ops := r.Group("/admin")
		ops.Use(auth.RequireRole("admin", "moderator"))
		{
			ops.POST("/lifecycle/sweep", admin.Sweep)
			ops.POST("/favorites/reconcile", admin.ReconcileFavorites)
		}
	}

	return r
}
