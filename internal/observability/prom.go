package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "yardsale"

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// Nearby search
	NearbyCandidates prometheus.Histogram
	NearbyResults    prometheus.Histogram
	NearbyCache      *prometheus.CounterVec

	// Domain
	FavoriteToggles      *prometheus.CounterVec
	LifecycleTransitions *prometheus.CounterVec
	OutboxPublished      *prometheus.CounterVec

	// Sweeps (worker)
	SweepDuration *prometheus.HistogramVec
	SweepsRunning prometheus.Gauge
}

func NewProm(reg prometheus.Registerer) *Prom {
	countBuckets := []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000}

	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				// Sane initial defaults
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),

		NearbyCandidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "nearby",
				Name:      "candidates",
				Help:      "Events admitted by the bounding box per search.",
				Buckets:   countBuckets,
			},
		),
		NearbyResults: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "nearby",
				Name:      "results",
				Help:      "Events returned per search after the exact distance filter.",
				Buckets:   countBuckets,
			},
		),
		NearbyCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "nearby",
				Name:      "cache_total",
				Help:      "Nearby response cache lookups.",
			},
			[]string{"result"}, // result=hit|miss
		),

		FavoriteToggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "favorites",
				Name:      "toggles_total",
				Help:      "Favorite toggles by resulting action.",
			},
			[]string{"action"}, // action=added|removed
		),
		LifecycleTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "events",
				Name:      "transitions_total",
				Help:      "Event status transitions by domain event name.",
			},
			[]string{"event"},
		),
		OutboxPublished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "outbox",
				Name:      "published_total",
				Help:      "Domain events handed to the outbox.",
			},
			[]string{"event", "result"}, // result=ok|error
		),

		SweepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "sweeps",
				Name:      "duration_seconds",
				Help:      "Background sweep duration by kind and result",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"kind", "result"}, // result=ok|error
		),
		SweepsRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "sweeps",
				Name:      "in_flight",
				Help:      "Sweeps currently executing in this process.",
			},
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.NearbyCandidates, p.NearbyResults, p.NearbyCache,
		p.FavoriteToggles, p.LifecycleTransitions, p.OutboxPublished,
		p.SweepDuration, p.SweepsRunning,
	)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		// route template is only available after routing; best effort:
		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}

// The helpers below accept a nil receiver so services can run without metrics.

func (p *Prom) ObserveNearby(candidates, results int) {
	if p == nil {
		return
	}
	p.NearbyCandidates.Observe(float64(candidates))
	p.NearbyResults.Observe(float64(results))
}

func (p *Prom) ObserveNearbyCache(hit bool) {
	if p == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	p.NearbyCache.WithLabelValues(result).Inc()
}

func (p *Prom) IncFavoriteToggle(action string) {
	if p == nil {
		return
	}
	p.FavoriteToggles.WithLabelValues(action).Inc()
}

func (p *Prom) IncTransition(name string) {
	if p == nil {
		return
	}
	p.LifecycleTransitions.WithLabelValues(name).Inc()
}

func (p *Prom) IncOutbox(name string, err error) {
	if p == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.OutboxPublished.WithLabelValues(name, result).Inc()
}

func (p *Prom) ObserveSweep(kind string, fn func() error) error {
	if p == nil {
		return fn()
	}

	p.SweepsRunning.Inc()
	defer p.SweepsRunning.Dec()

	start := time.Now()
	err := fn()

	result := "ok"
	if err != nil {
		result = "error"
	}
	p.SweepDuration.WithLabelValues(kind, result).Observe(time.Since(start).Seconds())
	return err
}
