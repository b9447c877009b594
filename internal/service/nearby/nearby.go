package nearby

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/geocoder89/yardsale/internal/clock"
	"github.com/geocoder89/yardsale/internal/domain/event"
	"github.com/geocoder89/yardsale/internal/domain/geo"
	"github.com/geocoder89/yardsale/internal/observability"
)

type EventLister interface {
	List(ctx context.Context, f event.Filter) ([]*event.Event, error)
}

// Query carries no caps of its own. Callers bound radius and limit.
type Query struct {
	Latitude   float64
	Longitude  float64
	RadiusKm   float64
	Limit      int
	CategoryID *string
	Type       *event.Type
	From       *time.Time
	To         *time.Time
}

type Result struct {
	Event      *event.Event
	DistanceKm float64
}

type Service struct {
	events EventLister
	clock  clock.Clock
	prom   *observability.Prom
	tracer trace.Tracer
}

func New(events EventLister, clk clock.Clock, prom *observability.Prom) *Service {
	return &Service{
		events: events,
		clock:  clk,
		prom:   prom,
		tracer: otel.Tracer("github.com/geocoder89/yardsale/internal/service/nearby"),
	}
}

// Search returns publicly visible events that have not ended, within RadiusKm
// of the query point, nearest first.
func (s *Service) Search(ctx context.Context, q Query) ([]Result, error) {
	center, err := geo.NewLocation(q.Latitude, q.Longitude)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "nearby.Search", trace.WithAttributes(
		attribute.Float64("nearby.radius_km", q.RadiusKm),
		attribute.Int("nearby.limit", q.Limit),
	))
	defer span.End()

	if q.Limit <= 0 {
		return []Result{}, nil
	}

	radius := q.RadiusKm
	if math.IsNaN(radius) || radius < 0 {
		radius = 0
	}

	now := s.clock.Now()
	box := geo.BoundingBoxAround(center, radius)

	candidates, err := s.events.List(ctx, event.Filter{
		Statuses:   event.PublicStatuses(),
		EndsAfter:  &now,
		Box:        &box,
		CategoryID: q.CategoryID,
		Type:       q.Type,
		From:       q.From,
		To:         q.To,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list candidates")
		return nil, fmt.Errorf("nearby: list candidates: %w", err)
	}

	results := make([]Result, 0, min(len(candidates), q.Limit))
	for _, e := range candidates {
		if !e.IsPubliclyVisible() || e.DateRange().HasEnded(now) {
			continue
		}

		d := center.DistanceTo(e.Location())
		if d > radius {
			continue
		}
		results = append(results, Result{Event: e, DistanceKm: d})
	}

	slices.SortFunc(results, compareResults)

	if len(results) > q.Limit {
		results = results[:q.Limit]
	}

	span.SetAttributes(
		attribute.Int("nearby.candidates", len(candidates)),
		attribute.Int("nearby.results", len(results)),
	)
	s.prom.ObserveNearby(len(candidates), len(results))

	return results, nil
}

// compareResults orders by distance, then start date, then id so that every
// backend returns the same page.
func compareResults(a, b Result) int {
	if c := cmp.Compare(a.DistanceKm, b.DistanceKm); c != 0 {
		return c
	}
	if c := a.Event.DateRange().Start().Compare(b.Event.DateRange().Start()); c != 0 {
		return c
	}
	return cmp.Compare(a.Event.ID(), b.Event.ID())
}

// RoundKm rounds a distance for display. Comparisons always use the exact value.
func RoundKm(d float64) float64 {
	return math.Round(d*100) / 100
}
