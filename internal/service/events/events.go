package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/geocoder89/yardsale/internal/actorctx"
	"github.com/geocoder89/yardsale/internal/apperr"
	"github.com/geocoder89/yardsale/internal/clock"
	"github.com/geocoder89/yardsale/internal/domain/event"
	"github.com/geocoder89/yardsale/internal/observability"
	"github.com/geocoder89/yardsale/internal/service/validation"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Publisher hands a persisted domain event to whoever consumes them.
type Publisher interface {
	Publish(ctx context.Context, de event.DomainEvent) error
}

type Service struct {
	events    event.Repository
	validator *validation.Service
	publisher Publisher
	clock     clock.Clock
	log       *slog.Logger
	prom      *observability.Prom
	tracer    trace.Tracer
}

func New(
	events event.Repository,
	validator *validation.Service,
	publisher Publisher,
	clk clock.Clock,
	log *slog.Logger,
	prom *observability.Prom,
) *Service {
	return &Service{
		events:    events,
		validator: validator,
		publisher: publisher,
		clock:     clk,
		log:       log,
		prom:      prom,
		tracer:    otel.Tracer("github.com/geocoder89/yardsale/internal/service/events"),
	}
}

func (s *Service) Create(ctx context.Context, actor actorctx.Actor, p event.CreateParams) (*event.Event, error) {
	ctx, span := s.tracer.Start(ctx, "events.Create")
	defer span.End()

	if err := s.validator.ValidateCanCreate(ctx, actor); err != nil {
		return nil, err
	}

	p.OrganizerID = actor.UserID

	e, err := event.Create(p, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateBusinessRules(e); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateNoEventConflicts(ctx, e); err != nil {
		return nil, err
	}

	if err := s.events.Add(ctx, e); err != nil {
		return nil, fmt.Errorf("add event: %w", err)
	}

	span.SetAttributes(attribute.String("event.id", e.ID()))
	s.dispatch(ctx, e)

	return e, nil
}

// Get returns public events to anyone and unpublished ones to their organizer
// and staff only.
func (s *Service) Get(ctx context.Context, actor actorctx.Actor, id string) (*event.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !e.IsPubliclyVisible() && !e.IsOrganizedBy(actor.UserID) && !actor.IsStaff() {
		return nil, event.ErrNotFound
	}

	return e, nil
}

type ListQuery struct {
	CategoryID *string
	Type       *event.Type
	From       *time.Time
	To         *time.Time
	After      *event.Cursor
	Limit      int
}

type Page struct {
	Items []*event.Event
	Next  *event.Cursor
}

// List pages through upcoming public events in start order.
func (s *Service) List(ctx context.Context, q ListQuery) (Page, error) {
	now := s.clock.Now()
	limit := clampLimit(q.Limit)

	items, err := s.events.List(ctx, event.Filter{
		Statuses:   event.PublicStatuses(),
		EndsAfter:  &now,
		CategoryID: q.CategoryID,
		Type:       q.Type,
		From:       q.From,
		To:         q.To,
		After:      q.After,
		Limit:      limit + 1,
	})
	if err != nil {
		return Page{}, fmt.Errorf("list events: %w", err)
	}

	return paginate(items, limit), nil
}

// ListMine returns every event the actor organizes, whatever its status.
func (s *Service) ListMine(ctx context.Context, actor actorctx.Actor, after *event.Cursor, limit int) (Page, error) {
	if !actor.Authenticated {
		return Page{}, validation.ErrUnauthenticated
	}

	limit = clampLimit(limit)
	organizer := actor.UserID

	items, err := s.events.List(ctx, event.Filter{
		OrganizerID: &organizer,
		After:       after,
		Limit:       limit + 1,
	})
	if err != nil {
		return Page{}, fmt.Errorf("list organizer events: %w", err)
	}

	return paginate(items, limit), nil
}

type Details struct {
	Title        string
	Description  string
	Instructions string
}

type Schedule struct {
	Start time.Time
	End   time.Time
}

type Place struct {
	Latitude   float64
	Longitude  float64
	Street     string
	City       string
	PostalCode string
	Country    string
	State      string
}

type Fees struct {
	EntryFee  *event.Fee
	EarlyBird event.EarlyBirdInput
}

type Contact struct {
	Phone string
	Email string
}

// Update groups are optional; nil groups are left untouched.
type Update struct {
	Details  *Details
	Schedule *Schedule
	Place    *Place
	Fees     *Fees
	Contact  *Contact
	Category *string
	// ClearCategory removes the category when Category is nil.
	ClearCategory bool
}

func (s *Service) Update(ctx context.Context, actor actorctx.Actor, id string, u Update) (*event.Event, error) {
	ctx, span := s.tracer.Start(ctx, "events.Update", trace.WithAttributes(attribute.String("event.id", id)))
	defer span.End()

	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateCanEdit(actor, e); err != nil {
		return nil, err
	}

	now := s.clock.Now()

	steps := make([]func() error, 0, 6)
	if d := u.Details; d != nil {
		steps = append(steps, func() error { return e.UpdateDetails(d.Title, d.Description, d.Instructions, now) })
	}
	if sc := u.Schedule; sc != nil {
		steps = append(steps, func() error { return e.UpdateSchedule(sc.Start, sc.End, now) })
	}
	if pl := u.Place; pl != nil {
		steps = append(steps, func() error {
			return e.UpdateLocation(pl.Latitude, pl.Longitude, pl.Street, pl.City, pl.PostalCode, pl.Country, pl.State, now)
		})
	}
	if f := u.Fees; f != nil {
		steps = append(steps, func() error { return e.UpdateFees(f.EntryFee, f.EarlyBird, now) })
	}
	if c := u.Contact; c != nil {
		steps = append(steps, func() error { return e.UpdateContact(c.Phone, c.Email, now) })
	}
	if u.Category != nil || u.ClearCategory {
		steps = append(steps, func() error { return e.UpdateCategory(u.Category, now) })
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	if err := s.validator.ValidateBusinessRules(e); err != nil {
		return nil, err
	}
	if u.Schedule != nil || u.Place != nil {
		if err := s.validator.ValidateNoEventConflicts(ctx, e); err != nil {
			return nil, err
		}
	}

	if err := s.save(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

// Publish is idempotent: an already published event is returned unchanged.
func (s *Service) Publish(ctx context.Context, actor actorctx.Actor, id string) (*event.Event, error) {
	ctx, span := s.tracer.Start(ctx, "events.Publish", trace.WithAttributes(attribute.String("event.id", id)))
	defer span.End()

	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateCanManage(actor, e); err != nil {
		return nil, err
	}

	if e.Status() == event.StatusPublished {
		return e, nil
	}

	now := s.clock.Now()

	if err := s.validator.ValidatePublishReadiness(e, now); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateBusinessRules(e); err != nil {
		return nil, err
	}
	if err := e.Publish(now); err != nil {
		return nil, err
	}

	if err := s.save(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *Service) Cancel(ctx context.Context, actor actorctx.Actor, id, reason string) (*event.Event, error) {
	ctx, span := s.tracer.Start(ctx, "events.Cancel", trace.WithAttributes(attribute.String("event.id", id)))
	defer span.End()

	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateCanManage(actor, e); err != nil {
		return nil, err
	}
	if err := e.Cancel(reason, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.save(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *Service) Postpone(ctx context.Context, actor actorctx.Actor, id string, sc Schedule, reason string) (*event.Event, error) {
	ctx, span := s.tracer.Start(ctx, "events.Postpone", trace.WithAttributes(attribute.String("event.id", id)))
	defer span.End()

	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.validator.ValidateCanManage(actor, e); err != nil {
		return nil, err
	}
	if err := e.Postpone(sc.Start, sc.End, reason, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.validator.ValidateBusinessRules(e); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateNoEventConflicts(ctx, e); err != nil {
		return nil, err
	}

	if err := s.save(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *Service) Delete(ctx context.Context, actor actorctx.Actor, id string) error {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateCanDelete(actor, e); err != nil {
		return err
	}
	if err := e.SoftDelete(s.clock.Now()); err != nil {
		return err
	}

	if err := s.events.Delete(ctx, e); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}

	s.log.InfoContext(ctx, "event deleted", "event_id", e.ID(), "by", actor.UserID)
	return nil
}

func (s *Service) save(ctx context.Context, e *event.Event) error {
	if err := s.events.Update(ctx, e); err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return err
		}
		return fmt.Errorf("update event: %w", err)
	}

	s.dispatch(ctx, e)
	return nil
}

// dispatch drains the aggregate's domain events after a successful write.
// Delivery is best effort; failures are logged and never undo the command.
func (s *Service) dispatch(ctx context.Context, e *event.Event) {
	for _, de := range e.PullDomainEvents() {
		s.prom.IncTransition(de.Name())

		err := s.publisher.Publish(ctx, de)
		s.prom.IncOutbox(de.Name(), err)

		if err != nil {
			s.log.WarnContext(ctx, "publish domain event failed",
				"event", de.Name(),
				"aggregate_id", de.AggregateID(),
				"err", err,
			)
		}
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func paginate(items []*event.Event, limit int) Page {
	if len(items) <= limit {
		return Page{Items: items}
	}

	items = items[:limit]
	next := event.CursorOf(items[len(items)-1])
	return Page{Items: items, Next: &next}
}
