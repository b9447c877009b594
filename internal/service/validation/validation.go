package validation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/yardsale/internal/actorctx"
	"github.com/geocoder89/yardsale/internal/apperr"
	"github.com/geocoder89/yardsale/internal/domain/event"
	"github.com/geocoder89/yardsale/internal/domain/geo"
	"github.com/geocoder89/yardsale/internal/domain/user"
)

// DefaultConflictRadiusKm is how close two sales of one organizer may be
// before overlapping dates count as a double booking.
const DefaultConflictRadiusKm = 1.0

var (
	ErrUnauthenticated  = apperr.Unauthorized("Auth.Unauthenticated", "authentication is required")
	ErrUserInactive     = apperr.Forbidden("User.Inactive", "user account is not active")
	ErrEmailNotVerified = apperr.Forbidden("User.EmailNotVerified", "email address must be verified first")
	ErrRoleCannotCreate = apperr.Forbidden("User.CannotCreateEvents", "your role does not allow creating events")
	ErrNotOrganizer     = apperr.Forbidden("Event.NotOrganizer", "only the organizer or staff can change this event")
)

type EventLister interface {
	List(ctx context.Context, f event.Filter) ([]*event.Event, error)
}

type Service struct {
	users            user.Reader
	events           EventLister
	conflictRadiusKm float64
}

func New(users user.Reader, events EventLister, conflictRadiusKm float64) *Service {
	if conflictRadiusKm <= 0 {
		conflictRadiusKm = DefaultConflictRadiusKm
	}

	return &Service{
		users:            users,
		events:           events,
		conflictRadiusKm: conflictRadiusKm,
	}
}

// ValidateCanCreate checks that the caller may organize a new sale.
func (s *Service) ValidateCanCreate(ctx context.Context, actor actorctx.Actor) error {
	if !actor.Authenticated || actor.UserID == "" {
		return ErrUnauthenticated
	}

	u, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}

	switch {
	case !u.IsActive:
		return ErrUserInactive
	case !u.EmailVerified:
		return ErrEmailNotVerified
	case !u.CanCreateEvents():
		return ErrRoleCannotCreate
	}

	return nil
}

// ValidateCanManage checks ownership only. Status rules are left to the
// aggregate's own guards.
func (s *Service) ValidateCanManage(actor actorctx.Actor, e *event.Event) error {
	return authorize(actor, e)
}

func (s *Service) ValidateCanEdit(actor actorctx.Actor, e *event.Event) error {
	if err := authorize(actor, e); err != nil {
		return err
	}

	if e.Status() == event.StatusCompleted {
		return event.ErrCannotModifyCompletedEvent
	}

	return nil
}

// ValidateCanDelete applies the same ownership rule as editing. Completed
// events may still be soft-deleted.
func (s *Service) ValidateCanDelete(actor actorctx.Actor, e *event.Event) error {
	return authorize(actor, e)
}

func authorize(actor actorctx.Actor, e *event.Event) error {
	if !actor.Authenticated || actor.UserID == "" {
		return ErrUnauthenticated
	}
	if e.IsDeleted() {
		return event.ErrNotFound
	}
	if !e.IsOrganizedBy(actor.UserID) && !actor.IsStaff() {
		return ErrNotOrganizer
	}
	return nil
}

// ValidatePublishReadiness reports every reason the event cannot go public yet.
func (s *Service) ValidatePublishReadiness(e *event.Event, now time.Time) error {
	var errs apperr.List

	switch e.Status() {
	case event.StatusDraft, event.StatusPostponed:
	case event.StatusCancelled:
		return event.ErrAlreadyCancelled
	default:
		errs.Add(event.ErrCannotPublish)
	}

	if e.DateRange().HasStarted(now) {
		errs.Add(event.ErrAlreadyStarted)
	}
	if e.Title() == "" {
		errs.Add(event.ErrTitleRequired)
	}
	if e.Description() == "" {
		errs.Add(event.ErrDescriptionRequired)
	}
	if !e.Contact().HasAny() {
		errs.Add(event.ErrContactRequired)
	}
	if !e.Address().IsComplete() {
		errs.Add(event.ErrAddressIncomplete)
	}

	return errs.Err()
}

// ValidateBusinessRules applies the per-type rules that are not structural
// invariants of the aggregate.
func (s *Service) ValidateBusinessRules(e *event.Event) error {
	var errs apperr.List

	if limit, ok := e.Type().MaxDuration(); ok && e.DateRange().Duration() > limit {
		errs.Add(event.ErrDurationExceedsTypeLimit)
	}

	if fee, early := e.EntryFee(), e.EarlyBird().Fee; fee != nil && early != nil {
		if c, err := early.Compare(*fee); err == nil && c > 0 {
			errs.Add(event.ErrEarlyBirdFeeAboveEntryFee)
		}
	}

	if e.Type() == event.TypeGarageSale {
		switch e.DateRange().Start().Weekday() {
		case time.Friday, time.Saturday, time.Sunday:
		default:
			errs.Add(event.ErrGarageSaleWeekday)
		}
	}

	return errs.Err()
}

// ValidateNoEventConflicts rejects a schedule that overlaps another open sale
// of the same organizer close to the same spot.
func (s *Service) ValidateNoEventConflicts(ctx context.Context, e *event.Event) error {
	organizer := e.OrganizerID()
	id := e.ID()
	start, end := e.DateRange().Start(), e.DateRange().End()
	box := geo.BoundingBoxAround(e.Location(), s.conflictRadiusKm)

	others, err := s.events.List(ctx, event.Filter{
		Statuses:     event.OpenStatuses(),
		OrganizerID:  &organizer,
		ExcludeID:    &id,
		StartsBefore: &end,
		EndsAfter:    &start,
		Box:          &box,
	})
	if err != nil {
		return fmt.Errorf("list organizer events: %w", err)
	}

	for _, other := range others {
		if other.DateRange().OverlapsWith(e.DateRange()) &&
			other.Location().IsWithinRadius(e.Location(), s.conflictRadiusKm) {
			return event.ErrScheduleConflict
		}
	}

	return nil
}
