package event

import (
	"context"
	"time"

	"github.com/geocoder89/yardsale/internal/domain/geo"
)

// with pointers if optional, it will be nil
type Filter struct {
	Statuses     []Status
	EndsAfter    *time.Time
	EndsBefore   *time.Time
	StartsBefore *time.Time
	From         *time.Time
	To           *time.Time
	Box          *geo.BoundingBox
	OrganizerID  *string
	CategoryID   *string
	Type         *Type
	ExcludeID    *string
	After        *Cursor

	// IncludeDeleted is only used by maintenance jobs.
	IncludeDeleted bool

	Limit  int
	Offset int
}

// Matches evaluates the filter in memory. Repositories that push the filter
// down to a query must agree with it. Limit and Offset are not part of it.
// Listings are ordered by start date, then id.
func (f Filter) Matches(e *Event) bool {
	if e.deleted && !f.IncludeDeleted {
		return false
	}

	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, e.status) {
		return false
	}

	start, end := e.dateRange.Start(), e.dateRange.End()

	if f.EndsAfter != nil && !end.After(*f.EndsAfter) {
		return false
	}
	if f.EndsBefore != nil && !end.Before(*f.EndsBefore) {
		return false
	}
	if f.StartsBefore != nil && !start.Before(*f.StartsBefore) {
		return false
	}
	if f.From != nil && start.Before(*f.From) {
		return false
	}
	if f.To != nil && start.After(*f.To) {
		return false
	}

	if f.Box != nil && !f.Box.Contains(e.location) {
		return false
	}

	if f.OrganizerID != nil && e.organizerID != *f.OrganizerID {
		return false
	}
	if f.CategoryID != nil && (e.categoryID == nil || *e.categoryID != *f.CategoryID) {
		return false
	}
	if f.Type != nil && e.eventType != *f.Type {
		return false
	}
	if f.ExcludeID != nil && e.id == *f.ExcludeID {
		return false
	}
	if f.After != nil && !f.After.Before(e) {
		return false
	}

	return true
}

// Cursor marks a position in the (start date, id) listing order.
type Cursor struct {
	StartDate time.Time `json:"startDate"`
	ID        string    `json:"id"`
}

func CursorOf(e *Event) Cursor {
	return Cursor{StartDate: e.dateRange.Start(), ID: e.id}
}

// Before reports whether the cursor position sorts strictly before e.
func (c Cursor) Before(e *Event) bool {
	start := e.dateRange.Start()
	if !c.StartDate.Equal(start) {
		return c.StartDate.Before(start)
	}
	return c.ID < e.id
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Repository stores Event aggregates. GetByID returns ErrNotFound for
// missing and soft-deleted events.
//
// Update never writes the favorite counter; only UpdateFavoriteCount does, so
// a command that loaded the event before a favorite toggle committed cannot
// roll the counter back.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
	Add(ctx context.Context, e *Event) error
	Update(ctx context.Context, e *Event) error
	UpdateFavoriteCount(ctx context.Context, id string, count int) error
	Delete(ctx context.Context, e *Event) error
	List(ctx context.Context, f Filter) ([]*Event, error)
	Count(ctx context.Context, f Filter) (int, error)
}
