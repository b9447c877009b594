package favorite

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/geocoder89/yardsale/internal/apperr"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusRemoved  Status = "removed"
)

var (
	ErrNotFound        = apperr.NotFound("Favorite.NotFound", "favorite not found")
	ErrUserRequired    = apperr.Validation("Favorite.UserRequired", "user id is required")
	ErrEventRequired   = apperr.Validation("Favorite.EventRequired", "event id is required")
	ErrDuplicate       = apperr.Conflict("Favorite.Duplicate", "event is already in favorites")
	ErrAlreadyArchived = apperr.Conflict("Favorite.AlreadyArchived", "favorite is already archived")
	ErrNotArchived     = apperr.Conflict("Favorite.NotArchived", "only archived favorites can be restored")
	ErrAlreadyRemoved  = apperr.Conflict("Favorite.AlreadyRemoved", "favorite has been removed")
)

// Favorite links a user to an event. Uniqueness of the active link per
// (user, event) is enforced by storage.
type Favorite struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	EventID   string    `json:"eventId"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func New(userID, eventID string, now time.Time) (Favorite, error) {
	var errs apperr.List

	userID = strings.TrimSpace(userID)
	eventID = strings.TrimSpace(eventID)

	if userID == "" {
		errs.Add(ErrUserRequired)
	}
	if eventID == "" {
		errs.Add(ErrEventRequired)
	}

	if err := errs.Err(); err != nil {
		return Favorite{}, err
	}

	return Favorite{
		ID:        uuid.NewString(),
		UserID:    userID,
		EventID:   eventID,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (f Favorite) IsActive() bool {
	return f.Status == StatusActive
}

// Archive is the soft removal used by the toggle.
func (f *Favorite) Archive(now time.Time) error {
	switch f.Status {
	case StatusArchived:
		return ErrAlreadyArchived
	case StatusRemoved:
		return ErrAlreadyRemoved
	}

	f.Status = StatusArchived
	f.UpdatedAt = now
	return nil
}

func (f *Favorite) Restore(now time.Time) error {
	if f.Status != StatusArchived {
		return ErrNotArchived
	}

	f.Status = StatusActive
	f.UpdatedAt = now
	return nil
}

// Remove is final; a removed favorite is never restored.
func (f *Favorite) Remove(now time.Time) error {
	if f.Status == StatusRemoved {
		return ErrAlreadyRemoved
	}

	f.Status = StatusRemoved
	f.UpdatedAt = now
	return nil
}

// Repository stores favorites. GetByUserAndEvent returns the most recent
// non-removed favorite for the pair, or ErrNotFound. Add returns ErrDuplicate
// when an active favorite already exists for the pair.
type Repository interface {
	GetByUserAndEvent(ctx context.Context, userID, eventID string) (Favorite, error)
	Add(ctx context.Context, f Favorite) error
	Update(ctx context.Context, f Favorite) error
	ListByUser(ctx context.Context, userID string, status Status) ([]Favorite, error)
	CountActiveByEvent(ctx context.Context) (map[string]int, error)
	CountActiveForEvent(ctx context.Context, eventID string) (int, error)
}
