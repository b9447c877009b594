package event

import (
	"time"

	"github.com/geocoder89/yardsale/internal/apperr"
	"github.com/geocoder89/yardsale/internal/domain/value"
)

// Publish moves a draft or postponed event into public listings. Publishing an
// already published event succeeds and leaves it untouched.
func (e *Event) Publish(now time.Time) error {
	switch e.status {
	case StatusPublished:
		return nil
	case StatusDraft, StatusPostponed:
	case StatusCancelled:
		return ErrAlreadyCancelled
	default:
		return ErrCannotPublish
	}

	e.status = StatusPublished
	if e.publishedAt == nil {
		e.publishedAt = &now
	}
	e.touch(now)
	e.raise(Published{EventID: e.id, At: now})
	return nil
}

// MarkAsActive is driven by the clock. It reports whether the event changed.
func (e *Event) MarkAsActive(now time.Time) bool {
	if e.status != StatusPublished || !e.dateRange.HasStarted(now) {
		return false
	}

	e.status = StatusActive
	e.touch(now)
	e.raise(Activated{EventID: e.id, At: now})
	return true
}

// MarkAsCompleted is driven by the clock. It reports whether the event changed.
func (e *Event) MarkAsCompleted(now time.Time) bool {
	if e.status != StatusActive || !e.dateRange.HasEnded(now) {
		return false
	}

	e.status = StatusCompleted
	e.touch(now)
	e.raise(Completed{EventID: e.id, At: now})
	return true
}

func (e *Event) Cancel(reason string, now time.Time) error {
	switch e.status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusCompleted:
		return ErrCannotCancelCompleted
	}

	r, err := validateReason(reason)
	if err != nil {
		return err
	}

	e.status = StatusCancelled
	e.cancellationReason = r
	e.touch(now)
	e.raise(Cancelled{EventID: e.id, Reason: r, At: now})
	return nil
}

// Postpone replaces the schedule. The event stays out of public listings
// until it is published again.
func (e *Event) Postpone(start, end time.Time, reason string, now time.Time) error {
	switch e.status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusCompleted:
		return ErrCannotPostponeCompleted
	}

	var errs apperr.List

	dr, err := value.NewDateRange(start, end, now)
	errs.Extend(err)

	r, err := validateReason(reason)
	errs.Extend(err)

	if err := errs.Err(); err != nil {
		return err
	}

	old := e.dateRange
	e.dateRange = dr
	e.status = StatusPostponed
	e.touch(now)
	e.raise(Postponed{
		EventID:      e.id,
		OldStartDate: old.Start(),
		OldEndDate:   old.End(),
		NewStartDate: dr.Start(),
		NewEndDate:   dr.End(),
		Reason:       r,
		At:           now,
	})
	return nil
}

// IsEditable reports whether organizers may still change the event at all.
func (e *Event) IsEditable() bool {
	return !e.deleted && e.status != StatusCompleted
}
