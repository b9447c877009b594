package value

import (
	"time"

	"github.com/geocoder89/yardsale/internal/apperr"
)

const (
	// MaxPastStart is how far in the past a new range may begin.
	MaxPastStart = time.Hour
	// MaxRangeDuration caps the length of any range.
	MaxRangeDuration = 30 * 24 * time.Hour
)

var (
	ErrInvalidDateRange = apperr.Validation("DateRange.InvalidDateRange", "start date must be before end date")
	ErrStartDateInPast  = apperr.Validation("DateRange.StartDateInPast", "start date cannot be more than 1 hour in the past")
	ErrDurationTooLong  = apperr.Validation("DateRange.DurationTooLong", "date range cannot exceed 30 days")
)

// DateRange is an immutable window whose end instant still counts as inside:
// IsActive holds at end and HasEnded only after it. OverlapsWith treats two
// ranges that merely touch as not overlapping. The offsets of the original
// timestamps are kept; comparisons are instant based.
type DateRange struct {
	start time.Time
	end   time.Time
}

func NewDateRange(start, end, now time.Time) (DateRange, error) {
	var errs apperr.List

	if !start.Before(end) {
		errs.Add(ErrInvalidDateRange)
	}
	if start.Before(now.Add(-MaxPastStart)) {
		errs.Add(ErrStartDateInPast)
	}
	if end.Sub(start) > MaxRangeDuration {
		errs.Add(ErrDurationTooLong)
	}

	if err := errs.Err(); err != nil {
		return DateRange{}, err
	}

	return DateRange{start: start, end: end}, nil
}

// RestoreDateRange rebuilds a stored range. Creation-time rules (start not in
// the past) do not apply to data that was valid when it was written.
func RestoreDateRange(start, end time.Time) DateRange {
	return DateRange{start: start, end: end}
}

func (d DateRange) Start() time.Time { return d.start }
func (d DateRange) End() time.Time   { return d.end }

func (d DateRange) Duration() time.Duration {
	return d.end.Sub(d.start)
}

func (d DateRange) IsActive(now time.Time) bool {
	return !now.Before(d.start) && !now.After(d.end)
}

func (d DateRange) HasStarted(now time.Time) bool {
	return !now.Before(d.start)
}

func (d DateRange) HasEnded(now time.Time) bool {
	return now.After(d.end)
}

func (d DateRange) IsFuture(now time.Time) bool {
	return now.Before(d.start)
}

func (d DateRange) OverlapsWith(other DateRange) bool {
	return d.start.Before(other.end) && other.start.Before(d.end)
}

func (d DateRange) Equal(other DateRange) bool {
	return d.start.Equal(other.start) && d.end.Equal(other.end)
}

func (d DateRange) IsZero() bool {
	return d.start.IsZero() && d.end.IsZero()
}
