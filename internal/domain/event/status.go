package event

import "time"

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusPostponed Status = "postponed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusActive, StatusCompleted, StatusCancelled, StatusPostponed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsPubliclyVisible reports whether events in this status show up in public listings.
func (s Status) IsPubliclyVisible() bool {
	return s == StatusPublished || s == StatusActive
}

func PublicStatuses() []Status {
	return []Status{StatusPublished, StatusActive}
}

func OpenStatuses() []Status {
	return []Status{StatusDraft, StatusPublished, StatusActive, StatusPostponed}
}

type Type string

const (
	TypeGarageSale    Type = "garage_sale"
	TypeYardSale      Type = "yard_sale"
	TypeEstateSale    Type = "estate_sale"
	TypeMovingSale    Type = "moving_sale"
	TypeFleaMarket    Type = "flea_market"
	TypeCommunitySale Type = "community_sale"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeGarageSale, TypeYardSale, TypeEstateSale, TypeMovingSale, TypeFleaMarket, TypeCommunitySale:
		return true
	}
	return false
}

// MaxDuration is the longest a sale of this type may run. Types without a
// specific cap fall back to the date range limit.
func (t Type) MaxDuration() (time.Duration, bool) {
	const day = 24 * time.Hour

	switch t {
	case TypeGarageSale:
		return 3 * day, true
	case TypeEstateSale:
		return 5 * day, true
	case TypeFleaMarket:
		return 7 * day, true
	default:
		return 0, false
	}
}
