package event

import "time"

// DomainEvent is a fact recorded by the aggregate and published after the
// change has been persisted.
type DomainEvent interface {
	Name() string
	AggregateID() string
	OccurredAt() time.Time
}

type Created struct {
	EventID     string    `json:"event_id"`
	OrganizerID string    `json:"organizer_id"`
	At          time.Time `json:"at"`
}

func (e Created) Name() string          { return "event.created" }
func (e Created) AggregateID() string   { return e.EventID }
func (e Created) OccurredAt() time.Time { return e.At }

type Published struct {
	EventID string    `json:"event_id"`
	At      time.Time `json:"at"`
}

func (e Published) Name() string          { return "event.published" }
func (e Published) AggregateID() string   { return e.EventID }
func (e Published) OccurredAt() time.Time { return e.At }

type Activated struct {
	EventID string    `json:"event_id"`
	At      time.Time `json:"at"`
}

func (e Activated) Name() string          { return "event.activated" }
func (e Activated) AggregateID() string   { return e.EventID }
func (e Activated) OccurredAt() time.Time { return e.At }

type Completed struct {
	EventID string    `json:"event_id"`
	At      time.Time `json:"at"`
}

func (e Completed) Name() string          { return "event.completed" }
func (e Completed) AggregateID() string   { return e.EventID }
func (e Completed) OccurredAt() time.Time { return e.At }

type Cancelled struct {
	EventID string    `json:"event_id"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}

func (e Cancelled) Name() string          { return "event.cancelled" }
func (e Cancelled) AggregateID() string   { return e.EventID }
func (e Cancelled) OccurredAt() time.Time { return e.At }

type Postponed struct {
	EventID      string    `json:"event_id"`
	OldStartDate time.Time `json:"old_start_date"`
	OldEndDate   time.Time `json:"old_end_date"`
	NewStartDate time.Time `json:"new_start_date"`
	NewEndDate   time.Time `json:"new_end_date"`
	Reason       string    `json:"reason"`
	At           time.Time `json:"at"`
}

func (e Postponed) Name() string          { return "event.postponed" }
func (e Postponed) AggregateID() string   { return e.EventID }
func (e Postponed) OccurredAt() time.Time { return e.At }
