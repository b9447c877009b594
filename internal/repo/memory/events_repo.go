package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/geocoder89/yardsale/internal/apperr"
	"github.com/geocoder89/yardsale/internal/domain/event"
)

var errDuplicateID = apperr.Conflict("Event.DuplicateID", "an event with this id already exists")

// EventsRepo keeps snapshots so callers never share aggregate pointers.
type EventsRepo struct {
	mu    sync.RWMutex
	items map[string]event.Snapshot
}

func NewEventsRepo() *EventsRepo {
	return &EventsRepo{
		items: make(map[string]event.Snapshot),
	}
}

func (r *EventsRepo) GetByID(_ context.Context, id string) (*event.Event, error) {
	r.mu.RLock()
	s, ok := r.items[id]
	r.mu.RUnlock()

	if !ok || s.IsDeleted {
		return nil, event.ErrNotFound
	}

	return event.Restore(s)
}

func (r *EventsRepo) Add(_ context.Context, e *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[e.ID()]; ok {
		return errDuplicateID
	}

	r.items[e.ID()] = e.Snapshot()
	return nil
}

func (r *EventsRepo) Update(_ context.Context, e *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.items[e.ID()]
	if !ok {
		return event.ErrNotFound
	}

	s := e.Snapshot()
	s.FavoriteCount = cur.FavoriteCount
	r.items[e.ID()] = s
	return nil
}

func (r *EventsRepo) UpdateFavoriteCount(_ context.Context, id string, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.items[id]
	if !ok || s.IsDeleted {
		return event.ErrNotFound
	}

	s.FavoriteCount = max(count, 0)
	r.items[id] = s
	return nil
}

func (r *EventsRepo) Checkpoint() func() {
	r.mu.RLock()
	saved := maps.Clone(r.items)
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.items = saved
		r.mu.Unlock()
	}
}

// Delete stores the soft-deleted state. Rows are never removed.
func (r *EventsRepo) Delete(ctx context.Context, e *event.Event) error {
	return r.Update(ctx, e)
}

func (r *EventsRepo) List(_ context.Context, f event.Filter) ([]*event.Event, error) {
	matched, err := r.match(f)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(matched, func(a, b *event.Event) int {
		if c := a.DateRange().Start().Compare(b.DateRange().Start()); c != 0 {
			return c
		}
		return strings.Compare(a.ID(), b.ID())
	})

	if f.Offset > 0 {
		if f.Offset >= len(matched) {
			return []*event.Event{}, nil
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}

	return matched, nil
}

func (r *EventsRepo) Count(_ context.Context, f event.Filter) (int, error) {
	matched, err := r.match(f)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

func (r *EventsRepo) match(f event.Filter) ([]*event.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*event.Event, 0)
	for _, s := range r.items {
		e, err := event.Restore(s)
		if err != nil {
			return nil, err
		}
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}
