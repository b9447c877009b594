package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/geocoder89/yardsale/internal/domain/favorite"
)

// FavoritesRepo mirrors the partial unique index of the postgres schema: at
// most one active favorite per (user, event).
type FavoritesRepo struct {
	mu    sync.RWMutex
	items map[string]favorite.Favorite
}

func NewFavoritesRepo() *FavoritesRepo {
	return &FavoritesRepo{
		items: make(map[string]favorite.Favorite),
	}
}

func (r *FavoritesRepo) GetByUserAndEvent(_ context.Context, userID, eventID string) (favorite.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// an active favorite wins over any archived one
	var (
		found favorite.Favorite
		ok    bool
	)
	for _, f := range r.items {
		if f.UserID != userID || f.EventID != eventID || f.Status == favorite.StatusRemoved {
			continue
		}
		if f.IsActive() {
			return f, nil
		}
		if !ok || f.UpdatedAt.After(found.UpdatedAt) {
			found, ok = f, true
		}
	}

	if !ok {
		return favorite.Favorite{}, favorite.ErrNotFound
	}
	return found, nil
}

func (r *FavoritesRepo) Add(_ context.Context, f favorite.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f.IsActive() && r.hasOtherActive(f) {
		return favorite.ErrDuplicate
	}

	r.items[f.ID] = f
	return nil
}

func (r *FavoritesRepo) Update(_ context.Context, f favorite.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[f.ID]; !ok {
		return favorite.ErrNotFound
	}
	if f.IsActive() && r.hasOtherActive(f) {
		return favorite.ErrDuplicate
	}

	r.items[f.ID] = f
	return nil
}

func (r *FavoritesRepo) ListByUser(_ context.Context, userID string, status favorite.Status) ([]favorite.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]favorite.Favorite, 0)
	for _, f := range r.items {
		if f.UserID == userID && f.Status == status {
			out = append(out, f)
		}
	}

	// newest first
	slices.SortFunc(out, func(a, b favorite.Favorite) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out, nil
}

func (r *FavoritesRepo) CountActiveByEvent(_ context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, f := range r.items {
		if f.IsActive() {
			counts[f.EventID]++
		}
	}
	return counts, nil
}

func (r *FavoritesRepo) CountActiveForEvent(_ context.Context, eventID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, f := range r.items {
		if f.EventID == eventID && f.IsActive() {
			n++
		}
	}
	return n, nil
}

func (r *FavoritesRepo) Checkpoint() func() {
	r.mu.RLock()
	saved := maps.Clone(r.items)
	r.mu.RUnlock()

	return func() {
		r.mu.Lock()
		r.items = saved
		r.mu.Unlock()
	}
}

func (r *FavoritesRepo) hasOtherActive(f favorite.Favorite) bool {
	for id, other := range r.items {
		if id != f.ID && other.UserID == f.UserID && other.EventID == f.EventID && other.IsActive() {
			return true
		}
	}
	return false
}
