package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/yardsale/internal/domain/event"
	"github.com/geocoder89/yardsale/internal/domain/favorite"
)

var now = time.Date(2026, 5, 15, 9, 0, 0, 0, time.UTC)

func newEvent(t *testing.T, startIn time.Duration) *event.Event {
	t.Helper()

	e, err := event.Create(event.CreateParams{
		Title:        "Street sale",
		Type:         event.TypeYardSale,
		StartDate:    now.Add(startIn),
		EndDate:      now.Add(startIn + 6*time.Hour),
		Latitude:     48.8566,
		Longitude:    2.3522,
		Street:       "1 Rue de Rivoli",
		City:         "Paris",
		PostalCode:   "75001",
		Country:      "France",
		ContactPhone: "+33 1 23 45 67 89",
		OrganizerID:  "org-1",
	}, now)
	require.NoError(t, err)
	return e
}

func TestEventsRepo_RoundTripIsolated(t *testing.T) {
	ctx := context.Background()
	repo := NewEventsRepo()
	e := newEvent(t, time.Hour)

	require.NoError(t, repo.Add(ctx, e))
	assert.Error(t, repo.Add(ctx, e))

	got, err := repo.GetByID(ctx, e.ID())
	require.NoError(t, err)
	got.IncrementFavoriteCount()

	again, err := repo.GetByID(ctx, e.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, again.FavoriteCount(), "unsaved changes must not leak")

	require.NoError(t, got.SoftDelete(now))
	require.NoError(t, repo.Delete(ctx, got))

	_, err = repo.GetByID(ctx, e.ID())
	assert.ErrorIs(t, err, event.ErrNotFound)
}

func TestEventsRepo_UpdateLeavesFavoriteCount(t *testing.T) {
	ctx := context.Background()
	repo := NewEventsRepo()
	e := newEvent(t, time.Hour)
	require.NoError(t, repo.Add(ctx, e))

	stale, err := repo.GetByID(ctx, e.ID())
	require.NoError(t, err)

	require.NoError(t, repo.UpdateFavoriteCount(ctx, e.ID(), 3))
	require.NoError(t, repo.Update(ctx, stale))

	got, err := repo.GetByID(ctx, e.ID())
	require.NoError(t, err)
	assert.Equal(t, 3, got.FavoriteCount())

	require.NoError(t, repo.UpdateFavoriteCount(ctx, e.ID(), -2))
	got, err = repo.GetByID(ctx, e.ID())
	require.NoError(t, err)
	assert.Zero(t, got.FavoriteCount())

	assert.ErrorIs(t, repo.UpdateFavoriteCount(ctx, "missing", 1), event.ErrNotFound)
}

func TestEventsRepo_ListOrderAndPaging(t *testing.T) {
	ctx := context.Background()
	repo := NewEventsRepo()

	late := newEvent(t, 5*time.Hour)
	early := newEvent(t, time.Hour)
	mid := newEvent(t, 3*time.Hour)
	for _, e := range []*event.Event{late, early, mid} {
		require.NoError(t, repo.Add(ctx, e))
	}

	all, err := repo.List(ctx, event.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{early.ID(), mid.ID(), late.ID()}, []string{all[0].ID(), all[1].ID(), all[2].ID()})

	page, err := repo.List(ctx, event.Filter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, mid.ID(), page[0].ID())

	cur := event.CursorOf(mid)
	rest, err := repo.List(ctx, event.Filter{After: &cur})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, late.ID(), rest[0].ID())

	n, err := repo.Count(ctx, event.Filter{Statuses: []event.Status{event.StatusDraft}})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestFavoritesRepo_OneActivePerPair(t *testing.T) {
	ctx := context.Background()
	repo := NewFavoritesRepo()

	first, err := favorite.New("u1", "e1", now)
	require.NoError(t, err)
	require.NoError(t, repo.Add(ctx, first))

	dup, err := favorite.New("u1", "e1", now)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Add(ctx, dup), favorite.ErrDuplicate)

	require.NoError(t, first.Archive(now.Add(time.Minute)))
	require.NoError(t, repo.Update(ctx, first))
	require.NoError(t, repo.Add(ctx, dup))

	require.NoError(t, first.Restore(now.Add(2*time.Minute)))
	assert.ErrorIs(t, repo.Update(ctx, first), favorite.ErrDuplicate)

	got, err := repo.GetByUserAndEvent(ctx, "u1", "e1")
	require.NoError(t, err)
	assert.Equal(t, dup.ID, got.ID)

	counts, err := repo.CountActiveByEvent(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"e1": 1}, counts)

	_, err = repo.GetByUserAndEvent(ctx, "u2", "e1")
	assert.ErrorIs(t, err, favorite.ErrNotFound)
}

func TestTxRunner_SerializesAndNests(t *testing.T) {
	runner := NewTxRunner()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		active  int
		maxSeen int
		mu      sync.Mutex
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = runner.WithinTx(ctx, func(ctx context.Context) error {
				mu.Lock()
				active++
				maxSeen = max(maxSeen, active)
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()

				// nested calls join the outer unit instead of deadlocking
				return runner.WithinTx(ctx, func(context.Context) error { return nil })
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
}

func TestTxRunner_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	events := NewEventsRepo()
	favs := NewFavoritesRepo()
	runner := NewTxRunner(events, favs)

	e := newEvent(t, time.Hour)
	require.NoError(t, events.Add(ctx, e))

	failed := errors.New("event write failed")
	err := runner.WithinTx(ctx, func(ctx context.Context) error {
		fav, err := favorite.New("u1", e.ID(), now)
		require.NoError(t, err)
		require.NoError(t, favs.Add(ctx, fav))
		require.NoError(t, events.UpdateFavoriteCount(ctx, e.ID(), 1))
		return failed
	})
	require.ErrorIs(t, err, failed)

	_, err = favs.GetByUserAndEvent(ctx, "u1", e.ID())
	assert.ErrorIs(t, err, favorite.ErrNotFound)

	got, err := events.GetByID(ctx, e.ID())
	require.NoError(t, err)
	assert.Zero(t, got.FavoriteCount())

	// a successful unit keeps its writes
	require.NoError(t, runner.WithinTx(ctx, func(ctx context.Context) error {
		return events.UpdateFavoriteCount(ctx, e.ID(), 2)
	}))
	got, err = events.GetByID(ctx, e.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, got.FavoriteCount())
}
