package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/yardsale/internal/clock"
	"github.com/geocoder89/yardsale/internal/domain/event"
	"github.com/geocoder89/yardsale/internal/domain/favorite"
	"github.com/geocoder89/yardsale/internal/observability"
	"github.com/geocoder89/yardsale/internal/repo/memory"
)

var now = time.Date(2026, 5, 15, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu    sync.Mutex
	names []string
}

func (p *recordingPublisher) Publish(_ context.Context, de event.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names = append(p.names, de.Name())
	return nil
}

type fixture struct {
	svc    *Service
	events *memory.EventsRepo
	favs   *memory.FavoritesRepo
	pub    *recordingPublisher
	clock  *clock.Fixed
}

func newFixture() fixture {
	events := memory.NewEventsRepo()
	favs := memory.NewFavoritesRepo()
	pub := &recordingPublisher{}
	clk := clock.NewFixed(now)

	svc := New(events, favs, memory.NewTxRunner(events, favs), pub, clk, observability.Discard(), nil)
	svc.batchSize = 2
	return fixture{svc: svc, events: events, favs: favs, pub: pub, clock: clk}
}

func (f fixture) seed(t *testing.T, startIn, length time.Duration, publish bool) string {
	t.Helper()

	e, err := event.Create(event.CreateParams{
		Title:        "Moving sale",
		Description:  "Sofa, books, kitchen.",
		Type:         event.TypeMovingSale,
		StartDate:    f.clock.Now().Add(startIn),
		EndDate:      f.clock.Now().Add(startIn + length),
		Latitude:     50.8503,
		Longitude:    4.3517,
		Street:       "Rue Neuve 1",
		City:         "Brussels",
		PostalCode:   "1000",
		Country:      "Belgium",
		ContactPhone: "+32 2 123 45 67",
		OrganizerID:  "org-1",
	}, f.clock.Now())
	require.NoError(t, err)

	if publish {
		require.NoError(t, e.Publish(f.clock.Now()))
		e.PullDomainEvents()
	}

	require.NoError(t, f.events.Add(context.Background(), e))
	return e.ID()
}

func (f fixture) status(t *testing.T, id string) event.Status {
	t.Helper()
	e, err := f.events.GetByID(context.Background(), id)
	require.NoError(t, err)
	return e.Status()
}

func TestSweep_ActivatesThenCompletes(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var published []string
	for i := 0; i < 3; i++ {
		published = append(published, f.seed(t, time.Hour, 2*time.Hour, true))
	}
	draft := f.seed(t, time.Hour, 2*time.Hour, false)
	later := f.seed(t, 48*time.Hour, 2*time.Hour, true)

	res, err := f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)

	f.clock.Advance(90 * time.Minute)

	res, err = f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Activated: 3}, res)
	for _, id := range published {
		assert.Equal(t, event.StatusActive, f.status(t, id))
	}
	assert.Equal(t, event.StatusDraft, f.status(t, draft))
	assert.Equal(t, event.StatusPublished, f.status(t, later))

	// A second sweep at the same instant changes nothing.
	res, err = f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, res)

	f.clock.Advance(2 * time.Hour)

	res, err = f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Completed: 3}, res)
	for _, id := range published {
		assert.Equal(t, event.StatusCompleted, f.status(t, id))
	}

	assert.Len(t, f.pub.names, 6)
}

func TestSweep_StartAndEndMissedTogether(t *testing.T) {
	f := newFixture()
	id := f.seed(t, time.Hour, time.Hour, true)

	f.clock.Advance(5 * time.Hour)

	res, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Activated: 1, Completed: 1}, res)
	assert.Equal(t, event.StatusCompleted, f.status(t, id))
	assert.Equal(t, []string{"event.activated", "event.completed"}, f.pub.names)
}

func TestReconcileFavoriteCounts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first := f.seed(t, time.Hour, time.Hour, true)
	second := f.seed(t, 2*time.Hour, time.Hour, true)

	for _, u := range []string{"u1", "u2"} {
		fav, err := favorite.New(u, first, now)
		require.NoError(t, err)
		require.NoError(t, f.favs.Add(ctx, fav))
	}

	// Drift: the second event claims favorites it does not have.
	require.NoError(t, f.events.UpdateFavoriteCount(ctx, second, 4))

	fixed, err := f.svc.ReconcileFavoriteCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fixed)

	got, err := f.events.GetByID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 2, got.FavoriteCount())

	got, err = f.events.GetByID(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 0, got.FavoriteCount())

	fixed, err = f.svc.ReconcileFavoriteCounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, fixed)
}

// racingCounter lets a favorite toggle commit right after the grouped count
// has been taken.
type racingCounter struct {
	*memory.FavoritesRepo
	afterCount func()
}

func (c *racingCounter) CountActiveByEvent(ctx context.Context) (map[string]int, error) {
	counts, err := c.FavoritesRepo.CountActiveByEvent(ctx)
	if c.afterCount != nil {
		c.afterCount()
	}
	return counts, err
}

func TestReconcileFavoriteCounts_KeepsToggleAfterSnapshot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	id := f.seed(t, time.Hour, time.Hour, true)

	counter := &racingCounter{FavoritesRepo: f.favs}
	counter.afterCount = func() {
		fav, err := favorite.New("u1", id, now)
		require.NoError(t, err)
		require.NoError(t, f.favs.Add(ctx, fav))
		require.NoError(t, f.events.UpdateFavoriteCount(ctx, id, 1))
	}

	svc := New(f.events, counter, memory.NewTxRunner(f.events, f.favs), f.pub, f.clock, observability.Discard(), nil)

	fixed, err := svc.ReconcileFavoriteCounts(ctx)
	require.NoError(t, err)
	assert.Zero(t, fixed)

	got, err := f.events.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, got.FavoriteCount())
}
