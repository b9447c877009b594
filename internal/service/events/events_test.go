package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/yardsale/internal/actorctx"
	"github.com/geocoder89/yardsale/internal/apperr"
	"github.com/geocoder89/yardsale/internal/clock"
	"github.com/geocoder89/yardsale/internal/domain/event"
	"github.com/geocoder89/yardsale/internal/domain/user"
	"github.com/geocoder89/yardsale/internal/observability"
	"github.com/geocoder89/yardsale/internal/repo/memory"
	"github.com/geocoder89/yardsale/internal/service/validation"
)

// Friday morning.
var now = time.Date(2026, 5, 15, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu    sync.Mutex
	names []string
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, de event.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names = append(p.names, de.Name())
	return p.err
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.names...)
}

type fixture struct {
	svc   *Service
	repo  *memory.EventsRepo
	pub   *recordingPublisher
	clock *clock.Fixed
}

func newFixture() fixture {
	users := memory.NewUsersRepo(
		user.User{ID: "org-1", Role: user.RoleUser, IsActive: true, EmailVerified: true},
		user.User{ID: "org-2", Role: user.RoleUser, IsActive: true, EmailVerified: true},
	)
	repo := memory.NewEventsRepo()
	pub := &recordingPublisher{}
	clk := clock.NewFixed(now)

	svc := New(repo, validation.New(users, repo, 0), pub, clk, observability.Discard(), nil)
	return fixture{svc: svc, repo: repo, pub: pub, clock: clk}
}

func member(id string) actorctx.Actor {
	return actorctx.Actor{UserID: id, Authenticated: true, Roles: []string{user.RoleUser}}
}

func params() event.CreateParams {
	return event.CreateParams{
		Title:        "Saturday garage sale",
		Description:  "Tools and garden furniture.",
		Type:         event.TypeGarageSale,
		StartDate:    now.Add(24 * time.Hour), // Saturday
		EndDate:      now.Add(32 * time.Hour),
		Latitude:     48.8566,
		Longitude:    2.3522,
		Street:       "3 Rue Oberkampf",
		City:         "Paris",
		PostalCode:   "75011",
		Country:      "France",
		ContactEmail: "org@example.com",
	}
}

func TestCreate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, actorctx.Anonymous(), params())
	assert.ErrorIs(t, err, validation.ErrUnauthenticated)

	p := params()
	p.OrganizerID = "someone-else"

	e, err := f.svc.Create(ctx, member("org-1"), p)
	require.NoError(t, err)
	assert.Equal(t, "org-1", e.OrganizerID())
	assert.Equal(t, event.StatusDraft, e.Status())

	stored, err := f.repo.GetByID(ctx, e.ID())
	require.NoError(t, err)
	assert.Equal(t, e.Title(), stored.Title())

	assert.Equal(t, []string{"event.created"}, f.pub.published())
}

func TestCreate_BusinessRulesAndConflicts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	monday := params()
	monday.StartDate = now.Add(3 * 24 * time.Hour)
	monday.EndDate = monday.StartDate.Add(4 * time.Hour)

	_, err := f.svc.Create(ctx, member("org-1"), monday)
	assert.ErrorIs(t, err, event.ErrGarageSaleWeekday)

	_, err = f.svc.Create(ctx, member("org-1"), params())
	require.NoError(t, err)

	// Same organizer, same spot, same hours.
	_, err = f.svc.Create(ctx, member("org-1"), params())
	assert.ErrorIs(t, err, event.ErrScheduleConflict)

	// A different organizer is not a conflict.
	_, err = f.svc.Create(ctx, member("org-2"), params())
	assert.NoError(t, err)
}

func TestGet_HidesUnpublishedFromStrangers(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e, err := f.svc.Create(ctx, member("org-1"), params())
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, actorctx.Anonymous(), e.ID())
	assert.ErrorIs(t, err, event.ErrNotFound)

	_, err = f.svc.Get(ctx, member("org-2"), e.ID())
	assert.ErrorIs(t, err, event.ErrNotFound)

	_, err = f.svc.Get(ctx, member("org-1"), e.ID())
	assert.NoError(t, err)

	mod := actorctx.Actor{UserID: "mod", Authenticated: true, Roles: []string{user.RoleModerator}}
	_, err = f.svc.Get(ctx, mod, e.ID())
	assert.NoError(t, err)

	_, err = f.svc.Publish(ctx, member("org-1"), e.ID())
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, actorctx.Anonymous(), e.ID())
	assert.NoError(t, err)
}

func TestPublish(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e, err := f.svc.Create(ctx, member("org-1"), params())
	require.NoError(t, err)

	_, err = f.svc.Publish(ctx, member("org-2"), e.ID())
	assert.ErrorIs(t, err, validation.ErrNotOrganizer)

	published, err := f.svc.Publish(ctx, member("org-1"), e.ID())
	require.NoError(t, err)
	assert.Equal(t, event.StatusPublished, published.Status())
	require.NotNil(t, published.PublishedAt())

	again, err := f.svc.Publish(ctx, member("org-1"), e.ID())
	require.NoError(t, err)
	assert.Equal(t, *published.PublishedAt(), *again.PublishedAt())

	assert.Equal(t, []string{"event.created", "event.published"}, f.pub.published())
}

func TestPublish_ReportsReadiness(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e, err := f.svc.Create(ctx, member("org-1"), params())
	require.NoError(t, err)

	f.clock.Advance(25 * time.Hour)

	_, err = f.svc.Publish(ctx, member("org-1"), e.ID())
	assert.ErrorIs(t, err, event.ErrAlreadyStarted)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e, err := f.svc.Create(ctx, member("org-1"), params())
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, member("org-1"), e.ID(), Update{
		Details: &Details{Title: "Big garage sale", Description: "Everything must go."},
		Contact: &Contact{Phone: "+33 1 23 45 67 89"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Big garage sale", updated.Title())
	assert.Equal(t, "+33 1 23 45 67 89", updated.Contact().Phone)

	_, err = f.svc.Update(ctx, member("org-1"), e.ID(), Update{
		Details: &Details{Title: "ab", Description: "x"},
	})
	assert.ErrorIs(t, err, event.ErrTitleLength)

	stored, err := f.repo.GetByID(ctx, e.ID())
	require.NoError(t, err)
	assert.Equal(t, "Big garage sale", stored.Title())

	_, err = f.svc.Publish(ctx, member("org-1"), e.ID())
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, member("org-1"), e.ID(), Update{
		Details: &Details{Title: "Changed", Description: "Changed"},
	})
	assert.ErrorIs(t, err, event.ErrCannotModifyPublishedEvent)
}

func TestCancel_SurvivesPublisherFailure(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e, err := f.svc.Create(ctx, member("org-1"), params())
	require.NoError(t, err)

	f.pub.err = errors.New("stream down")

	_, err = f.svc.Cancel(ctx, member("org-1"), e.ID(), "")
	assert.ErrorIs(t, err, event.ErrReasonRequired)

	cancelled, err := f.svc.Cancel(ctx, member("org-1"), e.ID(), "rain")
	require.NoError(t, err)
	assert.Equal(t, event.StatusCancelled, cancelled.Status())

	stored, err := f.repo.GetByID(ctx, e.ID())
	require.NoError(t, err)
	assert.Equal(t, "rain", stored.CancellationReason())

	_, err = f.svc.Cancel(ctx, member("org-1"), e.ID(), "again")
	assert.ErrorIs(t, err, event.ErrAlreadyCancelled)
}

// togglingRepo runs afterGet once, right after a command has loaded its event.
type togglingRepo struct {
	*memory.EventsRepo
	afterGet func(id string)
}

func (r *togglingRepo) GetByID(ctx context.Context, id string) (*event.Event, error) {
	e, err := r.EventsRepo.GetByID(ctx, id)
	if err == nil && r.afterGet != nil {
		hook := r.afterGet
		r.afterGet = nil
		hook(id)
	}
	return e, err
}

func TestCommandsKeepConcurrentFavoriteCount(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e, err := f.svc.Create(ctx, member("org-1"), params())
	require.NoError(t, err)
	_, err = f.svc.Publish(ctx, member("org-1"), e.ID())
	require.NoError(t, err)

	repo := &togglingRepo{EventsRepo: f.repo}
	users := memory.NewUsersRepo(user.User{ID: "org-1", Role: user.RoleUser, IsActive: true, EmailVerified: true})
	svc := New(repo, validation.New(users, repo, 0), f.pub, f.clock, observability.Discard(), nil)

	// a shopper's favorite commits between the command's read and its write
	repo.afterGet = func(id string) {
		require.NoError(t, f.repo.UpdateFavoriteCount(ctx, id, 1))
	}

	cancelled, err := svc.Cancel(ctx, member("org-1"), e.ID(), "rain")
	require.NoError(t, err)
	assert.Equal(t, event.StatusCancelled, cancelled.Status())

	stored, err := f.repo.GetByID(ctx, e.ID())
	require.NoError(t, err)
	assert.Equal(t, event.StatusCancelled, stored.Status())
	assert.Equal(t, 1, stored.FavoriteCount())
}

func TestPostpone(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e, err := f.svc.Create(ctx, member("org-1"), params())
	require.NoError(t, err)
	_, err = f.svc.Publish(ctx, member("org-1"), e.ID())
	require.NoError(t, err)

	next := Schedule{
		Start: now.Add(8 * 24 * time.Hour), // Saturday a week later
		End:   now.Add(8*24*time.Hour + 6*time.Hour),
	}

	postponed, err := f.svc.Postpone(ctx, member("org-1"), e.ID(), next, "venue unavailable")
	require.NoError(t, err)
	assert.Equal(t, event.StatusPostponed, postponed.Status())
	assert.True(t, postponed.DateRange().Start().Equal(next.Start))

	_, err = f.svc.Get(ctx, actorctx.Anonymous(), e.ID())
	assert.ErrorIs(t, err, event.ErrNotFound)

	republished, err := f.svc.Publish(ctx, member("org-1"), e.ID())
	require.NoError(t, err)
	assert.Equal(t, event.StatusPublished, republished.Status())

	assert.Contains(t, f.pub.published(), "event.postponed")
}

func TestDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	e, err := f.svc.Create(ctx, member("org-1"), params())
	require.NoError(t, err)

	err = f.svc.Delete(ctx, member("org-2"), e.ID())
	assert.ErrorIs(t, err, validation.ErrNotOrganizer)

	require.NoError(t, f.svc.Delete(ctx, member("org-1"), e.ID()))

	_, err = f.svc.Get(ctx, member("org-1"), e.ID())
	assert.ErrorIs(t, err, event.ErrNotFound)

	err = f.svc.Delete(ctx, member("org-1"), e.ID())
	assert.ErrorIs(t, err, event.ErrNotFound)
}

func TestList_PagesWithCursor(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		p := params()
		// One week apart so the same organizer never conflicts.
		p.StartDate = now.Add(time.Duration(1+7*i) * 24 * time.Hour)
		p.EndDate = p.StartDate.Add(6 * time.Hour)

		e, err := f.svc.Create(ctx, member("org-1"), p)
		require.NoError(t, err)
		_, err = f.svc.Publish(ctx, member("org-1"), e.ID())
		require.NoError(t, err)
		ids = append(ids, e.ID())
	}

	// Drafts never show up.
	_, err := f.svc.Create(ctx, member("org-2"), params())
	require.NoError(t, err)

	first, err := f.svc.List(ctx, ListQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotNil(t, first.Next)
	assert.Equal(t, ids[0], first.Items[0].ID())
	assert.Equal(t, ids[1], first.Items[1].ID())

	second, err := f.svc.List(ctx, ListQuery{Limit: 2, After: first.Next})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.Equal(t, ids[2], second.Items[0].ID())

	last, err := f.svc.List(ctx, ListQuery{Limit: 2, After: second.Next})
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	assert.Nil(t, last.Next)

	mine, err := f.svc.ListMine(ctx, member("org-2"), nil, 0)
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, event.StatusDraft, mine.Items[0].Status())

	_, err = f.svc.ListMine(ctx, actorctx.Anonymous(), nil, 0)
	assert.ErrorIs(t, err, validation.ErrUnauthenticated)
}
