package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/yardsale/internal/actorctx"
	"github.com/geocoder89/yardsale/internal/apperr"
	"github.com/geocoder89/yardsale/internal/clock"
	"github.com/geocoder89/yardsale/internal/domain/event"
	"github.com/geocoder89/yardsale/internal/domain/favorite"
	"github.com/geocoder89/yardsale/internal/domain/transaction"
	"github.com/geocoder89/yardsale/internal/observability"
	"github.com/geocoder89/yardsale/internal/service/validation"
)

const (
	ActionAdded   = "added"
	ActionRemoved = "removed"
)

var ErrEventNotFavoritable = apperr.Validation("Favorite.EventNotFavoritable", "only published or active events can be favorited")

type ToggleResult struct {
	IsFavorite bool   `json:"isFavorite"`
	Action     string `json:"action"`
}

type EventStore interface {
	GetByID(ctx context.Context, id string) (*event.Event, error)
	UpdateFavoriteCount(ctx context.Context, id string, count int) error
}

type Service struct {
	events    EventStore
	favorites favorite.Repository
	tx        transaction.Runner
	clock     clock.Clock
	log       *slog.Logger
	prom      *observability.Prom
}

func New(
	events EventStore,
	favorites favorite.Repository,
	tx transaction.Runner,
	clk clock.Clock,
	log *slog.Logger,
	prom *observability.Prom,
) *Service {
	return &Service{
		events:    events,
		favorites: favorites,
		tx:        tx,
		clock:     clk,
		log:       log,
		prom:      prom,
	}
}

// Toggle flips the actor's favorite on an event. The favorite row and the
// event's counter are written in the same unit of work.
func (s *Service) Toggle(ctx context.Context, actor actorctx.Actor, eventID string) (ToggleResult, error) {
	if !actor.Authenticated || actor.UserID == "" {
		return ToggleResult{}, validation.ErrUnauthenticated
	}

	var res ToggleResult

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		e, err := s.events.GetByID(ctx, eventID)
		if err != nil {
			return err
		}
		if !e.IsPubliclyVisible() {
			return ErrEventNotFavoritable
		}

		now := s.clock.Now()

		fav, err := s.favorites.GetByUserAndEvent(ctx, actor.UserID, eventID)
		switch {
		case errors.Is(err, favorite.ErrNotFound):
			fav, err = favorite.New(actor.UserID, eventID, now)
			if err != nil {
				return err
			}
			if err := s.favorites.Add(ctx, fav); err != nil {
				return err
			}
			e.IncrementFavoriteCount()
			res = ToggleResult{IsFavorite: true, Action: ActionAdded}

		case err != nil:
			return fmt.Errorf("load favorite: %w", err)

		case fav.IsActive():
			if err := fav.Archive(now); err != nil {
				return err
			}
			if err := s.favorites.Update(ctx, fav); err != nil {
				return err
			}
			e.DecrementFavoriteCount()
			res = ToggleResult{IsFavorite: false, Action: ActionRemoved}

		default:
			if err := fav.Restore(now); err != nil {
				return err
			}
			if err := s.favorites.Update(ctx, fav); err != nil {
				return err
			}
			e.IncrementFavoriteCount()
			res = ToggleResult{IsFavorite: true, Action: ActionAdded}
		}

		return s.events.UpdateFavoriteCount(ctx, e.ID(), e.FavoriteCount())
	})
	if err != nil {
		return ToggleResult{}, err
	}

	s.prom.IncFavoriteToggle(res.Action)
	s.log.DebugContext(ctx, "favorite toggled", "user_id", actor.UserID, "event_id", eventID, "action", res.Action)

	return res, nil
}

type Entry struct {
	Favorite favorite.Favorite
	Event    *event.Event
}

// ListMine returns the actor's active favorites, newest first. Favorites of
// events that have since been deleted are skipped.
func (s *Service) ListMine(ctx context.Context, actor actorctx.Actor) ([]Entry, error) {
	if !actor.Authenticated || actor.UserID == "" {
		return nil, validation.ErrUnauthenticated
	}

	favs, err := s.favorites.ListByUser(ctx, actor.UserID, favorite.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	out := make([]Entry, 0, len(favs))
	for _, f := range favs {
		e, err := s.events.GetByID(ctx, f.EventID)
		if errors.Is(err, event.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load favorite event: %w", err)
		}
		out = append(out, Entry{Favorite: f, Event: e})
	}

	return out, nil
}
