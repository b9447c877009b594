package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/yardsale/internal/clock"
	"github.com/geocoder89/yardsale/internal/domain/event"
	"github.com/geocoder89/yardsale/internal/domain/transaction"
	"github.com/geocoder89/yardsale/internal/observability"
)

const DefaultBatchSize = 200

type Publisher interface {
	Publish(ctx context.Context, de event.DomainEvent) error
}

type FavoriteCounter interface {
	CountActiveByEvent(ctx context.Context) (map[string]int, error)
	CountActiveForEvent(ctx context.Context, eventID string) (int, error)
}

type Service struct {
	events    event.Repository
	favorites FavoriteCounter
	tx        transaction.Runner
	publisher Publisher
	clock     clock.Clock
	log       *slog.Logger
	prom      *observability.Prom
	batchSize int
}

func New(
	events event.Repository,
	favorites FavoriteCounter,
	tx transaction.Runner,
	publisher Publisher,
	clk clock.Clock,
	log *slog.Logger,
	prom *observability.Prom,
) *Service {
	return &Service{
		events:    events,
		favorites: favorites,
		tx:        tx,
		publisher: publisher,
		clock:     clk,
		log:       log,
		prom:      prom,
		batchSize: DefaultBatchSize,
	}
}

type SweepResult struct {
	Activated int
	Completed int
}

// Sweep moves published events that have started to Active and active events
// that have ended to Completed. An event that started and ended since the last
// sweep goes through both transitions at once.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	err := s.prom.ObserveSweep("lifecycle", func() error {
		now := s.clock.Now()
		due := now.Add(time.Nanosecond)

		return s.eachBatch(ctx, event.Filter{
			Statuses:     []event.Status{event.StatusPublished, event.StatusActive},
			StartsBefore: &due,
		}, func(e *event.Event) error {
			activated, completed, err := s.advance(ctx, e.ID(), now)
			if err != nil {
				return err
			}
			if activated {
				res.Activated++
			}
			if completed {
				res.Completed++
			}
			return nil
		})
	})
	if err != nil {
		return res, err
	}

	if res.Activated > 0 || res.Completed > 0 {
		s.log.InfoContext(ctx, "lifecycle sweep", "activated", res.Activated, "completed", res.Completed)
	}

	return res, nil
}

func (s *Service) advance(ctx context.Context, id string, now time.Time) (activated, completed bool, err error) {
	var changed *event.Event

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		e, err := s.events.GetByID(ctx, id)
		if err != nil {
			return err
		}

		activated = e.MarkAsActive(now)
		completed = e.MarkAsCompleted(now)
		if !activated && !completed {
			return nil
		}

		if err := s.events.Update(ctx, e); err != nil {
			return fmt.Errorf("update event %s: %w", id, err)
		}
		changed = e
		return nil
	})

	// Deleted between listing and loading.
	if errors.Is(err, event.ErrNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}

	if changed != nil {
		s.dispatch(ctx, changed)
	}

	return activated, completed, nil
}

// ReconcileFavoriteCounts rewrites each event's favorite counter from the
// active favorites in storage. It returns how many counters were corrected.
//
// The grouped count only picks candidates. Each candidate is recounted after
// its event row is locked, so a toggle committed since the grouped count is
// never overwritten.
func (s *Service) ReconcileFavoriteCounts(ctx context.Context) (int, error) {
	fixed := 0

	err := s.prom.ObserveSweep("favorites", func() error {
		counts, err := s.favorites.CountActiveByEvent(ctx)
		if err != nil {
			return fmt.Errorf("count favorites: %w", err)
		}

		return s.eachBatch(ctx, event.Filter{}, func(e *event.Event) error {
			if e.FavoriteCount() == counts[e.ID()] {
				return nil
			}

			var was, want int
			repaired := false

			err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
				cur, err := s.events.GetByID(ctx, e.ID())
				if err != nil {
					return err
				}

				n, err := s.favorites.CountActiveForEvent(ctx, e.ID())
				if err != nil {
					return fmt.Errorf("count favorites: %w", err)
				}

				was, want = cur.FavoriteCount(), n
				if was == want {
					return nil
				}

				if err := s.events.UpdateFavoriteCount(ctx, cur.ID(), want); err != nil {
					return err
				}
				repaired = true
				return nil
			})
			if errors.Is(err, event.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reconcile event %s: %w", e.ID(), err)
			}
			if !repaired {
				return nil
			}

			s.log.WarnContext(ctx, "favorite counter drift repaired",
				"event_id", e.ID(),
				"was", was,
				"now", want,
			)
			fixed++
			return nil
		})
	})

	return fixed, err
}

// eachBatch walks every event matching f in listing order using keyset pages.
func (s *Service) eachBatch(ctx context.Context, f event.Filter, fn func(*event.Event) error) error {
	f.Limit = s.batchSize

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := s.events.List(ctx, f)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}

		for _, e := range batch {
			if err := fn(e); err != nil {
				return err
			}
		}

		if len(batch) < f.Limit {
			return nil
		}

		next := event.CursorOf(batch[len(batch)-1])
		f.After = &next
	}
}

func (s *Service) dispatch(ctx context.Context, e *event.Event) {
	for _, de := range e.PullDomainEvents() {
		s.prom.IncTransition(de.Name())

		err := s.publisher.Publish(ctx, de)
		s.prom.IncOutbox(de.Name(), err)

		if err != nil {
			s.log.WarnContext(ctx, "publish domain event failed",
				"event", de.Name(),
				"aggregate_id", de.AggregateID(),
				"err", err,
			)
		}
	}
}
