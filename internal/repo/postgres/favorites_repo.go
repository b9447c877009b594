package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/yardsale/internal/domain/favorite"
	"github.com/geocoder89/yardsale/internal/observability"
)

// favorites_one_active_uniq is a partial unique index on (user_id, event_id)
// WHERE status = 'active'.
const favoritesActiveConstraint = "favorites_one_active_uniq"

type FavoritesRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewFavoritesRepo(pool *pgxpool.Pool, prom *observability.Prom) *FavoritesRepo {
	return &FavoritesRepo{
		pool: pool,
		prom: prom,
	}
}

// GetByUserAndEvent prefers the active row, then the most recent archived one.
// Removed rows are never returned.
func (r *FavoritesRepo) GetByUserAndEvent(ctx context.Context, userID, eventID string) (favorite.Favorite, error) {
	var f favorite.Favorite
	var status string

	err := r.prom.ObserveDB("favorites.get_by_user_and_event", func() error {
		return conn(ctx, r.pool).QueryRow(ctx,
			`SELECT id, user_id, event_id, status, created_at, updated_at
			FROM favorites
			WHERE user_id = $1 AND event_id = $2 AND status <> 'removed'
			ORDER BY (status = 'active') DESC, updated_at DESC
			LIMIT 1
			FOR UPDATE`,
			userID, eventID,
		).Scan(&f.ID, &f.UserID, &f.EventID, &status, &f.CreatedAt, &f.UpdatedAt)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return favorite.Favorite{}, favorite.ErrNotFound
		}
		return favorite.Favorite{}, err
	}

	f.Status = favorite.Status(status)
	return f, nil
}

func (r *FavoritesRepo) Add(ctx context.Context, f favorite.Favorite) error {
	err := r.prom.ObserveDB("favorites.add", func() error {
		_, err := conn(ctx, r.pool).Exec(ctx,
			`INSERT INTO favorites (id, user_id, event_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			f.ID, f.UserID, f.EventID, string(f.Status), f.CreatedAt, f.UpdatedAt,
		)
		return err
	})
	if isUniqueViolation(err, favoritesActiveConstraint) {
		return favorite.ErrDuplicate
	}
	return err
}

func (r *FavoritesRepo) Update(ctx context.Context, f favorite.Favorite) error {
	var rows int64

	err := r.prom.ObserveDB("favorites.update", func() error {
		tag, err := conn(ctx, r.pool).Exec(ctx,
			`UPDATE favorites SET status = $2, updated_at = $3 WHERE id = $1`,
			f.ID, string(f.Status), f.UpdatedAt,
		)
		if err != nil {
			return err
		}
		rows = tag.RowsAffected()
		return nil
	})
	if isUniqueViolation(err, favoritesActiveConstraint) {
		return favorite.ErrDuplicate
	}
	if err != nil {
		return err
	}

	if rows == 0 {
		return favorite.ErrNotFound
	}
	return nil
}

func (r *FavoritesRepo) ListByUser(ctx context.Context, userID string, status favorite.Status) ([]favorite.Favorite, error) {
	var out []favorite.Favorite

	err := r.prom.ObserveDB("favorites.list_by_user", func() error {
		rows, err := conn(ctx, r.pool).Query(ctx,
			`SELECT id, user_id, event_id, status, created_at, updated_at
			FROM favorites
			WHERE user_id = $1 AND status = $2
			ORDER BY created_at DESC, id DESC`,
			userID, string(status),
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var f favorite.Favorite
			var s string
			if err := rows.Scan(&f.ID, &f.UserID, &f.EventID, &s, &f.CreatedAt, &f.UpdatedAt); err != nil {
				return err
			}
			f.Status = favorite.Status(s)
			out = append(out, f)
		}
		return rows.Err()
	})

	return out, err
}

func (r *FavoritesRepo) CountActiveByEvent(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)

	err := r.prom.ObserveDB("favorites.count_active_by_event", func() error {
		rows, err := conn(ctx, r.pool).Query(ctx,
			`SELECT event_id, COUNT(*) FROM favorites WHERE status = 'active' GROUP BY event_id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			var n int
			if err := rows.Scan(&id, &n); err != nil {
				return err
			}
			counts[id] = n
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return counts, nil
}

func (r *FavoritesRepo) CountActiveForEvent(ctx context.Context, eventID string) (int, error) {
	var n int

	err := r.prom.ObserveDB("favorites.count_active_for_event", func() error {
		return conn(ctx, r.pool).QueryRow(ctx,
			`SELECT COUNT(*) FROM favorites WHERE event_id = $1 AND status = 'active'`,
			eventID,
		).Scan(&n)
	})
	if err != nil {
		return 0, err
	}

	return n, nil
}
