package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/yardsale/internal/domain/user"
	"github.com/geocoder89/yardsale/internal/observability"
)

const userColumns = `id, email, password_hash, name, role, is_active, email_verified, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// Create inserts a user. A taken email is reported as user.ErrEmailTaken.
func (r *UsersRepo) Create(ctx context.Context, u user.User) error {
	err := r.prom.ObserveDB("users.create", func() error {
		_, err := conn(ctx, r.pool).Exec(ctx,
			`INSERT INTO users (`+userColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.IsActive, u.EmailVerified, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})
	if isUniqueViolation(err, "users_email_key") {
		return user.ErrEmailTaken
	}
	return err
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, arg string) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB(op, func() error {
		return conn(ctx, r.pool).QueryRow(ctx, query, arg).Scan(
			&u.ID,
			&u.Email,
			&u.PasswordHash,
			&u.Name,
			&u.Role,
			&u.IsActive,
			&u.EmailVerified,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}
