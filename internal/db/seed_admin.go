package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/geocoder89/yardsale/internal/config"
	"github.com/geocoder89/yardsale/internal/domain/user"
	"github.com/geocoder89/yardsale/internal/security"
)

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) error
}

// EnsureAdminUser creates the operator account named in the config when it
// does not exist yet. It is a no-op without ADMIN_EMAIL and ADMIN_PASSWORD.
func EnsureAdminUser(ctx context.Context, users UserStore, cfg config.Config, log *slog.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	_, err := users.GetByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	err = users.Create(ctx, user.User{
		ID:            uuid.NewString(),
		Email:         cfg.AdminEmail,
		PasswordHash:  hash,
		Name:          cfg.AdminName,
		Role:          user.RoleAdmin,
		IsActive:      true,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	// Another instance seeded it first.
	if errors.Is(err, user.ErrEmailTaken) {
		return nil
	}
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "admin user created", "email", cfg.AdminEmail)
	return nil
}
