package actorctx

import (
	"context"

	"github.com/geocoder89/yardsale/internal/domain/user"
)

type ctxKey string

const keyActor ctxKey = "actor"

// Actor is the caller on whose behalf a request runs.
type Actor struct {
	UserID        string
	Email         string
	Authenticated bool
	Roles         []string
}

func Anonymous() Actor {
	return Actor{}
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a Actor) IsStaff() bool {
	for _, r := range a.Roles {
		if user.IsStaffRole(r) {
			return true
		}
	}
	return false
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, keyActor, a)
}

// ActorFrom returns the actor stored in ctx, or an anonymous one.
func ActorFrom(ctx context.Context) Actor {
	a, ok := ctx.Value(keyActor).(Actor)
	if !ok {
		return Anonymous()
	}
	return a
}

func WithUserID(ctx context.Context, userID string) context.Context {
	a := ActorFrom(ctx)
	a.UserID = userID
	a.Authenticated = userID != ""
	return WithActor(ctx, a)
}

func UserIDFrom(ctx context.Context) (string, bool) {
	a := ActorFrom(ctx)
	return a.UserID, a.Authenticated && a.UserID != ""
}
