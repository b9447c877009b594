package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/yardsale/internal/domain/user"
)

type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
}

func NewUsersRepo(users ...user.User) *UsersRepo {
	r := &UsersRepo{items: make(map[string]user.User, len(users))}
	for _, u := range users {
		r.items[u.ID] = u
	}
	return r
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) Put(u user.User) {
	r.mu.Lock()
	r.items[u.ID] = u
	r.mu.Unlock()
}
