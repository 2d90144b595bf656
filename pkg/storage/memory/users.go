package memory

import (
	"context"

	"github.com/ndavault/ndavault/apierr"
	"github.com/ndavault/ndavault/pkg/storage"
)

type userStore struct{ s *Store }

func (u *userStore) Create(ctx context.Context, user *storage.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	if _, exists := u.s.byUsername[user.Username]; exists {
		return apierr.New(apierr.Conflict, "username already exists")
	}

	u.s.users[user.ID] = deepCopyUser(*user)
	u.s.byUsername[user.Username] = user.ID
	return nil
}

func (u *userStore) FindByUsername(ctx context.Context, username string) (*storage.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	id, ok := u.s.byUsername[username]
	if !ok {
		return nil, nil
	}
	user := deepCopyUser(u.s.users[id])
	return &user, nil
}

func (u *userStore) FindByID(ctx context.Context, id string) (*storage.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()

	user, ok := u.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := deepCopyUser(user)
	return &cp, nil
}

func deepCopyUser(u storage.User) storage.User {
	roles := make([]string, len(u.Roles))
	copy(roles, u.Roles)
	u.Roles = roles
	return u
}
