// Package memory is a process-local user store. Uniqueness of username and
// email is checked and written under one lock, so concurrent writers cannot
// both pass the constraint.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/userdesk/internal/domain"
	"github.com/vedran77/userdesk/internal/repository"
)

type UserRepo struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
	now   func() time.Time
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		users: make(map[uuid.UUID]domain.User),
		now:   time.Now,
	}
}

var _ repository.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Insert(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return fmt.Errorf("%w: users_pkey", repository.ErrDuplicate)
	}
	if err := r.checkUniqueLocked(user.Username, user.Email, uuid.Nil); err != nil {
		return err
	}

	r.users[user.ID] = *user
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepo) FindByUsernameOrEmail(ctx context.Context, username, email string, excludeID uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.sortedLocked() {
		if u.ID == excludeID {
			continue
		}
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepo) FindAll(ctx context.Context) ([]domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedLocked(), nil
}

func (r *UserRepo) UpdateByID(ctx context.Context, id uuid.UUID, fields repository.UserFields) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	if fields.Username != nil {
		u.Username = *fields.Username
	}
	if fields.Email != nil {
		u.Email = *fields.Email
	}
	if fields.PasswordHash != nil {
		u.PasswordHash = *fields.PasswordHash
	}
	if err := r.checkUniqueLocked(u.Username, u.Email, id); err != nil {
		return nil, err
	}

	u.UpdatedAt = r.now().UTC().Truncate(time.Microsecond)
	r.users[id] = u
	return &u, nil
}

func (r *UserRepo) DeleteByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.users, id)
	return &u, nil
}

func (r *UserRepo) checkUniqueLocked(username, email string, excludeID uuid.UUID) error {
	for id, u := range r.users {
		if id == excludeID {
			continue
		}
		if u.Username == username {
			return fmt.Errorf("%w: users_username_key", repository.ErrDuplicate)
		}
		if u.Email == email {
			return fmt.Errorf("%w: users_email_key", repository.ErrDuplicate)
		}
	}
	return nil
}

func (r *UserRepo) sortedLocked() []domain.User {
	users := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID.String() < users[j].ID.String()
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users
}
