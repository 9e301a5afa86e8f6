package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vedran77/userdesk/internal/domain"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

// UserFields is a partial set of user columns. Nil fields are left untouched.
type UserFields struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

type UserRepository interface {
	Insert(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// FindByUsernameOrEmail returns any user whose username or email matches.
	// Empty arguments are ignored; excludeID (unless uuid.Nil) is skipped.
	FindByUsernameOrEmail(ctx context.Context, username, email string, excludeID uuid.UUID) (*domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	UpdateByID(ctx context.Context, id uuid.UUID, fields UserFields) (*domain.User, error)
	DeleteByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}
