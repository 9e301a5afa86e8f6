package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/userdesk/internal/domain"
	"github.com/vedran77/userdesk/internal/repository"
	"github.com/vedran77/userdesk/pkg/validator"
	"go.uber.org/zap"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

// Notifier broadcasts committed user changes to live clients.
type Notifier interface {
	NotifyUserCreated(user *domain.User)
	NotifyUserUpdated(user *domain.User)
	NotifyUserDeleted(id uuid.UUID)
}

type UserService struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepository, hasher PasswordHasher, log *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
		log:      log,
		now:      time.Now,
	}
}

// SetNotifier sets the live change feed (optional dependency).
func (s *UserService) SetNotifier(n Notifier) {
	s.notifier = n
}

type CreateUserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserInput holds the fields to change. Nil means "leave as is".
type UpdateUserInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	email := normalizeEmail(input.Email)

	if err := s.ensureUnique(ctx, username, email, uuid.Nil); err != nil {
		return nil, err
	}

	if errs := validator.ValidateCreateUser(username, email, input.Password); errs.HasErrors() {
		return nil, &ValidationError{Fields: errs}
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := s.timestamp()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Insert(ctx, user); err != nil {
		// The lookup above races with concurrent writers; the store's
		// unique index has the final say.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateUser
		}
		return nil, &StoreError{Op: "insert user", Err: err}
	}

	s.log.Info("user created", zap.String("id", user.ID.String()), zap.String("username", user.Username))

	public := user.Public()
	if s.notifier != nil {
		s.notifier.NotifyUserCreated(public)
	}
	return public, nil
}

func (s *UserService) GetAll(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list users", Err: err}
	}

	out := make([]domain.User, 0, len(users))
	for _, u := range users {
		out = append(out, *u.Public())
	}
	return out, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*domain.User, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	var fields repository.UserFields
	if input.Username != nil {
		v := strings.TrimSpace(*input.Username)
		fields.Username = &v
	}
	if input.Email != nil {
		v := normalizeEmail(*input.Email)
		fields.Email = &v
	}

	if fields.Username != nil || fields.Email != nil {
		if err := s.ensureUnique(ctx, deref(fields.Username), deref(fields.Email), current.ID); err != nil {
			return nil, err
		}
	}

	if errs := validator.ValidateUpdateUser(fields.Username, fields.Email, input.Password); errs.HasErrors() {
		return nil, &ValidationError{Fields: errs}
	}

	if input.Password != nil {
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		fields.PasswordHash = &hash
	}

	updated, err := s.userRepo.UpdateByID(ctx, id, fields)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDuplicateUser
		default:
			return nil, &StoreError{Op: "update user", Err: err}
		}
	}

	s.log.Info("user updated",
		zap.String("id", updated.ID.String()),
		zap.Bool("username_changed", fields.Username != nil),
		zap.Bool("email_changed", fields.Email != nil),
		zap.Bool("password_changed", fields.PasswordHash != nil),
	)

	public := updated.Public()
	if s.notifier != nil {
		s.notifier.NotifyUserUpdated(public)
	}
	return public, nil
}

func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.userRepo.DeleteByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return &StoreError{Op: "delete user", Err: err}
	}

	s.log.Info("user deleted", zap.String("id", deleted.ID.String()), zap.String("username", deleted.Username))

	if s.notifier != nil {
		s.notifier.NotifyUserDeleted(deleted.ID)
	}
	return nil
}

// VerifyCredentials checks password against the stored hash of user id.
func (s *UserService) VerifyCredentials(ctx context.Context, id uuid.UUID, password string) (bool, error) {
	user, err := s.find(ctx, id)
	if err != nil {
		return false, err
	}
	return s.hasher.Verify(password, user.PasswordHash), nil
}

func (s *UserService) find(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, &StoreError{Op: "find user", Err: err}
	}
	return user, nil
}

// ensureUnique rejects the write if another user already holds username or email.
func (s *UserService) ensureUnique(ctx context.Context, username, email string, excludeID uuid.UUID) error {
	_, err := s.userRepo.FindByUsernameOrEmail(ctx, username, email, excludeID)
	switch {
	case err == nil:
		return ErrDuplicateUser
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return &StoreError{Op: "check duplicate user", Err: err}
	}
}

// timestamp is truncated to the precision PostgreSQL keeps.
func (s *UserService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
