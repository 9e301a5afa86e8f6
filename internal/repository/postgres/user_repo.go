package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vedran77/userdesk/internal/domain"
	"github.com/vedran77/userdesk/internal/repository"
)

// DBTX is the subset of database/sql the repos need; *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const userColumns = `id, username, email, password_hash, created_at, updated_at`

type UserRepo struct {
	db  DBTX
	now func() time.Time
}

func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{db: db, now: time.Now}
}

var _ repository.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Insert(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Username, user.Email,
		user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", mapError(err))
	}
	return nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepo) FindByUsernameOrEmail(ctx context.Context, username, email string, excludeID uuid.UUID) (*domain.User, error) {
	if username == "" && email == "" {
		return nil, repository.ErrNotFound
	}

	// uuid.Nil never names a stored row, so it doubles as "exclude nothing".
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE (($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2))
		  AND id <> $3
		LIMIT 1`

	return r.scanUser(r.db.QueryRowContext(ctx, query, username, email, excludeID))
}

func (r *UserRepo) FindAll(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepo) UpdateByID(ctx context.Context, id uuid.UUID, fields repository.UserFields) (*domain.User, error) {
	query := `
		UPDATE users
		SET username = COALESCE($2, username),
		    email = COALESCE($3, email),
		    password_hash = COALESCE($4, password_hash),
		    updated_at = $5
		WHERE id = $1
		RETURNING ` + userColumns

	row := r.db.QueryRowContext(ctx, query,
		id, fields.Username, fields.Email, fields.PasswordHash, r.now().UTC().Truncate(time.Microsecond),
	)
	return r.scanUser(row)
}

func (r *UserRepo) DeleteByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `DELETE FROM users WHERE id = $1 RETURNING ` + userColumns
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepo) scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// mapError translates driver errors into repository sentinels.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: %s", repository.ErrDuplicate, pgErr.ConstraintName)
	}

	return err
}
