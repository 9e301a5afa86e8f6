package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/userdesk/internal/domain"
	"github.com/vedran77/userdesk/internal/repository"
)

var userRowColumns = []string{"id", "username", "email", "password_hash", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewUserRepo(db)
	repo.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return repo, mock
}

func sampleUser() domain.User {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.User{
		ID:           uuid.MustParse("6f1c2d0e-8a4b-4c1e-9f3a-2b7d5e6a1c90"),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$argon2id$stub",
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}

func userRow(u domain.User) *sqlmock.Rows {
	return sqlmock.NewRows(userRowColumns).
		AddRow(u.ID.String(), u.Username, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt)
}

func TestInsert_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := sampleUser()

	mock.ExpectExec(`(?s)^\s*INSERT\s+INTO\s+users\s*\(id,\s*username,\s*email,\s*password_hash,\s*created_at,\s*updated_at\)`).
		WithArgs(u.ID, u.Username, u.Email, u.PasswordHash, u.CreatedAt, u.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), &u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_UniqueViolation(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := sampleUser()

	mock.ExpectExec(`INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

	err := repo.Insert(context.Background(), &u)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.Contains(t, err.Error(), "users_email_key")
}

func TestInsert_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := sampleUser()

	mock.ExpectExec(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	err := repo.Insert(context.Background(), &u)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrDuplicate)
	assert.Contains(t, err.Error(), "db down")
}

func TestFindByID_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := sampleUser()

	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*username,\s*email,\s*password_hash,\s*created_at,\s*updated_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(u.ID).
		WillReturnRows(userRow(u))

	got, err := repo.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u, *got)
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id := uuid.New()

	mock.ExpectQuery(`FROM\s+users\s+WHERE\s+id`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindByUsernameOrEmail_PassesAllArgs(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := sampleUser()
	exclude := uuid.New()

	mock.ExpectQuery(`(?s)WHERE\s+\(\(\$1\s*<>\s*''\s+AND\s+username\s*=\s*\$1\)\s+OR\s+\(\$2\s*<>\s*''\s+AND\s+email\s*=\s*\$2\)\)\s+AND\s+id\s*<>\s*\$3\s+LIMIT\s+1`).
		WithArgs("alice", "", exclude).
		WillReturnRows(userRow(u))

	got, err := repo.FindByUsernameOrEmail(context.Background(), "alice", "", exclude)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestFindByUsernameOrEmail_NoCriteriaSkipsQuery(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	_, err := repo.FindByUsernameOrEmail(context.Background(), "", "", uuid.Nil)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAll(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	a := sampleUser()
	b := sampleUser()
	b.ID = uuid.New()
	b.Username = "bob"
	b.Email = "bob@example.com"

	rows := sqlmock.NewRows(userRowColumns).
		AddRow(a.ID.String(), a.Username, a.Email, a.PasswordHash, a.CreatedAt, a.UpdatedAt).
		AddRow(b.ID.String(), b.Username, b.Email, b.PasswordHash, b.CreatedAt, b.UpdatedAt)
	mock.ExpectQuery(`FROM\s+users\s+ORDER\s+BY\s+created_at\s+ASC`).WillReturnRows(rows)

	got, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].Username)
	assert.Equal(t, "bob", got[1].Username)
}

func TestFindAll_EmptyIsNotNil(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+users`).WillReturnRows(sqlmock.NewRows(userRowColumns))

	got, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestUpdateByID_OnlyUsername(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := sampleUser()
	u.Username = "alice2"
	name := "alice2"

	mock.ExpectQuery(`(?s)UPDATE\s+users\s+SET\s+username\s*=\s*COALESCE\(\$2,\s*username\).*RETURNING`).
		WithArgs(u.ID, "alice2", nil, nil, sqlmock.AnyArg()).
		WillReturnRows(userRow(u))

	got, err := repo.UpdateByID(context.Background(), u.ID, repository.UserFields{Username: &name})
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id := uuid.New()

	mock.ExpectQuery(`UPDATE\s+users`).WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateByID(context.Background(), id, repository.UserFields{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateByID_UniqueViolation(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	email := "taken@example.com"

	mock.ExpectQuery(`UPDATE\s+users`).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})

	_, err := repo.UpdateByID(context.Background(), uuid.New(), repository.UserFields{Email: &email})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestDeleteByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	u := sampleUser()

	mock.ExpectQuery(`(?s)^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s+RETURNING`).
		WithArgs(u.ID).
		WillReturnRows(userRow(u))

	got, err := repo.DeleteByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestDeleteByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id := uuid.New()

	mock.ExpectQuery(`DELETE\s+FROM\s+users`).WithArgs(id).WillReturnError(sql.ErrNoRows)

	_, err := repo.DeleteByID(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
