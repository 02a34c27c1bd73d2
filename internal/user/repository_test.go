package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{"id", "email", "password", "role", "email_verified", "created_at"}

func TestRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	email := "john@example.com"
	password := "hashed_password"
	role := "USER"

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users \(email, password, role\) VALUES \(\$1, \$2, \$3\) RETURNING id, email, password, role, email_verified, created_at`).
			WithArgs(email, password, role).
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(1, email, password, role, false, time.Now()))

		u, err := repo.Create(ctx, email, password, role)
		assert.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, uint(1), u.ID)
		assert.Equal(t, email, u.Email)
		assert.Equal(t, RoleUser, u.Role)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

		_, err := repo.Create(ctx, email, password, role)
		assert.ErrorIs(t, err, ErrEmailExists)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO users`).
			WillReturnError(errors.New("db error"))

		_, err := repo.Create(ctx, email, password, role)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrEmailExists)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	email := "john@example.com"

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows(userRowColumns).
			AddRow(1, email, "hashed", "ADMIN", true, time.Now())

		mock.ExpectQuery(`SELECT id, email, password, role, email_verified, created_at FROM users WHERE email = \$1`).
			WithArgs(email).
			WillReturnRows(rows)

		u, err := repo.FindByEmail(ctx, email)
		assert.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, email, u.Email)
		assert.True(t, u.IsAdmin())
		assert.True(t, u.EmailVerified)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM users`).
			WithArgs(email).
			WillReturnRows(sqlmock.NewRows(userRowColumns))

		u, err := repo.FindByEmail(ctx, email)
		assert.ErrorIs(t, err, ErrUserNotFound)
		assert.Nil(t, u)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM users`).
			WithArgs(email).
			WillReturnError(errors.New("connection refused"))

		_, err := repo.FindByEmail(ctx, email)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkEmailVerified(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	email := "john@example.com"

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE users SET email_verified = TRUE, updated_at = now\(\) WHERE email = \$1`).
			WithArgs(email).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkEmailVerified(ctx, email))
	})

	t.Run("UserNotFound", func(t *testing.T) {
		mock.ExpectExec(`UPDATE users SET email_verified`).
			WithArgs(email).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.MarkEmailVerified(ctx, email)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
