package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"kolboard/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

const selectUserByID = `SELECT * FROM "users" WHERE id = $1 ORDER BY "users"."id" LIMIT $2`

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	id := uuid.New()

	tests := []struct {
		name         string
		mockBehavior func()
		expectedName string
		expectedCode string
	}{
		{
			name: "Success",
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "username", "follower_count"}).
					AddRow(id.String(), "dave", 12)
				mock.ExpectQuery(regexp.QuoteMeta(selectUserByID)).
					WithArgs(sqlmock.AnyArg(), 1).
					WillReturnRows(rows)
			},
			expectedName: "dave",
		},
		{
			name: "Not Found",
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(selectUserByID)).
					WithArgs(sqlmock.AnyArg(), 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			expectedCode: models.CodeNotFound,
		},
		{
			name: "Database Error",
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(selectUserByID)).
					WithArgs(sqlmock.AnyArg(), 1).
					WillReturnError(errors.New("connection timeout"))
			},
			expectedCode: models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, id)

			if tt.expectedCode != "" {
				require.Error(t, err)
				assert.Nil(t, user)
				assert.Equal(t, tt.expectedCode, models.ErrorCode(err))
			} else if assert.NoError(t, err) && assert.NotNil(t, user) {
				assert.Equal(t, tt.expectedName, user.Username)
				assert.Equal(t, 12, user.FollowerCount)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByUsername(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	query := `SELECT * FROM "users" WHERE LOWER(username) = $1 ORDER BY "users"."id" LIMIT $2`

	t.Run("matches case-insensitively", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "username"}).AddRow(uuid.NewString(), "Dave")
		mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("dave", 1).WillReturnRows(rows)

		user, err := repo.GetByUsername(ctx, "DAVE")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "Dave", user.Username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user is nil without error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs("ghost", 1).WillReturnError(gorm.ErrRecordNotFound)

		user, err := repo.GetByUsername(ctx, "ghost")
		assert.NoError(t, err)
		assert.Nil(t, user)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_ListByIDsEmpty(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	users, err := repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NotNil(t, users)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "pg unique violation", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "pg other code", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "gorm duplicated key", err: gorm.ErrDuplicatedKey, want: true},
		{name: "sqlite message", err: errors.New("UNIQUE constraint failed: users.username"), want: true},
		{name: "postgres message", err: errors.New(`duplicate key value violates unique constraint "idx_users_username"`), want: true},
		{name: "unrelated", err: errors.New("connection refused"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueConstraintError(tt.err))
		})
	}
}
