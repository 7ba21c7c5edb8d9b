package auth

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/nanumsa/server/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store := NewStore(gdb)
	store.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return store, mock
}

func TestIssueToken_UpsertsOnUserID(t *testing.T) {
	store, mock := newMockStore(t)

	// One statement replaces any existing token for the user; there is
	// no delete-then-insert window where two logins could both insert.
	mock.ExpectQuery(`INSERT INTO "nanumsa"\."login_tokens" .* ON CONFLICT \("user_id"\) DO UPDATE SET`).
		WithArgs(sqlmock.AnyArg(), int64(7), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	token, err := store.IssueToken(7)
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindUserIDByToken_UnknownIsUnauthorized(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT \* FROM "nanumsa"\."login_tokens" WHERE token = \$1`).
		WithArgs("no-such-token", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "token", "user_id", "issued_at"}))

	_, err := store.FindUserIDByToken("no-such-token")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestRevokeToken_UnknownIsNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM "nanumsa"\."login_tokens" WHERE token = \$1`).
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.RevokeToken("gone")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFindByCredentials_PasswordMismatch(t *testing.T) {
	store, mock := newMockStore(t)

	hashed, err := HashPassword("right-password")
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "email", "hashed_password", "social_type", "is_deleted"}).
		AddRow(int64(1), "a@b.com", hashed, SocialLocal, false)
	mock.ExpectQuery(`SELECT \* FROM "nanumsa"\."users"`).
		WillReturnRows(rows)

	_, err = store.FindByCredentials("a@b.com", "wrong-password")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
