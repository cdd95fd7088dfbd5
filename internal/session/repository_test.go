package session

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/ledger"
)

func setupSessionMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func sessionRows() []string {
	return []string{"id", "user_id", "time_in", "time_out", "credits_used_cents", "hourly_rate_cents", "is_active", "created_at"}
}

func TestStartSession_NoExistingSession(t *testing.T) {
	repo, mock, close := setupSessionMock(t)
	defer close()

	ctx := context.Background()
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND is_active = TRUE")).
		WithArgs(1).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO time_sessions")).
		WithArgs(1, now, int64(1000)).
		WillReturnRows(sqlmock.NewRows(sessionRows()).
			AddRow(5, 1, now, nil, 0, 1000, true, now))

	mock.ExpectCommit()

	s, err := repo.StartSession(ctx, 1, now, 1000)
	require.NoError(t, err)
	require.True(t, s.IsActive)
	require.Equal(t, int64(1000), s.HourlyRateCents)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStartSession_ClosesStaleSessionFirst(t *testing.T) {
	repo, mock, close := setupSessionMock(t)
	defer close()

	ctx := context.Background()
	staleIn := time.Date(2025, 1, 1, 7, 0, 0, 0, time.UTC)
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	// a forgotten open session from two hours ago
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND is_active = TRUE")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(sessionRows()).
			AddRow(4, 1, staleIn, nil, 0, 1000, true, staleIn))

	// it gets frozen at 2h x 10.00 = 20.00 and closed, with no ledger write
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE time_sessions")).
		WithArgs(now, int64(2000), 4).
		WillReturnRows(sqlmock.NewRows(sessionRows()).
			AddRow(4, 1, staleIn, now, 2000, 1000, false, staleIn))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO time_sessions")).
		WithArgs(1, now, int64(1000)).
		WillReturnRows(sqlmock.NewRows(sessionRows()).
			AddRow(5, 1, now, nil, 0, 1000, true, now))

	mock.ExpectCommit()

	s, err := repo.StartSession(ctx, 1, now, 1000)
	require.NoError(t, err)
	require.Equal(t, 5, s.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseActive_FreezesCredits(t *testing.T) {
	repo, mock, close := setupSessionMock(t)
	defer close()

	ctx := context.Background()
	timeIn := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	now := timeIn.Add(90 * time.Minute)

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND is_active = TRUE")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(sessionRows()).
			AddRow(4, 1, timeIn, nil, 0, 1000, true, timeIn))

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE time_sessions")).
		WithArgs(now, int64(1500), 4).
		WillReturnRows(sqlmock.NewRows(sessionRows()).
			AddRow(4, 1, timeIn, now, 1500, 1000, false, timeIn))

	mock.ExpectCommit()

	s, err := repo.CloseActive(ctx, 1, now, false)
	require.NoError(t, err)
	require.Equal(t, int64(1500), s.CreditsUsedCents)
	require.False(t, s.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseActive_FeePostsInSameTransaction(t *testing.T) {
	repo, mock, close := setupSessionMock(t)
	defer close()

	ctx := context.Background()
	timeIn := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	now := timeIn.Add(90 * time.Minute)

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND is_active = TRUE")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows(sessionRows()).
			AddRow(4, 1, timeIn, nil, 0, 1000, true, timeIn))

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE time_sessions")).
		WithArgs(now, int64(1500), 4).
		WillReturnRows(sqlmock.NewRows(sessionRows()).
			AddRow(4, 1, timeIn, now, 1500, 1000, false, timeIn))

	// the fee rides the same transaction as the close
	mock.ExpectQuery(regexp.QuoteMeta("SELECT balance_cents FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"balance_cents"}).AddRow(500))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET balance_cents = $1 WHERE id = $2")).
		WithArgs(2000, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO balance_logs")).
		WithArgs(1, int64(1500), int64(2000), ledger.TypeSessionFee, "Daily plan gym session fee").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount_cents", "balance_after_cents", "type", "description", "created_at"}).
			AddRow(9, 1, 1500, 2000, ledger.TypeSessionFee, "Daily plan gym session fee", now))

	mock.ExpectCommit()

	s, err := repo.CloseActive(ctx, 1, now, true)
	require.NoError(t, err)
	require.Equal(t, int64(1500), s.CreditsUsedCents)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseActive_NothingOpen(t *testing.T) {
	repo, mock, close := setupSessionMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectBegin()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE id = $1 FOR UPDATE")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND is_active = TRUE")).
		WithArgs(1).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectCommit()

	s, err := repo.CloseActive(ctx, 1, now, true)
	require.NoError(t, err)
	require.Nil(t, s)
	require.NoError(t, mock.ExpectationsWereMet())
}
