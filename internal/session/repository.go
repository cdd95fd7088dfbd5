package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"gymdesk/internal/db"
	"gymdesk/internal/ledger"
)

const sessionFeeDescription = "Daily plan gym session fee"

const txRetries = 3

const sessionColumns = `id, user_id, time_in, time_out, credits_used_cents, hourly_rate_cents, is_active, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) Repository {
	return &repository{db: database}
}

// lockUser takes the users row lock that serializes all session and balance
// mutations for this user.
func lockUser(tx *sqlx.Tx, userID int) error {
	var id int
	return tx.QueryRowx(`SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
}

// closeActiveTx freezes and closes the user's open session inside the caller's
// transaction. With chargeFee set, a nonzero accrual is posted to the ledger
// in the same transaction, so the close and its fee commit together. Returns
// (nil, nil) when there is nothing to close.
func closeActiveTx(tx *sqlx.Tx, userID int, now time.Time, chargeFee bool) (*TimeSession, error) {
	var open TimeSession
	err := tx.QueryRowx(`
		SELECT `+sessionColumns+`
		FROM time_sessions
		WHERE user_id = $1 AND is_active = TRUE
	`, userID).StructScan(&open)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	credits := open.LiveCreditsUsed(now)

	var closed TimeSession
	err = tx.QueryRowx(`
		UPDATE time_sessions
		SET time_out = $1, credits_used_cents = $2, is_active = FALSE
		WHERE id = $3
		RETURNING `+sessionColumns+`
	`, now, credits, open.ID).StructScan(&closed)
	if err != nil {
		return nil, err
	}

	if chargeFee && closed.CreditsUsedCents > 0 {
		_, err := ledger.ApplyDeltaInTx(tx, userID, closed.CreditsUsedCents, ledger.TypeSessionFee, sessionFeeDescription)
		if err != nil {
			return nil, err
		}
	}

	return &closed, nil
}

// StartSession opens a new session for the user in one transaction. Any
// session still open is closed first so the single-active invariant holds even
// after a missed time-out. The defensive close freezes credits but never posts
// a fee.
func (r *repository) StartSession(ctx context.Context, userID int, now time.Time, rateCents int64) (*TimeSession, error) {
	var created *TimeSession
	err := db.WithTxRetry(ctx, r.db, txRetries, func(tx *sqlx.Tx) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}

		if _, err := closeActiveTx(tx, userID, now, false); err != nil {
			return err
		}

		var s TimeSession
		err := tx.QueryRowx(`
			INSERT INTO time_sessions (user_id, time_in, credits_used_cents, hourly_rate_cents, is_active)
			VALUES ($1, $2, 0, $3, TRUE)
			RETURNING `+sessionColumns+`
		`, userID, now, rateCents).StructScan(&s)
		if err != nil {
			return err
		}

		created = &s
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// CloseActive closes the user's open session under the users row lock. With
// chargeFee set, the session fee is posted in the same transaction. Returns
// (nil, nil) when no session is open.
func (r *repository) CloseActive(ctx context.Context, userID int, now time.Time, chargeFee bool) (*TimeSession, error) {
	var closed *TimeSession
	err := db.WithTxRetry(ctx, r.db, txRetries, func(tx *sqlx.Tx) error {
		if err := lockUser(tx, userID); err != nil {
			return err
		}

		var err error
		closed, err = closeActiveTx(tx, userID, now, chargeFee)
		return err
	})
	if err != nil {
		return nil, err
	}

	return closed, nil
}

func (r *repository) FindActiveByUser(ctx context.Context, userID int) (*TimeSession, error) {
	var s TimeSession
	err := r.db.GetContext(ctx, &s, `
		SELECT `+sessionColumns+`
		FROM time_sessions
		WHERE user_id = $1 AND is_active = TRUE
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func (r *repository) ListRecentByUser(ctx context.Context, userID, limit int) ([]TimeSession, error) {
	if limit <= 0 {
		limit = 20
	}

	sessions := []TimeSession{}
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT `+sessionColumns+`
		FROM time_sessions
		WHERE user_id = $1
		ORDER BY time_in DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *repository) ListByUserOnDate(ctx context.Context, userID int, day time.Time) ([]TimeSession, error) {
	sessions := []TimeSession{}
	err := r.db.SelectContext(ctx, &sessions, `
		SELECT `+sessionColumns+`
		FROM time_sessions
		WHERE user_id = $1 AND DATE(time_in) = DATE($2)
		ORDER BY time_in DESC
	`, userID, day)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}
