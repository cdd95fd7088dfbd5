package ledger

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"gymdesk/internal/db"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoEntriesSelected   = errors.New("no ledger entries selected")
	ErrEntryNotFound       = errors.New("ledger entry not found")
)

const txRetries = 3

type repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) Repository {
	return &repository{db: database}
}

// applyDeltaTx mutates the user balance and appends the matching log row
// inside the caller's transaction. The users row must already be locked.
func applyDeltaTx(tx *sqlx.Tx, userID int, balanceCents, amountCents int64, logType, description string) (*BalanceLog, error) {
	newBalance := balanceCents + amountCents
	if newBalance < 0 {
		return nil, ErrInsufficientBalance
	}

	_, err := tx.Exec(`UPDATE users SET balance_cents = $1 WHERE id = $2`, newBalance, userID)
	if err != nil {
		return nil, err
	}

	entry := &BalanceLog{}
	err = tx.QueryRowx(`
		INSERT INTO balance_logs (user_id, amount_cents, balance_after_cents, type, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, user_id, amount_cents, balance_after_cents, type, description, created_at
	`, userID, amountCents, newBalance, logType, description).StructScan(entry)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func lockBalance(tx *sqlx.Tx, userID int) (int64, error) {
	var balanceCents int64
	err := tx.QueryRowx(`SELECT balance_cents FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&balanceCents)
	return balanceCents, err
}

// ApplyDeltaInTx posts a signed delta inside the caller's transaction, so a
// ledger write can commit or roll back together with the caller's own rows.
// It takes the users row lock itself; a caller already holding it re-acquires
// for free. A zero amount writes nothing and returns nil.
func ApplyDeltaInTx(tx *sqlx.Tx, userID int, amountCents int64, logType, description string) (*BalanceLog, error) {
	if amountCents == 0 {
		return nil, nil
	}

	balance, err := lockBalance(tx, userID)
	if err != nil {
		return nil, err
	}

	return applyDeltaTx(tx, userID, balance, amountCents, logType, description)
}

// ApplyDelta atomically adds amountCents (signed) to the user's balance and
// appends the ledger row carrying the resulting snapshot. A zero amount is a
// no-op: no row is written, nil is returned.
func (r *repository) ApplyDelta(ctx context.Context, userID int, amountCents int64, logType, description string) (*BalanceLog, error) {
	if amountCents == 0 {
		return nil, nil
	}

	var entry *BalanceLog
	err := db.WithTxRetry(ctx, r.db, txRetries, func(tx *sqlx.Tx) error {
		balance, err := lockBalance(tx, userID)
		if err != nil {
			return err
		}

		entry, err = applyDeltaTx(tx, userID, balance, amountCents, logType, description)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// SetBalance moves the balance to newValueCents, logging the difference as a
// single delta row. Setting the balance to its current value writes nothing.
func (r *repository) SetBalance(ctx context.Context, userID int, newValueCents int64, logType, description string) (*BalanceLog, error) {
	var entry *BalanceLog
	err := db.WithTxRetry(ctx, r.db, txRetries, func(tx *sqlx.Tx) error {
		balance, err := lockBalance(tx, userID)
		if err != nil {
			return err
		}

		delta := newValueCents - balance
		if delta == 0 {
			entry = nil
			return nil
		}

		entry, err = applyDeltaTx(tx, userID, balance, delta, logType, description)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// MarkPaid subtracts the sum of the selected positive entries from the user's
// balance and logs it as a single mark_paid row. Selection validation and the
// balance check happen under the same user lock as the write.
func (r *repository) MarkPaid(ctx context.Context, userID int, entryIDs []int64, description string) (*BalanceLog, error) {
	if len(entryIDs) == 0 {
		return nil, ErrNoEntriesSelected
	}

	var entry *BalanceLog
	err := db.WithTxRetry(ctx, r.db, txRetries, func(tx *sqlx.Tx) error {
		balance, err := lockBalance(tx, userID)
		if err != nil {
			return err
		}

		var amounts []int64
		err = tx.Select(&amounts, `
			SELECT amount_cents
			FROM balance_logs
			WHERE id = ANY($1) AND user_id = $2 AND amount_cents > 0
		`, pq.Int64Array(entryIDs), userID)
		if err != nil {
			return err
		}
		if len(amounts) != len(entryIDs) {
			return ErrEntryNotFound
		}

		var sum int64
		for _, a := range amounts {
			sum += a
		}

		entry, err = applyDeltaTx(tx, userID, balance, -sum, TypeMarkPaid, description)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// OutstandingSince returns positive-amount entries newer than the user's most
// recent mark_paid row (all positive entries when the user has never paid),
// newest first. Already-paid purchases never reappear because the mark_paid
// row's id fences them off.
func (r *repository) OutstandingSince(ctx context.Context, userID, limit int) ([]BalanceLog, error) {
	if limit <= 0 {
		limit = 50
	}

	logs := []BalanceLog{}
	err := r.db.SelectContext(ctx, &logs, `
		SELECT id, user_id, amount_cents, balance_after_cents, type, description, created_at
		FROM balance_logs
		WHERE user_id = $1
		  AND amount_cents > 0
		  AND id > COALESCE(
		      (SELECT MAX(id) FROM balance_logs WHERE user_id = $1 AND type = 'mark_paid'), 0)
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}

	return logs, nil
}

func (r *repository) ListByUser(ctx context.Context, userID, limit int) ([]BalanceLog, error) {
	if limit <= 0 {
		limit = 100
	}

	logs := []BalanceLog{}
	err := r.db.SelectContext(ctx, &logs, `
		SELECT id, user_id, amount_cents, balance_after_cents, type, description, created_at
		FROM balance_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}

	return logs, nil
}

// ListByUserAsc returns the user's full ledger in creation order, for replay
// verification.
func (r *repository) ListByUserAsc(ctx context.Context, userID int) ([]BalanceLog, error) {
	logs := []BalanceLog{}
	err := r.db.SelectContext(ctx, &logs, `
		SELECT id, user_id, amount_cents, balance_after_cents, type, description, created_at
		FROM balance_logs
		WHERE user_id = $1
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, err
	}

	return logs, nil
}
