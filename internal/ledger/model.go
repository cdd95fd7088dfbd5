package ledger

import (
	"fmt"
	"time"
)

// Balance log entry types. Free-form in the schema; these are the tags the
// application writes.
const (
	TypePurchase        = "purchase"
	TypeSessionFee      = "session_fee"
	TypeAdminSet        = "admin_set"
	TypeAdminAdd        = "admin_add"
	TypeAdminSubtract   = "admin_subtract"
	TypeMarkPaid        = "mark_paid"
	TypeSubscriptionFee = "subscription_fee"
)

// VirtualEntryID marks the synthesized outstanding-fee row returned when a
// user carries a balance that predates granular logging. It is never persisted.
const VirtualEntryID = -1

// BalanceLog is an append-only ledger row. BalanceAfterCents is the user's
// balance snapshot taken when the row was written, never recomputed later.
type BalanceLog struct {
	ID                int       `db:"id" json:"id"`
	UserID            int       `db:"user_id" json:"user_id"`
	AmountCents       int64     `db:"amount_cents" json:"amount_cents"`
	BalanceAfterCents int64     `db:"balance_after_cents" json:"balance_after_cents"`
	Type              string    `db:"type" json:"type"`
	Description       string    `db:"description" json:"description"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// ReplayBalance sums the amount deltas of logs (in creation order) from zero.
func ReplayBalance(logs []BalanceLog) int64 {
	var balance int64
	for _, l := range logs {
		balance += l.AmountCents
	}
	return balance
}

// VerifyReplay checks that replaying the deltas reproduces every row's
// balance snapshot. A mismatch means a balance mutation bypassed the ledger.
func VerifyReplay(logs []BalanceLog) error {
	var balance int64
	for _, l := range logs {
		balance += l.AmountCents
		if balance != l.BalanceAfterCents {
			return fmt.Errorf("ledger replay mismatch at entry %d: replayed %d, snapshot %d",
				l.ID, balance, l.BalanceAfterCents)
		}
	}
	return nil
}
