package ledger

import "context"

type Repository interface {
	ApplyDelta(ctx context.Context, userID int, amountCents int64, logType, description string) (*BalanceLog, error)
	SetBalance(ctx context.Context, userID int, newValueCents int64, logType, description string) (*BalanceLog, error)
	MarkPaid(ctx context.Context, userID int, entryIDs []int64, description string) (*BalanceLog, error)
	OutstandingSince(ctx context.Context, userID, limit int) ([]BalanceLog, error)
	ListByUser(ctx context.Context, userID, limit int) ([]BalanceLog, error)
	ListByUserAsc(ctx context.Context, userID int) ([]BalanceLog, error)
}
