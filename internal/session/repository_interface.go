package session

import (
	"context"
	"time"
)

type Repository interface {
	StartSession(ctx context.Context, userID int, now time.Time, rateCents int64) (*TimeSession, error)
	CloseActive(ctx context.Context, userID int, now time.Time, chargeFee bool) (*TimeSession, error)
	FindActiveByUser(ctx context.Context, userID int) (*TimeSession, error)
	ListRecentByUser(ctx context.Context, userID, limit int) ([]TimeSession, error)
	ListByUserOnDate(ctx context.Context, userID int, day time.Time) ([]TimeSession, error)
}
