package member

import (
	"context"
	"time"

	"gymdesk/internal/plan"
)

type Repository interface {
	Create(ctx context.Context, m *Member) (*Member, error)
	Update(ctx context.Context, m *Member) (*Member, error)
	FindByID(ctx context.Context, id int) (*Member, error)
	FindByUserID(ctx context.Context, userID int) (*Member, error)
	PlanForUser(ctx context.Context, userID int) (plan.Plan, bool, error)
	List(ctx context.Context) ([]Member, error)
	ListExpiring(ctx context.Context, from, to time.Time) ([]Member, error)
	Delete(ctx context.Context, id int) error
}
