package ledger

import (
	"context"
	"errors"
	"time"

	"gymdesk/internal/metrics"
	"gymdesk/internal/plan"
	"gymdesk/internal/user"
)

var ErrAmountNotPositive = errors.New("amount must be positive")

// PlanLookup resolves the membership plan of a user, when one exists. The
// member repository satisfies it; declaring it here keeps the ledger free of
// a dependency on the member package.
type PlanLookup interface {
	PlanForUser(ctx context.Context, userID int) (plan.Plan, bool, error)
}

type Service interface {
	AddBalance(ctx context.Context, userID int, amountCents int64, logType, description string) (*BalanceLog, error)
	SubtractBalance(ctx context.Context, userID int, amountCents int64, logType, description string) (*BalanceLog, error)
	SetBalance(ctx context.Context, userID int, newValueCents int64, logType, description string) (*BalanceLog, error)
	MarkPaid(ctx context.Context, userID int, entryIDs []int64, description string) (*BalanceLog, error)
	Outstanding(ctx context.Context, userID int, now time.Time) ([]BalanceLog, error)
	History(ctx context.Context, userID, limit int) ([]BalanceLog, error)
	VerifyUser(ctx context.Context, userID int) error
}

type service struct {
	repo     Repository
	userRepo user.Repository
	plans    PlanLookup
}

func NewService(repo Repository, userRepo user.Repository, plans PlanLookup) Service {
	return &service{
		repo:     repo,
		userRepo: userRepo,
		plans:    plans,
	}
}

func (s *service) AddBalance(ctx context.Context, userID int, amountCents int64, logType, description string) (*BalanceLog, error) {
	if amountCents <= 0 {
		return nil, ErrAmountNotPositive
	}
	if logType == "" {
		logType = TypeAdminAdd
	}

	entry, err := s.repo.ApplyDelta(ctx, userID, amountCents, logType, description)
	if err != nil {
		return nil, err
	}

	metrics.RecordBalanceOp(logType)
	return entry, nil
}

func (s *service) SubtractBalance(ctx context.Context, userID int, amountCents int64, logType, description string) (*BalanceLog, error) {
	if amountCents <= 0 {
		return nil, ErrAmountNotPositive
	}
	if logType == "" {
		logType = TypeAdminSubtract
	}

	entry, err := s.repo.ApplyDelta(ctx, userID, -amountCents, logType, description)
	if err != nil {
		return nil, err
	}

	metrics.RecordBalanceOp(logType)
	return entry, nil
}

func (s *service) SetBalance(ctx context.Context, userID int, newValueCents int64, logType, description string) (*BalanceLog, error) {
	if logType == "" {
		logType = TypeAdminSet
	}

	entry, err := s.repo.SetBalance(ctx, userID, newValueCents, logType, description)
	if err != nil {
		return nil, err
	}

	if entry != nil {
		metrics.RecordBalanceOp(logType)
	}
	return entry, nil
}

func (s *service) MarkPaid(ctx context.Context, userID int, entryIDs []int64, description string) (*BalanceLog, error) {
	entry, err := s.repo.MarkPaid(ctx, userID, entryIDs, description)
	if err != nil {
		return nil, err
	}

	metrics.RecordBalanceOp(TypeMarkPaid)
	return entry, nil
}

// Outstanding lists the unpaid purchase entries an admin can mark as paid.
// When no granular rows exist but the user still owes a positive balance on a
// flat-subscription plan, a single virtual row is synthesized so the balance
// can be settled even though it was seeded rather than logged. Daily-plan
// members are pay-as-you-go and never get the synthesized row. The caller's
// clock stamps the virtual row so it sorts alongside real entries.
func (s *service) Outstanding(ctx context.Context, userID int, now time.Time) ([]BalanceLog, error) {
	logs, err := s.repo.OutstandingSince(ctx, userID, 50)
	if err != nil {
		return nil, err
	}
	if len(logs) > 0 {
		return logs, nil
	}

	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.BalanceCents <= 0 {
		return logs, nil
	}

	p, hasPlan, err := s.plans.PlanForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if hasPlan && p == plan.Daily {
		return logs, nil
	}

	return []BalanceLog{{
		ID:                VirtualEntryID,
		UserID:            userID,
		AmountCents:       u.BalanceCents,
		BalanceAfterCents: u.BalanceCents,
		Type:              TypeSubscriptionFee,
		Description:       "Monthly gym subscription fee (current outstanding membership)",
		CreatedAt:         now,
	}}, nil
}

func (s *service) History(ctx context.Context, userID, limit int) ([]BalanceLog, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

// VerifyUser replays the user's full ledger and checks it against both the
// per-row snapshots and the stored balance.
func (s *service) VerifyUser(ctx context.Context, userID int) error {
	logs, err := s.repo.ListByUserAsc(ctx, userID)
	if err != nil {
		return err
	}

	if err := VerifyReplay(logs); err != nil {
		return err
	}

	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if len(logs) > 0 && logs[len(logs)-1].BalanceAfterCents != u.BalanceCents {
		return errors.New("stored balance does not match last ledger snapshot")
	}

	return nil
}
