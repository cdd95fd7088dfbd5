package session

import (
	"context"
	"time"

	"gymdesk/internal/logger"
	"gymdesk/internal/metrics"
	"gymdesk/internal/plan"
)

// PlanLookup resolves the membership plan attached to a user account, when one
// exists.
type PlanLookup interface {
	PlanForUser(ctx context.Context, userID int) (plan.Plan, bool, error)
}

// ToggleResult reports which way a toggle went along with the session it
// touched.
type ToggleResult struct {
	Session   *TimeSession `json:"session"`
	CheckedIn bool         `json:"checked_in"`
	FeeCents  int64        `json:"fee_cents"`
}

// StatusResult is the live view of a user's attendance.
type StatusResult struct {
	Active           bool         `json:"active"`
	Session          *TimeSession `json:"session,omitempty"`
	LiveCreditsCents int64        `json:"live_credits_cents"`
	Duration         string       `json:"duration,omitempty"`
}

type Service interface {
	TimeIn(ctx context.Context, userID int, now time.Time) (*TimeSession, error)
	TimeOut(ctx context.Context, userID int, now time.Time) (*TimeSession, int64, error)
	Toggle(ctx context.Context, userID int, now time.Time) (*ToggleResult, error)
	Status(ctx context.Context, userID int, now time.Time) (*StatusResult, error)
	SessionsOn(ctx context.Context, userID int, day time.Time) ([]TimeSession, error)
}

type service struct {
	repo  Repository
	plans PlanLookup
}

func NewService(repo Repository, plans PlanLookup) Service {
	return &service{
		repo:  repo,
		plans: plans,
	}
}

// hourlyRateFor returns the pay-as-you-go rate captured on a new session.
// Flat-subscription plans, and users with no membership at all, accrue at 0.
func (s *service) hourlyRateFor(ctx context.Context, userID int) (int64, error) {
	p, ok, err := s.plans.PlanForUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	return p.HourlyRateCents(), nil
}

func (s *service) TimeIn(ctx context.Context, userID int, now time.Time) (*TimeSession, error) {
	rate, err := s.hourlyRateFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	session, err := s.repo.StartSession(ctx, userID, now, rate)
	if err != nil {
		return nil, err
	}

	metrics.RecordTimeIn()
	logger.Info("session opened", "user_id", userID, "hourly_rate_cents", rate)

	return session, nil
}

// TimeOut closes the user's open session. For pay-as-you-go members the
// session fee is posted by the repository inside the close transaction, so a
// crash can never leave a closed session without its charge. Returns
// (nil, 0, nil) when no session is open; a second time-out in a row never
// double-charges.
func (s *service) TimeOut(ctx context.Context, userID int, now time.Time) (*TimeSession, int64, error) {
	p, ok, err := s.plans.PlanForUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	chargeFee := ok && p.Billing() == plan.BillingPayAsYouGo

	closed, err := s.repo.CloseActive(ctx, userID, now, chargeFee)
	if err != nil {
		return nil, 0, err
	}
	if closed == nil {
		return nil, 0, nil
	}

	metrics.RecordTimeOut()

	var fee int64
	if chargeFee && closed.CreditsUsedCents > 0 {
		fee = closed.CreditsUsedCents
		metrics.RecordSessionFee(fee)
	}

	logger.Info("session closed",
		"user_id", userID,
		"session_id", closed.ID,
		"credits_used_cents", closed.CreditsUsedCents,
		"fee_cents", fee,
	)

	return closed, fee, nil
}

// Toggle is the scan flow: an open session times the user out, no open session
// times them in.
func (s *service) Toggle(ctx context.Context, userID int, now time.Time) (*ToggleResult, error) {
	active, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if active != nil {
		closed, fee, err := s.TimeOut(ctx, userID, now)
		if err != nil {
			return nil, err
		}

		return &ToggleResult{Session: closed, CheckedIn: false, FeeCents: fee}, nil
	}

	opened, err := s.TimeIn(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	return &ToggleResult{Session: opened, CheckedIn: true}, nil
}

func (s *service) Status(ctx context.Context, userID int, now time.Time) (*StatusResult, error) {
	active, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if active == nil {
		return &StatusResult{Active: false}, nil
	}

	return &StatusResult{
		Active:           true,
		Session:          active,
		LiveCreditsCents: active.LiveCreditsUsed(now),
		Duration:         active.FormattedDuration(now),
	}, nil
}

func (s *service) SessionsOn(ctx context.Context, userID int, day time.Time) ([]TimeSession, error) {
	return s.repo.ListByUserOnDate(ctx, userID, day)
}
