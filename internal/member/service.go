package member

import (
	"context"
	"errors"
	"time"

	"gymdesk/internal/auth"
	"gymdesk/internal/email"
	"gymdesk/internal/ledger"
	"gymdesk/internal/logger"
	"gymdesk/internal/metrics"
	"gymdesk/internal/plan"
	"gymdesk/internal/user"
)

var (
	ErrEndBeforeStart = errors.New("end date is before start date")
	ErrEmailRequired  = errors.New("email required for login access")
)

// initialMembershipFeeCents is the first-term fee owed by a newly registered
// flat-subscription member. It is posted through the ledger so the balance
// replay stays verifiable. Daily members are pay-as-you-go and start at zero.
const initialMembershipFeeCents int64 = 40000

const dateLayout = "2006-01-02"

type Service interface {
	Create(ctx context.Context, req CreateMemberRequest, now time.Time) (*Member, error)
	Update(ctx context.Context, id int, req UpdateMemberRequest) (*Member, error)
	Get(ctx context.Context, id int) (*Member, error)
	List(ctx context.Context, now time.Time) ([]MemberWithStatus, error)
	Renew(ctx context.Context, id int, now time.Time) (*Member, error)
	ToggleStatus(ctx context.Context, id int) (*Member, error)
	Delete(ctx context.Context, id int) error
	RemindExpiring(ctx context.Context, now time.Time) (int, error)
}

type service struct {
	repo            Repository
	userRepo        user.Repository
	ledgerRepo      ledger.Repository
	emailService    *email.Service
	defaultPassword string
}

func NewService(repo Repository, userRepo user.Repository, ledgerRepo ledger.Repository, emailService *email.Service, defaultPassword string) Service {
	return &service{
		repo:            repo,
		userRepo:        userRepo,
		ledgerRepo:      ledgerRepo,
		emailService:    emailService,
		defaultPassword: defaultPassword,
	}
}

// Create registers a membership. When an email is supplied a login account is
// created alongside it and, for flat-subscription plans, the first membership
// fee is posted to the new account's ledger.
func (s *service) Create(ctx context.Context, req CreateMemberRequest, now time.Time) (*Member, error) {
	p, err := plan.ParsePlan(req.Plan)
	if err != nil {
		return nil, err
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, err
	}

	endDate := p.EndDateFrom(startDate)
	if req.EndDate != "" {
		endDate, err = time.Parse(dateLayout, req.EndDate)
		if err != nil {
			return nil, err
		}
	}
	if endDate.Before(startDate) {
		return nil, ErrEndBeforeStart
	}

	m := &Member{
		FullName:  req.FullName,
		Plan:      p,
		StartDate: startDate,
		EndDate:   endDate,
	}
	if req.Email != "" {
		m.Email = &req.Email
	}
	if req.Phone != "" {
		m.Phone = &req.Phone
	}
	if req.Notes != "" {
		m.Notes = &req.Notes
	}

	if req.Email != "" {
		passwordHash, err := auth.HashPassword(s.defaultPassword)
		if err != nil {
			return nil, err
		}

		account, err := s.userRepo.Create(ctx, req.FullName, req.Email, passwordHash, user.RoleMember, 0)
		if err != nil {
			return nil, err
		}
		m.UserID = &account.ID

		if p.Billing() == plan.BillingFlat {
			_, err = s.ledgerRepo.ApplyDelta(ctx, account.ID, initialMembershipFeeCents,
				ledger.TypeSubscriptionFee, "Initial membership fee")
			if err != nil {
				return nil, err
			}
		}

		if err := s.emailService.SendMembershipWelcome(ctx, req.Email, req.FullName, string(p)); err != nil {
			// Registration succeeded; a lost welcome mail is not fatal.
			logger.Errorf("failed to queue welcome email for %s: %v", req.Email, err)
		}
	}

	return s.repo.Create(ctx, m)
}

func (s *service) Update(ctx context.Context, id int, req UpdateMemberRequest) (*Member, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := plan.ParsePlan(req.Plan)
	if err != nil {
		return nil, err
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, err
	}

	endDate := p.EndDateFrom(startDate)
	if req.EndDate != "" {
		endDate, err = time.Parse(dateLayout, req.EndDate)
		if err != nil {
			return nil, err
		}
	}
	if endDate.Before(startDate) {
		return nil, ErrEndBeforeStart
	}

	m.FullName = req.FullName
	m.Plan = p
	m.StartDate = startDate
	m.EndDate = endDate
	m.Email = nil
	m.Phone = nil
	m.Notes = nil
	if req.Email != "" {
		m.Email = &req.Email
	}
	if req.Phone != "" {
		m.Phone = &req.Phone
	}
	if req.Notes != "" {
		m.Notes = &req.Notes
	}
	if req.Inactive != nil {
		m.Inactive = *req.Inactive
	}

	return s.repo.Update(ctx, m)
}

func (s *service) Get(ctx context.Context, id int) (*Member, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) List(ctx context.Context, now time.Time) ([]MemberWithStatus, error) {
	members, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]MemberWithStatus, 0, len(members))
	for _, m := range members {
		result = append(result, MemberWithStatus{
			Member: m,
			Status: m.StatusAt(now),
		})
	}

	return result, nil
}

// Renew starts a fresh term from now: the end date is recomputed from the
// plan (same day for Daily), the manual inactive flag is cleared, and the
// renewal counter increments. The user's balance is untouched.
func (s *service) Renew(ctx context.Context, id int, now time.Time) (*Member, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	m.StartDate = plan.DateOf(now)
	m.EndDate = m.Plan.EndDateFrom(now)
	m.Inactive = false
	m.Renewals++

	updated, err := s.repo.Update(ctx, m)
	if err != nil {
		return nil, err
	}

	metrics.RecordRenewal(string(m.Plan))

	if updated.Email != nil {
		if err := s.emailService.SendRenewalConfirmation(ctx, *updated.Email, updated.FullName, string(updated.Plan), updated.EndDate); err != nil {
			logger.Errorf("failed to queue renewal email for member %d: %v", updated.ID, err)
		}
	}

	return updated, nil
}

func (s *service) ToggleStatus(ctx context.Context, id int) (*Member, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	m.Inactive = !m.Inactive

	return s.repo.Update(ctx, m)
}

// Delete removes the membership, then its linked login account unless that
// account is an admin. The admin guard is deliberate application logic, not a
// database cascade: an admin's login survives losing its membership.
func (s *service) Delete(ctx context.Context, id int) error {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if m.UserID == nil {
		return nil
	}

	account, err := s.userRepo.FindByID(ctx, *m.UserID)
	if err != nil {
		// Member row is already gone; a missing account is not an error.
		return nil
	}
	if account.IsAdmin() {
		return nil
	}

	return s.userRepo.Delete(ctx, account.ID)
}

// RemindExpiring queues a reminder email to every member expiring within the
// next seven days. Returns the number of reminders queued.
func (s *service) RemindExpiring(ctx context.Context, now time.Time) (int, error) {
	from := plan.DateOf(now)
	to := from.AddDate(0, 0, ExpiringWindowDays)

	members, err := s.repo.ListExpiring(ctx, from, to)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, m := range members {
		if m.Email == nil {
			continue
		}

		daysLeft := plan.DaysBetween(now, m.EndDate)
		if err := s.emailService.SendExpiryReminder(ctx, *m.Email, m.FullName, m.EndDate, daysLeft); err != nil {
			logger.Errorf("failed to queue expiry reminder for member %d: %v", m.ID, err)
			continue
		}
		sent++
	}

	return sent, nil
}
