package member

import (
	"fmt"
	"time"

	"gymdesk/internal/plan"
)

// ExpiringWindowDays is how many days before the end date a membership is
// reported as expiring rather than active.
const ExpiringWindowDays = 7

type StatusCode string

const (
	StatusActive   StatusCode = "ACTIVE"
	StatusExpiring StatusCode = "EXPIRING"
	StatusExpired  StatusCode = "EXPIRED"
	StatusInactive StatusCode = "INACTIVE"
)

// Status is the derived display state of a membership. Code and DaysLeft are
// the contract; Label and ClassName only feed the UI.
type Status struct {
	Code      StatusCode `json:"code"`
	Label     string     `json:"label"`
	ClassName string     `json:"className"`
	DaysLeft  *int       `json:"daysLeft"`
}

// Member is a gym membership, optionally linked to a login account.
type Member struct {
	ID        int       `db:"id" json:"id"`
	UserID    *int      `db:"user_id" json:"user_id,omitempty"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Plan      plan.Plan `db:"plan" json:"plan"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
	Notes     *string   `db:"notes" json:"notes,omitempty"`
	Inactive  bool      `db:"inactive" json:"inactive"`
	Renewals  int       `db:"renewals" json:"renewals"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StatusAt derives the membership status at the given instant. The manual
// inactive flag wins over any date comparison. Day boundaries are inclusive:
// a membership ending today or within the next seven days is expiring, not
// expired.
func (m *Member) StatusAt(now time.Time) Status {
	if m.Inactive {
		return Status{
			Code:      StatusInactive,
			Label:     "Inactive",
			ClassName: "inactive",
			DaysLeft:  nil,
		}
	}

	daysLeft := plan.DaysBetween(now, m.EndDate)

	switch {
	case daysLeft < 0:
		return Status{
			Code:      StatusExpired,
			Label:     "Expired",
			ClassName: "expired",
			DaysLeft:  &daysLeft,
		}
	case daysLeft <= ExpiringWindowDays:
		return Status{
			Code:      StatusExpiring,
			Label:     fmt.Sprintf("Expiring (%dd)", daysLeft),
			ClassName: "expiring",
			DaysLeft:  &daysLeft,
		}
	default:
		return Status{
			Code:      StatusActive,
			Label:     "Active",
			ClassName: "active",
			DaysLeft:  &daysLeft,
		}
	}
}

type MemberWithStatus struct {
	Member
	Status Status `json:"status"`
}

type CreateMemberRequest struct {
	FullName  string `json:"full_name" binding:"required,max=255"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone" binding:"omitempty,max=30"`
	Plan      string `json:"plan" binding:"required"`
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Notes     string `json:"notes" binding:"omitempty,max=2000"`
}

type UpdateMemberRequest struct {
	FullName  string `json:"full_name" binding:"required,max=255"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone" binding:"omitempty,max=30"`
	Plan      string `json:"plan" binding:"required"`
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Notes     string `json:"notes" binding:"omitempty,max=2000"`
	Inactive  *bool  `json:"inactive"`
}
