package session

import (
	"fmt"
	"math"
	"time"
)

// TimeSession is one attendance span. A user has at most one open session at a
// time; once closed it is immutable history.
type TimeSession struct {
	ID               int        `db:"id" json:"id"`
	UserID           int        `db:"user_id" json:"user_id"`
	TimeIn           time.Time  `db:"time_in" json:"time_in"`
	TimeOut          *time.Time `db:"time_out" json:"time_out"`
	CreditsUsedCents int64      `db:"credits_used_cents" json:"credits_used_cents"`
	HourlyRateCents  int64      `db:"hourly_rate_cents" json:"hourly_rate_cents"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// LiveCreditsUsed returns the cost accrued by the session as of now. Closed
// sessions return the frozen stored value; open sessions accrue proportionally
// to fractional hours elapsed, rounded to the nearest cent.
func (s *TimeSession) LiveCreditsUsed(now time.Time) int64 {
	if !s.IsActive {
		return s.CreditsUsedCents
	}

	elapsed := now.Sub(s.TimeIn)
	if elapsed < 0 {
		return 0
	}

	hours := elapsed.Seconds() / 3600
	return int64(math.Round(hours * float64(s.HourlyRateCents)))
}

// DurationMinutes is the session length floored to whole minutes, using
// time_out for closed sessions and now for open ones. Reporting and display
// both go through this.
func (s *TimeSession) DurationMinutes(now time.Time) int {
	end := now
	if s.TimeOut != nil {
		end = *s.TimeOut
	}

	d := end.Sub(s.TimeIn)
	if d < 0 {
		return 0
	}

	return int(d.Minutes())
}

// FormattedDuration renders the session length as "Xh Ym", or "Ym" under an
// hour.
func (s *TimeSession) FormattedDuration(now time.Time) string {
	minutes := s.DurationMinutes(now)
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}

	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
