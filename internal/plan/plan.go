package plan

import (
	"errors"
	"time"
)

type Plan string

type BillingMode string

const (
	Daily      Plan = "Daily"
	Monthly    Plan = "Monthly"
	Quarterly  Plan = "Quarterly"
	SemiAnnual Plan = "Semi-Annual"
	Annual     Plan = "Annual"

	BillingFlat       BillingMode = "flat_subscription"
	BillingPayAsYouGo BillingMode = "pay_as_you_go"
)

// DailyHourlyRateCents is the pay-as-you-go rate charged to Daily plan
// members per hour of gym time.
const DailyHourlyRateCents int64 = 1000

var ErrInvalidPlan = errors.New("invalid membership plan")

func ParsePlan(s string) (Plan, error) {
	switch Plan(s) {
	case Daily, Monthly, Quarterly, SemiAnnual, Annual:
		return Plan(s), nil
	}
	return "", ErrInvalidPlan
}

// All returns every plan in catalog order, for form selects and validation.
func All() []Plan {
	return []Plan{Daily, Monthly, Quarterly, SemiAnnual, Annual}
}

// Months returns the plan term in whole months. Daily is 0: a same-day
// membership with no forward-dated expiry.
func (p Plan) Months() int {
	switch p {
	case Daily:
		return 0
	case Monthly:
		return 1
	case Quarterly:
		return 3
	case SemiAnnual:
		return 6
	case Annual:
		return 12
	}
	return 0
}

func (p Plan) Billing() BillingMode {
	if p == Daily {
		return BillingPayAsYouGo
	}
	return BillingFlat
}

// HourlyRateCents is the session rate captured at time-in. Flat subscription
// plans train at no per-session cost.
func (p Plan) HourlyRateCents() int64 {
	if p == Daily {
		return DailyHourlyRateCents
	}
	return 0
}

// EndDateFrom computes the membership end date for a term starting at start.
// Daily memberships end the same day they begin.
func (p Plan) EndDateFrom(start time.Time) time.Time {
	if p == Daily {
		return DateOf(start)
	}
	return AddMonths(start, p.Months())
}

// AddMonths adds calendar months, preserving the day-of-month unless the
// target month is shorter, in which case the day clamps to the month's last
// day (Jan 31 + 1 month = Feb 28/29). time.AddDate normalizes overflow
// instead of clamping, which is the wrong semantics for membership terms.
func AddMonths(t time.Time, months int) time.Time {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	target := firstOfMonth.AddDate(0, months, 0)

	day := t.Day()
	lastDay := target.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(target.Year(), target.Month(), day, 0, 0, 0, 0, t.Location())
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the whole-day difference between the calendar dates of
// from and to. Negative when to is in the past relative to from. The inputs
// may carry different locations (a DATE column scans as a UTC midnight while
// request clocks run in server-local time), so both dates are rebuilt in UTC
// before subtracting; otherwise the zone offset leaks into the division and
// truncates a day.
func DaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
