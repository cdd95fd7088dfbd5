package report

// RevenueBucket is one rollup row over settled (mark_paid) ledger entries.
type RevenueBucket struct {
	Bucket       string `db:"bucket" json:"bucket"`
	RevenueCents int64  `db:"revenue_cents" json:"revenue_cents"`
	Payments     int    `db:"payments" json:"payments"`
}

// EarningsBucket is one rollup row over closed pay-as-you-go sessions.
type EarningsBucket struct {
	Bucket        string `db:"bucket" json:"bucket"`
	EarningsCents int64  `db:"earnings_cents" json:"earnings_cents"`
	Sessions      int    `db:"sessions" json:"sessions"`
}

// AttendanceBucket counts all sessions started per day, chargeable or not.
type AttendanceBucket struct {
	Bucket   string `db:"bucket" json:"bucket"`
	Sessions int    `db:"sessions" json:"sessions"`
}
