package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Bucket granularities accepted by the rollup queries.
const (
	BucketDay   = "day"
	BucketMonth = "month"
	BucketYear  = "year"
)

type Repository interface {
	RevenueBy(ctx context.Context, bucket string, from, to time.Time) ([]RevenueBucket, error)
	SessionEarningsBy(ctx context.Context, bucket string, from, to time.Time) ([]EarningsBucket, error)
	AttendanceByDay(ctx context.Context, from, to time.Time) ([]AttendanceBucket, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) Repository {
	return &repository{db: database}
}

func bucketExpr(bucket, column string) (string, error) {
	switch bucket {
	case BucketDay:
		return fmt.Sprintf("TO_CHAR(%s, 'YYYY-MM-DD')", column), nil
	case BucketMonth:
		return fmt.Sprintf("TO_CHAR(%s, 'YYYY-MM')", column), nil
	case BucketYear:
		return fmt.Sprintf("TO_CHAR(%s, 'YYYY')", column), nil
	default:
		return "", fmt.Errorf("unknown report bucket %q", bucket)
	}
}

// RevenueBy sums settled payments per bucket. Only mark_paid rows count as
// revenue; their amounts are negative in the ledger, so the rollup takes the
// absolute value.
func (r *repository) RevenueBy(ctx context.Context, bucket string, from, to time.Time) ([]RevenueBucket, error) {
	expr, err := bucketExpr(bucket, "created_at")
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
SELECT
  %s                        AS bucket,
  SUM(ABS(amount_cents))    AS revenue_cents,
  COUNT(*)                  AS payments
FROM balance_logs
WHERE type = 'mark_paid' AND created_at BETWEEN $1 AND $2
GROUP BY bucket
ORDER BY bucket;
`, expr)

	stats := []RevenueBucket{}
	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, err
	}
	return stats, nil
}

// SessionEarningsBy sums accrued session fees per bucket over closed sessions
// that actually charged something.
func (r *repository) SessionEarningsBy(ctx context.Context, bucket string, from, to time.Time) ([]EarningsBucket, error) {
	expr, err := bucketExpr(bucket, "time_in")
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
SELECT
  %s                        AS bucket,
  SUM(credits_used_cents)   AS earnings_cents,
  COUNT(*)                  AS sessions
FROM time_sessions
WHERE time_out IS NOT NULL
  AND credits_used_cents > 0
  AND time_in BETWEEN $1 AND $2
GROUP BY bucket
ORDER BY bucket;
`, expr)

	stats := []EarningsBucket{}
	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *repository) AttendanceByDay(ctx context.Context, from, to time.Time) ([]AttendanceBucket, error) {
	query := `
SELECT
  TO_CHAR(time_in, 'YYYY-MM-DD') AS bucket,
  COUNT(*)                       AS sessions
FROM time_sessions
WHERE time_in BETWEEN $1 AND $2
GROUP BY bucket
ORDER BY bucket;
`

	stats := []AttendanceBucket{}
	if err := r.db.SelectContext(ctx, &stats, query, from, to); err != nil {
		return nil, err
	}
	return stats, nil
}
