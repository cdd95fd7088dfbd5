package member

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"gymdesk/internal/plan"
)

var ErrMemberNotFound = errors.New("member not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const memberColumns = `id, user_id, full_name, email, phone, plan, start_date, end_date, notes, inactive, renewals, created_at, updated_at`

func (r *repository) Create(ctx context.Context, m *Member) (*Member, error) {
	created := &Member{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO members (user_id, full_name, email, phone, plan, start_date, end_date, notes, inactive, renewals)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+memberColumns+`
	`, m.UserID, m.FullName, m.Email, m.Phone, m.Plan, m.StartDate, m.EndDate, m.Notes, m.Inactive, m.Renewals).StructScan(created)
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *repository) Update(ctx context.Context, m *Member) (*Member, error) {
	updated := &Member{}
	err := r.db.QueryRowxContext(ctx, `
		UPDATE members
		SET user_id = $1, full_name = $2, email = $3, phone = $4, plan = $5,
		    start_date = $6, end_date = $7, notes = $8, inactive = $9,
		    renewals = $10, updated_at = NOW()
		WHERE id = $11
		RETURNING `+memberColumns+`
	`, m.UserID, m.FullName, m.Email, m.Phone, m.Plan, m.StartDate, m.EndDate, m.Notes, m.Inactive, m.Renewals, m.ID).StructScan(updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	return updated, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*Member, error) {
	m := &Member{}
	err := r.db.GetContext(ctx, m, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}

	return m, nil
}

func (r *repository) FindByUserID(ctx context.Context, userID int) (*Member, error) {
	m := &Member{}
	err := r.db.GetContext(ctx, m, `SELECT `+memberColumns+` FROM members WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// PlanForUser reports the membership plan linked to a user account, or
// hasPlan=false when the user has no member record.
func (r *repository) PlanForUser(ctx context.Context, userID int) (plan.Plan, bool, error) {
	var p plan.Plan
	err := r.db.GetContext(ctx, &p, `SELECT plan FROM members WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}

	return p, true, nil
}

func (r *repository) List(ctx context.Context) ([]Member, error) {
	members := []Member{}
	err := r.db.SelectContext(ctx, &members, `SELECT `+memberColumns+` FROM members ORDER BY full_name`)
	if err != nil {
		return nil, err
	}

	return members, nil
}

// ListExpiring returns non-inactive members whose end date falls inside the
// window, for reminder mails.
func (r *repository) ListExpiring(ctx context.Context, from, to time.Time) ([]Member, error) {
	members := []Member{}
	err := r.db.SelectContext(ctx, &members, `
		SELECT `+memberColumns+`
		FROM members
		WHERE inactive = FALSE AND end_date BETWEEN $1 AND $2
		ORDER BY end_date
	`, from, to)
	if err != nil {
		return nil, err
	}

	return members, nil
}

func (r *repository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrMemberNotFound
	}

	return nil
}
