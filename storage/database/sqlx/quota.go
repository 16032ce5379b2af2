package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/quota"
	"github.com/incubaapp/incuba/core/tier"
)

const quotaColumns = "id, venture_id, tier, cohort, state, notes, approved_by, created_at, updated_at"

type quotaRow struct {
	ID         string      `db:"id"`
	VentureID  string      `db:"venture_id"`
	Tier       string      `db:"tier"`
	Cohort     int         `db:"cohort"`
	State      string      `db:"state"`
	Notes      null.String `db:"notes"`
	ApprovedBy null.String `db:"approved_by"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

func toQuotaRow(a quota.Assignment) quotaRow {
	return quotaRow{
		ID:         a.ID,
		VentureID:  a.VentureID,
		Tier:       string(a.Tier),
		Cohort:     a.Cohort,
		State:      string(a.State),
		Notes:      nullString(a.Notes),
		ApprovedBy: nullString(a.ApprovedBy),
		CreatedAt:  a.CreatedAt.UTC(),
		UpdatedAt:  a.UpdatedAt.UTC(),
	}
}

func (r quotaRow) assignment() quota.Assignment {
	return quota.Assignment{
		ID:         r.ID,
		VentureID:  r.VentureID,
		Tier:       tier.Tier(r.Tier),
		Cohort:     r.Cohort,
		State:      quota.State(r.State),
		Notes:      r.Notes.String,
		ApprovedBy: r.ApprovedBy.String,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type quotaRepository struct {
	exec core.DBExecutor
}

var _ quota.Repository = (*quotaRepository)(nil) // interface compliance check

func NewQuotaRepository(exec core.DBExecutor) quota.Repository {
	return &quotaRepository{exec: exec}
}

func (repo *quotaRepository) CreateAssignment(ctx context.Context, a quota.Assignment) (quota.Assignment, error) {
	_, err := repo.exec.NamedExecContext(ctx, `
		INSERT INTO quota_assignments (`+quotaColumns+`)
		VALUES (:id, :venture_id, :tier, :cohort, :state, :notes, :approved_by, :created_at, :updated_at)`,
		toQuotaRow(a),
	)
	return a, errors.Wrap(err, "inserting quota assignment")
}

func (repo *quotaRepository) GetAssignmentByID(ctx context.Context, id string) (quota.Assignment, error) {
	var row quotaRow
	if err := repo.exec.GetContext(ctx, &row, "SELECT "+quotaColumns+" FROM quota_assignments WHERE id = $1", id); err != nil {
		return quota.Assignment{}, trapNoRowsErr(err, quota.ErrNotFound, "getting quota assignment")
	}
	return row.assignment(), nil
}

func (repo *quotaRepository) QueryAssignments(ctx context.Context, filter quota.QueryFilter) ([]quota.Assignment, error) {
	var w where
	if filter.VentureID != "" {
		w.add("venture_id = ?", filter.VentureID)
	}
	if filter.State != "" {
		w.add("state = ?", string(filter.State))
	}

	var rows []quotaRow
	q := "SELECT " + quotaColumns + " FROM quota_assignments" + w.String() + " ORDER BY created_at, id"
	if err := repo.exec.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying quota assignments")
	}
	as := make([]quota.Assignment, 0, len(rows))
	for _, r := range rows {
		as = append(as, r.assignment())
	}
	return as, nil
}

func (repo *quotaRepository) UpdateAssignment(ctx context.Context, a quota.Assignment) (quota.Assignment, error) {
	res, err := repo.exec.NamedExecContext(ctx, `
		UPDATE quota_assignments SET tier = :tier, cohort = :cohort, state = :state, notes = :notes,
			approved_by = :approved_by, updated_at = :updated_at
		WHERE id = :id`,
		toQuotaRow(a),
	)
	// the partial unique index backs the single approval rule under concurrent approvals
	if isUniqueViolation(err) {
		return quota.Assignment{}, quota.ErrAlreadyApproved
	}
	if err != nil {
		return quota.Assignment{}, errors.Wrap(err, "updating quota assignment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return quota.Assignment{}, quota.ErrNotFound
	}
	return a, nil
}
