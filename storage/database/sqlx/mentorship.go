package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/mentorship"
)

const (
	mentorAssignmentColumns = "id, mentor_id, venture_id, is_jury, created_at"
	sessionColumns          = "id, mentor_id, beneficiary_id, profile_id, title, starts_at, ends_at, state, created_at, updated_at"
)

type mentorshipRepository struct {
	exec core.DBExecutor
}

var _ mentorship.Repository = (*mentorshipRepository)(nil) // interface compliance check

func NewMentorshipRepository(exec core.DBExecutor) mentorship.Repository {
	return &mentorshipRepository{exec: exec}
}

func (repo *mentorshipRepository) CreateAssignment(ctx context.Context, a mentorship.Assignment) (mentorship.Assignment, error) {
	_, err := repo.exec.ExecContext(ctx,
		"INSERT INTO mentor_assignments ("+mentorAssignmentColumns+") VALUES ($1, $2, $3, $4, $5)",
		a.ID, a.MentorID, a.VentureID, a.IsJury, a.CreatedAt.UTC(),
	)
	if isUniqueViolation(err) {
		return mentorship.Assignment{}, mentorship.ErrAlreadyAssigned
	}
	return a, errors.Wrap(err, "inserting mentor assignment")
}

func (repo *mentorshipRepository) GetAssignmentByID(ctx context.Context, id string) (mentorship.Assignment, error) {
	var a mentorship.Assignment
	row := repo.exec.QueryRowxContext(ctx, "SELECT "+mentorAssignmentColumns+" FROM mentor_assignments WHERE id = $1", id)
	if err := row.Scan(&a.ID, &a.MentorID, &a.VentureID, &a.IsJury, &a.CreatedAt); err != nil {
		return mentorship.Assignment{}, trapNoRowsErr(err, mentorship.ErrNotFound, "getting mentor assignment")
	}
	return a, nil
}

func (repo *mentorshipRepository) QueryAssignments(ctx context.Context, mentorID, ventureID string) ([]mentorship.Assignment, error) {
	var w where
	if mentorID != "" {
		w.add("mentor_id = ?", mentorID)
	}
	if ventureID != "" {
		w.add("venture_id = ?", ventureID)
	}

	rows, err := repo.exec.QueryxContext(ctx, "SELECT "+mentorAssignmentColumns+" FROM mentor_assignments"+w.String()+" ORDER BY created_at, id", w.args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying mentor assignments")
	}
	defer func() { _ = rows.Close() }()

	var as []mentorship.Assignment
	for rows.Next() {
		var a mentorship.Assignment
		if err := rows.Scan(&a.ID, &a.MentorID, &a.VentureID, &a.IsJury, &a.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning mentor assignment")
		}
		as = append(as, a)
	}
	return as, errors.Wrap(rows.Err(), "querying mentor assignments")
}

func (repo *mentorshipRepository) DeleteAssignment(ctx context.Context, id string) error {
	_, err := repo.exec.ExecContext(ctx, "DELETE FROM mentor_assignments WHERE id = $1", id)
	return errors.Wrap(err, "deleting mentor assignment")
}

func scanSession(sc interface{ Scan(...interface{}) error }) (mentorship.Session, error) {
	var s mentorship.Session
	err := sc.Scan(&s.ID, &s.MentorID, &s.BeneficiaryID, &s.ProfileID, &s.Title, &s.StartsAt, &s.EndsAt, &s.State, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (repo *mentorshipRepository) CreateSession(ctx context.Context, s mentorship.Session) (mentorship.Session, error) {
	_, err := repo.exec.ExecContext(ctx,
		"INSERT INTO mentor_sessions ("+sessionColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
		s.ID, s.MentorID, s.BeneficiaryID, s.ProfileID, s.Title, s.StartsAt.UTC(), s.EndsAt.UTC(), string(s.State),
		s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	)
	return s, errors.Wrap(err, "inserting session")
}

func (repo *mentorshipRepository) GetSessionByID(ctx context.Context, id string) (mentorship.Session, error) {
	s, err := scanSession(repo.exec.QueryRowxContext(ctx, "SELECT "+sessionColumns+" FROM mentor_sessions WHERE id = $1", id))
	if err != nil {
		return mentorship.Session{}, trapNoRowsErr(err, mentorship.ErrSessionNotFound, "getting session")
	}
	return s, nil
}

func (repo *mentorshipRepository) QuerySessions(ctx context.Context, filter mentorship.SessionFilter) ([]mentorship.Session, error) {
	var w where
	if filter.MentorID != "" {
		w.add("mentor_id = ?", filter.MentorID)
	}
	if filter.BeneficiaryID != "" {
		w.add("beneficiary_id = ?", filter.BeneficiaryID)
	}
	if filter.State != "" {
		w.add("state = ?", string(filter.State))
	}

	rows, err := repo.exec.QueryxContext(ctx, "SELECT "+sessionColumns+" FROM mentor_sessions"+w.String()+" ORDER BY starts_at, id", w.args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	defer func() { _ = rows.Close() }()

	var ss []mentorship.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning session")
		}
		ss = append(ss, s)
	}
	return ss, errors.Wrap(rows.Err(), "querying sessions")
}

func (repo *mentorshipRepository) UpdateSession(ctx context.Context, s mentorship.Session) (mentorship.Session, error) {
	res, err := repo.exec.ExecContext(ctx,
		"UPDATE mentor_sessions SET title = $2, starts_at = $3, ends_at = $4, state = $5, updated_at = $6 WHERE id = $1",
		s.ID, s.Title, s.StartsAt.UTC(), s.EndsAt.UTC(), string(s.State), s.UpdatedAt.UTC(),
	)
	if err != nil {
		return mentorship.Session{}, errors.Wrap(err, "updating session")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return mentorship.Session{}, mentorship.ErrSessionNotFound
	}
	return s, nil
}
