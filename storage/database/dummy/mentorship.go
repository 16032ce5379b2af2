package dummydb

import (
	"context"
	"sort"

	"github.com/incubaapp/incuba/core/mentorship"
)

type mentorshipRepository struct {
	assignments *table[mentorship.Assignment]
	sessions    *table[mentorship.Session]
}

var _ mentorship.Repository = (*mentorshipRepository)(nil) // interface compliance check

func NewMentorshipRepository(db *DB) mentorship.Repository {
	return &mentorshipRepository{assignments: db.mentor, sessions: db.session}
}

func (repo *mentorshipRepository) CreateAssignment(_ context.Context, a mentorship.Assignment) (mentorship.Assignment, error) {
	repo.assignments.Lock()
	defer repo.assignments.Unlock()

	dup := repo.assignments.filter(func(o mentorship.Assignment) bool {
		return o.MentorID == a.MentorID && o.VentureID == a.VentureID
	})
	if len(dup) > 0 {
		return mentorship.Assignment{}, mentorship.ErrAlreadyAssigned
	}
	repo.assignments.put(a.ID, a)
	return a, nil
}

func (repo *mentorshipRepository) GetAssignmentByID(_ context.Context, id string) (mentorship.Assignment, error) {
	repo.assignments.RLock()
	defer repo.assignments.RUnlock()

	if a, ok := repo.assignments.get(id); ok {
		return a, nil
	}
	return mentorship.Assignment{}, mentorship.ErrNotFound
}

func (repo *mentorshipRepository) QueryAssignments(_ context.Context, mentorID, ventureID string) ([]mentorship.Assignment, error) {
	repo.assignments.RLock()
	defer repo.assignments.RUnlock()

	return repo.assignments.filter(func(a mentorship.Assignment) bool {
		return (mentorID == "" || a.MentorID == mentorID) && (ventureID == "" || a.VentureID == ventureID)
	}), nil
}

func (repo *mentorshipRepository) DeleteAssignment(_ context.Context, id string) error {
	repo.assignments.Lock()
	defer repo.assignments.Unlock()
	repo.assignments.delete(id)
	return nil
}

func (repo *mentorshipRepository) CreateSession(_ context.Context, s mentorship.Session) (mentorship.Session, error) {
	repo.sessions.Lock()
	defer repo.sessions.Unlock()
	repo.sessions.put(s.ID, s)
	return s, nil
}

func (repo *mentorshipRepository) GetSessionByID(_ context.Context, id string) (mentorship.Session, error) {
	repo.sessions.RLock()
	defer repo.sessions.RUnlock()

	if s, ok := repo.sessions.get(id); ok {
		return s, nil
	}
	return mentorship.Session{}, mentorship.ErrSessionNotFound
}

func (repo *mentorshipRepository) QuerySessions(_ context.Context, filter mentorship.SessionFilter) ([]mentorship.Session, error) {
	repo.sessions.RLock()
	defer repo.sessions.RUnlock()

	ss := repo.sessions.filter(filter.Match)
	sort.SliceStable(ss, func(i, j int) bool { return ss[i].StartsAt.Before(ss[j].StartsAt) })
	return ss, nil
}

func (repo *mentorshipRepository) UpdateSession(_ context.Context, s mentorship.Session) (mentorship.Session, error) {
	repo.sessions.Lock()
	defer repo.sessions.Unlock()

	if _, ok := repo.sessions.get(s.ID); !ok {
		return mentorship.Session{}, mentorship.ErrSessionNotFound
	}
	repo.sessions.put(s.ID, s)
	return s, nil
}
