package dummydb

import (
	"context"

	"github.com/incubaapp/incuba/core/quota"
)

type quotaRepository struct {
	db *table[quota.Assignment]
}

var _ quota.Repository = (*quotaRepository)(nil) // interface compliance check

func NewQuotaRepository(db *DB) quota.Repository {
	return &quotaRepository{db: db.quota}
}

func (repo *quotaRepository) CreateAssignment(_ context.Context, a quota.Assignment) (quota.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.put(a.ID, a)
	return a, nil
}

func (repo *quotaRepository) GetAssignmentByID(_ context.Context, id string) (quota.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.get(id); ok {
		return a, nil
	}
	return quota.Assignment{}, quota.ErrNotFound
}

func (repo *quotaRepository) QueryAssignments(_ context.Context, filter quota.QueryFilter) ([]quota.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.filter(filter.Match), nil
}

func (repo *quotaRepository) UpdateAssignment(_ context.Context, a quota.Assignment) (quota.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.get(a.ID); !ok {
		return quota.Assignment{}, quota.ErrNotFound
	}
	if a.IsApproved() {
		for _, o := range repo.db.filter(quota.QueryFilter{VentureID: a.VentureID, State: quota.StateApproved}.Match) {
			if o.ID != a.ID {
				return quota.Assignment{}, quota.ErrAlreadyApproved
			}
		}
	}
	repo.db.put(a.ID, a)
	return a, nil
}
