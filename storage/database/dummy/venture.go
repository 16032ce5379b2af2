package dummydb

import (
	"context"

	"github.com/incubaapp/incuba/core/venture"
)

type ventureRepository struct {
	db          *table[venture.Venture]
	team        *table[venture.Team]
	financing   *table[venture.Financing]
	projections *table[venture.Projections]
}

var _ venture.Repository = (*ventureRepository)(nil) // interface compliance check

func NewVentureRepository(db *DB) venture.Repository {
	return &ventureRepository{
		db:          db.venture,
		team:        db.team,
		financing:   db.financing,
		projections: db.projections,
	}
}

func (repo *ventureRepository) CreateVenture(_ context.Context, v venture.Venture) (venture.Venture, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if len(repo.db.filter(func(o venture.Venture) bool { return o.OwnerID == v.OwnerID })) > 0 {
		return venture.Venture{}, venture.ErrOwnerHasVenture
	}
	repo.db.put(v.ID, v)
	return v, nil
}

func (repo *ventureRepository) GetVentureByID(_ context.Context, id string) (venture.Venture, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if v, ok := repo.db.get(id); ok {
		return v, nil
	}
	return venture.Venture{}, venture.ErrNotFound
}

func (repo *ventureRepository) GetVentureByOwner(_ context.Context, ownerID string) (venture.Venture, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if vs := repo.db.filter(func(v venture.Venture) bool { return v.OwnerID == ownerID }); len(vs) > 0 {
		return vs[0], nil
	}
	return venture.Venture{}, venture.ErrNotFound
}

func (repo *ventureRepository) QueryVentures(_ context.Context, filter *venture.QueryFilter) ([]venture.Venture, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.filter(func(v venture.Venture) bool { return filter == nil || filter.Match(v) }), nil
}

func (repo *ventureRepository) UpdateVenture(_ context.Context, v venture.Venture) (venture.Venture, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.get(v.ID); !ok {
		return venture.Venture{}, venture.ErrNotFound
	}
	repo.db.put(v.ID, v)
	return v, nil
}

func (repo *ventureRepository) GetTeam(_ context.Context, ventureID string) (venture.Team, error) {
	repo.team.RLock()
	defer repo.team.RUnlock()

	if t, ok := repo.team.get(ventureID); ok {
		return t, nil
	}
	return venture.Team{}, venture.ErrNotFound
}

func (repo *ventureRepository) UpsertTeam(_ context.Context, t venture.Team) (venture.Team, error) {
	repo.team.Lock()
	defer repo.team.Unlock()
	repo.team.put(t.VentureID, t)
	return t, nil
}

func (repo *ventureRepository) QueryTeams(_ context.Context) (map[string]venture.Team, error) {
	repo.team.RLock()
	defer repo.team.RUnlock()

	idx := make(map[string]venture.Team, len(repo.team.rows))
	for k, t := range repo.team.rows {
		idx[k] = t
	}
	return idx, nil
}

func (repo *ventureRepository) GetFinancing(_ context.Context, ventureID string) (venture.Financing, error) {
	repo.financing.RLock()
	defer repo.financing.RUnlock()

	if f, ok := repo.financing.get(ventureID); ok {
		return f, nil
	}
	return venture.Financing{}, venture.ErrNotFound
}

func (repo *ventureRepository) UpsertFinancing(_ context.Context, f venture.Financing) (venture.Financing, error) {
	repo.financing.Lock()
	defer repo.financing.Unlock()
	repo.financing.put(f.VentureID, f)
	return f, nil
}

func (repo *ventureRepository) GetProjections(_ context.Context, ventureID string) (venture.Projections, error) {
	repo.projections.RLock()
	defer repo.projections.RUnlock()

	if p, ok := repo.projections.get(ventureID); ok {
		return p, nil
	}
	return venture.Projections{}, venture.ErrNotFound
}

func (repo *ventureRepository) UpsertProjections(_ context.Context, p venture.Projections) (venture.Projections, error) {
	repo.projections.Lock()
	defer repo.projections.Unlock()
	repo.projections.put(p.VentureID, p)
	return p, nil
}
