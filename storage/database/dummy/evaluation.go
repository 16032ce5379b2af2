package dummydb

import (
	"context"

	"github.com/incubaapp/incuba/core/evaluation"
)

type evaluationRepository struct {
	db *table[evaluation.Evaluation]
}

var _ evaluation.Repository = (*evaluationRepository)(nil) // interface compliance check

func NewEvaluationRepository(db *DB) evaluation.Repository {
	return &evaluationRepository{db: db.evaluation}
}

func (repo *evaluationRepository) CreateEvaluation(_ context.Context, e evaluation.Evaluation, juryCap int) (evaluation.Evaluation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	dup := evaluation.QueryFilter{VentureID: e.VentureID, EvaluatorID: e.EvaluatorID, Type: e.Type}
	if len(repo.db.filter(dup.Match)) > 0 {
		return evaluation.Evaluation{}, evaluation.ErrDuplicate
	}
	if e.Type == evaluation.TypeJury {
		panel := evaluation.QueryFilter{VentureID: e.VentureID, Type: evaluation.TypeJury}
		if len(repo.db.filter(panel.Match)) >= juryCap {
			return evaluation.Evaluation{}, evaluation.ErrJuryFull
		}
	}
	repo.db.put(e.ID, e)
	return e, nil
}

func (repo *evaluationRepository) GetEvaluationByID(_ context.Context, id string) (evaluation.Evaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.get(id); ok {
		return e, nil
	}
	return evaluation.Evaluation{}, evaluation.ErrNotFound
}

func (repo *evaluationRepository) QueryEvaluations(_ context.Context, filter evaluation.QueryFilter) ([]evaluation.Evaluation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.db.filter(filter.Match), nil
}

func (repo *evaluationRepository) UpdateEvaluation(_ context.Context, e evaluation.Evaluation) (evaluation.Evaluation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.get(e.ID); !ok {
		return evaluation.Evaluation{}, evaluation.ErrNotFound
	}
	repo.db.put(e.ID, e)
	return e, nil
}
