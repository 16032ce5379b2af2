package dummydb

import (
	"context"
	"sort"

	"github.com/incubaapp/incuba/core/lab"
)

type labRepository struct {
	modules     *table[lab.Module]
	classes     *table[lab.Class]
	tasks       *table[lab.Task]
	submissions *table[lab.Submission]
}

var _ lab.Repository = (*labRepository)(nil) // interface compliance check

func NewLabRepository(db *DB) lab.Repository {
	return &labRepository{modules: db.module, classes: db.class, tasks: db.task, submissions: db.submission}
}

// getRow and putRow lock a table around a single lookup or write.
func getRow[T any](t *table[T], id string, notFound error) (T, error) {
	t.RLock()
	defer t.RUnlock()

	row, ok := t.get(id)
	if !ok {
		return row, notFound
	}
	return row, nil
}

func putRow[T any](t *table[T], id string, row T, mustExist bool, notFound error) (T, error) {
	t.Lock()
	defer t.Unlock()

	if _, ok := t.get(id); mustExist && !ok {
		var zero T
		return zero, notFound
	}
	t.put(id, row)
	return row, nil
}

func deleteRow[T any](t *table[T], id string, notFound error) error {
	t.Lock()
	defer t.Unlock()

	if !t.delete(id) {
		return notFound
	}
	return nil
}

func (repo *labRepository) CreateModule(_ context.Context, m lab.Module) (lab.Module, error) {
	return putRow(repo.modules, m.ID, m, false, nil)
}

func (repo *labRepository) GetModuleByID(_ context.Context, id string) (lab.Module, error) {
	return getRow(repo.modules, id, lab.ErrModuleNotFound)
}

func (repo *labRepository) QueryModules(_ context.Context) ([]lab.Module, error) {
	repo.modules.RLock()
	defer repo.modules.RUnlock()

	ms := repo.modules.filter(nil)
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Position < ms[j].Position })
	return ms, nil
}

func (repo *labRepository) UpdateModule(_ context.Context, m lab.Module) (lab.Module, error) {
	return putRow(repo.modules, m.ID, m, true, lab.ErrModuleNotFound)
}

func (repo *labRepository) DeleteModule(_ context.Context, id string) error {
	return deleteRow(repo.modules, id, lab.ErrModuleNotFound)
}

func (repo *labRepository) CreateClass(_ context.Context, c lab.Class) (lab.Class, error) {
	return putRow(repo.classes, c.ID, c, false, nil)
}

func (repo *labRepository) GetClassByID(_ context.Context, id string) (lab.Class, error) {
	return getRow(repo.classes, id, lab.ErrClassNotFound)
}

func (repo *labRepository) QueryClasses(_ context.Context, moduleID string) ([]lab.Class, error) {
	repo.classes.RLock()
	defer repo.classes.RUnlock()

	cs := repo.classes.filter(func(c lab.Class) bool { return c.ModuleID == moduleID })
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Position < cs[j].Position })
	return cs, nil
}

func (repo *labRepository) UpdateClass(_ context.Context, c lab.Class) (lab.Class, error) {
	return putRow(repo.classes, c.ID, c, true, lab.ErrClassNotFound)
}

func (repo *labRepository) DeleteClass(_ context.Context, id string) error {
	return deleteRow(repo.classes, id, lab.ErrClassNotFound)
}

func (repo *labRepository) CreateTask(_ context.Context, t lab.Task) (lab.Task, error) {
	return putRow(repo.tasks, t.ID, t, false, nil)
}

func (repo *labRepository) GetTaskByID(_ context.Context, id string) (lab.Task, error) {
	return getRow(repo.tasks, id, lab.ErrTaskNotFound)
}

func (repo *labRepository) QueryTasks(_ context.Context, moduleID string) ([]lab.Task, error) {
	repo.tasks.RLock()
	defer repo.tasks.RUnlock()
	return repo.tasks.filter(func(t lab.Task) bool { return t.ModuleID == moduleID }), nil
}

func (repo *labRepository) UpdateTask(_ context.Context, t lab.Task) (lab.Task, error) {
	return putRow(repo.tasks, t.ID, t, true, lab.ErrTaskNotFound)
}

func (repo *labRepository) DeleteTask(_ context.Context, id string) error {
	return deleteRow(repo.tasks, id, lab.ErrTaskNotFound)
}

func (repo *labRepository) CreateSubmission(_ context.Context, s lab.Submission) (lab.Submission, error) {
	s.Files = append([]string(nil), s.Files...)
	return putRow(repo.submissions, s.ID, s, false, nil)
}

func (repo *labRepository) GetSubmissionByID(_ context.Context, id string) (lab.Submission, error) {
	return getRow(repo.submissions, id, lab.ErrSubmissionNotFound)
}

func (repo *labRepository) QuerySubmissions(_ context.Context, filter lab.SubmissionFilter) ([]lab.Submission, error) {
	repo.submissions.RLock()
	defer repo.submissions.RUnlock()
	return repo.submissions.filter(filter.Match), nil
}

func (repo *labRepository) UpdateSubmission(_ context.Context, s lab.Submission) (lab.Submission, error) {
	s.Files = append([]string(nil), s.Files...)
	return putRow(repo.submissions, s.ID, s, true, lab.ErrSubmissionNotFound)
}
