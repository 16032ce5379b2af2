package sqlxrepos

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/lab"
)

const (
	moduleColumns     = "id, title, description, position, created_at, updated_at"
	classColumns      = "id, module_id, title, content, video_url, position, created_at, updated_at"
	taskColumns       = "id, module_id, title, instructions, due_at, required_files, created_at, updated_at"
	submissionColumns = "id, task_id, learner_id, files, comment, state, grade, feedback, graded_by, submitted_at, created_at, updated_at"
)

type moduleRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	Position    int         `db:"position"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r moduleRow) module() lab.Module {
	return lab.Module{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description.String,
		Position:    r.Position,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type classRow struct {
	ID        string      `db:"id"`
	ModuleID  string      `db:"module_id"`
	Title     string      `db:"title"`
	Content   null.String `db:"content"`
	VideoURL  null.String `db:"video_url"`
	Position  int         `db:"position"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r classRow) class() lab.Class {
	return lab.Class{
		ID:        r.ID,
		ModuleID:  r.ModuleID,
		Title:     r.Title,
		Content:   r.Content.String,
		VideoURL:  r.VideoURL.String,
		Position:  r.Position,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type taskRow struct {
	ID            string      `db:"id"`
	ModuleID      string      `db:"module_id"`
	Title         string      `db:"title"`
	Instructions  null.String `db:"instructions"`
	DueAt         null.Time   `db:"due_at"`
	RequiredFiles int         `db:"required_files"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func (r taskRow) task() lab.Task {
	return lab.Task{
		ID:            r.ID,
		ModuleID:      r.ModuleID,
		Title:         r.Title,
		Instructions:  r.Instructions.String,
		DueAt:         r.DueAt.Ptr(),
		RequiredFiles: r.RequiredFiles,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type submissionRow struct {
	ID          string         `db:"id"`
	TaskID      string         `db:"task_id"`
	LearnerID   string         `db:"learner_id"`
	Files       pq.StringArray `db:"files"`
	Comment     null.String    `db:"comment"`
	State       string         `db:"state"`
	Grade       string         `db:"grade"`
	Feedback    null.String    `db:"feedback"`
	GradedBy    null.String    `db:"graded_by"`
	SubmittedAt null.Time      `db:"submitted_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func toSubmissionRow(s lab.Submission) submissionRow {
	files := s.Files
	if files == nil {
		files = []string{}
	}
	return submissionRow{
		ID:          s.ID,
		TaskID:      s.TaskID,
		LearnerID:   s.LearnerID,
		Files:       pq.StringArray(files),
		Comment:     nullString(s.Comment),
		State:       string(s.State),
		Grade:       string(s.Grade),
		Feedback:    nullString(s.Feedback),
		GradedBy:    nullString(s.GradedBy),
		SubmittedAt: null.TimeFromPtr(s.SubmittedAt),
		CreatedAt:   s.CreatedAt.UTC(),
		UpdatedAt:   s.UpdatedAt.UTC(),
	}
}

func (r submissionRow) submission() lab.Submission {
	return lab.Submission{
		ID:          r.ID,
		TaskID:      r.TaskID,
		LearnerID:   r.LearnerID,
		Files:       []string(r.Files),
		Comment:     r.Comment.String,
		State:       lab.SubmissionState(r.State),
		Grade:       lab.Grade(r.Grade),
		Feedback:    r.Feedback.String,
		GradedBy:    r.GradedBy.String,
		SubmittedAt: r.SubmittedAt.Ptr(),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type labRepository struct {
	exec core.DBExecutor
}

var _ lab.Repository = (*labRepository)(nil) // interface compliance check

func NewLabRepository(exec core.DBExecutor) lab.Repository {
	return &labRepository{exec: exec}
}

// write runs a statement and maps "nothing touched" to notFound.
func (repo *labRepository) write(ctx context.Context, notFound error, msg, q string, args ...interface{}) error {
	res, err := repo.exec.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrap(err, msg)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound
	}
	return nil
}

// Modules

func (repo *labRepository) CreateModule(ctx context.Context, m lab.Module) (lab.Module, error) {
	_, err := repo.exec.ExecContext(ctx, "INSERT INTO lab_modules ("+moduleColumns+") VALUES ($1, $2, $3, $4, $5, $6)",
		m.ID, m.Title, nullString(m.Description), m.Position, m.CreatedAt.UTC(), m.UpdatedAt.UTC())
	return m, errors.Wrap(err, "inserting module")
}

func (repo *labRepository) GetModuleByID(ctx context.Context, id string) (lab.Module, error) {
	var row moduleRow
	if err := repo.exec.GetContext(ctx, &row, "SELECT "+moduleColumns+" FROM lab_modules WHERE id = $1", id); err != nil {
		return lab.Module{}, trapNoRowsErr(err, lab.ErrModuleNotFound, "getting module")
	}
	return row.module(), nil
}

func (repo *labRepository) QueryModules(ctx context.Context) ([]lab.Module, error) {
	var rows []moduleRow
	if err := repo.exec.SelectContext(ctx, &rows, "SELECT "+moduleColumns+" FROM lab_modules ORDER BY position, created_at"); err != nil {
		return nil, errors.Wrap(err, "querying modules")
	}
	ms := make([]lab.Module, 0, len(rows))
	for _, r := range rows {
		ms = append(ms, r.module())
	}
	return ms, nil
}

func (repo *labRepository) UpdateModule(ctx context.Context, m lab.Module) (lab.Module, error) {
	err := repo.write(ctx, lab.ErrModuleNotFound, "updating module",
		"UPDATE lab_modules SET title = $2, description = $3, position = $4, updated_at = $5 WHERE id = $1",
		m.ID, m.Title, nullString(m.Description), m.Position, m.UpdatedAt.UTC())
	return m, err
}

func (repo *labRepository) DeleteModule(ctx context.Context, id string) error {
	return repo.write(ctx, lab.ErrModuleNotFound, "deleting module", "DELETE FROM lab_modules WHERE id = $1", id)
}

// Classes

func (repo *labRepository) CreateClass(ctx context.Context, c lab.Class) (lab.Class, error) {
	_, err := repo.exec.ExecContext(ctx, "INSERT INTO lab_classes ("+classColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		c.ID, c.ModuleID, c.Title, nullString(c.Content), nullString(c.VideoURL), c.Position, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	return c, errors.Wrap(err, "inserting class")
}

func (repo *labRepository) GetClassByID(ctx context.Context, id string) (lab.Class, error) {
	var row classRow
	if err := repo.exec.GetContext(ctx, &row, "SELECT "+classColumns+" FROM lab_classes WHERE id = $1", id); err != nil {
		return lab.Class{}, trapNoRowsErr(err, lab.ErrClassNotFound, "getting class")
	}
	return row.class(), nil
}

func (repo *labRepository) QueryClasses(ctx context.Context, moduleID string) ([]lab.Class, error) {
	var rows []classRow
	q := "SELECT " + classColumns + " FROM lab_classes WHERE module_id = $1 ORDER BY position, created_at"
	if err := repo.exec.SelectContext(ctx, &rows, q, moduleID); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	cs := make([]lab.Class, 0, len(rows))
	for _, r := range rows {
		cs = append(cs, r.class())
	}
	return cs, nil
}

func (repo *labRepository) UpdateClass(ctx context.Context, c lab.Class) (lab.Class, error) {
	err := repo.write(ctx, lab.ErrClassNotFound, "updating class",
		"UPDATE lab_classes SET module_id = $2, title = $3, content = $4, video_url = $5, position = $6, updated_at = $7 WHERE id = $1",
		c.ID, c.ModuleID, c.Title, nullString(c.Content), nullString(c.VideoURL), c.Position, c.UpdatedAt.UTC())
	return c, err
}

func (repo *labRepository) DeleteClass(ctx context.Context, id string) error {
	return repo.write(ctx, lab.ErrClassNotFound, "deleting class", "DELETE FROM lab_classes WHERE id = $1", id)
}

// Tasks

func (repo *labRepository) CreateTask(ctx context.Context, t lab.Task) (lab.Task, error) {
	_, err := repo.exec.ExecContext(ctx, "INSERT INTO lab_tasks ("+taskColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		t.ID, t.ModuleID, t.Title, nullString(t.Instructions), null.TimeFromPtr(t.DueAt), t.RequiredFiles, t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	return t, errors.Wrap(err, "inserting task")
}

func (repo *labRepository) GetTaskByID(ctx context.Context, id string) (lab.Task, error) {
	var row taskRow
	if err := repo.exec.GetContext(ctx, &row, "SELECT "+taskColumns+" FROM lab_tasks WHERE id = $1", id); err != nil {
		return lab.Task{}, trapNoRowsErr(err, lab.ErrTaskNotFound, "getting task")
	}
	return row.task(), nil
}

func (repo *labRepository) QueryTasks(ctx context.Context, moduleID string) ([]lab.Task, error) {
	var rows []taskRow
	q := "SELECT " + taskColumns + " FROM lab_tasks WHERE module_id = $1 ORDER BY due_at NULLS LAST, created_at"
	if err := repo.exec.SelectContext(ctx, &rows, q, moduleID); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	ts := make([]lab.Task, 0, len(rows))
	for _, r := range rows {
		ts = append(ts, r.task())
	}
	return ts, nil
}

func (repo *labRepository) UpdateTask(ctx context.Context, t lab.Task) (lab.Task, error) {
	err := repo.write(ctx, lab.ErrTaskNotFound, "updating task",
		"UPDATE lab_tasks SET module_id = $2, title = $3, instructions = $4, due_at = $5, required_files = $6, updated_at = $7 WHERE id = $1",
		t.ID, t.ModuleID, t.Title, nullString(t.Instructions), null.TimeFromPtr(t.DueAt), t.RequiredFiles, t.UpdatedAt.UTC())
	return t, err
}

func (repo *labRepository) DeleteTask(ctx context.Context, id string) error {
	return repo.write(ctx, lab.ErrTaskNotFound, "deleting task", "DELETE FROM lab_tasks WHERE id = $1", id)
}

// Submissions

func (repo *labRepository) CreateSubmission(ctx context.Context, s lab.Submission) (lab.Submission, error) {
	_, err := repo.exec.NamedExecContext(ctx, `
		INSERT INTO lab_submissions (`+submissionColumns+`)
		VALUES (:id, :task_id, :learner_id, :files, :comment, :state, :grade, :feedback, :graded_by,
			:submitted_at, :created_at, :updated_at)`,
		toSubmissionRow(s),
	)
	if isUniqueViolation(err) {
		return lab.Submission{}, lab.ErrSubmitted
	}
	return s, errors.Wrap(err, "inserting submission")
}

func (repo *labRepository) GetSubmissionByID(ctx context.Context, id string) (lab.Submission, error) {
	var row submissionRow
	if err := repo.exec.GetContext(ctx, &row, "SELECT "+submissionColumns+" FROM lab_submissions WHERE id = $1", id); err != nil {
		return lab.Submission{}, trapNoRowsErr(err, lab.ErrSubmissionNotFound, "getting submission")
	}
	return row.submission(), nil
}

func (repo *labRepository) QuerySubmissions(ctx context.Context, filter lab.SubmissionFilter) ([]lab.Submission, error) {
	var w where
	if filter.TaskID != "" {
		w.add("task_id = ?", filter.TaskID)
	}
	if filter.LearnerID != "" {
		w.add("learner_id = ?", filter.LearnerID)
	}
	if filter.State != "" {
		w.add("state = ?", string(filter.State))
	}

	var rows []submissionRow
	q := "SELECT " + submissionColumns + " FROM lab_submissions" + w.String() + " ORDER BY created_at, id"
	if err := repo.exec.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]lab.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.submission())
	}
	return subs, nil
}

func (repo *labRepository) UpdateSubmission(ctx context.Context, s lab.Submission) (lab.Submission, error) {
	res, err := repo.exec.NamedExecContext(ctx, `
		UPDATE lab_submissions SET files = :files, comment = :comment, state = :state, grade = :grade,
			feedback = :feedback, graded_by = :graded_by, submitted_at = :submitted_at, updated_at = :updated_at
		WHERE id = :id`,
		toSubmissionRow(s),
	)
	if err != nil {
		return lab.Submission{}, errors.Wrap(err, "updating submission")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return lab.Submission{}, lab.ErrSubmissionNotFound
	}
	return s, nil
}
