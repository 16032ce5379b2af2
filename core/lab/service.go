package lab

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/user"
)

const submissionsPrefix = "submissions"

var (
	// errors
	ErrModuleNotFound     = core.NewNotFoundError("module")
	ErrClassNotFound      = core.NewNotFoundError("class")
	ErrTaskNotFound       = core.NewNotFoundError("task")
	ErrSubmissionNotFound = core.NewNotFoundError("submission")
	ErrModuleNotEmpty     = core.NewConflictError("module still has classes or tasks")
	ErrDeadlinePassed     = core.NewConflictError("task deadline has passed")
	ErrSubmitted          = core.NewConflictError("submission already sent")
	ErrNotSubmitted       = core.NewConflictError("submission has not been sent")
	ErrFileForbidden      = core.NewForbiddenError("file does not belong to the user")
)

type (
	Repository interface {
		CreateModule(ctx context.Context, m Module) (Module, error)
		GetModuleByID(ctx context.Context, id string) (Module, error)
		// QueryModules returns every module ordered by position.
		QueryModules(ctx context.Context) ([]Module, error)
		UpdateModule(ctx context.Context, m Module) (Module, error)
		DeleteModule(ctx context.Context, id string) error

		CreateClass(ctx context.Context, c Class) (Class, error)
		GetClassByID(ctx context.Context, id string) (Class, error)
		// QueryClasses returns the classes of a module ordered by position.
		QueryClasses(ctx context.Context, moduleID string) ([]Class, error)
		UpdateClass(ctx context.Context, c Class) (Class, error)
		DeleteClass(ctx context.Context, id string) error

		CreateTask(ctx context.Context, t Task) (Task, error)
		GetTaskByID(ctx context.Context, id string) (Task, error)
		QueryTasks(ctx context.Context, moduleID string) ([]Task, error)
		UpdateTask(ctx context.Context, t Task) (Task, error)
		DeleteTask(ctx context.Context, id string) error

		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		QuerySubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error)
		UpdateSubmission(ctx context.Context, s Submission) (Submission, error)
	}

	// FileStore hands out time-limited URLs to the object store.
	FileStore interface {
		SignedGetURL(ctx context.Context, path string) (string, error)
		SignedPutURL(ctx context.Context, path, contentType string) (string, error)
	}

	Service struct {
		repo     Repository
		files    FileStore
		validate *validator.Validate
	}
)

func NewService(repo Repository, files FileStore, validate *validator.Validate) *Service {
	return &Service{repo: repo, files: files, validate: validate}
}

// Modules

func (svc *Service) CreateModule(ctx context.Context, mi ModuleInput) (Module, error) {
	if err := mi.Validate(svc.validate); err != nil {
		return Module{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateModule(ctx, Module{
		ID:          uuid.New().String(),
		Title:       mi.Title,
		Description: mi.Description,
		Position:    mi.Position,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) UpdateModule(ctx context.Context, id string, mi ModuleInput) (Module, error) {
	if err := mi.Validate(svc.validate); err != nil {
		return Module{}, err
	}
	m, err := svc.repo.GetModuleByID(ctx, id)
	if err != nil {
		return Module{}, err
	}
	m.Title = mi.Title
	m.Description = mi.Description
	m.Position = mi.Position
	m.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateModule(ctx, m)
}

func (svc *Service) DeleteModule(ctx context.Context, id string) error {
	if _, err := svc.repo.GetModuleByID(ctx, id); err != nil {
		return err
	}
	classes, err := svc.repo.QueryClasses(ctx, id)
	if err != nil {
		return err
	}
	tasks, err := svc.repo.QueryTasks(ctx, id)
	if err != nil {
		return err
	}
	if len(classes) > 0 || len(tasks) > 0 {
		return ErrModuleNotEmpty
	}
	return svc.repo.DeleteModule(ctx, id)
}

func (svc *Service) GetModule(ctx context.Context, id string) (Module, error) {
	return svc.repo.GetModuleByID(ctx, id)
}

func (svc *Service) ListModules(ctx context.Context) ([]Module, error) {
	return svc.repo.QueryModules(ctx)
}

// Classes

func (svc *Service) CreateClass(ctx context.Context, ci ClassInput) (Class, error) {
	if err := ci.Validate(svc.validate); err != nil {
		return Class{}, err
	}
	if _, err := svc.repo.GetModuleByID(ctx, ci.ModuleID); err != nil {
		return Class{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateClass(ctx, Class{
		ID:        uuid.New().String(),
		ModuleID:  ci.ModuleID,
		Title:     ci.Title,
		Content:   ci.Content,
		VideoURL:  ci.VideoURL,
		Position:  ci.Position,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) UpdateClass(ctx context.Context, id string, ci ClassInput) (Class, error) {
	if err := ci.Validate(svc.validate); err != nil {
		return Class{}, err
	}
	c, err := svc.repo.GetClassByID(ctx, id)
	if err != nil {
		return Class{}, err
	}
	if ci.ModuleID != c.ModuleID {
		if _, err := svc.repo.GetModuleByID(ctx, ci.ModuleID); err != nil {
			return Class{}, err
		}
	}
	c.ModuleID = ci.ModuleID
	c.Title = ci.Title
	c.Content = ci.Content
	c.VideoURL = ci.VideoURL
	c.Position = ci.Position
	c.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(ctx, c)
}

func (svc *Service) DeleteClass(ctx context.Context, id string) error {
	if _, err := svc.repo.GetClassByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteClass(ctx, id)
}

func (svc *Service) GetClass(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClassByID(ctx, id)
}

func (svc *Service) ListClasses(ctx context.Context, moduleID string) ([]Class, error) {
	return svc.repo.QueryClasses(ctx, moduleID)
}

// Tasks

func (svc *Service) CreateTask(ctx context.Context, ti TaskInput) (Task, error) {
	if err := ti.Validate(svc.validate); err != nil {
		return Task{}, err
	}
	if _, err := svc.repo.GetModuleByID(ctx, ti.ModuleID); err != nil {
		return Task{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateTask(ctx, Task{
		ID:            uuid.New().String(),
		ModuleID:      ti.ModuleID,
		Title:         ti.Title,
		Instructions:  ti.Instructions,
		DueAt:         ti.DueAt,
		RequiredFiles: ti.RequiredFiles,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (svc *Service) UpdateTask(ctx context.Context, id string, ti TaskInput) (Task, error) {
	if err := ti.Validate(svc.validate); err != nil {
		return Task{}, err
	}
	t, err := svc.repo.GetTaskByID(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if ti.ModuleID != t.ModuleID {
		if _, err := svc.repo.GetModuleByID(ctx, ti.ModuleID); err != nil {
			return Task{}, err
		}
	}
	t.ModuleID = ti.ModuleID
	t.Title = ti.Title
	t.Instructions = ti.Instructions
	t.DueAt = ti.DueAt
	t.RequiredFiles = ti.RequiredFiles
	t.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTask(ctx, t)
}

func (svc *Service) DeleteTask(ctx context.Context, id string) error {
	if _, err := svc.repo.GetTaskByID(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteTask(ctx, id)
}

func (svc *Service) GetTask(ctx context.Context, id string) (Task, error) {
	return svc.repo.GetTaskByID(ctx, id)
}

func (svc *Service) ListTasks(ctx context.Context, moduleID string) ([]Task, error) {
	return svc.repo.QueryTasks(ctx, moduleID)
}

// Submissions

func submissionDir(taskID, learnerID string) string {
	return path.Join(submissionsPrefix, taskID, learnerID) + "/"
}

// checkFiles makes sure every path was issued to this learner for this task.
func checkFiles(taskID, learnerID string, files []string) error {
	dir := submissionDir(taskID, learnerID)
	var flds []core.FieldError
	for i, f := range files {
		if !strings.HasPrefix(path.Clean(f), dir) {
			flds = append(flds, core.FieldError{Field: fmt.Sprintf("files[%d]", i), Error: "unknown file"})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func checkFileCount(t Task, files []string) error {
	if len(files) < t.RequiredFiles {
		return core.NewValidationError(nil, core.FieldError{
			Field: "files",
			Error: fmt.Sprintf("at least %d files are required", t.RequiredFiles),
		})
	}
	return nil
}

func (svc *Service) learnerSubmission(ctx context.Context, taskID, learnerID string) (Submission, error) {
	subs, err := svc.repo.QuerySubmissions(ctx, SubmissionFilter{TaskID: taskID, LearnerID: learnerID})
	if err != nil {
		return Submission{}, errors.Wrap(err, "querying submissions")
	}
	if len(subs) == 0 {
		return Submission{}, ErrSubmissionNotFound
	}
	return subs[0], nil
}

// SaveDraft creates or replaces the learner's draft for a task.
func (svc *Service) SaveDraft(ctx context.Context, learnerID, taskID string, si SubmissionInput) (Submission, error) {
	if err := si.Validate(svc.validate); err != nil {
		return Submission{}, err
	}
	t, err := svc.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		return Submission{}, err
	}
	if err := checkFiles(taskID, learnerID, si.Files); err != nil {
		return Submission{}, err
	}

	now := time.Now().UTC()
	sub, err := svc.learnerSubmission(ctx, t.ID, learnerID)
	switch {
	case err == ErrSubmissionNotFound:
		return svc.repo.CreateSubmission(ctx, Submission{
			ID:        uuid.New().String(),
			TaskID:    t.ID,
			LearnerID: learnerID,
			Files:     si.Files,
			Comment:   si.Comment,
			State:     SubmissionDraft,
			Grade:     GradePending,
			CreatedAt: now,
			UpdatedAt: now,
		})
	case err != nil:
		return Submission{}, err
	case sub.IsSubmitted():
		return Submission{}, ErrSubmitted
	}
	sub.Files = si.Files
	sub.Comment = si.Comment
	sub.UpdatedAt = now
	return svc.repo.UpdateSubmission(ctx, sub)
}

// Submit sends the learner's draft. The task must still be open and the
// draft must carry the required number of files.
func (svc *Service) Submit(ctx context.Context, learnerID, taskID string) (Submission, error) {
	t, err := svc.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		return Submission{}, err
	}
	sub, err := svc.learnerSubmission(ctx, t.ID, learnerID)
	if err != nil {
		return Submission{}, err
	}
	if sub.IsSubmitted() {
		return Submission{}, ErrSubmitted
	}

	now := time.Now().UTC()
	if !t.Open(now) {
		return Submission{}, ErrDeadlinePassed
	}
	if err := checkFileCount(t, sub.Files); err != nil {
		return Submission{}, err
	}
	sub.State = SubmissionSubmitted
	sub.SubmittedAt = &now
	sub.UpdatedAt = now
	return svc.repo.UpdateSubmission(ctx, sub)
}

// Resubmit replaces the files of a sent submission before the deadline. The
// grade goes back to pendiente.
func (svc *Service) Resubmit(ctx context.Context, learnerID, taskID string, si SubmissionInput) (Submission, error) {
	if err := si.Validate(svc.validate); err != nil {
		return Submission{}, err
	}
	t, err := svc.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		return Submission{}, err
	}
	sub, err := svc.learnerSubmission(ctx, t.ID, learnerID)
	if err != nil {
		return Submission{}, err
	}
	if !sub.IsSubmitted() {
		return Submission{}, ErrNotSubmitted
	}

	now := time.Now().UTC()
	if !t.Open(now) {
		return Submission{}, ErrDeadlinePassed
	}
	if err := checkFiles(taskID, learnerID, si.Files); err != nil {
		return Submission{}, err
	}
	if err := checkFileCount(t, si.Files); err != nil {
		return Submission{}, err
	}
	sub.Files = si.Files
	sub.Comment = si.Comment
	sub.Grade = GradePending
	sub.Feedback = ""
	sub.GradedBy = ""
	sub.SubmittedAt = &now
	sub.UpdatedAt = now
	return svc.repo.UpdateSubmission(ctx, sub)
}

func (svc *Service) GradeSubmission(ctx context.Context, graderID, id string, gi GradeInput) (Submission, error) {
	gi.Feedback = strings.TrimSpace(gi.Feedback)
	if err := svc.validate.Struct(gi); err != nil {
		return Submission{}, err
	}
	sub, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if !sub.IsSubmitted() {
		return Submission{}, ErrNotSubmitted
	}
	sub.Grade = gi.Grade
	sub.Feedback = gi.Feedback
	sub.GradedBy = graderID
	sub.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSubmission(ctx, sub)
}

func (svc *Service) GetSubmission(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmissionByID(ctx, id)
}

func (svc *Service) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, filter)
}

// UploadURL reserves an object path for a new submission file and returns a
// presigned upload URL for it.
func (svc *Service) UploadURL(ctx context.Context, learnerID, taskID, filename, contentType string) (Upload, error) {
	t, err := svc.repo.GetTaskByID(ctx, taskID)
	if err != nil {
		return Upload{}, err
	}
	if !t.Open(time.Now().UTC()) {
		return Upload{}, ErrDeadlinePassed
	}
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return Upload{}, core.NewValidationError(nil, core.FieldError{Field: "filename", Error: "this field is required"})
	}

	p := submissionDir(taskID, learnerID) + uuid.New().String() + "-" + name
	u, err := svc.files.SignedPutURL(ctx, p, contentType)
	if err != nil {
		return Upload{}, errors.Wrap(err, "signing upload url")
	}
	return Upload{Path: p, URL: u}, nil
}

// FileURL signs a download URL. Staff may read any submission file, learners
// only their own.
func (svc *Service) FileURL(ctx context.Context, actor user.User, p string) (string, error) {
	p = path.Clean(strings.TrimSpace(p))
	parts := strings.Split(p, "/")
	if len(parts) < 4 || parts[0] != submissionsPrefix {
		return "", ErrFileForbidden
	}
	if !actor.IsStaff() && parts[2] != actor.ID {
		return "", ErrFileForbidden
	}
	return svc.files.SignedGetURL(ctx, p)
}
