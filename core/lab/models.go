package lab

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/incubaapp/incuba/core"
)

// Module groups the classes and tasks of one curriculum unit.
type Module struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Class struct {
	ID        string    `json:"id"`
	ModuleID  string    `json:"module_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	VideoURL  string    `json:"video_url"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task is an assignment learners answer with uploaded files.
type Task struct {
	ID            string     `json:"id"`
	ModuleID      string     `json:"module_id"`
	Title         string     `json:"title"`
	Instructions  string     `json:"instructions"`
	DueAt         *time.Time `json:"due_at"`
	RequiredFiles int        `json:"required_files"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Open is true while submissions are accepted.
func (t Task) Open(now time.Time) bool {
	return t.DueAt == nil || !now.After(*t.DueAt)
}

type SubmissionState string

const (
	SubmissionDraft     SubmissionState = "borrador"
	SubmissionSubmitted SubmissionState = "enviada"
)

type Grade string

const (
	GradePending        Grade = "pendiente"
	GradeApproved       Grade = "aprobada"
	GradeChangesRequest Grade = "requiere_cambios"
)

// Submission holds object storage paths, never file contents.
type Submission struct {
	ID          string          `json:"id"`
	TaskID      string          `json:"task_id"`
	LearnerID   string          `json:"learner_id"`
	Files       []string        `json:"files"`
	Comment     string          `json:"comment"`
	State       SubmissionState `json:"state"`
	Grade       Grade           `json:"grade"`
	Feedback    string          `json:"feedback"`
	GradedBy    string          `json:"graded_by,omitempty"`
	SubmittedAt *time.Time      `json:"submitted_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (s Submission) IsSubmitted() bool { return s.State == SubmissionSubmitted }

type ModuleInput struct {
	Title       string `json:"title" validate:"required,notblank"`
	Description string `json:"description"`
	Position    int    `json:"position" validate:"min=0"`
}

func (mi *ModuleInput) Validate(validate *validator.Validate) error {
	mi.Title = core.CleanString(mi.Title)
	mi.Description = strings.TrimSpace(mi.Description)
	return validate.Struct(mi)
}

type ClassInput struct {
	ModuleID string `json:"module_id" validate:"required"`
	Title    string `json:"title" validate:"required,notblank"`
	Content  string `json:"content"`
	VideoURL string `json:"video_url" validate:"omitempty,url"`
	Position int    `json:"position" validate:"min=0"`
}

func (ci *ClassInput) Validate(validate *validator.Validate) error {
	ci.Title = core.CleanString(ci.Title)
	ci.VideoURL = strings.TrimSpace(ci.VideoURL)
	return validate.Struct(ci)
}

type TaskInput struct {
	ModuleID      string     `json:"module_id" validate:"required"`
	Title         string     `json:"title" validate:"required,notblank"`
	Instructions  string     `json:"instructions"`
	DueAt         *time.Time `json:"due_at"`
	RequiredFiles int        `json:"required_files" validate:"min=0,max=10"`
}

func (ti *TaskInput) Validate(validate *validator.Validate) error {
	ti.Title = core.CleanString(ti.Title)
	ti.Instructions = strings.TrimSpace(ti.Instructions)
	if ti.DueAt != nil {
		due := ti.DueAt.UTC()
		ti.DueAt = &due
	}
	return validate.Struct(ti)
}

type SubmissionInput struct {
	Files   []string `json:"files" validate:"dive,required"`
	Comment string   `json:"comment"`
}

func (si *SubmissionInput) Validate(validate *validator.Validate) error {
	files := si.Files[:0]
	for _, f := range si.Files {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	si.Files = files
	si.Comment = strings.TrimSpace(si.Comment)
	return validate.Struct(si)
}

type GradeInput struct {
	Grade    Grade  `json:"grade" validate:"required,oneof=aprobada requiere_cambios"`
	Feedback string `json:"feedback"`
}

type SubmissionFilter struct {
	TaskID    string
	LearnerID string
	State     SubmissionState
}

func (sf SubmissionFilter) Match(s Submission) bool {
	if sf.TaskID != "" && s.TaskID != sf.TaskID {
		return false
	}
	if sf.LearnerID != "" && s.LearnerID != sf.LearnerID {
		return false
	}
	if sf.State != "" && s.State != sf.State {
		return false
	}
	return true
}

// Upload is a presigned upload target for a submission file.
type Upload struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}
