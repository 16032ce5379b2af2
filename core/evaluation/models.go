package evaluation

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Type distinguishes preliminary staff evaluations from panel ones.
type Type string

const (
	TypeCCC  Type = "ccc"
	TypeJury Type = "jurado"
)

// State is the lifecycle of an evaluation: borrador → enviada, nothing else.
type State string

const (
	StateDraft     State = "borrador"
	StateSubmitted State = "enviada"
)

// Component caps.
const (
	MaxImpact              = 30.0
	MaxTeam                = 25.0
	MaxInnovation          = 25.0
	MaxSales               = 15.0
	MaxFinancingProjection = 5.0
	MaxRegionalReferral    = 5.0

	MaxRubric = MaxImpact + MaxTeam + MaxInnovation + MaxSales + MaxFinancingProjection
	MaxTotal  = MaxRubric + MaxRegionalReferral
)

// Scores are the juror-entered rubric components.
type Scores struct {
	Impact              float64 `json:"impact" validate:"min=0,max=30"`
	Team                float64 `json:"team" validate:"min=0,max=25"`
	Innovation          float64 `json:"innovation" validate:"min=0,max=25"`
	Sales               float64 `json:"sales" validate:"min=0,max=15"`
	FinancingProjection float64 `json:"financing_projection" validate:"min=0,max=5"`
}

// Breakdown is the aggregated result persisted with the evaluation.
type Breakdown struct {
	Impact              float64 `json:"impact"`
	Team                float64 `json:"team"`
	Innovation          float64 `json:"innovation"`
	Sales               float64 `json:"sales"`
	FinancingProjection float64 `json:"financing_projection"`
	RegionalReferral    float64 `json:"regional_referral"`

	Rubric  float64 `json:"rubric"`
	Derived float64 `json:"derived"`
	Total   float64 `json:"total"`
}

// Rationale holds the optional justification text per component.
type Rationale struct {
	Impact              string `json:"impact"`
	Team                string `json:"team"`
	Innovation          string `json:"innovation"`
	Sales               string `json:"sales"`
	FinancingProjection string `json:"financing_projection"`
	General             string `json:"general"`
}

func (r Rationale) clean() Rationale {
	return Rationale{
		Impact:              strings.TrimSpace(r.Impact),
		Team:                strings.TrimSpace(r.Team),
		Innovation:          strings.TrimSpace(r.Innovation),
		Sales:               strings.TrimSpace(r.Sales),
		FinancingProjection: strings.TrimSpace(r.FinancingProjection),
		General:             strings.TrimSpace(r.General),
	}
}

// Eligibility is the outcome of the four independent gate checks.
type Eligibility struct {
	Location   bool `json:"location"`
	MinTeam    bool `json:"min_team"`
	Dedication bool `json:"dedication"`
	Interest   bool `json:"interest"`
}

type Evaluation struct {
	ID          string      `json:"id"`
	VentureID   string      `json:"venture_id"`
	EvaluatorID string      `json:"evaluator_id"`
	Type        Type        `json:"type"`
	Scores      Scores      `json:"scores"`
	Breakdown   Breakdown   `json:"breakdown"`
	Eligibility Eligibility `json:"eligibility"`
	Rationale   Rationale   `json:"rationale"`
	State       State       `json:"state"`
	Visible     bool        `json:"visible"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	SubmittedAt *time.Time  `json:"submitted_at"`
}

func (e Evaluation) IsSubmitted() bool { return e.State == StateSubmitted }

// NewEvaluation contains information needed to open an evaluation draft.
type NewEvaluation struct {
	VentureID string    `json:"venture_id" validate:"required"`
	Type      Type      `json:"type" validate:"required,evaltype"`
	Scores    Scores    `json:"scores"`
	Rationale Rationale `json:"rationale"`
}

func (ne *NewEvaluation) Validate(validate *validator.Validate) error {
	ne.VentureID = strings.TrimSpace(ne.VentureID)
	ne.Rationale = ne.Rationale.clean()
	return validate.Struct(ne)
}

// UpdateEvaluation replaces the scores and rationale of a draft.
type UpdateEvaluation struct {
	Scores    Scores    `json:"scores"`
	Rationale Rationale `json:"rationale"`
}

func (ue *UpdateEvaluation) Validate(validate *validator.Validate) error {
	ue.Rationale = ue.Rationale.clean()
	return validate.Struct(ue)
}

// QueryFilter is ANDed; zero fields are ignored.
type QueryFilter struct {
	VentureID   string
	EvaluatorID string
	Type        Type
	State       State
	VisibleOnly bool
}

func (qf QueryFilter) Match(e Evaluation) bool {
	if qf.VentureID != "" && e.VentureID != qf.VentureID {
		return false
	}
	if qf.EvaluatorID != "" && e.EvaluatorID != qf.EvaluatorID {
		return false
	}
	if qf.Type != "" && e.Type != qf.Type {
		return false
	}
	if qf.State != "" && e.State != qf.State {
		return false
	}
	if qf.VisibleOnly && !e.Visible {
		return false
	}
	return true
}

// Summary is the profile-facing digest of the submitted panel evaluations.
type Summary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
	Max     float64 `json:"max"`
}
