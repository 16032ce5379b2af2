package quota

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/incubaapp/incuba/core/tier"
)

// State of an asignación de cupo.
type State string

const (
	StatePending  State = "pendiente"
	StateApproved State = "aprobado"
	StateRejected State = "rechazado"
)

// Assignment grants a venture a seat in a tier cohort. Once approved, its
// tier is the authoritative level of the venture.
type Assignment struct {
	ID         string    `json:"id"`
	VentureID  string    `json:"venture_id"`
	Tier       tier.Tier `json:"tier"`
	Cohort     int       `json:"cohort"`
	State      State     `json:"state"`
	Notes      string    `json:"notes"`
	ApprovedBy string    `json:"approved_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (a Assignment) IsApproved() bool { return a.State == StateApproved }

type NewAssignment struct {
	VentureID string    `json:"venture_id" validate:"required"`
	Tier      tier.Tier `json:"tier" validate:"required,tier"`
	Cohort    int       `json:"cohort" validate:"min=1"`
	Notes     string    `json:"notes"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.VentureID = strings.TrimSpace(na.VentureID)
	na.Notes = strings.TrimSpace(na.Notes)
	if t, err := tier.ParseTier(string(na.Tier)); err == nil {
		na.Tier = t
	}
	return validate.Struct(na)
}

type QueryFilter struct {
	VentureID string
	State     State
}

func (qf QueryFilter) Match(a Assignment) bool {
	if qf.VentureID != "" && a.VentureID != qf.VentureID {
		return false
	}
	if qf.State != "" && a.State != qf.State {
		return false
	}
	return true
}

// ApprovedNotice is the data of the quota_approved email template.
type ApprovedNotice struct {
	Name    string
	Venture string
	Tier    tier.Tier
	Cohort  int
}
