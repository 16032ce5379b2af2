package venture

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/incubaapp/incuba/core"
)

// Venture is an emprendimiento. Each one belongs to exactly one user.
type Venture struct {
	ID              string    `json:"id" db:"id"`
	OwnerID         string    `json:"owner_id" db:"owner_id"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	Category        string    `json:"category" db:"category"`
	Stage           string    `json:"stage" db:"stage"`
	MarketReach     string    `json:"market_reach" db:"market_reach"`
	Formalized      bool      `json:"formalized" db:"formalized"`
	InnovationLevel string    `json:"innovation_level" db:"innovation_level"`
	Department      string    `json:"department" db:"department"`
	Municipality    string    `json:"municipality" db:"municipality"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Team (equipo) holds the headcount breakdown used by the eligibility gate.
type Team struct {
	VentureID     string    `json:"venture_id" db:"venture_id"`
	Total         int       `json:"total" db:"total" validate:"min=0"`
	FullTime      int       `json:"full_time" db:"full_time" validate:"min=0,ltefield=Total"`
	Founders      int       `json:"founders" db:"founders" validate:"min=0"`
	Collaborators int       `json:"collaborators" db:"collaborators" validate:"min=0"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Financing (financiamiento) is stored as entered; nothing is derived from it.
type Financing struct {
	VentureID       string    `json:"venture_id" db:"venture_id"`
	HasFinancing    bool      `json:"has_financing" db:"has_financing"`
	Source          string    `json:"source" db:"source"`
	AmountRange     string    `json:"amount_range" db:"amount_range"`
	InvestmentNeeds string    `json:"investment_needs" db:"investment_needs"`
	Notes           string    `json:"notes" db:"notes"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Projections (proyecciones) is stored as entered.
type Projections struct {
	VentureID     string    `json:"venture_id" db:"venture_id"`
	SalesGoal     string    `json:"sales_goal" db:"sales_goal"`
	NewMarkets    string    `json:"new_markets" db:"new_markets"`
	JobsExpected  string    `json:"jobs_expected" db:"jobs_expected"`
	ThreeYearPlan string    `json:"three_year_plan" db:"three_year_plan"`
	SupportNeeded string    `json:"support_needed" db:"support_needed"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// Profile is a venture with its one-to-one satellites; missing satellites are nil.
type Profile struct {
	Venture     Venture      `json:"venture"`
	Team        *Team        `json:"team"`
	Financing   *Financing   `json:"financing"`
	Projections *Projections `json:"projections"`
}

// NewVenture contains information needed to register a venture.
type NewVenture struct {
	Name            string `json:"name" validate:"required,notblank"`
	Description     string `json:"description"`
	Category        string `json:"category" validate:"required"`
	Stage           string `json:"stage" validate:"required"`
	MarketReach     string `json:"market_reach"`
	Formalized      bool   `json:"formalized"`
	InnovationLevel string `json:"innovation_level"`
	Department      string `json:"department"`
	Municipality    string `json:"municipality"`
}

func (nv *NewVenture) Validate(validate *validator.Validate) error {
	nv.Name = core.CleanString(nv.Name)
	nv.Description = strings.TrimSpace(nv.Description)
	nv.Department = core.CleanString(nv.Department)
	nv.Municipality = core.CleanString(nv.Municipality)
	return validate.Struct(nv)
}

// UpdateVenture only replaces the non-empty fields; Formalized is a pointer for the same reason.
type UpdateVenture struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	Stage           string `json:"stage"`
	MarketReach     string `json:"market_reach"`
	Formalized      *bool  `json:"formalized"`
	InnovationLevel string `json:"innovation_level"`
	Department      string `json:"department"`
	Municipality    string `json:"municipality"`
}

func (uv UpdateVenture) apply(v Venture) Venture {
	set := func(dst *string, val string) {
		if val = strings.TrimSpace(val); val != "" {
			*dst = val
		}
	}
	set(&v.Name, uv.Name)
	set(&v.Description, uv.Description)
	set(&v.Category, uv.Category)
	set(&v.Stage, uv.Stage)
	set(&v.MarketReach, uv.MarketReach)
	set(&v.InnovationLevel, uv.InnovationLevel)
	set(&v.Department, uv.Department)
	set(&v.Municipality, uv.Municipality)
	if uv.Formalized != nil {
		v.Formalized = *uv.Formalized
	}
	return v
}

type QueryFilter struct {
	Search   string `query:"search"`
	Category string `query:"category"`
	Stage    string `query:"stage"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category)
	qf.Stage = core.CleanString(qf.Stage)
}

// Match applies the filter in memory.
func (qf *QueryFilter) Match(v Venture) bool {
	if qf.Search != "" {
		s := strings.ToLower(qf.Search)
		if !strings.Contains(strings.ToLower(v.Name), s) && !strings.Contains(strings.ToLower(v.Description), s) {
			return false
		}
	}
	if qf.Category != "" && !strings.EqualFold(v.Category, qf.Category) {
		return false
	}
	if qf.Stage != "" && !strings.EqualFold(v.Stage, qf.Stage) {
		return false
	}
	return true
}
