// Package export flattens venture records into spreadsheet tables and
// writes them as xlsx workbooks.
package export

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core/evaluation"
	"github.com/incubaapp/incuba/core/quota"
	"github.com/incubaapp/incuba/core/tier"
	"github.com/incubaapp/incuba/core/venture"
)

// Record is everything exported about one venture.
type Record struct {
	Profile     venture.Profile
	Evaluations []evaluation.Evaluation
	Quota       *quota.Assignment // approved assignment, if any
	Summary     evaluation.Summary
	Level       tier.Level
}

type Column struct {
	Header string
	Value  func(r Record) interface{}
}

type Section struct {
	Key     string
	Title   string // sheet name
	Columns []Column
}

const dateLayout = "2006-01-02"

var ErrUnknownSection = errors.New("unknown export section")

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func team(r Record) venture.Team {
	if r.Profile.Team == nil {
		return venture.Team{}
	}
	return *r.Profile.Team
}

func financing(r Record) venture.Financing {
	if r.Profile.Financing == nil {
		return venture.Financing{}
	}
	return *r.Profile.Financing
}

func projections(r Record) venture.Projections {
	if r.Profile.Projections == nil {
		return venture.Projections{}
	}
	return *r.Profile.Projections
}

// keyColumns lead every row.
var keyColumns = []Column{
	{"ID", func(r Record) interface{} { return r.Profile.Venture.ID }},
	{"Emprendimiento", func(r Record) interface{} { return r.Profile.Venture.Name }},
}

var (
	SectionVenture = Section{Key: "emprendimiento", Title: "Emprendimiento", Columns: []Column{
		{"Descripción", func(r Record) interface{} { return r.Profile.Venture.Description }},
		{"Categoría", func(r Record) interface{} { return r.Profile.Venture.Category }},
		{"Etapa", func(r Record) interface{} { return r.Profile.Venture.Stage }},
		{"Alcance de mercado", func(r Record) interface{} { return r.Profile.Venture.MarketReach }},
		{"Formalizado", func(r Record) interface{} { return yesNo(r.Profile.Venture.Formalized) }},
		{"Nivel de innovación", func(r Record) interface{} { return r.Profile.Venture.InnovationLevel }},
		{"Departamento", func(r Record) interface{} { return r.Profile.Venture.Department }},
		{"Municipio", func(r Record) interface{} { return r.Profile.Venture.Municipality }},
		{"Fecha de registro", func(r Record) interface{} { return date(r.Profile.Venture.CreatedAt) }},
	}}

	SectionTeam = Section{Key: "equipo", Title: "Equipo", Columns: []Column{
		{"Total integrantes", func(r Record) interface{} { return team(r).Total }},
		{"Personas tiempo completo", func(r Record) interface{} { return team(r).FullTime }},
		{"Fundadores", func(r Record) interface{} { return team(r).Founders }},
		{"Colaboradores", func(r Record) interface{} { return team(r).Collaborators }},
	}}

	SectionFinancing = Section{Key: "financiamiento", Title: "Financiamiento", Columns: []Column{
		{"Tiene financiamiento", func(r Record) interface{} { return yesNo(financing(r).HasFinancing) }},
		{"Fuente", func(r Record) interface{} { return financing(r).Source }},
		{"Rango de monto", func(r Record) interface{} { return financing(r).AmountRange }},
		{"Necesidades de inversión", func(r Record) interface{} { return financing(r).InvestmentNeeds }},
		{"Observaciones", func(r Record) interface{} { return financing(r).Notes }},
	}}

	SectionProjections = Section{Key: "proyecciones", Title: "Proyecciones", Columns: []Column{
		{"Meta de ventas", func(r Record) interface{} { return projections(r).SalesGoal }},
		{"Nuevos mercados", func(r Record) interface{} { return projections(r).NewMarkets }},
		{"Empleos esperados", func(r Record) interface{} { return projections(r).JobsExpected }},
		{"Plan a tres años", func(r Record) interface{} { return projections(r).ThreeYearPlan }},
		{"Apoyo requerido", func(r Record) interface{} { return projections(r).SupportNeeded }},
	}}

	SectionEvaluation = Section{Key: "evaluacion", Title: "Evaluación", Columns: []Column{
		{"Evaluaciones de jurado", func(r Record) interface{} { return r.Summary.Count }},
		{"Puntaje promedio", func(r Record) interface{} { return r.Summary.Average }},
		{"Puntaje máximo", func(r Record) interface{} { return r.Summary.Max }},
	}}

	SectionQuota = Section{Key: "cupo", Title: "Cupo", Columns: []Column{
		{"Cupo aprobado", func(r Record) interface{} { return yesNo(r.Quota != nil) }},
		{"Nivel del cupo", func(r Record) interface{} {
			if r.Quota == nil {
				return ""
			}
			return string(r.Quota.Tier)
		}},
		{"Cohorte", func(r Record) interface{} {
			if r.Quota == nil {
				return ""
			}
			return r.Quota.Cohort
		}},
	}}

	SectionLevel = Section{Key: "nivel", Title: "Nivel", Columns: []Column{
		{"Nivel", func(r Record) interface{} { return r.Level.String() }},
	}}

	// Sections lists every section in export order.
	Sections = []Section{
		SectionVenture, SectionTeam, SectionFinancing, SectionProjections,
		SectionEvaluation, SectionQuota, SectionLevel,
	}
)

// ParseSections resolves section keys; no keys selects every section.
// Duplicates are dropped and the canonical order is kept.
func ParseSections(keys []string) ([]Section, error) {
	if len(keys) == 0 {
		return Sections, nil
	}
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		for _, part := range strings.Split(k, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			found := false
			for _, s := range Sections {
				if s.Key == part {
					found = true
					break
				}
			}
			if !found {
				return nil, errors.Wrapf(ErrUnknownSection, "%q", part)
			}
			wanted[part] = true
		}
	}
	out := make([]Section, 0, len(wanted))
	for _, s := range Sections {
		if wanted[s.Key] {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return Sections, nil
	}
	return out, nil
}
