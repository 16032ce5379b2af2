package export

import (
	"github.com/ecodeclub/ekit/slice"

	"github.com/incubaapp/incuba/core/evaluation"
)

// Table is a header row plus data rows of the same width.
type Table struct {
	Header []string
	Rows   [][]interface{}
}

func headers(cols []Column) []string {
	return slice.Map(cols, func(_ int, c Column) string { return c.Header })
}

func columnsOf(sections []Section) []Column {
	cols := append([]Column{}, keyColumns...)
	for _, s := range sections {
		cols = append(cols, s.Columns...)
	}
	return cols
}

func buildTable(records []Record, cols []Column) Table {
	t := Table{Header: headers(cols), Rows: make([][]interface{}, 0, len(records))}
	for _, r := range records {
		row := make([]interface{}, len(cols))
		for i, c := range cols {
			row[i] = c.Value(r)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// BuildRows flattens the selected sections into one row per venture.
func BuildRows(records []Record, sections []Section) Table {
	return buildTable(records, columnsOf(sections))
}

// SectionTable is the table of a single section sheet.
func SectionTable(records []Record, s Section) Table {
	return buildTable(records, columnsOf([]Section{s}))
}

var evaluationHeader = []string{
	"ID emprendimiento", "Emprendimiento", "Tipo", "Estado", "Evaluador",
	"Impacto", "Equipo", "Innovación", "Ventas", "Financiación y proyección",
	"Referido regional", "Total", "Visible", "Fecha de envío",
}

// EvaluationTable lists every evaluation of the records, one per row.
func EvaluationTable(records []Record) Table {
	t := Table{Header: evaluationHeader}
	for _, r := range records {
		for _, e := range r.Evaluations {
			t.Rows = append(t.Rows, evaluationRow(r, e))
		}
	}
	return t
}

func evaluationRow(r Record, e evaluation.Evaluation) []interface{} {
	submitted := ""
	if e.SubmittedAt != nil {
		submitted = date(*e.SubmittedAt)
	}
	return []interface{}{
		r.Profile.Venture.ID, r.Profile.Venture.Name, string(e.Type), string(e.State), e.EvaluatorID,
		e.Breakdown.Impact, e.Breakdown.Team, e.Breakdown.Innovation, e.Breakdown.Sales,
		e.Breakdown.FinancingProjection, e.Breakdown.RegionalReferral, e.Breakdown.Total,
		yesNo(e.Visible), submitted,
	}
}
