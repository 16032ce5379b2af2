package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incubaapp/incuba/core/evaluation"
	"github.com/incubaapp/incuba/core/quota"
	"github.com/incubaapp/incuba/core/tier"
	"github.com/incubaapp/incuba/core/venture"
)

func TestParseSections(t *testing.T) {
	tests := []struct {
		keys    []string
		want    []string
		wantErr bool
	}{
		{nil, []string{"emprendimiento", "equipo", "financiamiento", "proyecciones", "evaluacion", "cupo", "nivel"}, false},
		{[]string{"nivel", "equipo"}, []string{"equipo", "nivel"}, false},
		{[]string{" Cupo , cupo"}, []string{"cupo"}, false},
		{[]string{","}, []string{"emprendimiento", "equipo", "financiamiento", "proyecciones", "evaluacion", "cupo", "nivel"}, false},
		{[]string{"equipo", "fotos"}, nil, true},
	}
	for _, tt := range tests {
		got, err := ParseSections(tt.keys)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownSection)
			continue
		}
		require.NoError(t, err)
		keys := make([]string, 0, len(got))
		for _, s := range got {
			keys = append(keys, s.Key)
		}
		assert.Equal(t, tt.want, keys, "%v", tt.keys)
	}
}

func TestBuildRows(t *testing.T) {
	growth := tier.Growth
	records := []Record{
		{
			Profile: venture.Profile{
				Venture: venture.Venture{ID: "v1", Name: "Café"},
				Team:    &venture.Team{Total: 3, FullTime: 2},
			},
			Quota: &quota.Assignment{Tier: growth, Cohort: 4, State: quota.StateApproved},
			Level: tier.LevelOf(growth),
		},
		{
			Profile: venture.Profile{Venture: venture.Venture{ID: "v2", Name: "Cacao"}},
			Summary: evaluation.Summary{Count: 2, Average: 72.5, Max: 85},
		},
	}

	tbl := BuildRows(records, []Section{SectionTeam, SectionLevel})
	assert.Equal(t, []string{"ID", "Emprendimiento", "Total integrantes", "Personas tiempo completo", "Fundadores", "Colaboradores", "Nivel"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []interface{}{"v1", "Café", 3, 2, 0, 0, "Growth"}, tbl.Rows[0])
	assert.Equal(t, []interface{}{"v2", "Cacao", 0, 0, 0, 0, tier.UnclassifiedLabel}, tbl.Rows[1])

	for _, row := range BuildRows(records, Sections).Rows {
		assert.Len(t, row, len(columnsOf(Sections)))
	}

	ev := SectionTable(records, SectionEvaluation)
	assert.Equal(t, []interface{}{"v2", "Cacao", 2, 72.5, 85.0}, ev.Rows[1])
}

func TestSectionWorkbookSheets(t *testing.T) {
	wb, err := SectionWorkbook(nil, nil)
	require.NoError(t, err)
	defer wb.Close()
	titles := make([]string, 0, len(Sections))
	for _, s := range Sections {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, titles, wb.Sheets())
	assert.Equal(t, titles, wb.File().GetSheetList())
}
