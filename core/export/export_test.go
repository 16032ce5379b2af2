package export_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/incubaapp/incuba/core/dashboard"
	"github.com/incubaapp/incuba/core/evaluation"
	"github.com/incubaapp/incuba/core/export"
	"github.com/incubaapp/incuba/core/quota"
	"github.com/incubaapp/incuba/core/tier"
	"github.com/incubaapp/incuba/core/user"
	"github.com/incubaapp/incuba/core/venture"
	testutil "github.com/incubaapp/incuba/tests"
)

func seed(t *testing.T) (*testutil.Env, *export.Service) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@example.com", []string{user.RoleAdmin})
	o1 := testutil.CreateUser(t, env.UserRepo, "Owner 1", "o1@example.com", []string{user.RoleCandidate})
	o2 := testutil.CreateUser(t, env.UserRepo, "Owner 2", "o2@example.com", []string{user.RoleCandidate})
	j1 := testutil.CreateUser(t, env.UserRepo, "J1", "j1@example.com", []string{user.RoleMentor})
	j2 := testutil.CreateUser(t, env.UserRepo, "J2", "j2@example.com", []string{user.RoleMentor})

	v1 := testutil.CreateVenture(t, env, o1.ID, "Café Galeras", "Pasto", 2, 1)
	v2 := testutil.CreateVenture(t, env, o2.ID, "Cacao Tumaco", "Pasto", 1, 0)

	testutil.AssignJuror(t, env, j1.ID, v2.ID)
	testutil.AssignJuror(t, env, j2.ID, v2.ID)
	testutil.SubmitEvaluation(t, env, j1.ID, v2.ID, evaluation.TypeJury, evaluation.Scores{Impact: 20, Team: 20, Innovation: 10, Sales: 10})
	testutil.SubmitEvaluation(t, env, j2.ID, v2.ID, evaluation.TypeJury, evaluation.Scores{Impact: 30, Team: 25, Innovation: 20, Sales: 10})

	a, err := env.Quotas.Create(ctx, quota.NewAssignment{VentureID: v1.ID, Tier: tier.Growth, Cohort: 2})
	require.NoError(t, err)
	_, _, err = env.Quotas.Approve(ctx, admin.ID, a.ID)
	require.NoError(t, err)

	return env, export.NewService(env.Ventures, env.Evaluations, env.Quotas)
}

func TestRecords(t *testing.T) {
	_, svc := seed(t)
	records, err := svc.Records(context.Background(), export.Query{})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Café Galeras", records[0].Profile.Venture.Name)
	require.NotNil(t, records[0].Quota)
	assert.Equal(t, tier.LevelOf(tier.Growth), records[0].Level)
	require.NotNil(t, records[0].Profile.Team)

	assert.Nil(t, records[1].Quota)
	assert.Equal(t, tier.LevelOf(tier.Scale), records[1].Level)
	assert.Equal(t, evaluation.Summary{Count: 2, Average: 72.5, Max: 85}, records[1].Summary)
}

func TestRecordsPopulationFacets(t *testing.T) {
	_, svc := seed(t)
	tests := []struct {
		name  string
		query export.Query
		want  []string
	}{
		{name: "beneficiaries at Growth", query: export.Query{FilterType: dashboard.FilterBeneficiaries, Nivel: dashboard.NivelFilter(tier.Growth)}, want: []string{"Café Galeras"}},
		{name: "candidates at Growth", query: export.Query{FilterType: dashboard.FilterCandidates, Nivel: dashboard.NivelFilter(tier.Growth)}},
		{name: "classified candidates", query: export.Query{Nivel: dashboard.NivelCandidates}, want: []string{"Cacao Tumaco"}},
		{name: "everyone at Scale", query: export.Query{FilterType: dashboard.FilterAll, Nivel: dashboard.NivelFilter(tier.Scale)}, want: []string{"Cacao Tumaco"}},
		{name: "facets after the venture filter", query: export.Query{Filter: venture.QueryFilter{Search: "galeras"}, FilterType: dashboard.FilterCandidates}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := svc.Records(context.Background(), tt.query)
			require.NoError(t, err)
			names := make([]string, 0, len(records))
			for _, r := range records {
				names = append(names, r.Profile.Venture.Name)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}
}

func TestWriteSections(t *testing.T) {
	_, svc := seed(t)
	sections, err := export.ParseSections([]string{"nivel,emprendimiento"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Write(context.Background(), &buf, export.ModeSections, sections, export.Query{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Emprendimiento", "Nivel"}, f.GetSheetList())

	rows, err := f.GetRows("Nivel")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Emprendimiento", "Nivel"}, rows[0])
	assert.Equal(t, "Growth", rows[1][2])
	assert.Equal(t, "Scale", rows[2][2])

	rows, err = f.GetRows("Emprendimiento")
	require.NoError(t, err)
	assert.Equal(t, "Municipio", rows[0][9])
}

func TestWriteMass(t *testing.T) {
	_, svc := seed(t)

	var buf bytes.Buffer
	require.NoError(t, svc.Write(context.Background(), &buf, export.ModeMass, nil, export.Query{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{export.SheetConsolidated, export.SheetEvaluations}, f.GetSheetList())

	rows, err := f.GetRows(export.SheetConsolidated)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ID", rows[0][0])
	assert.Contains(t, rows[0], "Puntaje promedio")
	assert.Contains(t, rows[0], "Cohorte")

	rows, err = f.GetRows(export.SheetEvaluations)
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per evaluation")
	assert.Equal(t, "jurado", rows[1][2])
	assert.Equal(t, "enviada", rows[1][3])
}

func TestWriteUnknownMode(t *testing.T) {
	_, svc := seed(t)
	err := svc.Write(context.Background(), &bytes.Buffer{}, export.Mode("pdf"), nil, export.Query{})
	assert.Error(t, err)
}
