package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/quota"
	"github.com/incubaapp/incuba/core/tier"
	"github.com/incubaapp/incuba/core/venture"
)

// testSnapshot:
//
//	b-growth   approved Growth quota, evaluated 30
//	b-scale    approved Scale quota, never evaluated
//	c-growth   no quota, best score 70 (also has 40)
//	c-scale    no quota, scored 85 and 60
//	c-none     no quota, never evaluated
//	c-pending  pending Scale quota, best score 45
func testSnapshot() Snapshot {
	ids := []string{"b-growth", "c-growth", "b-scale", "c-scale", "c-none", "c-pending"}
	ventures := make([]venture.Venture, 0, len(ids))
	for _, id := range ids {
		ventures = append(ventures, venture.Venture{ID: id, OwnerID: "owner-" + id, Name: id, Category: "agro", Stage: "idea"})
	}
	return Snapshot{
		Revision:           1,
		Ventures:           ventures,
		BeneficiaryIDs:     core.NewStringSet("owner-b-growth", "owner-b-scale"),
		ApprovedVentureIDs: core.NewStringSet("b-growth", "b-scale"),
		Assignments: []quota.Assignment{
			{VentureID: "b-growth", Tier: tier.Growth, State: quota.StateApproved},
			{VentureID: "b-scale", Tier: tier.Scale, State: quota.StateApproved},
			{VentureID: "c-pending", Tier: tier.Scale, State: quota.StatePending},
		},
		Scores: map[string][]float64{
			"b-growth":  {30},
			"c-growth":  {40, 70},
			"c-scale":   {85, 60},
			"c-pending": {45},
		},
	}
}

func ventureIDs(rows []Row) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.Venture.ID)
	}
	return ids
}

func TestClassifyWithoutMemberships(t *testing.T) {
	rows := Classify(Snapshot{Ventures: []venture.Venture{{ID: "v1", OwnerID: "u1"}}})
	require.Len(t, rows, 1)
	assert.Equal(t, ClassCandidate, rows[0].Class)
	assert.False(t, rows[0].OwnerIsBeneficiary)
	assert.Nil(t, rows[0].Score)
}

func TestClassify(t *testing.T) {
	rows := Classify(testSnapshot())
	require.Len(t, rows, 6)

	byID := make(map[string]Row)
	for _, r := range rows {
		byID[r.Venture.ID] = r
	}
	tests := []struct {
		id    string
		class Class
		level tier.Level
	}{
		{"b-growth", ClassBeneficiary, tier.LevelOf(tier.Growth)},
		{"b-scale", ClassBeneficiary, tier.LevelOf(tier.Scale)},
		{"c-growth", ClassCandidate, tier.LevelOf(tier.Growth)},
		{"c-scale", ClassCandidate, tier.LevelOf(tier.Scale)},
		{"c-none", ClassCandidate, tier.Unclassified},
		{"c-pending", ClassCandidate, tier.LevelOf(tier.Starter)},
	}
	for _, tt := range tests {
		r := byID[tt.id]
		assert.Equal(t, tt.class, r.Class, tt.id)
		assert.Equal(t, tt.level, r.Level, tt.id)
	}
	assert.True(t, byID["b-growth"].OwnerIsBeneficiary)
	assert.Nil(t, byID["c-none"].Score)
	require.NotNil(t, byID["c-scale"].Score)
	assert.Equal(t, 85.0, *byID["c-scale"].Score)
}

func TestFilter(t *testing.T) {
	s := testSnapshot()
	tests := []struct {
		ft   FilterType
		nf   NivelFilter
		want []string
	}{
		{FilterAll, NivelAll, []string{"b-growth", "c-growth", "b-scale", "c-scale", "c-none", "c-pending"}},
		{FilterBeneficiaries, NivelAll, []string{"b-growth", "b-scale"}},
		{FilterCandidates, NivelAll, []string{"c-growth", "c-scale", "c-none", "c-pending"}},
		{FilterBeneficiaries, NivelFilter(tier.Growth), []string{"b-growth"}},
		{FilterAll, NivelFilter(tier.Growth), []string{"b-growth", "c-growth"}},
		{FilterAll, NivelFilter(tier.Scale), []string{"b-scale", "c-scale"}},
		{FilterCandidates, NivelFilter(tier.Starter), []string{"c-pending"}},
		{FilterAll, NivelCandidates, []string{"c-growth", "c-scale", "c-pending"}},
		{FilterBeneficiaries, NivelCandidates, []string{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.ft)+"/"+string(tt.nf), func(t *testing.T) {
			assert.Equal(t, tt.want, ventureIDs(Filter(s, tt.ft, tt.nf)))
		})
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	s := testSnapshot()
	facets := []NivelFilter{NivelAll, NivelCandidates, NivelFilter(tier.Starter), NivelFilter(tier.Growth), NivelFilter(tier.Scale)}
	for _, ft := range []FilterType{FilterAll, FilterBeneficiaries, FilterCandidates} {
		for _, nf := range facets {
			once := Filter(s, ft, nf)
			twice := FilterRows(once, ft, nf)
			assert.Equal(t, once, twice, "%s/%s", ft, nf)
		}
	}
}

func TestBeneficiaryGrowthExcludesCandidates(t *testing.T) {
	s := testSnapshot()
	rows := Filter(s, FilterBeneficiaries, NivelFilter(tier.Growth))
	for _, r := range rows {
		assert.True(t, s.ApprovedVentureIDs.Exist(r.Venture.ID))
		assert.True(t, r.Level.Is(tier.Growth))
	}
	assert.NotContains(t, ventureIDs(rows), "c-growth", "a derived Growth never counts as a beneficiary")
}

func TestQuotaTierWinsOverScore(t *testing.T) {
	s := testSnapshot()
	s.Scores["b-growth"] = []float64{99}
	rows := Filter(s, FilterAll, NivelFilter(tier.Growth))
	assert.Contains(t, ventureIDs(rows), "b-growth")
}

func TestParseFacets(t *testing.T) {
	ft, err := ParseFilterType("")
	require.NoError(t, err)
	assert.Equal(t, FilterAll, ft)
	_, err = ParseFilterType("otros")
	assert.ErrorIs(t, err, ErrInvalidFacet)

	nf, err := ParseNivelFilter("growth")
	require.NoError(t, err)
	assert.Equal(t, NivelFilter(tier.Growth), nf)
	nf, err = ParseNivelFilter("candidatos")
	require.NoError(t, err)
	assert.Equal(t, NivelCandidates, nf)
	_, err = ParseNivelFilter("Sin evaluar")
	assert.ErrorIs(t, err, ErrInvalidFacet)
}

func TestComputeStats(t *testing.T) {
	st := ComputeStats(Classify(testSnapshot()))
	assert.Equal(t, 6, st.Total)
	assert.Equal(t, 2, st.Beneficiaries)
	assert.Equal(t, 4, st.Candidates)
	assert.Equal(t, map[tier.Tier]int{tier.Starter: 1, tier.Growth: 2, tier.Scale: 2}, st.ByTier)
	assert.Equal(t, 1, st.Unclassified)
	assert.Equal(t, 4, st.Evaluated)
	assert.Equal(t, (30.0+70+85+45)/4, st.AverageScore)
	assert.Equal(t, map[string]int{"agro": 6}, st.ByCategory)
}
