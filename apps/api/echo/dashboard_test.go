package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/incubaapp/incuba/apps/api/echo"
	"github.com/incubaapp/incuba/core/dashboard"
	"github.com/incubaapp/incuba/core/evaluation"
	"github.com/incubaapp/incuba/core/quota"
	"github.com/incubaapp/incuba/core/tier"
	"github.com/incubaapp/incuba/core/user"
	testutil "github.com/incubaapp/incuba/tests"
)

func TestDashboard(t *testing.T) {
	env, srv := setup(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@example.com", []string{user.RoleAdmin})
	mentor := testutil.CreateUser(t, env.UserRepo, "Mentor", "mentor@example.com", []string{user.RoleMentor})
	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@example.com", []string{user.RoleCandidate})
	luis := testutil.CreateUser(t, env.UserRepo, "Luis", "luis@example.com", []string{user.RoleCandidate})
	carla := testutil.CreateUser(t, env.UserRepo, "Carla", "carla@example.com", []string{user.RoleCandidate})

	cafe := testutil.CreateVenture(t, env, ana.ID, "Café", "Ipiales", 3, 1)
	tejidos := testutil.CreateVenture(t, env, luis.ID, "Tejidos", "Ipiales", 2, 1)
	miel := testutil.CreateVenture(t, env, carla.ID, "Miel", "Pasto", 2, 1)

	// 80 + 5 referral: Scale
	high := evaluation.Scores{Impact: 30, Team: 20, Innovation: 20, Sales: 10, FinancingProjection: 0}
	testutil.SubmitEvaluation(t, env, admin.ID, cafe.ID, evaluation.TypeCCC, high)
	testutil.SubmitEvaluation(t, env, admin.ID, tejidos.ID, evaluation.TypeCCC, high)

	// the approved quota tier wins over the score
	a, err := env.Quotas.Create(ctx, quota.NewAssignment{VentureID: tejidos.ID, Tier: tier.Starter, Cohort: 1})
	require.NoError(t, err)
	_, _, err = env.Quotas.Approve(ctx, admin.ID, a.ID)
	require.NoError(t, err)

	adminToken := getToken(t, env.Conf, admin)
	mentorToken := getToken(t, env.Conf, mentor)
	anaToken := getToken(t, env.Conf, ana)

	rows := func(t *testing.T, query string) echoapi.RowsResponse {
		t.Helper()
		rec := serve(srv, http.MethodGet, "/v1/dashboard/rows"+query, mentorToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got echoapi.RowsResponse
		decode(t, rec, &got)
		return got
	}
	ids := func(rs []dashboard.Row) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.Venture.ID)
		}
		return out
	}

	rec := serve(srv, http.MethodGet, "/v1/dashboard/rows", anaToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	t.Run("facets", func(t *testing.T) {
		all := rows(t, "")
		assert.Equal(t, uint64(1), all.Revision)
		require.Len(t, all.Rows, 3)
		assert.ElementsMatch(t, []string{cafe.ID, tejidos.ID, miel.ID}, ids(all.Rows))

		for _, r := range all.Rows {
			switch r.Venture.ID {
			case cafe.ID:
				assert.Equal(t, dashboard.ClassCandidate, r.Class)
				assert.True(t, r.Level.Is(tier.Scale))
				require.NotNil(t, r.Score)
				assert.Equal(t, 85.0, *r.Score)
			case tejidos.ID:
				assert.Equal(t, dashboard.ClassBeneficiary, r.Class)
				assert.True(t, r.Level.Is(tier.Starter))
				assert.True(t, r.OwnerIsBeneficiary)
			case miel.ID:
				assert.False(t, r.Level.Classified())
				assert.Nil(t, r.Score)
			}
		}

		assert.ElementsMatch(t, []string{cafe.ID, miel.ID}, ids(rows(t, "?filterType=candidatos").Rows))
		assert.Equal(t, []string{tejidos.ID}, ids(rows(t, "?filterType=beneficiarios").Rows))
		assert.Equal(t, []string{cafe.ID}, ids(rows(t, "?nivel=Scale").Rows))
		assert.Equal(t, []string{cafe.ID}, ids(rows(t, "?nivel=candidatos").Rows))
		assert.Equal(t, []string{tejidos.ID}, ids(rows(t, "?filterType=beneficiarios&nivel=starter").Rows))
		assert.Empty(t, rows(t, "?filterType=beneficiarios&nivel=candidatos").Rows)
	})

	t.Run("invalid facets", func(t *testing.T) {
		rec := serve(srv, http.MethodGet, "/v1/dashboard/rows?filterType=everyone", mentorToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"filterType": "filterType \"everyone\": invalid filter facet"}`, rec.Body.String())
		rec = serve(srv, http.MethodGet, "/v1/dashboard/stats?nivel=Gold", mentorToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("stats", func(t *testing.T) {
		rec := serve(srv, http.MethodGet, "/v1/dashboard/stats", adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got echoapi.StatsResponse
		decode(t, rec, &got)
		assert.Equal(t, 3, got.Stats.Total)
		assert.Equal(t, 1, got.Stats.Beneficiaries)
		assert.Equal(t, 2, got.Stats.Candidates)
		assert.Equal(t, map[tier.Tier]int{tier.Starter: 1, tier.Growth: 0, tier.Scale: 1}, got.Stats.ByTier)
		assert.Equal(t, 1, got.Stats.Unclassified)
		assert.Equal(t, 2, got.Stats.Evaluated)
		assert.Equal(t, 85.0, got.Stats.AverageScore)
		assert.Equal(t, map[string]int{"agro": 3}, got.Stats.ByCategory)
	})

	t.Run("refresh", func(t *testing.T) {
		dora := testutil.CreateUser(t, env.UserRepo, "Dora", "dora@example.com", []string{user.RoleCandidate})
		testutil.CreateVenture(t, env, dora.ID, "Cacao", "Tumaco", 2, 1)

		// the snapshot only moves on refresh
		assert.Len(t, rows(t, "").Rows, 3)

		rec := serve(srv, http.MethodPost, "/v1/dashboard/refresh", mentorToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = serve(srv, http.MethodPost, "/v1/dashboard/refresh", adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{"revision": 2, "ventures": 4}`, rec.Body.String())

		got := rows(t, "")
		assert.Equal(t, uint64(2), got.Revision)
		assert.Len(t, got.Rows, 4)
	})

	t.Run("filter cache metrics", func(t *testing.T) {
		rec := serve(srv, http.MethodGet, "/metrics", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `dashboard_filter_cache_total{result="hit"}`)
		assert.Contains(t, rec.Body.String(), `dashboard_filter_cache_total{result="miss"}`)
	})
}
