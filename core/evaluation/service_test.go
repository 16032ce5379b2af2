package evaluation_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/evaluation"
	"github.com/incubaapp/incuba/core/tier"
	"github.com/incubaapp/incuba/core/user"
	testutil "github.com/incubaapp/incuba/tests"
)

var (
	scores60 = evaluation.Scores{Impact: 20, Team: 20, Innovation: 10, Sales: 10}
	scores85 = evaluation.Scores{Impact: 30, Team: 25, Innovation: 20, Sales: 10}
)

func TestEvaluationLifecycle(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.UserRepo, "Owner", "owner@example.com", []string{user.RoleCandidate})
	juror := testutil.CreateUser(t, env.UserRepo, "Juror", "juror@example.com", []string{user.RoleMentor})
	other := testutil.CreateUser(t, env.UserRepo, "Other", "other@example.com", []string{user.RoleMentor})
	v := testutil.CreateVenture(t, env, owner.ID, "Café Galeras", "Ipiales", 1, 0)

	ne := evaluation.NewEvaluation{VentureID: v.ID, Type: evaluation.TypeJury, Scores: scores60}
	_, err := env.Evaluations.CreateDraft(ctx, juror.ID, ne)
	assert.ErrorIs(t, err, evaluation.ErrNotJuror)
	assert.True(t, core.IsForbidden(err))

	testutil.AssignJuror(t, env, juror.ID, v.ID)
	draft, err := env.Evaluations.CreateDraft(ctx, juror.ID, ne)
	require.NoError(t, err)
	assert.Equal(t, evaluation.StateDraft, draft.State)
	assert.Equal(t, 65.0, draft.Breakdown.Total, "60 from the rubric plus the regional referral")
	assert.Equal(t, evaluation.Eligibility{Location: true}, draft.Eligibility)

	_, err = env.Evaluations.CreateDraft(ctx, juror.ID, ne)
	assert.ErrorIs(t, err, evaluation.ErrDuplicate)

	_, err = env.Evaluations.UpdateDraft(ctx, other.ID, draft.ID, evaluation.UpdateEvaluation{Scores: scores85})
	assert.ErrorIs(t, err, evaluation.ErrNotAuthor)

	_, err = env.Evaluations.UpdateDraft(ctx, juror.ID, draft.ID, evaluation.UpdateEvaluation{
		Scores: evaluation.Scores{Impact: 31},
	})
	assert.Error(t, err)

	updated, err := env.Evaluations.UpdateDraft(ctx, juror.ID, draft.ID, evaluation.UpdateEvaluation{
		Scores:    scores85,
		Rationale: evaluation.Rationale{General: "  Sólido  "},
	})
	require.NoError(t, err)
	assert.Equal(t, 90.0, updated.Breakdown.Total)
	assert.Equal(t, "Sólido", updated.Rationale.General)

	submitted, err := env.Evaluations.Submit(ctx, juror.ID, draft.ID)
	require.NoError(t, err)
	assert.True(t, submitted.IsSubmitted())
	require.NotNil(t, submitted.SubmittedAt)

	_, err = env.Evaluations.UpdateDraft(ctx, juror.ID, draft.ID, evaluation.UpdateEvaluation{Scores: scores60})
	assert.ErrorIs(t, err, evaluation.ErrSubmitted)
	assert.True(t, core.IsConflict(err))
	_, err = env.Evaluations.Submit(ctx, juror.ID, draft.ID)
	assert.ErrorIs(t, err, evaluation.ErrSubmitted)

	got, err := env.Evaluations.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, 90.0, got.Breakdown.Total)
}

func TestCCCNeedsNoJuryAssignment(t *testing.T) {
	env := testutil.NewEnv(t)
	owner := testutil.CreateUser(t, env.UserRepo, "Owner", "owner@example.com", []string{user.RoleCandidate})
	staff := testutil.CreateUser(t, env.UserRepo, "Staff", "staff@example.com", []string{user.RoleAdmin})
	v := testutil.CreateVenture(t, env, owner.ID, "Textiles Nariño", "Pasto", 3, 1)

	e := testutil.SubmitEvaluation(t, env, staff.ID, v.ID, evaluation.TypeCCC, scores60)
	assert.Equal(t, 60.0, e.Breakdown.Total)
	assert.True(t, e.Eligibility.Passed())
}

func TestFractionalTotalKeepsTier(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.UserRepo, "Owner", "owner@example.com", []string{user.RoleCandidate})
	staff := testutil.CreateUser(t, env.UserRepo, "Staff", "staff@example.com", []string{user.RoleAdmin})
	v := testutil.CreateVenture(t, env, owner.ID, "Panela Sandoná", env.Conf.Program.HomeCity, 2, 1)

	// 80.004 rounds to 80 at two decimals, which is Growth
	s := evaluation.Scores{Impact: 30, Team: 25, Innovation: 20, Sales: 5.002, FinancingProjection: 0.002}
	e := testutil.SubmitEvaluation(t, env, staff.ID, v.ID, evaluation.TypeCCC, s)
	assert.InDelta(t, 80.004, e.Breakdown.Total, 1e-9)

	got, err := env.Evaluations.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Breakdown, got.Breakdown)

	idx, err := env.Evaluations.ScoreIndex(ctx)
	require.NoError(t, err)
	require.Len(t, idx[v.ID], 1)
	assert.Greater(t, idx[v.ID][0], 80.0)
	assert.Equal(t, tier.LevelOf(tier.Scale), tier.Derive(idx[v.ID]))
}

func TestJuryCap(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.UserRepo, "Owner", "owner@example.com", []string{user.RoleCandidate})
	v := testutil.CreateVenture(t, env, owner.ID, "Cacao Tumaco", "Tumaco", 2, 1)

	names := []string{"J1", "J2", "J3", "J4"}
	for i, name := range names {
		j := testutil.CreateUser(t, env.UserRepo, name, name+"@example.com", []string{user.RoleMentor})
		testutil.AssignJuror(t, env, j.ID, v.ID)
		_, err := env.Evaluations.CreateDraft(ctx, j.ID, evaluation.NewEvaluation{
			VentureID: v.ID,
			Type:      evaluation.TypeJury,
			Scores:    scores60,
		})
		if i < env.Conf.Program.MaxJuryEvaluations {
			require.NoError(t, err, name)
		} else {
			assert.ErrorIs(t, err, evaluation.ErrJuryFull, name)
		}
	}
}

func TestJuryCapConcurrent(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.UserRepo, "Owner", "owner@example.com", []string{user.RoleCandidate})
	v := testutil.CreateVenture(t, env, owner.ID, "Quinua Andina", "Túquerres", 2, 1)

	jurors := make([]string, 8)
	for i := range jurors {
		name := fmt.Sprintf("J%d", i)
		j := testutil.CreateUser(t, env.UserRepo, name, name+"@example.com", []string{user.RoleMentor})
		testutil.AssignJuror(t, env, j.ID, v.ID)
		jurors[i] = j.ID
	}

	var created, full atomic.Int32
	var wg sync.WaitGroup
	for _, id := range jurors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.Evaluations.CreateDraft(ctx, id, evaluation.NewEvaluation{VentureID: v.ID, Type: evaluation.TypeJury, Scores: scores60})
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, evaluation.ErrJuryFull):
				full.Add(1)
			default:
				t.Errorf("createDraft() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(env.Conf.Program.MaxJuryEvaluations), created.Load())
	assert.Equal(t, int32(len(jurors)-env.Conf.Program.MaxJuryEvaluations), full.Load())
	panel, err := env.Evaluations.ListByVenture(ctx, v.ID, false)
	require.NoError(t, err)
	assert.Len(t, panel, env.Conf.Program.MaxJuryEvaluations)
}

func TestMaxForTierAverageForSummary(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, env.UserRepo, "Owner", "owner@example.com", []string{user.RoleCandidate})
	j1 := testutil.CreateUser(t, env.UserRepo, "J1", "j1@example.com", []string{user.RoleMentor})
	j2 := testutil.CreateUser(t, env.UserRepo, "J2", "j2@example.com", []string{user.RoleMentor})
	v := testutil.CreateVenture(t, env, owner.ID, "Lácteos del Sur", "Pasto", 2, 1)
	testutil.AssignJuror(t, env, j1.ID, v.ID)
	testutil.AssignJuror(t, env, j2.ID, v.ID)

	e1 := testutil.SubmitEvaluation(t, env, j1.ID, v.ID, evaluation.TypeJury, scores60)
	testutil.SubmitEvaluation(t, env, j2.ID, v.ID, evaluation.TypeJury, scores85)

	idx, err := env.Evaluations.ScoreIndex(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []float64{60, 85}, idx[v.ID])
	assert.Equal(t, tier.LevelOf(tier.Scale), tier.Derive(idx[v.ID]))

	sum, err := env.Evaluations.Summary(ctx, v.ID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Count)
	assert.Equal(t, 72.5, sum.Average)
	assert.Equal(t, 85.0, sum.Max)

	// only visible evaluations reach the owner
	sum, err = env.Evaluations.Summary(ctx, v.ID, true)
	require.NoError(t, err)
	assert.Equal(t, evaluation.Summary{}, sum)

	_, err = env.Evaluations.SetVisibility(ctx, e1.ID, true)
	require.NoError(t, err)
	sum, err = env.Evaluations.Summary(ctx, v.ID, true)
	require.NoError(t, err)
	assert.Equal(t, evaluation.Summary{Count: 1, Average: 60, Max: 60}, sum)

	visible, err := env.Evaluations.ListByVenture(ctx, v.ID, true)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, e1.ID, visible[0].ID)
}
