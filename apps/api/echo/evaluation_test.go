package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incubaapp/incuba/core/evaluation"
	"github.com/incubaapp/incuba/core/user"
	testutil "github.com/incubaapp/incuba/tests"
)

// submitResponse mirrors OutcomeResponse with a typed payload.
type submitResponse struct {
	Data     evaluation.Evaluation `json:"data"`
	Warnings []string              `json:"warnings"`
}

func TestEvaluations(t *testing.T) {
	env, srv := setup(t)
	admin := testutil.CreateUser(t, env.UserRepo, "Admin", "admin@example.com", []string{user.RoleAdmin})
	juror := testutil.CreateUser(t, env.UserRepo, "Juror", "juror@example.com", []string{user.RoleMentor})
	outsider := testutil.CreateUser(t, env.UserRepo, "Outsider", "outsider@example.com", []string{user.RoleMentor})
	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@example.com", []string{user.RoleCandidate})
	luis := testutil.CreateUser(t, env.UserRepo, "Luis", "luis@example.com", []string{user.RoleCandidate})

	cafe := testutil.CreateVenture(t, env, ana.ID, "Café", "Ipiales", 3, 1)
	tejidos := testutil.CreateVenture(t, env, luis.ID, "Tejidos", "pasto", 1, 0)
	testutil.AssignJuror(t, env, juror.ID, cafe.ID)
	testutil.AssignJuror(t, env, juror.ID, tejidos.ID)

	adminToken := getToken(t, env.Conf, admin)
	jurorToken := getToken(t, env.Conf, juror)
	outsiderToken := getToken(t, env.Conf, outsider)
	anaToken := getToken(t, env.Conf, ana)

	scores := `"scores": {"impact": 25, "team": 20, "innovation": 15, "sales": 10, "financing_projection": 4}`

	tests := []httpTest{
		{"entrepreneurs may not evaluate", http.MethodPost, "/v1/evaluations", []byte(`{"venture_id": "` + cafe.ID + `", "type": "ccc"}`), anaToken, http.StatusForbidden, nil},
		{"unknown type", http.MethodPost, "/v1/evaluations", []byte(`{"venture_id": "` + cafe.ID + `", "type": "other"}`), adminToken, http.StatusBadRequest, nil},
		{"score above cap", http.MethodPost, "/v1/evaluations", []byte(`{"venture_id": "` + cafe.ID + `", "type": "ccc", "scores": {"impact": 31}}`), adminToken, http.StatusBadRequest, nil},
		{"not a juror", http.MethodPost, "/v1/evaluations", []byte(`{"venture_id": "` + cafe.ID + `", "type": "jurado", ` + scores + `}`), outsiderToken, http.StatusForbidden, marchallObj(t, httpErr{Error: "evaluator is not a juror for this venture"})},
		{"missing venture", http.MethodPost, "/v1/evaluations", []byte(`{"venture_id": "missing", "type": "ccc"}`), adminToken, http.StatusNotFound, nil},
		{"retrieve missing", http.MethodGet, "/v1/evaluations/missing", nil, adminToken, http.StatusNotFound, marchallObj(t, httpErr{Error: "evaluation not found"})},
	}
	runHTTPTests(t, srv, tests)

	var draft evaluation.Evaluation
	t.Run("create draft", func(t *testing.T) {
		body := []byte(`{"venture_id": "` + cafe.ID + `", "type": "jurado", ` + scores + `, "rationale": {"general": "  solid  "}}`)
		rec := serve(srv, http.MethodPost, "/v1/evaluations", jurorToken, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &draft)
		assert.Equal(t, evaluation.StateDraft, draft.State)
		assert.Equal(t, juror.ID, draft.EvaluatorID)
		assert.Equal(t, "solid", draft.Rationale.General)
		assert.Equal(t, 74.0, draft.Breakdown.Rubric)
		assert.Equal(t, 5.0, draft.Breakdown.RegionalReferral)
		assert.Equal(t, 79.0, draft.Breakdown.Total)
		assert.False(t, draft.Visible)
	})

	t.Run("duplicate", func(t *testing.T) {
		body := []byte(`{"venture_id": "` + cafe.ID + `", "type": "jurado"}`)
		rec := serve(srv, http.MethodPost, "/v1/evaluations", jurorToken, body)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("only the author edits", func(t *testing.T) {
		rec := serve(srv, http.MethodPut, "/v1/evaluations/"+draft.ID, adminToken, []byte(`{`+scores+`}`))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		rec = serve(srv, http.MethodPost, "/v1/evaluations/"+draft.ID+"/submit", adminToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("update draft", func(t *testing.T) {
		body := []byte(`{"scores": {"impact": 30, "team": 25, "innovation": 25, "sales": 15, "financing_projection": 5}}`)
		rec := serve(srv, http.MethodPut, "/v1/evaluations/"+draft.ID, jurorToken, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got evaluation.Evaluation
		decode(t, rec, &got)
		assert.Equal(t, evaluation.MaxTotal, got.Breakdown.Total)
	})

	t.Run("submit", func(t *testing.T) {
		rec := serve(srv, http.MethodPost, "/v1/evaluations/"+draft.ID+"/submit", jurorToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got submitResponse
		decode(t, rec, &got)
		assert.Equal(t, evaluation.StateSubmitted, got.Data.State)
		assert.NotNil(t, got.Data.SubmittedAt)
		assert.Empty(t, got.Warnings)

		rec = serve(srv, http.MethodPut, "/v1/evaluations/"+draft.ID, jurorToken, []byte(`{`+scores+`}`))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, `{"error": "evaluation already submitted"}`, rec.Body.String())
		rec = serve(srv, http.MethodPost, "/v1/evaluations/"+draft.ID+"/submit", jurorToken)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("submit with failing gate", func(t *testing.T) {
		body := []byte(`{"venture_id": "` + tejidos.ID + `", "type": "jurado", ` + scores + `}`)
		rec := serve(srv, http.MethodPost, "/v1/evaluations", jurorToken, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var e evaluation.Evaluation
		decode(t, rec, &e)
		assert.Equal(t, 0.0, e.Breakdown.RegionalReferral)

		rec = serve(srv, http.MethodPost, "/v1/evaluations/"+e.ID+"/submit", jurorToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got submitResponse
		decode(t, rec, &got)
		assert.Equal(t, evaluation.StateSubmitted, got.Data.State)
		assert.Equal(t, []string{"team has fewer than 2 members", "no full-time team member"}, got.Warnings)
		assert.False(t, got.Data.Eligibility.MinTeam)
		assert.True(t, got.Data.Eligibility.Location)
	})

	t.Run("query", func(t *testing.T) {
		rec := serve(srv, http.MethodGet, "/v1/evaluations?venture_id="+cafe.ID, adminToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var got []evaluation.Evaluation
		decode(t, rec, &got)
		require.Len(t, got, 1)
		assert.Equal(t, draft.ID, got[0].ID)

		rec = serve(srv, http.MethodGet, "/v1/evaluations?mine=true", adminToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())

		rec = serve(srv, http.MethodGet, "/v1/evaluations?mine=true&state=enviada&type=jurado", jurorToken)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &got)
		assert.Len(t, got, 2)
	})

	t.Run("visibility", func(t *testing.T) {
		path := "/v1/evaluations/" + draft.ID + "/visibility"
		rec := serve(srv, http.MethodPut, path, jurorToken, []byte(`{"visible": true}`))
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = serve(srv, http.MethodPut, path, adminToken, []byte(`{}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"visible": "this field is required"}`, rec.Body.String())

		rec = serve(srv, http.MethodPut, path, adminToken, []byte(`{"visible": true}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got evaluation.Evaluation
		decode(t, rec, &got)
		assert.True(t, got.Visible)

		rec = serve(srv, http.MethodGet, "/v1/ventures/"+cafe.ID+"/summary", anaToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"count": 1, "average": 105, "max": 105}`, rec.Body.String())
	})
}
