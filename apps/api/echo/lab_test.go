package echoapi_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/incubaapp/incuba/apps/api/echo"
	"github.com/incubaapp/incuba/core/lab"
	"github.com/incubaapp/incuba/core/user"
	testutil "github.com/incubaapp/incuba/tests"
)

func TestLabCurriculum(t *testing.T) {
	env, srv := setup(t)
	mentor := testutil.CreateUser(t, env.UserRepo, "Mentor", "mentor@example.com", []string{user.RoleMentor})
	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@example.com", []string{user.RoleBeneficiary})
	mentorToken := getToken(t, env.Conf, mentor)
	anaToken := getToken(t, env.Conf, ana)

	rec := serve(srv, http.MethodPost, "/v1/lab/modules", anaToken, []byte(`{"title": "Finanzas"}`))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = serve(srv, http.MethodPost, "/v1/lab/modules", mentorToken, []byte(`{"title": "  "}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(srv, http.MethodPost, "/v1/lab/modules", mentorToken, []byte(`{"title": " Finanzas ", "position": 1}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var m lab.Module
	decode(t, rec, &m)
	assert.Equal(t, "Finanzas", m.Title)

	rec = serve(srv, http.MethodPost, "/v1/lab/classes", mentorToken, []byte(`{"module_id": "`+m.ID+`", "title": "Flujo de caja", "video_url": "https://videos.test/1"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c lab.Class
	decode(t, rec, &c)

	rec = serve(srv, http.MethodPost, "/v1/lab/classes", mentorToken, []byte(`{"module_id": "`+m.ID+`", "title": "Bad", "video_url": "not a url"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(srv, http.MethodPost, "/v1/lab/tasks", mentorToken, []byte(`{"module_id": "missing", "title": "Orphan"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(srv, http.MethodPost, "/v1/lab/tasks", mentorToken, []byte(`{"module_id": "`+m.ID+`", "title": "Presupuesto", "required_files": 1}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var task lab.Task
	decode(t, rec, &task)

	// learners read the curriculum
	rec = serve(srv, http.MethodGet, "/v1/lab/modules", anaToken)
	require.Equal(t, http.StatusOK, rec.Code)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, m)}, rec)
	rec = serve(srv, http.MethodGet, "/v1/lab/modules/"+m.ID+"/classes", anaToken)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, c)}, rec)
	rec = serve(srv, http.MethodGet, "/v1/lab/modules/"+m.ID+"/tasks", anaToken)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, task)}, rec)

	rec = serve(srv, http.MethodPut, "/v1/lab/classes/"+c.ID, mentorToken, []byte(`{"module_id": "`+m.ID+`", "title": "Flujo de caja II"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &c)
	assert.Equal(t, "Flujo de caja II", c.Title)

	rec = serve(srv, http.MethodDelete, "/v1/lab/modules/"+m.ID, mentorToken)
	assert.Equal(t, http.StatusConflict, rec.Code)

	for _, p := range []string{"/v1/lab/classes/" + c.ID, "/v1/lab/tasks/" + task.ID, "/v1/lab/modules/" + m.ID} {
		rec = serve(srv, http.MethodDelete, p, mentorToken)
		assert.Equal(t, http.StatusNoContent, rec.Code, p)
	}
	rec = serve(srv, http.MethodGet, "/v1/lab/modules/"+m.ID, anaToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLabSubmissions(t *testing.T) {
	env, srv := setup(t)
	ctx := context.Background()
	mentor := testutil.CreateUser(t, env.UserRepo, "Mentor", "mentor@example.com", []string{user.RoleMentor})
	ana := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@example.com", []string{user.RoleBeneficiary})
	luis := testutil.CreateUser(t, env.UserRepo, "Luis", "luis@example.com", []string{user.RoleBeneficiary})
	carla := testutil.CreateUser(t, env.UserRepo, "Carla", "carla@example.com", []string{user.RoleCandidate})
	mentorToken := getToken(t, env.Conf, mentor)
	anaToken := getToken(t, env.Conf, ana)
	luisToken := getToken(t, env.Conf, luis)
	carlaToken := getToken(t, env.Conf, carla)

	m, err := env.Lab.CreateModule(ctx, lab.ModuleInput{Title: "Finanzas"})
	require.NoError(t, err)
	task, err := env.Lab.CreateTask(ctx, lab.TaskInput{ModuleID: m.ID, Title: "Presupuesto", RequiredFiles: 1})
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	closed, err := env.Lab.CreateTask(ctx, lab.TaskInput{ModuleID: m.ID, Title: "Cerrada", DueAt: &past})
	require.NoError(t, err)

	base := "/v1/lab/tasks/" + task.ID

	rec := serve(srv, http.MethodPost, base+"/uploads", carlaToken, []byte(`{"filename": "plan.pdf"}`))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = serve(srv, http.MethodPost, base+"/uploads", anaToken, []byte(`{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(srv, http.MethodPost, "/v1/lab/tasks/"+closed.ID+"/uploads", anaToken, []byte(`{"filename": "plan.pdf"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(srv, http.MethodPost, base+"/uploads", anaToken, []byte(`{"filename": "C:\\docs\\plan.pdf", "content_type": "application/pdf"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var up lab.Upload
	decode(t, rec, &up)
	assert.True(t, strings.HasPrefix(up.Path, "submissions/"+task.ID+"/"+ana.ID+"/"), up.Path)
	assert.True(t, strings.HasSuffix(up.Path, "-plan.pdf"), up.Path)
	assert.True(t, strings.HasPrefix(up.URL, "http://files.test/"+up.Path), up.URL)
	assert.Contains(t, up.URL, "method=PUT")

	rec = serve(srv, http.MethodGet, base+"/submission", anaToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	t.Run("foreign files are refused", func(t *testing.T) {
		body := []byte(`{"files": ["submissions/` + task.ID + `/` + luis.ID + `/x-plan.pdf"]}`)
		rec := serve(srv, http.MethodPut, base+"/submission", anaToken, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"files[0]": "unknown file"}`, rec.Body.String())
	})

	t.Run("submit needs the required files", func(t *testing.T) {
		rec := serve(srv, http.MethodPut, base+"/submission", anaToken, []byte(`{"comment": "draft"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = serve(srv, http.MethodPost, base+"/submission/submit", anaToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"files": "at least 1 files are required"}`, rec.Body.String())
	})

	var sub lab.Submission
	t.Run("submit", func(t *testing.T) {
		rec := serve(srv, http.MethodPut, base+"/submission", anaToken, []byte(`{"files": ["`+up.Path+`"], "comment": " listo "}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &sub)
		assert.Equal(t, lab.SubmissionDraft, sub.State)
		assert.Equal(t, "listo", sub.Comment)

		rec = serve(srv, http.MethodPost, base+"/submission/submit", anaToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &sub)
		assert.Equal(t, lab.SubmissionSubmitted, sub.State)
		assert.Equal(t, lab.GradePending, sub.Grade)

		rec = serve(srv, http.MethodPut, base+"/submission", anaToken, []byte(`{"files": ["`+up.Path+`"]}`))
		assert.Equal(t, http.StatusConflict, rec.Code)
		rec = serve(srv, http.MethodGet, base+"/submission", anaToken)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("access", func(t *testing.T) {
		rec := serve(srv, http.MethodGet, "/v1/lab/submissions/"+sub.ID, luisToken)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		rec = serve(srv, http.MethodGet, "/v1/lab/submissions/"+sub.ID, mentorToken)
		assert.Equal(t, http.StatusOK, rec.Code)
		rec = serve(srv, http.MethodGet, "/v1/lab/submissions?task_id="+task.ID+"&state=enviada", anaToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = serve(srv, http.MethodGet, "/v1/lab/submissions?task_id="+task.ID+"&state=enviada", mentorToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var got []lab.Submission
		decode(t, rec, &got)
		require.Len(t, got, 1)
		assert.Equal(t, sub.ID, got[0].ID)
	})

	t.Run("file urls", func(t *testing.T) {
		var got echoapi.FileURLResponse
		rec := serve(srv, http.MethodGet, "/v1/lab/files?path="+up.Path, anaToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &got)
		assert.Contains(t, got.URL, "method=GET")

		rec = serve(srv, http.MethodGet, "/v1/lab/files?path="+up.Path, mentorToken)
		assert.Equal(t, http.StatusOK, rec.Code)
		rec = serve(srv, http.MethodGet, "/v1/lab/files?path="+up.Path, luisToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		rec = serve(srv, http.MethodGet, "/v1/lab/files?path=../secrets", mentorToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		rec = serve(srv, http.MethodGet, "/v1/lab/files", anaToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("grade and resubmit", func(t *testing.T) {
		rec := serve(srv, http.MethodPost, "/v1/lab/submissions/"+sub.ID+"/grade", mentorToken, []byte(`{"grade": "excelente"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = serve(srv, http.MethodPost, "/v1/lab/submissions/"+sub.ID+"/grade", mentorToken, []byte(`{"grade": "requiere_cambios", "feedback": "falta el anexo"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &sub)
		assert.Equal(t, lab.GradeChangesRequest, sub.Grade)
		assert.Equal(t, mentor.ID, sub.GradedBy)

		rec = serve(srv, http.MethodPost, base+"/uploads", anaToken, []byte(`{"filename": "anexo.pdf"}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var second lab.Upload
		decode(t, rec, &second)

		body := []byte(`{"files": ["` + up.Path + `", "` + second.Path + `"]}`)
		rec = serve(srv, http.MethodPost, base+"/submission/resubmit", anaToken, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &sub)
		assert.Len(t, sub.Files, 2)
		assert.Equal(t, lab.GradePending, sub.Grade)
		assert.Empty(t, sub.Feedback)
		assert.Empty(t, sub.GradedBy)
	})

	t.Run("resubmit needs a sent submission", func(t *testing.T) {
		rec := serve(srv, http.MethodPost, base+"/submission/resubmit", luisToken, []byte(`{"files": []}`))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
