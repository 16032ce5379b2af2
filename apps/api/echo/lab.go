package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/lab"
)

type labApi struct {
	svc      *lab.Service
	validate *validator.Validate
}

func registerLabAPI(g *echo.Group, svc *lab.Service, validate *validator.Validate) {
	api := labApi{svc: svc, validate: validate}
	staff := staffMiddleware()
	learner := beneficiaryMiddleware()

	lg := g.Group("/lab")

	lg.GET("/modules", api.queryModules)
	lg.POST("/modules", api.createModule, staff)
	lg.GET("/modules/:id", api.retrieveModule)
	lg.PUT("/modules/:id", api.updateModule, staff)
	lg.DELETE("/modules/:id", api.destroyModule, staff)
	lg.GET("/modules/:id/classes", api.queryClasses)
	lg.GET("/modules/:id/tasks", api.queryTasks)

	lg.POST("/classes", api.createClass, staff)
	lg.GET("/classes/:id", api.retrieveClass)
	lg.PUT("/classes/:id", api.updateClass, staff)
	lg.DELETE("/classes/:id", api.destroyClass, staff)

	lg.POST("/tasks", api.createTask, staff)
	lg.GET("/tasks/:id", api.retrieveTask)
	lg.PUT("/tasks/:id", api.updateTask, staff)
	lg.DELETE("/tasks/:id", api.destroyTask, staff)

	// the learner's own submission of a task
	lg.GET("/tasks/:id/submission", api.mySubmission, learner)
	lg.PUT("/tasks/:id/submission", api.saveDraft, learner)
	lg.POST("/tasks/:id/submission/submit", api.submit, learner)
	lg.POST("/tasks/:id/submission/resubmit", api.resubmit, learner)
	lg.POST("/tasks/:id/uploads", api.uploadURL, learner)

	lg.GET("/submissions", api.querySubmissions, staff)
	lg.GET("/submissions/:id", api.retrieveSubmission)
	lg.POST("/submissions/:id/grade", api.grade, staff)

	lg.GET("/files", api.fileURL)
}

// Modules

func (api *labApi) queryModules(ctx echo.Context) error {
	ms, err := api.svc.ListModules(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing modules")
	}
	if ms == nil {
		ms = []lab.Module{}
	}
	return ctx.JSON(http.StatusOK, ms)
}

func (api *labApi) createModule(ctx echo.Context) error {
	var data lab.ModuleInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ModuleInput")
	}
	m, err := api.svc.CreateModule(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating module")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *labApi) retrieveModule(ctx echo.Context) error {
	m, err := api.svc.GetModule(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting module")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *labApi) updateModule(ctx echo.Context) error {
	var data lab.ModuleInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ModuleInput")
	}
	m, err := api.svc.UpdateModule(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating module")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *labApi) destroyModule(ctx echo.Context) error {
	if err := api.svc.DeleteModule(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting module")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Classes

func (api *labApi) queryClasses(ctx echo.Context) error {
	cs, err := api.svc.ListClasses(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	if cs == nil {
		cs = []lab.Class{}
	}
	return ctx.JSON(http.StatusOK, cs)
}

func (api *labApi) createClass(ctx echo.Context) error {
	var data lab.ClassInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassInput")
	}
	c, err := api.svc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *labApi) retrieveClass(ctx echo.Context) error {
	c, err := api.svc.GetClass(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting class")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *labApi) updateClass(ctx echo.Context) error {
	var data lab.ClassInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassInput")
	}
	c, err := api.svc.UpdateClass(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *labApi) destroyClass(ctx echo.Context) error {
	if err := api.svc.DeleteClass(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Tasks

func (api *labApi) queryTasks(ctx echo.Context) error {
	ts, err := api.svc.ListTasks(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing tasks")
	}
	if ts == nil {
		ts = []lab.Task{}
	}
	return ctx.JSON(http.StatusOK, ts)
}

func (api *labApi) createTask(ctx echo.Context) error {
	var data lab.TaskInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TaskInput")
	}
	t, err := api.svc.CreateTask(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *labApi) retrieveTask(ctx echo.Context) error {
	t, err := api.svc.GetTask(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *labApi) updateTask(ctx echo.Context) error {
	var data lab.TaskInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TaskInput")
	}
	t, err := api.svc.UpdateTask(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *labApi) destroyTask(ctx echo.Context) error {
	if err := api.svc.DeleteTask(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Submissions

func (api *labApi) mySubmission(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	subs, err := api.svc.ListSubmissions(ctx.Request().Context(), lab.SubmissionFilter{TaskID: ctx.Param("id"), LearnerID: ctxUsr.ID})
	if err != nil {
		return errors.Wrap(err, "listing submissions")
	}
	if len(subs) == 0 {
		return lab.ErrSubmissionNotFound
	}
	return ctx.JSON(http.StatusOK, subs[0])
}

func (api *labApi) saveDraft(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data lab.SubmissionInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmissionInput")
	}
	sub, err := api.svc.SaveDraft(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "saving submission draft")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *labApi) submit(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sub, err := api.svc.Submit(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "submitting")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *labApi) resubmit(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data lab.SubmissionInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmissionInput")
	}
	sub, err := api.svc.Resubmit(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "resubmitting")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *labApi) uploadURL(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data UploadRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UploadRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	up, err := api.svc.UploadURL(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"), data.Filename, data.ContentType)
	if err != nil {
		return errors.Wrap(err, "signing upload url")
	}
	return ctx.JSON(http.StatusCreated, up)
}

func (api *labApi) querySubmissions(ctx echo.Context) error {
	filter := lab.SubmissionFilter{
		TaskID:    ctx.QueryParam("task_id"),
		LearnerID: ctx.QueryParam("learner_id"),
		State:     lab.SubmissionState(ctx.QueryParam("state")),
	}
	subs, err := api.svc.ListSubmissions(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing submissions")
	}
	if subs == nil {
		subs = []lab.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *labApi) retrieveSubmission(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sub, err := api.svc.GetSubmission(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting submission")
	}
	if sub.LearnerID != ctxUsr.ID && !ctxUsr.IsStaff() {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *labApi) grade(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data lab.GradeInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeInput")
	}
	sub, err := api.svc.GradeSubmission(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *labApi) fileURL(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	p := ctx.QueryParam("path")
	if p == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "path", Error: "this field is required"})
	}
	u, err := api.svc.FileURL(ctx.Request().Context(), ctxUsr, p)
	if err != nil {
		return errors.Wrap(err, "signing file url")
	}
	return ctx.JSON(http.StatusOK, FileURLResponse{URL: u})
}

type (
	UploadRequest struct {
		Filename    string `json:"filename" validate:"required,notblank"`
		ContentType string `json:"content_type"`
	}

	FileURLResponse struct {
		URL string `json:"url"`
	}
)
