package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core/evaluation"
)

type evaluationApi struct {
	svc      *evaluation.Service
	validate *validator.Validate
}

func registerEvaluationAPI(g *echo.Group, svc *evaluation.Service, validate *validator.Validate) {
	api := evaluationApi{svc: svc, validate: validate}

	eg := g.Group("/evaluations", staffMiddleware())
	eg.POST("", api.create)
	eg.GET("", api.query)
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id", api.update)
	eg.POST("/:id/submit", api.submit)
	eg.PUT("/:id/visibility", api.setVisibility, adminMiddleware())
}

// Handlers

func (api *evaluationApi) create(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data evaluation.NewEvaluation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvaluation")
	}

	e, err := api.svc.CreateDraft(ctx.Request().Context(), ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating evaluation")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *evaluationApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	filter := evaluation.QueryFilter{
		VentureID: ctx.QueryParam("venture_id"),
		Type:      evaluation.Type(ctx.QueryParam("type")),
		State:     evaluation.State(ctx.QueryParam("state")),
	}
	if ctx.QueryParam("mine") == "true" {
		filter.EvaluatorID = ctxUsr.ID
	}

	evals, err := api.svc.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "listing evaluations")
	}
	if evals == nil {
		evals = []evaluation.Evaluation{}
	}
	return ctx.JSON(http.StatusOK, evals)
}

func (api *evaluationApi) retrieve(ctx echo.Context) error {
	e, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting evaluation")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *evaluationApi) update(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data evaluation.UpdateEvaluation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvaluation")
	}

	e, err := api.svc.UpdateDraft(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating evaluation")
	}
	return ctx.JSON(http.StatusOK, e)
}

// submit returns the evaluation with the eligibility warnings of the venture;
// failing checks never block the submission.
func (api *evaluationApi) submit(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	e, err := api.svc.Submit(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "submitting evaluation")
	}
	return ctx.JSON(http.StatusOK, OutcomeResponse{Data: e, Warnings: e.Eligibility.Warnings()})
}

func (api *evaluationApi) setVisibility(ctx echo.Context) error {
	var data VisibilityRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VisibilityRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	e, err := api.svc.SetVisibility(ctx.Request().Context(), ctx.Param("id"), *data.Visible)
	if err != nil {
		return errors.Wrap(err, "setting evaluation visibility")
	}
	return ctx.JSON(http.StatusOK, e)
}

type VisibilityRequest struct {
	Visible *bool `json:"visible" validate:"required"`
}
