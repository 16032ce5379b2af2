package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/quota"
)

type quotaApi struct {
	svc      *quota.Service
	validate *validator.Validate
	logger   core.Logger
}

func registerQuotaAPI(g *echo.Group, svc *quota.Service, validate *validator.Validate, logger core.Logger) {
	api := quotaApi{svc: svc, validate: validate, logger: logger}

	qg := g.Group("/quotas", adminMiddleware())
	qg.POST("", api.create)
	qg.GET("", api.query)
	qg.GET("/:id", api.retrieve)
	qg.POST("/:id/approve", api.approve)
	qg.POST("/:id/reject", api.reject)
}

// Handlers

func (api *quotaApi) create(ctx echo.Context) error {
	var data quota.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}

	a, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating quota assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *quotaApi) query(ctx echo.Context) error {
	var as []quota.Assignment
	var err error
	reqCtx := ctx.Request().Context()

	if ventureID := ctx.QueryParam("venture_id"); ventureID != "" {
		as, err = api.svc.ListByVenture(reqCtx, ventureID)
	} else {
		as, err = api.svc.All(reqCtx)
	}
	if err != nil {
		return errors.Wrap(err, "listing quota assignments")
	}

	state := quota.State(ctx.QueryParam("state"))
	shown := make([]quota.Assignment, 0, len(as))
	for _, a := range as {
		if state == "" || a.State == state {
			shown = append(shown, a)
		}
	}
	return ctx.JSON(http.StatusOK, shown)
}

func (api *quotaApi) retrieve(ctx echo.Context) error {
	a, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting quota assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

// approve answers 200 even when promoting or notifying the owner failed; the
// failures are logged and listed as warnings.
func (api *quotaApi) approve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	a, outcome, err := api.svc.Approve(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "approving quota assignment")
	}
	outcome.Report(api.logger, ctxUsr)
	return ctx.JSON(http.StatusOK, newOutcomeResponse(a, outcome))
}

func (api *quotaApi) reject(ctx echo.Context) error {
	a, err := api.svc.Reject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "rejecting quota assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}
