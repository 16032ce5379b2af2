package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/mentorship"
)

type mentorshipApi struct {
	svc      *mentorship.Service
	validate *validator.Validate
	logger   core.Logger
}

func registerMentorshipAPI(g *echo.Group, svc *mentorship.Service, validate *validator.Validate, logger core.Logger) {
	api := mentorshipApi{svc: svc, validate: validate, logger: logger}

	mg := g.Group("/mentorship")

	ag := mg.Group("/assignments", staffMiddleware())
	ag.POST("", api.assign, adminMiddleware())
	ag.GET("", api.queryAssignments)
	ag.DELETE("/:id", api.unassign, adminMiddleware())

	sg := mg.Group("/sessions")
	sg.POST("", api.book, beneficiaryMiddleware())
	sg.GET("", api.querySessions)
	sg.GET("/:id", api.retrieveSession)
	sg.POST("/:id/cancel", api.cancel)
}

// Handlers

func (api *mentorshipApi) assign(ctx echo.Context) error {
	var data mentorship.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}

	a, err := api.svc.Assign(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "assigning mentor")
	}
	return ctx.JSON(http.StatusCreated, a)
}

// queryAssignments lists the assignments of a venture or a mentor. Mentors
// only see their own.
func (api *mentorshipApi) queryAssignments(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	reqCtx := ctx.Request().Context()

	var as []mentorship.Assignment
	mentorID := ctx.QueryParam("mentor_id")
	if !ctxUsr.IsAdmin() {
		mentorID = ctxUsr.ID
	}
	if ventureID := ctx.QueryParam("venture_id"); ventureID != "" && ctxUsr.IsAdmin() {
		as, err = api.svc.ListByVenture(reqCtx, ventureID)
	} else {
		as, err = api.svc.ListByMentor(reqCtx, mentorID)
	}
	if err != nil {
		return errors.Wrap(err, "listing mentor assignments")
	}
	if as == nil {
		as = []mentorship.Assignment{}
	}
	return ctx.JSON(http.StatusOK, as)
}

func (api *mentorshipApi) unassign(ctx echo.Context) error {
	if err := api.svc.Unassign(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing mentor assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *mentorshipApi) book(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	var data mentorship.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}

	s, outcome, err := api.svc.Book(ctx.Request().Context(), ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "booking session")
	}
	outcome.Report(api.logger, ctxUsr)
	return ctx.JSON(http.StatusCreated, newOutcomeResponse(s, outcome))
}

// querySessions lists the sessions the context user takes part in; admins
// may ask for any mentor or beneficiary.
func (api *mentorshipApi) querySessions(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	reqCtx := ctx.Request().Context()

	var ss []mentorship.Session
	switch {
	case ctxUsr.IsAdmin() && ctx.QueryParam("mentor_id") != "":
		ss, err = api.svc.ListSessionsByMentor(reqCtx, ctx.QueryParam("mentor_id"))
	case ctxUsr.IsAdmin() && ctx.QueryParam("beneficiary_id") != "":
		ss, err = api.svc.ListSessionsByBeneficiary(reqCtx, ctx.QueryParam("beneficiary_id"))
	case ctxUsr.IsMentor():
		ss, err = api.svc.ListSessionsByMentor(reqCtx, ctxUsr.ID)
	default:
		ss, err = api.svc.ListSessionsByBeneficiary(reqCtx, ctxUsr.ID)
	}
	if err != nil {
		return errors.Wrap(err, "listing sessions")
	}
	if ss == nil {
		ss = []mentorship.Session{}
	}
	return ctx.JSON(http.StatusOK, ss)
}

func (api *mentorshipApi) retrieveSession(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	s, err := api.svc.GetSession(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting session")
	}
	if s.MentorID != ctxUsr.ID && s.BeneficiaryID != ctxUsr.ID && !ctxUsr.IsAdmin() {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *mentorshipApi) cancel(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	s, outcome, err := api.svc.Cancel(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "cancelling session")
	}
	outcome.Report(api.logger, ctxUsr)
	return ctx.JSON(http.StatusOK, newOutcomeResponse(s, outcome))
}
