package echoapi

import (
	"net/http"

	"github.com/ecodeclub/ekit/slice"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/evaluation"
	"github.com/incubaapp/incuba/core/mentorship"
	"github.com/incubaapp/incuba/core/quota"
	"github.com/incubaapp/incuba/core/user"
	"github.com/incubaapp/incuba/core/venture"
)

var errVentureNotFoundInCtx = errors.New("venture object not found in echo.Context")

type ventureApi struct {
	svc         *venture.Service
	evaluations *evaluation.Service
	quotas      *quota.Service
	mentorship  *mentorship.Service
	validate    *validator.Validate
}

func registerVentureAPI(
	g *echo.Group,
	svc *venture.Service,
	evaluations *evaluation.Service,
	quotas *quota.Service,
	mentorshipSvc *mentorship.Service,
	validate *validator.Validate,
) {
	api := ventureApi{
		svc:         svc,
		evaluations: evaluations,
		quotas:      quotas,
		mentorship:  mentorshipSvc,
		validate:    validate,
	}

	vg := g.Group("/ventures")
	vg.POST("", api.create)
	vg.GET("", api.query)
	vg.GET("/mine", api.mine)

	// detail endpoints; owners and staff may read, owners and admins may write
	dg := vg.Group("/:id", ventureMiddleware(svc))
	dg.GET("", api.retrieve)
	dg.GET("/profile", api.profile)
	dg.GET("/eligibility", api.eligibility)
	dg.GET("/summary", api.summary)
	dg.GET("/evaluations", api.listEvaluations)
	dg.GET("/quotas", api.listQuotas)
	dg.GET("/mentors", api.listMentors, staffMiddleware())

	write := ventureWriteMiddleware()
	dg.PUT("", api.update, write)
	dg.PUT("/team", api.saveTeam, write)
	dg.PUT("/financing", api.saveFinancing, write)
	dg.PUT("/projections", api.saveProjections, write)
}

// ventureMiddleware loads the venture :id into "object" when the context
// user owns it or is staff.
func ventureMiddleware(svc *venture.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			v, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if core.IsNotFound(err) {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding venture by ID")
			}
			if v.OwnerID != ctxUsr.ID && !ctxUsr.IsStaff() {
				return errHttpNotFound
			}
			ctx.Set("object", v)
			return next(ctx)
		}
	}
}

func ventureWriteMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			v, err := contextVenture(ctx)
			if err != nil {
				return err
			}
			ctxUsr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if v.OwnerID != ctxUsr.ID && !ctxUsr.IsAdmin() {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

func contextVenture(ctx echo.Context) (venture.Venture, error) {
	v, ok := ctx.Get("object").(venture.Venture)
	if !ok {
		return venture.Venture{}, errors.Wrap(errVentureNotFoundInCtx, "retrieving object from context")
	}
	return v, nil
}

// visibleOnly hides evaluations not released to the venture owner.
func visibleOnly(usr user.User) bool {
	return !usr.IsStaff()
}

// Handlers

func (api *ventureApi) create(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data venture.NewVenture
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVenture")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	v, err := api.svc.Create(ctx.Request().Context(), ctxUsr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating venture")
	}
	return ctx.JSON(http.StatusCreated, v)
}

func (api *ventureApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	reqCtx := ctx.Request().Context()

	if !ctxUsr.IsStaff() {
		ventures := []venture.Venture{}
		if v, err := api.svc.GetByOwner(reqCtx, ctxUsr.ID); err == nil {
			ventures = append(ventures, v)
		} else if !core.IsNotFound(err) {
			return errors.Wrap(err, "finding venture by owner")
		}
		return ctx.JSON(http.StatusOK, ventures)
	}

	filter := venture.QueryFilter{
		Search:   ctx.QueryParam("search"),
		Category: ctx.QueryParam("category"),
		Stage:    ctx.QueryParam("stage"),
	}
	filter.Clean()
	ventures, err := api.svc.Query(reqCtx, &filter)
	if err != nil {
		return errors.Wrap(err, "querying ventures")
	}
	if ventures == nil {
		ventures = []venture.Venture{}
	}
	return ctx.JSON(http.StatusOK, ventures)
}

func (api *ventureApi) mine(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	v, err := api.svc.GetByOwner(ctx.Request().Context(), ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "finding venture by owner")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *ventureApi) retrieve(ctx echo.Context) error {
	v, err := contextVenture(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *ventureApi) update(ctx echo.Context) error {
	v, err := contextVenture(ctx)
	if err != nil {
		return err
	}
	var data venture.UpdateVenture
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateVenture")
	}

	v, err = api.svc.Update(ctx.Request().Context(), v.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating venture")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *ventureApi) saveTeam(ctx echo.Context) error {
	v, err := contextVenture(ctx)
	if err != nil {
		return err
	}
	var data venture.Team
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Team")
	}

	t, err := api.svc.SaveTeam(ctx.Request().Context(), v.ID, data)
	if err != nil {
		return errors.Wrap(err, "saving team")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *ventureApi) saveFinancing(ctx echo.Context) error {
	v, err := contextVenture(ctx)
	if err != nil {
		return err
	}
	var data venture.Financing
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Financing")
	}

	f, err := api.svc.SaveFinancing(ctx.Request().Context(), v.ID, data)
	if err != nil {
		return errors.Wrap(err, "saving financing")
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *ventureApi) saveProjections(ctx echo.Context) error {
	v, err := contextVenture(ctx)
	if err != nil {
		return err
	}
	var data venture.Projections
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Projections")
	}

	p, err := api.svc.SaveProjections(ctx.Request().Context(), v.ID, data)
	if err != nil {
		return errors.Wrap(err, "saving projections")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *ventureApi) profile(ctx echo.Context) error {
	v, err := contextVenture(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.Profile(ctx.Request().Context(), v.ID)
	if err != nil {
		return errors.Wrap(err, "getting venture profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *ventureApi) eligibility(ctx echo.Context) error {
	v, err := contextVenture(ctx)
	if err != nil {
		return err
	}
	t, err := api.svc.Team(ctx.Request().Context(), v.ID)
	if err != nil {
		return errors.Wrap(err, "getting team")
	}

	e := evaluation.Gate(v, t)
	return ctx.JSON(http.StatusOK, EligibilityResponse{
		Eligibility: e,
		Passed:      e.Passed(),
		Warnings:    e.Warnings(),
	})
}

func (api *ventureApi) summary(ctx echo.Context) error {
	v, err := contextVenture(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	sum, err := api.evaluations.Summary(ctx.Request().Context(), v.ID, visibleOnly(ctxUsr))
	if err != nil {
		return errors.Wrap(err, "summarizing evaluations")
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *ventureApi) listEvaluations(ctx echo.Context) error {
	v, err := contextVenture(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	evals, err := api.evaluations.ListByVenture(ctx.Request().Context(), v.ID, visibleOnly(ctxUsr))
	if err != nil {
		return errors.Wrap(err, "listing evaluations")
	}
	if !ctxUsr.IsStaff() {
		// owners only see released, submitted evaluations
		evals = slice.FilterMap(evals, func(_ int, e evaluation.Evaluation) (evaluation.Evaluation, bool) {
			return e, e.IsSubmitted()
		})
	}
	if evals == nil {
		evals = []evaluation.Evaluation{}
	}
	return ctx.JSON(http.StatusOK, evals)
}

func (api *ventureApi) listQuotas(ctx echo.Context) error {
	v, err := contextVenture(ctx)
	if err != nil {
		return err
	}
	as, err := api.quotas.ListByVenture(ctx.Request().Context(), v.ID)
	if err != nil {
		return errors.Wrap(err, "listing quota assignments")
	}
	if as == nil {
		as = []quota.Assignment{}
	}
	return ctx.JSON(http.StatusOK, as)
}

func (api *ventureApi) listMentors(ctx echo.Context) error {
	v, err := contextVenture(ctx)
	if err != nil {
		return err
	}
	as, err := api.mentorship.ListByVenture(ctx.Request().Context(), v.ID)
	if err != nil {
		return errors.Wrap(err, "listing mentor assignments")
	}
	if as == nil {
		as = []mentorship.Assignment{}
	}
	return ctx.JSON(http.StatusOK, as)
}

type EligibilityResponse struct {
	Eligibility evaluation.Eligibility `json:"eligibility"`
	Passed      bool                   `json:"passed"`
	Warnings    []string               `json:"warnings"`
}
