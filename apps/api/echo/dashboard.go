package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core/dashboard"
)

type dashboardApi struct {
	loader   *dashboard.Loader
	filterer *dashboard.Filterer
}

func registerDashboardAPI(g *echo.Group, loader *dashboard.Loader, filterer *dashboard.Filterer) {
	api := dashboardApi{loader: loader, filterer: filterer}

	dg := g.Group("/dashboard", staffMiddleware())
	dg.GET("/rows", api.rows)
	dg.GET("/stats", api.stats)
	dg.POST("/refresh", api.refresh, adminMiddleware())
}

// filtered reads the filterType and nivel facets and filters the current snapshot.
func (api *dashboardApi) filtered(ctx echo.Context) ([]dashboard.Row, uint64, error) {
	ft, err := dashboard.ParseFilterType(ctx.QueryParam("filterType"))
	if err != nil {
		return nil, 0, badRequest("filterType", err)
	}
	nf, err := dashboard.ParseNivelFilter(ctx.QueryParam("nivel"))
	if err != nil {
		return nil, 0, badRequest("nivel", err)
	}

	s, err := api.loader.Current(ctx.Request().Context())
	if err != nil {
		return nil, 0, errors.Wrap(err, "loading dashboard snapshot")
	}
	return api.filterer.Filter(s, ft, nf), s.Revision, nil
}

// Handlers

func (api *dashboardApi) rows(ctx echo.Context) error {
	rows, rev, err := api.filtered(ctx)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []dashboard.Row{}
	}
	return ctx.JSON(http.StatusOK, RowsResponse{Revision: rev, Rows: rows})
}

func (api *dashboardApi) stats(ctx echo.Context) error {
	rows, rev, err := api.filtered(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, StatsResponse{Revision: rev, Stats: dashboard.ComputeStats(rows)})
}

func (api *dashboardApi) refresh(ctx echo.Context) error {
	s, err := api.loader.Refresh(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "refreshing dashboard snapshot")
	}
	return ctx.JSON(http.StatusOK, RefreshResponse{Revision: s.Revision, Ventures: len(s.Ventures)})
}

type (
	RowsResponse struct {
		Revision uint64          `json:"revision"`
		Rows     []dashboard.Row `json:"rows"`
	}

	StatsResponse struct {
		Revision uint64          `json:"revision"`
		Stats    dashboard.Stats `json:"stats"`
	}

	RefreshResponse struct {
		Revision uint64 `json:"revision"`
		Ventures int    `json:"ventures"`
	}
)
