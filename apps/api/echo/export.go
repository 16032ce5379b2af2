package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/dashboard"
	"github.com/incubaapp/incuba/core/export"
	"github.com/incubaapp/incuba/core/venture"
)

type exportApi struct {
	svc *export.Service
}

func registerExportAPI(g *echo.Group, svc *export.Service) {
	api := exportApi{svc: svc}
	g.GET("/export", api.download, staffMiddleware())
}

func (api *exportApi) download(ctx echo.Context) error {
	sections, err := export.ParseSections(listParam(ctx, "sections"))
	if err != nil {
		return badRequest("sections", err)
	}
	mode := export.Mode(ctx.QueryParam("mode"))
	if mode != "" && mode != export.ModeSections && mode != export.ModeMass {
		return core.NewValidationError(nil, core.FieldError{Field: "mode", Error: "must be one of: sections, mass"})
	}
	ft, err := dashboard.ParseFilterType(ctx.QueryParam("filterType"))
	if err != nil {
		return badRequest("filterType", err)
	}
	nf, err := dashboard.ParseNivelFilter(ctx.QueryParam("nivel"))
	if err != nil {
		return badRequest("nivel", err)
	}
	q := export.Query{
		Filter: venture.QueryFilter{
			Search:   ctx.QueryParam("search"),
			Category: ctx.QueryParam("category"),
			Stage:    ctx.QueryParam("stage"),
		},
		FilterType: ft,
		Nivel:      nf,
	}
	q.Filter.Clean()

	// the workbook is built in memory so failures still get a JSON error
	var buf bytes.Buffer
	if err := api.svc.Write(ctx.Request().Context(), &buf, mode, sections, q); err != nil {
		return errors.Wrap(err, "writing export")
	}

	filename := export.FileName(time.Now())
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}
