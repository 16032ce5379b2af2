package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/incubaapp/incuba/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// listParam collects a repeated or comma separated query param.
func listParam(ctx echo.Context, name string) []string {
	var vals []string
	for _, v := range ctx.QueryParams()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				vals = append(vals, part)
			}
		}
	}
	return vals
}

// OutcomeResponse wraps the result of an action with best-effort side effects.
type OutcomeResponse struct {
	Data     interface{} `json:"data"`
	Warnings []string    `json:"warnings,omitempty"`
}

func newOutcomeResponse(data interface{}, outcome core.Outcome) OutcomeResponse {
	return OutcomeResponse{Data: data, Warnings: outcome.Warnings()}
}
