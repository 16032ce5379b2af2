package export

import (
	"context"
	"io"

	"github.com/ecodeclub/ekit/slice"
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/dashboard"
	"github.com/incubaapp/incuba/core/evaluation"
	"github.com/incubaapp/incuba/core/quota"
	"github.com/incubaapp/incuba/core/venture"
)

// Mode selects the workbook layout.
type Mode string

const (
	ModeSections Mode = "sections"
	ModeMass     Mode = "mass"
)

type (
	Ventures interface {
		Query(ctx context.Context, filter *venture.QueryFilter) ([]venture.Venture, error)
		Profile(ctx context.Context, id string) (venture.Profile, error)
	}

	Evaluations interface {
		List(ctx context.Context, filter evaluation.QueryFilter) ([]evaluation.Evaluation, error)
	}

	Quotas interface {
		Approved(ctx context.Context) ([]quota.Assignment, error)
	}

	Service struct {
		ventures    Ventures
		evaluations Evaluations
		quotas      Quotas
	}

	// Query selects the exported ventures: the venture filter first, then
	// the same population facets the dashboard applies.
	Query struct {
		Filter     venture.QueryFilter
		FilterType dashboard.FilterType
		Nivel      dashboard.NivelFilter
	}
)

func NewService(ventures Ventures, evaluations Evaluations, quotas Quotas) *Service {
	return &Service{ventures: ventures, evaluations: evaluations, quotas: quotas}
}

// Records assembles one Record per selected venture, oldest first.
func (svc *Service) Records(ctx context.Context, q Query) ([]Record, error) {
	vs, err := svc.ventures.Query(ctx, &q.Filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying ventures")
	}
	evals, err := svc.evaluations.List(ctx, evaluation.QueryFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "querying evaluations")
	}
	approved, err := svc.quotas.Approved(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying quotas")
	}

	byVenture := make(map[string][]evaluation.Evaluation)
	for _, e := range evals {
		byVenture[e.VentureID] = append(byVenture[e.VentureID], e)
	}
	quotas := slice.ToMap(approved, func(a quota.Assignment) string { return a.VentureID })
	rows := dashboard.FilterRows(dashboard.Classify(dashboard.Snapshot{
		Ventures:           vs,
		ApprovedVentureIDs: core.NewStringSet(slice.Map(approved, func(_ int, a quota.Assignment) string { return a.VentureID })...),
		Assignments:        approved,
		Scores:             evaluation.IndexScores(evals),
	}), q.FilterType, q.Nivel)

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		id := row.Venture.ID
		p, err := svc.ventures.Profile(ctx, id)
		if err != nil {
			return nil, errors.Wrapf(err, "loading profile %s", id)
		}
		r := Record{
			Profile:     p,
			Evaluations: byVenture[id],
			Summary:     evaluation.Summarize(byVenture[id]),
			Level:       row.Level,
		}
		if a, ok := quotas[id]; ok {
			r.Quota = &a
		}
		records = append(records, r)
	}
	return records, nil
}

// Write builds the workbook for mode and writes it to w.
func (svc *Service) Write(ctx context.Context, w io.Writer, mode Mode, sections []Section, q Query) error {
	records, err := svc.Records(ctx, q)
	if err != nil {
		return err
	}

	var wb *Workbook
	switch mode {
	case ModeMass:
		wb, err = MassWorkbook(records, sections)
	case ModeSections, "":
		wb, err = SectionWorkbook(records, sections)
	default:
		return errors.Errorf("unknown export mode %q", mode)
	}
	if err != nil {
		return err
	}
	defer wb.Close()

	_, err = wb.WriteTo(w)
	return errors.Wrap(err, "writing workbook")
}
