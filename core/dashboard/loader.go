package dashboard

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/quota"
	"github.com/incubaapp/incuba/core/venture"
)

type (
	VentureSource interface {
		Query(ctx context.Context, filter *venture.QueryFilter) ([]venture.Venture, error)
	}

	BeneficiarySource interface {
		BeneficiaryIDs(ctx context.Context) (core.StringSet, error)
	}

	QuotaSource interface {
		All(ctx context.Context) ([]quota.Assignment, error)
		ApprovedVentureIDs(ctx context.Context) (core.StringSet, error)
	}

	ScoreSource interface {
		ScoreIndex(ctx context.Context) (map[string][]float64, error)
	}
)

// Loader fetches snapshots and keeps the latest one. Data only changes on
// an explicit Refresh.
type Loader struct {
	ventures      VentureSource
	beneficiaries BeneficiarySource
	quotas        QuotaSource
	scores        ScoreSource

	mu       sync.Mutex
	revision uint64
	current  *Snapshot
}

func NewLoader(ventures VentureSource, beneficiaries BeneficiarySource, quotas QuotaSource, scores ScoreSource) *Loader {
	return &Loader{
		ventures:      ventures,
		beneficiaries: beneficiaries,
		quotas:        quotas,
		scores:        scores,
	}
}

// fetch runs the five queries concurrently.
func (l *Loader) fetch(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		s.Ventures, err = l.ventures.Query(gctx, &venture.QueryFilter{})
		return errors.Wrap(err, "loading ventures")
	})
	g.Go(func() (err error) {
		s.BeneficiaryIDs, err = l.beneficiaries.BeneficiaryIDs(gctx)
		return errors.Wrap(err, "loading beneficiaries")
	})
	g.Go(func() (err error) {
		s.ApprovedVentureIDs, err = l.quotas.ApprovedVentureIDs(gctx)
		return errors.Wrap(err, "loading approved quotas")
	})
	g.Go(func() (err error) {
		s.Assignments, err = l.quotas.All(gctx)
		return errors.Wrap(err, "loading quota assignments")
	})
	g.Go(func() (err error) {
		s.Scores, err = l.scores.ScoreIndex(gctx)
		return errors.Wrap(err, "loading scores")
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Current returns the latest snapshot, loading the first one on demand.
func (l *Loader) Current(ctx context.Context) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current != nil {
		return *l.current, nil
	}
	return l.reload(ctx)
}

// Refresh refetches everything under a new revision.
func (l *Loader) Refresh(ctx context.Context) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reload(ctx)
}

func (l *Loader) reload(ctx context.Context) (Snapshot, error) {
	s, err := l.fetch(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	l.revision++
	s.Revision = l.revision
	l.current = &s
	return s, nil
}
