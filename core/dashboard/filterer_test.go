package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/quota"
	"github.com/incubaapp/incuba/core/tier"
	"github.com/incubaapp/incuba/core/venture"
)

func TestFilterer(t *testing.T) {
	var hits, misses int
	f := NewFilterer(func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})
	s := testSnapshot()

	first := f.Filter(s, FilterCandidates, NivelAll)
	again := f.Filter(s, FilterCandidates, NivelAll)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	f.Filter(s, FilterBeneficiaries, NivelAll)
	assert.Equal(t, 2, misses)

	// a new revision invalidates every entry
	s2 := testSnapshot()
	s2.Revision = 2
	s2.ApprovedVentureIDs.Add("c-scale")
	s2.Assignments = append(s2.Assignments, quota.Assignment{VentureID: "c-scale", Tier: tier.Growth, State: quota.StateApproved})
	rows := f.Filter(s2, FilterCandidates, NivelAll)
	assert.Equal(t, 3, misses)
	assert.NotContains(t, ventureIDs(rows), "c-scale")
}

func TestFiltererResultsAreCopies(t *testing.T) {
	f := NewFilterer(nil)
	s := testSnapshot()

	first := f.Filter(s, FilterAll, NivelAll)
	require.NotEmpty(t, first)
	want := first[0].Venture.ID
	first[0].Venture.ID = "tampered"
	for _, r := range first {
		if r.Score != nil {
			*r.Score = -1
		}
	}
	_ = append(first[:0], first[1:]...) // shifts the backing array

	again := f.Filter(s, FilterAll, NivelAll)
	assert.Equal(t, Filter(s, FilterAll, NivelAll), again)
	assert.Equal(t, want, again[0].Venture.ID)
}

func TestFiltererConcurrent(t *testing.T) {
	f := NewFilterer(nil)
	s := testSnapshot()
	want := Filter(s, FilterAll, NivelFilter(tier.Scale))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, f.Filter(s, FilterAll, NivelFilter(tier.Scale)))
		}()
	}
	wg.Wait()
}

type fakeSources struct {
	calls    int32
	ventures []venture.Venture
	fail     error
}

func (fs *fakeSources) Query(context.Context, *venture.QueryFilter) ([]venture.Venture, error) {
	atomic.AddInt32(&fs.calls, 1)
	return fs.ventures, fs.fail
}

func (fs *fakeSources) BeneficiaryIDs(context.Context) (core.StringSet, error) {
	return core.NewStringSet("u1"), nil
}

func (fs *fakeSources) All(context.Context) ([]quota.Assignment, error) {
	return []quota.Assignment{{VentureID: "v1", Tier: tier.Scale, State: quota.StateApproved}}, nil
}

func (fs *fakeSources) ApprovedVentureIDs(context.Context) (core.StringSet, error) {
	return core.NewStringSet("v1"), nil
}

func (fs *fakeSources) ScoreIndex(context.Context) (map[string][]float64, error) {
	return map[string][]float64{"v2": {55}}, nil
}

func TestLoader(t *testing.T) {
	ctx := context.Background()
	src := &fakeSources{ventures: []venture.Venture{{ID: "v1", OwnerID: "u1"}, {ID: "v2", OwnerID: "u2"}}}
	l := NewLoader(src, src, src, src)

	s, err := l.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Revision)
	assert.Len(t, s.Ventures, 2)
	assert.True(t, s.BeneficiaryIDs.Exist("u1"))
	assert.True(t, s.ApprovedVentureIDs.Exist("v1"))
	assert.Equal(t, []float64{55}, s.Scores["v2"])

	s, err = l.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Revision)
	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls), "Current reuses the loaded snapshot")

	s, err = l.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), s.Revision)

	rows := Filter(s, FilterAll, NivelAll)
	require.Len(t, rows, 2)
	assert.Equal(t, tier.LevelOf(tier.Scale), rows[0].Level)
	assert.Equal(t, tier.LevelOf(tier.Growth), rows[1].Level)
}

func TestLoaderError(t *testing.T) {
	src := &fakeSources{fail: errors.New("db down")}
	l := NewLoader(src, src, src, src)
	_, err := l.Current(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading ventures")

	src.fail = nil
	s, err := l.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), s.Revision, "failed loads do not consume a revision")
}
