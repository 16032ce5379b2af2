package dashboard

import (
	"slices"
	"sync"
)

type filterKey struct {
	revision uint64
	ft       FilterType
	nf       NivelFilter
}

// Filterer memoizes Filter per snapshot revision. Entries of older revisions
// are dropped as soon as a newer snapshot is filtered.
type Filterer struct {
	mu       sync.Mutex
	revision uint64
	rows     []Row
	cache    map[filterKey][]Row
	observe  func(hit bool)
}

// NewFilterer builds a Filterer; observe, when not nil, is told about every
// cache lookup.
func NewFilterer(observe func(hit bool)) *Filterer {
	return &Filterer{cache: make(map[filterKey][]Row), observe: observe}
}

func (f *Filterer) Filter(s Snapshot, ft FilterType, nf NivelFilter) []Row {
	f.mu.Lock()
	defer f.mu.Unlock()

	if s.Revision != f.revision || f.rows == nil {
		f.revision = s.Revision
		f.rows = Classify(s)
		f.cache = make(map[filterKey][]Row)
	}

	key := filterKey{revision: s.Revision, ft: ft, nf: nf}
	rows, hit := f.cache[key]
	if !hit {
		rows = FilterRows(f.rows, ft, nf)
		f.cache[key] = rows
	}
	if f.observe != nil {
		f.observe(hit)
	}
	return cloneRows(rows)
}

// cloneRows hands callers rows they may modify without touching the cache.
func cloneRows(rows []Row) []Row {
	out := slices.Clone(rows)
	for i := range out {
		if out[i].Score != nil {
			score := *out[i].Score
			out[i].Score = &score
		}
	}
	return out
}
