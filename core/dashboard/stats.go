package dashboard

import (
	"github.com/incubaapp/incuba/core/tier"
)

// Stats feeds the dashboard widgets.
type Stats struct {
	Total         int               `json:"total"`
	Beneficiaries int               `json:"beneficiaries"`
	Candidates    int               `json:"candidates"`
	ByTier        map[tier.Tier]int `json:"by_tier"`
	Unclassified  int               `json:"unclassified"`
	ByCategory    map[string]int    `json:"by_category"`
	ByStage       map[string]int    `json:"by_stage"`
	Evaluated     int               `json:"evaluated"`
	AverageScore  float64           `json:"average_score"`
}

// ComputeStats aggregates rows, typically the output of Filter.
func ComputeStats(rows []Row) Stats {
	st := Stats{
		Total:      len(rows),
		ByTier:     make(map[tier.Tier]int, len(tier.Tiers)),
		ByCategory: make(map[string]int),
		ByStage:    make(map[string]int),
	}
	for _, t := range tier.Tiers {
		st.ByTier[t] = 0
	}

	var scoreSum float64
	for _, r := range rows {
		if r.Class == ClassBeneficiary {
			st.Beneficiaries++
		} else {
			st.Candidates++
		}
		if t, ok := r.Level.Tier(); ok {
			st.ByTier[t]++
		} else {
			st.Unclassified++
		}
		if r.Venture.Category != "" {
			st.ByCategory[r.Venture.Category]++
		}
		if r.Venture.Stage != "" {
			st.ByStage[r.Venture.Stage]++
		}
		if r.Score != nil {
			st.Evaluated++
			scoreSum += *r.Score
		}
	}
	if st.Evaluated > 0 {
		st.AverageScore = scoreSum / float64(st.Evaluated)
	}
	return st
}
