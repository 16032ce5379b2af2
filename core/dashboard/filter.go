// Package dashboard builds the population views shared by the dashboard
// widgets and the candidate list. Filter is pure; the snapshot it reads is
// never mutated after loading.
package dashboard

import (
	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/quota"
	"github.com/incubaapp/incuba/core/tier"
	"github.com/incubaapp/incuba/core/venture"
)

// Snapshot is one fetch of every input the filter reads.
type Snapshot struct {
	Revision           uint64
	Ventures           []venture.Venture
	BeneficiaryIDs     core.StringSet // users holding the beneficiario role
	ApprovedVentureIDs core.StringSet
	Assignments        []quota.Assignment
	Scores             map[string][]float64 // venture → submitted totals
}

// Class is the program standing of a venture.
type Class string

const (
	ClassBeneficiary Class = "beneficiario"
	ClassCandidate   Class = "candidato"
)

type FilterType string

const (
	FilterAll           FilterType = "todos"
	FilterBeneficiaries FilterType = "beneficiarios"
	FilterCandidates    FilterType = "candidatos"
)

// NivelFilter is "todos", "candidatos" or a tier name.
type NivelFilter string

const (
	NivelAll        NivelFilter = "todos"
	NivelCandidates NivelFilter = "candidatos"
)

var ErrInvalidFacet = errors.New("invalid filter facet")

func ParseFilterType(s string) (FilterType, error) {
	switch ft := FilterType(s); ft {
	case "":
		return FilterAll, nil
	case FilterAll, FilterBeneficiaries, FilterCandidates:
		return ft, nil
	}
	return "", errors.Wrapf(ErrInvalidFacet, "filterType %q", s)
}

func ParseNivelFilter(s string) (NivelFilter, error) {
	switch nf := NivelFilter(s); nf {
	case "":
		return NivelAll, nil
	case NivelAll, NivelCandidates:
		return nf, nil
	}
	t, err := tier.ParseTier(s)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidFacet, "nivel %q", s)
	}
	return NivelFilter(t), nil
}

// Row is a venture with its class and effective level.
type Row struct {
	Venture            venture.Venture `json:"venture"`
	Class              Class           `json:"class"`
	Level              tier.Level      `json:"level"`
	Score              *float64        `json:"score"` // best submitted total
	OwnerIsBeneficiary bool            `json:"owner_is_beneficiary"`
}

// quotaTiers maps each venture to the tier of its approved assignment.
func quotaTiers(assignments []quota.Assignment) map[string]tier.Tier {
	idx := make(map[string]tier.Tier, len(assignments))
	for _, a := range assignments {
		if a.IsApproved() {
			idx[a.VentureID] = a.Tier
		}
	}
	return idx
}

func maxScore(scores []float64) *float64 {
	best, ok := tier.Best(scores)
	if !ok {
		return nil
	}
	return &best
}

func member(ids core.StringSet, id string) bool {
	return ids != nil && ids.Exist(id)
}

// Classify turns every venture of the snapshot into a Row, preserving order.
func Classify(s Snapshot) []Row {
	tiers := quotaTiers(s.Assignments)
	rows := make([]Row, 0, len(s.Ventures))
	for _, v := range s.Ventures {
		scores := s.Scores[v.ID]
		row := Row{
			Venture:            v,
			Class:              ClassCandidate,
			Score:              maxScore(scores),
			OwnerIsBeneficiary: member(s.BeneficiaryIDs, v.OwnerID),
		}
		if member(s.ApprovedVentureIDs, v.ID) {
			row.Class = ClassBeneficiary
			var qt *tier.Tier
			if t, ok := tiers[v.ID]; ok {
				qt = &t
			}
			row.Level = tier.Classify(qt, scores)
		} else {
			row.Level = tier.Derive(scores)
		}
		rows = append(rows, row)
	}
	return rows
}

// Filter returns the rows selected by both facets in snapshot order.
func Filter(s Snapshot, ft FilterType, nf NivelFilter) []Row {
	return FilterRows(Classify(s), ft, nf)
}

// FilterRows applies the facets to already classified rows. It never
// reorders, so applying it to its own output with the same facets is a no-op.
func FilterRows(rows []Row, ft FilterType, nf NivelFilter) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		switch ft {
		case FilterBeneficiaries:
			if r.Class != ClassBeneficiary {
				continue
			}
		case FilterCandidates:
			if r.Class != ClassCandidate {
				continue
			}
		}

		switch nf {
		case NivelAll, "":
		case NivelCandidates:
			if r.Class != ClassCandidate || !r.Level.Classified() {
				continue
			}
		default:
			if !r.Level.Is(tier.Tier(nf)) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}
