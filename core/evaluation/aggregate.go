package evaluation

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/incubaapp/incuba/core"
	"github.com/incubaapp/incuba/core/venture"
)

const (
	minTeamSize = 2
	referral    = 5.0
)

var errOutOfRange = errors.New("scores out of range")

// RegionalReferral awards the referral points to ventures located outside the home city.
func RegionalReferral(municipality, homeCity string) float64 {
	m := strings.TrimSpace(municipality)
	if m == "" || strings.EqualFold(m, strings.TrimSpace(homeCity)) {
		return 0
	}
	return referral
}

// Aggregate checks each component against its cap and sums all six
// components. The total is not rounded or normalized.
func Aggregate(s Scores, municipality, homeCity string) (Breakdown, error) {
	checks := []struct {
		field string
		value float64
		max   float64
	}{
		{"impact", s.Impact, MaxImpact},
		{"team", s.Team, MaxTeam},
		{"innovation", s.Innovation, MaxInnovation},
		{"sales", s.Sales, MaxSales},
		{"financing_projection", s.FinancingProjection, MaxFinancingProjection},
	}
	var flds []core.FieldError
	for _, c := range checks {
		if math.IsNaN(c.value) || c.value < 0 || c.value > c.max {
			flds = append(flds, core.FieldError{
				Field: c.field,
				Error: fmt.Sprintf("must be between 0 and %g", c.max),
			})
		}
	}
	if len(flds) > 0 {
		return Breakdown{}, core.NewValidationError(errOutOfRange, flds...)
	}

	b := Breakdown{
		Impact:              s.Impact,
		Team:                s.Team,
		Innovation:          s.Innovation,
		Sales:               s.Sales,
		FinancingProjection: s.FinancingProjection,
		RegionalReferral:    RegionalReferral(municipality, homeCity),
	}
	b.Rubric = b.Impact + b.Team + b.Innovation + b.Sales + b.FinancingProjection
	b.Derived = b.RegionalReferral
	b.Total = b.Rubric + b.Derived
	return b, nil
}

// Gate runs the eligibility checks. Failing checks never block a submission.
func Gate(v venture.Venture, t venture.Team) Eligibility {
	return Eligibility{
		// TODO: check Department/Municipality once the program defines its coverage area.
		Location:   true,
		MinTeam:    t.Total >= minTeamSize,
		Dedication: t.FullTime > 0,
		Interest:   strings.TrimSpace(v.Description) != "",
	}
}

// Warnings lists the failed checks, in display order.
func (e Eligibility) Warnings() []string {
	var ws []string
	if !e.Location {
		ws = append(ws, "location requirement not met")
	}
	if !e.MinTeam {
		ws = append(ws, fmt.Sprintf("team has fewer than %d members", minTeamSize))
	}
	if !e.Dedication {
		ws = append(ws, "no full-time team member")
	}
	if !e.Interest {
		ws = append(ws, "venture has no description")
	}
	return ws
}

// Passed is true when every check holds.
func (e Eligibility) Passed() bool {
	return e.Location && e.MinTeam && e.Dedication && e.Interest
}

// Summarize averages the totals of the submitted panel evaluations.
func Summarize(evals []Evaluation) Summary {
	var sum Summary
	var total float64
	for _, e := range evals {
		if e.Type != TypeJury || !e.IsSubmitted() {
			continue
		}
		total += e.Breakdown.Total
		if sum.Count == 0 || e.Breakdown.Total > sum.Max {
			sum.Max = e.Breakdown.Total
		}
		sum.Count++
	}
	if sum.Count > 0 {
		sum.Average = total / float64(sum.Count)
	}
	return sum
}
