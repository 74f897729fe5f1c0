package attainment

import (
	"math"
	"sort"
)

// round2 keeps reported percentages stable across runs and matches how
// attainment sheets are published (two decimal places).
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// validateAssessment checks the hard preconditions for one assessment:
// every component tagged to a declared CO, every mark within range. All
// failures are collected so a single pass reports every offending record.
func validateAssessment(scope Scope, a AssessmentInput, outcomes map[string]CourseOutcome) []error {
	var errs []error
	byNumber := make(map[int]AssessmentComponent, len(a.Components))
	for _, c := range a.Components {
		byNumber[c.Number] = c
		if c.OutcomeID == "" {
			errs = append(errs, &IncompleteMappingError{
				Scope: scope, AssessmentID: a.ID, Component: c.Number,
			})
			continue
		}
		if _, ok := outcomes[c.OutcomeID]; !ok {
			errs = append(errs, &IncompleteMappingError{
				Scope: scope, AssessmentID: a.ID, Component: c.Number, OutcomeID: c.OutcomeID,
			})
		}
	}
	for student, byComp := range a.Marks {
		for num, marks := range byComp {
			comp, ok := byNumber[num]
			if !ok {
				// Marks for a component the assessment does not declare:
				// mapping is incomplete from the engine's point of view.
				errs = append(errs, &IncompleteMappingError{
					Scope: scope, AssessmentID: a.ID, Component: num,
				})
				continue
			}
			if marks < 0 || marks > comp.MaxMarks {
				errs = append(errs, &InvalidMarkError{
					Scope: scope, AssessmentID: a.ID, Component: num,
					StudentID: student, Marks: marks, MaxMarks: comp.MaxMarks,
				})
			}
		}
	}
	return errs
}

// scoreAssessment computes, for each CO with components in this assessment,
// the percentage of enrolled students whose mark total over those components
// meets the CO's target proficiency. A CO whose components sum to zero max
// marks is excluded (no denominator), not reported as 0%. A student with no
// marks recorded still counts, at 0%.
func scoreAssessment(a AssessmentInput, outcomes map[string]CourseOutcome, roster []string) map[string]float64 {
	type coAgg struct {
		maxTotal float64
		comps    []int
	}
	agg := map[string]*coAgg{}
	compCO := make(map[int]string, len(a.Components))
	for _, c := range a.Components {
		compCO[c.Number] = c.OutcomeID
		ca := agg[c.OutcomeID]
		if ca == nil {
			ca = &coAgg{}
			agg[c.OutcomeID] = ca
		}
		ca.maxTotal += c.MaxMarks
		ca.comps = append(ca.comps, c.Number)
	}

	out := make(map[string]float64, len(agg))
	if len(roster) == 0 {
		return out
	}
	for coID, ca := range agg {
		if ca.maxTotal <= 0 {
			continue // excluded, not 0%
		}
		target := ca.maxTotal * outcomes[coID].TargetProficiency / 100
		met := 0
		for _, student := range roster {
			total := 0.0
			for _, num := range ca.comps {
				total += a.Marks[student][num]
			}
			if total >= target {
				met++
			}
		}
		out[coID] = round2(float64(met) / float64(len(roster)) * 100)
	}
	return out
}

// sortedKeys is used wherever map iteration order would otherwise leak into
// results: identical inputs must produce identical output ordering.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
