package attainment

// directScore combines per-category CO percentages into one direct percentage
// per CO. Only categories structurally present for the course carry weight;
// dividing by the sum of present weights both renormalizes when a category is
// absent and scales proportionally when configured weights do not sum to 100
// (surfaced as a config warning, never an error). A CO missing from a present
// category contributes 0 to that category's term.
func directScore(perCategory map[Category]map[string]float64, cfg GovernanceSnapshot) map[string]float64 {
	weightTotal := 0.0
	for c := range perCategory {
		weightTotal += cfg.CategoryWeight(c)
	}
	out := map[string]float64{}
	if weightTotal <= 0 {
		return out
	}
	for c, scores := range perCategory {
		w := cfg.CategoryWeight(c)
		for coID, pct := range scores {
			out[coID] += w * pct / weightTotal
		}
	}
	// A CO reported by no category at all is absent from the result; the
	// pipeline reads that as zero direct.
	return out
}

// indirectScore converts a survey summary into the 0-3 Likert average:
// Strongly Agree 3, Agree 2, Neutral 1, Disagree 0. An empty survey yields
// exactly 0, never a division error.
func indirectScore(s SurveySummary) float64 {
	if s.Respondents <= 0 {
		return 0
	}
	total := 3*s.StronglyAgree + 2*s.Agree + 1*s.Neutral
	return float64(total) / float64(s.Respondents)
}

// combineFinal blends a CO's direct percentage with its indirect 0-3 score.
// Direct is projected onto the 0-3 scale before blending so both terms share
// a domain. When the CO has no survey data the final degrades to the direct
// value alone; the indirect weight folds into direct for that CO only.
func combineFinal(directPct float64, indirect *float64, cfg GovernanceSnapshot) float64 {
	direct3 := directPct * 3 / 100
	if indirect == nil {
		return direct3
	}
	return cfg.DirectWeight*direct3 + cfg.IndirectWeight*(*indirect)
}
