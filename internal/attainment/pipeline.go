package attainment

// ComputeCourse runs the full course-scope pipeline: per-assessment CO
// scoring, direct/indirect aggregation, final blending, PO projection and
// CQI trigger decisions. It is a pure function of its arguments; identical
// inputs and snapshot always yield an identical result.
func ComputeCourse(in CourseInput, cfg GovernanceSnapshot) (*CourseResult, error) {
	if in.Locked {
		return nil, &LockedError{Scope: in.Scope}
	}

	outcomes := make(map[string]CourseOutcome, len(in.Outcomes))
	for _, co := range in.Outcomes {
		outcomes[co.ID] = co
	}

	var errs []error
	for _, a := range in.Assessments {
		errs = append(errs, validateAssessment(in.Scope, a, outcomes)...)
	}
	if len(errs) > 0 {
		return nil, &ValidationErrors{Errs: errs}
	}

	res := &CourseResult{Scope: in.Scope, ConfigVersion: cfg.Version}
	res.Warnings = append(res.Warnings, cfg.Warnings()...)
	if len(in.Students) == 0 {
		res.Warnings = append(res.Warnings, "empty student roster: no per-assessment scores computed")
	}

	bands := cfg.sortedBands()

	// Per-assessment CO scores, grouped by category. One assessment per
	// category per course; scoring iterates in declared order so repeated
	// runs emit rows identically.
	perCategory := map[Category]map[string]float64{}
	for _, a := range in.Assessments {
		scores := scoreAssessment(a, outcomes, in.Students)
		if perCategory[a.Category] == nil {
			perCategory[a.Category] = map[string]float64{}
		}
		for coID, pct := range scores {
			perCategory[a.Category][coID] = pct
		}
	}
	for _, cat := range Categories {
		scores, ok := perCategory[cat]
		if !ok {
			continue
		}
		for _, coID := range sortedKeys(scores) {
			res.PerAssessment = append(res.PerAssessment, COAttainment{
				OutcomeID: coID,
				Category:  cat,
				Percent:   scores[coID],
				Level:     Classify(scores[coID], bands),
			})
		}
	}

	// Direct, indirect, final per CO.
	direct := directScore(perCategory, cfg)
	surveys := make(map[string]SurveySummary, len(in.Surveys))
	for _, s := range in.Surveys {
		surveys[s.OutcomeID] = s
	}

	finals := make(map[string]float64, len(in.Outcomes))
	for _, coID := range sortedKeys(outcomes) {
		directPct := direct[coID] // 0 when the CO scored in no category

		var indirect *float64
		if s, ok := surveys[coID]; ok && s.Respondents > 0 {
			v := indirectScore(s)
			indirect = &v
		}

		final := combineFinal(directPct, indirect, cfg)
		finals[coID] = final
		res.Final = append(res.Final, COFinalAttainment{
			OutcomeID: coID,
			DirectPct: directPct,
			Direct:    directPct * 3 / 100,
			Indirect:  indirect,
			Final:     final,
			Level:     ClassifyScale3(final, bands),
		})
		if final < cfg.POTarget {
			res.CQI = append(res.CQI, CQIAction{
				Scope:     in.Scope,
				OutcomeID: coID,
				Final:     final,
				Target:    cfg.POTarget,
			})
		}
	}

	res.POs = projectCoursePOs(finals, in.Mappings)
	return res, nil
}

// ComputeProgram aggregates reported course-PO values for one program scope.
func ComputeProgram(in ProgramInput, cfg GovernanceSnapshot) (*ProgramResult, error) {
	if in.Locked {
		return nil, &LockedError{Scope: in.Scope}
	}
	res := &ProgramResult{Scope: in.Scope, ConfigVersion: cfg.Version}
	res.Warnings = append(res.Warnings, cfg.Warnings()...)
	res.POs = aggregateProgramPOs(in.Courses)
	return res, nil
}
