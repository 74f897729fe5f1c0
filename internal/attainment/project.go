package attainment

import "sort"

// projectCoursePOs maps final CO values onto program outcomes through the
// articulation matrix: for each PO, the level-weighted mean of the final
// values of every CO that maps to it. A PO whose total mapping level is zero
// for the course is absent from the output, never reported as 0.
func projectCoursePOs(finals map[string]float64, mappings []POMapping) []CoursePOAttainment {
	num := map[string]float64{}
	den := map[string]float64{}
	for _, m := range mappings {
		if m.Level <= 0 {
			continue
		}
		final, ok := finals[m.OutcomeID]
		if !ok {
			continue
		}
		num[m.POCode] += final * float64(m.Level)
		den[m.POCode] += float64(m.Level)
	}
	out := make([]CoursePOAttainment, 0, len(num))
	for _, po := range sortedKeys(num) {
		if den[po] <= 0 {
			continue
		}
		out = append(out, CoursePOAttainment{POCode: po, Value: num[po] / den[po]})
	}
	return out
}

// aggregateProgramPOs averages each PO over the courses that report it.
// Courses without a value for a PO are excluded from both numerator and
// denominator; there is no zero-fill at program level.
func aggregateProgramPOs(courses []CoursePOSet) []ProgramPOAttainment {
	sum := map[string]float64{}
	n := map[string]int{}
	for _, c := range courses {
		for po, v := range c.POValues {
			sum[po] += v
			n[po]++
		}
	}
	pos := make([]string, 0, len(sum))
	for po := range sum {
		pos = append(pos, po)
	}
	sort.Strings(pos)
	out := make([]ProgramPOAttainment, 0, len(pos))
	for _, po := range pos {
		out = append(out, ProgramPOAttainment{POCode: po, Value: sum[po] / float64(n[po]), Courses: n[po]})
	}
	return out
}
