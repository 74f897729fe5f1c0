package attainment

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// InputChecksum produces a stable digest of a course input snapshot for the
// audit trail. Slices and mark maps are serialized in sorted order so the
// checksum depends only on content, not on load order.
func InputChecksum(in CourseInput) string {
	c := in // shallow copy; sorted copies built below

	c.Students = append([]string(nil), in.Students...)
	sort.Strings(c.Students)

	c.Outcomes = append([]CourseOutcome(nil), in.Outcomes...)
	sort.Slice(c.Outcomes, func(i, j int) bool { return c.Outcomes[i].ID < c.Outcomes[j].ID })

	c.Surveys = append([]SurveySummary(nil), in.Surveys...)
	sort.Slice(c.Surveys, func(i, j int) bool { return c.Surveys[i].OutcomeID < c.Surveys[j].OutcomeID })

	c.Mappings = append([]POMapping(nil), in.Mappings...)
	sort.Slice(c.Mappings, func(i, j int) bool {
		if c.Mappings[i].OutcomeID != c.Mappings[j].OutcomeID {
			return c.Mappings[i].OutcomeID < c.Mappings[j].OutcomeID
		}
		return c.Mappings[i].POCode < c.Mappings[j].POCode
	})

	c.Assessments = make([]AssessmentInput, len(in.Assessments))
	copy(c.Assessments, in.Assessments)
	sort.Slice(c.Assessments, func(i, j int) bool { return c.Assessments[i].ID < c.Assessments[j].ID })
	for i := range c.Assessments {
		comps := append([]AssessmentComponent(nil), c.Assessments[i].Components...)
		sort.Slice(comps, func(a, b int) bool { return comps[a].Number < comps[b].Number })
		c.Assessments[i].Components = comps
	}

	return digest(c)
}

// ProgramChecksum is the program-scope counterpart of InputChecksum.
func ProgramChecksum(in ProgramInput) string {
	c := in
	c.Courses = append([]CoursePOSet(nil), in.Courses...)
	sort.Slice(c.Courses, func(i, j int) bool { return c.Courses[i].CourseID < c.Courses[j].CourseID })
	return digest(c)
}

// digest hashes the canonical JSON form. encoding/json writes map keys in
// sorted order, which keeps the mark maps deterministic.
func digest(v interface{}) string {
	buf, _ := json.Marshal(v)
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}
