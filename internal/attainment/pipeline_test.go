package attainment

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

// courseFixture is a three-student course with two COs. CO1 is assessed in
// every category, CO2 only in IA1, and only CO1 has survey data.
func courseFixture() CourseInput {
	return CourseInput{
		Scope: Scope{CourseID: "CS301", Semester: "2025-odd"},
		Outcomes: []CourseOutcome{
			{ID: "CO1", TargetProficiency: 60},
			{ID: "CO2", TargetProficiency: 60},
		},
		Students: []string{"s1", "s2", "s3"},
		Assessments: []AssessmentInput{
			{
				ID:       "ia1",
				Category: CategoryIA1,
				Components: []AssessmentComponent{
					{Number: 1, OutcomeID: "CO1", MaxMarks: 10},
					{Number: 2, OutcomeID: "CO1", MaxMarks: 10},
					{Number: 3, OutcomeID: "CO2", MaxMarks: 10},
				},
				Marks: map[string]map[int]float64{
					"s1": {1: 8, 2: 7, 3: 6},
					"s2": {1: 5, 2: 5, 3: 7},
					"s3": {1: 5, 2: 4, 3: 3},
				},
			},
			{
				ID:       "ia2",
				Category: CategoryIA2,
				Components: []AssessmentComponent{
					{Number: 1, OutcomeID: "CO1", MaxMarks: 20},
				},
				Marks: map[string]map[int]float64{
					"s1": {1: 16}, "s2": {1: 14}, "s3": {1: 4},
				},
			},
			{
				ID:       "end",
				Category: CategoryEnd,
				Components: []AssessmentComponent{
					{Number: 1, OutcomeID: "CO1", MaxMarks: 50},
				},
				Marks: map[string]map[int]float64{
					"s1": {1: 40}, "s2": {1: 30}, "s3": {1: 25},
				},
			},
		},
		Surveys: []SurveySummary{
			{OutcomeID: "CO1", StronglyAgree: 2, Agree: 3, Neutral: 1, Disagree: 4, Respondents: 10},
		},
		Mappings: []POMapping{
			{OutcomeID: "CO1", POCode: "PO1", Level: 3},
			{OutcomeID: "CO2", POCode: "PO1", Level: 1},
			{OutcomeID: "CO1", POCode: "PO2", Level: 2},
		},
	}
}

func TestComputeCourseEndToEnd(t *testing.T) {
	res, err := ComputeCourse(courseFixture(), DefaultGovernance())
	if err != nil {
		t.Fatalf("ComputeCourse: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}

	// IA1: 1/3 of students reach 60% on CO1, 2/3 on CO2. IA2 and END carry
	// CO1 only: 2/3 each.
	want := []COAttainment{
		{OutcomeID: "CO1", Category: CategoryIA1, Percent: 33.33, Level: 0},
		{OutcomeID: "CO2", Category: CategoryIA1, Percent: 66.67, Level: 1},
		{OutcomeID: "CO1", Category: CategoryIA2, Percent: 66.67, Level: 1},
		{OutcomeID: "CO1", Category: CategoryEnd, Percent: 66.67, Level: 1},
	}
	if len(res.PerAssessment) != len(want) {
		t.Fatalf("per-assessment rows = %d, want %d: %v", len(res.PerAssessment), len(want), res.PerAssessment)
	}
	for i, w := range want {
		g := res.PerAssessment[i]
		if g.OutcomeID != w.OutcomeID || g.Category != w.Category || g.Level != w.Level {
			t.Fatalf("row %d = %+v, want %+v", i, g, w)
		}
		approx(t, g.Percent, w.Percent, 1e-9, "row percent "+g.OutcomeID+"/"+string(g.Category))
	}

	if len(res.Final) != 2 {
		t.Fatalf("final rows = %d, want 2", len(res.Final))
	}
	co1, co2 := res.Final[0], res.Final[1]

	// CO1: direct (20*33.33 + 20*66.67 + 60*66.67)/100 = 60.002, blended
	// with the 1.3 survey average.
	approx(t, co1.DirectPct, 60.002, 1e-9, "CO1 direct pct")
	if co1.Indirect == nil {
		t.Fatal("CO1 indirect must be present")
	}
	approx(t, *co1.Indirect, 1.3, 1e-9, "CO1 indirect")
	approx(t, co1.Final, 1.700048, 1e-9, "CO1 final")
	if co1.Level != 0 {
		t.Fatalf("CO1 final level = %d, want 0", co1.Level)
	}

	// CO2 scored only in IA1; IA2 and END are present, so it is zero-filled
	// there rather than renormalized away. No survey: final degrades to
	// direct alone.
	approx(t, co2.DirectPct, 13.334, 1e-9, "CO2 direct pct")
	if co2.Indirect != nil {
		t.Fatalf("CO2 indirect = %v, want nil", *co2.Indirect)
	}
	approx(t, co2.Final, 0.40002, 1e-9, "CO2 final")

	// Both COs fall below the 1.8 target.
	if len(res.CQI) != 2 || res.CQI[0].OutcomeID != "CO1" || res.CQI[1].OutcomeID != "CO2" {
		t.Fatalf("CQI triggers = %+v, want CO1 and CO2", res.CQI)
	}
	approx(t, res.CQI[0].Target, 1.8, 1e-9, "CQI target")

	if len(res.POs) != 2 {
		t.Fatalf("POs = %+v, want PO1 and PO2", res.POs)
	}
	approx(t, res.POs[0].Value, (1.700048*3+0.40002)/4, 1e-9, "PO1")
	approx(t, res.POs[1].Value, 1.700048, 1e-9, "PO2")
}

func TestComputeCourseLockedScope(t *testing.T) {
	in := courseFixture()
	in.Locked = true
	res, err := ComputeCourse(in, DefaultGovernance())
	if res != nil {
		t.Fatalf("locked scope must produce no result, got %+v", res)
	}
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("error = %v, want ErrLocked", err)
	}
	var le *LockedError
	if !errors.As(err, &le) || le.Scope.CourseID != "CS301" {
		t.Fatalf("error %v does not carry the scope", err)
	}
}

func TestComputeCourseRejectsWholeRunOnBadInput(t *testing.T) {
	in := courseFixture()
	// One untagged component and one out-of-range mark: both must surface
	// and the run must yield nothing.
	in.Assessments[0].Components[0].OutcomeID = ""
	in.Assessments[1].Marks["s1"][1] = 25
	res, err := ComputeCourse(in, DefaultGovernance())
	if res != nil {
		t.Fatalf("invalid input must produce no result, got %+v", res)
	}
	var verrs *ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("error = %v, want ValidationErrors", err)
	}
	if !errors.Is(err, ErrIncompleteMapping) || !errors.Is(err, ErrInvalidMark) {
		t.Fatalf("collected errors %v must include both failure kinds", err)
	}
}

func TestComputeCourseIdempotent(t *testing.T) {
	cfg := DefaultGovernance()
	a, err := ComputeCourse(courseFixture(), cfg)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := ComputeCourse(courseFixture(), cfg)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("repeated runs differ:\n%+v\n%+v", a, b)
	}
}

func TestComputeCourseValuesStayInRange(t *testing.T) {
	res, err := ComputeCourse(courseFixture(), DefaultGovernance())
	if err != nil {
		t.Fatalf("ComputeCourse: %v", err)
	}
	for _, row := range res.PerAssessment {
		if math.IsNaN(row.Percent) || row.Percent < 0 || row.Percent > 100 {
			t.Fatalf("percent out of range: %+v", row)
		}
	}
	for _, f := range res.Final {
		if math.IsNaN(f.Final) || f.Final < 0 || f.Final > 3 {
			t.Fatalf("final out of range: %+v", f)
		}
	}
	for _, po := range res.POs {
		if math.IsNaN(po.Value) || po.Value < 0 || po.Value > 3 {
			t.Fatalf("PO value out of range: %+v", po)
		}
	}
}

func TestComputeProgramLockedScope(t *testing.T) {
	in := ProgramInput{Scope: Scope{ProgramID: "PRG", Semester: "2025-odd"}, Locked: true}
	if _, err := ComputeProgram(in, DefaultGovernance()); !errors.Is(err, ErrLocked) {
		t.Fatalf("error = %v, want ErrLocked", err)
	}
}
