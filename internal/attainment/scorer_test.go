package attainment

import (
	"errors"
	"math"
	"testing"
)

func approx(t *testing.T, got, want, tol float64, label string) {
	t.Helper()
	if math.IsNaN(got) {
		t.Fatalf("%s: got NaN, want %v", label, want)
	}
	if math.Abs(got-want) > tol {
		t.Fatalf("%s: got %v, want %v", label, got, want)
	}
}

func co1co2() map[string]CourseOutcome {
	return map[string]CourseOutcome{
		"CO1": {ID: "CO1", TargetProficiency: 60},
		"CO2": {ID: "CO2", TargetProficiency: 60},
	}
}

func TestScoreAssessmentProficiencyFraction(t *testing.T) {
	// Components mapped to CO1 sum to 20 max marks; student CO1 totals are
	// {15, 10, 5} so percentages are {75, 50, 25} and 1 of 3 meets 60%.
	a := AssessmentInput{
		ID:       "IA1",
		Category: CategoryIA1,
		Components: []AssessmentComponent{
			{Number: 1, OutcomeID: "CO1", MaxMarks: 10},
			{Number: 2, OutcomeID: "CO1", MaxMarks: 10},
		},
		Marks: map[string]map[int]float64{
			"s1": {1: 8, 2: 7},
			"s2": {1: 5, 2: 5},
			"s3": {1: 3, 2: 2},
		},
	}
	got := scoreAssessment(a, co1co2(), []string{"s1", "s2", "s3"})
	approx(t, got["CO1"], 33.33, 0.001, "CO1 attainment")
}

func TestScoreAssessmentZeroMaxMarksExcluded(t *testing.T) {
	a := AssessmentInput{
		ID:       "IA1",
		Category: CategoryIA1,
		Components: []AssessmentComponent{
			{Number: 1, OutcomeID: "CO1", MaxMarks: 0},
			{Number: 2, OutcomeID: "CO2", MaxMarks: 10},
		},
		Marks: map[string]map[int]float64{"s1": {2: 10}},
	}
	got := scoreAssessment(a, co1co2(), []string{"s1"})
	if _, ok := got["CO1"]; ok {
		t.Fatalf("CO1 with zero max marks should be excluded, got %v", got["CO1"])
	}
	approx(t, got["CO2"], 100, 0.001, "CO2 attainment")
}

func TestScoreAssessmentMissingMarksCountAsZero(t *testing.T) {
	a := AssessmentInput{
		ID:         "IA1",
		Category:   CategoryIA1,
		Components: []AssessmentComponent{{Number: 1, OutcomeID: "CO1", MaxMarks: 10}},
		Marks:      map[string]map[int]float64{"s1": {1: 10}},
	}
	// s2 and s3 have no recorded marks: counted at 0%, not excluded.
	got := scoreAssessment(a, co1co2(), []string{"s1", "s2", "s3"})
	approx(t, got["CO1"], 33.33, 0.001, "CO1 attainment with absentees")
}

func TestScoreAssessmentBounds(t *testing.T) {
	a := AssessmentInput{
		ID:         "IA1",
		Category:   CategoryIA1,
		Components: []AssessmentComponent{{Number: 1, OutcomeID: "CO1", MaxMarks: 10}},
		Marks:      map[string]map[int]float64{},
	}
	got := scoreAssessment(a, co1co2(), []string{"s1", "s2"})
	if v := got["CO1"]; v < 0 || v > 100 || math.IsNaN(v) {
		t.Fatalf("percentage out of bounds: %v", v)
	}
}

func TestValidateAssessmentCollectsAllErrors(t *testing.T) {
	scope := Scope{CourseID: "C1", Semester: "2025-ODD"}
	a := AssessmentInput{
		ID:       "IA1",
		Category: CategoryIA1,
		Components: []AssessmentComponent{
			{Number: 1, OutcomeID: "", MaxMarks: 10},    // untagged
			{Number: 2, OutcomeID: "CO9", MaxMarks: 10}, // unknown CO
			{Number: 3, OutcomeID: "CO1", MaxMarks: 10},
		},
		Marks: map[string]map[int]float64{
			"s1": {3: 12}, // exceeds max
			"s2": {3: -1}, // negative
		},
	}
	errs := validateAssessment(scope, a, co1co2())
	if len(errs) != 4 {
		t.Fatalf("expected 4 validation errors, got %d: %v", len(errs), errs)
	}
	var mapping, mark int
	for _, err := range errs {
		if errors.Is(err, ErrIncompleteMapping) {
			mapping++
		}
		if errors.Is(err, ErrInvalidMark) {
			mark++
		}
	}
	if mapping != 2 || mark != 2 {
		t.Fatalf("expected 2 mapping + 2 mark errors, got %d + %d", mapping, mark)
	}
}

func TestInvalidMarkErrorCarriesRowIdentity(t *testing.T) {
	scope := Scope{CourseID: "C1", Semester: "2025-ODD"}
	a := AssessmentInput{
		ID:         "IA2",
		Category:   CategoryIA2,
		Components: []AssessmentComponent{{Number: 1, OutcomeID: "CO1", MaxMarks: 5}},
		Marks:      map[string]map[int]float64{"s7": {1: 9}},
	}
	errs := validateAssessment(scope, a, co1co2())
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	var ime *InvalidMarkError
	if !errors.As(errs[0], &ime) {
		t.Fatalf("expected *InvalidMarkError, got %T", errs[0])
	}
	if ime.StudentID != "s7" || ime.AssessmentID != "IA2" || ime.Component != 1 {
		t.Fatalf("row identity wrong: %+v", ime)
	}
}
