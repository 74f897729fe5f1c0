package attainment

import "testing"

func TestProjectCoursePOsLevelWeighted(t *testing.T) {
	finals := map[string]float64{"CO1": 3, "CO2": 1.5}
	mappings := []POMapping{
		{OutcomeID: "CO1", POCode: "PO1", Level: 3},
		{OutcomeID: "CO2", POCode: "PO1", Level: 1},
		{OutcomeID: "CO1", POCode: "PO2", Level: 2},
	}
	got := projectCoursePOs(finals, mappings)
	if len(got) != 2 {
		t.Fatalf("expected 2 POs, got %d: %v", len(got), got)
	}
	// PO1 = (3*3 + 1.5*1) / 4 = 2.625; PO2 = CO1 alone
	approx(t, got[0].Value, 2.625, 1e-9, "PO1")
	approx(t, got[1].Value, 3, 1e-9, "PO2")
}

func TestProjectCoursePOsOmitsZeroTotalLevel(t *testing.T) {
	finals := map[string]float64{"CO1": 2}
	mappings := []POMapping{
		{OutcomeID: "CO1", POCode: "PO1", Level: 2},
		{OutcomeID: "CO9", POCode: "PO3", Level: 3}, // CO with no final value
		{OutcomeID: "CO1", POCode: "PO4", Level: 0}, // no contribution
	}
	got := projectCoursePOs(finals, mappings)
	if len(got) != 1 || got[0].POCode != "PO1" {
		t.Fatalf("PO3/PO4 must be absent from output, not zero: %v", got)
	}
}

func TestAggregateProgramPOsMeanOverReportingCourses(t *testing.T) {
	courses := []CoursePOSet{
		{CourseID: "A", POValues: map[string]float64{"PO1": 2.0, "PO2": 1.0}},
		{CourseID: "B", POValues: map[string]float64{"PO1": 1.0}},
	}
	got := aggregateProgramPOs(courses)
	if len(got) != 2 {
		t.Fatalf("expected 2 POs, got %d", len(got))
	}
	// Course B does not report PO2: it is excluded from numerator and
	// denominator, not zero-filled.
	approx(t, got[0].Value, 1.5, 1e-9, "PO1 mean")
	if got[0].Courses != 2 {
		t.Fatalf("PO1 contributing courses = %d, want 2", got[0].Courses)
	}
	approx(t, got[1].Value, 1.0, 1e-9, "PO2 mean")
	if got[1].Courses != 1 {
		t.Fatalf("PO2 contributing courses = %d, want 1", got[1].Courses)
	}
}

func TestAggregateProgramPOsEmpty(t *testing.T) {
	if got := aggregateProgramPOs(nil); len(got) != 0 {
		t.Fatalf("expected empty output, got %v", got)
	}
}
