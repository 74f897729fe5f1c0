package attainment

// Category of a summative assessment within a course.
type Category string

const (
	CategoryIA1 Category = "IA1"
	CategoryIA2 Category = "IA2"
	CategoryEnd Category = "END"
)

// Categories in report order.
var Categories = []Category{CategoryIA1, CategoryIA2, CategoryEnd}

// Scope identifies one unit of computation. Either CourseID or ProgramID is
// set, never both.
type Scope struct {
	CourseID  string `json:"course_id,omitempty"`
	ProgramID string `json:"program_id,omitempty"`
	Semester  string `json:"semester"`
}

func (s Scope) Key() string {
	if s.CourseID != "" {
		return "course|" + s.CourseID + "|" + s.Semester
	}
	return "program|" + s.ProgramID + "|" + s.Semester
}

type CourseOutcome struct {
	ID          string `json:"id"` // e.g. "CO1", unique within course
	BloomLevel  string `json:"bloom_level,omitempty"`
	Description string `json:"description,omitempty"`
	// Per-student percentage a student must score on the components mapped
	// to this CO to count as proficient.
	TargetProficiency float64 `json:"target_proficiency"`
}

type AssessmentComponent struct {
	Number    int     `json:"number"` // unique per assessment
	OutcomeID string  `json:"outcome_id"`
	MaxMarks  float64 `json:"max_marks"`
}

type AssessmentInput struct {
	ID         string                `json:"id"`
	Category   Category              `json:"category"`
	Components []AssessmentComponent `json:"components"`
	// Marks[studentID][componentNumber] = marks obtained. Missing entries
	// are treated as zero.
	Marks map[string]map[int]float64 `json:"marks"`
}

type SurveySummary struct {
	OutcomeID     string `json:"outcome_id"`
	StronglyAgree int    `json:"strongly_agree"`
	Agree         int    `json:"agree"`
	Neutral       int    `json:"neutral"`
	Disagree      int    `json:"disagree"`
	Respondents   int    `json:"respondents"`
}

// POMapping is one cell of the articulation matrix: a CO contributes to a PO
// with correlation level 1 (low) to 3 (high). Absence means no contribution.
type POMapping struct {
	OutcomeID string `json:"outcome_id"`
	POCode    string `json:"po_code"` // e.g. "PO1"
	Level     int    `json:"level"`
}

// CourseInput is the validated snapshot the engine computes over. The
// upload/validation layer guarantees schema conformance before invocation;
// the engine still re-checks the hard preconditions (§ validation in
// pipeline.go) because partial results must never reach the store.
type CourseInput struct {
	Scope       Scope             `json:"scope"`
	Outcomes    []CourseOutcome   `json:"outcomes"`
	Students    []string          `json:"students"` // enrolled roster
	Assessments []AssessmentInput `json:"assessments"`
	Surveys     []SurveySummary   `json:"surveys"`
	Mappings    []POMapping       `json:"mappings"`
	Locked      bool              `json:"locked"`
}

// CoursePOSet is one course's contribution to a program-level aggregation.
type CoursePOSet struct {
	CourseID string             `json:"course_id"`
	POValues map[string]float64 `json:"po_values"`
}

type ProgramInput struct {
	Scope   Scope         `json:"scope"`
	Courses []CoursePOSet `json:"courses"`
	Locked  bool          `json:"locked"`
}

// --- outputs ---

// COAttainment is the per-assessment-category result for one CO: the
// percentage of students meeting the CO's target proficiency, and its level.
type COAttainment struct {
	OutcomeID string   `json:"outcome_id"`
	Category  Category `json:"category"`
	Percent   float64  `json:"percent"`
	Level     Level    `json:"level"`
}

// COFinalAttainment carries the direct, indirect and blended values for one
// CO. Direct and Final are on the 0-3 scale; Indirect is nil when the CO has
// no survey data and the final degrades to the direct value alone.
type COFinalAttainment struct {
	OutcomeID string   `json:"outcome_id"`
	DirectPct float64  `json:"direct_pct"` // 0-100
	Direct    float64  `json:"direct"`     // 0-3
	Indirect  *float64 `json:"indirect,omitempty"`
	Final     float64  `json:"final"`
	Level     Level    `json:"level"`
}

type CoursePOAttainment struct {
	POCode string  `json:"po_code"`
	Value  float64 `json:"value"` // 0-3
}

type ProgramPOAttainment struct {
	POCode  string  `json:"po_code"`
	Value   float64 `json:"value"`
	Courses int     `json:"courses"` // number of courses contributing
}

// CQIAction is a trigger request for the external improvement workflow,
// raised when a CO's final attainment falls below the configured target.
type CQIAction struct {
	Scope     Scope   `json:"scope"`
	OutcomeID string  `json:"outcome_id"`
	Final     float64 `json:"final"`
	Target    float64 `json:"target"`
}

// CourseResult is the full outcome of one course-scope run. It is a pure
// function of (CourseInput, GovernanceSnapshot): no timestamps or run IDs
// here, so identical inputs produce identical results.
type CourseResult struct {
	Scope         Scope                `json:"scope"`
	ConfigVersion string               `json:"config_version"`
	PerAssessment []COAttainment       `json:"per_assessment"`
	Final         []COFinalAttainment  `json:"final"`
	POs           []CoursePOAttainment `json:"pos"`
	CQI           []CQIAction          `json:"cqi,omitempty"`
	Warnings      []string             `json:"warnings,omitempty"`
}

type ProgramResult struct {
	Scope         Scope                 `json:"scope"`
	ConfigVersion string                `json:"config_version"`
	POs           []ProgramPOAttainment `json:"pos"`
	Warnings      []string              `json:"warnings,omitempty"`
}
