package attainment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// CourseRecord is the registry row for a course offering.
type CourseRecord struct {
	ID        string `json:"id"`
	Semester  string `json:"semester"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	ProgramID string `json:"program_id"`
}

// SQLStore implements Store over sqlite or postgres, and additionally carries
// the validated-record upserts used by the ingestion layer, semester locks
// and versioned governance config. Placeholders use the $N form, which both
// drivers accept.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// --- record upserts (ingestion layer) ---

func (s *SQLStore) UpsertCourse(ctx context.Context, c CourseRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO courses (id, semester, code, name, program_id) VALUES ($1,$2,$3,$4,$5)
		 ON CONFLICT (id, semester) DO UPDATE SET code=EXCLUDED.code, name=EXCLUDED.name, program_id=EXCLUDED.program_id`,
		c.ID, c.Semester, c.Code, c.Name, c.ProgramID)
	return err
}

// PutOutcomes replaces the CO set of a course. Outcomes referenced by
// assessment components are immutable in practice; the ingestion layer only
// calls this before components exist.
func (s *SQLStore) PutOutcomes(ctx context.Context, courseID, semester string, outcomes []CourseOutcome) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM course_outcomes WHERE course_id=$1 AND semester=$2`, courseID, semester); err != nil {
			return err
		}
		for _, co := range outcomes {
			tp := co.TargetProficiency
			if tp == 0 {
				tp = 60 // default expected proficiency
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO course_outcomes (course_id, semester, id, bloom_level, description, target_proficiency)
				 VALUES ($1,$2,$3,$4,$5,$6)`,
				courseID, semester, co.ID, co.BloomLevel, co.Description, tp); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) PutRoster(ctx context.Context, courseID, semester string, students []string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM enrollments WHERE course_id=$1 AND semester=$2`, courseID, semester); err != nil {
			return err
		}
		for _, st := range students {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO enrollments (course_id, semester, student_id) VALUES ($1,$2,$3)`,
				courseID, semester, st); err != nil {
				return err
			}
		}
		return nil
	})
}

// PutAssessment replaces an assessment's components and marks in one
// transaction, so a computation run never observes half an upload.
func (s *SQLStore) PutAssessment(ctx context.Context, courseID, semester string, a AssessmentInput) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO assessments (id, course_id, semester, category) VALUES ($1,$2,$3,$4)
			 ON CONFLICT (id) DO UPDATE SET category=EXCLUDED.category`,
			a.ID, courseID, semester, string(a.Category)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM assessment_components WHERE assessment_id=$1`, a.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM student_marks WHERE assessment_id=$1`, a.ID); err != nil {
			return err
		}
		for _, c := range a.Components {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO assessment_components (assessment_id, number, outcome_id, max_marks)
				 VALUES ($1,$2,$3,$4)`, a.ID, c.Number, c.OutcomeID, c.MaxMarks); err != nil {
				return err
			}
		}
		for student, byComp := range a.Marks {
			for num, marks := range byComp {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO student_marks (assessment_id, component_number, student_id, marks)
					 VALUES ($1,$2,$3,$4)`, a.ID, num, student, marks); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (s *SQLStore) PutSurveys(ctx context.Context, courseID, semester string, surveys []SurveySummary) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, sv := range surveys {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO survey_summaries (course_id, semester, outcome_id, strongly_agree, agree, neutral, disagree, respondents)
				 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
				 ON CONFLICT (course_id, semester, outcome_id) DO UPDATE SET
				   strongly_agree=EXCLUDED.strongly_agree, agree=EXCLUDED.agree,
				   neutral=EXCLUDED.neutral, disagree=EXCLUDED.disagree, respondents=EXCLUDED.respondents`,
				courseID, semester, sv.OutcomeID, sv.StronglyAgree, sv.Agree, sv.Neutral, sv.Disagree, sv.Respondents); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLStore) PutMappings(ctx context.Context, courseID, semester string, mappings []POMapping) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM co_po_mappings WHERE course_id=$1 AND semester=$2`, courseID, semester); err != nil {
			return err
		}
		for _, m := range mappings {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO co_po_mappings (course_id, semester, outcome_id, po_code, level)
				 VALUES ($1,$2,$3,$4,$5)`, courseID, semester, m.OutcomeID, m.POCode, m.Level); err != nil {
				return err
			}
		}
		return nil
	})
}

// --- semester locks ---

func (s *SQLStore) SetSemesterLock(ctx context.Context, semester string, locked bool) error {
	flag := 0
	if locked {
		flag = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO semester_locks (semester, locked, locked_at) VALUES ($1,$2,$3)
		 ON CONFLICT (semester) DO UPDATE SET locked=EXCLUDED.locked, locked_at=EXCLUDED.locked_at`,
		semester, flag, time.Now().Unix())
	return err
}

func (s *SQLStore) SemesterLocked(ctx context.Context, semester string) (bool, error) {
	var flag int
	err := s.db.QueryRowContext(ctx,
		`SELECT locked FROM semester_locks WHERE semester=$1`, semester).Scan(&flag)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return flag != 0, nil
}

// --- governance config (versioned rows; latest is current) ---

func (s *SQLStore) PutGovernance(ctx context.Context, cfg GovernanceSnapshot) error {
	buf, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO governance_config (version, config_json, created_at) VALUES ($1,$2,$3)`,
		cfg.Version, string(buf), time.Now().Unix())
	return err
}

// Snapshot implements GovernanceSource: the latest config row, or the
// built-in defaults when none has been stored yet.
func (s *SQLStore) Snapshot(ctx context.Context) (GovernanceSnapshot, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT config_json FROM governance_config ORDER BY seq DESC LIMIT 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultGovernance(), nil
	}
	if err != nil {
		return GovernanceSnapshot{}, err
	}
	var cfg GovernanceSnapshot
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return GovernanceSnapshot{}, fmt.Errorf("governance config row: %w", err)
	}
	return cfg, nil
}

// --- Store: input snapshots ---

func (s *SQLStore) CourseInput(ctx context.Context, courseID, semester string) (CourseInput, error) {
	in := CourseInput{Scope: Scope{CourseID: courseID, Semester: semester}}

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM courses WHERE id=$1 AND semester=$2`, courseID, semester).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return CourseInput{}, ErrNotFound
	}
	if err != nil {
		return CourseInput{}, err
	}

	locked, err := s.SemesterLocked(ctx, semester)
	if err != nil {
		return CourseInput{}, err
	}
	in.Locked = locked

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, bloom_level, description, target_proficiency
		 FROM course_outcomes WHERE course_id=$1 AND semester=$2 ORDER BY id`, courseID, semester)
	if err != nil {
		return CourseInput{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var co CourseOutcome
		if err := rows.Scan(&co.ID, &co.BloomLevel, &co.Description, &co.TargetProficiency); err != nil {
			return CourseInput{}, err
		}
		in.Outcomes = append(in.Outcomes, co)
	}
	if err := rows.Err(); err != nil {
		return CourseInput{}, err
	}

	if in.Students, err = s.roster(ctx, courseID, semester); err != nil {
		return CourseInput{}, err
	}
	if in.Assessments, err = s.assessments(ctx, courseID, semester); err != nil {
		return CourseInput{}, err
	}
	if in.Surveys, err = s.surveys(ctx, courseID, semester); err != nil {
		return CourseInput{}, err
	}
	if in.Mappings, err = s.mappings(ctx, courseID, semester); err != nil {
		return CourseInput{}, err
	}
	return in, nil
}

func (s *SQLStore) roster(ctx context.Context, courseID, semester string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT student_id FROM enrollments WHERE course_id=$1 AND semester=$2 ORDER BY student_id`,
		courseID, semester)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLStore) assessments(ctx context.Context, courseID, semester string) ([]AssessmentInput, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category FROM assessments WHERE course_id=$1 AND semester=$2 ORDER BY id`,
		courseID, semester)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AssessmentInput
	for rows.Next() {
		var a AssessmentInput
		var cat string
		if err := rows.Scan(&a.ID, &cat); err != nil {
			return nil, err
		}
		a.Category = Category(cat)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.fillAssessment(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLStore) fillAssessment(ctx context.Context, a *AssessmentInput) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT number, outcome_id, max_marks FROM assessment_components
		 WHERE assessment_id=$1 ORDER BY number`, a.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var c AssessmentComponent
		if err := rows.Scan(&c.Number, &c.OutcomeID, &c.MaxMarks); err != nil {
			return err
		}
		a.Components = append(a.Components, c)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	mrows, err := s.db.QueryContext(ctx,
		`SELECT student_id, component_number, marks FROM student_marks WHERE assessment_id=$1`, a.ID)
	if err != nil {
		return err
	}
	defer mrows.Close()
	a.Marks = map[string]map[int]float64{}
	for mrows.Next() {
		var student string
		var num int
		var marks float64
		if err := mrows.Scan(&student, &num, &marks); err != nil {
			return err
		}
		if a.Marks[student] == nil {
			a.Marks[student] = map[int]float64{}
		}
		a.Marks[student][num] = marks
	}
	return mrows.Err()
}

func (s *SQLStore) surveys(ctx context.Context, courseID, semester string) ([]SurveySummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome_id, strongly_agree, agree, neutral, disagree, respondents
		 FROM survey_summaries WHERE course_id=$1 AND semester=$2 ORDER BY outcome_id`,
		courseID, semester)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SurveySummary
	for rows.Next() {
		var sv SurveySummary
		if err := rows.Scan(&sv.OutcomeID, &sv.StronglyAgree, &sv.Agree, &sv.Neutral, &sv.Disagree, &sv.Respondents); err != nil {
			return nil, err
		}
		out = append(out, sv)
	}
	return out, rows.Err()
}

func (s *SQLStore) mappings(ctx context.Context, courseID, semester string) ([]POMapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome_id, po_code, level FROM co_po_mappings
		 WHERE course_id=$1 AND semester=$2 ORDER BY outcome_id, po_code`, courseID, semester)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []POMapping
	for rows.Next() {
		var m POMapping
		if err := rows.Scan(&m.OutcomeID, &m.POCode, &m.Level); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) ProgramInput(ctx context.Context, programID, semester string) (ProgramInput, error) {
	in := ProgramInput{Scope: Scope{ProgramID: programID, Semester: semester}}

	locked, err := s.SemesterLocked(ctx, semester)
	if err != nil {
		return ProgramInput{}, err
	}
	in.Locked = locked

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM courses WHERE program_id=$1 AND semester=$2 ORDER BY id`, programID, semester)
	if err != nil {
		return ProgramInput{}, err
	}
	defer rows.Close()
	var courseIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return ProgramInput{}, err
		}
		courseIDs = append(courseIDs, id)
	}
	if err := rows.Err(); err != nil {
		return ProgramInput{}, err
	}

	for _, courseID := range courseIDs {
		rec, err := s.LatestCourseResult(ctx, courseID, semester)
		if errors.Is(err, ErrNotFound) {
			continue // course not yet computed; excluded, not zero-filled
		}
		if err != nil {
			return ProgramInput{}, err
		}
		set := CoursePOSet{CourseID: courseID, POValues: map[string]float64{}}
		for _, po := range rec.Result.POs {
			set.POValues[po.POCode] = po.Value
		}
		in.Courses = append(in.Courses, set)
	}
	return in, nil
}

// --- Store: versioned results ---

func (s *SQLStore) SaveCourseResult(ctx context.Context, rec StoredCourseResult) error {
	return s.saveRun(ctx, rec.RunID, rec.Result.Scope.Key(), rec.Version, rec.Result, rec.ComputedAt)
}

func (s *SQLStore) SaveProgramResult(ctx context.Context, rec StoredProgramResult) error {
	return s.saveRun(ctx, rec.RunID, rec.Result.Scope.Key(), rec.Version, rec.Result, rec.ComputedAt)
}

func (s *SQLStore) saveRun(ctx context.Context, runID, scopeKey string, version int, result interface{}, at int64) error {
	buf, err := json.Marshal(result)
	if err != nil {
		return err
	}
	// plain INSERT: (scope_key, version) is unique, a re-run gets a fresh
	// version and prior rows are never touched
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attainment_runs (run_id, scope_key, version, result_json, computed_at)
		 VALUES ($1,$2,$3,$4,$5)`, runID, scopeKey, version, string(buf), at)
	return err
}

func (s *SQLStore) LatestCourseResult(ctx context.Context, courseID, semester string) (StoredCourseResult, error) {
	scope := Scope{CourseID: courseID, Semester: semester}
	var rec StoredCourseResult
	raw, err := s.latestRun(ctx, scope.Key(), &rec.RunID, &rec.Version, &rec.ComputedAt)
	if err != nil {
		return StoredCourseResult{}, err
	}
	if err := json.Unmarshal([]byte(raw), &rec.Result); err != nil {
		return StoredCourseResult{}, err
	}
	return rec, nil
}

func (s *SQLStore) LatestProgramResult(ctx context.Context, programID, semester string) (StoredProgramResult, error) {
	scope := Scope{ProgramID: programID, Semester: semester}
	var rec StoredProgramResult
	raw, err := s.latestRun(ctx, scope.Key(), &rec.RunID, &rec.Version, &rec.ComputedAt)
	if err != nil {
		return StoredProgramResult{}, err
	}
	if err := json.Unmarshal([]byte(raw), &rec.Result); err != nil {
		return StoredProgramResult{}, err
	}
	return rec, nil
}

func (s *SQLStore) latestRun(ctx context.Context, scopeKey string, runID *string, version *int, at *int64) (string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, version, result_json, computed_at FROM attainment_runs
		 WHERE scope_key=$1 ORDER BY version DESC LIMIT 1`, scopeKey).
		Scan(runID, version, &raw, at)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return raw, err
}

func (s *SQLStore) NextCourseVersion(ctx context.Context, courseID, semester string) (int, error) {
	return s.nextVersion(ctx, Scope{CourseID: courseID, Semester: semester}.Key())
}

func (s *SQLStore) NextProgramVersion(ctx context.Context, programID, semester string) (int, error) {
	return s.nextVersion(ctx, Scope{ProgramID: programID, Semester: semester}.Key())
}

func (s *SQLStore) nextVersion(ctx context.Context, scopeKey string) (int, error) {
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM attainment_runs WHERE scope_key=$1`, scopeKey).Scan(&max)
	if err != nil {
		return 0, err
	}
	return int(max.Int64) + 1, nil
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
