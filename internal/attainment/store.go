package attainment

import (
	"context"
	"errors"
	"sync"
)

var ErrNotFound = errors.New("not found")

// StoredCourseResult is one persisted run. Results are write-once per
// (scope, version): a re-run appends the next version, it never mutates a
// prior row. The reporting layer reads the latest version.
type StoredCourseResult struct {
	RunID      string       `json:"run_id"`
	Version    int          `json:"version"`
	ComputedAt int64        `json:"computed_at"`
	Result     CourseResult `json:"result"`
}

type StoredProgramResult struct {
	RunID      string        `json:"run_id"`
	Version    int           `json:"version"`
	ComputedAt int64         `json:"computed_at"`
	Result     ProgramResult `json:"result"`
}

// Store loads validated input snapshots and persists versioned results.
type Store interface {
	CourseInput(ctx context.Context, courseID, semester string) (CourseInput, error)
	// ProgramInput assembles the latest reported course-PO values for every
	// course of the program in the given semester.
	ProgramInput(ctx context.Context, programID, semester string) (ProgramInput, error)

	SaveCourseResult(ctx context.Context, rec StoredCourseResult) error
	SaveProgramResult(ctx context.Context, rec StoredProgramResult) error

	LatestCourseResult(ctx context.Context, courseID, semester string) (StoredCourseResult, error)
	LatestProgramResult(ctx context.Context, programID, semester string) (StoredProgramResult, error)

	// NextCourseVersion / NextProgramVersion return the version number the
	// next run for the scope should be stored under (1 for the first run).
	NextCourseVersion(ctx context.Context, courseID, semester string) (int, error)
	NextProgramVersion(ctx context.Context, programID, semester string) (int, error)
}

// MemoryStore keeps snapshots and results in process, for tests and offline
// runs. Inputs are registered up front; results append per scope.
type MemoryStore struct {
	mu             sync.RWMutex
	courseInputs   map[string]CourseInput // key: courseID|semester
	programCourses map[string][]string    // key: programID|semester -> courseIDs
	lockedSems     map[string]bool
	courseRuns     map[string][]StoredCourseResult
	programRuns    map[string][]StoredProgramResult
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		courseInputs:   map[string]CourseInput{},
		programCourses: map[string][]string{},
		lockedSems:     map[string]bool{},
		courseRuns:     map[string][]StoredCourseResult{},
		programRuns:    map[string][]StoredProgramResult{},
	}
}

func key2(a, b string) string { return a + "|" + b }

// PutCourseInput registers (or replaces) the input snapshot for a course
// scope and attaches the course to its program for program aggregation.
func (m *MemoryStore) PutCourseInput(in CourseInput, programID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key2(in.Scope.CourseID, in.Scope.Semester)
	m.courseInputs[k] = in
	if programID != "" {
		pk := key2(programID, in.Scope.Semester)
		for _, id := range m.programCourses[pk] {
			if id == in.Scope.CourseID {
				return
			}
		}
		m.programCourses[pk] = append(m.programCourses[pk], in.Scope.CourseID)
	}
}

// LockSemester flags every scope in the semester as refused-for-computation.
func (m *MemoryStore) LockSemester(sem string, locked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockedSems[sem] = locked
}

func (m *MemoryStore) CourseInput(_ context.Context, courseID, semester string) (CourseInput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	in, ok := m.courseInputs[key2(courseID, semester)]
	if !ok {
		return CourseInput{}, ErrNotFound
	}
	in.Locked = in.Locked || m.lockedSems[semester]
	return in, nil
}

func (m *MemoryStore) ProgramInput(_ context.Context, programID, semester string) (ProgramInput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	in := ProgramInput{
		Scope:  Scope{ProgramID: programID, Semester: semester},
		Locked: m.lockedSems[semester],
	}
	for _, courseID := range m.programCourses[key2(programID, semester)] {
		runs := m.courseRuns[key2(courseID, semester)]
		if len(runs) == 0 {
			continue
		}
		latest := runs[len(runs)-1]
		set := CoursePOSet{CourseID: courseID, POValues: map[string]float64{}}
		for _, po := range latest.Result.POs {
			set.POValues[po.POCode] = po.Value
		}
		in.Courses = append(in.Courses, set)
	}
	return in, nil
}

func (m *MemoryStore) SaveCourseResult(_ context.Context, rec StoredCourseResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key2(rec.Result.Scope.CourseID, rec.Result.Scope.Semester)
	m.courseRuns[k] = append(m.courseRuns[k], rec)
	return nil
}

func (m *MemoryStore) SaveProgramResult(_ context.Context, rec StoredProgramResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key2(rec.Result.Scope.ProgramID, rec.Result.Scope.Semester)
	m.programRuns[k] = append(m.programRuns[k], rec)
	return nil
}

func (m *MemoryStore) LatestCourseResult(_ context.Context, courseID, semester string) (StoredCourseResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := m.courseRuns[key2(courseID, semester)]
	if len(runs) == 0 {
		return StoredCourseResult{}, ErrNotFound
	}
	return runs[len(runs)-1], nil
}

func (m *MemoryStore) LatestProgramResult(_ context.Context, programID, semester string) (StoredProgramResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	runs := m.programRuns[key2(programID, semester)]
	if len(runs) == 0 {
		return StoredProgramResult{}, ErrNotFound
	}
	return runs[len(runs)-1], nil
}

func (m *MemoryStore) NextCourseVersion(_ context.Context, courseID, semester string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.courseRuns[key2(courseID, semester)]) + 1, nil
}

func (m *MemoryStore) NextProgramVersion(_ context.Context, programID, semester string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.programRuns[key2(programID, semester)]) + 1, nil
}

// VersionCount reports how many runs are stored for a course scope. Prior
// versions are never dropped.
func (m *MemoryStore) VersionCount(courseID, semester string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.courseRuns[key2(courseID, semester)])
}
