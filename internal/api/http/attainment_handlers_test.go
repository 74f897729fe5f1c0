package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	api "github.com/Glynis1314/CO-PO-Mapping-App/internal/api/http"
	"github.com/Glynis1314/CO-PO-Mapping-App/internal/attainment"
	"github.com/Glynis1314/CO-PO-Mapping-App/internal/audit"
)

func computeRouter(store *attainment.MemoryStore) http.Handler {
	engine := attainment.NewEngine(store, attainment.StaticGovernance(attainment.DefaultGovernance()), audit.NewMemoryEmitter())
	r := chi.NewRouter()
	r.Post("/courses/{courseID}/attainment/compute", api.ComputeCourseHandler(engine))
	r.Get("/courses/{courseID}/attainment", api.GetCourseAttainmentHandler(store))
	return r
}

func seededStore() *attainment.MemoryStore {
	store := attainment.NewMemoryStore()
	store.PutCourseInput(attainment.CourseInput{
		Scope:    attainment.Scope{CourseID: "CS301", Semester: "2025-odd"},
		Outcomes: []attainment.CourseOutcome{{ID: "CO1", TargetProficiency: 60}},
		Students: []string{"s1", "s2"},
		Assessments: []attainment.AssessmentInput{{
			ID:         "ia1",
			Category:   attainment.CategoryIA1,
			Components: []attainment.AssessmentComponent{{Number: 1, OutcomeID: "CO1", MaxMarks: 10}},
			Marks:      map[string]map[int]float64{"s1": {1: 8}, "s2": {1: 4}},
		}},
		Mappings: []attainment.POMapping{{OutcomeID: "CO1", POCode: "PO1", Level: 3}},
	}, "PRG")
	return store
}

func TestComputeCourseHandler(t *testing.T) {
	srv := httptest.NewServer(computeRouter(seededStore()))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/courses/CS301/attainment/compute?semester=2025-odd", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var rec attainment.StoredCourseResult
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Version != 1 || len(rec.Result.Final) != 1 {
		t.Fatalf("record = %+v", rec)
	}
}

func TestComputeCourseHandlerRequiresSemester(t *testing.T) {
	srv := httptest.NewServer(computeRouter(seededStore()))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/courses/CS301/attainment/compute", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestComputeCourseHandlerLockedConflict(t *testing.T) {
	store := seededStore()
	store.LockSemester("2025-odd", true)
	srv := httptest.NewServer(computeRouter(store))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/courses/CS301/attainment/compute?semester=2025-odd", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}

func TestGetCourseAttainmentBeforeCompute(t *testing.T) {
	srv := httptest.NewServer(computeRouter(seededStore()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/courses/CS301/attainment?semester=2025-odd")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
