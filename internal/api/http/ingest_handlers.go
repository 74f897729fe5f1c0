// Package http is the thin collaborator surface around the attainment
// engine: validated-record ingestion, computation triggers and result reads.
// Request bodies are already-structured records; file parsing happens
// upstream of this API.
package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Glynis1314/CO-PO-Mapping-App/internal/attainment"
)

var validate = validator.New()

func decodeValid(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

func semesterParam(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("semester"))
}

type courseReq struct {
	ID        string `json:"id" validate:"required"`
	Semester  string `json:"semester" validate:"required"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	ProgramID string `json:"program_id"`
}

// PUT /courses/{courseID}
func UpsertCourseHandler(store *attainment.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req courseReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		if id := chi.URLParam(r, "courseID"); id != "" && id != req.ID {
			http.Error(w, "course id mismatch", http.StatusBadRequest)
			return
		}
		err := store.UpsertCourse(r.Context(), attainment.CourseRecord{
			ID: req.ID, Semester: req.Semester, Code: req.Code, Name: req.Name, ProgramID: req.ProgramID,
		})
		if err != nil {
			http.Error(w, "upsert course: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type outcomesReq struct {
	Semester string `json:"semester" validate:"required"`
	Outcomes []struct {
		ID                string  `json:"id" validate:"required"`
		BloomLevel        string  `json:"bloom_level"`
		Description       string  `json:"description"`
		TargetProficiency float64 `json:"target_proficiency" validate:"gte=0,lte=100"`
	} `json:"outcomes" validate:"required,min=1,dive"`
}

// PUT /courses/{courseID}/outcomes
func PutOutcomesHandler(store *attainment.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		var req outcomesReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		cos := make([]attainment.CourseOutcome, 0, len(req.Outcomes))
		for _, o := range req.Outcomes {
			cos = append(cos, attainment.CourseOutcome{
				ID: o.ID, BloomLevel: o.BloomLevel, Description: o.Description,
				TargetProficiency: o.TargetProficiency,
			})
		}
		if err := store.PutOutcomes(r.Context(), courseID, req.Semester, cos); err != nil {
			http.Error(w, "put outcomes: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type rosterReq struct {
	Semester string   `json:"semester" validate:"required"`
	Students []string `json:"students" validate:"required,min=1,dive,required"`
}

// PUT /courses/{courseID}/roster
func PutRosterHandler(store *attainment.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		var req rosterReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := store.PutRoster(r.Context(), courseID, req.Semester, req.Students); err != nil {
			http.Error(w, "put roster: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type assessmentReq struct {
	Semester   string `json:"semester" validate:"required"`
	ID         string `json:"id" validate:"required"`
	Category   string `json:"category" validate:"required,oneof=IA1 IA2 END"`
	Components []struct {
		Number    int     `json:"number" validate:"gte=1"`
		OutcomeID string  `json:"outcome_id" validate:"required"`
		MaxMarks  float64 `json:"max_marks" validate:"gte=0"`
	} `json:"components" validate:"required,min=1,dive"`
	Marks map[string]map[int]float64 `json:"marks"`
}

// PUT /courses/{courseID}/assessments/{assessmentID}
// Replaces the assessment's components and marks atomically. The engine
// re-validates mark ranges and CO tags before any computation.
func PutAssessmentHandler(store *attainment.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		var req assessmentReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		if id := chi.URLParam(r, "assessmentID"); id != "" && id != req.ID {
			http.Error(w, "assessment id mismatch", http.StatusBadRequest)
			return
		}
		a := attainment.AssessmentInput{
			ID:       req.ID,
			Category: attainment.Category(req.Category),
			Marks:    req.Marks,
		}
		for _, c := range req.Components {
			a.Components = append(a.Components, attainment.AssessmentComponent{
				Number: c.Number, OutcomeID: c.OutcomeID, MaxMarks: c.MaxMarks,
			})
		}
		if err := store.PutAssessment(r.Context(), courseID, req.Semester, a); err != nil {
			http.Error(w, "put assessment: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type surveysReq struct {
	Semester string `json:"semester" validate:"required"`
	Surveys  []struct {
		OutcomeID     string `json:"outcome_id" validate:"required"`
		StronglyAgree int    `json:"strongly_agree" validate:"gte=0"`
		Agree         int    `json:"agree" validate:"gte=0"`
		Neutral       int    `json:"neutral" validate:"gte=0"`
		Disagree      int    `json:"disagree" validate:"gte=0"`
		Respondents   int    `json:"respondents" validate:"gte=0"`
	} `json:"surveys" validate:"required,min=1,dive"`
}

// PUT /courses/{courseID}/surveys
// Survey summaries are read-only once produced; re-upload replaces whole rows.
func PutSurveysHandler(store *attainment.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		var req surveysReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		svs := make([]attainment.SurveySummary, 0, len(req.Surveys))
		for _, s := range req.Surveys {
			svs = append(svs, attainment.SurveySummary{
				OutcomeID: s.OutcomeID, StronglyAgree: s.StronglyAgree, Agree: s.Agree,
				Neutral: s.Neutral, Disagree: s.Disagree, Respondents: s.Respondents,
			})
		}
		if err := store.PutSurveys(r.Context(), courseID, req.Semester, svs); err != nil {
			http.Error(w, "put surveys: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type mappingsReq struct {
	Semester string `json:"semester" validate:"required"`
	Mappings []struct {
		OutcomeID string `json:"outcome_id" validate:"required"`
		POCode    string `json:"po_code" validate:"required"`
		Level     int    `json:"level" validate:"gte=1,lte=3"`
	} `json:"mappings" validate:"required,min=1,dive"`
}

// PUT /courses/{courseID}/po-mappings
func PutMappingsHandler(store *attainment.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		var req mappingsReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		ms := make([]attainment.POMapping, 0, len(req.Mappings))
		for _, m := range req.Mappings {
			ms = append(ms, attainment.POMapping{OutcomeID: m.OutcomeID, POCode: m.POCode, Level: m.Level})
		}
		if err := store.PutMappings(r.Context(), courseID, req.Semester, ms); err != nil {
			http.Error(w, "put mappings: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
