package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Glynis1314/CO-PO-Mapping-App/internal/attainment"
)

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, attainment.ErrLocked):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, attainment.ErrIncompleteMapping), errors.Is(err, attainment.ErrInvalidMark):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, attainment.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// POST /courses/{courseID}/attainment/compute?semester=
func ComputeCourseHandler(engine *attainment.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		semester := semesterParam(r)
		if semester == "" {
			http.Error(w, "semester required", http.StatusBadRequest)
			return
		}
		rec, err := engine.RunCourse(r.Context(), courseID, semester)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(rec)
	}
}

// GET /courses/{courseID}/attainment?semester=
func GetCourseAttainmentHandler(store attainment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID := chi.URLParam(r, "courseID")
		semester := semesterParam(r)
		if semester == "" {
			http.Error(w, "semester required", http.StatusBadRequest)
			return
		}
		rec, err := store.LatestCourseResult(r.Context(), courseID, semester)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(rec)
	}
}

// POST /programs/{programID}/attainment/compute?semester=
func ComputeProgramHandler(engine *attainment.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		programID := chi.URLParam(r, "programID")
		semester := semesterParam(r)
		if semester == "" {
			http.Error(w, "semester required", http.StatusBadRequest)
			return
		}
		rec, err := engine.RunProgram(r.Context(), programID, semester)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(rec)
	}
}

// GET /programs/{programID}/attainment?semester=
func GetProgramAttainmentHandler(store attainment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		programID := chi.URLParam(r, "programID")
		semester := semesterParam(r)
		if semester == "" {
			http.Error(w, "semester required", http.StatusBadRequest)
			return
		}
		rec, err := store.LatestProgramResult(r.Context(), programID, semester)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		_ = json.NewEncoder(w).Encode(rec)
	}
}
