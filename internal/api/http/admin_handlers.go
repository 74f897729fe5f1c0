package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Glynis1314/CO-PO-Mapping-App/internal/attainment"
)

// GET /governance — the snapshot the next computation run would capture.
func GetGovernanceHandler(store *attainment.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := store.Snapshot(r.Context())
		if err != nil {
			http.Error(w, "governance: "+err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(cfg)
	}
}

type governanceReq struct {
	Version        string  `json:"version" validate:"required"`
	IA1Weight      float64 `json:"ia1_weight" validate:"gte=0"`
	IA2Weight      float64 `json:"ia2_weight" validate:"gte=0"`
	EndWeight      float64 `json:"end_weight" validate:"gte=0"`
	DirectWeight   float64 `json:"direct_weight" validate:"gte=0,lte=1"`
	IndirectWeight float64 `json:"indirect_weight" validate:"gte=0,lte=1"`
	Bands          []struct {
		Level      int     `json:"level" validate:"gte=0,lte=3"`
		MinPercent float64 `json:"min_percent" validate:"gte=0,lte=100"`
	} `json:"bands" validate:"required,min=1,dive"`
	POTarget float64 `json:"po_target" validate:"gte=0,lte=3"`
}

// PUT /governance — appends a new config version; running computations keep
// the snapshot they captured at start.
func PutGovernanceHandler(store *attainment.SQLStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req governanceReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		cfg := attainment.GovernanceSnapshot{
			Version:        req.Version,
			IA1Weight:      req.IA1Weight,
			IA2Weight:      req.IA2Weight,
			EndWeight:      req.EndWeight,
			DirectWeight:   req.DirectWeight,
			IndirectWeight: req.IndirectWeight,
			POTarget:       req.POTarget,
		}
		for _, b := range req.Bands {
			cfg.Bands = append(cfg.Bands, attainment.LevelBand{
				Level: attainment.Level(b.Level), MinPercent: b.MinPercent,
			})
		}
		if err := store.PutGovernance(r.Context(), cfg); err != nil {
			http.Error(w, "put governance: "+err.Error(), http.StatusInternalServerError)
			return
		}
		// weight-sum oddities are accepted but worth flagging to the caller
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"version":  cfg.Version,
			"warnings": cfg.Warnings(),
		})
	}
}

// PUT /semesters/{semester}/lock
func LockSemesterHandler(store *attainment.SQLStore) http.HandlerFunc {
	return setLockHandler(store, true)
}

// DELETE /semesters/{semester}/lock
func UnlockSemesterHandler(store *attainment.SQLStore) http.HandlerFunc {
	return setLockHandler(store, false)
}

func setLockHandler(store *attainment.SQLStore, locked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		semester := chi.URLParam(r, "semester")
		if semester == "" {
			http.Error(w, "semester required", http.StatusBadRequest)
			return
		}
		if err := store.SetSemesterLock(r.Context(), semester, locked); err != nil {
			http.Error(w, "semester lock: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
