package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/Glynis1314/CO-PO-Mapping-App/internal/api/http"
	"github.com/Glynis1314/CO-PO-Mapping-App/internal/attainment"
	"github.com/Glynis1314/CO-PO-Mapping-App/internal/audit"
	auth "github.com/Glynis1314/CO-PO-Mapping-App/internal/auth/middleware"
	"github.com/Glynis1314/CO-PO-Mapping-App/internal/config"
	"github.com/Glynis1314/CO-PO-Mapping-App/internal/db"
	"github.com/Glynis1314/CO-PO-Mapping-App/internal/rbac"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := attainment.NewSQLStore(dbh, cfg.DBDriver)

	// Seed the first governance version from env when none is stored yet.
	if snap, err := store.Snapshot(ctx); err == nil && snap.Version == "default" {
		if err := store.PutGovernance(ctx, governanceSeed(cfg)); err != nil {
			log.Fatalf("seed governance: %v", err)
		}
	}

	emitter := audit.NewSQLEmitter(dbh)
	engine := attainment.NewEngine(store, store, emitter,
		attainment.WithNotifier(attainment.NewAuditNotifier(emitter)))

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh, auth.AdminBootstrap{
		Username: cfg.AdminUser,
		PassHash: cfg.AdminPassHash,
	}))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Course setup and validated-record ingestion
		pr.With(rbac.Require("course:upsert")).
			Put("/courses/{courseID}", api.UpsertCourseHandler(store))
		pr.With(rbac.Require("course:upsert")).
			Put("/courses/{courseID}/outcomes", api.PutOutcomesHandler(store))
		pr.With(rbac.Require("course:ingest")).
			Put("/courses/{courseID}/roster", api.PutRosterHandler(store))
		pr.With(rbac.Require("course:ingest")).
			Put("/courses/{courseID}/assessments/{assessmentID}", api.PutAssessmentHandler(store))
		pr.With(rbac.Require("course:ingest")).
			Put("/courses/{courseID}/surveys", api.PutSurveysHandler(store))
		pr.With(rbac.Require("course:upsert")).
			Put("/courses/{courseID}/po-mappings", api.PutMappingsHandler(store))

		// Computation + reports
		pr.With(rbac.Require("attainment:compute")).
			Post("/courses/{courseID}/attainment/compute", api.ComputeCourseHandler(engine))
		pr.With(rbac.Require("attainment:view")).
			Get("/courses/{courseID}/attainment", api.GetCourseAttainmentHandler(store))
		pr.With(rbac.Require("program:compute")).
			Post("/programs/{programID}/attainment/compute", api.ComputeProgramHandler(engine))
		pr.With(rbac.Require("program:view")).
			Get("/programs/{programID}/attainment", api.GetProgramAttainmentHandler(store))

		// Governance + semester locks (admin)
		pr.With(rbac.Require("governance:view")).
			Get("/governance", api.GetGovernanceHandler(store))
		pr.With(rbac.Require("governance:update")).
			Put("/governance", api.PutGovernanceHandler(store))
		pr.With(rbac.Require("semester:lock")).
			Put("/semesters/{semester}/lock", api.LockSemesterHandler(store))
		pr.With(rbac.Require("semester:lock")).
			Delete("/semesters/{semester}/lock", api.UnlockSemesterHandler(store))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

func governanceSeed(cfg config.Config) attainment.GovernanceSnapshot {
	return attainment.GovernanceSnapshot{
		Version:        "v1",
		IA1Weight:      cfg.IA1Weight,
		IA2Weight:      cfg.IA2Weight,
		EndWeight:      cfg.EndWeight,
		DirectWeight:   cfg.DirectWeight,
		IndirectWeight: cfg.IndirectWeight,
		Bands: []attainment.LevelBand{
			{Level: 3, MinPercent: cfg.Level3Min},
			{Level: 2, MinPercent: cfg.Level2Min},
			{Level: 1, MinPercent: cfg.Level1Min},
		},
		POTarget: cfg.POTarget,
	}
}
