package api

import (
	"github.com/gorilla/mux"
	"github.com/hireloop/hireloop/internal/pipeline"
	"github.com/hireloop/hireloop/internal/store"
)

// Deps bundles everything the route layer marshals requests into.
type Deps struct {
	Jobs       store.JobStore
	Candidates store.CandidateStore
	Pipeline   *pipeline.Service
	Extractor  KeywordExtractor
	Sourcer    Sourcer
	JWTSecret  string
}

func SetupRoutes(deps Deps, version, buildTime string) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Create handlers
	systemHandler := &SystemHandler{}
	jobsHandler := NewJobsHandler(deps.Jobs, deps.Extractor, deps.Sourcer)
	candidatesHandler := NewCandidatesHandler(deps.Candidates, deps.Pipeline)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")

	// API v1 routes, protected when a JWT secret is configured
	apiV1 := r.PathPrefix("/v1").Subrouter()
	if deps.JWTSecret != "" {
		apiV1.Use(JWTAuthMiddlewareWithSecret(deps.JWTSecret))
	}

	// Job endpoints
	apiV1.HandleFunc("/jobs", jobsHandler.CreateJob).Methods("POST")
	apiV1.HandleFunc("/jobs", jobsHandler.ListJobs).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}", jobsHandler.GetJob).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}/filters", jobsHandler.SaveFilters).Methods("PUT")
	apiV1.HandleFunc("/jobs/{id}/source", jobsHandler.SourceCandidates).Methods("POST")
	apiV1.HandleFunc("/jobs/{id}/rescore", jobsHandler.RescorePool).Methods("POST")
	apiV1.HandleFunc("/jobs/{id}/candidates", candidatesHandler.ListByJob).Methods("GET")
	apiV1.HandleFunc("/jobs/{id}/candidates/stages", candidatesHandler.BatchUpdateStages).Methods("POST")

	// Candidate endpoints
	apiV1.HandleFunc("/candidates/{id}/score", candidatesHandler.GetScore).Methods("GET")
	apiV1.HandleFunc("/candidates/{id}/stage", candidatesHandler.UpdateStage).Methods("PUT")
	apiV1.HandleFunc("/candidates/{id}/messages", candidatesHandler.AddMessage).Methods("POST")
	apiV1.HandleFunc("/candidates/{id}/ai-analysis", candidatesHandler.UpdateAIAnalysis).Methods("PUT")
	apiV1.HandleFunc("/candidates/{id}/workflow", candidatesHandler.GetWorkflow).Methods("GET")
	apiV1.HandleFunc("/candidates/{id}/workflow/draft", candidatesHandler.SaveDraft).Methods("PUT")
	apiV1.HandleFunc("/candidates/{id}/workflow/steps", candidatesHandler.CompleteStep).Methods("POST")
	apiV1.HandleFunc("/candidates/{id}/workflow/schedule", candidatesHandler.Schedule).Methods("PUT")

	return r
}
