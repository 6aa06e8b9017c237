package routes

import (
	"net/http"

	"github.com/zatekoja/medlab/internal/api/handlers"
	"github.com/zatekoja/medlab/internal/api/middleware"
	"github.com/zatekoja/medlab/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	healthHandler   *handlers.HealthHandler
	hospitalHandler *handlers.HospitalHandler
	testHandler     *handlers.TestHandler
	resultHandler   *handlers.ResultHandler
	reportHandler   *handlers.ReportHandler
	transferHandler *handlers.TransferHandler

	metricsHandler http.Handler
	metrics        *observability.Metrics
	allowedOrigins []string
}

// Handlers bundles the route handlers
type Handlers struct {
	Health   *handlers.HealthHandler
	Hospital *handlers.HospitalHandler
	Tests    *handlers.TestHandler
	Results  *handlers.ResultHandler
	Reports  *handlers.ReportHandler
	Transfer *handlers.TransferHandler
}

// NewRouter creates a new router. metricsHandler, when set, is served on
// /metrics.
func NewRouter(h Handlers, metricsHandler http.Handler, metrics *observability.Metrics, allowedOrigins []string) *Router {
	return &Router{
		mux: http.NewServeMux(),

		healthHandler:   h.Health,
		hospitalHandler: h.Hospital,
		testHandler:     h.Tests,
		resultHandler:   h.Results,
		reportHandler:   h.Reports,
		transferHandler: h.Transfer,

		metricsHandler: metricsHandler,
		metrics:        metrics,
		allowedOrigins: allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Hospital profile
	r.mux.HandleFunc("GET /api/hospital", r.hospitalHandler.GetHospital)
	r.mux.HandleFunc("PUT /api/hospital", r.hospitalHandler.SaveHospital)
	r.mux.HandleFunc("DELETE /api/hospital", r.hospitalHandler.ClearHospital)

	// Test catalog
	r.mux.HandleFunc("GET /api/tests", r.testHandler.ListTests)
	r.mux.HandleFunc("POST /api/tests", r.testHandler.CreateTest)
	r.mux.HandleFunc("GET /api/tests/search", r.testHandler.SearchTests)
	r.mux.HandleFunc("GET /api/tests/{id}", r.testHandler.GetTest)
	r.mux.HandleFunc("PATCH /api/tests/{id}", r.testHandler.UpdateTest)
	r.mux.HandleFunc("DELETE /api/tests/{id}", r.testHandler.DeleteTest)

	// Patient results
	r.mux.HandleFunc("GET /api/results", r.resultHandler.ListResults)
	r.mux.HandleFunc("POST /api/results", r.resultHandler.CreateResult)
	r.mux.HandleFunc("GET /api/results/search", r.resultHandler.SearchResults)
	r.mux.HandleFunc("GET /api/results/range", r.resultHandler.ResultsByRange)
	r.mux.HandleFunc("GET /api/results/patient/{patientID}", r.resultHandler.ResultsByPatient)
	r.mux.HandleFunc("GET /api/results/{id}", r.resultHandler.GetResult)
	r.mux.HandleFunc("PATCH /api/results/{id}", r.resultHandler.UpdateResult)
	r.mux.HandleFunc("DELETE /api/results/{id}", r.resultHandler.DeleteResult)

	// Reports
	r.mux.HandleFunc("GET /api/reports/{kind}", r.reportHandler.GetReport)
	r.mux.HandleFunc("GET /api/statistics", r.reportHandler.GetStatistics)

	// Whole-store operations
	r.mux.HandleFunc("GET /api/export", r.transferHandler.Export)
	r.mux.HandleFunc("POST /api/import", r.transferHandler.Import)
	r.mux.HandleFunc("DELETE /api/data", r.transferHandler.ClearData)
	r.mux.HandleFunc("GET /api/backups", r.transferHandler.ListBackups)
	r.mux.HandleFunc("POST /api/backups", r.transferHandler.CreateBackup)
	r.mux.HandleFunc("POST /api/backups/restore", r.transferHandler.RestoreBackup)

	if r.metricsHandler != nil {
		r.mux.Handle("GET /metrics", r.metricsHandler)
	}

	// Apply middleware in reverse order (last middleware wraps first).
	// Observability sits right on the mux so it can read the matched pattern.
	var handler http.Handler = r.mux
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS wraps everything so preflights never reach the handlers
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
