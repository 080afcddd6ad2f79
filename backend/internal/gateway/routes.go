package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"schoolstats/backend/internal/gateway/handlers"
	"schoolstats/backend/internal/gateway/util"
	"schoolstats/backend/internal/shared"
)

// SetupRoutes configures the Chi router, middleware, and route handlers.
func SetupRoutes(reports handlers.Reporter, corsCfg shared.CORSConfig) *chi.Mux {
	r := chi.NewRouter()

	// 1. Global Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsCfg.AllowedOrigins,
		AllowedMethods:   corsCfg.AllowedMethods,
		AllowedHeaders:   corsCfg.AllowedHeaders,
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: corsCfg.AllowCredentials,
		MaxAge:           corsCfg.MaxAge,
	}))

	// 2. Initialize Handlers
	reportHandler := &handlers.ReportHandler{Reports: reports}

	// 3. Define Routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			util.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/teachers/{id}", reportHandler.GetTeacherReport)
			r.Get("/teachers/{id}/roster", reportHandler.GetTeacherRoster)
			r.Get("/teachers/{id}/subjects/{subject_id}/roster", reportHandler.GetSubjectRoster)
			r.Get("/students/{id}", reportHandler.GetStudentReport)
			r.Get("/classes/{id}", reportHandler.GetClassReport)
		})
	})

	return r
}
