package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Launches
	mux.Handle("GET /api/v1/launches", chain(http.HandlerFunc(h.ListLaunches)))
	mux.Handle("POST /api/v1/launches", chain(http.HandlerFunc(h.CreateLaunch)))
	mux.Handle("GET /api/v1/launches/{id}", chain(http.HandlerFunc(h.GetLaunch)))
	mux.Handle("GET /api/v1/launches/{id}/jobs", chain(http.HandlerFunc(h.ListLaunchJobs)))

	// Jobs
	mux.Handle("GET /api/v1/jobs/{id}", chain(http.HandlerFunc(h.GetJob)))

	// Artifacts
	mux.Handle("GET /api/v1/artifacts", chain(http.HandlerFunc(h.ListArtifacts)))
}
