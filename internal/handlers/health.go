package handlers

import "net/http"

// HealthHandler responds with service health information.
type HealthHandler struct{}

// Check implements GET /api/v1/healthcheck.
func (HealthHandler) Check(w http.ResponseWriter, r *http.Request) error {
	respond(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
	return nil
}
