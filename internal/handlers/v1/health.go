package v1

import (
	"net/http"

	"github.com/go-chi/render"
)

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	health := h.healthSrv.Check(r.Context())

	status := http.StatusOK
	if health.Status == "unavailable" {
		status = http.StatusServiceUnavailable
	}
	render.Status(r, status)
	render.JSON(w, r, health)
}

// GetStoreDiagnostics is a narrow probe for the datastore alone, used by
// deployment checks that must not depend on the pipeline backend.
func (h *Handler) GetStoreDiagnostics(w http.ResponseWriter, r *http.Request) {
	health := h.healthSrv.Check(r.Context())

	if health.Store != "ok" {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]string{"store": health.Store})
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]string{"store": "ok"})
}
