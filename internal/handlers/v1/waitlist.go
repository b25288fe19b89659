package v1

import (
	"net/http"

	"github.com/go-chi/render"
	api "github.com/synthmesh/datagen-api/api/v1"
)

// JoinWaitlist is the only unauthenticated write endpoint. Duplicate
// signups are accepted so the form can be safely retried.
func (h *Handler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	var signup api.WaitlistSignup
	if err := render.DecodeJSON(r.Body, &signup); err != nil {
		renderBadRequest(w, r, "invalid request body")
		return
	}
	if err := h.validator.Struct(signup); err != nil {
		renderError(w, r, err)
		return
	}

	if err := h.waitlistSrv.Signup(r.Context(), signup); err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]string{"status": "accepted"})
}
