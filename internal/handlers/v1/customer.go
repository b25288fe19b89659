package v1

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	api "github.com/synthmesh/datagen-api/api/v1"
	"github.com/synthmesh/datagen-api/internal/auth"
)

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid customer id")
		return
	}

	user := auth.MustHaveUser(r.Context())
	subscription, err := h.customerSrv.GetSubscription(r.Context(), customerID, user)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, subscription)
}

func (h *Handler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid customer id")
		return
	}

	var update api.SubscriptionUpdate
	if err := render.DecodeJSON(r.Body, &update); err != nil {
		renderBadRequest(w, r, "invalid request body")
		return
	}
	if err := h.validator.Struct(update); err != nil {
		renderError(w, r, err)
		return
	}

	user := auth.MustHaveUser(r.Context())
	subscription, err := h.customerSrv.UpdateSubscription(r.Context(), customerID, user, update)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, subscription)
}

func (h *Handler) ListAuditEvents(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid customer id")
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			renderBadRequest(w, r, "invalid limit")
			return
		}
	}
	offset := 0
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			renderBadRequest(w, r, "invalid offset")
			return
		}
	}

	user := auth.MustHaveUser(r.Context())
	events, err := h.auditSrv.List(r.Context(), customerID, user, limit, offset)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, events)
}

func (h *Handler) AppendAuditEvent(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid customer id")
		return
	}

	var create api.AuditEventCreate
	if err := render.DecodeJSON(r.Body, &create); err != nil {
		renderBadRequest(w, r, "invalid request body")
		return
	}
	if err := h.validator.Struct(create); err != nil {
		renderError(w, r, err)
		return
	}

	user := auth.MustHaveUser(r.Context())
	event, err := h.auditSrv.Append(r.Context(), customerID, user, create)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, event)
}

func (h *Handler) GetServiceAccount(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid customer id")
		return
	}

	user := auth.MustHaveUser(r.Context())
	account, err := h.customerSrv.GetServiceAccount(r.Context(), customerID, user)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, account)
}

func (h *Handler) CreateServiceAccount(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid customer id")
		return
	}

	user := auth.MustHaveUser(r.Context())
	account, err := h.customerSrv.CreateServiceAccount(r.Context(), customerID, user)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, account)
}

func (h *Handler) DeleteServiceAccount(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid customer id")
		return
	}

	user := auth.MustHaveUser(r.Context())
	if err := h.customerSrv.DeleteServiceAccount(r.Context(), customerID, user); err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusNoContent)
	render.NoContent(w, r)
}

func (h *Handler) RotateServiceAccountKey(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid customer id")
		return
	}

	user := auth.MustHaveUser(r.Context())
	account, err := h.customerSrv.RotateServiceAccountKey(r.Context(), customerID, user)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, account)
}
