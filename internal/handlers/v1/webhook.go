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

func (h *Handler) CreateWebhook(w http.ResponseWriter, r *http.Request) {
	var webhookCreate api.WebhookCreate
	if err := render.DecodeJSON(r.Body, &webhookCreate); err != nil {
		renderBadRequest(w, r, "invalid request body")
		return
	}
	if err := h.validator.Struct(webhookCreate); err != nil {
		renderError(w, r, err)
		return
	}

	user := auth.MustHaveUser(r.Context())
	registration, err := h.webhookSrv.CreateWebhook(r.Context(), user, webhookCreate)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, registration)
}

func (h *Handler) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())
	webhooks, err := h.webhookSrv.ListWebhooks(r.Context(), user)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, webhooks)
}

func (h *Handler) GetWebhook(w http.ResponseWriter, r *http.Request) {
	webhookID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid webhook id")
		return
	}

	user := auth.MustHaveUser(r.Context())
	registration, err := h.webhookSrv.GetWebhook(r.Context(), webhookID, user)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, registration)
}

func (h *Handler) UpdateWebhook(w http.ResponseWriter, r *http.Request) {
	webhookID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid webhook id")
		return
	}

	var update api.WebhookUpdate
	if err := render.DecodeJSON(r.Body, &update); err != nil {
		renderBadRequest(w, r, "invalid request body")
		return
	}
	if err := h.validator.Struct(update); err != nil {
		renderError(w, r, err)
		return
	}

	user := auth.MustHaveUser(r.Context())
	registration, err := h.webhookSrv.UpdateWebhook(r.Context(), webhookID, user, update)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, registration)
}

func (h *Handler) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	webhookID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid webhook id")
		return
	}

	user := auth.MustHaveUser(r.Context())
	if err := h.webhookSrv.DeleteWebhook(r.Context(), webhookID, user); err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusNoContent)
	render.NoContent(w, r)
}

func (h *Handler) ListWebhookDeliveries(w http.ResponseWriter, r *http.Request) {
	webhookID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid webhook id")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			renderBadRequest(w, r, "invalid limit")
			return
		}
	}

	user := auth.MustHaveUser(r.Context())
	deliveries, err := h.webhookSrv.ListDeliveries(r.Context(), webhookID, user, limit)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, deliveries)
}
