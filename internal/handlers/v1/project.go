package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	api "github.com/synthmesh/datagen-api/api/v1"
	"github.com/synthmesh/datagen-api/internal/auth"
)

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var projectCreate api.ProjectCreate
	if err := render.DecodeJSON(r.Body, &projectCreate); err != nil {
		renderBadRequest(w, r, "invalid request body")
		return
	}
	if err := h.validator.Struct(projectCreate); err != nil {
		renderError(w, r, err)
		return
	}

	user := auth.MustHaveUser(r.Context())
	project, err := h.projectSrv.CreateProject(r.Context(), user, projectCreate)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, project)
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	user := auth.MustHaveUser(r.Context())
	projects, err := h.projectSrv.ListProjects(r.Context(), user)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, projects)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid project id")
		return
	}

	user := auth.MustHaveUser(r.Context())
	project, err := h.projectSrv.GetProject(r.Context(), projectID, user)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, project)
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid project id")
		return
	}

	var update api.ProjectUpdate
	if err := render.DecodeJSON(r.Body, &update); err != nil {
		renderBadRequest(w, r, "invalid request body")
		return
	}
	if err := h.validator.Struct(update); err != nil {
		renderError(w, r, err)
		return
	}

	user := auth.MustHaveUser(r.Context())
	project, err := h.projectSrv.UpdateProject(r.Context(), projectID, user, update)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, project)
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid project id")
		return
	}

	user := auth.MustHaveUser(r.Context())
	if err := h.projectSrv.DeleteProject(r.Context(), projectID, user); err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusNoContent)
	render.NoContent(w, r)
}

func (h *Handler) GetProjectMetrics(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid project id")
		return
	}

	user := auth.MustHaveUser(r.Context())
	projectMetrics, err := h.projectSrv.GetMetrics(r.Context(), projectID, user)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, projectMetrics)
}

func (h *Handler) UpsertProjectMember(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid project id")
		return
	}
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		renderBadRequest(w, r, "missing user id")
		return
	}

	var update api.ProjectMemberUpdate
	if err := render.DecodeJSON(r.Body, &update); err != nil {
		renderBadRequest(w, r, "invalid request body")
		return
	}
	if err := h.validator.Struct(update); err != nil {
		renderError(w, r, err)
		return
	}

	user := auth.MustHaveUser(r.Context())
	project, err := h.projectSrv.UpsertMember(r.Context(), projectID, user, userID, update.Role)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, project)
}

func (h *Handler) RemoveProjectMember(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid project id")
		return
	}
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		renderBadRequest(w, r, "missing user id")
		return
	}

	user := auth.MustHaveUser(r.Context())
	if err := h.projectSrv.RemoveMember(r.Context(), projectID, user, userID); err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusNoContent)
	render.NoContent(w, r)
}
