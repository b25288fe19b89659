package v1

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	api "github.com/synthmesh/datagen-api/api/v1"
	"github.com/synthmesh/datagen-api/internal/auth"
	"github.com/synthmesh/datagen-api/internal/service"
)

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var jobCreate api.JobCreate
	if err := render.DecodeJSON(r.Body, &jobCreate); err != nil {
		renderBadRequest(w, r, "invalid request body")
		return
	}
	if err := h.validator.Struct(jobCreate); err != nil {
		renderError(w, r, err)
		return
	}

	user := auth.MustHaveUser(r.Context())
	job, err := h.jobSrv.CreateJob(r.Context(), user, jobCreate)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, api.JobCreated{Id: job.Id, Status: job.Status})
}

// CreateProjectJob creates a job under the project named in the path. The
// path wins over any projectId carried in the body.
func (h *Handler) CreateProjectJob(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid project id")
		return
	}

	var jobCreate api.JobCreate
	if err := render.DecodeJSON(r.Body, &jobCreate); err != nil {
		renderBadRequest(w, r, "invalid request body")
		return
	}
	jobCreate.ProjectId = projectID
	if err := h.validator.Struct(jobCreate); err != nil {
		renderError(w, r, err)
		return
	}

	user := auth.MustHaveUser(r.Context())
	job, err := h.jobSrv.CreateJob(r.Context(), user, jobCreate)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, api.JobCreated{Id: job.Id, Status: job.Status})
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	opts, ok := jobListOptions(w, r)
	if !ok {
		return
	}

	user := auth.MustHaveUser(r.Context())
	jobs, err := h.jobSrv.ListJobs(r.Context(), user, opts)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, jobs)
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid job id")
		return
	}

	user := auth.MustHaveUser(r.Context())
	job, err := h.jobSrv.GetJob(r.Context(), jobID, user)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, job)
}

// UpdateJobStatus is the pipeline-facing transition endpoint. The caller
// must belong to the job's customer; the body carries the version the
// caller read, stale writes come back as 409.
func (h *Handler) UpdateJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid job id")
		return
	}

	var update api.JobStatusUpdate
	if err := render.DecodeJSON(r.Body, &update); err != nil {
		renderBadRequest(w, r, "invalid request body")
		return
	}
	if err := h.validator.Struct(update); err != nil {
		renderError(w, r, err)
		return
	}
	if _, ok := api.StringToJobStatus(string(update.Status)); !ok {
		renderBadRequest(w, r, "unknown job status")
		return
	}

	user := auth.MustHaveUser(r.Context())
	job, err := h.jobSrv.UpdateJobStatus(r.Context(), jobID, user, update)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, job)
}

func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid job id")
		return
	}

	user := auth.MustHaveUser(r.Context())
	job, err := h.jobSrv.CancelJob(r.Context(), jobID, user)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, job)
}

func (h *Handler) ResumeJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid job id")
		return
	}

	user := auth.MustHaveUser(r.Context())
	job, err := h.jobSrv.ResumeJob(r.Context(), jobID, user)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, job)
}

func (h *Handler) ListProjectJobs(w http.ResponseWriter, r *http.Request) {
	projectID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderBadRequest(w, r, "invalid project id")
		return
	}

	opts, ok := jobListOptions(w, r)
	if !ok {
		return
	}
	opts.ProjectID = &projectID

	user := auth.MustHaveUser(r.Context())
	jobs, err := h.jobSrv.ListJobs(r.Context(), user, opts)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, jobs)
}

func jobListOptions(w http.ResponseWriter, r *http.Request) (service.JobListOptions, bool) {
	opts := service.JobListOptions{}

	if raw := r.URL.Query().Get("projectId"); raw != "" {
		projectID, err := uuid.Parse(raw)
		if err != nil {
			renderBadRequest(w, r, "invalid projectId filter")
			return opts, false
		}
		opts.ProjectID = &projectID
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := api.StringToJobStatus(raw)
		if !ok {
			renderBadRequest(w, r, "invalid status filter")
			return opts, false
		}
		opts.Status = &status
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			renderBadRequest(w, r, "invalid limit")
			return opts, false
		}
		opts.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			renderBadRequest(w, r, "invalid offset")
			return opts, false
		}
		opts.Offset = offset
	}

	return opts, true
}
