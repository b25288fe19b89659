package v1

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	playgroundvalidator "github.com/go-playground/validator/v10"
	api "github.com/synthmesh/datagen-api/api/v1"
	"github.com/synthmesh/datagen-api/internal/handlers/validator"
	"github.com/synthmesh/datagen-api/internal/service"
	"github.com/synthmesh/datagen-api/pkg/requestid"
)

type Handler struct {
	jobSrv      *service.JobService
	projectSrv  *service.ProjectService
	customerSrv *service.CustomerService
	webhookSrv  *service.WebhookService
	waitlistSrv *service.WaitlistService
	auditSrv    *service.AuditService
	healthSrv   *service.HealthService
	validator   *validator.Validator
}

func NewHandler(
	jobSrv *service.JobService,
	projectSrv *service.ProjectService,
	customerSrv *service.CustomerService,
	webhookSrv *service.WebhookService,
	waitlistSrv *service.WaitlistService,
	auditSrv *service.AuditService,
	healthSrv *service.HealthService,
	v *validator.Validator,
) *Handler {
	return &Handler{
		jobSrv:      jobSrv,
		projectSrv:  projectSrv,
		customerSrv: customerSrv,
		webhookSrv:  webhookSrv,
		waitlistSrv: waitlistSrv,
		auditSrv:    auditSrv,
		healthSrv:   healthSrv,
		validator:   v,
	}
}

// Routes mounts the v1 API. Health and waitlist stay reachable without
// credentials; every other route sits behind the authenticator.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/health", h.GetHealth)
		r.Post("/waitlist", h.JoinWaitlist)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			h.authenticatedRoutes(r)
		})
	}
}

func (h *Handler) authenticatedRoutes(r chi.Router) {
	r.Get("/diagnostics/store", h.GetStoreDiagnostics)

	r.Route("/jobs", func(r chi.Router) {
		r.Post("/", h.CreateJob)
		r.Get("/", h.ListJobs)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetJob)
			r.Delete("/", h.CancelJob)
			r.Put("/status", h.UpdateJobStatus)
			r.Post("/cancel", h.CancelJob)
			r.Post("/resume", h.ResumeJob)
		})
	})

	r.Route("/projects", func(r chi.Router) {
		r.Post("/", h.CreateProject)
		r.Get("/", h.ListProjects)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetProject)
			r.Put("/", h.UpdateProject)
			r.Delete("/", h.DeleteProject)
			r.Get("/jobs", h.ListProjectJobs)
			r.Post("/jobs", h.CreateProjectJob)
			r.Get("/metrics", h.GetProjectMetrics)
			r.Put("/members/{userId}", h.UpsertProjectMember)
			r.Delete("/members/{userId}", h.RemoveProjectMember)
		})
	})

	r.Route("/customers/{id}", func(r chi.Router) {
		r.Get("/subscription", h.GetSubscription)
		r.Patch("/subscription", h.UpdateSubscription)
		r.Get("/audit-log", h.ListAuditEvents)
		r.Post("/audit-log", h.AppendAuditEvent)
		r.Route("/service-account", func(r chi.Router) {
			r.Get("/", h.GetServiceAccount)
			r.Post("/", h.CreateServiceAccount)
			r.Delete("/", h.DeleteServiceAccount)
			r.Post("/rotate", h.RotateServiceAccountKey)
		})
	})

	r.Route("/webhooks", func(r chi.Router) {
		r.Post("/", h.CreateWebhook)
		r.Get("/", h.ListWebhooks)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetWebhook)
			r.Patch("/", h.UpdateWebhook)
			r.Delete("/", h.DeleteWebhook)
			r.Get("/deliveries", h.ListWebhookDeliveries)
		})
	})
}

// renderError maps service errors onto HTTP statuses. Unknown errors become
// a 500 with a generic message so internals never leak to callers.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFoundErr      *service.ErrResourceNotFound
		forbiddenErr     *service.ErrAccessForbidden
		transitionErr    *service.ErrInvalidTransition
		concurrentErr    *service.ErrConcurrentUpdate
		rateLimitErr     *service.ErrRateLimitExceeded
		jobLimitErr      *service.ErrJobLimitExceeded
		projectLimitErr  *service.ErrProjectLimitExceeded
		lastOwnerErr     *service.ErrLastOwner
		progressErr      *service.ErrProgressDecreased
		missingSAErr     *service.ErrServiceAccountMissing
		validationErrors playgroundvalidator.ValidationErrors
	)

	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.As(err, &notFoundErr):
		status, message = http.StatusNotFound, err.Error()
	case errors.As(err, &forbiddenErr):
		status, message = http.StatusForbidden, err.Error()
	case errors.As(err, &transitionErr), errors.As(err, &progressErr):
		status, message = http.StatusConflict, err.Error()
	case errors.As(err, &concurrentErr):
		status, message = http.StatusConflict, err.Error()
	case errors.As(err, &rateLimitErr):
		status, message = http.StatusTooManyRequests, err.Error()
	case errors.As(err, &jobLimitErr), errors.As(err, &projectLimitErr):
		status, message = http.StatusForbidden, err.Error()
	case errors.As(err, &lastOwnerErr):
		status, message = http.StatusConflict, err.Error()
	case errors.As(err, &missingSAErr):
		status, message = http.StatusNotFound, err.Error()
	case errors.As(err, &validationErrors):
		status, message = http.StatusBadRequest, err.Error()
	}

	render.Status(r, status)
	render.JSON(w, r, api.Error{
		Message:   message,
		RequestId: requestid.FromContextPtr(r.Context()),
	})
}

func renderBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, api.Error{
		Message:   message,
		RequestId: requestid.FromContextPtr(r.Context()),
	})
}
