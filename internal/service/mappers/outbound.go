package mappers

import (
	"encoding/json"

	api "github.com/synthmesh/datagen-api/api/v1"
	"github.com/synthmesh/datagen-api/internal/store/model"
)

func JobToApi(j model.Job) api.Job {
	job := api.Job{
		Id:         j.ID,
		CustomerId: j.CustomerID,
		ProjectId:  j.ProjectID,
		Status:     api.JobStatus(j.Status),
		Progress:   j.Progress,
		Version:    j.Version,
		ResultRef:  j.ResultRef,
		CreatedAt:  j.CreatedAt,
		UpdatedAt:  j.UpdatedAt,
	}

	if j.Config != nil {
		_ = json.Unmarshal(j.Config, &job.Config)
	}

	if j.ErrorCode != nil || j.ErrorMessage != nil {
		jobError := api.JobError{}
		if j.ErrorCode != nil {
			jobError.Code = *j.ErrorCode
		}
		if j.ErrorMessage != nil {
			jobError.Message = *j.ErrorMessage
		}
		job.Error = &jobError
	}

	return job
}

func JobListToApi(jobs model.JobList) api.JobList {
	jobList := make(api.JobList, 0, len(jobs))
	for _, j := range jobs {
		jobList = append(jobList, JobToApi(j))
	}
	return jobList
}

func ProjectToApi(p model.Project) api.Project {
	members := make([]api.ProjectMember, 0, len(p.Members))
	for _, m := range p.Members {
		members = append(members, api.ProjectMember{
			UserId: m.UserID,
			Role:   api.ProjectRole(m.Role),
		})
	}

	return api.Project{
		Id:         p.ID,
		CustomerId: p.CustomerID,
		Name:       p.Name,
		Settings: api.ProjectSettings{
			RetentionDays:  p.RetentionDays,
			StorageQuotaGB: p.StorageQuotaGB,
		},
		Storage: api.ProjectStorage{
			Bucket:     p.Bucket,
			Region:     p.Region,
			UsageBytes: p.UsageBytes,
		},
		Members:   members,
		CreatedAt: p.CreatedAt,
	}
}

func ProjectListToApi(projects model.ProjectList) api.ProjectList {
	projectList := make(api.ProjectList, 0, len(projects))
	for _, p := range projects {
		projectList = append(projectList, ProjectToApi(p))
	}
	return projectList
}

func SubscriptionToApi(c model.Customer) api.Subscription {
	return api.Subscription{
		CustomerId: c.ID,
		Tier:       api.SubscriptionTier(c.Tier),
		Limits: api.TierLimits{
			MaxProjects:       c.MaxProjects,
			MaxConcurrentJobs: c.MaxConcurrentJobs,
			StorageQuotaGB:    c.StorageQuotaGB,
			JobsPerMinute:     c.JobsPerMinute,
		},
		UpdatedAt: c.UpdatedAt,
	}
}

func ServiceAccountToApi(c model.Customer) *api.ServiceAccount {
	if c.SAEmail == nil || c.SAKeyRef == nil || c.SACreatedAt == nil {
		return nil
	}
	return &api.ServiceAccount{
		Email:     *c.SAEmail,
		KeyRef:    *c.SAKeyRef,
		CreatedAt: *c.SACreatedAt,
		RotatedAt: c.SARotatedAt,
	}
}

func WebhookToApi(w model.Webhook) api.Webhook {
	events := make([]api.WebhookEvent, 0)
	for _, e := range w.EventList() {
		events = append(events, api.WebhookEvent(e))
	}

	return api.Webhook{
		Id:         w.ID,
		CustomerId: w.CustomerID,
		Url:        w.URL,
		Events:     events,
		Active:     w.Active,
		CreatedAt:  w.CreatedAt,
	}
}

func WebhookListToApi(webhooks model.WebhookList) api.WebhookList {
	webhookList := make(api.WebhookList, 0, len(webhooks))
	for _, w := range webhooks {
		webhookList = append(webhookList, WebhookToApi(w))
	}
	return webhookList
}

func WebhookDeliveryToApi(d model.WebhookDelivery) api.WebhookDelivery {
	return api.WebhookDelivery{
		WebhookId:  d.WebhookID,
		JobId:      d.JobID,
		Event:      api.WebhookEvent(d.Event),
		Attempt:    d.Attempt,
		StatusCode: d.StatusCode,
		Success:    d.Success,
		Error:      d.Error,
		CreatedAt:  d.CreatedAt,
	}
}

func WebhookDeliveryListToApi(deliveries model.WebhookDeliveryList) api.WebhookDeliveryList {
	deliveryList := make(api.WebhookDeliveryList, 0, len(deliveries))
	for _, d := range deliveries {
		deliveryList = append(deliveryList, WebhookDeliveryToApi(d))
	}
	return deliveryList
}

func AuditEventToApi(e model.AuditEvent) api.AuditEvent {
	return api.AuditEvent{
		Id:         int64(e.ID),
		CustomerId: e.CustomerID,
		Actor:      e.Actor,
		Action:     e.Action,
		Resource:   e.Resource,
		Details:    e.Details,
		CreatedAt:  e.CreatedAt,
	}
}

func AuditEventListToApi(events model.AuditEventList) []api.AuditEvent {
	eventList := make([]api.AuditEvent, 0, len(events))
	for _, e := range events {
		eventList = append(eventList, AuditEventToApi(e))
	}
	return eventList
}
