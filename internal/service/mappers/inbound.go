package mappers

import (
	"encoding/json"

	"github.com/google/uuid"
	api "github.com/synthmesh/datagen-api/api/v1"
	"github.com/synthmesh/datagen-api/internal/store/model"
)

func JobFromApi(id uuid.UUID, customerID uuid.UUID, resource api.JobCreate) model.Job {
	configJSON, _ := json.Marshal(resource.Config)
	return model.Job{
		ID:         id,
		CustomerID: customerID,
		ProjectID:  resource.ProjectId,
		Status:     model.JobStatusQueued,
		Progress:   0,
		Version:    1,
		Config:     configJSON,
	}
}

func ProjectFromApi(id uuid.UUID, customerID uuid.UUID, resource api.ProjectCreate) model.Project {
	project := model.Project{
		ID:             id,
		CustomerID:     customerID,
		Name:           resource.Name,
		RetentionDays:  30,
		StorageQuotaGB: 10,
		Bucket:         "datagen-" + id.String(),
		Region:         resource.Region,
	}
	if resource.Settings != nil {
		project.RetentionDays = resource.Settings.RetentionDays
		project.StorageQuotaGB = resource.Settings.StorageQuotaGB
	}
	if project.Region == "" {
		project.Region = "us-east-1"
	}
	return project
}

func WebhookFromApi(id uuid.UUID, customerID uuid.UUID, resource api.WebhookCreate) model.Webhook {
	eventsJSON, _ := json.Marshal(resource.Events)
	return model.Webhook{
		ID:         id,
		CustomerID: customerID,
		URL:        resource.Url,
		Secret:     resource.Secret,
		Events:     eventsJSON,
		Active:     true,
	}
}

func WaitlistEntryFromApi(resource api.WaitlistSignup) model.WaitlistEntry {
	return model.WaitlistEntry{
		Email:   resource.Email,
		Company: resource.Company,
		UseCase: resource.UseCase,
	}
}

func AuditEventFromApi(customerID uuid.UUID, actor string, resource api.AuditEventCreate) model.AuditEvent {
	return model.AuditEvent{
		CustomerID: customerID,
		Actor:      actor,
		Action:     resource.Action,
		Resource:   resource.Resource,
		Details:    resource.Details,
	}
}
