package v1

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusPaused    JobStatus = "paused"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// JobConfig is the immutable configuration snapshot captured at job creation.
type JobConfig struct {
	DataType           string          `json:"dataType" validate:"required,datatype"`
	DataSize           int64           `json:"dataSize" validate:"required,min=1,max=10000000"`
	InputLocation      string          `json:"inputLocation,omitempty"`
	OutputLocation     string          `json:"outputLocation,omitempty"`
	OutputFormat       string          `json:"outputFormat,omitempty"`
	TimeoutSeconds     int             `json:"timeoutSeconds,omitempty" validate:"omitempty,min=1,max=86400"`
	ResumeWindowSecs   int             `json:"resumeWindowSeconds,omitempty" validate:"omitempty,min=1,max=604800"`
	GenerationParams   json.RawMessage `json:"generationParams,omitempty"`
}

type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Job struct {
	Id         uuid.UUID `json:"id"`
	CustomerId uuid.UUID `json:"customerId"`
	ProjectId  uuid.UUID `json:"projectId"`
	Status     JobStatus `json:"status"`
	Progress   int       `json:"progress"`
	Version    int64     `json:"version"`
	Config     JobConfig `json:"config"`
	Error      *JobError `json:"error,omitempty"`
	ResultRef  *string   `json:"resultRef,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type JobList []Job

type JobCreate struct {
	ProjectId uuid.UUID `json:"projectId" validate:"required"`
	Config    JobConfig `json:"config" validate:"required"`
}

type JobCreated struct {
	Id     uuid.UUID `json:"id"`
	Status JobStatus `json:"status"`
}

type JobStatusUpdate struct {
	Status   JobStatus `json:"status" validate:"required"`
	Progress *int      `json:"progress,omitempty" validate:"omitempty,min=0,max=100"`
	Error    *JobError `json:"error,omitempty"`
	Version  int64     `json:"version" validate:"required,min=1"`
}

type ProjectRole string

const (
	ProjectRoleOwner  ProjectRole = "owner"
	ProjectRoleAdmin  ProjectRole = "admin"
	ProjectRoleMember ProjectRole = "member"
	ProjectRoleViewer ProjectRole = "viewer"
)

type ProjectMember struct {
	UserId string      `json:"userId"`
	Role   ProjectRole `json:"role"`
}

type ProjectSettings struct {
	RetentionDays  int `json:"retentionDays"`
	StorageQuotaGB int `json:"storageQuotaGb"`
}

type ProjectStorage struct {
	Bucket     string `json:"bucket"`
	Region     string `json:"region"`
	UsageBytes int64  `json:"usageBytes"`
}

type Project struct {
	Id         uuid.UUID       `json:"id"`
	CustomerId uuid.UUID       `json:"customerId"`
	Name       string          `json:"name"`
	Settings   ProjectSettings `json:"settings"`
	Storage    ProjectStorage  `json:"storage"`
	Members    []ProjectMember `json:"members"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type ProjectList []Project

type ProjectCreate struct {
	Name     string           `json:"name" validate:"required,resourcename"`
	Settings *ProjectSettings `json:"settings,omitempty"`
	Region   string           `json:"region,omitempty"`
}

type ProjectUpdate struct {
	Name     *string          `json:"name,omitempty" validate:"omitempty,resourcename"`
	Settings *ProjectSettings `json:"settings,omitempty"`
}

type ProjectMemberUpdate struct {
	Role ProjectRole `json:"role" validate:"required,projectrole"`
}

// ProjectMetrics aggregates per-project job counts and storage usage.
type ProjectMetrics struct {
	JobCounts  map[JobStatus]int64 `json:"jobCounts"`
	TotalJobs  int64               `json:"totalJobs"`
	UsageBytes int64               `json:"usageBytes"`
}

type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierStarter    SubscriptionTier = "starter"
	TierPro        SubscriptionTier = "pro"
	TierEnterprise SubscriptionTier = "enterprise"
)

// TierLimits are the resource limits a subscription tier grants.
type TierLimits struct {
	MaxProjects       int `json:"maxProjects"`
	MaxConcurrentJobs int `json:"maxConcurrentJobs"`
	StorageQuotaGB    int `json:"storageQuotaGb"`
	JobsPerMinute     int `json:"jobsPerMinute"`
}

type Subscription struct {
	CustomerId uuid.UUID        `json:"customerId"`
	Tier       SubscriptionTier `json:"tier"`
	Limits     TierLimits       `json:"limits"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

type SubscriptionUpdate struct {
	Tier SubscriptionTier `json:"tier" validate:"required,subscriptiontier"`
}

type ServiceAccount struct {
	Email     string     `json:"email"`
	KeyRef    string     `json:"keyRef"`
	CreatedAt time.Time  `json:"createdAt"`
	RotatedAt *time.Time `json:"rotatedAt,omitempty"`
}

type WebhookEvent string

const (
	WebhookEventJobCreated   WebhookEvent = "job.created"
	WebhookEventJobUpdated   WebhookEvent = "job.updated"
	WebhookEventJobCompleted WebhookEvent = "job.completed"
	WebhookEventJobFailed    WebhookEvent = "job.failed"
)

type Webhook struct {
	Id         uuid.UUID      `json:"id"`
	CustomerId uuid.UUID      `json:"customerId"`
	Url        string         `json:"url"`
	Events     []WebhookEvent `json:"events"`
	Active     bool           `json:"active"`
	CreatedAt  time.Time      `json:"createdAt"`
}

type WebhookList []Webhook

type WebhookCreate struct {
	Url    string         `json:"url" validate:"required,absoluteurl"`
	Secret string         `json:"secret" validate:"required,min=16"`
	Events []WebhookEvent `json:"events" validate:"required,min=1,dive,webhookevent"`
}

type WebhookUpdate struct {
	Url    *string        `json:"url,omitempty" validate:"omitempty,absoluteurl"`
	Secret *string        `json:"secret,omitempty" validate:"omitempty,min=16"`
	Events []WebhookEvent `json:"events,omitempty" validate:"omitempty,min=1,dive,webhookevent"`
	Active *bool          `json:"active,omitempty"`
}

// WebhookDelivery is one recorded delivery attempt.
type WebhookDelivery struct {
	WebhookId  uuid.UUID    `json:"webhookId"`
	JobId      uuid.UUID    `json:"jobId"`
	Event      WebhookEvent `json:"event"`
	Attempt    int          `json:"attempt"`
	StatusCode int          `json:"statusCode,omitempty"`
	Success    bool         `json:"success"`
	Error      string       `json:"error,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
}

type WebhookDeliveryList []WebhookDelivery

// WebhookPayload is the body POSTed to subscriber endpoints.
type WebhookPayload struct {
	Event     WebhookEvent `json:"event"`
	Job       Job          `json:"job"`
	Timestamp int64        `json:"timestamp"`
}

type WaitlistSignup struct {
	Email   string `json:"email" validate:"required,email"`
	Company string `json:"company,omitempty" validate:"omitempty,max=200"`
	UseCase string `json:"useCase,omitempty" validate:"omitempty,max=2000"`
}

type AuditEvent struct {
	Id         int64           `json:"id"`
	CustomerId uuid.UUID       `json:"customerId"`
	Actor      string          `json:"actor"`
	Action     string          `json:"action"`
	Resource   string          `json:"resource"`
	Details    json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type AuditEventCreate struct {
	Action   string          `json:"action" validate:"required,max=100"`
	Resource string          `json:"resource" validate:"required,max=200"`
	Details  json.RawMessage `json:"details,omitempty"`
}

type Health struct {
	Status   string `json:"status"`
	Store    string `json:"store"`
	Pipeline string `json:"pipeline"`
}

type Error struct {
	Message   string  `json:"message"`
	RequestId *string `json:"requestId,omitempty"`
}
