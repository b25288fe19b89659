package v1

func StringToJobStatus(s string) (JobStatus, bool) {
	switch JobStatus(s) {
	case JobStatusQueued, JobStatusRunning, JobStatusPaused,
		JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return JobStatus(s), true
	default:
		return "", false
	}
}

func StringToProjectRole(s string) (ProjectRole, bool) {
	switch ProjectRole(s) {
	case ProjectRoleOwner, ProjectRoleAdmin, ProjectRoleMember, ProjectRoleViewer:
		return ProjectRole(s), true
	default:
		return "", false
	}
}

func StringToWebhookEvent(s string) (WebhookEvent, bool) {
	switch WebhookEvent(s) {
	case WebhookEventJobCreated, WebhookEventJobUpdated,
		WebhookEventJobCompleted, WebhookEventJobFailed:
		return WebhookEvent(s), true
	default:
		return "", false
	}
}

func StringToTier(s string) (SubscriptionTier, bool) {
	switch SubscriptionTier(s) {
	case TierFree, TierStarter, TierPro, TierEnterprise:
		return SubscriptionTier(s), true
	default:
		return "", false
	}
}
