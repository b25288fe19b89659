package events

// JobLifecycleEvent is emitted on every job state transition.
type JobLifecycleEvent struct {
	JobID      string `json:"job_id"`
	ProjectID  string `json:"project_id"`
	CustomerID string `json:"customer_id"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
}

// WaitlistEvent is emitted when a prospect joins the waitlist.
type WaitlistEvent struct {
	Email   string `json:"email"`
	Company string `json:"company"`
}
