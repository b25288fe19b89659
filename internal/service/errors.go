package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id uuid.UUID, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrJobNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "job")
}

func NewErrProjectNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "project")
}

func NewErrCustomerNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "customer")
}

func NewErrWebhookNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "webhook")
}

type ErrAccessForbidden struct {
	error
}

func NewErrAccessForbidden(id uuid.UUID, resourceType string) *ErrAccessForbidden {
	return &ErrAccessForbidden{fmt.Errorf("access to %s %s is forbidden", resourceType, id)}
}

type ErrInvalidTransition struct {
	error
	From string
	To   string
}

func NewErrInvalidTransition(id uuid.UUID, from, to string) *ErrInvalidTransition {
	return &ErrInvalidTransition{
		error: fmt.Errorf("job %s cannot transition from %s to %s", id, from, to),
		From:  from,
		To:    to,
	}
}

type ErrConcurrentUpdate struct {
	error
}

func NewErrConcurrentUpdate(id uuid.UUID) *ErrConcurrentUpdate {
	return &ErrConcurrentUpdate{fmt.Errorf("job %s was changed by a concurrent writer, re-read and retry", id)}
}

type ErrRateLimitExceeded struct {
	error
}

func NewErrRateLimitExceeded(customerID uuid.UUID) *ErrRateLimitExceeded {
	return &ErrRateLimitExceeded{fmt.Errorf("customer %s exceeded the job creation rate limit", customerID)}
}

type ErrJobLimitExceeded struct {
	error
}

func NewErrJobLimitExceeded(customerID uuid.UUID, limit int) *ErrJobLimitExceeded {
	return &ErrJobLimitExceeded{fmt.Errorf("customer %s reached the limit of %d concurrent jobs", customerID, limit)}
}

type ErrProjectLimitExceeded struct {
	error
}

func NewErrProjectLimitExceeded(customerID uuid.UUID, limit int) *ErrProjectLimitExceeded {
	return &ErrProjectLimitExceeded{fmt.Errorf("customer %s reached the limit of %d projects", customerID, limit)}
}

type ErrLastOwner struct {
	error
}

func NewErrLastOwner(projectID uuid.UUID, userID string) *ErrLastOwner {
	return &ErrLastOwner{fmt.Errorf("%s is the last owner of project %s", userID, projectID)}
}

type ErrProgressDecreased struct {
	error
}

func NewErrProgressDecreased(id uuid.UUID, current, requested int) *ErrProgressDecreased {
	return &ErrProgressDecreased{fmt.Errorf("job %s progress cannot decrease from %d to %d", id, current, requested)}
}

type ErrServiceAccountMissing struct {
	error
}

func NewErrServiceAccountMissing(customerID uuid.UUID) *ErrServiceAccountMissing {
	return &ErrServiceAccountMissing{fmt.Errorf("customer %s has no service account", customerID)}
}
