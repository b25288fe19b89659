package validator

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/go-playground/validator/v10"
	api "github.com/synthmesh/datagen-api/api/v1"
)

var resourceNameRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// Validator wraps go-playground struct validation with the request-body
// rules the API needs.
type Validator struct {
	validate *validator.Validate
}

func New() (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	rules := map[string]validator.Func{
		"datatype":         validDataType,
		"webhookevent":     validWebhookEvent,
		"absoluteurl":      validAbsoluteURL,
		"projectrole":      validProjectRole,
		"subscriptiontier": validSubscriptionTier,
		"resourcename":     validResourceName,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("registering %q rule: %w", tag, err)
		}
	}

	return &Validator{validate: v}, nil
}

func (v *Validator) Struct(s any) error {
	return v.validate.Struct(s)
}

func validDataType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "csv", "json", "parquet", "sql":
		return true
	}
	return false
}

func validWebhookEvent(fl validator.FieldLevel) bool {
	_, ok := api.StringToWebhookEvent(fl.Field().String())
	return ok
}

func validProjectRole(fl validator.FieldLevel) bool {
	_, ok := api.StringToProjectRole(fl.Field().String())
	return ok
}

func validSubscriptionTier(fl validator.FieldLevel) bool {
	_, ok := api.StringToTier(fl.Field().String())
	return ok
}

// validAbsoluteURL accepts only absolute http(s) URLs with a host.
func validAbsoluteURL(fl validator.FieldLevel) bool {
	u, err := url.Parse(fl.Field().String())
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validResourceName enforces DNS-label style names, lowercase alphanumerics
// and hyphens, at most 63 characters.
func validResourceName(fl validator.FieldLevel) bool {
	return resourceNameRe.MatchString(fl.Field().String())
}
