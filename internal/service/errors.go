package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrFeatureNotFound       = errors.New("Feature not found")
	ErrPlanNotFound          = errors.New("Plan not found")
	ErrSubscriptionNotFound  = errors.New("No active subscription found")
	ErrDuplicateSubscription = errors.New("You already have an active subscription")
	ErrTeacherNotFound       = errors.New("Teacher not found")
	ErrAllocationExhausted   = errors.New("No fee day has capacity left")
	ErrPhoneExists           = errors.New("A user with this phone number already exists")
	ErrInvalidCredentials    = errors.New("Invalid phone number or password")
	ErrFeatureDenied         = errors.New("Feature usage denied")
	ErrInvalidTransition     = errors.New("invalid subscription status transition")
)

// ValidationError carries per-field messages for a 400 response.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}
