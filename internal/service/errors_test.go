package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{
		"price_id": "Price not found or not active for this plan",
		"plan_id":  "Plan not found",
	}}
	assert.Equal(t, "plan_id: Plan not found; price_id: Price not found or not active for this plan", err.Error())
}
