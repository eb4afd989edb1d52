package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/tutorkhata/khata_server/internal/pkg/response"
	"github.com/tutorkhata/khata_server/internal/service"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"validation", service.NewValidationError("fee_day", "This fee day is not available"), http.StatusBadRequest, response.CodeParamError},
		{"plan not found", service.ErrPlanNotFound, http.StatusNotFound, response.CodeResourceNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", service.ErrSubscriptionNotFound), http.StatusNotFound, response.CodeResourceNotFound},
		{"duplicate", service.ErrDuplicateSubscription, http.StatusBadRequest, response.CodeConflict},
		{"phone exists", service.ErrPhoneExists, http.StatusBadRequest, response.CodeConflict},
		{"exhausted", service.ErrAllocationExhausted, http.StatusServiceUnavailable, response.CodeUnavailable},
		{"credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, response.CodeAuthFailed},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, response.CodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var recorded []*gin.Error
			router := gin.New()
			router.GET("/test", func(c *gin.Context) {
				writeError(c, tt.err)
				recorded = c.Errors
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

			resp := parseResponse(t, w)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, resp.Code)
			if tt.status == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", resp.Message)
				assert.Len(t, recorded, 1)
			} else {
				assert.Empty(t, recorded)
			}
		})
	}
}

func TestWriteError_ValidationFields(t *testing.T) {
	router := gin.New()
	router.GET("/test", func(c *gin.Context) {
		writeError(c, service.NewValidationError("price_id", "Price not found or not active for this plan"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	resp := parseResponse(t, w)
	assert.Equal(t, "Price not found or not active for this plan", resp.Errors["price_id"])
}
