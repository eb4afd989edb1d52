package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	router := gin.New()
	router.GET("/test", h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestSuccess(t *testing.T) {
	w, resp := serve(t, func(c *gin.Context) { Success(c, gin.H{"days": []int{1, 2}}) })

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, CodeSuccess, resp.Code)
	assert.Equal(t, "success", resp.Message)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, data["days"], 2)
}

func TestCreated(t *testing.T) {
	w, resp := serve(t, func(c *gin.Context) { Created(c, gin.H{"id": 1}) })

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, CodeSuccess, resp.Code)
}

func TestErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		h      gin.HandlerFunc
		status int
		code   int
	}{
		{"auth", func(c *gin.Context) { AuthError(c, "") }, http.StatusUnauthorized, CodeAuthFailed},
		{"not found", func(c *gin.Context) { NotFoundError(c, "No active subscription found") }, http.StatusNotFound, CodeResourceNotFound},
		{"conflict", func(c *gin.Context) { ConflictError(c, "dup") }, http.StatusBadRequest, CodeConflict},
		{"unavailable", func(c *gin.Context) { UnavailableError(c, "") }, http.StatusServiceUnavailable, CodeUnavailable},
		{"server", func(c *gin.Context) { ServerError(c) }, http.StatusInternalServerError, CodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := serve(t, tt.h)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Message)
			assert.Nil(t, resp.Data)
		})
	}
}

func TestErrorKeepsCustomMessage(t *testing.T) {
	_, resp := serve(t, func(c *gin.Context) { NotFoundError(c, "No active subscription found") })
	assert.Equal(t, "No active subscription found", resp.Message)
}

func TestServerErrorHidesDetail(t *testing.T) {
	_, resp := serve(t, func(c *gin.Context) { ServerError(c) })
	assert.Equal(t, "internal server error", resp.Message)
}

func TestValidationError(t *testing.T) {
	w, resp := serve(t, func(c *gin.Context) {
		ValidationError(c, map[string]string{"price_id": "Price not found or not active for this plan"})
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeParamError, resp.Code)
	assert.Equal(t, "Price not found or not active for this plan", resp.Errors["price_id"])
}

func TestFeatureDenied(t *testing.T) {
	w, resp := serve(t, func(c *gin.Context) {
		FeatureDenied(c, "Monthly limit reached", gin.H{"can_use": false})
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, CodeFeatureDenied, resp.Code)
	assert.Equal(t, "Monthly limit reached", resp.Message)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, data["can_use"])
}

func TestSuccessPage(t *testing.T) {
	w, resp := serve(t, func(c *gin.Context) { SuccessPage(c, 41, 2, 20, []int{1}) })

	assert.Equal(t, http.StatusOK, w.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(41), data["total"])
	assert.Equal(t, float64(2), data["page"])
	assert.Equal(t, float64(20), data["page_size"])
	assert.Len(t, data["items"], 1)
}
