package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tutorkhata/khata_server/internal/api/middleware"
	"github.com/tutorkhata/khata_server/internal/pkg/response"
	"github.com/tutorkhata/khata_server/internal/pkg/validate"
	"github.com/tutorkhata/khata_server/internal/service"
)

// writeError maps service errors onto the response envelope. Unknown errors are
// attached to the context for the request logger and answered with a bare 500.
func writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		response.ValidationError(c, verr.Fields)
	case errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrFeatureNotFound),
		errors.Is(err, service.ErrSubscriptionNotFound),
		errors.Is(err, service.ErrTeacherNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrDuplicateSubscription),
		errors.Is(err, service.ErrPhoneExists):
		response.ConflictError(c, err.Error())
	case errors.Is(err, service.ErrAllocationExhausted):
		response.UnavailableError(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		response.AuthError(c, err.Error())
	default:
		_ = c.Error(err)
		response.ServerError(c)
	}
}

// bindJSON answers 400 with per-field messages when the body does not bind.
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		response.ValidationError(c, validate.Fields(err))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for PATCH bodies, where an empty body means no change.
func bindOptionalJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		response.ValidationError(c, validate.Fields(err))
		return false
	}
	return true
}

func currentTeacher(c *gin.Context) (int64, bool) {
	id, ok := middleware.GetTeacherID(c)
	if !ok {
		response.AuthError(c, "")
	}
	return id, ok
}

func pathID(c *gin.Context, notFound error) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.NotFoundError(c, notFound.Error())
		return 0, false
	}
	return id, true
}
