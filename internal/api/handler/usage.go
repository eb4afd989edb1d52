package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tutorkhata/khata_server/internal/model/dto"
	"github.com/tutorkhata/khata_server/internal/pkg/response"
	"github.com/tutorkhata/khata_server/internal/service"
)

type UsageHandler struct {
	entitlementService *service.EntitlementService
}

func NewUsageHandler(entitlementService *service.EntitlementService) *UsageHandler {
	return &UsageHandler{entitlementService: entitlementService}
}

// List GET /api/usage/
func (h *UsageHandler) List(c *gin.Context) {
	teacherID, ok := currentTeacher(c)
	if !ok {
		return
	}

	usage, err := h.entitlementService.ListUsage(c.Request.Context(), teacherID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, usage)
}

// Detail GET /api/usage/:feature_code/
func (h *UsageHandler) Detail(c *gin.Context) {
	teacherID, ok := currentTeacher(c)
	if !ok {
		return
	}

	usage, err := h.entitlementService.UsageDetail(c.Request.Context(), teacherID, c.Param("feature_code"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, usage)
}

// Check POST /api/usage/check/
// An unknown feature is still a 200 carrying a negative decision.
func (h *UsageHandler) Check(c *gin.Context) {
	teacherID, ok := currentTeacher(c)
	if !ok {
		return
	}

	var req dto.CheckFeatureRequest
	if !bindJSON(c, &req) {
		return
	}

	decision, err := h.entitlementService.Evaluate(c.Request.Context(), teacherID, req.FeatureCode)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, decision)
}

// Consume POST /api/usage/:feature_code/consume/
// Runs behind middleware.RequireFeature; the ledger still has the final say.
func (h *UsageHandler) Consume(c *gin.Context) {
	teacherID, ok := currentTeacher(c)
	if !ok {
		return
	}

	decision, err := h.entitlementService.Consume(c.Request.Context(), teacherID, c.Param("feature_code"))
	switch {
	case errors.Is(err, service.ErrFeatureDenied):
		response.FeatureDenied(c, decision.Reason, decision)
	case err != nil:
		writeError(c, err)
	default:
		response.Success(c, decision)
	}
}
