package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tutorkhata/khata_server/internal/pkg/response"
	"github.com/tutorkhata/khata_server/internal/service"
)

type PlanHandler struct {
	catalogService *service.CatalogService
}

func NewPlanHandler(catalogService *service.CatalogService) *PlanHandler {
	return &PlanHandler{catalogService: catalogService}
}

// List GET /api/plans/
func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.catalogService.ListPlans(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, plans)
}

// Get GET /api/plans/:id/
func (h *PlanHandler) Get(c *gin.Context) {
	id, ok := pathID(c, service.ErrPlanNotFound)
	if !ok {
		return
	}

	plan, err := h.catalogService.GetPlan(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, plan)
}

// ListFeatures GET /api/features/
func (h *PlanHandler) ListFeatures(c *gin.Context) {
	features, err := h.catalogService.ListFeatures(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, features)
}
