package handler

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/internal/database"
	"github.com/tutorkhata/khata_server/internal/pkg/response"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health GET /api/health/
func (h *HealthHandler) Health(c *gin.Context) {
	if err := database.HealthCheck(c.Request.Context(), h.db); err != nil {
		_ = c.Error(err)
		response.UnavailableError(c, "database unreachable")
		return
	}
	response.Success(c, gin.H{"status": "ok"})
}
