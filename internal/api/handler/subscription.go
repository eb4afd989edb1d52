package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tutorkhata/khata_server/internal/model/dto"
	"github.com/tutorkhata/khata_server/internal/pkg/response"
	"github.com/tutorkhata/khata_server/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// Me GET /api/subscriptions/me/
func (h *SubscriptionHandler) Me(c *gin.Context) {
	teacherID, ok := currentTeacher(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.GetMine(c.Request.Context(), teacherID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, sub)
}

// Create POST /api/subscriptions/
func (h *SubscriptionHandler) Create(c *gin.Context) {
	teacherID, ok := currentTeacher(c)
	if !ok {
		return
	}

	var req dto.CreateSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.Create(c.Request.Context(), teacherID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, sub)
}

// Update PATCH /api/subscriptions/me/update/
func (h *SubscriptionHandler) Update(c *gin.Context) {
	teacherID, ok := currentTeacher(c)
	if !ok {
		return
	}

	var req dto.UpdateSubscriptionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.UpdateAutoRenew(c.Request.Context(), teacherID, req.AutoRenew)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, sub)
}

// Cancel POST /api/subscriptions/cancel/
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	teacherID, ok := currentTeacher(c)
	if !ok {
		return
	}

	msg, err := h.subscriptionService.Cancel(c.Request.Context(), teacherID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, msg, gin.H{"detail": msg})
}

// Renew POST /api/subscriptions/renew/
func (h *SubscriptionHandler) Renew(c *gin.Context) {
	teacherID, ok := currentTeacher(c)
	if !ok {
		return
	}

	msg, err := h.subscriptionService.Renew(c.Request.Context(), teacherID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, msg, gin.H{"detail": msg})
}

// History GET /api/subscriptions/me/history/?limit=
func (h *SubscriptionHandler) History(c *gin.Context) {
	teacherID, ok := currentTeacher(c)
	if !ok {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		response.ValidationError(c, map[string]string{"limit": "A valid integer is required"})
		return
	}

	events, err := h.subscriptionService.History(c.Request.Context(), teacherID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, events)
}
