package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tutorkhata/khata_server/internal/model/dto"
	"github.com/tutorkhata/khata_server/internal/pkg/response"
	"github.com/tutorkhata/khata_server/internal/service"
)

type TeacherHandler struct {
	teacherService *service.TeacherService
}

func NewTeacherHandler(teacherService *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{teacherService: teacherService}
}

// AvailableFeeDays GET /api/teachers/available_fee_days/
func (h *TeacherHandler) AvailableFeeDays(c *gin.Context) {
	days, err := h.teacherService.AvailableFeeDays(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, dto.AvailableFeeDaysResponse{Days: days})
}

// Me GET /api/teachers/me/
func (h *TeacherHandler) Me(c *gin.Context) {
	teacherID, ok := currentTeacher(c)
	if !ok {
		return
	}

	profile, err := h.teacherService.GetProfile(c.Request.Context(), teacherID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, profile)
}

// UpdateMe PATCH /api/teachers/me/
func (h *TeacherHandler) UpdateMe(c *gin.Context) {
	teacherID, ok := currentTeacher(c)
	if !ok {
		return
	}

	var req dto.UpdateTeacherRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	profile, err := h.teacherService.UpdateProfile(c.Request.Context(), teacherID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMessage(c, "Profile updated", profile)
}

// List GET /api/teachers/?search=&page=&page_size=
func (h *TeacherHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))

	result, err := h.teacherService.List(c.Request.Context(), c.Query("search"), page, pageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessPage(c, result.Total, result.Page, result.PageSize, result.Items)
}

// Get GET /api/teachers/:id/
func (h *TeacherHandler) Get(c *gin.Context) {
	id, ok := pathID(c, service.ErrTeacherNotFound)
	if !ok {
		return
	}

	teacher, err := h.teacherService.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, teacher)
}
