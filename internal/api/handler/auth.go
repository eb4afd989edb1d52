package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/tutorkhata/khata_server/internal/model/dto"
	"github.com/tutorkhata/khata_server/internal/pkg/response"
	"github.com/tutorkhata/khata_server/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register POST /api/auth/register/
// Creates the user and its teacher profile on the earliest fee day with capacity.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, resp)
}

// Login POST /api/auth/login/
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrTeacherNotFound) {
			response.AuthError(c, service.ErrInvalidCredentials.Error())
			return
		}
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "Logged in", resp)
}
