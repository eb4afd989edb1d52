package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Business codes carried in the envelope next to the HTTP status.
const (
	CodeSuccess          = 0
	CodeParamError       = 1000
	CodeAuthFailed       = 1001
	CodeResourceNotFound = 1003
	CodeFeatureDenied    = 1004
	CodeConflict         = 1005
	CodeUnavailable      = 1006
	CodeServerError      = 5000
)

var codeMessages = map[int]string{
	CodeSuccess:          "success",
	CodeParamError:       "invalid parameters",
	CodeAuthFailed:       "authentication credentials were not provided or are invalid",
	CodeResourceNotFound: "not found",
	CodeFeatureDenied:    "feature not available",
	CodeConflict:         "conflict",
	CodeUnavailable:      "service temporarily unavailable",
	CodeServerError:      "internal server error",
}

// Response is the envelope of every JSON reply.
type Response struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
	Data    interface{}       `json:"data"`
}

// PageData wraps one page of a list.
type PageData struct {
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Items    interface{} `json:"items"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: CodeSuccess, Message: "success", Data: data})
}

func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: CodeSuccess, Message: message, Data: data})
}

func SuccessPage(c *gin.Context, total int64, page, pageSize int, items interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data: PageData{
			Total:    total,
			Page:     page,
			PageSize: pageSize,
			Items:    items,
		},
	})
}

// Created answers 201.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: CodeSuccess, Message: "created", Data: data})
}

// Error writes an error envelope; an empty message falls back to the code's default.
func Error(c *gin.Context, status, code int, message string) {
	if message == "" {
		message = codeMessages[code]
	}
	c.JSON(status, Response{Code: code, Message: message})
}

// ValidationError reports field level problems as {"errors": {"field": "msg"}}.
func ValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    CodeParamError,
		Message: codeMessages[CodeParamError],
		Errors:  fields,
	})
}

func AuthError(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, CodeAuthFailed, message)
}

func NotFoundError(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, CodeResourceNotFound, message)
}

// FeatureDenied answers 403 and still returns the decision body.
func FeatureDenied(c *gin.Context, message string, decision interface{}) {
	if message == "" {
		message = codeMessages[CodeFeatureDenied]
	}
	c.JSON(http.StatusForbidden, Response{Code: CodeFeatureDenied, Message: message, Data: decision})
}

// ConflictError is a 400 for state conflicts such as a second subscription.
func ConflictError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeConflict, message)
}

func UnavailableError(c *gin.Context, message string) {
	Error(c, http.StatusServiceUnavailable, CodeUnavailable, message)
}

// ServerError never exposes the underlying cause.
func ServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, CodeServerError, "")
}
