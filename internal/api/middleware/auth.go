package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tutorkhata/khata_server/internal/model"
	"github.com/tutorkhata/khata_server/internal/pkg/jwt"
	"github.com/tutorkhata/khata_server/internal/pkg/response"
)

const (
	UserIDKey    = "userID"
	TeacherIDKey = "teacherID"
)

// Auth JWT bearer authentication
func Auth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AuthError(c, "Authentication credentials were not provided.")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			response.AuthError(c, "Authorization header must use the Bearer scheme.")
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(tokenString, jwtSecret)
		if err != nil {
			response.AuthError(c, "Given token not valid or expired.")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

// TeacherResolver finds the teacher owned by a user.
type TeacherResolver interface {
	GetByUserID(ctx context.Context, userID int64) (*model.Teacher, error)
}

// ResolveTeacher maps the authenticated user to its teacher. Users without one are rejected like anonymous ones.
func ResolveTeacher(resolver TeacherResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		teacher, err := resolver.GetByUserID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				response.AuthError(c, "No teacher profile for this account.")
			} else {
				_ = c.Error(err)
				response.ServerError(c)
			}
			c.Abort()
			return
		}

		c.Set(TeacherIDKey, teacher.ID)
		c.Next()
	}
}

// GetUserID user id set by Auth
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(int64)
	return id, ok
}

// GetTeacherID teacher id set by ResolveTeacher
func GetTeacherID(c *gin.Context) (int64, bool) {
	teacherID, exists := c.Get(TeacherIDKey)
	if !exists {
		return 0, false
	}
	id, ok := teacherID.(int64)
	return id, ok
}
