package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tutorkhata/khata_server/internal/pkg/response"
	"github.com/tutorkhata/khata_server/internal/service"
)

// FeatureEvaluator answers entitlement questions.
type FeatureEvaluator interface {
	Evaluate(ctx context.Context, teacherID int64, featureCode string) (*service.Decision, error)
}

// RequireFeature stops the request unless the teacher may use the feature named by
// the :feature_code path parameter. Unknown features answer 404, denials 403 with the decision.
func RequireFeature(evaluator FeatureEvaluator) gin.HandlerFunc {
	return func(c *gin.Context) {
		teacherID, ok := GetTeacherID(c)
		if !ok {
			response.AuthError(c, "")
			c.Abort()
			return
		}

		decision, err := evaluator.Evaluate(c.Request.Context(), teacherID, c.Param("feature_code"))
		if err != nil {
			_ = c.Error(err)
			response.ServerError(c)
			c.Abort()
			return
		}

		if decision.Reason == service.ReasonFeatureNotFound {
			response.NotFoundError(c, decision.Reason)
			c.Abort()
			return
		}
		if !decision.CanUse {
			response.FeatureDenied(c, decision.Reason, decision)
			c.Abort()
			return
		}

		c.Next()
	}
}
