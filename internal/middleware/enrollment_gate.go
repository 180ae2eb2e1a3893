package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/eduboost-api/internal/models"
	appErrors "github.com/noah-isme/eduboost-api/pkg/errors"
	"github.com/noah-isme/eduboost-api/pkg/response"
)

// ContextEnrollmentKey stores the enrollment that admitted a student request.
const ContextEnrollmentKey = "currentEnrollment"

// AccessChecker decides whether a student currently holds a usable enrollment.
type AccessChecker interface {
	CheckAccess(ctx context.Context, studentID string) (*models.Enrollment, error)
}

// EnrollmentGate blocks students without a usable enrollment with 402 Payment
// Required. Staff and mentors pass through untouched.
func EnrollmentGate(checker AccessChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Principal(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if claims.Role != models.RoleStudent {
			c.Next()
			return
		}

		enrollment, err := checker.CheckAccess(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextEnrollmentKey, enrollment)
		c.Next()
	}
}
