package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/pdf-page-api/pkg/errors"
	"github.com/noah-isme/pdf-page-api/pkg/response"
)

type readiness interface {
	Ready() bool
}

// RequireReady answers 503 until gate reports ready.
func RequireReady(gate readiness) gin.HandlerFunc {
	return func(c *gin.Context) {
		if gate != nil && !gate.Ready() {
			c.Header("Retry-After", "1")
			response.AbortWithError(c, appErrors.ErrNotReady)
			return
		}
		c.Next()
	}
}
