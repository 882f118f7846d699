package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pdf-page-api/internal/models"
	appErrors "github.com/noah-isme/pdf-page-api/pkg/errors"
	"github.com/noah-isme/pdf-page-api/pkg/response"
)

// ContextAdminKey is the gin context key storing admin claims.
const ContextAdminKey = "currentAdmin"

type tokenValidator interface {
	ValidateToken(token string) (*models.AdminClaims, error)
}

// JWT protects routes by requiring a valid admin bearer token.
func JWT(auth tokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.AbortWithError(c, appErrors.ErrUnauthorized)
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.AbortWithError(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			return
		}

		claims, err := auth.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.AbortWithError(c, err)
			return
		}

		c.Set(ContextAdminKey, claims)
		c.Next()
	}
}

// AdminFromContext returns the claims set by JWT, or nil.
func AdminFromContext(c *gin.Context) *models.AdminClaims {
	value, exists := c.Get(ContextAdminKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.AdminClaims)
	return claims
}
