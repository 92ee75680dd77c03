package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// RequireRole lets a request through only when the customer token carries one
// of roleIDs. It must run after the customer auth middleware. Guests get 401,
// customers without the role 403.
func RequireRole(log *zap.Logger, roleIDs ...int) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			abortUnauthorized(c, nil)
			return
		}

		for _, id := range roleIDs {
			if claims.HasRole(id) {
				c.Next()
				return
			}
		}

		log.Debug("Role check failed",
			zap.Int("customer_id", claims.CustomerID),
			zap.Ints("required_any", roleIDs),
			zap.Ints("customer_roles", claims.RoleIDs),
		)
		c.AbortWithStatusJSON(http.StatusForbidden,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Customer lacks the required role", GetRequestID(c)))
	}
}
