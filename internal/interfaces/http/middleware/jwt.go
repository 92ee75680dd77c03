package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey     = "jwt_claims"
	JWTCustomerIDKey = "jwt_customer_id"
	JWTRoleIDsKey    = "jwt_role_ids"
	JWTStoreIDKey    = "jwt_store_id"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
)

// CustomerAuthConfig holds configuration for the customer token middleware
type CustomerAuthConfig struct {
	JWTService *auth.JWTService
	// Optional lets requests without a usable token through as guests.
	// Without it a missing or invalid token is answered with 401.
	Optional bool
	// SkipPaths are paths that are never authenticated
	SkipPaths []string
	Logger    *zap.Logger
}

// OptionalCustomerAuth extracts customer claims when a valid bearer token is
// present and treats every other request as a guest
func OptionalCustomerAuth(jwtService *auth.JWTService, log *zap.Logger) gin.HandlerFunc {
	return CustomerAuthWithConfig(CustomerAuthConfig{
		JWTService: jwtService,
		Optional:   true,
		SkipPaths:  []string{"/health"},
		Logger:     log,
	})
}

// CustomerAuthWithConfig creates the customer token middleware
func CustomerAuthWithConfig(cfg CustomerAuthConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		for _, skip := range cfg.SkipPaths {
			if c.Request.URL.Path == skip {
				c.Next()
				return
			}
		}

		tokenString, ok := bearerToken(c.GetHeader(AuthHeaderKey))
		if !ok {
			if cfg.Optional {
				c.Next()
				return
			}
			abortUnauthorized(c, auth.ErrInvalidToken)
			return
		}

		claims, err := cfg.JWTService.ValidateToken(tokenString)
		if err != nil {
			cfg.Logger.Debug("Customer token rejected",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			if cfg.Optional {
				c.Next()
				return
			}
			abortUnauthorized(c, err)
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTCustomerIDKey, claims.CustomerID)
		c.Set(JWTRoleIDsKey, claims.RoleIDs)
		if claims.StoreID > 0 {
			c.Set(JWTStoreIDKey, claims.StoreID)
		}

		ctx := c.Request.Context()
		log := logger.FromContext(ctx)
		ctx, log = logger.WithCustomerID(ctx, log, claims.CustomerID)
		if claims.StoreID > 0 {
			ctx, _ = logger.WithStoreID(ctx, log, claims.StoreID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, err error) {
	code := dto.ErrCodeUnauthorized
	message := "Authentication required"

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code = dto.ErrCodeTokenExpired
		message = "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		code = dto.ErrCodeTokenInvalid
		message = "Token is not yet valid"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims), errors.Is(err, auth.ErrMissingCustomer):
		code = dto.ErrCodeTokenInvalid
		message = "Invalid token"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetJWTClaims retrieves the customer claims, nil for guests
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetCustomerID returns the authenticated customer, nil for guests
func GetCustomerID(c *gin.Context) *int {
	if v, exists := c.Get(JWTCustomerIDKey); exists {
		if id, ok := v.(int); ok && id > 0 {
			return &id
		}
	}
	return nil
}

// GetCustomerRoleIDs returns the role IDs of the customer, nil for guests
func GetCustomerRoleIDs(c *gin.Context) []int {
	if v, exists := c.Get(JWTRoleIDsKey); exists {
		if ids, ok := v.([]int); ok {
			return ids
		}
	}
	return nil
}

// GetStoreID returns the store of the customer token, 0 when unknown
func GetStoreID(c *gin.Context) int {
	return c.GetInt(JWTStoreIDKey)
}
