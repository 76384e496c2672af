package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/jemaltech/app2automate/helper"
	"github.com/jemaltech/app2automate/models"
	"github.com/jemaltech/app2automate/services"
)

const principalKey = "principal"

type Claims struct {
	UserID uint            `json:"user_id"`
	Login  string          `json:"login"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware verifies the bearer token and stores the caller's
// services.Principal on the context.
func AuthMiddleware(h *helper.HTTPHelper, secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			h.SendUnauthorizedError(c, "Authorization header required", h.EmptyJsonMap())
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			h.SendUnauthorizedError(c, "Bearer token required", h.EmptyJsonMap())
			c.Abort()
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil {
			h.SendUnauthorizedError(c, "Invalid token: "+err.Error(), h.EmptyJsonMap())
			c.Abort()
			return
		}

		if !token.Valid || claims.UserID == 0 {
			h.SendUnauthorizedError(c, "Token is not valid", h.EmptyJsonMap())
			c.Abort()
			return
		}

		c.Set(principalKey, services.Principal{
			UserID: claims.UserID,
			Login:  claims.Login,
			Role:   claims.Role,
		})

		c.Next()
	}
}

// PrincipalFrom returns the principal stored by AuthMiddleware.
func PrincipalFrom(c *gin.Context) (services.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return services.Principal{}, false
	}
	p, ok := v.(services.Principal)
	return p, ok
}

func RequireRole(h *helper.HTTPHelper, roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, exists := PrincipalFrom(c)
		if !exists {
			h.SendUnauthorizedError(c, "User role not found", h.EmptyJsonMap())
			c.Abort()
			return
		}

		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}

		h.SendError(c, "Insufficient permissions", h.EmptyJsonMap(), 403, `forbidden`, 403)
		c.Abort()
	}
}
