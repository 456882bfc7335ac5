package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/ArowuTest/daily-lottery-backend/pkg/jwt"
)

// Context keys set by JWTAuthMiddleware
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
)

// JWTAuthMiddleware creates a gin middleware for JWT authentication.
func JWTAuthMiddleware(tokens *jwt.TokenService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const BearerSchema = "Bearer "
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		if !strings.HasPrefix(authHeader, BearerSchema) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer "})
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(authHeader[len(BearerSchema):]))
		if err != nil {
			log.WithError(err).WithField("path", c.Request.URL.Path).Warn("token rejected")
			if errors.Is(err, jwtlib.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextUsername, claims.Username)
		c.Next()
	}
}

// AdminOnly lets through only the configured admin usernames. It must run
// after JWTAuthMiddleware.
func AdminOnly(usernames []string) gin.HandlerFunc {
	admins := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		admins[u] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := admins[c.GetString(ContextUsername)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin privileges required"})
			return
		}
		c.Next()
	}
}
