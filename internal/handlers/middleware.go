// Package handlers contains the HTTP handlers, middleware and routing.
package handlers

import (
	"net/http"
	"strings"

	"github.com/BosskingGM/office-gama/internal/core/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ctxBuyerID    = "buyer_id"
	ctxBuyerEmail = "buyer_email"
	ctxRole       = "role"

	roleAdmin = "admin"
)

// CORSMiddleware handles Cross-Origin Resource Sharing for the storefront origins.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowed["*"] || allowed[origin] {
			if allowed["*"] {
				origin = "*"
			}
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware adds a unique request ID to each request.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// AuthGuard validates an HS256 bearer token and, when roles are given,
// requires the "role" claim to be one of them. The subject becomes the buyer id.
func AuthGuard(secret string, allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			abortUnauthorized(c, "Authorization header required")
			return
		}

		parts := strings.SplitN(raw, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "Invalid authorization format")
			return
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid || secret == "" {
			abortUnauthorized(c, "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "Invalid token")
			return
		}
		subject, _ := claims.GetSubject()
		if subject == "" {
			abortUnauthorized(c, "Token has no subject")
			return
		}

		role, _ := claims["role"].(string)
		if len(allowedRoles) > 0 && !contains(allowedRoles, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Success: false,
				Error:   "Forbidden",
				Code:    "FORBIDDEN",
			})
			return
		}

		email, _ := claims["email"].(string)
		c.Set(ctxBuyerID, subject)
		c.Set(ctxBuyerEmail, email)
		c.Set(ctxRole, role)
		c.Next()
	}
}

// AdminAuth only lets operators through.
func AdminAuth(secret string) gin.HandlerFunc {
	return AuthGuard(secret, roleAdmin)
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Abort()
	handleServiceError(c, domain.NewServiceError(domain.ErrUnauthorized, msg, "UNAUTHORIZED"))
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
