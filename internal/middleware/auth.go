package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/BeArt-PDD/beart-labs/internal/services"
)

// Context keys set by RequireAuth / OptionalAuth
const (
	ContextUserAddress = "user_address"
	ContextChainID     = "chain_id"
	ContextClaims      = "session_claims"
)

// TokenValidator checks a session token. *services.SessionService implements it.
type TokenValidator interface {
	Validate(token string) (*services.SessionClaims, error)
}

// AuthMiddleware JWT session middleware
type AuthMiddleware struct {
	logger    *logrus.Logger
	validator TokenValidator
}

// NewAuthMiddleware create JWT session middleware
func NewAuthMiddleware(logger *logrus.Logger, validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		logger:    logger,
		validator: validator,
	}
}

func (a *AuthMiddleware) reject(c *gin.Context, reason, errMsg, message, code string) {
	a.logger.WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).Warn("JWT auth failed - " + reason)

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   errMsg,
		"message": message,
		"code":    code,
	})
}

// RequireAuth rejects requests without a valid Bearer session token
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			a.reject(c, "missing Authorization header", "Authentication required",
				"Missing Authorization header. Please provide a valid JWT token.", "MISSING_AUTH_HEADER")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			a.reject(c, "bad Authorization format", "Invalid authorization format",
				"Authorization header must be in format: Bearer <token>", "INVALID_AUTH_FORMAT")
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			a.reject(c, "empty token", "Empty token", "Token cannot be empty", "EMPTY_TOKEN")
			return
		}

		claims, err := a.validator.Validate(tokenString)
		if err != nil {
			a.reject(c, "token verification failed", "Invalid or expired token", err.Error(), "INVALID_TOKEN")
			return
		}

		setClaims(c, claims)
		a.logger.WithFields(logrus.Fields{
			"path":         c.Request.URL.Path,
			"method":       c.Request.Method,
			"user_address": claims.Address,
			"chain_id":     claims.ChainID,
		}).Debug("JWT auth success")

		c.Next()
	}
}

// OptionalAuth attaches session claims when a valid token is present and
// lets every request through.
func (a *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.Next()
			return
		}

		claims, err := a.validator.Validate(strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")))
		if err != nil {
			a.logger.WithFields(logrus.Fields{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			}).Debug("Optional JWT auth ignored invalid token")
			c.Next()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

func setClaims(c *gin.Context, claims *services.SessionClaims) {
	c.Set(ContextUserAddress, claims.Address)
	c.Set(ContextChainID, claims.ChainID)
	c.Set(ContextClaims, claims)
}
