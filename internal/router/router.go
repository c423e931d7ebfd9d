package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/BeArt-PDD/beart-labs/internal/config"
	"github.com/BeArt-PDD/beart-labs/internal/handlers"
	"github.com/BeArt-PDD/beart-labs/internal/middleware"
)

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, Accept, X-Request-ID"
)

// corsMiddleware CORS middleware. The origin list is already resolved by
// config (environment > YAML); an empty list allows all origins.
func corsMiddleware(cors config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cors.AllowedOrigins
	allowCredentials := cors.AllowCredentials
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
		allowCredentials = false
	}
	allowAll := len(allowedOrigins) == 1 && allowedOrigins[0] == "*"

	maxAge := 3600
	if cors.MaxAge > 0 {
		maxAge = cors.MaxAge
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if allowAll {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" {
			allowed := false
			for _, allowedOrigin := range allowedOrigins {
				if strings.TrimSpace(allowedOrigin) == origin {
					allowed = true
					break
				}
			}
			if allowed {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			} else {
				logrus.WithFields(logrus.Fields{
					"request_origin":  origin,
					"allowed_origins": allowedOrigins,
					"path":            c.Request.URL.Path,
					"method":          c.Request.Method,
				}).Warn("🚫 CORS: Request blocked - Origin not in whitelist")
			}
		}

		c.Header("Access-Control-Allow-Methods", corsAllowMethods)
		c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
		if allowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Max-Age", strconv.Itoa(maxAge))

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Header("Access-Control-Expose-Headers", "Content-Length, Content-Type, X-Request-ID")
		c.Next()
	}
}

// Dependencies are the handlers and middleware the routes are built from
type Dependencies struct {
	Config      *config.Config
	Logger      *logrus.Logger
	AuthHandler *handlers.AuthHandler
	Auth        *middleware.AuthMiddleware
	Sweeper     handlers.Sweeper
	// Health reports backend readiness; nil means always healthy.
	Health func() error
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(corsMiddleware(deps.Config.CORS))

	if len(deps.Config.Admin.AllowedIPs) > 0 {
		deps.Logger.WithFields(logrus.Fields{
			"allowed_ips": deps.Config.Admin.AllowedIPs,
			"count":       len(deps.Config.Admin.AllowedIPs),
		}).Info("Admin API IP whitelist configured")
	}
	localhostOnly := middleware.NewLocalhostOnly(deps.Logger, deps.Config.Admin.AllowedIPs)

	// ============ Health Check ============
	r.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			if err := deps.Health(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "degraded",
					"service": "siwe",
					"error":   err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "siwe",
		})
	})

	// ============ Prometheus Metrics ============
	r.GET("/metrics", localhostOnly.Restrict(), gin.WrapH(promhttp.Handler()))

	// ============ Sign-In with Ethereum ============
	auth := r.Group("/api/auth")
	{
		auth.GET("/nonce", deps.Auth.OptionalAuth(), deps.AuthHandler.GenerateNonceHandler)
		auth.POST("/siwe/message", deps.AuthHandler.PrepareMessageHandler)
		auth.POST("/siwe/verify", deps.AuthHandler.VerifyHandler)
		auth.GET("/me", deps.Auth.RequireAuth(), deps.AuthHandler.MeHandler)
	}

	// ============ Admin (IP whitelist) ============
	admin := r.Group("/admin", localhostOnly.Restrict())
	{
		admin.POST("/nonces/sweep", handlers.SweepNoncesHandler(deps.Sweeper))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"message": "API endpoint not found",
			"path":    c.Request.URL.Path,
		})
	})

	return r
}
