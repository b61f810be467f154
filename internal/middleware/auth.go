package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoParadex/paragate/internal/config"
)

const apiKeyHeader = "X-API-Key"

// AuthMiddleware guards the gateway's local surface with a static API
// key. This is gateway access control, unrelated to the StarkNet
// signatures sent upstream.
func AuthMiddleware(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.RequireAPIKey {
			c.Next()
			return
		}
		provided := c.GetHeader(apiKeyHeader)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.APIKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing API key"})
			return
		}
		c.Next()
	}
}
