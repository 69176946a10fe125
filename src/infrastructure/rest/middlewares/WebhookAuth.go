package middlewares

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// WebhookAuthMiddleware guards the provider callback endpoint with a shared
// secret. When PROVIDER_WEBHOOK_SECRET is unset the endpoint is open, which
// is only acceptable for local development.
func WebhookAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := os.Getenv("PROVIDER_WEBHOOK_SECRET")
		if secret == "" {
			c.Next()
			return
		}
		token := c.GetHeader("X-Webhook-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook token"})
			c.Abort()
			return
		}
		c.Next()
	}
}
