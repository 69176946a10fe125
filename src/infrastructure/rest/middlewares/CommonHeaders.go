package middlewares

import "github.com/gin-gonic/gin"

// CommonHeaders sets the response headers every endpoint shares
func CommonHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")
	c.Header("Cache-Control", "no-store")
	c.Next()
}
