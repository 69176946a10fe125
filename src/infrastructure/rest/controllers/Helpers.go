package controllers

import (
	"bytes"
	"io"

	"github.com/gin-gonic/gin"
)

// BindJSON binds the request body to the target struct while keeping the body
// readable for handlers that need a second pass over it
func BindJSON(c *gin.Context, request any) error {
	buf := make([]byte, 5120)
	num, _ := c.Request.Body.Read(buf)
	reqBody := buf[0:num]
	c.Request.Body = io.NopCloser(bytes.NewBuffer(reqBody))
	return c.ShouldBindJSON(request)
}

// ExtractTenantID returns the tenant id the auth middleware resolved for this
// request. Handlers behind the middleware can rely on it being present.
func ExtractTenantID(c *gin.Context) int {
	tenantID, ok := c.Get("tenantID")
	if !ok {
		return 0
	}
	id, _ := tenantID.(int)
	return id
}
