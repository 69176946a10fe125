package routes

import (
	"net/http"

	"go-campaign-api/src/infrastructure/di"

	"github.com/gin-gonic/gin"
)

func ApplicationRouter(router *gin.Engine, appContext *di.ApplicationContext) {
	v1 := router.Group("/v1")

	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Service is running",
		})
	})

	ChannelRoutes(v1, appContext.ChannelController)
	CampaignRoutes(v1, appContext.CampaignController)
	WebhookRoutes(v1, appContext.WebhookController)
}
