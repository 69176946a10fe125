package routes

import (
	"go-campaign-api/src/infrastructure/rest/controllers/webhook"
	"go-campaign-api/src/infrastructure/rest/middlewares"

	"github.com/gin-gonic/gin"
)

func WebhookRoutes(router *gin.RouterGroup, controller webhook.IWebhookController) {
	webhookRoute := router.Group("/webhooks")
	webhookRoute.Use(middlewares.WebhookAuthMiddleware())
	{
		webhookRoute.POST("/status", controller.StatusCallback)
	}
}
