package routes

import (
	"go-campaign-api/src/infrastructure/rest/controllers/campaign"
	"go-campaign-api/src/infrastructure/rest/middlewares"

	"github.com/gin-gonic/gin"
)

func CampaignRoutes(router *gin.RouterGroup, controller campaign.ICampaignController) {
	campaignRoute := router.Group("/campaigns")
	campaignRoute.Use(middlewares.AuthJWTMiddleware())
	{
		campaignRoute.POST("", controller.Create)
		campaignRoute.GET("", controller.List)
		campaignRoute.GET("/:id", controller.GetByID)
		campaignRoute.POST("/:id/start", controller.Start)
		campaignRoute.POST("/:id/pause", controller.Pause)
		campaignRoute.POST("/:id/resume", controller.Resume)
		campaignRoute.POST("/:id/cancel", controller.Cancel)
		campaignRoute.GET("/:id/stats", controller.Stats)
		campaignRoute.GET("/:id/recipients", controller.Recipients)
	}
}
