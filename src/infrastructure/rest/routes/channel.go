package routes

import (
	"go-campaign-api/src/infrastructure/rest/controllers/channel"
	"go-campaign-api/src/infrastructure/rest/middlewares"

	"github.com/gin-gonic/gin"
)

func ChannelRoutes(router *gin.RouterGroup, controller channel.IChannelController) {
	channelRoute := router.Group("/channels")
	channelRoute.Use(middlewares.AuthJWTMiddleware())
	{
		channelRoute.POST("", controller.Create)
		channelRoute.GET("", controller.List)
		channelRoute.GET("/:id", controller.GetByID)
	}
}
