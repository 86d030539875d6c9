package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/calebchiang/repcoach_server/controllers"
)

func ConversationRoutes(api *gin.RouterGroup, ctl *controllers.Controller) {
	conversations := api.Group("/conversations")
	{
		conversations.GET("", ctl.GetConversations)
		conversations.POST("", ctl.CreateConversation)
		conversations.GET("/:id/messages", ctl.GetMessages)
		conversations.POST("/:id/messages", ctl.PostMessage)
		conversations.POST("/:id/voice", ctl.PostVoiceMessage)
		conversations.POST("/:id/feedback", ctl.GenerateFeedback)
	}
}
