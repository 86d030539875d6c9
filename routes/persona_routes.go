package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/calebchiang/repcoach_server/controllers"
)

func PersonaRoutes(api *gin.RouterGroup, ctl *controllers.Controller) {
	personas := api.Group("/personas")
	{
		personas.POST("/generate", ctl.GeneratePersona)
		personas.GET("/:id", ctl.GetPersona)
		personas.PUT("/:id", ctl.UpsertPersona)
	}
}

func AdminRoutes(api *gin.RouterGroup, ctl *controllers.Controller) {
	scenarios := api.Group("/scenarios")
	{
		scenarios.GET("", ctl.GetScenarios)
		scenarios.POST("", ctl.SaveScenario)
		scenarios.GET("/:id", ctl.GetScenario)
		scenarios.DELETE("/:id", ctl.DeleteScenario)
		scenarios.PUT("/:id/objectives", ctl.ReplaceObjectives)
	}

	prompts := api.Group("/prompts")
	{
		prompts.GET("/:kind", ctl.GetPromptTemplate)
		prompts.PUT("/:kind", ctl.SavePromptTemplate)
	}
}
