package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/calebchiang/repcoach_server/models"
)

// ========== Scenarios ==========

func (ctl *Controller) GetScenarios(c *gin.Context) {
	scenarios, err := ctl.Store.ListScenarios(c.Request.Context())
	if err != nil {
		ctl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, scenarios)
}

func (ctl *Controller) GetScenario(c *gin.Context) {
	scenario, err := ctl.Store.GetScenario(c.Request.Context(), c.Param("id"))
	if err != nil {
		ctl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, scenario)
}

func (ctl *Controller) SaveScenario(c *gin.Context) {
	var input struct {
		ID          string   `json:"id"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Context     string   `json:"context"`
		Objectives  []string `json:"objectives"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if input.ID == "" || input.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id and title are required"})
		return
	}

	scenario := &models.Scenario{
		ID:          input.ID,
		Title:       input.Title,
		Description: input.Description,
		Context:     input.Context,
	}
	if err := ctl.Store.SaveScenario(c.Request.Context(), scenario, input.Objectives); err != nil {
		ctl.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, scenario)
}

func (ctl *Controller) ReplaceObjectives(c *gin.Context) {
	var input struct {
		Objectives []string `json:"objectives"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := ctl.Store.ReplaceObjectives(c.Request.Context(), c.Param("id"), input.Objectives); err != nil {
		ctl.respondError(c, err)
		return
	}

	ctl.GetScenario(c)
}

func (ctl *Controller) DeleteScenario(c *gin.Context) {
	if err := ctl.Store.DeleteScenario(c.Request.Context(), c.Param("id")); err != nil {
		ctl.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ========== Prompt templates ==========

func promptKind(c *gin.Context) (string, bool) {
	kind := strings.ToLower(c.Param("kind"))
	if !models.ValidPromptKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be system, persona or feedback"})
		return "", false
	}
	return kind, true
}

func (ctl *Controller) GetPromptTemplate(c *gin.Context) {
	kind, ok := promptKind(c)
	if !ok {
		return
	}

	scope := c.DefaultQuery("scope", ctl.defaultScope())
	tmpl, err := ctl.Store.GetPromptTemplate(c.Request.Context(), kind, scope)
	if err != nil {
		ctl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tmpl)
}

func (ctl *Controller) SavePromptTemplate(c *gin.Context) {
	kind, ok := promptKind(c)
	if !ok {
		return
	}

	var input struct {
		Scope   string `json:"scope"`
		Content string `json:"content"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if strings.TrimSpace(input.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	if input.Scope == "" {
		input.Scope = ctl.defaultScope()
	}

	tmpl := &models.PromptTemplate{Kind: kind, ScopeID: input.Scope, Content: input.Content}
	if err := ctl.Store.SavePromptTemplate(c.Request.Context(), tmpl); err != nil {
		ctl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tmpl)
}
