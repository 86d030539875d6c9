package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calebchiang/repcoach_server/apperr"
	"github.com/calebchiang/repcoach_server/middleware"
	"github.com/calebchiang/repcoach_server/models"
	"github.com/calebchiang/repcoach_server/services"
)

// ownedConversation loads the conversation and hides other users' ones.
func (ctl *Controller) ownedConversation(c *gin.Context) (*models.Conversation, bool) {
	id := c.Param("id")
	conv, err := ctl.Store.GetConversationMeta(c.Request.Context(), id)
	if err == nil && conv.UserID != middleware.UserID(c) {
		err = &apperr.NotFoundError{Entity: "conversation", ID: id}
	}
	if err != nil {
		ctl.respondError(c, err)
		return nil, false
	}
	return conv, true
}

func (ctl *Controller) GetConversations(c *gin.Context) {
	convs, err := ctl.Store.ListConversations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		ctl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, convs)
}

func (ctl *Controller) CreateConversation(c *gin.Context) {
	var input struct {
		ScenarioID     string          `json:"scenario_id"`
		Persona        json.RawMessage `json:"persona"`
		InitialMessage string          `json:"initial_message"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if input.ScenarioID == "" || len(input.Persona) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scenario_id and persona are required"})
		return
	}

	persona, problems, err := decodePersona(input.Persona)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid persona"})
		return
	}
	if len(problems) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid persona", "problems": problems})
		return
	}

	result, err := ctl.Conversations.CreateConversation(c.Request.Context(), services.CreateConversationInput{
		UserID:         middleware.UserID(c),
		ScenarioID:     input.ScenarioID,
		Persona:        *persona,
		InitialMessage: input.InitialMessage,
	})
	if err != nil {
		ctl.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (ctl *Controller) GetMessages(c *gin.Context) {
	conv, ok := ctl.ownedConversation(c)
	if !ok {
		return
	}

	msgs, err := ctl.Store.GetMessages(c.Request.Context(), conv.ID)
	if err != nil {
		ctl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, msgs)
}

func (ctl *Controller) PostMessage(c *gin.Context) {
	var input struct {
		Content string `json:"content"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	conv, ok := ctl.ownedConversation(c)
	if !ok {
		return
	}

	reply, err := ctl.Conversations.PostMessage(c.Request.Context(), conv.ID, input.Content)
	if err != nil {
		ctl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assistant_reply": reply})
}

func (ctl *Controller) PostVoiceMessage(c *gin.Context) {
	if ctl.Voice == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Voice messages are not enabled"})
		return
	}

	audio, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}

	conv, ok := ctl.ownedConversation(c)
	if !ok {
		return
	}

	reply, err := ctl.Voice.PostAudio(c.Request.Context(), conv.ID, audio)
	if err != nil {
		ctl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reply)
}

func (ctl *Controller) GenerateFeedback(c *gin.Context) {
	conv, ok := ctl.ownedConversation(c)
	if !ok {
		return
	}

	result, err := ctl.Feedback.Generate(c.Request.Context(), conv.ID)
	if err != nil {
		ctl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
