package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calebchiang/repcoach_server/extract"
	"github.com/calebchiang/repcoach_server/models"
)

// decodePersona checks client-supplied persona JSON against the same contract
// the model's output has to meet.
func decodePersona(raw json.RawMessage) (*models.Persona, []string, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, nil, err
	}

	if problems := extract.Persona.Validate(obj); len(problems) > 0 {
		return nil, problems, nil
	}

	// Re-encode so whole floats such as 52.0 decode into Age.
	normalized, err := json.Marshal(obj)
	if err != nil {
		return nil, nil, err
	}

	var p models.Persona
	if err := json.Unmarshal(normalized, &p); err != nil {
		return nil, nil, err
	}
	return &p, nil, nil
}

func (ctl *Controller) GeneratePersona(c *gin.Context) {
	persona, err := ctl.Personas.Generate(c.Request.Context())
	if err != nil {
		ctl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, persona)
}

func (ctl *Controller) GetPersona(c *gin.Context) {
	persona, err := ctl.Store.GetPersona(c.Request.Context(), c.Param("id"))
	if err != nil {
		ctl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, persona)
}

func (ctl *Controller) UpsertPersona(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	persona, problems, err := decodePersona(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(problems) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid persona", "problems": problems})
		return
	}

	// The path wins over any id in the body.
	persona.ID = c.Param("id")

	if err := ctl.Store.UpsertPersona(c.Request.Context(), persona); err != nil {
		ctl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, persona)
}
