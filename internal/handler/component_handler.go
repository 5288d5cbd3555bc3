package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/railtix/internal/service"
)

type componentPayload struct {
	Type      string `json:"type" binding:"required"`
	Position  *int   `json:"position"`
	IsEnabled *bool  `json:"isEnabled"`
	service.ComponentFields
}

func (p componentPayload) toInput() service.ComponentInput {
	return service.ComponentInput{
		Type:      p.Type,
		Position:  p.Position,
		IsEnabled: boolOrDefault(p.IsEnabled, true),
		Fields:    p.ComponentFields,
	}
}

func (a *API) pageAndComponentIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	pageID, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	componentID, err := parseUUIDParam(c, "componentId")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	return pageID, componentID, true
}

func (a *API) ListComponents(c *gin.Context) {
	pageID, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	components, err := a.components.List(c.Request.Context(), pageID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	editable := make([]service.EditableComponent, 0, len(components))
	for _, component := range components {
		editable = append(editable, a.components.MapToEditable(component))
	}
	c.JSON(http.StatusOK, gin.H{"components": editable})
}

func (a *API) GetComponent(c *gin.Context) {
	pageID, componentID, ok := a.pageAndComponentIDs(c)
	if !ok {
		return
	}

	component, err := a.components.Get(c.Request.Context(), pageID, componentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"component": a.components.MapToEditable(*component)})
}

func (a *API) CreateComponent(c *gin.Context) {
	pageID, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload componentPayload
	if !bindJSON(c, &payload, "invalid component payload") {
		return
	}

	component, err := a.components.Create(c.Request.Context(), pageID, payload.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"component": a.components.MapToEditable(*component)})
}

func (a *API) UpdateComponent(c *gin.Context) {
	pageID, componentID, ok := a.pageAndComponentIDs(c)
	if !ok {
		return
	}

	var payload componentPayload
	if !bindJSON(c, &payload, "invalid component payload") {
		return
	}

	component, err := a.components.Edit(c.Request.Context(), pageID, componentID, payload.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"component": a.components.MapToEditable(*component)})
}

func (a *API) DeleteComponent(c *gin.Context) {
	pageID, componentID, ok := a.pageAndComponentIDs(c)
	if !ok {
		return
	}

	if err := a.components.Delete(c.Request.Context(), pageID, componentID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
