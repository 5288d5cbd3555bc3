package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/railtix/internal/service"
)

type reservedRoutePayload struct {
	Segment  string `json:"segment" binding:"required,max=100"`
	IsActive *bool  `json:"isActive"`
}

func (a *API) GetReservedRoutes(c *gin.Context) {
	routes, err := a.reserved.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"routes": routes})
}

func (a *API) CreateReservedRoute(c *gin.Context) {
	var payload reservedRoutePayload
	if !bindJSON(c, &payload, "invalid reserved route payload") {
		return
	}

	route, err := a.reserved.Create(c.Request.Context(), service.ReservedRouteInput{
		Segment:  payload.Segment,
		IsActive: boolOrDefault(payload.IsActive, true),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"route": route})
}

func (a *API) UpdateReservedRoute(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload reservedRoutePayload
	if !bindJSON(c, &payload, "invalid reserved route payload") {
		return
	}

	route, err := a.reserved.Update(c.Request.Context(), id, service.ReservedRouteInput{
		Segment:  payload.Segment,
		IsActive: boolOrDefault(payload.IsActive, true),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"route": route})
}

func (a *API) DeleteReservedRoute(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.reserved.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
