package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/railtix/internal/service"
)

type pagePayload struct {
	Title       string  `json:"title" binding:"max=200"`
	Slug        string  `json:"slug" binding:"max=200"`
	CustomURL   string  `json:"customUrl" binding:"max=512"`
	ParentID    *string `json:"parentId"`
	Position    *int    `json:"position"`
	IsPublished bool    `json:"isPublished"`
}

func (p pagePayload) toInput(c *gin.Context) (service.PageInput, bool) {
	parentID, err := parseOptionalUUID(p.ParentID)
	if err != nil {
		respondFieldErrors(c, map[string]string{"parentId": "Must be a valid id."})
		return service.PageInput{}, false
	}
	return service.PageInput{
		Title:       p.Title,
		Slug:        p.Slug,
		CustomURL:   p.CustomURL,
		ParentID:    parentID,
		Position:    p.Position,
		IsPublished: p.IsPublished,
	}, true
}

// GetPageTree returns the page hierarchy.
func (a *API) GetPageTree(c *gin.Context) {
	tree, err := a.pages.Tree(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": tree})
}

// GetParentOptions lists candidate parents, optionally excluding ?exclude=<id>
// and its subtree.
func (a *API) GetParentOptions(c *gin.Context) {
	var exclude *uuid.UUID
	if raw := c.Query("exclude"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid exclude")
			return
		}
		exclude = &id
	}

	options, err := a.pages.ParentOptions(c.Request.Context(), exclude)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"options": options})
}

func (a *API) GetPage(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	page, err := a.pages.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	components := make([]service.EditableComponent, 0, len(page.Components))
	for _, component := range page.Components {
		components = append(components, a.components.MapToEditable(component))
	}
	page.Components = nil

	c.JSON(http.StatusOK, gin.H{"page": page, "components": components})
}

func (a *API) CreatePage(c *gin.Context) {
	var payload pagePayload
	if !bindJSON(c, &payload, "invalid page payload") {
		return
	}
	input, ok := payload.toInput(c)
	if !ok {
		return
	}

	page, err := a.pages.Create(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"page": page})
}

func (a *API) UpdatePage(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload pagePayload
	if !bindJSON(c, &payload, "invalid page payload") {
		return
	}
	input, ok := payload.toInput(c)
	if !ok {
		return
	}

	page, err := a.pages.Edit(c.Request.Context(), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page})
}

// DeletePage removes a page subtree. The homepage cannot be deleted and is
// reported with deleted=false.
func (a *API) DeletePage(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	deleted, err := a.pages.Delete(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
