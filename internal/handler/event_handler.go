package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/railtix/internal/service"
)

var localTimeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
}

type eventPayload struct {
	Title         string `json:"title" binding:"required,max=200"`
	Description   string `json:"description"`
	Slug          string `json:"slug" binding:"max=200"`
	StartsAtLocal string `json:"startsAtLocal" binding:"required"`
	EndsAtLocal   string `json:"endsAtLocal" binding:"required"`
	TimeZoneID    string `json:"timeZoneId" binding:"max=64"`
	CurrencyCode  string `json:"currencyCode" binding:"max=3"`
	OrganizerName string `json:"organizerName" binding:"max=200"`
	VenueName     string `json:"venueName" binding:"max=200"`
	AddressLine1  string `json:"addressLine1" binding:"max=200"`
	AddressLine2  string `json:"addressLine2" binding:"max=200"`
	City          string `json:"city" binding:"max=100"`
	Region        string `json:"region" binding:"max=100"`
	Country       string `json:"country" binding:"max=100"`
	PostalCode    string `json:"postalCode" binding:"max=20"`
}

type eventStatusPayload struct {
	Status string `json:"status" binding:"required"`
}

// parseLocalTime accepts datetime-local form values and RFC 3339 strings.
// The wall-clock part is kept; any offset is dropped.
func parseLocalTime(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range localTimeLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (a *API) GetEvents(c *gin.Context) {
	events, err := a.events.List(c.Request.Context(), currentActor(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (a *API) CreateEvent(c *gin.Context) {
	var payload eventPayload
	if !bindJSON(c, &payload, "invalid event payload") {
		return
	}

	fields := map[string]string{}
	startsAt, ok := parseLocalTime(payload.StartsAtLocal)
	if !ok {
		fields["startsAtLocal"] = "Invalid date/time."
	}
	endsAt, ok := parseLocalTime(payload.EndsAtLocal)
	if !ok {
		fields["endsAtLocal"] = "Invalid date/time."
	}
	if len(fields) > 0 {
		respondFieldErrors(c, fields)
		return
	}

	event, err := a.events.Create(c.Request.Context(), currentActor(c), service.EventInput{
		Title:         payload.Title,
		Description:   payload.Description,
		Slug:          payload.Slug,
		StartsAtLocal: startsAt,
		EndsAtLocal:   endsAt,
		TimeZoneID:    payload.TimeZoneID,
		CurrencyCode:  payload.CurrencyCode,
		OrganizerName: payload.OrganizerName,
		VenueName:     payload.VenueName,
		AddressLine1:  payload.AddressLine1,
		AddressLine2:  payload.AddressLine2,
		City:          payload.City,
		Region:        payload.Region,
		Country:       payload.Country,
		PostalCode:    payload.PostalCode,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": event})
}

func (a *API) UpdateEventStatus(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload eventStatusPayload
	if !bindJSON(c, &payload, "invalid status payload") {
		return
	}

	event, err := a.events.SetStatus(c.Request.Context(), currentActor(c), id, payload.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": event})
}

// ShowEvent renders a live event with its description converted to HTML.
func (a *API) ShowEvent(c *gin.Context) {
	event, err := a.events.GetLiveBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"event":           event,
		"descriptionHtml": a.events.RenderDescription(event.Description),
	})
}
