package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/railtix/internal/db"
	"github.com/railtix/internal/logger"
	"github.com/railtix/internal/urlpath"
	"gorm.io/gorm"
)

// EventLookup is the live-event source used by event list components.
type EventLookup interface {
	LiveByIDs(ctx context.Context, ids []uuid.UUID) ([]db.Event, error)
	QueryLive(ctx context.Context, location string, limit int) ([]db.Event, error)
}

// PageView is a published page ready for presentation.
type PageView struct {
	ID         uuid.UUID       `json:"id"`
	Title      string          `json:"title"`
	Path       string          `json:"path"`
	IsHomepage bool            `json:"isHomepage"`
	Components []ComponentView `json:"components"`
}

// ComponentView carries exactly one of Image, Banner or EventList.
type ComponentView struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Position  int             `json:"position"`
	Image     *ImageSettings  `json:"image,omitempty"`
	Banner    *BannerSettings `json:"banner,omitempty"`
	EventList *EventListView  `json:"eventList,omitempty"`
}

// EventListView is a resolved event list component.
type EventListView struct {
	Source   string         `json:"source"`
	Category string         `json:"category,omitempty"`
	Location string         `json:"location,omitempty"`
	Limit    int            `json:"limit"`
	Events   []EventSummary `json:"events"`
}

// EventSummary is the public card of a live event.
type EventSummary struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	URL           string    `json:"url"`
	StartsAtLocal time.Time `json:"startsAtLocal"`
	EndsAtLocal   time.Time `json:"endsAtLocal"`
	TimeZoneID    string    `json:"timeZoneId"`
	VenueName     string    `json:"venueName,omitempty"`
	City          string    `json:"city,omitempty"`
	Region        string    `json:"region,omitempty"`
	Country       string    `json:"country,omitempty"`
}

// PageRenderer resolves public paths to published pages and assembles their
// components.
type PageRenderer struct {
	db     *gorm.DB
	events EventLookup
}

func NewPageRenderer(gdb *gorm.DB, events EventLookup) *PageRenderer {
	return &PageRenderer{db: gdb, events: events}
}

// GetByPath returns the published page at the normalised path.
func (r *PageRenderer) GetByPath(ctx context.Context, path string) (*PageView, error) {
	return r.render(ctx, r.db.WithContext(ctx).Where("path = ?", urlpath.NormalizePath(path)))
}

// GetHomepage returns the published homepage.
func (r *PageRenderer) GetHomepage(ctx context.Context) (*PageView, error) {
	return r.render(ctx, r.db.WithContext(ctx).Where("is_homepage = ?", true))
}

func (r *PageRenderer) render(ctx context.Context, query *gorm.DB) (*PageView, error) {
	var page db.CmsPage
	if err := query.Where("is_published = ?", true).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}

	var components []db.CmsPageComponent
	if err := r.db.WithContext(ctx).
		Where("page_id = ? AND is_enabled = ?", page.ID, true).
		Order("position ASC").
		Find(&components).Error; err != nil {
		return nil, err
	}

	view := &PageView{
		ID:         page.ID,
		Title:      page.Title,
		Path:       page.Path,
		IsHomepage: page.IsHomepage,
		Components: make([]ComponentView, 0, len(components)),
	}
	for _, component := range components {
		cv, ok, err := r.renderComponent(ctx, component)
		if err != nil {
			return nil, err
		}
		if ok {
			view.Components = append(view.Components, cv)
		}
	}
	return view, nil
}

func (r *PageRenderer) renderComponent(ctx context.Context, component db.CmsPageComponent) (ComponentView, bool, error) {
	view := ComponentView{ID: component.ID, Type: component.Type, Position: component.Position}

	switch component.Type {
	case ComponentTypeImage:
		settings, err := decodeImageSettings(component.Settings)
		logMalformedSettings(component, err)
		view.Image = &settings
	case ComponentTypeBanner:
		settings, err := decodeBannerSettings(component.Settings)
		logMalformedSettings(component, err)
		view.Banner = &settings
	case ComponentTypeEventList:
		settings, err := decodeEventListSettings(component.Settings)
		logMalformedSettings(component, err)
		list, err := r.resolveEventList(ctx, settings)
		if err != nil {
			return ComponentView{}, false, err
		}
		view.EventList = list
	default:
		logger.Warn("Skipping component of unknown type", map[string]interface{}{
			"component_id": component.ID.String(),
			"type":         component.Type,
		})
		return ComponentView{}, false, nil
	}
	return view, true, nil
}

func (r *PageRenderer) resolveEventList(ctx context.Context, settings EventListSettings) (*EventListView, error) {
	limit := clampEventListLimit(settings.Limit)
	view := &EventListView{
		Source:   settings.Source,
		Category: settings.Category,
		Location: settings.Location,
		Limit:    limit,
		Events:   []EventSummary{},
	}

	var events []db.Event
	if settings.Source == EventListSourceManual {
		ids := ParseEventIDs(settings.EventIDs)
		found, err := r.events.LiveByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[uuid.UUID]db.Event, len(found))
		for _, e := range found {
			byID[e.ID] = e
		}
		for _, id := range ids {
			if e, ok := byID[id]; ok {
				events = append(events, e)
			}
			if len(events) == limit {
				break
			}
		}
	} else {
		found, err := r.events.QueryLive(ctx, settings.Location, limit)
		if err != nil {
			return nil, err
		}
		events = found
		if len(events) > limit {
			events = events[:limit]
		}
	}

	for _, e := range events {
		view.Events = append(view.Events, summarizeEvent(e))
	}
	return view, nil
}

// ParseEventIDs splits a comma separated id list, skipping tokens that are
// not UUIDs and repeats, and keeps the input order.
func ParseEventIDs(raw string) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, token := range strings.Split(raw, ",") {
		id, err := uuid.Parse(strings.TrimSpace(token))
		if err != nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func summarizeEvent(e db.Event) EventSummary {
	return EventSummary{
		ID:            e.ID,
		Title:         e.Title,
		Slug:          e.Slug,
		URL:           "/events/" + e.Slug,
		StartsAtLocal: e.StartsAtLocal,
		EndsAtLocal:   e.EndsAtLocal,
		TimeZoneID:    e.TimeZoneID,
		VenueName:     e.VenueName,
		City:          e.City,
		Region:        e.Region,
		Country:       e.Country,
	}
}
