package service

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/railtix/internal/db"
	"github.com/railtix/internal/urlpath"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

const (
	defaultEventTimeZone = "Pacific/Auckland"
	defaultEventCurrency = "NZD"
	fallbackEventSlug    = "event"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrInvalidEventStatus = errors.New("invalid event status")
)

var (
	descriptionMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	descriptionPolicy = bluemonday.UGCPolicy()
)

// EventInput carries the fields of a new event. Times are wall-clock times in
// TimeZoneID.
type EventInput struct {
	Title         string
	Description   string
	Slug          string
	StartsAtLocal time.Time
	EndsAtLocal   time.Time
	TimeZoneID    string
	CurrencyCode  string
	OrganizerName string
	VenueName     string
	AddressLine1  string
	AddressLine2  string
	City          string
	Region        string
	Country       string
	PostalCode    string
}

// EventActor identifies who is acting on events. Non-admins only see and
// change their own events.
type EventActor struct {
	UserID  uint
	IsAdmin bool
}

// EventService manages events and answers the live-event queries of CMS
// event lists.
type EventService struct {
	db *gorm.DB
}

func NewEventService(gdb *gorm.DB) *EventService {
	return &EventService{db: gdb}
}

// List returns the events visible to actor, newest first.
func (s *EventService) List(ctx context.Context, actor EventActor) ([]db.Event, error) {
	query := s.db.WithContext(ctx).Model(&db.Event{})
	if !actor.IsAdmin {
		query = query.Where("created_by_user_id = ?", actor.UserID)
	}
	var events []db.Event
	if err := query.Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Create stores a draft event owned by actor.
func (s *EventService) Create(ctx context.Context, actor EventActor, input EventInput) (*db.Event, error) {
	verr := &ValidationError{}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		verr.Add("title", "Title is required.")
	} else if len([]rune(title)) > maxTitleLength {
		verr.Add("title", "Title must be 200 characters or fewer.")
	}

	if input.StartsAtLocal.IsZero() {
		verr.Add("startsAtLocal", "Start date/time is required.")
	}
	if input.EndsAtLocal.IsZero() {
		verr.Add("endsAtLocal", "End date/time is required.")
	}
	if !input.StartsAtLocal.IsZero() && !input.EndsAtLocal.IsZero() && !input.EndsAtLocal.After(input.StartsAtLocal) {
		verr.Add("endsAtLocal", "End date/time must be after the start date/time.")
	}

	timeZone := strings.TrimSpace(input.TimeZoneID)
	if timeZone == "" {
		timeZone = defaultEventTimeZone
	}
	if _, err := time.LoadLocation(timeZone); err != nil {
		verr.Add("timeZoneId", "Unknown time zone.")
	}

	currency := strings.ToUpper(strings.TrimSpace(input.CurrencyCode))
	if currency == "" {
		currency = defaultEventCurrency
	}
	if !isCurrencyCode(currency) {
		verr.Add("currencyCode", "Currency must be a three letter code.")
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	base := urlpath.NormalizeSegment(input.Slug)
	if base == "" {
		base = urlpath.NormalizeSegment(title)
	}
	if base == "" {
		base = fallbackEventSlug
	}

	var created *db.Event
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(&db.Event{}).Pluck("slug", &existing).Error; err != nil {
			return err
		}

		event := db.Event{
			Title:           title,
			Description:     strings.TrimSpace(input.Description),
			Slug:            ensureUniqueSlug(base, existing),
			Status:          db.EventStatusDraft,
			StartsAtLocal:   wallClock(input.StartsAtLocal),
			EndsAtLocal:     wallClock(input.EndsAtLocal),
			TimeZoneID:      timeZone,
			CurrencyCode:    currency,
			OrganizerName:   strings.TrimSpace(input.OrganizerName),
			VenueName:       strings.TrimSpace(input.VenueName),
			AddressLine1:    strings.TrimSpace(input.AddressLine1),
			AddressLine2:    strings.TrimSpace(input.AddressLine2),
			City:            strings.TrimSpace(input.City),
			Region:          strings.TrimSpace(input.Region),
			Country:         strings.TrimSpace(input.Country),
			PostalCode:      strings.TrimSpace(input.PostalCode),
			CreatedByUserID: actor.UserID,
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		created = &event
		return nil
	})
	if err != nil {
		return nil, translateWriteError(err, "event.create")
	}
	return created, nil
}

// SetStatus moves an event between draft, live, paused and archived.
func (s *EventService) SetStatus(ctx context.Context, actor EventActor, id uuid.UUID, status string) (*db.Event, error) {
	normalized := strings.ToLower(strings.TrimSpace(status))
	switch normalized {
	case db.EventStatusDraft, db.EventStatusLive, db.EventStatusPaused, db.EventStatusArchived:
	default:
		return nil, ErrInvalidEventStatus
	}

	var event db.Event
	query := s.db.WithContext(ctx).Where("id = ?", id)
	if !actor.IsAdmin {
		query = query.Where("created_by_user_id = ?", actor.UserID)
	}
	if err := query.First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	event.Status = normalized
	if err := s.db.WithContext(ctx).Model(&event).Update("status", normalized).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// GetLiveBySlug returns a live event for the public event page.
func (s *EventService) GetLiveBySlug(ctx context.Context, slug string) (*db.Event, error) {
	normalized := urlpath.NormalizeSegment(slug)
	if normalized == "" {
		return nil, ErrEventNotFound
	}
	var event db.Event
	if err := s.db.WithContext(ctx).
		Where("slug = ? AND status = ?", normalized, db.EventStatusLive).
		First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

// LiveByIDs loads the live events among ids in no particular order.
func (s *EventService) LiveByIDs(ctx context.Context, ids []uuid.UUID) ([]db.Event, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var events []db.Event
	if err := s.db.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, db.EventStatusLive).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// QueryLive lists live events ordered by start time, then title. A non-empty
// location matches city, region, country or venue as a case-folded substring.
// Matching happens here rather than in SQL because sqlite only folds ASCII.
func (s *EventService) QueryLive(ctx context.Context, location string, limit int) ([]db.Event, error) {
	var events []db.Event
	if err := s.db.WithContext(ctx).
		Where("status = ?", db.EventStatusLive).
		Order("starts_at_local ASC").Order("title ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}

	if needle := foldText(location); needle != "" {
		matched := events[:0]
		for _, event := range events {
			if eventMatchesLocation(event, needle) {
				matched = append(matched, event)
			}
		}
		events = matched
	}

	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func eventMatchesLocation(event db.Event, needle string) bool {
	for _, field := range []string{event.City, event.Region, event.Country, event.VenueName} {
		if strings.Contains(foldText(field), needle) {
			return true
		}
	}
	return false
}

// foldText applies Unicode case folding after NFC so "Ō" and "ō" compare equal
// however they were typed.
func foldText(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(trimmed))
}

// RenderDescription converts an event description from markdown to
// sanitised HTML.
func (s *EventService) RenderDescription(markdown string) template.HTML {
	trimmed := strings.TrimSpace(markdown)
	if trimmed == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := descriptionMarkdown.Convert([]byte(trimmed), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(trimmed))
	}
	return template.HTML(descriptionPolicy.SanitizeBytes(buf.Bytes()))
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

func isCurrencyCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
