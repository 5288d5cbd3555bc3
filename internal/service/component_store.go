package service

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/railtix/internal/db"
	"github.com/railtix/internal/logger"
	"gorm.io/gorm"
)

var ErrComponentNotFound = errors.New("component not found")

var textPolicy = bluemonday.StrictPolicy()

// ComponentFields is the flat editable form shared by every component type.
// Only the fields relevant to the component type are stored.
type ComponentFields struct {
	ImageURL           string `json:"imageUrl"`
	AltText            string `json:"altText"`
	Caption            string `json:"caption"`
	Alignment          string `json:"alignment"`
	LinkURL            string `json:"linkUrl"`
	Heading            string `json:"heading"`
	Subheading         string `json:"subheading"`
	BackgroundImageURL string `json:"backgroundImageUrl"`
	CtaLabel           string `json:"ctaLabel"`
	CtaURL             string `json:"ctaUrl"`
	Source             string `json:"source"`
	EventIDs           string `json:"eventIds"`
	Category           string `json:"category"`
	Location           string `json:"location"`
	Limit              *int   `json:"limit"`
}

// ComponentInput is a create or edit request for a component.
type ComponentInput struct {
	Type      string
	Position  *int
	IsEnabled bool
	Fields    ComponentFields
}

// EditableComponent is a stored component decoded back into editable fields.
type EditableComponent struct {
	ID        uuid.UUID       `json:"id"`
	PageID    uuid.UUID       `json:"pageId"`
	Type      string          `json:"type"`
	Position  int             `json:"position"`
	IsEnabled bool            `json:"isEnabled"`
	Fields    ComponentFields `json:"fields"`
}

// ComponentStore manages the typed content blocks of a page.
type ComponentStore struct {
	db *gorm.DB
}

func NewComponentStore(gdb *gorm.DB) *ComponentStore {
	return &ComponentStore{db: gdb}
}

// List returns the components of a page ordered by position.
func (s *ComponentStore) List(ctx context.Context, pageID uuid.UUID) ([]db.CmsPageComponent, error) {
	if _, err := findPage(s.db.WithContext(ctx), pageID); err != nil {
		return nil, err
	}
	var components []db.CmsPageComponent
	if err := s.db.WithContext(ctx).
		Where("page_id = ?", pageID).
		Order("position ASC").
		Find(&components).Error; err != nil {
		return nil, err
	}
	return components, nil
}

func (s *ComponentStore) Get(ctx context.Context, pageID, componentID uuid.UUID) (*db.CmsPageComponent, error) {
	var component db.CmsPageComponent
	if err := s.db.WithContext(ctx).
		Where("id = ? AND page_id = ?", componentID, pageID).
		First(&component).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComponentNotFound
		}
		return nil, err
	}
	return &component, nil
}

// Create validates input and appends a component to the page.
func (s *ComponentStore) Create(ctx context.Context, pageID uuid.UUID, input ComponentInput) (*db.CmsPageComponent, error) {
	componentType, settings, err := buildSettings(input)
	if err != nil {
		return nil, err
	}

	var created *db.CmsPageComponent
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findPage(tx, pageID); err != nil {
			return err
		}

		position := 0
		if input.Position != nil && *input.Position > 0 {
			position = *input.Position
		} else {
			var maxPosition int
			if err := tx.Model(&db.CmsPageComponent{}).
				Where("page_id = ?", pageID).
				Select("COALESCE(MAX(position), 0)").
				Scan(&maxPosition).Error; err != nil {
				return err
			}
			position = maxPosition + 1
		}

		component := db.CmsPageComponent{
			PageID:    pageID,
			Type:      componentType,
			Settings:  settings,
			Position:  position,
			IsEnabled: input.IsEnabled,
		}
		if err := tx.Create(&component).Error; err != nil {
			return err
		}
		created = &component
		return nil
	})
	if err != nil {
		return nil, translateWriteError(err, "component.create")
	}
	return created, nil
}

// Edit replaces the type, settings, position and enabled flag of a component.
// An omitted position leaves the stored one in place.
func (s *ComponentStore) Edit(ctx context.Context, pageID, componentID uuid.UUID, input ComponentInput) (*db.CmsPageComponent, error) {
	componentType, settings, err := buildSettings(input)
	if err != nil {
		return nil, err
	}

	component, err := s.Get(ctx, pageID, componentID)
	if err != nil {
		return nil, err
	}

	component.Type = componentType
	component.Settings = settings
	component.IsEnabled = input.IsEnabled
	if input.Position != nil {
		component.Position = *input.Position
	}

	if err := s.db.WithContext(ctx).Save(component).Error; err != nil {
		return nil, translateWriteError(err, "component.edit")
	}
	return component, nil
}

func (s *ComponentStore) Delete(ctx context.Context, pageID, componentID uuid.UUID) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND page_id = ?", componentID, pageID).
		Delete(&db.CmsPageComponent{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrComponentNotFound
	}
	return nil
}

// MapToEditable decodes the stored document of component. Documents that do
// not match their schema produce the defaults of the type.
func (s *ComponentStore) MapToEditable(component db.CmsPageComponent) EditableComponent {
	editable := EditableComponent{
		ID:        component.ID,
		PageID:    component.PageID,
		Type:      component.Type,
		Position:  component.Position,
		IsEnabled: component.IsEnabled,
	}

	switch component.Type {
	case ComponentTypeImage:
		settings, err := decodeImageSettings(component.Settings)
		logMalformedSettings(component, err)
		editable.Fields.ImageURL = settings.URL
		editable.Fields.AltText = settings.AltText
		editable.Fields.Caption = settings.Caption
		editable.Fields.Alignment = settings.Alignment
		editable.Fields.LinkURL = settings.LinkURL
	case ComponentTypeBanner:
		settings, err := decodeBannerSettings(component.Settings)
		logMalformedSettings(component, err)
		editable.Fields.Heading = settings.Heading
		editable.Fields.Subheading = settings.Subheading
		editable.Fields.BackgroundImageURL = settings.BackgroundImageURL
		editable.Fields.CtaLabel = settings.CtaLabel
		editable.Fields.CtaURL = settings.CtaURL
	case ComponentTypeEventList:
		settings, err := decodeEventListSettings(component.Settings)
		logMalformedSettings(component, err)
		limit := settings.Limit
		editable.Fields.Source = settings.Source
		editable.Fields.EventIDs = settings.EventIDs
		editable.Fields.Category = settings.Category
		editable.Fields.Location = settings.Location
		editable.Fields.Limit = &limit
	}
	return editable
}

// buildSettings validates input and encodes the settings document of its type.
func buildSettings(input ComponentInput) (string, string, error) {
	componentType, ok := NormalizeComponentType(input.Type)
	if !ok {
		return "", "", newFieldError("type", "Unsupported component type.")
	}

	fields := sanitizeFields(input.Fields)
	if err := validateFields(componentType, fields); err != nil {
		return "", "", err
	}

	var doc interface{}
	switch componentType {
	case ComponentTypeImage:
		doc = ImageSettings{
			URL:       fields.ImageURL,
			AltText:   fields.AltText,
			Caption:   fields.Caption,
			Alignment: fields.Alignment,
			LinkURL:   fields.LinkURL,
		}
	case ComponentTypeBanner:
		doc = BannerSettings{
			Heading:            fields.Heading,
			Subheading:         fields.Subheading,
			BackgroundImageURL: fields.BackgroundImageURL,
			CtaLabel:           fields.CtaLabel,
			CtaURL:             fields.CtaURL,
		}
	case ComponentTypeEventList:
		limit := defaultEventListLimit
		if fields.Limit != nil {
			limit = *fields.Limit
		}
		settings := EventListSettings{
			Source:   fields.Source,
			Category: fields.Category,
			Location: fields.Location,
			Limit:    limit,
		}
		if fields.Source == EventListSourceManual {
			settings.EventIDs = fields.EventIDs
		}
		doc = settings
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return "", "", err
	}
	return componentType, string(encoded), nil
}

func sanitizeFields(f ComponentFields) ComponentFields {
	f.ImageURL = strings.TrimSpace(f.ImageURL)
	f.LinkURL = strings.TrimSpace(f.LinkURL)
	f.BackgroundImageURL = strings.TrimSpace(f.BackgroundImageURL)
	f.CtaURL = strings.TrimSpace(f.CtaURL)
	f.AltText = sanitizeText(f.AltText)
	f.Caption = sanitizeText(f.Caption)
	f.Heading = sanitizeText(f.Heading)
	f.Subheading = sanitizeText(f.Subheading)
	f.CtaLabel = sanitizeText(f.CtaLabel)
	f.Category = sanitizeText(f.Category)
	f.Location = sanitizeText(f.Location)
	f.Alignment = strings.ToLower(strings.TrimSpace(f.Alignment))
	f.Source = strings.ToLower(strings.TrimSpace(f.Source))
	if f.Source == "" {
		f.Source = EventListSourceQuery
	}
	f.EventIDs = normalizeEventIDList(f.EventIDs)
	return f
}

// sanitizeText strips markup and keeps the plain text.
func sanitizeText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(raw)))
}

func normalizeEventIDList(raw string) string {
	parts := strings.Split(raw, ",")
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		if token := strings.TrimSpace(part); token != "" {
			tokens = append(tokens, token)
		}
	}
	return strings.Join(tokens, ",")
}

func validateFields(componentType string, f ComponentFields) error {
	isImage := componentType == ComponentTypeImage
	isBanner := componentType == ComponentTypeBanner
	isEventList := componentType == ComponentTypeEventList

	err := validation.ValidateStruct(&f,
		validation.Field(&f.ImageURL,
			validation.When(isImage, validation.Required.Error("Image URL is required.")),
			validation.When(isImage, validation.By(linkRule))),
		validation.Field(&f.LinkURL, validation.When(isImage, validation.By(linkRule))),
		validation.Field(&f.Alignment, validation.When(isImage,
			validation.In("left", "center", "right", "full").Error("Alignment must be left, center, right or full."))),
		validation.Field(&f.Heading, validation.When(isBanner, validation.Required.Error("Heading is required."))),
		validation.Field(&f.BackgroundImageURL, validation.When(isBanner, validation.By(linkRule))),
		validation.Field(&f.CtaURL, validation.When(isBanner, validation.By(linkRule))),
		validation.Field(&f.Source, validation.When(isEventList,
			validation.In(EventListSourceQuery, EventListSourceManual).Error("Source must be query or manual."))),
		validation.Field(&f.EventIDs, validation.When(isEventList && f.Source == EventListSourceManual,
			validation.Required.Error("Select at least one event for a manual list."))),
		validation.Field(&f.Limit, validation.When(isEventList, validation.By(limitRule))),
	)
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &ValidationError{}
	messages := make(map[string]string, len(fieldErrs))
	for field, fieldErr := range fieldErrs {
		messages[field] = fieldErr.Error()
	}
	verr.Merge(messages)
	return verr
}

// linkRule accepts empty values, site-relative paths and http(s) URLs.
func linkRule(value interface{}) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return validation.NewError("validation_link", "Must be an http(s) URL or a path starting with /.")
	}
	return nil
}

func limitRule(value interface{}) error {
	limit, _ := value.(*int)
	if limit == nil {
		return nil
	}
	if *limit < 1 || *limit > maxEventListLimit {
		return validation.NewError("validation_limit_range", "Limit must be between 1 and 50.")
	}
	return nil
}

func logMalformedSettings(component db.CmsPageComponent, err error) {
	if err == nil {
		return
	}
	logger.Warn("Malformed component settings, using defaults", map[string]interface{}{
		"component_id": component.ID.String(),
		"type":         component.Type,
		"error":        err.Error(),
	})
}
