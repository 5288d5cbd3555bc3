package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Component types.
const (
	ComponentTypeImage     = "image"
	ComponentTypeBanner    = "banner"
	ComponentTypeEventList = "event-list"
)

// Event list sources.
const (
	EventListSourceQuery  = "query"
	EventListSourceManual = "manual"
)

const (
	defaultEventListLimit = 10
	maxEventListLimit     = 50
	defaultImageAlignment = "center"
)

// ImageSettings is the stored document of an image component.
type ImageSettings struct {
	URL       string `json:"url"`
	AltText   string `json:"altText,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Alignment string `json:"alignment,omitempty"`
	LinkURL   string `json:"linkUrl,omitempty"`
}

// BannerSettings is the stored document of a banner component.
type BannerSettings struct {
	Heading            string `json:"heading"`
	Subheading         string `json:"subheading,omitempty"`
	BackgroundImageURL string `json:"backgroundImageUrl,omitempty"`
	CtaLabel           string `json:"ctaLabel,omitempty"`
	CtaURL             string `json:"ctaUrl,omitempty"`
}

// EventListSettings is the stored document of an event list component.
// EventIDs is a comma separated list used by manual lists.
type EventListSettings struct {
	Source   string `json:"source"`
	EventIDs string `json:"eventIds,omitempty"`
	Category string `json:"category,omitempty"`
	Location string `json:"location,omitempty"`
	Limit    int    `json:"limit"`
}

var settingsSchemaSources = map[string]string{
	ComponentTypeImage: `{
		"type": "object",
		"required": ["url"],
		"properties": {
			"url": {"type": "string"},
			"altText": {"type": "string"},
			"caption": {"type": "string"},
			"alignment": {"type": "string"},
			"linkUrl": {"type": "string"}
		}
	}`,
	ComponentTypeBanner: `{
		"type": "object",
		"required": ["heading"],
		"properties": {
			"heading": {"type": "string"},
			"subheading": {"type": "string"},
			"backgroundImageUrl": {"type": "string"},
			"ctaLabel": {"type": "string"},
			"ctaUrl": {"type": "string"}
		}
	}`,
	ComponentTypeEventList: `{
		"type": "object",
		"properties": {
			"source": {"type": "string", "enum": ["query", "manual"]},
			"eventIds": {"type": "string"},
			"category": {"type": "string"},
			"location": {"type": "string"},
			"limit": {"type": "integer"}
		}
	}`,
}

var settingsSchemas = mustCompileSettingsSchemas()

var errUnknownComponentType = errors.New("unknown component type")

func mustCompileSettingsSchemas() map[string]*jsonschema.Schema {
	compiled := make(map[string]*jsonschema.Schema, len(settingsSchemaSources))
	for componentType, source := range settingsSchemaSources {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		name := componentType + ".json"
		if err := compiler.AddResource(name, strings.NewReader(source)); err != nil {
			panic(fmt.Sprintf("settings schema %s: %v", componentType, err))
		}
		schema, err := compiler.Compile(name)
		if err != nil {
			panic(fmt.Sprintf("settings schema %s: %v", componentType, err))
		}
		compiled[componentType] = schema
	}
	return compiled
}

// NormalizeComponentType lowercases and trims a type name. The boolean is
// false for unsupported types.
func NormalizeComponentType(raw string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(raw))
	_, ok := settingsSchemaSources[t]
	return t, ok
}

// validateSettingsDocument checks raw against the schema of componentType.
func validateSettingsDocument(componentType string, raw []byte) error {
	schema, ok := settingsSchemas[componentType]
	if !ok {
		return errUnknownComponentType
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var doc interface{}
	if err := decoder.Decode(&doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}

func decodeImageSettings(raw string) (ImageSettings, error) {
	var s ImageSettings
	if err := decodeSettings(ComponentTypeImage, raw, &s); err != nil {
		return ImageSettings{Alignment: defaultImageAlignment}, err
	}
	if s.Alignment == "" {
		s.Alignment = defaultImageAlignment
	}
	return s, nil
}

func decodeBannerSettings(raw string) (BannerSettings, error) {
	var s BannerSettings
	if err := decodeSettings(ComponentTypeBanner, raw, &s); err != nil {
		return BannerSettings{}, err
	}
	return s, nil
}

func decodeEventListSettings(raw string) (EventListSettings, error) {
	var s EventListSettings
	if err := decodeSettings(ComponentTypeEventList, raw, &s); err != nil {
		return EventListSettings{Source: EventListSourceQuery, Limit: defaultEventListLimit}, err
	}
	if s.Source == "" {
		s.Source = EventListSourceQuery
	}
	s.Limit = clampEventListLimit(s.Limit)
	return s, nil
}

func decodeSettings(componentType, raw string, dst interface{}) error {
	if err := validateSettingsDocument(componentType, []byte(raw)); err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), dst)
}

// clampEventListLimit maps a missing limit to the default and caps the rest.
func clampEventListLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultEventListLimit
	case limit > maxEventListLimit:
		return maxEventListLimit
	default:
		return limit
	}
}
