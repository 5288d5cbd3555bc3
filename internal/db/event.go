package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event statuses.
const (
	EventStatusDraft    = "draft"
	EventStatusLive     = "live"
	EventStatusPaused   = "paused"
	EventStatusArchived = "archived"
)

// Event 是一个可售票的活动，只有 live 状态会出现在公开页面上。
type Event struct {
	ID              uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title           string    `gorm:"size:200;not null" json:"title"`
	Description     string    `gorm:"type:text" json:"description"`
	Slug            string    `gorm:"size:200;not null;uniqueIndex" json:"slug"`
	Status          string    `gorm:"size:16;not null;index" json:"status"`
	StartsAtLocal   time.Time `gorm:"not null;index" json:"startsAtLocal"`
	EndsAtLocal     time.Time `gorm:"not null" json:"endsAtLocal"`
	TimeZoneID      string    `gorm:"size:64;not null" json:"timeZoneId"`
	CurrencyCode    string    `gorm:"size:3;not null" json:"currencyCode"`
	OrganizerName   string    `gorm:"size:200" json:"organizerName,omitempty"`
	VenueName       string    `gorm:"size:200" json:"venueName,omitempty"`
	AddressLine1    string    `gorm:"size:200" json:"addressLine1,omitempty"`
	AddressLine2    string    `gorm:"size:200" json:"addressLine2,omitempty"`
	City            string    `gorm:"size:100" json:"city,omitempty"`
	Region          string    `gorm:"size:100" json:"region,omitempty"`
	Country         string    `gorm:"size:100" json:"country,omitempty"`
	PostalCode      string    `gorm:"size:20" json:"postalCode,omitempty"`
	CreatedByUserID uint      `gorm:"index" json:"createdByUserId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
