package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CmsPage 是页面树中的一个节点。只有首页没有父页面，且路径为 "/"。
type CmsPage struct {
	ID          uuid.UUID          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title       string             `gorm:"size:200;not null" json:"title"`
	Slug        string             `gorm:"size:200;not null;uniqueIndex:idx_cms_pages_parent_slug,priority:2" json:"slug"`
	Path        string             `gorm:"size:512;not null;uniqueIndex" json:"path"`
	CustomURL   *string            `gorm:"column:custom_url;size:512;uniqueIndex" json:"customUrl,omitempty"`
	ParentID    *uuid.UUID         `gorm:"type:varchar(36);uniqueIndex:idx_cms_pages_parent_slug,priority:1" json:"parentId,omitempty"`
	Position    int                `gorm:"not null" json:"position"`
	IsHomepage  bool               `gorm:"not null" json:"isHomepage"`
	IsPublished bool               `gorm:"not null;index" json:"isPublished"`
	Components  []CmsPageComponent `gorm:"foreignKey:PageID" json:"components,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func (p *CmsPage) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// CmsPageComponent 是页面上的一个内容块，Settings 保存按类型区分的 JSON 文档。
type CmsPageComponent struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	PageID    uuid.UUID `gorm:"type:varchar(36);not null;index:idx_cms_components_page_position,priority:1" json:"pageId"`
	Type      string    `gorm:"size:32;not null" json:"type"`
	Settings  string    `gorm:"type:text;not null" json:"settings"`
	Position  int       `gorm:"not null;index:idx_cms_components_page_position,priority:2" json:"position"`
	IsEnabled bool      `gorm:"not null" json:"isEnabled"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (c *CmsPageComponent) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CmsReservedRoute 声明一个不允许 CMS 页面占用的一级路径段。
type CmsReservedRoute struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primaryKey" json:"id"`
	Segment   string    `gorm:"size:100;not null;uniqueIndex" json:"segment"`
	IsActive  bool      `gorm:"not null" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *CmsReservedRoute) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
