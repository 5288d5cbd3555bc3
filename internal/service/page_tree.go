package service

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/railtix/internal/db"
)

// PageTreeItem is one node of the admin page tree.
type PageTreeItem struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Path        string          `json:"path"`
	CustomURL   string          `json:"customUrl,omitempty"`
	Position    int             `json:"position"`
	IsHomepage  bool            `json:"isHomepage"`
	IsPublished bool            `json:"isPublished"`
	Children    []*PageTreeItem `json:"children"`
}

// ParentOption is a flattened tree entry for parent pickers.
type ParentOption struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
	Path  string    `json:"path"`
	Depth int       `json:"depth"`
}

// Get loads a page with its components ordered by position.
func (e *PageEditor) Get(ctx context.Context, id uuid.UUID) (*db.CmsPage, error) {
	page, err := findPage(e.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if err := e.db.WithContext(ctx).
		Where("page_id = ?", page.ID).
		Order("position ASC").
		Find(&page.Components).Error; err != nil {
		return nil, err
	}
	return page, nil
}

// Tree returns the page hierarchy rooted at the homepage. Siblings are
// ordered by position, then title.
func (e *PageEditor) Tree(ctx context.Context) ([]*PageTreeItem, error) {
	var pages []db.CmsPage
	if err := e.db.WithContext(ctx).Find(&pages).Error; err != nil {
		return nil, err
	}
	return buildPageTree(pages), nil
}

// ParentOptions lists every page that may become the parent of excludeID,
// omitting excludeID and its subtree. A nil excludeID lists every page.
func (e *PageEditor) ParentOptions(ctx context.Context, excludeID *uuid.UUID) ([]ParentOption, error) {
	roots, err := e.Tree(ctx)
	if err != nil {
		return nil, err
	}

	var options []ParentOption
	var walk func(items []*PageTreeItem, depth int)
	walk = func(items []*PageTreeItem, depth int) {
		for _, item := range items {
			if excludeID != nil && item.ID == *excludeID {
				continue
			}
			options = append(options, ParentOption{
				ID:    item.ID,
				Label: strings.Repeat("-- ", depth) + item.Title,
				Path:  item.Path,
				Depth: depth,
			})
			walk(item.Children, depth+1)
		}
	}
	walk(roots, 0)
	return options, nil
}

func buildPageTree(pages []db.CmsPage) []*PageTreeItem {
	items := make(map[uuid.UUID]*PageTreeItem, len(pages))
	for _, p := range pages {
		item := &PageTreeItem{
			ID:          p.ID,
			Title:       p.Title,
			Slug:        p.Slug,
			Path:        p.Path,
			Position:    p.Position,
			IsHomepage:  p.IsHomepage,
			IsPublished: p.IsPublished,
			Children:    []*PageTreeItem{},
		}
		if p.CustomURL != nil {
			item.CustomURL = *p.CustomURL
		}
		items[p.ID] = item
	}

	var roots []*PageTreeItem
	for _, p := range pages {
		item := items[p.ID]
		if p.ParentID != nil {
			if parent, ok := items[*p.ParentID]; ok {
				parent.Children = append(parent.Children, item)
				continue
			}
		}
		roots = append(roots, item)
	}

	sortTreeItems(roots)
	return roots
}

func sortTreeItems(items []*PageTreeItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].Title < items[j].Title
	})
	for _, item := range items {
		sortTreeItems(item.Children)
	}
}
