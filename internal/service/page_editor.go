package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/railtix/internal/db"
	"github.com/railtix/internal/urlpath"
	"gorm.io/gorm"
)

const (
	maxTitleLength   = 200
	fallbackPageSlug = "page"
)

var ErrPageNotFound = errors.New("page not found")

// PageInput carries the editable fields of a page. A nil ParentID means the
// homepage on create and the current parent on edit. A nil or non-positive
// Position on create means "after the last sibling"; on edit nil keeps it.
type PageInput struct {
	Title       string
	Slug        string
	CustomURL   string
	ParentID    *uuid.UUID
	Position    *int
	IsPublished bool
}

// PageEditor performs the page tree mutations. Every mutation validates
// first and then writes inside a single transaction.
type PageEditor struct {
	db       *gorm.DB
	reserved *ReservedRouteRegistry
}

func NewPageEditor(gdb *gorm.DB, reserved *ReservedRouteRegistry) *PageEditor {
	return &PageEditor{db: gdb, reserved: reserved}
}

// Create inserts a page under its parent. On an empty tree the page becomes
// the homepage.
func (e *PageEditor) Create(ctx context.Context, input PageInput) (*db.CmsPage, error) {
	verr := &ValidationError{}
	title := validateTitle(verr, input.Title)

	var created *db.CmsPage
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var total int64
		if err := tx.Model(&db.CmsPage{}).Count(&total).Error; err != nil {
			return err
		}
		if total == 0 {
			if err := verr.OrNil(); err != nil {
				return err
			}
			page := db.CmsPage{
				Title:       title,
				Slug:        baseSlug(input.Slug, title),
				Path:        urlpath.Root,
				IsHomepage:  true,
				IsPublished: input.IsPublished,
			}
			if err := tx.Create(&page).Error; err != nil {
				return err
			}
			created = &page
			return nil
		}

		parent, err := resolveParent(tx, input.ParentID, verr)
		if err != nil {
			return err
		}
		if parent == nil {
			return verr
		}

		slug, path, err := e.placement(ctx, tx, parent, uuid.Nil, input.Slug, title, input.CustomURL, verr)
		if err != nil {
			return err
		}
		if err := verr.OrNil(); err != nil {
			return err
		}

		position := 0
		if input.Position != nil && *input.Position > 0 {
			position = *input.Position
		} else if position, err = nextPagePosition(tx, parent.ID); err != nil {
			return err
		}

		parentID := parent.ID
		page := db.CmsPage{
			Title:       title,
			Slug:        slug,
			Path:        path,
			CustomURL:   customURLValue(input.CustomURL),
			ParentID:    &parentID,
			Position:    position,
			IsPublished: input.IsPublished,
		}
		if err := tx.Create(&page).Error; err != nil {
			return err
		}
		created = &page
		return nil
	})
	if err != nil {
		return nil, translateWriteError(err, "page.create")
	}
	return created, nil
}

// Edit updates a page and, when its path changes, every descendant path.
// The homepage keeps its slug, has no parent, no custom URL and path "/".
func (e *PageEditor) Edit(ctx context.Context, id uuid.UUID, input PageInput) (*db.CmsPage, error) {
	verr := &ValidationError{}
	title := validateTitle(verr, input.Title)

	var updated *db.CmsPage
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		page, err := findPage(tx, id)
		if err != nil {
			return err
		}
		oldPath := page.Path

		if page.IsHomepage {
			if err := verr.OrNil(); err != nil {
				return err
			}
			page.ParentID = nil
			page.CustomURL = nil
			page.Path = urlpath.Root
		} else {
			parentID := input.ParentID
			if parentID == nil {
				parentID = page.ParentID
			}
			parent, err := resolveParent(tx, parentID, verr)
			if err != nil {
				return err
			}
			if parent == nil {
				return verr
			}

			if parent.ID == page.ID {
				verr.Add("parentId", "A page cannot be its own parent.")
				return verr
			}
			descendant, err := isDescendantOf(tx, parent, page.ID)
			if err != nil {
				return err
			}
			if descendant {
				verr.Add("parentId", "A page cannot be moved under one of its own descendants.")
				return verr
			}

			slug, path, err := e.placement(ctx, tx, parent, page.ID, input.Slug, title, input.CustomURL, verr)
			if err != nil {
				return err
			}
			if err := verr.OrNil(); err != nil {
				return err
			}

			newParentID := parent.ID
			page.ParentID = &newParentID
			page.Slug = slug
			page.Path = path
			page.CustomURL = customURLValue(input.CustomURL)
		}

		page.Title = title
		page.IsPublished = input.IsPublished
		if input.Position != nil {
			page.Position = *input.Position
		}

		if err := tx.Omit("Components").Save(page).Error; err != nil {
			return err
		}

		if page.Path != oldPath {
			if err := updateDescendantPaths(tx, page.ID, page.Path, map[uuid.UUID]struct{}{page.ID: {}}); err != nil {
				return err
			}
		}
		updated = page
		return nil
	})
	if err != nil {
		return nil, translateWriteError(err, "page.edit")
	}
	return updated, nil
}

// Delete removes a page, its descendants and all their components. Deleting
// the homepage is a no-op and reports false.
func (e *PageEditor) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted := false
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		page, err := findPage(tx, id)
		if err != nil {
			return err
		}
		if page.IsHomepage {
			return nil
		}
		if err := deletePageTree(tx, page.ID, map[uuid.UUID]struct{}{}); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// placement derives the unique slug and the candidate path of a page below
// parent, recording reserved and duplicate path failures on verr.
func (e *PageEditor) placement(ctx context.Context, tx *gorm.DB, parent *db.CmsPage, selfID uuid.UUID, requestedSlug, title, customURL string, verr *ValidationError) (string, string, error) {
	siblings, err := siblingSlugs(tx, parent.ID, selfID)
	if err != nil {
		return "", "", err
	}
	slug := ensureUniqueSlug(baseSlug(requestedSlug, title), siblings)

	field := "slug"
	path := urlpath.Join(parent.Path, slug)
	if strings.TrimSpace(customURL) != "" {
		field = "customUrl"
		path = urlpath.NormalizeCustomURL(customURL)
	}

	allowed, err := e.reserved.IsPathAllowed(ctx, path)
	if err != nil {
		return "", "", err
	}
	if !allowed {
		top, _ := urlpath.TopLevelSegment(path)
		verr.Add(field, fmt.Sprintf("The URL segment %q is reserved.", top))
		return slug, path, nil
	}

	taken, err := pathInUse(tx, path, selfID)
	if err != nil {
		return "", "", err
	}
	if taken {
		verr.Add(field, "This URL is already in use by another page.")
	}
	return slug, path, nil
}

func validateTitle(verr *ValidationError, raw string) string {
	title := strings.TrimSpace(raw)
	switch {
	case title == "":
		verr.Add("title", "Title is required.")
	case utf8.RuneCountInString(title) > maxTitleLength:
		verr.Add("title", fmt.Sprintf("Title must be %d characters or fewer.", maxTitleLength))
	}
	return title
}

func baseSlug(slug, title string) string {
	source := slug
	if strings.TrimSpace(source) == "" {
		source = title
	}
	if normalized := urlpath.NormalizeSegment(source); normalized != "" {
		return normalized
	}
	return fallbackPageSlug
}

// ensureUniqueSlug appends -2, -3, ... to base until it differs from every
// existing slug, comparing case-insensitively.
func ensureUniqueSlug(base string, existing []string) string {
	taken := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		taken[strings.ToLower(s)] = struct{}{}
	}
	if _, ok := taken[strings.ToLower(base)]; !ok {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if _, ok := taken[strings.ToLower(candidate)]; !ok {
			return candidate
		}
	}
}

func customURLValue(raw string) *string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	normalized := urlpath.NormalizeCustomURL(raw)
	return &normalized
}

func findPage(tx *gorm.DB, id uuid.UUID) (*db.CmsPage, error) {
	var page db.CmsPage
	if err := tx.Where("id = ?", id).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// resolveParent loads the requested parent, defaulting to the homepage. A
// missing parent is recorded on verr and reported as (nil, nil).
func resolveParent(tx *gorm.DB, parentID *uuid.UUID, verr *ValidationError) (*db.CmsPage, error) {
	var parent db.CmsPage
	query := tx.Model(&db.CmsPage{})
	if parentID != nil {
		query = query.Where("id = ?", *parentID)
	} else {
		query = query.Where("is_homepage = ?", true)
	}
	if err := query.First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			verr.Add("parentId", "Parent page is required.")
			return nil, nil
		}
		return nil, err
	}
	return &parent, nil
}

func siblingSlugs(tx *gorm.DB, parentID, excludeID uuid.UUID) ([]string, error) {
	query := tx.Model(&db.CmsPage{}).Where("parent_id = ?", parentID)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	var slugs []string
	if err := query.Pluck("slug", &slugs).Error; err != nil {
		return nil, err
	}
	return slugs, nil
}

func pathInUse(tx *gorm.DB, path string, excludeID uuid.UUID) (bool, error) {
	query := tx.Model(&db.CmsPage{}).Where("(path = ? OR custom_url = ?)", path, path)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func nextPagePosition(tx *gorm.DB, parentID uuid.UUID) (int, error) {
	var maxPosition int
	if err := tx.Model(&db.CmsPage{}).
		Where("parent_id = ?", parentID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&maxPosition).Error; err != nil {
		return 0, err
	}
	return maxPosition + 1, nil
}

// isDescendantOf walks upward from candidate and reports whether pageID is
// one of its ancestors. The walk is bounded by the number of pages so a
// corrupted tree cannot loop forever.
func isDescendantOf(tx *gorm.DB, candidate *db.CmsPage, pageID uuid.UUID) (bool, error) {
	var total int64
	if err := tx.Model(&db.CmsPage{}).Count(&total).Error; err != nil {
		return false, err
	}

	current := candidate.ParentID
	for steps := int64(0); current != nil; steps++ {
		if *current == pageID {
			return true, nil
		}
		if steps > total {
			return true, nil
		}
		var next db.CmsPage
		if err := tx.Select("id", "parent_id").Where("id = ?", *current).First(&next).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, nil
			}
			return false, err
		}
		current = next.ParentID
	}
	return false, nil
}

// updateDescendantPaths recomputes the paths below parentID depth-first.
// Children with a custom URL keep it as their path.
func updateDescendantPaths(tx *gorm.DB, parentID uuid.UUID, parentPath string, visited map[uuid.UUID]struct{}) error {
	var children []db.CmsPage
	if err := tx.Where("parent_id = ?", parentID).Order("position ASC").Order("title ASC").Find(&children).Error; err != nil {
		return err
	}

	for _, child := range children {
		if _, seen := visited[child.ID]; seen {
			continue
		}
		visited[child.ID] = struct{}{}

		path := urlpath.Join(parentPath, child.Slug)
		if child.CustomURL != nil && strings.TrimSpace(*child.CustomURL) != "" {
			path = urlpath.NormalizeCustomURL(*child.CustomURL)
		}
		if path != child.Path {
			if err := tx.Model(&db.CmsPage{}).Where("id = ?", child.ID).Update("path", path).Error; err != nil {
				return err
			}
		}
		if err := updateDescendantPaths(tx, child.ID, path, visited); err != nil {
			return err
		}
	}
	return nil
}

func deletePageTree(tx *gorm.DB, pageID uuid.UUID, visited map[uuid.UUID]struct{}) error {
	if _, seen := visited[pageID]; seen {
		return nil
	}
	visited[pageID] = struct{}{}

	var childIDs []uuid.UUID
	if err := tx.Model(&db.CmsPage{}).Where("parent_id = ?", pageID).Pluck("id", &childIDs).Error; err != nil {
		return err
	}
	for _, childID := range childIDs {
		if err := deletePageTree(tx, childID, visited); err != nil {
			return err
		}
	}

	if err := tx.Where("page_id = ?", pageID).Delete(&db.CmsPageComponent{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ?", pageID).Delete(&db.CmsPage{}).Error
}
