package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/railtix/internal/cache"
	"github.com/railtix/internal/db"
	"github.com/railtix/internal/logger"
	"github.com/railtix/internal/urlpath"
	"gorm.io/gorm"
)

// ReservedSegmentsCacheKey is the cache key of the active segment set.
const ReservedSegmentsCacheKey = "cms_reserved_segments"

// DefaultReservedRouteTTL bounds how stale the cached set may become when a
// write bypasses this service.
const DefaultReservedRouteTTL = 30 * time.Minute

var ErrReservedRouteNotFound = errors.New("reserved route not found")

// ReservedRouteInput is the editable shape of a reserved route.
type ReservedRouteInput struct {
	Segment  string
	IsActive bool
}

// ReservedRouteRegistry answers whether a top-level segment belongs to the
// application rather than the CMS, and administers the underlying rows.
type ReservedRouteRegistry struct {
	db    *gorm.DB
	cache cache.Store
	ttl   time.Duration
}

func NewReservedRouteRegistry(gdb *gorm.DB, store cache.Store, ttl time.Duration) *ReservedRouteRegistry {
	if store == nil {
		store = cache.NewMemoryStore()
	}
	if ttl <= 0 {
		ttl = DefaultReservedRouteTTL
	}
	return &ReservedRouteRegistry{db: gdb, cache: store, ttl: ttl}
}

// ReservedSegments returns the active, normalised segment set.
func (r *ReservedRouteRegistry) ReservedSegments(ctx context.Context) (map[string]struct{}, error) {
	values, err := r.cache.GetOrLoad(ctx, ReservedSegmentsCacheKey, r.ttl, r.loadSegments)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set, nil
}

// IsReservedSegment reports whether segment, once normalised, is reserved.
// Blank input is never reserved.
func (r *ReservedRouteRegistry) IsReservedSegment(ctx context.Context, segment string) (bool, error) {
	normalized := urlpath.NormalizeSegment(segment)
	if normalized == "" {
		return false, nil
	}
	set, err := r.ReservedSegments(ctx)
	if err != nil {
		return false, err
	}
	_, ok := set[normalized]
	return ok, nil
}

// IsPathAllowed reports whether a CMS page may own path. The root path is
// always allowed.
func (r *ReservedRouteRegistry) IsPathAllowed(ctx context.Context, path string) (bool, error) {
	top, ok := urlpath.TopLevelSegment(path)
	if !ok {
		return true, nil
	}
	reserved, err := r.IsReservedSegment(ctx, top)
	if err != nil {
		return false, err
	}
	return !reserved, nil
}

// InvalidateCache drops the cached set so the next lookup reloads it.
func (r *ReservedRouteRegistry) InvalidateCache(ctx context.Context) {
	if err := r.cache.Invalidate(ctx, ReservedSegmentsCacheKey); err != nil {
		logger.Warn("Failed to invalidate reserved segment cache", map[string]interface{}{"error": err.Error()})
	}
}

func (r *ReservedRouteRegistry) loadSegments(ctx context.Context) ([]string, error) {
	var raw []string
	if err := r.db.WithContext(ctx).Model(&db.CmsReservedRoute{}).
		Where("is_active = ?", true).
		Pluck("segment", &raw).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(raw))
	segments := make([]string, 0, len(raw))
	for _, s := range raw {
		normalized := urlpath.NormalizeSegment(s)
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		segments = append(segments, normalized)
	}
	return segments, nil
}

// List returns every reserved route ordered by segment.
func (r *ReservedRouteRegistry) List(ctx context.Context) ([]db.CmsReservedRoute, error) {
	var routes []db.CmsReservedRoute
	if err := r.db.WithContext(ctx).Order("segment ASC").Find(&routes).Error; err != nil {
		return nil, err
	}
	return routes, nil
}

func (r *ReservedRouteRegistry) Get(ctx context.Context, id uuid.UUID) (*db.CmsReservedRoute, error) {
	var route db.CmsReservedRoute
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&route).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservedRouteNotFound
		}
		return nil, err
	}
	return &route, nil
}

func (r *ReservedRouteRegistry) Create(ctx context.Context, input ReservedRouteInput) (*db.CmsReservedRoute, error) {
	segment, err := r.validate(ctx, input, uuid.Nil)
	if err != nil {
		return nil, err
	}

	route := db.CmsReservedRoute{Segment: segment, IsActive: input.IsActive}
	if err := r.db.WithContext(ctx).Create(&route).Error; err != nil {
		return nil, translateWriteError(err, "reserved_route.create")
	}
	r.InvalidateCache(ctx)
	return &route, nil
}

func (r *ReservedRouteRegistry) Update(ctx context.Context, id uuid.UUID, input ReservedRouteInput) (*db.CmsReservedRoute, error) {
	route, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	segment, err := r.validate(ctx, input, id)
	if err != nil {
		return nil, err
	}

	route.Segment = segment
	route.IsActive = input.IsActive
	if err := r.db.WithContext(ctx).Save(route).Error; err != nil {
		return nil, translateWriteError(err, "reserved_route.update")
	}
	r.InvalidateCache(ctx)
	return route, nil
}

func (r *ReservedRouteRegistry) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&db.CmsReservedRoute{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrReservedRouteNotFound
	}
	r.InvalidateCache(ctx)
	return nil
}

func (r *ReservedRouteRegistry) validate(ctx context.Context, input ReservedRouteInput, excludeID uuid.UUID) (string, error) {
	segment := urlpath.NormalizeSegment(input.Segment)
	if segment == "" {
		return "", newFieldError("segment", "Segment is required.")
	}

	query := r.db.WithContext(ctx).Model(&db.CmsReservedRoute{}).Where("LOWER(segment) = ?", strings.ToLower(segment))
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return "", newFieldError("segment", "Segment already exists.")
	}
	return segment, nil
}
