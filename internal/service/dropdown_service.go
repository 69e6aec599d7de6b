package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sibaso/qbank-api/internal/models"
	appErrors "github.com/sibaso/qbank-api/pkg/errors"
)

const dropdownCacheKey = "dropdown:tags"

// TagOptionLister provides dropdown options for one tag taxonomy.
type TagOptionLister interface {
	ListOptions(ctx context.Context) ([]models.TagOption, error)
}

// DropdownService serves combined reference data for form dropdowns. Results
// are cached in Redis when a cache is configured.
type DropdownService struct {
	courseTags   TagOptionLister
	materialTags TagOptionLister
	cache        *CacheService
	ttl          time.Duration
	logger       *zap.Logger
}

// NewDropdownService creates a DropdownService.
func NewDropdownService(courseTags, materialTags TagOptionLister, cache *CacheService, ttl time.Duration, logger *zap.Logger) *DropdownService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &DropdownService{
		courseTags:   courseTags,
		materialTags: materialTags,
		cache:        cache,
		ttl:          ttl,
		logger:       logger,
	}
}

// Options returns every course and material tag as dropdown options.
func (s *DropdownService) Options(ctx context.Context) (*models.DropdownOptions, error) {
	var cached models.DropdownOptions
	if hit, err := s.cache.Get(ctx, dropdownCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	courses, err := s.courseTags.ListOptions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course tags")
	}
	materials, err := s.materialTags.ListOptions(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material tags")
	}

	options := &models.DropdownOptions{CourseTags: courses, MaterialTags: materials}
	if err := s.cache.Set(ctx, dropdownCacheKey, options, s.ttl); err != nil {
		s.logger.Warn("failed to cache dropdown options", zap.Error(err))
	}
	return options, nil
}

// Invalidate drops the cached options. Called after any tag mutation.
func (s *DropdownService) Invalidate(ctx context.Context) {
	if s == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, dropdownCacheKey); err != nil {
		s.logger.Warn("failed to invalidate dropdown cache", zap.Error(err))
	}
}
