package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sibaso/qbank-api/internal/models"
	appErrors "github.com/sibaso/qbank-api/pkg/errors"
)

// TagRepository defines persistence for one tag taxonomy.
type TagRepository interface {
	Kind() models.TagKind
	List(ctx context.Context, filter models.TagFilter) ([]models.Tag, int, error)
	ListOptions(ctx context.Context) ([]models.TagOption, error)
	FindByID(ctx context.Context, id string) (*models.Tag, error)
	NameExists(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, tag *models.Tag) error
	Update(ctx context.Context, tag *models.Tag) error
	Delete(ctx context.Context, id string) error
	CountQuestionLinks(ctx context.Context, id string) (int, error)
	CountPackages(ctx context.Context, id string) (int, error)
}

// TagRequest carries a tag create/update payload.
type TagRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// TagService manages one tag taxonomy. It is instantiated twice, once per
// taxonomy, over the matching repository.
type TagService struct {
	repo     TagRepository
	dropdown dropdownInvalidator
	logger   *zap.Logger
	validate *validator.Validate
}

type dropdownInvalidator interface {
	Invalidate(ctx context.Context)
}

// NewTagService creates a TagService over the given taxonomy repository.
func NewTagService(repo TagRepository, dropdown dropdownInvalidator, logger *zap.Logger) *TagService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TagService{repo: repo, dropdown: dropdown, logger: logger, validate: validator.New()}
}

// Kind returns the taxonomy this service manages.
func (s *TagService) Kind() models.TagKind {
	return s.repo.Kind()
}

// List returns tags matching the filter with pagination info.
func (s *TagService) List(ctx context.Context, filter models.TagFilter) ([]models.Tag, *models.Pagination, error) {
	tags, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tags")
	}
	return tags, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a single tag.
func (s *TagService) Get(ctx context.Context, id string) (*models.Tag, error) {
	tag, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tag not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch tag")
	}
	return tag, nil
}

// Create inserts a new tag. Names are unique within the taxonomy,
// compared case-insensitively.
func (s *TagService) Create(ctx context.Context, req TagRequest) (*models.Tag, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "tag name is required")
	}

	exists, err := s.repo.NameExists(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check tag name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a tag with this name already exists")
	}

	tag := &models.Tag{Name: req.Name}
	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tag")
	}

	s.invalidateDropdown(ctx)
	return tag, nil
}

// CreateBatch inserts several tags. The batch is validated up front; a
// duplicate anywhere rejects the whole request so no partial batch lands.
func (s *TagService) CreateBatch(ctx context.Context, reqs []TagRequest) ([]models.Tag, error) {
	if len(reqs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one tag is required")
	}

	seen := make(map[string]bool, len(reqs))
	for i := range reqs {
		reqs[i].Name = strings.TrimSpace(reqs[i].Name)
		if err := s.validate.Struct(reqs[i]); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "tag name is required")
		}
		lower := strings.ToLower(reqs[i].Name)
		if seen[lower] {
			return nil, appErrors.Clone(appErrors.ErrConflict, "duplicate tag name in batch: "+reqs[i].Name)
		}
		seen[lower] = true

		exists, err := s.repo.NameExists(ctx, reqs[i].Name, "")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check tag name")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a tag with this name already exists: "+reqs[i].Name)
		}
	}

	tags := make([]models.Tag, 0, len(reqs))
	for _, req := range reqs {
		tag := models.Tag{Name: req.Name}
		if err := s.repo.Create(ctx, &tag); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create tag")
		}
		tags = append(tags, tag)
	}

	s.invalidateDropdown(ctx)
	return tags, nil
}

// Update renames a tag.
func (s *TagService) Update(ctx context.Context, id string, req TagRequest) (*models.Tag, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "tag name is required")
	}

	tag, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.NameExists(ctx, req.Name, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check tag name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a tag with this name already exists")
	}

	tag.Name = req.Name
	if err := s.repo.Update(ctx, tag); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update tag")
	}

	s.invalidateDropdown(ctx)
	return tag, nil
}

// Delete removes a tag. Deletion is refused while questions or packages
// still reference it.
func (s *TagService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	links, err := s.repo.CountQuestionLinks(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check tag usage")
	}
	if links > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "tag is still attached to questions")
	}

	pkgs, err := s.repo.CountPackages(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check tag usage")
	}
	if pkgs > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "tag is still referenced by question packages")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete tag")
	}

	s.invalidateDropdown(ctx)
	s.logger.Info("tag deleted", zap.String("tag_id", id), zap.String("kind", string(s.repo.Kind())))
	return nil
}

func (s *TagService) invalidateDropdown(ctx context.Context) {
	if s.dropdown != nil {
		s.dropdown.Invalidate(ctx)
	}
}
