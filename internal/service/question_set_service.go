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

// QuestionSetRepository defines persistence needed by QuestionSetService.
type QuestionSetRepository interface {
	List(ctx context.Context, filter models.QuestionSetFilter) ([]models.QuestionSet, int, error)
	FindByID(ctx context.Context, id string) (*models.QuestionSet, error)
	Create(ctx context.Context, set *models.QuestionSet) error
	Update(ctx context.Context, set *models.QuestionSet) error
	Delete(ctx context.Context, id string) ([]string, error)
	CountPackageItems(ctx context.Context, id string) (int, error)
}

// BlobRemover deletes stored file blobs by relative path.
type BlobRemover interface {
	Delete(filename string) error
}

// QuestionSetRequest carries a set create/update payload.
type QuestionSetRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
}

// QuestionSetService manages question sets.
type QuestionSetService struct {
	repo     QuestionSetRepository
	files    FileLister
	blobs    BlobRemover
	logger   *zap.Logger
	validate *validator.Validate
}

// FileLister loads file rows for a question set.
type FileLister interface {
	ListBySet(ctx context.Context, questionSetID string) ([]models.File, error)
}

// NewQuestionSetService creates a QuestionSetService.
func NewQuestionSetService(repo QuestionSetRepository, files FileLister, blobs BlobRemover, logger *zap.Logger) *QuestionSetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionSetService{repo: repo, files: files, blobs: blobs, logger: logger, validate: validator.New()}
}

// List returns question sets the actor may see. Admins see all sets,
// everyone else only their own.
func (s *QuestionSetService) List(ctx context.Context, actor *models.JWTClaims, filter models.QuestionSetFilter) ([]models.QuestionSet, *models.Pagination, error) {
	if !actor.IsAdmin() {
		filter.CreatedBy = actor.UserID
	}
	sets, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list question sets")
	}
	return sets, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one question set with its files attached.
func (s *QuestionSetService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.QuestionSet, error) {
	set, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(set.CreatedBy) {
		return nil, appErrors.ErrForbidden
	}
	if set.Files, err = s.files.ListBySet(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load set files")
	}
	return set, nil
}

// Create inserts a new question set owned by the actor.
func (s *QuestionSetService) Create(ctx context.Context, actor *models.JWTClaims, req QuestionSetRequest) (*models.QuestionSet, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "question set title is required")
	}

	set := &models.QuestionSet{Title: req.Title, Description: req.Description, CreatedBy: actor.UserID}
	if err := s.repo.Create(ctx, set); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create question set")
	}
	return set, nil
}

// Update changes a question set's title or description.
func (s *QuestionSetService) Update(ctx context.Context, actor *models.JWTClaims, id string, req QuestionSetRequest) (*models.QuestionSet, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "question set title is required")
	}

	set, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(set.CreatedBy) {
		return nil, appErrors.ErrForbidden
	}

	set.Title = req.Title
	set.Description = req.Description
	if err := s.repo.Update(ctx, set); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update question set")
	}
	return set, nil
}

// Delete removes a question set with its file rows and blobs. Deletion is
// refused while package items still reference the set; history rows keep
// their reference and survive.
func (s *QuestionSetService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	set, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanAccess(set.CreatedBy) {
		return appErrors.ErrForbidden
	}

	items, err := s.repo.CountPackageItems(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check set usage")
	}
	if items > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "question set is still part of a package")
	}

	paths, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete question set")
	}

	// Blob cleanup happens after the transaction commits; a failed unlink
	// leaves an orphan blob, never a dangling row.
	for _, path := range paths {
		if err := s.blobs.Delete(path); err != nil {
			s.logger.Warn("failed to remove file blob", zap.String("path", path), zap.Error(err))
		}
	}

	s.logger.Info("question set deleted", zap.String("question_set_id", id), zap.Int("files_removed", len(paths)))
	return nil
}

func (s *QuestionSetService) find(ctx context.Context, id string) (*models.QuestionSet, error) {
	set, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question set not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch question set")
	}
	return set, nil
}
