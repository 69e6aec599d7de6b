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

// QuestionRepository defines persistence needed by QuestionService.
type QuestionRepository interface {
	List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, int, error)
	FindByID(ctx context.Context, id string) (*models.Question, error)
	Create(ctx context.Context, question *models.Question) error
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id string) error
	AddTags(ctx context.Context, questionID string, tagIDs []string, kind models.TagKind) error
	RemoveTag(ctx context.Context, questionID, tagID string, kind models.TagKind) error
	ListTags(ctx context.Context, questionID string, kind models.TagKind) ([]models.Tag, error)
}

// TagLookup resolves tags by id for link validation.
type TagLookup interface {
	FindByID(ctx context.Context, id string) (*models.Tag, error)
}

// QuestionRequest carries a question create/update payload.
type QuestionRequest struct {
	Content string `json:"content" validate:"required"`
}

// QuestionService manages questions and their tag links.
type QuestionService struct {
	repo         QuestionRepository
	courseTags   TagLookup
	materialTags TagLookup
	logger       *zap.Logger
	validate     *validator.Validate
}

// NewQuestionService creates a QuestionService.
func NewQuestionService(repo QuestionRepository, courseTags, materialTags TagLookup, logger *zap.Logger) *QuestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{
		repo:         repo,
		courseTags:   courseTags,
		materialTags: materialTags,
		logger:       logger,
		validate:     validator.New(),
	}
}

// List returns questions the actor may see. Admins see the whole bank,
// everyone else only their own entries.
func (s *QuestionService) List(ctx context.Context, actor *models.JWTClaims, filter models.QuestionFilter) ([]models.Question, *models.Pagination, error) {
	if !actor.IsAdmin() {
		filter.CreatedBy = actor.UserID
	}
	questions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list questions")
	}
	return questions, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one question with both tag sets attached.
func (s *QuestionService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.Question, error) {
	question, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(question.CreatedBy) {
		return nil, appErrors.ErrForbidden
	}

	if question.CourseTags, err = s.repo.ListTags(ctx, id, models.TagKindCourse); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question tags")
	}
	if question.MaterialTags, err = s.repo.ListTags(ctx, id, models.TagKindMaterial); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question tags")
	}
	return question, nil
}

// Create inserts a new question owned by the actor.
func (s *QuestionService) Create(ctx context.Context, actor *models.JWTClaims, req QuestionRequest) (*models.Question, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "question content is required")
	}

	question := &models.Question{Content: req.Content, CreatedBy: actor.UserID}
	if err := s.repo.Create(ctx, question); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create question")
	}
	return question, nil
}

// Update changes a question's content. Only the owner or an admin may edit.
func (s *QuestionService) Update(ctx context.Context, actor *models.JWTClaims, id string, req QuestionRequest) (*models.Question, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "question content is required")
	}

	question, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(question.CreatedBy) {
		return nil, appErrors.ErrForbidden
	}

	question.Content = req.Content
	if err := s.repo.Update(ctx, question); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update question")
	}
	return question, nil
}

// Delete removes a question together with its tag links.
func (s *QuestionService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	question, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanAccess(question.CreatedBy) {
		return appErrors.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete question")
	}
	s.logger.Info("question deleted", zap.String("question_id", id))
	return nil
}

// AddTags links every listed tag of one taxonomy to the question. Tags must
// exist; pairs that are already linked are skipped.
func (s *QuestionService) AddTags(ctx context.Context, actor *models.JWTClaims, questionID string, tagIDs []string, kind models.TagKind) error {
	if len(tagIDs) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "at least one tag id is required")
	}

	question, err := s.find(ctx, questionID)
	if err != nil {
		return err
	}
	if !actor.CanAccess(question.CreatedBy) {
		return appErrors.ErrForbidden
	}

	lookup := s.tagLookup(kind)
	for _, tagID := range tagIDs {
		if _, err := lookup.FindByID(ctx, tagID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, "tag not found: "+tagID)
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check tag")
		}
	}

	if err := s.repo.AddTags(ctx, questionID, tagIDs, kind); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to tag question")
	}
	return nil
}

// RemoveTag unlinks a single tag from the question. The pairing not existing
// is not an error.
func (s *QuestionService) RemoveTag(ctx context.Context, actor *models.JWTClaims, questionID, tagID string, kind models.TagKind) error {
	question, err := s.find(ctx, questionID)
	if err != nil {
		return err
	}
	if !actor.CanAccess(question.CreatedBy) {
		return appErrors.ErrForbidden
	}
	if err := s.repo.RemoveTag(ctx, questionID, tagID, kind); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to untag question")
	}
	return nil
}

func (s *QuestionService) find(ctx context.Context, id string) (*models.Question, error) {
	question, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch question")
	}
	return question, nil
}

func (s *QuestionService) tagLookup(kind models.TagKind) TagLookup {
	if kind == models.TagKindCourse {
		return s.courseTags
	}
	return s.materialTags
}
