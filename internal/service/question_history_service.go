package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sibaso/qbank-api/internal/models"
	appErrors "github.com/sibaso/qbank-api/pkg/errors"
)

// QuestionHistoryRepository defines persistence for usage history. The store
// is append-only.
type QuestionHistoryRepository interface {
	Create(ctx context.Context, entry *models.QuestionHistory) error
	List(ctx context.Context, filter models.QuestionHistoryFilter) ([]models.QuestionHistory, int, error)
}

// SetExistenceChecker verifies that a question set row is present.
type SetExistenceChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// HistoryRequest records one interaction with a question set.
type HistoryRequest struct {
	QuestionSetID string   `json:"question_set_id" validate:"required"`
	Score         *float64 `json:"score" validate:"omitempty,min=0,max=100"`
	Notes         string   `json:"notes"`
}

// QuestionHistoryService records and lists question set usage.
type QuestionHistoryService struct {
	repo     QuestionHistoryRepository
	sets     SetExistenceChecker
	logger   *zap.Logger
	validate *validator.Validate
}

// NewQuestionHistoryService creates a QuestionHistoryService.
func NewQuestionHistoryService(repo QuestionHistoryRepository, sets SetExistenceChecker, logger *zap.Logger) *QuestionHistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionHistoryService{repo: repo, sets: sets, logger: logger, validate: validator.New()}
}

// Record appends a history entry for the actor.
func (s *QuestionHistoryService) Record(ctx context.Context, actor *models.JWTClaims, req HistoryRequest) (*models.QuestionHistory, error) {
	req.Notes = strings.TrimSpace(req.Notes)
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "question_set_id is required and score must be between 0 and 100")
	}

	exists, err := s.sets.Exists(ctx, req.QuestionSetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check question set")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "question set not found")
	}

	entry := &models.QuestionHistory{
		UserID:        actor.UserID,
		QuestionSetID: req.QuestionSetID,
		Score:         req.Score,
		Notes:         req.Notes,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record history")
	}
	return entry, nil
}

// List returns history entries the actor may see. Admins can list anyone's
// history; everyone else is pinned to their own.
func (s *QuestionHistoryService) List(ctx context.Context, actor *models.JWTClaims, filter models.QuestionHistoryFilter) ([]models.QuestionHistory, *models.Pagination, error) {
	if !actor.IsAdmin() {
		filter.UserID = actor.UserID
	}
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list history")
	}
	return entries, models.NewPagination(filter.Page, filter.PageSize, total), nil
}
