package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sibaso/qbank-api/internal/models"
)

// QuestionHistoryRepository stores append-only question set usage records.
// There are deliberately no update or delete operations.
type QuestionHistoryRepository struct {
	db *sqlx.DB
}

// NewQuestionHistoryRepository creates a history repository.
func NewQuestionHistoryRepository(db *sqlx.DB) *QuestionHistoryRepository {
	return &QuestionHistoryRepository{db: db}
}

// Create appends a history record.
func (r *QuestionHistoryRepository) Create(ctx context.Context, entry *models.QuestionHistory) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO question_histories (id, user_id, question_set_id, score, notes, created_at) VALUES (:id, :user_id, :question_set_id, :score, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create question history: %w", err)
	}
	return nil
}

// List returns history rows newest first with total count.
func (r *QuestionHistoryRepository) List(ctx context.Context, filter models.QuestionHistoryFilter) ([]models.QuestionHistory, int, error) {
	base := "FROM question_histories WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.QuestionSetID != "" {
		conditions = append(conditions, fmt.Sprintf("question_set_id = $%d", len(args)+1))
		args = append(args, filter.QuestionSetID)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT id, user_id, question_set_id, score, notes, created_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", base, size, offset)

	var entries []models.QuestionHistory
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list question history: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count question history: %w", err)
	}

	return entries, total, nil
}
