package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sibaso/qbank-api/internal/models"
)

// QuestionRepository handles persistence for questions and their tag links.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository creates a question repository.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func junctionFor(kind models.TagKind) (table, tagCol, tagTable string) {
	if kind == models.TagKindCourse {
		return "question_course_tags", "course_tag_id", "course_tags"
	}
	return "question_material_tags", "material_tag_id", "material_tags"
}

// List returns questions matching provided filters with total count.
func (r *QuestionRepository) List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, int, error) {
	base := "FROM questions q WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CreatedBy != "" {
		conditions = append(conditions, fmt.Sprintf("q.created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if filter.CourseTagID != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM question_course_tags qct WHERE qct.question_id = q.id AND qct.course_tag_id = $%d)", len(args)+1))
		args = append(args, filter.CourseTagID)
	}
	if filter.MaterialTagID != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM question_material_tags qmt WHERE qmt.question_id = q.id AND qmt.material_tag_id = $%d)", len(args)+1))
		args = append(args, filter.MaterialTagID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(q.content) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"created_at": true, "updated_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf("SELECT q.id, q.content, q.created_by, q.created_at, q.updated_at %s ORDER BY q.%s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)

	var questions []models.Question
	if err := r.db.SelectContext(ctx, &questions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count questions: %w", err)
	}

	return questions, total, nil
}

// FindByID loads a question by identifier.
func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	const query = `SELECT id, content, created_by, created_at, updated_at FROM questions WHERE id = $1`
	var question models.Question
	if err := r.db.GetContext(ctx, &question, query, id); err != nil {
		return nil, err
	}
	return &question, nil
}

// Exists reports whether a question row is present.
func (r *QuestionRepository) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT 1 FROM questions WHERE id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check question exists: %w", err)
	}
	return true, nil
}

// Create inserts a new question record.
func (r *QuestionRepository) Create(ctx context.Context, question *models.Question) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if question.CreatedAt.IsZero() {
		question.CreatedAt = now
	}
	question.UpdatedAt = now

	const query = `INSERT INTO questions (id, content, created_by, created_at, updated_at) VALUES (:id, :content, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, question); err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

// Update modifies an existing question.
func (r *QuestionRepository) Update(ctx context.Context, question *models.Question) error {
	question.UpdatedAt = time.Now().UTC()
	const query = `UPDATE questions SET content = :content, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, question); err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return nil
}

// Delete removes a question and its tag links in one transaction.
func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete question tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM question_course_tags WHERE question_id = $1`, id); err != nil {
		return fmt.Errorf("delete question course links: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM question_material_tags WHERE question_id = $1`, id); err != nil {
		return fmt.Errorf("delete question material links: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete question tx: %w", err)
	}
	return nil
}

// AddTags links the question to every listed tag inside one transaction.
// Existing pairs are skipped, so repeated calls are idempotent.
func (r *QuestionRepository) AddTags(ctx context.Context, questionID string, tagIDs []string, kind models.TagKind) error {
	if len(tagIDs) == 0 {
		return nil
	}
	junction, tagCol, _ := junctionFor(kind)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tag tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	insert := fmt.Sprintf("INSERT INTO %s (question_id, %s, created_at) VALUES ($1, $2, $3) ON CONFLICT (question_id, %s) DO NOTHING", junction, tagCol, tagCol)
	now := time.Now().UTC()
	for _, tagID := range tagIDs {
		if _, err = tx.ExecContext(ctx, insert, questionID, tagID, now); err != nil {
			return fmt.Errorf("link question tag: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tag tx: %w", err)
	}
	return nil
}

// RemoveTag removes one tag pairing. Removing an absent pairing is a no-op.
func (r *QuestionRepository) RemoveTag(ctx context.Context, questionID, tagID string, kind models.TagKind) error {
	junction, tagCol, _ := junctionFor(kind)
	query := fmt.Sprintf("DELETE FROM %s WHERE question_id = $1 AND %s = $2", junction, tagCol)
	if _, err := r.db.ExecContext(ctx, query, questionID, tagID); err != nil {
		return fmt.Errorf("unlink question tag: %w", err)
	}
	return nil
}

// ListTags returns the tags of one taxonomy attached to a question.
func (r *QuestionRepository) ListTags(ctx context.Context, questionID string, kind models.TagKind) ([]models.Tag, error) {
	junction, tagCol, tagTable := junctionFor(kind)
	query := fmt.Sprintf("SELECT t.id, t.name, t.created_at, t.updated_at FROM %s t JOIN %s j ON j.%s = t.id WHERE j.question_id = $1 ORDER BY t.name ASC", tagTable, junction, tagCol)
	var tags []models.Tag
	if err := r.db.SelectContext(ctx, &tags, query, questionID); err != nil {
		return nil, fmt.Errorf("list question tags: %w", err)
	}
	return tags, nil
}
