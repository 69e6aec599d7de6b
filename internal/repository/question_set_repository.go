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

// QuestionSetRepository handles persistence for question sets.
type QuestionSetRepository struct {
	db *sqlx.DB
}

// NewQuestionSetRepository creates a question set repository.
func NewQuestionSetRepository(db *sqlx.DB) *QuestionSetRepository {
	return &QuestionSetRepository{db: db}
}

// List returns question sets matching provided filters with total count.
func (r *QuestionSetRepository) List(ctx context.Context, filter models.QuestionSetFilter) ([]models.QuestionSet, int, error) {
	base := "FROM question_sets WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CreatedBy != "" {
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"title": true, "created_at": true, "updated_at": true}
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

	query := fmt.Sprintf("SELECT id, title, description, created_by, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)

	var sets []models.QuestionSet
	if err := r.db.SelectContext(ctx, &sets, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list question sets: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count question sets: %w", err)
	}

	return sets, total, nil
}

// FindByID loads a question set by identifier.
func (r *QuestionSetRepository) FindByID(ctx context.Context, id string) (*models.QuestionSet, error) {
	const query = `SELECT id, title, description, created_by, created_at, updated_at FROM question_sets WHERE id = $1`
	var set models.QuestionSet
	if err := r.db.GetContext(ctx, &set, query, id); err != nil {
		return nil, err
	}
	return &set, nil
}

// Exists reports whether a question set row is present.
func (r *QuestionSetRepository) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT 1 FROM question_sets WHERE id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check question set exists: %w", err)
	}
	return true, nil
}

// Create inserts a new question set record.
func (r *QuestionSetRepository) Create(ctx context.Context, set *models.QuestionSet) error {
	if set.ID == "" {
		set.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if set.CreatedAt.IsZero() {
		set.CreatedAt = now
	}
	set.UpdatedAt = now

	const query = `INSERT INTO question_sets (id, title, description, created_by, created_at, updated_at) VALUES (:id, :title, :description, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, set); err != nil {
		return fmt.Errorf("create question set: %w", err)
	}
	return nil
}

// Update modifies an existing question set.
func (r *QuestionSetRepository) Update(ctx context.Context, set *models.QuestionSet) error {
	set.UpdatedAt = time.Now().UTC()
	const query = `UPDATE question_sets SET title = :title, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, set); err != nil {
		return fmt.Errorf("update question set: %w", err)
	}
	return nil
}

// Delete removes the set and its file rows in one transaction, returning the
// stored paths of the removed files so the blobs can be cleaned up.
func (r *QuestionSetRepository) Delete(ctx context.Context, id string) ([]string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete set tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var paths []string
	if err = tx.SelectContext(ctx, &paths, `SELECT path FROM files WHERE question_set_id = $1`, id); err != nil {
		return nil, fmt.Errorf("collect set file paths: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM files WHERE question_set_id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete set files: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM question_sets WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete question set: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete set tx: %w", err)
	}
	return paths, nil
}

// CountPackageItems returns the number of package items referencing the set.
func (r *QuestionSetRepository) CountPackageItems(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM question_package_items WHERE question_set_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count set package items: %w", err)
	}
	return count, nil
}

// CountHistory returns the number of history rows referencing the set.
func (r *QuestionSetRepository) CountHistory(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM question_histories WHERE question_set_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count set history: %w", err)
	}
	return count, nil
}
