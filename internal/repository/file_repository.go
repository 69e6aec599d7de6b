package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sibaso/qbank-api/internal/models"
)

// FileRepository handles persistence for uploaded question set files.
type FileRepository struct {
	db *sqlx.DB
}

// NewFileRepository creates a file repository.
func NewFileRepository(db *sqlx.DB) *FileRepository {
	return &FileRepository{db: db}
}

// Create inserts a new file record.
func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	if file.CreatedAt.IsZero() {
		file.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO files (id, question_set_id, name, path, size, mime_type, uploaded_by, created_at) VALUES (:id, :question_set_id, :name, :path, :size, :mime_type, :uploaded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, file); err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

// FindByID loads a file by identifier.
func (r *FileRepository) FindByID(ctx context.Context, id string) (*models.File, error) {
	const query = `SELECT id, question_set_id, name, path, size, mime_type, uploaded_by, created_at FROM files WHERE id = $1`
	var file models.File
	if err := r.db.GetContext(ctx, &file, query, id); err != nil {
		return nil, err
	}
	return &file, nil
}

// ListBySet returns all files attached to a question set in upload order.
func (r *FileRepository) ListBySet(ctx context.Context, questionSetID string) ([]models.File, error) {
	const query = `SELECT id, question_set_id, name, path, size, mime_type, uploaded_by, created_at FROM files WHERE question_set_id = $1 ORDER BY created_at ASC`
	var files []models.File
	if err := r.db.SelectContext(ctx, &files, query, questionSetID); err != nil {
		return nil, fmt.Errorf("list set files: %w", err)
	}
	return files, nil
}

// Delete removes a file record.
func (r *FileRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}
