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

// QuestionPackageRepository handles persistence for exam packages and their items.
type QuestionPackageRepository struct {
	db *sqlx.DB
}

// NewQuestionPackageRepository creates a package repository.
func NewQuestionPackageRepository(db *sqlx.DB) *QuestionPackageRepository {
	return &QuestionPackageRepository{db: db}
}

// CreateWithItems persists the package and one item per question set id in a
// single transaction, assigning positions in submitted order. Either the
// whole package lands or nothing does.
func (r *QuestionPackageRepository) CreateWithItems(ctx context.Context, pkg *models.QuestionPackage, questionSetIDs []string) error {
	if pkg.ID == "" {
		pkg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if pkg.CreatedAt.IsZero() {
		pkg.CreatedAt = now
	}
	pkg.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create package tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertPkg = `INSERT INTO question_packages (id, name, course_id, created_by, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err = tx.ExecContext(ctx, insertPkg, pkg.ID, pkg.Name, pkg.CourseID, pkg.CreatedBy, pkg.CreatedAt, pkg.UpdatedAt); err != nil {
		return fmt.Errorf("create question package: %w", err)
	}

	const insertItem = `INSERT INTO question_package_items (id, question_package_id, question_set_id, position, created_at) VALUES ($1, $2, $3, $4, $5)`
	items := make([]models.QuestionPackageItem, 0, len(questionSetIDs))
	for i, setID := range questionSetIDs {
		item := models.QuestionPackageItem{
			ID:                uuid.NewString(),
			QuestionPackageID: pkg.ID,
			QuestionSetID:     setID,
			Position:          i,
			CreatedAt:         now,
		}
		if _, err = tx.ExecContext(ctx, insertItem, item.ID, item.QuestionPackageID, item.QuestionSetID, item.Position, item.CreatedAt); err != nil {
			return fmt.Errorf("create package item: %w", err)
		}
		items = append(items, item)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create package tx: %w", err)
	}
	pkg.Items = items
	return nil
}

// FindByID loads a package by identifier including its course tag name.
func (r *QuestionPackageRepository) FindByID(ctx context.Context, id string) (*models.QuestionPackage, error) {
	const query = `SELECT p.id, p.name, p.course_id, p.created_by, p.created_at, p.updated_at, c.name AS course_name FROM question_packages p JOIN course_tags c ON c.id = p.course_id WHERE p.id = $1`
	var pkg models.QuestionPackage
	if err := r.db.GetContext(ctx, &pkg, query, id); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// Exists reports whether a package row is present.
func (r *QuestionPackageRepository) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT 1 FROM question_packages WHERE id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check package exists: %w", err)
	}
	return true, nil
}

// List returns packages matching provided filters with total count.
func (r *QuestionPackageRepository) List(ctx context.Context, filter models.QuestionPackageFilter) ([]models.QuestionPackage, int, error) {
	base := "FROM question_packages p JOIN course_tags c ON c.id = p.course_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("p.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.CreatedBy != "" {
		conditions = append(conditions, fmt.Sprintf("p.created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "created_at": true, "updated_at": true}
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

	query := fmt.Sprintf("SELECT p.id, p.name, p.course_id, p.created_by, p.created_at, p.updated_at, c.name AS course_name %s ORDER BY p.%s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)

	var packages []models.QuestionPackage
	if err := r.db.SelectContext(ctx, &packages, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list question packages: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count question packages: %w", err)
	}

	return packages, total, nil
}

// ListItems returns package items in position order with set titles.
func (r *QuestionPackageRepository) ListItems(ctx context.Context, packageID string) ([]models.QuestionPackageItem, error) {
	const query = `SELECT i.id, i.question_package_id, i.question_set_id, i.position, i.created_at, s.title AS question_set_title FROM question_package_items i JOIN question_sets s ON s.id = i.question_set_id WHERE i.question_package_id = $1 ORDER BY i.position ASC`
	var items []models.QuestionPackageItem
	if err := r.db.SelectContext(ctx, &items, query, packageID); err != nil {
		return nil, fmt.Errorf("list package items: %w", err)
	}
	return items, nil
}

// AddItem appends one question set to the package at the next position.
// The max-position read and the insert share a transaction.
func (r *QuestionPackageRepository) AddItem(ctx context.Context, packageID, questionSetID string) (*models.QuestionPackageItem, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin add item tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var next int
	if err = tx.GetContext(ctx, &next, `SELECT COALESCE(MAX(position) + 1, 0) FROM question_package_items WHERE question_package_id = $1`, packageID); err != nil {
		return nil, fmt.Errorf("next item position: %w", err)
	}

	item := &models.QuestionPackageItem{
		ID:                uuid.NewString(),
		QuestionPackageID: packageID,
		QuestionSetID:     questionSetID,
		Position:          next,
		CreatedAt:         time.Now().UTC(),
	}
	const insert = `INSERT INTO question_package_items (id, question_package_id, question_set_id, position, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err = tx.ExecContext(ctx, insert, item.ID, item.QuestionPackageID, item.QuestionSetID, item.Position, item.CreatedAt); err != nil {
		return nil, fmt.Errorf("create package item: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add item tx: %w", err)
	}
	return item, nil
}

// RemoveItem deletes one item from a package and reports whether a row went away.
func (r *QuestionPackageRepository) RemoveItem(ctx context.Context, packageID, itemID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM question_package_items WHERE id = $1 AND question_package_id = $2`, itemID, packageID)
	if err != nil {
		return false, fmt.Errorf("remove package item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove package item result: %w", err)
	}
	return affected > 0, nil
}

// Update modifies package metadata.
func (r *QuestionPackageRepository) Update(ctx context.Context, pkg *models.QuestionPackage) error {
	pkg.UpdatedAt = time.Now().UTC()
	const query = `UPDATE question_packages SET name = :name, course_id = :course_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, pkg); err != nil {
		return fmt.Errorf("update question package: %w", err)
	}
	return nil
}

// Delete removes the package and its items in one transaction.
func (r *QuestionPackageRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete package tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM question_package_items WHERE question_package_id = $1`, id); err != nil {
		return fmt.Errorf("delete package items: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM question_packages WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete question package: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete package tx: %w", err)
	}
	return nil
}
