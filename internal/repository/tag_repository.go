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

// TagRepository handles persistence for one tag taxonomy. Course and material
// tags share the same shape but live in separate tables with separate
// question junction tables.
type TagRepository struct {
	db       *sqlx.DB
	kind     models.TagKind
	table    string
	junction string
	linkCol  string
}

// NewCourseTagRepository creates a repository over the course_tags table.
func NewCourseTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{
		db:       db,
		kind:     models.TagKindCourse,
		table:    "course_tags",
		junction: "question_course_tags",
		linkCol:  "course_tag_id",
	}
}

// NewMaterialTagRepository creates a repository over the material_tags table.
func NewMaterialTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{
		db:       db,
		kind:     models.TagKindMaterial,
		table:    "material_tags",
		junction: "question_material_tags",
		linkCol:  "material_tag_id",
	}
}

// Kind returns the taxonomy this repository manages.
func (r *TagRepository) Kind() models.TagKind {
	return r.kind
}

// List returns tags matching provided filters with total count.
func (r *TagRepository) List(ctx context.Context, filter models.TagFilter) ([]models.Tag, int, error) {
	base := fmt.Sprintf("FROM %s WHERE 1=1", r.table)
	var args []interface{}

	if filter.Search != "" {
		base += fmt.Sprintf(" AND LOWER(name) LIKE $%d", len(args)+1)
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "created_at": true, "updated_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT id, name, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d", base, sortBy, order, size, offset)

	var tags []models.Tag
	if err := r.db.SelectContext(ctx, &tags, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", r.table, err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", r.table, err)
	}

	return tags, total, nil
}

// ListOptions returns every tag as a dropdown option ordered by name.
func (r *TagRepository) ListOptions(ctx context.Context) ([]models.TagOption, error) {
	query := fmt.Sprintf("SELECT id, name FROM %s ORDER BY name ASC", r.table)
	var options []models.TagOption
	if err := r.db.SelectContext(ctx, &options, query); err != nil {
		return nil, fmt.Errorf("list %s options: %w", r.table, err)
	}
	return options, nil
}

// FindByID loads a tag by identifier.
func (r *TagRepository) FindByID(ctx context.Context, id string) (*models.Tag, error) {
	query := fmt.Sprintf("SELECT id, name, created_at, updated_at FROM %s WHERE id = $1", r.table)
	var tag models.Tag
	if err := r.db.GetContext(ctx, &tag, query, id); err != nil {
		return nil, err
	}
	return &tag, nil
}

// NameExists checks for a case-insensitive duplicate name, optionally
// excluding one id (used by updates).
func (r *TagRepository) NameExists(ctx context.Context, name, excludeID string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE LOWER(name) = LOWER($1)", r.table)
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check %s name: %w", r.table, err)
	}
	return true, nil
}

// Create inserts a new tag record.
func (r *TagRepository) Create(ctx context.Context, tag *models.Tag) error {
	if tag.ID == "" {
		tag.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = now
	}
	tag.UpdatedAt = now

	query := fmt.Sprintf("INSERT INTO %s (id, name, created_at, updated_at) VALUES (:id, :name, :created_at, :updated_at)", r.table)
	if _, err := r.db.NamedExecContext(ctx, query, tag); err != nil {
		return fmt.Errorf("create %s: %w", r.table, err)
	}
	return nil
}

// Update modifies an existing tag.
func (r *TagRepository) Update(ctx context.Context, tag *models.Tag) error {
	tag.UpdatedAt = time.Now().UTC()
	query := fmt.Sprintf("UPDATE %s SET name = :name, updated_at = :updated_at WHERE id = :id", r.table)
	if _, err := r.db.NamedExecContext(ctx, query, tag); err != nil {
		return fmt.Errorf("update %s: %w", r.table, err)
	}
	return nil
}

// Delete removes a tag permanently.
func (r *TagRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete %s: %w", r.table, err)
	}
	return nil
}

// CountQuestionLinks returns the number of questions tagged with this tag.
func (r *TagRepository) CountQuestionLinks(ctx context.Context, id string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = $1", r.junction, r.linkCol)
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count %s links: %w", r.table, err)
	}
	return count, nil
}

// CountPackages returns the number of question packages scoped to this
// course tag. Material tags are never referenced by packages.
func (r *TagRepository) CountPackages(ctx context.Context, id string) (int, error) {
	if r.kind != models.TagKindCourse {
		return 0, nil
	}
	const query = `SELECT COUNT(*) FROM question_packages WHERE course_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count course tag packages: %w", err)
	}
	return count, nil
}
