package models

import "time"

// Question is a single bank entry owned by its creator and classified by
// course and material tags through junction tables.
type Question struct {
	ID        string    `db:"id" json:"id"`
	Content   string    `db:"content" json:"content"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	CourseTags   []Tag `json:"course_tags,omitempty"`
	MaterialTags []Tag `json:"material_tags,omitempty"`
}

// QuestionFilter captures filtering criteria for listing questions.
type QuestionFilter struct {
	CreatedBy     string
	CourseTagID   string
	MaterialTagID string
	Search        string
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
