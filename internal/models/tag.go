package models

import "time"

// TagKind distinguishes the two tag taxonomies attachable to questions.
type TagKind string

const (
	TagKindCourse   TagKind = "course"
	TagKindMaterial TagKind = "material"
)

// Tag is a classification label. Course tags classify by subject, material
// tags by topic; each kind lives in its own table with unique names.
type Tag struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TagFilter captures list filters for tags.
type TagFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// TagOption is the minimal representation served to form dropdowns.
type TagOption struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// DropdownOptions bundles the reference data forms need in one payload.
type DropdownOptions struct {
	CourseTags   []TagOption `json:"course_tags"`
	MaterialTags []TagOption `json:"material_tags"`
}
