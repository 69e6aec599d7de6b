package models

import "time"

// QuestionPackage is a course-scoped bundle of question set references
// assembled for distribution, e.g. an exam paper.
type QuestionPackage struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CourseID  string    `db:"course_id" json:"course_id"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	CourseName string                `db:"course_name" json:"course_name,omitempty"`
	Items      []QuestionPackageItem `json:"items,omitempty"`
}

// QuestionPackageItem links a package to one question set. Position reflects
// the order items were submitted in and drives listing order.
type QuestionPackageItem struct {
	ID                string    `db:"id" json:"id"`
	QuestionPackageID string    `db:"question_package_id" json:"question_package_id"`
	QuestionSetID     string    `db:"question_set_id" json:"question_set_id"`
	Position          int       `db:"position" json:"position"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`

	QuestionSetTitle string `db:"question_set_title" json:"question_set_title,omitempty"`
}

// QuestionPackageFilter captures filtering criteria for listing packages.
type QuestionPackageFilter struct {
	CourseID  string
	CreatedBy string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
