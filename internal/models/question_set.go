package models

import "time"

// QuestionSet is a named collection of questions owned by its creator,
// associated with uploaded files and a usage history.
type QuestionSet struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Files []File `json:"files,omitempty"`
}

// QuestionSetFilter captures filtering criteria for listing question sets.
type QuestionSetFilter struct {
	CreatedBy string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
