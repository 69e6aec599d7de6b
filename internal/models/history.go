package models

import "time"

// QuestionHistory is an append-only record of a user's interaction with a
// question set. Rows are never updated or deleted.
type QuestionHistory struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	QuestionSetID string    `db:"question_set_id" json:"question_set_id"`
	Score         *float64  `db:"score" json:"score,omitempty"`
	Notes         string    `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// QuestionHistoryFilter captures filtering criteria for listing history rows.
type QuestionHistoryFilter struct {
	UserID        string
	QuestionSetID string
	Page          int
	PageSize      int
}
