package models

import "time"

// File is an uploaded document attached to a question set. The blob lives on
// local storage; Path is relative to the storage base directory.
type File struct {
	ID            string    `db:"id" json:"id"`
	QuestionSetID string    `db:"question_set_id" json:"question_set_id"`
	Name          string    `db:"name" json:"name"`
	Path          string    `db:"path" json:"-"`
	Size          int64     `db:"size" json:"size"`
	MimeType      string    `db:"mime_type" json:"mime_type"`
	UploadedBy    string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
