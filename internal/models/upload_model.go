package models

import "time"

type Upload struct {
	ID        int64     `db:"id" json:"id"`
	ProjectID int64     `db:"project_id" json:"project_id,omitempty"`
	Filename  string    `db:"filename" json:"filename"`
	Filepath  string    `db:"filepath" json:"filepath"`
	FileType  string    `db:"file_type" json:"file_type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
