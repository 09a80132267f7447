package models

import "time"

type PlatformRef struct {
	ID int64 `json:"id"`
}

type ContentPlan struct {
	ID        int64         `db:"id" json:"id"`
	ProjectID int64         `db:"project_id" json:"project_id"`
	Name      string        `db:"name" json:"name"`
	Prompt    string        `db:"prompt" json:"prompt"`
	Dates     []string      `db:"dates" json:"dates"`
	Platforms []PlatformRef `db:"platforms" json:"platforms"`
	Color     string        `db:"color" json:"color"`
	Generated bool          `db:"generated" json:"generated"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}
