package models

import "time"

type Project struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	OwnerID   int64     `db:"owner_id" json:"owner_id"`
	Settings  string    `db:"settings" json:"settings"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type ProjectMember struct {
	UserID int64  `db:"user_id" json:"id"`
	Email  string `db:"email" json:"email"`
	Role   string `db:"role" json:"role"`
}
