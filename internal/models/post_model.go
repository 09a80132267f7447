package models

import "time"

type Post struct {
	ID              int64     `db:"id" json:"id"`
	ProjectID       int64     `db:"project_id" json:"project_id"`
	SocialNetworkID int64     `db:"social_network_id" json:"social_network_id"`
	ContentPlanID   int64     `db:"content_plan_id" json:"content_plan_id,omitempty"`
	PublishAt       time.Time `db:"publish_at" json:"publish_at"`
	TextContent     string    `db:"text_content" json:"text_content"`
	MediaFiles      []string  `db:"media_files" json:"media_files"`
	Tags            []string  `db:"tags" json:"tags"`
	Status          string    `db:"status" json:"status"`
	PublishAttempts int       `db:"publish_attempts" json:"publish_attempts"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

const (
	PostStatusDraft      = "draft"
	PostStatusGenerating = "generating"
	PostStatusGenerated  = "generated"
	PostStatusApproved   = "approved"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

// DuePost is a post joined with the publishing endpoint of its network,
// as selected by the publication scan.
type DuePost struct {
	Post
	NetworkName          string `json:"network_name"`
	PublishingWebhookURL string `json:"-"`
}

// PostDetail carries the display fields the dashboard joins onto a post.
type PostDetail struct {
	Post
	NetworkName string `json:"social_network_name,omitempty"`
	NetworkLogo string `json:"social_network_logo,omitempty"`
	ProjectName string `json:"project_name,omitempty"`
}

// GenerationTarget is a post joined with the generation endpoint of its
// network, used when regenerating a single post.
type GenerationTarget struct {
	Post
	NetworkName          string
	GenerationWebhookURL string
}
