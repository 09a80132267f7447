package models

import "time"

// SocialNetwork is a publishing/generation target inside a project. Webhook
// URLs may be empty; such networks are skipped by the scheduler and the
// content-plan generator.
type SocialNetwork struct {
	ID                   int64     `db:"id" json:"id"`
	ProjectID            int64     `db:"project_id" json:"project_id"`
	Name                 string    `db:"name" json:"name"`
	LogoURL              string    `db:"logo_url" json:"logo_url"`
	PublishingWebhookURL string    `db:"publishing_webhook_url" json:"publishing_webhook_url"`
	GenerationWebhookURL string    `db:"generation_webhook_url" json:"generation_webhook_url"`
	DefaultPublishTime   string    `db:"default_publish_time" json:"default_publish_time"`
	DefaultPrompt        string    `db:"default_prompt" json:"default_prompt"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}
