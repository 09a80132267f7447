package transfer

import "time"

type PostCreation struct {
	ProjectID       int64  `json:"project_id"`
	SocialNetworkID int64  `json:"social_network_id"`
	PublishAt       string `json:"publish_at"`
	TextContent     string `json:"text_content"`
	Status          string `json:"status"`
}

// PostUpdate is a partial update; nil fields keep the stored value.
type PostUpdate struct {
	TextContent     *string    `json:"text_content"`
	PublishAt       *time.Time `json:"publish_at"`
	Status          *string    `json:"status"`
	MediaFiles      []string   `json:"media_files"`
	Tags            []string   `json:"tags"`
	ContentPlanID   *int64     `json:"content_plan_id"`
	SocialNetworkID *int64     `json:"social_network_id"`
}

type PostGeneration struct {
	Type string `json:"type"`
}

// GenerationSummary reports a content-plan fan-out back to the caller.
type GenerationSummary struct {
	GeneratedDates int `json:"generated_dates"`
	Networks       int `json:"networks"`
	TotalGenerated int `json:"total_generated"`
}
