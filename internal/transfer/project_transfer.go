package transfer

import "contentfactory/internal/models"

type ProjectCreation struct {
	Name    string `json:"name"`
	OwnerID int64  `json:"owner_id"`
}

type ProjectDetail struct {
	models.Project
	SocialNetworks []*models.SocialNetwork `json:"social_networks"`
	Members        []*models.ProjectMember `json:"members"`
}

type SocialNetworkCreation struct {
	Name                 string `json:"name"`
	LogoURL              string `json:"logo_url"`
	PublishingWebhookURL string `json:"publishing_webhook_url"`
	GenerationWebhookURL string `json:"generation_webhook_url"`
	DefaultPublishTime   string `json:"default_publish_time"`
	DefaultPrompt        string `json:"default_prompt"`
}

type MemberCreation struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type PasswordChange struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// ContentPlanUpsert creates a plan when ID is zero and updates it
// otherwise. An update with no dates left deletes the plan.
type ContentPlanUpsert struct {
	ID        int64                `json:"id"`
	Name      string               `json:"name"`
	Prompt    string               `json:"prompt"`
	Dates     []string             `json:"dates"`
	Platforms []models.PlatformRef `json:"platforms"`
	Color     string               `json:"color"`
}
