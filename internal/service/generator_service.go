package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"contentfactory/internal/models"
	"contentfactory/internal/repository"
	"contentfactory/internal/transfer"
	"contentfactory/pkg/utils"
)

const (
	defaultPrompt      = "create a simple post"
	defaultPublishTime = "10:00:00"
)

// GeneratorService expands a content plan's dates x platforms matrix into
// generated posts and regenerates single posts on demand. Posts already
// approved or published are never touched.
type GeneratorService interface {
	GeneratePlan(ctx context.Context, planID int64) (*transfer.GenerationSummary, error)
	GeneratePost(ctx context.Context, postID int64, genType string) error
}

type generatorService struct {
	plans      repository.ContentPlanRepository
	networks   repository.SocialNetworkRepository
	posts      repository.PostRepository
	dispatcher WebhookDispatcher
	media      MediaService
	now        func() time.Time
}

func NewGeneratorService(
	plans repository.ContentPlanRepository,
	networks repository.SocialNetworkRepository,
	posts repository.PostRepository,
	dispatcher WebhookDispatcher,
	media MediaService) GeneratorService {
	return &generatorService{
		plans:      plans,
		networks:   networks,
		posts:      posts,
		dispatcher: dispatcher,
		media:      media,
		now:        time.Now,
	}
}

func (s *generatorService) GeneratePlan(ctx context.Context, planID int64) (*transfer.GenerationSummary, error) {
	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, errors.New("plan not found")
	}

	ids := make([]int64, 0, len(plan.Platforms))
	for _, p := range plan.Platforms {
		ids = append(ids, p.ID)
	}

	networks, err := s.networks.ListByIDs(ctx, plan.ProjectID, ids)
	if err != nil {
		return nil, err
	}
	if len(networks) == 0 {
		return nil, errors.New("no valid social networks found for this plan")
	}

	slog.Info("starting content generation", "plan_id", planID, "dates", len(plan.Dates), "networks", len(networks))

	totalGenerated := 0
	for _, date := range plan.Dates {
		for _, network := range networks {
			generated, err := s.generatePair(ctx, plan, network, date)
			if err != nil {
				// Pairs already generated in this invocation stay; there is
				// no rollback across pairs.
				return nil, fmt.Errorf("generation failed for %s on %s: %w", network.Name, date, err)
			}
			if generated {
				totalGenerated++
			}
		}
	}

	if err := s.plans.MarkGenerated(ctx, planID); err != nil {
		slog.Info(err.Error())
	}

	return &transfer.GenerationSummary{
		GeneratedDates: len(plan.Dates),
		Networks:       len(networks),
		TotalGenerated: totalGenerated,
	}, nil
}

func (s *generatorService) generatePair(ctx context.Context, plan *models.ContentPlan, network *models.SocialNetwork, date string) (bool, error) {
	if network.GenerationWebhookURL == "" {
		slog.Info("no generation webhook configured", "network", network.Name)
		return false, nil
	}

	protected, err := s.posts.ExistsProtected(ctx, plan.ID, network.ID, date)
	if err != nil {
		return false, err
	}
	if protected {
		slog.Info("skipping generation, post already approved or published", "network", network.Name, "date", date)
		return false, nil
	}

	// Stale drafts for the triple are replaced, never merged.
	if err := s.posts.DeleteUnprotected(ctx, plan.ID, network.ID, date); err != nil {
		return false, err
	}

	prompt, ok := utils.ExtractNetworkSection(plan.Prompt, network.Name)
	if !ok {
		prompt = defaultPrompt
	}

	body, err := s.dispatcher.Deliver(ctx, network.GenerationWebhookURL, transfer.GenerationRequest{
		Prompt:      prompt,
		NetworkName: network.Name,
		PublishDate: date,
	})
	if err != nil {
		return false, err
	}

	result, err := decodeGenerationResult(body)
	if err != nil {
		return false, err
	}

	media := s.media.DownloadImages(ctx, result.ImageURL, network.Name)

	publishAt, err := publishTime(date, network.DefaultPublishTime)
	if err != nil {
		return false, fmt.Errorf("invalid publish time: %w", err)
	}

	text := result.Caption
	if text == "" {
		text = result.TextContent
	}
	if text == "" {
		text = plan.Prompt
	}

	post := &models.Post{
		ProjectID:       plan.ProjectID,
		SocialNetworkID: network.ID,
		ContentPlanID:   plan.ID,
		PublishAt:       publishAt,
		TextContent:     text,
		MediaFiles:      media,
		Tags:            result.Tags,
		Status:          models.PostStatusGenerated,
	}

	id, err := s.posts.Create(ctx, post)
	if err != nil {
		return false, err
	}

	slog.Info("created generated post", "post_id", id, "network", network.Name, "date", date, "media", len(media))
	return true, nil
}

// GeneratePost regenerates a single post in place. genType selects what the
// webhook output overwrites: "text", "image" or "all".
func (s *generatorService) GeneratePost(ctx context.Context, postID int64, genType string) error {
	target, err := s.posts.GetForGeneration(ctx, postID)
	if err != nil {
		return err
	}
	if target == nil {
		return errors.New("post not found")
	}
	if target.GenerationWebhookURL == "" {
		return errors.New("no generation webhook configured for this social network")
	}

	if genType == "" {
		genType = "all"
	}

	prompt := target.TextContent
	if prompt == "" {
		prompt = defaultPrompt
	}

	body, err := s.dispatcher.Deliver(ctx, target.GenerationWebhookURL, transfer.GenerationRequest{
		Prompt:      prompt,
		NetworkName: target.NetworkName,
		PublishDate: target.PublishAt.Format("2006-01-02"),
		Type:        genType,
		PostID:      postID,
		ProjectID:   target.ProjectID,
	})
	if err != nil {
		return err
	}

	result, err := decodeGenerationResult(body)
	if err != nil {
		return err
	}

	var text *string
	var tags, media []string

	if genType == "all" || genType == "text" {
		if t := firstNonEmpty(result.Caption, result.TextContent); t != "" {
			text = &t
		}
		tags = result.Tags
	}
	if genType == "all" || genType == "image" {
		media = s.media.DownloadImages(ctx, result.ImageURL, target.NetworkName)
	}

	return s.posts.ApplyGeneration(ctx, postID, text, tags, media)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// decodeGenerationResult accepts the webhook's reply, which is an array of
// result objects (the first one counts) or a single object.
func decodeGenerationResult(body []byte) (*transfer.GenerationResult, error) {
	var results []transfer.GenerationResult
	if err := json.Unmarshal(body, &results); err != nil {
		var single transfer.GenerationResult
		if err2 := json.Unmarshal(body, &single); err2 != nil {
			return nil, fmt.Errorf("decode generation response: %w", err)
		}
		return &single, nil
	}
	if len(results) == 0 {
		return nil, errors.New("empty generation response")
	}
	return &results[0], nil
}

// publishTime combines a plan date with the network's default time of day.
func publishTime(date, timeOfDay string) (time.Time, error) {
	if timeOfDay == "" {
		timeOfDay = defaultPublishTime
	}

	t, err := time.ParseInLocation("2006-01-02 15:04:05", date+" "+timeOfDay, time.Local)
	if err != nil {
		t, err = time.ParseInLocation("2006-01-02 15:04", date+" "+timeOfDay, time.Local)
	}
	return t, err
}
