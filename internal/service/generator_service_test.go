package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"contentfactory/internal/models"
	"contentfactory/internal/transfer"
)

type fakePlanRepo struct {
	plan      *models.ContentPlan
	generated bool
}

func (r *fakePlanRepo) GetByID(ctx context.Context, id int64) (*models.ContentPlan, error) {
	if r.plan != nil && r.plan.ID == id {
		return r.plan, nil
	}
	return nil, nil
}

func (r *fakePlanRepo) MarkGenerated(ctx context.Context, id int64) error {
	r.generated = true
	return nil
}

func (r *fakePlanRepo) ListByProject(ctx context.Context, projectID int64) ([]*models.ContentPlan, error) {
	return nil, nil
}
func (r *fakePlanRepo) Create(ctx context.Context, projectID int64, plan *transfer.ContentPlanUpsert) (*models.ContentPlan, error) {
	return nil, nil
}
func (r *fakePlanRepo) Update(ctx context.Context, plan *transfer.ContentPlanUpsert) (*models.ContentPlan, error) {
	return nil, nil
}
func (r *fakePlanRepo) Remove(ctx context.Context, id int64) error { return nil }

type fakeNetworkRepo struct {
	networks []*models.SocialNetwork
}

func (r *fakeNetworkRepo) ListByIDs(ctx context.Context, projectID int64, ids []int64) ([]*models.SocialNetwork, error) {
	var out []*models.SocialNetwork
	for _, n := range r.networks {
		for _, id := range ids {
			if n.ID == id && n.ProjectID == projectID {
				out = append(out, n)
			}
		}
	}
	return out, nil
}

func (r *fakeNetworkRepo) GetByID(ctx context.Context, id int64) (*models.SocialNetwork, error) {
	return nil, nil
}
func (r *fakeNetworkRepo) ListByProject(ctx context.Context, projectID int64) ([]*models.SocialNetwork, error) {
	return nil, nil
}
func (r *fakeNetworkRepo) Create(ctx context.Context, projectID int64, sn *transfer.SocialNetworkCreation) (*models.SocialNetwork, error) {
	return nil, nil
}
func (r *fakeNetworkRepo) Update(ctx context.Context, id int64, sn *transfer.SocialNetworkCreation) (*models.SocialNetwork, error) {
	return nil, nil
}
func (r *fakeNetworkRepo) Remove(ctx context.Context, id int64) error { return nil }

// genPostRepo tracks creations and deletions keyed by plan/network/date.
type genPostRepo struct {
	mu        sync.Mutex
	nextID    int64
	created   []*models.Post
	protected map[string]bool
	deleted   []string
	target    *models.GenerationTarget
	applied   *appliedGeneration
}

type appliedGeneration struct {
	text  *string
	tags  []string
	media []string
}

func tripleKey(planID, networkID int64, date string) string {
	return fmt.Sprintf("%d/%d/%s", planID, networkID, date)
}

func (r *genPostRepo) Create(ctx context.Context, post *models.Post) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	post.ID = r.nextID
	r.created = append(r.created, post)
	return post.ID, nil
}

func (r *genPostRepo) ExistsProtected(ctx context.Context, planID, networkID int64, date string) (bool, error) {
	return r.protected[tripleKey(planID, networkID, date)], nil
}

func (r *genPostRepo) DeleteUnprotected(ctx context.Context, planID, networkID int64, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, tripleKey(planID, networkID, date))
	return nil
}

func (r *genPostRepo) GetForGeneration(ctx context.Context, id int64) (*models.GenerationTarget, error) {
	if r.target != nil && r.target.ID == id {
		return r.target, nil
	}
	return nil, nil
}

func (r *genPostRepo) ApplyGeneration(ctx context.Context, id int64, text *string, tags, media []string) error {
	r.applied = &appliedGeneration{text: text, tags: tags, media: media}
	return nil
}

func (r *genPostRepo) GetByID(ctx context.Context, id int64) (*models.Post, error) { return nil, nil }
func (r *genPostRepo) GetDetail(ctx context.Context, id int64) (*models.PostDetail, error) {
	return nil, nil
}
func (r *genPostRepo) Update(ctx context.Context, id int64, upd *transfer.PostUpdate) (*models.Post, error) {
	return nil, nil
}
func (r *genPostRepo) Remove(ctx context.Context, id int64) error { return nil }
func (r *genPostRepo) ListByProject(ctx context.Context, projectID int64, start, end *time.Time) ([]*models.PostDetail, error) {
	return nil, nil
}
func (r *genPostRepo) ListDue(ctx context.Context, now time.Time) ([]*models.DuePost, error) {
	return nil, nil
}
func (r *genPostRepo) ListQueue(ctx context.Context, now time.Time, limit int) ([]*models.PostDetail, error) {
	return nil, nil
}
func (r *genPostRepo) ListHistory(ctx context.Context, now time.Time, status string, limit, offset int) ([]*models.PostDetail, int, error) {
	return nil, 0, nil
}
func (r *genPostRepo) CountByStatus(ctx context.Context, now time.Time) (map[string]int, error) {
	return nil, nil
}
func (r *genPostRepo) UpdateStatusFrom(ctx context.Context, id int64, from, to string) (bool, error) {
	return false, nil
}
func (r *genPostRepo) GetAttempts(ctx context.Context, id int64) (int, error) { return 0, nil }
func (r *genPostRepo) ScheduleRetry(ctx context.Context, id int64, retryAt time.Time) error {
	return nil
}
func (r *genPostRepo) RecordFailedAttempt(ctx context.Context, id int64) error      { return nil }
func (r *genPostRepo) ResetForRetry(ctx context.Context, id int64, now time.Time) error { return nil }

type fakeMedia struct {
	saved []string
}

func (m *fakeMedia) DownloadImages(ctx context.Context, refs []string, networkName string) []string {
	var out []string
	for i := range refs {
		name := fmt.Sprintf("%s-%d.jpg", networkName, i)
		out = append(out, name)
		m.saved = append(m.saved, name)
	}
	return out
}

func (m *fakeMedia) SaveUpload(ctx context.Context, originalName string, data []byte) (string, string, error) {
	return originalName, "image/jpeg", nil
}

func planFixture(webhookURL string) (*fakePlanRepo, *fakeNetworkRepo) {
	plans := &fakePlanRepo{
		plan: &models.ContentPlan{
			ID:        7,
			ProjectID: 1,
			Name:      "September",
			Prompt:    "[Telegram Settings]\nwrite about go\n[VK Settings]\nwrite about sql",
			Dates:     []string{"2026-09-10", "2026-09-11"},
			Platforms: []models.PlatformRef{{ID: 3}},
		},
	}
	networks := &fakeNetworkRepo{
		networks: []*models.SocialNetwork{{
			ID:                   3,
			ProjectID:            1,
			Name:                 "Telegram",
			GenerationWebhookURL: webhookURL,
			DefaultPublishTime:   "12:30:00",
		}},
	}
	return plans, networks
}

func generationWebhook(t *testing.T, results any) (*httptest.Server, *[]transfer.GenerationRequest) {
	t.Helper()
	var requests []transfer.GenerationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req transfer.GenerationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding generation request: %v", err)
		}
		requests = append(requests, req)
		json.NewEncoder(w).Encode(results)
	}))
	return srv, &requests
}

func TestGeneratePlanCreatesPostPerDateAndNetwork(t *testing.T) {
	srv, requests := generationWebhook(t, []transfer.GenerationResult{{
		Caption:  "generated caption",
		Tags:     []string{"go", "sql"},
		ImageURL: transfer.ImageURLList{"https://img.example/1.png"},
	}})
	defer srv.Close()

	plans, networks := planFixture(srv.URL)
	posts := &genPostRepo{}
	media := &fakeMedia{}
	g := NewGeneratorService(plans, networks, posts, NewWebhookDispatcher(), media)

	summary, err := g.GeneratePlan(context.Background(), 7)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}

	if summary.TotalGenerated != 2 || summary.GeneratedDates != 2 || summary.Networks != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if len(posts.created) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts.created))
	}

	first := posts.created[0]
	if first.Status != models.PostStatusGenerated {
		t.Errorf("expected generated status, got %s", first.Status)
	}
	if first.TextContent != "generated caption" {
		t.Errorf("unexpected text: %q", first.TextContent)
	}
	if first.ContentPlanID != 7 || first.SocialNetworkID != 3 {
		t.Errorf("post not linked to plan/network: %+v", first)
	}
	if len(first.MediaFiles) != 1 {
		t.Errorf("expected 1 media file, got %v", first.MediaFiles)
	}
	if first.PublishAt.Hour() != 12 || first.PublishAt.Minute() != 30 {
		t.Errorf("publish time must come from the network default, got %v", first.PublishAt)
	}

	if len(*requests) != 2 {
		t.Fatalf("expected 2 webhook calls, got %d", len(*requests))
	}
	if (*requests)[0].Prompt != "write about go" {
		t.Errorf("prompt must be the network's section, got %q", (*requests)[0].Prompt)
	}

	if !plans.generated {
		t.Error("plan must be marked generated")
	}
}

func TestGeneratePlanSkipsProtectedPosts(t *testing.T) {
	srv, _ := generationWebhook(t, []transfer.GenerationResult{{Caption: "x"}})
	defer srv.Close()

	plans, networks := planFixture(srv.URL)
	posts := &genPostRepo{protected: map[string]bool{
		tripleKey(7, 3, "2026-09-10"): true,
	}}
	g := NewGeneratorService(plans, networks, posts, NewWebhookDispatcher(), &fakeMedia{})

	summary, err := g.GeneratePlan(context.Background(), 7)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}

	if summary.TotalGenerated != 1 {
		t.Errorf("expected only the unprotected pair generated, got %d", summary.TotalGenerated)
	}
	for _, key := range posts.deleted {
		if key == tripleKey(7, 3, "2026-09-10") {
			t.Error("protected pair must not have its drafts deleted")
		}
	}
}

func TestGeneratePlanReplacesStaleDrafts(t *testing.T) {
	srv, _ := generationWebhook(t, []transfer.GenerationResult{{Caption: "x"}})
	defer srv.Close()

	plans, networks := planFixture(srv.URL)
	posts := &genPostRepo{}
	g := NewGeneratorService(plans, networks, posts, NewWebhookDispatcher(), &fakeMedia{})

	if _, err := g.GeneratePlan(context.Background(), 7); err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}

	if len(posts.deleted) != 2 {
		t.Errorf("expected stale drafts cleared per pair, got %v", posts.deleted)
	}
}

func TestGeneratePlanAbortsOnWebhookFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode([]transfer.GenerationResult{{Caption: "ok"}})
	}))
	defer srv.Close()

	plans, networks := planFixture(srv.URL)
	posts := &genPostRepo{}
	g := NewGeneratorService(plans, networks, posts, NewWebhookDispatcher(), &fakeMedia{})

	_, err := g.GeneratePlan(context.Background(), 7)
	if err == nil {
		t.Fatal("expected error when a pair's webhook fails")
	}

	// The first pair's post survives; there is no rollback.
	if len(posts.created) != 1 {
		t.Errorf("expected the successful pair's post kept, got %d", len(posts.created))
	}
	if plans.generated {
		t.Error("plan must not be marked generated after a failed run")
	}
}

func TestGeneratePlanSkipsNetworksWithoutWebhook(t *testing.T) {
	plans, networks := planFixture("")
	posts := &genPostRepo{}
	g := NewGeneratorService(plans, networks, posts, NewWebhookDispatcher(), &fakeMedia{})

	summary, err := g.GeneratePlan(context.Background(), 7)
	if err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if summary.TotalGenerated != 0 {
		t.Errorf("expected nothing generated, got %d", summary.TotalGenerated)
	}
	if len(posts.created) != 0 {
		t.Errorf("expected no posts, got %d", len(posts.created))
	}
}

func TestGeneratePlanFallsBackToDefaultPrompt(t *testing.T) {
	srv, requests := generationWebhook(t, []transfer.GenerationResult{{Caption: "x"}})
	defer srv.Close()

	plans, networks := planFixture(srv.URL)
	plans.plan.Prompt = "no section headers here"
	posts := &genPostRepo{}
	g := NewGeneratorService(plans, networks, posts, NewWebhookDispatcher(), &fakeMedia{})

	if _, err := g.GeneratePlan(context.Background(), 7); err != nil {
		t.Fatalf("GeneratePlan: %v", err)
	}
	if (*requests)[0].Prompt != defaultPrompt {
		t.Errorf("expected fallback prompt, got %q", (*requests)[0].Prompt)
	}
}

func TestGeneratePostTextOnly(t *testing.T) {
	srv, requests := generationWebhook(t, []transfer.GenerationResult{{
		Caption:  "new text",
		Tags:     []string{"tag"},
		ImageURL: transfer.ImageURLList{"https://img.example/1.png"},
	}})
	defer srv.Close()

	posts := &genPostRepo{target: &models.GenerationTarget{
		Post: models.Post{
			ID:          5,
			ProjectID:   1,
			TextContent: "old text",
			PublishAt:   time.Date(2026, 9, 10, 12, 0, 0, 0, time.Local),
		},
		NetworkName:          "Telegram",
		GenerationWebhookURL: srv.URL,
	}}
	media := &fakeMedia{}
	g := NewGeneratorService(&fakePlanRepo{}, &fakeNetworkRepo{}, posts, NewWebhookDispatcher(), media)

	if err := g.GeneratePost(context.Background(), 5, "text"); err != nil {
		t.Fatalf("GeneratePost: %v", err)
	}

	if posts.applied == nil {
		t.Fatal("expected generation applied")
	}
	if posts.applied.text == nil || *posts.applied.text != "new text" {
		t.Errorf("expected text overwritten, got %v", posts.applied.text)
	}
	if len(posts.applied.media) != 0 {
		t.Errorf("text-only generation must not touch media, got %v", posts.applied.media)
	}
	if len(media.saved) != 0 {
		t.Errorf("text-only generation must not download images, got %v", media.saved)
	}

	req := (*requests)[0]
	if req.Type != "text" || req.PostID != 5 || req.Prompt != "old text" {
		t.Errorf("unexpected generation request: %+v", req)
	}
}

func TestGeneratePostDefaultsToAll(t *testing.T) {
	srv, requests := generationWebhook(t, []transfer.GenerationResult{{
		Caption:  "regenerated",
		ImageURL: transfer.ImageURLList{"https://img.example/a.png", "https://img.example/b.png"},
	}})
	defer srv.Close()

	posts := &genPostRepo{target: &models.GenerationTarget{
		Post:                 models.Post{ID: 5, PublishAt: time.Now()},
		NetworkName:          "Telegram",
		GenerationWebhookURL: srv.URL,
	}}
	g := NewGeneratorService(&fakePlanRepo{}, &fakeNetworkRepo{}, posts, NewWebhookDispatcher(), &fakeMedia{})

	if err := g.GeneratePost(context.Background(), 5, ""); err != nil {
		t.Fatalf("GeneratePost: %v", err)
	}
	if (*requests)[0].Type != "all" {
		t.Errorf("empty type must default to all, got %q", (*requests)[0].Type)
	}
	if len(posts.applied.media) != 2 {
		t.Errorf("expected 2 media files applied, got %v", posts.applied.media)
	}
}

func TestGeneratePostUnknownPost(t *testing.T) {
	g := NewGeneratorService(&fakePlanRepo{}, &fakeNetworkRepo{}, &genPostRepo{}, NewWebhookDispatcher(), &fakeMedia{})
	if err := g.GeneratePost(context.Background(), 99, "all"); err == nil {
		t.Fatal("expected error for unknown post")
	}
}

func TestDecodeGenerationResultShapes(t *testing.T) {
	got, err := decodeGenerationResult([]byte(`[{"caption":"a"},{"caption":"b"}]`))
	if err != nil {
		t.Fatalf("array shape: %v", err)
	}
	if got.Caption != "a" {
		t.Errorf("expected first element, got %q", got.Caption)
	}

	got, err = decodeGenerationResult([]byte(`{"caption":"solo"}`))
	if err != nil {
		t.Fatalf("object shape: %v", err)
	}
	if got.Caption != "solo" {
		t.Errorf("expected single object, got %q", got.Caption)
	}

	if _, err := decodeGenerationResult([]byte(`[]`)); err == nil {
		t.Error("empty array must be an error")
	}
	if _, err := decodeGenerationResult([]byte(`not json`)); err == nil {
		t.Error("garbage must be an error")
	}
}
