// Package scheduler owns the automatic post-publication loop: a minute
// trigger scans for approved posts whose publish time has passed, delivers
// each one to its network's publishing webhook and manages retry state with
// exponential backoff.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"contentfactory/internal/models"
	"contentfactory/internal/repository"
	"contentfactory/internal/service"
	"contentfactory/internal/transfer"
	"github.com/robfig/cron"
)

const (
	checkSpec          = "@every 0h1m0s"
	maxPublishAttempts = 3
	baseRetryDelay     = time.Minute
)

type PostScheduler struct {
	posts      repository.PostRepository
	dispatcher service.WebhookDispatcher

	mu      sync.Mutex // guards cron and running
	cron    *cron.Cron
	running bool

	scanMu sync.Mutex // serializes scans across timer and manual entry points

	now func() time.Time
}

func New(posts repository.PostRepository, dispatcher service.WebhookDispatcher) *PostScheduler {
	return &PostScheduler{
		posts:      posts,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// Start registers the minute trigger. Calling it on a running scheduler is
// a no-op.
func (s *PostScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		slog.Warn("post scheduler is already running")
		return
	}

	c := cron.New()
	c.AddFunc(checkSpec, s.tick)
	c.Start()

	s.cron = c
	s.running = true
	slog.Info("post scheduler started, checking every minute")
}

// Stop cancels future ticks. An in-flight scan runs to completion.
func (s *PostScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
	s.running = false
	slog.Info("post scheduler stopped")
}

func (s *PostScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *PostScheduler) tick() {
	// A slow cycle may still be running when the next tick fires; skip it
	// so a due post gets at most one attempt per cycle.
	if !s.scanMu.TryLock() {
		slog.Warn("publication scan still in progress, skipping tick")
		return
	}
	defer s.scanMu.Unlock()

	if err := s.checkAndPublish(context.Background()); err != nil {
		slog.Error("publication scan failed", "error", err)
	}
}

// ManualCheck runs one scan-and-publish cycle outside the timer. It shares
// the scan lock with the timer path, so concurrent entry points serialize.
func (s *PostScheduler) ManualCheck(ctx context.Context) error {
	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	return s.checkAndPublish(ctx)
}

func (s *PostScheduler) checkAndPublish(ctx context.Context) error {
	due, err := s.posts.ListDue(ctx, s.now())
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	slog.Info("found posts for publication", "count", len(due))

	// Earliest due first; one post's failure never aborts the rest.
	for _, post := range due {
		s.publish(ctx, post)
	}
	return nil
}

func (s *PostScheduler) publish(ctx context.Context, post *models.DuePost) {
	slog.Info("publishing post", "post_id", post.ID, "network", post.NetworkName)

	payload := transfer.PublishPayload{
		PostID:          post.ID,
		NetworkName:     post.NetworkName,
		TextContent:     post.TextContent,
		MediaFiles:      post.MediaFiles,
		Tags:            post.Tags,
		PublishAt:       post.PublishAt,
		ProjectID:       post.ProjectID,
		SocialNetworkID: post.SocialNetworkID,
	}

	body, err := s.dispatcher.Deliver(ctx, post.PublishingWebhookURL, payload)
	if err != nil {
		slog.Error("publishing post", "post_id", post.ID, "network", post.NetworkName, "error", err)
		s.handleFailure(ctx, post)
		return
	}

	claimed, err := s.posts.UpdateStatusFrom(ctx, post.ID, models.PostStatusApproved, models.PostStatusPublished)
	if err != nil {
		slog.Error("updating post status", "post_id", post.ID, "error", err)
		return
	}
	if !claimed {
		slog.Warn("post no longer approved, leaving it untouched", "post_id", post.ID)
		return
	}

	slog.Info("post published", "post_id", post.ID, "network", post.NetworkName)
	if len(body) > 0 {
		slog.Debug("publishing webhook response", "post_id", post.ID, "body", string(body))
	}
}

// handleFailure marks the post failed, then re-queues it with backoff while
// attempts remain. Past the cap the post stays failed until an operator
// retries it; the counter still advances for the audit trail.
func (s *PostScheduler) handleFailure(ctx context.Context, post *models.DuePost) {
	if _, err := s.posts.UpdateStatusFrom(ctx, post.ID, models.PostStatusApproved, models.PostStatusFailed); err != nil {
		slog.Error("marking post failed", "post_id", post.ID, "error", err)
		return
	}

	attempts, err := s.posts.GetAttempts(ctx, post.ID)
	if err != nil {
		slog.Error("reading publish attempts", "post_id", post.ID, "error", err)
		return
	}

	if attempts < maxPublishAttempts {
		delay := retryDelay(attempts)
		if err := s.posts.ScheduleRetry(ctx, post.ID, s.now().Add(delay)); err != nil {
			slog.Error("scheduling retry", "post_id", post.ID, "error", err)
			return
		}
		slog.Info("post scheduled for retry", "post_id", post.ID, "delay", delay.String(),
			"attempt", attempts+1, "max_attempts", maxPublishAttempts)
		return
	}

	if err := s.posts.RecordFailedAttempt(ctx, post.ID); err != nil {
		slog.Error("recording failed attempt", "post_id", post.ID, "error", err)
		return
	}
	slog.Error("post could not be published, giving up", "post_id", post.ID, "attempts", attempts+1)
}

// retryDelay doubles per attempt: 1, 2 and 4 minutes.
func retryDelay(attempts int) time.Duration {
	return time.Duration(1<<attempts) * baseRetryDelay
}

// Stats counts posts per status among those whose publish time has passed.
func (s *PostScheduler) Stats(ctx context.Context) (map[string]int, error) {
	return s.posts.CountByStatus(ctx, s.now())
}
