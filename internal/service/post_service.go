package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contentfactory/internal/models"
	"contentfactory/internal/repository"
	"contentfactory/internal/transfer"
)

var ErrPostNotFound = errors.New("post not found")

type PostService interface {
	List(ctx context.Context, projectID int64, start, end string) ([]*models.PostDetail, error)
	Get(ctx context.Context, id int64) (*models.PostDetail, error)
	Create(ctx context.Context, pc *transfer.PostCreation) (*models.Post, error)
	Update(ctx context.Context, id int64, upd *transfer.PostUpdate) (*models.Post, error)
	Remove(ctx context.Context, id int64) error
}

type postService struct {
	posts repository.PostRepository
}

func NewPostService(posts repository.PostRepository) PostService {
	return &postService{posts: posts}
}

func (s *postService) List(ctx context.Context, projectID int64, start, end string) ([]*models.PostDetail, error) {
	var startAt, endAt *time.Time

	if start != "" && end != "" {
		from, err := parseTimestamp(start)
		if err != nil {
			return nil, fmt.Errorf("invalid start: %w", err)
		}
		to, err := parseTimestamp(end)
		if err != nil {
			return nil, fmt.Errorf("invalid end: %w", err)
		}
		startAt, endAt = &from, &to
	}

	return s.posts.ListByProject(ctx, projectID, startAt, endAt)
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func (s *postService) Get(ctx context.Context, id int64) (*models.PostDetail, error) {
	post, err := s.posts.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *postService) Create(ctx context.Context, pc *transfer.PostCreation) (*models.Post, error) {
	publishAt, err := parseTimestamp(pc.PublishAt)
	if err != nil {
		return nil, err
	}

	status := pc.Status
	if status == "" {
		status = models.PostStatusDraft
	}

	post := &models.Post{
		ProjectID:       pc.ProjectID,
		SocialNetworkID: pc.SocialNetworkID,
		PublishAt:       publishAt,
		TextContent:     pc.TextContent,
		Status:          status,
	}

	id, err := s.posts.Create(ctx, post)
	if err != nil {
		return nil, err
	}

	return s.posts.GetByID(ctx, id)
}

func (s *postService) Update(ctx context.Context, id int64, upd *transfer.PostUpdate) (*models.Post, error) {
	post, err := s.posts.Update(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *postService) Remove(ctx context.Context, id int64) error {
	return s.posts.Remove(ctx, id)
}
