package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"contentfactory/internal/models"
	"contentfactory/internal/transfer"
)

type PostRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	GetDetail(ctx context.Context, id int64) (*models.PostDetail, error)
	Create(ctx context.Context, post *models.Post) (int64, error)
	Update(ctx context.Context, id int64, upd *transfer.PostUpdate) (*models.Post, error)
	Remove(ctx context.Context, id int64) error
	ListByProject(ctx context.Context, projectID int64, start, end *time.Time) ([]*models.PostDetail, error)

	ListDue(ctx context.Context, now time.Time) ([]*models.DuePost, error)
	ListQueue(ctx context.Context, now time.Time, limit int) ([]*models.PostDetail, error)
	ListHistory(ctx context.Context, now time.Time, status string, limit, offset int) ([]*models.PostDetail, int, error)
	CountByStatus(ctx context.Context, now time.Time) (map[string]int, error)

	UpdateStatusFrom(ctx context.Context, id int64, from, to string) (bool, error)
	GetAttempts(ctx context.Context, id int64) (int, error)
	ScheduleRetry(ctx context.Context, id int64, retryAt time.Time) error
	RecordFailedAttempt(ctx context.Context, id int64) error
	ResetForRetry(ctx context.Context, id int64, now time.Time) error

	ExistsProtected(ctx context.Context, planID, networkID int64, date string) (bool, error)
	DeleteUnprotected(ctx context.Context, planID, networkID int64, date string) error
	GetForGeneration(ctx context.Context, id int64) (*models.GenerationTarget, error)
	ApplyGeneration(ctx context.Context, id int64, text *string, tags, media []string) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `p.id, p.project_id, p.social_network_id, p.content_plan_id, p.publish_at,
	COALESCE(p.text_content, ''), p.media_files, p.tags, p.status, p.publish_attempts, p.created_at, p.updated_at`

func scanPost(row interface{ Scan(...any) error }, post *models.Post) error {
	var planID sql.NullInt64
	var media, tags []byte

	err := row.Scan(&post.ID, &post.ProjectID, &post.SocialNetworkID, &planID, &post.PublishAt,
		&post.TextContent, &media, &tags, &post.Status, &post.PublishAttempts, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return err
	}

	post.ContentPlanID = planID.Int64
	post.MediaFiles = decodeStringList(media)
	post.Tags = decodeStringList(tags)
	return nil
}

func decodeStringList(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		slog.Info(err.Error())
		return nil
	}
	return list
}

// encodeStringList returns nil for an empty list so the column stays NULL.
func encodeStringList(list []string) any {
	if len(list) == 0 {
		return nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		slog.Info(err.Error())
		return nil
	}
	return b
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var post models.Post
	if err := scanPost(row, &post); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &post, nil
}

func (r *postRepository) GetDetail(ctx context.Context, id int64) (*models.PostDetail, error) {
	query := `
		SELECT ` + postColumns + `, COALESCE(sn.name, ''), COALESCE(sn.logo_url, '')
		FROM posts p
		LEFT JOIN social_networks sn ON p.social_network_id = sn.id
		WHERE p.id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var detail models.PostDetail
	var planID sql.NullInt64
	var media, tags []byte
	err := row.Scan(&detail.ID, &detail.ProjectID, &detail.SocialNetworkID, &planID, &detail.PublishAt,
		&detail.TextContent, &media, &tags, &detail.Status, &detail.PublishAttempts, &detail.CreatedAt,
		&detail.UpdatedAt, &detail.NetworkName, &detail.NetworkLogo)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	detail.ContentPlanID = planID.Int64
	detail.MediaFiles = decodeStringList(media)
	detail.Tags = decodeStringList(tags)
	return &detail, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (project_id, social_network_id, content_plan_id, publish_at, text_content, media_files, tags, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, post.ProjectID, post.SocialNetworkID, nullableID(post.ContentPlanID),
		post.PublishAt, post.TextContent, encodeStringList(post.MediaFiles), encodeStringList(post.Tags), post.Status).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) Update(ctx context.Context, id int64, upd *transfer.PostUpdate) (*models.Post, error) {
	query := `
		UPDATE posts SET
			text_content = COALESCE($1, text_content),
			publish_at = COALESCE($2, publish_at),
			status = COALESCE($3, status),
			media_files = COALESCE($4, media_files),
			tags = COALESCE($5, tags),
			content_plan_id = COALESCE($6, content_plan_id),
			social_network_id = COALESCE($7, social_network_id),
			updated_at = NOW()
		WHERE id = $8
		RETURNING id, project_id, social_network_id, content_plan_id, publish_at,
			COALESCE(text_content, ''), media_files, tags, status, publish_attempts, created_at, updated_at
	`

	row := r.db.QueryRowContext(ctx, query, upd.TextContent, upd.PublishAt, upd.Status,
		encodeStringList(upd.MediaFiles), encodeStringList(upd.Tags), upd.ContentPlanID, upd.SocialNetworkID, id)

	var post models.Post
	if err := scanPost(row, &post); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &post, nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM posts WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) ListByProject(ctx context.Context, projectID int64, start, end *time.Time) ([]*models.PostDetail, error) {
	query := `
		SELECT ` + postColumns + `, COALESCE(sn.name, ''), COALESCE(sn.logo_url, '')
		FROM posts p
		LEFT JOIN social_networks sn ON p.social_network_id = sn.id
		WHERE p.project_id = $1
	`
	params := []any{projectID}

	if start != nil && end != nil {
		query += ` AND p.publish_at BETWEEN $2 AND $3`
		params = append(params, *start, *end)
	}

	query += ` ORDER BY p.publish_at ASC`

	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return scanDetails(rows, false)
}

func scanDetails(rows *sql.Rows, withProject bool) ([]*models.PostDetail, error) {
	var details []*models.PostDetail
	for rows.Next() {
		var detail models.PostDetail
		var planID sql.NullInt64
		var media, tags []byte

		dest := []any{&detail.ID, &detail.ProjectID, &detail.SocialNetworkID, &planID, &detail.PublishAt,
			&detail.TextContent, &media, &tags, &detail.Status, &detail.PublishAttempts, &detail.CreatedAt,
			&detail.UpdatedAt, &detail.NetworkName, &detail.NetworkLogo}
		if withProject {
			dest = append(dest, &detail.ProjectName)
		}

		if err := rows.Scan(dest...); err != nil {
			slog.Info(err.Error())
			return nil, err
		}

		detail.ContentPlanID = planID.Int64
		detail.MediaFiles = decodeStringList(media)
		detail.Tags = decodeStringList(tags)
		details = append(details, &detail)
	}
	return details, rows.Err()
}

// ListDue selects the posts eligible for one dispatch attempt: approved,
// due at or before now, and belonging to a network with a publishing
// webhook. Earliest due first.
func (r *postRepository) ListDue(ctx context.Context, now time.Time) ([]*models.DuePost, error) {
	query := `
		SELECT ` + postColumns + `, sn.name, sn.publishing_webhook_url
		FROM posts p
		JOIN social_networks sn ON p.social_network_id = sn.id
		WHERE p.status = $1
		AND p.publish_at <= $2
		AND sn.publishing_webhook_url IS NOT NULL
		AND sn.publishing_webhook_url <> ''
		ORDER BY p.publish_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusApproved, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var due []*models.DuePost
	for rows.Next() {
		var post models.DuePost
		var planID sql.NullInt64
		var media, tags []byte

		err := rows.Scan(&post.ID, &post.ProjectID, &post.SocialNetworkID, &planID, &post.PublishAt,
			&post.TextContent, &media, &tags, &post.Status, &post.PublishAttempts, &post.CreatedAt,
			&post.UpdatedAt, &post.NetworkName, &post.PublishingWebhookURL)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}

		post.ContentPlanID = planID.Int64
		post.MediaFiles = decodeStringList(media)
		post.Tags = decodeStringList(tags)
		due = append(due, &post)
	}
	return due, rows.Err()
}

func (r *postRepository) ListQueue(ctx context.Context, now time.Time, limit int) ([]*models.PostDetail, error) {
	query := `
		SELECT ` + postColumns + `, sn.name, COALESCE(sn.logo_url, ''), pr.name
		FROM posts p
		JOIN social_networks sn ON p.social_network_id = sn.id
		JOIN projects pr ON p.project_id = pr.id
		WHERE p.status = $1
		AND p.publish_at > $2
		ORDER BY p.publish_at ASC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusApproved, now, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return scanDetails(rows, true)
}

func (r *postRepository) ListHistory(ctx context.Context, now time.Time, status string, limit, offset int) ([]*models.PostDetail, int, error) {
	where := `WHERE p.publish_at <= $1`
	params := []any{now}

	if status != "" {
		where += ` AND p.status = $2`
		params = append(params, status)
	}

	countQuery := `SELECT COUNT(*) FROM posts p ` + where
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, params...).Scan(&total); err != nil {
		slog.Info(err.Error())
		return nil, 0, err
	}

	query := `
		SELECT ` + postColumns + `, sn.name, COALESCE(sn.logo_url, ''), pr.name
		FROM posts p
		JOIN social_networks sn ON p.social_network_id = sn.id
		JOIN projects pr ON p.project_id = pr.id
		` + where + `
		ORDER BY p.publish_at DESC
		LIMIT $` + strconv.Itoa(len(params)+1) + ` OFFSET $` + strconv.Itoa(len(params)+2)
	params = append(params, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, params...)
	if err != nil {
		slog.Info(err.Error())
		return nil, 0, err
	}
	defer rows.Close()

	details, err := scanDetails(rows, true)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

func (r *postRepository) CountByStatus(ctx context.Context, now time.Time) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM posts
		WHERE publish_at <= $1
		GROUP BY status
		ORDER BY status
	`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// UpdateStatusFrom transitions a post only when it still holds the expected
// status, so a concurrent scan cannot claim the same post twice.
func (r *postRepository) UpdateStatusFrom(ctx context.Context, id int64, from, to string) (bool, error) {
	query := `UPDATE posts SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected > 0, nil
}

func (r *postRepository) GetAttempts(ctx context.Context, id int64) (int, error) {
	query := `SELECT publish_attempts FROM posts WHERE id = $1`

	var attempts int
	err := r.db.QueryRowContext(ctx, query, id).Scan(&attempts)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		slog.Info(err.Error())
		return 0, err
	}
	return attempts, nil
}

// ScheduleRetry re-queues a failed post for a future scan.
func (r *postRepository) ScheduleRetry(ctx context.Context, id int64, retryAt time.Time) error {
	query := `
		UPDATE posts
		SET status = $1,
			publish_attempts = publish_attempts + 1,
			publish_at = $2,
			updated_at = NOW()
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusApproved, retryAt, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// RecordFailedAttempt bumps the attempt counter without rescheduling; the
// post stays failed until an operator retries it.
func (r *postRepository) RecordFailedAttempt(ctx context.Context, id int64) error {
	query := `UPDATE posts SET publish_attempts = publish_attempts + 1, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// ResetForRetry puts a failed post back at the front of the queue with a
// fresh attempt budget.
func (r *postRepository) ResetForRetry(ctx context.Context, id int64, now time.Time) error {
	query := `
		UPDATE posts
		SET status = $1,
			publish_attempts = 0,
			publish_at = $2,
			updated_at = NOW()
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, models.PostStatusApproved, now, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// ExistsProtected reports whether the (plan, network, date) triple already
// has an approved or published post, which generation must never touch.
func (r *postRepository) ExistsProtected(ctx context.Context, planID, networkID int64, date string) (bool, error) {
	query := `
		SELECT 1 FROM posts
		WHERE content_plan_id = $1
		AND social_network_id = $2
		AND DATE(publish_at) = $3
		AND status IN ($4, $5)
		LIMIT 1
	`

	var one int
	err := r.db.QueryRowContext(ctx, query, planID, networkID, date,
		models.PostStatusApproved, models.PostStatusPublished).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	return true, nil
}

// DeleteUnprotected clears stale drafts for a triple before regeneration.
func (r *postRepository) DeleteUnprotected(ctx context.Context, planID, networkID int64, date string) error {
	query := `
		DELETE FROM posts
		WHERE content_plan_id = $1
		AND social_network_id = $2
		AND DATE(publish_at) = $3
		AND status NOT IN ($4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, planID, networkID, date,
		models.PostStatusApproved, models.PostStatusPublished)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) GetForGeneration(ctx context.Context, id int64) (*models.GenerationTarget, error) {
	query := `
		SELECT ` + postColumns + `, sn.name, COALESCE(sn.generation_webhook_url, '')
		FROM posts p
		JOIN social_networks sn ON p.social_network_id = sn.id
		WHERE p.id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var target models.GenerationTarget
	var planID sql.NullInt64
	var media, tags []byte
	err := row.Scan(&target.ID, &target.ProjectID, &target.SocialNetworkID, &planID, &target.PublishAt,
		&target.TextContent, &media, &tags, &target.Status, &target.PublishAttempts, &target.CreatedAt,
		&target.UpdatedAt, &target.NetworkName, &target.GenerationWebhookURL)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	target.ContentPlanID = planID.Int64
	target.MediaFiles = decodeStringList(media)
	target.Tags = decodeStringList(tags)
	return &target, nil
}

// ApplyGeneration writes webhook output onto an existing post and marks it
// generated. Nil text and empty lists keep the stored values.
func (r *postRepository) ApplyGeneration(ctx context.Context, id int64, text *string, tags, media []string) error {
	query := `
		UPDATE posts SET
			text_content = COALESCE($1, text_content),
			tags = COALESCE($2, tags),
			media_files = COALESCE($3, media_files),
			status = $4,
			updated_at = NOW()
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, text, encodeStringList(tags), encodeStringList(media),
		models.PostStatusGenerated, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
