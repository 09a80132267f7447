package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"contentfactory/internal/models"
	"contentfactory/internal/transfer"
	"github.com/lib/pq"
)

type SocialNetworkRepository interface {
	GetByID(ctx context.Context, id int64) (*models.SocialNetwork, error)
	ListByProject(ctx context.Context, projectID int64) ([]*models.SocialNetwork, error)
	ListByIDs(ctx context.Context, projectID int64, ids []int64) ([]*models.SocialNetwork, error)
	Create(ctx context.Context, projectID int64, sn *transfer.SocialNetworkCreation) (*models.SocialNetwork, error)
	Update(ctx context.Context, id int64, sn *transfer.SocialNetworkCreation) (*models.SocialNetwork, error)
	Remove(ctx context.Context, id int64) error
}

type socialNetworkRepository struct {
	db *sql.DB
}

func NewSocialNetworkRepository(db *sql.DB) SocialNetworkRepository {
	return &socialNetworkRepository{db: db}
}

const networkColumns = `id, project_id, name, COALESCE(logo_url, ''), COALESCE(publishing_webhook_url, ''),
	COALESCE(generation_webhook_url, ''), COALESCE(default_publish_time, ''), COALESCE(default_prompt, ''), created_at`

func scanNetwork(row interface{ Scan(...any) error }, sn *models.SocialNetwork) error {
	return row.Scan(&sn.ID, &sn.ProjectID, &sn.Name, &sn.LogoURL, &sn.PublishingWebhookURL,
		&sn.GenerationWebhookURL, &sn.DefaultPublishTime, &sn.DefaultPrompt, &sn.CreatedAt)
}

func (r *socialNetworkRepository) GetByID(ctx context.Context, id int64) (*models.SocialNetwork, error) {
	query := `SELECT ` + networkColumns + ` FROM social_networks WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var sn models.SocialNetwork
	if err := scanNetwork(row, &sn); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &sn, nil
}

func (r *socialNetworkRepository) ListByProject(ctx context.Context, projectID int64) ([]*models.SocialNetwork, error) {
	query := `SELECT ` + networkColumns + ` FROM social_networks WHERE project_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectNetworks(rows)
}

func (r *socialNetworkRepository) ListByIDs(ctx context.Context, projectID int64, ids []int64) ([]*models.SocialNetwork, error) {
	query := `SELECT ` + networkColumns + ` FROM social_networks WHERE id = ANY($1) AND project_id = $2 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids), projectID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	return collectNetworks(rows)
}

func collectNetworks(rows *sql.Rows) ([]*models.SocialNetwork, error) {
	var networks []*models.SocialNetwork
	for rows.Next() {
		var sn models.SocialNetwork
		if err := scanNetwork(rows, &sn); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		networks = append(networks, &sn)
	}
	return networks, rows.Err()
}

func (r *socialNetworkRepository) Create(ctx context.Context, projectID int64, sn *transfer.SocialNetworkCreation) (*models.SocialNetwork, error) {
	query := `
		INSERT INTO social_networks (project_id, name, logo_url, publishing_webhook_url, generation_webhook_url, default_publish_time, default_prompt)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + networkColumns

	row := r.db.QueryRowContext(ctx, query, projectID, sn.Name, sn.LogoURL, sn.PublishingWebhookURL,
		sn.GenerationWebhookURL, sn.DefaultPublishTime, sn.DefaultPrompt)

	var created models.SocialNetwork
	if err := scanNetwork(row, &created); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &created, nil
}

func (r *socialNetworkRepository) Update(ctx context.Context, id int64, sn *transfer.SocialNetworkCreation) (*models.SocialNetwork, error) {
	query := `
		UPDATE social_networks
		SET name = $1, logo_url = $2, publishing_webhook_url = $3, generation_webhook_url = $4,
			default_publish_time = $5, default_prompt = $6
		WHERE id = $7
		RETURNING ` + networkColumns

	row := r.db.QueryRowContext(ctx, query, sn.Name, sn.LogoURL, sn.PublishingWebhookURL,
		sn.GenerationWebhookURL, sn.DefaultPublishTime, sn.DefaultPrompt, id)

	var updated models.SocialNetwork
	if err := scanNetwork(row, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &updated, nil
}

func (r *socialNetworkRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM social_networks WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
