package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"contentfactory/internal/models"
	"contentfactory/internal/transfer"
)

type ContentPlanRepository interface {
	GetByID(ctx context.Context, id int64) (*models.ContentPlan, error)
	ListByProject(ctx context.Context, projectID int64) ([]*models.ContentPlan, error)
	Create(ctx context.Context, projectID int64, plan *transfer.ContentPlanUpsert) (*models.ContentPlan, error)
	Update(ctx context.Context, plan *transfer.ContentPlanUpsert) (*models.ContentPlan, error)
	Remove(ctx context.Context, id int64) error
	MarkGenerated(ctx context.Context, id int64) error
}

type contentPlanRepository struct {
	db *sql.DB
}

func NewContentPlanRepository(db *sql.DB) ContentPlanRepository {
	return &contentPlanRepository{db: db}
}

const planColumns = `id, project_id, COALESCE(name, ''), COALESCE(prompt, ''), dates, platforms,
	COALESCE(color, ''), generated, created_at`

func scanPlan(row interface{ Scan(...any) error }, plan *models.ContentPlan) error {
	var dates, platforms []byte
	err := row.Scan(&plan.ID, &plan.ProjectID, &plan.Name, &plan.Prompt, &dates, &platforms,
		&plan.Color, &plan.Generated, &plan.CreatedAt)
	if err != nil {
		return err
	}

	if len(dates) > 0 {
		if err := json.Unmarshal(dates, &plan.Dates); err != nil {
			slog.Info(err.Error())
		}
	}
	if len(platforms) > 0 {
		if err := json.Unmarshal(platforms, &plan.Platforms); err != nil {
			slog.Info(err.Error())
		}
	}
	return nil
}

func (r *contentPlanRepository) GetByID(ctx context.Context, id int64) (*models.ContentPlan, error) {
	query := `SELECT ` + planColumns + ` FROM content_plans WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var plan models.ContentPlan
	if err := scanPlan(row, &plan); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &plan, nil
}

func (r *contentPlanRepository) ListByProject(ctx context.Context, projectID int64) ([]*models.ContentPlan, error) {
	query := `SELECT ` + planColumns + ` FROM content_plans WHERE project_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var plans []*models.ContentPlan
	for rows.Next() {
		var plan models.ContentPlan
		if err := scanPlan(rows, &plan); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		plans = append(plans, &plan)
	}
	return plans, rows.Err()
}

func marshalList(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Info(err.Error())
		return []byte("[]")
	}
	return b
}

func (r *contentPlanRepository) Create(ctx context.Context, projectID int64, plan *transfer.ContentPlanUpsert) (*models.ContentPlan, error) {
	query := `
		INSERT INTO content_plans (project_id, name, prompt, dates, platforms, color)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + planColumns

	row := r.db.QueryRowContext(ctx, query, projectID, plan.Name, plan.Prompt,
		marshalList(plan.Dates), marshalList(plan.Platforms), plan.Color)

	var created models.ContentPlan
	if err := scanPlan(row, &created); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &created, nil
}

func (r *contentPlanRepository) Update(ctx context.Context, plan *transfer.ContentPlanUpsert) (*models.ContentPlan, error) {
	query := `
		UPDATE content_plans
		SET name = $2, prompt = $3, dates = $4, platforms = $5, color = $6
		WHERE id = $1
		RETURNING ` + planColumns

	row := r.db.QueryRowContext(ctx, query, plan.ID, plan.Name, plan.Prompt,
		marshalList(plan.Dates), marshalList(plan.Platforms), plan.Color)

	var updated models.ContentPlan
	if err := scanPlan(row, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &updated, nil
}

func (r *contentPlanRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM content_plans WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *contentPlanRepository) MarkGenerated(ctx context.Context, id int64) error {
	query := `UPDATE content_plans SET generated = TRUE WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
