package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"contentfactory/internal/models"
)

type UploadRepository interface {
	Create(ctx context.Context, upload *models.Upload) (*models.Upload, error)
	ListByProject(ctx context.Context, projectID int64) ([]*models.Upload, error)
}

type uploadRepository struct {
	db *sql.DB
}

func NewUploadRepository(db *sql.DB) UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Create(ctx context.Context, upload *models.Upload) (*models.Upload, error) {
	query := `
		INSERT INTO uploads (project_id, filename, filepath, file_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, COALESCE(project_id, 0), filename, filepath, file_type, created_at
	`
	row := r.db.QueryRowContext(ctx, query, nullableID(upload.ProjectID), upload.Filename, upload.Filepath, upload.FileType)

	var created models.Upload
	err := row.Scan(&created.ID, &created.ProjectID, &created.Filename, &created.Filepath, &created.FileType, &created.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &created, nil
}

func (r *uploadRepository) ListByProject(ctx context.Context, projectID int64) ([]*models.Upload, error) {
	query := `
		SELECT id, COALESCE(project_id, 0), filename, filepath, file_type, created_at
		FROM uploads
		WHERE project_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var uploads []*models.Upload
	for rows.Next() {
		var u models.Upload
		if err := rows.Scan(&u.ID, &u.ProjectID, &u.Filename, &u.Filepath, &u.FileType, &u.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		uploads = append(uploads, &u)
	}
	return uploads, rows.Err()
}
