package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"contentfactory/internal/models"
)

type ProjectRepository interface {
	List(ctx context.Context) ([]*models.Project, error)
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	Create(ctx context.Context, name string, ownerID int64) (*models.Project, error)
	ListMembers(ctx context.Context, projectID int64) ([]*models.ProjectMember, error)
	AddMember(ctx context.Context, projectID, userID int64, role string) error
	RemoveMember(ctx context.Context, projectID, userID int64) error
}

type projectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) List(ctx context.Context) ([]*models.Project, error) {
	query := `SELECT id, name, owner_id, COALESCE(settings::text, '{}'), created_at FROM projects ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.OwnerID, &p.Settings, &p.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (r *projectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	query := `SELECT id, name, owner_id, COALESCE(settings::text, '{}'), created_at FROM projects WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var p models.Project
	if err := row.Scan(&p.ID, &p.Name, &p.OwnerID, &p.Settings, &p.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &p, nil
}

func (r *projectRepository) Create(ctx context.Context, name string, ownerID int64) (*models.Project, error) {
	query := `
		INSERT INTO projects (name, owner_id, settings)
		VALUES ($1, $2, '{}')
		RETURNING id, name, owner_id, settings::text, created_at
	`
	row := r.db.QueryRowContext(ctx, query, name, ownerID)

	var p models.Project
	if err := row.Scan(&p.ID, &p.Name, &p.OwnerID, &p.Settings, &p.CreatedAt); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &p, nil
}

func (r *projectRepository) ListMembers(ctx context.Context, projectID int64) ([]*models.ProjectMember, error) {
	query := `
		SELECT u.id, u.email, pm.role
		FROM users u
		JOIN project_members pm ON u.id = pm.user_id
		WHERE pm.project_id = $1
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var members []*models.ProjectMember
	for rows.Next() {
		var m models.ProjectMember
		if err := rows.Scan(&m.UserID, &m.Email, &m.Role); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		members = append(members, &m)
	}
	return members, rows.Err()
}

func (r *projectRepository) AddMember(ctx context.Context, projectID, userID int64, role string) error {
	query := `INSERT INTO project_members (project_id, user_id, role) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, projectID, userID, role)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *projectRepository) RemoveMember(ctx context.Context, projectID, userID int64) error {
	query := `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, projectID, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
