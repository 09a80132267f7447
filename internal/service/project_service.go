package service

import (
	"context"
	"errors"
	"log/slog"

	"contentfactory/internal/models"
	"contentfactory/internal/repository"
	"contentfactory/internal/transfer"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrUserExists      = errors.New("user with this login already exists")
	ErrWrongPassword   = errors.New("old password is incorrect")
)

type ProjectService interface {
	List(ctx context.Context) ([]*models.Project, error)
	Create(ctx context.Context, name string, ownerID int64) (*models.Project, error)
	Detail(ctx context.Context, id int64) (*transfer.ProjectDetail, error)

	AddNetwork(ctx context.Context, projectID int64, sn *transfer.SocialNetworkCreation) (*models.SocialNetwork, error)
	UpdateNetwork(ctx context.Context, networkID int64, sn *transfer.SocialNetworkCreation) (*models.SocialNetwork, error)
	RemoveNetwork(ctx context.Context, networkID int64) error

	AddMember(ctx context.Context, projectID int64, mc *transfer.MemberCreation) (int64, error)
	RemoveMember(ctx context.Context, projectID, userID int64) error
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error

	ListPlans(ctx context.Context, projectID int64) ([]*models.ContentPlan, error)
	UpsertPlan(ctx context.Context, projectID int64, plan *transfer.ContentPlanUpsert) (*models.ContentPlan, error)
}

type projectService struct {
	projects repository.ProjectRepository
	networks repository.SocialNetworkRepository
	plans    repository.ContentPlanRepository
	users    repository.UserRepository
}

func NewProjectService(
	projects repository.ProjectRepository,
	networks repository.SocialNetworkRepository,
	plans repository.ContentPlanRepository,
	users repository.UserRepository) ProjectService {
	return &projectService{
		projects: projects,
		networks: networks,
		plans:    plans,
		users:    users,
	}
}

func (s *projectService) List(ctx context.Context) ([]*models.Project, error) {
	return s.projects.List(ctx)
}

func (s *projectService) Create(ctx context.Context, name string, ownerID int64) (*models.Project, error) {
	if ownerID == 0 {
		ownerID = 1
	}
	return s.projects.Create(ctx, name, ownerID)
}

func (s *projectService) Detail(ctx context.Context, id int64) (*transfer.ProjectDetail, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}

	networks, err := s.networks.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}

	members, err := s.projects.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}

	return &transfer.ProjectDetail{
		Project:        *project,
		SocialNetworks: networks,
		Members:        members,
	}, nil
}

func (s *projectService) AddNetwork(ctx context.Context, projectID int64, sn *transfer.SocialNetworkCreation) (*models.SocialNetwork, error) {
	return s.networks.Create(ctx, projectID, sn)
}

func (s *projectService) UpdateNetwork(ctx context.Context, networkID int64, sn *transfer.SocialNetworkCreation) (*models.SocialNetwork, error) {
	return s.networks.Update(ctx, networkID, sn)
}

func (s *projectService) RemoveNetwork(ctx context.Context, networkID int64) error {
	return s.networks.Remove(ctx, networkID)
}

// AddMember creates the user and attaches it to the project. An existing
// login is rejected rather than re-attached.
func (s *projectService) AddMember(ctx context.Context, projectID int64, mc *transfer.MemberCreation) (int64, error) {
	existing, err := s.users.GetByEmail(ctx, mc.Login)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, ErrUserExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(mc.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	userID, err := s.users.Create(ctx, mc.Login, string(hashed))
	if err != nil {
		return 0, err
	}

	role := mc.Role
	if role == "" {
		role = "member"
	}
	if err := s.projects.AddMember(ctx, projectID, userID, role); err != nil {
		return 0, err
	}

	return userID, nil
}

func (s *projectService) RemoveMember(ctx context.Context, projectID, userID int64) error {
	return s.projects.RemoveMember(ctx, projectID, userID)
}

func (s *projectService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return s.users.UpdatePassword(ctx, userID, string(hashed))
}

func (s *projectService) ListPlans(ctx context.Context, projectID int64) ([]*models.ContentPlan, error) {
	return s.plans.ListByProject(ctx, projectID)
}

// UpsertPlan creates on a zero id, deletes when an update empties the date
// list, and updates otherwise.
func (s *projectService) UpsertPlan(ctx context.Context, projectID int64, plan *transfer.ContentPlanUpsert) (*models.ContentPlan, error) {
	if plan.ID == 0 {
		return s.plans.Create(ctx, projectID, plan)
	}

	if len(plan.Dates) == 0 {
		if err := s.plans.Remove(ctx, plan.ID); err != nil {
			return nil, err
		}
		return &models.ContentPlan{ID: plan.ID}, nil
	}

	return s.plans.Update(ctx, plan)
}
