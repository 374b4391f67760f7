package service

import (
	"context"
	"strings"

	"clubportal/internal/access"
	"clubportal/internal/errors"
	"clubportal/internal/model"
	"clubportal/internal/repository"
)

// RoleInput carries a role's name and capability flags.
type RoleInput struct {
	Name                   string `json:"name" validate:"required,max=50"`
	CanManageUsers         bool   `json:"can_manage_users"`
	CanManageProjects      bool   `json:"can_manage_projects"`
	CanManageEvents        bool   `json:"can_manage_events"`
	CanManageTeam          bool   `json:"can_manage_team"`
	CanManageGallery       bool   `json:"can_manage_gallery"`
	CanManageAnnouncements bool   `json:"can_manage_announcements"`
	CanManageSecurity      bool   `json:"can_manage_security"`
	CanManageContent       bool   `json:"can_manage_content"`
	CanManageForms         bool   `json:"can_manage_forms"`
	CanManageSponsorship   bool   `json:"can_manage_sponsorship"`
	CanManageMessages      bool   `json:"can_manage_messages"`
}

func (in RoleInput) apply(r *model.Role) {
	r.Name = strings.TrimSpace(in.Name)
	r.CanManageUsers = in.CanManageUsers
	r.CanManageProjects = in.CanManageProjects
	r.CanManageEvents = in.CanManageEvents
	r.CanManageTeam = in.CanManageTeam
	r.CanManageGallery = in.CanManageGallery
	r.CanManageAnnounce = in.CanManageAnnouncements
	r.CanManageSecurity = in.CanManageSecurity
	r.CanManageContent = in.CanManageContent
	r.CanManageForms = in.CanManageForms
	r.CanManageSponsorship = in.CanManageSponsorship
	r.CanManageMessages = in.CanManageMessages
}

// PositionInput carries a team position.
type PositionInput struct {
	Name       string `json:"name" validate:"required,max=100"`
	Rank       *int   `json:"rank"`
	RoleLinkID *uint  `json:"role_link_id"`
}

// RoleService manages capability bundles and the team positions linked to them.
type RoleService interface {
	CreateRole(ctx context.Context, actor *access.Principal, in RoleInput, ip string) (*model.Role, error)
	UpdateRole(ctx context.Context, actor *access.Principal, id uint, in RoleInput, ip string) (*model.Role, error)
	DeleteRole(ctx context.Context, actor *access.Principal, id uint, ip string) error
	ListRoles(ctx context.Context) ([]model.Role, error)

	CreatePosition(ctx context.Context, in PositionInput) (*model.TeamPosition, error)
	UpdatePosition(ctx context.Context, id uint, in PositionInput) (*model.TeamPosition, error)
	DeletePosition(ctx context.Context, id uint) error
	ListPositions(ctx context.Context) ([]model.TeamPosition, error)
}

type roleService struct {
	repo  repository.RoleRepository
	audit AuditService
}

// NewRoleService creates a new role service.
func NewRoleService(repo repository.RoleRepository, audit AuditService) RoleService {
	return &roleService{repo: repo, audit: audit}
}

func (s *roleService) CreateRole(ctx context.Context, actor *access.Principal, in RoleInput, ip string) (*model.Role, error) {
	role := &model.Role{}
	in.apply(role)
	if role.Name == "" {
		return nil, &errors.ValidationError{Field: "name", Reason: "required"}
	}
	if err := s.repo.Create(ctx, role); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditEntry{Actor: actor, EventType: EventRoleCreated, Target: "Created role " + role.Name, IP: ip})
	return role, nil
}

func (s *roleService) UpdateRole(ctx context.Context, actor *access.Principal, id uint, in RoleInput, ip string) (*model.Role, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(role)
	if role.Name == "" {
		return nil, &errors.ValidationError{Field: "name", Reason: "required"}
	}
	if err := s.repo.Update(ctx, role); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditEntry{Actor: actor, EventType: EventRoleModified, Target: "Updated role " + role.Name, IP: ip})
	return role, nil
}

func (s *roleService) DeleteRole(ctx context.Context, actor *access.Principal, id uint, ip string) error {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, AuditEntry{Actor: actor, EventType: EventRoleDeleted, Target: "Deleted role " + role.Name, IP: ip})
	return nil
}

func (s *roleService) ListRoles(ctx context.Context) ([]model.Role, error) {
	return s.repo.List(ctx)
}

func (s *roleService) CreatePosition(ctx context.Context, in PositionInput) (*model.TeamPosition, error) {
	position := &model.TeamPosition{Rank: model.DefaultProfileOrder}
	if err := applyPosition(position, in); err != nil {
		return nil, err
	}
	if err := s.repo.CreatePosition(ctx, position); err != nil {
		return nil, err
	}
	return s.repo.FindPosition(ctx, position.ID)
}

func (s *roleService) UpdatePosition(ctx context.Context, id uint, in PositionInput) (*model.TeamPosition, error) {
	position, err := s.repo.FindPosition(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyPosition(position, in); err != nil {
		return nil, err
	}
	position.RoleLink = nil
	if err := s.repo.UpdatePosition(ctx, position); err != nil {
		return nil, err
	}
	return s.repo.FindPosition(ctx, id)
}

func (s *roleService) DeletePosition(ctx context.Context, id uint) error {
	return s.repo.DeletePosition(ctx, id)
}

func (s *roleService) ListPositions(ctx context.Context) ([]model.TeamPosition, error) {
	return s.repo.ListPositions(ctx)
}

func applyPosition(p *model.TeamPosition, in PositionInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return &errors.ValidationError{Field: "name", Reason: "required"}
	}
	p.Name = name
	if in.Rank != nil {
		p.Rank = *in.Rank
	}
	p.RoleLinkID = in.RoleLinkID
	return nil
}
