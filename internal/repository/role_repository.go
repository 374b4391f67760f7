package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clubportal/internal/model"
)

// RoleRepository persists capability bundles and the team positions linked to them.
type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Role, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Role, error)
	List(ctx context.Context) ([]model.Role, error)

	CreatePosition(ctx context.Context, position *model.TeamPosition) error
	UpdatePosition(ctx context.Context, position *model.TeamPosition) error
	DeletePosition(ctx context.Context, id uint) error
	FindPosition(ctx context.Context, id uint) (*model.TeamPosition, error)
	FindPositionByName(ctx context.Context, name string) (*model.TeamPosition, error)
	ListPositions(ctx context.Context) ([]model.TeamPosition, error)
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a new role repository.
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	return r.db.WithContext(ctx).Save(role).Error
}

func (r *roleRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &model.Role{}, id)
}

func (r *roleRepository) FindByID(ctx context.Context, id uint) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// FindByIDs returns the roles that exist among ids.
func (r *roleRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Role, error) {
	var roles []model.Role
	if len(ids) == 0 {
		return roles, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) List(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := r.db.WithContext(ctx).Order("name").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) CreatePosition(ctx context.Context, position *model.TeamPosition) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(position).Error
}

func (r *roleRepository) UpdatePosition(ctx context.Context, position *model.TeamPosition) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(position).Error
}

func (r *roleRepository) DeletePosition(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &model.TeamPosition{}, id)
}

func (r *roleRepository) FindPosition(ctx context.Context, id uint) (*model.TeamPosition, error) {
	var position model.TeamPosition
	if err := r.db.WithContext(ctx).Preload("RoleLink").First(&position, id).Error; err != nil {
		return nil, err
	}
	return &position, nil
}

// FindPositionByName matches case-insensitively.
func (r *roleRepository) FindPositionByName(ctx context.Context, name string) (*model.TeamPosition, error) {
	var position model.TeamPosition
	err := r.db.WithContext(ctx).Preload("RoleLink").
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		First(&position).Error
	if err != nil {
		return nil, err
	}
	return &position, nil
}

func (r *roleRepository) ListPositions(ctx context.Context) ([]model.TeamPosition, error) {
	var positions []model.TeamPosition
	if err := r.db.WithContext(ctx).Preload("RoleLink").Order("`rank`, name").Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

// deleteByID reports gorm.ErrRecordNotFound when nothing was removed.
func deleteByID(ctx context.Context, db *gorm.DB, value interface{}, id uint) error {
	res := db.WithContext(ctx).Delete(value, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
