package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clubportal/internal/model"
)

// UserRepository defines persistence operations for users and their profiles.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	ReplaceRoles(ctx context.Context, user *model.User, roles []model.Role) error
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error

	SaveProfile(ctx context.Context, profile *model.MemberProfile) error
	ReplaceProfileSigs(ctx context.Context, profile *model.MemberProfile, sigs []model.Sig) error
	ListPublicTeam(ctx context.Context, alumni bool) ([]model.User, error)
	ReorderProfiles(ctx context.Context, items []OrderUpdate) error

	// AssignedRoles and PositionRole let the permission evaluator resolve capabilities.
	AssignedRoles(ctx context.Context, userID uint) ([]model.Role, error)
	PositionRole(ctx context.Context, userID uint) (*model.Role, error)

	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Omit("Roles.*").Create(user).Error
}

// Update saves the user's own columns; relations are managed separately.
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.withRelations(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.withRelations(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.withRelations(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) ReplaceRoles(ctx context.Context, user *model.User, roles []model.Role) error {
	assoc := r.db.WithContext(ctx).Model(user).Omit("Roles.*").Association("Roles")
	if len(roles) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(roles)
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update("last_login", at).Error
}

// SaveProfile inserts or updates the profile row without touching its SIG set.
func (r *userRepository) SaveProfile(ctx context.Context, profile *model.MemberProfile) error {
	if profile.ID == 0 {
		return r.db.WithContext(ctx).Omit(clause.Associations).Create(profile).Error
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(profile).Error
}

func (r *userRepository) ReplaceProfileSigs(ctx context.Context, profile *model.MemberProfile, sigs []model.Sig) error {
	assoc := r.db.WithContext(ctx).Model(profile).Omit("Sigs.*").Association("Sigs")
	if len(sigs) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(sigs)
}

// ListPublicTeam returns active users with a public profile, ordered for display.
func (r *userRepository) ListPublicTeam(ctx context.Context, alumni bool) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Joins("Profile").
		Preload("Profile.Sigs").
		Where("users.is_active = ?", true).
		Where("Profile.is_public = ? AND Profile.is_alumni = ?", true, alumni).
		Order("Profile.sort_order, Profile.full_name").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// ReorderProfiles rewrites display order atomically. Item ids are user ids.
func (r *userRepository) ReorderProfiles(ctx context.Context, items []OrderUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			err := tx.Model(&model.MemberProfile{}).Where("user_id = ?", item.ID).Update("sort_order", item.Order).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *userRepository) AssignedRoles(ctx context.Context, userID uint) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// PositionRole matches the profile position against team positions case-insensitively.
// A user without a profile, position or linked role yields nil.
func (r *userRepository) PositionRole(ctx context.Context, userID uint) (*model.Role, error) {
	var profile model.MemberProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(profile.Position)
	if name == "" {
		return nil, nil
	}

	var position model.TeamPosition
	err = r.db.WithContext(ctx).Preload("RoleLink").
		Where("LOWER(name) = ?", strings.ToLower(name)).
		First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return position.RoleLink, nil
}

// WithTransaction executes a function within a database transaction.
func (r *userRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &userRepository{db: tx}
		return fn(ctx, txRepo)
	})
}

func (r *userRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Roles").Preload("Profile").Preload("Profile.Sigs")
}
