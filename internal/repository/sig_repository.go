package repository

import (
	"context"

	"gorm.io/gorm"

	"clubportal/internal/model"
)

// SigRepository persists special interest groups and custom profile field definitions.
type SigRepository interface {
	Create(ctx context.Context, sig *model.Sig) error
	FindByID(ctx context.Context, id uint) (*model.Sig, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Sig, error)
	List(ctx context.Context) ([]model.Sig, error)
	Update(ctx context.Context, sig *model.Sig) error
	Delete(ctx context.Context, id uint) error
	// Rename changes the SIG name and every profile whose sig string held the old one.
	Rename(ctx context.Context, sig *model.Sig, newName string) (int64, error)
	Reorder(ctx context.Context, items []OrderUpdate) error

	CreateField(ctx context.Context, field *model.ProfileFieldDefinition) error
	ListFields(ctx context.Context) ([]model.ProfileFieldDefinition, error)
	ReorderFields(ctx context.Context, items []OrderUpdate) error
}

type sigRepository struct {
	db *gorm.DB
}

// NewSigRepository creates a new SIG repository.
func NewSigRepository(db *gorm.DB) SigRepository {
	return &sigRepository{db: db}
}

func (r *sigRepository) Create(ctx context.Context, sig *model.Sig) error {
	return r.db.WithContext(ctx).Create(sig).Error
}

func (r *sigRepository) FindByID(ctx context.Context, id uint) (*model.Sig, error) {
	var sig model.Sig
	if err := r.db.WithContext(ctx).First(&sig, id).Error; err != nil {
		return nil, err
	}
	return &sig, nil
}

func (r *sigRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Sig, error) {
	var sigs []model.Sig
	if len(ids) == 0 {
		return sigs, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&sigs).Error; err != nil {
		return nil, err
	}
	return sigs, nil
}

func (r *sigRepository) List(ctx context.Context) ([]model.Sig, error) {
	var sigs []model.Sig
	if err := r.db.WithContext(ctx).Order("sort_order, name").Find(&sigs).Error; err != nil {
		return nil, err
	}
	return sigs, nil
}

func (r *sigRepository) Update(ctx context.Context, sig *model.Sig) error {
	return r.db.WithContext(ctx).Save(sig).Error
}

func (r *sigRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &model.Sig{}, id)
}

func (r *sigRepository) Rename(ctx context.Context, sig *model.Sig, newName string) (int64, error) {
	var cascaded int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		oldName := sig.Name
		if err := tx.Model(sig).Update("name", newName).Error; err != nil {
			return err
		}
		res := tx.Model(&model.MemberProfile{}).Where("sig = ?", oldName).Update("sig", newName)
		if res.Error != nil {
			return res.Error
		}
		cascaded = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return cascaded, nil
}

func (r *sigRepository) Reorder(ctx context.Context, items []OrderUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return reorder(ctx, tx, &model.Sig{}, items)
	})
}

func (r *sigRepository) CreateField(ctx context.Context, field *model.ProfileFieldDefinition) error {
	return r.db.WithContext(ctx).Omit("LimitToSig").Create(field).Error
}

func (r *sigRepository) ListFields(ctx context.Context) ([]model.ProfileFieldDefinition, error) {
	var fields []model.ProfileFieldDefinition
	if err := r.db.WithContext(ctx).Order("sort_order, id").Find(&fields).Error; err != nil {
		return nil, err
	}
	return fields, nil
}

func (r *sigRepository) ReorderFields(ctx context.Context, items []OrderUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return reorder(ctx, tx, &model.ProfileFieldDefinition{}, items)
	})
}
