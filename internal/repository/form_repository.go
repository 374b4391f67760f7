package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clubportal/internal/model"
)

// FormRepository persists form schemas and their responses.
type FormRepository interface {
	// Create inserts the form with its nested sections and fields.
	Create(ctx context.Context, form *model.Form) error
	Update(ctx context.Context, form *model.Form) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Form, error)
	List(ctx context.Context) ([]model.Form, error)

	CreateSection(ctx context.Context, section *model.FormSection) error
	CreateField(ctx context.Context, field *model.FormField) error
	// Fields returns the fields currently defined on the form, in display order.
	Fields(ctx context.Context, formID uint) ([]model.FormField, error)
	ReorderFields(ctx context.Context, formID uint, items []OrderUpdate) error

	CreateResponse(ctx context.Context, resp *model.FormResponse) error
	ListResponses(ctx context.Context, formID uint) ([]model.FormResponse, error)
}

type formRepository struct {
	db *gorm.DB
}

// NewFormRepository creates a new form repository.
func NewFormRepository(db *gorm.DB) FormRepository {
	return &formRepository{db: db}
}

func (r *formRepository) Create(ctx context.Context, form *model.Form) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(form).Error; err != nil {
			return err
		}
		for i := range form.Sections {
			section := &form.Sections[i]
			section.FormID = form.ID
			if err := tx.Omit(clause.Associations).Create(section).Error; err != nil {
				return err
			}
			for j := range section.Fields {
				field := &section.Fields[j]
				field.FormID = form.ID
				field.SectionID = &section.ID
				if err := tx.Create(field).Error; err != nil {
					return err
				}
			}
		}
		for i := range form.Fields {
			field := &form.Fields[i]
			field.FormID = form.ID
			if err := tx.Create(field).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *formRepository) Update(ctx context.Context, form *model.Form) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(form).Error
}

func (r *formRepository) Delete(ctx context.Context, id uint) error {
	return deleteByID(ctx, r.db, &model.Form{}, id)
}

func (r *formRepository) FindByID(ctx context.Context, id uint) (*model.Form, error) {
	var form model.Form
	byOrder := func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }
	err := r.db.WithContext(ctx).
		Preload("Sections", byOrder).
		Preload("Sections.Fields", byOrder).
		Preload("Fields", byOrder).
		First(&form, id).Error
	if err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *formRepository) List(ctx context.Context) ([]model.Form, error) {
	var forms []model.Form
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&forms).Error; err != nil {
		return nil, err
	}
	return forms, nil
}

func (r *formRepository) CreateSection(ctx context.Context, section *model.FormSection) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(section).Error
}

func (r *formRepository) CreateField(ctx context.Context, field *model.FormField) error {
	return r.db.WithContext(ctx).Create(field).Error
}

func (r *formRepository) Fields(ctx context.Context, formID uint) ([]model.FormField, error) {
	var fields []model.FormField
	if err := r.db.WithContext(ctx).Where("form_id = ?", formID).Order("sort_order, id").Find(&fields).Error; err != nil {
		return nil, err
	}
	return fields, nil
}

// ReorderFields only touches fields that belong to formID.
func (r *formRepository) ReorderFields(ctx context.Context, formID uint, items []OrderUpdate) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return reorder(ctx, tx, &model.FormField{}, items, func(db *gorm.DB) *gorm.DB {
			return db.Where("form_id = ?", formID)
		})
	})
}

func (r *formRepository) CreateResponse(ctx context.Context, resp *model.FormResponse) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(resp).Error
}

func (r *formRepository) ListResponses(ctx context.Context, formID uint) ([]model.FormResponse, error) {
	var responses []model.FormResponse
	err := r.db.WithContext(ctx).Preload("User").
		Where("form_id = ?", formID).
		Order("submitted_at DESC, id DESC").
		Find(&responses).Error
	if err != nil {
		return nil, err
	}
	return responses, nil
}
