package model

import (
	"time"

	"gorm.io/datatypes"
)

// Form is a dynamically defined questionnaire (recruitment, event sign-up, feedback).
type Form struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"size:200;not null"`
	Description string     `json:"description" gorm:"type:text"`
	IsActive    bool       `json:"is_active" gorm:"not null;index"`
	ClosesAt    *time.Time `json:"closes_at"`
	CreatedByID *uint      `json:"created_by_id"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Sections  []FormSection  `json:"sections,omitempty" gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE"`
	Fields    []FormField    `json:"fields,omitempty" gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE"`
	CreatedBy *User          `json:"-" gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL"`
	Responses []FormResponse `json:"-" gorm:"foreignKey:FormID;constraint:OnDelete:CASCADE"`
}

// FormSection groups fields on a form page.
type FormSection struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	FormID      uint   `json:"form_id" gorm:"not null;index"`
	Title       string `json:"title" gorm:"size:200"`
	Description string `json:"description" gorm:"type:text"`
	Order       int    `json:"order" gorm:"column:sort_order;not null;default:0"`

	Fields []FormField `json:"fields,omitempty" gorm:"foreignKey:SectionID;constraint:OnDelete:SET NULL"`
}

// FormFieldType enumerates supported input kinds.
type FormFieldType string

const (
	FieldText     FormFieldType = "text"
	FieldTextarea FormFieldType = "textarea"
	FieldEmail    FormFieldType = "email"
	FieldNumber   FormFieldType = "number"
	FieldDate     FormFieldType = "date"
	FieldSelect   FormFieldType = "select"
	FieldRadio    FormFieldType = "radio"
	FieldCheckbox FormFieldType = "checkbox"
	FieldBoolean  FormFieldType = "boolean"
)

// FormField is a single question. Responses are keyed by Label.
type FormField struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	FormID    uint           `json:"form_id" gorm:"not null;index"`
	SectionID *uint          `json:"section_id" gorm:"index"`
	Label     string         `json:"label" gorm:"size:255;not null"`
	FieldType FormFieldType  `json:"field_type" gorm:"size:20;not null;default:'text'"`
	Required  bool           `json:"required" gorm:"not null"`
	Options   datatypes.JSON `json:"options,omitempty" gorm:"type:json"`
	Order     int            `json:"order" gorm:"column:sort_order;not null;default:0"`
}

// FormResponse is one submission. Data only ever holds labels of fields that
// existed when it was submitted.
type FormResponse struct {
	ID          uint              `json:"id" gorm:"primaryKey"`
	FormID      uint              `json:"form_id" gorm:"not null;index"`
	UserID      *uint             `json:"user_id" gorm:"index"`
	SubmittedAt time.Time         `json:"submitted_at" gorm:"not null;index"`
	Data        datatypes.JSONMap `json:"data" gorm:"type:json"`

	User *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}
