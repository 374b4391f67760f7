package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"

	"clubportal/internal/access"
	"clubportal/internal/errors"
	"clubportal/internal/model"
	"clubportal/internal/repository"
)

// FieldInput declares a form question.
type FieldInput struct {
	Label     string              `json:"label" validate:"required,max=255"`
	FieldType model.FormFieldType `json:"field_type" validate:"omitempty,oneof=text textarea email number date select radio checkbox boolean"`
	Required  bool                `json:"required"`
	Options   []string            `json:"options"`
	Order     int                 `json:"order"`
	SectionID *uint               `json:"section_id"`
}

// SectionInput declares a form section and the fields it owns.
type SectionInput struct {
	Title       string       `json:"title" validate:"max=200"`
	Description string       `json:"description"`
	Order       int          `json:"order"`
	Fields      []FieldInput `json:"fields" validate:"dive"`
}

// FormInput declares a whole form.
type FormInput struct {
	Title       string         `json:"title" validate:"required,max=200"`
	Description string         `json:"description"`
	IsActive    *bool          `json:"is_active"`
	ClosesAt    *time.Time     `json:"closes_at"`
	Sections    []SectionInput `json:"sections" validate:"dive"`
	Fields      []FieldInput   `json:"fields" validate:"dive"`
}

// FormUpdateInput changes form metadata; nil fields are left untouched.
type FormUpdateInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	IsActive    *bool      `json:"is_active"`
	ClosesAt    *time.Time `json:"closes_at"`
	ClearCloses bool       `json:"clear_closes_at"`
}

// FormService owns form schemas and validates submissions against them.
type FormService interface {
	CreateForm(ctx context.Context, actor *access.Principal, in FormInput) (*model.Form, error)
	UpdateForm(ctx context.Context, id uint, in FormUpdateInput) (*model.Form, error)
	DeleteForm(ctx context.Context, id uint) error
	GetForm(ctx context.Context, id uint) (*model.Form, error)
	ListForms(ctx context.Context) ([]model.Form, error)
	AddSection(ctx context.Context, formID uint, in SectionInput) (*model.FormSection, error)
	AddField(ctx context.Context, formID uint, in FieldInput) (*model.FormField, error)
	ReorderFields(ctx context.Context, formID uint, items []repository.OrderUpdate) error

	// Submit validates raw against the form's current fields and stores only known labels.
	Submit(ctx context.Context, formID uint, actor *access.Principal, raw map[string]interface{}) (*model.FormResponse, error)
	ListResponses(ctx context.Context, formID uint) ([]model.FormResponse, error)
	ExportResponsesCSV(ctx context.Context, formID uint) (*model.Form, [][]string, error)
}

type formService struct {
	repo repository.FormRepository
	now  func() time.Time
}

// NewFormService creates a new form service.
func NewFormService(repo repository.FormRepository) FormService {
	return &formService{repo: repo, now: time.Now}
}

func (s *formService) CreateForm(ctx context.Context, actor *access.Principal, in FormInput) (*model.Form, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, &errors.ValidationError{Field: "title", Reason: "required"}
	}
	form := &model.Form{
		Title:       title,
		Description: in.Description,
		IsActive:    true,
		ClosesAt:    in.ClosesAt,
		CreatedByID: actor.ID(),
	}
	if in.IsActive != nil {
		form.IsActive = *in.IsActive
	}
	for _, sec := range in.Sections {
		section := model.FormSection{Title: sec.Title, Description: sec.Description, Order: sec.Order}
		for _, f := range sec.Fields {
			field, err := buildField(f)
			if err != nil {
				return nil, err
			}
			section.Fields = append(section.Fields, *field)
		}
		form.Sections = append(form.Sections, section)
	}
	for _, f := range in.Fields {
		field, err := buildField(f)
		if err != nil {
			return nil, err
		}
		form.Fields = append(form.Fields, *field)
	}

	if err := s.repo.Create(ctx, form); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, form.ID)
}

func (s *formService) UpdateForm(ctx context.Context, id uint, in FormUpdateInput) (*model.Form, error) {
	form, err := s.GetForm(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, &errors.ValidationError{Field: "title", Reason: "required"}
		}
		form.Title = title
	}
	if in.Description != nil {
		form.Description = *in.Description
	}
	if in.IsActive != nil {
		form.IsActive = *in.IsActive
	}
	if in.ClosesAt != nil {
		form.ClosesAt = in.ClosesAt
	}
	if in.ClearCloses {
		form.ClosesAt = nil
	}
	if err := s.repo.Update(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *formService) DeleteForm(ctx context.Context, id uint) error {
	return wrapNotFound(s.repo.Delete(ctx, id), errors.ErrFormNotFound)
}

func (s *formService) GetForm(ctx context.Context, id uint) (*model.Form, error) {
	form, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, errors.ErrFormNotFound)
	}
	return form, nil
}

func (s *formService) ListForms(ctx context.Context) ([]model.Form, error) {
	return s.repo.List(ctx)
}

func (s *formService) AddSection(ctx context.Context, formID uint, in SectionInput) (*model.FormSection, error) {
	if _, err := s.GetForm(ctx, formID); err != nil {
		return nil, err
	}
	section := &model.FormSection{FormID: formID, Title: in.Title, Description: in.Description, Order: in.Order}
	if err := s.repo.CreateSection(ctx, section); err != nil {
		return nil, err
	}
	for _, f := range in.Fields {
		field, err := buildField(f)
		if err != nil {
			return nil, err
		}
		field.FormID = formID
		field.SectionID = &section.ID
		if err := s.repo.CreateField(ctx, field); err != nil {
			return nil, err
		}
		section.Fields = append(section.Fields, *field)
	}
	return section, nil
}

func (s *formService) AddField(ctx context.Context, formID uint, in FieldInput) (*model.FormField, error) {
	form, err := s.GetForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	field, err := buildField(in)
	if err != nil {
		return nil, err
	}
	if field.SectionID != nil && !hasSection(form, *field.SectionID) {
		return nil, &errors.ValidationError{Field: "section_id", Reason: "section does not belong to this form"}
	}
	field.FormID = formID
	if err := s.repo.CreateField(ctx, field); err != nil {
		return nil, err
	}
	return field, nil
}

func (s *formService) ReorderFields(ctx context.Context, formID uint, items []repository.OrderUpdate) error {
	if _, err := s.GetForm(ctx, formID); err != nil {
		return err
	}
	return s.repo.ReorderFields(ctx, formID, items)
}

func (s *formService) Submit(ctx context.Context, formID uint, actor *access.Principal, raw map[string]interface{}) (*model.FormResponse, error) {
	form, err := s.GetForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if !form.IsActive {
		return nil, errors.ErrFormInactive
	}
	now := s.now()
	if form.ClosesAt != nil && form.ClosesAt.Before(now) {
		return nil, errors.ErrFormDeadlinePassed
	}

	sanitized := datatypes.JSONMap{}
	for _, field := range form.Fields {
		val, present := raw[field.Label]
		if field.Required && isBlankAnswer(val, present) {
			return nil, &errors.MissingFieldError{Label: field.Label}
		}
		if present {
			sanitized[field.Label] = val
		}
	}

	resp := &model.FormResponse{
		FormID:      form.ID,
		UserID:      actor.ID(),
		SubmittedAt: now,
		Data:        sanitized,
	}
	if err := s.repo.CreateResponse(ctx, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *formService) ListResponses(ctx context.Context, formID uint) ([]model.FormResponse, error) {
	if _, err := s.GetForm(ctx, formID); err != nil {
		return nil, err
	}
	return s.repo.ListResponses(ctx, formID)
}

// ExportResponsesCSV returns a header of fixed columns plus the current field
// labels, then one row per response, newest first.
func (s *formService) ExportResponsesCSV(ctx context.Context, formID uint) (*model.Form, [][]string, error) {
	form, err := s.GetForm(ctx, formID)
	if err != nil {
		return nil, nil, err
	}
	responses, err := s.repo.ListResponses(ctx, formID)
	if err != nil {
		return nil, nil, fmt.Errorf("list responses: %w", err)
	}

	header := []string{"Response ID", "User", "Submitted At"}
	for _, f := range form.Fields {
		header = append(header, f.Label)
	}
	rows := [][]string{header}
	for _, r := range responses {
		user := "Anonymous"
		if r.User != nil {
			user = r.User.Username
		}
		row := []string{
			strconv.FormatUint(uint64(r.ID), 10),
			user,
			r.SubmittedAt.UTC().Format(auditTimeLayout),
		}
		for _, f := range form.Fields {
			row = append(row, formatAnswer(r.Data[f.Label]))
		}
		rows = append(rows, row)
	}
	return form, rows, nil
}

// isBlankAnswer treats absent, null, empty strings, zero numbers and empty
// collections as missing. Boolean false is a valid answer.
func isBlankAnswer(val interface{}, present bool) bool {
	if !present || val == nil {
		return true
	}
	switch v := val.(type) {
	case bool:
		return false
	case string:
		return v == ""
	case float64:
		return v == 0
	case int:
		return v == 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f == 0
	case []interface{}:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	}
	return false
}

// formatAnswer flattens lists to a comma-joined string; missing answers are empty.
func formatAnswer(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, formatAnswer(item))
		}
		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(v, ", ")
	}
	return fmt.Sprint(val)
}

func buildField(in FieldInput) (*model.FormField, error) {
	label := strings.TrimSpace(in.Label)
	if label == "" {
		return nil, &errors.ValidationError{Field: "label", Reason: "required"}
	}
	field := &model.FormField{
		Label:     label,
		FieldType: in.FieldType,
		Required:  in.Required,
		Order:     in.Order,
		SectionID: in.SectionID,
	}
	if field.FieldType == "" {
		field.FieldType = model.FieldText
	}
	if len(in.Options) > 0 {
		opts, err := json.Marshal(in.Options)
		if err != nil {
			return nil, fmt.Errorf("encode options: %w", err)
		}
		field.Options = datatypes.JSON(opts)
	}
	return field, nil
}

func hasSection(form *model.Form, id uint) bool {
	for _, sec := range form.Sections {
		if sec.ID == id {
			return true
		}
	}
	return false
}
