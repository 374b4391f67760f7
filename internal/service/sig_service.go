package service

import (
	"context"
	"strings"

	"clubportal/internal/access"
	"clubportal/internal/errors"
	"clubportal/internal/model"
	"clubportal/internal/repository"
)

// SigInput carries a special interest group.
type SigInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Order       *int   `json:"order"`
}

// ProfileFieldInput declares a custom profile field.
type ProfileFieldInput struct {
	Label        string                 `json:"label" validate:"required,max=100"`
	Key          string                 `json:"key" validate:"required,max=100"`
	FieldType    model.ProfileFieldType `json:"field_type" validate:"omitempty,oneof=text url number date textarea"`
	IsRequired   bool                   `json:"is_required"`
	Order        int                    `json:"order"`
	LimitToSigID *uint                  `json:"limit_to_sig_id"`
}

// SigService manages SIGs and custom profile field definitions.
type SigService interface {
	CreateSig(ctx context.Context, in SigInput) (*model.Sig, error)
	// UpdateSig renames cascade to every profile carrying the old SIG name.
	UpdateSig(ctx context.Context, actor *access.Principal, id uint, in SigInput, ip string) (*model.Sig, error)
	DeleteSig(ctx context.Context, id uint) error
	ListSigs(ctx context.Context) ([]model.Sig, error)
	ReorderSigs(ctx context.Context, items []repository.OrderUpdate) error

	CreateProfileField(ctx context.Context, actor *access.Principal, in ProfileFieldInput, ip string) (*model.ProfileFieldDefinition, error)
	ListProfileFields(ctx context.Context) ([]model.ProfileFieldDefinition, error)
	ReorderProfileFields(ctx context.Context, items []repository.OrderUpdate) error
}

type sigService struct {
	repo  repository.SigRepository
	audit AuditService
}

// NewSigService creates a new SIG service.
func NewSigService(repo repository.SigRepository, audit AuditService) SigService {
	return &sigService{repo: repo, audit: audit}
}

func (s *sigService) CreateSig(ctx context.Context, in SigInput) (*model.Sig, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &errors.ValidationError{Field: "name", Reason: "required"}
	}
	sig := &model.Sig{Name: name, Description: in.Description}
	if in.Order != nil {
		sig.Order = *in.Order
	}
	if err := s.repo.Create(ctx, sig); err != nil {
		return nil, err
	}
	return sig, nil
}

func (s *sigService) UpdateSig(ctx context.Context, actor *access.Principal, id uint, in SigInput, ip string) (*model.Sig, error) {
	sig, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &errors.ValidationError{Field: "name", Reason: "required"}
	}

	sig.Description = in.Description
	if in.Order != nil {
		sig.Order = *in.Order
	}
	if err := s.repo.Update(ctx, sig); err != nil {
		return nil, err
	}

	if name != sig.Name {
		oldName := sig.Name
		if _, err := s.repo.Rename(ctx, sig, name); err != nil {
			return nil, err
		}
		s.audit.Record(ctx, AuditEntry{
			Actor:     actor,
			EventType: EventSigRenamed,
			Target:    "Renamed SIG " + oldName + " to " + name,
			IP:        ip,
		})
	}
	return sig, nil
}

func (s *sigService) DeleteSig(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

func (s *sigService) ListSigs(ctx context.Context) ([]model.Sig, error) {
	return s.repo.List(ctx)
}

func (s *sigService) ReorderSigs(ctx context.Context, items []repository.OrderUpdate) error {
	return s.repo.Reorder(ctx, items)
}

func (s *sigService) CreateProfileField(ctx context.Context, actor *access.Principal, in ProfileFieldInput, ip string) (*model.ProfileFieldDefinition, error) {
	field := &model.ProfileFieldDefinition{
		Label:        strings.TrimSpace(in.Label),
		Key:          strings.TrimSpace(in.Key),
		FieldType:    in.FieldType,
		IsRequired:   in.IsRequired,
		Order:        in.Order,
		LimitToSigID: in.LimitToSigID,
	}
	if field.Label == "" || field.Key == "" {
		return nil, &errors.ValidationError{Field: "label", Reason: "label and key are required"}
	}
	if field.FieldType == "" {
		field.FieldType = model.ProfileFieldText
	}
	if err := s.repo.CreateField(ctx, field); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditEntry{Actor: actor, EventType: EventFieldCreated, Target: "Def field " + field.Label, IP: ip})
	return field, nil
}

func (s *sigService) ListProfileFields(ctx context.Context) ([]model.ProfileFieldDefinition, error) {
	return s.repo.ListFields(ctx)
}

func (s *sigService) ReorderProfileFields(ctx context.Context, items []repository.OrderUpdate) error {
	return s.repo.ReorderFields(ctx, items)
}
