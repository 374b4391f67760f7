package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"clubportal/internal/access"
	"clubportal/internal/errors"
	"clubportal/internal/model"
	"clubportal/internal/repository"
	"clubportal/internal/storage"
)

// AnnouncementInput creates an announcement, optionally published immediately.
type AnnouncementInput struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content"`
	Publish bool   `json:"publish"`
}

// EventInput creates an event.
type EventInput struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description"`
	Location    string     `json:"location" validate:"max=200"`
	StartsAt    time.Time  `json:"starts_at" validate:"required"`
	EndsAt      *time.Time `json:"ends_at"`
}

// ContactInput is a message from the public contact form.
type ContactInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"max=200"`
	Message string `json:"message" validate:"required"`
}

// SponsorshipInput is a public sponsorship inquiry.
type SponsorshipInput struct {
	CompanyName string          `json:"company_name" validate:"required,max=200"`
	ContactName string          `json:"contact_name" validate:"max=100"`
	Email       string          `json:"email" validate:"required,email"`
	Tier        string          `json:"tier" validate:"max=50"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string"`
	Message     string          `json:"message"`
}

// RecruitmentInput creates a recruitment drive.
type RecruitmentInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	FormID      *uint  `json:"form_id"`
	IsActive    bool   `json:"is_active"`
	IsPublic    bool   `json:"is_public"`
}

// Upload is a file received from a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ContentService manages the club's public-facing content.
type ContentService interface {
	CreateAnnouncement(ctx context.Context, actor *access.Principal, in AnnouncementInput) (*model.Announcement, error)
	ListAnnouncements(ctx context.Context, publishedOnly bool) ([]model.Announcement, error)
	PublishAnnouncement(ctx context.Context, id uint) error
	DeleteAnnouncement(ctx context.Context, id uint) error

	CreateEvent(ctx context.Context, in EventInput) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	DeleteEvent(ctx context.Context, id uint) error

	SubmitContact(ctx context.Context, in ContactInput) (*model.ContactMessage, error)
	ListContactMessages(ctx context.Context) ([]model.ContactMessage, error)

	SubmitSponsorship(ctx context.Context, in SponsorshipInput) (*model.Sponsorship, error)
	ListSponsorships(ctx context.Context) ([]model.Sponsorship, error)

	UploadGalleryImage(ctx context.Context, actor *access.Principal, title string, eventID *uint, file Upload) (*model.GalleryImage, error)
	ListGallery(ctx context.Context, eventID *uint) ([]model.GalleryImage, error)
	DeleteGalleryImage(ctx context.Context, id uint) error
	// UploadProfileImage stores an avatar and returns its public URL.
	UploadProfileImage(ctx context.Context, actor *access.Principal, file Upload) (string, error)

	CreateRecruitmentDrive(ctx context.Context, in RecruitmentInput) (*model.RecruitmentDrive, error)
	ListRecruitmentDrives(ctx context.Context) ([]model.RecruitmentDrive, error)
	// ActivePublic returns the first drive that is both active and public, or nil.
	ActivePublic(ctx context.Context) (*model.RecruitmentDrive, error)
}

type contentService struct {
	repo  repository.ContentRepository
	store storage.ObjectStorage
	now   func() time.Time
}

// NewContentService creates a new content service. store may be nil when
// object storage is not configured; uploads then fail with ErrStorageUnavailable.
func NewContentService(repo repository.ContentRepository, store storage.ObjectStorage) ContentService {
	return &contentService{repo: repo, store: store, now: time.Now}
}

func (s *contentService) CreateAnnouncement(ctx context.Context, actor *access.Principal, in AnnouncementInput) (*model.Announcement, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, &errors.ValidationError{Field: "title", Reason: "required"}
	}
	a := &model.Announcement{
		Title:       in.Title,
		Content:     in.Content,
		CreatedByID: actor.ID(),
	}
	if in.Publish {
		at := s.now()
		a.PublishedAt = &at
	}
	if err := s.repo.CreateAnnouncement(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *contentService) ListAnnouncements(ctx context.Context, publishedOnly bool) ([]model.Announcement, error) {
	return s.repo.ListAnnouncements(ctx, publishedOnly)
}

func (s *contentService) PublishAnnouncement(ctx context.Context, id uint) error {
	return wrapNotFound(s.repo.PublishAnnouncement(ctx, id, s.now()), errors.ErrNotFound)
}

func (s *contentService) DeleteAnnouncement(ctx context.Context, id uint) error {
	return wrapNotFound(s.repo.Delete(ctx, &model.Announcement{}, id), errors.ErrNotFound)
}

func (s *contentService) CreateEvent(ctx context.Context, in EventInput) (*model.Event, error) {
	if in.EndsAt != nil && in.EndsAt.Before(in.StartsAt) {
		return nil, &errors.ValidationError{Field: "ends_at", Reason: "must not be before starts_at"}
	}
	e := &model.Event{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
	}
	if err := s.repo.CreateEvent(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *contentService) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.repo.ListEvents(ctx)
}

func (s *contentService) DeleteEvent(ctx context.Context, id uint) error {
	return wrapNotFound(s.repo.Delete(ctx, &model.Event{}, id), errors.ErrNotFound)
}

func (s *contentService) SubmitContact(ctx context.Context, in ContactInput) (*model.ContactMessage, error) {
	m := &model.ContactMessage{
		Name:    in.Name,
		Email:   in.Email,
		Subject: in.Subject,
		Message: in.Message,
	}
	if err := s.repo.CreateContactMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *contentService) ListContactMessages(ctx context.Context) ([]model.ContactMessage, error) {
	return s.repo.ListContactMessages(ctx)
}

func (s *contentService) SubmitSponsorship(ctx context.Context, in SponsorshipInput) (*model.Sponsorship, error) {
	if in.Amount.IsNegative() {
		return nil, &errors.ValidationError{Field: "amount", Reason: "must not be negative"}
	}
	sp := &model.Sponsorship{
		CompanyName: in.CompanyName,
		ContactName: in.ContactName,
		Email:       in.Email,
		Tier:        in.Tier,
		Amount:      in.Amount.Round(2),
		Message:     in.Message,
	}
	if err := s.repo.CreateSponsorship(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *contentService) ListSponsorships(ctx context.Context) ([]model.Sponsorship, error) {
	return s.repo.ListSponsorships(ctx)
}

func (s *contentService) UploadGalleryImage(ctx context.Context, actor *access.Principal, title string, eventID *uint, file Upload) (*model.GalleryImage, error) {
	key, url, err := s.put(ctx, "gallery", file)
	if err != nil {
		return nil, err
	}
	img := &model.GalleryImage{
		Title:        title,
		ObjectKey:    key,
		URL:          url,
		EventID:      eventID,
		UploadedByID: actor.ID(),
	}
	if err := s.repo.CreateGalleryImage(ctx, img); err != nil {
		// Leave no orphaned object behind a failed insert.
		_ = s.store.Delete(ctx, key)
		return nil, err
	}
	return img, nil
}

func (s *contentService) ListGallery(ctx context.Context, eventID *uint) ([]model.GalleryImage, error) {
	return s.repo.ListGalleryImages(ctx, eventID)
}

func (s *contentService) DeleteGalleryImage(ctx context.Context, id uint) error {
	img, err := s.repo.FindGalleryImage(ctx, id)
	if err != nil {
		return wrapNotFound(err, errors.ErrNotFound)
	}
	if err := s.repo.Delete(ctx, &model.GalleryImage{}, id); err != nil {
		return wrapNotFound(err, errors.ErrNotFound)
	}
	if s.store != nil {
		if err := s.store.Delete(ctx, img.ObjectKey); err != nil {
			return fmt.Errorf("delete object %s: %w", img.ObjectKey, err)
		}
	}
	return nil
}

func (s *contentService) UploadProfileImage(ctx context.Context, actor *access.Principal, file Upload) (string, error) {
	if !actor.Authenticated() {
		return "", errors.ErrUnauthorized
	}
	_, url, err := s.put(ctx, fmt.Sprintf("team/%d", actor.UserID), file)
	return url, err
}

func (s *contentService) CreateRecruitmentDrive(ctx context.Context, in RecruitmentInput) (*model.RecruitmentDrive, error) {
	d := &model.RecruitmentDrive{
		Title:       in.Title,
		Description: in.Description,
		FormID:      in.FormID,
		IsActive:    in.IsActive,
		IsPublic:    in.IsPublic,
	}
	if err := s.repo.CreateRecruitmentDrive(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *contentService) ListRecruitmentDrives(ctx context.Context) ([]model.RecruitmentDrive, error) {
	return s.repo.ListRecruitmentDrives(ctx)
}

func (s *contentService) ActivePublic(ctx context.Context) (*model.RecruitmentDrive, error) {
	d, err := s.repo.ActivePublicDrive(ctx)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// put stores file under prefix with a random name that keeps the original extension.
func (s *contentService) put(ctx context.Context, prefix string, file Upload) (string, string, error) {
	if s.store == nil {
		return "", "", errors.ErrStorageUnavailable
	}
	if file.Body == nil || file.Size <= 0 {
		return "", "", &errors.ValidationError{Field: "image", Reason: "file is empty"}
	}
	if !strings.HasPrefix(file.ContentType, "image/") {
		return "", "", &errors.ValidationError{Field: "image", Reason: "must be an image"}
	}
	key := path.Join(prefix, uuid.NewString()+strings.ToLower(path.Ext(file.Filename)))
	if err := s.store.Put(ctx, key, file.Body, file.Size, file.ContentType); err != nil {
		return "", "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, s.store.URL(key), nil
}
