package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clubportal/internal/model"
)

// ContentRepository persists the public-facing content types.
type ContentRepository interface {
	CreateAnnouncement(ctx context.Context, a *model.Announcement) error
	ListAnnouncements(ctx context.Context, publishedOnly bool) ([]model.Announcement, error)
	PublishAnnouncement(ctx context.Context, id uint, at time.Time) error

	CreateEvent(ctx context.Context, e *model.Event) error
	ListEvents(ctx context.Context) ([]model.Event, error)

	CreateContactMessage(ctx context.Context, m *model.ContactMessage) error
	ListContactMessages(ctx context.Context) ([]model.ContactMessage, error)

	CreateSponsorship(ctx context.Context, s *model.Sponsorship) error
	ListSponsorships(ctx context.Context) ([]model.Sponsorship, error)

	CreateGalleryImage(ctx context.Context, img *model.GalleryImage) error
	FindGalleryImage(ctx context.Context, id uint) (*model.GalleryImage, error)
	ListGalleryImages(ctx context.Context, eventID *uint) ([]model.GalleryImage, error)

	CreateRecruitmentDrive(ctx context.Context, d *model.RecruitmentDrive) error
	ListRecruitmentDrives(ctx context.Context) ([]model.RecruitmentDrive, error)
	ActivePublicDrive(ctx context.Context) (*model.RecruitmentDrive, error)

	// Delete removes a row of any content type by id.
	Delete(ctx context.Context, value interface{}, id uint) error
}

type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository creates a new content repository.
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) CreateAnnouncement(ctx context.Context, a *model.Announcement) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *contentRepository) ListAnnouncements(ctx context.Context, publishedOnly bool) ([]model.Announcement, error) {
	var out []model.Announcement
	q := r.db.WithContext(ctx)
	if publishedOnly {
		q = q.Where("published_at IS NOT NULL")
	}
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentRepository) PublishAnnouncement(ctx context.Context, id uint, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Announcement{}).Where("id = ?", id).Update("published_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *contentRepository) CreateEvent(ctx context.Context, e *model.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *contentRepository) ListEvents(ctx context.Context) ([]model.Event, error) {
	var out []model.Event
	if err := r.db.WithContext(ctx).Order("starts_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentRepository) CreateContactMessage(ctx context.Context, m *model.ContactMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *contentRepository) ListContactMessages(ctx context.Context) ([]model.ContactMessage, error) {
	var out []model.ContactMessage
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentRepository) CreateSponsorship(ctx context.Context, s *model.Sponsorship) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *contentRepository) ListSponsorships(ctx context.Context) ([]model.Sponsorship, error) {
	var out []model.Sponsorship
	if err := r.db.WithContext(ctx).Order("amount DESC, created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentRepository) CreateGalleryImage(ctx context.Context, img *model.GalleryImage) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(img).Error
}

func (r *contentRepository) FindGalleryImage(ctx context.Context, id uint) (*model.GalleryImage, error) {
	var img model.GalleryImage
	if err := r.db.WithContext(ctx).First(&img, id).Error; err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *contentRepository) ListGalleryImages(ctx context.Context, eventID *uint) ([]model.GalleryImage, error) {
	var out []model.GalleryImage
	q := r.db.WithContext(ctx)
	if eventID != nil {
		q = q.Where("event_id = ?", *eventID)
	}
	if err := q.Order("uploaded_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentRepository) CreateRecruitmentDrive(ctx context.Context, d *model.RecruitmentDrive) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *contentRepository) ListRecruitmentDrives(ctx context.Context) ([]model.RecruitmentDrive, error) {
	var out []model.RecruitmentDrive
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ActivePublicDrive returns the newest drive that is both active and public.
func (r *contentRepository) ActivePublicDrive(ctx context.Context) (*model.RecruitmentDrive, error) {
	var d model.RecruitmentDrive
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND is_public = ?", true, true).
		Order("created_at DESC").
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *contentRepository) Delete(ctx context.Context, value interface{}, id uint) error {
	return deleteByID(ctx, r.db, value, id)
}
