package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Announcement is a news post shown on the public site once published.
type Announcement struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"size:200;not null"`
	Content     string     `json:"content" gorm:"type:text"`
	PublishedAt *time.Time `json:"published_at" gorm:"index"`
	CreatedByID *uint      `json:"created_by_id"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
}

// Event is a club event.
type Event struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"size:200;not null"`
	Description string     `json:"description" gorm:"type:text"`
	Location    string     `json:"location" gorm:"size:200"`
	StartsAt    time.Time  `json:"starts_at" gorm:"index"`
	EndsAt      *time.Time `json:"ends_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ContactMessage is submitted anonymously from the public contact form.
type ContactMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Email     string    `json:"email" gorm:"size:255;not null"`
	Subject   string    `json:"subject" gorm:"size:200"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// Sponsorship is an inbound sponsorship inquiry or an active sponsor.
type Sponsorship struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	CompanyName string          `json:"company_name" gorm:"size:200;not null"`
	ContactName string          `json:"contact_name" gorm:"size:100"`
	Email       string          `json:"email" gorm:"size:255;not null"`
	Tier        string          `json:"tier" gorm:"size:50"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null;default:0"`
	Message     string          `json:"message" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at" gorm:"index"`
}

// GalleryImage points at an uploaded object in object storage.
type GalleryImage struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Title        string    `json:"title" gorm:"size:200"`
	ObjectKey    string    `json:"-" gorm:"size:255;not null"`
	URL          string    `json:"url" gorm:"size:512;not null"`
	EventID      *uint     `json:"event_id" gorm:"index"`
	UploadedByID *uint     `json:"uploaded_by_id"`
	UploadedAt   time.Time `json:"uploaded_at" gorm:"autoCreateTime;index"`

	Event *Event `json:"-" gorm:"foreignKey:EventID;constraint:OnDelete:SET NULL"`
}

// RecruitmentDrive is a recruitment campaign; at most one is expected to be active and public.
type RecruitmentDrive struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:200;not null"`
	Description string    `json:"description" gorm:"type:text"`
	FormID      *uint     `json:"form_id"`
	IsActive    bool      `json:"is_active" gorm:"not null;index"`
	IsPublic    bool      `json:"is_public" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
