package model

import "time"

// AuditLog is an append-only record of a security-relevant action.
// Rows are never updated; ActorID is nulled when the actor is deleted.
type AuditLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	EventType string    `json:"event_type" gorm:"size:50;not null;index"`
	ActorID   *uint     `json:"actor_id" gorm:"index"`
	Target    string    `json:"target" gorm:"size:255;not null"`
	IPAddress string    `json:"ip_address" gorm:"size:45"`
	Details   string    `json:"details" gorm:"type:text"`
	Success   bool      `json:"success" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;index"`

	Actor *User `json:"actor,omitempty" gorm:"foreignKey:ActorID;constraint:OnDelete:SET NULL"`
}
