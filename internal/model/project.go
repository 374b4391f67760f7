package model

import "time"

// Project is a club project with a lead and a member set.
type Project struct {
	ID                    uint      `json:"id" gorm:"primaryKey"`
	Title                 string    `json:"title" gorm:"size:200;not null"`
	Description           string    `json:"description" gorm:"type:text"`
	IsOpenSource          bool      `json:"is_open_source" gorm:"not null"`
	GithubURL             string    `json:"github_url" gorm:"size:255"`
	LeadID                *uint     `json:"lead_id" gorm:"index"`
	StatusUpdateRequested bool      `json:"status_update_requested" gorm:"not null"`
	StatusRequestedByID   *uint     `json:"status_requested_by_id"`
	LastStatusUpdate      string    `json:"last_status_update" gorm:"type:text"`
	CreatedAt             time.Time `json:"created_at" gorm:"index"`
	UpdatedAt             time.Time `json:"updated_at"`

	// Relations
	Lead              *User           `json:"lead,omitempty" gorm:"foreignKey:LeadID;constraint:OnDelete:SET NULL"`
	StatusRequestedBy *User           `json:"-" gorm:"foreignKey:StatusRequestedByID;constraint:OnDelete:SET NULL"`
	Members           []User          `json:"members,omitempty" gorm:"many2many:project_members;constraint:OnDelete:CASCADE"`
	Threads           []ProjectThread `json:"threads,omitempty" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

// HasMember reports whether userID is in the member set.
func (p *Project) HasMember(userID uint) bool {
	for _, m := range p.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// IsLead reports whether userID leads the project.
func (p *Project) IsLead(userID uint) bool {
	return p.LeadID != nil && *p.LeadID == userID
}

// Participants returns members plus the lead, without duplicates.
func (p *Project) Participants() []User {
	out := make([]User, 0, len(p.Members)+1)
	seen := make(map[uint]bool, len(p.Members)+1)
	for _, m := range p.Members {
		if !seen[m.ID] {
			seen[m.ID] = true
			out = append(out, m)
		}
	}
	if p.Lead != nil && !seen[p.Lead.ID] {
		out = append(out, *p.Lead)
	}
	return out
}

// JoinRequestStatus represents the state of a project join request.
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "PENDING"
	JoinRequestApproved JoinRequestStatus = "APPROVED"
	JoinRequestRejected JoinRequestStatus = "REJECTED"
)

// ProjectRequest is a user's request to join a project. Unique per (project, user).
type ProjectRequest struct {
	ID        uint              `json:"id" gorm:"primaryKey"`
	ProjectID uint              `json:"project_id" gorm:"not null;uniqueIndex:idx_project_request_pair"`
	UserID    uint              `json:"user_id" gorm:"not null;uniqueIndex:idx_project_request_pair"`
	Status    JoinRequestStatus `json:"status" gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Message   string            `json:"message" gorm:"type:text"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	Project Project `json:"-" gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
	User    User    `json:"user" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// ProjectThread is a chat thread inside a project.
type ProjectThread struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ProjectID   uint      `json:"project_id" gorm:"not null;index"`
	Title       string    `json:"title" gorm:"size:200;not null"`
	IsEphemeral bool      `json:"is_ephemeral" gorm:"not null"`
	CreatedByID *uint     `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`

	Project   Project `json:"-" gorm:"foreignKey:ProjectID"`
	CreatedBy *User   `json:"-" gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL"`
}

// ThreadMessage is a single chat message.
type ThreadMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ThreadID  uint      `json:"thread_id" gorm:"not null;index:idx_thread_message_created"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_thread_message_created"`

	Thread ProjectThread `json:"-" gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE"`
	Author User          `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

// EphemeralRetention is how long messages survive in an ephemeral thread.
const EphemeralRetention = time.Hour
