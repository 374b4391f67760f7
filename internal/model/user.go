package model

import (
	"time"

	"gorm.io/datatypes"
)

// PrimaryRole is the single organisational role every user carries.
type PrimaryRole string

const (
	RoleWebLead        PrimaryRole = "WEB_LEAD"
	RoleConvenor       PrimaryRole = "CONVENOR"
	RoleFacultyAdvisor PrimaryRole = "FACULTY"
	RoleSigHead        PrimaryRole = "SIG_HEAD"
	RoleCandidate      PrimaryRole = "CANDIDATE"
)

// Valid reports whether r is one of the known primary roles.
func (r PrimaryRole) Valid() bool {
	switch r {
	case RoleWebLead, RoleConvenor, RoleFacultyAdvisor, RoleSigHead, RoleCandidate:
		return true
	}
	return false
}

// User represents an authenticated club member or staff account.
type User struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	Username     string      `json:"username" gorm:"uniqueIndex;size:150;not null"`
	Email        string      `json:"email" gorm:"size:255"`
	PasswordHash string      `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Role         PrimaryRole `json:"role" gorm:"size:20;not null;default:'CANDIDATE'"`
	IsSuperuser  bool        `json:"is_superuser" gorm:"not null"`
	IsActive     bool        `json:"is_active" gorm:"not null;index"`
	LastLogin    *time.Time  `json:"last_login"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	// Relations
	Roles   []Role         `json:"roles,omitempty" gorm:"many2many:user_roles;constraint:OnDelete:CASCADE"`
	Profile *MemberProfile `json:"profile,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// Role is a named bundle of capability flags. Many users share many roles.
type Role struct {
	ID                   uint      `json:"id" gorm:"primaryKey"`
	Name                 string    `json:"name" gorm:"uniqueIndex;size:50;not null"`
	CanManageUsers       bool      `json:"can_manage_users" gorm:"not null"`
	CanManageProjects    bool      `json:"can_manage_projects" gorm:"not null"`
	CanManageEvents      bool      `json:"can_manage_events" gorm:"not null"`
	CanManageTeam        bool      `json:"can_manage_team" gorm:"not null"`
	CanManageGallery     bool      `json:"can_manage_gallery" gorm:"not null"`
	CanManageAnnounce    bool      `json:"can_manage_announcements" gorm:"column:can_manage_announcements;not null"`
	CanManageSecurity    bool      `json:"can_manage_security" gorm:"not null"`
	CanManageContent     bool      `json:"can_manage_content" gorm:"not null"`
	CanManageForms       bool      `json:"can_manage_forms" gorm:"not null"`
	CanManageSponsorship bool      `json:"can_manage_sponsorship" gorm:"not null"`
	CanManageMessages    bool      `json:"can_manage_messages" gorm:"not null"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TeamPosition is an organisational title. When RoleLink is set, holding the
// position confers that role's capabilities.
type TeamPosition struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	Name       string `json:"name" gorm:"uniqueIndex;size:100;not null"`
	Rank       int    `json:"rank" gorm:"not null;default:100"`
	RoleLinkID *uint  `json:"role_link_id" gorm:"index"`

	RoleLink *Role `json:"role_link,omitempty" gorm:"foreignKey:RoleLinkID;constraint:OnDelete:SET NULL"`
}

// Sig is a special interest group.
type Sig struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"uniqueIndex;size:100;not null"`
	Description string `json:"description" gorm:"type:text"`
	Order       int    `json:"order" gorm:"column:sort_order;not null;default:0"`
}

// ProfileFieldType enumerates the input kinds of a custom profile field.
type ProfileFieldType string

const (
	ProfileFieldText     ProfileFieldType = "text"
	ProfileFieldURL      ProfileFieldType = "url"
	ProfileFieldNumber   ProfileFieldType = "number"
	ProfileFieldDate     ProfileFieldType = "date"
	ProfileFieldTextarea ProfileFieldType = "textarea"
)

// ProfileFieldDefinition declares a custom key stored in MemberProfile.CustomFields.
type ProfileFieldDefinition struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	Label        string           `json:"label" gorm:"size:100;not null"`
	Key          string           `json:"key" gorm:"uniqueIndex;size:100;not null"`
	FieldType    ProfileFieldType `json:"field_type" gorm:"size:20;not null;default:'text'"`
	IsRequired   bool             `json:"is_required" gorm:"not null"`
	Order        int              `json:"order" gorm:"column:sort_order;not null;default:0"`
	LimitToSigID *uint            `json:"limit_to_sig_id" gorm:"index"`

	LimitToSig *Sig `json:"-" gorm:"foreignKey:LimitToSigID;constraint:OnDelete:CASCADE"`
}

// MemberProfile holds the public-facing details of a user.
type MemberProfile struct {
	ID            uint              `json:"id" gorm:"primaryKey"`
	UserID        *uint             `json:"user_id" gorm:"uniqueIndex"`
	FullName      string            `json:"full_name" gorm:"size:100"`
	RollNumber    string            `json:"roll_number" gorm:"size:20"`
	Department    string            `json:"department" gorm:"size:100"`
	YearOfJoining *int              `json:"year_of_joining"`
	Sig           string            `json:"sig" gorm:"size:100;index"`
	Position      string            `json:"position" gorm:"size:100"`
	TeamName      string            `json:"team_name" gorm:"size:100"`
	IsPublic      bool              `json:"is_public" gorm:"not null"`
	IsAlumni      bool              `json:"is_alumni" gorm:"not null"`
	Order         int               `json:"order" gorm:"column:sort_order;not null;default:0;index"`
	ImageURL      string            `json:"image_url" gorm:"size:512"`
	Description   string            `json:"description" gorm:"type:text"`
	LinkedinURL   string            `json:"linkedin_url" gorm:"size:255"`
	GithubURL     string            `json:"github_url" gorm:"size:255"`
	InstagramURL  string            `json:"instagram_url" gorm:"size:255"`
	Email         string            `json:"email" gorm:"size:255"`
	Year          string            `json:"year" gorm:"size:50"`
	Branch        string            `json:"branch" gorm:"size:100"`
	CustomFields  datatypes.JSONMap `json:"custom_fields" gorm:"type:json"`

	Sigs []Sig `json:"sigs,omitempty" gorm:"many2many:profile_sigs;constraint:OnDelete:CASCADE"`
}

// DefaultProfileOrder is used when a profile's position matches no TeamPosition.
const DefaultProfileOrder = 100
