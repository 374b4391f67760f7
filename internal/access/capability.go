package access

import "clubportal/internal/model"

// Capability is a single permission atom carried by a Role.
type Capability int

const (
	ManageUsers Capability = iota + 1
	ManageProjects
	ManageEvents
	ManageTeam
	ManageGallery
	ManageAnnouncements
	ManageSecurity
	ManageContent
	ManageForms
	ManageSponsorship
	ManageMessages
)

// AllCapabilities lists every capability in declaration order.
var AllCapabilities = []Capability{
	ManageUsers, ManageProjects, ManageEvents, ManageTeam, ManageGallery, ManageAnnouncements,
	ManageSecurity, ManageContent, ManageForms, ManageSponsorship, ManageMessages,
}

var capabilityNames = map[Capability]string{
	ManageUsers:         "manage_users",
	ManageProjects:      "manage_projects",
	ManageEvents:        "manage_events",
	ManageTeam:          "manage_team",
	ManageGallery:       "manage_gallery",
	ManageAnnouncements: "manage_announcements",
	ManageSecurity:      "manage_security",
	ManageContent:       "manage_content",
	ManageForms:         "manage_forms",
	ManageSponsorship:   "manage_sponsorship",
	ManageMessages:      "manage_messages",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return "unknown"
}

// Granted reports whether role carries capability c.
func Granted(role *model.Role, c Capability) bool {
	if role == nil {
		return false
	}
	switch c {
	case ManageUsers:
		return role.CanManageUsers
	case ManageProjects:
		return role.CanManageProjects
	case ManageEvents:
		return role.CanManageEvents
	case ManageTeam:
		return role.CanManageTeam
	case ManageGallery:
		return role.CanManageGallery
	case ManageAnnouncements:
		return role.CanManageAnnounce
	case ManageSecurity:
		return role.CanManageSecurity
	case ManageContent:
		return role.CanManageContent
	case ManageForms:
		return role.CanManageForms
	case ManageSponsorship:
		return role.CanManageSponsorship
	case ManageMessages:
		return role.CanManageMessages
	}
	return false
}

// CapabilitySet is the union of capabilities a principal holds.
type CapabilitySet map[Capability]bool

// Has reports membership.
func (s CapabilitySet) Has(c Capability) bool {
	return s[c]
}

// Names returns the granted capability names in declaration order.
func (s CapabilitySet) Names() []string {
	names := make([]string, 0, len(s))
	for _, c := range AllCapabilities {
		if s[c] {
			names = append(names, c.String())
		}
	}
	return names
}

func (s CapabilitySet) addRole(role *model.Role) {
	for _, c := range AllCapabilities {
		if Granted(role, c) {
			s[c] = true
		}
	}
}

// contentCapabilities may be satisfied by ManageContent instead.
var contentCapabilities = map[Capability]bool{
	ManageEvents:        true,
	ManageAnnouncements: true,
	ManageGallery:       true,
	ManageSponsorship:   true,
	ManageForms:         true,
}
