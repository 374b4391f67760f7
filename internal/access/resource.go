package access

import "net/http"

// ResourceType names a guarded kind of resource.
type ResourceType int

const (
	ResourceUsers ResourceType = iota + 1
	ResourceRoles
	ResourceSigs
	ResourcePositions
	ResourceProfileFields
	ResourceAuditLogs
	ResourceProjects
	ResourceProjectThreads
	ResourceThreadMessages
	ResourceEvents
	ResourceAnnouncements
	ResourceGallery
	ResourceSponsorships
	ResourceContactMessages
	ResourceForms
	ResourceFormSections
	ResourceFormFields
	ResourceFormResponses
	ResourceRecruitment
)

// AllResources lists every resource type.
var AllResources = []ResourceType{
	ResourceUsers, ResourceRoles, ResourceSigs, ResourcePositions, ResourceProfileFields,
	ResourceAuditLogs, ResourceProjects, ResourceProjectThreads, ResourceThreadMessages,
	ResourceEvents, ResourceAnnouncements, ResourceGallery, ResourceSponsorships,
	ResourceContactMessages, ResourceForms, ResourceFormSections, ResourceFormFields,
	ResourceFormResponses, ResourceRecruitment,
}

var resourceNames = map[ResourceType]string{
	ResourceUsers:           "users",
	ResourceRoles:           "roles",
	ResourceSigs:            "sigs",
	ResourcePositions:       "positions",
	ResourceProfileFields:   "profile_fields",
	ResourceAuditLogs:       "audit_logs",
	ResourceProjects:        "projects",
	ResourceProjectThreads:  "project_threads",
	ResourceThreadMessages:  "thread_messages",
	ResourceEvents:          "events",
	ResourceAnnouncements:   "announcements",
	ResourceGallery:         "gallery",
	ResourceSponsorships:    "sponsorships",
	ResourceContactMessages: "contact_messages",
	ResourceForms:           "forms",
	ResourceFormSections:    "form_sections",
	ResourceFormFields:      "form_fields",
	ResourceFormResponses:   "form_responses",
	ResourceRecruitment:     "recruitment",
}

func (r ResourceType) String() string {
	if name, ok := resourceNames[r]; ok {
		return name
	}
	return "unknown"
}

// RequiredCapability returns the capability guarding r. The second result is
// false for resources that only superusers and security managers may touch.
func RequiredCapability(r ResourceType) (Capability, bool) {
	switch r {
	case ResourceUsers:
		return ManageUsers, true
	case ResourceRoles, ResourceSigs, ResourcePositions, ResourceProfileFields, ResourceAuditLogs:
		return ManageSecurity, true
	case ResourceProjects, ResourceProjectThreads, ResourceThreadMessages:
		return ManageProjects, true
	case ResourceEvents:
		return ManageEvents, true
	case ResourceAnnouncements:
		return ManageAnnouncements, true
	case ResourceGallery:
		return ManageGallery, true
	case ResourceSponsorships:
		return ManageSponsorship, true
	case ResourceContactMessages:
		return ManageMessages, true
	case ResourceForms, ResourceFormSections, ResourceFormFields:
		return ManageForms, true
	case ResourceFormResponses, ResourceRecruitment:
		return 0, false
	}
	return 0, false
}

// Verb is the kind of operation requested on a resource.
type Verb int

const (
	VerbRead Verb = iota + 1
	VerbCreate
	VerbUpdate
	VerbDelete
)

func (v Verb) String() string {
	switch v {
	case VerbRead:
		return "read"
	case VerbCreate:
		return "create"
	case VerbUpdate:
		return "update"
	case VerbDelete:
		return "delete"
	}
	return "unknown"
}

// VerbFromMethod maps an HTTP method onto a verb.
func VerbFromMethod(method string) Verb {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return VerbRead
	case http.MethodPost:
		return VerbCreate
	case http.MethodPut, http.MethodPatch:
		return VerbUpdate
	case http.MethodDelete:
		return VerbDelete
	}
	return VerbUpdate
}

var publicCreate = map[ResourceType]bool{
	ResourceFormResponses:   true,
	ResourceContactMessages: true,
	ResourceSponsorships:    true,
}

var publicRead = map[ResourceType]bool{
	ResourceProjects:      true,
	ResourceGallery:       true,
	ResourceAnnouncements: true,
	ResourceEvents:        true,
	ResourceSponsorships:  true,
	ResourceForms:         true,
	ResourceFormSections:  true,
	ResourceFormFields:    true,
	ResourceSigs:          true,
	ResourcePositions:     true,
}

// IsPublic reports whether verb on r is open to anonymous callers.
func IsPublic(r ResourceType, verb Verb) bool {
	switch verb {
	case VerbCreate:
		return publicCreate[r]
	case VerbRead:
		return publicRead[r]
	}
	return false
}
