package access

import "clubportal/internal/model"

// Principal is the acting identity of a request. A nil *Principal is anonymous.
type Principal struct {
	UserID      uint
	Username    string
	Role        model.PrimaryRole
	IsSuperuser bool
}

// Authenticated reports whether p identifies a user.
func (p *Principal) Authenticated() bool {
	return p != nil && p.UserID != 0
}

// Superuser reports whether p bypasses every permission check.
func (p *Principal) Superuser() bool {
	return p.Authenticated() && p.IsSuperuser
}

// ID returns the user id, or nil for anonymous principals.
func (p *Principal) ID() *uint {
	if !p.Authenticated() {
		return nil
	}
	id := p.UserID
	return &id
}

// FromUser builds a principal from a loaded user row.
func FromUser(u *model.User) *Principal {
	if u == nil {
		return nil
	}
	return &Principal{
		UserID:      u.ID,
		Username:    u.Username,
		Role:        u.Role,
		IsSuperuser: u.IsSuperuser,
	}
}
