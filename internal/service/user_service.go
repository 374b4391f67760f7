package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"clubportal/internal/access"
	"clubportal/internal/cache"
	"clubportal/internal/errors"
	"clubportal/internal/model"
	"clubportal/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// CapabilityChecker answers the role checks domain logic needs beyond the evaluator.
type CapabilityChecker interface {
	Capabilities(ctx context.Context, p *access.Principal) access.CapabilitySet
	HasCapability(ctx context.Context, p *access.Principal, c access.Capability) bool
	IsWebLead(ctx context.Context, p *access.Principal) bool
}

// ProfileInput is a partial profile update; nil fields are left untouched.
type ProfileInput struct {
	FullName      *string                `json:"full_name"`
	RollNumber    *string                `json:"roll_number"`
	Department    *string                `json:"department"`
	YearOfJoining *int                   `json:"year_of_joining"`
	Sig           *string                `json:"sig"`
	Position      *string                `json:"position"`
	TeamName      *string                `json:"team_name"`
	IsPublic      *bool                  `json:"is_public"`
	IsAlumni      *bool                  `json:"is_alumni"`
	ImageURL      *string                `json:"image_url"`
	Description   *string                `json:"description"`
	LinkedinURL   *string                `json:"linkedin_url"`
	GithubURL     *string                `json:"github_url"`
	InstagramURL  *string                `json:"instagram_url"`
	Email         *string                `json:"email"`
	Year          *string                `json:"year"`
	Branch        *string                `json:"branch"`
	CustomFields  map[string]interface{} `json:"custom_fields"`
	SigIDs        *[]uint                `json:"sigs"`
}

// CreateUserInput carries a new account.
type CreateUserInput struct {
	Username string            `json:"username" validate:"required,max=150"`
	Password string            `json:"password" validate:"required,min=6"`
	Email    string            `json:"email" validate:"omitempty,email"`
	Role     model.PrimaryRole `json:"role"`
	RoleIDs  []uint            `json:"role_ids"`
	Profile  *ProfileInput     `json:"profile"`
}

// UpdateUserInput is a partial account update; nil fields are left untouched.
type UpdateUserInput struct {
	Username *string            `json:"username"`
	Email    *string            `json:"email"`
	Role     *model.PrimaryRole `json:"role"`
	IsActive *bool              `json:"is_active"`
	Password *string            `json:"password"`
	RoleIDs  *[]uint            `json:"role_ids"`
	Profile  *ProfileInput      `json:"profile"`
}

// UserService manages accounts, profiles and the public team listing.
type UserService interface {
	CreateUser(ctx context.Context, actor *access.Principal, in CreateUserInput, ip string) (*model.User, error)
	UpdateUser(ctx context.Context, actor *access.Principal, id uint, in UpdateUserInput, ip string) (*model.User, error)
	DeleteUser(ctx context.Context, actor *access.Principal, id uint, ip string) error
	GetUser(ctx context.Context, id uint) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateOwnProfile(ctx context.Context, actor *access.Principal, email *string, in ProfileInput, ip string) (*model.User, error)
	PublicTeam(ctx context.Context, alumni bool) ([]model.User, error)
	ReorderTeam(ctx context.Context, items []repository.OrderUpdate) error
	ExportUsersCSV(ctx context.Context) ([][]string, error)
}

type userService struct {
	users repository.UserRepository
	roles repository.RoleRepository
	sigs  repository.SigRepository
	caps  CapabilityChecker
	audit AuditService
	cache *cache.Client
}

// NewUserService builds a UserService with repositories, cache and audit trail.
func NewUserService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	sigs repository.SigRepository,
	caps CapabilityChecker,
	audit AuditService,
	cache *cache.Client,
) UserService {
	return &userService{users: users, roles: roles, sigs: sigs, caps: caps, audit: audit, cache: cache}
}

func (s *userService) cacheKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func (s *userService) CreateUser(ctx context.Context, actor *access.Principal, in CreateUserInput, ip string) (*model.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return nil, &errors.ValidationError{Field: "username", Reason: "username and password required"}
	}
	role := in.Role
	if role == "" {
		role = model.RoleCandidate
	}
	if !role.Valid() {
		return nil, &errors.ValidationError{Field: "role", Reason: "unknown role"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	roles, err := s.roles.FindByIDs(ctx, nonZero(in.RoleIDs))
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	err = s.users.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		if err := repo.Create(ctx, user); err != nil {
			return err
		}
		if err := repo.ReplaceRoles(ctx, user, roles); err != nil {
			return err
		}
		profile := &model.MemberProfile{UserID: &user.ID}
		return s.saveProfile(ctx, repo, actor, profile, in.Profile)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{Actor: actor, EventType: EventUserCreated, Target: "Created user " + user.Username, IP: ip})
	return s.users.FindByID(ctx, user.ID)
}

func (s *userService) UpdateUser(ctx context.Context, actor *access.Principal, id uint, in UpdateUserInput, ip string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, errors.ErrUserNotFound)
	}

	var changes []string
	if in.Username != nil && *in.Username != user.Username {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			return nil, &errors.ValidationError{Field: "username", Reason: "must not be empty"}
		}
		changes = append(changes, fmt.Sprintf("Username changed from %s to %s", user.Username, name))
		user.Username = name
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Role != nil && *in.Role != user.Role {
		if !in.Role.Valid() {
			return nil, &errors.ValidationError{Field: "role", Reason: "unknown role"}
		}
		changes = append(changes, fmt.Sprintf("Role changed from %s to %s", user.Role, *in.Role))
		user.Role = *in.Role
	}
	if in.IsActive != nil && *in.IsActive != user.IsActive {
		changes = append(changes, fmt.Sprintf("Active status changed to %t", *in.IsActive))
		user.IsActive = *in.IsActive
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
		changes = append(changes, "Password updated")
	}

	var roles []model.Role
	if in.RoleIDs != nil {
		if roles, err = s.roles.FindByIDs(ctx, nonZero(*in.RoleIDs)); err != nil {
			return nil, fmt.Errorf("load roles: %w", err)
		}
		before, after := roleIDs(user.Roles), roleIDs(roles)
		if !equalIDs(before, after) {
			changes = append(changes, fmt.Sprintf("Roles updated from %v to %v", before, after))
		}
	}

	err = s.users.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		if err := repo.Update(ctx, user); err != nil {
			return err
		}
		if in.RoleIDs != nil {
			if err := repo.ReplaceRoles(ctx, user, roles); err != nil {
				return err
			}
		}
		profile := user.Profile
		if profile == nil {
			profile = &model.MemberProfile{UserID: &user.ID}
		}
		return s.saveProfile(ctx, repo, actor, profile, in.Profile)
	})
	if err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))

	if len(changes) > 0 {
		s.audit.Record(ctx, AuditEntry{
			Actor:     actor,
			EventType: EventUserModified,
			Target:    "Modified user " + user.Username,
			IP:        ip,
			Details:   strings.Join(changes, ", "),
		})
	}
	return s.users.FindByID(ctx, id)
}

func (s *userService) DeleteUser(ctx context.Context, actor *access.Principal, id uint, ip string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return wrapNotFound(err, errors.ErrUserNotFound)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return wrapNotFound(err, errors.ErrUserNotFound)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	s.audit.Record(ctx, AuditEntry{Actor: actor, EventType: EventUserDeleted, Target: "Deleted user " + user.Username, IP: ip})
	return nil
}

func (s *userService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, errors.ErrUserNotFound)
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.List(ctx)
}

// UpdateOwnProfile applies the self-service subset. Position, team name,
// alumni flag and SIG membership stay with administrators.
func (s *userService) UpdateOwnProfile(ctx context.Context, actor *access.Principal, email *string, in ProfileInput, ip string) (*model.User, error) {
	if !actor.Authenticated() {
		return nil, errors.ErrUnauthorized
	}
	user, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, wrapNotFound(err, errors.ErrUserNotFound)
	}

	in.Position = nil
	in.TeamName = nil
	in.IsAlumni = nil
	in.SigIDs = nil
	in.CustomFields = nil
	in.Email = nil

	err = s.users.WithTransaction(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		if email != nil {
			user.Email = *email
			if err := repo.Update(ctx, user); err != nil {
				return err
			}
		}
		profile := user.Profile
		if profile == nil {
			profile = &model.MemberProfile{UserID: &user.ID}
		}
		applyProfile(profile, &in, true)
		return repo.SaveProfile(ctx, profile)
	})
	if err != nil {
		return nil, err
	}
	_ = s.cache.Delete(ctx, s.cacheKey(user.ID))

	s.audit.Record(ctx, AuditEntry{
		Actor:     actor,
		EventType: EventProfileSelfUpdate,
		Target:    fmt.Sprintf("User %s updated own profile", user.Username),
		IP:        ip,
	})
	return s.users.FindByID(ctx, user.ID)
}

func (s *userService) PublicTeam(ctx context.Context, alumni bool) ([]model.User, error) {
	return s.users.ListPublicTeam(ctx, alumni)
}

func (s *userService) ReorderTeam(ctx context.Context, items []repository.OrderUpdate) error {
	return s.users.ReorderProfiles(ctx, items)
}

func (s *userService) ExportUsersCSV(ctx context.Context) ([][]string, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	rows := make([][]string, 0, len(users)+1)
	rows = append(rows, []string{"Username", "Email", "Full Name", "Role", "Team Position", "SIG", "Status"})
	for _, u := range users {
		var fullName, position, sig string
		if u.Profile != nil {
			fullName, position, sig = u.Profile.FullName, u.Profile.Position, u.Profile.Sig
		}
		status := "Inactive"
		if u.IsActive {
			status = "Active"
		}
		rows = append(rows, []string{u.Username, u.Email, fullName, string(u.Role), position, sig, status})
	}
	return rows, nil
}

// saveProfile applies in to profile, guarding position and SIG fields behind
// manage_security, then derives the display order from the team position.
func (s *userService) saveProfile(ctx context.Context, repo repository.UserRepository, actor *access.Principal, profile *model.MemberProfile, in *ProfileInput) error {
	privileged := actor.Superuser() || s.caps.HasCapability(ctx, actor, access.ManageSecurity)
	if in != nil {
		applyProfile(profile, in, privileged)
	}
	if err := s.applyPositionOrder(ctx, profile); err != nil {
		return err
	}
	if err := repo.SaveProfile(ctx, profile); err != nil {
		return err
	}
	if in == nil || in.SigIDs == nil || !privileged {
		return nil
	}
	sigs, err := s.sigs.FindByIDs(ctx, nonZero(*in.SigIDs))
	if err != nil {
		return fmt.Errorf("load sigs: %w", err)
	}
	return repo.ReplaceProfileSigs(ctx, profile, sigs)
}

func (s *userService) applyPositionOrder(ctx context.Context, profile *model.MemberProfile) error {
	if strings.TrimSpace(profile.Position) == "" {
		return nil
	}
	position, err := s.roles.FindPositionByName(ctx, profile.Position)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		profile.Order = model.DefaultProfileOrder
		return nil
	}
	if err != nil {
		return fmt.Errorf("match team position: %w", err)
	}
	profile.Order = position.Rank
	return nil
}

// applyProfile copies set fields. Position and the SIG string are skipped
// unless privileged; the SIG set is handled by the caller.
func applyProfile(p *model.MemberProfile, in *ProfileInput, privileged bool) {
	setString(&p.FullName, in.FullName)
	setString(&p.RollNumber, in.RollNumber)
	setString(&p.Department, in.Department)
	if in.YearOfJoining != nil {
		v := *in.YearOfJoining
		p.YearOfJoining = &v
	}
	if privileged {
		setString(&p.Sig, in.Sig)
		setString(&p.Position, in.Position)
	}
	setString(&p.TeamName, in.TeamName)
	if in.IsPublic != nil {
		p.IsPublic = *in.IsPublic
	}
	if in.IsAlumni != nil {
		p.IsAlumni = *in.IsAlumni
	}
	setString(&p.ImageURL, in.ImageURL)
	setString(&p.Description, in.Description)
	setString(&p.LinkedinURL, in.LinkedinURL)
	setString(&p.GithubURL, in.GithubURL)
	setString(&p.InstagramURL, in.InstagramURL)
	setString(&p.Email, in.Email)
	setString(&p.Year, in.Year)
	setString(&p.Branch, in.Branch)
	if in.CustomFields != nil {
		p.CustomFields = in.CustomFields
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func nonZero(ids []uint) []uint {
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id != 0 {
			out = append(out, id)
		}
	}
	return out
}

func roleIDs(roles []model.Role) []uint {
	ids := make([]uint, 0, len(roles))
	for _, r := range roles {
		ids = append(ids, r.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// wrapNotFound replaces a missing-row error with the domain sentinel.
func wrapNotFound(err error, sentinel error) error {
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
