package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"clubportal/internal/access"
	"clubportal/internal/model"
	"clubportal/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) ReplaceRoles(ctx context.Context, user *model.User, roles []model.Role) error {
	args := m.Called(ctx, user, roles)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserRepository) SaveProfile(ctx context.Context, profile *model.MemberProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockUserRepository) ReplaceProfileSigs(ctx context.Context, profile *model.MemberProfile, sigs []model.Sig) error {
	args := m.Called(ctx, profile, sigs)
	return args.Error(0)
}

func (m *MockUserRepository) ListPublicTeam(ctx context.Context, alumni bool) ([]model.User, error) {
	args := m.Called(ctx, alumni)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) ReorderProfiles(ctx context.Context, items []repository.OrderUpdate) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *MockUserRepository) AssignedRoles(ctx context.Context, userID uint) ([]model.Role, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Role), args.Error(1)
}

func (m *MockUserRepository) PositionRole(ctx context.Context, userID uint) (*model.Role, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Role), args.Error(1)
}

func (m *MockUserRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.UserRepository) error) error {
	return fn(ctx, m)
}

// MockTokenStore is a mock implementation of TokenStoreInterface.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) StoreRefreshToken(ctx context.Context, tokenID string, userID uint, username string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, userID, username, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) GetRefreshToken(ctx context.Context, tokenID string) (uint, string, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(uint), args.String(1), args.Error(2)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenStore) BlacklistAccessToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsAccessTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

// recordingAudit keeps entries in memory.
type recordingAudit struct {
	entries []AuditEntry
}

func (a *recordingAudit) Record(_ context.Context, entry AuditEntry) {
	a.entries = append(a.entries, entry)
}

func (a *recordingAudit) List(context.Context, int) ([]model.AuditLog, error) { return nil, nil }

func (a *recordingAudit) ExportCSV(context.Context) ([][]string, error) { return nil, nil }

func (a *recordingAudit) PurgeOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

func (a *recordingAudit) PurgeOlderThanDays(context.Context, *access.Principal, int, string) (int64, error) {
	return 0, nil
}

func (a *recordingAudit) events() []string {
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.EventType)
	}
	return out
}

// stubCaps grants fixed capabilities per user id.
type stubCaps struct {
	grants   map[uint]access.CapabilitySet
	webLeads map[uint]bool
}

func (c stubCaps) Capabilities(_ context.Context, p *access.Principal) access.CapabilitySet {
	if !p.Authenticated() {
		return access.CapabilitySet{}
	}
	return c.grants[p.UserID]
}

func (c stubCaps) HasCapability(ctx context.Context, p *access.Principal, cap access.Capability) bool {
	return c.Capabilities(ctx, p)[cap]
}

func (c stubCaps) IsWebLead(_ context.Context, p *access.Principal) bool {
	return p.Authenticated() && c.webLeads[p.UserID]
}

func principal(id uint, name string) *access.Principal {
	return &access.Principal{UserID: id, Username: name}
}
