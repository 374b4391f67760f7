package access

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"clubportal/internal/model"
)

type stubStore struct {
	roles       map[uint][]model.Role
	positions   map[uint]*model.Role
	rolesErr    error
	positionErr error
}

func (s *stubStore) AssignedRoles(_ context.Context, userID uint) ([]model.Role, error) {
	if s.rolesErr != nil {
		return nil, s.rolesErr
	}
	return s.roles[userID], nil
}

func (s *stubStore) PositionRole(_ context.Context, userID uint) (*model.Role, error) {
	if s.positionErr != nil {
		return nil, s.positionErr
	}
	return s.positions[userID], nil
}

func newTestEvaluator(store CapabilityStore) *Evaluator {
	return NewEvaluator(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestEvaluator_Evaluate(t *testing.T) {
	store := &stubStore{
		roles: map[uint][]model.Role{
			2: {{Name: "Projects", CanManageProjects: true}},
			3: {{Name: "Security", CanManageSecurity: true}},
			4: {{Name: "Content", CanManageContent: true}},
			6: {{Name: "Users", CanManageUsers: true}},
		},
		positions: map[uint]*model.Role{
			5: {Name: "Secretary", CanManageEvents: true},
		},
	}
	ev := newTestEvaluator(store)

	plain := &Principal{UserID: 1, Username: "plain"}
	projects := &Principal{UserID: 2}
	security := &Principal{UserID: 3}
	content := &Principal{UserID: 4}
	secretary := &Principal{UserID: 5}
	usersMgr := &Principal{UserID: 6}
	superuser := &Principal{UserID: 7, IsSuperuser: true}

	tests := []struct {
		name      string
		principal *Principal
		resource  ResourceType
		verb      Verb
		want      Decision
	}{
		{"anonymous may submit form responses", nil, ResourceFormResponses, VerbCreate, Allow},
		{"anonymous may send contact messages", nil, ResourceContactMessages, VerbCreate, Allow},
		{"anonymous may send sponsorship inquiries", nil, ResourceSponsorships, VerbCreate, Allow},
		{"anonymous may read projects", nil, ResourceProjects, VerbRead, Allow},
		{"anonymous may read positions", nil, ResourcePositions, VerbRead, Allow},
		{"anonymous may not read users", nil, ResourceUsers, VerbRead, Deny},
		{"anonymous may not create projects", nil, ResourceProjects, VerbCreate, Deny},
		{"anonymous may not delete form responses", nil, ResourceFormResponses, VerbDelete, Deny},
		{"superuser bypasses unmapped resources", superuser, ResourceRecruitment, VerbDelete, Allow},
		{"plain user denied role writes", plain, ResourceRoles, VerbCreate, Deny},
		{"project manager denied role writes", projects, ResourceRoles, VerbUpdate, Deny},
		{"project manager allowed project writes", projects, ResourceProjects, VerbUpdate, Allow},
		{"project manager allowed thread writes", projects, ResourceProjectThreads, VerbCreate, Allow},
		{"project manager denied event writes", projects, ResourceEvents, VerbCreate, Deny},
		{"security manager allowed everything", security, ResourceRoles, VerbDelete, Allow},
		{"security manager allowed unmapped", security, ResourceRecruitment, VerbCreate, Allow},
		{"content manager allowed events", content, ResourceEvents, VerbCreate, Allow},
		{"content manager allowed forms", content, ResourceFormFields, VerbUpdate, Allow},
		{"content manager allowed sponsorships", content, ResourceSponsorships, VerbDelete, Allow},
		{"content manager denied contact messages", content, ResourceContactMessages, VerbRead, Deny},
		{"content manager denied projects", content, ResourceProjects, VerbDelete, Deny},
		{"position-linked role grants events", secretary, ResourceEvents, VerbUpdate, Allow},
		{"position-linked role denies users", secretary, ResourceUsers, VerbUpdate, Deny},
		{"users manager allowed user reads", usersMgr, ResourceUsers, VerbRead, Allow},
		{"unmapped resource denied", plain, ResourceRecruitment, VerbRead, Deny},
		{"reads are not shared visibility", plain, ResourceAuditLogs, VerbRead, Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ev.Evaluate(context.Background(), tt.principal, tt.resource, tt.verb, false))
			assert.Equal(t, tt.want, ev.Evaluate(context.Background(), tt.principal, tt.resource, tt.verb, true))
		})
	}
}

func TestEvaluator_RolesWriteRequiresSecurity(t *testing.T) {
	every := model.Role{
		CanManageUsers: true, CanManageProjects: true, CanManageEvents: true, CanManageTeam: true,
		CanManageGallery: true, CanManageAnnounce: true, CanManageContent: true, CanManageForms: true,
		CanManageSponsorship: true, CanManageMessages: true,
	}
	ev := newTestEvaluator(&stubStore{
		roles:     map[uint][]model.Role{1: {every}},
		positions: map[uint]*model.Role{1: &every},
	})
	p := &Principal{UserID: 1}

	for _, verb := range []Verb{VerbCreate, VerbUpdate, VerbDelete} {
		assert.Equal(t, Deny, ev.Evaluate(context.Background(), p, ResourceRoles, verb, false), verb.String())
	}
}

func TestEvaluator_ProjectsCapabilityIgnoresSuperuserFlag(t *testing.T) {
	ev := newTestEvaluator(&stubStore{
		roles: map[uint][]model.Role{1: {{CanManageProjects: true}}},
	})

	for _, su := range []bool{false, true} {
		p := &Principal{UserID: 1, IsSuperuser: su}
		assert.Equal(t, Allow, ev.Evaluate(context.Background(), p, ResourceProjects, VerbCreate, false))
	}
}

func TestEvaluator_LookupFailuresResolveToFalse(t *testing.T) {
	ev := newTestEvaluator(&stubStore{
		rolesErr:    errors.New("db down"),
		positionErr: errors.New("db down"),
	})
	p := &Principal{UserID: 1}

	assert.False(t, ev.HasCapability(context.Background(), p, ManageProjects))
	assert.Equal(t, Deny, ev.Evaluate(context.Background(), p, ResourceProjects, VerbCreate, false))
	assert.Equal(t, Allow, ev.Evaluate(context.Background(), p, ResourceProjects, VerbRead, false))
}

func TestEvaluator_CapabilityUnion(t *testing.T) {
	ev := newTestEvaluator(&stubStore{
		roles:     map[uint][]model.Role{1: {{CanManageUsers: true}}},
		positions: map[uint]*model.Role{1: {CanManageGallery: true}},
	})
	caps := ev.Capabilities(context.Background(), &Principal{UserID: 1})

	assert.True(t, caps.Has(ManageUsers))
	assert.True(t, caps.Has(ManageGallery))
	assert.False(t, caps.Has(ManageSecurity))
	assert.Empty(t, ev.Capabilities(context.Background(), nil))
}

func TestEvaluator_IsWebLead(t *testing.T) {
	ev := newTestEvaluator(&stubStore{
		roles: map[uint][]model.Role{2: {{Name: "web_lead"}}},
	})

	assert.True(t, ev.IsWebLead(context.Background(), &Principal{UserID: 1, Role: model.RoleWebLead}))
	assert.True(t, ev.IsWebLead(context.Background(), &Principal{UserID: 2, Role: model.RoleCandidate}))
	assert.False(t, ev.IsWebLead(context.Background(), &Principal{UserID: 3, Role: model.RoleConvenor}))
	assert.False(t, ev.IsWebLead(context.Background(), nil))
}

func TestEvaluator_IsWebLead_LogsLookupFailure(t *testing.T) {
	var buf bytes.Buffer
	ev := NewEvaluator(&stubStore{rolesErr: errors.New("connection refused")}, slog.New(slog.NewTextHandler(&buf, nil)))

	assert.False(t, ev.IsWebLead(context.Background(), &Principal{UserID: 7, Role: model.RoleCandidate}))
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "assigned roles lookup failed")
	assert.Contains(t, buf.String(), "user_id=7")
	assert.Contains(t, buf.String(), "connection refused")
}

func TestRequiredCapability_CoversEveryResource(t *testing.T) {
	unmapped := map[ResourceType]bool{ResourceFormResponses: true, ResourceRecruitment: true}
	for _, r := range AllResources {
		_, ok := RequiredCapability(r)
		assert.Equal(t, !unmapped[r], ok, r.String())
		assert.NotEqual(t, "unknown", r.String())
	}
}

func TestVerbFromMethod(t *testing.T) {
	assert.Equal(t, VerbRead, VerbFromMethod("GET"))
	assert.Equal(t, VerbRead, VerbFromMethod("OPTIONS"))
	assert.Equal(t, VerbCreate, VerbFromMethod("POST"))
	assert.Equal(t, VerbUpdate, VerbFromMethod("PATCH"))
	assert.Equal(t, VerbDelete, VerbFromMethod("DELETE"))
}

func TestCapabilitySet_Names(t *testing.T) {
	set := CapabilitySet{ManageForms: true, ManageUsers: true}
	assert.Equal(t, []string{"manage_users", "manage_forms"}, set.Names())
	assert.Len(t, AllCapabilities, len(capabilityNames))
}
