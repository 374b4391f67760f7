package service

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"clubportal/internal/errors"
	"clubportal/internal/model"
	"clubportal/internal/repository"
)

type memoryRoleRepo struct {
	repository.RoleRepository
	roles     map[uint]*model.Role
	positions map[uint]*model.TeamPosition
	nextID    uint
}

func newMemoryRoleRepo() *memoryRoleRepo {
	return &memoryRoleRepo{roles: map[uint]*model.Role{}, positions: map[uint]*model.TeamPosition{}}
}

func (r *memoryRoleRepo) Create(_ context.Context, role *model.Role) error {
	for _, existing := range r.roles {
		if existing.Name == role.Name {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	role.ID = r.nextID
	r.roles[role.ID] = role
	return nil
}

func (r *memoryRoleRepo) Update(_ context.Context, role *model.Role) error {
	r.roles[role.ID] = role
	return nil
}

func (r *memoryRoleRepo) Delete(_ context.Context, id uint) error {
	delete(r.roles, id)
	return nil
}

func (r *memoryRoleRepo) FindByID(_ context.Context, id uint) (*model.Role, error) {
	role, ok := r.roles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return role, nil
}

func (r *memoryRoleRepo) CreatePosition(_ context.Context, p *model.TeamPosition) error {
	r.nextID++
	p.ID = r.nextID
	r.positions[p.ID] = p
	return nil
}

func (r *memoryRoleRepo) UpdatePosition(_ context.Context, p *model.TeamPosition) error {
	r.positions[p.ID] = p
	return nil
}

func (r *memoryRoleRepo) FindPosition(_ context.Context, id uint) (*model.TeamPosition, error) {
	p, ok := r.positions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func TestRoleService_RoleLifecycle(t *testing.T) {
	repo := newMemoryRoleRepo()
	audit := &recordingAudit{}
	svc := NewRoleService(repo, audit)
	ctx := context.Background()
	admin := principal(1, "admin")

	role, err := svc.CreateRole(ctx, admin, RoleInput{Name: " Projects ", CanManageProjects: true}, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "Projects", role.Name)
	assert.True(t, role.CanManageProjects)

	_, err = svc.CreateRole(ctx, admin, RoleInput{Name: "Projects"}, "")
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	updated, err := svc.UpdateRole(ctx, admin, role.ID, RoleInput{Name: "Projects", CanManageAnnouncements: true}, "")
	require.NoError(t, err)
	assert.False(t, updated.CanManageProjects)
	assert.True(t, updated.CanManageAnnounce)

	require.NoError(t, svc.DeleteRole(ctx, admin, role.ID, ""))
	assert.Empty(t, repo.roles)

	assert.Equal(t, []string{EventRoleCreated, EventRoleModified, EventRoleDeleted}, audit.events())
	assert.Equal(t, "Deleted role Projects", audit.entries[2].Target)
}

func TestRoleService_CreateRole_RequiresName(t *testing.T) {
	svc := NewRoleService(newMemoryRoleRepo(), &recordingAudit{})

	_, err := svc.CreateRole(context.Background(), principal(1, "admin"), RoleInput{Name: "   "}, "")

	var verr *errors.ValidationError
	assert.True(t, stderrors.As(err, &verr))
}

func TestRoleService_Positions(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewRoleService(repo, &recordingAudit{})
	ctx := context.Background()
	link := uint(9)

	pos, err := svc.CreatePosition(ctx, PositionInput{Name: "Secretary", RoleLinkID: &link})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultProfileOrder, pos.Rank, "rank defaults when omitted")
	assert.Equal(t, &link, pos.RoleLinkID)

	rank := 2
	pos, err = svc.UpdatePosition(ctx, pos.ID, PositionInput{Name: "Secretary", Rank: &rank})
	require.NoError(t, err)
	assert.Equal(t, 2, pos.Rank)
	assert.Nil(t, pos.RoleLinkID, "omitting the link clears it")

	_, err = svc.UpdatePosition(ctx, 999, PositionInput{Name: "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

type memorySigRepo struct {
	repository.SigRepository
	sigs    map[uint]*model.Sig
	renames []string
	fields  []model.ProfileFieldDefinition
}

func (r *memorySigRepo) FindByID(_ context.Context, id uint) (*model.Sig, error) {
	sig, ok := r.sigs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return sig, nil
}

func (r *memorySigRepo) Update(_ context.Context, sig *model.Sig) error {
	r.sigs[sig.ID] = sig
	return nil
}

func (r *memorySigRepo) Rename(_ context.Context, sig *model.Sig, newName string) (int64, error) {
	r.renames = append(r.renames, sig.Name+"->"+newName)
	sig.Name = newName
	return 3, nil
}

func (r *memorySigRepo) CreateField(_ context.Context, f *model.ProfileFieldDefinition) error {
	f.ID = uint(len(r.fields) + 1)
	r.fields = append(r.fields, *f)
	return nil
}

func TestSigService_UpdateSig(t *testing.T) {
	tests := []struct {
		name        string
		newName     string
		wantRenames []string
		wantEvents  []string
	}{
		{name: "rename cascades and is audited", newName: "Machine Learning", wantRenames: []string{"AI->Machine Learning"}, wantEvents: []string{EventSigRenamed}},
		{name: "same name only updates details", newName: "AI", wantEvents: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memorySigRepo{sigs: map[uint]*model.Sig{1: {ID: 1, Name: "AI"}}}
			audit := &recordingAudit{}
			svc := NewSigService(repo, audit)
			order := 4

			sig, err := svc.UpdateSig(context.Background(), principal(1, "admin"), 1, SigInput{
				Name:        tt.newName,
				Description: "models and agents",
				Order:       &order,
			}, "10.0.0.1")

			require.NoError(t, err)
			assert.Equal(t, tt.newName, sig.Name)
			assert.Equal(t, "models and agents", sig.Description)
			assert.Equal(t, 4, sig.Order)
			assert.Equal(t, tt.wantRenames, repo.renames)
			assert.Equal(t, tt.wantEvents, audit.events())
		})
	}
}

func TestSigService_CreateProfileField(t *testing.T) {
	repo := &memorySigRepo{}
	audit := &recordingAudit{}
	svc := NewSigService(repo, audit)

	field, err := svc.CreateProfileField(context.Background(), principal(1, "admin"), ProfileFieldInput{
		Label: "Portfolio",
		Key:   "portfolio",
	}, "")

	require.NoError(t, err)
	assert.Equal(t, model.ProfileFieldText, field.FieldType)
	assert.Equal(t, []string{EventFieldCreated}, audit.events())

	_, err = svc.CreateProfileField(context.Background(), principal(1, "admin"), ProfileFieldInput{Label: "No key"}, "")
	var verr *errors.ValidationError
	assert.True(t, stderrors.As(err, &verr))
	assert.Len(t, repo.fields, 1)
}
