package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"clubportal/internal/access"
	"clubportal/internal/errors"
	"clubportal/internal/model"
	"clubportal/internal/repository"
)

// memoryProjectRepo is a stateful ProjectRepository. Join requests are unique
// per (project, user) the way the table's unique index enforces it.
type memoryProjectRepo struct {
	mu        sync.Mutex
	users     map[uint]model.User
	projects  map[uint]*model.Project
	members   map[uint]map[uint]bool
	requests  []*model.ProjectRequest
	threads   map[uint]*model.ProjectThread
	messages  []model.ThreadMessage
	nextID    uint
	pruneErr  error
	pruneRuns int
}

func newMemoryProjectRepo(users ...model.User) *memoryProjectRepo {
	r := &memoryProjectRepo{
		users:    map[uint]model.User{},
		projects: map[uint]*model.Project{},
		members:  map[uint]map[uint]bool{},
		threads:  map[uint]*model.ProjectThread{},
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memoryProjectRepo) id() uint {
	r.nextID++
	return r.nextID
}

func (r *memoryProjectRepo) Create(_ context.Context, project *model.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	project.ID = r.id()
	stored := *project
	stored.Members = nil
	r.projects[project.ID] = &stored
	r.members[project.ID] = map[uint]bool{}
	for _, m := range project.Members {
		r.members[project.ID][m.ID] = true
	}
	return nil
}

func (r *memoryProjectRepo) Update(_ context.Context, project *model.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *project
	stored.Members, stored.Threads, stored.Lead = nil, nil, nil
	r.projects[project.ID] = &stored
	return nil
}

func (r *memoryProjectRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.projects, id)
	return nil
}

func (r *memoryProjectRepo) FindByID(_ context.Context, id uint) (*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *p
	for uid := range r.members[id] {
		out.Members = append(out.Members, r.users[uid])
	}
	if out.LeadID != nil {
		lead := r.users[*out.LeadID]
		out.Lead = &lead
	}
	for tid := uint(1); tid <= r.nextID; tid++ {
		if t, ok := r.threads[tid]; ok && t.ProjectID == id {
			out.Threads = append(out.Threads, *t)
		}
	}
	return &out, nil
}

func (r *memoryProjectRepo) List(context.Context) ([]model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Project
	for _, p := range r.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (r *memoryProjectRepo) ListForUser(_ context.Context, userID uint) ([]model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Project
	for id, p := range r.projects {
		if (p.LeadID != nil && *p.LeadID == userID) || r.members[id][userID] {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memoryProjectRepo) AddMember(_ context.Context, projectID, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[projectID][userID] = true
	return nil
}

func (r *memoryProjectRepo) CreateRequest(_ context.Context, req *model.ProjectRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.requests {
		if existing.ProjectID == req.ProjectID && existing.UserID == req.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	req.ID = r.id()
	stored := *req
	r.requests = append(r.requests, &stored)
	return nil
}

func (r *memoryProjectRepo) FindRequest(_ context.Context, id uint) (*model.ProjectRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.ID == id {
			out := *req
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryProjectRepo) FindRequestByPair(_ context.Context, projectID, userID uint) (*model.ProjectRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.ProjectID == projectID && req.UserID == userID {
			out := *req
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memoryProjectRepo) ListRequests(_ context.Context, projectID uint) ([]model.ProjectRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ProjectRequest
	for _, req := range r.requests {
		if req.ProjectID == projectID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (r *memoryProjectRepo) UpdateRequestStatus(_ context.Context, id uint, status model.JoinRequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.ID == id {
			req.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *memoryProjectRepo) CreateThread(_ context.Context, thread *model.ProjectThread) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	thread.ID = r.id()
	stored := *thread
	r.threads[thread.ID] = &stored
	return nil
}

func (r *memoryProjectRepo) FindThread(_ context.Context, id uint) (*model.ProjectThread, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.threads[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *t
	return &out, nil
}

func (r *memoryProjectRepo) ListThreads(_ context.Context, projectID uint) ([]model.ProjectThread, error) {
	p, err := r.FindByID(context.Background(), projectID)
	if err != nil {
		return nil, err
	}
	return p.Threads, nil
}

func (r *memoryProjectRepo) SetThreadEphemeral(_ context.Context, id uint, ephemeral bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.threads[id].IsEphemeral = ephemeral
	return nil
}

func (r *memoryProjectRepo) CreateMessage(_ context.Context, msg *model.ThreadMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg.ID = r.id()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *memoryProjectRepo) ListMessages(_ context.Context, threadID uint, since *time.Time) ([]model.ThreadMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ThreadMessage
	for _, m := range r.messages {
		if m.ThreadID == threadID && (since == nil || !m.CreatedAt.Before(*since)) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryProjectRepo) DeleteMessagesBefore(_ context.Context, threadID uint, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneRuns++
	if r.pruneErr != nil {
		return 0, r.pruneErr
	}
	return r.deleteWhere(func(m model.ThreadMessage) bool {
		return m.ThreadID == threadID && m.CreatedAt.Before(cutoff)
	}), nil
}

func (r *memoryProjectRepo) PurgeMessages(_ context.Context, threadID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteWhere(func(m model.ThreadMessage) bool { return m.ThreadID == threadID }), nil
}

func (r *memoryProjectRepo) deleteWhere(match func(model.ThreadMessage) bool) int64 {
	kept := r.messages[:0]
	var n int64
	for _, m := range r.messages {
		if match(m) {
			n++
			continue
		}
		kept = append(kept, m)
	}
	r.messages = kept
	return n
}

func (r *memoryProjectRepo) LastMessageIDs(_ context.Context, threadIDs []uint) (map[uint]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := map[uint]bool{}
	for _, id := range threadIDs {
		want[id] = true
	}
	out := map[uint]uint{}
	for _, m := range r.messages {
		if want[m.ThreadID] && m.ID > out[m.ThreadID] {
			out[m.ThreadID] = m.ID
		}
	}
	return out, nil
}

func (r *memoryProjectRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.ProjectRepository) error) error {
	return fn(ctx, r)
}

func (r *memoryProjectRepo) isMember(projectID, userID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[projectID][userID]
}

var (
	lead     = principal(1, "lead")
	member   = principal(2, "member")
	outsider = principal(3, "outsider")
	manager  = principal(4, "manager")
	webLead  = principal(5, "weblead")
	root     = &access.Principal{UserID: 6, Username: "root", IsSuperuser: true}
)

// projectFixture builds a project led by user 1 with user 2 as a member.
func projectFixture(t *testing.T) (*projectService, *memoryProjectRepo, *model.Project) {
	t.Helper()
	login := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	repo := newMemoryProjectRepo(
		model.User{ID: 1, Username: "lead", LastLogin: &login},
		model.User{ID: 2, Username: "member"},
		model.User{ID: 3, Username: "outsider"},
		model.User{ID: 4, Username: "manager"},
		model.User{ID: 5, Username: "weblead"},
		model.User{ID: 6, Username: "root"},
	)
	caps := stubCaps{
		grants:   map[uint]access.CapabilitySet{4: {access.ManageProjects: true}},
		webLeads: map[uint]bool{5: true},
	}
	svc := NewProjectService(repo, caps, nil).(*projectService)

	project, err := svc.CreateProject(context.Background(), lead, ProjectInput{Title: "Robot", MemberIDs: []uint{2}})
	require.NoError(t, err)
	return svc, repo, project
}

func TestProjectService_CreateProject(t *testing.T) {
	_, repo, project := projectFixture(t)

	require.NotNil(t, project.LeadID)
	assert.Equal(t, uint(1), *project.LeadID)
	assert.True(t, repo.isMember(project.ID, 1), "creator joins the member set")
	assert.True(t, repo.isMember(project.ID, 2))
}

func TestProjectService_RequestJoin(t *testing.T) {
	tests := []struct {
		name          string
		actor         *access.Principal
		expectedError error
	}{
		{name: "outsider may request", actor: outsider},
		{name: "member is rejected", actor: member, expectedError: errors.ErrAlreadyMember},
		{name: "lead is rejected", actor: lead, expectedError: errors.ErrAlreadyMember},
		{name: "anonymous is rejected", actor: nil, expectedError: errors.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, project := projectFixture(t)
			req, err := svc.RequestJoin(context.Background(), tt.actor, project.ID, "let me in")
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, repo.requests)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.JoinRequestPending, req.Status)
		})
	}
}

func TestProjectService_RequestJoin_DuplicateLeavesOneRow(t *testing.T) {
	svc, repo, project := projectFixture(t)

	_, err := svc.RequestJoin(context.Background(), outsider, project.ID, "")
	require.NoError(t, err)
	_, err = svc.RequestJoin(context.Background(), outsider, project.ID, "")
	assert.ErrorIs(t, err, errors.ErrDuplicateRequest)

	requests, err := repo.ListRequests(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Len(t, requests, 1)
}

func TestProjectService_RequestJoin_ConcurrentDuplicates(t *testing.T) {
	svc, repo, project := projectFixture(t)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RequestJoin(context.Background(), outsider, project.ID, "")
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, errors.ErrDuplicateRequest)
	}
	assert.Equal(t, 1, ok)
	assert.Len(t, repo.requests, 1)
}

func TestProjectService_ApproveRequest(t *testing.T) {
	tests := []struct {
		name          string
		approver      *access.Principal
		expectedError error
	}{
		{name: "lead approves", approver: lead},
		{name: "project manager approves", approver: manager},
		{name: "web lead approves", approver: webLead},
		{name: "superuser approves", approver: root},
		{name: "member cannot approve", approver: member, expectedError: errors.ErrForbidden},
		{name: "requester cannot self-approve", approver: outsider, expectedError: errors.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, project := projectFixture(t)
			req, err := svc.RequestJoin(context.Background(), outsider, project.ID, "")
			require.NoError(t, err)

			approved, err := svc.ApproveRequest(context.Background(), tt.approver, req.ID)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.False(t, repo.isMember(project.ID, outsider.UserID))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.JoinRequestApproved, approved.Status)
			assert.True(t, repo.isMember(project.ID, outsider.UserID))

			stored, err := repo.FindRequest(context.Background(), req.ID)
			require.NoError(t, err)
			assert.Equal(t, model.JoinRequestApproved, stored.Status)
		})
	}
}

func TestProjectService_RejectRequest(t *testing.T) {
	svc, repo, project := projectFixture(t)
	req, err := svc.RequestJoin(context.Background(), outsider, project.ID, "")
	require.NoError(t, err)

	rejected, err := svc.RejectRequest(context.Background(), lead, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JoinRequestRejected, rejected.Status)
	assert.False(t, repo.isMember(project.ID, outsider.UserID))

	_, err = svc.RejectRequest(context.Background(), lead, 999)
	assert.ErrorIs(t, err, errors.ErrRequestNotFound)
}

func TestProjectService_PostMessage_PrunesEphemeralThread(t *testing.T) {
	svc, repo, project := projectFixture(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	thread, err := svc.CreateThread(context.Background(), lead, project.ID, "standup", true)
	require.NoError(t, err)

	old := model.ThreadMessage{ThreadID: thread.ID, AuthorID: 1, Content: "old", CreatedAt: now.Add(-2 * time.Hour)}
	recent := model.ThreadMessage{ThreadID: thread.ID, AuthorID: 2, Content: "recent", CreatedAt: now.Add(-30 * time.Minute)}
	require.NoError(t, repo.CreateMessage(context.Background(), &old))
	require.NoError(t, repo.CreateMessage(context.Background(), &recent))

	_, err = svc.PostMessage(context.Background(), member, thread.ID, "hello")
	require.NoError(t, err)

	msgs, err := repo.ListMessages(context.Background(), thread.ID, nil)
	require.NoError(t, err)
	var contents []string
	for _, m := range msgs {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"recent", "hello"}, contents)
}

func TestProjectService_PostMessage_PersistentThreadKeepsHistory(t *testing.T) {
	svc, repo, project := projectFixture(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	thread, err := svc.CreateThread(context.Background(), lead, project.ID, "design", false)
	require.NoError(t, err)
	old := model.ThreadMessage{ThreadID: thread.ID, AuthorID: 1, Content: "old", CreatedAt: now.Add(-48 * time.Hour)}
	require.NoError(t, repo.CreateMessage(context.Background(), &old))

	_, err = svc.PostMessage(context.Background(), lead, thread.ID, "hi")
	require.NoError(t, err)
	assert.Equal(t, 0, repo.pruneRuns)
	assert.Len(t, repo.messages, 2)
}

func TestProjectService_PostMessage_PruneFailureIsNotFatal(t *testing.T) {
	svc, repo, project := projectFixture(t)
	thread, err := svc.CreateThread(context.Background(), lead, project.ID, "chat", true)
	require.NoError(t, err)
	repo.pruneErr = assert.AnError

	msg, err := svc.PostMessage(context.Background(), member, thread.ID, "still saved")
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
	assert.Equal(t, 1, repo.pruneRuns)
}

func TestProjectService_PostMessage_Permissions(t *testing.T) {
	svc, _, project := projectFixture(t)
	thread, err := svc.CreateThread(context.Background(), lead, project.ID, "chat", false)
	require.NoError(t, err)

	_, err = svc.PostMessage(context.Background(), outsider, thread.ID, "hi")
	assert.ErrorIs(t, err, errors.ErrNotProjectMember)

	_, err = svc.PostMessage(context.Background(), member, thread.ID, "   ")
	var invalid *errors.ValidationError
	assert.ErrorAs(t, err, &invalid)

	_, err = svc.PostMessage(context.Background(), member, 999, "hi")
	assert.ErrorIs(t, err, errors.ErrThreadNotFound)
}

func TestProjectService_ListMessages_HidesExpired(t *testing.T) {
	svc, repo, project := projectFixture(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	thread, err := svc.CreateThread(context.Background(), lead, project.ID, "chat", true)
	require.NoError(t, err)
	stale := model.ThreadMessage{ThreadID: thread.ID, AuthorID: 1, Content: "stale", CreatedAt: now.Add(-90 * time.Minute)}
	fresh := model.ThreadMessage{ThreadID: thread.ID, AuthorID: 1, Content: "fresh", CreatedAt: now.Add(-10 * time.Minute)}
	require.NoError(t, repo.CreateMessage(context.Background(), &stale))
	require.NoError(t, repo.CreateMessage(context.Background(), &fresh))

	msgs, err := svc.ListMessages(context.Background(), member, thread.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "fresh", msgs[0].Content)
}

func TestProjectService_PurgeMessages(t *testing.T) {
	svc, repo, project := projectFixture(t)
	thread, err := svc.CreateThread(context.Background(), lead, project.ID, "chat", false)
	require.NoError(t, err)
	_, err = svc.PostMessage(context.Background(), member, thread.ID, "one")
	require.NoError(t, err)

	_, err = svc.PurgeMessages(context.Background(), member, thread.ID)
	assert.ErrorIs(t, err, errors.ErrForbidden)

	n, err := svc.PurgeMessages(context.Background(), lead, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, repo.messages)
}

func TestProjectService_ToggleEphemeral(t *testing.T) {
	svc, _, project := projectFixture(t)
	thread, err := svc.CreateThread(context.Background(), lead, project.ID, "chat", false)
	require.NoError(t, err)

	toggled, err := svc.ToggleEphemeral(context.Background(), member, thread.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsEphemeral)

	_, err = svc.ToggleEphemeral(context.Background(), outsider, thread.ID)
	assert.ErrorIs(t, err, errors.ErrNotProjectMember)
}

func TestProjectService_Status(t *testing.T) {
	svc, repo, project := projectFixture(t)

	require.NoError(t, svc.RequestStatus(context.Background(), manager, project.ID))
	stored := repo.projects[project.ID]
	assert.True(t, stored.StatusUpdateRequested)
	require.NotNil(t, stored.StatusRequestedByID)
	assert.Equal(t, manager.UserID, *stored.StatusRequestedByID)

	err := svc.SubmitStatus(context.Background(), member, project.ID, "")
	var invalid *errors.ValidationError
	assert.ErrorAs(t, err, &invalid)

	require.NoError(t, svc.SubmitStatus(context.Background(), member, project.ID, "wheels attached"))
	stored = repo.projects[project.ID]
	assert.False(t, stored.StatusUpdateRequested)
	assert.Equal(t, "wheels attached", stored.LastStatusUpdate)

	assert.ErrorIs(t, svc.RequestStatus(context.Background(), outsider, project.ID), errors.ErrNotProjectMember)
}

func TestProjectService_SyncState(t *testing.T) {
	svc, _, project := projectFixture(t)
	busy, err := svc.CreateThread(context.Background(), lead, project.ID, "busy", false)
	require.NoError(t, err)
	quiet, err := svc.CreateThread(context.Background(), lead, project.ID, "quiet", false)
	require.NoError(t, err)
	msg, err := svc.PostMessage(context.Background(), member, busy.ID, "ping")
	require.NoError(t, err)

	state, err := svc.SyncState(context.Background(), member, project.ID)
	require.NoError(t, err)

	assert.Equal(t, map[uint]uint{busy.ID: msg.ID, quiet.ID: 0}, state.ThreadsState)
	require.Contains(t, state.MembersStatus, uint(1))
	require.Contains(t, state.MembersStatus, uint(2))
	assert.NotNil(t, state.MembersStatus[1])
	assert.Nil(t, state.MembersStatus[2])

	_, err = svc.SyncState(context.Background(), outsider, project.ID)
	assert.ErrorIs(t, err, errors.ErrNotProjectMember)
}

func TestProjectService_ListProjects(t *testing.T) {
	svc, _, _ := projectFixture(t)
	_, err := svc.CreateProject(context.Background(), outsider, ProjectInput{Title: "Other"})
	require.NoError(t, err)

	tests := []struct {
		name      string
		actor     *access.Principal
		wantTitle []string
	}{
		{name: "member sees only joined projects", actor: member, wantTitle: []string{"Robot"}},
		{name: "lead sees led projects", actor: lead, wantTitle: []string{"Robot"}},
		{name: "creator sees own project", actor: outsider, wantTitle: []string{"Other"}},
		{name: "non-participant sees nothing", actor: manager, wantTitle: nil},
		{name: "superuser sees all", actor: root, wantTitle: []string{"Other", "Robot"}},
		{name: "anonymous visitor sees all", actor: nil, wantTitle: []string{"Other", "Robot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projects, err := svc.ListProjects(context.Background(), tt.actor)
			require.NoError(t, err)
			var titles []string
			for _, p := range projects {
				titles = append(titles, p.Title)
			}
			sort.Strings(titles)
			assert.Equal(t, tt.wantTitle, titles)
		})
	}
}
