package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"clubportal/internal/access"
	"clubportal/internal/errors"
	"clubportal/internal/model"
	"clubportal/internal/repository"
)

// ProjectInput creates a project.
type ProjectInput struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description"`
	IsOpenSource bool   `json:"is_open_source"`
	GithubURL    string `json:"github_url" validate:"omitempty,url"`
	LeadID       *uint  `json:"lead_id"`
	MemberIDs    []uint `json:"member_ids"`
}

// ProjectUpdateInput changes project metadata; nil fields are left untouched.
type ProjectUpdateInput struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	IsOpenSource *bool   `json:"is_open_source"`
	GithubURL    *string `json:"github_url"`
	LeadID       *uint   `json:"lead_id"`
}

// SyncState is a polling snapshot of a project's collaboration state.
type SyncState struct {
	// MembersStatus maps every member and the lead to their last login.
	MembersStatus map[uint]*time.Time `json:"members_status"`
	// ThreadsState maps every thread to its newest message id, or 0.
	ThreadsState map[uint]uint `json:"threads_state"`
}

// ProjectService governs project membership, join requests and threads.
type ProjectService interface {
	CreateProject(ctx context.Context, actor *access.Principal, in ProjectInput) (*model.Project, error)
	UpdateProject(ctx context.Context, id uint, in ProjectUpdateInput) (*model.Project, error)
	DeleteProject(ctx context.Context, id uint) error
	GetProject(ctx context.Context, id uint) (*model.Project, error)
	// ListProjects returns the projects a member leads or belongs to. Superusers
	// and anonymous visitors of the public site see every project.
	ListProjects(ctx context.Context, actor *access.Principal) ([]model.Project, error)

	RequestStatus(ctx context.Context, actor *access.Principal, projectID uint) error
	SubmitStatus(ctx context.Context, actor *access.Principal, projectID uint, text string) error

	RequestJoin(ctx context.Context, actor *access.Principal, projectID uint, message string) (*model.ProjectRequest, error)
	ListJoinRequests(ctx context.Context, actor *access.Principal, projectID uint) ([]model.ProjectRequest, error)
	ApproveRequest(ctx context.Context, actor *access.Principal, requestID uint) (*model.ProjectRequest, error)
	RejectRequest(ctx context.Context, actor *access.Principal, requestID uint) (*model.ProjectRequest, error)

	CreateThread(ctx context.Context, actor *access.Principal, projectID uint, title string, ephemeral bool) (*model.ProjectThread, error)
	ListThreads(ctx context.Context, actor *access.Principal, projectID uint) ([]model.ProjectThread, error)
	ToggleEphemeral(ctx context.Context, actor *access.Principal, threadID uint) (*model.ProjectThread, error)
	PurgeMessages(ctx context.Context, actor *access.Principal, threadID uint) (int64, error)
	PostMessage(ctx context.Context, actor *access.Principal, threadID uint, content string) (*model.ThreadMessage, error)
	ListMessages(ctx context.Context, actor *access.Principal, threadID uint) ([]model.ThreadMessage, error)

	SyncState(ctx context.Context, actor *access.Principal, projectID uint) (*SyncState, error)
}

type projectService struct {
	repo   repository.ProjectRepository
	caps   CapabilityChecker
	logger *slog.Logger
	now    func() time.Time
}

// NewProjectService creates a new project service.
func NewProjectService(repo repository.ProjectRepository, caps CapabilityChecker, logger *slog.Logger) ProjectService {
	if logger == nil {
		logger = slog.Default()
	}
	return &projectService{repo: repo, caps: caps, logger: logger, now: time.Now}
}

// CreateProject makes the creator lead when none is given and always adds the creator as a member.
func (s *projectService) CreateProject(ctx context.Context, actor *access.Principal, in ProjectInput) (*model.Project, error) {
	if !actor.Authenticated() {
		return nil, errors.ErrUnauthorized
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, &errors.ValidationError{Field: "title", Reason: "required"}
	}

	project := &model.Project{
		Title:        title,
		Description:  in.Description,
		IsOpenSource: in.IsOpenSource,
		GithubURL:    in.GithubURL,
		LeadID:       in.LeadID,
	}
	if project.LeadID == nil {
		id := actor.UserID
		project.LeadID = &id
	}
	seen := map[uint]bool{}
	for _, id := range append([]uint{actor.UserID}, in.MemberIDs...) {
		if id != 0 && !seen[id] {
			seen[id] = true
			project.Members = append(project.Members, model.User{ID: id})
		}
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}
	return s.GetProject(ctx, project.ID)
}

func (s *projectService) UpdateProject(ctx context.Context, id uint, in ProjectUpdateInput) (*model.Project, error) {
	project, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, &errors.ValidationError{Field: "title", Reason: "required"}
		}
		project.Title = title
	}
	if in.Description != nil {
		project.Description = *in.Description
	}
	if in.IsOpenSource != nil {
		project.IsOpenSource = *in.IsOpenSource
	}
	if in.GithubURL != nil {
		project.GithubURL = *in.GithubURL
	}
	if in.LeadID != nil {
		project.LeadID = in.LeadID
	}
	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}
	return s.GetProject(ctx, id)
}

func (s *projectService) DeleteProject(ctx context.Context, id uint) error {
	return wrapNotFound(s.repo.Delete(ctx, id), errors.ErrProjectNotFound)
}

func (s *projectService) GetProject(ctx context.Context, id uint) (*model.Project, error) {
	project, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapNotFound(err, errors.ErrProjectNotFound)
	}
	return project, nil
}

func (s *projectService) ListProjects(ctx context.Context, actor *access.Principal) ([]model.Project, error) {
	if actor.Authenticated() && !actor.Superuser() {
		return s.repo.ListForUser(ctx, actor.UserID)
	}
	return s.repo.List(ctx)
}

func (s *projectService) RequestStatus(ctx context.Context, actor *access.Principal, projectID uint) error {
	project, err := s.collaboratorProject(ctx, actor, projectID)
	if err != nil {
		return err
	}
	id := actor.UserID
	project.StatusUpdateRequested = true
	project.StatusRequestedByID = &id
	return s.repo.Update(ctx, project)
}

func (s *projectService) SubmitStatus(ctx context.Context, actor *access.Principal, projectID uint, text string) error {
	if strings.TrimSpace(text) == "" {
		return &errors.ValidationError{Field: "update_text", Reason: "no text provided"}
	}
	project, err := s.collaboratorProject(ctx, actor, projectID)
	if err != nil {
		return err
	}
	project.LastStatusUpdate = text
	project.StatusUpdateRequested = false
	return s.repo.Update(ctx, project)
}

func (s *projectService) RequestJoin(ctx context.Context, actor *access.Principal, projectID uint, message string) (*model.ProjectRequest, error) {
	if !actor.Authenticated() {
		return nil, errors.ErrUnauthorized
	}
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.HasMember(actor.UserID) || project.IsLead(actor.UserID) {
		return nil, errors.ErrAlreadyMember
	}

	_, err = s.repo.FindRequestByPair(ctx, projectID, actor.UserID)
	if err == nil {
		return nil, errors.ErrDuplicateRequest
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing request: %w", err)
	}

	req := &model.ProjectRequest{
		ProjectID: projectID,
		UserID:    actor.UserID,
		Status:    model.JoinRequestPending,
		Message:   message,
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrDuplicateRequest
		}
		return nil, err
	}
	return req, nil
}

func (s *projectService) ListJoinRequests(ctx context.Context, actor *access.Principal, projectID uint) ([]model.ProjectRequest, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !s.canResolveRequests(ctx, actor, project) {
		return nil, errors.ErrForbidden
	}
	return s.repo.ListRequests(ctx, projectID)
}

// ApproveRequest marks the request approved and adds the user to the members.
// Re-approving is harmless since membership is a set.
func (s *projectService) ApproveRequest(ctx context.Context, actor *access.Principal, requestID uint) (*model.ProjectRequest, error) {
	req, err := s.resolvableRequest(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	err = s.repo.WithTransaction(ctx, func(ctx context.Context, repo repository.ProjectRepository) error {
		if err := repo.UpdateRequestStatus(ctx, req.ID, model.JoinRequestApproved); err != nil {
			return err
		}
		return repo.AddMember(ctx, req.ProjectID, req.UserID)
	})
	if err != nil {
		return nil, err
	}
	req.Status = model.JoinRequestApproved
	return req, nil
}

func (s *projectService) RejectRequest(ctx context.Context, actor *access.Principal, requestID uint) (*model.ProjectRequest, error) {
	req, err := s.resolvableRequest(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRequestStatus(ctx, req.ID, model.JoinRequestRejected); err != nil {
		return nil, err
	}
	req.Status = model.JoinRequestRejected
	return req, nil
}

func (s *projectService) CreateThread(ctx context.Context, actor *access.Principal, projectID uint, title string, ephemeral bool) (*model.ProjectThread, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &errors.ValidationError{Field: "title", Reason: "required"}
	}
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(project, actor) {
		return nil, errors.ErrNotProjectMember
	}
	thread := &model.ProjectThread{
		ProjectID:   projectID,
		Title:       title,
		IsEphemeral: ephemeral,
		CreatedByID: actor.ID(),
		CreatedAt:   s.now(),
	}
	if err := s.repo.CreateThread(ctx, thread); err != nil {
		return nil, err
	}
	return thread, nil
}

func (s *projectService) ListThreads(ctx context.Context, actor *access.Principal, projectID uint) ([]model.ProjectThread, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !actor.Superuser() && !isParticipant(project, actor) {
		return nil, errors.ErrNotProjectMember
	}
	return s.repo.ListThreads(ctx, projectID)
}

func (s *projectService) ToggleEphemeral(ctx context.Context, actor *access.Principal, threadID uint) (*model.ProjectThread, error) {
	thread, project, err := s.threadWithProject(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !actor.Superuser() && !isParticipant(project, actor) {
		return nil, errors.ErrNotProjectMember
	}
	thread.IsEphemeral = !thread.IsEphemeral
	if err := s.repo.SetThreadEphemeral(ctx, thread.ID, thread.IsEphemeral); err != nil {
		return nil, err
	}
	return thread, nil
}

// PurgeMessages is limited to the project lead and superusers.
func (s *projectService) PurgeMessages(ctx context.Context, actor *access.Principal, threadID uint) (int64, error) {
	thread, project, err := s.threadWithProject(ctx, threadID)
	if err != nil {
		return 0, err
	}
	if !actor.Superuser() && !(actor.Authenticated() && project.IsLead(actor.UserID)) {
		return 0, fmt.Errorf("only the project lead can wipe history: %w", errors.ErrForbidden)
	}
	return s.repo.PurgeMessages(ctx, thread.ID)
}

// PostMessage stores a message from the lead or a member. On ephemeral
// threads it then prunes messages past the retention window.
func (s *projectService) PostMessage(ctx context.Context, actor *access.Principal, threadID uint, content string) (*model.ThreadMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &errors.ValidationError{Field: "content", Reason: "required"}
	}
	thread, project, err := s.threadWithProject(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !isParticipant(project, actor) {
		return nil, errors.ErrNotProjectMember
	}

	now := s.now()
	msg := &model.ThreadMessage{
		ThreadID:  thread.ID,
		AuthorID:  actor.UserID,
		Content:   content,
		CreatedAt: now,
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	if thread.IsEphemeral {
		pruned, err := s.repo.DeleteMessagesBefore(ctx, thread.ID, now.Add(-model.EphemeralRetention))
		if err != nil {
			s.logger.WarnContext(ctx, "ephemeral prune failed", slog.Uint64("thread_id", uint64(thread.ID)), slog.Any("error", err))
		} else if pruned > 0 {
			s.logger.DebugContext(ctx, "ephemeral prune", slog.Uint64("thread_id", uint64(thread.ID)), slog.Int64("deleted", pruned))
		}
	}
	return msg, nil
}

// ListMessages hides expired messages on ephemeral threads even before the next write prunes them.
func (s *projectService) ListMessages(ctx context.Context, actor *access.Principal, threadID uint) ([]model.ThreadMessage, error) {
	thread, project, err := s.threadWithProject(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !actor.Superuser() && !isParticipant(project, actor) {
		return nil, errors.ErrNotProjectMember
	}
	var since *time.Time
	if thread.IsEphemeral {
		cutoff := s.now().Add(-model.EphemeralRetention)
		since = &cutoff
	}
	return s.repo.ListMessages(ctx, thread.ID, since)
}

func (s *projectService) SyncState(ctx context.Context, actor *access.Principal, projectID uint) (*SyncState, error) {
	project, err := s.collaboratorProject(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}

	state := &SyncState{
		MembersStatus: map[uint]*time.Time{},
		ThreadsState:  map[uint]uint{},
	}
	for _, m := range project.Participants() {
		state.MembersStatus[m.ID] = m.LastLogin
	}

	threadIDs := make([]uint, 0, len(project.Threads))
	for _, t := range project.Threads {
		threadIDs = append(threadIDs, t.ID)
		state.ThreadsState[t.ID] = 0
	}
	last, err := s.repo.LastMessageIDs(ctx, threadIDs)
	if err != nil {
		return nil, fmt.Errorf("load thread state: %w", err)
	}
	for id, msgID := range last {
		state.ThreadsState[id] = msgID
	}
	return state, nil
}

// collaboratorProject loads the project and admits participants, superusers and project managers.
func (s *projectService) collaboratorProject(ctx context.Context, actor *access.Principal, projectID uint) (*model.Project, error) {
	if !actor.Authenticated() {
		return nil, errors.ErrUnauthorized
	}
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if actor.Superuser() || isParticipant(project, actor) || s.caps.HasCapability(ctx, actor, access.ManageProjects) {
		return project, nil
	}
	return nil, errors.ErrNotProjectMember
}

func (s *projectService) resolvableRequest(ctx context.Context, actor *access.Principal, requestID uint) (*model.ProjectRequest, error) {
	if !actor.Authenticated() {
		return nil, errors.ErrUnauthorized
	}
	req, err := s.repo.FindRequest(ctx, requestID)
	if err != nil {
		return nil, wrapNotFound(err, errors.ErrRequestNotFound)
	}
	project, err := s.GetProject(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if !s.canResolveRequests(ctx, actor, project) {
		return nil, errors.ErrForbidden
	}
	return req, nil
}

// canResolveRequests admits the lead, superusers, project managers and web leads.
func (s *projectService) canResolveRequests(ctx context.Context, actor *access.Principal, project *model.Project) bool {
	if !actor.Authenticated() {
		return false
	}
	return actor.Superuser() ||
		project.IsLead(actor.UserID) ||
		s.caps.HasCapability(ctx, actor, access.ManageProjects) ||
		s.caps.IsWebLead(ctx, actor)
}

func (s *projectService) threadWithProject(ctx context.Context, threadID uint) (*model.ProjectThread, *model.Project, error) {
	thread, err := s.repo.FindThread(ctx, threadID)
	if err != nil {
		return nil, nil, wrapNotFound(err, errors.ErrThreadNotFound)
	}
	project, err := s.GetProject(ctx, thread.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return thread, project, nil
}

// isParticipant reports whether actor leads or belongs to project.
func isParticipant(project *model.Project, actor *access.Principal) bool {
	if !actor.Authenticated() {
		return false
	}
	return project.IsLead(actor.UserID) || project.HasMember(actor.UserID)
}
