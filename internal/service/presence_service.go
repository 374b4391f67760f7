package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"clubportal/internal/access"
	"clubportal/internal/errors"
	"clubportal/internal/repository"
)

// TypingTTL is how long a typing signal stays visible without a refresh.
const TypingTTL = 4 * time.Second

// PresenceStore is a key/value store with per-key expiry. A missing key reads as nil.
type PresenceStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Typer is a participant currently typing in a thread.
type Typer struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// PresenceService tracks who is typing in project threads.
// Status checks one key per participant, so it is meant for small teams.
type PresenceService interface {
	Signal(ctx context.Context, actor *access.Principal, threadID uint) error
	Status(ctx context.Context, actor *access.Principal, threadID uint) ([]Typer, error)
}

type presenceService struct {
	projects repository.ProjectRepository
	store    PresenceStore
}

// NewPresenceService creates a new presence service.
func NewPresenceService(projects repository.ProjectRepository, store PresenceStore) PresenceService {
	return &presenceService{projects: projects, store: store}
}

func typingKey(threadID, userID uint) string {
	return fmt.Sprintf("typing:%d:%d", threadID, userID)
}

func (s *presenceService) Signal(ctx context.Context, actor *access.Principal, threadID uint) error {
	if _, err := s.participantThread(ctx, actor, threadID); err != nil {
		return err
	}
	if err := s.store.Set(ctx, typingKey(threadID, actor.UserID), []byte(actor.Username), TypingTTL); err != nil {
		return fmt.Errorf("write typing signal: %w", err)
	}
	return nil
}

// Status lists participants other than the caller whose signal has not expired.
// A store failure is returned rather than read as "not typing".
func (s *presenceService) Status(ctx context.Context, actor *access.Principal, threadID uint) ([]Typer, error) {
	participants, err := s.participantThread(ctx, actor, threadID)
	if err != nil {
		return nil, err
	}

	typers := []Typer{}
	for id := range participants {
		if id == actor.UserID {
			continue
		}
		val, err := s.store.Get(ctx, typingKey(threadID, id))
		if err != nil {
			return nil, fmt.Errorf("read typing signal: %w", err)
		}
		if val != nil {
			typers = append(typers, Typer{ID: id, Username: string(val)})
		}
	}
	sort.Slice(typers, func(i, j int) bool { return typers[i].ID < typers[j].ID })
	return typers, nil
}

// participantThread returns the thread's participant ids after checking the caller is one of them.
func (s *presenceService) participantThread(ctx context.Context, actor *access.Principal, threadID uint) (map[uint]bool, error) {
	if !actor.Authenticated() {
		return nil, errors.ErrUnauthorized
	}
	thread, err := s.projects.FindThread(ctx, threadID)
	if err != nil {
		return nil, wrapNotFound(err, errors.ErrThreadNotFound)
	}
	project, err := s.projects.FindByID(ctx, thread.ProjectID)
	if err != nil {
		return nil, wrapNotFound(err, errors.ErrProjectNotFound)
	}
	if !isParticipant(project, actor) {
		return nil, errors.ErrNotProjectMember
	}
	ids := map[uint]bool{}
	for _, u := range project.Members {
		ids[u.ID] = true
	}
	if project.LeadID != nil {
		ids[*project.LeadID] = true
	}
	return ids, nil
}
