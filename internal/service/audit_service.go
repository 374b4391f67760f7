package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"clubportal/internal/access"
	"clubportal/internal/errors"
	"clubportal/internal/model"
	"clubportal/internal/repository"
)

// Audit event types.
const (
	EventUserLogin         = "USER_LOGIN"
	EventUserLogout        = "USER_LOGOUT"
	EventUserCreated       = "USER_CREATED"
	EventUserModified      = "USER_MODIFIED"
	EventUserDeleted       = "USER_DELETED"
	EventProfileSelfUpdate = "PROFILE_SELF_UPDATE"
	EventRoleCreated       = "ROLE_CREATED"
	EventRoleModified      = "ROLE_MODIFIED"
	EventRoleDeleted       = "ROLE_DELETED"
	EventSigRenamed        = "SIG_RENAMED"
	EventFieldCreated      = "FIELD_CREATED"
	EventLogsCleaned       = "LOGS_CLEANED"
)

const auditTimeLayout = "2006-01-02 15:04:05"

// AuditEntry describes one security-relevant action.
type AuditEntry struct {
	Actor     *access.Principal
	EventType string
	Target    string
	IP        string
	Details   string
}

// AuditService records and maintains the audit trail.
type AuditService interface {
	// Record is best-effort: write failures are logged and never returned.
	Record(ctx context.Context, entry AuditEntry)
	List(ctx context.Context, limit int) ([]model.AuditLog, error)
	ExportCSV(ctx context.Context) ([][]string, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	// PurgeOlderThanDays deletes logs older than days and records the cleanup.
	PurgeOlderThanDays(ctx context.Context, actor *access.Principal, days int, ip string) (int64, error)
}

type auditService struct {
	repo   repository.AuditLogRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewAuditService creates a new audit service.
func NewAuditService(repo repository.AuditLogRepository, logger *slog.Logger) AuditService {
	if logger == nil {
		logger = slog.Default()
	}
	return &auditService{repo: repo, logger: logger, now: time.Now}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	log := &model.AuditLog{
		EventType: entry.EventType,
		ActorID:   entry.Actor.ID(),
		Target:    entry.Target,
		IPAddress: entry.IP,
		Details:   entry.Details,
		Success:   true,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, log); err != nil {
		s.logger.WarnContext(ctx, "audit write failed",
			slog.String("event_type", entry.EventType),
			slog.String("target", entry.Target),
			slog.Any("error", err),
		)
	}
}

func (s *auditService) List(ctx context.Context, limit int) ([]model.AuditLog, error) {
	return s.repo.ListRecent(ctx, limit)
}

// ExportCSV returns a header row followed by one row per log, newest first.
func (s *auditService) ExportCSV(ctx context.Context) ([][]string, error) {
	logs, err := s.repo.ListRecent(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	rows := make([][]string, 0, len(logs)+1)
	rows = append(rows, []string{"Event Type", "Actor", "Target", "IP Address", "Details", "Created At"})
	for _, l := range logs {
		actor := "System"
		if l.Actor != nil {
			actor = l.Actor.Username
		}
		rows = append(rows, []string{
			l.EventType,
			actor,
			l.Target,
			l.IPAddress,
			l.Details,
			l.CreatedAt.UTC().Format(auditTimeLayout),
		})
	}
	return rows, nil
}

func (s *auditService) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.repo.DeleteOlderThan(ctx, cutoff)
}

func (s *auditService) PurgeOlderThanDays(ctx context.Context, actor *access.Principal, days int, ip string) (int64, error) {
	if days <= 0 {
		return 0, &errors.ValidationError{Field: "days", Reason: "must be a positive integer"}
	}
	cutoff := s.now().Add(-time.Duration(days) * 24 * time.Hour)
	deleted, err := s.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge audit logs: %w", err)
	}
	s.Record(ctx, AuditEntry{
		Actor:     actor,
		EventType: EventLogsCleaned,
		Target:    fmt.Sprintf("Deleted %d logs older than %d days", deleted, days),
		IP:        ip,
	})
	return deleted, nil
}
