package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubportal/internal/access"
	"clubportal/internal/errors"
	"clubportal/internal/model"
)

// memoryAuditRepo is an in-memory AuditLogRepository.
type memoryAuditRepo struct {
	logs      []model.AuditLog
	createErr error
}

func (r *memoryAuditRepo) Create(_ context.Context, entry *model.AuditLog) error {
	if r.createErr != nil {
		return r.createErr
	}
	entry.ID = uint(len(r.logs) + 1)
	r.logs = append(r.logs, *entry)
	return nil
}

func (r *memoryAuditRepo) ListRecent(_ context.Context, limit int) ([]model.AuditLog, error) {
	out := make([]model.AuditLog, 0, len(r.logs))
	for i := len(r.logs) - 1; i >= 0; i-- {
		out = append(out, r.logs[i])
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryAuditRepo) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	kept := r.logs[:0]
	var deleted int64
	for _, l := range r.logs {
		if l.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, l)
	}
	r.logs = kept
	return deleted, nil
}

func newTestAuditService(repo *memoryAuditRepo, now time.Time) *auditService {
	svc := NewAuditService(repo, nil).(*auditService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestAuditService_PurgeOlderThanDays(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := &memoryAuditRepo{logs: []model.AuditLog{
		{ID: 1, EventType: EventUserLogin, CreatedAt: now.AddDate(0, 0, -40)},
		{ID: 2, EventType: EventUserLogin, CreatedAt: now.AddDate(0, 0, -10)},
	}}
	svc := newTestAuditService(repo, now)

	admin := principal(1, "admin")
	deleted, err := svc.PurgeOlderThanDays(context.Background(), admin, 30, "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	require.Len(t, repo.logs, 2)
	assert.Equal(t, uint(2), repo.logs[0].ID)
	cleanup := repo.logs[1]
	assert.Equal(t, EventLogsCleaned, cleanup.EventType)
	assert.Equal(t, "Deleted 1 logs older than 30 days", cleanup.Target)
	require.NotNil(t, cleanup.ActorID)
	assert.Equal(t, uint(1), *cleanup.ActorID)
}

func TestAuditService_PurgeOlderThanDays_RejectsNonPositive(t *testing.T) {
	for _, days := range []int{0, -3} {
		svc := newTestAuditService(&memoryAuditRepo{}, time.Now())
		_, err := svc.PurgeOlderThanDays(context.Background(), nil, days, "")
		var invalid *errors.ValidationError
		assert.ErrorAs(t, err, &invalid)
	}
}

func TestAuditService_RecordSwallowsFailures(t *testing.T) {
	svc := newTestAuditService(&memoryAuditRepo{createErr: assert.AnError}, time.Now())
	assert.NotPanics(t, func() {
		svc.Record(context.Background(), AuditEntry{EventType: EventUserDeleted, Target: "User x"})
	})
}

func TestAuditService_ExportCSV(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	repo := &memoryAuditRepo{logs: []model.AuditLog{
		{ID: 1, EventType: EventLogsCleaned, Target: "Deleted 0 logs older than 1 days", CreatedAt: at},
		{ID: 2, EventType: EventUserLogin, Target: "User a logged in", IPAddress: "1.2.3.4", CreatedAt: at, Actor: &model.User{Username: "a"}},
	}}
	svc := newTestAuditService(repo, at)

	rows, err := svc.ExportCSV(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Event Type", "Actor", "Target", "IP Address", "Details", "Created At"}, rows[0])
	assert.Equal(t, []string{EventUserLogin, "a", "User a logged in", "1.2.3.4", "", "2024-01-02 03:04:05"}, rows[1])
	assert.Equal(t, "System", rows[2][1])
}

func TestAuditService_RecordAnonymousActor(t *testing.T) {
	repo := &memoryAuditRepo{}
	svc := newTestAuditService(repo, time.Now())

	var anon *access.Principal
	svc.Record(context.Background(), AuditEntry{Actor: anon, EventType: EventUserLogout, Target: "Anonymous logout"})

	require.Len(t, repo.logs, 1)
	assert.Nil(t, repo.logs[0].ActorID)
	assert.True(t, repo.logs[0].Success)
}
