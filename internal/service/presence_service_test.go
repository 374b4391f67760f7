package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clubportal/internal/errors"
)

// clockStore is a PresenceStore that expires keys against a manual clock.
type clockStore struct {
	now     time.Time
	values  map[string][]byte
	expires map[string]time.Time
	getErr  error
}

func newClockStore(now time.Time) *clockStore {
	return &clockStore{now: now, values: map[string][]byte{}, expires: map[string]time.Time{}}
}

func (s *clockStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	exp, ok := s.expires[key]
	if !ok || !s.now.Before(exp) {
		return nil, nil
	}
	return s.values[key], nil
}

func (s *clockStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.values[key] = value
	s.expires[key] = s.now.Add(ttl)
	return nil
}

func TestPresenceService_TypingExpires(t *testing.T) {
	projects, repo, project := projectFixture(t)
	thread, err := projects.CreateThread(context.Background(), lead, project.ID, "chat", false)
	require.NoError(t, err)

	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newClockStore(start)
	svc := NewPresenceService(repo, store)

	require.NoError(t, svc.Signal(context.Background(), member, thread.ID))
	assert.Equal(t, []byte("member"), store.values["typing:"+uintStr(thread.ID)+":2"])

	store.now = start.Add(3 * time.Second)
	typers, err := svc.Status(context.Background(), lead, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, []Typer{{ID: 2, Username: "member"}}, typers)

	store.now = start.Add(5 * time.Second)
	typers, err = svc.Status(context.Background(), lead, thread.ID)
	require.NoError(t, err)
	assert.Empty(t, typers)
}

func TestPresenceService_ExcludesRequester(t *testing.T) {
	projects, repo, project := projectFixture(t)
	thread, err := projects.CreateThread(context.Background(), lead, project.ID, "chat", false)
	require.NoError(t, err)
	store := newClockStore(time.Now())
	svc := NewPresenceService(repo, store)

	require.NoError(t, svc.Signal(context.Background(), member, thread.ID))
	typers, err := svc.Status(context.Background(), member, thread.ID)
	require.NoError(t, err)
	assert.Empty(t, typers)
}

func TestPresenceService_Errors(t *testing.T) {
	projects, repo, project := projectFixture(t)
	thread, err := projects.CreateThread(context.Background(), lead, project.ID, "chat", false)
	require.NoError(t, err)
	store := newClockStore(time.Now())
	svc := NewPresenceService(repo, store)

	assert.ErrorIs(t, svc.Signal(context.Background(), outsider, thread.ID), errors.ErrNotProjectMember)
	assert.ErrorIs(t, svc.Signal(context.Background(), nil, thread.ID), errors.ErrUnauthorized)
	assert.ErrorIs(t, svc.Signal(context.Background(), member, 999), errors.ErrThreadNotFound)

	store.getErr = assert.AnError
	_, err = svc.Status(context.Background(), lead, thread.ID)
	assert.ErrorIs(t, err, assert.AnError)
}

func uintStr(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
