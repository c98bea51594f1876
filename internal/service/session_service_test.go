package service

import (
	"context"
	"testing"

	"calibops-data/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedIngestedSession(t *testing.T) (*fakeSessionsRepo, *fakeEntriesRepo, *fakeErrorLogsRepo, string) {
	t.Helper()
	ingest, sessions, entries, errLogs, _, _ := newIngestFixtureService()
	result, err := ingest.Ingest(context.Background(), ingestFixture())
	require.NoError(t, err)
	return sessions, entries, errLogs, result.Session.ID
}

func TestSessionListEnrichment(t *testing.T) {
	sessions, entries, errLogs, id := seedIngestedSession(t)
	svc := NewSessionService(sessions, entries, errLogs, zap.NewNop())

	resp, err := svc.List(context.Background(), ListSessionsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Sessions, 1)
	view := resp.Sessions[0]
	assert.Equal(t, id, view.Session.ID)
	assert.Equal(t, 3, view.EntriesCount)
	assert.True(t, view.HasErrors)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, 1, resp.TotalPages)
}

func TestSessionGetAndEntries(t *testing.T) {
	sessions, entries, errLogs, id := seedIngestedSession(t)
	svc := NewSessionService(sessions, entries, errLogs, zap.NewNop())
	ctx := context.Background()

	view, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, view.EntriesCount)
	assert.True(t, view.HasErrors)

	listed, err := svc.ListEntries(ctx, id, 1, 20)
	require.NoError(t, err)
	assert.Len(t, listed.Entries, 3)
	assert.Equal(t, 3, listed.Total)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = svc.ListEntries(ctx, "missing", 1, 20)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionCascadeDelete(t *testing.T) {
	sessions, entries, errLogs, id := seedIngestedSession(t)
	svc := NewSessionService(sessions, entries, errLogs, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, id))

	assert.Empty(t, sessions.sessions)
	assert.Empty(t, entries.entries)
	assert.Empty(t, errLogs.logs)

	err := svc.Delete(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
