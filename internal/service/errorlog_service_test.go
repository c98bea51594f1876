package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestErrorLogListAndMarkViewed(t *testing.T) {
	_, _, errLogs, _ := seedIngestedSession(t)
	svc := NewErrorLogService(errLogs, zap.NewNop())
	ctx := context.Background()

	resp, err := svc.List(ctx, ListErrorLogsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.ErrorLogs, 1)
	assert.False(t, resp.ErrorLogs[0].Viewed)

	unviewed, err := svc.HasUnviewed(ctx)
	require.NoError(t, err)
	assert.True(t, unviewed)

	n, err := svc.MarkAllViewed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	unviewed, err = svc.HasUnviewed(ctx)
	require.NoError(t, err)
	assert.False(t, unviewed)

	// 再次标记是幂等的
	n, err = svc.MarkAllViewed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
