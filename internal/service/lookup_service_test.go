package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeLookupsRepo struct {
	operators []string
	standIDs  []string
}

func (f *fakeLookupsRepo) EnsureOperatorName(ctx context.Context, name string) error {
	for _, n := range f.operators {
		if n == name {
			return nil
		}
	}
	f.operators = append(f.operators, name)
	return nil
}

func (f *fakeLookupsRepo) EnsureStandID(ctx context.Context, standID string) error {
	for _, s := range f.standIDs {
		if s == standID {
			return nil
		}
	}
	f.standIDs = append(f.standIDs, standID)
	return nil
}

func (f *fakeLookupsRepo) ListOperatorNames(ctx context.Context) ([]string, error) {
	return f.operators, nil
}

func (f *fakeLookupsRepo) ListStandIDs(ctx context.Context) ([]string, error) {
	return f.standIDs, nil
}

type fakeKV struct {
	sets map[string][]string
	err  error
}

func newFakeKV() *fakeKV { return &fakeKV{sets: map[string][]string{}} }

func (f *fakeKV) Get(ctx context.Context, key string) (string, error) { return "", f.err }

func (f *fakeKV) Set(ctx context.Context, key, value string, ttl time.Duration) error { return f.err }

func (f *fakeKV) SAdd(ctx context.Context, key string, members ...string) error {
	if f.err != nil {
		return f.err
	}
	for _, m := range members {
		found := false
		for _, existing := range f.sets[key] {
			if existing == m {
				found = true
				break
			}
		}
		if !found {
			f.sets[key] = append(f.sets[key], m)
		}
	}
	return nil
}

func (f *fakeKV) SMembers(ctx context.Context, key string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sets[key], nil
}

func TestLookupRegisterAndList(t *testing.T) {
	repo := &fakeLookupsRepo{}
	kv := newFakeKV()
	svc := NewLookupService(repo, kv, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.RegisterOperatorName(ctx, "b.sidorov"))
	require.NoError(t, svc.RegisterOperatorName(ctx, "a.petrov"))
	require.NoError(t, svc.RegisterOperatorName(ctx, "a.petrov")) // 幂等
	require.NoError(t, svc.RegisterStandID(ctx, "STAND-1"))
	require.NoError(t, svc.RegisterOperatorName(ctx, "")) // 空值忽略

	names, err := svc.ListOperatorNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.petrov", "b.sidorov"}, names)

	ids, err := svc.ListStandIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"STAND-1"}, ids)
	assert.Len(t, repo.operators, 2)
}

func TestLookupCacheFailureFallsBackToDB(t *testing.T) {
	repo := &fakeLookupsRepo{}
	kv := newFakeKV()
	kv.err = errors.New("redis down")
	svc := NewLookupService(repo, kv, zap.NewNop())
	ctx := context.Background()

	// 缓存写失败不影响注册
	require.NoError(t, svc.RegisterOperatorName(ctx, "a.petrov"))

	names, err := svc.ListOperatorNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.petrov"}, names)
}

func TestLookupNilKV(t *testing.T) {
	repo := &fakeLookupsRepo{}
	svc := NewLookupService(repo, nil, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.RegisterStandID(ctx, "STAND-9"))
	ids, err := svc.ListStandIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"STAND-9"}, ids)
}
