package service

import (
	"context"
	"fmt"
	"testing"

	"calibops-data/internal/domain"
	"calibops-data/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStandsRepo 内存版 StandsRepository
type fakeStandsRepo struct {
	stands []*domain.Stand
	nextID int
}

func (f *fakeStandsRepo) GetByID(ctx context.Context, id string) (*domain.Stand, error) {
	for _, s := range f.stands {
		if s.ID == id {
			copied := *s
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStandsRepo) GetByStandID(ctx context.Context, standID string) (*domain.Stand, error) {
	for _, s := range f.stands {
		if s.StandID == standID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStandsRepo) List(ctx context.Context, status string, sort string, page, size int) ([]*domain.Stand, int, error) {
	out := []*domain.Stand{}
	for _, s := range f.stands {
		if status == "" || s.Status == status {
			out = append(out, s)
		}
	}
	return out, len(out), nil
}

func (f *fakeStandsRepo) Insert(ctx context.Context, s *domain.Stand) (string, error) {
	for _, existing := range f.stands {
		if existing.StandID == s.StandID {
			return "", repository.ErrDuplicate
		}
	}
	f.nextID++
	s.ID = fmt.Sprintf("stand-%d", f.nextID)
	copied := *s
	f.stands = append(f.stands, &copied)
	return s.ID, nil
}

func (f *fakeStandsRepo) Update(ctx context.Context, s *domain.Stand) error {
	for i, existing := range f.stands {
		if existing.ID == s.ID {
			copied := *s
			f.stands[i] = &copied
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeStandsRepo) Delete(ctx context.Context, id string) error {
	for i, s := range f.stands {
		if s.ID == id {
			f.stands = append(f.stands[:i], f.stands[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func TestStandCreateAndUpdate(t *testing.T) {
	repo := &fakeStandsRepo{}
	svc := NewStandService(repo, zap.NewNop())
	ctx := context.Background()

	stand, err := svc.Create(ctx, CreateStandRequest{StandID: "STAND-001"})
	require.NoError(t, err)
	assert.Equal(t, domain.StandStatusActive, stand.Status)

	_, err = svc.Create(ctx, CreateStandRequest{StandID: "STAND-001"})
	require.Error(t, err)

	_, err = svc.Create(ctx, CreateStandRequest{})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	newStatus := domain.StandStatusNeedsService
	notes := "fan is rattling"
	updated, err := svc.Update(ctx, stand.ID, UpdateStandRequest{
		Status:          &newStatus,
		AdditionalNotes: &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StandStatusNeedsService, updated.Status)
	assert.Equal(t, notes, updated.AdditionalNotes)
	// 未提供的字段不被修改
	assert.Equal(t, "STAND-001", updated.StandID)

	bogus := "retired"
	_, err = svc.Update(ctx, stand.ID, UpdateStandRequest{Status: &bogus})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestStandRepairStatusCoupling(t *testing.T) {
	repo := &fakeStandsRepo{}
	svc := NewStandService(repo, zap.NewNop())
	ctx := context.Background()

	stand, err := svc.Create(ctx, CreateStandRequest{StandID: "STAND-002"})
	require.NoError(t, err)

	// 非 completed 的维修记录把台架置为 in-repair
	updated, err := svc.AddRepairRecord(ctx, stand.ID, RepairRecordRequest{
		RepairDescription: "replace relay board",
		RepairedBy:        "m.ivanov",
		RepairStatus:      domain.RepairStatusInProgress,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StandStatusInRepair, updated.Status)
	require.Len(t, updated.RepairHistory, 1)

	// completed 的维修记录让台架回到 active
	updated, err = svc.AddRepairRecord(ctx, stand.ID, RepairRecordRequest{
		RepairDescription: "relay board replaced",
		RepairedBy:        "m.ivanov",
		RepairStatus:      domain.RepairStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StandStatusActive, updated.Status)
	require.Len(t, updated.RepairHistory, 2)

	// 缺 repaired_by 拒绝
	_, err = svc.AddRepairRecord(ctx, stand.ID, RepairRecordRequest{RepairDescription: "x"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestStandUpsertFromTelemetry(t *testing.T) {
	repo := &fakeStandsRepo{}
	svc := NewStandService(repo, zap.NewNop())
	ctx := context.Background()

	// 未知 stand_id 懒创建
	created, err := svc.UpsertFromTelemetry(ctx, "STAND-003", "2.1.0", "1.0.0", "JL-777")
	require.NoError(t, err)
	assert.Equal(t, domain.StandStatusActive, created.Status)
	assert.Equal(t, "2.1.0", created.SoftwareVersionStand)

	// 已知 stand_id 覆盖版本字段，保留状态
	needs := domain.StandStatusNeedsService
	_, err = svc.Update(ctx, created.ID, UpdateStandRequest{Status: &needs})
	require.NoError(t, err)

	updated, err := svc.UpsertFromTelemetry(ctx, "STAND-003", "2.2.0", "1.0.0", "JL-777")
	require.NoError(t, err)
	assert.Equal(t, "2.2.0", updated.SoftwareVersionStand)
	assert.Equal(t, domain.StandStatusNeedsService, updated.Status)

	got, err := svc.GetByStandID(ctx, "STAND-003")
	require.NoError(t, err)
	assert.Equal(t, "2.2.0", got.SoftwareVersionStand)
}
