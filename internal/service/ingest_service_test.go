package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"calibops-data/internal/domain"
	"calibops-data/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSessionsRepo struct {
	sessions  []*domain.Session
	nextID    int
	insertErr error
}

func (f *fakeSessionsRepo) Insert(ctx context.Context, s *domain.Session) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.nextID++
	s.ID = fmt.Sprintf("session-%d", f.nextID)
	f.sessions = append(f.sessions, s)
	return s.ID, nil
}

func (f *fakeSessionsRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	for _, s := range f.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeSessionsRepo) List(ctx context.Context, filters repository.SessionFilters, sort string, page, size int) ([]*domain.Session, int, error) {
	return f.sessions, len(f.sessions), nil
}

func (f *fakeSessionsRepo) Delete(ctx context.Context, id string) error {
	for i, s := range f.sessions {
		if s.ID == id {
			f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeEntriesRepo struct {
	entries   []*domain.CalibrationEntry
	insertErr error
}

func (f *fakeEntriesRepo) BulkInsert(ctx context.Context, entries []*domain.CalibrationEntry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeEntriesRepo) ListBySession(ctx context.Context, sessionID string, page, size int) ([]*domain.CalibrationEntry, int, error) {
	out := []*domain.CalibrationEntry{}
	for _, e := range f.entries {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

func (f *fakeEntriesRepo) CountBySession(ctx context.Context, sessionID string) (int, int, error) {
	total, errCount := 0, 0
	for _, e := range f.entries {
		if e.SessionID == sessionID {
			total++
			if e.ErrorDetected {
				errCount++
			}
		}
	}
	return total, errCount, nil
}

func (f *fakeEntriesRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	kept := f.entries[:0]
	for _, e := range f.entries {
		if e.SessionID != sessionID {
			kept = append(kept, e)
		}
	}
	f.entries = kept
	return nil
}

type fakeErrorLogsRepo struct {
	logs      []*domain.ErrorLog
	insertErr error
}

func (f *fakeErrorLogsRepo) BulkInsert(ctx context.Context, logs []*domain.ErrorLog) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.logs = append(f.logs, logs...)
	return nil
}

func (f *fakeErrorLogsRepo) List(ctx context.Context, filters repository.ErrorLogFilters, sort string, page, size int) ([]*domain.ErrorLog, int, error) {
	return f.logs, len(f.logs), nil
}

func (f *fakeErrorLogsRepo) HasUnviewed(ctx context.Context) (bool, error) {
	for _, l := range f.logs {
		if !l.Viewed {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeErrorLogsRepo) MarkAllViewed(ctx context.Context) (int64, error) {
	var n int64
	for _, l := range f.logs {
		if !l.Viewed {
			l.Viewed = true
			n++
		}
	}
	return n, nil
}

func (f *fakeErrorLogsRepo) DeleteByParent(ctx context.Context, sessionID string) error {
	kept := f.logs[:0]
	for _, l := range f.logs {
		if l.ParentLogID != sessionID {
			kept = append(kept, l)
		}
	}
	f.logs = kept
	return nil
}

type fakeLookupService struct {
	operators []string
	standIDs  []string
	err       error
}

func (f *fakeLookupService) RegisterOperatorName(ctx context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	f.operators = append(f.operators, name)
	return nil
}

func (f *fakeLookupService) RegisterStandID(ctx context.Context, standID string) error {
	if f.err != nil {
		return f.err
	}
	f.standIDs = append(f.standIDs, standID)
	return nil
}

func (f *fakeLookupService) ListOperatorNames(ctx context.Context) ([]string, error) {
	return f.operators, nil
}

func (f *fakeLookupService) ListStandIDs(ctx context.Context) ([]string, error) {
	return f.standIDs, nil
}

func ingestFixture() CreateLogRequest {
	active := 12.5
	return CreateLogRequest{
		OperatorSettings: OperatorSettingsInput{
			OperatorName:          "a.petrov",
			ComPorts:              []string{"COM3", "COM4"},
			ApplicationStartTime:  "25.12.2024 14:30:05",
			SoftwareVersionStand:  "2.1.0",
			HardwareVersionStand:  "1.0.0",
			SerialNumberObJlink:   "JL-001",
			StandID:               "STAND-7",
			DeviceType:            "express",
			DeviceFirmwareVersion: "1.4.2",
		},
		CalibrationEntries: []CalibrationEntryInput{
			{StartTime: "25.12.2024 14:31:00", SerialNumber: "SN-1", CalibrationSuccessful: true},
			{StartTime: "25.12.2024 14:35:00", SerialNumber: "SN-2", CalibrationSuccessful: true, ActiveModeCurrent: &active},
			{StartTime: "25.12.2024 14:40:00", SerialNumber: "SN-3", ErrorDetected: true, ErrorNumber: "E42", CalibrationSource: "auto"},
		},
	}
}

func newIngestFixtureService() (IngestService, *fakeSessionsRepo, *fakeEntriesRepo, *fakeErrorLogsRepo, *fakeLookupService, *fakeStandsRepo) {
	sessions := &fakeSessionsRepo{}
	entries := &fakeEntriesRepo{}
	errLogs := &fakeErrorLogsRepo{}
	lookups := &fakeLookupService{}
	standsRepo := &fakeStandsRepo{}
	stands := NewStandService(standsRepo, zap.NewNop())
	svc := NewIngestService(sessions, entries, errLogs, lookups, stands, zap.NewNop())
	return svc, sessions, entries, errLogs, lookups, standsRepo
}

func TestIngestFanOut(t *testing.T) {
	svc, sessions, entries, errLogs, lookups, standsRepo := newIngestFixtureService()

	result, err := svc.Ingest(context.Background(), ingestFixture())
	require.NoError(t, err)

	// 会话落库并带上解析后的固件版本
	require.Len(t, sessions.sessions, 1)
	session := sessions.sessions[0]
	assert.Equal(t, "a.petrov", session.OperatorName.String)
	assert.Equal(t, []int64{1, 4, 2}, session.DeviceFirmwareVersionParsed)
	require.True(t, session.ApplicationStartTime.Valid)
	assert.Equal(t,
		time.Date(2024, time.December, 25, 14, 30, 5, 0, time.UTC),
		session.ApplicationStartTime.Time)

	// 条目批量落库并冗余会话字段
	assert.Equal(t, 3, result.EntriesCount)
	assert.True(t, result.HasErrors)
	require.Len(t, entries.entries, 3)
	for _, e := range entries.entries {
		assert.Equal(t, session.ID, e.SessionID)
		assert.Equal(t, "STAND-7", e.StandID.String)
		assert.Equal(t, "a.petrov", e.OperatorName.String)
	}

	// error_detected 条目派生错误日志
	require.Len(t, errLogs.logs, 1)
	derived := errLogs.logs[0]
	assert.Equal(t, session.ID, derived.ParentLogID)
	assert.False(t, derived.Viewed)
	assert.Equal(t, "E42", derived.ErrorNumber.String)
	assert.Equal(t, "2.1.0", derived.SoftwareVersionStand.String)
	assert.Equal(t, "JL-001", derived.SerialNumberObJlink.String)

	// 字典注册
	assert.Equal(t, []string{"a.petrov"}, lookups.operators)
	assert.Equal(t, []string{"STAND-7"}, lookups.standIDs)

	// 台架懒创建
	require.Len(t, standsRepo.stands, 1)
	assert.Equal(t, "STAND-7", standsRepo.stands[0].StandID)
	assert.Equal(t, "2.1.0", standsRepo.stands[0].SoftwareVersionStand)
}

func TestIngestSessionFailureAborts(t *testing.T) {
	svc, sessions, entries, errLogs, _, _ := newIngestFixtureService()
	sessions.insertErr = errors.New("connection reset")

	_, err := svc.Ingest(context.Background(), ingestFixture())
	require.Error(t, err)
	assert.Empty(t, entries.entries)
	assert.Empty(t, errLogs.logs)
}

func TestIngestSecondaryFailuresSwallowed(t *testing.T) {
	svc, sessions, entries, _, lookups, _ := newIngestFixtureService()
	entries.insertErr = errors.New("disk full")
	lookups.err = errors.New("redis down")

	result, err := svc.Ingest(context.Background(), ingestFixture())
	require.NoError(t, err)

	// 会话本身成功
	require.Len(t, sessions.sessions, 1)
	// 条目失败后统计归零
	assert.Equal(t, 0, result.EntriesCount)
	assert.False(t, result.HasErrors)
}

func TestIngestUnparseableFirmwareVersion(t *testing.T) {
	svc, sessions, _, _, _, _ := newIngestFixtureService()

	req := ingestFixture()
	req.OperatorSettings.DeviceFirmwareVersion = "build-77"
	_, err := svc.Ingest(context.Background(), req)
	require.NoError(t, err)

	session := sessions.sessions[0]
	assert.Equal(t, "build-77", session.DeviceFirmwareVersion.String)
	assert.Nil(t, session.DeviceFirmwareVersionParsed)
}

func TestParseLooseTimestamp(t *testing.T) {
	got := parseLooseTimestamp("01.02.2024 03:04:05")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, time.February, 1, 3, 4, 5, 0, time.UTC), *got)

	// 越界值由 time.Date 归一化
	got = parseLooseTimestamp("31.02.2024 00:00:00")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC), *got)

	for _, input := range []string{"", "garbage", "2024-02-01 03:04:05", "01.02.2024", "01.02.2024 03:04", "aa.bb.cccc 01:02:03"} {
		assert.Nil(t, parseLooseTimestamp(input), "input %q", input)
	}
}
