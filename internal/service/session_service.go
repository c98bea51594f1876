package service

import (
	"context"
	"fmt"
	"time"

	"calibops-data/internal/domain"
	"calibops-data/internal/repository"

	"go.uber.org/zap"
)

// SessionService 遥测会话查询与删除
type SessionService interface {
	List(ctx context.Context, req ListSessionsRequest) (*ListSessionsResponse, error)
	// Get 返回会话及子记录统计
	Get(ctx context.Context, id string) (*SessionView, error)
	// ListEntries 分页返回某会话的标定子记录（start_time 升序）
	ListEntries(ctx context.Context, sessionID string, page, limit int) (*ListEntriesResponse, error)
	// Delete 级联删除：子记录 → 派生错误日志 → 会话本身
	Delete(ctx context.Context, id string) error
}

type sessionService struct {
	sessions repository.SessionsRepository
	entries  repository.EntriesRepository
	errLogs  repository.ErrorLogsRepository
	logger   *zap.Logger
}

func NewSessionService(
	sessions repository.SessionsRepository,
	entries repository.EntriesRepository,
	errLogs repository.ErrorLogsRepository,
	logger *zap.Logger,
) SessionService {
	return &sessionService{sessions: sessions, entries: entries, errLogs: errLogs, logger: logger}
}

// ListSessionsRequest 会话列表请求；版本区间是完整的 X.Y.Z 串
type ListSessionsRequest struct {
	OperatorName         string
	SoftwareVersionStand string
	HardwareVersionStand string
	SerialNumberObJlink  string
	StandID              string
	DeviceType           string
	FirmwareVersionMin   string
	FirmwareVersionMax   string
	StartDate            string // YYYY-MM-DD
	EndDate              string // YYYY-MM-DD
	Sort                 string
	Page                 int
	Limit                int
}

// SessionView 会话 + 子记录统计
type SessionView struct {
	Session      *domain.Session `json:"session"`
	EntriesCount int             `json:"entriesCount"`
	HasErrors    bool            `json:"hasErrors"`
}

// ListSessionsResponse 会话列表响应
type ListSessionsResponse struct {
	Sessions    []*SessionView
	Total       int
	TotalPages  int
	CurrentPage int
}

func (s *sessionService) List(ctx context.Context, req ListSessionsRequest) (*ListSessionsResponse, error) {
	filters := repository.SessionFilters{
		OperatorName:         req.OperatorName,
		SoftwareVersionStand: req.SoftwareVersionStand,
		HardwareVersionStand: req.HardwareVersionStand,
		SerialNumberObJlink:  req.SerialNumberObJlink,
		StandID:              req.StandID,
		DeviceType:           req.DeviceType,
	}
	// 版本区间解析失败时静默忽略该条件（与过滤的宽松语义一致）
	if req.FirmwareVersionMin != "" {
		if v, err := domain.ParseVersion(req.FirmwareVersionMin); err == nil {
			filters.FirmwareVersionMin = v.Array()
		}
	}
	if req.FirmwareVersionMax != "" {
		if v, err := domain.ParseVersion(req.FirmwareVersionMax); err == nil {
			filters.FirmwareVersionMax = v.Array()
		}
	}
	if req.StartDate != "" {
		if t, err := time.Parse("2006-01-02", req.StartDate); err == nil {
			filters.StartTimeFrom = &t
		}
	}
	if req.EndDate != "" {
		if t, err := time.Parse("2006-01-02", req.EndDate); err == nil {
			end := endOfDay(t)
			filters.StartTimeTo = &end
		}
	}

	page, limit := normalizePage(req.Page, req.Limit, 10)
	items, total, err := s.sessions.List(ctx, filters, req.Sort, page, limit)
	if err != nil {
		s.logger.Error("list sessions failed", zap.Error(err))
		return nil, fmt.Errorf("failed to list sessions")
	}

	views := make([]*SessionView, 0, len(items))
	for _, session := range items {
		count, errCount, err := s.entries.CountBySession(ctx, session.ID)
		if err != nil {
			s.logger.Warn("entry counts unavailable", zap.String("session_id", session.ID), zap.Error(err))
		}
		views = append(views, &SessionView{
			Session:      session,
			EntriesCount: count,
			HasErrors:    errCount > 0,
		})
	}
	return &ListSessionsResponse{
		Sessions:    views,
		Total:       total,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	}, nil
}

func (s *sessionService) Get(ctx context.Context, id string) (*SessionView, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, err
		}
		s.logger.Error("get session failed", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get session")
	}
	count, errCount, err := s.entries.CountBySession(ctx, id)
	if err != nil {
		s.logger.Warn("entry counts unavailable", zap.String("session_id", id), zap.Error(err))
	}
	return &SessionView{Session: session, EntriesCount: count, HasErrors: errCount > 0}, nil
}

// ListEntriesResponse 子记录分页响应
type ListEntriesResponse struct {
	Entries     []*domain.CalibrationEntry
	Total       int
	TotalPages  int
	CurrentPage int
}

func (s *sessionService) ListEntries(ctx context.Context, sessionID string, page, limit int) (*ListEntriesResponse, error) {
	// 先确认会话存在，404 与空列表要区分开
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		if err == repository.ErrNotFound {
			return nil, err
		}
		s.logger.Error("get session failed", zap.String("id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("failed to get session")
	}

	page, limit = normalizePage(page, limit, 20)
	items, total, err := s.entries.ListBySession(ctx, sessionID, page, limit)
	if err != nil {
		s.logger.Error("list calibration entries failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("failed to list calibration entries")
	}
	return &ListEntriesResponse{
		Entries:     items,
		Total:       total,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	}, nil
}

func (s *sessionService) Delete(ctx context.Context, id string) error {
	if _, err := s.sessions.GetByID(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return err
		}
		s.logger.Error("get session failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to get session")
	}

	// 无跨表事务，按依赖顺序逐表删除
	if err := s.entries.DeleteBySession(ctx, id); err != nil {
		s.logger.Error("delete calibration entries failed", zap.String("session_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete session")
	}
	if err := s.errLogs.DeleteByParent(ctx, id); err != nil {
		s.logger.Error("delete error logs failed", zap.String("session_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete session")
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		s.logger.Error("delete session failed", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete session")
	}
	return nil
}
