package service

import (
	"context"
	"fmt"
	"time"

	"calibops-data/internal/domain"
	"calibops-data/internal/repository"

	"go.uber.org/zap"
)

// ErrorLogService 错误记录查询与已读管理
type ErrorLogService interface {
	List(ctx context.Context, req ListErrorLogsRequest) (*ListErrorLogsResponse, error)
	// HasUnviewed 仪表盘红点：是否存在未读错误
	HasUnviewed(ctx context.Context) (bool, error)
	// MarkAllViewed 全部置已读，返回受影响条数
	MarkAllViewed(ctx context.Context) (int64, error)
}

type errorLogService struct {
	repo   repository.ErrorLogsRepository
	logger *zap.Logger
}

func NewErrorLogService(repo repository.ErrorLogsRepository, logger *zap.Logger) ErrorLogService {
	return &errorLogService{repo: repo, logger: logger}
}

// ListErrorLogsRequest 错误记录列表请求
type ListErrorLogsRequest struct {
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

// ListErrorLogsResponse 错误记录列表响应
type ListErrorLogsResponse struct {
	ErrorLogs   []*domain.ErrorLog
	Total       int
	TotalPages  int
	CurrentPage int
}

func (s *errorLogService) List(ctx context.Context, req ListErrorLogsRequest) (*ListErrorLogsResponse, error) {
	filters := repository.ErrorLogFilters{
		OperatorName:         req.OperatorName,
		SoftwareVersionStand: req.SoftwareVersionStand,
		HardwareVersionStand: req.HardwareVersionStand,
		SerialNumberObJlink:  req.SerialNumberObJlink,
		StandID:              req.StandID,
		DeviceType:           req.DeviceType,
	}
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
	items, total, err := s.repo.List(ctx, filters, req.Sort, page, limit)
	if err != nil {
		s.logger.Error("list error logs failed", zap.Error(err))
		return nil, fmt.Errorf("failed to list error logs")
	}
	return &ListErrorLogsResponse{
		ErrorLogs:   items,
		Total:       total,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	}, nil
}

func (s *errorLogService) HasUnviewed(ctx context.Context) (bool, error) {
	ok, err := s.repo.HasUnviewed(ctx)
	if err != nil {
		s.logger.Error("unviewed check failed", zap.Error(err))
		return false, fmt.Errorf("failed to check unviewed errors")
	}
	return ok, nil
}

func (s *errorLogService) MarkAllViewed(ctx context.Context) (int64, error) {
	n, err := s.repo.MarkAllViewed(ctx)
	if err != nil {
		s.logger.Error("mark viewed failed", zap.Error(err))
		return 0, fmt.Errorf("failed to mark errors viewed")
	}
	s.logger.Info("error logs marked viewed", zap.Int64("count", n))
	return n, nil
}
