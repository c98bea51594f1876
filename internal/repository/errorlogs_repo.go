package repository

import (
	"context"
	"time"

	"calibops-data/internal/domain"
)

// ErrorLogFilters 错误记录列表过滤条件（零值 = 不过滤）
type ErrorLogFilters struct {
	OperatorName         string
	SoftwareVersionStand string
	HardwareVersionStand string
	SerialNumberObJlink  string
	StandID              string
	DeviceType           string
	FirmwareVersionMin   []int64
	FirmwareVersionMax   []int64
	StartTimeFrom        *time.Time
	StartTimeTo          *time.Time
}

// ErrorLogsRepository 错误记录存取接口
type ErrorLogsRepository interface {
	BulkInsert(ctx context.Context, logs []*domain.ErrorLog) error
	List(ctx context.Context, filters ErrorLogFilters, sort string, page, size int) ([]*domain.ErrorLog, int, error)
	// HasUnviewed 是否存在未读错误
	HasUnviewed(ctx context.Context) (bool, error)
	// MarkAllViewed 批量置已读，返回受影响行数
	MarkAllViewed(ctx context.Context) (int64, error)
	DeleteByParent(ctx context.Context, sessionID string) error
}
