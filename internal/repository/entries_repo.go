package repository

import (
	"context"

	"calibops-data/internal/domain"
)

// EntriesRepository 标定测量记录存取接口
type EntriesRepository interface {
	// BulkInsert 批量写入一次会话的全部子记录
	BulkInsert(ctx context.Context, entries []*domain.CalibrationEntry) error
	// ListBySession 按 start_time 升序分页返回某会话的子记录
	ListBySession(ctx context.Context, sessionID string, page, size int) ([]*domain.CalibrationEntry, int, error)
	// CountBySession 返回 (子记录总数, 其中 error_detected 的条数)
	CountBySession(ctx context.Context, sessionID string) (int, int, error)
	DeleteBySession(ctx context.Context, sessionID string) error
}
