package repository

import (
	"context"
	"time"

	"calibops-data/internal/domain"
)

// SessionFilters 遥测会话列表过滤条件（零值 = 不过滤）
// FirmwareVersionMin/Max 直接下推为 integer[] 的逐元素比较
// （Postgres 数组比较与 Mongo 的数组排序语义一致）
type SessionFilters struct {
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

// SessionsRepository 遥测会话存取接口
type SessionsRepository interface {
	// Insert 写入会话并返回生成的 ID
	Insert(ctx context.Context, s *domain.Session) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	List(ctx context.Context, filters SessionFilters, sort string, page, size int) ([]*domain.Session, int, error)
	// Delete 只删会话行；子记录由服务层先行清理（存储层无跨表事务保证）
	Delete(ctx context.Context, id string) error
}
