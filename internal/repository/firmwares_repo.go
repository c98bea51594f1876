package repository

import (
	"context"
	"time"

	"calibops-data/internal/domain"
)

// FirmwareFilters 固件列表过滤条件（零值 = 不过滤）
type FirmwareFilters struct {
	Type          string     // exact
	SubType       string     // exact
	Version       string     // exact
	Name          string     // 子串匹配，大小写不敏感
	MinUploadDate *time.Time // 含下界
	MaxUploadDate *time.Time // 含上界（调用方已推到当日 23:59:59.999）
}

// FirmwareRepository 固件制品存取接口
type FirmwareRepository interface {
	// Insert 写入元数据并返回生成的 ID；唯一键冲突返回 ErrDuplicate
	Insert(ctx context.Context, fw *domain.Firmware) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Firmware, error)
	// GetByKey 按唯一键 (type, sub_type, version) 查找；不存在返回 ErrNotFound
	GetByKey(ctx context.Context, typ, subType, version string) (*domain.Firmware, error)
	List(ctx context.Context, filters FirmwareFilters, sort string, page, size int) ([]*domain.Firmware, int, error)
	// ListByTypeSubType 取 (type, sub_type) 下的全部固件（升级链计算用，应用层排序过滤）
	ListByTypeSubType(ctx context.Context, typ, subType string) ([]*domain.Firmware, error)
	Delete(ctx context.Context, id string) error
}
