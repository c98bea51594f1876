package repository

import (
	"context"

	"calibops-data/internal/domain"
)

// StandsRepository 台架档案存取接口
type StandsRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Stand, error)
	// GetByStandID 按业务键 stand_id 查找
	GetByStandID(ctx context.Context, standID string) (*domain.Stand, error)
	// List 只按 status 过滤
	List(ctx context.Context, status string, sort string, page, size int) ([]*domain.Stand, int, error)
	// Insert 写入台架并返回生成的 ID；stand_id 冲突返回 ErrDuplicate
	Insert(ctx context.Context, s *domain.Stand) (string, error)
	// Update 整行覆盖（last-write-wins，无并发检测）
	Update(ctx context.Context, s *domain.Stand) error
	Delete(ctx context.Context, id string) error
}
