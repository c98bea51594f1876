package repository

import (
	"context"
)

// LookupsRepository 下拉字典（操作员名 / 台架 ID）
// 纯粹的 upsert-if-absent 集合，注册失败不影响主流程
type LookupsRepository interface {
	EnsureOperatorName(ctx context.Context, name string) error
	EnsureStandID(ctx context.Context, standID string) error
	ListOperatorNames(ctx context.Context) ([]string, error)
	ListStandIDs(ctx context.Context) ([]string, error)
}
