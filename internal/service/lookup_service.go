package service

import (
	"context"
	"fmt"
	"sort"

	"calibops-data/internal/repository"
	"calibops-data/internal/store"

	"go.uber.org/zap"
)

// Redis 自动补全字典的键
const (
	kvKeyOperators = "lookup:operators"
	kvKeyStandIDs  = "lookup:stand-ids"
)

// LookupService 自动补全字典服务
// Postgres 为权威存储，Redis 集合做读缓存；缓存失效时回源并回填
type LookupService interface {
	RegisterOperatorName(ctx context.Context, name string) error
	RegisterStandID(ctx context.Context, standID string) error
	ListOperatorNames(ctx context.Context) ([]string, error)
	ListStandIDs(ctx context.Context) ([]string, error)
}

type lookupService struct {
	repo   repository.LookupsRepository
	kv     store.KV
	logger *zap.Logger
}

func NewLookupService(repo repository.LookupsRepository, kv store.KV, logger *zap.Logger) LookupService {
	return &lookupService{repo: repo, kv: kv, logger: logger}
}

func (s *lookupService) RegisterOperatorName(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	if err := s.repo.EnsureOperatorName(ctx, name); err != nil {
		return fmt.Errorf("register operator name: %w", err)
	}
	// 缓存写失败不影响注册结果
	if s.kv != nil {
		if err := s.kv.SAdd(ctx, kvKeyOperators, name); err != nil {
			s.logger.Warn("operator cache update failed", zap.Error(err))
		}
	}
	return nil
}

func (s *lookupService) RegisterStandID(ctx context.Context, standID string) error {
	if standID == "" {
		return nil
	}
	if err := s.repo.EnsureStandID(ctx, standID); err != nil {
		return fmt.Errorf("register stand id: %w", err)
	}
	if s.kv != nil {
		if err := s.kv.SAdd(ctx, kvKeyStandIDs, standID); err != nil {
			s.logger.Warn("stand id cache update failed", zap.Error(err))
		}
	}
	return nil
}

func (s *lookupService) ListOperatorNames(ctx context.Context) ([]string, error) {
	return s.list(ctx, kvKeyOperators, s.repo.ListOperatorNames)
}

func (s *lookupService) ListStandIDs(ctx context.Context) ([]string, error) {
	return s.list(ctx, kvKeyStandIDs, s.repo.ListStandIDs)
}

func (s *lookupService) list(ctx context.Context, cacheKey string, source func(context.Context) ([]string, error)) ([]string, error) {
	if s.kv != nil {
		if cached, err := s.kv.SMembers(ctx, cacheKey); err == nil && len(cached) > 0 {
			sort.Strings(cached)
			return cached, nil
		}
	}

	values, err := source(ctx)
	if err != nil {
		s.logger.Error("lookup dictionary read failed", zap.String("key", cacheKey), zap.Error(err))
		return nil, fmt.Errorf("failed to load dictionary")
	}

	// 回填缓存
	if s.kv != nil && len(values) > 0 {
		for _, v := range values {
			if err := s.kv.SAdd(ctx, cacheKey, v); err != nil {
				s.logger.Warn("dictionary cache backfill failed", zap.String("key", cacheKey), zap.Error(err))
				break
			}
		}
	}
	return values, nil
}
