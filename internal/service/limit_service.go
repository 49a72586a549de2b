package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ehs-data/internal/domain"
	"ehs-data/internal/repository"
	"ehs-data/internal/store"

	"go.uber.org/zap"
)

// LimitService 暴露限值服务接口
type LimitService interface {
	// ResolveLimit 按 (org, profile, analyte) 精确解析限值；
	// 未配置返回 repository.ErrLimitNotFound（上层按"未判定"处理，不是故障）
	ResolveLimit(ctx context.Context, orgID, profileKey, analyte string) (*domain.ExposureLimit, error)

	// UpsertLimit 写入限值并失效缓存，返回 limit_id
	UpsertLimit(ctx context.Context, orgID string, limit *domain.ExposureLimit) (string, error)

	// ListLimits 列出机构全部限值
	ListLimits(ctx context.Context, orgID string) ([]*domain.ExposureLimit, error)
}

// limitService 实现
type limitService struct {
	repo     repository.ExposureLimitsRepository
	kv       store.KV // 可为 nil（禁用缓存）
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewLimitService 创建 LimitService 实例
// kv 为 nil 或 cacheTTL <= 0 时直连数据库，不走缓存
func NewLimitService(repo repository.ExposureLimitsRepository, kv store.KV, cacheTTL time.Duration, logger *zap.Logger) LimitService {
	return &limitService{
		repo:     repo,
		kv:       kv,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

func limitCacheKey(orgID, profileKey, analyte string) string {
	return fmt.Sprintf("ehs:limit:%s:%s:%s", orgID, profileKey, analyte)
}

// ResolveLimit 读取限值（read-through 缓存）
func (s *limitService) ResolveLimit(ctx context.Context, orgID, profileKey, analyte string) (*domain.ExposureLimit, error) {
	if s.kv == nil || s.cacheTTL <= 0 {
		return s.repo.ResolveLimit(ctx, orgID, profileKey, analyte)
	}

	key := limitCacheKey(orgID, profileKey, analyte)
	if val, err := s.kv.Get(ctx, key); err == nil {
		var limit domain.ExposureLimit
		if err := json.Unmarshal([]byte(val), &limit); err == nil {
			return &limit, nil
		}
		// 缓存内容损坏则当 miss 处理
		s.logger.Warn("Corrupt limit cache entry, falling through to DB",
			zap.String("key", key),
		)
	} else if err != store.ErrMiss {
		// Redis 故障不阻断解析，降级直连数据库
		s.logger.Warn("Limit cache read failed, falling through to DB",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	limit, err := s.repo.ResolveLimit(ctx, orgID, profileKey, analyte)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(limit); err == nil {
		if err := s.kv.Set(ctx, key, string(data), s.cacheTTL); err != nil {
			s.logger.Warn("Limit cache write failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}
	return limit, nil
}

// UpsertLimit 写入限值并失效对应缓存键
func (s *limitService) UpsertLimit(ctx context.Context, orgID string, limit *domain.ExposureLimit) (string, error) {
	id, err := s.repo.UpsertLimit(ctx, orgID, limit)
	if err != nil {
		return "", err
	}

	if s.kv != nil {
		key := limitCacheKey(orgID, limit.ProfileKey, limit.Analyte)
		if err := s.kv.Del(ctx, key); err != nil {
			s.logger.Warn("Limit cache invalidation failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("Exposure limit upserted",
		zap.String("org_id", orgID),
		zap.String("profile_key", limit.ProfileKey),
		zap.String("analyte", limit.Analyte),
	)
	return id, nil
}

// ListLimits 列出机构全部限值（不走缓存，管理页使用）
func (s *limitService) ListLimits(ctx context.Context, orgID string) ([]*domain.ExposureLimit, error) {
	return s.repo.ListLimits(ctx, orgID)
}
