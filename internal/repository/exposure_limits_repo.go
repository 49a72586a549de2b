package repository

import (
	"context"
	"errors"

	"ehs-data/internal/domain"
)

// ErrLimitNotFound 指定 (org_id, profile_key, analyte) 未配置限值
// 注意：未配置限值不是错误路径的终点——上层据此产出"未判定"记录，而不是假定合规
var ErrLimitNotFound = errors.New("exposure limit not found")

// ExposureLimitsRepository 暴露限值Repository接口
// 使用强类型领域模型；(org_id, profile_key, analyte) 精确匹配，无默认 profile 回退
type ExposureLimitsRepository interface {
	// ResolveLimit 按三元组精确查找限值；未配置返回 ErrLimitNotFound
	ResolveLimit(ctx context.Context, orgID, profileKey, analyte string) (*domain.ExposureLimit, error)

	// UpsertLimit 原子化写入（INSERT ... ON CONFLICT DO UPDATE），last-write-wins，
	// 返回 limit_id。唯一性由数据库索引保证，不做应用层 select-then-branch
	UpsertLimit(ctx context.Context, orgID string, limit *domain.ExposureLimit) (string, error)

	// ListLimits 列出机构配置的全部限值
	ListLimits(ctx context.Context, orgID string) ([]*domain.ExposureLimit, error)
}
