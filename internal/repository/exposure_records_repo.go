package repository

import (
	"context"
	"time"

	"ehs-data/internal/domain"
)

// ExposureRecordFilters 暴露记录查询过滤器
type ExposureRecordFilters struct {
	From    *time.Time // 含边界
	To      *time.Time // 含边界
	Analyte string     // 精确匹配原始 analyte 字符串（不做大小写/同义词归一）
}

// ExposureRecordsRepository 暴露记录Repository接口
//
// 幂等键：air_sample_id 非空时为 (org_id, air_sample_id)，
// 由部分唯一索引 uq_exposure_records_sample 保证至多一条
type ExposureRecordsRepository interface {
	// UpsertByAirSample 原子化写入（INSERT ... ON CONFLICT DO UPDATE）。
	// 更新路径保留 created_by_user_id/created_at，刷新其余全部计算字段并盖
	// updated_by_user_id/updated_at；air_sample_id 为空的记录直接插入。
	// 返回写入后的完整记录（含插入/更新前后的 computed_version）
	UpsertByAirSample(ctx context.Context, record *domain.ExposureRecord) (*domain.ExposureRecord, error)

	// GetByAirSample 按幂等键读取；不存在返回 (nil, nil)
	GetByAirSample(ctx context.Context, orgID, airSampleID string) (*domain.ExposureRecord, error)

	// ListForPerson 按机构+人员过滤，支持可选日期边界与 analyte，按日期倒序
	ListForPerson(ctx context.Context, orgID, personID string, filters ExposureRecordFilters) ([]*domain.ExposureRecord, error)

	// AppendRecomputeLog 追加一条重判定日志（append-only，见 exposure_recompute_log 表）
	AppendRecomputeLog(ctx context.Context, entry *domain.ExposureRecomputeLog) error

	// ListRecomputeLog 按样本列出历史判定（版本升序）
	ListRecomputeLog(ctx context.Context, orgID, airSampleID string) ([]*domain.ExposureRecomputeLog, error)
}
