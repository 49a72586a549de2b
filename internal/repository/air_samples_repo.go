package repository

import (
	"context"

	"ehs-data/internal/domain"
)

// AirSamplesRepository 空气采样Repository接口（对 air_samples 表只读）
//
// 身份归属规则：
//   - person_id 非空（去空白后）为权威关联，按人员查询/统计只认 person_id
//   - person_id 为空时才允许按 monitor_worn_by 自由文本做姓名回退匹配，
//     且只匹配 personal/excursion 两类个体采样（区域/本底采样不计入个人暴露）
//   - 两条路径互斥：已关联人员的样本绝不会再出现在 monitor 名聚合里（防止重复计数）
type AirSamplesRepository interface {
	// GetAirSample 按主键读取单条采样
	GetAirSample(ctx context.Context, orgID, sampleID string) (*domain.AirSample, error)

	// GetAirSamplesForPersonInOrg 按结构化 person_id 查询采样（直接关联路径）
	GetAirSamplesForPersonInOrg(ctx context.Context, orgID, personID string) ([]*domain.AirSample, error)

	// GetAirSamplesForMonitorNameInOrg 姓名回退路径：person_id 为空且
	// lower(trim(monitor_worn_by)) = lower(trim(name)) 且 sample_type 为 personal/excursion
	GetAirSamplesForMonitorNameInOrg(ctx context.Context, orgID, name string) ([]*domain.AirSample, error)

	// GetAirSampleStatsByPerson 按 person_id 聚合 {sample_count, job_count, last_job_date}
	GetAirSampleStatsByPerson(ctx context.Context, orgID string) ([]*domain.AirSampleStats, error)

	// GetAirSampleStatsByMonitorName 按 monitor 名聚合未关联样本；
	// 空白与字面 "n/a"（不区分大小写）按"无姓名"排除
	GetAirSampleStatsByMonitorName(ctx context.Context, orgID string) ([]*domain.AirSampleStats, error)
}
