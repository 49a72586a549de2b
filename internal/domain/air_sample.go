package domain

import "time"

// 空气采样类型（air_samples.sample_type）
const (
	SampleTypePersonal  = "personal"  // 个体采样（佩戴在工人身上）
	SampleTypeExcursion = "excursion" // 短时超标采样
	SampleTypeArea      = "area"      // 区域采样（不计入个人暴露）
)

// AirSample 空气采样记录（对应 air_samples 表）
// 该表由采样录入模块负责写入，本引擎只读
type AirSample struct {
	SampleID string `db:"sample_id" json:"sample_id"` // UUID, PRIMARY KEY
	JobID    string `db:"job_id" json:"job_id"`       // UUID, NOT NULL（所属项目/工单）
	OrgID    string `db:"org_id" json:"org_id"`       // UUID, NOT NULL（经 job 归属机构）

	// 人员关联：person_id 为结构化外键（可空）；
	// monitor_worn_by 为采样员手填的自由文本，可能与人员姓名不一致
	PersonID      *string `db:"person_id" json:"person_id"`             // UUID, nullable
	MonitorWornBy *string `db:"monitor_worn_by" json:"monitor_worn_by"` // VARCHAR(200), nullable

	SampleType string `db:"sample_type" json:"sample_type"` // VARCHAR(50), NOT NULL
	Analyte    string `db:"analyte" json:"analyte"`         // VARCHAR(100), NOT NULL

	StartTime       *time.Time `db:"start_time" json:"start_time"`             // TIMESTAMPTZ, nullable（实验室数据可能不全）
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"` // INTEGER, NOT NULL DEFAULT 0
	Concentration   *float64   `db:"concentration" json:"concentration"`       // DOUBLE PRECISION, nullable（未出结果时为空）
	Units           string     `db:"units" json:"units"`                       // VARCHAR(50), NOT NULL
	Method          *string    `db:"method" json:"method"`                     // VARCHAR(100), nullable（如 "NIOSH 7400"）
}

// AirSampleStats 按人员或 monitor_worn_by 聚合的采样统计
// 用于向上游提示"同名未关联样本可回填 person_id"，本引擎不执行回填写入
type AirSampleStats struct {
	Key         string     `db:"key" json:"key"`                     // person_id 或小写后的 monitor 名
	SampleCount int        `db:"sample_count" json:"sample_count"`   // 样本数
	JobCount    int        `db:"job_count" json:"job_count"`         // 去重后的 job 数
	LastJobDate *time.Time `db:"last_job_date" json:"last_job_date"` // 最近一次采样开始时间
}
