package domain

import "time"

// ExposureRecord 人员暴露记录（对应 exposure_records 表）
// 由引擎根据 AirSample 计算生成/刷新，用户不可直接创建。
// 关键不变式：
//   - air_sample_id 非空时，(org_id, air_sample_id) 至多一条记录（部分唯一索引保证），
//     重复摄入同一样本必须更新而非新增
//   - exceedance_flag 与 near_miss_flag 至多一个为 true，默认都为 false
type ExposureRecord struct {
	ExposureID string `db:"exposure_id" json:"exposure_id"` // UUID, PRIMARY KEY
	OrgID      string `db:"org_id" json:"org_id"`           // UUID, NOT NULL
	PersonID   string `db:"person_id" json:"person_id"`     // UUID, NOT NULL
	JobID      string `db:"job_id" json:"job_id"`           // UUID, NOT NULL

	AirSampleID *string `db:"air_sample_id" json:"air_sample_id"` // UUID, nullable, UNIQUE(org_id, air_sample_id) WHERE NOT NULL
	SampleRunID *string `db:"sample_run_id" json:"sample_run_id"` // VARCHAR(100), nullable（实验室批次号）

	Date            *time.Time `db:"date" json:"date"`                         // DATE, nullable（无法解析的日期按"无日期"存储）
	Analyte         string     `db:"analyte" json:"analyte"`                   // VARCHAR(100), NOT NULL
	DurationMinutes int        `db:"duration_minutes" json:"duration_minutes"` // INTEGER, NOT NULL DEFAULT 0
	Concentration   *float64   `db:"concentration" json:"concentration"`       // DOUBLE PRECISION, nullable
	Units           string     `db:"units" json:"units"`                       // VARCHAR(50), NOT NULL
	Method          *string    `db:"method" json:"method"`                     // VARCHAR(100), nullable
	SampleType      *string    `db:"sample_type" json:"sample_type"`           // VARCHAR(50), nullable

	// 计算结果（TWA 与限值判定）；无法计算时整组为空且标志为 false（"未判定"而非"合规"）
	TWA8hr         *float64 `db:"twa_8hr" json:"twa_8hr"`                   // DOUBLE PRECISION, nullable
	ProfileKey     *string  `db:"profile_key" json:"profile_key"`           // VARCHAR(100), nullable
	LimitType      *string  `db:"limit_type" json:"limit_type"`             // VARCHAR(20), nullable（PEL/REL/ActionLevel）
	LimitValue     *float64 `db:"limit_value" json:"limit_value"`           // DOUBLE PRECISION, nullable
	PercentOfLimit *float64 `db:"percent_of_limit" json:"percent_of_limit"` // DOUBLE PRECISION, nullable
	ExceedanceFlag bool     `db:"exceedance_flag" json:"exceedance_flag"`   // BOOLEAN, NOT NULL DEFAULT FALSE
	NearMissFlag   bool     `db:"near_miss_flag" json:"near_miss_flag"`     // BOOLEAN, NOT NULL DEFAULT FALSE

	ComputedVersion int     `db:"computed_version" json:"computed_version"` // INTEGER, NOT NULL DEFAULT 1
	SourceRefs      *string `db:"source_refs" json:"source_refs"`           // TEXT, nullable（来源引用，JSON 字符串）

	CreatedByUserID string    `db:"created_by_user_id" json:"created_by_user_id"` // UUID, NOT NULL
	UpdatedByUserID string    `db:"updated_by_user_id" json:"updated_by_user_id"` // UUID, NOT NULL
	CreatedAt       time.Time `db:"created_at" json:"created_at"`                 // TIMESTAMPTZ, NOT NULL
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`                 // TIMESTAMPTZ, NOT NULL
}

// ExposureRecomputeLog 重判定日志（对应 exposure_recompute_log 表，append-only）
// 当前记录被原地重算覆盖时留痕，按 (air_sample_id, computed_version) 定位历史判定
type ExposureRecomputeLog struct {
	LogID           string    `db:"log_id" json:"log_id"`                     // UUID, PRIMARY KEY
	OrgID           string    `db:"org_id" json:"org_id"`                     // UUID, NOT NULL
	AirSampleID     string    `db:"air_sample_id" json:"air_sample_id"`       // UUID, NOT NULL
	ComputedVersion int       `db:"computed_version" json:"computed_version"` // INTEGER, NOT NULL
	TWA8hr          *float64  `db:"twa_8hr" json:"twa_8hr"`                   // DOUBLE PRECISION, nullable
	PercentOfLimit  *float64  `db:"percent_of_limit" json:"percent_of_limit"` // DOUBLE PRECISION, nullable
	ExceedanceFlag  bool      `db:"exceedance_flag" json:"exceedance_flag"`   // BOOLEAN, NOT NULL
	NearMissFlag    bool      `db:"near_miss_flag" json:"near_miss_flag"`     // BOOLEAN, NOT NULL
	RecordedAt      time.Time `db:"recorded_at" json:"recorded_at"`           // TIMESTAMPTZ, NOT NULL
	RecordedBy      string    `db:"recorded_by" json:"recorded_by"`           // UUID, NOT NULL
}
