package domain

import "time"

// 限值类型（与 exposure_records.limit_type 对应）
const (
	LimitTypePEL         = "PEL"         // Permissible Exposure Limit（OSHA 强制限值）
	LimitTypeActionLevel = "ActionLevel" // Action Level（行动水平，通常为 PEL 的一半）
	LimitTypeREL         = "REL"         // Recommended Exposure Limit（NIOSH 建议限值）
)

// ExposureLimit 职业暴露限值（对应 exposure_limits 表）
// 按 (org_id, profile_key, analyte) 唯一，由数据库唯一索引保证
type ExposureLimit struct {
	LimitID    string `db:"limit_id" json:"limit_id"`       // UUID, PRIMARY KEY
	OrgID      string `db:"org_id" json:"org_id"`           // UUID, NOT NULL
	ProfileKey string `db:"profile_key" json:"profile_key"` // VARCHAR(100), NOT NULL（如 "osha_construction"）
	Analyte    string `db:"analyte" json:"analyte"`         // VARCHAR(100), NOT NULL（如 "asbestos", "lead"）
	Units      string `db:"units" json:"units"`             // VARCHAR(50), NOT NULL（如 "f/cc", "ug/m3"）

	// 三类限值均可为空；一个 profile 通常只配置其中一个
	ActionLevel *float64 `db:"action_level" json:"action_level"` // DOUBLE PRECISION, nullable
	PEL         *float64 `db:"pel" json:"pel"`                   // DOUBLE PRECISION, nullable
	REL         *float64 `db:"rel" json:"rel"`                   // DOUBLE PRECISION, nullable

	UpdatedAt time.Time `db:"updated_at" json:"updated_at"` // TIMESTAMPTZ, NOT NULL
}
