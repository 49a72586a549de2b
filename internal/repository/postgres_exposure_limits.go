package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ehs-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresExposureLimitsRepository 暴露限值Repository实现
type PostgresExposureLimitsRepository struct {
	db *sql.DB
}

// NewPostgresExposureLimitsRepository 创建暴露限值Repository
func NewPostgresExposureLimitsRepository(db *sql.DB) *PostgresExposureLimitsRepository {
	return &PostgresExposureLimitsRepository{db: db}
}

// 确保实现了接口
var _ ExposureLimitsRepository = (*PostgresExposureLimitsRepository)(nil)

const exposureLimitColumns = `
	limit_id::text,
	org_id::text,
	profile_key,
	analyte,
	units,
	action_level,
	pel,
	rel,
	updated_at
`

// ResolveLimit 按 (org_id, profile_key, analyte) 精确查找限值
func (r *PostgresExposureLimitsRepository) ResolveLimit(ctx context.Context, orgID, profileKey, analyte string) (*domain.ExposureLimit, error) {
	if orgID == "" || profileKey == "" || analyte == "" {
		return nil, fmt.Errorf("org_id, profile_key and analyte are required")
	}

	query := `
		SELECT ` + exposureLimitColumns + `
		FROM exposure_limits
		WHERE org_id = $1 AND profile_key = $2 AND analyte = $3
	`

	limit, err := scanExposureLimit(r.db.QueryRowContext(ctx, query, orgID, profileKey, analyte))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrLimitNotFound
		}
		return nil, fmt.Errorf("failed to resolve exposure limit: %w", err)
	}
	return limit, nil
}

// UpsertLimit 原子化写入限值（last-write-wins，无历史保留）
func (r *PostgresExposureLimitsRepository) UpsertLimit(ctx context.Context, orgID string, limit *domain.ExposureLimit) (string, error) {
	if orgID == "" {
		return "", fmt.Errorf("org_id is required")
	}
	if limit == nil || strings.TrimSpace(limit.ProfileKey) == "" || strings.TrimSpace(limit.Analyte) == "" {
		return "", fmt.Errorf("profile_key and analyte are required")
	}

	limitID := limit.LimitID
	if limitID == "" {
		limitID = uuid.NewString()
	}

	// 唯一性由 uq_exposure_limits_key 索引保证；并发写同一键时由数据库串行化，
	// 不再复用旧版"先查再写"的竞态写法
	query := `
		INSERT INTO exposure_limits (limit_id, org_id, profile_key, analyte, units, action_level, pel, rel, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (org_id, profile_key, analyte)
		DO UPDATE SET units = EXCLUDED.units,
		              action_level = EXCLUDED.action_level,
		              pel = EXCLUDED.pel,
		              rel = EXCLUDED.rel,
		              updated_at = NOW()
		RETURNING limit_id::text
	`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		limitID,
		orgID,
		strings.TrimSpace(limit.ProfileKey),
		strings.TrimSpace(limit.Analyte),
		limit.Units,
		limit.ActionLevel,
		limit.PEL,
		limit.REL,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to upsert exposure limit: %w", err)
	}
	return id, nil
}

// ListLimits 列出机构配置的全部限值
func (r *PostgresExposureLimitsRepository) ListLimits(ctx context.Context, orgID string) ([]*domain.ExposureLimit, error) {
	if orgID == "" {
		return nil, fmt.Errorf("org_id is required")
	}

	query := `
		SELECT ` + exposureLimitColumns + `
		FROM exposure_limits
		WHERE org_id = $1
		ORDER BY profile_key, analyte
	`

	rows, err := r.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exposure limits: %w", err)
	}
	defer rows.Close()

	var limits []*domain.ExposureLimit
	for rows.Next() {
		limit, err := scanExposureLimit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exposure limit: %w", err)
		}
		limits = append(limits, limit)
	}
	return limits, rows.Err()
}

// rowScanner 兼容 *sql.Row 与 *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanExposureLimit(row rowScanner) (*domain.ExposureLimit, error) {
	var l domain.ExposureLimit
	err := row.Scan(
		&l.LimitID,
		&l.OrgID,
		&l.ProfileKey,
		&l.Analyte,
		&l.Units,
		&l.ActionLevel,
		&l.PEL,
		&l.REL,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
