package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ehs-data/internal/domain"
)

// PostgresAirSamplesRepository 空气采样Repository实现（只读）
type PostgresAirSamplesRepository struct {
	db *sql.DB
}

// NewPostgresAirSamplesRepository 创建空气采样Repository
func NewPostgresAirSamplesRepository(db *sql.DB) *PostgresAirSamplesRepository {
	return &PostgresAirSamplesRepository{db: db}
}

// 确保实现了接口
var _ AirSamplesRepository = (*PostgresAirSamplesRepository)(nil)

const airSampleColumns = `
	s.sample_id::text,
	s.job_id::text,
	j.org_id::text,
	s.person_id::text,
	s.monitor_worn_by,
	s.sample_type,
	s.analyte,
	s.start_time,
	COALESCE(s.duration_minutes, 0),
	s.concentration,
	COALESCE(s.units, ''),
	s.method
`

// air_samples 经 jobs 表归属机构，所有查询都带 org 过滤
const airSampleFrom = `
	FROM air_samples s
	JOIN jobs j ON s.job_id = j.job_id
`

// GetAirSample 按主键读取单条采样
func (r *PostgresAirSamplesRepository) GetAirSample(ctx context.Context, orgID, sampleID string) (*domain.AirSample, error) {
	if orgID == "" || sampleID == "" {
		return nil, fmt.Errorf("org_id and sample_id are required")
	}

	query := `SELECT ` + airSampleColumns + airSampleFrom + `
		WHERE j.org_id = $1 AND s.sample_id = $2`

	sample, err := scanAirSample(r.db.QueryRowContext(ctx, query, orgID, sampleID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("air sample not found: %s", sampleID)
		}
		return nil, fmt.Errorf("failed to get air sample: %w", err)
	}
	return sample, nil
}

// GetAirSamplesForPersonInOrg 直接关联路径：按 person_id 查询
func (r *PostgresAirSamplesRepository) GetAirSamplesForPersonInOrg(ctx context.Context, orgID, personID string) ([]*domain.AirSample, error) {
	if orgID == "" || strings.TrimSpace(personID) == "" {
		return nil, fmt.Errorf("org_id and person_id are required")
	}

	query := `SELECT ` + airSampleColumns + airSampleFrom + `
		WHERE j.org_id = $1 AND TRIM(s.person_id::text) = $2
		ORDER BY s.start_time DESC NULLS LAST`

	return r.queryAirSamples(ctx, query, orgID, strings.TrimSpace(personID))
}

// GetAirSamplesForMonitorNameInOrg 姓名回退路径
// 结构上要求 person_id 为空——已关联人员的样本不允许再按姓名计入（防重复计数）
func (r *PostgresAirSamplesRepository) GetAirSamplesForMonitorNameInOrg(ctx context.Context, orgID, name string) ([]*domain.AirSample, error) {
	if orgID == "" || strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("org_id and name are required")
	}

	query := `SELECT ` + airSampleColumns + airSampleFrom + `
		WHERE j.org_id = $1
		  AND (s.person_id IS NULL OR TRIM(s.person_id::text) = '')
		  AND LOWER(TRIM(s.monitor_worn_by)) = LOWER(TRIM($2))
		  AND s.sample_type IN ('personal', 'excursion')
		ORDER BY s.start_time DESC NULLS LAST`

	return r.queryAirSamples(ctx, query, orgID, name)
}

// GetAirSampleStatsByPerson 按 person_id 聚合采样统计
func (r *PostgresAirSamplesRepository) GetAirSampleStatsByPerson(ctx context.Context, orgID string) ([]*domain.AirSampleStats, error) {
	if orgID == "" {
		return nil, fmt.Errorf("org_id is required")
	}

	query := `
		SELECT s.person_id::text AS key,
		       COUNT(*) AS sample_count,
		       COUNT(DISTINCT s.job_id) AS job_count,
		       MAX(s.start_time) AS last_job_date
		` + airSampleFrom + `
		WHERE j.org_id = $1
		  AND s.person_id IS NOT NULL AND TRIM(s.person_id::text) <> ''
		GROUP BY s.person_id
		ORDER BY last_job_date DESC NULLS LAST
	`

	return r.queryStats(ctx, query, orgID)
}

// GetAirSampleStatsByMonitorName 按 monitor 名聚合未关联样本
// 字面 "n/a" 是采样员表示"没有人戴"的习惯写法，按无姓名排除
func (r *PostgresAirSamplesRepository) GetAirSampleStatsByMonitorName(ctx context.Context, orgID string) ([]*domain.AirSampleStats, error) {
	if orgID == "" {
		return nil, fmt.Errorf("org_id is required")
	}

	query := `
		SELECT LOWER(TRIM(s.monitor_worn_by)) AS key,
		       COUNT(*) AS sample_count,
		       COUNT(DISTINCT s.job_id) AS job_count,
		       MAX(s.start_time) AS last_job_date
		` + airSampleFrom + `
		WHERE j.org_id = $1
		  AND (s.person_id IS NULL OR TRIM(s.person_id::text) = '')
		  AND s.monitor_worn_by IS NOT NULL
		  AND TRIM(s.monitor_worn_by) <> ''
		  AND LOWER(TRIM(s.monitor_worn_by)) <> 'n/a'
		  AND s.sample_type IN ('personal', 'excursion')
		GROUP BY LOWER(TRIM(s.monitor_worn_by))
		ORDER BY last_job_date DESC NULLS LAST
	`

	return r.queryStats(ctx, query, orgID)
}

func (r *PostgresAirSamplesRepository) queryAirSamples(ctx context.Context, query string, args ...any) ([]*domain.AirSample, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query air samples: %w", err)
	}
	defer rows.Close()

	var samples []*domain.AirSample
	for rows.Next() {
		s, err := scanAirSample(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan air sample: %w", err)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

func (r *PostgresAirSamplesRepository) queryStats(ctx context.Context, query string, args ...any) ([]*domain.AirSampleStats, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query air sample stats: %w", err)
	}
	defer rows.Close()

	var stats []*domain.AirSampleStats
	for rows.Next() {
		var st domain.AirSampleStats
		if err := rows.Scan(&st.Key, &st.SampleCount, &st.JobCount, &st.LastJobDate); err != nil {
			return nil, fmt.Errorf("failed to scan air sample stats: %w", err)
		}
		stats = append(stats, &st)
	}
	return stats, rows.Err()
}

func scanAirSample(row rowScanner) (*domain.AirSample, error) {
	var s domain.AirSample
	err := row.Scan(
		&s.SampleID,
		&s.JobID,
		&s.OrgID,
		&s.PersonID,
		&s.MonitorWornBy,
		&s.SampleType,
		&s.Analyte,
		&s.StartTime,
		&s.DurationMinutes,
		&s.Concentration,
		&s.Units,
		&s.Method,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
