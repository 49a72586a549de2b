package repository

import (
	"context"
	"database/sql"
	"fmt"

	"ehs-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresExposureRecordsRepository 暴露记录Repository实现
type PostgresExposureRecordsRepository struct {
	db *sql.DB
}

// NewPostgresExposureRecordsRepository 创建暴露记录Repository
func NewPostgresExposureRecordsRepository(db *sql.DB) *PostgresExposureRecordsRepository {
	return &PostgresExposureRecordsRepository{db: db}
}

// 确保实现了接口
var _ ExposureRecordsRepository = (*PostgresExposureRecordsRepository)(nil)

const exposureRecordColumns = `
	exposure_id::text,
	org_id::text,
	person_id::text,
	job_id::text,
	air_sample_id::text,
	sample_run_id,
	date,
	analyte,
	COALESCE(duration_minutes, 0),
	concentration,
	COALESCE(units, ''),
	method,
	sample_type,
	twa_8hr,
	profile_key,
	limit_type,
	limit_value,
	percent_of_limit,
	exceedance_flag,
	near_miss_flag,
	computed_version,
	source_refs,
	created_by_user_id::text,
	updated_by_user_id::text,
	created_at,
	updated_at
`

// UpsertByAirSample 原子化写入暴露记录
//
// (org_id, air_sample_id) 的唯一性由部分唯一索引保证，冲突时原地更新：
//   - created_by_user_id/created_at 保留首次写入值
//   - 计算字段（TWA/限值/标志）整组覆盖，不保留旧判定（历史留痕走 recompute log）
//   - computed_version 仅在判定输出发生变化时 +1，幂等重放不会抬版本
func (r *PostgresExposureRecordsRepository) UpsertByAirSample(ctx context.Context, record *domain.ExposureRecord) (*domain.ExposureRecord, error) {
	if record == nil {
		return nil, fmt.Errorf("record is required")
	}
	if record.OrgID == "" || record.PersonID == "" || record.JobID == "" {
		return nil, fmt.Errorf("org_id, person_id and job_id are required")
	}

	exposureID := record.ExposureID
	if exposureID == "" {
		exposureID = uuid.NewString()
	}

	// air_sample_id 缺失时没有幂等键，直接插入（如手工录入的历史数据迁移）
	if record.AirSampleID == nil || *record.AirSampleID == "" {
		return r.insertPlain(ctx, exposureID, record)
	}

	query := `
		INSERT INTO exposure_records (
			exposure_id, org_id, person_id, job_id, air_sample_id, sample_run_id,
			date, analyte, duration_minutes, concentration, units, method, sample_type,
			twa_8hr, profile_key, limit_type, limit_value, percent_of_limit,
			exceedance_flag, near_miss_flag, computed_version, source_refs,
			created_by_user_id, updated_by_user_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18,
			$19, $20, 1, $21,
			$22, $22, NOW(), NOW()
		)
		ON CONFLICT (org_id, air_sample_id) WHERE air_sample_id IS NOT NULL
		DO UPDATE SET
			person_id = EXCLUDED.person_id,
			job_id = EXCLUDED.job_id,
			sample_run_id = EXCLUDED.sample_run_id,
			date = EXCLUDED.date,
			analyte = EXCLUDED.analyte,
			duration_minutes = EXCLUDED.duration_minutes,
			concentration = EXCLUDED.concentration,
			units = EXCLUDED.units,
			method = EXCLUDED.method,
			sample_type = EXCLUDED.sample_type,
			twa_8hr = EXCLUDED.twa_8hr,
			profile_key = EXCLUDED.profile_key,
			limit_type = EXCLUDED.limit_type,
			limit_value = EXCLUDED.limit_value,
			percent_of_limit = EXCLUDED.percent_of_limit,
			exceedance_flag = EXCLUDED.exceedance_flag,
			near_miss_flag = EXCLUDED.near_miss_flag,
			computed_version = CASE
				WHEN exposure_records.twa_8hr IS DISTINCT FROM EXCLUDED.twa_8hr
				  OR exposure_records.percent_of_limit IS DISTINCT FROM EXCLUDED.percent_of_limit
				  OR exposure_records.exceedance_flag IS DISTINCT FROM EXCLUDED.exceedance_flag
				  OR exposure_records.near_miss_flag IS DISTINCT FROM EXCLUDED.near_miss_flag
				THEN exposure_records.computed_version + 1
				ELSE exposure_records.computed_version
			END,
			source_refs = EXCLUDED.source_refs,
			updated_by_user_id = EXCLUDED.updated_by_user_id,
			updated_at = NOW()
		RETURNING ` + exposureRecordColumns

	row := r.db.QueryRowContext(ctx, query,
		exposureID,
		record.OrgID,
		record.PersonID,
		record.JobID,
		record.AirSampleID,
		record.SampleRunID,
		record.Date,
		record.Analyte,
		record.DurationMinutes,
		record.Concentration,
		record.Units,
		record.Method,
		record.SampleType,
		record.TWA8hr,
		record.ProfileKey,
		record.LimitType,
		record.LimitValue,
		record.PercentOfLimit,
		record.ExceedanceFlag,
		record.NearMissFlag,
		record.SourceRefs,
		record.UpdatedByUserID,
	)

	saved, err := scanExposureRecord(row)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert exposure record: %w", err)
	}
	return saved, nil
}

func (r *PostgresExposureRecordsRepository) insertPlain(ctx context.Context, exposureID string, record *domain.ExposureRecord) (*domain.ExposureRecord, error) {
	query := `
		INSERT INTO exposure_records (
			exposure_id, org_id, person_id, job_id, air_sample_id, sample_run_id,
			date, analyte, duration_minutes, concentration, units, method, sample_type,
			twa_8hr, profile_key, limit_type, limit_value, percent_of_limit,
			exceedance_flag, near_miss_flag, computed_version, source_refs,
			created_by_user_id, updated_by_user_id, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, NULL, $5,
			$6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17,
			$18, $19, 1, $20,
			$21, $21, NOW(), NOW()
		)
		RETURNING ` + exposureRecordColumns

	row := r.db.QueryRowContext(ctx, query,
		exposureID,
		record.OrgID,
		record.PersonID,
		record.JobID,
		record.SampleRunID,
		record.Date,
		record.Analyte,
		record.DurationMinutes,
		record.Concentration,
		record.Units,
		record.Method,
		record.SampleType,
		record.TWA8hr,
		record.ProfileKey,
		record.LimitType,
		record.LimitValue,
		record.PercentOfLimit,
		record.ExceedanceFlag,
		record.NearMissFlag,
		record.SourceRefs,
		record.UpdatedByUserID,
	)

	saved, err := scanExposureRecord(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert exposure record: %w", err)
	}
	return saved, nil
}

// GetByAirSample 按幂等键读取；不存在返回 (nil, nil)
func (r *PostgresExposureRecordsRepository) GetByAirSample(ctx context.Context, orgID, airSampleID string) (*domain.ExposureRecord, error) {
	if orgID == "" || airSampleID == "" {
		return nil, fmt.Errorf("org_id and air_sample_id are required")
	}

	query := `
		SELECT ` + exposureRecordColumns + `
		FROM exposure_records
		WHERE org_id = $1 AND air_sample_id = $2
	`

	record, err := scanExposureRecord(r.db.QueryRowContext(ctx, query, orgID, airSampleID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get exposure record: %w", err)
	}
	return record, nil
}

// ListForPerson 按机构+人员过滤暴露记录，最近的在前
func (r *PostgresExposureRecordsRepository) ListForPerson(ctx context.Context, orgID, personID string, filters ExposureRecordFilters) ([]*domain.ExposureRecord, error) {
	if orgID == "" || personID == "" {
		return nil, fmt.Errorf("org_id and person_id are required")
	}

	query := `
		SELECT ` + exposureRecordColumns + `
		FROM exposure_records
		WHERE org_id = $1 AND person_id = $2
	`
	args := []any{orgID, personID}
	argN := 3

	// 日期边界均为含边界
	if filters.From != nil {
		query += fmt.Sprintf(" AND date >= $%d", argN)
		args = append(args, *filters.From)
		argN++
	}
	if filters.To != nil {
		query += fmt.Sprintf(" AND date <= $%d", argN)
		args = append(args, *filters.To)
		argN++
	}
	if filters.Analyte != "" {
		query += fmt.Sprintf(" AND analyte = $%d", argN)
		args = append(args, filters.Analyte)
		argN++
	}

	query += " ORDER BY date DESC NULLS LAST, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list exposure records: %w", err)
	}
	defer rows.Close()

	var records []*domain.ExposureRecord
	for rows.Next() {
		rec, err := scanExposureRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exposure record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// AppendRecomputeLog 追加重判定日志（append-only）
func (r *PostgresExposureRecordsRepository) AppendRecomputeLog(ctx context.Context, entry *domain.ExposureRecomputeLog) error {
	if entry == nil || entry.OrgID == "" || entry.AirSampleID == "" {
		return fmt.Errorf("org_id and air_sample_id are required")
	}

	logID := entry.LogID
	if logID == "" {
		logID = uuid.NewString()
	}

	query := `
		INSERT INTO exposure_recompute_log (
			log_id, org_id, air_sample_id, computed_version,
			twa_8hr, percent_of_limit, exceedance_flag, near_miss_flag,
			recorded_at, recorded_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), $9)
		ON CONFLICT (air_sample_id, computed_version) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		logID,
		entry.OrgID,
		entry.AirSampleID,
		entry.ComputedVersion,
		entry.TWA8hr,
		entry.PercentOfLimit,
		entry.ExceedanceFlag,
		entry.NearMissFlag,
		entry.RecordedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to append recompute log: %w", err)
	}
	return nil
}

// ListRecomputeLog 按样本列出历史判定（版本升序）
func (r *PostgresExposureRecordsRepository) ListRecomputeLog(ctx context.Context, orgID, airSampleID string) ([]*domain.ExposureRecomputeLog, error) {
	if orgID == "" || airSampleID == "" {
		return nil, fmt.Errorf("org_id and air_sample_id are required")
	}

	query := `
		SELECT log_id::text, org_id::text, air_sample_id::text, computed_version,
		       twa_8hr, percent_of_limit, exceedance_flag, near_miss_flag,
		       recorded_at, recorded_by::text
		FROM exposure_recompute_log
		WHERE org_id = $1 AND air_sample_id = $2
		ORDER BY computed_version ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orgID, airSampleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recompute log: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ExposureRecomputeLog
	for rows.Next() {
		var e domain.ExposureRecomputeLog
		if err := rows.Scan(
			&e.LogID, &e.OrgID, &e.AirSampleID, &e.ComputedVersion,
			&e.TWA8hr, &e.PercentOfLimit, &e.ExceedanceFlag, &e.NearMissFlag,
			&e.RecordedAt, &e.RecordedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recompute log: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func scanExposureRecord(row rowScanner) (*domain.ExposureRecord, error) {
	var rec domain.ExposureRecord
	err := row.Scan(
		&rec.ExposureID,
		&rec.OrgID,
		&rec.PersonID,
		&rec.JobID,
		&rec.AirSampleID,
		&rec.SampleRunID,
		&rec.Date,
		&rec.Analyte,
		&rec.DurationMinutes,
		&rec.Concentration,
		&rec.Units,
		&rec.Method,
		&rec.SampleType,
		&rec.TWA8hr,
		&rec.ProfileKey,
		&rec.LimitType,
		&rec.LimitValue,
		&rec.PercentOfLimit,
		&rec.ExceedanceFlag,
		&rec.NearMissFlag,
		&rec.ComputedVersion,
		&rec.SourceRefs,
		&rec.CreatedByUserID,
		&rec.UpdatedByUserID,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
