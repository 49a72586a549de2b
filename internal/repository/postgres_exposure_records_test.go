package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"ehs-data/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRecordsMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresExposureRecordsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewPostgresExposureRecordsRepository(db)
	return db, mock, repo
}

var recordCols = []string{
	"exposure_id", "org_id", "person_id", "job_id", "air_sample_id", "sample_run_id",
	"date", "analyte", "duration_minutes", "concentration", "units", "method", "sample_type",
	"twa_8hr", "profile_key", "limit_type", "limit_value", "percent_of_limit",
	"exceedance_flag", "near_miss_flag", "computed_version", "source_refs",
	"created_by_user_id", "updated_by_user_id", "created_at", "updated_at",
}

func recordRow(version int) *sqlmock.Rows {
	twa := 0.1
	pct := 100.0
	now := time.Now()
	return sqlmock.NewRows(recordCols).AddRow(
		"exp-1", "org-1", "person-1", "job-1", "sample-1", nil,
		now, "asbestos", 480, 0.1, "f/cc", nil, "personal",
		twa, "osha_construction", "PEL", 0.1, pct,
		true, false, version, nil,
		"user-1", "user-1", now, now,
	)
}

func sampleRecord() *domain.ExposureRecord {
	sampleID := "sample-1"
	twa := 0.1
	return &domain.ExposureRecord{
		OrgID:           "org-1",
		PersonID:        "person-1",
		JobID:           "job-1",
		AirSampleID:     &sampleID,
		Analyte:         "asbestos",
		DurationMinutes: 480,
		Concentration:   &twa,
		Units:           "f/cc",
		TWA8hr:          &twa,
		ExceedanceFlag:  true,
		CreatedByUserID: "user-1",
		UpdatedByUserID: "user-1",
	}
}

func TestUpsertByAirSample_UsesOnConflict(t *testing.T) {
	db, mock, repo := setupRecordsMockDB(t)
	defer db.Close()

	// 幂等写入必须是单条 ON CONFLICT 语句，不做应用层先查再写
	mock.ExpectQuery(`ON CONFLICT \(org_id, air_sample_id\)`).
		WillReturnRows(recordRow(1))

	saved, err := repo.UpsertByAirSample(context.Background(), sampleRecord())

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "exp-1", saved.ExposureID)
	assert.Equal(t, 1, saved.ComputedVersion)
	assert.True(t, saved.ExceedanceFlag)
	assert.False(t, saved.NearMissFlag)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertByAirSample_NoSampleIDInsertsPlain(t *testing.T) {
	db, mock, repo := setupRecordsMockDB(t)
	defer db.Close()

	rec := sampleRecord()
	rec.AirSampleID = nil

	// 没有幂等键时直接插入（手工历史数据）
	mock.ExpectQuery(`INSERT INTO exposure_records`).
		WillReturnRows(recordRow(1))

	saved, err := repo.UpsertByAirSample(context.Background(), rec)

	require.NoError(t, err)
	require.NotNil(t, saved)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertByAirSample_RequiresIdentityFields(t *testing.T) {
	db, _, repo := setupRecordsMockDB(t)
	defer db.Close()

	rec := sampleRecord()
	rec.PersonID = ""

	_, err := repo.UpsertByAirSample(context.Background(), rec)
	assert.Error(t, err)
}

func TestGetByAirSample_MissingReturnsNilNil(t *testing.T) {
	db, mock, repo := setupRecordsMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("org-1", "sample-404").
		WillReturnError(sql.ErrNoRows)

	rec, err := repo.GetByAirSample(context.Background(), "org-1", "sample-404")

	// 不存在不是错误：调用方据此区分插入/更新留痕
	require.NoError(t, err)
	assert.Nil(t, rec)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListForPerson_AppliesFilters(t *testing.T) {
	db, mock, repo := setupRecordsMockDB(t)
	defer db.Close()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`ORDER BY date DESC`).
		WithArgs("org-1", "person-1", from, to, "asbestos").
		WillReturnRows(recordRow(2))

	records, err := repo.ListForPerson(context.Background(), "org-1", "person-1", ExposureRecordFilters{
		From:    &from,
		To:      &to,
		Analyte: "asbestos",
	})

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].ComputedVersion)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendRecomputeLog(t *testing.T) {
	db, mock, repo := setupRecordsMockDB(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO exposure_recompute_log`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	twa := 0.1
	err := repo.AppendRecomputeLog(context.Background(), &domain.ExposureRecomputeLog{
		OrgID:           "org-1",
		AirSampleID:     "sample-1",
		ComputedVersion: 2,
		TWA8hr:          &twa,
		RecordedBy:      "user-1",
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
