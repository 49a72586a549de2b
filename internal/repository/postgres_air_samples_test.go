package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSamplesMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresAirSamplesRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewPostgresAirSamplesRepository(db)
	return db, mock, repo
}

var sampleCols = []string{
	"sample_id", "job_id", "org_id", "person_id", "monitor_worn_by",
	"sample_type", "analyte", "start_time", "duration_minutes",
	"concentration", "units", "method",
}

func TestGetAirSamplesForMonitorName_ExcludesLinkedSamples(t *testing.T) {
	db, mock, repo := setupSamplesMockDB(t)
	defer db.Close()

	conc := 0.08
	start := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(sampleCols).AddRow(
		"sample-1", "job-1", "org-1", nil, "john smith",
		"personal", "asbestos", start, 240, conc, "f/cc", nil,
	)

	// 回退查询的谓词必须排除 person_id 已关联的样本（防止重复计数）
	mock.ExpectQuery(`person_id IS NULL OR TRIM\(s\.person_id::text\) = ''`).
		WithArgs("org-1", "John Smith").
		WillReturnRows(rows)

	samples, err := repo.GetAirSamplesForMonitorNameInOrg(context.Background(), "org-1", "John Smith")

	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, "sample-1", samples[0].SampleID)
	assert.Nil(t, samples[0].PersonID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAirSampleStatsByMonitorName_ExcludesNAMarker(t *testing.T) {
	db, mock, repo := setupSamplesMockDB(t)
	defer db.Close()

	last := time.Date(2026, 5, 2, 7, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"key", "sample_count", "job_count", "last_job_date"}).
		AddRow("john smith", 4, 2, last)

	// 查询必须带 n/a 排除谓词
	mock.ExpectQuery(`LOWER\(TRIM\(s\.monitor_worn_by\)\) <> 'n/a'`).
		WithArgs("org-1").
		WillReturnRows(rows)

	stats, err := repo.GetAirSampleStatsByMonitorName(context.Background(), "org-1")

	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "john smith", stats[0].Key)
	assert.Equal(t, 4, stats[0].SampleCount)
	assert.Equal(t, 2, stats[0].JobCount)
	require.NotNil(t, stats[0].LastJobDate)
	assert.True(t, stats[0].LastJobDate.Equal(last))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAirSampleStatsByPerson_OnlyLinkedSamples(t *testing.T) {
	db, mock, repo := setupSamplesMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"key", "sample_count", "job_count", "last_job_date"}).
		AddRow("person-1", 7, 3, time.Now())

	mock.ExpectQuery(`s\.person_id IS NOT NULL`).
		WithArgs("org-1").
		WillReturnRows(rows)

	stats, err := repo.GetAirSampleStatsByPerson(context.Background(), "org-1")

	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "person-1", stats[0].Key)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAirSample_NotFound(t *testing.T) {
	db, mock, repo := setupSamplesMockDB(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).
		WithArgs("org-1", "sample-x").
		WillReturnError(sql.ErrNoRows)

	sample, err := repo.GetAirSample(context.Background(), "org-1", "sample-x")

	assert.Error(t, err)
	assert.Nil(t, sample)
	assert.Contains(t, err.Error(), "air sample not found")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAirSamplesForPerson_TrimsPersonID(t *testing.T) {
	db, mock, repo := setupSamplesMockDB(t)
	defer db.Close()

	pid := "person-1"
	rows := sqlmock.NewRows(sampleCols).AddRow(
		"sample-2", "job-1", "org-1", pid, nil,
		"personal", "lead", nil, 0, nil, "ug/m3", nil,
	)

	mock.ExpectQuery(`SELECT`).
		WithArgs("org-1", "person-1").
		WillReturnRows(rows)

	samples, err := repo.GetAirSamplesForPersonInOrg(context.Background(), "org-1", "  person-1  ")

	require.NoError(t, err)
	require.Len(t, samples, 1)
	require.NotNil(t, samples[0].PersonID)
	assert.Equal(t, "person-1", *samples[0].PersonID)
	// 未出结果的样本浓度为空
	assert.Nil(t, samples[0].Concentration)

	require.NoError(t, mock.ExpectationsWereMet())
}
