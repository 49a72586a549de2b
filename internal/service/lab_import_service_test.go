package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeLIMSClient 返回固定的结果集
type fakeLIMSClient struct {
	results []LIMSSampleResult
	err     error
}

func (f *fakeLIMSClient) GetAnalyzedSamples(jobID string, since int64) ([]LIMSSampleResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func limsResult(sampleID string, personID *string, monitorName *string) LIMSSampleResult {
	return LIMSSampleResult{
		SampleID:        sampleID,
		RunID:           "run-" + sampleID,
		PersonID:        personID,
		MonitorWornBy:   monitorName,
		SampleType:      "personal",
		Analyte:         "asbestos",
		StartTimeMillis: time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC).UnixMilli(),
		DurationMinutes: 240,
		Concentration:   floatPtr(0.08),
		Units:           "f/cc",
	}
}

func newImportService(t *testing.T, lims limsClientInterface) (LabImportService, *fakeRecordsRepo) {
	repo := newFakeRecordsRepo()
	limits := &fakeLimitService{limit: pelLimit(0.1)}
	exposure := NewExposureService(repo, limits, 80, zap.NewNop())
	identity := NewIdentityService(nil, zap.NewNop())
	return NewLabImportService(lims, exposure, identity, zap.NewNop()), repo
}

func TestImportJobResults_OnlyDirectLinkedSamplesImported(t *testing.T) {
	lims := &fakeLIMSClient{results: []LIMSSampleResult{
		limsResult("s1", strPtr("person-1"), nil),             // direct ⇒ 入账
		limsResult("s2", nil, strPtr("John Smith")),           // name-fallback ⇒ 留待回填
		limsResult("s3", nil, strPtr("n/a")),                  // 无身份
		limsResult("s4", strPtr("person-2"), strPtr("Other")), // direct 优先
	}}
	svc, repo := newImportService(t, lims)

	profile := "osha_construction"
	summary, err := svc.ImportJobResults(context.Background(), "org-1", "user-1", "job-1", &profile)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Fetched)
	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 2, summary.Unlinked)
	assert.Equal(t, 0, summary.Failed)

	// 只有 direct 样本生成暴露记录
	rec, err := repo.GetByAirSample(context.Background(), "org-1", "s1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "person-1", rec.PersonID)
	require.NotNil(t, rec.TWA8hr)
	assert.InDelta(t, 0.04, *rec.TWA8hr, 1e-9)
	require.NotNil(t, rec.Date)
	assert.Equal(t, "2026-03-15", rec.Date.UTC().Format("2006-01-02"))
	require.NotNil(t, rec.SourceRefs)
	assert.Contains(t, *rec.SourceRefs, "run-s1")

	unlinked, err := repo.GetByAirSample(context.Background(), "org-1", "s2")
	require.NoError(t, err)
	assert.Nil(t, unlinked)
}

func TestImportJobResults_BadRowDoesNotAbortBatch(t *testing.T) {
	bad := limsResult("s2", strPtr("person-2"), nil)
	bad.Analyte = "   " // 缺 analyte ⇒ 单条失败
	lims := &fakeLIMSClient{results: []LIMSSampleResult{
		limsResult("s1", strPtr("person-1"), nil),
		bad,
		limsResult("s3", strPtr("person-3"), nil),
	}}
	svc, _ := newImportService(t, lims)

	summary, err := svc.ImportJobResults(context.Background(), "org-1", "user-1", "job-1", nil)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Fetched)
	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Unlinked)
}

func TestImportJobResults_ReplayIsIdempotent(t *testing.T) {
	lims := &fakeLIMSClient{results: []LIMSSampleResult{
		limsResult("s1", strPtr("person-1"), nil),
	}}
	svc, repo := newImportService(t, lims)
	ctx := context.Background()

	profile := "osha_construction"
	_, err := svc.ImportJobResults(ctx, "org-1", "user-1", "job-1", &profile)
	require.NoError(t, err)
	_, err = svc.ImportJobResults(ctx, "org-1", "user-1", "job-1", &profile)
	require.NoError(t, err)

	rec, err := repo.GetByAirSample(ctx, "org-1", "s1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 1, rec.ComputedVersion)
	assert.Len(t, repo.logs, 1)
}

func TestImportJobResults_LIMSFailurePropagates(t *testing.T) {
	lims := &fakeLIMSClient{err: errors.New("LIMS API returned HTTP 502")}
	svc, _ := newImportService(t, lims)

	_, err := svc.ImportJobResults(context.Background(), "org-1", "user-1", "job-1", nil)
	assert.Error(t, err)
}

func TestImportJobResults_EmptyResultSet(t *testing.T) {
	lims := &fakeLIMSClient{}
	svc, _ := newImportService(t, lims)

	summary, err := svc.ImportJobResults(context.Background(), "org-1", "user-1", "job-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Fetched)
	assert.Equal(t, 0, summary.Imported)
}
