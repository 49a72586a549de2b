package service

import (
	"context"
	"strings"

	"ehs-data/internal/domain"

	"go.uber.org/zap"
)

// LabImportSummary 单次实验室结果导入的统计
type LabImportSummary struct {
	JobID    string `json:"job_id"`
	Fetched  int    `json:"fetched"`  // LIMS 返回的结果条数
	Imported int    `json:"imported"` // 成功写入暴露记录的条数
	Unlinked int    `json:"unlinked"` // 无结构化人员关联、跳过的条数（可经 monitor 名回填后重导）
	Failed   int    `json:"failed"`   // 单条写入失败的条数（已记日志，不中断批次）
}

// LabImportService 实验室结果导入服务接口
type LabImportService interface {
	// ImportJobResults 拉取 job 的分析结果并逐条跑暴露计算。
	// 单条失败/缺项只计数不中断——批量摄入不允许被一条坏数据打断
	ImportJobResults(ctx context.Context, orgID, userID, jobID string, profileKey *string) (*LabImportSummary, error)
}

// labImportService 实现
type labImportService struct {
	limsClient      limsClientInterface
	exposureService ExposureService
	identityService IdentityService
	logger          *zap.Logger
}

// NewLabImportService 创建 LabImportService 实例
func NewLabImportService(limsClient limsClientInterface, exposureService ExposureService, identityService IdentityService, logger *zap.Logger) LabImportService {
	return &labImportService{
		limsClient:      limsClient,
		exposureService: exposureService,
		identityService: identityService,
		logger:          logger,
	}
}

// ImportJobResults 拉取并导入一个 job 的实验室结果
func (s *labImportService) ImportJobResults(ctx context.Context, orgID, userID, jobID string, profileKey *string) (*LabImportSummary, error) {
	results, err := s.limsClient.GetAnalyzedSamples(jobID, 0)
	if err != nil {
		return nil, err
	}

	summary := &LabImportSummary{JobID: jobID, Fetched: len(results)}

	for _, res := range results {
		// 身份归属：只有 direct 关联才生成暴露记录；
		// name-fallback 留给回填流程，避免把推断身份当作确认暴露入账
		identity := s.identityService.ResolveSampleIdentity(&domain.AirSample{
			SampleID:      res.SampleID,
			JobID:         jobID,
			OrgID:         orgID,
			PersonID:      res.PersonID,
			MonitorWornBy: res.MonitorWornBy,
			SampleType:    res.SampleType,
			Analyte:       res.Analyte,
		})
		if identity == nil || identity.Confidence != MatchDirect {
			summary.Unlinked++
			continue
		}

		sampleID := res.SampleID
		req := UpsertExposureRequest{
			OrgID:           orgID,
			UserID:          userID,
			PersonID:        identity.PersonID,
			JobID:           jobID,
			AirSampleID:     &sampleID,
			Date:            res.StartTimeMillis,
			Analyte:         strings.TrimSpace(res.Analyte),
			DurationMinutes: res.DurationMinutes,
			Concentration:   res.Concentration,
			Units:           res.Units,
			Method:          res.Method,
			ProfileKey:      profileKey,
			SourceRefs:      map[string]any{"lims_run_id": res.RunID},
		}
		if res.RunID != "" {
			runID := res.RunID
			req.SampleRunID = &runID
		}
		if res.SampleType != "" {
			st := res.SampleType
			req.SampleType = &st
		}

		if _, err := s.exposureService.UpsertFromAirSample(ctx, req); err != nil {
			summary.Failed++
			s.logger.Error("Failed to import LIMS sample",
				zap.String("job_id", jobID),
				zap.String("sample_id", res.SampleID),
				zap.Error(err),
			)
			continue
		}
		summary.Imported++
	}

	s.logger.Info("LIMS import finished",
		zap.String("job_id", jobID),
		zap.Int("fetched", summary.Fetched),
		zap.Int("imported", summary.Imported),
		zap.Int("unlinked", summary.Unlinked),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}
