package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ehs-data/internal/domain"
	"ehs-data/internal/exposure"
	"ehs-data/internal/repository"

	"go.uber.org/zap"
)

// ExposureService 暴露记录计算/写入服务接口
type ExposureService interface {
	// UpsertFromAirSample 由一条采样数据计算并写入暴露记录。
	// 同一 (org_id, air_sample_id) 重复调用幂等；输入变化时原地重算并留重判定日志
	UpsertFromAirSample(ctx context.Context, req UpsertExposureRequest) (*domain.ExposureRecord, error)

	// GetRecomputeHistory 按样本读取历史判定
	GetRecomputeHistory(ctx context.Context, orgID, airSampleID string) ([]*domain.ExposureRecomputeLog, error)
}

// exposureService 实现
type exposureService struct {
	recordsRepo     repository.ExposureRecordsRepository
	limitService    LimitService
	nearMissPercent float64
	logger          *zap.Logger
}

// NewExposureService 创建 ExposureService 实例
func NewExposureService(recordsRepo repository.ExposureRecordsRepository, limitService LimitService, nearMissPercent float64, logger *zap.Logger) ExposureService {
	return &exposureService{
		recordsRepo:     recordsRepo,
		limitService:    limitService,
		nearMissPercent: nearMissPercent,
		logger:          logger,
	}
}

// ============================================
// Request DTO
// ============================================

// UpsertExposureRequest 暴露记录写入请求
// 实验室数据常有缺项：Date/Concentration/Duration 缺失或非法不报错，
// 按"未判定"落库（percent 为空、标志全 false），不允许因单条坏数据打断批量摄入
type UpsertExposureRequest struct {
	OrgID  string // 必填
	UserID string // 必填（审计用）

	PersonID string // 必填（由身份归属确定后传入）
	JobID    string // 必填

	AirSampleID *string // 幂等键；为空时直接插入
	SampleRunID *string

	Date            any      // time.Time / epoch 毫秒 / 可解析的日期字符串；其余按"无日期"
	Analyte         string   // 必填
	DurationMinutes int      //
	Concentration   *float64 //
	Units           string   //
	Method          *string  //
	SampleType      *string  //

	ProfileKey *string // 限值 profile；为空则不做限值判定
	SourceRefs any     // 自由结构的来源引用，序列化为 JSON 字符串存储
}

// UpsertFromAirSample 计算并写入暴露记录
//
// 流程：归一化日期 → 计算 TWA → 解析限值（未配置 ⇒ 未判定）→ 判定 → 原子 upsert
// → 判定输出变化时追加重判定日志
func (s *exposureService) UpsertFromAirSample(ctx context.Context, req UpsertExposureRequest) (*domain.ExposureRecord, error) {
	if req.OrgID == "" || req.UserID == "" {
		return nil, fmt.Errorf("org_id and user_id are required")
	}
	if req.PersonID == "" || req.JobID == "" {
		return nil, fmt.Errorf("person_id and job_id are required")
	}
	if strings.TrimSpace(req.Analyte) == "" {
		return nil, fmt.Errorf("analyte is required")
	}

	twa := exposure.ComputeTWA8hr(req.Concentration, req.DurationMinutes)

	// 限值解析：未配置限值不是错误，产出未判定记录，待限值配好后重算
	var limit *domain.ExposureLimit
	if req.ProfileKey != nil && strings.TrimSpace(*req.ProfileKey) != "" {
		l, err := s.limitService.ResolveLimit(ctx, req.OrgID, strings.TrimSpace(*req.ProfileKey), req.Analyte)
		if err != nil {
			if err != repository.ErrLimitNotFound {
				return nil, fmt.Errorf("failed to resolve limit: %w", err)
			}
			s.logger.Debug("No exposure limit configured, record stays unclassified",
				zap.String("org_id", req.OrgID),
				zap.String("profile_key", *req.ProfileKey),
				zap.String("analyte", req.Analyte),
			)
		} else {
			limit = l
		}
	}

	cls := exposure.Classify(twa, limit, s.nearMissPercent)

	record := &domain.ExposureRecord{
		OrgID:           req.OrgID,
		PersonID:        req.PersonID,
		JobID:           req.JobID,
		AirSampleID:     req.AirSampleID,
		SampleRunID:     req.SampleRunID,
		Date:            NormalizeDate(req.Date),
		Analyte:         req.Analyte,
		DurationMinutes: req.DurationMinutes,
		Concentration:   req.Concentration,
		Units:           req.Units,
		Method:          req.Method,
		SampleType:      req.SampleType,
		TWA8hr:          twa,
		ProfileKey:      req.ProfileKey,
		LimitType:       cls.LimitType,
		LimitValue:      cls.LimitValue,
		PercentOfLimit:  cls.PercentOfLimit,
		ExceedanceFlag:  cls.ExceedanceFlag,
		NearMissFlag:    cls.NearMissFlag,
		SourceRefs:      serializeSourceRefs(req.SourceRefs),
		CreatedByUserID: req.UserID,
		UpdatedByUserID: req.UserID,
	}

	// 留痕判断需要写前版本；upsert 本身仍是单条原子语句，
	// 并发下最坏情况是日志少记一版，不影响当前记录的正确性
	var prevVersion int
	if req.AirSampleID != nil && *req.AirSampleID != "" {
		prev, err := s.recordsRepo.GetByAirSample(ctx, req.OrgID, *req.AirSampleID)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			prevVersion = prev.ComputedVersion
		}
	}

	saved, err := s.recordsRepo.UpsertByAirSample(ctx, record)
	if err != nil {
		return nil, err
	}

	if req.AirSampleID != nil && *req.AirSampleID != "" && saved.ComputedVersion != prevVersion {
		entry := &domain.ExposureRecomputeLog{
			OrgID:           saved.OrgID,
			AirSampleID:     *req.AirSampleID,
			ComputedVersion: saved.ComputedVersion,
			TWA8hr:          saved.TWA8hr,
			PercentOfLimit:  saved.PercentOfLimit,
			ExceedanceFlag:  saved.ExceedanceFlag,
			NearMissFlag:    saved.NearMissFlag,
			RecordedBy:      req.UserID,
		}
		if err := s.recordsRepo.AppendRecomputeLog(ctx, entry); err != nil {
			// 日志失败不回滚记录本身
			s.logger.Error("Failed to append recompute log",
				zap.String("air_sample_id", *req.AirSampleID),
				zap.Int("computed_version", saved.ComputedVersion),
				zap.Error(err),
			)
		}
	}

	if saved.ExceedanceFlag {
		s.logger.Warn("Exposure exceedance recorded",
			zap.String("org_id", saved.OrgID),
			zap.String("person_id", saved.PersonID),
			zap.String("analyte", saved.Analyte),
			zap.Float64p("percent_of_limit", saved.PercentOfLimit),
		)
	}

	return saved, nil
}

// GetRecomputeHistory 按样本读取历史判定
func (s *exposureService) GetRecomputeHistory(ctx context.Context, orgID, airSampleID string) ([]*domain.ExposureRecomputeLog, error) {
	return s.recordsRepo.ListRecomputeLog(ctx, orgID, airSampleID)
}

// NormalizeDate 宽容的日期归一化
// 接受 time.Time / *time.Time / epoch 毫秒（整数或浮点）/ 可解析的日期字符串；
// 其余输入（nil、空串、解析失败）一律返回 nil（"无日期"），不报错
func NormalizeDate(v any) *time.Time {
	switch d := v.(type) {
	case nil:
		return nil
	case time.Time:
		if d.IsZero() {
			return nil
		}
		return &d
	case *time.Time:
		if d == nil || d.IsZero() {
			return nil
		}
		return d
	case int64:
		return epochMillisToTime(d)
	case int:
		return epochMillisToTime(int64(d))
	case float64:
		// JSON 数字解码默认是 float64
		return epochMillisToTime(int64(d))
	case json.Number:
		if ms, err := d.Int64(); err == nil {
			return epochMillisToTime(ms)
		}
		return nil
	case string:
		return parseDateString(d)
	default:
		return nil
	}
}

func epochMillisToTime(ms int64) *time.Time {
	if ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func parseDateString(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	// 纯数字字符串按 epoch 毫秒处理（实验室导出常见格式）
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return epochMillisToTime(ms)
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// serializeSourceRefs 把自由结构的来源引用序列化为 JSON 字符串
func serializeSourceRefs(v any) *string {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return nil
		}
		return &s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	s := string(data)
	return &s
}
