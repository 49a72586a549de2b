package service

import (
	"context"
	"sort"
	"time"

	"ehs-data/internal/domain"
	"ehs-data/internal/repository"

	"go.uber.org/zap"
)

// PersonExposureSummaryRow 人员暴露汇总行（派生数据，不落库）
type PersonExposureSummaryRow struct {
	Analyte     string   `json:"analyte"`
	Count       int      `json:"count"`
	MaxTWA      *float64 `json:"max_twa"`
	AvgTWA      *float64 `json:"avg_twa"`
	Exceedances int      `json:"exceedances"`
	NearMisses  int      `json:"near_misses"`
}

// 时间窗口取值（personnel 页面的筛选器）
const (
	WindowLast12Months = "last12m"
	WindowYearToDate   = "ytd"
	WindowAll          = "all"
)

// SummaryService 人员暴露汇总服务接口
type SummaryService interface {
	// GetExposureRecordsForPerson 按机构+人员查询暴露记录（最近在前）
	GetExposureRecordsForPerson(ctx context.Context, orgID, personID string, filters repository.ExposureRecordFilters) ([]*domain.ExposureRecord, error)

	// GetPersonExposureSummary 查询并按 analyte 汇总
	GetPersonExposureSummary(ctx context.Context, orgID, personID string, filters repository.ExposureRecordFilters) ([]PersonExposureSummaryRow, error)
}

// summaryService 实现
type summaryService struct {
	recordsRepo repository.ExposureRecordsRepository
	logger      *zap.Logger
}

// NewSummaryService 创建 SummaryService 实例
func NewSummaryService(recordsRepo repository.ExposureRecordsRepository, logger *zap.Logger) SummaryService {
	return &summaryService{
		recordsRepo: recordsRepo,
		logger:      logger,
	}
}

func (s *summaryService) GetExposureRecordsForPerson(ctx context.Context, orgID, personID string, filters repository.ExposureRecordFilters) ([]*domain.ExposureRecord, error) {
	return s.recordsRepo.ListForPerson(ctx, orgID, personID, filters)
}

func (s *summaryService) GetPersonExposureSummary(ctx context.Context, orgID, personID string, filters repository.ExposureRecordFilters) ([]PersonExposureSummaryRow, error) {
	records, err := s.recordsRepo.ListForPerson(ctx, orgID, personID, filters)
	if err != nil {
		return nil, err
	}
	return Summarize(records), nil
}

// Summarize 按原始 analyte 字符串分组汇总
// 不做大小写/同义词归一——analyte 词表的一致性由上游录入负责。
// TWA 为空的记录计入 count，但不参与 max/avg；整组都为空时 max/avg 为 nil
func Summarize(records []*domain.ExposureRecord) []PersonExposureSummaryRow {
	byAnalyte := make(map[string]*PersonExposureSummaryRow)
	twaSums := make(map[string]float64)
	twaCounts := make(map[string]int)

	for _, rec := range records {
		row, ok := byAnalyte[rec.Analyte]
		if !ok {
			row = &PersonExposureSummaryRow{Analyte: rec.Analyte}
			byAnalyte[rec.Analyte] = row
		}
		row.Count++
		if rec.ExceedanceFlag {
			row.Exceedances++
		}
		if rec.NearMissFlag {
			row.NearMisses++
		}
		if rec.TWA8hr != nil {
			twa := *rec.TWA8hr
			if row.MaxTWA == nil || twa > *row.MaxTWA {
				row.MaxTWA = &twa
			}
			twaSums[rec.Analyte] += twa
			twaCounts[rec.Analyte]++
		}
	}

	rows := make([]PersonExposureSummaryRow, 0, len(byAnalyte))
	for analyte, row := range byAnalyte {
		if n := twaCounts[analyte]; n > 0 {
			avg := twaSums[analyte] / float64(n)
			row.AvgTWA = &avg
		}
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Analyte < rows[j].Analyte })
	return rows
}

// ResolveWindow 把页面筛选器的时间窗口换算为日期边界
// 未识别的取值按 all 处理（不加边界）
func ResolveWindow(window string, now time.Time) (from, to *time.Time) {
	switch window {
	case WindowLast12Months:
		f := now.AddDate(-1, 0, 0)
		return &f, &now
	case WindowYearToDate:
		f := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return &f, &now
	default:
		return nil, nil
	}
}
