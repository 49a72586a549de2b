package service

import (
	"context"
	"strings"

	"ehs-data/internal/domain"
	"ehs-data/internal/repository"

	"go.uber.org/zap"
)

// MatchConfidence 样本身份归属的置信级别
// direct: 结构化 person_id 关联（权威）
// name-fallback: 仅凭 monitor_worn_by 自由文本同名推断（供回填建议，不直接入账）
type MatchConfidence string

const (
	MatchDirect       MatchConfidence = "direct"
	MatchNameFallback MatchConfidence = "name-fallback"
)

// SampleIdentity 样本身份归属结果
type SampleIdentity struct {
	PersonID    string          `json:"person_id,omitempty"`    // direct 时有值
	MonitorName string          `json:"monitor_name,omitempty"` // name-fallback 时有值（小写去空白）
	Confidence  MatchConfidence `json:"confidence"`
}

// IdentityService 样本身份归属服务接口
type IdentityService interface {
	// ResolveSampleIdentity 判定单条样本的身份归属；两条路径都不成立时返回 nil
	ResolveSampleIdentity(sample *domain.AirSample) *SampleIdentity

	// GetAirSamplesForPerson 直接关联路径的样本查询
	GetAirSamplesForPerson(ctx context.Context, orgID, personID string) ([]*domain.AirSample, error)

	// GetAirSamplesForMonitorName 姓名回退路径的样本查询（结构上排除已关联样本）
	GetAirSamplesForMonitorName(ctx context.Context, orgID, name string) ([]*domain.AirSample, error)

	// GetPersonSampleStats 按 person_id 聚合采样统计
	GetPersonSampleStats(ctx context.Context, orgID string) ([]*domain.AirSampleStats, error)

	// GetUnlinkedMonitorCandidates 按 monitor 名聚合未关联样本统计，
	// 供上游提示"可把历史样本回填到某人名下"；本服务不执行回填写入
	GetUnlinkedMonitorCandidates(ctx context.Context, orgID string) ([]*domain.AirSampleStats, error)
}

// identityService 实现
type identityService struct {
	samplesRepo repository.AirSamplesRepository
	logger      *zap.Logger
}

// NewIdentityService 创建 IdentityService 实例
func NewIdentityService(samplesRepo repository.AirSamplesRepository, logger *zap.Logger) IdentityService {
	return &identityService{
		samplesRepo: samplesRepo,
		logger:      logger,
	}
}

// noNameMarker 采样员表示"没有人佩戴"的习惯写法
const noNameMarker = "n/a"

// ResolveSampleIdentity 判定样本归属
//
// 规则（与 AirSamplesRepository 的 SQL 谓词一致）：
//  1. person_id 去空白后非空 ⇒ direct，权威关联
//  2. 否则 monitor_worn_by 非空、非 "n/a"、且为 personal/excursion 采样 ⇒ name-fallback
//  3. 都不满足 ⇒ nil（区域采样或完全无身份信息）
func (s *identityService) ResolveSampleIdentity(sample *domain.AirSample) *SampleIdentity {
	if sample == nil {
		return nil
	}

	if sample.PersonID != nil {
		if pid := strings.TrimSpace(*sample.PersonID); pid != "" {
			return &SampleIdentity{PersonID: pid, Confidence: MatchDirect}
		}
	}

	if sample.SampleType != domain.SampleTypePersonal && sample.SampleType != domain.SampleTypeExcursion {
		return nil
	}
	if sample.MonitorWornBy == nil {
		return nil
	}
	name := strings.ToLower(strings.TrimSpace(*sample.MonitorWornBy))
	if name == "" || name == noNameMarker {
		return nil
	}
	return &SampleIdentity{MonitorName: name, Confidence: MatchNameFallback}
}

func (s *identityService) GetAirSamplesForPerson(ctx context.Context, orgID, personID string) ([]*domain.AirSample, error) {
	return s.samplesRepo.GetAirSamplesForPersonInOrg(ctx, orgID, personID)
}

func (s *identityService) GetAirSamplesForMonitorName(ctx context.Context, orgID, name string) ([]*domain.AirSample, error) {
	return s.samplesRepo.GetAirSamplesForMonitorNameInOrg(ctx, orgID, name)
}

func (s *identityService) GetPersonSampleStats(ctx context.Context, orgID string) ([]*domain.AirSampleStats, error) {
	return s.samplesRepo.GetAirSampleStatsByPerson(ctx, orgID)
}

func (s *identityService) GetUnlinkedMonitorCandidates(ctx context.Context, orgID string) ([]*domain.AirSampleStats, error) {
	return s.samplesRepo.GetAirSampleStatsByMonitorName(ctx, orgID)
}
