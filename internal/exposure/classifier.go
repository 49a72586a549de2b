package exposure

import "ehs-data/internal/domain"

// DefaultNearMissPercent 接近超标告警阈值（占限值百分比）
const DefaultNearMissPercent = 80.0

// LimitPriority 限值选取顺序。法规上通常一个 profile 只配置一种限值；
// 多个同时配置时按此顺序取第一个非空值。顺序可调整而不影响其他代码。
var LimitPriority = []string{
	domain.LimitTypePEL,
	domain.LimitTypeActionLevel,
	domain.LimitTypeREL,
}

// Classification 限值判定结果
// Percent 为空表示"未判定"（缺 TWA 或未配置限值），此时两个标志必须为 false
type Classification struct {
	PercentOfLimit *float64
	ExceedanceFlag bool
	NearMissFlag   bool
	LimitType      *string
	LimitValue     *float64
}

// SelectLimit 按 LimitPriority 从限值配置中取第一个非空限值
func SelectLimit(limit *domain.ExposureLimit) (limitType string, limitValue *float64) {
	if limit == nil {
		return "", nil
	}
	for _, lt := range LimitPriority {
		switch lt {
		case domain.LimitTypePEL:
			if limit.PEL != nil {
				return lt, limit.PEL
			}
		case domain.LimitTypeActionLevel:
			if limit.ActionLevel != nil {
				return lt, limit.ActionLevel
			}
		case domain.LimitTypeREL:
			if limit.REL != nil {
				return lt, limit.REL
			}
		}
	}
	return "", nil
}

// Classify 将 TWA 与限值配置比较，产出占限值百分比及超标/接近超标标志
//
// 判定规则：
//   - percent = twa / limitValue * 100（两者都存在且 limitValue > 0 时）
//   - exceedance: percent >= 100
//   - near-miss:  !exceedance && percent >= nearMissPercent（默认 80）
//   - twa 为空、限值未配置或限值 <= 0 ⇒ 未判定（percent 为空，标志全 false）
//
// nearMissPercent <= 0 时使用 DefaultNearMissPercent。
func Classify(twa *float64, limit *domain.ExposureLimit, nearMissPercent float64) Classification {
	if nearMissPercent <= 0 {
		nearMissPercent = DefaultNearMissPercent
	}

	limitType, limitValue := SelectLimit(limit)

	c := Classification{}
	if limitValue != nil {
		c.LimitType = &limitType
		c.LimitValue = limitValue
	}

	// 缺 TWA 或缺限值 ⇒ 未判定，不得当作合格
	if twa == nil || limitValue == nil || *limitValue <= 0 {
		return c
	}

	percent := *twa / *limitValue * 100
	c.PercentOfLimit = &percent
	c.ExceedanceFlag = percent >= 100
	c.NearMissFlag = !c.ExceedanceFlag && percent >= nearMissPercent
	return c
}
