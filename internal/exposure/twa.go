// Package exposure 实现职业暴露计算引擎的纯计算部分：
// 8 小时时间加权平均（TWA）换算与限值判定。
package exposure

// ShiftMinutes 标准班次时长（8 小时）
const ShiftMinutes = 480.0

// ComputeTWA8hr 将原始浓度按采样时长折算为 8 小时 TWA
//
//	twa = concentration * durationMinutes / 480
//
// durationMinutes <= 0 或浓度缺失时返回 nil（"无法计算"，不得当作 0 暴露）。
// 加班（>480 分钟）不封顶，按比例放大。结果不做舍入，展示舍入由前端负责。
func ComputeTWA8hr(concentration *float64, durationMinutes int) *float64 {
	if concentration == nil || durationMinutes <= 0 {
		return nil
	}
	twa := *concentration * float64(durationMinutes) / ShiftMinutes
	return &twa
}
