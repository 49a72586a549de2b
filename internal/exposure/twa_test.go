package exposure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func TestComputeTWA8hr_HalfShift(t *testing.T) {
	// 240 分钟 @ 0.2 ⇒ 0.1
	twa := ComputeTWA8hr(floatPtr(0.2), 240)
	require.NotNil(t, twa)
	assert.InDelta(t, 0.1, *twa, 1e-9)
}

func TestComputeTWA8hr_FullShift(t *testing.T) {
	twa := ComputeTWA8hr(floatPtr(0.05), 480)
	require.NotNil(t, twa)
	assert.InDelta(t, 0.05, *twa, 1e-9)
}

func TestComputeTWA8hr_Overtime(t *testing.T) {
	// 加班不封顶：600 分钟按比例放大
	twa := ComputeTWA8hr(floatPtr(0.1), 600)
	require.NotNil(t, twa)
	assert.InDelta(t, 0.125, *twa, 1e-9)
}

func TestComputeTWA8hr_ZeroDuration(t *testing.T) {
	// 无法计时的样本不得按"无暴露"处理
	assert.Nil(t, ComputeTWA8hr(floatPtr(0.2), 0))
	assert.Nil(t, ComputeTWA8hr(floatPtr(0.2), -30))
}

func TestComputeTWA8hr_MissingConcentration(t *testing.T) {
	assert.Nil(t, ComputeTWA8hr(nil, 240))
}
