package oracle

import (
	"testing"

	"github.com/amilz/mad-raffle/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestCheckFreshness(t *testing.T) {
	now := int64(1_700_000_000)

	// 窗口内
	assert.NoError(t, CheckFreshness(PriceSample{Timestamp: now - 30}, now, 60))
	// 恰好落在窗口边界
	assert.NoError(t, CheckFreshness(PriceSample{Timestamp: now - 60}, now, 60))
	// 超窗
	assert.ErrorIs(t, CheckFreshness(PriceSample{Timestamp: now - 61}, now, 60), model.ErrOracleStale)
	// 未来时间戳视为新鲜（发布进程时钟略快的正常情形）
	assert.NoError(t, CheckFreshness(PriceSample{Timestamp: now + 5}, now, 60))
}
