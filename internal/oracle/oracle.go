package oracle

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/amilz/mad-raffle/internal/model"
	"github.com/amilz/mad-raffle/internal/platform/config"
	"github.com/amilz/mad-raffle/internal/platform/database"
)

// PriceSample 是外部发布进程写入Redis的价格样本。
// 价格本身只作为熵源使用，数值含义无关紧要。
type PriceSample struct {
	// Timestamp 是样本的Unix秒级时间戳
	Timestamp int64 `json:"timestamp"`
	// Value 是价格数值（最小计价单位）
	Value uint64 `json:"value"`
}

// ReadEntropy 从Redis中读取最新的价格样本并做新鲜度校验。
// 样本缺失或超出滞后窗口时返回ErrOracleStale。
func ReadEntropy(cfg config.OracleConfig) (int64, uint64, error) {
	raw, err := database.RDB.Get(database.Ctx, cfg.PriceFeedKey).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: 无法读取价格样本: %v", model.ErrOracleStale, err)
	}

	var sample PriceSample
	if err := json.Unmarshal([]byte(raw), &sample); err != nil {
		return 0, 0, fmt.Errorf("%w: 价格样本格式错误: %v", model.ErrOracleStale, err)
	}

	if err := CheckFreshness(sample, time.Now().Unix(), cfg.StalenessThresholdSeconds); err != nil {
		return 0, 0, err
	}

	return sample.Timestamp, sample.Value, nil
}

// CheckFreshness 校验样本是否落在允许的滞后窗口内
func CheckFreshness(sample PriceSample, now int64, thresholdSeconds int64) error {
	if now-sample.Timestamp > thresholdSeconds {
		return fmt.Errorf("%w: 样本时间 %d 超出 %d 秒窗口", model.ErrOracleStale, sample.Timestamp, thresholdSeconds)
	}
	return nil
}

// PublishSample 将一个价格样本写入Redis。
// 正式部署中由独立的价格发布进程调用，这里同时供测试与管理接口使用。
func PublishSample(cfg config.OracleConfig, sample PriceSample) error {
	raw, err := json.Marshal(sample)
	if err != nil {
		return err
	}
	return database.RDB.Set(database.Ctx, cfg.PriceFeedKey, raw, 0).Err()
}
