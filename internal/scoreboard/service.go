package scoreboard

import (
	"errors"
	"fmt"
	"math"

	"github.com/amilz/mad-raffle/internal/model"
	"github.com/amilz/mad-raffle/internal/platform/database"
	"github.com/amilz/mad-raffle/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AddPoints 在事务中为参与者累计积分。
// basePoints会乘以当前轮次的早鸟倍率；积分溢出视为算术错误，
// 整个调用方事务必须回滚。
func AddPoints(tx *gorm.DB, participant string, basePoints uint32, raffleID uint64) error {
	multiplier := Multiplier(raffleID)
	if basePoints != 0 && multiplier > math.MaxUint32/basePoints {
		return model.ErrArithmetic
	}
	pointsToAdd := basePoints * multiplier

	var entry UserPoints
	err := tx.Where("participant = ?", participant).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		entry = UserPoints{Participant: participant, Points: pointsToAdd}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("无法创建积分记录: %w", err)
		}
		return nil
	}
	if err != nil {
		return err
	}

	if entry.Points > math.MaxUint32-pointsToAdd {
		return model.ErrArithmetic
	}
	newPoints := entry.Points + pointsToAdd
	return tx.Model(&UserPoints{}).Where("participant = ?", participant).
		Update("points", newPoints).Error
}

// SyncRankingCache 将参与者的最新积分写入Redis排行。
// 缓存更新失败只记录告警，不影响已提交的事务；
// 排行会在下一次健康检查重建时恢复一致。
func SyncRankingCache(db *gorm.DB, participant string) {
	if database.RDB == nil || !database.IsRedisHealthy() {
		return
	}

	var entry UserPoints
	if err := db.Where("participant = ?", participant).First(&entry).Error; err != nil {
		return
	}

	RLockRepository()
	defer RUnlockRepository()

	err := database.RDB.ZAdd(database.Ctx, RankingKey, redis.Z{
		Score:  float64(entry.Points),
		Member: entry.Participant,
	}).Err()
	if err != nil {
		logger.Warn("积分排行缓存更新失败", zap.String("participant", participant), zap.Error(err))
	}
}

// RankingEntry 是排行查询的返回条目
type RankingEntry struct {
	Participant string `json:"participant"`
	Points      uint32 `json:"points"`
	Rank        int    `json:"rank"`
}

// GetRanking 返回积分排行（从高到低）。
// Redis可用时走缓存，否则降级为SQLite查询。
func GetRanking(db *gorm.DB, limit int) ([]RankingEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	if database.RDB != nil && database.IsRedisHealthy() {
		RLockRepository()
		defer RUnlockRepository()

		zs, err := database.RDB.ZRevRangeWithScores(database.Ctx, RankingKey, 0, int64(limit-1)).Result()
		if err == nil {
			entries := make([]RankingEntry, 0, len(zs))
			for i, z := range zs {
				member, _ := z.Member.(string)
				entries = append(entries, RankingEntry{
					Participant: member,
					Points:      uint32(z.Score),
					Rank:        i + 1,
				})
			}
			return entries, nil
		}
		logger.Warn("积分排行缓存读取失败，降级为数据库查询", zap.Error(err))
	}

	var rows []UserPoints
	if err := db.Order("points DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]RankingEntry, 0, len(rows))
	for i, row := range rows {
		entries = append(entries, RankingEntry{Participant: row.Participant, Points: row.Points, Rank: i + 1})
	}
	return entries, nil
}

// WarmupCache 用SQLite中的全量积分重建Redis排行。
// 调用方需要先持有模块写锁。
func WarmupCache(db *gorm.DB) error {
	var rows []UserPoints
	if err := db.Find(&rows).Error; err != nil {
		return fmt.Errorf("无法读取积分全量数据: %w", err)
	}

	pipe := database.RDB.Pipeline()
	pipe.Del(database.Ctx, RankingKey)
	for _, row := range rows {
		pipe.ZAdd(database.Ctx, RankingKey, redis.Z{
			Score:  float64(row.Points),
			Member: row.Participant,
		})
	}
	if _, err := pipe.Exec(database.Ctx); err != nil {
		return fmt.Errorf("重建积分排行缓存失败: %w", err)
	}
	return nil
}
