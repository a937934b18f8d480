package tracker

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

const singletonID = 1

// Initialize 幂等地创建追踪器记录。
// 首次部署时CurrentRaffle为0，第一轮创建后变为1。
func Initialize(db *gorm.DB) error {
	var t RaffleTracker
	err := db.First(&t, singletonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		t = RaffleTracker{ID: singletonID, CurrentRaffle: 0}
		if err := db.Create(&t).Error; err != nil {
			return fmt.Errorf("无法创建轮次追踪器: %w", err)
		}
		return nil
	}
	return err
}

// Get 读取追踪器的当前状态
func Get(db *gorm.DB) (*RaffleTracker, error) {
	var t RaffleTracker
	if err := db.First(&t, singletonID).Error; err != nil {
		return nil, fmt.Errorf("无法读取轮次追踪器: %w", err)
	}
	return &t, nil
}

// GetForUpdate 在写事务中读取追踪器，调用方随后的Increment
// 必须发生在同一个事务中。对同一资源的变更由宿主环境保证
// 单写者串行，这里不再附加行锁。
func GetForUpdate(tx *gorm.DB) (*RaffleTracker, error) {
	var t RaffleTracker
	if err := tx.First(&t, singletonID).Error; err != nil {
		return nil, fmt.Errorf("无法读取轮次追踪器: %w", err)
	}
	return &t, nil
}

// Increment 在事务中将CurrentRaffle加一。
// 它只能与下一轮的创建出现在同一个事务里：计数器递增而新轮次
// 不存在的状态一旦落库，整个系统将无法再接受购票。
func Increment(tx *gorm.DB, t *RaffleTracker) error {
	t.CurrentRaffle++
	return tx.Model(&RaffleTracker{}).Where("id = ?", singletonID).
		Update("current_raffle", t.CurrentRaffle).Error
}
