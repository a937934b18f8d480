package scoreboard

import (
	"fmt"

	"gorm.io/gorm"
)

// PrimeDB 负责初始化scoreboard模块的数据库部分
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&UserPoints{}); err != nil {
		return fmt.Errorf("无法迁移scoreboard表: %w", err)
	}
	return nil
}

// PrimeCache 在启动时重建一次积分排行缓存
func PrimeCache(db *gorm.DB) error {
	LockRepository()
	defer UnlockRepository()
	return WarmupCache(db)
}
