package tracker

import (
	"fmt"

	"gorm.io/gorm"
)

// PrimeDB 负责初始化tracker模块的数据库部分
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&RaffleTracker{}); err != nil {
		return fmt.Errorf("无法迁移tracker表: %w", err)
	}
	return Initialize(db)
}
