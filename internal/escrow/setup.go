package escrow

import (
	"fmt"

	"gorm.io/gorm"
)

// PrimeDB 负责初始化escrow模块的数据库部分
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Asset{}, &CreatorShare{}); err != nil {
		return fmt.Errorf("无法迁移asset表: %w", err)
	}
	return nil
}
