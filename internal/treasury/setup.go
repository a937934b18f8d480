package treasury

import (
	"errors"
	"fmt"

	"github.com/amilz/mad-raffle/internal/platform/config"
	"gorm.io/gorm"
)

// PrimeDB 负责初始化treasury模块的数据库部分，
// 并确保各费用金库账户存在。
func PrimeDB(db *gorm.DB, cfg config.RaffleConfig) error {
	if err := db.AutoMigrate(&Account{}); err != nil {
		return fmt.Errorf("无法迁移account表: %w", err)
	}

	for _, vault := range []string{cfg.FeeVault, cfg.SuperRaffleVault} {
		if vault == "" {
			continue
		}
		var account Account
		err := db.Where("address = ?", vault).First(&account).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := db.Create(&Account{Address: vault}).Error; err != nil {
				return fmt.Errorf("无法创建金库账户 %s: %w", vault, err)
			}
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
