package raffle

import (
	"errors"
	"fmt"

	"github.com/amilz/mad-raffle/internal/model"
	"gorm.io/gorm"
)

// PrimeDB 负责初始化raffle模块的数据库部分，
// 并保证系统中始终存在一个可售票的轮次。
func PrimeDB(db *gorm.DB) error {
	if err := db.AutoMigrate(&Raffle{}, &TicketHolder{}); err != nil {
		return fmt.Errorf("无法迁移raffle表: %w", err)
	}

	// 首次部署（或上次关轮事务从未发生）时开启第一轮
	if _, err := CreateRaffle(db); err != nil {
		if errors.Is(err, model.ErrAlreadyActive) {
			return nil
		}
		return err
	}
	return nil
}
