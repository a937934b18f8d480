package treasury

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Account 定义了资金账户在SQLite数据库中的持久化模型。
// 每个参与者、每个轮次的奖池以及各费用金库都对应一行记录。
// 原实现中的"账户地址由种子派生"在这里坍缩为字符串主键。
type Account struct {
	// Address 是账户的主键，例如 "raffle:7" 或 "vault:fee"
	Address string `gorm:"primarykey;type:varchar(64)"`

	// Balance 是账户当前余额（最小货币单位）
	Balance uint64

	// 部分gorm.Model，由GORM自动管理
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// PoolAddress 返回指定轮次奖池账户的地址
func PoolAddress(raffleID uint64) string {
	return "raffle:" + strconv.FormatUint(raffleID, 10)
}
