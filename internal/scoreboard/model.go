package scoreboard

import "time"

// UserPoints 定义了跨轮次累积的忠诚度积分的持久化模型。
// 它的生命周期独立于任何单独的轮次，积分只增不减、永不重置。
type UserPoints struct {
	// Participant 是参与者的地址，作为主键
	Participant string `gorm:"primarykey;type:varchar(64)"`

	// Points 是参与者的累积积分
	Points uint32

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Multiplier 返回第n轮的积分倍率。
// 倍率从第1轮的10倍线性衰减到第99轮的1倍，之后恒为1倍，
// 用以奖励早期参与者；全部使用整数运算。
func Multiplier(raffleID uint64) uint32 {
	if raffleID == 0 {
		return 1
	}
	if raffleID < 100 {
		return uint32(10 - (raffleID-1)*9/99)
	}
	return 1
}
