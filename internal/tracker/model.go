package tracker

import "time"

// RaffleTracker 定义了全局轮次追踪器的持久化模型。
// 这张表中应该只有一条记录（ID恒为1），它是轮次编号的唯一分配者。
type RaffleTracker struct {
	ID uint `gorm:"primarykey"`

	// CurrentRaffle 是当前活跃轮次的编号，严格单调递增，
	// 每成功关闭一轮恰好加一，永不回退。
	CurrentRaffle uint64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NextRaffleID 返回下一轮的编号。
// 原实现用它派生下一轮账户的种子地址；这里坍缩为下一个主键。
func (t *RaffleTracker) NextRaffleID() uint64 {
	return t.CurrentRaffle + 1
}
