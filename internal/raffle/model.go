package raffle

import (
	"time"

	"gorm.io/gorm"
)

// Status 定义了轮次生命周期的枚举类型
type Status string

const (
	// StatusActive 表示轮次正在售票
	StatusActive Status = "active"
	// StatusClosed 表示售票已结束但尚未开奖
	StatusClosed Status = "closed"
	// StatusWinnerDrawn 表示已开奖但奖品尚未交割
	StatusWinnerDrawn Status = "winner_drawn"
	// StatusSettled 表示奖品已交割，轮次成为只读历史记录
	StatusSettled Status = "settled"
)

// Raffle 定义了单个抽奖轮次的持久化模型。
// ID由全局追踪器分配，创建后即固定；每个ID槽位只属于一条记录。
type Raffle struct {
	// ID 是轮次编号，创建时必须等于追踪器的当前值
	ID uint64 `gorm:"primarykey;autoIncrement:false"`

	// Status 是轮次的生命周期状态
	Status Status `gorm:"index;type:varchar(16)"`

	// StartTime 是售票开始时间
	StartTime time.Time

	// EndTime 是售票结束时间，轮次关闭前为空
	EndTime *time.Time

	// Winner 是中奖者地址；开奖前为空，一经写入不可更改
	Winner *string `gorm:"type:varchar(64)"`

	// Seller 是提供奖品的卖家地址，关闭轮次时写入
	Seller *string `gorm:"type:varchar(64)"`

	// --- 奖品记录，关闭轮次并托管资产后出现 ---

	// PrizeAssetID 是托管奖品的资产标识
	PrizeAssetID *string `gorm:"type:varchar(64)"`

	// PrizeEscrowAccount 是奖品的托管账户地址
	PrizeEscrowAccount *string `gorm:"type:varchar(64)"`

	// PrizeDelivered 表示奖品是否已交割给中奖者
	PrizeDelivered bool

	// Tickets 是本轮的奖券台账，按首次购买顺序排列、每个参与者唯一
	Tickets []TicketHolder `gorm:"foreignKey:RaffleID;references:ID"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TicketHolder 定义了单个参与者在某一轮中的持票记录。
// 记录在参与者首次购票时创建，此后只递增Quantity，
// 在轮次归档前永不删除，行的插入顺序就是抽签的槽位顺序。
type TicketHolder struct {
	ID uint `gorm:"primarykey"`

	// RaffleID 是所属轮次的编号
	RaffleID uint64 `gorm:"uniqueIndex:idx_raffle_participant"`

	// Participant 是参与者地址
	Participant string `gorm:"uniqueIndex:idx_raffle_participant;type:varchar(64)"`

	// Quantity 是该参与者在本轮持有的奖券数量
	Quantity uint8

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TotalTickets 返回本轮售出的奖券总数
func (r *Raffle) TotalTickets() uint32 {
	var total uint32
	for _, holder := range r.Tickets {
		total += uint32(holder.Quantity)
	}
	return total
}

// HasPrize 返回本轮是否已登记托管奖品
func (r *Raffle) HasPrize() bool {
	return r.PrizeAssetID != nil
}
