package escrow

import (
	"time"

	"gorm.io/gorm"
)

// Asset 定义了可作为奖品的非同质化资产的登记模型。
// 原实现中的元数据账户（集合归属、版税、创作者分成）在这里
// 合并为一行记录；授权规则校验等签名机制不属于本核心。
type Asset struct {
	// AssetID 是资产的唯一标识
	AssetID string `gorm:"primarykey;type:varchar(64)"`

	// Collection 是资产所属的集合标识
	Collection string `gorm:"index"`

	// Verified 表示资产是否已通过集合认证
	Verified bool

	// Owner 是资产当前的所有者地址
	Owner string

	// Escrowed 表示资产是否处于托管状态
	Escrowed bool

	// RoyaltyBps 是资产的版税率（基点，0-10000）
	RoyaltyBps uint16

	// Creators 是资产的创作者分成列表（最多五位）
	Creators []CreatorShare `gorm:"foreignKey:AssetID;references:AssetID"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// CreatorShare 定义了单个创作者的版税分成
type CreatorShare struct {
	ID      uint   `gorm:"primarykey"`
	AssetID string `gorm:"index;type:varchar(64)"`

	// Address 是创作者的收款账户地址
	Address string

	// Share 是创作者在版税池中的份额（0-100）
	Share uint8
}

// MaxCreators 是单个资产允许的创作者数量上限
const MaxCreators = 5
