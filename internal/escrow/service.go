package escrow

import (
	"errors"
	"fmt"

	"github.com/amilz/mad-raffle/internal/model"
	"gorm.io/gorm"
)

// Handle 是一次托管操作的回执，结算时凭它完成交割
type Handle struct {
	AssetID string
	// EscrowAccount 是名义上的托管账户地址
	EscrowAccount string
}

// Escrow 将卖家的资产转入托管。
// 资产必须登记在册、通过集合认证且归卖家所有，否则返回ErrInvalidAssetReference。
func Escrow(tx *gorm.DB, assetID, owner, collection string) (*Handle, error) {
	asset, err := loadAsset(tx, assetID)
	if err != nil {
		return nil, err
	}
	if !asset.Verified {
		return nil, fmt.Errorf("%w: 资产 %s 未通过集合认证", model.ErrInvalidAssetReference, assetID)
	}
	if collection != "" && asset.Collection != collection {
		return nil, fmt.Errorf("%w: 资产 %s 不属于集合 %s", model.ErrInvalidAssetReference, assetID, collection)
	}
	if asset.Owner != owner {
		return nil, fmt.Errorf("%w: 资产 %s 不属于 %s", model.ErrInvalidAssetReference, assetID, owner)
	}
	if asset.Escrowed {
		return nil, fmt.Errorf("%w: 资产 %s 已处于托管中", model.ErrInvalidAssetReference, assetID)
	}

	escrowAccount := "escrow:" + assetID
	err = tx.Model(&Asset{}).Where("asset_id = ?", assetID).
		Updates(map[string]interface{}{"escrowed": true, "owner": escrowAccount}).Error
	if err != nil {
		return nil, err
	}

	return &Handle{AssetID: assetID, EscrowAccount: escrowAccount}, nil
}

// Deliver 将托管中的资产交割给中奖者。
// 核心只记录所有权转移；任何失败都以ErrAssetDeliveryFailed包装返回。
func Deliver(tx *gorm.DB, assetID, recipient string) error {
	asset, err := loadAsset(tx, assetID)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrAssetDeliveryFailed, err)
	}
	if !asset.Escrowed {
		return fmt.Errorf("%w: 资产 %s 不在托管中", model.ErrAssetDeliveryFailed, assetID)
	}

	err = tx.Model(&Asset{}).Where("asset_id = ?", assetID).
		Updates(map[string]interface{}{"escrowed": false, "owner": recipient}).Error
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrAssetDeliveryFailed, err)
	}
	return nil
}

// RoyaltyInfo 返回资产的版税率与创作者分成列表
func RoyaltyInfo(db *gorm.DB, assetID string) (uint16, []CreatorShare, error) {
	asset, err := loadAsset(db, assetID)
	if err != nil {
		return 0, nil, err
	}
	var creators []CreatorShare
	if err := db.Where("asset_id = ?", assetID).Order("id ASC").Find(&creators).Error; err != nil {
		return 0, nil, err
	}
	if len(creators) > MaxCreators {
		creators = creators[:MaxCreators]
	}
	return asset.RoyaltyBps, creators, nil
}

// Register 登记一个新的资产记录（管理接口使用）
func Register(db *gorm.DB, asset *Asset) error {
	if len(asset.Creators) > MaxCreators {
		return fmt.Errorf("%w: 创作者数量超过上限", model.ErrInvalidAssetReference)
	}
	return db.Create(asset).Error
}

func loadAsset(db *gorm.DB, assetID string) (*Asset, error) {
	var asset Asset
	err := db.Where("asset_id = ?", assetID).First(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 资产 %s 未登记", model.ErrInvalidAssetReference, assetID)
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}
