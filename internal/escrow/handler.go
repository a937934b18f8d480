package escrow

import (
	"net/http"

	"github.com/amilz/mad-raffle/internal/platform/config"
	"github.com/amilz/mad-raffle/internal/platform/database"
	"github.com/gin-gonic/gin"
)

// RegisterAssetRequestBody 定义了资产登记请求体的JSON结构
type RegisterAssetRequestBody struct {
	AssetID    string `json:"asset_id" binding:"required"`
	Collection string `json:"collection"`
	Verified   bool   `json:"verified"`
	Owner      string `json:"owner" binding:"required"`
	RoyaltyBps uint16 `json:"royalty_bps"`
	Creators   []struct {
		Address string `json:"address" binding:"required"`
		Share   uint8  `json:"share"`
	} `json:"creators"`
}

// SubmitRegisterAsset 处理管理员登记奖品资产的请求
func SubmitRegisterAsset(c *gin.Context) {
	var body RegisterAssetRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	royaltyBps := body.RoyaltyBps
	if royaltyBps == 0 {
		// 未提供版税信息时采用部署默认值
		royaltyBps = config.Cfg.Raffle.DefaultRoyaltyBps
	}

	asset := Asset{
		AssetID:    body.AssetID,
		Collection: body.Collection,
		Verified:   body.Verified,
		Owner:      body.Owner,
		RoyaltyBps: royaltyBps,
	}
	for _, creator := range body.Creators {
		asset.Creators = append(asset.Creators, CreatorShare{
			AssetID: body.AssetID,
			Address: creator.Address,
			Share:   creator.Share,
		})
	}

	if err := Register(database.DB, &asset); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"asset_id": body.AssetID})
}
