package oracle

import (
	"net/http"
	"time"

	"github.com/amilz/mad-raffle/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// PublishRequestBody 定义了价格样本发布请求体的JSON结构
type PublishRequestBody struct {
	Value     uint64 `json:"value" binding:"required"`
	Timestamp *int64 `json:"timestamp"`
}

// SubmitPublishSample 处理价格样本发布请求（管理/测试用途，
// 正式部署中由独立的价格发布进程直接写Redis）
func SubmitPublishSample(c *gin.Context) {
	var body PublishRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	timestamp := time.Now().Unix()
	if body.Timestamp != nil {
		timestamp = *body.Timestamp
	}

	sample := PriceSample{Timestamp: timestamp, Value: body.Value}
	if err := PublishSample(config.Cfg.Oracle, sample); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "价格样本发布失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"timestamp": timestamp, "value": body.Value})
}
