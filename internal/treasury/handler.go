package treasury

import (
	"net/http"

	"github.com/amilz/mad-raffle/internal/platform/database"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreditRequestBody 定义了管理员充值请求体的JSON结构
type CreditRequestBody struct {
	Address string `json:"address" binding:"required"`
	Amount  uint64 `json:"amount" binding:"required"`
}

// GetAccount 返回账户余额
func GetAccount(c *gin.Context) {
	address := c.Param("address")
	balance, err := Balance(database.DB, address)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法读取账户余额"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address, "balance": balance})
}

// SubmitCredit 处理管理员向账户注资的请求
func SubmitCredit(c *gin.Context) {
	var body CreditRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		return Credit(tx, body.Address, body.Amount)
	})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": body.Address, "amount": body.Amount})
}
