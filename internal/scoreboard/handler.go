package scoreboard

import (
	"net/http"
	"strconv"

	"github.com/amilz/mad-raffle/internal/platform/database"
	"github.com/gin-gonic/gin"
)

// GetScoreboard 处理积分排行查询请求
func GetScoreboard(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit参数格式错误"})
		return
	}

	entries, err := GetRanking(database.DB, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取积分排行"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"scoreboard": entries})
}
