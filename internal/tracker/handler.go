package tracker

import (
	"net/http"

	"github.com/amilz/mad-raffle/internal/platform/database"
	"github.com/gin-gonic/gin"
)

// GetTracker 返回全局轮次追踪器的当前状态
func GetTracker(c *gin.Context) {
	t, err := Get(database.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法读取轮次追踪器"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"current_raffle": t.CurrentRaffle,
		"next_raffle":    t.NextRaffleID(),
	})
}
