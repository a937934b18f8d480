package auth

import (
	"net/http"

	"github.com/amilz/mad-raffle/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// RequireAuthorityMiddleware 校验管理接口的准入密钥。
// 调用方必须在 X-Authority-Key 头中携带与部署配置一致的密钥；
// 密钥未配置时管理接口整体关闭。
func RequireAuthorityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := config.Cfg.Server.AuthorityKey
		if key == "" || c.GetHeader("X-Authority-Key") != key {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "调用方未被授权"})
			return
		}
		c.Next()
	}
}
