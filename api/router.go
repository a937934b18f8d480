package api

import (
	"github.com/amilz/mad-raffle/internal/auth"
	"github.com/amilz/mad-raffle/internal/escrow"
	"github.com/amilz/mad-raffle/internal/oracle"
	"github.com/amilz/mad-raffle/internal/raffle"
	"github.com/amilz/mad-raffle/internal/scoreboard"
	"github.com/amilz/mad-raffle/internal/tracker"
	"github.com/amilz/mad-raffle/internal/treasury"
	"github.com/gin-gonic/gin"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		// 抽奖轮次相关的路由组
		raffleRoutes := api.Group("/raffle")
		{
			raffleRoutes.GET("", raffle.GetCurrent)
			raffleRoutes.GET("/:id", raffle.GetByID)
			raffleRoutes.POST("/tickets", raffle.SubmitTicketPurchase)
			// 交割由中奖者本人或管理员触发，权限在服务内校验
			raffleRoutes.POST("/:id/distribute", raffle.SubmitDistribute)
		}

		// 积分排行与追踪器的只读路由
		api.GET("/scoreboard", scoreboard.GetScoreboard)
		api.GET("/tracker", tracker.GetTracker)
		api.GET("/accounts/:address", treasury.GetAccount)

		// 管理接口：开轮、关轮、开奖、资产登记、账户注资、价格发布
		adminRoutes := api.Group("/admin", auth.RequireAuthorityMiddleware())
		{
			adminRoutes.POST("/raffle", raffle.SubmitCreateRaffle)
			adminRoutes.POST("/raffle/end", raffle.SubmitEndRaffle)
			adminRoutes.POST("/raffle/:id/draw", raffle.SubmitDraw)
			adminRoutes.POST("/assets", escrow.SubmitRegisterAsset)
			adminRoutes.POST("/accounts/credit", treasury.SubmitCredit)
			adminRoutes.POST("/oracle/publish", oracle.SubmitPublishSample)
		}
	}
}
