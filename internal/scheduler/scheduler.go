package scheduler

import (
	"errors"

	"github.com/amilz/mad-raffle/internal/model"
	"github.com/amilz/mad-raffle/internal/platform/config"
	"github.com/amilz/mad-raffle/internal/platform/database"
	"github.com/amilz/mad-raffle/internal/platform/logger"
	"github.com/amilz/mad-raffle/internal/raffle"
	"github.com/amilz/mad-raffle/pkg/lifecycle"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Start 启动轮次推进调度器。
// 它按固定节奏补做两类操作：为已关闭但未开奖的轮次重试开奖，
// 以及在系统意外失去活跃轮次时重新开轮。调度器只是不可信时序的
// 触发者，全部前置条件仍由核心在事务内重新校验。
func Start(handle *lifecycle.Handle) error {
	c := cron.New()

	_, err := c.AddFunc("@every 30s", func() {
		retryPendingDraws()
		ensureActiveRaffle()
	})
	if err != nil {
		return err
	}

	c.Start()
	logger.Info("轮次推进调度器已启动")

	go func() {
		defer handle.Close()
		<-handle.Done()
		// 等待正在执行的任务结束后再退出
		stopCtx := c.Stop()
		<-stopCtx.Done()
		logger.Info("轮次推进调度器已停止")
	}()

	return nil
}

// retryPendingDraws 为所有已关闭且未开奖的轮次尝试开奖。
// 预言机数据过期是常态失败，静默等待下一个周期。
func retryPendingDraws() {
	var pending []raffle.Raffle
	err := database.DB.Where("status = ?", raffle.StatusClosed).Find(&pending).Error
	if err != nil {
		logger.Warn("调度器无法查询待开奖轮次", zap.Error(err))
		return
	}

	for _, r := range pending {
		winner, err := raffle.PickWinner(database.DB, config.Cfg.Oracle, r.ID)
		if err != nil {
			if errors.Is(err, model.ErrOracleStale) {
				logger.Debug("预言机数据未就绪，等待下一周期", zap.Uint64("raffle_id", r.ID))
				continue
			}
			if errors.Is(err, model.ErrWinnerAlreadySelected) {
				continue
			}
			logger.Warn("调度器开奖失败", zap.Uint64("raffle_id", r.ID), zap.Error(err))
			continue
		}
		logger.Info("调度器完成开奖", zap.Uint64("raffle_id", r.ID), zap.String("winner", winner))
	}
}

// ensureActiveRaffle 保证系统始终有一个可售票的轮次。
// 关轮事务本身会原子地创建下一轮，这里只是对异常状态的兜底修复。
func ensureActiveRaffle() {
	_, err := raffle.CreateRaffle(database.DB)
	if err != nil && !errors.Is(err, model.ErrAlreadyActive) {
		logger.Warn("调度器无法开启新一轮", zap.Error(err))
	}
}
