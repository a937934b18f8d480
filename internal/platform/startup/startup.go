package startup

import (
	"github.com/amilz/mad-raffle/internal/escrow"
	"github.com/amilz/mad-raffle/internal/platform/config"
	"github.com/amilz/mad-raffle/internal/platform/database"
	"github.com/amilz/mad-raffle/internal/platform/logger"
	"github.com/amilz/mad-raffle/internal/raffle"
	"github.com/amilz/mad-raffle/internal/scoreboard"
	"github.com/amilz/mad-raffle/internal/tracker"
	"github.com/amilz/mad-raffle/internal/treasury"
)

// InitializeApplication 是应用首次启动时执行的总入口。
// 按依赖顺序迁移各模块的表、落好追踪器与首轮，再预热缓存。
func InitializeApplication() error {
	logger.Info("开始应用初始化...")

	if err := tracker.PrimeDB(database.DB); err != nil {
		return err
	}
	if err := treasury.PrimeDB(database.DB, config.Cfg.Raffle); err != nil {
		return err
	}
	if err := escrow.PrimeDB(database.DB); err != nil {
		return err
	}
	if err := scoreboard.PrimeDB(database.DB); err != nil {
		return err
	}
	if err := raffle.PrimeDB(database.DB); err != nil {
		return err
	}
	if err := scoreboard.PrimeCache(database.DB); err != nil {
		return err
	}

	logger.Info("应用初始化完成")
	return nil
}

// RebuildCache 是一个专门用于在运行时热重建Redis缓存的函数
func RebuildCache() error {
	scoreboard.LockRepository()
	defer scoreboard.UnlockRepository()
	return scoreboard.WarmupCache(database.DB)
}
