package raffle

import (
	"errors"
	"fmt"
	"time"

	"github.com/amilz/mad-raffle/internal/escrow"
	"github.com/amilz/mad-raffle/internal/model"
	"github.com/amilz/mad-raffle/internal/oracle"
	"github.com/amilz/mad-raffle/internal/platform/config"
	"github.com/amilz/mad-raffle/internal/platform/logger"
	"github.com/amilz/mad-raffle/internal/scoreboard"
	"github.com/amilz/mad-raffle/internal/tracker"
	"github.com/amilz/mad-raffle/internal/treasury"
	"github.com/amilz/mad-raffle/pkg/checked"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateRaffle 开启首轮（或在异常修复后手动开启新一轮）。
// 当前轮次仍在售票时返回ErrAlreadyActive。
// 常规的轮次推进由EndRaffle在关轮事务中原子地完成，不走这里。
func CreateRaffle(db *gorm.DB) (*Raffle, error) {
	var created *Raffle
	err := db.Transaction(func(tx *gorm.DB) error {
		t, err := tracker.GetForUpdate(tx)
		if err != nil {
			return err
		}

		if t.CurrentRaffle > 0 {
			var current Raffle
			err := tx.First(&current, t.CurrentRaffle).Error
			if err == nil && current.Status == StatusActive {
				return model.ErrAlreadyActive
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}

		created, err = createNextRaffle(tx, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info("新一轮抽奖已开启", zap.Uint64("raffle_id", created.ID))
	return created, nil
}

// createNextRaffle 递增追踪器并在新编号下创建处于售票状态的轮次。
// 必须在调用方的事务中执行：计数器递增与新轮次落库要么同时发生，
// 要么都不发生，否则系统将停在无轮次可买的状态。
func createNextRaffle(tx *gorm.DB, t *tracker.RaffleTracker) (*Raffle, error) {
	if err := tracker.Increment(tx, t); err != nil {
		return nil, err
	}

	newRaffle := Raffle{
		ID:        t.CurrentRaffle,
		Status:    StatusActive,
		StartTime: time.Now(),
	}
	if err := tx.Create(&newRaffle).Error; err != nil {
		return nil, fmt.Errorf("无法创建第%d轮: %w", t.CurrentRaffle, err)
	}

	// 同时开好本轮的奖池账户
	pool := treasury.Account{Address: treasury.PoolAddress(newRaffle.ID)}
	if err := tx.Create(&pool).Error; err != nil {
		return nil, fmt.Errorf("无法创建奖池账户: %w", err)
	}

	return &newRaffle, nil
}

// BuyTicket 处理一次购票。
// 台账更新、奖池入账、两笔协议费划转和积分累计在同一个事务中提交；
// 任何一步失败都会整体回滚，不留下部分状态。
func BuyTicket(db *gorm.DB, cfg config.RaffleConfig, raffleID uint64, buyer string) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		r, err := lockRaffle(tx, raffleID)
		if err != nil {
			return err
		}
		if r.Status != StatusActive {
			return model.ErrNotActive
		}

		// 校验购票上限（台账在拒绝时保持原样）
		var holder TicketHolder
		holderErr := tx.Where("raffle_id = ? AND participant = ?", raffleID, buyer).
			First(&holder).Error
		if holderErr == nil && holder.Quantity >= cfg.MaxTicketsPerUser {
			return model.ErrLimitExceeded
		}
		if holderErr != nil && !errors.Is(holderErr, gorm.ErrRecordNotFound) {
			return holderErr
		}

		// 校验买家支付能力：余额低于票价时视为支付金额不符
		buyerBalance, err := treasury.Balance(tx, buyer)
		if err != nil {
			return err
		}
		if buyerBalance < cfg.TicketPrice {
			return model.ErrPaymentMismatch
		}

		// 票价在购票时刻即拆分为奖池贡献与固定协议费
		fees, ok := checked.Add(cfg.TicketFee, cfg.SuperRaffleFee)
		if !ok {
			return model.ErrArithmetic
		}
		poolContribution, ok := checked.Sub(cfg.TicketPrice, fees)
		if !ok {
			return model.ErrArithmetic
		}

		poolAddress := treasury.PoolAddress(raffleID)
		if err := treasury.Transfer(tx, buyer, poolAddress, poolContribution); err != nil {
			return err
		}
		if err := treasury.Transfer(tx, buyer, cfg.FeeVault, cfg.TicketFee); err != nil {
			return err
		}
		if err := treasury.Transfer(tx, buyer, cfg.SuperRaffleVault, cfg.SuperRaffleFee); err != nil {
			return err
		}

		// 更新持票记录：已有则只递增数量（行不重插，插入顺序保持不变）
		if errors.Is(holderErr, gorm.ErrRecordNotFound) {
			newHolder := TicketHolder{RaffleID: raffleID, Participant: buyer, Quantity: 1}
			if err := tx.Create(&newHolder).Error; err != nil {
				return fmt.Errorf("无法创建持票记录: %w", err)
			}
		} else {
			err := tx.Model(&TicketHolder{}).Where("id = ?", holder.ID).
				Update("quantity", holder.Quantity+1).Error
			if err != nil {
				return fmt.Errorf("无法更新持票记录: %w", err)
			}
		}

		// 购票积分（乘以早鸟倍率）
		return scoreboard.AddPoints(tx, buyer, cfg.PointsPerTicket, raffleID)
	})
	if err != nil {
		return err
	}

	scoreboard.SyncRankingCache(db, buyer)
	return nil
}

// EndRaffle 关闭当前轮次并原子地开启下一轮。
// 依次完成：奖品资产托管、结算计算与执行、卖家积分、轮次状态翻转、
// 追踪器递增、下一轮创建——全部在一个事务中。
func EndRaffle(db *gorm.DB, cfg config.RaffleConfig, seller, assetID string) (*Raffle, error) {
	var closed *Raffle
	var next *Raffle
	err := db.Transaction(func(tx *gorm.DB) error {
		t, err := tracker.GetForUpdate(tx)
		if err != nil {
			return err
		}
		if t.CurrentRaffle == 0 {
			return model.ErrNotActive
		}

		r, err := lockRaffle(tx, t.CurrentRaffle)
		if err != nil {
			return err
		}
		if r.Status != StatusActive {
			return model.ErrNotActive
		}

		if err := loadTickets(tx, r); err != nil {
			return err
		}
		if r.TotalTickets() == 0 {
			return model.ErrNoTickets
		}

		// 托管奖品资产（集合校验在escrow协作方内完成）
		handle, err := escrow.Escrow(tx, assetID, seller, cfg.Collection)
		if err != nil {
			return err
		}
		royaltyBps, creators, err := escrow.RoyaltyInfo(tx, assetID)
		if err != nil {
			return err
		}

		// 结算：扣除保留额与下一轮成本后按版税率拆分
		poolAddress := treasury.PoolAddress(r.ID)
		poolBalance, err := treasury.Balance(tx, poolAddress)
		if err != nil {
			return err
		}
		settlement, err := ComputeSettlement(poolBalance, cfg.MinReserve, cfg.NewRaffleCost, royaltyBps)
		if err != nil {
			return err
		}
		distributed, err := executeSettlement(tx, poolAddress, seller, settlement, creators, cfg.MinReserve)
		if err != nil {
			return err
		}

		// 卖家积分（乘以早鸟倍率）
		if err := scoreboard.AddPoints(tx, seller, cfg.PointsForSelling, r.ID); err != nil {
			return err
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":               StatusClosed,
			"end_time":             &now,
			"seller":               seller,
			"prize_asset_id":       handle.AssetID,
			"prize_escrow_account": handle.EscrowAccount,
		}
		if err := tx.Model(&Raffle{}).Where("id = ?", r.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("无法更新轮次状态: %w", err)
		}

		// 关轮与下一轮创建必须原子完成
		next, err = createNextRaffle(tx, t)
		if err != nil {
			return err
		}

		closed = r
		logger.Info("轮次已关闭",
			zap.Uint64("raffle_id", r.ID),
			zap.Uint64("pool_balance", poolBalance),
			zap.Uint64("seller_amount", settlement.SellerAmount),
			zap.Uint64("royalties_distributed", distributed),
			zap.Uint64("next_raffle_id", next.ID))
		return nil
	})
	if err != nil {
		return nil, err
	}

	scoreboard.SyncRankingCache(db, seller)
	return closed, nil
}

// SelectWinnerWithEntropy 用给定的熵值为已关闭的轮次开奖。
// 同一轮的第二次开奖请求会以ErrWinnerAlreadySelected拒绝，
// 已写入的中奖者永不改变。
func SelectWinnerWithEntropy(db *gorm.DB, raffleID uint64, entropy uint64) (string, error) {
	var winner string
	err := db.Transaction(func(tx *gorm.DB) error {
		r, err := lockRaffle(tx, raffleID)
		if err != nil {
			return err
		}
		if r.Status == StatusActive {
			return model.ErrAlreadyActive
		}
		if r.Winner != nil {
			return model.ErrWinnerAlreadySelected
		}

		if err := loadTickets(tx, r); err != nil {
			return err
		}
		if r.TotalTickets() == 0 {
			return model.ErrNoTickets
		}

		winner, err = SelectWinner(r.Tickets, entropy)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"winner": winner,
			"status": StatusWinnerDrawn,
		}
		return tx.Model(&Raffle{}).Where("id = ?", raffleID).Updates(updates).Error
	})
	if err != nil {
		return "", err
	}

	logger.Info("中奖者已选定", zap.Uint64("raffle_id", raffleID), zap.String("winner", winner))
	return winner, nil
}

// PickWinner 用价格预言机作为熵源开奖。
// 样本超出新鲜度窗口时以ErrOracleStale拒绝，不产生任何状态变更。
func PickWinner(db *gorm.DB, oracleCfg config.OracleConfig, raffleID uint64) (string, error) {
	_, value, err := oracle.ReadEntropy(oracleCfg)
	if err != nil {
		return "", err
	}
	return SelectWinnerWithEntropy(db, raffleID, value)
}

// DistributePrize 将托管中的奖品交割给中奖者并完成轮次归档。
// 只有中奖者本人或管理员可以触发；交割后清扫奖池中高于
// 保留额的残余资金到费用金库，轮次进入最终的已结算状态。
func DistributePrize(db *gorm.DB, cfg config.RaffleConfig, raffleID uint64, caller string, isAuthority bool) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		r, err := lockRaffle(tx, raffleID)
		if err != nil {
			return err
		}
		if r.Winner == nil {
			return model.ErrWinnerNotYetSelected
		}
		if caller != *r.Winner && !isAuthority {
			return model.ErrUnauthorizedCaller
		}
		if !r.HasPrize() {
			return fmt.Errorf("%w: 本轮没有登记奖品", model.ErrInvalidAssetReference)
		}
		if r.Status != StatusWinnerDrawn || r.PrizeDelivered {
			return fmt.Errorf("%w: 奖品已交割", model.ErrAssetDeliveryFailed)
		}

		if err := escrow.Deliver(tx, *r.PrizeAssetID, *r.Winner); err != nil {
			return err
		}

		// 清扫奖池残余（保留额之上的部分）到费用金库
		poolAddress := treasury.PoolAddress(r.ID)
		poolBalance, err := treasury.Balance(tx, poolAddress)
		if err != nil {
			return err
		}
		if residual, ok := checked.Sub(poolBalance, cfg.MinReserve); ok && residual > 0 {
			if err := treasury.Transfer(tx, poolAddress, cfg.FeeVault, residual); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{
			"prize_delivered": true,
			"status":          StatusSettled,
		}
		return tx.Model(&Raffle{}).Where("id = ?", raffleID).Updates(updates).Error
	})
	if err != nil {
		return err
	}

	logger.Info("奖品已交割", zap.Uint64("raffle_id", raffleID))
	return nil
}

// GetCurrentRaffle 返回当前轮次（含按插入顺序排列的台账）
func GetCurrentRaffle(db *gorm.DB) (*Raffle, error) {
	t, err := tracker.Get(db)
	if err != nil {
		return nil, err
	}
	if t.CurrentRaffle == 0 {
		return nil, model.ErrNotActive
	}
	return GetRaffleByID(db, t.CurrentRaffle)
}

// GetRaffleByID 返回指定轮次的历史记录（含台账）
func GetRaffleByID(db *gorm.DB, raffleID uint64) (*Raffle, error) {
	var r Raffle
	err := db.First(&r, raffleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 第%d轮不存在", model.ErrNotActive, raffleID)
	}
	if err != nil {
		return nil, err
	}
	if err := loadTickets(db, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// lockRaffle 在写事务中读取轮次记录。
// 同一轮次的变更由宿主环境保证单写者串行，这里不再附加行锁。
func lockRaffle(tx *gorm.DB, raffleID uint64) (*Raffle, error) {
	var r Raffle
	err := tx.First(&r, raffleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 第%d轮不存在", model.ErrNotActive, raffleID)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// loadTickets 按插入顺序装载轮次台账。
// 槽位顺序由持票记录的首次创建顺序决定，开奖与它强相关。
func loadTickets(db *gorm.DB, r *Raffle) error {
	return db.Where("raffle_id = ?", r.ID).Order("id ASC").Find(&r.Tickets).Error
}
