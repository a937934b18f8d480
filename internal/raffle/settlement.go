package raffle

import (
	"github.com/amilz/mad-raffle/internal/escrow"
	"github.com/amilz/mad-raffle/internal/model"
	"github.com/amilz/mad-raffle/internal/platform/logger"
	"github.com/amilz/mad-raffle/internal/treasury"
	"github.com/amilz/mad-raffle/pkg/checked"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Settlement 是一次关轮结算的计算结果
type Settlement struct {
	// Spendable 是扣除保留额与下一轮创建成本后的可分配余额(B')
	Spendable uint64
	// SellerAmount 是划给卖家的金额 floor(B'*10000/(10000+r))
	SellerAmount uint64
	// RoyaltyPool 是版税池 B'-SellerAmount
	RoyaltyPool uint64
}

const bpsDenominator = 10_000

// ComputeSettlement 根据关轮时的奖池余额计算资金分配。
// 保留额与下一轮成本不足时饱和扣减为零（小额奖池的正常情形，
// 与原实现一致）；其余所有运算受检，溢出即返回ErrArithmetic。
func ComputeSettlement(balance, reserve, nextRaffleCost uint64, royaltyBps uint16) (Settlement, error) {
	spendable, ok := checked.Sub(balance, reserve)
	if !ok {
		spendable = 0
	}
	if v, ok := checked.Sub(spendable, nextRaffleCost); ok {
		spendable = v
	} else {
		spendable = 0
	}

	numerator, ok := checked.Mul(spendable, bpsDenominator)
	if !ok {
		return Settlement{}, model.ErrArithmetic
	}
	sellerAmount, ok := checked.Div(numerator, bpsDenominator+uint64(royaltyBps))
	if !ok {
		return Settlement{}, model.ErrArithmetic
	}
	royaltyPool, ok := checked.Sub(spendable, sellerAmount)
	if !ok {
		return Settlement{}, model.ErrArithmetic
	}

	return Settlement{
		Spendable:    spendable,
		SellerAmount: sellerAmount,
		RoyaltyPool:  royaltyPool,
	}, nil
}

// ComputeRoyaltyShares 按创作者份额（0-100）对版税池做底除分配。
// 返回与creators等长的金额切片；份额合计超过100视为算术错误。
func ComputeRoyaltyShares(royaltyPool uint64, creators []escrow.CreatorShare) ([]uint64, error) {
	var totalShare uint64
	for _, creator := range creators {
		totalShare += uint64(creator.Share)
	}
	if totalShare > 100 {
		return nil, model.ErrArithmetic
	}

	payments := make([]uint64, len(creators))
	for i, creator := range creators {
		scaled, ok := checked.Mul(royaltyPool, uint64(creator.Share))
		if !ok {
			return nil, model.ErrArithmetic
		}
		payments[i] = scaled / 100
	}
	return payments, nil
}

// executeSettlement 在事务中执行资金分配：
// 卖家款项必须成功；单个创作者的入账若会使其账户停留在
// 最低保留额之下则跳过（留在奖池中待清扫），绝不导致整体失败。
// 返回实际分配出去的版税总额。
func executeSettlement(tx *gorm.DB, poolAddress, seller string, settlement Settlement, creators []escrow.CreatorShare, minReserve uint64) (uint64, error) {
	if err := treasury.Transfer(tx, poolAddress, seller, settlement.SellerAmount); err != nil {
		return 0, err
	}

	payments, err := ComputeRoyaltyShares(settlement.RoyaltyPool, creators)
	if err != nil {
		return 0, err
	}

	var distributed uint64
	for i, creator := range creators {
		payment := payments[i]
		if payment == 0 {
			continue
		}

		creatorBalance, err := treasury.Balance(tx, creator.Address)
		if err != nil {
			return 0, err
		}
		newBalance, ok := checked.Add(creatorBalance, payment)
		if !ok {
			return 0, model.ErrArithmetic
		}
		if newBalance < minReserve {
			logger.Info("创作者账户低于最低保留额，跳过版税入账",
				zap.String("creator", creator.Address),
				zap.Uint64("payment", payment))
			continue
		}

		if err := treasury.Transfer(tx, poolAddress, creator.Address, payment); err != nil {
			return 0, err
		}
		distributed, ok = checked.Add(distributed, payment)
		if !ok {
			return 0, model.ErrArithmetic
		}
	}

	return distributed, nil
}
