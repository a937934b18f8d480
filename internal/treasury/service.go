package treasury

import (
	"errors"
	"fmt"

	"github.com/amilz/mad-raffle/internal/model"
	"github.com/amilz/mad-raffle/pkg/checked"
	"gorm.io/gorm"
)

// Transfer 在同一个事务中将amount从from划转到to。
// 余额不足返回ErrTransferFailed，运算溢出返回ErrArithmetic；
// 两种情况下事务都应由调用方整体回滚，不留下任何部分状态。
func Transfer(tx *gorm.DB, from, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if from == to {
		return fmt.Errorf("%w: 转出与转入账户相同", model.ErrTransferFailed)
	}

	src, err := lockAccount(tx, from)
	if err != nil {
		return err
	}

	newSrc, ok := checked.Sub(src.Balance, amount)
	if !ok {
		return fmt.Errorf("%w: 账户 %s 余额不足", model.ErrTransferFailed, from)
	}

	dst, err := lockOrCreateAccount(tx, to)
	if err != nil {
		return err
	}

	newDst, ok := checked.Add(dst.Balance, amount)
	if !ok {
		return model.ErrArithmetic
	}

	if err := tx.Model(&Account{}).Where("address = ?", from).Update("balance", newSrc).Error; err != nil {
		return fmt.Errorf("%w: %v", model.ErrTransferFailed, err)
	}
	if err := tx.Model(&Account{}).Where("address = ?", to).Update("balance", newDst).Error; err != nil {
		return fmt.Errorf("%w: %v", model.ErrTransferFailed, err)
	}
	return nil
}

// Balance 返回账户的当前余额，账户不存在时视为0
func Balance(db *gorm.DB, address string) (uint64, error) {
	var account Account
	err := db.Where("address = ?", address).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Credit 在事务中向账户无条件入账（用于测试注资和管理员充值）
func Credit(tx *gorm.DB, address string, amount uint64) error {
	account, err := lockOrCreateAccount(tx, address)
	if err != nil {
		return err
	}
	newBalance, ok := checked.Add(account.Balance, amount)
	if !ok {
		return model.ErrArithmetic
	}
	return tx.Model(&Account{}).Where("address = ?", address).Update("balance", newBalance).Error
}

// lockAccount 在写事务中读取一个必须存在的账户
func lockAccount(tx *gorm.DB, address string) (*Account, error) {
	var account Account
	err := tx.Where("address = ?", address).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: 账户 %s 不存在", model.ErrTransferFailed, address)
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// lockOrCreateAccount 在写事务中读取账户，不存在时创建一个零余额账户
func lockOrCreateAccount(tx *gorm.DB, address string) (*Account, error) {
	var account Account
	err := tx.Where("address = ?", address).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = Account{Address: address, Balance: 0}
		if err := tx.Create(&account).Error; err != nil {
			return nil, err
		}
		return &account, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}
