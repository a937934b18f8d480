package model

import "errors"

// 本包集中定义了核心引擎的全部业务错误种类。
// 所有校验失败都通过返回这些哨兵错误（或其包装）同步暴露给调用方，
// 任何被拒绝的操作都不会留下部分落库的状态。
var (
	// ErrNotActive 表示目标轮次已不在售票状态
	ErrNotActive = errors.New("抽奖轮次未处于进行中")

	// ErrAlreadyActive 表示当前轮次仍在进行中，不能重复开启
	ErrAlreadyActive = errors.New("抽奖轮次仍在进行中")

	// ErrLimitExceeded 表示参与者已达到单轮购票上限
	ErrLimitExceeded = errors.New("超出单轮购票上限")

	// ErrPaymentMismatch 表示转账金额与票价不一致或买家余额不足
	ErrPaymentMismatch = errors.New("支付金额与票价不符")

	// ErrNoTickets 表示本轮没有售出任何奖券
	ErrNoTickets = errors.New("本轮未售出任何奖券")

	// ErrWinnerAlreadySelected 表示中奖者已经选定，禁止重复开奖
	ErrWinnerAlreadySelected = errors.New("中奖者已经选定")

	// ErrWinnerNotYetSelected 表示尚未开奖
	ErrWinnerNotYetSelected = errors.New("中奖者尚未选定")

	// ErrInvalidAssetReference 表示奖品资产不存在或未通过集合校验
	ErrInvalidAssetReference = errors.New("无效的奖品资产")

	// ErrUnauthorizedCaller 表示调用方没有执行该操作的权限
	ErrUnauthorizedCaller = errors.New("调用方未被授权")

	// ErrArithmetic 表示整数运算发生溢出或下溢，整个操作已中止
	ErrArithmetic = errors.New("整数运算溢出")

	// ErrOracleStale 表示熵源数据超出允许的滞后窗口
	ErrOracleStale = errors.New("预言机数据已过期")

	// ErrTransferFailed 表示资金划转失败
	ErrTransferFailed = errors.New("资金划转失败")

	// ErrAssetDeliveryFailed 表示奖品交割失败
	ErrAssetDeliveryFailed = errors.New("奖品交割失败")
)
