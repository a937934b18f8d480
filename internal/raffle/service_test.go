package raffle

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/amilz/mad-raffle/internal/escrow"
	"github.com/amilz/mad-raffle/internal/model"
	"github.com/amilz/mad-raffle/internal/platform/config"
	"github.com/amilz/mad-raffle/internal/scoreboard"
	"github.com/amilz/mad-raffle/internal/tracker"
	"github.com/amilz/mad-raffle/internal/treasury"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var serviceTestSeq int64

func newServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:raffle_test_%d?mode=memory&cache=shared", atomic.AddInt64(&serviceTestSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&Raffle{}, &TicketHolder{},
		&tracker.RaffleTracker{},
		&treasury.Account{},
		&scoreboard.UserPoints{},
		&escrow.Asset{}, &escrow.CreatorShare{},
	))
	require.NoError(t, tracker.Initialize(db))
	require.NoError(t, db.Create(&treasury.Account{Address: "vault:fee"}).Error)
	require.NoError(t, db.Create(&treasury.Account{Address: "vault:super"}).Error)
	return db
}

func testConfig() config.RaffleConfig {
	return config.RaffleConfig{
		TicketPrice:       1_000,
		TicketFee:         20,
		SuperRaffleFee:    10,
		NewRaffleCost:     0,
		MaxTicketsPerUser: 3,
		PointsPerTicket:   1,
		PointsForSelling:  10,
		DefaultRoyaltyBps: 500,
		MinReserve:        0,
		FeeVault:          "vault:fee",
		SuperRaffleVault:  "vault:super",
		Collection:        "mad-lads",
	}
}

func fundAccount(t *testing.T, db *gorm.DB, address string, amount uint64) {
	t.Helper()
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return treasury.Credit(tx, address, amount)
	}))
}

func mustBalance(t *testing.T, db *gorm.DB, address string) uint64 {
	t.Helper()
	balance, err := treasury.Balance(db, address)
	require.NoError(t, err)
	return balance
}

func registerPrize(t *testing.T, db *gorm.DB, assetID, owner string, royaltyBps uint16, creators ...escrow.CreatorShare) {
	t.Helper()
	require.NoError(t, escrow.Register(db, &escrow.Asset{
		AssetID:    assetID,
		Collection: "mad-lads",
		Verified:   true,
		Owner:      owner,
		RoyaltyBps: royaltyBps,
		Creators:   creators,
	}))
}

func buyTickets(t *testing.T, db *gorm.DB, cfg config.RaffleConfig, raffleID uint64, buyer string, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		require.NoError(t, BuyTicket(db, cfg, raffleID, buyer))
	}
}

func TestCreateRaffle(t *testing.T) {
	db := newServiceTestDB(t)

	r, err := CreateRaffle(db)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.ID)
	assert.Equal(t, StatusActive, r.Status)

	// 奖池账户随轮次一起建好
	var pool treasury.Account
	require.NoError(t, db.First(&pool, "address = ?", treasury.PoolAddress(1)).Error)
	assert.Equal(t, uint64(0), pool.Balance)

	// 当前轮次仍在售票时不允许再开
	_, err = CreateRaffle(db)
	assert.ErrorIs(t, err, model.ErrAlreadyActive)

	tr, err := tracker.Get(db)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tr.CurrentRaffle)
}

func TestBuyTicket_FeeSplit(t *testing.T) {
	db := newServiceTestDB(t)
	cfg := testConfig()
	_, err := CreateRaffle(db)
	require.NoError(t, err)

	fundAccount(t, db, "alice", 10_000)
	buyTickets(t, db, cfg, 1, "alice", 2)

	// 票款在购票时刻即拆分：奖池贡献、协议费、超级抽奖费
	assert.Equal(t, uint64(8_000), mustBalance(t, db, "alice"))
	assert.Equal(t, uint64(1_940), mustBalance(t, db, treasury.PoolAddress(1)))
	assert.Equal(t, uint64(40), mustBalance(t, db, "vault:fee"))
	assert.Equal(t, uint64(20), mustBalance(t, db, "vault:super"))

	var holder TicketHolder
	require.NoError(t, db.First(&holder, "raffle_id = ? AND participant = ?", 1, "alice").Error)
	assert.Equal(t, uint8(2), holder.Quantity)

	// 第1轮积分倍率为10
	var points scoreboard.UserPoints
	require.NoError(t, db.First(&points, "participant = ?", "alice").Error)
	assert.Equal(t, uint32(20), points.Points)
}

func TestBuyTicket_LimitExceeded(t *testing.T) {
	db := newServiceTestDB(t)
	cfg := testConfig()
	_, err := CreateRaffle(db)
	require.NoError(t, err)

	fundAccount(t, db, "alice", 10_000)
	buyTickets(t, db, cfg, 1, "alice", int(cfg.MaxTicketsPerUser))

	balanceBefore := mustBalance(t, db, "alice")
	err = BuyTicket(db, cfg, 1, "alice")
	assert.ErrorIs(t, err, model.ErrLimitExceeded)

	// 拒绝后状态保持原样
	assert.Equal(t, balanceBefore, mustBalance(t, db, "alice"))
	var holder TicketHolder
	require.NoError(t, db.First(&holder, "raffle_id = ? AND participant = ?", 1, "alice").Error)
	assert.Equal(t, cfg.MaxTicketsPerUser, holder.Quantity)
}

func TestBuyTicket_PaymentMismatch(t *testing.T) {
	db := newServiceTestDB(t)
	cfg := testConfig()
	_, err := CreateRaffle(db)
	require.NoError(t, err)

	fundAccount(t, db, "alice", 500)
	err = BuyTicket(db, cfg, 1, "alice")
	assert.ErrorIs(t, err, model.ErrPaymentMismatch)

	// 整体回滚：余额不变、无持票记录、无积分
	assert.Equal(t, uint64(500), mustBalance(t, db, "alice"))
	var count int64
	require.NoError(t, db.Model(&TicketHolder{}).Where("raffle_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestBuyTicket_NotActive(t *testing.T) {
	db := newServiceTestDB(t)
	cfg := testConfig()
	_, err := CreateRaffle(db)
	require.NoError(t, err)
	require.NoError(t, db.Model(&Raffle{}).Where("id = ?", 1).
		Update("status", StatusClosed).Error)

	fundAccount(t, db, "alice", 10_000)
	err = BuyTicket(db, cfg, 1, "alice")
	assert.ErrorIs(t, err, model.ErrNotActive)
}

func TestEndRaffle_SettlesAndOpensNextRound(t *testing.T) {
	db := newServiceTestDB(t)
	cfg := testConfig()
	_, err := CreateRaffle(db)
	require.NoError(t, err)

	for _, buyer := range []string{"alice", "bob", "carol"} {
		fundAccount(t, db, buyer, 10_000)
		buyTickets(t, db, cfg, 1, buyer, 3)
	}
	fundAccount(t, db, "dave", 10_000)
	buyTickets(t, db, cfg, 1, "dave", 1)
	// 10张票，奖池 10*970 = 9700
	require.Equal(t, uint64(9_700), mustBalance(t, db, treasury.PoolAddress(1)))

	registerPrize(t, db, "nft-1", "seller", 500,
		escrow.CreatorShare{Address: "creator:a", Share: 100})

	closed, err := EndRaffle(db, cfg, "seller", "nft-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), closed.ID)

	// seller = floor(9700*10000/10500)，版税池归创作者
	assert.Equal(t, uint64(9_238), mustBalance(t, db, "seller"))
	assert.Equal(t, uint64(462), mustBalance(t, db, "creator:a"))
	assert.Equal(t, uint64(0), mustBalance(t, db, treasury.PoolAddress(1)))

	// 轮次状态翻转并登记奖品
	r, err := GetRaffleByID(db, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, r.Status)
	require.NotNil(t, r.Seller)
	assert.Equal(t, "seller", *r.Seller)
	require.NotNil(t, r.PrizeAssetID)
	assert.Equal(t, "nft-1", *r.PrizeAssetID)
	assert.NotNil(t, r.EndTime)
	assert.Nil(t, r.Winner)

	// 奖品已进入托管
	var asset escrow.Asset
	require.NoError(t, db.First(&asset, "asset_id = ?", "nft-1").Error)
	assert.True(t, asset.Escrowed)

	// 下一轮已原子开启
	tr, err := tracker.Get(db)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tr.CurrentRaffle)
	next, err := GetCurrentRaffle(db)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), next.ID)
	assert.Equal(t, StatusActive, next.Status)

	// 卖家积分（第1轮倍率10）
	var points scoreboard.UserPoints
	require.NoError(t, db.First(&points, "participant = ?", "seller").Error)
	assert.Equal(t, uint32(100), points.Points)
}

func TestEndRaffle_SkipsRoyaltyBelowReserve(t *testing.T) {
	db := newServiceTestDB(t)
	cfg := testConfig()
	cfg.MinReserve = 100
	_, err := CreateRaffle(db)
	require.NoError(t, err)

	fundAccount(t, db, "alice", 10_000)
	buyTickets(t, db, cfg, 1, "alice", 1)
	// 奖池 970，B' = 970-100 = 870

	// creator:a 已有余额，入账后达到保留额；creator:b 是空账户，
	// 入账21后仍低于保留额，必须被跳过
	fundAccount(t, db, "creator:a", 100)
	registerPrize(t, db, "nft-1", "seller", 500,
		escrow.CreatorShare{Address: "creator:a", Share: 50},
		escrow.CreatorShare{Address: "creator:b", Share: 50})

	_, err = EndRaffle(db, cfg, "seller", "nft-1")
	require.NoError(t, err)

	// 卖家 floor(870*10000/10500) = 828，版税池 42，每位创作者 21
	assert.Equal(t, uint64(828), mustBalance(t, db, "seller"))
	assert.Equal(t, uint64(121), mustBalance(t, db, "creator:a"))
	assert.Equal(t, uint64(0), mustBalance(t, db, "creator:b"))
	// 被跳过的版税留在奖池中：970-828-21 = 121
	assert.Equal(t, uint64(121), mustBalance(t, db, treasury.PoolAddress(1)))

	// 交割时保留额之上的残余（含被跳过的版税）清扫到费用金库
	_, err = SelectWinnerWithEntropy(db, 1, 0)
	require.NoError(t, err)
	feeBefore := mustBalance(t, db, "vault:fee")
	require.NoError(t, DistributePrize(db, cfg, 1, "alice", false))
	assert.Equal(t, feeBefore+21, mustBalance(t, db, "vault:fee"))
	assert.Equal(t, uint64(100), mustBalance(t, db, treasury.PoolAddress(1)))
}

func TestEndRaffle_NoTicketsKeepsRoundOpen(t *testing.T) {
	db := newServiceTestDB(t)
	cfg := testConfig()
	_, err := CreateRaffle(db)
	require.NoError(t, err)
	registerPrize(t, db, "nft-1", "seller", 500)

	_, err = EndRaffle(db, cfg, "seller", "nft-1")
	assert.ErrorIs(t, err, model.ErrNoTickets)

	r, err := GetCurrentRaffle(db)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.ID)
	assert.Equal(t, StatusActive, r.Status)

	// 托管也被回滚
	var asset escrow.Asset
	require.NoError(t, db.First(&asset, "asset_id = ?", "nft-1").Error)
	assert.False(t, asset.Escrowed)
}

func TestEndRaffle_InvalidAssetRollsBack(t *testing.T) {
	db := newServiceTestDB(t)
	cfg := testConfig()
	_, err := CreateRaffle(db)
	require.NoError(t, err)

	fundAccount(t, db, "alice", 10_000)
	buyTickets(t, db, cfg, 1, "alice", 1)

	// 资产归他人所有
	registerPrize(t, db, "nft-1", "someone-else", 500)

	_, err = EndRaffle(db, cfg, "seller", "nft-1")
	assert.ErrorIs(t, err, model.ErrInvalidAssetReference)

	assert.Equal(t, uint64(970), mustBalance(t, db, treasury.PoolAddress(1)))
	r, err := GetCurrentRaffle(db)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, r.Status)
}

func closeFixtureRaffle(t *testing.T, db *gorm.DB, cfg config.RaffleConfig) {
	t.Helper()
	for _, buyer := range []string{"alice", "bob", "carol"} {
		fundAccount(t, db, buyer, 10_000)
		buyTickets(t, db, cfg, 1, buyer, 3)
	}
	fundAccount(t, db, "dave", 10_000)
	buyTickets(t, db, cfg, 1, "dave", 1)
	registerPrize(t, db, "nft-1", "seller", 500,
		escrow.CreatorShare{Address: "creator:a", Share: 100})
	_, err := EndRaffle(db, cfg, "seller", "nft-1")
	require.NoError(t, err)
}

func TestSelectWinnerWithEntropy_Lifecycle(t *testing.T) {
	db := newServiceTestDB(t)
	cfg := testConfig()
	_, err := CreateRaffle(db)
	require.NoError(t, err)
	closeFixtureRaffle(t, db, cfg)

	// 槽位按插入顺序：alice 0-2, bob 3-5, carol 6-8, dave 9
	winner, err := SelectWinnerWithEntropy(db, 1, 9)
	require.NoError(t, err)
	assert.Equal(t, "dave", winner)

	r, err := GetRaffleByID(db, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusWinnerDrawn, r.Status)
	require.NotNil(t, r.Winner)
	assert.Equal(t, "dave", *r.Winner)

	// 重复开奖被拒绝，已写入的中奖者不变
	_, err = SelectWinnerWithEntropy(db, 1, 0)
	assert.ErrorIs(t, err, model.ErrWinnerAlreadySelected)
	r, err = GetRaffleByID(db, 1)
	require.NoError(t, err)
	assert.Equal(t, "dave", *r.Winner)
}

func TestSelectWinnerWithEntropy_RejectsActiveRound(t *testing.T) {
	db := newServiceTestDB(t)
	cfg := testConfig()
	_, err := CreateRaffle(db)
	require.NoError(t, err)
	fundAccount(t, db, "alice", 10_000)
	buyTickets(t, db, cfg, 1, "alice", 1)

	_, err = SelectWinnerWithEntropy(db, 1, 0)
	assert.ErrorIs(t, err, model.ErrAlreadyActive)
}

func TestSelectWinnerWithEntropy_InsertionOrderStable(t *testing.T) {
	db := newServiceTestDB(t)
	cfg := testConfig()
	_, err := CreateRaffle(db)
	require.NoError(t, err)

	// 交错购票（alice、bob、alice）不得打乱槽位顺序
	fundAccount(t, db, "alice", 10_000)
	fundAccount(t, db, "bob", 10_000)
	buyTickets(t, db, cfg, 1, "alice", 1)
	buyTickets(t, db, cfg, 1, "bob", 1)
	buyTickets(t, db, cfg, 1, "alice", 1)

	registerPrize(t, db, "nft-1", "seller", 500)
	_, err = EndRaffle(db, cfg, "seller", "nft-1")
	require.NoError(t, err)

	// 槽位：alice 0-1, bob 2
	winner, err := SelectWinnerWithEntropy(db, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "bob", winner)
}

func TestDistributePrize(t *testing.T) {
	db := newServiceTestDB(t)
	cfg := testConfig()
	_, err := CreateRaffle(db)
	require.NoError(t, err)
	closeFixtureRaffle(t, db, cfg)

	// 开奖前不可交割
	err = DistributePrize(db, cfg, 1, "dave", false)
	assert.ErrorIs(t, err, model.ErrWinnerNotYetSelected)

	_, err = SelectWinnerWithEntropy(db, 1, 9)
	require.NoError(t, err)

	// 非中奖者且非管理员不可触发
	err = DistributePrize(db, cfg, 1, "alice", false)
	assert.ErrorIs(t, err, model.ErrUnauthorizedCaller)

	// 奖池残余在交割时清扫到费用金库
	fundAccount(t, db, treasury.PoolAddress(1), 77)
	feeBefore := mustBalance(t, db, "vault:fee")

	require.NoError(t, DistributePrize(db, cfg, 1, "dave", false))

	var asset escrow.Asset
	require.NoError(t, db.First(&asset, "asset_id = ?", "nft-1").Error)
	assert.False(t, asset.Escrowed)
	assert.Equal(t, "dave", asset.Owner)

	assert.Equal(t, feeBefore+77, mustBalance(t, db, "vault:fee"))
	assert.Equal(t, uint64(0), mustBalance(t, db, treasury.PoolAddress(1)))

	r, err := GetRaffleByID(db, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusSettled, r.Status)
	assert.True(t, r.PrizeDelivered)

	// 重复交割被拒绝
	err = DistributePrize(db, cfg, 1, "dave", false)
	assert.ErrorIs(t, err, model.ErrAssetDeliveryFailed)
}

func TestDistributePrize_AuthorityOverride(t *testing.T) {
	db := newServiceTestDB(t)
	cfg := testConfig()
	_, err := CreateRaffle(db)
	require.NoError(t, err)
	closeFixtureRaffle(t, db, cfg)
	_, err = SelectWinnerWithEntropy(db, 1, 0)
	require.NoError(t, err)

	// 管理员可代为交割，奖品仍归中奖者
	require.NoError(t, DistributePrize(db, cfg, 1, "operator", true))

	var asset escrow.Asset
	require.NoError(t, db.First(&asset, "asset_id = ?", "nft-1").Error)
	assert.Equal(t, "alice", asset.Owner)
}

func TestTrackerAdvancesAcrossRounds(t *testing.T) {
	db := newServiceTestDB(t)
	cfg := testConfig()
	_, err := CreateRaffle(db)
	require.NoError(t, err)

	fundAccount(t, db, "alice", 100_000)
	for round := uint64(1); round <= 3; round++ {
		buyTickets(t, db, cfg, round, "alice", 1)
		assetID := fmt.Sprintf("nft-%d", round)
		registerPrize(t, db, assetID, "seller", 0)
		_, err := EndRaffle(db, cfg, "seller", assetID)
		require.NoError(t, err)
	}

	tr, err := tracker.Get(db)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), tr.CurrentRaffle)

	// 历史轮次全部留档
	for round := uint64(1); round <= 3; round++ {
		r, err := GetRaffleByID(db, round)
		require.NoError(t, err)
		assert.Equal(t, StatusClosed, r.Status)
	}
}
