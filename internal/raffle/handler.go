package raffle

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/amilz/mad-raffle/internal/model"
	"github.com/amilz/mad-raffle/internal/platform/config"
	"github.com/amilz/mad-raffle/internal/platform/database"
	"github.com/gin-gonic/gin"
)

// BuyTicketRequestBody 定义了购票请求体的JSON结构
type BuyTicketRequestBody struct {
	Buyer string `json:"buyer" binding:"required"`
}

// EndRaffleRequestBody 定义了关轮请求体的JSON结构
type EndRaffleRequestBody struct {
	Seller  string `json:"seller" binding:"required"`
	AssetID string `json:"asset_id" binding:"required"`
}

// DrawRequestBody 定义了开奖请求体的JSON结构。
// 提供Nonce时使用管理员熵值开奖，否则从价格预言机取熵。
type DrawRequestBody struct {
	Nonce *uint64 `json:"nonce"`
}

// DistributeRequestBody 定义了交割请求体的JSON结构
type DistributeRequestBody struct {
	Caller string `json:"caller" binding:"required"`
}

// GetCurrent 返回当前轮次的完整视图
func GetCurrent(c *gin.Context) {
	r, err := GetCurrentRaffle(database.DB)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffleView(r))
}

// GetByID 返回指定轮次的历史记录
func GetByID(c *gin.Context) {
	id, err := parseRaffleID(c)
	if err != nil {
		return
	}
	r, err := GetRaffleByID(database.DB, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, raffleView(r))
}

// SubmitTicketPurchase 处理对当前轮次的购票请求
func SubmitTicketPurchase(c *gin.Context) {
	var body BuyTicketRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	r, err := GetCurrentRaffle(database.DB)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := BuyTicket(database.DB, config.Cfg.Raffle, r.ID, body.Buyer); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"raffle_id": r.ID, "buyer": body.Buyer})
}

// SubmitEndRaffle 关闭当前轮次并开启下一轮
func SubmitEndRaffle(c *gin.Context) {
	var body EndRaffleRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	closed, err := EndRaffle(database.DB, config.Cfg.Raffle, body.Seller, body.AssetID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed_raffle_id": closed.ID})
}

// SubmitCreateRaffle 手动开启新一轮（常规推进由关轮事务完成）
func SubmitCreateRaffle(c *gin.Context) {
	created, err := CreateRaffle(database.DB)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"raffle_id": created.ID})
}

// SubmitDraw 为已关闭的轮次开奖
func SubmitDraw(c *gin.Context) {
	id, err := parseRaffleID(c)
	if err != nil {
		return
	}

	var body DrawRequestBody
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	var winner string
	if body.Nonce != nil {
		winner, err = SelectWinnerWithEntropy(database.DB, id, *body.Nonce)
	} else {
		winner, err = PickWinner(database.DB, config.Cfg.Oracle, id)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"raffle_id": id, "winner": winner})
}

// SubmitDistribute 交割奖品。中奖者本人或持管理密钥的调用方可触发。
func SubmitDistribute(c *gin.Context) {
	id, err := parseRaffleID(c)
	if err != nil {
		return
	}

	var body DistributeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	isAuthority := config.Cfg.Server.AuthorityKey != "" &&
		c.GetHeader("X-Authority-Key") == config.Cfg.Server.AuthorityKey

	if err := DistributePrize(database.DB, config.Cfg.Raffle, id, body.Caller, isAuthority); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"raffle_id": id, "delivered": true})
}

// raffleView 构造轮次的对外JSON视图
func raffleView(r *Raffle) gin.H {
	tickets := make([]gin.H, 0, len(r.Tickets))
	for _, holder := range r.Tickets {
		tickets = append(tickets, gin.H{
			"participant": holder.Participant,
			"quantity":    holder.Quantity,
		})
	}
	view := gin.H{
		"id":            r.ID,
		"status":        r.Status,
		"start_time":    r.StartTime,
		"end_time":      r.EndTime,
		"total_tickets": r.TotalTickets(),
		"tickets":       tickets,
	}
	if r.Winner != nil {
		view["winner"] = *r.Winner
	}
	if r.HasPrize() {
		view["prize"] = gin.H{
			"asset_id":       *r.PrizeAssetID,
			"escrow_account": *r.PrizeEscrowAccount,
			"delivered":      r.PrizeDelivered,
		}
	}
	return view
}

func parseRaffleID(c *gin.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "轮次编号格式错误"})
		return 0, err
	}
	return id, nil
}

// respondError 将业务错误种类映射为HTTP状态码
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotActive),
		errors.Is(err, model.ErrAlreadyActive),
		errors.Is(err, model.ErrNoTickets),
		errors.Is(err, model.ErrWinnerNotYetSelected),
		errors.Is(err, model.ErrWinnerAlreadySelected),
		errors.Is(err, model.ErrArithmetic),
		errors.Is(err, model.ErrAssetDeliveryFailed):
		status = http.StatusConflict
	case errors.Is(err, model.ErrLimitExceeded),
		errors.Is(err, model.ErrPaymentMismatch),
		errors.Is(err, model.ErrTransferFailed),
		errors.Is(err, model.ErrInvalidAssetReference):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrUnauthorizedCaller):
		status = http.StatusForbidden
	case errors.Is(err, model.ErrOracleStale):
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
