package raffle

import "github.com/amilz/mad-raffle/internal/model"

// SelectWinner 是纯函数形式的中奖者选择算法。
// 台账按插入顺序展开为连续槽位（每张奖券一个槽位），
// index = entropy mod 总票数，中奖者是该槽位的持有者。
// 由此中奖概率与持票数严格成正比，且对相同输入逐位可复现：
// 全程只有整数取模，没有浮点、没有哈希再归约。
func SelectWinner(holders []TicketHolder, entropy uint64) (string, error) {
	var total uint64
	for _, holder := range holders {
		total += uint64(holder.Quantity)
	}
	if total == 0 {
		// 关闭与开奖前置条件应当拦住这种情况
		return "", model.ErrNoTickets
	}

	index := entropy % total

	var cursor uint64
	for _, holder := range holders {
		cursor += uint64(holder.Quantity)
		if index < cursor {
			return holder.Participant, nil
		}
	}

	// total>0 时不可达
	return "", model.ErrNoTickets
}
