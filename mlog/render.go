package mlog

import (
	"fmt"
	"strings"
)

// Render produces the human-readable message for an entry in the requested
// language. Supported: "en" (default) and "zh" / "zh-CN".
func Render(e Entry, lang string) string {
	if isChinese(lang) {
		return renderZH(e)
	}
	return renderEN(e)
}

func isChinese(lang string) bool {
	lang = strings.ToLower(lang)
	return lang == "zh" || strings.HasPrefix(lang, "zh-")
}

func renderEN(e Entry) string {
	switch e.Event {
	case EventPriceFailed:
		return fmt.Sprintf("%s: failed to get price (%s)", e.Symbol, e.Detail)
	case EventNoPlans:
		return "no active trading plans"
	case EventPlanLoadFailed:
		return fmt.Sprintf("failed to load trading plans (%s)", e.Detail)
	case EventWaitingEntry:
		return fmt.Sprintf("%s: current $%.2f, entry condition not met (entry $%.2f)", e.Symbol, e.Price, e.Level)
	case EventAboveEntry:
		return fmt.Sprintf("%s: current $%.2f, price above entry $%.2f, not bought", e.Symbol, e.Price, e.Level)
	case EventHolding:
		return fmt.Sprintf("%s: current $%.2f, holding %d shares", e.Symbol, e.Price, e.Quantity)
	case EventBought:
		return fmt.Sprintf("%s: bought %d shares @ $%.2f (entry $%.2f)", e.Symbol, e.Quantity, e.Price, e.Level)
	case EventSoldTarget:
		return fmt.Sprintf("%s: take profit, sold %d shares @ $%.2f, P&L $%.2f (%+.2f%%)",
			e.Symbol, e.Quantity, e.Price, e.PnL, e.PnLPct)
	case EventSoldStop:
		return fmt.Sprintf("%s: stop loss, sold %d shares @ $%.2f, P&L $%.2f (%+.2f%%)",
			e.Symbol, e.Quantity, e.Price, e.PnL, e.PnLPct)
	case EventCashShort:
		return fmt.Sprintf("%s: current $%.2f, insufficient funds to buy", e.Symbol, e.Price)
	case EventOrderRejected:
		return fmt.Sprintf("%s: order rejected (%s)", e.Symbol, e.Detail)
	}
	return e.Detail
}

func renderZH(e Entry) string {
	switch e.Event {
	case EventPriceFailed:
		return fmt.Sprintf("%s: 无法获取股价 (%s)", e.Symbol, e.Detail)
	case EventNoPlans:
		return "没有找到有效的交易计划"
	case EventPlanLoadFailed:
		return fmt.Sprintf("加载交易计划失败 (%s)", e.Detail)
	case EventWaitingEntry:
		return fmt.Sprintf("%s: 当前 $%.2f, 未满足买入条件 (买入价 $%.2f)", e.Symbol, e.Price, e.Level)
	case EventAboveEntry:
		return fmt.Sprintf("%s: 当前 $%.2f, 价格高于买入价 $%.2f, 未买入", e.Symbol, e.Price, e.Level)
	case EventHolding:
		return fmt.Sprintf("%s: 当前 $%.2f, 持有 %d 股", e.Symbol, e.Price, e.Quantity)
	case EventBought:
		return fmt.Sprintf("%s: 买入 %d 股 @ $%.2f (买入价 $%.2f)", e.Symbol, e.Quantity, e.Price, e.Level)
	case EventSoldTarget:
		return fmt.Sprintf("%s: 止盈 卖出 %d 股 @ $%.2f, 盈亏 $%.2f (%+.2f%%)",
			e.Symbol, e.Quantity, e.Price, e.PnL, e.PnLPct)
	case EventSoldStop:
		return fmt.Sprintf("%s: 止损 卖出 %d 股 @ $%.2f, 盈亏 $%.2f (%+.2f%%)",
			e.Symbol, e.Quantity, e.Price, e.PnL, e.PnLPct)
	case EventCashShort:
		return fmt.Sprintf("%s: 当前 $%.2f, 资金不足无法买入", e.Symbol, e.Price)
	case EventOrderRejected:
		return fmt.Sprintf("%s: 订单被拒绝 (%s)", e.Symbol, e.Detail)
	}
	return e.Detail
}
