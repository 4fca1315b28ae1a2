package metrics

import (
	"github.com/rustyeddy/papertrader/market"
	"github.com/shopspring/decimal"
)

// RoundTrip is a buy matched FIFO against a later sell.
type RoundTrip struct {
	Symbol    string          `json:"symbol"`
	Quantity  decimal.Decimal `json:"quantity"`
	BuyPrice  decimal.Decimal `json:"buy_price"`
	SellPrice decimal.Decimal `json:"sell_price"`
	PnL       decimal.Decimal `json:"pnl"`
}

// MatchRoundTrips pairs each sell with the oldest unmatched buy.
//
// A sell with no queued buy is ignored. Each match consumes the whole buy and
// realizes min(buy, sell) units; any unmatched remainder on either side is
// dropped rather than re-queued. Symbols are not separated.
func MatchRoundTrips(trades []market.Trade) []RoundTrip {
	var (
		queue []market.Trade
		out   []RoundTrip
	)
	for _, t := range trades {
		switch t.Side {
		case market.Buy:
			queue = append(queue, t)
		case market.Sell:
			if len(queue) == 0 {
				continue
			}
			buy := queue[0]
			queue = queue[1:]

			qty := decimal.Min(buy.Quantity, t.Quantity)
			out = append(out, RoundTrip{
				Symbol:    t.Symbol,
				Quantity:  qty,
				BuyPrice:  buy.Price,
				SellPrice: t.Price,
				PnL:       t.Price.Sub(buy.Price).Mul(qty),
			})
		}
	}
	return out
}
