package strategy

import (
	"math"

	"basketbot-go/internal/config"
	"basketbot-go/internal/exchange"
	"basketbot-go/internal/state"
)

// TakeResult carries the aggressive orders plus the quantity consumed on
// each side, so the quoter can size against the post-take position.
type TakeResult struct {
	Orders []exchange.Order
	Bought int
	Sold   int
}

// takeWidth is the distance from fair value beyond which a resting order is
// worth consuming: wider in volatile regimes, narrower when trending or
// mean-reverting, plus an additive volatility term, bounded to [1, 2×base].
func takeWidth(base float64, regime state.Regime, volatility float64, tuning config.Tuning) float64 {
	adjusted := base
	switch regime {
	case state.RegimeVolatile:
		adjusted = base * tuning.TakeWidthVolatileScale
	case state.RegimeTrending:
		adjusted = base * tuning.TakeWidthTrendingScale
	case state.RegimeMeanReverting:
		adjusted = base * tuning.TakeWidthMeanRevScale
	}
	adjusted += volatility * tuning.TakeWidthVolCoeff
	return math.Max(1, math.Min(adjusted, base*2))
}

// TakeOrders scans the resting book and consumes orders priced favorably
// versus fair value, bounded by the effective position limit on each side.
// Levels are price-sorted, so the walk stops at the first level that fails
// the width test. The book itself is never mutated.
func TakeOrders(ctx Context, book exchange.OrderBook) TakeResult {
	width := takeWidth(ctx.Params.TakeWidth, ctx.Regime, ctx.Volatility, ctx.Tuning)
	effective := ctx.EffectiveLimit()

	var result TakeResult

	for _, price := range book.AskPricesAsc() {
		if float64(price) > ctx.Fair-width {
			break
		}
		capacity := effective - ctx.Position - result.Bought
		if capacity <= 0 {
			break
		}
		qty := book.AskVolume(price)
		if qty > capacity {
			qty = capacity
		}
		if qty > 0 {
			result.Orders = append(result.Orders, exchange.Order{Symbol: ctx.Symbol, Price: price, Qty: qty})
			result.Bought += qty
		}
	}

	for _, price := range book.BidPricesDesc() {
		if float64(price) < ctx.Fair+width {
			break
		}
		capacity := effective + ctx.Position - result.Sold
		if capacity <= 0 {
			break
		}
		qty := book.BidVolume(price)
		if qty > capacity {
			qty = capacity
		}
		if qty > 0 {
			result.Orders = append(result.Orders, exchange.Order{Symbol: ctx.Symbol, Price: price, Qty: -qty})
			result.Sold += qty
		}
	}

	return result
}
