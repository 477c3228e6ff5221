package strategy

import (
	"math"

	"basketbot-go/internal/exchange"
	"basketbot-go/internal/state"
)

// Spread computes the quoted spread: a volatility-driven base, regime and
// drawdown adjustments, and a sub-linear widening as inventory grows toward
// the limit.
func Spread(ctx Context) int {
	spreadFactor := ctx.Params.SpreadFactor
	minSpread := float64(ctx.Params.MinSpread)

	switch ctx.Regime {
	case state.RegimeVolatile:
		spreadFactor *= ctx.Tuning.SpreadVolatileScale
		minSpread = math.Max(minSpread+1, minSpread*ctx.Tuning.SpreadVolatileScale)
	case state.RegimeTrending:
		spreadFactor *= ctx.Tuning.SpreadTrendingScale
		minSpread = math.Max(1, minSpread-1)
	case state.RegimeMeanReverting:
		spreadFactor *= ctx.Tuning.SpreadMeanRevScale
	}
	if ctx.InDrawdown {
		spreadFactor *= ctx.Tuning.SpreadDrawdownScale
		minSpread = math.Max(minSpread+1, minSpread*1.5)
	}

	base := math.Max(minSpread, math.Ceil(ctx.Volatility*ctx.Params.VolatilityScale*ctx.Fair*spreadFactor))

	positionRatio := 0.0
	if ctx.Limit > 0 {
		positionRatio = math.Abs(float64(ctx.Position)) / float64(ctx.Limit)
	}
	widening := math.Ceil(math.Log(1+5*positionRatio) * base * ctx.Params.RiskAversion)

	return int(base + widening)
}

// Quote posts passive bid/ask orders around fair value. The bias term skews
// quotes toward inventory-reducing fills and with the trend; the minimum
// spread is enforced by symmetric widening, so ask > bid always holds.
func Quote(ctx Context, spread int) []exchange.Order {
	effective := ctx.EffectiveLimit()
	if effective <= 0 {
		return nil
	}

	aggressiveEdge := ctx.Params.AggressiveEdge
	switch ctx.Regime {
	case state.RegimeVolatile:
		aggressiveEdge *= 0.8
	case state.RegimeTrending:
		aggressiveEdge *= 1.3
	case state.RegimeMeanReverting:
		aggressiveEdge *= 1.1
	}

	half := float64(spread) / 2
	positionBias := -float64(ctx.Position) / float64(effective)
	biasAdjustment := half * (ctx.Tuning.TrendBiasWeight*ctx.Trend + ctx.Tuning.InventoryBiasWeight*positionBias) * ctx.Tuning.BiasDamping

	bid := int(math.Floor(ctx.Fair - half + biasAdjustment))
	ask := int(math.Ceil(ctx.Fair + half + biasAdjustment))

	if ask-bid < ctx.Params.MinSpread {
		widen := float64(ctx.Params.MinSpread-(ask-bid)) / 2
		bid = int(math.Floor(float64(bid) - widen))
		ask = int(math.Ceil(float64(ask) + widen))
	}

	remainingBuy := effective - ctx.Position
	remainingSell := effective + ctx.Position

	baseSize := int(float64(effective) * 0.1)
	if baseSize < 1 {
		baseSize = 1
	}
	switch ctx.Regime {
	case state.RegimeVolatile:
		baseSize = max1(int(float64(baseSize) * 0.8))
	case state.RegimeTrending:
		baseSize = max1(int(float64(baseSize) * 1.3))
	}
	if ctx.InDrawdown {
		baseSize = max1(int(float64(baseSize) * 0.7))
	}

	buySize := int(math.Ceil(float64(baseSize) * (1 + aggressiveEdge*(1-positionBias))))
	if buySize > remainingBuy {
		buySize = remainingBuy
	}
	sellSize := int(math.Ceil(float64(baseSize) * (1 + aggressiveEdge*(1+positionBias))))
	if sellSize > remainingSell {
		sellSize = remainingSell
	}

	var orders []exchange.Order
	if buySize > 0 {
		orders = append(orders, exchange.Order{Symbol: ctx.Symbol, Price: bid, Qty: buySize})
	}
	if sellSize > 0 {
		orders = append(orders, exchange.Order{Symbol: ctx.Symbol, Price: ask, Qty: -sellSize})
	}
	return orders
}

func max1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
