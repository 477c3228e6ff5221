package strategy

import (
	"math"

	"github.com/rs/zerolog"

	"basketbot-go/internal/config"
	"basketbot-go/internal/exchange"
	"basketbot-go/internal/state"
)

// Market is the read-only cross-instrument view the arbitrage pass works
// from: current books, positions, limits, and the fair values maintained by
// the signal engine.
type Market struct {
	Books     map[string]exchange.OrderBook
	Positions map[string]int
	Limits    map[string]int
	Fairs     map[string]float64
}

// fairOrMid returns the maintained fair value for a symbol, falling back to
// the book mid. The second return is false when neither is available.
func (m Market) fairOrMid(symbol string) (float64, bool) {
	if fair, ok := m.Fairs[symbol]; ok {
		return fair, true
	}
	book, ok := m.Books[symbol]
	if !ok {
		return 0, false
	}
	bid, hasBid := book.BestBid()
	ask, hasAsk := book.BestAsk()
	if !hasBid || !hasAsk || bid >= ask {
		return 0, false
	}
	return float64(bid+ask) / 2, true
}

// Arbitrager detects and executes basket and voucher mispricings. All legs
// of one execution are emitted in the same tick's batch; the exchange does
// not guarantee atomic fills across legs and that risk is accepted.
type Arbitrager struct {
	cfg config.Arbitrage
	log zerolog.Logger
}

// NewArbitrager builds an arbitrager with the supplied thresholds.
func NewArbitrager(cfg config.Arbitrage, log zerolog.Logger) *Arbitrager {
	return &Arbitrager{cfg: cfg, log: log}
}

// Basket compares a composite instrument against the discounted sum of its
// component fair values and, when the gap clears the per-lot profit
// threshold, trades the basket against all components at once. Sizing takes
// the minimum across ask/bid liquidity, the per-tick lot cap, basket
// headroom, and every component's headroom divided by its per-basket
// quantity. If any component price is unavailable the basket is skipped for
// this tick.
func (a *Arbitrager) Basket(basket string, composition map[string]int, market Market, counters *state.ArbCounters) []exchange.Order {
	basketBook, ok := market.Books[basket]
	if !ok {
		return nil
	}

	componentValue := 0.0
	for component, qty := range composition {
		if qty == 0 {
			continue
		}
		value, ok := market.fairOrMid(component)
		if !ok {
			a.log.Debug().Str("basket", basket).Str("component", component).Msg("skip basket, component unpriced")
			return nil
		}
		componentValue += value * float64(qty)
	}
	expected := componentValue * a.cfg.BasketDiscount

	basketPosition := market.Positions[basket]
	basketLimit := market.Limits[basket]

	var orders []exchange.Order

	// Basket trading below its expected value: buy the basket at the ask and
	// sell each component at its best bid.
	if ask, ok := basketBook.BestAsk(); ok {
		if expected-float64(ask) >= a.cfg.MinProfitPerLot {
			lots := minInt(basketBook.AskVolume(ask), a.cfg.MaxLotsPerTick, basketLimit-basketPosition)
			for component, qty := range composition {
				if qty == 0 {
					continue
				}
				headroom := market.Limits[component] - market.Positions[component]
				lots = minInt(lots, headroom/qty)
			}
			if lots > 0 {
				orders = append(orders, exchange.Order{Symbol: basket, Price: ask, Qty: lots})
				for component, qty := range composition {
					if qty == 0 {
						continue
					}
					book := market.Books[component]
					if bid, ok := book.BestBid(); ok {
						orders = append(orders, exchange.Order{Symbol: component, Price: bid, Qty: -lots * qty})
					}
				}
				counters.BoughtLots += lots
				a.log.Info().Str("basket", basket).Int("lots", lots).Float64("edge", expected-float64(ask)).Msg("buy basket, sell components")
			}
		}
	}

	// Basket trading above its expected value: sell the basket at the bid
	// and buy each component at its best ask.
	if bid, ok := basketBook.BestBid(); ok {
		if float64(bid)-expected >= a.cfg.MinProfitPerLot {
			lots := minInt(basketBook.BidVolume(bid), a.cfg.MaxLotsPerTick, basketLimit+basketPosition)
			for component, qty := range composition {
				if qty == 0 {
					continue
				}
				headroom := market.Limits[component] + market.Positions[component]
				lots = minInt(lots, headroom/qty)
			}
			if lots > 0 {
				orders = append(orders, exchange.Order{Symbol: basket, Price: bid, Qty: -lots})
				for component, qty := range composition {
					if qty == 0 {
						continue
					}
					book := market.Books[component]
					if ask, ok := book.BestAsk(); ok {
						orders = append(orders, exchange.Order{Symbol: component, Price: ask, Qty: lots * qty})
					}
				}
				counters.SoldLots += lots
				a.log.Info().Str("basket", basket).Int("lots", lots).Float64("edge", float64(bid)-expected).Msg("sell basket, buy components")
			}
		}
	}

	return orders
}

// TheoreticalVoucherValue prices a voucher-style derivative as intrinsic
// value plus a linear time-decay premium.
func TheoreticalVoucherValue(underlyingFair float64, strike int, daysToExpiry int, premiumFactor float64) float64 {
	intrinsic := math.Max(0, underlyingFair-float64(strike))
	timeValue := intrinsic * (float64(daysToExpiry) / 7) * premiumFactor
	return intrinsic + timeValue
}

// Voucher arbitrages a derivative against its underlying using book prices:
// buy the voucher and sell the underlying when exercising at the bid beats
// the voucher ask, and the reverse when the voucher bid exceeds the cost of
// covering at the underlying ask. Requires a maintained fair value for the
// underlying; skipped otherwise.
func (a *Arbitrager) Voucher(voucher string, strike int, underlying string, market Market, counters *state.ArbCounters) []exchange.Order {
	underFair, ok := market.Fairs[underlying]
	if !ok {
		return nil
	}
	voucherBook, ok := market.Books[voucher]
	if !ok {
		return nil
	}
	underBook, ok := market.Books[underlying]
	if !ok {
		return nil
	}

	theo := TheoreticalVoucherValue(underFair, strike, a.cfg.DaysToExpiry, a.cfg.VoucherPremiumFactor)
	a.log.Debug().Str("voucher", voucher).Float64("theo", theo).Msg("voucher theoretical value")

	voucherPosition := market.Positions[voucher]
	voucherLimit := market.Limits[voucher]
	underPosition := market.Positions[underlying]
	underLimit := market.Limits[underlying]

	var orders []exchange.Order

	if voucherAsk, ok := voucherBook.BestAsk(); ok {
		if underBid, ok := underBook.BestBid(); ok {
			profit := float64(underBid-strike) - float64(voucherAsk)
			if profit >= a.cfg.MinProfitPerLot {
				lots := minInt(
					voucherBook.AskVolume(voucherAsk),
					underBook.BidVolume(underBid),
					a.cfg.MaxLotsPerTick,
					voucherLimit-voucherPosition,
					underLimit+underPosition,
				)
				if lots > 0 {
					orders = append(orders,
						exchange.Order{Symbol: voucher, Price: voucherAsk, Qty: lots},
						exchange.Order{Symbol: underlying, Price: underBid, Qty: -lots},
					)
					counters.BoughtLots += lots
					a.log.Info().Str("voucher", voucher).Int("lots", lots).Float64("edge", profit).Msg("buy voucher, sell underlying")
				}
			}
		}
	}

	if voucherBid, ok := voucherBook.BestBid(); ok {
		if underAsk, ok := underBook.BestAsk(); ok {
			profit := float64(voucherBid) - math.Max(0, float64(underAsk-strike))
			if profit >= a.cfg.MinProfitPerLot {
				lots := minInt(
					voucherBook.BidVolume(voucherBid),
					underBook.AskVolume(underAsk),
					a.cfg.MaxLotsPerTick,
					voucherLimit+voucherPosition,
					underLimit-underPosition,
				)
				if lots > 0 {
					orders = append(orders,
						exchange.Order{Symbol: voucher, Price: voucherBid, Qty: -lots},
						exchange.Order{Symbol: underlying, Price: underAsk, Qty: lots},
					)
					counters.SoldLots += lots
					a.log.Info().Str("voucher", voucher).Int("lots", lots).Float64("edge", profit).Msg("sell voucher, buy underlying")
				}
			}
		}
	}

	return orders
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
