// Package engine wires the per-tick pipeline together: decode persisted
// state, run the cross-instrument arbitrage pass, then take, quote, and
// re-persist per instrument. The engine is a pure function of the tick
// request plus the state blob it carries forward.
package engine

import (
	"math/rand"
	"sort"

	"github.com/rs/zerolog"

	"basketbot-go/internal/config"
	"basketbot-go/internal/exchange"
	"basketbot-go/internal/metrics"
	"basketbot-go/internal/risk"
	"basketbot-go/internal/signal"
	"basketbot-go/internal/state"
	"basketbot-go/internal/strategy"
)

// Engine is the per-tick decision engine. It holds only configuration and
// collaborators; all evolving state travels through the trader-data blob.
type Engine struct {
	cfg     *config.Config
	signals *signal.Engine
	monitor *risk.Monitor
	arb     *strategy.Arbitrager
	log     zerolog.Logger
}

// New builds an engine. The rng drives probabilistic drawdown recovery and
// may be nil for a time-seeded source.
func New(cfg *config.Config, rng *rand.Rand, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:     cfg,
		signals: signal.New(cfg.Signal),
		monitor: risk.NewMonitor(cfg.Drawdown, rng),
		arb:     strategy.NewArbitrager(cfg.Arbitrage, log),
		log:     log,
	}
}

// Run processes one tick: for every instrument with a valid book it updates
// signals, takes favorable resting orders, and posts quotes; composite and
// derivative instruments additionally go through the arbitrage pass first.
// Instruments with crossed or empty books are skipped for the tick.
func (e *Engine) Run(req exchange.TickRequest) exchange.TickResponse {
	metrics.TicksTotal.Inc()

	st, ok := state.Decode(req.TraderData)
	if !ok {
		metrics.StateDecodeFailures.Inc()
		e.log.Warn().Msg("trader data malformed, starting from empty state")
	}

	symbols := make([]string, 0, len(req.Books))
	for symbol := range req.Books {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	// Working positions include the headroom already committed by earlier
	// arbitrage legs this tick, so later sizing cannot jointly breach a
	// limit the simulator would enforce.
	positions := make(map[string]int, len(req.Positions))
	for symbol, position := range req.Positions {
		positions[symbol] = position
	}

	limits := make(map[string]int, len(symbols))
	fairs := make(map[string]float64)
	for _, symbol := range symbols {
		limits[symbol] = e.cfg.Limit(symbol)
		if inst, found := st.Instruments[symbol]; found && inst.FairValueSet {
			fairs[symbol] = inst.FairValue
		}
	}
	market := strategy.Market{Books: req.Books, Positions: positions, Limits: limits, Fairs: fairs}

	result := make(map[string][]exchange.Order)

	for _, symbol := range symbols {
		params := e.cfg.Params(symbol)
		var legs []exchange.Order
		if len(params.Basket) > 0 {
			legs = e.arb.Basket(symbol, params.Basket, market, st.ArbCounters(symbol))
		} else if params.Strike > 0 && params.Underlying != "" {
			legs = e.arb.Voucher(symbol, params.Strike, params.Underlying, market, st.ArbCounters(symbol))
		}
		if len(legs) == 0 {
			continue
		}
		metrics.ArbLegsTotal.WithLabelValues(symbol).Add(float64(len(legs)))
		for _, order := range legs {
			result[order.Symbol] = append(result[order.Symbol], order)
			positions[order.Symbol] += order.Qty
			metrics.OrdersTotal.WithLabelValues(order.Symbol, string(order.Side())).Inc()
		}
	}

	for _, symbol := range symbols {
		book := req.Books[symbol]
		if book.Empty() {
			metrics.InstrumentsSkipped.WithLabelValues(symbol, "empty").Inc()
			continue
		}
		if book.Crossed() {
			metrics.InstrumentsSkipped.WithLabelValues(symbol, "crossed").Inc()
			e.log.Debug().Str("symbol", symbol).Msg("crossed book, skipping")
			continue
		}
		mid, ok := book.Mid()
		if !ok {
			metrics.InstrumentsSkipped.WithLabelValues(symbol, "no_mid").Inc()
			continue
		}

		params := e.cfg.Params(symbol)
		inst := st.Instrument(symbol)

		e.signals.Observe(inst, mid)
		regime := e.signals.Classify(inst, mid)
		inDrawdown := e.monitor.Check(inst, req.Positions[symbol], mid, params.PositionLimit)
		fair := e.signals.FairValue(inst, mid, params)

		// Arb-only instruments keep their signals fresh but never trade
		// directionally.
		if params.ArbOnly {
			continue
		}

		ctx := strategy.Context{
			Symbol:     symbol,
			Fair:       fair,
			Position:   positions[symbol],
			Limit:      params.PositionLimit,
			Params:     params,
			Tuning:     e.cfg.Tuning,
			Regime:     regime,
			Volatility: inst.Volatility,
			Trend:      inst.Trend,
			InDrawdown: inDrawdown,
			Reduction:  e.monitor.ReductionFactor(),
		}

		take := strategy.TakeOrders(ctx, book)
		for _, order := range take.Orders {
			metrics.TakesTotal.WithLabelValues(symbol, string(order.Side())).Inc()
		}

		ctx.Position += take.Bought - take.Sold
		quotes := strategy.Quote(ctx, strategy.Spread(ctx))

		orders := append(take.Orders, quotes...)
		if len(orders) == 0 {
			continue
		}
		result[symbol] = append(result[symbol], orders...)
		for _, order := range orders {
			metrics.OrdersTotal.WithLabelValues(symbol, string(order.Side())).Inc()
		}
	}

	blob, err := st.Encode()
	if err != nil {
		e.log.Error().Err(err).Msg("encode trader data")
		blob = ""
	}

	return exchange.TickResponse{
		Orders:      result,
		Conversions: 0,
		TraderData:  blob,
	}
}
