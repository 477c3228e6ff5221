// Package signal maintains rolling per-instrument price statistics and
// derives the exponential fair value, volatility estimate, trend, and market
// regime that drive quoting and order taking.
package signal

import (
	"math"

	"basketbot-go/internal/config"
	"basketbot-go/internal/state"
)

// Engine computes signals over persisted instrument state. It is stateless
// itself; everything it derives lives in the state document so it survives
// the tick boundary.
type Engine struct {
	cfg config.Signal
}

// New builds a signal engine with the supplied tuning.
func New(cfg config.Signal) *Engine {
	return &Engine{cfg: cfg}
}

// Observe appends the mid price to the instrument history and refreshes the
// smoothed volatility estimate. Call once per tick before classification.
func (e *Engine) Observe(inst *state.Instrument, mid float64) {
	inst.PushHistory(mid, e.cfg.HistoryLength)

	if len(inst.History) < 3 {
		if inst.Volatility == 0 {
			inst.Volatility = e.cfg.MinVolatility
		}
		return
	}

	changes := make([]float64, 0, len(inst.History)-1)
	for i := 1; i < len(inst.History); i++ {
		prev := inst.History[i-1]
		if prev == 0 {
			continue
		}
		changes = append(changes, math.Abs(inst.History[i]/prev-1))
	}
	if len(changes) == 0 {
		return
	}

	sample := changes[0]
	if len(changes) > 1 {
		sample = stdev(changes)
	}
	old := inst.Volatility
	if old == 0 {
		old = sample
	}
	inst.Volatility = 0.8*old + 0.2*sample
}

// FairValue updates the trend estimate and EMA, then combines them into the
// fair value used for quoting. The regime rescales both the EMA weight and
// the trend contribution; mean-reversion profiles subtract the trend term
// outside trending regimes, momentum profiles add it.
func (e *Engine) FairValue(inst *state.Instrument, mid float64, params config.Instrument) float64 {
	alpha := regimeAlpha(params.Alpha, inst.Regime)

	if !inst.EMASet {
		inst.EMA = mid
		inst.EMASet = true
		inst.FairValue = mid
		inst.FairValueSet = true
		e.updateTrend(inst, mid)
		return mid
	}

	inst.EMA = alpha*mid + (1-alpha)*inst.EMA
	trend := e.updateTrend(inst, mid)

	trendFactor := params.TrendFactor
	switch inst.Regime {
	case state.RegimeTrending:
		trendFactor *= e.cfg.TrendScaleTrending
	case state.RegimeMeanReverting:
		trendFactor *= e.cfg.TrendScaleMeanRev
	}

	adjustment := trend * trendFactor * inst.Volatility * mid
	fair := inst.EMA + adjustment
	if params.MeanReversion && inst.Regime != state.RegimeTrending {
		fair = inst.EMA - adjustment
	}

	inst.FairValue = fair
	inst.FairValueSet = true
	return fair
}

// updateTrend refreshes the smoothed trend indicator from moving-average
// crossovers plus short-horizon momentum, and records the last mid price.
func (e *Engine) updateTrend(inst *state.Instrument, mid float64) float64 {
	var current float64
	prices := inst.History

	if len(prices) >= 6 {
		short := mean(prices[len(prices)-3:])
		med := mean(prices[len(prices)-6:])
		long := mean(prices)

		switch {
		case short > med && med > long:
			current = 1.5
		case short > med:
			current = 1.0
		case short < med && med < long:
			current = -1.5
		case short < med:
			current = -1.0
		}

		if len(prices) >= 4 {
			recent := (prices[len(prices)-1] - prices[len(prices)-4]) / prices[len(prices)-4]
			if recent > 0 {
				current += 0.5
			} else if recent < 0 {
				current -= 0.5
			}
		}
	} else {
		last := inst.LastMid
		if last == 0 {
			last = mid
		}
		change := 0.0
		if last != 0 {
			change = (mid - last) / last
		}
		switch {
		case change > 0.005:
			current = 1.5
		case change > 0:
			current = 1.0
		case change < -0.005:
			current = -1.5
		case change < 0:
			current = -1.0
		}
	}

	inst.Trend = 0.7*inst.Trend + 0.3*current
	inst.LastMid = mid
	return inst.Trend
}

func regimeAlpha(alpha float64, regime state.Regime) float64 {
	switch regime {
	case state.RegimeVolatile:
		return math.Min(0.7, alpha*1.5)
	case state.RegimeTrending:
		return math.Min(0.6, alpha*1.3)
	case state.RegimeMeanReverting:
		return math.Max(0.15, alpha*0.7)
	default:
		return alpha
	}
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdev is the sample standard deviation.
func stdev(values []float64) float64 {
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
