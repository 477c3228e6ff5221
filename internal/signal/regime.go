package signal

import (
	"math"

	"basketbot-go/internal/state"
)

// Classify determines the market regime from the recent history window and
// applies hysteresis: a switch away from the current regime is accepted only
// when the new regime's trigger clears a stronger confirmation threshold, so
// a single borderline tick cannot flip the label back and forth.
func (e *Engine) Classify(inst *state.Instrument, mid float64) state.Regime {
	if inst.Regime == "" {
		inst.Regime = state.RegimeNormal
	}
	if len(inst.History) < 5 {
		inst.Regime = state.RegimeNormal
		return inst.Regime
	}

	window := inst.History
	if len(window) > e.cfg.RegimeWindow {
		window = window[len(window)-e.cfg.RegimeWindow:]
	}

	consecutiveUp, consecutiveDown := 0, 0
	for i := 1; i < len(window); i++ {
		if window[i] > window[i-1] {
			consecutiveUp++
			consecutiveDown = 0
		} else if window[i] < window[i-1] {
			consecutiveDown++
			consecutiveUp = 0
		}
	}

	lo, hi := window[0], window[0]
	for _, px := range window {
		lo = math.Min(lo, px)
		hi = math.Max(hi, px)
	}
	strength := math.Abs(window[len(window)-1]-window[0]) / (hi - lo + 0.001)

	avg := mean(window)
	deviation := 0.0
	if avg != 0 {
		deviation = math.Abs(mid-avg) / avg
	}

	candidate := state.RegimeNormal
	switch {
	case (consecutiveUp >= 3 || consecutiveDown >= 3) && strength > e.cfg.TrendStrengthMin:
		candidate = state.RegimeTrending
	case inst.Volatility > e.cfg.VolatileThreshold:
		candidate = state.RegimeVolatile
	case deviation > e.cfg.DeviationThreshold:
		candidate = state.RegimeMeanReverting
	}

	if candidate != inst.Regime {
		confirmed := (candidate == state.RegimeVolatile && inst.Volatility > e.cfg.VolatileConfirm) ||
			(candidate == state.RegimeTrending && (consecutiveUp >= 3 || consecutiveDown >= 3)) ||
			(candidate == state.RegimeMeanReverting && deviation > e.cfg.DeviationConfirm)
		if confirmed {
			inst.Regime = candidate
		}
	}
	return inst.Regime
}
