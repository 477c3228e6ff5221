// Package strategy contains the per-tick trading decisions: consuming
// favorably priced resting orders, posting passive quotes around fair value,
// and cross-instrument basket and voucher arbitrage.
package strategy

import (
	"math"

	"basketbot-go/internal/config"
	"basketbot-go/internal/state"
)

// Context bundles the per-instrument inputs shared by order taking and
// quoting for one tick.
type Context struct {
	Symbol     string
	Fair       float64
	Position   int
	Limit      int
	Params     config.Instrument
	Tuning     config.Tuning
	Regime     state.Regime
	Volatility float64
	Trend      float64
	InDrawdown bool
	Reduction  float64
}

// EffectiveLimit scales the position limit by the per-instrument utilization
// cap and, while in drawdown, by the reduction factor.
func (c Context) EffectiveLimit() int {
	effective := float64(c.Limit)
	if c.InDrawdown {
		effective = math.Floor(effective * c.Reduction)
	}
	return int(math.Floor(effective * c.Params.MaxPositionScale))
}
