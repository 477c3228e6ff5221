// Package risk tracks estimated per-instrument P&L and flags drawdown
// periods that throttle downstream sizing.
package risk

import (
	"math/rand"
	"time"

	"basketbot-go/internal/config"
	"basketbot-go/internal/state"
)

// Monitor detects drawdowns from a rolling window of mark-to-market P&L
// estimates. Recovery is probabilistic, so the random source is injected to
// keep tests deterministic.
type Monitor struct {
	cfg config.Drawdown
	rng *rand.Rand
}

// NewMonitor builds a monitor. A nil rng falls back to a time-seeded source.
func NewMonitor(cfg config.Drawdown, rng *rand.Rand) *Monitor {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Monitor{cfg: cfg, rng: rng}
}

// ReductionFactor is the sizing multiplier applied while in drawdown.
func (m *Monitor) ReductionFactor() float64 {
	return m.cfg.ReductionFactor
}

// Check estimates this tick's P&L as position change times price change,
// pushes it into the rolling window, and updates the drawdown flag. The P&L
// is a mark-to-market approximation recomputed from the simulator-supplied
// position, not a fill-accurate number.
func (m *Monitor) Check(inst *state.Instrument, position int, mid float64, limit int) bool {
	lastMid := inst.LastMid
	if lastMid == 0 {
		lastMid = mid
	}

	if position != inst.LastPosition {
		change := float64(position - inst.LastPosition)
		inst.PushPnL(change*(mid-lastMid), m.cfg.WindowSize)
	}
	inst.LastPosition = position

	if len(inst.PnLWindow) >= m.cfg.WindowSize {
		sum := inst.PnLSum()
		if sum < -m.cfg.Threshold*float64(limit) {
			inst.InDrawdown = true
			inst.DrawdownTicks = 0
		} else if inst.InDrawdown {
			inst.DrawdownTicks++
			if sum > 0 || inst.DrawdownTicks >= m.cfg.MaxTicks {
				chance := m.cfg.RecoveryFactor * (1 + float64(inst.DrawdownTicks)/10)
				if chance > 0.8 {
					chance = 0.8
				}
				if m.rng.Float64() < chance {
					inst.InDrawdown = false
					inst.DrawdownTicks = 0
				}
			}
		}
	}
	return inst.InDrawdown
}
