// Package paper simulates fills against a virtual account so engine output
// can be replayed and scored without a live exchange session.
package paper

import (
	"errors"
	"sync"
)

// Fill is one simulated execution. Qty is signed: positive buys, negative
// sells, matching the order convention.
type Fill struct {
	Timestamp int    `json:"timestamp"`
	Symbol    string `json:"symbol"`
	Price     int    `json:"price"`
	Qty       int    `json:"qty"`
}

// FillRecorder captures paper fills for later inspection.
type FillRecorder interface {
	Record(Fill)
}

type positionState struct {
	Qty     int
	AvgCost float64
}

// Account tracks virtual cash, realized PnL, and signed per-symbol positions.
// Shorting is allowed; the only hard constraint is the per-symbol limit.
type Account struct {
	mu          sync.Mutex
	cash        float64
	realizedPnL float64
	limits      map[string]int
	positions   map[string]positionState
}

// PositionSnapshot exposes a read-only view of a single symbol position.
type PositionSnapshot struct {
	Qty         int
	AvgCost     float64
	MarketValue float64
	Unrealized  float64
}

// Snapshot is a consistent view of the account, marked to market using the
// supplied prices.
type Snapshot struct {
	Cash        float64
	RealizedPnL float64
	Equity      float64
	Positions   map[string]PositionSnapshot
}

// NewAccount constructs an account with per-symbol position limits. A symbol
// missing from limits is unconstrained.
func NewAccount(limits map[string]int) *Account {
	copied := make(map[string]int, len(limits))
	for symbol, limit := range limits {
		copied[symbol] = limit
	}
	return &Account{
		limits:    copied,
		positions: make(map[string]positionState),
	}
}

// Fill applies one execution, mutating cash, position, and realized PnL.
// Reducing or crossing a position realizes PnL against the average cost of
// the side being closed.
func (a *Account) Fill(fill Fill) error {
	if fill.Qty == 0 {
		return errors.New("quantity must be non-zero")
	}
	if fill.Price <= 0 {
		return errors.New("price must be positive")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.positions[fill.Symbol]
	newQty := state.Qty + fill.Qty
	if limit, ok := a.limits[fill.Symbol]; ok && abs(newQty) > limit {
		return errors.New("position limit exceeded")
	}

	price := float64(fill.Price)
	a.cash -= float64(fill.Qty) * price

	switch {
	case state.Qty == 0 || sameSign(state.Qty, fill.Qty):
		// Opening or adding: blend the average cost.
		total := float64(abs(state.Qty))*state.AvgCost + float64(abs(fill.Qty))*price
		state.AvgCost = total / float64(abs(newQty))
	case abs(fill.Qty) <= abs(state.Qty):
		// Reducing: realize against the closed quantity, cost unchanged.
		closed := abs(fill.Qty)
		a.realizedPnL += (price - state.AvgCost) * float64(closed) * sign(state.Qty)
	default:
		// Crossing through flat: close the whole old side, open the rest
		// at the fill price.
		closed := abs(state.Qty)
		a.realizedPnL += (price - state.AvgCost) * float64(closed) * sign(state.Qty)
		state.AvgCost = price
	}

	if newQty == 0 {
		delete(a.positions, fill.Symbol)
	} else {
		state.Qty = newQty
		a.positions[fill.Symbol] = state
	}
	return nil
}

// Snapshot returns a copy of balances marked using the supplied prices.
// Symbols without a price contribute nothing to equity.
func (a *Account) Snapshot(prices map[string]float64) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	positions := make(map[string]PositionSnapshot, len(a.positions))
	equity := a.cash
	for symbol, pos := range a.positions {
		mark := prices[symbol]
		marketValue := float64(pos.Qty) * mark
		unrealized := (mark - pos.AvgCost) * float64(pos.Qty)
		if mark == 0 {
			marketValue = 0
			unrealized = 0
		}
		positions[symbol] = PositionSnapshot{
			Qty:         pos.Qty,
			AvgCost:     pos.AvgCost,
			MarketValue: marketValue,
			Unrealized:  unrealized,
		}
		equity += marketValue
	}

	return Snapshot{
		Cash:        a.cash,
		RealizedPnL: a.realizedPnL,
		Equity:      equity,
		Positions:   positions,
	}
}

// Position returns the current signed position for the supplied symbol.
func (a *Account) Position(symbol string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.positions[symbol].Qty
}

// Positions returns a copy of all signed positions, suitable for feeding
// back into the next tick request.
func (a *Account) Positions() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]int, len(a.positions))
	for symbol, pos := range a.positions {
		out[symbol] = pos.Qty
	}
	return out
}

// RealizedPnL returns total closed-trade profit and loss.
func (a *Account) RealizedPnL() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.realizedPnL
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func sameSign(a, b int) bool {
	return (a > 0) == (b > 0)
}
