// Package exchange defines the wire contract shared with the market simulator:
// order books, positions, own trades in; limit orders and trader state out.
package exchange

// Side enumerates order directions, derived from the sign of a quantity.
type Side string

const (
	// Buy indicates a long order (positive quantity).
	Buy Side = "BUY"
	// Sell indicates a short order (negative quantity).
	Sell Side = "SELL"
)

// Order is a limit order emitted for the next tick. Quantity is signed:
// positive buys, negative sells. A zero quantity is never valid.
type Order struct {
	Symbol string `json:"symbol"`
	Price  int    `json:"price"`
	Qty    int    `json:"quantity"`
}

// Side reports the direction implied by the order quantity.
func (o Order) Side() Side {
	if o.Qty < 0 {
		return Sell
	}
	return Buy
}

// Trade reports one of our own fills since the previous tick.
type Trade struct {
	Symbol       string `json:"symbol"`
	Price        int    `json:"price"`
	Qty          int    `json:"quantity"`
	Counterparty string `json:"counterparty,omitempty"`
}

// TickRequest is the per-tick snapshot handed to the engine by the simulator.
type TickRequest struct {
	Timestamp  int64                `json:"timestamp"`
	Books      map[string]OrderBook `json:"books"`
	Positions  map[string]int       `json:"positions"`
	OwnTrades  map[string][]Trade   `json:"own_trades,omitempty"`
	TraderData string               `json:"trader_data,omitempty"`
}

// TickResponse carries the orders for the next tick plus the opaque state
// blob the simulator must hand back unchanged on the next call. Conversions
// is a simulator-defined side channel; this engine always leaves it at zero.
type TickResponse struct {
	Orders      map[string][]Order `json:"orders"`
	Conversions int                `json:"conversions"`
	TraderData  string             `json:"trader_data"`
}
