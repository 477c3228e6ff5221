// Package state holds the typed per-instrument signal state the engine
// carries between ticks, plus the JSON codec for the opaque trader-data blob
// exchanged with the simulator.
package state

import "encoding/json"

// Version tags the serialized document so future layouts can migrate old
// blobs instead of silently misreading them.
const Version = 1

// Regime is a coarse classification of recent price behaviour used to
// rescale strategy parameters.
type Regime string

const (
	RegimeNormal        Regime = "normal"
	RegimeTrending      Regime = "trending"
	RegimeVolatile      Regime = "volatile"
	RegimeMeanReverting Regime = "mean_reverting"
)

// ArbCounters tracks arbitrage lots executed per direction for one composite
// or derivative instrument.
type ArbCounters struct {
	BoughtLots int `json:"bought_lots,omitempty"`
	SoldLots   int `json:"sold_lots,omitempty"`
}

// Instrument is the persisted signal state for a single instrument. Created
// on first observation and updated every tick for the life of the session.
type Instrument struct {
	History       []float64 `json:"history,omitempty"`
	EMA           float64   `json:"ema"`
	EMASet        bool      `json:"ema_set"`
	Volatility    float64   `json:"volatility"`
	Trend         float64   `json:"trend"`
	Regime        Regime    `json:"regime,omitempty"`
	FairValue     float64   `json:"fair_value"`
	FairValueSet  bool      `json:"fair_value_set"`
	LastMid       float64   `json:"last_mid"`
	LastPosition  int       `json:"last_position"`
	PnLWindow     []float64 `json:"pnl_window,omitempty"`
	InDrawdown    bool      `json:"in_drawdown,omitempty"`
	DrawdownTicks int       `json:"drawdown_ticks,omitempty"`
}

// State is the full persisted document, keyed by instrument symbol.
type State struct {
	Version     int                     `json:"version"`
	Instruments map[string]*Instrument  `json:"instruments"`
	Arbitrage   map[string]*ArbCounters `json:"arbitrage,omitempty"`
}

// New returns an empty state ready for the first tick.
func New() *State {
	return &State{
		Version:     Version,
		Instruments: make(map[string]*Instrument),
		Arbitrage:   make(map[string]*ArbCounters),
	}
}

// Decode parses a trader-data blob. Malformed or version-mismatched input
// yields a fresh empty state: a bad blob must never fail the tick. The
// second return is false when the fallback was taken for a non-empty blob.
func Decode(blob string) (*State, bool) {
	if blob == "" {
		return New(), true
	}
	var st State
	if err := json.Unmarshal([]byte(blob), &st); err != nil {
		return New(), false
	}
	if st.Version != Version {
		return New(), false
	}
	if st.Instruments == nil {
		st.Instruments = make(map[string]*Instrument)
	}
	if st.Arbitrage == nil {
		st.Arbitrage = make(map[string]*ArbCounters)
	}
	return &st, true
}

// Encode serializes the state for the simulator to carry to the next tick.
func (s *State) Encode() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Instrument returns the state for a symbol, creating it on first use.
func (s *State) Instrument(symbol string) *Instrument {
	inst, ok := s.Instruments[symbol]
	if !ok {
		inst = &Instrument{Regime: RegimeNormal}
		s.Instruments[symbol] = inst
	}
	return inst
}

// ArbCounters returns the arbitrage counters for a symbol, creating them on
// first use.
func (s *State) ArbCounters(symbol string) *ArbCounters {
	counters, ok := s.Arbitrage[symbol]
	if !ok {
		counters = &ArbCounters{}
		s.Arbitrage[symbol] = counters
	}
	return counters
}

// PushHistory appends a mid price, evicting the oldest sample beyond limit.
func (i *Instrument) PushHistory(mid float64, limit int) {
	i.History = append(i.History, mid)
	if limit > 0 && len(i.History) > limit {
		i.History = i.History[len(i.History)-limit:]
	}
}

// PushPnL appends a per-tick P&L estimate, evicting beyond limit.
func (i *Instrument) PushPnL(pnl float64, limit int) {
	i.PnLWindow = append(i.PnLWindow, pnl)
	if limit > 0 && len(i.PnLWindow) > limit {
		i.PnLWindow = i.PnLWindow[len(i.PnLWindow)-limit:]
	}
}

// PnLSum returns the cumulative P&L over the rolling window.
func (i *Instrument) PnLSum() float64 {
	var sum float64
	for _, pnl := range i.PnLWindow {
		sum += pnl
	}
	return sum
}
