package signal

import (
	"testing"

	"basketbot-go/internal/config"
	"basketbot-go/internal/state"
)

func TestClassifyDefaultsToNormalWithShortHistory(t *testing.T) {
	engine := New(config.Default().Signal)
	inst := &state.Instrument{
		Regime:  state.RegimeTrending,
		History: []float64{100, 101, 102},
	}
	if got := engine.Classify(inst, 102); got != state.RegimeNormal {
		t.Fatalf("expected normal with short history, got %s", got)
	}
}

func TestClassifyTrending(t *testing.T) {
	engine := New(config.Default().Signal)
	inst := &state.Instrument{
		Regime:     state.RegimeNormal,
		History:    []float64{100, 101, 102, 103, 104, 105, 106, 107},
		Volatility: 0.005,
	}
	if got := engine.Classify(inst, 107); got != state.RegimeTrending {
		t.Fatalf("expected trending, got %s", got)
	}
}

func TestClassifyMeanReverting(t *testing.T) {
	engine := New(config.Default().Signal)
	// Flat window, then the latest price jumps 3% away from the average.
	inst := &state.Instrument{
		Regime:     state.RegimeNormal,
		History:    []float64{100, 100, 100, 100, 100, 100, 100, 103},
		Volatility: 0.005,
	}
	if got := engine.Classify(inst, 103); got != state.RegimeMeanReverting {
		t.Fatalf("expected mean_reverting, got %s", got)
	}
}

func TestVolatilitySpikeBelowConfirmDoesNotFlip(t *testing.T) {
	engine := New(config.Default().Signal)
	// Above the 0.025 detection threshold but below the 0.035 confirmation
	// threshold: hysteresis keeps the previous regime.
	inst := &state.Instrument{
		Regime:     state.RegimeNormal,
		History:    []float64{100, 101, 100, 101, 100, 101, 100, 101},
		Volatility: 0.030,
	}
	if got := engine.Classify(inst, 101); got != state.RegimeNormal {
		t.Fatalf("expected hysteresis to hold normal, got %s", got)
	}

	inst.Volatility = 0.040
	if got := engine.Classify(inst, 101); got != state.RegimeVolatile {
		t.Fatalf("expected confirmed volatile, got %s", got)
	}

	// Back below the detection threshold the confirmed label persists until
	// another regime confirms.
	inst.Volatility = 0.020
	if got := engine.Classify(inst, 101); got != state.RegimeVolatile {
		t.Fatalf("expected volatile to persist, got %s", got)
	}
}
