package paper

import (
	"math"
	"testing"
)

func TestFillBlendsAverageCost(t *testing.T) {
	acct := NewAccount(nil)
	if err := acct.Fill(Fill{Symbol: "KELP", Price: 100, Qty: 10}); err != nil {
		t.Fatalf("first fill failed: %v", err)
	}
	if err := acct.Fill(Fill{Symbol: "KELP", Price: 110, Qty: 10}); err != nil {
		t.Fatalf("second fill failed: %v", err)
	}
	snap := acct.Snapshot(nil)
	pos := snap.Positions["KELP"]
	if pos.Qty != 20 {
		t.Fatalf("expected position 20, got %d", pos.Qty)
	}
	if math.Abs(pos.AvgCost-105) > 1e-9 {
		t.Fatalf("expected avg cost 105, got %.2f", pos.AvgCost)
	}
}

func TestReducingRealizesPnL(t *testing.T) {
	acct := NewAccount(nil)
	if err := acct.Fill(Fill{Symbol: "KELP", Price: 100, Qty: 10}); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := acct.Fill(Fill{Symbol: "KELP", Price: 110, Qty: -4}); err != nil {
		t.Fatalf("reduce failed: %v", err)
	}
	if math.Abs(acct.RealizedPnL()-40) > 1e-9 {
		t.Fatalf("expected realized 40, got %.2f", acct.RealizedPnL())
	}
	if acct.Position("KELP") != 6 {
		t.Fatalf("expected position 6, got %d", acct.Position("KELP"))
	}
}

func TestCrossingThroughFlat(t *testing.T) {
	acct := NewAccount(nil)
	if err := acct.Fill(Fill{Symbol: "KELP", Price: 100, Qty: 5}); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := acct.Fill(Fill{Symbol: "KELP", Price: 110, Qty: -8}); err != nil {
		t.Fatalf("cross failed: %v", err)
	}
	if math.Abs(acct.RealizedPnL()-50) > 1e-9 {
		t.Fatalf("expected realized 50, got %.2f", acct.RealizedPnL())
	}
	snap := acct.Snapshot(nil)
	pos := snap.Positions["KELP"]
	if pos.Qty != -3 || math.Abs(pos.AvgCost-110) > 1e-9 {
		t.Fatalf("expected short 3 at 110, got %d at %.2f", pos.Qty, pos.AvgCost)
	}
}

func TestShortCoverProfits(t *testing.T) {
	acct := NewAccount(nil)
	if err := acct.Fill(Fill{Symbol: "DJEMBE", Price: 100, Qty: -5}); err != nil {
		t.Fatalf("short failed: %v", err)
	}
	if err := acct.Fill(Fill{Symbol: "DJEMBE", Price: 90, Qty: 5}); err != nil {
		t.Fatalf("cover failed: %v", err)
	}
	if math.Abs(acct.RealizedPnL()-50) > 1e-9 {
		t.Fatalf("expected realized 50 from short cover, got %.2f", acct.RealizedPnL())
	}
	if acct.Position("DJEMBE") != 0 {
		t.Fatalf("expected flat, got %d", acct.Position("DJEMBE"))
	}
}

func TestPositionLimitEnforced(t *testing.T) {
	acct := NewAccount(map[string]int{"KELP": 10})
	if err := acct.Fill(Fill{Symbol: "KELP", Price: 100, Qty: 10}); err != nil {
		t.Fatalf("fill at limit should pass: %v", err)
	}
	if err := acct.Fill(Fill{Symbol: "KELP", Price: 100, Qty: 1}); err == nil {
		t.Fatalf("expected limit breach to fail")
	}
	if err := acct.Fill(Fill{Symbol: "KELP", Price: 100, Qty: -21}); err == nil {
		t.Fatalf("expected short-side breach to fail")
	}
}

func TestFillRejectsBadInput(t *testing.T) {
	acct := NewAccount(nil)
	if err := acct.Fill(Fill{Symbol: "KELP", Price: 100, Qty: 0}); err == nil {
		t.Fatalf("expected zero quantity to fail")
	}
	if err := acct.Fill(Fill{Symbol: "KELP", Price: 0, Qty: 1}); err == nil {
		t.Fatalf("expected zero price to fail")
	}
}

func TestSnapshotMarksToMarket(t *testing.T) {
	acct := NewAccount(nil)
	if err := acct.Fill(Fill{Symbol: "KELP", Price: 100, Qty: 10}); err != nil {
		t.Fatalf("fill failed: %v", err)
	}
	snap := acct.Snapshot(map[string]float64{"KELP": 105})
	if math.Abs(snap.Cash+1000) > 1e-9 {
		t.Fatalf("expected cash -1000, got %.2f", snap.Cash)
	}
	if math.Abs(snap.Equity-50) > 1e-9 {
		t.Fatalf("expected equity 50, got %.2f", snap.Equity)
	}
	if math.Abs(snap.Positions["KELP"].Unrealized-50) > 1e-9 {
		t.Fatalf("expected unrealized 50, got %.2f", snap.Positions["KELP"].Unrealized)
	}
}

func TestPositionsCopy(t *testing.T) {
	acct := NewAccount(nil)
	if err := acct.Fill(Fill{Symbol: "JAM", Price: 50, Qty: 3}); err != nil {
		t.Fatalf("fill failed: %v", err)
	}
	positions := acct.Positions()
	positions["JAM"] = 999
	if acct.Position("JAM") != 3 {
		t.Fatalf("mutating the copy must not touch the account")
	}
}
