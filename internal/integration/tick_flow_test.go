package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"basketbot-go/internal/config"
	"basketbot-go/internal/engine"
	"basketbot-go/internal/exchange"
	"basketbot-go/internal/feed"
	"basketbot-go/internal/paper"
)

// Drives the full loop: stdio feed in, engine decisions, paper fills, and
// JSONL responses out, carrying trader data across ticks the way the
// simulator would.
func TestTickFlowThroughPaperAccount(t *testing.T) {
	cfg := config.Default()
	cfg.Instruments = map[string]config.Instrument{
		"RAINFOREST_RESIN": {
			PositionLimit: 50,
			Alpha:         0.15,
			SpreadFactor:  0.5,
			MeanReversion: true,
			MinSpread:     2,
			TakeWidth:     2,
		},
	}

	input := strings.Join([]string{
		`{"timestamp":100,"books":{"RAINFOREST_RESIN":{"buys":{"99":10},"sells":{"101":-10}}}}`,
		`{"timestamp":200,"books":{"RAINFOREST_RESIN":{"buys":{"99":10},"sells":{"101":-10}}}}`,
	}, "\n")

	var out bytes.Buffer
	session := feed.NewFeed(feed.ProviderStdio, zerolog.Nop(), feed.WithStreams(strings.NewReader(input), &out))

	ticks := make(chan exchange.TickRequest, 2)
	errCh := make(chan error, 1)
	go func() { errCh <- session.Run(context.Background(), ticks) }()
	if err := <-errCh; err != nil {
		t.Fatalf("feed Run returned error: %v", err)
	}
	close(ticks)

	eng := engine.New(cfg, rand.New(rand.NewSource(1)), zerolog.Nop())
	account := paper.NewAccount(map[string]int{"RAINFOREST_RESIN": 50})
	ledger := paper.NewLedger(16)

	var traderData string
	for req := range ticks {
		req.Positions = account.Positions()
		req.TraderData = traderData

		resp := eng.Run(req)
		if err := session.Send(resp); err != nil {
			t.Fatalf("Send returned error: %v", err)
		}
		traderData = resp.TraderData

		// Assume every order fills at its limit price.
		for _, orders := range resp.Orders {
			for _, order := range orders {
				fill := paper.Fill{
					Timestamp: int(req.Timestamp),
					Symbol:    order.Symbol,
					Price:     order.Price,
					Qty:       order.Qty,
				}
				if err := account.Fill(fill); err != nil {
					t.Fatalf("paper fill rejected: %v", err)
				}
				ledger.Record(fill)
			}
		}
	}

	// Both quoted sides fill each tick, so the book is flat with the spread
	// captured as realized profit.
	if pos := account.Position("RAINFOREST_RESIN"); pos != 0 {
		t.Fatalf("expected flat position after symmetric fills, got %d", pos)
	}
	if pnl := account.RealizedPnL(); pnl <= 0 {
		t.Fatalf("expected positive realized pnl, got %.2f", pnl)
	}
	if fills := ledger.Snapshot(); len(fills) != 4 {
		t.Fatalf("expected 4 fills over 2 ticks, got %d", len(fills))
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 response lines, got %d", len(lines))
	}
	for _, line := range lines {
		var resp exchange.TickResponse
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			t.Fatalf("response line did not parse: %v", err)
		}
		if len(resp.Orders["RAINFOREST_RESIN"]) != 2 {
			t.Fatalf("expected a bid and an ask per tick, got %+v", resp.Orders)
		}
	}
}
