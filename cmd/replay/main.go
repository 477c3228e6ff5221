// Binary replay runs a recorded session of tick requests through the engine
// and a paper account, scoring the strategy offline. Orders fill only when
// marketable against the recorded book.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"basketbot-go/internal/config"
	"basketbot-go/internal/engine"
	"basketbot-go/internal/exchange"
	"basketbot-go/internal/paper"
	"basketbot-go/internal/util"
)

func main() {
	var (
		cfgPath   = flag.String("config", "internal/config/config.yaml", "config file")
		fillsPath = flag.String("fills", "", "optional JSONL file to record fills")
		seed      = flag.Int64("seed", 1, "rng seed for deterministic replays")
	)
	flag.Parse()

	_ = godotenv.Load()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: replay [flags] <session.jsonl>")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		cfg = config.Default()
	}
	log := util.NewLogger(cfg.App.LogLevel)
	if err != nil {
		log.Warn().Err(err).Str("path", *cfgPath).Msg("config not loaded, using defaults")
	}

	file, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("open session")
	}
	defer file.Close()

	limits := make(map[string]int, len(cfg.Instruments))
	for symbol := range cfg.Instruments {
		limits[symbol] = cfg.Limit(symbol)
	}
	account := paper.NewAccount(limits)

	var recorder paper.FillRecorder = paper.NewLedger(0)
	if *fillsPath != "" {
		jsonl, err := paper.NewJSONLRecorder(*fillsPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open fills file")
		}
		defer jsonl.Close()
		recorder = jsonl
	}

	eng := engine.New(cfg, rand.New(rand.NewSource(*seed)), log)

	marks := make(map[string]float64)
	var traderData string
	ticks := 0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req exchange.TickRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Warn().Err(err).Msg("skipping malformed session line")
			continue
		}
		req.Positions = account.Positions()
		req.TraderData = traderData

		resp := eng.Run(req)
		traderData = resp.TraderData
		ticks++

		for symbol, book := range req.Books {
			if mid, ok := book.Mid(); ok {
				marks[symbol] = mid
			}
		}
		applyFills(account, recorder, req, resp, log)
	}
	if err := scanner.Err(); err != nil {
		log.Fatal().Err(err).Msg("read session")
	}

	snap := account.Snapshot(marks)
	fmt.Printf("ticks: %d\n", ticks)
	fmt.Printf("realized pnl: %.2f\n", snap.RealizedPnL)
	fmt.Printf("equity: %.2f\n", snap.Equity)

	symbols := make([]string, 0, len(snap.Positions))
	for symbol := range snap.Positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	for _, symbol := range symbols {
		pos := snap.Positions[symbol]
		fmt.Printf("  %-28s qty %5d  avg %10.2f  unrealized %10.2f\n",
			symbol, pos.Qty, pos.AvgCost, pos.Unrealized)
	}
}

// applyFills executes the marketable portion of each order against the
// recorded book. Passive quotes that do not cross are dropped: without the
// counterparty flow from the live session there is nothing to fill them.
func applyFills(account *paper.Account, recorder paper.FillRecorder, req exchange.TickRequest, resp exchange.TickResponse, log zerolog.Logger) {
	for symbol, orders := range resp.Orders {
		book := req.Books[symbol]
		for _, order := range orders {
			for _, fill := range marketableFills(order, book, req.Timestamp) {
				if err := account.Fill(fill); err != nil {
					log.Warn().Err(err).Str("symbol", symbol).Msg("fill rejected")
					continue
				}
				recorder.Record(fill)
			}
		}
	}
}

// marketableFills walks the opposing side of the book and returns the fills
// the order would have received, best price first.
func marketableFills(order exchange.Order, book exchange.OrderBook, ts int64) []paper.Fill {
	var fills []paper.Fill
	remaining := order.Qty

	if remaining > 0 {
		for _, price := range book.AskPricesAsc() {
			if price > order.Price || remaining <= 0 {
				break
			}
			qty := book.AskVolume(price)
			if qty > remaining {
				qty = remaining
			}
			fills = append(fills, paper.Fill{Timestamp: int(ts), Symbol: order.Symbol, Price: price, Qty: qty})
			remaining -= qty
		}
		return fills
	}

	remaining = -remaining
	for _, price := range book.BidPricesDesc() {
		if price < order.Price || remaining <= 0 {
			break
		}
		qty := book.BidVolume(price)
		if qty > remaining {
			qty = remaining
		}
		fills = append(fills, paper.Fill{Timestamp: int(ts), Symbol: order.Symbol, Price: price, Qty: -qty})
		remaining -= qty
	}
	return fills
}
