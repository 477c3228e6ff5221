package strategy

import (
	"math"
	"testing"

	"github.com/rs/zerolog"

	"basketbot-go/internal/config"
	"basketbot-go/internal/exchange"
	"basketbot-go/internal/state"
)

var picnicComposition = map[string]int{"CROISSANT": 6, "JAM": 3, "DJEMBE": 1}

func arbMarket() Market {
	return Market{
		Books: map[string]exchange.OrderBook{
			"PICNIC_BASKET1": {Buys: map[int]int{999: 20}, Sells: map[int]int{1001: -20}},
			"CROISSANT":      {Buys: map[int]int{99: 300}, Sells: map[int]int{101: -300}},
			"JAM":            {Buys: map[int]int{99: 300}, Sells: map[int]int{101: -300}},
			"DJEMBE":         {Buys: map[int]int{49: 100}, Sells: map[int]int{51: -100}},
		},
		Positions: map[string]int{},
		Limits: map[string]int{
			"PICNIC_BASKET1": 60,
			"CROISSANT":      250,
			"JAM":            350,
			"DJEMBE":         60,
		},
		Fairs: map[string]float64{
			"CROISSANT": 100,
			"JAM":       100,
			"DJEMBE":    50,
		},
	}
}

func newTestArbitrager() *Arbitrager {
	return NewArbitrager(config.Default().Arbitrage, zerolog.Nop())
}

func TestBasketRichSellsBasketBuysComponents(t *testing.T) {
	// Composite fair value 6*100 + 3*100 + 1*50 = 950; with the 0.97
	// discount the expected basket value is 921.5, far below the 999 bid.
	market := arbMarket()
	counters := &state.ArbCounters{}

	orders := newTestArbitrager().Basket("PICNIC_BASKET1", picnicComposition, market, counters)
	if len(orders) != 4 {
		t.Fatalf("expected basket leg plus three component legs, got %+v", orders)
	}

	bySymbol := map[string]exchange.Order{}
	for _, order := range orders {
		if _, exists := bySymbol[order.Symbol]; exists {
			t.Fatalf("duplicate leg for %s", order.Symbol)
		}
		bySymbol[order.Symbol] = order
	}
	basket := bySymbol["PICNIC_BASKET1"]
	if basket.Qty != -10 || basket.Price != 999 {
		t.Fatalf("expected to sell 10 baskets at 999, got %+v", basket)
	}
	if bySymbol["CROISSANT"].Qty != 60 || bySymbol["JAM"].Qty != 30 || bySymbol["DJEMBE"].Qty != 10 {
		t.Fatalf("component legs not sized by basket quantity: %+v", bySymbol)
	}
	if counters.SoldLots != 10 {
		t.Fatalf("expected 10 sold lots recorded, got %d", counters.SoldLots)
	}
}

func TestBasketCheapBuysBasketSellsComponents(t *testing.T) {
	market := arbMarket()
	market.Books["PICNIC_BASKET1"] = exchange.OrderBook{
		Buys:  map[int]int{898: 20},
		Sells: map[int]int{900: -20},
	}
	counters := &state.ArbCounters{}

	orders := newTestArbitrager().Basket("PICNIC_BASKET1", picnicComposition, market, counters)
	var basketQty int
	for _, order := range orders {
		if order.Symbol == "PICNIC_BASKET1" {
			basketQty = order.Qty
		} else if order.Qty >= 0 {
			t.Fatalf("component legs must sell when buying the basket: %+v", order)
		}
	}
	if basketQty != 10 {
		t.Fatalf("expected to buy 10 baskets, got %d", basketQty)
	}
	if counters.BoughtLots != 10 {
		t.Fatalf("expected 10 bought lots recorded, got %d", counters.BoughtLots)
	}
}

func TestComponentHeadroomBindsJointly(t *testing.T) {
	market := arbMarket()
	// Short croissant headroom: (250 + (-220)) / 6 = 5 lots on the buy side.
	market.Positions["CROISSANT"] = -220

	orders := newTestArbitrager().Basket("PICNIC_BASKET1", picnicComposition, market, &state.ArbCounters{})
	for _, order := range orders {
		if order.Symbol == "PICNIC_BASKET1" && order.Qty != -5 {
			t.Fatalf("expected croissant headroom to bind at 5 lots, got %+v", order)
		}
	}
	if len(orders) == 0 {
		t.Fatalf("expected reduced-size arbitrage, got none")
	}
}

func TestBasketSkippedWhenComponentUnpriced(t *testing.T) {
	market := arbMarket()
	delete(market.Fairs, "DJEMBE")
	delete(market.Books, "DJEMBE")

	orders := newTestArbitrager().Basket("PICNIC_BASKET1", picnicComposition, market, &state.ArbCounters{})
	if len(orders) != 0 {
		t.Fatalf("expected basket skipped with unpriced component, got %+v", orders)
	}
}

func TestBasketNoEdgeNoOrders(t *testing.T) {
	market := arbMarket()
	market.Books["PICNIC_BASKET1"] = exchange.OrderBook{
		Buys:  map[int]int{920: 20},
		Sells: map[int]int{922: -20},
	}

	orders := newTestArbitrager().Basket("PICNIC_BASKET1", picnicComposition, market, &state.ArbCounters{})
	if len(orders) != 0 {
		t.Fatalf("expected no orders when basket trades at expected value, got %+v", orders)
	}
}

func TestTheoreticalVoucherValue(t *testing.T) {
	theo := TheoreticalVoucherValue(10200, 10000, 4, 1.1)
	want := 200 + 200*(4.0/7)*1.1
	if math.Abs(theo-want) > 1e-9 {
		t.Fatalf("expected theo %.4f, got %.4f", want, theo)
	}
	if TheoreticalVoucherValue(9500, 10000, 4, 1.1) != 0 {
		t.Fatalf("out-of-the-money voucher must have zero theoretical value")
	}
}

func TestVoucherArbitrageBuysCheapVoucher(t *testing.T) {
	market := Market{
		Books: map[string]exchange.OrderBook{
			"VOUCHER": {Buys: map[int]int{40: 30}, Sells: map[int]int{50: -30}},
			"ROCK":    {Buys: map[int]int{10080: 15}, Sells: map[int]int{10090: -15}},
		},
		Positions: map[string]int{},
		Limits:    map[string]int{"VOUCHER": 200, "ROCK": 400},
		Fairs:     map[string]float64{"ROCK": 10085},
	}

	orders := newTestArbitrager().Voucher("VOUCHER", 10000, "ROCK", market, &state.ArbCounters{})
	// Exercise value at the rock bid is 80 versus a 50 voucher ask: buy the
	// voucher, sell the rock, 10 lots (per-tick cap).
	if len(orders) != 2 {
		t.Fatalf("expected two legs, got %+v", orders)
	}
	if orders[0].Symbol != "VOUCHER" || orders[0].Qty != 10 || orders[0].Price != 50 {
		t.Fatalf("unexpected voucher leg: %+v", orders[0])
	}
	if orders[1].Symbol != "ROCK" || orders[1].Qty != -10 || orders[1].Price != 10080 {
		t.Fatalf("unexpected rock leg: %+v", orders[1])
	}
}

func TestVoucherSkippedWithoutUnderlyingFair(t *testing.T) {
	market := Market{
		Books: map[string]exchange.OrderBook{
			"VOUCHER": {Sells: map[int]int{50: -30}},
			"ROCK":    {Buys: map[int]int{10080: 15}},
		},
		Positions: map[string]int{},
		Limits:    map[string]int{"VOUCHER": 200, "ROCK": 400},
		Fairs:     map[string]float64{},
	}
	if orders := newTestArbitrager().Voucher("VOUCHER", 10000, "ROCK", market, &state.ArbCounters{}); len(orders) != 0 {
		t.Fatalf("expected skip without underlying fair value, got %+v", orders)
	}
}

func TestVoucherLegsRespectJointHeadroom(t *testing.T) {
	market := Market{
		Books: map[string]exchange.OrderBook{
			"VOUCHER": {Sells: map[int]int{50: -30}},
			"ROCK":    {Buys: map[int]int{10080: 15}},
		},
		Positions: map[string]int{"ROCK": -397},
		Limits:    map[string]int{"VOUCHER": 200, "ROCK": 400},
		Fairs:     map[string]float64{"ROCK": 10085},
	}

	orders := newTestArbitrager().Voucher("VOUCHER", 10000, "ROCK", market, &state.ArbCounters{})
	// Rock short headroom 400 + (-397) = 3 binds both legs.
	if len(orders) != 2 || orders[0].Qty != 3 || orders[1].Qty != -3 {
		t.Fatalf("expected 3-lot legs bound by rock headroom, got %+v", orders)
	}
}
