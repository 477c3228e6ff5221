package exchange

import "sort"

// OrderBook holds resting depth keyed by integer price. Buy quantities are
// positive and sell quantities negative, matching the simulator feed.
type OrderBook struct {
	Buys  map[int]int `json:"buys"`
	Sells map[int]int `json:"sells"`
}

// BestBid returns the highest resting buy price, if any.
func (b OrderBook) BestBid() (int, bool) {
	best, found := 0, false
	for price := range b.Buys {
		if !found || price > best {
			best, found = price, true
		}
	}
	return best, found
}

// BestAsk returns the lowest resting sell price, if any.
func (b OrderBook) BestAsk() (int, bool) {
	best, found := 0, false
	for price := range b.Sells {
		if !found || price < best {
			best, found = price, true
		}
	}
	return best, found
}

// Crossed reports whether best bid >= best ask. A crossed book is invalid
// and must be skipped, never traded.
func (b OrderBook) Crossed() bool {
	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	return hasBid && hasAsk && bid >= ask
}

// Empty reports whether the book has no resting orders on either side.
func (b OrderBook) Empty() bool {
	return len(b.Buys) == 0 && len(b.Sells) == 0
}

// Mid returns the midpoint of best bid and ask. With only one side present
// it falls back to that side's best price. Returns false for an empty or
// crossed book.
func (b OrderBook) Mid() (float64, bool) {
	bid, hasBid := b.BestBid()
	ask, hasAsk := b.BestAsk()
	switch {
	case hasBid && hasAsk:
		if bid >= ask {
			return 0, false
		}
		return float64(bid+ask) / 2, true
	case hasBid:
		return float64(bid), true
	case hasAsk:
		return float64(ask), true
	default:
		return 0, false
	}
}

// AskPricesAsc returns sell prices sorted cheapest first.
func (b OrderBook) AskPricesAsc() []int {
	prices := make([]int, 0, len(b.Sells))
	for price := range b.Sells {
		prices = append(prices, price)
	}
	sort.Ints(prices)
	return prices
}

// BidPricesDesc returns buy prices sorted highest first.
func (b OrderBook) BidPricesDesc() []int {
	prices := make([]int, 0, len(b.Buys))
	for price := range b.Buys {
		prices = append(prices, price)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(prices)))
	return prices
}

// AskVolume returns the absolute quantity resting at a sell price level.
func (b OrderBook) AskVolume(price int) int {
	qty := b.Sells[price]
	if qty < 0 {
		return -qty
	}
	return qty
}

// BidVolume returns the quantity resting at a buy price level.
func (b OrderBook) BidVolume(price int) int {
	return b.Buys[price]
}
