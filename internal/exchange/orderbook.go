package exchange

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// OrderbookEntry is a single price level in the L2 book.
type OrderbookEntry struct {
	Depth string `json:"depth"`
	Price string `json:"price"`
	Size  int    `json:"size"`
}

// Orderbook is the L2 orderbook for a symbol.
type Orderbook struct {
	Buy           []OrderbookEntry `json:"buy"`
	Sell          []OrderbookEntry `json:"sell"`
	Symbol        string           `json:"symbol"`
	LastUpdatedAt int64            `json:"last_updated_at"`
}

// BestBidAsk holds the top of book.
type BestBidAsk struct {
	BestBid     float64
	BestAsk     float64
	BestBidSize int
	BestAskSize int
	Spread      float64
	SpreadPct   float64
}

// GetOrderbook fetches the L2 orderbook for a symbol.
func (c *Client) GetOrderbook(symbol string) (*Orderbook, error) {
	resp, err := c.Get("/l2orderbook/"+symbol, nil)
	if err != nil {
		return nil, err
	}
	var ob Orderbook
	if err := json.Unmarshal(resp.Result, &ob); err != nil {
		return nil, fmt.Errorf("failed to parse orderbook: %v", err)
	}
	return &ob, nil
}

// GetBestBidAsk fetches the best bid/ask for a symbol.
func (c *Client) GetBestBidAsk(symbol string) (*BestBidAsk, error) {
	ob, err := c.GetOrderbook(symbol)
	if err != nil {
		return nil, err
	}
	if len(ob.Buy) == 0 || len(ob.Sell) == 0 {
		return nil, fmt.Errorf("orderbook is empty for %s", symbol)
	}
	bestBid, err := strconv.ParseFloat(ob.Buy[0].Price, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse best bid: %v", err)
	}
	bestAsk, err := strconv.ParseFloat(ob.Sell[0].Price, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse best ask: %v", err)
	}
	spread := bestAsk - bestBid
	return &BestBidAsk{
		BestBid:     bestBid,
		BestAsk:     bestAsk,
		BestBidSize: ob.Buy[0].Size,
		BestAskSize: ob.Sell[0].Size,
		Spread:      spread,
		SpreadPct:   (spread / bestBid) * 100,
	}, nil
}
