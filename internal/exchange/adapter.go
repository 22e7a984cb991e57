package exchange

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kasyap1234/gridcore/config"
	"github.com/kasyap1234/gridcore/internal/market"
	"github.com/kasyap1234/gridcore/internal/order"
	"github.com/kasyap1234/gridcore/internal/simulator"
)

// Adapter is the exchange adapter contract the engine core drives: it
// translates between Delta Exchange's wire shapes and the engine's
// market.Spec / market.Position / order.Order types, so internal/
// packages never import this one.
type Adapter struct {
	client    *Client
	ws        *WebSocketClient
	productID int
}

// NewAdapter builds an Adapter over a fresh REST client and WebSocket
// client for cfg.
func NewAdapter(cfg *config.Config) *Adapter {
	return &Adapter{
		client: NewClient(cfg),
		ws:     NewWebSocketClient(cfg),
	}
}

// FetchMarketSpec loads the product definition for symbol and
// translates it into a market.Spec, including max_leverage so the
// optimizer's pbr_limit range can be clamped against it.
func (a *Adapter) FetchMarketSpec(symbol string) (market.Spec, error) {
	p, err := a.client.GetProductBySymbol(symbol)
	if err != nil {
		return market.Spec{}, fmt.Errorf("fetch_market_spec: %w", err)
	}
	a.productID = p.ID

	tick := parseFloatOr(p.TickSize, 0.5)
	cmult := parseFloatOr(p.ContractValue, 1)
	maker := parseFloatOr(p.MakerCommission, 0.0002)
	taker := parseFloatOr(p.TakerCommission, 0.0005)
	maxLev := maxLeverageFromMargin(p.InitialMargin)

	inverse := strings.Contains(p.ProductType, "inverse") || strings.Contains(p.QuotingAsset.Symbol, "USD") && p.SettlingAsset.Symbol != "USDT"

	return market.Spec{
		QtyStep:     1,
		PriceStep:   tick,
		MinQty:      1,
		MinCost:     1,
		CMult:       cmult,
		Inverse:     inverse,
		Spot:        strings.EqualFold(p.ProductType, "spot"),
		HedgeMode:   false,
		MaxLeverage: maxLev,
		MakerFee:    maker,
		TakerFee:    taker,
	}, nil
}

func parseFloatOr(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

func maxLeverageFromMargin(initialMarginPct string) float64 {
	m := parseFloatOr(initialMarginPct, 0.1)
	if m <= 0 {
		return 1
	}
	return 1 / m
}

// PositionSnapshot is the {long, shrt, wallet_balance, equity} bundle
// fetch_position returns. Short size is reported negative.
type PositionSnapshot struct {
	Long           market.Position
	Shrt           market.Position
	WalletBalance  float64
	Equity         float64
}

// FetchPosition reads both position sides plus wallet state for
// symbol.
func (a *Adapter) FetchPosition(symbol string) (PositionSnapshot, error) {
	var snap PositionSnapshot

	positions, err := a.client.GetPositions()
	if err != nil {
		return snap, fmt.Errorf("fetch_position: %w", err)
	}
	for _, p := range positions {
		if p.ProductSymbol != symbol {
			continue
		}
		size := float64(p.Size)
		entry := parseFloatOr(p.EntryPrice, 0)
		if size > 0 {
			snap.Long = market.Position{Size: size, Price: entry}
		} else if size < 0 {
			snap.Shrt = market.Position{Size: size, Price: entry}
		}
	}

	bal, err := a.client.GetAvailableBalance(quoteAssetFor(symbol))
	if err == nil {
		snap.WalletBalance = bal
	}
	eq, err := a.client.GetNetEquity()
	if err == nil {
		snap.Equity = eq
	} else {
		snap.Equity = snap.WalletBalance
	}
	return snap, nil
}

func quoteAssetFor(symbol string) string {
	if strings.HasSuffix(symbol, "USD") {
		return "USD"
	}
	return "USDT"
}

// OpenOrder is one resting order as fetch_open_orders reports it,
// with position_side inferred from the custom_id/side combination.
type OpenOrder struct {
	OrderID      string
	CustomID     string
	Side         string // "buy" or "sell"
	PositionSide string // "long", "shrt", or "both"
	Qty          float64
	Price        float64
	Timestamp    int64
}

// FetchOpenOrders returns the open orders for symbol, with
// position_side inferred from custom_id substrings "entry"/"close"
// combined with side: buy+entry->long, buy+close->shrt,
// sell+entry->shrt, sell+close->long; anything else maps to "both".
func (a *Adapter) FetchOpenOrders(symbol string) ([]OpenOrder, error) {
	orders, err := a.client.GetActiveOrders(a.productID)
	if err != nil {
		return nil, fmt.Errorf("fetch_open_orders: %w", err)
	}
	out := make([]OpenOrder, 0, len(orders))
	for _, o := range orders {
		if o.ProductSymbol != "" && o.ProductSymbol != symbol {
			continue
		}
		out = append(out, OpenOrder{
			OrderID:      strconv.FormatInt(o.ID, 10),
			CustomID:     o.ClientOrderID,
			Side:         o.Side,
			PositionSide: inferPositionSide(o.ClientOrderID, o.Side),
			Qty:          float64(o.UnfilledSize),
			Price:        parseFloatOr(o.LimitPrice, 0),
		})
	}
	return out, nil
}

func inferPositionSide(customID, side string) string {
	id := strings.ToLower(customID)
	isEntry := strings.Contains(id, "entry")
	isClose := strings.Contains(id, "close")
	switch {
	case side == "buy" && isEntry:
		return "long"
	case side == "buy" && isClose:
		return "shrt"
	case side == "sell" && isEntry:
		return "shrt"
	case side == "sell" && isClose:
		return "long"
	default:
		return "both"
	}
}

// ExecuteOrder submits an order.Order as a post-only resting limit
// order. reduce_only is set for close-kind orders, judged from the
// order's kind alone; positionSide is not consulted, and no
// position_idx is ever sent (Delta Exchange accounts are one-way).
func (a *Adapter) ExecuteOrder(ord order.Order, positionSide string, tickSize string) (string, error) {
	if ord.IsNone() {
		return "", fmt.Errorf("execute_order: none order")
	}
	side := "buy"
	if ord.Qty < 0 {
		side = "sell"
	}
	direction := "down"
	if side == "sell" {
		direction = "up"
	}
	priceStr, err := RoundToTickSizeWithDirection(ord.Price, tickSize, direction)
	if err != nil {
		return "", fmt.Errorf("execute_order: %w", err)
	}

	req := &OrderRequest{
		ProductID:     a.productID,
		Size:          int(absf(ord.Qty)),
		Side:          side,
		ClientOrderID: ord.Kind.String(),
		ReduceOnly:    isCloseKind(ord.Kind, positionSide),
	}
	req.LimitPrice = priceStr

	placed, err := a.client.PlaceLimitOrder(req)
	if err != nil {
		return "", fmt.Errorf("execute_order: %w", err)
	}
	return strconv.FormatInt(placed.ID, 10), nil
}

func isCloseKind(k order.Kind, positionSide string) bool {
	s := k.String()
	return strings.Contains(s, "close") || strings.Contains(s, "nclose") || strings.Contains(s, "sclose")
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// ExecuteCancellation cancels a resting order by ID.
func (a *Adapter) ExecuteCancellation(orderID string) error {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return fmt.Errorf("execute_cancellation: %w", err)
	}
	return a.client.CancelOrder(id, a.productID)
}

// FetchTicks pulls historical 1-minute OHLC candles and flattens them
// into close-price ticks. cmd/live seeds the EMA engine's warm-up
// window from them; cmd/backtest fills its replay tick cache from them.
func (a *Adapter) FetchTicks(symbol string, start, end time.Time) ([]simulator.Tick, error) {
	candles, err := a.client.GetCandles(symbol, "1m", start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch_ticks: %w", err)
	}
	ticks := make([]simulator.Tick, len(candles))
	for i, c := range candles {
		ticks[i] = simulator.Tick{TimestampMs: c.Time * 1000, Price: c.Close, Qty: c.Volume}
	}
	return ticks, nil
}

// FetchOHLCVs returns raw candles for a resolution and window.
func (a *Adapter) FetchOHLCVs(symbol, resolution string, start, end time.Time) ([]Candle, error) {
	return a.client.GetCandles(symbol, resolution, start, end)
}

// SubscribeTicks opens the trade-print WebSocket feed for symbol and
// converts every print into a simulator.Tick via onTick.
func (a *Adapter) SubscribeTicks(symbol string, onTick func(simulator.Tick)) error {
	a.ws.OnTrade(func(t Trade) {
		onTick(simulator.Tick{TimestampMs: t.Timestamp, Price: t.Price, Qty: t.Size})
	})
	if err := a.ws.Connect(); err != nil {
		return fmt.Errorf("subscribe ticks: %w", err)
	}
	return a.ws.SubscribeTrade(symbol)
}

// Close releases the adapter's REST and WebSocket resources.
func (a *Adapter) Close() {
	a.client.Close()
	a.ws.Close()
}
