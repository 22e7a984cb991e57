// Package exchange is the Delta Exchange adapter: a rate-limited,
// HMAC-signed REST client plus a WebSocket trade-stream subscriber,
// wrapped by Adapter into the exact interface the engine drives
// (market spec, position, open orders, order placement/cancellation,
// live tick feed). Grounded on pkg/delta/{client,auth,types,orders,
// positions,candles,orderbook,wallet,websocket}.go in the teacher.
package exchange

// Product mirrors a Delta Exchange product/contract definition.
type Product struct {
	ID                int    `json:"id"`
	Symbol            string `json:"symbol"`
	Description       string `json:"description"`
	ProductType       string `json:"product_type"`
	QuotingAssetID    int    `json:"quoting_asset_id"`
	SettlingAssetID   int    `json:"settling_asset_id"`
	QuotingAsset      Asset  `json:"quoting_asset"`
	SettlingAsset     Asset  `json:"settling_asset"`
	TickSize          string `json:"tick_size"`
	ContractValue     string `json:"contract_value"`
	InitialMargin     string `json:"initial_margin"`
	MaintenanceMargin string `json:"maintenance_margin"`
	ImpactSize        int    `json:"impact_size"`
	MakerCommission   string `json:"maker_commission_rate"`
	TakerCommission   string `json:"taker_commission_rate"`
	IsActive          bool   `json:"is_active"`
}

// Asset represents an asset on Delta Exchange.
type Asset struct {
	ID               int    `json:"id"`
	Symbol           string `json:"symbol"`
	Name             string `json:"name"`
	Precision        int    `json:"precision"`
	MinWithdrawLimit string `json:"minimum_withdrawal_limit"`
}

// Ticker represents real-time ticker data.
type Ticker struct {
	Symbol    string  `json:"symbol"`
	ProductID int     `json:"product_id"`
	Close     float64 `json:"close,string"`
	High      float64 `json:"high,string"`
	Low       float64 `json:"low,string"`
	MarkPrice float64 `json:"mark_price,string"`
	Open      float64 `json:"open,string"`
	Size      float64 `json:"size"`
	Timestamp int64   `json:"timestamp"`
	Turnover  float64 `json:"turnover,string"`
	Volume    float64 `json:"volume"`
}

// Candle represents OHLCV data, read for EMA-seed warm-up and, via
// Adapter.FetchTicks, as the backtest's replay ticks.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Trade is one public trade print off the trade stream: the raw
// tick the simulator's live counterpart replays against.
type Trade struct {
	Symbol      string  `json:"symbol"`
	Price       float64 `json:"price,string"`
	Size        float64 `json:"size"`
	Timestamp   int64   `json:"timestamp"`
	BuyerIsMaker bool   `json:"buyer_is_maker"`
}

// Order represents an order on Delta Exchange.
type Order struct {
	ID             int64  `json:"id"`
	UserID         int64  `json:"user_id"`
	Size           int    `json:"size"`
	UnfilledSize   int    `json:"unfilled_size"`
	Side           string `json:"side"` // "buy" or "sell"
	OrderType      string `json:"order_type"`
	LimitPrice     string `json:"limit_price"`
	PaidCommission string `json:"paid_commission"`
	ReduceOnly     bool   `json:"reduce_only"`
	ClientOrderID  string `json:"client_order_id,omitempty"`
	State          string `json:"state"`
	CreatedAt      string `json:"created_at"`
	ProductID      int    `json:"product_id"`
	ProductSymbol  string `json:"product_symbol"`
}

// Position represents a position on Delta Exchange.
type Position struct {
	UserID        int64  `json:"user_id"`
	Size          int    `json:"size"`
	EntryPrice    string `json:"entry_price"`
	Margin        string `json:"margin"`
	Liquidation   string `json:"liquidation_price"`
	Bankruptcy    string `json:"bankruptcy_price"`
	RealizedPnL   string `json:"realized_pnl"`
	UnrealizedPnL string `json:"unrealized_pnl"`
	ProductID     int    `json:"product_id"`
	ProductSymbol string `json:"product_symbol"`
}

// Wallet represents wallet balance.
type Wallet struct {
	AssetID          int    `json:"asset_id"`
	AssetSymbol      string `json:"asset_symbol"`
	AvailableBalance string `json:"available_balance"`
	Balance          string `json:"balance"`
	BlockedMargin    string `json:"blocked_margin"`
	OrderMargin      string `json:"order_margin"`
	PositionMargin   string `json:"position_margin"`
	Commission       string `json:"commission"`
	UserID           int64  `json:"user_id"`
}

// WalletResponse represents the wallet API response.
type WalletResponse struct {
	Meta   WalletMeta `json:"meta"`
	Result []Wallet   `json:"result"`
}

// WalletMeta contains metadata for wallet response.
type WalletMeta struct {
	NetEquity string `json:"net_equity"`
}

// OrderRequest represents a request to place an order. Only the
// post-only limit and reduce-only-limit shapes spec 6's execution
// contract needs are exposed; market orders and bracket fields are
// deliberately absent.
type OrderRequest struct {
	ProductID     int    `json:"product_id,omitempty"`
	ProductSymbol string `json:"product_symbol,omitempty"`
	Size          int    `json:"size"`
	Side          string `json:"side"`       // "buy" or "sell"
	OrderType     string `json:"order_type"` // always "limit_order"
	LimitPrice    string `json:"limit_price,omitempty"`
	TimeInForce   string `json:"time_in_force,omitempty"` // "gtc"
	PostOnly      bool   `json:"post_only,omitempty"`
	ReduceOnly    bool   `json:"reduce_only,omitempty"`
	ClientOrderID string `json:"client_order_id,omitempty"`
}
