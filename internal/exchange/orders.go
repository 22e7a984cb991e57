package exchange

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kasyap1234/gridcore/internal/numeric"
)

// GetProducts returns all tradeable products.
func (c *Client) GetProducts() ([]Product, error) {
	resp, err := c.Get("/products", nil)
	if err != nil {
		return nil, err
	}
	var products []Product
	if err := json.Unmarshal(resp.Result, &products); err != nil {
		return nil, fmt.Errorf("failed to parse products: %v", err)
	}
	return products, nil
}

// GetProductBySymbol returns one product by symbol.
func (c *Client) GetProductBySymbol(symbol string) (*Product, error) {
	resp, err := c.Get("/products/"+symbol, nil)
	if err != nil {
		return nil, err
	}
	var product Product
	if err := json.Unmarshal(resp.Result, &product); err != nil {
		return nil, fmt.Errorf("failed to parse product: %v", err)
	}
	return &product, nil
}

// GetTicker returns the ticker for a symbol.
func (c *Client) GetTicker(symbol string) (*Ticker, error) {
	resp, err := c.Get("/tickers/"+symbol, nil)
	if err != nil {
		return nil, err
	}
	var ticker Ticker
	if err := json.Unmarshal(resp.Result, &ticker); err != nil {
		return nil, fmt.Errorf("failed to parse ticker: %v", err)
	}
	return &ticker, nil
}

// PlaceOrder submits an order request as-is.
func (c *Client) PlaceOrder(req *OrderRequest) (*Order, error) {
	resp, err := c.Post("/orders", req)
	if err != nil {
		return nil, err
	}
	var order Order
	if err := json.Unmarshal(resp.Result, &order); err != nil {
		return nil, fmt.Errorf("failed to parse order: %v", err)
	}
	return &order, nil
}

// PlaceLimitOrder places a post-only, good-til-cancelled limit order.
// The engine only ever submits resting maker orders -- there is no
// market-order or aggressive-fallback path, matching the post-only
// execution model the order-generation side assumes.
func (c *Client) PlaceLimitOrder(req *OrderRequest) (*Order, error) {
	req.OrderType = "limit_order"
	req.PostOnly = true
	if req.TimeInForce == "" {
		req.TimeInForce = "gtc"
	}
	return c.PlaceOrder(req)
}

// CancelOrder cancels an order by ID.
func (c *Client) CancelOrder(orderID int64, productID int) error {
	body := map[string]interface{}{
		"id":         orderID,
		"product_id": productID,
	}
	_, err := c.DeleteWithBody("/orders", body)
	return err
}

// CancelAllOrders cancels all open orders, optionally scoped to one
// product.
func (c *Client) CancelAllOrders(productID int) error {
	body := map[string]interface{}{}
	if productID > 0 {
		body["product_id"] = productID
	}
	_, err := c.DeleteWithBody("/orders/all", body)
	return err
}

// GetActiveOrders returns open orders, optionally scoped to one
// product.
func (c *Client) GetActiveOrders(productID int) ([]Order, error) {
	query := url.Values{}
	query.Set("state", "open")
	if productID > 0 {
		query.Set("product_id", fmt.Sprintf("%d", productID))
	}
	resp, err := c.Get("/orders", query)
	if err != nil {
		return nil, err
	}
	var orders []Order
	if err := json.Unmarshal(resp.Result, &orders); err != nil {
		return nil, fmt.Errorf("failed to parse orders: %v", err)
	}
	return orders, nil
}

// GetOrderByID returns one order by ID.
func (c *Client) GetOrderByID(orderID int64) (*Order, error) {
	resp, err := c.Get(fmt.Sprintf("/orders/%d", orderID), nil)
	if err != nil {
		return nil, err
	}
	var order Order
	if err := json.Unmarshal(resp.Result, &order); err != nil {
		return nil, fmt.Errorf("failed to parse order: %v", err)
	}
	return &order, nil
}

// SetLeverage sets the leverage for a product.
func (c *Client) SetLeverage(productID int, leverage int) error {
	body := map[string]interface{}{
		"leverage": fmt.Sprintf("%d", leverage),
	}
	_, err := c.Post(fmt.Sprintf("/products/%d/orders/leverage", productID), body)
	return err
}

// RoundToTickSize rounds a price to the nearest valid tick using the
// same step-grid rounding internal/market uses for qty/price, so
// order prices and the engine's own bookkeeping never disagree about
// where the grid lines fall.
func RoundToTickSize(price float64, tickSize string) (string, error) {
	return RoundToTickSizeWithDirection(price, tickSize, "nearest")
}

// RoundToTickSizeWithDirection rounds with directional control:
// "down" for buys, "up" for sells, "nearest" otherwise.
func RoundToTickSizeWithDirection(price float64, tickSize string, direction string) (string, error) {
	tick, err := strconv.ParseFloat(tickSize, 64)
	if err != nil || tick <= 0 {
		return fmt.Sprintf("%.2f", price), nil
	}

	var rounded float64
	switch direction {
	case "down":
		rounded = numeric.RoundDn(price, tick)
	case "up":
		rounded = numeric.RoundUp(price, tick)
	default:
		rounded = numeric.Round(price, tick)
	}

	precision := 0
	if tick < 1 {
		tickStr := strconv.FormatFloat(tick, 'f', -1, 64)
		for i := len(tickStr) - 1; i >= 0; i-- {
			if tickStr[i] == '.' {
				precision = len(tickStr) - 1 - i
				break
			}
		}
	}
	return strconv.FormatFloat(rounded, 'f', precision, 64), nil
}
