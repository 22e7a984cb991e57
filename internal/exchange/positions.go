package exchange

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// GetPositions returns all margined positions.
func (c *Client) GetPositions() ([]Position, error) {
	resp, err := c.Get("/positions/margined", nil)
	if err != nil {
		return nil, err
	}
	var positions []Position
	if err := json.Unmarshal(resp.Result, &positions); err != nil {
		return nil, fmt.Errorf("failed to parse positions: %v", err)
	}
	return positions, nil
}

// GetPosition returns the position for one product.
func (c *Client) GetPosition(productID int) (*Position, error) {
	query := url.Values{}
	query.Set("product_id", fmt.Sprintf("%d", productID))
	resp, err := c.Get("/positions", query)
	if err != nil {
		return nil, err
	}
	var position Position
	if err := json.Unmarshal(resp.Result, &position); err != nil {
		return nil, fmt.Errorf("failed to parse position: %v", err)
	}
	return &position, nil
}

// ClosePosition places a reduce-only post-only limit order against an
// open position. positionSide is "buy" for long (size > 0) or "sell"
// for short (size < 0); the close order takes the opposite side. No
// market-order fallback: a close that doesn't fill stays a resting
// order, same as any other grid order, and is replaced on the next
// decision tick like the rest of the book.
func (c *Client) ClosePosition(productID int, size int, positionSide string, limitPrice string) error {
	closeSide := "sell"
	if positionSide == "sell" {
		closeSide = "buy"
	}
	req := &OrderRequest{
		ProductID:  productID,
		Size:       size,
		Side:       closeSide,
		LimitPrice: limitPrice,
		ReduceOnly: true,
	}
	_, err := c.PlaceLimitOrder(req)
	return err
}

// CloseAllPositions closes every open position immediately.
func (c *Client) CloseAllPositions() error {
	body := map[string]interface{}{
		"close_all_portfolio": true,
		"close_all_isolated":  true,
	}
	_, err := c.Post("/positions/close_all", body)
	return err
}

// AddPositionMargin adds isolated margin to a position.
func (c *Client) AddPositionMargin(productID int, marginAmount string) error {
	body := map[string]interface{}{
		"product_id":   productID,
		"delta_margin": marginAmount,
	}
	_, err := c.Post("/positions/change_margin", body)
	return err
}
