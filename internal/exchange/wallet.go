package exchange

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// GetWalletBalances returns all wallet balances.
func (c *Client) GetWalletBalances() (*WalletResponse, error) {
	resp, err := c.Get("/wallet/balances", nil)
	if err != nil {
		return nil, err
	}
	var walletResp WalletResponse
	if err := json.Unmarshal(resp.Result, &walletResp.Result); err != nil {
		return nil, fmt.Errorf("failed to parse wallet result: %v", err)
	}
	if resp.Meta != nil {
		if err := json.Unmarshal(resp.Meta, &walletResp.Meta); err != nil {
			walletResp.Meta = WalletMeta{}
		}
	}
	return &walletResp, nil
}

// GetWalletByAsset returns the wallet balance for one asset.
func (c *Client) GetWalletByAsset(assetSymbol string) (*Wallet, error) {
	walletResp, err := c.GetWalletBalances()
	if err != nil {
		return nil, err
	}
	for _, w := range walletResp.Result {
		if w.AssetSymbol == assetSymbol {
			return &w, nil
		}
	}
	return nil, fmt.Errorf("wallet for asset %s not found", assetSymbol)
}

// GetAvailableBalance returns the tradeable balance for an asset.
func (c *Client) GetAvailableBalance(assetSymbol string) (float64, error) {
	wallet, err := c.GetWalletByAsset(assetSymbol)
	if err != nil {
		return 0, err
	}
	balance, err := strconv.ParseFloat(wallet.AvailableBalance, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse available balance: %v", err)
	}
	return balance, nil
}

// GetNetEquity returns account net equity across all positions.
func (c *Client) GetNetEquity() (float64, error) {
	walletResp, err := c.GetWalletBalances()
	if err != nil {
		return 0, err
	}
	if walletResp.Meta.NetEquity == "" {
		return 0, fmt.Errorf("net equity not available")
	}
	eq, err := strconv.ParseFloat(walletResp.Meta.NetEquity, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse net equity: %v", err)
	}
	return eq, nil
}
