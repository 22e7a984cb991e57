package exchange

import (
	"fmt"
	"math"
	"strconv"
)

// ParseContractValue parses a Product's string contract value.
func ParseContractValue(p *Product) (float64, error) {
	if p == nil {
		return 0, fmt.Errorf("product is nil")
	}
	if p.ContractValue == "" {
		return 0, fmt.Errorf("contract value is empty")
	}
	cv, err := strconv.ParseFloat(p.ContractValue, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse contract value '%s': %w", p.ContractValue, err)
	}
	return cv, nil
}

// NotionalToContracts converts a notional amount to a whole number of
// contracts, rounding down to avoid over-exposure.
func NotionalToContracts(notional float64, price float64, product *Product) (int, error) {
	if price <= 0 {
		return 0, fmt.Errorf("price must be positive")
	}
	cv, err := ParseContractValue(product)
	if err != nil {
		return 0, err
	}
	if cv <= 0 {
		return 0, fmt.Errorf("contract value must be positive")
	}
	return int(math.Floor(notional / (price * cv))), nil
}

// ContractsToNotional converts a contract count back to notional.
func ContractsToNotional(contracts int, price float64, product *Product) (float64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("price must be positive")
	}
	cv, err := ParseContractValue(product)
	if err != nil {
		return 0, err
	}
	return float64(contracts) * price * cv, nil
}
