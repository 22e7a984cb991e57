// Package market implements position-accounting arithmetic for inverse
// and linear leveraged contracts: cost<->qty conversion, PnL, equity,
// available margin, bankruptcy price, and averaged position pricing on
// fill. Grounded on pkg/backtest/types.go and pkg/backtest/engine.go's
// margin/PnL helpers in the teacher, generalized from the teacher's
// linear-only USDT-margined model to inverse-or-linear per spec.
package market

import (
	"math"

	"github.com/kasyap1234/gridcore/internal/numeric"
)

// Spec is the immutable per-symbol market specification.
type Spec struct {
	QtyStep     float64
	PriceStep   float64
	MinQty      float64
	MinCost     float64
	CMult       float64
	Inverse     bool
	Spot        bool
	HedgeMode   bool
	MaxLeverage float64
	MakerFee    float64
	TakerFee    float64
}

// Position is one side (long or short) of an EngineState.
type Position struct {
	Size            float64
	Price           float64
	Leverage        float64
	LiquidationPrice float64
	UPnL            float64
}

// MinEntryQty returns the minimum quantity a new entry at price must meet.
func MinEntryQty(price float64, spec Spec) float64 {
	if spec.Inverse {
		return spec.MinQty
	}
	return math.Max(spec.MinQty, numeric.RoundUp(spec.MinCost/price, spec.QtyStep))
}

// CostToQty converts a notional cost into a quantity of contracts.
func CostToQty(cost, price float64, spec Spec) float64 {
	if price == 0 {
		return 0
	}
	if spec.Inverse {
		return cost * price / spec.CMult
	}
	return cost / (price * spec.CMult)
}

// QtyToCost converts a quantity of contracts into notional cost.
func QtyToCost(qty, price float64, spec Spec) float64 {
	if spec.Inverse {
		if price == 0 {
			return 0
		}
		return math.Abs(qty/price) * spec.CMult
	}
	return math.Abs(qty*price) * spec.CMult
}

// CalcLongPnL returns realized PnL for closing a long qty between entry
// and close prices.
func CalcLongPnL(entryPrice, closePrice, qty float64, spec Spec) float64 {
	q := math.Abs(qty)
	if spec.Inverse {
		if entryPrice == 0 || closePrice == 0 {
			return 0
		}
		return spec.CMult * q * (1/entryPrice - 1/closePrice)
	}
	return q * (closePrice - entryPrice) * spec.CMult
}

// CalcShrtPnL returns realized PnL for closing a short qty.
func CalcShrtPnL(entryPrice, closePrice, qty float64, spec Spec) float64 {
	return -CalcLongPnL(entryPrice, closePrice, qty, spec)
}

// CalcEquity returns balance plus unrealized PnL on both sides.
func CalcEquity(balance float64, long, shrt Position, lastPrice float64, spec Spec) float64 {
	eq := balance
	if long.Size != 0 {
		eq += CalcLongPnL(long.Price, lastPrice, long.Size, spec)
	}
	if shrt.Size != 0 {
		eq += CalcShrtPnL(shrt.Price, lastPrice, shrt.Size, spec)
	}
	return eq
}

// UsedMargin returns the notional cost committed across both sides.
func UsedMargin(long, shrt Position, spec Spec) float64 {
	m := 0.0
	if long.Size != 0 {
		m += QtyToCost(long.Size, long.Price, spec)
	}
	if shrt.Size != 0 {
		m += QtyToCost(shrt.Size, shrt.Price, spec)
	}
	return m
}

// AvailableMargin returns max(0, equity*maxLeverage - usedMargin).
func AvailableMargin(equity float64, long, shrt Position, spec Spec) float64 {
	used := UsedMargin(long, shrt, spec)
	avail := equity*spec.MaxLeverage - used
	if avail < 0 {
		return 0
	}
	return avail
}

// CalcNewPSizePPrice computes the new position size and averaged price
// after a fill of qty at price, rounding size to qtyStep. Returns (0,0)
// when the rounded new size is zero.
func CalcNewPSizePPrice(psize, pprice, qty, price, qtyStep float64) (float64, float64) {
	newSize := numeric.Round(psize+qty, qtyStep)
	if newSize == 0 {
		return 0, 0
	}
	newPrice := pprice*(psize/newSize) + price*(qty/newSize)
	return newSize, newPrice
}

// CalcBankruptcyPrice returns the price at which equity would be zero
// given current positions and balance, clipped to >=0.
func CalcBankruptcyPrice(balance float64, longPSize, longPPrice, shrtPSize, shrtPPrice float64, spec Spec) float64 {
	longSize := longPSize * spec.CMult
	shrtSize := math.Abs(shrtPSize) * spec.CMult
	if spec.Inverse {
		var longTerm, shrtTerm float64
		if longPPrice != 0 {
			longTerm = longSize / longPPrice
		}
		if shrtPPrice != 0 {
			shrtTerm = shrtSize / shrtPPrice
		}
		denom := shrtTerm - longTerm - balance
		if denom == 0 {
			return 0
		}
		p := (shrtSize - longSize) / denom
		if p < 0 {
			return 0
		}
		return p
	}
	denom := longSize - shrtSize
	if denom == 0 {
		return 0
	}
	p := (-balance + longSize*longPPrice - shrtSize*shrtPPrice) / denom
	if p < 0 {
		return 0
	}
	return p
}
