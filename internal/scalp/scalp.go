// Package scalp implements the scalp/grid order-construction family
// from spec 4.5: initial entry, primary/secondary reentry (two-band
// grid driven by PBR and best bid/ask, independent of EMAs), and the
// close-grid distribution. Grounded on
// pkg/strategy/grid_trading.go's GridLevel/CalculateLevels shape in the
// teacher for the "ladder of prices with a state machine" idiom, and on
// original_source/njit_funcs.go's calc_long_entry/calc_shrt_entry and
// calc_long_close_grid/calc_shrt_close_grid, which this reimplements
// faithfully since the teacher's grid logic is volatility-gated
// mean-reversion rather than PBR-gated averaging.
package scalp

import (
	"math"

	"github.com/kasyap1234/gridcore/internal/market"
	"github.com/kasyap1234/gridcore/internal/numeric"
	"github.com/kasyap1234/gridcore/internal/order"
	"github.com/kasyap1234/gridcore/internal/params"
)

// Fill is a minimal (qty, price) pair recorded in pfills; only the most
// recent fill is ever consulted per spec 9 "Unbounded pfills".
type Fill struct {
	Qty   float64
	Price float64
}

// LongEntry computes the next long entry order for the scalp strategy.
// lastFill is the latest element of long_pfills (zero value if empty).
func LongEntry(balance, psize, pprice float64, lastFill Fill, highestBid float64, spec market.Spec, doLong bool, sp params.ScalpSideParams) order.Order {
	if !doLong && psize <= 0 {
		return order.None
	}
	entryPrice := highestBid
	baseQty := numeric.RoundDn(market.CostToQty(balance*sp.PrimaryIQtyPct, entryPrice, spec), spec.QtyStep)

	if psize == 0 {
		minQty := market.MinEntryQty(entryPrice, spec)
		maxQty := numeric.RoundDn(market.CostToQty(balance*sp.PrimaryPBRLimit, entryPrice, spec), spec.QtyStep)
		qty := math.Max(minQty, math.Min(maxQty, baseQty))
		return order.Order{Qty: qty, Price: entryPrice, Kind: order.KindLongIEntry}
	}

	pbr := market.QtyToCost(psize, pprice, spec) / balance
	switch {
	case pbr < sp.PrimaryPBRLimit:
		gridSpacing := (1 - sp.PrimaryGridSpacing) - order.Eqf([]float64{pbr}, []order.Coeffs{sp.PrimarySpacingPBRCoeffs}, 0)
		entryPrice = numeric.RoundDn(pprice*gridSpacing, spec.PriceStep)
		kind := order.KindLongPrimaryREntry
		if lastFill.Qty < 0 {
			entryPrice = math.Max(entryPrice, numeric.RoundDn(pprice*(1-sp.PrimaryGridSpacing), spec.PriceStep))
			kind = order.KindLongPrimaryREntryAfterPartialClose
		}
		entryPrice = math.Min(highestBid, entryPrice)
		minQty := market.MinEntryQty(entryPrice, spec)
		maxQty := numeric.RoundDn(market.CostToQty(balance*sp.PrimaryPBRLimit, entryPrice, spec)-psize, spec.QtyStep)
		qty := math.Max(minQty, math.Min(maxQty, numeric.RoundDn(baseQty+psize*sp.PrimaryDdownFactor, spec.QtyStep)))
		return order.Order{Qty: qty, Price: entryPrice, Kind: kind}
	case pbr < sp.SecondaryPBRLimit:
		entryPrice = math.Min(highestBid, numeric.RoundDn(pprice*(1-sp.SecondaryGridSpacing), spec.PriceStep))
		minQty := market.MinEntryQty(entryPrice, spec)
		maxQty := numeric.RoundDn(market.CostToQty(balance*sp.SecondaryPBRLimit, entryPrice, spec)-psize, spec.QtyStep)
		qty := math.Min(maxQty, math.Max(minQty, numeric.RoundDn(baseQty+psize*sp.SecondaryDdownFactor, spec.QtyStep)))
		if qty < minQty {
			return order.None
		}
		return order.Order{Qty: qty, Price: entryPrice, Kind: order.KindLongSecondaryREntry}
	default:
		return order.None
	}
}

// ShrtEntry mirrors LongEntry for the short side.
func ShrtEntry(balance, psize, pprice float64, lastFill Fill, lowestAsk float64, spec market.Spec, doShrt bool, sp params.ScalpSideParams) order.Order {
	if !doShrt && psize >= 0 {
		return order.None
	}
	entryPrice := lowestAsk
	baseQty := numeric.RoundDn(market.CostToQty(balance*sp.PrimaryIQtyPct, entryPrice, spec), spec.QtyStep)

	if psize == 0 {
		minQty := market.MinEntryQty(entryPrice, spec)
		maxQty := numeric.RoundDn(market.CostToQty(balance*sp.PrimaryPBRLimit, entryPrice, spec), spec.QtyStep)
		qty := math.Max(minQty, math.Min(maxQty, baseQty))
		return order.Order{Qty: -qty, Price: entryPrice, Kind: order.KindShrtIEntry}
	}

	pbr := market.QtyToCost(psize, pprice, spec) / balance
	switch {
	case pbr < sp.PrimaryPBRLimit:
		gridSpacing := (1 + sp.PrimaryGridSpacing) + order.Eqf([]float64{pbr}, []order.Coeffs{sp.PrimarySpacingPBRCoeffs}, 0)
		entryPrice = numeric.RoundDn(pprice*gridSpacing, spec.PriceStep)
		kind := order.KindShrtPrimaryREntry
		if lastFill.Qty > 0 {
			entryPrice = math.Min(entryPrice, numeric.RoundUp(pprice*(1+sp.PrimaryGridSpacing), spec.PriceStep))
			kind = order.KindShrtPrimaryREntryAfterPartialClose
		}
		entryPrice = math.Max(lowestAsk, entryPrice)
		minQty := market.MinEntryQty(entryPrice, spec)
		maxQty := numeric.RoundDn(market.CostToQty(balance*sp.PrimaryPBRLimit, entryPrice, spec)+psize, spec.QtyStep)
		qty := math.Max(minQty, math.Min(maxQty, numeric.RoundDn(baseQty-psize*sp.PrimaryDdownFactor, spec.QtyStep)))
		return order.Order{Qty: -qty, Price: entryPrice, Kind: kind}
	case pbr < sp.SecondaryPBRLimit:
		entryPrice = math.Max(lowestAsk, numeric.RoundDn(pprice*(1+sp.SecondaryGridSpacing), spec.PriceStep))
		minQty := market.MinEntryQty(entryPrice, spec)
		maxQty := numeric.RoundDn(market.CostToQty(balance*sp.SecondaryPBRLimit, entryPrice, spec)+psize, spec.QtyStep)
		qty := math.Min(maxQty, math.Max(minQty, numeric.RoundDn(baseQty-psize*sp.SecondaryDdownFactor, spec.QtyStep)))
		if qty < minQty {
			return order.None
		}
		return order.Order{Qty: -qty, Price: entryPrice, Kind: order.KindShrtSecondaryREntry}
	default:
		return order.None
	}
}

// LongCloseGrid distributes psize across n_close_orders target prices
// between pprice*(1+minMarkup) and pprice*(1+minMarkup+markupRange).
func LongCloseGrid(psize, pprice, lowestAsk float64, spec market.Spec, sp params.ScalpSideParams) []order.Order {
	if psize == 0 {
		return []order.Order{order.None}
	}
	minm := pprice * (1 + sp.MinMarkup)
	maxm := pprice * (1 + sp.MinMarkup + sp.MarkupRange)
	var prices []float64
	for _, p := range linspace(minm, maxm, sp.NCloseOrders) {
		pr := math.Max(lowestAsk, numeric.RoundUp(p, spec.PriceStep))
		if len(prices) == 0 || pr != prices[len(prices)-1] {
			prices = append(prices, pr)
		}
	}
	if len(prices) == 0 {
		return []order.Order{{Qty: -psize, Price: lowestAsk, Kind: order.KindLongNClose}}
	}
	if len(prices) == 1 {
		return []order.Order{{Qty: -psize, Price: prices[0], Kind: order.KindLongNClose}}
	}

	minCloseQty := market.MinEntryQty(prices[0], spec)
	defaultQty := numeric.RoundDn(psize/float64(len(prices)), spec.QtyStep)
	if defaultQty == 0 {
		return []order.Order{{Qty: -psize, Price: prices[0], Kind: order.KindLongNClose}}
	}
	defaultQty = math.Max(minCloseQty, defaultQty)

	var closes []order.Order
	remaining := psize
	for _, price := range prices {
		if remaining == 0 || remaining/defaultQty < 0.5 {
			break
		}
		closeQty := math.Min(remaining, math.Max(defaultQty, minCloseQty))
		closes = append(closes, order.Order{Qty: -closeQty, Price: price, Kind: order.KindLongNClose})
		remaining = numeric.Round(remaining-closeQty, spec.QtyStep)
	}
	if remaining != 0 {
		if len(closes) > 0 {
			last := closes[len(closes)-1]
			last.Qty = numeric.Round(last.Qty-remaining, spec.QtyStep)
			closes[len(closes)-1] = last
		} else {
			closes = []order.Order{{Qty: -psize, Price: prices[0], Kind: order.KindLongNClose}}
		}
	}
	return closes
}

// ShrtCloseGrid mirrors LongCloseGrid for the short side. Per spec 9
// open question 3, min_close_qty intentionally uses the worst
// (last-in-list, i.e. lowest) close price; this is preserved from the
// source rather than "corrected".
func ShrtCloseGrid(psize, pprice, highestBid float64, spec market.Spec, sp params.ScalpSideParams) []order.Order {
	if psize == 0 {
		return []order.Order{order.None}
	}
	minm := pprice * (1 - sp.MinMarkup)
	maxm := pprice * (1 - sp.MinMarkup - sp.MarkupRange)
	var prices []float64
	for _, p := range linspace(minm, maxm, sp.NCloseOrders) {
		pr := math.Min(highestBid, numeric.RoundDn(p, spec.PriceStep))
		if len(prices) == 0 || pr != prices[len(prices)-1] {
			prices = append(prices, pr)
		}
	}
	absSize := -psize
	if len(prices) == 0 {
		return []order.Order{{Qty: absSize, Price: highestBid, Kind: order.KindShrtNClose}}
	}
	if len(prices) == 1 {
		return []order.Order{{Qty: absSize, Price: prices[0], Kind: order.KindShrtNClose}}
	}

	minCloseQty := market.MinEntryQty(prices[len(prices)-1], spec)
	defaultQty := numeric.RoundDn(absSize/float64(len(prices)), spec.QtyStep)
	if defaultQty == 0 {
		return []order.Order{{Qty: absSize, Price: prices[0], Kind: order.KindShrtNClose}}
	}
	defaultQty = math.Max(minCloseQty, defaultQty)

	var closes []order.Order
	remaining := absSize
	for _, price := range prices {
		if remaining == 0 || remaining/defaultQty < 0.5 {
			break
		}
		closeQty := math.Min(remaining, defaultQty)
		closes = append(closes, order.Order{Qty: closeQty, Price: price, Kind: order.KindShrtNClose})
		remaining = numeric.Round(remaining-closeQty, spec.QtyStep)
	}
	if remaining != 0 {
		if len(closes) > 0 {
			last := closes[len(closes)-1]
			last.Qty = numeric.Round(last.Qty+remaining, spec.QtyStep)
			closes[len(closes)-1] = last
		} else {
			closes = []order.Order{{Qty: absSize, Price: prices[0], Kind: order.KindShrtNClose}}
		}
	}
	return closes
}

func linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := 0; i < n; i++ {
		out[i] = lo + step*float64(i)
	}
	return out
}
