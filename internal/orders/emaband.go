// Package orders implements the EMA-band order-construction family:
// calc_long_orders / calc_shrt_orders and the calc_orders orchestrator
// from spec 4.4. Grounded on pkg/strategy/grid_trading.go's
// activation/deactivation state machine in the teacher (kept for its
// "compute signal from current market state" shape) and
// original_source/njit_funcs.go's calc_long_orders/calc_shrt_orders,
// which this reimplements faithfully since the teacher's grid strategy
// does not model PBR or an EMA band the way the spec requires.
package orders

import (
	"math"

	"github.com/kasyap1234/gridcore/internal/market"
	"github.com/kasyap1234/gridcore/internal/numeric"
	"github.com/kasyap1234/gridcore/internal/order"
	"github.com/kasyap1234/gridcore/internal/params"
)

// Inputs bundles the market-state snapshot calc_orders is a pure
// function of.
type Inputs struct {
	Balance             float64
	LongPSize, LongPPrice float64
	ShrtPSize, ShrtPPrice float64
	HighestBid, LowestAsk, LastPrice float64
	MAs                 []float64
	Spec                market.Spec
	HedgeMode           bool
	DoLong, DoShrt      bool
}

// Result is everything calc_orders returns: both sides' entry and close
// orders, the bankruptcy price, and available margin.
type Result struct {
	LongEntry, ShrtEntry order.Order
	LongClose, ShrtClose order.Order
	BkrPrice             float64
	AvailableMargin      float64
}

// CalcOrders is the ema-band orchestrator, equivalent to the source's
// calc_orders: it derives MA_ratios/band/available-margin once, applies
// non-hedge-mode gating, and dispatches to the per-side constructors.
func CalcOrders(in Inputs, p params.EmaParams) Result {
	maRatios := maRatiosOf(in.LastPrice, in.MAs)
	bandLower, bandUpper := bandOf(in.MAs)

	longPos := market.Position{Size: in.LongPSize, Price: in.LongPPrice}
	shrtPos := market.Position{Size: in.ShrtPSize, Price: in.ShrtPPrice}
	equity := market.CalcEquity(in.Balance, longPos, shrtPos, in.LastPrice, in.Spec)
	availMargin := market.AvailableMargin(equity, longPos, shrtPos, in.Spec)

	doLong, doShrt := in.DoLong, in.DoShrt
	if !in.HedgeMode {
		noPos := in.LongPSize == 0 && in.ShrtPSize == 0
		doLong = (noPos && in.DoLong) || in.LongPSize != 0
		doShrt = (noPos && in.DoShrt) || in.ShrtPSize != 0
	}

	var longEntry, longClose, shrtEntry, shrtClose order.Order
	if in.Spec.Spot || doLong {
		longEntry, longClose = calcLongOrders(in, maRatios, bandLower, bandUpper, availMargin, p.Long)
	}
	if doShrt && !in.Spec.Spot {
		shrtEntry, shrtClose = calcShrtOrders(in, maRatios, bandLower, bandUpper, availMargin, p.Shrt)
	}

	bkr := market.CalcBankruptcyPrice(in.Balance, in.LongPSize, in.LongPPrice, in.ShrtPSize, in.ShrtPPrice, in.Spec)

	return Result{
		LongEntry: longEntry, ShrtEntry: shrtEntry,
		LongClose: longClose, ShrtClose: shrtClose,
		BkrPrice: bkr, AvailableMargin: availMargin,
	}
}

func maRatiosOf(lastPrice float64, mas []float64) []float64 {
	ratios := make([]float64, len(mas))
	for i := range mas {
		numer := lastPrice
		if i > 0 {
			numer = mas[i-1]
		}
		if mas[i] == 0 {
			ratios[i] = 0
			continue
		}
		ratios[i] = numer / mas[i]
	}
	return ratios
}

func bandOf(mas []float64) (lower, upper float64) {
	if len(mas) == 0 {
		return 0, 0
	}
	lower, upper = mas[0], mas[0]
	for _, v := range mas[1:] {
		if v < lower {
			lower = v
		}
		if v > upper {
			upper = v
		}
	}
	return lower, upper
}

func calcLongOrders(in Inputs, maRatios []float64, bandLower, bandUpper, availMargin float64, sp params.EmaSideParams) (order.Order, order.Order) {
	spec := in.Spec
	entryPrice := math.Min(in.HighestBid, numeric.RoundDn(bandLower*(sp.IPrcConst+order.Eqf(maRatios, sp.IPrcMAr, 1)), spec.PriceStep))

	var entryQty, closeQty, closePrice float64
	var closeKind order.Kind = order.KindLongNClose

	isInitial := in.LongPSize == 0 || (spec.Spot && in.LongPSize < market.MinEntryQty(in.LongPPrice, spec))
	if isInitial {
		minQty := market.MinEntryQty(entryPrice, spec)
		maxEntryQty := market.CostToQty(math.Min(in.Balance*(sp.PBRLimit+math.Max(0, sp.PBRStopLoss)), availMargin), entryPrice, spec)
		baseEntryQty := market.CostToQty(in.Balance, entryPrice, spec) * (sp.IQtyConst + order.Eqf(maRatios, sp.IQtyMAr, 1))
		entryQty = math.Max(minQty, numeric.RoundDn(math.Min(maxEntryQty, baseEntryQty), spec.QtyStep))
		closeQty, closePrice, closeKind = 0, 0, order.KindLongNClose
	} else {
		pbr := market.QtyToCost(in.LongPSize, in.LongPPrice, spec) / in.Balance
		entryPrice = math.Min(entryPrice, numeric.RoundDn(in.LongPPrice*(sp.RPrcConst+order.Eqf(maRatios, sp.RPrcMAr, 1)+order.Eqf([]float64{pbr}, []order.Coeffs{sp.RPrcPBr}, 0)), spec.PriceStep))
		minQty := market.MinEntryQty(entryPrice, spec)
		maxEntryQty := market.CostToQty(math.Min(in.Balance*(sp.PBRLimit+math.Max(0, sp.PBRStopLoss)-pbr), availMargin), entryPrice, spec)
		baseEntryQty := market.CostToQty(in.Balance, entryPrice, spec) * (sp.IQtyConst + order.Eqf(maRatios, sp.IQtyMAr, 1))
		entryQty = numeric.RoundDn(math.Min(maxEntryQty, math.Max(minQty, baseEntryQty+in.LongPSize*(sp.RQtyConst+order.Eqf(maRatios, sp.RQtyMAr, 1)))), spec.QtyStep)
		nclosePrice := math.Max(in.LowestAsk, numeric.RoundUp(in.LongPPrice*(sp.MarkupConst+order.Eqf(maRatios, sp.MarkupMAr, 1)), spec.PriceStep))
		if entryQty < minQty {
			entryQty = 0
		}

		switch {
		case sp.PBRStopLoss < 0:
			cp := math.Max(in.LowestAsk, math.Min(nclosePrice, numeric.RoundUp(bandUpper, spec.PriceStep)))
			kind := order.KindLongSClose
			if cp > in.LongPPrice {
				kind = order.KindLongNClose
			}
			closeQty, closePrice, closeKind = -in.LongPSize, cp, kind
		case sp.PBRStopLoss == 0:
			closeQty, closePrice, closeKind = -in.LongPSize, nclosePrice, order.KindLongNClose
		default:
			if pbr > sp.PBRLimit {
				sclosePrice := math.Max(in.LowestAsk, numeric.RoundUp(bandUpper, spec.PriceStep))
				scloseQty := -math.Min(in.LongPSize, math.Max(spec.MinQty, numeric.RoundDn(market.CostToQty(in.Balance*math.Min(1, pbr-sp.PBRLimit), sclosePrice, spec), spec.QtyStep)))
				if sclosePrice >= nclosePrice {
					closeQty, closePrice, closeKind = -in.LongPSize, nclosePrice, order.KindLongNClose
				} else {
					closeQty, closePrice, closeKind = scloseQty, sclosePrice, order.KindLongSClose
				}
			} else {
				entryQty = math.Max(entryQty, minQty)
				closeQty, closePrice, closeKind = -in.LongPSize, nclosePrice, order.KindLongNClose
			}
		}
	}

	if spec.Spot && entryQty != 0 {
		longPos := market.Position{Size: in.LongPSize, Price: in.LongPPrice}
		equity := market.CalcEquity(in.Balance, longPos, market.Position{}, in.HighestBid, spec)
		excessCost := math.Max(0, market.QtyToCost(in.LongPSize+entryQty, in.HighestBid, spec)-equity)
		if excessCost > 0 {
			entryQty = numeric.RoundDn((market.QtyToCost(entryQty, entryPrice, spec)-excessCost)/entryPrice, spec.QtyStep)
			if entryQty < market.MinEntryQty(entryPrice, spec) {
				entryQty = 0
			}
		}
	}
	if spec.Spot && closeQty != 0 {
		minCloseQty := market.MinEntryQty(closePrice, spec)
		cq := numeric.RoundDn(math.Min(in.LongPSize, math.Max(minCloseQty, math.Abs(closeQty))), spec.QtyStep)
		if cq < minCloseQty {
			closeQty, closePrice, closeKind = 0, 0, order.KindLongNClose
		} else {
			closeQty = -cq
		}
	}

	entry := order.Order{Qty: entryQty, Price: entryPrice, Kind: order.KindLongIEntry}
	if !isInitial {
		entry.Kind = order.KindLongREntry
	}
	if entry.Qty == 0 {
		entry.Price = 0
		entry.Kind = order.KindNone
	}
	closeOrd := order.Order{Qty: closeQty, Price: closePrice, Kind: closeKind}
	if closeOrd.Qty == 0 {
		closeOrd.Price = 0
		closeOrd.Kind = order.KindNone
	}
	return entry, closeOrd
}

func calcShrtOrders(in Inputs, maRatios []float64, bandLower, bandUpper, availMargin float64, sp params.EmaSideParams) (order.Order, order.Order) {
	spec := in.Spec
	entryPrice := math.Max(in.LowestAsk, numeric.RoundUp(bandUpper*(sp.IPrcConst+order.Eqf(maRatios, sp.IPrcMAr, 1)), spec.PriceStep))

	var entryQty, closeQty, closePrice float64
	var closeKind order.Kind = order.KindShrtNClose

	isInitial := in.ShrtPSize == 0
	if isInitial {
		minQty := market.MinEntryQty(entryPrice, spec)
		maxEntryQty := market.CostToQty(math.Min(in.Balance*(sp.PBRLimit+math.Max(0, sp.PBRStopLoss)), availMargin), entryPrice, spec)
		baseEntryQty := market.CostToQty(in.Balance, entryPrice, spec) * (sp.IQtyConst + order.Eqf(maRatios, sp.IQtyMAr, 1))
		entryQty = math.Max(minQty, numeric.RoundDn(math.Min(maxEntryQty, baseEntryQty), spec.QtyStep))
	} else {
		pbr := market.QtyToCost(in.ShrtPSize, in.ShrtPPrice, spec) / in.Balance
		entryPrice = math.Max(entryPrice, numeric.RoundUp(in.ShrtPPrice*(sp.RPrcConst+order.Eqf(maRatios, sp.RPrcMAr, 1)+order.Eqf([]float64{pbr}, []order.Coeffs{sp.RPrcPBr}, 0)), spec.PriceStep))
		minQty := market.MinEntryQty(entryPrice, spec)
		maxEntryQty := market.CostToQty(math.Min(in.Balance*(sp.PBRLimit+math.Max(0, sp.PBRStopLoss)-pbr), availMargin), entryPrice, spec)
		baseEntryQty := market.CostToQty(in.Balance, entryPrice, spec) * (sp.IQtyConst + order.Eqf(maRatios, sp.IQtyMAr, 1))
		entryQty = numeric.RoundDn(math.Min(maxEntryQty, math.Max(minQty, baseEntryQty+(-in.ShrtPSize)*(sp.RQtyConst+order.Eqf(maRatios, sp.RQtyMAr, 1)))), spec.QtyStep)
		nclosePrice := math.Min(in.HighestBid, numeric.RoundDn(in.ShrtPPrice*(sp.MarkupConst+order.Eqf(maRatios, sp.MarkupMAr, 1)), spec.PriceStep))
		if entryQty < minQty {
			entryQty = 0
		}

		switch {
		case sp.PBRStopLoss < 0:
			cp := math.Min(in.HighestBid, math.Max(nclosePrice, numeric.RoundDn(bandLower, spec.PriceStep)))
			kind := order.KindShrtSClose
			if cp < in.ShrtPPrice {
				kind = order.KindShrtNClose
			}
			closeQty, closePrice, closeKind = -in.ShrtPSize, cp, kind
		case sp.PBRStopLoss == 0:
			closeQty, closePrice, closeKind = -in.ShrtPSize, nclosePrice, order.KindShrtNClose
		default:
			if pbr > sp.PBRLimit {
				sclosePrice := math.Min(in.HighestBid, numeric.RoundDn(bandLower, spec.PriceStep))
				scloseQty := math.Min(-in.ShrtPSize, math.Max(spec.MinQty, numeric.RoundDn(market.CostToQty(in.Balance*math.Min(1, pbr-sp.PBRLimit), sclosePrice, spec), spec.QtyStep)))
				if sclosePrice <= nclosePrice {
					closeQty, closePrice, closeKind = -in.ShrtPSize, nclosePrice, order.KindShrtNClose
				} else {
					closeQty, closePrice, closeKind = scloseQty, sclosePrice, order.KindShrtSClose
				}
			} else {
				entryQty = math.Max(entryQty, minQty)
				closeQty, closePrice, closeKind = -in.ShrtPSize, nclosePrice, order.KindShrtNClose
			}
		}
	}

	entryQty = -entryQty

	entry := order.Order{Qty: entryQty, Price: entryPrice, Kind: order.KindShrtIEntry}
	if !isInitial {
		entry.Kind = order.KindShrtREntry
	}
	if entry.Qty == 0 {
		entry.Price = 0
		entry.Kind = order.KindNone
	}
	closeOrd := order.Order{Qty: closeQty, Price: closePrice, Kind: closeKind}
	if closeOrd.Qty == 0 {
		closeOrd.Price = 0
		closeOrd.Kind = order.KindNone
	}
	return entry, closeOrd
}
