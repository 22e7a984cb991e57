// Package simulator implements the tick-replay backtester from spec
// 4.6: it drives the order constructors at a 5-second decision cadence
// plus a latency gap, matches maker-limit fills against tick prices,
// handles partial fills, applies fees, updates balance/position state,
// and terminates on drawdown or bankruptcy. Grounded on
// pkg/backtest/engine.go's Run/simulate/executePendingOrders/checkExits
// loop shape in the teacher, generalized from bar-open signal execution
// to tick-level maker-limit fill detection per spec, and on
// original_source/njit_funcs.go's njit_backtest for exact fill/
// termination semantics.
package simulator

import (
	"math"

	"github.com/kasyap1234/gridcore/internal/emaband"
	"github.com/kasyap1234/gridcore/internal/market"
	"github.com/kasyap1234/gridcore/internal/numeric"
	"github.com/kasyap1234/gridcore/internal/order"
	"github.com/kasyap1234/gridcore/internal/orders"
	"github.com/kasyap1234/gridcore/internal/params"
	"github.com/kasyap1234/gridcore/internal/scalp"
)

// Tick is one trade or heartbeat event. Timestamps are monotonic
// non-decreasing; Qty == 0 means a heartbeat with no trade.
type Tick struct {
	TimestampMs int64
	Qty         float64
	Price       float64
}

// Runtime is process-wide configuration read once at startup and
// threaded through the simulator rather than held as a mutable
// singleton, per spec 9 "Global state".
type Runtime struct {
	DecisionCadenceMs int64
	LatencyMs         int64
	DrawdownFloor     float64 // equity/starting_balance below this terminates; default 0.1
	BankruptcyFloor   float64 // closest_bkr below this terminates; default 0.06
	Warn              func(format string, args ...any)
}

// DefaultRuntime returns the spec's default cadence and termination
// thresholds.
func DefaultRuntime() Runtime {
	return Runtime{
		DecisionCadenceMs: 5000,
		LatencyMs:         1000,
		DrawdownFloor:     0.1,
		BankruptcyFloor:   0.06,
		Warn:              func(string, ...any) {},
	}
}

// FillRecord is one row of the simulator's output log.
type FillRecord struct {
	K           int
	Timestamp   int64
	PnL         float64
	FeePaid     float64
	Balance     float64
	Equity      float64
	PBR         float64
	Qty         float64
	Price       float64
	PSizeAfter  float64
	PPriceAfter float64
	Tag         string
}

// Result is what a replay returns: the fill log plus the run's
// pass/fail outcome and watermarks.
type Result struct {
	Fills            []FillRecord
	OK               bool
	LowestEqBalRatio float64
	ClosestBkr       float64
	FinalBalance     float64
}

type sideState struct {
	pos      market.Position
	lastFill scalp.Fill
}

// Engine holds the immutable configuration for one replay.
type Engine struct {
	Spec    market.Spec
	Params  params.StrategyParams
	Runtime Runtime
}

// New creates a simulator Engine.
func New(spec market.Spec, p params.StrategyParams, rt Runtime) *Engine {
	return &Engine{Spec: spec, Params: p, Runtime: rt}
}

// Run replays ticks against the configured strategy and starting
// balance.
func (e *Engine) Run(ticks []Tick, startingBalance float64) (Result, error) {
	if len(ticks) == 0 {
		return Result{OK: true, LowestEqBalRatio: 1, ClosestBkr: 1}, nil
	}

	spans := e.Params.Ema.Spans
	if len(spans) == 0 {
		spans = []float64{1}
	}
	sampleSpacingMin := avgSpacingMinutes(ticks)
	rescaled := make([]float64, len(spans))
	for i, s := range spans {
		if sampleSpacingMin <= 0 {
			rescaled[i] = s
		} else {
			rescaled[i] = s / sampleSpacingMin
		}
	}
	ema := emaband.New(rescaled)

	warmup := int(math.Ceil(maxOf(rescaled)))
	if e.Params.Kind == params.KindScalp {
		// The scalp/grid family is driven only by PBR and best bid/ask
		// (spec 4.5); it never reads the EMA band, so no warm-up delay.
		warmup = 0
	}
	if warmup >= len(ticks) {
		warmup = len(ticks) - 1
	}
	if warmup < 0 {
		warmup = 0
	}
	prices := make([]float64, warmup)
	for i := 0; i < warmup; i++ {
		prices[i] = ticks[i].Price
	}
	ema.Seed(prices)

	balance := startingBalance
	long := sideState{}
	shrt := sideState{}
	var longEntry, shrtEntry order.Order
	var longCloses, shrtCloses []order.Order
	nextUpdateTs := ticks[warmup].TimestampMs
	var prevMAs []float64
	prevPrice := ticks[warmup].Price

	result := Result{OK: true, LowestEqBalRatio: 1, ClosestBkr: 1}
	k := 0

	for i := warmup; i < len(ticks); i++ {
		t := ticks[i]
		ema.Update(t.Price)
		if t.Qty == 0 {
			continue
		}

		bkr := market.CalcBankruptcyPrice(balance, long.pos.Size, long.pos.Price, shrt.pos.Size, shrt.pos.Price, e.Spec)
		result.ClosestBkr = math.Min(result.ClosestBkr, numeric.CalcDiff(bkr, t.Price))

		if t.TimestampMs >= nextUpdateTs {
			prevMAs = ema.Values()
			prevPrice = t.Price
			longEntry, shrtEntry, longCloses, shrtCloses = e.nextOrderSet(balance, long, shrt, t.Price, ema.Values())
			equity := market.CalcEquity(balance, long.pos, shrt.pos, t.Price, e.Spec)
			if startingBalance > 0 {
				ratio := equity / startingBalance
				result.LowestEqBalRatio = math.Min(result.LowestEqBalRatio, ratio)
				if ratio < e.Runtime.DrawdownFloor {
					result.OK = false
					result.FinalBalance = balance
					return result, nil
				}
			}
			nextUpdateTs = t.TimestampMs + e.Runtime.DecisionCadenceMs
		}

		if result.ClosestBkr < e.Runtime.BankruptcyFloor {
			if long.pos.Size != 0 {
				k++
				result.Fills = append(result.Fills, e.bankruptcyFill(k, t, balance, long.pos))
				long.pos = market.Position{}
				balance = 0
			}
			if shrt.pos.Size != 0 {
				k++
				result.Fills = append(result.Fills, e.bankruptcyFill(k, t, balance, shrt.pos))
				shrt.pos = market.Position{}
				balance = 0
			}
			result.OK = false
			result.FinalBalance = balance
			return result, nil
		}

		// Fixed check order: long entry -> short close(s) -> short entry -> long close(s).
		if filled, rec, newBal, full := e.fillEntry(&k, t, &long, shrt.pos, longEntry, balance, true, &nextUpdateTs); filled {
			balance = newBal
			result.Fills = append(result.Fills, rec)
			longEntry = residualEntry(longEntry, rec)
			if full && len(prevMAs) > 0 {
				le, _, _, _ := e.nextOrderSet(balance, long, shrt, prevPrice, prevMAs)
				longEntry = le
			}
		}
		for idx := range shrtCloses {
			if shrtCloses[idx].IsNone() {
				continue
			}
			if filled, rec, newBal := e.fillClose(&k, t, &shrt, long.pos, &shrtCloses[idx], balance, false, &nextUpdateTs); filled {
				balance = newBal
				result.Fills = append(result.Fills, rec)
			} else {
				break
			}
		}
		if filled, rec, newBal, full := e.fillEntry(&k, t, &shrt, long.pos, shrtEntry, balance, false, &nextUpdateTs); filled {
			balance = newBal
			result.Fills = append(result.Fills, rec)
			shrtEntry = residualEntry(shrtEntry, rec)
			if full && len(prevMAs) > 0 {
				_, se, _, _ := e.nextOrderSet(balance, long, shrt, prevPrice, prevMAs)
				shrtEntry = se
			}
		}
		for idx := range longCloses {
			if longCloses[idx].IsNone() {
				continue
			}
			if filled, rec, newBal := e.fillClose(&k, t, &long, shrt.pos, &longCloses[idx], balance, true, &nextUpdateTs); filled {
				balance = newBal
				result.Fills = append(result.Fills, rec)
			} else {
				break
			}
		}
	}

	result.FinalBalance = balance
	return result, nil
}

func (e *Engine) nextOrderSet(balance float64, long, shrt sideState, price float64, mas []float64) (longEntry, shrtEntry order.Order, longCloses, shrtCloses []order.Order) {
	switch e.Params.Kind {
	case params.KindScalp:
		longEntry = scalp.LongEntry(balance, long.pos.Size, long.pos.Price, long.lastFill, price, e.Spec, e.Params.DoLong, e.Params.Scalp.Long)
		shrtEntry = scalp.ShrtEntry(balance, shrt.pos.Size, shrt.pos.Price, shrt.lastFill, price, e.Spec, e.Params.DoShrt, e.Params.Scalp.Shrt)
		longCloses = scalp.LongCloseGrid(long.pos.Size, long.pos.Price, price, e.Spec, e.Params.Scalp.Long)
		shrtCloses = scalp.ShrtCloseGrid(shrt.pos.Size, shrt.pos.Price, price, e.Spec, e.Params.Scalp.Shrt)
	default:
		in := orders.Inputs{
			Balance: balance,
			LongPSize: long.pos.Size, LongPPrice: long.pos.Price,
			ShrtPSize: shrt.pos.Size, ShrtPPrice: shrt.pos.Price,
			HighestBid: price, LowestAsk: price, LastPrice: price,
			MAs: mas, Spec: e.Spec, HedgeMode: e.Spec.HedgeMode,
			DoLong: e.Params.DoLong, DoShrt: e.Params.DoShrt,
		}
		res := orders.CalcOrders(in, e.Params.Ema)
		longEntry, shrtEntry = res.LongEntry, res.ShrtEntry
		longCloses = []order.Order{res.LongClose}
		shrtCloses = []order.Order{res.ShrtClose}
	}
	return
}

func (e *Engine) fillEntry(k *int, t Tick, side *sideState, otherPos market.Position, pending order.Order, balance float64, isLong bool, nextUpdateTs *int64) (bool, FillRecord, float64, bool) {
	if pending.IsNone() || pending.Qty == 0 {
		return false, FillRecord{}, balance, false
	}
	var triggered bool
	if isLong {
		triggered = t.Price < pending.Price && pending.Qty > 0
	} else {
		triggered = t.Price > pending.Price && pending.Qty < 0
	}
	if !triggered {
		return false, FillRecord{}, balance, false
	}

	full := t.Qty >= math.Abs(pending.Qty)
	fillQty := pending.Qty
	suffix := "_full"
	if !full {
		fillQty = math.Copysign(t.Qty, pending.Qty)
		suffix = "_partial"
	}

	fee := e.Spec.MakerFee * market.QtyToCost(fillQty, pending.Price, e.Spec)
	balance -= fee
	newSize, newPrice := market.CalcNewPSizePPrice(side.pos.Size, side.pos.Price, fillQty, pending.Price, e.Spec.QtyStep)
	side.pos = market.Position{Size: newSize, Price: newPrice}
	side.lastFill = scalp.Fill{Qty: fillQty, Price: pending.Price}
	if newSize == 0 {
		side.lastFill = scalp.Fill{}
	}
	*nextUpdateTs = minInt64(*nextUpdateTs, t.TimestampMs+e.Runtime.LatencyMs)

	*k++
	equity := market.CalcEquity(balance, side.pos, otherPos, t.Price, e.Spec)
	pbr := 0.0
	if balance != 0 {
		pbr = market.QtyToCost(side.pos.Size, side.pos.Price, e.Spec) / balance
	}
	rec := FillRecord{
		K: *k, Timestamp: t.TimestampMs, PnL: 0, FeePaid: fee,
		Balance: balance, Equity: equity, PBR: pbr,
		Qty: fillQty, Price: pending.Price,
		PSizeAfter: side.pos.Size, PPriceAfter: side.pos.Price,
		Tag: pending.Kind.String() + suffix,
	}
	return true, rec, balance, full
}

func (e *Engine) fillClose(k *int, t Tick, side *sideState, otherPos market.Position, pending *order.Order, balance float64, isLong bool, nextUpdateTs *int64) (bool, FillRecord, float64) {
	if pending == nil || pending.IsNone() || pending.Qty == 0 {
		return false, FillRecord{}, balance
	}
	var triggered bool
	if isLong {
		triggered = t.Price > pending.Price && pending.Qty < 0
	} else {
		triggered = t.Price < pending.Price && pending.Qty > 0
	}
	if !triggered {
		return false, FillRecord{}, balance
	}

	full := t.Qty >= math.Abs(pending.Qty)
	closeQty := pending.Qty
	suffix := "_full"
	if !full {
		closeQty = math.Copysign(t.Qty, pending.Qty)
		suffix = "_partial"
	}

	if math.Abs(closeQty) > math.Abs(side.pos.Size) {
		e.Runtime.Warn("close qty %v exceeds position %v, clamping", closeQty, side.pos.Size)
		closeQty = math.Copysign(side.pos.Size, closeQty)
	}

	var pnl float64
	if isLong {
		pnl = market.CalcLongPnL(side.pos.Price, pending.Price, closeQty, e.Spec)
	} else {
		pnl = market.CalcShrtPnL(side.pos.Price, pending.Price, closeQty, e.Spec)
	}
	fee := e.Spec.MakerFee * market.QtyToCost(closeQty, pending.Price, e.Spec)
	balance += pnl - fee

	newSize, newPrice := market.CalcNewPSizePPrice(side.pos.Size, side.pos.Price, closeQty, pending.Price, e.Spec.QtyStep)
	side.pos = market.Position{Size: newSize, Price: newPrice}
	if newSize == 0 {
		side.lastFill = scalp.Fill{}
	} else {
		side.lastFill = scalp.Fill{Qty: closeQty, Price: pending.Price}
	}
	pending.Qty -= closeQty
	*nextUpdateTs = minInt64(*nextUpdateTs, t.TimestampMs+e.Runtime.LatencyMs)

	*k++
	equity := market.CalcEquity(balance, side.pos, otherPos, t.Price, e.Spec)
	pbr := 0.0
	if balance != 0 {
		pbr = market.QtyToCost(side.pos.Size, side.pos.Price, e.Spec) / balance
	}
	rec := FillRecord{
		K: *k, Timestamp: t.TimestampMs, PnL: pnl, FeePaid: fee,
		Balance: balance, Equity: equity, PBR: pbr,
		Qty: closeQty, Price: pending.Price,
		PSizeAfter: side.pos.Size, PPriceAfter: side.pos.Price,
		Tag: pending.Kind.String() + suffix,
	}
	return true, rec, balance
}

func (e *Engine) bankruptcyFill(k int, t Tick, balance float64, pos market.Position) FillRecord {
	kind := order.KindLongBankruptcy
	var pnl, fee float64
	if pos.Size > 0 {
		pnl = market.CalcLongPnL(pos.Price, t.Price, -pos.Size, e.Spec)
		fee = -market.QtyToCost(pos.Size, pos.Price, e.Spec) * e.Spec.MakerFee
	} else {
		kind = order.KindShrtBankruptcy
		pnl = market.CalcShrtPnL(pos.Price, t.Price, -pos.Size, e.Spec)
		fee = -market.QtyToCost(pos.Size, pos.Price, e.Spec) * e.Spec.MakerFee
	}
	return FillRecord{
		K: k, Timestamp: t.TimestampMs, PnL: pnl, FeePaid: fee,
		Balance: 0, Equity: 0, PBR: 0,
		Qty: -pos.Size, Price: t.Price,
		PSizeAfter: 0, PPriceAfter: 0,
		Tag: kind.String(),
	}
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func residualEntry(pending order.Order, filled FillRecord) order.Order {
	if len(filled.Tag) >= 8 && filled.Tag[len(filled.Tag)-8:] == "_partial" {
		residual := pending
		residual.Qty -= filled.Qty
		return residual
	}
	return order.None
}

// avgSpacingMinutes mirrors the source's span rescaling, which derives
// sample spacing from only the first two timestamps:
// spans / ((timestamps[1]-timestamps[0]) / (1000*60)).
func avgSpacingMinutes(ticks []Tick) float64 {
	if len(ticks) < 2 {
		return 1
	}
	gap := ticks[1].TimestampMs - ticks[0].TimestampMs
	if gap <= 0 {
		return 1
	}
	return float64(gap) / 60000.0
}

func maxOf(xs []float64) float64 {
	m := 0.0
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}
