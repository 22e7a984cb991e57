package simulator

import (
	"testing"

	"github.com/kasyap1234/gridcore/internal/market"
	"github.com/kasyap1234/gridcore/internal/params"
)

func scalpSpec() market.Spec {
	return market.Spec{
		QtyStep: 0.001, PriceStep: 0.01, MinQty: 0.001, MinCost: 0,
		CMult: 1, Inverse: false, MaxLeverage: 10,
	}
}

func scalpParams() params.StrategyParams {
	return params.StrategyParams{
		Kind: params.KindScalp,
		Scalp: params.ScalpParams{
			Long: params.ScalpSideParams{
				PrimaryIQtyPct: 0.01, PrimaryPBRLimit: 0.1,
				MinMarkup: 0.005, MarkupRange: 0, NCloseOrders: 1,
			},
		},
		DoLong: true,
	}
}

func TestSimulatorEntryThenCloseRealizesProfit(t *testing.T) {
	e := New(scalpSpec(), scalpParams(), DefaultRuntime())
	ticks := []Tick{
		{TimestampMs: 0, Qty: 10, Price: 100},    // decision: places entry @100
		{TimestampMs: 1000, Qty: 10, Price: 99},  // fills entry @100
		{TimestampMs: 5000, Qty: 10, Price: 99},  // decision: now in-position, places close
		{TimestampMs: 6000, Qty: 10, Price: 101}, // fills close
	}
	res, err := e.Run(ticks, 1000)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !res.OK {
		t.Fatalf("expected OK run, got not-OK")
	}
	if len(res.Fills) == 0 {
		t.Fatalf("expected at least one fill")
	}
	sawEntry, sawClose := false, false
	for _, f := range res.Fills {
		if f.Tag == "long_ientry_full" {
			sawEntry = true
		}
		if f.Tag == "long_nclose_full" {
			sawClose = true
			if f.PnL <= 0 {
				t.Fatalf("expected positive PnL on close, got %v", f.PnL)
			}
		}
	}
	if !sawEntry {
		t.Fatalf("expected a long_ientry fill, fills=%+v", res.Fills)
	}
	if !sawClose {
		t.Fatalf("expected a long_nclose fill, fills=%+v", res.Fills)
	}
}

func TestSimulatorPartialFill(t *testing.T) {
	e := New(scalpSpec(), scalpParams(), DefaultRuntime())
	ticks := []Tick{
		{TimestampMs: 0, Qty: 10, Price: 100},
		{TimestampMs: 1000, Qty: 0.05, Price: 99.9},
	}
	res, err := e.Run(ticks, 1000)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	foundPartial := false
	for _, f := range res.Fills {
		if f.Tag == "long_ientry_partial" {
			foundPartial = true
			if f.Qty != 0.05 {
				t.Fatalf("partial fill qty = %v, want 0.05", f.Qty)
			}
		}
	}
	if !foundPartial {
		t.Fatalf("expected a partial fill, fills=%+v", res.Fills)
	}
}

func TestSimulatorBankruptcyTerminates(t *testing.T) {
	spec := scalpSpec()
	spec.MaxLeverage = 100
	p := scalpParams()
	p.Scalp.Long.PrimaryIQtyPct = 5
	p.Scalp.Long.PrimaryPBRLimit = 10
	e := New(spec, p, DefaultRuntime())
	ticks := []Tick{
		{TimestampMs: 0, Qty: 10, Price: 100},  // decision: places entry @100, notional $50 vs $10 balance
		{TimestampMs: 1000, Qty: 10, Price: 99}, // fills entry; bkr price ~80
		{TimestampMs: 2000, Qty: 10, Price: 83},  // within 6% of bkr price -> terminates
	}
	res, err := e.Run(ticks, 10)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.OK {
		t.Fatalf("expected termination (OK=false) on a near-bankruptcy price collapse")
	}
}

func TestSimulatorNoTicksIsOK(t *testing.T) {
	e := New(scalpSpec(), scalpParams(), DefaultRuntime())
	res, err := e.Run(nil, 1000)
	if err != nil || !res.OK {
		t.Fatalf("empty tick stream should be a trivially OK run, got ok=%v err=%v", res.OK, err)
	}
}
