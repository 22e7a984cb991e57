package scalp

import (
	"math"
	"testing"

	"github.com/kasyap1234/gridcore/internal/market"
	"github.com/kasyap1234/gridcore/internal/params"
)

func approxEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestLongCloseGridDistribution(t *testing.T) {
	spec := market.Spec{QtyStep: 0.01, PriceStep: 0.01}
	sp := params.ScalpSideParams{MinMarkup: 0.01, MarkupRange: 0.02, NCloseOrders: 4}
	closes := LongCloseGrid(1.0, 100, 100.5, spec, sp)
	if len(closes) != 4 {
		t.Fatalf("len(closes) = %d, want 4", len(closes))
	}
	sum := 0.0
	for _, c := range closes {
		sum += c.Qty
	}
	if !approxEqual(sum, -1.0, 1e-9) {
		t.Fatalf("sum of close qty = %v, want -1.0", sum)
	}
	wantPrices := []float64{101.00, 101.67, 102.33, 103.00}
	for i, c := range closes {
		if math.Abs(c.Price-wantPrices[i]) > 0.02 {
			t.Fatalf("closes[%d].Price = %v, want ~%v", i, c.Price, wantPrices[i])
		}
	}
}

func TestLongCloseGridFlat(t *testing.T) {
	spec := market.Spec{QtyStep: 0.001, PriceStep: 0.01}
	sp := params.ScalpSideParams{MinMarkup: 0, MarkupRange: 0, NCloseOrders: 1}
	closes := LongCloseGrid(0.5, 100, 99, spec, sp)
	if len(closes) != 1 {
		t.Fatalf("len(closes) = %d, want 1", len(closes))
	}
	if closes[0].Qty != -0.5 {
		t.Fatalf("Qty = %v, want -0.5", closes[0].Qty)
	}
}

func TestLongCloseGridZeroPositionIsNone(t *testing.T) {
	spec := market.Spec{QtyStep: 0.001, PriceStep: 0.01}
	closes := LongCloseGrid(0, 100, 99, spec, params.ScalpSideParams{NCloseOrders: 3})
	if len(closes) != 1 || !closes[0].IsNone() {
		t.Fatalf("expected single None order for zero position, got %v", closes)
	}
}

func TestLongEntryInitial(t *testing.T) {
	spec := market.Spec{QtyStep: 0.001, PriceStep: 0.01, MinQty: 0.001}
	sp := params.ScalpSideParams{PrimaryIQtyPct: 0.01, PrimaryPBRLimit: 0.1}
	o := LongEntry(1000, 0, 0, Fill{}, 100, spec, true, sp)
	if o.Kind.String() != "long_ientry" {
		t.Fatalf("Kind = %v, want long_ientry", o.Kind)
	}
	if o.Qty <= 0 {
		t.Fatalf("Qty = %v, want > 0", o.Qty)
	}
}
