package orders

import (
	"testing"

	"github.com/kasyap1234/gridcore/internal/market"
	"github.com/kasyap1234/gridcore/internal/order"
	"github.com/kasyap1234/gridcore/internal/params"
)

func baseSpec() market.Spec {
	return market.Spec{
		QtyStep: 0.001, PriceStep: 0.01, MinQty: 0.001, MinCost: 0,
		CMult: 1, Inverse: false, MaxLeverage: 10,
	}
}

func TestCalcOrdersIdempotent(t *testing.T) {
	spec := baseSpec()
	in := Inputs{
		Balance: 1000, HighestBid: 99.9, LowestAsk: 100.1, LastPrice: 100,
		MAs: []float64{99, 100, 101}, Spec: spec, DoLong: true,
	}
	p := params.EmaParams{
		Spans: []float64{10, 20, 30},
		Long: params.EmaSideParams{
			PBRStopLoss: 0.5, PBRLimit: 1.0,
			IQtyConst: 0.01, IPrcConst: 1.0, RQtyConst: 0.01, RPrcConst: 1.0, MarkupConst: 1.01,
			IQtyMAr: make([]order.Coeffs, 3), IPrcMAr: make([]order.Coeffs, 3),
			RQtyMAr: make([]order.Coeffs, 3), RPrcMAr: make([]order.Coeffs, 3), MarkupMAr: make([]order.Coeffs, 3),
		},
	}
	r1 := CalcOrders(in, p)
	r2 := CalcOrders(in, p)
	if r1.LongEntry != r2.LongEntry {
		t.Fatalf("CalcOrders not idempotent: %+v vs %+v", r1.LongEntry, r2.LongEntry)
	}
}

func TestCalcOrdersEntryOnPriceStepGrid(t *testing.T) {
	spec := baseSpec()
	in := Inputs{
		Balance: 1000, HighestBid: 99.9, LowestAsk: 100.1, LastPrice: 100,
		MAs: []float64{99, 100, 101}, Spec: spec, DoLong: true,
	}
	p := params.EmaParams{
		Long: params.EmaSideParams{
			PBRLimit: 1.0, IQtyConst: 0.01, IPrcConst: 1.0,
			IQtyMAr: make([]order.Coeffs, 3), IPrcMAr: make([]order.Coeffs, 3),
			RQtyMAr: make([]order.Coeffs, 3), RPrcMAr: make([]order.Coeffs, 3), MarkupMAr: make([]order.Coeffs, 3),
		},
	}
	r := CalcOrders(in, p)
	if r.LongEntry.Qty != 0 {
		residual := r.LongEntry.Price / spec.PriceStep
		if residual != float64(int64(residual+0.5)) {
			t.Fatalf("entry price %v not on price_step grid", r.LongEntry.Price)
		}
	}
}

func TestCalcOrdersHedgeGating(t *testing.T) {
	spec := baseSpec()
	in := Inputs{
		Balance: 1000, HighestBid: 99.9, LowestAsk: 100.1, LastPrice: 100,
		MAs: []float64{99, 100, 101}, Spec: spec,
		HedgeMode: false, DoLong: true, DoShrt: true,
		LongPSize: 0.5, LongPPrice: 100,
	}
	p := params.EmaParams{
		Long: params.EmaSideParams{PBRLimit: 1.0, MarkupConst: 1.01,
			IQtyMAr: make([]order.Coeffs, 3), IPrcMAr: make([]order.Coeffs, 3),
			RQtyMAr: make([]order.Coeffs, 3), RPrcMAr: make([]order.Coeffs, 3), MarkupMAr: make([]order.Coeffs, 3)},
		Shrt: params.EmaSideParams{PBRLimit: 1.0, MarkupConst: 1.0,
			IQtyMAr: make([]order.Coeffs, 3), IPrcMAr: make([]order.Coeffs, 3),
			RQtyMAr: make([]order.Coeffs, 3), RPrcMAr: make([]order.Coeffs, 3), MarkupMAr: make([]order.Coeffs, 3)},
	}
	r := CalcOrders(in, p)
	if !r.ShrtEntry.IsNone() {
		t.Fatalf("non-hedge mode should suppress short entry while long is open, got %+v", r.ShrtEntry)
	}
}

func TestCalcLongOrdersStopCloseTrigger(t *testing.T) {
	spec := baseSpec()
	spec.MinQty = 0.001
	sp := params.EmaSideParams{
		PBRStopLoss: 0.5, PBRLimit: 1.0,
		MarkupConst: 2.0, // pushes nclose_price far above band so sclose wins
		IQtyMAr: make([]order.Coeffs, 3), IPrcMAr: make([]order.Coeffs, 3),
		RQtyMAr: make([]order.Coeffs, 3), RPrcMAr: make([]order.Coeffs, 3), MarkupMAr: make([]order.Coeffs, 3),
	}
	in := Inputs{
		Balance: 100, HighestBid: 99.9, LowestAsk: 100.1, LastPrice: 100,
		LongPSize: 1.3, LongPPrice: 100, Spec: spec,
	}
	maRatios := maRatiosOf(100, []float64{99, 100, 101})
	entry, close := calcLongOrders(in, maRatios, 99, 101, 1000, sp)
	_ = entry
	if close.Kind != order.KindLongSClose {
		t.Fatalf("expected a close order of kind sclose, got %v", close.Kind)
	}
}
