package market

import "testing"

func approxEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestCalcLongPnLSignSymmetry(t *testing.T) {
	spec := Spec{Inverse: true, CMult: 1}
	a := CalcLongPnL(50000, 55000, 100, spec)
	b := CalcLongPnL(55000, 50000, 100, spec)
	if !approxEqual(a, -b, 1e-12) {
		t.Fatalf("CalcLongPnL not sign-symmetric: %v vs %v", a, b)
	}
	if got := CalcLongPnL(100, 100, 5, spec); got != 0 {
		t.Fatalf("CalcLongPnL(p,p,..) = %v, want 0", got)
	}
}

func TestCalcLongPnLInverse(t *testing.T) {
	spec := Spec{Inverse: true, CMult: 1}
	got := CalcLongPnL(50000, 55000, 100, spec)
	want := 100 * (1.0/50000 - 1.0/55000)
	if !approxEqual(got, want, 1e-9) {
		t.Fatalf("CalcLongPnL = %v, want %v", got, want)
	}
	gotShrt := CalcShrtPnL(50000, 55000, 100, spec)
	if !approxEqual(gotShrt, -want, 1e-9) {
		t.Fatalf("CalcShrtPnL = %v, want %v", gotShrt, -want)
	}
}

func TestCalcNewPSizePPriceZero(t *testing.T) {
	size, price := CalcNewPSizePPrice(1, 100, -1, 100, 0.001)
	if size != 0 || price != 0 {
		t.Fatalf("CalcNewPSizePPrice closing full size = (%v,%v), want (0,0)", size, price)
	}
}

func TestCalcNewPSizePPriceAveraging(t *testing.T) {
	size, price := CalcNewPSizePPrice(1, 100, 1, 110, 0.001)
	if size != 2 {
		t.Fatalf("size = %v, want 2", size)
	}
	if !approxEqual(price, 105, 1e-9) {
		t.Fatalf("price = %v, want 105", price)
	}
}

func TestAvailableMarginBound(t *testing.T) {
	spec := Spec{Inverse: false, CMult: 1, MaxLeverage: 10}
	long := Position{Size: 1, Price: 100}
	equity := CalcEquity(1000, long, Position{}, 100, spec)
	avail := AvailableMargin(equity, long, Position{}, spec)
	used := UsedMargin(long, Position{}, spec)
	if avail+used > equity*spec.MaxLeverage+1e-9 {
		t.Fatalf("available+used margin exceeds equity*maxLeverage")
	}
	if avail < 0 {
		t.Fatalf("available margin negative: %v", avail)
	}
}

func TestCalcBankruptcyPriceZeroDenominator(t *testing.T) {
	spec := Spec{Inverse: false, CMult: 1}
	got := CalcBankruptcyPrice(100, 1, 100, 1, 100, spec)
	if got != 0 {
		t.Fatalf("CalcBankruptcyPrice with zero denominator = %v, want 0", got)
	}
}

func TestCalcBankruptcyPriceLinear(t *testing.T) {
	spec := Spec{Inverse: false, CMult: 1}
	// long 1 @ 100, balance 10 -> bankrupt when price drops enough that equity hits 0.
	bkr := CalcBankruptcyPrice(10, 1, 100, 0, 0, spec)
	if bkr >= 100 {
		t.Fatalf("bankruptcy price %v should be below entry price for a long", bkr)
	}
}
