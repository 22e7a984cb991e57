package order

import "testing"

func TestEqf(t *testing.T) {
	vals := []float64{1.02, 0.98}
	coeffs := []Coeffs{{Quad: 2, Abs: 3}, {Quad: -1, Abs: 0.5}}
	got := Eqf(vals, coeffs, 1.0)
	want := (1.02*1.02-1.0)*2 + absf(1.02-1.0)*3 +
		(0.98*0.98-1.0)*-1 + absf(0.98-1.0)*0.5
	if !approxEqual(got, want, 1e-12) {
		t.Fatalf("Eqf = %v, want %v", got, want)
	}
}

func TestEqfShorterCoeffsTruncates(t *testing.T) {
	vals := []float64{1.0, 2.0, 3.0}
	coeffs := []Coeffs{{Quad: 1, Abs: 0}}
	got := Eqf(vals, coeffs, 0)
	want := 1.0 * 1.0 * 1
	if got != want {
		t.Fatalf("Eqf with short coeffs = %v, want %v", got, want)
	}
}

func TestEqfMinusZero(t *testing.T) {
	vals := []float64{0.3}
	coeffs := []Coeffs{{Quad: 1, Abs: 1}}
	got := Eqf(vals, coeffs, 0)
	want := 0.3*0.3 + 0.3
	if !approxEqual(got, want, 1e-12) {
		t.Fatalf("Eqf = %v, want %v", got, want)
	}
}

func TestKindStringRoundTrip(t *testing.T) {
	cases := []struct {
		k    Kind
		want string
	}{
		{KindNone, ""},
		{KindLongIEntry, "long_ientry"},
		{KindLongPrimaryREntryAfterPartialClose, "long_primary_rentry_after_partial_close"},
		{KindShrtSClose, "shrt_sclose"},
		{KindLongBankruptcy, "long_bankruptcy"},
	}
	for _, c := range cases {
		if got := c.k.String(); got != c.want {
			t.Fatalf("Kind(%d).String() = %q, want %q", c.k, got, c.want)
		}
	}
}

func TestOrderIsNone(t *testing.T) {
	if !None.IsNone() {
		t.Fatalf("None.IsNone() = false, want true")
	}
	if (Order{Qty: 1}).IsNone() {
		t.Fatalf("non-zero qty order reported as None")
	}
}

func approxEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
