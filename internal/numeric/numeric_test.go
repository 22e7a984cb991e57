package numeric

import "testing"

func TestRoundGrid(t *testing.T) {
	step := 0.01
	x := 1.2349999999
	dn := RoundDn(x, step)
	up := RoundUp(x, step)
	if up != dn && up != dn+step {
		t.Fatalf("RoundUp(%v) = %v, want %v or %v", x, up, dn, dn+step)
	}
}

func TestRoundIntegerMultiple(t *testing.T) {
	step := 0.001
	n := 7.0
	if got := Round(n*step, step); got != n*step {
		t.Fatalf("Round(%v, %v) = %v, want %v", n*step, step, got, n*step)
	}
}

func TestCalcDiff(t *testing.T) {
	if got := CalcDiff(90, 100); got != 0.1 {
		t.Fatalf("CalcDiff(90,100) = %v, want 0.1", got)
	}
	if got := CalcDiff(5, 0); got != 0 {
		t.Fatalf("CalcDiff with zero denominator = %v, want 0", got)
	}
}

func TestNanTo0(t *testing.T) {
	var nan = 0.0
	nan = nan / nan
	if got := NanTo0(nan); got != 0 {
		t.Fatalf("NanTo0(NaN) = %v, want 0", got)
	}
	if got := NanTo0(3.5); got != 3.5 {
		t.Fatalf("NanTo0(3.5) = %v, want 3.5", got)
	}
}

func TestRoundDynamic(t *testing.T) {
	if got := RoundDynamic(12345.678, 3); got != 12300 {
		t.Fatalf("RoundDynamic(12345.678, 3) = %v, want 12300", got)
	}
}
