package emaband

import "testing"

func TestBandIsMinMax(t *testing.T) {
	e := New([]float64{5, 10, 20})
	e.Seed([]float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110,
		111, 112, 113, 114, 115, 116, 117, 118, 119, 120})
	lower, upper := e.Band()
	vals := e.Values()
	for _, v := range vals {
		if v < lower || v > upper {
			t.Fatalf("EMA value %v outside band [%v, %v]", v, lower, upper)
		}
	}
	if lower > upper {
		t.Fatalf("lower %v > upper %v", lower, upper)
	}
}

func TestMARatiosLength(t *testing.T) {
	emas := []float64{100, 101, 102}
	ratios := MARatios(99.5, emas)
	if len(ratios) != len(emas) {
		t.Fatalf("len(ratios) = %d, want %d", len(ratios), len(emas))
	}
	if ratios[0] != 99.5/100 {
		t.Fatalf("ratios[0] = %v, want %v", ratios[0], 99.5/100)
	}
}

func TestUpdateIncludesZeroQtyHeartbeats(t *testing.T) {
	e := New([]float64{3})
	e.Update(100)
	before := e.Values()[0]
	e.Update(100)
	after := e.Values()[0]
	if before != after {
		t.Fatalf("identical repeated price should leave EMA unchanged: %v vs %v", before, after)
	}
}
