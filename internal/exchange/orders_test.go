package exchange

import "testing"

func TestRoundToTickSizeWithDirection(t *testing.T) {
	cases := []struct {
		price, want float64
		dir         string
	}{
		{100.23, 100.0, "down"},
		{100.01, 100.5, "up"},
		{100.26, 100.5, "nearest"},
	}
	for _, c := range cases {
		got, err := RoundToTickSizeWithDirection(c.price, "0.5", c.dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want, _ := RoundToTickSizeWithDirection(c.want, "0.5", "nearest")
		if got != want {
			t.Errorf("RoundToTickSizeWithDirection(%v, %q) = %s, want %s", c.price, c.dir, got, want)
		}
	}
}

func TestRoundToTickSizeInvalidTick(t *testing.T) {
	got, err := RoundToTickSize(123.456, "not-a-number")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "123.46" {
		t.Errorf("expected fallback 2-decimal formatting, got %s", got)
	}
}
