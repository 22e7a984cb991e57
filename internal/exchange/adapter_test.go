package exchange

import "testing"

func TestInferPositionSide(t *testing.T) {
	cases := []struct {
		customID, side, want string
	}{
		{"long_ientry_1700000000", "buy", "long"},
		{"shrt_close_1700000000", "buy", "shrt"},
		{"shrt_ientry_1700000000", "sell", "shrt"},
		{"long_close_1700000000", "sell", "long"},
		{"unknown", "buy", "both"},
	}
	for _, c := range cases {
		got := inferPositionSide(c.customID, c.side)
		if got != c.want {
			t.Errorf("inferPositionSide(%q, %q) = %q, want %q", c.customID, c.side, got, c.want)
		}
	}
}
