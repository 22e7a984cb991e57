package metrics

import (
	"testing"

	"github.com/kasyap1234/gridcore/internal/simulator"
)

func TestCalculateTotalReturn(t *testing.T) {
	c := NewCalculator(1000, 0)
	res := simulator.Result{
		OK: true,
		Fills: []simulator.FillRecord{
			{Timestamp: 0, Balance: 1000, Equity: 1000},
			{Timestamp: 86400000, Balance: 1100, Equity: 1100},
		},
		FinalBalance: 1100,
	}
	r := c.Calculate(res)
	expected := 0.10
	if absf(r.TotalReturn-expected) > 0.001 {
		t.Errorf("expected return %.4f, got %.4f", expected, r.TotalReturn)
	}
}

func TestCalculateMaxDrawdown(t *testing.T) {
	c := NewCalculator(1000, 0)
	res := simulator.Result{
		Fills: []simulator.FillRecord{
			{Timestamp: 0, Equity: 1000},
			{Timestamp: 48 * 3600000, Equity: 1200},
			{Timestamp: 72 * 3600000, Equity: 1000},
			{Timestamp: 96 * 3600000, Equity: 1100},
		},
		FinalBalance: 1100,
	}
	r := c.Calculate(res)
	expectedDD := 200.0 / 1200.0
	if absf(r.MaxDrawdown-expectedDD) > 0.01 {
		t.Errorf("expected max drawdown %.4f, got %.4f", expectedDD, r.MaxDrawdown)
	}
}

func TestCalculateWinRateAndProfitFactor(t *testing.T) {
	c := NewCalculator(1000, 0)
	res := simulator.Result{
		Fills: []simulator.FillRecord{
			{Timestamp: 0, Equity: 1000, PnL: 0},
			{Timestamp: 1000, Equity: 1100, PnL: 100},
			{Timestamp: 2000, Equity: 1150, PnL: 50},
			{Timestamp: 3000, Equity: 1120, PnL: -30},
			{Timestamp: 4000, Equity: 1080, PnL: -40},
		},
		FinalBalance: 1080,
	}
	r := c.Calculate(res)
	if absf(r.WinRate-0.5) > 0.001 {
		t.Errorf("expected win rate 0.5, got %.4f", r.WinRate)
	}
	expectedPF := 150.0 / 70.0
	if absf(r.ProfitFactor-expectedPF) > 0.001 {
		t.Errorf("expected profit factor %.4f, got %.4f", expectedPF, r.ProfitFactor)
	}
}

func TestFormatReportNoPanic(t *testing.T) {
	c := NewCalculator(1000, 7)
	res := simulator.Result{
		OK: true,
		Fills: []simulator.FillRecord{
			{Timestamp: 0, Equity: 1000, Balance: 1000},
			{Timestamp: 1000, Equity: 1050, Balance: 1050, PnL: 50, FeePaid: 0.1},
		},
		FinalBalance:     1050,
		LowestEqBalRatio: 0.95,
		ClosestBkr:       0.5,
	}
	r := c.Calculate(res)
	out := FormatReport(r)
	if out == "" {
		t.Fatal("expected non-empty report")
	}
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
