// Package metrics computes the periodic-gain / drawdown / risk-adjusted
// return statistics reported after a replay, and formats them for a CLI
// report. Grounded on pkg/backtest/metrics.go's MetricsCalculator in the
// teacher: same drawdown/Sharpe/Sortino/Calmar computations and
// hand-rolled report formatter, generalized from the teacher's
// bar-backtest Trade/EquityPoint shapes to internal/simulator's
// FillRecord stream, and wired to the "periodic_gain_n_days" config
// option from spec 6.
package metrics

import (
	"math"
	"time"

	"github.com/kasyap1234/gridcore/internal/numeric"
	"github.com/kasyap1234/gridcore/internal/simulator"
)

// EquityPoint is one balance/equity sample at a point in time, derived
// from a fill record's timestamp.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}

// Report holds the statistics computed from one simulator.Result.
type Report struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	InitialBalance float64
	FinalBalance   float64

	TotalReturn      float64
	AnnualizedReturn float64
	PeriodicGain     float64 // return over the configured PeriodicGainDays window

	MaxDrawdown float64
	Volatility  float64
	SharpeRatio float64
	SortinoRatio float64
	CalmarRatio  float64

	TotalFills    int
	RealizedTrades int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	ProfitFactor  float64
	TotalFees     float64

	LowestEqBalRatio float64
	ClosestBkr       float64
	OK               bool
}

// Calculator holds the starting balance and periodic-gain window used
// to compute a Report from a simulator.Result's fills.
type Calculator struct {
	InitialBalance   float64
	PeriodicGainDays float64
}

// NewCalculator creates a Calculator for the given starting balance.
func NewCalculator(initialBalance, periodicGainDays float64) *Calculator {
	return &Calculator{InitialBalance: initialBalance, PeriodicGainDays: periodicGainDays}
}

// Calculate derives a Report from a completed simulator.Result.
func (c *Calculator) Calculate(res simulator.Result) Report {
	r := Report{
		InitialBalance:   c.InitialBalance,
		FinalBalance:     res.FinalBalance,
		LowestEqBalRatio: res.LowestEqBalRatio,
		ClosestBkr:       res.ClosestBkr,
		OK:               res.OK,
		TotalFills:       len(res.Fills),
	}
	if len(res.Fills) == 0 {
		return r
	}

	curve := buildEquityCurve(res.Fills)
	r.StartTime = curve[0].Timestamp
	r.EndTime = curve[len(curve)-1].Timestamp
	r.Duration = r.EndTime.Sub(r.StartTime)

	r.TotalReturn = totalReturn(c.InitialBalance, curve[len(curve)-1].Equity)
	r.AnnualizedReturn = annualizedReturn(r.TotalReturn, r.Duration)
	r.PeriodicGain = periodicGain(r.AnnualizedReturn, c.PeriodicGainDays)

	daily := dailyReturns(curve)
	r.MaxDrawdown = maxDrawdown(curve)
	r.Volatility = volatility(daily)
	r.SharpeRatio = sharpe(daily)
	r.SortinoRatio = sortino(daily)
	r.CalmarRatio = calmar(r.AnnualizedReturn, r.MaxDrawdown)

	computeTradeStats(&r, res.Fills)
	return r
}

func buildEquityCurve(fills []simulator.FillRecord) []EquityPoint {
	curve := make([]EquityPoint, len(fills))
	for i, f := range fills {
		curve[i] = EquityPoint{Timestamp: time.UnixMilli(f.Timestamp), Equity: f.Equity}
	}
	return curve
}

func totalReturn(initial, final float64) float64 {
	if initial == 0 {
		return 0
	}
	return (final - initial) / initial
}

func annualizedReturn(totalReturn float64, d time.Duration) float64 {
	years := d.Hours() / (24 * 365)
	if years <= 0 {
		return 0
	}
	return math.Pow(1+totalReturn, 1/years) - 1
}

func periodicGain(annualized, periodDays float64) float64 {
	if periodDays <= 0 {
		return 0
	}
	return math.Pow(1+annualized, periodDays/365) - 1
}

func maxDrawdown(curve []EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}
	maxDD := 0.0
	peak := curve[0].Equity
	for _, p := range curve {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak == 0 {
			continue
		}
		dd := (peak - p.Equity) / peak
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

func dailyReturns(curve []EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	dailyEquity := make(map[string]float64)
	var days []string
	for _, p := range curve {
		day := p.Timestamp.Format("2006-01-02")
		if _, seen := dailyEquity[day]; !seen {
			days = append(days, day)
		}
		dailyEquity[day] = p.Equity
	}
	for i := 0; i < len(days)-1; i++ {
		for j := i + 1; j < len(days); j++ {
			if days[i] > days[j] {
				days[i], days[j] = days[j], days[i]
			}
		}
	}
	var returns []float64
	for i := 1; i < len(days); i++ {
		prev := dailyEquity[days[i-1]]
		cur := dailyEquity[days[i]]
		if prev > 0 {
			returns = append(returns, (cur-prev)/prev)
		}
	}
	return returns
}

func meanAndStdDev(xs []float64) (mean, stdDev float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))
	variance := 0.0
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	variance /= float64(len(xs))
	return mean, math.Sqrt(variance)
}

func volatility(daily []float64) float64 {
	if len(daily) < 2 {
		return 0
	}
	_, stdDev := meanAndStdDev(daily)
	return stdDev * math.Sqrt(365)
}

func sharpe(daily []float64) float64 {
	if len(daily) < 2 {
		return 0
	}
	mean, stdDev := meanAndStdDev(daily)
	if stdDev == 0 {
		return 0
	}
	return (mean / stdDev) * math.Sqrt(365)
}

func sortino(daily []float64) float64 {
	if len(daily) < 2 {
		return 0
	}
	mean, _ := meanAndStdDev(daily)
	downsideSum, downsideCount := 0.0, 0
	for _, r := range daily {
		if r < 0 {
			downsideSum += r * r
			downsideCount++
		}
	}
	if downsideCount == 0 {
		return 0
	}
	downsideDev := math.Sqrt(downsideSum / float64(downsideCount))
	if downsideDev == 0 {
		return 0
	}
	return (mean / downsideDev) * math.Sqrt(365)
}

func calmar(annualizedReturn, maxDD float64) float64 {
	if maxDD == 0 {
		return 0
	}
	return annualizedReturn / maxDD
}

func computeTradeStats(r *Report, fills []simulator.FillRecord) {
	var grossProfit, grossLoss float64
	for _, f := range fills {
		r.TotalFees += f.FeePaid
		if f.PnL == 0 {
			continue
		}
		r.RealizedTrades++
		if f.PnL > 0 {
			r.WinningTrades++
			grossProfit += f.PnL
		} else {
			r.LosingTrades++
			grossLoss += -f.PnL
		}
	}
	if r.RealizedTrades > 0 {
		r.WinRate = float64(r.WinningTrades) / float64(r.RealizedTrades)
	}
	if grossLoss > 0 {
		r.ProfitFactor = grossProfit / grossLoss
	}
}

// FormatReport renders a human-readable report, rounding display values
// to the teacher's 2-decimal convention via numeric.RoundDynamic.
func FormatReport(r Report) string {
	pct := func(v float64) string { return formatSigned(v*100) + "%" }
	money := func(v float64) string { return formatSigned(v) }
	num := func(v float64) string { return formatFloat(v) }

	out := "===== REPLAY RESULTS =====\n"
	out += line("Period", r.StartTime.Format("2006-01-02")+" to "+r.EndTime.Format("2006-01-02"))
	out += line("Initial Balance", money(r.InitialBalance))
	out += line("Final Balance", money(r.FinalBalance))
	out += line("Outcome", outcomeString(r))
	out += "\n"

	out += "PERFORMANCE\n"
	out += line("  Total Return", pct(r.TotalReturn))
	out += line("  Annualized Return", pct(r.AnnualizedReturn))
	out += line("  Periodic Gain", pct(r.PeriodicGain))
	out += line("  Max Drawdown", pct(r.MaxDrawdown))
	out += line("  Sharpe Ratio", num(r.SharpeRatio))
	out += line("  Sortino Ratio", num(r.SortinoRatio))
	out += line("  Calmar Ratio", num(r.CalmarRatio))
	out += "\n"

	out += "TRADING STATS\n"
	out += line("  Total Fills", intToString(r.TotalFills))
	out += line("  Realized Trades", intToString(r.RealizedTrades))
	out += line("  Win Rate", pct(r.WinRate))
	out += line("  Profit Factor", num(r.ProfitFactor))
	out += line("  Total Fees", money(r.TotalFees))
	out += "\n"

	out += "RISK WATERMARKS\n"
	out += line("  Lowest Equity/Balance", num(r.LowestEqBalRatio))
	out += line("  Closest Bankruptcy Diff", num(r.ClosestBkr))
	return out
}

func outcomeString(r Report) string {
	if r.OK {
		return "completed"
	}
	if r.ClosestBkr < 0.06 {
		return "liquidated"
	}
	return "drawdown_stop"
}

func line(label, value string) string {
	return label + ": " + value + "\n"
}

func formatSigned(v float64) string {
	sign := ""
	if v > 0 {
		sign = "+"
	}
	return sign + formatFloat(v)
}

func formatFloat(v float64) string {
	v = numeric.RoundDynamic(v, 6)
	negative := v < 0
	if negative {
		v = -v
	}
	scale := math.Pow(10, 2)
	scaled := int64(v*scale + 0.5)
	intPart := scaled / int64(scale)
	decPart := scaled % int64(scale)
	result := intToString(int(intPart)) + "."
	decStr := intToString(int(decPart))
	for len(decStr) < 2 {
		decStr = "0" + decStr
	}
	result += decStr
	if negative {
		result = "-" + result
	}
	return result
}

func intToString(n int) string {
	if n == 0 {
		return "0"
	}
	negative := n < 0
	if negative {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if negative {
		digits = append([]byte{'-'}, digits...)
	}
	return string(digits)
}
