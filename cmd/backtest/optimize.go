package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/kasyap1234/gridcore/config"
	"github.com/kasyap1234/gridcore/internal/exchange"
	"github.com/kasyap1234/gridcore/internal/market"
	"github.com/kasyap1234/gridcore/internal/metrics"
	"github.com/kasyap1234/gridcore/internal/params"
	"github.com/kasyap1234/gridcore/internal/simulator"
	"github.com/kasyap1234/gridcore/internal/tickcache"
)

// optimizeFile is the JSON shape of an -o/--optimize_config file: a
// base starting_configs to mutate plus the pbr_limit range to search,
// the one parameter config.SetRange clamps against market max leverage.
type optimizeFile struct {
	BaseConfig string  `json:"base_config"`
	PBRLimitLo float64 `json:"pbr_limit_lo"`
	PBRLimitHi float64 `json:"pbr_limit_hi"`
	Steps      int     `json:"steps"`
}

type candidateResult struct {
	pbrLimit    float64
	totalReturn float64
	maxDrawdown float64
}

// runOptimizer grid-searches pbr_limit over the configured range,
// replaying the same cached tick window for each candidate and
// reporting the one with the highest total return.
func runOptimizer(cfg *config.Config, spec market.Spec, adapter *exchange.Adapter, optPath string, logger *slog.Logger) {
	data, err := os.ReadFile(optPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read optimize_config: %v\n", err)
		os.Exit(1)
	}
	var of optimizeFile
	if err := json.Unmarshal(data, &of); err != nil {
		fmt.Fprintf(os.Stderr, "parse optimize_config: %v\n", err)
		os.Exit(1)
	}
	if of.Steps < 2 {
		of.Steps = 5
	}
	if of.BaseConfig == "" {
		of.BaseConfig = cfg.StartingConfigs
	}

	cfg.SetRange("pbr_limit", of.PBRLimitLo, of.PBRLimitHi, spec.MaxLeverage)
	lo, hi, _ := cfg.RangeFor("pbr_limit")

	base := *cfg
	base.StartingConfigs = of.BaseConfig
	baseParams, err := base.LoadStrategyParams()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load base strategy params: %v\n", err)
		os.Exit(1)
	}

	cache := tickcache.New(fmt.Sprintf("%s/caches", cfg.BaseDir))
	ticks, err := cache.Load(msSource{adapter: adapter}, cfg.Symbol, cfg.StartDate.UnixMilli(), cfg.EndDate.UnixMilli())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load ticks: %v\n", err)
		os.Exit(1)
	}

	results := make([]candidateResult, 0, of.Steps)
	step := (hi - lo) / float64(of.Steps-1)
	for i := 0; i < of.Steps; i++ {
		pbrLimit := lo + step*float64(i)
		candidate := withPBRLimit(baseParams, pbrLimit)

		rt := simulator.DefaultRuntime()
		rt.Warn = func(format string, a ...any) {}
		engine := simulator.New(spec, candidate, rt)
		result, err := engine.Run(ticks, cfg.StartingBalance)
		if err != nil {
			logger.Warn("optimizer candidate failed", "pbr_limit", pbrLimit, "error", err)
			continue
		}

		calc := metrics.NewCalculator(cfg.StartingBalance, cfg.PeriodicGainDays)
		report := calc.Calculate(result)
		results = append(results, candidateResult{pbrLimit: pbrLimit, totalReturn: report.TotalReturn, maxDrawdown: report.MaxDrawdown})
		logger.Info("optimizer candidate", "pbr_limit", pbrLimit, "total_return", report.TotalReturn, "max_drawdown", report.MaxDrawdown)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].totalReturn > results[j].totalReturn })
	fmt.Printf("%-12s %-18s %-18s\n", "pbr_limit", "total_return", "max_drawdown")
	for _, r := range results {
		fmt.Printf("%-12.4f %-18.4f %-18.4f\n", r.pbrLimit, r.totalReturn, r.maxDrawdown)
	}
}

// withPBRLimit returns a copy of p with every side's pbr_limit field
// set to v, covering both the ema-band and scalp strategy families.
func withPBRLimit(p params.StrategyParams, v float64) params.StrategyParams {
	out := p
	switch out.Kind {
	case params.KindScalp:
		out.Scalp.Long.PrimaryPBRLimit = v
		out.Scalp.Long.SecondaryPBRLimit = v
		out.Scalp.Shrt.PrimaryPBRLimit = v
		out.Scalp.Shrt.SecondaryPBRLimit = v
	default:
		out.Ema.Long.PBRLimit = v
		out.Ema.Shrt.PBRLimit = v
	}
	return out
}
