// Backtest CLI - replay a tick window through the grid engine and print
// a metrics report. Flag surface follows the bot's supervised contract:
// positional `user symbol live_config_path` plus flags for the date
// window, market type, starting balance and base directory.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kasyap1234/gridcore/config"
	"github.com/kasyap1234/gridcore/internal/exchange"
	"github.com/kasyap1234/gridcore/internal/metrics"
	"github.com/kasyap1234/gridcore/internal/obslog"
	"github.com/kasyap1234/gridcore/internal/simulator"
	"github.com/kasyap1234/gridcore/internal/tickcache"
)

// msSource adapts exchange.Adapter's time.Time-windowed FetchTicks to
// the epoch-millisecond Source the tick cache expects.
type msSource struct {
	adapter *exchange.Adapter
}

func (s msSource) FetchTicks(symbol string, startMs, endMs int64) ([]simulator.Tick, error) {
	return s.adapter.FetchTicks(symbol, time.UnixMilli(startMs), time.UnixMilli(endMs))
}

func main() {
	var (
		nojit           = flag.Bool("nojit", false, "no-op, kept for CLI parity")
		backtestConfig  = flag.String("backtest_config", "", "path to a run's starting_configs (overrides positional)")
		backtestConfigB = flag.String("b", "", "shorthand for --backtest_config")
		optimizeConfig  = flag.String("optimize_config", "", "path to an optimizer ranges config")
		optimizeConfigO = flag.String("o", "", "shorthand for --optimize_config")
		downloadOnly    = flag.Bool("download-only", false, "fetch and cache ticks, then exit")
		downloadOnlyD   = flag.Bool("d", false, "shorthand for --download-only")
		symbolFlag      = flag.String("symbol", "", "overrides the positional symbol")
		symbolS         = flag.String("s", "", "shorthand for --symbol")
		userFlag        = flag.String("user", "", "overrides the positional user")
		userU           = flag.String("u", "", "shorthand for --user")
		startDate       = flag.String("start_date", "", "replay window start, YYYY-MM-DD")
		endDate         = flag.String("end_date", "", "replay window end, YYYY-MM-DD")
		startingBalance = flag.Float64("starting_balance", 0, "overrides starting balance")
		marketType      = flag.String("market_type", "", "futures or spot")
		marketTypeM     = flag.String("m", "", "shorthand for --market_type")
		baseDir         = flag.String("base_dir", "", "overrides the run's cache/log base directory")
		baseDirBD       = flag.String("bd", "", "shorthand for --base_dir")
	)
	flag.Parse()
	_ = nojit

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) > 0 {
		cfg.User = args[0]
	}
	if len(args) > 1 {
		cfg.Symbol = args[1]
	}
	if len(args) > 2 {
		cfg.StartingConfigs = args[2]
	}

	if v := firstNonEmpty(*userFlag, *userU); v != "" {
		cfg.User = v
	}
	if v := firstNonEmpty(*symbolFlag, *symbolS); v != "" {
		cfg.Symbol = v
	}
	if v := firstNonEmpty(*marketType, *marketTypeM); v != "" {
		cfg.MarketType = config.MarketType(v)
	}
	if v := firstNonEmpty(*baseDir, *baseDirBD); v != "" {
		cfg.BaseDir = v
	}
	if v := firstNonEmpty(*backtestConfig, *backtestConfigB); v != "" {
		cfg.StartingConfigs = v
	}
	if *startingBalance > 0 {
		cfg.StartingBalance = *startingBalance
	}
	if *startDate != "" {
		t, err := time.Parse("2006-01-02", *startDate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid start_date: %v\n", err)
			os.Exit(1)
		}
		cfg.StartDate = t
	}
	if *endDate != "" {
		t, err := time.Parse("2006-01-02", *endDate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid end_date: %v\n", err)
			os.Exit(1)
		}
		cfg.EndDate = t
	}

	logger, err := obslog.New(obslog.Config{FilePath: fmt.Sprintf("%s/backtest.log", cfg.BaseDir), Level: "INFO"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("backtest starting", obslog.KeySymbol, cfg.Symbol, "user", cfg.User, "market_type", cfg.MarketType)

	adapter := exchange.NewAdapter(cfg)
	defer adapter.Close()

	spec, err := adapter.FetchMarketSpec(cfg.Symbol)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch market spec: %v\n", err)
		os.Exit(1)
	}
	if cfg.MarketType == config.MarketSpot {
		spec.Spot = true
	}

	optPath := firstNonEmpty(*optimizeConfig, *optimizeConfigO)
	if optPath != "" {
		runOptimizer(cfg, spec, adapter, optPath, logger)
		return
	}

	cache := tickcache.New(fmt.Sprintf("%s/caches", cfg.BaseDir))
	ticks, err := cache.Load(msSource{adapter: adapter}, cfg.Symbol, cfg.StartDate.UnixMilli(), cfg.EndDate.UnixMilli())
	if err != nil {
		fmt.Fprintf(os.Stderr, "load ticks: %v\n", err)
		os.Exit(1)
	}
	logger.Info("ticks loaded", obslog.KeySymbol, cfg.Symbol, "count", len(ticks))

	if *downloadOnly || *downloadOnlyD {
		return
	}

	if cfg.StartingConfigs == "" {
		fmt.Fprintln(os.Stderr, "live_config_path is required for a replay run")
		os.Exit(1)
	}
	strategyParams, err := cfg.LoadStrategyParams()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load strategy params: %v\n", err)
		os.Exit(1)
	}

	rt := simulator.DefaultRuntime()
	rt.Warn = func(format string, a ...any) { logger.Warn(fmt.Sprintf(format, a...)) }
	engine := simulator.New(spec, strategyParams, rt)

	result, err := engine.Run(ticks, cfg.StartingBalance)
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		os.Exit(1)
	}

	calc := metrics.NewCalculator(cfg.StartingBalance, cfg.PeriodicGainDays)
	report := calc.Calculate(result)
	fmt.Println(metrics.FormatReport(report))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
