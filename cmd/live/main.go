// Command live runs the grid engine against a running Delta Exchange
// account: it subscribes to the trade stream, recomputes the target
// order set on the same 5-second cadence the replay simulator uses, and
// refreshes resting orders on the exchange. A non-zero exit here tells
// the supervisor to restart the process; see cmd/supervisor.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/kasyap1234/gridcore/config"
	"github.com/kasyap1234/gridcore/internal/emaband"
	"github.com/kasyap1234/gridcore/internal/exchange"
	"github.com/kasyap1234/gridcore/internal/market"
	"github.com/kasyap1234/gridcore/internal/obslog"
	"github.com/kasyap1234/gridcore/internal/order"
	"github.com/kasyap1234/gridcore/internal/orders"
	"github.com/kasyap1234/gridcore/internal/params"
	"github.com/kasyap1234/gridcore/internal/scalp"
	"github.com/kasyap1234/gridcore/internal/simulator"
)

const decisionCadence = 5 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	strategyParams, err := cfg.LoadStrategyParams()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load strategy params: %v\n", err)
		os.Exit(1)
	}

	logger, err := obslog.New(obslog.Config{FilePath: fmt.Sprintf("%s/live.log", cfg.BaseDir), Level: "INFO"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, strategyParams, logger); err != nil {
		logger.Error("live run exited with error", "error", err)
		os.Exit(1)
	}
}

type priceBox struct {
	mu    sync.Mutex
	price float64
	qty   float64
}

func (b *priceBox) set(price, qty float64) {
	b.mu.Lock()
	b.price, b.qty = price, qty
	b.mu.Unlock()
}

func (b *priceBox) get() (float64, float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.price, b.qty
}

func run(ctx context.Context, cfg *config.Config, sp params.StrategyParams, logger *slog.Logger) error {
	adapter := exchange.NewAdapter(cfg)
	defer adapter.Close()

	spec, err := adapter.FetchMarketSpec(cfg.Symbol)
	if err != nil {
		return fmt.Errorf("fetch market spec: %w", err)
	}
	if cfg.MarketType == config.MarketSpot {
		spec.Spot = true
	}
	logger.Info("market spec loaded", obslog.KeySymbol, cfg.Symbol, "max_leverage", spec.MaxLeverage, "qty_step", spec.QtyStep)

	spans := sp.Ema.Spans
	if len(spans) == 0 {
		spans = []float64{1}
	}
	ema := emaband.New(spans)
	if err := warmUp(adapter, cfg.Symbol, spans, ema, logger); err != nil {
		logger.Warn("ema warm-up failed, starting cold", "error", err)
	}

	var px priceBox
	if err := adapter.SubscribeTicks(cfg.Symbol, func(t simulator.Tick) {
		px.set(t.Price, t.Qty)
		ema.Update(t.Price)
	}); err != nil {
		return fmt.Errorf("subscribe ticks: %w", err)
	}

	ticker := time.NewTicker(decisionCadence)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down", obslog.KeySymbol, cfg.Symbol)
			return nil
		case <-ticker.C:
			price, _ := px.get()
			if price == 0 {
				continue
			}
			if err := decide(adapter, cfg, spec, sp, ema, price, logger); err != nil {
				logger.Warn("decision cycle failed", "error", err)
			}
		}
	}
}

// warmUp seeds the EMA vector from the longest configured span's worth
// of 1-minute history, mirroring the replay engine's Seed call.
func warmUp(adapter *exchange.Adapter, symbol string, spans []float64, ema *emaband.Engine, logger *slog.Logger) error {
	maxSpanMin := 1.0
	for _, s := range spans {
		if s > maxSpanMin {
			maxSpanMin = s
		}
	}
	now := time.Now()
	ticks, err := adapter.FetchTicks(symbol, now.Add(-time.Duration(maxSpanMin)*time.Minute), now)
	if err != nil {
		return err
	}
	if len(ticks) == 0 {
		return nil
	}
	prices := make([]float64, len(ticks))
	for i, t := range ticks {
		prices[i] = t.Price
	}
	ema.Seed(prices)
	logger.Info("ema warmed up", obslog.KeySymbol, symbol, "samples", len(prices))
	return nil
}

// decide computes the target order set for the current market state,
// cancels every resting order for the symbol and replaces them with the
// freshly computed set. Grounded on internal/simulator.Engine.nextOrderSet,
// duplicated here because that dispatch is unexported.
func decide(adapter *exchange.Adapter, cfg *config.Config, spec market.Spec, sp params.StrategyParams, ema *emaband.Engine, price float64, logger *slog.Logger) error {
	snap, err := adapter.FetchPosition(cfg.Symbol)
	if err != nil {
		return fmt.Errorf("fetch position: %w", err)
	}

	var longEntry, shrtEntry order.Order
	var longCloses, shrtCloses []order.Order

	switch sp.Kind {
	case params.KindScalp:
		longEntry = scalp.LongEntry(snap.WalletBalance, snap.Long.Size, snap.Long.Price, scalp.Fill{}, price, spec, sp.DoLong, sp.Scalp.Long)
		shrtEntry = scalp.ShrtEntry(snap.WalletBalance, snap.Shrt.Size, snap.Shrt.Price, scalp.Fill{}, price, spec, sp.DoShrt, sp.Scalp.Shrt)
		longCloses = scalp.LongCloseGrid(snap.Long.Size, snap.Long.Price, price, spec, sp.Scalp.Long)
		shrtCloses = scalp.ShrtCloseGrid(snap.Shrt.Size, snap.Shrt.Price, price, spec, sp.Scalp.Shrt)
	default:
		in := orders.Inputs{
			Balance:    snap.WalletBalance,
			LongPSize:  snap.Long.Size, LongPPrice: snap.Long.Price,
			ShrtPSize: snap.Shrt.Size, ShrtPPrice: snap.Shrt.Price,
			HighestBid: price, LowestAsk: price, LastPrice: price,
			MAs: ema.Values(), Spec: spec, HedgeMode: spec.HedgeMode,
			DoLong: sp.DoLong, DoShrt: sp.DoShrt,
		}
		res := orders.CalcOrders(in, sp.Ema)
		longEntry, shrtEntry = res.LongEntry, res.ShrtEntry
		longCloses = []order.Order{res.LongClose}
		shrtCloses = []order.Order{res.ShrtClose}
	}

	open, err := adapter.FetchOpenOrders(cfg.Symbol)
	if err != nil {
		return fmt.Errorf("fetch open orders: %w", err)
	}
	for _, o := range open {
		if err := adapter.ExecuteCancellation(o.OrderID); err != nil {
			logger.Warn("cancel failed", "order_id", o.OrderID, "error", err)
		}
	}

	tickSize := fmt.Sprintf("%g", spec.PriceStep)
	for _, target := range append([]order.Order{longEntry, shrtEntry}, append(longCloses, shrtCloses...)...) {
		if target.IsNone() || math.Abs(target.Qty) == 0 {
			continue
		}
		id, err := adapter.ExecuteOrder(target, positionSideOf(target.Kind), tickSize)
		if err != nil {
			logger.Warn("place order failed", "kind", target.Kind.String(), "error", err)
			continue
		}
		logger.Info("order placed", obslog.KeySymbol, cfg.Symbol, "kind", target.Kind.String(), "order_id", id, "price", target.Price, "qty", target.Qty)
	}
	return nil
}

// positionSideOf reports which side of the book an order kind belongs
// to, from its "long_"/"shrt_" string prefix.
func positionSideOf(k order.Kind) string {
	s := k.String()
	if len(s) >= 4 && s[:4] == "shrt" {
		return "shrt"
	}
	return "long"
}
