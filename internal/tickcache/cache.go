// Package tickcache persists and reloads the tick-replay simulator's
// input as CSV files under a per-symbol cache directory, so a replay
// over the same window never re-fetches data it already has.
// Grounded on pkg/backtest/data_loader.go's cache-then-fetch pattern
// in the teacher, adapted from its JSON candle cache to the CSV
// agg_trades layout spec 6's persisted artifacts describe.
package tickcache

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/kasyap1234/gridcore/internal/simulator"
)

// Source fetches ticks for a window when the cache misses.
type Source interface {
	FetchTicks(symbol string, startMs, endMs int64) ([]simulator.Tick, error)
}

// Cache reads/writes tick windows as CSV files under
// <dir>/<symbol>/<start>_<end>_<firstTs>_<lastTs>.csv, columns
// timestamp, qty, price -- matching the agg_trades naming convention.
type Cache struct {
	Dir string
}

// New creates a Cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{Dir: dir}
}

func (c *Cache) symbolDir(symbol string) string {
	return filepath.Join(c.Dir, symbol)
}

// Load returns cached ticks covering [startMs, endMs) for symbol, or
// fetches and caches them from src on a miss.
func (c *Cache) Load(src Source, symbol string, startMs, endMs int64) ([]simulator.Tick, error) {
	if cached, ok := c.loadFromDisk(symbol, startMs, endMs); ok {
		return cached, nil
	}

	ticks, err := src.FetchTicks(symbol, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("fetch ticks for %s: %w", symbol, err)
	}
	if err := c.save(symbol, startMs, endMs, ticks); err != nil {
		return ticks, fmt.Errorf("cache ticks for %s: %w", symbol, err)
	}
	return ticks, nil
}

func (c *Cache) loadFromDisk(symbol string, startMs, endMs int64) ([]simulator.Tick, bool) {
	dir := c.symbolDir(symbol)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, false
	}
	prefix := fmt.Sprintf("%d_%d_", startMs, endMs)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if len(name) < len(prefix) || name[:len(prefix)] != prefix {
			continue
		}
		ticks, err := readCSV(filepath.Join(dir, name))
		if err != nil {
			return nil, false
		}
		return ticks, true
	}
	return nil, false
}

func (c *Cache) save(symbol string, startMs, endMs int64, ticks []simulator.Tick) error {
	dir := c.symbolDir(symbol)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	var firstTs, lastTs int64
	if len(ticks) > 0 {
		firstTs = ticks[0].TimestampMs
		lastTs = ticks[len(ticks)-1].TimestampMs
	}
	name := fmt.Sprintf("%d_%d_%d_%d.csv", startMs, endMs, firstTs, lastTs)
	return writeCSV(filepath.Join(dir, name), ticks)
}

func writeCSV(path string, ticks []simulator.Tick) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "qty", "price"}); err != nil {
		return err
	}
	for _, t := range ticks {
		row := []string{
			strconv.FormatInt(t.TimestampMs, 10),
			strconv.FormatFloat(t.Qty, 'f', -1, 64),
			strconv.FormatFloat(t.Price, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func readCSV(path string) ([]simulator.Tick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, nil
	}

	ticks := make([]simulator.Tick, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 3 {
			continue
		}
		ts, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			continue
		}
		price, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			continue
		}
		ticks = append(ticks, simulator.Tick{TimestampMs: ts, Qty: qty, Price: price})
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i].TimestampMs < ticks[j].TimestampMs })
	return ticks, nil
}

// ClearCache removes every cached file for a symbol.
func (c *Cache) ClearCache(symbol string) error {
	return os.RemoveAll(c.symbolDir(symbol))
}
