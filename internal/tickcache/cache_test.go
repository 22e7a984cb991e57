package tickcache

import (
	"os"
	"testing"

	"github.com/kasyap1234/gridcore/internal/simulator"
)

type fakeSource struct {
	calls int
	ticks []simulator.Tick
}

func (f *fakeSource) FetchTicks(symbol string, startMs, endMs int64) ([]simulator.Tick, error) {
	f.calls++
	return f.ticks, nil
}

func TestLoadFetchesOnceThenCaches(t *testing.T) {
	dir, err := os.MkdirTemp("", "tickcache_test")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	defer os.RemoveAll(dir)

	src := &fakeSource{ticks: []simulator.Tick{
		{TimestampMs: 1000, Qty: 0.1, Price: 100},
		{TimestampMs: 2000, Qty: 0.2, Price: 101},
	}}
	c := New(dir)

	first, err := c.Load(src, "BTCUSD", 0, 5000)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 ticks, got %d", len(first))
	}

	second, err := c.Load(src, "BTCUSD", 0, 5000)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("expected 1 fetch call, got %d", src.calls)
	}
	if len(second) != 2 || second[0].Price != 100 || second[1].Price != 101 {
		t.Errorf("cached ticks mismatch: %+v", second)
	}
}

func TestClearCache(t *testing.T) {
	dir, err := os.MkdirTemp("", "tickcache_test")
	if err != nil {
		t.Fatalf("mkdtemp: %v", err)
	}
	defer os.RemoveAll(dir)

	src := &fakeSource{ticks: []simulator.Tick{{TimestampMs: 1, Qty: 1, Price: 1}}}
	c := New(dir)
	if _, err := c.Load(src, "ETHUSD", 0, 10); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := c.ClearCache("ETHUSD"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := c.Load(src, "ETHUSD", 0, 10); err != nil {
		t.Fatalf("reload after clear: %v", err)
	}
	if src.calls != 2 {
		t.Errorf("expected fetch again after clear, got %d calls", src.calls)
	}
}
