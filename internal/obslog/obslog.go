// Package obslog provides the structured logging the rest of the engine
// writes invariant warnings and termination events through. Grounded on
// pkg/logger/logger.go and pkg/logger/console.go in the teacher:
// log/slog JSON handler writing to a rotated file via
// gopkg.in/natefinch/lumberjack.v2 when a file path is set, otherwise to
// stdout. ConsoleColor maps level names to ANSI color codes; New does
// not use it, and no colored console handler is built. Adapted from the teacher's
// generic trade/health event shapes to the simulator's fill records and
// termination watermarks.
package obslog

import (
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Standard structured-log keys, shared across every component that logs
// through this package so fields line up in aggregation.
const (
	KeySymbol    = "symbol"
	KeyComponent = "component"
	KeySide      = "side"
)

// Config controls where and how verbosely the logger writes.
type Config struct {
	FilePath   string
	Level      string // DEBUG, INFO, WARN, ERROR
	MaxSize    int    // megabytes
	MaxBackups int
	MaxAge     int // days
}

// New builds a JSON slog.Logger. With FilePath set, output is rotated
// via lumberjack; otherwise it goes to stdout.
func New(cfg Config) (*slog.Logger, error) {
	var w *lumberjack.Logger
	if cfg.FilePath != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
		}
		if w.MaxSize == 0 {
			w.MaxSize = 100
		}
		if w.MaxBackups == 0 {
			w.MaxBackups = 3
		}
		if w.MaxAge == 0 {
			w.MaxAge = 28
		}
	}

	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if w != nil {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler), nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FillLogEvent mirrors a simulator.FillRecord for structured logging,
// decoupled from the internal/simulator package so obslog has no
// dependency on the engine it serves.
type FillLogEvent struct {
	Symbol    string  `json:"symbol"`
	Tag       string  `json:"tag"`
	Qty       float64 `json:"qty"`
	Price     float64 `json:"price"`
	Balance   float64 `json:"balance"`
	Equity    float64 `json:"equity"`
	Timestamp int64   `json:"timestamp_ms"`
}

// TerminationEvent records why a replay or live session stopped: a
// drawdown floor breach or a bankruptcy-proximity liquidation, per spec
// 4.6's termination gates.
type TerminationEvent struct {
	Symbol           string  `json:"symbol"`
	Reason           string  `json:"reason"` // "drawdown" or "bankruptcy"
	LowestEqBalRatio float64 `json:"lowest_eqbal_ratio"`
	ClosestBkr       float64 `json:"closest_bkr"`
}

// LogFill writes a fill event at INFO.
func LogFill(l *slog.Logger, e FillLogEvent) {
	l.Info("fill", "symbol", e.Symbol, "tag", e.Tag, "qty", e.Qty, "price", e.Price,
		"balance", e.Balance, "equity", e.Equity, "timestamp_ms", e.Timestamp)
}

// LogTermination writes a termination event at WARN.
func LogTermination(l *slog.Logger, e TerminationEvent) {
	l.Warn("terminated", "symbol", e.Symbol, "reason", e.Reason,
		"lowest_eqbal_ratio", e.LowestEqBalRatio, "closest_bkr", e.ClosestBkr)
}

// ANSI color codes for the interactive console formatter.
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// ConsoleColor returns the ANSI color for a log level, empty for
// unrecognized levels.
func ConsoleColor(level string) string {
	switch level {
	case "INFO":
		return ColorGreen
	case "WARN":
		return ColorYellow
	case "ERROR":
		return ColorRed
	case "DEBUG":
		return ColorCyan
	default:
		return ColorReset
	}
}
