// Command supervisor runs cmd/live as a child process and restarts it
// on crash, up to 30 times with a 30-second backoff between attempts --
// the process-lifecycle contract the live binary's non-zero exit codes
// are meant to be read against. Grounded on cmd/structural-bot/main.go's
// signal-handling shape in the teacher (SIGINT/SIGTERM -> graceful
// Stop), adapted here to supervise a subprocess instead of an in-process
// bot.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/kasyap1234/gridcore/internal/obslog"
)

const (
	maxRestarts = 30
	backoff     = 30 * time.Second
)

func main() {
	logger, err := obslog.New(obslog.Config{Level: "INFO"})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	binary := "live"
	var args []string
	if len(os.Args) > 1 {
		binary = os.Args[1]
		args = os.Args[2:]
	}

	restarts := 0
	for {
		if ctx.Err() != nil {
			logger.Info("supervisor stopping on signal")
			return
		}

		logger.Info("starting child", "binary", binary, "attempt", restarts+1)
		err := runChild(ctx, binary, args, logger)
		if ctx.Err() != nil {
			logger.Info("child stopped by signal, supervisor exiting")
			return
		}
		if err == nil {
			logger.Info("child exited cleanly, supervisor exiting")
			return
		}

		restarts++
		logger.Warn("child crashed", "error", err, "restart_count", restarts)
		if restarts > maxRestarts {
			logger.Error("restart budget exhausted, giving up", "max_restarts", maxRestarts)
			os.Exit(1)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}
}

func runChild(ctx context.Context, binary string, args []string, logger *slog.Logger) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}
