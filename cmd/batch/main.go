// cmd/batch reruns the chat pipeline over records saved with the fallback
// summary, once at startup and then on REPROCESS_SCHEDULE.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"hcplog/config"
	"hcplog/services"
	"hcplog/store"
	"hcplog/workflow"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.NewLogger())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The store may still be starting alongside us.
	var st store.InteractionStore
	for i := 0; i < 3; i++ {
		st, err = store.Open(ctx, cfg.StoreOptions())
		if err == nil {
			break
		}
		slog.Warn("failed to open store", "attempt", i+1, "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		slog.Error("failed to open store after retries", "error", err)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	pipeline, err := workflow.NewChatPipeline()
	if err != nil {
		slog.Error("failed to compile chat pipeline", "error", err)
		os.Exit(1)
	}
	svc := services.NewInteractionService(st, pipeline)

	processor, err := services.NewBatchProcessor(svc, cfg.ReprocessSchedule, cfg.ReprocessTimeout)
	if err != nil {
		slog.Error("failed to create batch processor", "error", err)
		os.Exit(1)
	}

	slog.Info("starting batch processing service", "schedule", cfg.ReprocessSchedule)
	if _, err := processor.ProcessOnce(ctx); err != nil {
		slog.Error("initial processing failed", "error", err)
	}

	processor.Start()
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	processor.Stop(stopCtx)
	slog.Info("batch processing service stopped")
}
