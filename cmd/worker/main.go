package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aurumline/exportdesk/internal/bootstrap"
	"github.com/aurumline/exportdesk/internal/config"
	"github.com/aurumline/exportdesk/internal/core/domain"
	"github.com/aurumline/exportdesk/internal/observability/logging"
	"github.com/aurumline/exportdesk/internal/observability/metrics"
)

const taskTimeout = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	app.Analyzer.SetPhaseObserver(func(phase string, d time.Duration) {
		workerMetrics.ObservePhase("worker", phase, d)
	})

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", workerMetrics.Handler())
	metricsMux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: metricsMux,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeTasks(ctx, func(handlerCtx context.Context, task domain.Task) error {
		if !task.EnqueuedAt.IsZero() {
			workerMetrics.ObserveQueueLag("worker", time.Since(task.EnqueuedAt))
		}
		workerMetrics.StartTask()

		taskCtx, cancel := context.WithTimeout(handlerCtx, taskTimeout)
		defer cancel()

		start := time.Now()
		var taskErr error
		switch task.Kind {
		case domain.TaskTranslateInvoice:
			taskErr = app.Translator.TranslateByID(taskCtx, task.InvoiceID)
		case domain.TaskAnalyzeDocument:
			taskErr = app.Analyzer.AnalyzeByID(taskCtx, task.DocumentID)
		default:
			taskErr = fmt.Errorf("unknown task kind %q", task.Kind)
		}
		workerMetrics.FinishTask("worker", string(task.Kind), time.Since(start), taskErr)

		if taskErr != nil {
			logger.Error("task failed",
				"task_id", task.ID,
				"kind", task.Kind,
				"project_id", task.ProjectID,
				"error", taskErr)
		}
		return taskErr
	})
	if err != nil {
		logger.Error("worker subscribe error", "error", err)
		os.Exit(1)
	}
}
