package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/aurumline/exportdesk/internal/adapters/http"
	"github.com/aurumline/exportdesk/internal/bootstrap"
	"github.com/aurumline/exportdesk/internal/config"
	"github.com/aurumline/exportdesk/internal/observability/logging"
	"github.com/aurumline/exportdesk/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(httpadapter.Options{
		Service:        "api",
		RateLimitRPS:   cfg.APIRateLimitRPS,
		RateLimitBurst: cfg.APIRateLimitBurst,
		MaxConcurrent:  cfg.APIMaxConcurrent,
		QueueTimeout:   cfg.APIQueueTimeout,
		Metrics:        metrics.NewHTTPServerMetrics("api"),
	}, httpadapter.Dependencies{
		Groups:           app.Groups,
		Users:            app.Users,
		Projects:         app.Projects,
		Invoices:         app.Invoices,
		Documents:        app.Documents,
		CustomAgents:     app.CustomAgents,
		ShippingServices: app.ShippingServices,
		Addresses:        app.Addresses,
		Activity:         app.Activity,
		Storage:          app.Storage,
		Gateway:          app.DocumentGateway,
		InvoiceIngest:    app.Ingest,
		DocumentIngest:   app.Ingest,
		Translator:       app.Translator,
		Analyzer:         app.Analyzer,
	})

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}
